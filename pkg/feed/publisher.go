package feed

import (
	"sync/atomic"
	"time"
)

type publishedSet struct {
	combined     *Snapshot
	byDatasource map[string]*Snapshot
}

// Publisher holds the latest snapshot per class, plus the per-datasource
// partitions. Publishing is an atomic pointer swap so readers never share a
// lock with ingestion or the rebuild cycle - a reader always sees one fully
// formed snapshot.
type Publisher struct {
	tripUpdates      atomic.Pointer[publishedSet]
	vehiclePositions atomic.Pointer[publishedSet]
	alerts           atomic.Pointer[publishedSet]
}

func NewPublisher() *Publisher {
	publisher := &Publisher{}
	publisher.Reset()

	return publisher
}

func (p *Publisher) pointerFor(class Class) *atomic.Pointer[publishedSet] {
	switch class {
	case ClassTripUpdates:
		return &p.tripUpdates
	case ClassVehiclePositions:
		return &p.vehiclePositions
	case ClassAlerts:
		return &p.alerts
	}

	return nil
}

func (p *Publisher) Publish(class Class, combined *Snapshot, byDatasource map[string]*Snapshot) {
	pointer := p.pointerFor(class)
	if pointer == nil {
		return
	}

	pointer.Store(&publishedSet{
		combined:     combined,
		byDatasource: byDatasource,
	})
}

// Read returns the current snapshot for a class, or the datasource partition
// when a filter is given. An unknown datasource reads as an empty snapshot
// stamped with the combined build time.
func (p *Publisher) Read(class Class, datasource string) *Snapshot {
	pointer := p.pointerFor(class)
	if pointer == nil {
		return nil
	}

	set := pointer.Load()

	if datasource == "" {
		return set.combined
	}

	if snapshot, found := set.byDatasource[datasource]; found {
		return snapshot
	}

	return NewSnapshot(class, datasource, set.combined.BuiltAt, nil)
}

// Reset reinstalls empty snapshots for every class.
func (p *Publisher) Reset() {
	now := time.Now()

	for _, class := range Classes {
		p.pointerFor(class).Store(&publishedSet{
			combined:     NewSnapshot(class, "", now, nil),
			byDatasource: map[string]*Snapshot{},
		})
	}
}
