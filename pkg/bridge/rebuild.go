package bridge

import (
	"context"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/rs/zerolog/log"
	"github.com/transitlive/transitlive/pkg/feed"
)

const DefaultRebuildInterval = 10 * time.Second

// Tick runs one eviction and rebuild cycle. It is a no-op when no ingest
// happened since the last tick, and re-entrant ticks coalesce - only one
// rebuild ever runs at a time.
func (b *Bridge) Tick(now time.Time) {
	if !b.rebuildMutex.TryLock() {
		return
	}
	defer b.rebuildMutex.Unlock()

	if !b.store.ConsumeDirty() {
		log.Debug().Msg("No new data since last tick, skipping rebuild")
		return
	}

	startTime := time.Now()
	collected := b.store.SweepAndCollect(now)

	tripUpdates := newSnapshotBuilder(feed.ClassTripUpdates, now)
	for _, record := range collected.Journeys {
		tripUpdates.add(record.Datasource, feed.TripUpdateFromJourney(record))
	}

	vehiclePositions := newSnapshotBuilder(feed.ClassVehiclePositions, now)
	for _, record := range collected.Vehicles {
		vehiclePositions.add(record.Datasource, feed.VehiclePositionFromActivity(record, now))
	}

	alerts := newSnapshotBuilder(feed.ClassAlerts, now)
	ctx := context.Background()
	for _, record := range collected.Situations {
		alerts.add(record.Datasource, b.alertMapper.AlertFromSituation(ctx, record))
	}

	tripUpdates.publish(b.publisher)
	vehiclePositions.publish(b.publisher)
	alerts.publish(b.publisher)

	log.Info().
		Int("tripupdates", len(tripUpdates.combined)).
		Int("vehiclepositions", len(vehiclePositions.combined)).
		Int("alerts", len(alerts.combined)).
		Int("evicted", collected.Evicted).
		Str("time", time.Since(startTime).String()).
		Msg("Rebuilt feed snapshots")
}

// StartRebuildLoop fires Tick on a fixed cadence until the context ends.
func (b *Bridge) StartRebuildLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultRebuildInterval
	}

	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				b.Tick(time.Now())
			}
		}
	}()
}

// snapshotBuilder accumulates mapped entities for one class, combined and per
// datasource, then installs fresh snapshots in one publish.
type snapshotBuilder struct {
	class   feed.Class
	builtAt time.Time

	combined     []*gtfs.FeedEntity
	byDatasource map[string][]*gtfs.FeedEntity
}

func newSnapshotBuilder(class feed.Class, builtAt time.Time) *snapshotBuilder {
	return &snapshotBuilder{
		class:        class,
		builtAt:      builtAt,
		byDatasource: map[string][]*gtfs.FeedEntity{},
	}
}

func (s *snapshotBuilder) add(datasource string, entity *gtfs.FeedEntity) {
	if entity == nil {
		return
	}

	s.combined = append(s.combined, entity)
	s.byDatasource[datasource] = append(s.byDatasource[datasource], entity)
}

func (s *snapshotBuilder) publish(publisher *feed.Publisher) {
	byDatasource := map[string]*feed.Snapshot{}
	for datasource, entities := range s.byDatasource {
		byDatasource[datasource] = feed.NewSnapshot(s.class, datasource, s.builtAt, entities)
	}

	publisher.Publish(s.class, feed.NewSnapshot(s.class, "", s.builtAt, s.combined), byDatasource)
}
