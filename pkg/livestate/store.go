package livestate

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const DefaultStaleThreshold = 300 * time.Second

// MirrorWriter is the write-through side of the distributed mirror. Put
// failures must never affect the in-memory store, so implementations return
// errors for logging only.
type MirrorWriter interface {
	Put(class Class, datasource string, id string, record any, ttl time.Duration) error
}

// Store holds the canonical per-entity live state, one mapping per entity
// class. Upserts from concurrent producers and the evicting sweep serialise
// on the store mutex; published snapshot reads never touch it.
type Store struct {
	mu    sync.RWMutex
	dirty bool

	staleThreshold time.Duration
	mirror         MirrorWriter

	vehicles   map[qualifiedJourneyKey]*VehicleActivityRecord
	journeys   map[qualifiedJourneyKey]*EstimatedJourneyRecord
	situations map[SituationKey]*SituationRecord
}

func NewStore(staleThreshold time.Duration, mirror MirrorWriter) *Store {
	if staleThreshold <= 0 {
		staleThreshold = DefaultStaleThreshold
	}

	return &Store{
		staleThreshold: staleThreshold,
		mirror:         mirror,

		vehicles:   map[qualifiedJourneyKey]*VehicleActivityRecord{},
		journeys:   map[qualifiedJourneyKey]*EstimatedJourneyRecord{},
		situations: map[SituationKey]*SituationRecord{},
	}
}

func (s *Store) StaleThreshold() time.Duration {
	return s.staleThreshold
}

func (s *Store) UpsertVehicle(record *VehicleActivityRecord) {
	s.mu.Lock()
	s.vehicles[qualifiedJourneyKey{record.Datasource, record.Key}] = record
	s.dirty = true
	s.mu.Unlock()

	s.mirrorPut(ClassVehicleActivity, record.Datasource, record.Key.String(), record, s.staleThreshold)
}

func (s *Store) UpsertJourney(record *EstimatedJourneyRecord) {
	s.mu.Lock()
	s.journeys[qualifiedJourneyKey{record.Datasource, record.Key}] = record
	s.dirty = true
	s.mu.Unlock()

	s.mirrorPut(ClassEstimatedJourney, record.Datasource, record.Key.String(), record, s.staleThreshold)
}

func (s *Store) UpsertSituation(record *SituationRecord) {
	s.mu.Lock()
	s.situations[record.Key] = record
	s.dirty = true
	s.mu.Unlock()

	ttl := s.staleThreshold
	if record.ExpiresAt != nil {
		if remaining := time.Until(*record.ExpiresAt); remaining > ttl {
			ttl = remaining
		}
	}

	s.mirrorPut(ClassSituation, record.Datasource, record.Key.SituationID, record, ttl)
}

func (s *Store) mirrorPut(class Class, datasource string, id string, record any, ttl time.Duration) {
	if s.mirror == nil {
		return
	}

	if err := s.mirror.Put(class, datasource, id, record, ttl); err != nil {
		log.Error().Err(err).Str("class", string(class)).Str("id", id).Msg("Failed to mirror record")
	}
}

// Restore inserts a record recovered from the mirror without writing it back
// through, keeping its original ingest timestamp.
func (s *Store) Restore(record any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch r := record.(type) {
	case *VehicleActivityRecord:
		s.vehicles[qualifiedJourneyKey{r.Datasource, r.Key}] = r
	case *EstimatedJourneyRecord:
		s.journeys[qualifiedJourneyKey{r.Datasource, r.Key}] = r
	case *SituationRecord:
		s.situations[r.Key] = r
	}

	s.dirty = true
}

// ConsumeDirty reports whether any upsert happened since the last call and
// clears the flag. The rebuild cycle uses it to skip ticks with nothing new.
func (s *Store) ConsumeDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	dirty := s.dirty
	s.dirty = false

	return dirty
}

// Collected is the immutable view handed to the entity mappers after a sweep.
// Slices are ordered by key so repeated rebuilds of unchanged state produce
// identical output.
type Collected struct {
	Vehicles   []*VehicleActivityRecord
	Journeys   []*EstimatedJourneyRecord
	Situations []*SituationRecord

	Evicted int
}

// SweepAndCollect removes stale entries (and closed or expired situations)
// under exclusive access, then returns the survivors. This is the only path
// that deletes from the store.
func (s *Store) SweepAndCollect(now time.Time) Collected {
	s.mu.Lock()
	defer s.mu.Unlock()

	var collected Collected
	nowMillis := now.UnixMilli()
	thresholdMillis := s.staleThreshold.Milliseconds()

	for key, record := range s.vehicles {
		if nowMillis-record.ReceivedAt > thresholdMillis {
			delete(s.vehicles, key)
			collected.Evicted += 1
		}
	}

	for key, record := range s.journeys {
		if nowMillis-record.ReceivedAt > thresholdMillis {
			delete(s.journeys, key)
			collected.Evicted += 1
		}
	}

	for key, record := range s.situations {
		if record.Closed() || record.Expired(now) {
			delete(s.situations, key)
			collected.Evicted += 1
		}
	}

	collected.Vehicles = maps.Values(s.vehicles)
	slices.SortFunc(collected.Vehicles, func(a, b *VehicleActivityRecord) int {
		return compareKeys(a.Datasource, a.Key.String(), b.Datasource, b.Key.String())
	})

	collected.Journeys = maps.Values(s.journeys)
	slices.SortFunc(collected.Journeys, func(a, b *EstimatedJourneyRecord) int {
		return compareKeys(a.Datasource, a.Key.String(), b.Datasource, b.Key.String())
	})

	collected.Situations = maps.Values(s.situations)
	slices.SortFunc(collected.Situations, func(a, b *SituationRecord) int {
		return compareKeys(a.Datasource, a.Key.SituationID, b.Datasource, b.Key.SituationID)
	})

	return collected
}

func compareKeys(aDatasource string, aKey string, bDatasource string, bKey string) int {
	if aDatasource != bDatasource {
		if aDatasource < bDatasource {
			return -1
		}
		return 1
	}

	if aKey < bKey {
		return -1
	} else if aKey > bKey {
		return 1
	}

	return 0
}

// Reset drops all canonical state.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.vehicles = map[qualifiedJourneyKey]*VehicleActivityRecord{}
	s.journeys = map[qualifiedJourneyKey]*EstimatedJourneyRecord{}
	s.situations = map[SituationKey]*SituationRecord{}
	s.dirty = true
}
