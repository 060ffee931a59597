package livestate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DefaultMirrorMaxEntries = 50000

const mirrorKeyPrefix = "transitlive:mirror"

var mirrorClasses = []Class{ClassVehicleActivity, ClassEstimatedJourney, ClassSituation}

// RedisMirror is the write-through, TTL-bounded replica of canonical records
// used when multiple instances share live state. Each entity class keeps a
// recency-scored index so the entry count stays below the configured cap,
// evicting least-recently-written entries first.
type RedisMirror struct {
	client     *redis.Client
	maxEntries int64
}

func NewRedisMirror(client *redis.Client, maxEntries int64) *RedisMirror {
	if maxEntries <= 0 {
		maxEntries = DefaultMirrorMaxEntries
	}

	return &RedisMirror{
		client:     client,
		maxEntries: maxEntries,
	}
}

func mirrorDataKey(class Class, datasource string, id string) string {
	return fmt.Sprintf("%s:%s:%s:%s", mirrorKeyPrefix, class, datasource, id)
}

func mirrorIndexKey(class Class) string {
	return fmt.Sprintf("%s-index:%s", mirrorKeyPrefix, class)
}

func (m *RedisMirror) Put(class Class, datasource string, id string, record any, ttl time.Duration) error {
	ctx := context.Background()

	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}

	dataKey := mirrorDataKey(class, datasource, id)
	indexKey := mirrorIndexKey(class)

	pipe := m.client.TxPipeline()
	pipe.Set(ctx, dataKey, payload, ttl)
	pipe.ZAdd(ctx, indexKey, redis.Z{
		Score:  float64(time.Now().UnixNano()),
		Member: dataKey,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	return m.enforceBound(ctx, indexKey)
}

func (m *RedisMirror) enforceBound(ctx context.Context, indexKey string) error {
	count, err := m.client.ZCard(ctx, indexKey).Result()
	if err != nil {
		return err
	}

	if count <= m.maxEntries {
		return nil
	}

	evicted, err := m.client.ZPopMin(ctx, indexKey, count-m.maxEntries).Result()
	if err != nil {
		return err
	}

	for _, entry := range evicted {
		dataKey, ok := entry.Member.(string)
		if !ok {
			continue
		}

		if err := m.client.Del(ctx, dataKey).Err(); err != nil {
			return err
		}

		log.Debug().Str("key", dataKey).Msg("Evicted least recently written mirror entry")
	}

	return nil
}

// MirrorEntry is one raw record read back from the mirror.
type MirrorEntry struct {
	Class   Class
	Payload []byte
}

// ReadAll returns the full current contents of one class. Entries whose data
// key expired are dropped from the index as a side effect.
func (m *RedisMirror) ReadAll(class Class) ([]MirrorEntry, error) {
	ctx := context.Background()
	indexKey := mirrorIndexKey(class)

	members, err := m.client.ZRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	if len(members) == 0 {
		return nil, nil
	}

	values, err := m.client.MGet(ctx, members...).Result()
	if err != nil {
		return nil, err
	}

	var entries []MirrorEntry

	for i, value := range values {
		if value == nil {
			// TTL ran out, tidy the index
			m.client.ZRem(ctx, indexKey, members[i])
			continue
		}

		payload, ok := value.(string)
		if !ok {
			continue
		}

		entries = append(entries, MirrorEntry{Class: class, Payload: []byte(payload)})
	}

	return entries, nil
}

// Reset clears every class in a single delete so no class outlives another.
// Used for test isolation and operational recovery.
func (m *RedisMirror) Reset() error {
	ctx := context.Background()

	var keys []string

	for _, class := range mirrorClasses {
		indexKey := mirrorIndexKey(class)

		members, err := m.client.ZRange(ctx, indexKey, 0, -1).Result()
		if err != nil {
			return err
		}

		keys = append(keys, members...)
		keys = append(keys, indexKey)
	}

	return m.client.Del(ctx, keys...).Err()
}

// RestoreStore reloads a store from the mirror, typically on instance
// startup when a peer has been ingesting. Undecodable entries are skipped.
func RestoreStore(store *Store, mirror *RedisMirror) error {
	restored := 0

	for _, class := range mirrorClasses {
		entries, err := mirror.ReadAll(class)
		if err != nil {
			return err
		}

		for _, entry := range entries {
			switch class {
			case ClassVehicleActivity:
				var record VehicleActivityRecord
				if err := json.Unmarshal(entry.Payload, &record); err != nil {
					continue
				}
				store.Restore(&record)
			case ClassEstimatedJourney:
				var record EstimatedJourneyRecord
				if err := json.Unmarshal(entry.Payload, &record); err != nil {
					continue
				}
				store.Restore(&record)
			case ClassSituation:
				var record SituationRecord
				if err := json.Unmarshal(entry.Payload, &record); err != nil {
					continue
				}
				store.Restore(&record)
			}

			restored += 1
		}
	}

	log.Info().Int("records", restored).Msg("Restored live state from mirror")

	return nil
}
