package feed

import (
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

const gtfsRealtimeVersion = "2.0"

// Snapshot is an immutable, fully built collection of feed entities for one
// class at one point in time. A rebuild always constructs fresh snapshots -
// nothing ever mutates a published one.
type Snapshot struct {
	Class      Class
	Datasource string // empty for the combined all-sources view
	BuiltAt    time.Time

	Entities []*gtfs.FeedEntity
}

func NewSnapshot(class Class, datasource string, builtAt time.Time, entities []*gtfs.FeedEntity) *Snapshot {
	return &Snapshot{
		Class:      class,
		Datasource: datasource,
		BuiltAt:    builtAt,
		Entities:   entities,
	}
}

// FeedMessage wraps the entities in the downstream wire envelope. Snapshots
// are always full datasets, never incremental.
func (s *Snapshot) FeedMessage() *gtfs.FeedMessage {
	return &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{
			GtfsRealtimeVersion: proto.String(gtfsRealtimeVersion),
			Incrementality:      gtfs.FeedHeader_FULL_DATASET.Enum(),
			Timestamp:           proto.Uint64(uint64(s.BuiltAt.Unix())),
		},
		Entity: s.Entities,
	}
}

// Marshal serialises the snapshot to the binary feed. An empty snapshot
// serialises to a header-only feed rather than an error.
func (s *Snapshot) Marshal() ([]byte, error) {
	return proto.Marshal(s.FeedMessage())
}

// UnmarshalSnapshot parses a binary feed back into a snapshot.
func UnmarshalSnapshot(class Class, datasource string, data []byte) (*Snapshot, error) {
	feed := gtfs.FeedMessage{}
	if err := proto.Unmarshal(data, &feed); err != nil {
		return nil, err
	}

	return &Snapshot{
		Class:      class,
		Datasource: datasource,
		BuiltAt:    time.Unix(int64(feed.Header.GetTimestamp()), 0),
		Entities:   feed.Entity,
	}, nil
}
