package feed

import (
	"testing"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

func TestSnapshotBinaryRoundTrip(t *testing.T) {
	builtAt := time.Date(2026, 8, 31, 10, 30, 0, 0, time.UTC)

	snapshot := NewSnapshot(ClassVehiclePositions, "test-source", builtAt, []*gtfs.FeedEntity{
		{
			Id: proto.String("trip-1:20260831:veh-1"),
			Vehicle: &gtfs.VehiclePosition{
				Position: &gtfs.Position{
					Latitude:  proto.Float32(51.5),
					Longitude: proto.Float32(-0.12),
				},
			},
		},
	})

	data, err := snapshot.Marshal()
	require.NoError(t, err)

	decoded, err := UnmarshalSnapshot(ClassVehiclePositions, "test-source", data)
	require.NoError(t, err)

	assert.Equal(t, builtAt.Unix(), decoded.BuiltAt.Unix())
	require.Len(t, decoded.Entities, 1)
	assert.Equal(t, "trip-1:20260831:veh-1", decoded.Entities[0].GetId())
}

func TestSnapshotEmptyFeedIsHeaderOnly(t *testing.T) {
	snapshot := NewSnapshot(ClassAlerts, "", time.Now(), nil)

	message := snapshot.FeedMessage()
	assert.Equal(t, "2.0", message.Header.GetGtfsRealtimeVersion())
	assert.Equal(t, gtfs.FeedHeader_FULL_DATASET, message.Header.GetIncrementality())
	assert.Empty(t, message.Entity)

	data, err := snapshot.Marshal()
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
