package feed

import (
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/transitlive/transitlive/pkg/livestate"
	"github.com/transitlive/transitlive/pkg/siri"
	"github.com/transitlive/transitlive/pkg/util"
	"google.golang.org/protobuf/proto"
)

// Monitoring error codes that mean the reported position isnt trustworthy
// enough to publish when the vehicle is also marked unmonitored. Any other
// unmonitored state still gets published.
var untrustworthyMonitoringErrors = []string{"noCurrentInformation", "nominallyLocated"}

// VehiclePositionFromActivity projects one vehicle activity record into a
// vehicle position entity. Records without coordinates yield nothing, as do
// unmonitored vehicles carrying a known untrustworthy-position error code.
func VehiclePositionFromActivity(record *livestate.VehicleActivityRecord, now time.Time) *gtfs.FeedEntity {
	activity := record.Activity

	journey := activity.MonitoredVehicleJourney
	if journey == nil || journey.FramedVehicleJourneyRef == nil {
		return nil
	}

	location := journey.VehicleLocation
	if location == nil || location.Latitude == nil || location.Longitude == nil {
		return nil
	}

	if journey.Monitored != nil && !*journey.Monitored {
		for _, code := range journey.MonitoringError {
			if util.ContainsString(untrustworthyMonitoringErrors, code) {
				return nil
			}
		}
	}

	timestamp := now
	if recordedAt, ok := siri.ParseTime(activity.RecordedAtTime); ok {
		timestamp = recordedAt
	}

	position := &gtfs.Position{
		Latitude:  proto.Float32(float32(*location.Latitude)),
		Longitude: proto.Float32(float32(*location.Longitude)),
	}

	if journey.Bearing != 0 {
		position.Bearing = proto.Float32(float32(journey.Bearing))
	}

	if journey.Velocity != 0 {
		position.Speed = proto.Float32(float32(journey.Velocity))
	}

	vehiclePosition := &gtfs.VehiclePosition{
		Trip:      tripDescriptorForJourney(journey.FramedVehicleJourneyRef),
		Position:  position,
		Timestamp: proto.Uint64(uint64(timestamp.Unix())),
	}

	if journey.VehicleRef != "" {
		vehiclePosition.Vehicle = &gtfs.VehicleDescriptor{
			Id: proto.String(journey.VehicleRef),
		}
	}

	if occupancy, ok := occupancyStatus(journey.Occupancy); ok {
		vehiclePosition.OccupancyStatus = occupancy.Enum()
	}

	return &gtfs.FeedEntity{
		Id:      proto.String(record.Key.String()),
		Vehicle: vehiclePosition,
	}
}

func occupancyStatus(occupancy string) (gtfs.VehiclePosition_OccupancyStatus, bool) {
	switch occupancy {
	case "full":
		return gtfs.VehiclePosition_FULL, true
	case "standingAvailable":
		return gtfs.VehiclePosition_STANDING_ROOM_ONLY, true
	case "seatsAvailable":
		return gtfs.VehiclePosition_MANY_SEATS_AVAILABLE, true
	}

	return gtfs.VehiclePosition_EMPTY, false
}
