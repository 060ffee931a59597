package feed

import (
	"strings"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/transitlive/transitlive/pkg/livestate"
	"github.com/transitlive/transitlive/pkg/siri"
	"google.golang.org/protobuf/proto"
)

// TripUpdateFromJourney projects one estimated journey record into a trip
// update entity. Returns nil when the record intentionally yields no output -
// an absent framed journey ref is a valid untracked case upstream, and a
// monitored journey explicitly marked as not a cancellation duplicates the
// scheduled data so it is suppressed.
func TripUpdateFromJourney(record *livestate.EstimatedJourneyRecord) *gtfs.FeedEntity {
	journey := record.Journey

	if journey.FramedVehicleJourneyRef == nil {
		return nil
	}

	if journey.Monitored != nil && *journey.Monitored &&
		journey.Cancellation != nil && !*journey.Cancellation {
		return nil
	}

	tripUpdate := &gtfs.TripUpdate{
		Trip: tripDescriptorForJourney(journey.FramedVehicleJourneyRef),
	}

	if journey.VehicleRef != "" {
		tripUpdate.Vehicle = &gtfs.VehicleDescriptor{
			Id: proto.String(journey.VehicleRef),
		}
	}

	tripUpdate.StopTimeUpdate = buildStopTimeUpdates(journey)

	return &gtfs.FeedEntity{
		Id:         proto.String(record.Key.String()),
		TripUpdate: tripUpdate,
	}
}

// buildStopTimeUpdates walks all recorded calls then all estimated calls in
// order. The walk stops at the first call without a stop reference and the
// partial update built so far is kept.
func buildStopTimeUpdates(journey *siri.EstimatedVehicleJourney) []*gtfs.TripUpdate_StopTimeUpdate {
	var updates []*gtfs.TripUpdate_StopTimeUpdate
	sequenceCounter := 0

	for _, calls := range [][]siri.EstimatedJourneyCall{journey.RecordedCalls, journey.EstimatedCalls} {
		for _, call := range calls {
			if call.StopPointRef == "" {
				return updates
			}

			stopSequence := sequenceCounter
			if call.Order > 0 {
				stopSequence = call.Order - 1
			}
			sequenceCounter += 1

			update := &gtfs.TripUpdate_StopTimeUpdate{
				StopSequence: proto.Uint32(uint32(stopSequence)),
				StopId:       proto.String(call.StopPointRef),
			}

			if delay, ok := callDelaySeconds(call.AimedArrivalTime, call.ExpectedArrivalTime, call.ActualArrivalTime); ok {
				update.Arrival = &gtfs.TripUpdate_StopTimeEvent{
					Delay: proto.Int32(delay),
				}
			}

			if delay, ok := callDelaySeconds(call.AimedDepartureTime, call.ExpectedDepartureTime, call.ActualDepartureTime); ok {
				update.Departure = &gtfs.TripUpdate_StopTimeEvent{
					Delay: proto.Int32(delay),
				}
			}

			updates = append(updates, update)
		}
	}

	return updates
}

// callDelaySeconds computes expected minus aimed in whole seconds. Recorded
// calls carry actual times rather than expected ones, so actual is the
// fallback. Both sides have to be present for a delay to exist.
func callDelaySeconds(aimedValue string, expectedValue string, actualValue string) (int32, bool) {
	aimed, ok := siri.ParseTime(aimedValue)
	if !ok {
		return 0, false
	}

	expected, ok := siri.ParseTime(expectedValue)
	if !ok {
		expected, ok = siri.ParseTime(actualValue)
	}
	if !ok {
		return 0, false
	}

	return int32(expected.Sub(aimed).Seconds()), true
}

func tripDescriptorForJourney(framedRef *siri.FramedVehicleJourneyRef) *gtfs.TripDescriptor {
	descriptor := &gtfs.TripDescriptor{
		TripId: proto.String(framedRef.DatedVehicleJourneyRef),
	}

	if startDate := ServiceDateFromDataFrame(framedRef.DataFrameRef); startDate != "" {
		descriptor.StartDate = proto.String(startDate)
	}

	return descriptor
}

// ServiceDateFromDataFrame converts a SIRI data frame ref (YYYY-MM-DD) to the
// YYYYMMDD service date form. Already-compact values pass through.
func ServiceDateFromDataFrame(dataFrameRef string) string {
	return strings.ReplaceAll(dataFrameRef, "-", "")
}
