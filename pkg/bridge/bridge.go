package bridge

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/transitlive/transitlive/pkg/feed"
	"github.com/transitlive/transitlive/pkg/livestate"
	"github.com/transitlive/transitlive/pkg/siri"
)

type RejectionReason string

const (
	RejectionMissingFramedJourneyRef RejectionReason = "missing-framed-journey-ref"
	RejectionMissingServiceDate      RejectionReason = "missing-service-date"
	RejectionMissingSituationNumber  RejectionReason = "missing-situation-number"
)

type RejectionCounts map[RejectionReason]int

func (c RejectionCounts) Total() int {
	total := 0
	for _, count := range c {
		total += count
	}

	return total
}

// Bridge ties the canonical store, the entity mappers and the snapshot
// publisher together behind the ingest/tick/read/reset surface the rest of
// the process talks to.
type Bridge struct {
	store     *livestate.Store
	publisher *feed.Publisher
	mirror    *livestate.RedisMirror

	alertMapper *feed.AlertMapper

	// Serialises rebuild ticks - a tick arriving while one runs is a no-op
	rebuildMutex sync.Mutex
}

func New(store *livestate.Store, publisher *feed.Publisher, mirror *livestate.RedisMirror, journeys livestate.JourneyLookup) *Bridge {
	return &Bridge{
		store:     store,
		publisher: publisher,
		mirror:    mirror,

		alertMapper: &feed.AlertMapper{Journeys: journeys},
	}
}

// Ingest processes one decoded delivery batch. Records missing the fields
// needed to construct their key are counted per reason and skipped - one bad
// record never aborts the rest of the batch.
func (b *Bridge) Ingest(batch *siri.DeliveryBatch) RejectionCounts {
	receivedAt := time.Now().UnixMilli()
	rejections := RejectionCounts{}

	vehicles := 0
	for _, activity := range batch.VehicleActivities {
		key, reason := vehicleActivityKey(activity)
		if reason != "" {
			rejections[reason] += 1
			continue
		}

		b.store.UpsertVehicle(&livestate.VehicleActivityRecord{
			Key:        key,
			ReceivedAt: receivedAt,
			Producer:   producerFor(batch, activity.MonitoredVehicleJourney.DataSource),
			Datasource: batch.Datasource,
			Activity:   activity,
		})
		vehicles += 1
	}

	journeys := 0
	for _, journey := range batch.EstimatedJourneys {
		key, reason := estimatedJourneyKey(journey)
		if reason != "" {
			rejections[reason] += 1
			continue
		}

		b.store.UpsertJourney(&livestate.EstimatedJourneyRecord{
			Key:        key,
			ReceivedAt: receivedAt,
			Producer:   producerFor(batch, journey.DataSource),
			Datasource: batch.Datasource,
			Journey:    journey,
		})
		journeys += 1
	}

	situations := 0
	for _, situation := range batch.Situations {
		if situation.SituationNumber == "" {
			rejections[RejectionMissingSituationNumber] += 1
			continue
		}

		b.store.UpsertSituation(&livestate.SituationRecord{
			Key: livestate.SituationKey{
				SituationID: situation.SituationNumber,
				Datasource:  batch.Datasource,
			},
			ReceivedAt: receivedAt,
			Producer:   producerFor(batch, situation.ParticipantRef),
			Datasource: batch.Datasource,
			Situation:  situation,
			ExpiresAt:  livestate.SituationExpiry(situation),
		})
		situations += 1
	}

	logEvent := log.Info().
		Str("datasource", batch.Datasource).
		Int("vehicles", vehicles).
		Int("journeys", journeys).
		Int("situations", situations).
		Int("rejected", rejections.Total())

	for reason, count := range rejections {
		logEvent = logEvent.Int(string(reason), count)
	}

	logEvent.Msg("Ingested delivery batch")

	return rejections
}

func producerFor(batch *siri.DeliveryBatch, recordProducer string) string {
	if recordProducer != "" {
		return recordProducer
	}

	return batch.Producer
}

func vehicleActivityKey(activity *siri.VehicleActivity) (livestate.JourneyKey, RejectionReason) {
	journey := activity.MonitoredVehicleJourney
	if journey == nil || journey.FramedVehicleJourneyRef == nil || journey.FramedVehicleJourneyRef.DatedVehicleJourneyRef == "" {
		return livestate.JourneyKey{}, RejectionMissingFramedJourneyRef
	}

	if journey.FramedVehicleJourneyRef.DataFrameRef == "" {
		return livestate.JourneyKey{}, RejectionMissingServiceDate
	}

	return livestate.JourneyKey{
		TripID:      journey.FramedVehicleJourneyRef.DatedVehicleJourneyRef,
		ServiceDate: feed.ServiceDateFromDataFrame(journey.FramedVehicleJourneyRef.DataFrameRef),
		VehicleID:   journey.VehicleRef,
	}, ""
}

func estimatedJourneyKey(journey *siri.EstimatedVehicleJourney) (livestate.JourneyKey, RejectionReason) {
	if journey.FramedVehicleJourneyRef == nil || journey.FramedVehicleJourneyRef.DatedVehicleJourneyRef == "" {
		return livestate.JourneyKey{}, RejectionMissingFramedJourneyRef
	}

	if journey.FramedVehicleJourneyRef.DataFrameRef == "" {
		return livestate.JourneyKey{}, RejectionMissingServiceDate
	}

	return livestate.JourneyKey{
		TripID:      journey.FramedVehicleJourneyRef.DatedVehicleJourneyRef,
		ServiceDate: feed.ServiceDateFromDataFrame(journey.FramedVehicleJourneyRef.DataFrameRef),
		VehicleID:   journey.VehicleRef,
	}, ""
}

// ReadSnapshot returns the currently published snapshot for a class,
// optionally filtered to one datasource.
func (b *Bridge) ReadSnapshot(class feed.Class, datasource string) *feed.Snapshot {
	return b.publisher.Read(class, datasource)
}

// ReadSnapshotBinary returns the canonical binary serialisation. An empty
// snapshot yields a header-only feed.
func (b *Bridge) ReadSnapshotBinary(class feed.Class, datasource string) ([]byte, error) {
	return b.publisher.Read(class, datasource).Marshal()
}

// Reset clears all canonical state, the mirror and every published snapshot.
func (b *Bridge) Reset() {
	b.store.Reset()
	b.publisher.Reset()

	if b.mirror != nil {
		if err := b.mirror.Reset(); err != nil {
			log.Error().Err(err).Msg("Failed to reset mirror")
		}
	}

	log.Info().Msg("Cleared live state and published snapshots")
}
