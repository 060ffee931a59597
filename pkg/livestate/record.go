package livestate

import (
	"time"

	"github.com/transitlive/transitlive/pkg/siri"
)

type VehicleActivityRecord struct {
	Key        JourneyKey
	ReceivedAt int64 // unix milliseconds, set at ingest
	Producer   string
	Datasource string

	Activity *siri.VehicleActivity
}

type EstimatedJourneyRecord struct {
	Key        JourneyKey
	ReceivedAt int64
	Producer   string
	Datasource string

	Journey *siri.EstimatedVehicleJourney
}

type SituationRecord struct {
	Key        SituationKey
	ReceivedAt int64
	Producer   string
	Datasource string

	Situation *siri.PtSituationElement

	// Latest end time across the validity periods and publication windows.
	// Nil when any window is open-ended or no windows were supplied, in which
	// case the situation never expires by time.
	ExpiresAt *time.Time
}

func (r *SituationRecord) Closed() bool {
	return r.Situation.Progress == "closed"
}

func (r *SituationRecord) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && r.ExpiresAt.Before(now)
}

// Publishable reports whether the situation is still eligible for alert
// output. Absence of all time bounds means always valid.
func (r *SituationRecord) Publishable(now time.Time) bool {
	return !r.Closed() && !r.Expired(now)
}

// SituationExpiry derives the record expiry from the situation's validity
// periods and publication windows.
func SituationExpiry(situation *siri.PtSituationElement) *time.Time {
	var latest *time.Time

	for _, period := range append(append([]siri.TimePeriod{}, situation.ValidityPeriod...), situation.PublicationWindow...) {
		if period.EndTime == "" {
			// Open-ended window, never expires
			return nil
		}

		end, ok := siri.ParseTime(period.EndTime)
		if !ok {
			// A garbage end time shouldn't pin the situation open forever
			continue
		}

		if latest == nil || end.After(*latest) {
			endCopy := end
			latest = &endCopy
		}
	}

	return latest
}
