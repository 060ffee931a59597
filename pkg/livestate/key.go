package livestate

import "fmt"

type Class string

const (
	ClassVehicleActivity  Class = "vehicle-activity"
	ClassEstimatedJourney Class = "estimated-journey"
	ClassSituation        Class = "situation"
)

// JourneyKey identifies one live vehicle/trip entity. ServiceDate uses the
// YYYYMMDD form. An empty VehicleID is a valid key, distinct from any
// populated one - two producers reporting the same trip, date and vehicle are
// the same live entity and the later write wins.
type JourneyKey struct {
	TripID      string
	ServiceDate string
	VehicleID   string
}

func (k JourneyKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.TripID, k.ServiceDate, k.VehicleID)
}

// SituationKey identifies one disruption, qualified by datasource so tenants
// never collide on upstream situation numbers.
type SituationKey struct {
	SituationID string
	Datasource  string
}

func (k SituationKey) String() string {
	return fmt.Sprintf("%s:%s", k.Datasource, k.SituationID)
}

type qualifiedJourneyKey struct {
	Datasource string
	JourneyKey JourneyKey
}
