package siri

type VehicleActivity struct {
	RecordedAtTime string
	ItemIdentifier string
	ValidUntilTime string

	MonitoredVehicleJourney *MonitoredVehicleJourney
}

type MonitoredVehicleJourney struct {
	LineRef           string
	DirectionRef      string
	PublishedLineName string

	FramedVehicleJourneyRef *FramedVehicleJourneyRef

	VehicleJourneyRef string

	OperatorRef string
	DataSource  string

	OriginRef  string
	OriginName string

	DestinationRef  string
	DestinationName string

	OriginAimedDepartureTime string

	Monitored       *bool
	MonitoringError []string

	VehicleLocation *VehicleLocation
	Bearing         float64
	Velocity        float64
	Delay           string
	Occupancy       string

	BlockRef   string
	VehicleRef string
}

type FramedVehicleJourneyRef struct {
	DataFrameRef           string
	DatedVehicleJourneyRef string
}

type VehicleLocation struct {
	Longitude *float64
	Latitude  *float64
}
