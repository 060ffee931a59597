package siri

type EstimatedVehicleJourney struct {
	RecordedAtTime string

	LineRef      string
	DirectionRef string

	FramedVehicleJourneyRef *FramedVehicleJourneyRef

	DatedVehicleJourneyRef      string
	EstimatedVehicleJourneyCode string

	OperatorRef string
	DataSource  string

	OriginName      string
	DestinationName string

	Monitored    *bool
	Cancellation *bool
	ExtraJourney *bool

	VehicleRef  string
	VehicleMode string
	Delay       string

	RecordedCalls  []EstimatedJourneyCall `xml:"RecordedCalls>RecordedCall"`
	EstimatedCalls []EstimatedJourneyCall `xml:"EstimatedCalls>EstimatedCall"`
}

// EstimatedJourneyCall covers both RecordedCall and EstimatedCall - recorded
// calls carry Actual times, estimated calls carry Expected times, and the two
// elements otherwise share their shape.
type EstimatedJourneyCall struct {
	StopPointRef  string
	StopPointName string

	// SIRI call order is 1-based, 0 means the element was absent
	Order int

	Cancellation *bool
	RequestStop  *bool

	AimedArrivalTime    string
	ExpectedArrivalTime string
	ActualArrivalTime   string

	AimedDepartureTime    string
	ExpectedDepartureTime string
	ActualDepartureTime   string
}
