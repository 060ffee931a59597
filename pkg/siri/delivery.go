package siri

// ServiceDelivery is the envelope of one upstream SIRI response. A single
// response only ever carries one of the three delivery types in practice, but
// the decoder accepts any combination.
type ServiceDelivery struct {
	ResponseTimestamp string
	ProducerRef       string

	VehicleMonitoringDelivery  *VehicleMonitoringDelivery
	EstimatedTimetableDelivery *EstimatedTimetableDelivery
	SituationExchangeDelivery  *SituationExchangeDelivery
}

type VehicleMonitoringDelivery struct {
	ResponseTimestamp     string
	RequestMessageRef     string
	ValidUntil            string
	ShortestPossibleCycle string

	VehicleActivity []*VehicleActivity
}

type EstimatedTimetableDelivery struct {
	ResponseTimestamp string
	Version           string `xml:"version,attr"`

	EstimatedJourneyVersionFrame []EstimatedJourneyVersionFrame
}

type EstimatedJourneyVersionFrame struct {
	RecordedAtTime string

	EstimatedVehicleJourney []*EstimatedVehicleJourney
}

type SituationExchangeDelivery struct {
	ResponseTimestamp string

	PtSituationElement []*PtSituationElement `xml:"Situations>PtSituationElement"`
}

// DeliveryBatch is one decoded upstream delivery, flattened to the record
// lists the live-state engine ingests. Producer comes from the envelope's
// ProducerRef, Datasource identifies the configured upstream source.
type DeliveryBatch struct {
	Producer   string
	Datasource string

	VehicleActivities []*VehicleActivity
	EstimatedJourneys []*EstimatedVehicleJourney
	Situations        []*PtSituationElement
}
