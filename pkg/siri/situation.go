package siri

type PtSituationElement struct {
	CreationTime    string
	ParticipantRef  string
	SituationNumber string
	Version         string
	VersionedAtTime string
	Progress        string

	ValidityPeriod    []TimePeriod
	PublicationWindow []TimePeriod

	MiscellaneousReason string
	Severity            string
	ReportType          string
	Planned             bool

	Summary     []TranslatedText
	Description []TranslatedText
	InfoURL     string `xml:"InfoLinks>InfoLink>Uri"`

	Affects SituationAffects
}

type TimePeriod struct {
	StartTime string
	EndTime   string
}

type TranslatedText struct {
	Lang string `xml:"lang,attr"`
	Text string `xml:",chardata"`
}

type SituationAffects struct {
	Networks        []AffectedNetwork        `xml:"Networks>AffectedNetwork"`
	StopPoints      []AffectedStopPoint      `xml:"StopPoints>AffectedStopPoint"`
	StopPlaces      []AffectedStopPlace      `xml:"StopPlaces>AffectedStopPlace"`
	VehicleJourneys []AffectedVehicleJourney `xml:"VehicleJourneys>AffectedVehicleJourney"`
}

type AffectedNetwork struct {
	NetworkRef   string
	VehicleMode  string
	AffectedLine []AffectedLine
}

type AffectedLine struct {
	OperatorRef      string `xml:"AffectedOperator>OperatorRef"`
	LineRef          string
	PublishedLineRef string

	Routes []AffectedRoute `xml:"Routes>AffectedRoute"`
}

type AffectedRoute struct {
	RouteRef   string
	StopPoints []AffectedStopPoint `xml:"StopPoints>AffectedStopPoint"`
}

type AffectedStopPoint struct {
	StopPointRef  string
	StopPointName string
}

type AffectedStopPlace struct {
	StopPlaceRef string
	PlaceName    string
}

type AffectedVehicleJourney struct {
	VehicleJourneyRef       []string
	DatedVehicleJourneyRef  []string
	FramedVehicleJourneyRef *FramedVehicleJourneyRef

	LineRef     string
	OperatorRef string

	OriginRef      string
	DestinationRef string

	Routes []AffectedRoute `xml:"Route"`
}
