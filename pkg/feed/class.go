package feed

type Class string

const (
	ClassTripUpdates      Class = "trip-updates"
	ClassVehiclePositions Class = "vehicle-positions"
	ClassAlerts           Class = "alerts"
)

var Classes = []Class{ClassTripUpdates, ClassVehiclePositions, ClassAlerts}
