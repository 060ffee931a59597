package siri

import (
	"encoding/xml"
	"io"

	"golang.org/x/net/html/charset"
)

// Parse decodes one SIRI response body into a DeliveryBatch. The datasource
// identifier is attached by the caller as it isn't part of the wire format.
func Parse(reader io.Reader, datasource string) (*DeliveryBatch, error) {
	d := xml.NewDecoder(reader)
	d.CharsetReader = charset.NewReaderLabel

	var serviceDelivery ServiceDelivery

	for {
		tok, err := d.Token()
		if tok == nil || err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}

		switch ty := tok.(type) {
		case xml.StartElement:
			if ty.Name.Local == "ServiceDelivery" {
				if err := d.DecodeElement(&serviceDelivery, &ty); err != nil {
					return nil, err
				}
			}
		}
	}

	batch := &DeliveryBatch{
		Producer:   serviceDelivery.ProducerRef,
		Datasource: datasource,
	}

	if serviceDelivery.VehicleMonitoringDelivery != nil {
		batch.VehicleActivities = serviceDelivery.VehicleMonitoringDelivery.VehicleActivity
	}

	if serviceDelivery.EstimatedTimetableDelivery != nil {
		for _, frame := range serviceDelivery.EstimatedTimetableDelivery.EstimatedJourneyVersionFrame {
			batch.EstimatedJourneys = append(batch.EstimatedJourneys, frame.EstimatedVehicleJourney...)
		}
	}

	if serviceDelivery.SituationExchangeDelivery != nil {
		batch.Situations = serviceDelivery.SituationExchangeDelivery.PtSituationElement
	}

	return batch, nil
}
