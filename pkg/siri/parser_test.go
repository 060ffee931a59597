package siri

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vehicleMonitoringSample = `<?xml version="1.0" encoding="utf-8"?>
<Siri xmlns="http://www.siri.org.uk/siri" version="2.0">
  <ServiceDelivery>
    <ResponseTimestamp>2026-08-31T10:30:00+00:00</ResponseTimestamp>
    <ProducerRef>TestOperator</ProducerRef>
    <VehicleMonitoringDelivery>
      <ResponseTimestamp>2026-08-31T10:30:00+00:00</ResponseTimestamp>
      <VehicleActivity>
        <RecordedAtTime>2026-08-31T10:29:45+00:00</RecordedAtTime>
        <MonitoredVehicleJourney>
          <LineRef>25</LineRef>
          <DirectionRef>outbound</DirectionRef>
          <FramedVehicleJourneyRef>
            <DataFrameRef>2026-08-31</DataFrameRef>
            <DatedVehicleJourneyRef>trip-1</DatedVehicleJourneyRef>
          </FramedVehicleJourneyRef>
          <Monitored>true</Monitored>
          <VehicleLocation>
            <Longitude>-0.1278</Longitude>
            <Latitude>51.5074</Latitude>
          </VehicleLocation>
          <Bearing>90</Bearing>
          <VehicleRef>veh-1</VehicleRef>
        </MonitoredVehicleJourney>
      </VehicleActivity>
    </VehicleMonitoringDelivery>
  </ServiceDelivery>
</Siri>`

const estimatedTimetableSample = `<?xml version="1.0" encoding="utf-8"?>
<Siri xmlns="http://www.siri.org.uk/siri" version="2.0">
  <ServiceDelivery>
    <ProducerRef>TestOperator</ProducerRef>
    <EstimatedTimetableDelivery version="2.0">
      <EstimatedJourneyVersionFrame>
        <RecordedAtTime>2026-08-31T10:30:00+00:00</RecordedAtTime>
        <EstimatedVehicleJourney>
          <LineRef>25</LineRef>
          <FramedVehicleJourneyRef>
            <DataFrameRef>2026-08-31</DataFrameRef>
            <DatedVehicleJourneyRef>trip-1</DatedVehicleJourneyRef>
          </FramedVehicleJourneyRef>
          <EstimatedCalls>
            <EstimatedCall>
              <StopPointRef>stop-a</StopPointRef>
              <Order>1</Order>
              <AimedArrivalTime>2026-08-31T10:30:00+00:00</AimedArrivalTime>
              <ExpectedArrivalTime>2026-08-31T10:30:30+00:00</ExpectedArrivalTime>
            </EstimatedCall>
            <EstimatedCall>
              <StopPointRef>stop-b</StopPointRef>
              <Order>2</Order>
            </EstimatedCall>
          </EstimatedCalls>
        </EstimatedVehicleJourney>
      </EstimatedJourneyVersionFrame>
    </EstimatedTimetableDelivery>
  </ServiceDelivery>
</Siri>`

const situationExchangeSample = `<?xml version="1.0" encoding="utf-8"?>
<Siri xmlns="http://www.siri.org.uk/siri" version="2.0">
  <ServiceDelivery>
    <ProducerRef>TestOperator</ProducerRef>
    <SituationExchangeDelivery>
      <Situations>
        <PtSituationElement>
          <SituationNumber>sit-1</SituationNumber>
          <Progress>open</Progress>
          <Severity>severe</Severity>
          <ValidityPeriod>
            <StartTime>2026-08-31T10:00:00+00:00</StartTime>
            <EndTime>2026-08-31T12:00:00+00:00</EndTime>
          </ValidityPeriod>
          <Summary xml:lang="EN">Station closed</Summary>
          <Affects>
            <StopPoints>
              <AffectedStopPoint>
                <StopPointRef>stop-a</StopPointRef>
              </AffectedStopPoint>
            </StopPoints>
          </Affects>
        </PtSituationElement>
      </Situations>
    </SituationExchangeDelivery>
  </ServiceDelivery>
</Siri>`

func TestParseVehicleMonitoring(t *testing.T) {
	batch, err := Parse(strings.NewReader(vehicleMonitoringSample), "test-source")
	require.NoError(t, err)

	assert.Equal(t, "TestOperator", batch.Producer)
	assert.Equal(t, "test-source", batch.Datasource)

	require.Len(t, batch.VehicleActivities, 1)
	journey := batch.VehicleActivities[0].MonitoredVehicleJourney
	require.NotNil(t, journey)
	assert.Equal(t, "25", journey.LineRef)
	assert.Equal(t, "trip-1", journey.FramedVehicleJourneyRef.DatedVehicleJourneyRef)
	assert.Equal(t, "2026-08-31", journey.FramedVehicleJourneyRef.DataFrameRef)
	require.NotNil(t, journey.Monitored)
	assert.True(t, *journey.Monitored)
	require.NotNil(t, journey.VehicleLocation)
	assert.InDelta(t, 51.5074, *journey.VehicleLocation.Latitude, 0.0001)
	assert.InDelta(t, -0.1278, *journey.VehicleLocation.Longitude, 0.0001)
	assert.Equal(t, float64(90), journey.Bearing)
	assert.Equal(t, "veh-1", journey.VehicleRef)
}

func TestParseEstimatedTimetable(t *testing.T) {
	batch, err := Parse(strings.NewReader(estimatedTimetableSample), "test-source")
	require.NoError(t, err)

	require.Len(t, batch.EstimatedJourneys, 1)
	journey := batch.EstimatedJourneys[0]
	assert.Equal(t, "trip-1", journey.FramedVehicleJourneyRef.DatedVehicleJourneyRef)

	require.Len(t, journey.EstimatedCalls, 2)
	assert.Equal(t, "stop-a", journey.EstimatedCalls[0].StopPointRef)
	assert.Equal(t, 1, journey.EstimatedCalls[0].Order)
	assert.Equal(t, "2026-08-31T10:30:30+00:00", journey.EstimatedCalls[0].ExpectedArrivalTime)
	assert.Equal(t, 2, journey.EstimatedCalls[1].Order)
}

func TestParseSituationExchange(t *testing.T) {
	batch, err := Parse(strings.NewReader(situationExchangeSample), "test-source")
	require.NoError(t, err)

	require.Len(t, batch.Situations, 1)
	situation := batch.Situations[0]
	assert.Equal(t, "sit-1", situation.SituationNumber)
	assert.Equal(t, "open", situation.Progress)
	assert.Equal(t, "severe", situation.Severity)

	require.Len(t, situation.ValidityPeriod, 1)
	assert.Equal(t, "2026-08-31T12:00:00+00:00", situation.ValidityPeriod[0].EndTime)

	require.Len(t, situation.Summary, 1)
	assert.Equal(t, "Station closed", situation.Summary[0].Text)

	require.Len(t, situation.Affects.StopPoints, 1)
	assert.Equal(t, "stop-a", situation.Affects.StopPoints[0].StopPointRef)
}

func TestParseEmptyDelivery(t *testing.T) {
	batch, err := Parse(strings.NewReader(`<Siri><ServiceDelivery><ProducerRef>X</ProducerRef></ServiceDelivery></Siri>`), "test-source")
	require.NoError(t, err)

	assert.Equal(t, "X", batch.Producer)
	assert.Empty(t, batch.VehicleActivities)
	assert.Empty(t, batch.EstimatedJourneys)
	assert.Empty(t, batch.Situations)
}

func TestParseTime(t *testing.T) {
	parsed, ok := ParseTime("2026-08-31T10:30:00+00:00")
	require.True(t, ok)
	assert.Equal(t, 10, parsed.Hour())

	parsed, ok = ParseTime("2026-08-31T10:30:00.500+00:00")
	require.True(t, ok)
	assert.Equal(t, 10, parsed.Hour())

	_, ok = ParseTime("")
	assert.False(t, ok)

	_, ok = ParseTime("not a time")
	assert.False(t, ok)
}
