package feed

import (
	"context"
	"regexp"
	"strings"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/rs/zerolog/log"
	"github.com/transitlive/transitlive/pkg/livestate"
	"github.com/transitlive/transitlive/pkg/siri"
	"google.golang.org/protobuf/proto"
)

var whitespaceRuns = regexp.MustCompile(`\s+`)

// AlertMapper projects situation records into alert entities. Expansion of
// the affects clauses is a list of independent rules whose outputs are
// concatenated - no deduplication happens across clauses or rules.
type AlertMapper struct {
	Journeys livestate.JourneyLookup
}

func (m *AlertMapper) AlertFromSituation(ctx context.Context, record *livestate.SituationRecord) *gtfs.FeedEntity {
	situation := record.Situation

	alert := &gtfs.Alert{
		ActivePeriod:    activePeriods(situation.ValidityPeriod),
		HeaderText:      translatedString(situation.Summary),
		DescriptionText: translatedString(situation.Description),
	}

	if severity, ok := severityLevel(situation.Severity); ok {
		alert.SeverityLevel = severity.Enum()
	}

	rules := []func(context.Context, *siri.SituationAffects) []*gtfs.EntitySelector{
		m.stopPointSelectors,
		m.vehicleJourneySelectors,
		m.networkSelectors,
		m.stopPlaceSelectors,
	}

	for _, rule := range rules {
		alert.InformedEntity = append(alert.InformedEntity, rule(ctx, &situation.Affects)...)
	}

	if len(alert.InformedEntity) == 0 {
		// Still emitted so operators can spot upstream data quality problems
		log.Warn().
			Str("situation", record.Key.SituationID).
			Str("datasource", record.Datasource).
			Msg("Situation produced no informed entities")
	}

	return &gtfs.FeedEntity{
		Id:    proto.String(record.Key.String()),
		Alert: alert,
	}
}

// Rule 1: directly affected stop points, one stop-only selector each.
func (m *AlertMapper) stopPointSelectors(ctx context.Context, affects *siri.SituationAffects) []*gtfs.EntitySelector {
	var selectors []*gtfs.EntitySelector

	for _, stopPoint := range affects.StopPoints {
		if stopPoint.StopPointRef == "" {
			continue
		}

		selectors = append(selectors, &gtfs.EntitySelector{
			StopId: proto.String(stopPoint.StopPointRef),
		})
	}

	return selectors
}

// Rule 2: affected vehicle journeys. Trip descriptors are collected from the
// explicit trip ref list, the framed journey ref and any resolvable dated
// service journey refs, then crossed with the stops nested under the
// journey's affected routes.
func (m *AlertMapper) vehicleJourneySelectors(ctx context.Context, affects *siri.SituationAffects) []*gtfs.EntitySelector {
	var selectors []*gtfs.EntitySelector

	for _, journey := range affects.VehicleJourneys {
		var trips []*gtfs.TripDescriptor

		for _, tripRef := range journey.VehicleJourneyRef {
			if tripRef == "" {
				continue
			}

			trips = append(trips, &gtfs.TripDescriptor{
				TripId: proto.String(tripRef),
			})
		}

		if framedRef := journey.FramedVehicleJourneyRef; framedRef != nil && framedRef.DatedVehicleJourneyRef != "" {
			trips = append(trips, tripDescriptorForJourney(framedRef))
		}

		for _, datedRef := range journey.DatedVehicleJourneyRef {
			resolved, found := m.Journeys.Lookup(ctx, datedRef)
			if !found {
				// Lookup failures just mean no additional trip descriptor
				continue
			}

			descriptor := &gtfs.TripDescriptor{
				TripId: proto.String(resolved.TripID),
			}
			if resolved.OperatingDate != "" {
				descriptor.StartDate = proto.String(resolved.OperatingDate)
			}

			trips = append(trips, descriptor)
		}

		var stops []string
		for _, route := range journey.Routes {
			for _, stopPoint := range route.StopPoints {
				if stopPoint.StopPointRef != "" {
					stops = append(stops, stopPoint.StopPointRef)
				}
			}
		}

		if len(trips) == 0 {
			if journey.LineRef != "" {
				selectors = append(selectors, &gtfs.EntitySelector{
					RouteId: proto.String(journey.LineRef),
				})
			}

			continue
		}

		for _, trip := range trips {
			if len(stops) == 0 {
				selectors = append(selectors, &gtfs.EntitySelector{
					Trip: trip,
				})

				continue
			}

			for _, stop := range stops {
				selectors = append(selectors, &gtfs.EntitySelector{
					Trip:   trip,
					StopId: proto.String(stop),
				})
			}
		}
	}

	return selectors
}

// Rule 3: affected networks. Lines with affected routes expand to one
// (route, stop) selector per stop under those routes, lines without routes
// become a single route-only selector.
func (m *AlertMapper) networkSelectors(ctx context.Context, affects *siri.SituationAffects) []*gtfs.EntitySelector {
	var selectors []*gtfs.EntitySelector

	for _, network := range affects.Networks {
		for _, line := range network.AffectedLine {
			if len(line.Routes) == 0 {
				if line.LineRef != "" {
					selectors = append(selectors, &gtfs.EntitySelector{
						RouteId: proto.String(line.LineRef),
					})
				}

				continue
			}

			for _, route := range line.Routes {
				for _, stopPoint := range route.StopPoints {
					if stopPoint.StopPointRef == "" {
						continue
					}

					selectors = append(selectors, &gtfs.EntitySelector{
						RouteId: proto.String(line.LineRef),
						StopId:  proto.String(stopPoint.StopPointRef),
					})
				}
			}
		}
	}

	return selectors
}

// Rule 4: affected stop places, the stop place id doubles as a stop selector.
func (m *AlertMapper) stopPlaceSelectors(ctx context.Context, affects *siri.SituationAffects) []*gtfs.EntitySelector {
	var selectors []*gtfs.EntitySelector

	for _, stopPlace := range affects.StopPlaces {
		if stopPlace.StopPlaceRef == "" {
			continue
		}

		selectors = append(selectors, &gtfs.EntitySelector{
			StopId: proto.String(stopPlace.StopPlaceRef),
		})
	}

	return selectors
}

func activePeriods(periods []siri.TimePeriod) []*gtfs.TimeRange {
	var ranges []*gtfs.TimeRange

	for _, period := range periods {
		timeRange := &gtfs.TimeRange{}

		if start, ok := siri.ParseTime(period.StartTime); ok {
			timeRange.Start = proto.Uint64(uint64(start.Unix()))
		}
		if end, ok := siri.ParseTime(period.EndTime); ok {
			timeRange.End = proto.Uint64(uint64(end.Unix()))
		}

		if timeRange.Start != nil || timeRange.End != nil {
			ranges = append(ranges, timeRange)
		}
	}

	return ranges
}

// translatedString collects all upstream translations into one multi-language
// structure, collapsing whitespace runs and dropping blank entries.
func translatedString(texts []siri.TranslatedText) *gtfs.TranslatedString {
	translations := make([]*gtfs.TranslatedString_Translation, 0, len(texts))

	for _, text := range texts {
		cleaned := strings.TrimSpace(whitespaceRuns.ReplaceAllString(text.Text, " "))
		if cleaned == "" {
			continue
		}

		translation := &gtfs.TranslatedString_Translation{
			Text: proto.String(cleaned),
		}
		if text.Lang != "" {
			translation.Language = proto.String(text.Lang)
		}

		translations = append(translations, translation)
	}

	if len(translations) == 0 {
		return nil
	}

	return &gtfs.TranslatedString{
		Translation: translations,
	}
}

func severityLevel(severity string) (gtfs.Alert_SeverityLevel, bool) {
	switch severity {
	case "severe", "verySevere":
		return gtfs.Alert_SEVERE, true
	case "normal", "slight":
		return gtfs.Alert_WARNING, true
	case "noImpact":
		return gtfs.Alert_INFO, true
	}

	return gtfs.Alert_UNKNOWN_SEVERITY, false
}
