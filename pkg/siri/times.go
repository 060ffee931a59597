package siri

import "time"

const XSDDateTimeFormat = "2006-01-02T15:04:05-07:00"
const XSDDateTimeWithFractionalFormat = "2006-01-02T15:04:05.999999-07:00"

// ParseTime parses a SIRI timestamp, trying the plain and fractional-second
// forms of xsd:dateTime. The zero time and false are returned for anything
// unparseable (including the empty string).
func ParseTime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}

	if parsed, err := time.Parse(XSDDateTimeFormat, value); err == nil {
		return parsed, true
	}

	if parsed, err := time.Parse(XSDDateTimeWithFractionalFormat, value); err == nil {
		return parsed, true
	}

	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, true
	}

	return time.Time{}, false
}
