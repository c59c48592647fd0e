package importer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	domain "github.com/laserowo/studio-manager/internal/domain/appointment"
	"github.com/laserowo/studio-manager/internal/httperr"
)

// dateLayouts are tried in order; the first match wins. Day-first forms come
// before the US month-first fallback.
var dateLayouts = []string{
	"2006-01-02",
	"2.1.2006",
	"2/1/2006",
	"2006/1/2",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"1/2/2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// excelEpoch is day zero of spreadsheet serial dates.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// parseDate reads a spreadsheet date: a serial day number or text in one of
// dateLayouts.
func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, httperr.ParseError{Field: field, Value: s}
	}

	if v, ok := serial(s); ok {
		if v < 1 || v >= 2958466 {
			return time.Time{}, httperr.ParseError{Field: field, Value: s}
		}
		return excelEpoch.AddDate(0, 0, int(math.Floor(v))), nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.DateOnly(t), nil
		}
	}
	return time.Time{}, httperr.ParseError{Field: field, Value: s}
}

// parseTime reads a spreadsheet time: a day fraction, a serial date-time,
// an "H.MM" value or text in one of the import clock layouts.
func parseTime(field, s string) (domain.Clock, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, httperr.ParseError{Field: field, Value: s}
	}

	if v, ok := serial(s); ok {
		if v >= 1 && v < 24 {
			// "14.30" or "9" written as text
			s = strings.Replace(s, ".", ":", 1)
			if !strings.Contains(s, ":") {
				s += ":00"
			}
			c, err := domain.ParseClockLayouts(s, domain.ImportClockLayouts)
			if err != nil {
				return 0, httperr.ParseError{Field: field, Value: s}
			}
			return c, nil
		}
		_, frac := math.Modf(v)
		secs := int(math.Round(frac * 86400))
		if secs >= 86400 {
			secs = 86399
		}
		return domain.NewClock(0, 0, secs), nil
	}

	c, err := domain.ParseClockLayouts(s, domain.ImportClockLayouts)
	if err != nil {
		return 0, httperr.ParseError{Field: field, Value: s}
	}
	return c, nil
}

func serial(s string) (float64, bool) {
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return 0, false
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

var (
	truthy = map[string]bool{"+": true, "tak": true, "t": true, "true": true, "yes": true, "y": true, "1": true, "x": true, "prawda": true}
	falsy  = map[string]bool{"-": true, "nie": true, "n": true, "false": true, "no": true, "0": true, "fałsz": true}
)

// parseBool maps the flag spellings used in the workbook. ok is false for
// empty or unrecognised values.
func parseBool(s string) (value, ok bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case truthy[s]:
		return true, true
	case falsy[s]:
		return false, true
	}
	return false, false
}

// parseSessionNumber accepts "3", "3.0" and "3,0".
func parseSessionNumber(s string) (int, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	if err != nil || v < 1 || v != math.Trunc(v) {
		return 0, httperr.ParseError{Field: "session_number_for_area", Value: s}
	}
	return int(v), nil
}

func describe(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%s", pairs[i], pairs[i+1])
	}
	if b.Len() == 0 {
		return "n/a"
	}
	return b.String()
}
