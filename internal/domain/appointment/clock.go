package appointment

import (
	"fmt"
	"strings"
	"time"
)

// Clock is a wall-clock time of day, held as the offset from midnight.
type Clock time.Duration

const (
	lastSecond      = Clock(24*time.Hour - time.Second)
	DefaultDuration = 60 * time.Minute
	DefaultStart    = Clock(9 * time.Hour)
)

// CanonicalClockLayouts are accepted for interactive input.
var CanonicalClockLayouts = []string{"15:04:05", "15:04"}

// ImportClockLayouts are tried in order for spreadsheet values.
var ImportClockLayouts = []string{"15:04:05", "15:04", "03:04:05 PM", "03:04 PM", "3:04 PM", "2006-01-02 15:04:05", "2006-01-02T15:04:05"}

func NewClock(hour, min, sec int) Clock {
	return Clock(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute + time.Duration(sec)*time.Second)
}

// ParseClock reads HH:MM[:SS].
func ParseClock(s string) (Clock, error) {
	return ParseClockLayouts(s, CanonicalClockLayouts)
}

func ParseClockLayouts(s string, layouts []string) (Clock, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty time")
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewClock(t.Hour(), t.Minute(), t.Second()), nil
		}
	}
	return 0, fmt.Errorf("unrecognised time %q", s)
}

// Add never rolls into the next day; results are capped at 23:59:59.
func (c Clock) Add(d time.Duration) Clock {
	out := c + Clock(d)
	switch {
	case out > lastSecond:
		return lastSecond
	case out < 0:
		return 0
	}
	return out
}

func (c Clock) Sub(o Clock) time.Duration { return time.Duration(c - o) }

func (c Clock) After(o Clock) bool  { return c > o }
func (c Clock) Before(o Clock) bool { return c < o }

func (c Clock) String() string {
	d := time.Duration(c)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// EndTime derives the end of an interactively entered visit. An explicit
// duration wins; a missing end defaults to start plus one hour; an end before
// start is repaired the same way instead of being rejected.
func EndTime(start Clock, end *Clock, duration *time.Duration) Clock {
	switch {
	case duration != nil && *duration > 0:
		return start.Add(*duration)
	case end == nil:
		return start.Add(DefaultDuration)
	case end.Before(start):
		return start.Add(DefaultDuration)
	default:
		return *end
	}
}

// ImportEndTime repairs spreadsheet rows where the end is not after the start.
func ImportEndTime(start, end Clock) Clock {
	if !end.After(start) {
		return start.Add(DefaultDuration)
	}
	return end
}

// DateOnly truncates t to its calendar date at midnight UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate reads the canonical YYYY-MM-DD form.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return DateOnly(t), nil
}
