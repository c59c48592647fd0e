package appointment

import "time"

// SessionRecord is the slice of an appointment the spacing rule looks at.
type SessionRecord struct {
	AreaID        uint
	SessionNumber int
	Date          time.Time
}

// spacingWeeks is indexed by session number; sessions past the table use
// the last entry.
var spacingWeeks = [...]int{
	1:  0,
	2:  4,
	3:  6,
	4:  8,
	5:  10,
	6:  12,
	7:  14,
	8:  16,
	9:  18,
	10: 20,
}

const maxSpacingWeeks = 20

// MinimumWaitWeeks returns the tabulated wait for a session number. Numbers
// outside 1..10 get the longest tabulated wait.
func MinimumWaitWeeks(session int) int {
	if session < 1 || session >= len(spacingWeeks) {
		return maxSpacingWeeks
	}
	return spacingWeeks[session]
}

// IsSpacingSatisfied reports whether proposed is far enough from previous.
// previous must be the latest completed session in the same area; nil means
// there is nothing to measure against.
func IsSpacingSatisfied(previous *SessionRecord, proposed SessionRecord) bool {
	if previous == nil {
		return true
	}
	earliest := EarliestNextSession(*previous)
	return !DateOnly(proposed.Date).Before(earliest)
}

// EarliestNextSession is the first date a session following previous may take place.
func EarliestNextSession(previous SessionRecord) time.Time {
	weeks := MinimumWaitWeeks(previous.SessionNumber)
	return DateOnly(previous.Date).AddDate(0, 0, weeks*7)
}
