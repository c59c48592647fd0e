package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	cases := map[string]string{
		"14:00":    "14:00:00",
		"9:05":     "09:05:00",
		"07:30:15": "07:30:15",
		" 23:59 ":  "23:59:00",
	}
	for in, want := range cases {
		c, err := ParseClock(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, c.String())
	}

	for _, bad := range []string{"", "25:00", "noon", "14.00"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseClockImportLayouts(t *testing.T) {
	c, err := ParseClockLayouts("2:30 PM", ImportClockLayouts)
	require.NoError(t, err)
	assert.Equal(t, "14:30:00", c.String())

	c, err = ParseClockLayouts("2025-03-10 08:15:00", ImportClockLayouts)
	require.NoError(t, err)
	assert.Equal(t, "08:15:00", c.String())
}

func TestEndTime(t *testing.T) {
	start := NewClock(14, 0, 0)
	before := NewClock(13, 0, 0)
	after := NewClock(14, 40, 0)
	ninety := 90 * time.Minute

	assert.Equal(t, "15:00:00", EndTime(start, &before, nil).String())
	assert.Equal(t, "15:00:00", EndTime(start, nil, nil).String())
	assert.Equal(t, "14:40:00", EndTime(start, &after, nil).String())
	assert.Equal(t, "15:30:00", EndTime(start, &after, &ninety).String())
	assert.Equal(t, "14:00:00", EndTime(start, &start, nil).String())
}

func TestImportEndTime(t *testing.T) {
	start := NewClock(10, 0, 0)
	assert.Equal(t, "11:00:00", ImportEndTime(start, start).String())
	assert.Equal(t, "11:00:00", ImportEndTime(start, NewClock(9, 0, 0)).String())
	assert.Equal(t, "10:30:00", ImportEndTime(start, NewClock(10, 30, 0)).String())
	assert.Equal(t, "23:59:59", ImportEndTime(NewClock(23, 15, 0), 0).String())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("10.03.2025")
	assert.Error(t, err)
}
