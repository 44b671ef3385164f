package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestNextOccurrenceAllFrequencies(t *testing.T) {
	from := date(2026, time.January, 15)

	cases := []struct {
		frequency Frequency
		want      time.Time
	}{
		{FrequencyWeekly, date(2026, time.January, 22)},
		{FrequencyBiweekly, date(2026, time.January, 29)},
		{FrequencyMonthly, date(2026, time.February, 15)},
		{FrequencyBimonthly, date(2026, time.March, 15)},
		{FrequencyQuarterly, date(2026, time.April, 15)},
		{FrequencyQuadmonthly, date(2026, time.May, 15)},
		{FrequencySemiannually, date(2026, time.July, 15)},
		{FrequencyAnnually, date(2027, time.January, 15)},
	}

	for _, tc := range cases {
		t.Run(string(tc.frequency), func(t *testing.T) {
			assert.Equal(t, tc.want, NextOccurrence(from, tc.frequency))
		})
	}
}

func TestNextOccurrenceMonthEndNormalization(t *testing.T) {
	// AddDate normalizes Jan 31 + 1 month past the end of February.
	got := NextOccurrence(date(2025, time.January, 31), FrequencyMonthly)
	assert.Equal(t, date(2025, time.March, 3), got)

	// Leap year lands one day earlier.
	got = NextOccurrence(date(2024, time.January, 31), FrequencyMonthly)
	assert.Equal(t, date(2024, time.March, 2), got)
}

func TestNextOccurrenceUnknownFrequencyDefaultsToMonthly(t *testing.T) {
	got := NextOccurrence(date(2026, time.June, 10), Frequency("EVERY_FULL_MOON"))
	assert.Equal(t, date(2026, time.July, 10), got)
}

func TestParseFrequency(t *testing.T) {
	parsed, err := ParseFrequency("  weekly ")
	require.NoError(t, err)
	assert.Equal(t, FrequencyWeekly, parsed)

	parsed, err = ParseFrequency("QUARTERLY")
	require.NoError(t, err)
	assert.Equal(t, FrequencyQuarterly, parsed)

	_, err = ParseFrequency("fortnightly")
	assert.ErrorIs(t, err, ErrInvalidFrequency)
}
