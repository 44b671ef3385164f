package domain

import (
	"strings"
	"time"
)

// Frequency is the generation cadence of a recurring definition.
type Frequency string

const (
	FrequencyWeekly       Frequency = "WEEKLY"
	FrequencyBiweekly     Frequency = "BIWEEKLY"
	FrequencyMonthly      Frequency = "MONTHLY"
	FrequencyBimonthly    Frequency = "BIMONTHLY"
	FrequencyQuarterly    Frequency = "QUARTERLY"
	FrequencyQuadmonthly  Frequency = "QUADMONTHLY"
	FrequencySemiannually Frequency = "SEMIANNUALLY"
	FrequencyAnnually     Frequency = "ANNUALLY"
)

// ParseFrequency validates a raw frequency value. Writes go through this so
// persisted rows always hold a known cadence.
func ParseFrequency(raw string) (Frequency, error) {
	switch Frequency(strings.ToUpper(strings.TrimSpace(raw))) {
	case FrequencyWeekly:
		return FrequencyWeekly, nil
	case FrequencyBiweekly:
		return FrequencyBiweekly, nil
	case FrequencyMonthly:
		return FrequencyMonthly, nil
	case FrequencyBimonthly:
		return FrequencyBimonthly, nil
	case FrequencyQuarterly:
		return FrequencyQuarterly, nil
	case FrequencyQuadmonthly:
		return FrequencyQuadmonthly, nil
	case FrequencySemiannually:
		return FrequencySemiannually, nil
	case FrequencyAnnually:
		return FrequencyAnnually, nil
	default:
		return "", ErrInvalidFrequency
	}
}

// NextOccurrence steps a date forward by one cadence interval. Month and year
// steps use AddDate, so a Jan 31 monthly schedule normalizes into early March
// rather than clamping to month end. Unknown cadences step one month; they
// cannot be stored through the API but old rows stay schedulable.
func NextOccurrence(from time.Time, freq Frequency) time.Time {
	switch freq {
	case FrequencyWeekly:
		return from.AddDate(0, 0, 7)
	case FrequencyBiweekly:
		return from.AddDate(0, 0, 14)
	case FrequencyMonthly:
		return from.AddDate(0, 1, 0)
	case FrequencyBimonthly:
		return from.AddDate(0, 2, 0)
	case FrequencyQuarterly:
		return from.AddDate(0, 3, 0)
	case FrequencyQuadmonthly:
		return from.AddDate(0, 4, 0)
	case FrequencySemiannually:
		return from.AddDate(0, 6, 0)
	case FrequencyAnnually:
		return from.AddDate(1, 0, 0)
	default:
		return from.AddDate(0, 1, 0)
	}
}
