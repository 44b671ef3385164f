// Package clock abstracts wall-clock time so schedulers and services
// can be tested deterministically.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// New returns a Clock backed by the system time in UTC.
func New() Clock {
	return systemClock{}
}
