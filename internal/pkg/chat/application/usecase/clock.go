package usecase

import "time"

// Clock is the single time source for freshness decisions. Tests inject a
// synthetic clock to exercise staleness boundaries without sleeping.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the wall clock.
var SystemClock Clock = systemClock{}
