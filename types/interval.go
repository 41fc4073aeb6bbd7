package types

import (
	"fmt"
	"strings"
	"time"
)

type Interval string

const (
	Hour  Interval = "H"
	Day   Interval = "D"
	Week  Interval = "W"
	Month Interval = "M"
)

// IntervalToTime is the nominal length of one candle.
var IntervalToTime = map[Interval]time.Duration{
	Hour:  time.Hour,
	Day:   time.Hour * 24,
	Week:  time.Hour * 24 * 7,
	Month: time.Hour * 24 * 30,
}

// PeriodsPerYear is the annualisation factor used by the ratio indicators.
// Hourly bars count the 6.5 hours of a regular US session.
var PeriodsPerYear = map[Interval]float64{
	Hour:  252 * 6.5,
	Day:   252,
	Week:  52,
	Month: 12,
}

// ParseInterval accepts H, D, W and M in either case; "60" is read as H.
func ParseInterval(s string) (Interval, error) {
	if s == "60" {
		return Hour, nil
	}
	switch i := Interval(strings.ToUpper(s)); i {
	case Hour, Day, Week, Month:
		return i, nil
	}
	return "", fmt.Errorf("unknown interval %q", s)
}
