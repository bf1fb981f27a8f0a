package models

import "fmt"

// Interval is the unit of an aggregate bar.
type Interval string

const (
	IntervalMinute Interval = "minute"
	IntervalHour   Interval = "hour"
	IntervalDay    Interval = "day"
)

// IsValid returns true if i is a supported interval.
func (i Interval) IsValid() bool {
	switch i {
	case IntervalMinute, IntervalHour, IntervalDay:
		return true
	default:
		return false
	}
}

// DefaultInterval returns the default interval.
func DefaultInterval() Interval { return IntervalMinute }

// ParseInterval converts raw input to an interval. Empty input yields the
// default; unknown input is an error.
func ParseInterval(s string) (Interval, error) {
	if s == "" {
		return DefaultInterval(), nil
	}
	i := Interval(s)
	if !i.IsValid() {
		return "", fmt.Errorf("unsupported interval %q (want minute, hour or day)", s)
	}
	return i, nil
}
