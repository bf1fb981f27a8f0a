package models

import (
	"fmt"
	"math"
)

// Bar is the canonical, source-independent summary of one trading period
// for one ticker. Time is the period start in Unix seconds.
type Bar struct {
	Ticker string
	Time   int64
	High   float64
	Low    float64
	Avg    float64
	Sale   float64
	Meta   Meta
}

// Validate checks the bar invariants.
func (b Bar) Validate() error {
	if b.Ticker == "" {
		return fmt.Errorf("%w: empty ticker", ErrInvalidBar)
	}
	if b.Time < 0 {
		return fmt.Errorf("%w: negative time %d for %s", ErrInvalidBar, b.Time, b.Ticker)
	}
	prices := [...]struct {
		name string
		v    float64
	}{{"high", b.High}, {"low", b.Low}, {"avg", b.Avg}, {"sale", b.Sale}}
	for _, p := range prices {
		if math.IsNaN(p.v) || math.IsInf(p.v, 0) {
			return fmt.Errorf("%w: %s is not finite for %s", ErrInvalidBar, p.name, b.Ticker)
		}
	}
	if b.High < b.Low {
		return fmt.Errorf("%w: high %v < low %v for %s", ErrInvalidBar, b.High, b.Low, b.Ticker)
	}
	return nil
}

// Midpoint returns (high+low)/2.
func Midpoint(high, low float64) float64 {
	return (high + low) / 2
}
