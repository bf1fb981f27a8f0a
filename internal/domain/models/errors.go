package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNoData marks an empty provider result. It is a warning, never fatal.
	ErrNoData = errors.New("no data")
	// ErrInvalidBar is returned when a bar breaks the canonical invariants.
	ErrInvalidBar = errors.New("invalid bar")
)

// ProviderError wraps a network or API failure from a market data provider.
type ProviderError struct {
	Provider string
	Ticker   string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Ticker == "" {
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Ticker, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// PersistenceError wraps a storage failure while adding, committing or
// rolling back bars.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// CalendarError wraps any failure to resolve a trading schedule.
type CalendarError struct {
	Err error
}

func (e *CalendarError) Error() string {
	return fmt.Sprintf("calendar: %v", e.Err)
}

func (e *CalendarError) Unwrap() error { return e.Err }
