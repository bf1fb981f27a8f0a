package models

import "time"

// Schedule is one trading session of a calendar date.
type Schedule struct {
	Date  string // YYYY-MM-DD, exchange local
	Open  time.Time
	Close time.Time
}

// SessionPhase classifies an instant against today's schedule.
type SessionPhase int

const (
	PhaseNoSession SessionPhase = iota
	PhaseBeforeOpen
	PhaseInSession
	PhaseAfterClose
)

func (p SessionPhase) String() string {
	switch p {
	case PhaseBeforeOpen:
		return "before_open"
	case PhaseInSession:
		return "in_session"
	case PhaseAfterClose:
		return "after_close"
	default:
		return "no_session"
	}
}

// MarketStatus answers "is the market open".
type MarketStatus struct {
	Open       bool
	Phase      SessionPhase
	EarlyClose bool
	Reason     string
	ObservedAt time.Time
}

// MonitorDecision answers "should monitoring start now".
type MonitorDecision struct {
	Start      bool
	Phase      SessionPhase
	Reason     string
	ObservedAt time.Time
}
