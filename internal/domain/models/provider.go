package models

import "time"

// Aggregate is one raw aggregate bar as returned by a historical provider.
// Timestamp is the period start in Unix milliseconds.
type Aggregate struct {
	Timestamp    int64    `json:"t" parquet:"t"`
	Open         float64  `json:"o" parquet:"o"`
	High         float64  `json:"h" parquet:"h"`
	Low          float64  `json:"l" parquet:"l"`
	Close        float64  `json:"c" parquet:"c"`
	Volume       float64  `json:"v" parquet:"v"`
	VWAP         *float64 `json:"vw,omitempty" parquet:"vw,optional"`
	Transactions *int64   `json:"n,omitempty" parquet:"n,optional"`
}

// AggsRequest selects a range of aggregates from a historical provider.
type AggsRequest struct {
	Ticker     string
	Multiplier int
	Interval   Interval
	From       string // YYYY-MM-DD
	To         string // YYYY-MM-DD
	Limit      int
}

// MinuteBar is one intraday bar of a live snapshot.
type MinuteBar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// QuoteInfo is the static part of a live snapshot. Every field is optional.
type QuoteInfo struct {
	DayHigh       *float64
	DayLow        *float64
	PreviousClose *float64
	MarketCap     *float64
	TrailingPE    *float64
}

// Snapshot is the full payload of a live-snapshot provider call.
type Snapshot struct {
	Info    QuoteInfo
	Minutes []MinuteBar
}

// HolidayStatus tells whether an exchange is shut or closes early on a date.
type HolidayStatus string

const (
	HolidayClosed     HolidayStatus = "closed"
	HolidayEarlyClose HolidayStatus = "early-close"
)

// MarketHoliday is one non-regular trading date.
type MarketHoliday struct {
	Date   string        `json:"date"` // YYYY-MM-DD, exchange local
	Name   string        `json:"name"`
	Status HolidayStatus `json:"status"`
	// Close is set for early closes.
	Close *time.Time `json:"close,omitempty"`
}
