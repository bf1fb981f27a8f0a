package models

import "time"

// MarketQuery is the query of the market endpoints. At defaults to now.
type MarketQuery struct {
	At string `query:"at" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

type MarketStatusResponse struct {
	Open       bool   `json:"open"`
	Phase      string `json:"phase"`
	EarlyClose bool   `json:"early_close"`
	Reason     string `json:"reason"`
	ObservedAt string `json:"observed_at"`
}

type MonitorDecisionResponse struct {
	Start      bool   `json:"start"`
	Phase      string `json:"phase"`
	Reason     string `json:"reason"`
	ObservedAt string `json:"observed_at"`
}

func NewMarketStatusResponse(s MarketStatus) MarketStatusResponse {
	return MarketStatusResponse{
		Open:       s.Open,
		Phase:      s.Phase.String(),
		EarlyClose: s.EarlyClose,
		Reason:     s.Reason,
		ObservedAt: s.ObservedAt.Format(time.RFC3339),
	}
}

func NewMonitorDecisionResponse(d MonitorDecision) MonitorDecisionResponse {
	return MonitorDecisionResponse{
		Start:      d.Start,
		Phase:      d.Phase.String(),
		Reason:     d.Reason,
		ObservedAt: d.ObservedAt.Format(time.RFC3339),
	}
}
