package polygon

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"StockPull/internal/domain/models"
)

// aggsResponse is one page of /v2/aggs.
type aggsResponse struct {
	Ticker       string   `json:"ticker"`
	QueryCount   int      `json:"queryCount"`
	ResultsCount int      `json:"resultsCount"`
	Adjusted     bool     `json:"adjusted"`
	Results      []barRaw `json:"results"`
	Status       string   `json:"status"`
	RequestID    string   `json:"request_id"`
	Error        string   `json:"error,omitempty"`
	Message      string   `json:"message,omitempty"`
	NextURL      string   `json:"next_url,omitempty"`
}

type barRaw struct {
	Timestamp    int64          `json:"t"` // ms
	Open         float64        `json:"o"`
	High         float64        `json:"h"`
	Low          float64        `json:"l"`
	Close        float64        `json:"c"`
	Volume       float64        `json:"v"`
	VWAP         *float64       `json:"vw,omitempty"`
	Transactions *FlexibleInt64 `json:"n,omitempty"`
}

func (br barRaw) toAggregate() models.Aggregate {
	agg := models.Aggregate{
		Timestamp: br.Timestamp,
		Open:      br.Open,
		High:      br.High,
		Low:       br.Low,
		Close:     br.Close,
		Volume:    br.Volume,
		VWAP:      br.VWAP,
	}
	if br.Transactions != nil {
		n := br.Transactions.Int64()
		agg.Transactions = &n
	}
	return agg
}

// FlexibleInt64 accepts integers, floats in scientific notation, and
// numeric strings.
type FlexibleInt64 int64

func (f *FlexibleInt64) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		val, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return err
		}
		return f.setFloat(val)
	}

	var floatVal float64
	if err := json.Unmarshal(data, &floatVal); err == nil {
		return f.setFloat(floatVal)
	}
	return fmt.Errorf("cannot parse as int64: %s", string(data))
}

func (f *FlexibleInt64) setFloat(v float64) error {
	if math.IsNaN(v) || v < math.MinInt64 || v >= -math.MinInt64 {
		return fmt.Errorf("value %v out of int64 range", v)
	}
	*f = FlexibleInt64(int64(v))
	return nil
}

func (f FlexibleInt64) Int64() int64 { return int64(f) }

// upcomingHoliday is one entry of /v1/marketstatus/upcoming.
type upcomingHoliday struct {
	Exchange string `json:"exchange"`
	Name     string `json:"name"`
	Date     string `json:"date"`
	Status   string `json:"status"`
	Open     string `json:"open,omitempty"`
	Close    string `json:"close,omitempty"`
}

func (h upcomingHoliday) toHoliday() (models.MarketHoliday, error) {
	out := models.MarketHoliday{Date: h.Date, Name: h.Name}
	switch h.Status {
	case "closed":
		out.Status = models.HolidayClosed
	case "early-close":
		out.Status = models.HolidayEarlyClose
		if h.Close == "" {
			return out, fmt.Errorf("early close %s without close time", h.Date)
		}
		ts, err := time.Parse(time.RFC3339, h.Close)
		if err != nil {
			return out, fmt.Errorf("early close %s: %w", h.Date, err)
		}
		out.Close = &ts
	default:
		return out, fmt.Errorf("unknown holiday status %q for %s", h.Status, h.Date)
	}
	return out, nil
}
