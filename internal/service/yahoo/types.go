package yahoo

// chartResponse is the body of /v8/finance/chart/{ticker}.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta       chartMeta `json:"meta"`
	Timestamp  []int64   `json:"timestamp"`
	Indicators struct {
		Quote []chartQuote `json:"quote"`
	} `json:"indicators"`
}

// chartMeta carries the day summary. Any field may be missing.
type chartMeta struct {
	Symbol             string   `json:"symbol"`
	ExchangeTimezone   string   `json:"exchangeTimezoneName"`
	RegularMarketPrice *float64 `json:"regularMarketPrice"`
	DayHigh            *float64 `json:"regularMarketDayHigh"`
	DayLow             *float64 `json:"regularMarketDayLow"`
	PreviousClose      *float64 `json:"previousClose"`
	ChartPreviousClose *float64 `json:"chartPreviousClose"`
	MarketCap          *float64 `json:"marketCap"`
	TrailingPE         *float64 `json:"trailingPE"`
}

// chartQuote holds parallel columns. Minutes without trades come back as
// nulls.
type chartQuote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}
