package models

// StockRecord is the persisted row of a Bar.
type StockRecord struct {
	ID     int64   `gorm:"primaryKey;autoIncrement"`
	Ticker string  `gorm:"type:varchar(10);not null;index"`
	Time   int64   `gorm:"not null;index"`
	High   float64 `gorm:"not null"`
	Low    float64 `gorm:"not null"`
	Avg    float64 `gorm:"not null"`
	Sale   float64 `gorm:"not null"`
	Meta   Meta    `gorm:"type:jsonb"`
}

func (StockRecord) TableName() string { return "stocks" }

func NewStockRecord(b Bar) StockRecord {
	return StockRecord{
		Ticker: b.Ticker,
		Time:   b.Time,
		High:   b.High,
		Low:    b.Low,
		Avg:    b.Avg,
		Sale:   b.Sale,
		Meta:   b.Meta,
	}
}

func (r StockRecord) Bar() Bar {
	return Bar{
		Ticker: r.Ticker,
		Time:   r.Time,
		High:   r.High,
		Low:    r.Low,
		Avg:    r.Avg,
		Sale:   r.Sale,
		Meta:   r.Meta,
	}
}
