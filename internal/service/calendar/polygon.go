package calendar

import (
	"context"
	"time"

	"StockPull/internal/domain/models"
)

type holidayFeed interface {
	MarketHolidays(ctx context.Context, exchange string) ([]models.MarketHoliday, error)
}

// PolygonSource reads the provider's upcoming-holiday feed for one
// exchange. The feed only covers the coming months, so it is merged over
// RulesSource.
type PolygonSource struct {
	feed     holidayFeed
	exchange string
	loc      *time.Location
}

func NewPolygonSource(feed holidayFeed, exchange string, loc *time.Location) *PolygonSource {
	return &PolygonSource{feed: feed, exchange: exchange, loc: loc}
}

func (s *PolygonSource) Holidays(ctx context.Context, from, to time.Time) ([]models.MarketHoliday, error) {
	all, err := s.feed.MarketHolidays(ctx, s.exchange)
	if err != nil {
		return nil, err
	}
	lo, hi := dateBounds(from, to, s.loc)
	out := make([]models.MarketHoliday, 0, len(all))
	for _, h := range all {
		if h.Date >= lo && h.Date <= hi {
			out = append(out, h)
		}
	}
	return out, nil
}
