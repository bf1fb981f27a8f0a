package calendar

import (
	"context"
	"time"

	"StockPull/internal/domain/models"
	"StockPull/internal/domain/repository"
)

// MergedSource unions several sources. For a date listed by more than one,
// the later source wins.
type MergedSource struct {
	sources []repository.HolidaySource
}

func NewMergedSource(sources ...repository.HolidaySource) *MergedSource {
	return &MergedSource{sources: sources}
}

func (m *MergedSource) Holidays(ctx context.Context, from, to time.Time) ([]models.MarketHoliday, error) {
	byDate := map[string]models.MarketHoliday{}
	for _, s := range m.sources {
		hs, err := s.Holidays(ctx, from, to)
		if err != nil {
			return nil, err
		}
		for _, h := range hs {
			byDate[h.Date] = h
		}
	}
	out := make([]models.MarketHoliday, 0, len(byDate))
	for _, h := range byDate {
		out = append(out, h)
	}
	sortHolidays(out)
	return out, nil
}
