package calendar

import (
	"context"
	"fmt"
	"sort"
	"time"
	_ "time/tzdata"

	"StockPull/internal/domain/models"
	"StockPull/internal/domain/repository"
	"StockPull/pkg/util"
)

const (
	openHour, openMinute = 9, 30
	closeHour            = 16
	earlyCloseHour       = 13
)

// ExchangeCalendar builds regular weekday sessions and applies the
// holidays and early closes of a HolidaySource.
type ExchangeCalendar struct {
	source repository.HolidaySource
	loc    *time.Location
}

func NewExchangeCalendar(source repository.HolidaySource, loc *time.Location) *ExchangeCalendar {
	return &ExchangeCalendar{source: source, loc: loc}
}

// LoadLocation loads an IANA zone from the embedded database when the host
// has none.
func LoadLocation(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

func (c *ExchangeCalendar) Location() *time.Location { return c.loc }

// Schedule returns one entry per trading date in [from, to], compared as
// exchange-local dates. Non-trading dates have no entry.
func (c *ExchangeCalendar) Schedule(ctx context.Context, from, to time.Time) ([]models.Schedule, error) {
	holidays, err := c.source.Holidays(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("holidays: %w", err)
	}
	byDate := make(map[string]models.MarketHoliday, len(holidays))
	for _, h := range holidays {
		byDate[h.Date] = h
	}

	var out []models.Schedule
	last := util.StartOfDay(to, c.loc)
	for day := util.StartOfDay(from, c.loc); !day.After(last); day = day.AddDate(0, 0, 1) {
		if isWeekend(day) {
			continue
		}
		date := day.Format(util.DateLayout)
		entry := models.Schedule{
			Date:  date,
			Open:  atClock(day, openHour, openMinute),
			Close: atClock(day, closeHour, 0),
		}
		if h, ok := byDate[date]; ok {
			if h.Status == models.HolidayClosed {
				continue
			}
			if h.Close != nil {
				entry.Close = h.Close.In(c.loc)
			} else {
				entry.Close = atClock(day, earlyCloseHour, 0)
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

func atClock(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

func dateBounds(from, to time.Time, loc *time.Location) (string, string) {
	return from.In(loc).Format(util.DateLayout), to.In(loc).Format(util.DateLayout)
}

func sortHolidays(hs []models.MarketHoliday) {
	sort.Slice(hs, func(i, j int) bool { return hs[i].Date < hs[j].Date })
}
