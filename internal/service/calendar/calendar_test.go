package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPull/internal/domain/models"
	"StockPull/pkg/cache"
)

func newYork(t *testing.T) *time.Location {
	t.Helper()
	loc, err := LoadLocation("America/New_York")
	require.NoError(t, err)
	return loc
}

func day(loc *time.Location, y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func holidayDates(hs []models.MarketHoliday, status models.HolidayStatus) []string {
	var out []string
	for _, h := range hs {
		if h.Status == status {
			out = append(out, h.Date)
		}
	}
	return out
}

func TestRulesSource2024(t *testing.T) {
	loc := newYork(t)
	hs, err := NewRulesSource(loc).Holidays(context.Background(), day(loc, 2024, 1, 1), day(loc, 2024, 12, 31))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"2024-01-01", "2024-01-15", "2024-02-19", "2024-03-29", "2024-05-27",
		"2024-06-19", "2024-07-04", "2024-09-02", "2024-11-28", "2024-12-25",
	}, holidayDates(hs, models.HolidayClosed))
	assert.Equal(t, []string{"2024-07-03", "2024-11-29", "2024-12-24"}, holidayDates(hs, models.HolidayEarlyClose))
}

func TestRulesSourceObservance(t *testing.T) {
	loc := newYork(t)
	hs, err := NewRulesSource(loc).Holidays(context.Background(), day(loc, 2026, 1, 1), day(loc, 2026, 12, 31))
	require.NoError(t, err)

	closed := holidayDates(hs, models.HolidayClosed)
	// Independence Day on a Saturday is observed Friday, so July 3 is
	// not an early close.
	assert.Contains(t, closed, "2026-07-03")
	assert.Contains(t, closed, "2026-04-03")
	assert.Equal(t, []string{"2026-11-27", "2026-12-24"}, holidayDates(hs, models.HolidayEarlyClose))

	// Saturday New Year's Day is not observed.
	hs, err = NewRulesSource(loc).Holidays(context.Background(), day(loc, 2022, 1, 1), day(loc, 2022, 1, 31))
	require.NoError(t, err)
	assert.Equal(t, []string{"2022-01-17"}, holidayDates(hs, models.HolidayClosed))
}

func TestRulesSourceNoJuneteenthBefore2022(t *testing.T) {
	loc := newYork(t)
	hs, err := NewRulesSource(loc).Holidays(context.Background(), day(loc, 2021, 6, 1), day(loc, 2021, 6, 30))
	require.NoError(t, err)
	assert.Empty(t, hs)
}

func TestRulesSourceSpecialClosures(t *testing.T) {
	loc := newYork(t)
	src := NewRulesSource(loc)

	hs, err := src.Holidays(context.Background(), day(loc, 2025, 1, 1), day(loc, 2025, 1, 31))
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-01", "2025-01-09", "2025-01-20"}, holidayDates(hs, models.HolidayClosed))

	hs, err = src.Holidays(context.Background(), day(loc, 2012, 10, 1), day(loc, 2012, 10, 31))
	require.NoError(t, err)
	assert.Equal(t, []string{"2012-10-29", "2012-10-30"}, holidayDates(hs, models.HolidayClosed))

	sched, err := NewExchangeCalendar(src, loc).Schedule(context.Background(), day(loc, 2025, 1, 9), day(loc, 2025, 1, 9))
	require.NoError(t, err)
	assert.Empty(t, sched)
}

func TestEaster(t *testing.T) {
	for y, want := range map[int]string{2024: "2024-03-31", 2025: "2025-04-20", 2026: "2026-04-05", 2000: "2000-04-23"} {
		assert.Equal(t, want, easter(y, time.UTC).Format("2006-01-02"))
	}
}

func TestExchangeCalendarSchedule(t *testing.T) {
	loc := newYork(t)
	cal := NewExchangeCalendar(NewRulesSource(loc), loc)

	entries, err := cal.Schedule(context.Background(), day(loc, 2024, 11, 25), day(loc, 2024, 12, 1))
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, "2024-11-25", entries[0].Date)
	assert.Equal(t, 9, entries[0].Open.Hour())
	assert.Equal(t, 30, entries[0].Open.Minute())
	assert.Equal(t, 16, entries[0].Close.Hour())

	fri := entries[3]
	assert.Equal(t, "2024-11-29", fri.Date)
	assert.Equal(t, 13, fri.Close.In(loc).Hour())
}

func TestExchangeCalendarWeekend(t *testing.T) {
	loc := newYork(t)
	entries, err := NewExchangeCalendar(NewRulesSource(loc), loc).
		Schedule(context.Background(), day(loc, 2024, 6, 1), day(loc, 2024, 6, 2))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

type stubFeed struct {
	hs  []models.MarketHoliday
	err error
}

func (s stubFeed) MarketHolidays(context.Context, string) ([]models.MarketHoliday, error) {
	return s.hs, s.err
}

func TestPolygonSourceMergedOverRules(t *testing.T) {
	loc := newYork(t)
	closeAt := time.Date(2025, 1, 9, 0, 0, 0, 0, loc)
	feed := stubFeed{hs: []models.MarketHoliday{
		{Date: "2025-01-09", Name: "National Day of Mourning", Status: models.HolidayClosed, Close: &closeAt},
		{Date: "2025-06-01", Name: "out of range", Status: models.HolidayClosed},
	}}
	src := NewMergedSource(NewRulesSource(loc), NewPolygonSource(feed, "NYSE", loc))

	hs, err := src.Holidays(context.Background(), day(loc, 2025, 1, 1), day(loc, 2025, 1, 31))
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-01", "2025-01-09", "2025-01-20"}, holidayDates(hs, models.HolidayClosed))

	_, err = NewPolygonSource(stubFeed{err: errors.New("down")}, "NYSE", loc).
		Holidays(context.Background(), day(loc, 2025, 1, 1), day(loc, 2025, 1, 31))
	assert.Error(t, err)
}

type countingSource struct {
	inner *RulesSource
	calls int
}

func (c *countingSource) Holidays(ctx context.Context, from, to time.Time) ([]models.MarketHoliday, error) {
	c.calls++
	return c.inner.Holidays(ctx, from, to)
}

func TestCachedSource(t *testing.T) {
	loc := newYork(t)
	inner := &countingSource{inner: NewRulesSource(loc)}
	src := NewCachedSource(inner, cache.NewMemoryCache(), "rules", time.Hour, loc, nil)
	ctx := context.Background()

	first, err := src.Holidays(ctx, day(loc, 2024, 11, 1), day(loc, 2024, 11, 30))
	require.NoError(t, err)
	second, err := src.Holidays(ctx, day(loc, 2024, 7, 1), day(loc, 2024, 7, 31))
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, []string{"2024-11-28"}, holidayDates(first, models.HolidayClosed))
	assert.Equal(t, []string{"2024-07-03"}, holidayDates(second, models.HolidayEarlyClose))
	require.NotNil(t, second[0].Close)
	assert.Equal(t, 13, second[0].Close.In(loc).Hour())
}
