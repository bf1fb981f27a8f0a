package calendar

import (
	"context"
	"time"

	"StockPull/internal/domain/models"
	"StockPull/pkg/util"
)

// specialClosures are unscheduled full-day NYSE closures.
var specialClosures = map[string]string{
	"2001-09-11": "September 11 attacks",
	"2001-09-12": "September 11 attacks",
	"2001-09-13": "September 11 attacks",
	"2001-09-14": "September 11 attacks",
	"2004-06-11": "Day of Mourning for President Reagan",
	"2007-01-02": "Day of Mourning for President Ford",
	"2012-10-29": "Hurricane Sandy",
	"2012-10-30": "Hurricane Sandy",
	"2018-12-05": "Day of Mourning for President George H.W. Bush",
	"2025-01-09": "Day of Mourning for President Carter",
}

// RulesSource derives NYSE holidays and early closes from the exchange's
// published rules. It needs no network access.
type RulesSource struct {
	loc *time.Location
}

func NewRulesSource(loc *time.Location) *RulesSource {
	return &RulesSource{loc: loc}
}

func (s *RulesSource) Holidays(_ context.Context, from, to time.Time) ([]models.MarketHoliday, error) {
	lo, hi := dateBounds(from, to, s.loc)
	var out []models.MarketHoliday
	for y := from.In(s.loc).Year(); y <= to.In(s.loc).Year(); y++ {
		for _, h := range s.year(y) {
			if h.Date >= lo && h.Date <= hi {
				out = append(out, h)
			}
		}
	}
	return out, nil
}

// year lists one year's non-regular sessions in date order.
func (s *RulesSource) year(y int) []models.MarketHoliday {
	closed := map[string]string{}
	add := func(t time.Time, name string) {
		if !t.IsZero() {
			closed[t.Format(util.DateLayout)] = name
		}
	}

	// A Saturday New Year's Day is not moved back into the prior year.
	if ny := s.date(y, time.January, 1); ny.Weekday() == time.Sunday {
		add(ny.AddDate(0, 0, 1), "New Year's Day")
	} else if ny.Weekday() != time.Saturday {
		add(ny, "New Year's Day")
	}
	add(s.nthWeekday(y, time.January, time.Monday, 3), "Martin Luther King, Jr. Day")
	add(s.nthWeekday(y, time.February, time.Monday, 3), "Washington's Birthday")
	add(easter(y, s.loc).AddDate(0, 0, -2), "Good Friday")
	add(s.lastWeekday(y, time.May, time.Monday), "Memorial Day")
	if y >= 2022 {
		add(observed(s.date(y, time.June, 19)), "Juneteenth")
	}
	add(observed(s.date(y, time.July, 4)), "Independence Day")
	add(s.nthWeekday(y, time.September, time.Monday, 1), "Labor Day")
	thanksgiving := s.nthWeekday(y, time.November, time.Thursday, 4)
	add(thanksgiving, "Thanksgiving Day")
	add(observed(s.date(y, time.December, 25)), "Christmas Day")
	for d, name := range specialClosures {
		if day, err := time.ParseInLocation(util.DateLayout, d, s.loc); err == nil && day.Year() == y {
			add(day, name)
		}
	}

	early := map[string]string{}
	addEarly := func(t time.Time, name string) {
		d := t.Format(util.DateLayout)
		if isWeekend(t) {
			return
		}
		if _, ok := closed[d]; ok {
			return
		}
		early[d] = name
	}
	addEarly(s.date(y, time.July, 3), "Independence Day")
	addEarly(thanksgiving.AddDate(0, 0, 1), "Thanksgiving Day")
	addEarly(s.date(y, time.December, 24), "Christmas Eve")

	out := make([]models.MarketHoliday, 0, len(closed)+len(early))
	for d, name := range closed {
		out = append(out, models.MarketHoliday{Date: d, Name: name, Status: models.HolidayClosed})
	}
	for d, name := range early {
		day, _ := time.ParseInLocation(util.DateLayout, d, s.loc)
		closeAt := atClock(day, earlyCloseHour, 0)
		out = append(out, models.MarketHoliday{Date: d, Name: name, Status: models.HolidayEarlyClose, Close: &closeAt})
	}
	sortHolidays(out)
	return out
}

func (s *RulesSource) date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

// nthWeekday returns the n-th wd of month m (n starts at 1).
func (s *RulesSource) nthWeekday(y int, m time.Month, wd time.Weekday, n int) time.Time {
	first := s.date(y, m, 1)
	offset := (int(wd) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+7*(n-1))
}

func (s *RulesSource) lastWeekday(y int, m time.Month, wd time.Weekday) time.Time {
	last := s.date(y, m+1, 1).AddDate(0, 0, -1)
	offset := (int(last.Weekday()) - int(wd) + 7) % 7
	return last.AddDate(0, 0, -offset)
}

// observed moves a Saturday holiday to Friday and a Sunday one to Monday.
func observed(t time.Time) time.Time {
	switch t.Weekday() {
	case time.Saturday:
		return t.AddDate(0, 0, -1)
	case time.Sunday:
		return t.AddDate(0, 0, 1)
	default:
		return t
	}
}

// easter returns Western Easter Sunday (anonymous Gregorian algorithm).
func easter(y int, loc *time.Location) time.Time {
	a := y % 19
	b := y / 100
	c := y % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(y, time.Month(month), day, 0, 0, 0, 0, loc)
}

func isWeekend(t time.Time) bool {
	return t.Weekday() == time.Saturday || t.Weekday() == time.Sunday
}
