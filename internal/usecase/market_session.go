package usecase

import (
	"context"
	"fmt"
	"time"

	"StockPull/internal/domain/models"
	drepo "StockPull/internal/domain/repository"
	"StockPull/pkg/util"
)

const (
	// fullCloseHour is the regular close; an earlier close is an early close.
	fullCloseHour = 16
	// earlyCloseHour is the close that gets the early close wording.
	earlyCloseHour = 13
	// startBuffer is how long before the open monitoring may start.
	startBuffer = 5 * time.Minute
)

// MarketSession answers whether the market is open and whether monitoring
// should start. Any calendar failure resolves to closed / do not start.
type MarketSession struct {
	calendar drepo.Calendar
	loc      *time.Location
	now      func() time.Time
}

type MarketSessionOption func(*MarketSession)

func WithNow(now func() time.Time) MarketSessionOption {
	return func(m *MarketSession) { m.now = now }
}

func NewMarketSession(cal drepo.Calendar, loc *time.Location, opts ...MarketSessionOption) *MarketSession {
	m := &MarketSession{calendar: cal, loc: loc, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Location is the exchange timezone used for reasons and phases.
func (m *MarketSession) Location() *time.Location { return m.loc }

func (m *MarketSession) Now() time.Time { return m.now().In(m.loc) }

func (m *MarketSession) Status(ctx context.Context) (models.MarketStatus, error) {
	return m.StatusAt(ctx, m.now())
}

// StatusAt classifies t against its exchange-local date. The session is
// the half-open window [open, close).
func (m *MarketSession) StatusAt(ctx context.Context, t time.Time) (models.MarketStatus, error) {
	local := t.In(m.loc)
	st := models.MarketStatus{ObservedAt: local}

	entry, ok, err := m.today(ctx, local)
	if err != nil {
		st.Reason = "Calendar unavailable"
		return st, err
	}
	if !ok {
		st.Reason = noSessionReason(local)
		return st, nil
	}

	closeAt := entry.Close.In(m.loc)
	st.EarlyClose = isEarlyClose(closeAt)
	earlyWording := closeAt.Hour() == earlyCloseHour
	switch {
	case local.Before(entry.Open):
		st.Phase = models.PhaseBeforeOpen
		st.Reason = fmt.Sprintf("Before market open (opens at %s ET)", clock(entry.Open.In(m.loc)))
	case !local.Before(closeAt):
		st.Phase = models.PhaseAfterClose
		if earlyWording {
			st.Reason = fmt.Sprintf("After early close (closed at %s ET)", clock(closeAt))
		} else {
			st.Reason = fmt.Sprintf("After market close (closed at %s ET)", clock(closeAt))
		}
	default:
		st.Open = true
		st.Phase = models.PhaseInSession
		if earlyWording {
			st.Reason = fmt.Sprintf("Market open (early close at %s ET)", clock(closeAt))
		} else {
			st.Reason = fmt.Sprintf("Market open (closes at %s ET)", clock(closeAt))
		}
	}
	return st, nil
}

func (m *MarketSession) ShouldStartMonitoring(ctx context.Context) (models.MonitorDecision, error) {
	return m.ShouldStartAt(ctx, m.now())
}

// ShouldStartAt allows starting from five minutes before the open until
// the close.
func (m *MarketSession) ShouldStartAt(ctx context.Context, t time.Time) (models.MonitorDecision, error) {
	local := t.In(m.loc)
	d := models.MonitorDecision{ObservedAt: local}

	entry, ok, err := m.today(ctx, local)
	if err != nil {
		d.Reason = "Calendar unavailable"
		return d, err
	}
	if !ok {
		d.Reason = noSessionReason(local)
		return d, nil
	}

	openAt, closeAt := entry.Open.In(m.loc), entry.Close.In(m.loc)
	startAt := openAt.Add(-startBuffer)
	switch {
	case local.Before(startAt):
		d.Phase = models.PhaseBeforeOpen
		d.Reason = fmt.Sprintf("Too early (can start at %s ET)", clock(startAt))
	case !local.Before(closeAt):
		d.Phase = models.PhaseAfterClose
		d.Reason = fmt.Sprintf("Too late (market closed at %s ET)", clock(closeAt))
	default:
		d.Start = true
		d.Phase = models.PhaseInSession
		if local.Before(openAt) {
			d.Phase = models.PhaseBeforeOpen
		}
		d.Reason = "Good time to start monitoring"
	}
	return d, nil
}

// today returns the schedule entry for local's date, if any.
func (m *MarketSession) today(ctx context.Context, local time.Time) (models.Schedule, bool, error) {
	day := util.StartOfDay(local, m.loc)
	entries, err := m.calendar.Schedule(ctx, day, day)
	if err != nil {
		return models.Schedule{}, false, &models.CalendarError{Err: err}
	}
	date := local.Format(util.DateLayout)
	for _, e := range entries {
		if e.Date == date {
			return e, true, nil
		}
	}
	return models.Schedule{}, false, nil
}

func noSessionReason(local time.Time) string {
	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return fmt.Sprintf("Weekend (%s)", wd)
	}
	return "Market holiday"
}

func isEarlyClose(closeAt time.Time) bool {
	full := time.Date(closeAt.Year(), closeAt.Month(), closeAt.Day(), fullCloseHour, 0, 0, 0, closeAt.Location())
	return closeAt.Before(full)
}

func clock(t time.Time) string { return t.Format("15:04") }
