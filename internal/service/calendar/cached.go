package calendar

import (
	"context"
	"errors"
	"time"

	"StockPull/internal/domain/models"
	"StockPull/internal/domain/repository"
	"StockPull/pkg/cache"
	"StockPull/pkg/logger"
)

// CachedSource caches whole years of another source. Cache failures fall
// through to the wrapped source.
type CachedSource struct {
	inner  repository.HolidaySource
	cache  cache.Service
	name   string
	ttl    time.Duration
	loc    *time.Location
	logger *logger.Logger
}

func NewCachedSource(inner repository.HolidaySource, c cache.Service, name string, ttl time.Duration, loc *time.Location, l *logger.Logger) *CachedSource {
	if l == nil {
		l = logger.Nop()
	}
	return &CachedSource{inner: inner, cache: c, name: name, ttl: ttl, loc: loc, logger: l}
}

func (s *CachedSource) Holidays(ctx context.Context, from, to time.Time) ([]models.MarketHoliday, error) {
	fy, ty := from.In(s.loc).Year(), to.In(s.loc).Year()
	key := cache.Key("calendar", s.name, fy, ty)

	var hs []models.MarketHoliday
	err := s.cache.Get(ctx, key, &hs)
	switch {
	case err == nil:
	case errors.Is(err, cache.ErrCacheMiss):
		if hs, err = s.load(ctx, key, fy, ty); err != nil {
			return nil, err
		}
	default:
		s.logger.Warn("calendar cache read failed", logger.String("key", key), logger.Error(err))
		if hs, err = s.load(ctx, key, fy, ty); err != nil {
			return nil, err
		}
	}

	lo, hi := dateBounds(from, to, s.loc)
	out := make([]models.MarketHoliday, 0, len(hs))
	for _, h := range hs {
		if h.Date >= lo && h.Date <= hi {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s *CachedSource) load(ctx context.Context, key string, fy, ty int) ([]models.MarketHoliday, error) {
	start := time.Date(fy, time.January, 1, 0, 0, 0, 0, s.loc)
	end := time.Date(ty, time.December, 31, 0, 0, 0, 0, s.loc)
	hs, err := s.inner.Holidays(ctx, start, end)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, hs, s.ttl); err != nil {
		s.logger.Warn("calendar cache write failed", logger.String("key", key), logger.Error(err))
	}
	return hs, nil
}
