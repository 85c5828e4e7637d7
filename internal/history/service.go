// Package history answers filtered, paginated dose history queries over
// every group a user can see.
package history

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"medtrack-api/internal/access"
	"medtrack-api/internal/apperr"
	"medtrack-api/internal/cache"
	"medtrack-api/internal/model"
	"medtrack-api/internal/store"
)

// epochKey is bumped on every write that can change a history page, which
// retires all cached pages at once.
const epochKey = "history:epoch"

type Service struct {
	db     store.Backend
	cache  cache.Store
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewService returns a history service. c may be nil to disable caching.
func NewService(db store.Backend, c cache.Store, ttl time.Duration, logger *zap.Logger) *Service {
	return &Service{db: db, cache: c, ttl: ttl, logger: logger, now: time.Now}
}

// Query returns one page of history. A cache hit is answered without
// touching the database: the viewer's zone is cached per epoch next to the
// pages, so a timezone change must go through Invalidate.
func (s *Service) Query(ctx context.Context, userID string, f model.HistoryFilter) (*model.HistoryPage, error) {
	f, err := Normalize(f, s.now())
	if err != nil {
		return nil, err
	}

	epoch, cached := s.epoch(ctx)
	zoneKey := "history:zone:" + userID + ":" + epoch
	if cached {
		if loc := s.cachedZone(ctx, zoneKey); loc != nil {
			f.Location = loc
			if page := s.lookup(ctx, pageKey(userID, epoch, f)); page != nil {
				return page, nil
			}
		}
	}

	var page *model.HistoryPage
	err = s.db.ReadTx(ctx, func(q store.Queries) error {
		loc, err := userLocation(ctx, q, userID)
		if err != nil {
			return err
		}
		f.Location = loc

		v, err := access.Resolve(ctx, q, userID)
		if err != nil {
			return err
		}
		page, err = q.HistoryPage(ctx, v.GroupIDs(), f)
		return err
	})
	if err != nil {
		return nil, apperr.Wrap(err, "history query failed")
	}

	if cached {
		s.save(ctx, zoneKey, []byte(f.Location.String()))
		s.save(ctx, pageKey(userID, epoch, f), encodePage(page))
	}
	return page, nil
}

// Invalidate drops every cached page.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Incr(ctx, epochKey); err != nil {
		s.logger.Warn("history cache invalidation failed", zap.Error(err))
	}
}

func userLocation(ctx context.Context, q store.Queries, userID string) (*time.Location, error) {
	p, err := q.Preferences(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return time.UTC, nil
	}
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC, nil
	}
	return loc, nil
}

// epoch returns the current cache generation. ok is false when caching is
// off or the cache cannot be reached.
func (s *Service) epoch(ctx context.Context) (epoch string, ok bool) {
	if s.cache == nil {
		return "", false
	}
	b, err := s.cache.Get(ctx, epochKey)
	switch {
	case err == nil:
		return string(b), true
	case errors.Is(err, cache.ErrCacheMiss):
		return "0", true
	}
	s.logger.Warn("history cache unavailable", zap.Error(err))
	return "", false
}

func pageKey(userID, epoch string, f model.HistoryFilter) string {
	return "history:" + userID + ":" + epoch + ":" + canonical(f)
}

func (s *Service) cachedZone(ctx context.Context, key string) *time.Location {
	b, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("history cache read failed", zap.Error(err))
		}
		return nil
	}
	loc, err := time.LoadLocation(string(b))
	if err != nil {
		return nil
	}
	return loc
}

func (s *Service) lookup(ctx context.Context, key string) *model.HistoryPage {
	b, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("history cache read failed", zap.Error(err))
		}
		return nil
	}
	page, err := decodePage(b)
	if err != nil {
		s.logger.Warn("discarding cached history page", zap.String("key", key), zap.Error(err))
		return nil
	}
	return page
}

func (s *Service) save(ctx context.Context, key string, value []byte) {
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.logger.Warn("history cache write failed", zap.String("key", key), zap.Error(err))
	}
}
