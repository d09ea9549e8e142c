package history

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/RiceCakess/holoclips/internal/cache"
	"github.com/RiceCakess/holoclips/internal/config"
	"github.com/RiceCakess/holoclips/internal/domain"
	"github.com/RiceCakess/holoclips/internal/repository"
	"github.com/RiceCakess/holoclips/pkg/log"
)

type service struct {
	repo  repository.MessageRepository
	cache cache.PageCache
	cfg   config.HistoryConfig
	group singleflight.Group
}

func NewService(repo repository.MessageRepository, pageCache cache.PageCache, cfg config.HistoryConfig) Service {
	return &service{
		repo:  repo,
		cache: pageCache,
		cfg:   cfg,
	}
}

func (s *service) GetPage(ctx context.Context, room domain.Room, cursor string, limit int) (*Page, error) {
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}

	// The head page moves with every live entry, so it always goes to the
	// repository. Cursored pages are immutable and cacheable.
	if cursor == "" {
		return s.fetchPage(ctx, room, cursor, limit)
	}

	key := s.cache.BuildKey(room, cursor, limit)

	cached, err := s.cache.Get(ctx, key)
	if err == nil {
		return &Page{
			Entries:    cached.Entries,
			NextCursor: cached.NextCursor,
			HasMore:    cached.HasMore,
		}, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldRoom, room.Key()).Msg("cache read failed, falling through to repository")
	}

	// Collapse concurrent requests for the same page into one repository
	// round trip.
	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		page, err := s.fetchPage(ctx, room, cursor, limit)
		if err != nil {
			return nil, err
		}

		go s.storePage(key, page)
		return page, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*Page), nil
}

func (s *service) fetchPage(ctx context.Context, room domain.Room, cursor string, limit int) (*Page, error) {
	entries, nextCursor, hasMore, err := s.repo.GetPage(ctx, room, cursor, limit)
	if err != nil {
		return nil, err
	}
	return &Page{
		Entries:    entries,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func (s *service) storePage(key string, page *Page) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := s.cache.Set(ctx, key, &cache.PageResult{
		Entries:    page.Entries,
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	}, s.cfg.CacheTTL)
	if err != nil {
		l := log.L()
		l.Warn().Err(err).Msg("cache write failed")
	}
}
