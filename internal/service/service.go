package service

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"blog_aggregator/internal/config"
	"blog_aggregator/internal/domain"
	"blog_aggregator/internal/source"
)

// Service aggregates posts across the configured blog sources. It holds one
// adapter per enabled source and is otherwise stateless.
type Service struct {
	adapters map[string]source.Adapter
	primary  string
	logger   *slog.Logger
}

// New builds the service from source configuration. Only enabled sources get
// an adapter; an enabled source whose adapter fails to construct is skipped
// with a warning, so the service stays usable with whatever initialized.
func New(cfg config.BlogConfig, logger *slog.Logger) *Service {
	adapters := make(map[string]source.Adapter)

	for name, srcCfg := range cfg.Sources {
		if !srcCfg.Enabled {
			continue
		}

		adapter, err := source.New(name, srcCfg, logger)
		if err != nil {
			logger.Warn("skipping source with bad configuration",
				"source", name,
				"error", err,
			)
			continue
		}
		adapters[strings.ToLower(name)] = adapter
	}

	return NewFromAdapters(adapters, cfg.PrimarySource, logger)
}

// NewFromAdapters builds the service from an already constructed adapter map.
func NewFromAdapters(adapters map[string]source.Adapter, primary string, logger *slog.Logger) *Service {
	return &Service{
		adapters: adapters,
		primary:  strings.ToLower(primary),
		logger:   logger,
	}
}

// FetchPosts fetches up to limit posts from one source, defaulting to the
// primary source. A disabled or unknown source yields an empty list, not an
// error: the contract is best-effort single source.
func (s *Service) FetchPosts(ctx context.Context, limit int, src string) ([]domain.Post, error) {
	adapter, ok := s.adapters[s.resolve(src)]
	if !ok {
		return []domain.Post{}, nil
	}
	return adapter.FetchPosts(ctx, limit)
}

// FetchPost fetches one post by id from one source; nil when the source has
// no adapter or the post does not exist.
func (s *Service) FetchPost(ctx context.Context, id, src string) (*domain.Post, error) {
	adapter, ok := s.adapters[s.resolve(src)]
	if !ok {
		return nil, nil
	}
	return adapter.FetchPost(ctx, id)
}

// FetchAllPosts fetches from every adapter concurrently, merges the results
// and sorts them by PublishedAt descending. One source failing contributes
// zero posts and never aborts the others.
func (s *Service) FetchAllPosts(ctx context.Context, limit int) ([]domain.Post, error) {
	var (
		mu    sync.Mutex
		posts []domain.Post
		wg    sync.WaitGroup
	)

	for name, adapter := range s.adapters {
		wg.Add(1)
		go func(name string, adapter source.Adapter) {
			defer wg.Done()

			fetched, err := adapter.FetchPosts(ctx, limit)
			if err != nil {
				s.logger.Error("source fetch failed",
					"source", name,
					"error", err,
				)
				return
			}

			mu.Lock()
			posts = append(posts, fetched...)
			mu.Unlock()
		}(name, adapter)
	}

	wg.Wait()

	sort.Slice(posts, func(i, j int) bool {
		return posts[i].PublishedAt.After(posts[j].PublishedAt)
	})

	if posts == nil {
		posts = []domain.Post{}
	}
	return posts, nil
}

// AvailableSources returns the names of successfully constructed adapters.
func (s *Service) AvailableSources() []string {
	names := make([]string, 0, len(s.adapters))
	for name := range s.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Service) resolve(src string) string {
	if src == "" {
		return s.primary
	}
	return strings.ToLower(src)
}
