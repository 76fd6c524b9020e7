package medium

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"blog_aggregator/internal/config"
	"blog_aggregator/internal/domain"
)

const SourceID = "medium"

// ErrNotImplemented is returned by every Medium operation. The RSS
// integration has no fallback behavior, so every invocation is a hard
// failure rather than a silent empty result.
var ErrNotImplemented = errors.New("medium integration not implemented")

// Source is a placeholder adapter for Medium's RSS feed.
type Source struct {
	rssURL string
	logger *slog.Logger
}

func New(cfg config.SourceConfig, logger *slog.Logger) *Source {
	return &Source{
		rssURL: cfg.RSSURL,
		logger: logger.With("source", SourceID),
	}
}

func (s *Source) Source() string {
	return SourceID
}

func (s *Source) FetchPosts(ctx context.Context, limit int) ([]domain.Post, error) {
	return nil, fmt.Errorf("fetch posts from %s: %w", s.rssURL, ErrNotImplemented)
}

func (s *Source) FetchPost(ctx context.Context, id string) (*domain.Post, error) {
	return nil, fmt.Errorf("fetch post %s: %w", id, ErrNotImplemented)
}
