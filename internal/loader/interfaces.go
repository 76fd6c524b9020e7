package loader

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"blog_aggregator/internal/domain"
)

// Fetcher is the upstream the loader caches; satisfied by service.Service.
type Fetcher interface {
	FetchPosts(ctx context.Context, limit int, source string) ([]domain.Post, error)
	FetchPost(ctx context.Context, id, source string) (*domain.Post, error)
	FetchAllPosts(ctx context.Context, limit int) ([]domain.Post, error)
	AvailableSources() []string
}
