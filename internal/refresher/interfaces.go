package refresher

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"blog_aggregator/internal/domain"
)

// Warmer is the loader surface the refresher drives; useCache=false forces a
// real upstream fetch so each run repopulates the in-memory cache.
type Warmer interface {
	GetAllPosts(ctx context.Context, limit int, useCache bool) []domain.Post
}

type PostArchive interface {
	Upsert(ctx context.Context, post *domain.Post) (int64, error)
	ExistingIDs(ctx context.Context, source string, ids []string) (map[string]time.Time, error)
}

type TagArchive interface {
	UpsertBatch(ctx context.Context, labels []string) (map[string]int64, error)
	LinkToPost(ctx context.Context, postID int64, tagIDs []int64) error
}

type StateArchive interface {
	Get(ctx context.Context, source string) (*domain.RefreshState, error)
	Update(ctx context.Context, state *domain.RefreshState) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, post *domain.Post, isNew bool) error
	Close() error
}
