package source

//go:generate mockgen -source=source.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"blog_aggregator/internal/config"
	"blog_aggregator/internal/domain"
	"blog_aggregator/internal/source/devto"
	"blog_aggregator/internal/source/hashnode"
	"blog_aggregator/internal/source/medium"
)

// ErrUnknownSource is returned by New for source names that no adapter handles.
var ErrUnknownSource = errors.New("unknown blog source")

// Adapter translates one external blog platform into the canonical Post shape.
// Implementations are stateless; all per-call failures surface as errors,
// except upstream "not found" which is a (nil, nil) result from FetchPost.
type Adapter interface {
	Source() string
	FetchPosts(ctx context.Context, limit int) ([]domain.Post, error)
	FetchPost(ctx context.Context, id string) (*domain.Post, error)
}

// New constructs the adapter for a source name, case-insensitively.
// Unknown names fail here, at construction, not on first use.
func New(name string, cfg config.SourceConfig, logger *slog.Logger) (Adapter, error) {
	switch strings.ToLower(name) {
	case "dev", "dev.to":
		return devto.New(cfg, logger), nil
	case "hashnode":
		return hashnode.New(cfg, logger), nil
	case "medium":
		return medium.New(cfg, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}
}
