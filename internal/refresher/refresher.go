package refresher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"blog_aggregator/internal/config"
	"blog_aggregator/internal/domain"
)

// Refresher periodically rebuilds the merged feed cache and syncs the result
// into the archive. The archive stores (posts, tags, state, txManager) and
// the publisher are all optional; with none of them the refresher is a pure
// cache warmer.
type Refresher struct {
	warmer    Warmer
	posts     PostArchive
	tags      TagArchive
	state     StateArchive
	txManager TransactionManager
	publisher Publisher
	logger    *slog.Logger
	config    config.RefreshConfig
}

func New(
	warmer Warmer,
	posts PostArchive,
	tags TagArchive,
	state StateArchive,
	txManager TransactionManager,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.RefreshConfig,
) *Refresher {
	return &Refresher{
		warmer:    warmer,
		posts:     posts,
		tags:      tags,
		state:     state,
		txManager: txManager,
		publisher: publisher,
		logger:    logger,
		config:    cfg,
	}
}

// Start runs one refresh immediately, then one per interval until the
// context is cancelled. Individual run failures are logged, never fatal.
func (r *Refresher) Start(ctx context.Context) error {
	r.logger.Info("refresher started", "interval", r.config.Interval, "limit", r.config.Limit)

	r.runRefresh(ctx)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresher stopped")
			return ctx.Err()
		case <-ticker.C:
			r.runRefresh(ctx)
		}
	}
}

func (r *Refresher) runRefresh(ctx context.Context) {
	refreshCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	if _, err := r.Refresh(refreshCtx); err != nil {
		r.logger.Error("refresh failed", "error", err)
	}
}

// Refresh performs one warm-and-archive cycle.
func (r *Refresher) Refresh(ctx context.Context) (*domain.RefreshStats, error) {
	startTime := time.Now()

	posts := r.warmer.GetAllPosts(ctx, r.config.Limit, false)

	stats := &domain.RefreshStats{Fetched: len(posts)}
	r.logger.Info("warmed merged feed cache", "count", len(posts))

	if r.posts == nil {
		stats.Skipped = len(posts)
		stats.Duration = time.Since(startTime)
		return stats, nil
	}

	for source, group := range groupBySource(posts) {
		if err := r.archiveSource(ctx, source, group, stats); err != nil {
			stats.Errors++
			r.logger.Error("archiving source failed", "source", source, "error", err)
		}
	}

	stats.Duration = time.Since(startTime)

	r.logger.Info("refresh completed",
		"fetched", stats.Fetched,
		"new", stats.New,
		"updated", stats.Updated,
		"errors", stats.Errors,
		"published", stats.Published,
		"duration", stats.Duration,
	)

	return stats, nil
}

func (r *Refresher) archiveSource(ctx context.Context, source string, posts []domain.Post, stats *domain.RefreshStats) error {
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	existing, err := r.posts.ExistingIDs(ctx, source, ids)
	if err != nil {
		return fmt.Errorf("look up existing posts: %w", err)
	}

	var sourceNew int
	for i := range posts {
		post := &posts[i]
		_, seen := existing[post.ID]
		isNew := !seen

		if err := r.savePost(ctx, post); err != nil {
			stats.Errors++
			r.logger.Error("saving post failed",
				"source", source,
				"external_id", post.ID,
				"error", err,
			)
			continue
		}

		if r.publisher != nil {
			if err := r.publisher.Publish(ctx, post, isNew); err != nil {
				stats.Errors++
			} else {
				stats.Published++
			}
		}

		if isNew {
			stats.New++
			sourceNew++
		} else {
			stats.Updated++
		}
	}

	return r.updateState(ctx, source, sourceNew)
}

func (r *Refresher) savePost(ctx context.Context, post *domain.Post) error {
	return r.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		postID, err := r.posts.Upsert(txCtx, post)
		if err != nil {
			return fmt.Errorf("upsert post: %w", err)
		}

		if r.tags == nil || len(post.Tags) == 0 {
			return nil
		}

		labelIDs, err := r.tags.UpsertBatch(txCtx, post.Tags)
		if err != nil {
			return fmt.Errorf("upsert tags: %w", err)
		}

		tagIDs := make([]int64, 0, len(post.Tags))
		for _, label := range post.Tags {
			if id, ok := labelIDs[label]; ok {
				tagIDs = append(tagIDs, id)
			}
		}

		if err := r.tags.LinkToPost(txCtx, postID, tagIDs); err != nil {
			return fmt.Errorf("link tags: %w", err)
		}

		return nil
	})
}

func (r *Refresher) updateState(ctx context.Context, source string, newCount int) error {
	if r.state == nil {
		return nil
	}

	state, err := r.state.Get(ctx, source)
	if err != nil {
		return fmt.Errorf("get refresh state: %w", err)
	}

	state.Source = source
	state.LastRefreshedAt = time.Now()
	state.TotalArchived += int64(newCount)

	return r.state.Update(ctx, state)
}

func groupBySource(posts []domain.Post) map[string][]domain.Post {
	groups := make(map[string][]domain.Post)
	for _, p := range posts {
		groups[p.Source] = append(groups[p.Source], p)
	}
	return groups
}
