package loader

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"blog_aggregator/internal/domain"
)

// DefaultTTL is how long a cache entry stays fresh. Independent of any
// HTTP-level cache headers the server sets.
const DefaultTTL = 15 * time.Minute

// Loader wraps a Fetcher with a read-through, time-boxed cache. Entries are
// never evicted when they expire: a stale entry is kept as the fallback for
// the next failed upstream fetch, and only overwritten by a successful one.
//
// There is no in-flight de-duplication: two concurrent misses on the same
// key both go upstream. Accepted limitation.
type Loader struct {
	fetcher Fetcher
	ttl     time.Duration
	logger  *slog.Logger

	mu    sync.RWMutex
	lists map[string]listEntry
	items map[string]itemEntry
}

type listEntry struct {
	data      []domain.Post
	timestamp time.Time
}

type itemEntry struct {
	data      *domain.Post
	timestamp time.Time
}

// New creates a Loader. A non-positive ttl falls back to DefaultTTL.
func New(fetcher Fetcher, ttl time.Duration, logger *slog.Logger) *Loader {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Loader{
		fetcher: fetcher,
		ttl:     ttl,
		logger:  logger,
		lists:   make(map[string]listEntry),
		items:   make(map[string]itemEntry),
	}
}

// GetPosts returns up to limit posts for one source. A fresh cache hit does
// no I/O. On upstream failure any existing entry, even an expired one, is
// served instead; with no entry at all the result is empty, never an error.
func (l *Loader) GetPosts(ctx context.Context, limit int, source string, useCache bool) []domain.Post {
	key := fmt.Sprintf("posts:%s:%d", keySource(source), limit)

	if useCache {
		if data, ok := l.freshList(key); ok {
			return data
		}
	}

	posts, err := l.fetcher.FetchPosts(ctx, limit, source)
	if err != nil {
		return l.staleListOrEmpty(key, err)
	}

	l.storeList(key, posts)
	return posts
}

// GetAllPosts is GetPosts over the merged multi-source feed, keyed by limit
// alone.
func (l *Loader) GetAllPosts(ctx context.Context, limit int, useCache bool) []domain.Post {
	key := fmt.Sprintf("all:%d", limit)

	if useCache {
		if data, ok := l.freshList(key); ok {
			return data
		}
	}

	posts, err := l.fetcher.FetchAllPosts(ctx, limit)
	if err != nil {
		return l.staleListOrEmpty(key, err)
	}

	l.storeList(key, posts)
	return posts
}

// GetPost returns one post by id, nil when not found, with the same
// stale-on-error contract as GetPosts.
func (l *Loader) GetPost(ctx context.Context, id, source string) *domain.Post {
	key := fmt.Sprintf("post:%s:%s", keySource(source), id)

	l.mu.RLock()
	entry, ok := l.items[key]
	l.mu.RUnlock()
	if ok && time.Since(entry.timestamp) < l.ttl {
		return entry.data
	}

	post, err := l.fetcher.FetchPost(ctx, id, source)
	if err != nil {
		if ok {
			l.logger.Warn("serving stale cached post after fetch failure",
				"key", key,
				"error", err,
			)
			return entry.data
		}
		l.logger.Error("post fetch failed with no cached fallback",
			"key", key,
			"error", err,
		)
		return nil
	}

	l.mu.Lock()
	l.items[key] = itemEntry{data: post, timestamp: time.Now()}
	l.mu.Unlock()
	return post
}

// GetFeaturedPosts returns the limit most-reacted posts of the merged feed.
// The underlying platforms have no server-side ranking, so it over-fetches
// and sorts here.
func (l *Loader) GetFeaturedPosts(ctx context.Context, limit int) []domain.Post {
	posts := l.GetAllPosts(ctx, limit*2, true)

	sorted := make([]domain.Post, len(posts))
	copy(sorted, posts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Stats.Reactions > sorted[j].Stats.Reactions
	})

	return truncate(sorted, limit)
}

// GetRecentPosts returns the limit most-recent posts of the merged feed.
func (l *Loader) GetRecentPosts(ctx context.Context, limit int) []domain.Post {
	return truncate(l.GetAllPosts(ctx, limit*2, true), limit)
}

// SearchPosts filters one source's posts by a case-insensitive match on
// title, description or tags.
func (l *Loader) SearchPosts(ctx context.Context, query string, limit int, source string) []domain.Post {
	posts := l.GetPosts(ctx, limit*2, source, true)
	needle := strings.ToLower(query)

	matched := make([]domain.Post, 0, len(posts))
	for _, p := range posts {
		if strings.Contains(strings.ToLower(p.Title), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle) ||
			tagContains(p.Tags, needle) {
			matched = append(matched, p)
		}
	}
	return truncate(matched, limit)
}

// GetPostsByTag filters one source's posts by exact tag match,
// case-insensitively.
func (l *Loader) GetPostsByTag(ctx context.Context, tag string, limit int, source string) []domain.Post {
	posts := l.GetPosts(ctx, limit*2, source, true)
	needle := strings.ToLower(tag)

	matched := make([]domain.Post, 0, len(posts))
	for _, p := range posts {
		if tagEquals(p.Tags, needle) {
			matched = append(matched, p)
		}
	}
	return truncate(matched, limit)
}

// ClearCache drops every entry unconditionally.
func (l *Loader) ClearCache() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lists = make(map[string]listEntry)
	l.items = make(map[string]itemEntry)
}

// CacheStats is a diagnostic snapshot of the cache contents.
type CacheStats struct {
	Entries int        `json:"entries"`
	Keys    []KeyStats `json:"keys"`
}

type KeyStats struct {
	Key        string  `json:"key"`
	AgeSeconds float64 `json:"ageSeconds"`
	Expired    bool    `json:"expired"`
}

func (l *Loader) Stats() CacheStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	now := time.Now()
	stats := CacheStats{Keys: make([]KeyStats, 0, len(l.lists)+len(l.items))}

	for key, entry := range l.lists {
		stats.Keys = append(stats.Keys, keyStats(key, entry.timestamp, now, l.ttl))
	}
	for key, entry := range l.items {
		stats.Keys = append(stats.Keys, keyStats(key, entry.timestamp, now, l.ttl))
	}

	sort.Slice(stats.Keys, func(i, j int) bool { return stats.Keys[i].Key < stats.Keys[j].Key })
	stats.Entries = len(stats.Keys)
	return stats
}

func keyStats(key string, ts, now time.Time, ttl time.Duration) KeyStats {
	age := now.Sub(ts)
	return KeyStats{
		Key:        key,
		AgeSeconds: age.Seconds(),
		Expired:    age >= ttl,
	}
}

func (l *Loader) freshList(key string) ([]domain.Post, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entry, ok := l.lists[key]
	if !ok || time.Since(entry.timestamp) >= l.ttl {
		return nil, false
	}
	return entry.data, true
}

func (l *Loader) storeList(key string, posts []domain.Post) {
	l.mu.Lock()
	l.lists[key] = listEntry{data: posts, timestamp: time.Now()}
	l.mu.Unlock()
}

func (l *Loader) staleListOrEmpty(key string, cause error) []domain.Post {
	l.mu.RLock()
	entry, ok := l.lists[key]
	l.mu.RUnlock()

	if ok {
		l.logger.Warn("serving stale cached posts after fetch failure",
			"key", key,
			"age", time.Since(entry.timestamp),
			"error", cause,
		)
		return entry.data
	}

	l.logger.Error("fetch failed with no cached fallback",
		"key", key,
		"error", cause,
	)
	return []domain.Post{}
}

func keySource(source string) string {
	if source == "" {
		return "default"
	}
	return strings.ToLower(source)
}

func tagContains(tags []string, needle string) bool {
	for _, t := range tags {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}

func tagEquals(tags []string, needle string) bool {
	for _, t := range tags {
		if strings.ToLower(t) == needle {
			return true
		}
	}
	return false
}

func truncate(posts []domain.Post, limit int) []domain.Post {
	if limit > 0 && len(posts) > limit {
		return posts[:limit]
	}
	return posts
}
