package archive

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"blog_aggregator/internal/domain"
)

// PostStore persists every post the refresher has seen. The archive outlives
// the in-memory cache and survives process restarts.
type PostStore struct {
	db *sqlx.DB
}

func NewPostStore(db *sqlx.DB) *PostStore {
	return &PostStore{db: db}
}

func (s *PostStore) Upsert(ctx context.Context, post *domain.Post) (int64, error) {
	query := `
		INSERT INTO posts (
			source, external_id, title, description, content, slug, url,
			canonical_url, cover_image, published_at, reading_time_minutes,
			author_name, author_username, author_profile_image, author_url,
			reactions, comments, views, last_seen_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NOW()
		)
		ON CONFLICT (source, external_id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			content = COALESCE(EXCLUDED.content, posts.content),
			slug = EXCLUDED.slug,
			url = EXCLUDED.url,
			canonical_url = EXCLUDED.canonical_url,
			cover_image = EXCLUDED.cover_image,
			reading_time_minutes = EXCLUDED.reading_time_minutes,
			author_name = EXCLUDED.author_name,
			author_username = EXCLUDED.author_username,
			author_profile_image = EXCLUDED.author_profile_image,
			author_url = EXCLUDED.author_url,
			reactions = EXCLUDED.reactions,
			comments = EXCLUDED.comments,
			views = EXCLUDED.views,
			last_seen_at = NOW()
		RETURNING id`

	exec := GetExecutor(ctx, s.db)

	var id int64
	err := exec.QueryRowxContext(ctx, query,
		post.Source,
		post.ID,
		post.Title,
		post.Description,
		post.Content,
		post.Slug,
		post.URL,
		post.CanonicalURL,
		post.CoverImage,
		post.PublishedAt,
		post.ReadingTimeMinutes,
		post.Author.Name,
		post.Author.Username,
		post.Author.ProfileImage,
		post.Author.URL,
		post.Stats.Reactions,
		post.Stats.Comments,
		post.Stats.Views,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	return id, nil
}

// ExistingIDs reports which of the given external ids are already archived
// for a source, keyed to the time they were last seen.
func (s *PostStore) ExistingIDs(ctx context.Context, source string, ids []string) (map[string]time.Time, error) {
	if len(ids) == 0 {
		return make(map[string]time.Time), nil
	}

	query := `SELECT external_id, last_seen_at FROM posts WHERE source = $1 AND external_id = ANY($2)`

	rows, err := s.db.QueryContext(ctx, query, source, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]time.Time)
	for rows.Next() {
		var extID string
		var lastSeen time.Time
		if err := rows.Scan(&extID, &lastSeen); err != nil {
			return nil, err
		}
		result[extID] = lastSeen
	}

	return result, rows.Err()
}

// ListRecent returns the limit most-recently published archived posts with
// their tags attached.
func (s *PostStore) ListRecent(ctx context.Context, limit int) ([]domain.Post, error) {
	query := `
		SELECT id, source, external_id, title, description, content, slug, url,
			canonical_url, cover_image, published_at, reading_time_minutes,
			author_name, author_username, author_profile_image, author_url,
			reactions, comments, views
		FROM posts
		ORDER BY published_at DESC
		LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []domain.Post
	var rowIDs []int64
	for rows.Next() {
		var rowID int64
		var p domain.Post
		err := rows.Scan(
			&rowID,
			&p.Source,
			&p.ID,
			&p.Title,
			&p.Description,
			&p.Content,
			&p.Slug,
			&p.URL,
			&p.CanonicalURL,
			&p.CoverImage,
			&p.PublishedAt,
			&p.ReadingTimeMinutes,
			&p.Author.Name,
			&p.Author.Username,
			&p.Author.ProfileImage,
			&p.Author.URL,
			&p.Stats.Reactions,
			&p.Stats.Comments,
			&p.Stats.Views,
		)
		if err != nil {
			return nil, err
		}
		p.Tags = []string{}
		posts = append(posts, p)
		rowIDs = append(rowIDs, rowID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachTags(ctx, posts, rowIDs); err != nil {
		return nil, err
	}

	return posts, nil
}

func (s *PostStore) attachTags(ctx context.Context, posts []domain.Post, rowIDs []int64) error {
	if len(rowIDs) == 0 {
		return nil
	}

	query := `
		SELECT pt.post_id, t.label
		FROM post_tags pt
		JOIN tags t ON t.id = pt.tag_id
		WHERE pt.post_id = ANY($1)
		ORDER BY pt.post_id, t.label`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(rowIDs))
	if err != nil {
		return err
	}
	defer rows.Close()

	byRowID := make(map[int64]int, len(rowIDs))
	for i, id := range rowIDs {
		byRowID[id] = i
	}

	for rows.Next() {
		var postID int64
		var label string
		if err := rows.Scan(&postID, &label); err != nil {
			return err
		}
		if i, ok := byRowID[postID]; ok {
			posts[i].Tags = append(posts[i].Tags, label)
		}
	}

	return rows.Err()
}
