package archive

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type TagStore struct {
	db *sqlx.DB
}

func NewTagStore(db *sqlx.DB) *TagStore {
	return &TagStore{db: db}
}

// UpsertBatch inserts any missing tag labels and returns label -> id for all
// of them.
func (s *TagStore) UpsertBatch(ctx context.Context, labels []string) (map[string]int64, error) {
	result := make(map[string]int64, len(labels))
	if len(labels) == 0 {
		return result, nil
	}

	exec := GetExecutor(ctx, s.db)

	insert := `
		INSERT INTO tags (label)
		SELECT unnest($1::text[])
		ON CONFLICT (label) DO NOTHING`
	if _, err := exec.ExecContext(ctx, insert, pq.Array(labels)); err != nil {
		return nil, err
	}

	rows, err := exec.QueryxContext(ctx,
		`SELECT id, label FROM tags WHERE label = ANY($1)`,
		pq.Array(labels),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var label string
		if err := rows.Scan(&id, &label); err != nil {
			return nil, err
		}
		result[label] = id
	}

	return result, rows.Err()
}

// LinkToPost replaces the tag set linked to one archived post.
func (s *TagStore) LinkToPost(ctx context.Context, postID int64, tagIDs []int64) error {
	exec := GetExecutor(ctx, s.db)

	if _, err := exec.ExecContext(ctx,
		`DELETE FROM post_tags WHERE post_id = $1`, postID,
	); err != nil {
		return err
	}

	if len(tagIDs) == 0 {
		return nil
	}

	query := `
		INSERT INTO post_tags (post_id, tag_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING`
	_, err := exec.ExecContext(ctx, query, postID, pq.Array(tagIDs))
	return err
}
