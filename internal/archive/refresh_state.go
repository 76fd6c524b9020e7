package archive

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"blog_aggregator/internal/domain"
)

type RefreshStateStore struct {
	db *sqlx.DB
}

func NewRefreshStateStore(db *sqlx.DB) *RefreshStateStore {
	return &RefreshStateStore{db: db}
}

func (s *RefreshStateStore) Get(ctx context.Context, source string) (*domain.RefreshState, error) {
	var state domain.RefreshState
	query := `
		SELECT id, source, last_refreshed_at, total_archived
		FROM refresh_state
		WHERE source = $1`

	err := s.db.GetContext(ctx, &state, query, source)
	if errors.Is(err, sql.ErrNoRows) {
		// Empty state for sources never refreshed before.
		return &domain.RefreshState{
			Source:          source,
			LastRefreshedAt: time.Time{},
			TotalArchived:   0,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *RefreshStateStore) Update(ctx context.Context, state *domain.RefreshState) error {
	query := `
		INSERT INTO refresh_state (source, last_refreshed_at, total_archived)
		VALUES ($1, $2, $3)
		ON CONFLICT (source) DO UPDATE SET
			last_refreshed_at = EXCLUDED.last_refreshed_at,
			total_archived = EXCLUDED.total_archived`

	_, err := s.db.ExecContext(ctx, query,
		state.Source,
		state.LastRefreshedAt,
		state.TotalArchived,
	)
	return err
}
