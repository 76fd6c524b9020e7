package archive

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type ctxKey struct{}

var archiveTxKey ctxKey

// TransactionManager groups a post upsert and its tag links into one commit,
// so a half-archived post never becomes visible.
type TransactionManager struct {
	db *sqlx.DB
}

func NewTransactionManager(db *sqlx.DB) *TransactionManager {
	return &TransactionManager{db: db}
}

// WithTransaction runs fn inside a transaction carried on the context. Any
// error from fn rolls the transaction back.
func (tm *TransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := tm.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(context.WithValue(ctx, archiveTxKey, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// GetExecutor returns the transaction carried on ctx, or the plain db when
// the caller runs outside one. Store methods go through this so they work
// both ways.
func GetExecutor(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx, ok := ctx.Value(archiveTxKey).(*sqlx.Tx); ok && tx != nil {
		return tx
	}
	return db
}
