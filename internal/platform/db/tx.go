package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const (
	TxKey     contextKey = "db_tx"
	DBConnKey contextKey = "db_conn"
)

// TxFromContext returns the transaction carried by ctx, or nil when the
// caller is not running inside WithTx.
func TxFromContext(ctx context.Context) pgx.Tx {
	if tx, ok := ctx.Value(TxKey).(pgx.Tx); ok {
		return tx
	}
	return nil
}

// ConnFromContext returns a pinned pool connection carried by ctx, or nil.
func ConnFromContext(ctx context.Context) *pgxpool.Conn {
	if conn, ok := ctx.Value(DBConnKey).(*pgxpool.Conn); ok {
		return conn
	}
	return nil
}

// WithTx runs fn inside a single transaction. Repositories that find a
// transaction in the context execute against it instead of the pool, so
// multi-repository writes commit or roll back together.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, TxKey, tx)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
