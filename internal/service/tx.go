package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kiwari-pos/resto/internal/database"
)

const (
	maxTxAttempts   = 3
	maxReadAttempts = 3
	readBackoff     = 50 * time.Millisecond
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// DB runs standalone queries and starts transactions. Satisfied by *pgxpool.Pool.
type DB interface {
	database.DBTX
	TxBeginner
}

// runInTx runs fn inside one transaction and commits it. When PostgreSQL
// aborts the transaction for a serialization failure, deadlock or lock
// timeout nothing of fn survived, so the whole read-compute-write cycle is
// run again. Any other error is returned as is.
//
// fn may run more than once and must not keep state across calls.
func runInTx(ctx context.Context, pool TxBeginner, fn func(tx pgx.Tx) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = execTx(ctx, pool, fn)
		if err == nil || !isTxAborted(err) {
			return err
		}
		log.Printf("WARN: transaction aborted (attempt %d/%d): %v", attempt, maxTxAttempts, err)
	}
	return err
}

func execTx(ctx context.Context, pool TxBeginner, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// isTxAborted reports whether PostgreSQL rolled the transaction back on its own.
func isTxAborted(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return true
		}
	}
	return false
}

// isActiveTableConflict checks for a unique violation on the one-active-order-
// per-table index.
func isActiveTableConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_active_table_key"
	}
	return false
}

// retryRead runs a read-only query, retrying transient storage failures.
func retryRead[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var (
		v   T
		err error
	)
	for attempt := 1; attempt <= maxReadAttempts; attempt++ {
		v, err = fn()
		if err == nil || !isTransient(err) || attempt == maxReadAttempts {
			return v, err
		}
		select {
		case <-ctx.Done():
			return v, ctx.Err()
		case <-time.After(time.Duration(attempt) * readBackoff):
		}
	}
	return v, err
}

func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return pgconn.SafeToRetry(err) || pgconn.Timeout(err) || isTxAborted(err)
}
