package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/lib/pq"
)

type DB struct {
	db     *sql.DB
	getter *trmsql.CtxGetter
}

func NewDB(db *sql.DB) *DB {
	return &DB{
		db:     db,
		getter: trmsql.DefaultCtxGetter,
	}
}

func (db *DB) Conn(ctx context.Context) trmsql.Tr {
	return db.getter.DefaultTrOrDB(ctx, db.db)
}

// ErrTxContention is returned by DoWithRetry once the retry budget for
// serialization conflicts is exhausted.
var ErrTxContention = errors.New("transaction retry budget exhausted")

type TransactionManagerInterface interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoWithRetry(ctx context.Context, attempts int, fn func(ctx context.Context) error) error
}

type TransactionManager struct {
	manager *manager.Manager
}

func NewTransactionManager(db *sql.DB) (*TransactionManager, error) {
	trManager, err := manager.New(trmsql.NewDefaultFactory(db))

	if err != nil {
		return nil, err
	}

	return &TransactionManager{manager: trManager}, nil
}

func (tm *TransactionManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return tm.manager.Do(ctx, fn)
}

// DoWithRetry re-runs the transaction on Postgres serialization or deadlock
// failures, up to attempts times. Any other error surfaces immediately.
func (tm *TransactionManager) DoWithRetry(ctx context.Context, attempts int, fn func(ctx context.Context) error) error {
	var err error
	for i := 0; i < attempts; i++ {
		err = tm.manager.Do(ctx, fn)
		if err == nil || !IsSerializationFailure(err) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrTxContention, err)
}

// IsSerializationFailure reports whether err is a Postgres conflict that is
// safe to retry (serialization_failure or deadlock_detected).
func IsSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}
