package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"sparkify/internal/logging"
)

// DatabaseError wraps a failed connection, statement, or commit.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// SQLState returns the Postgres error code, or "" when the failure did not
// come from the server.
func (e *DatabaseError) SQLState() string {
	var pgErr *pgconn.PgError
	if errors.As(e.Err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsConstraintViolation reports whether the server rejected a row
// (SQLSTATE class 23: integrity constraint violation).
func (e *DatabaseError) IsConstraintViolation() bool {
	code := e.SQLState()
	return len(code) == 5 && code[:2] == "23"
}

// Store provides star-schema persistence backed by Postgres.
type Store struct {
	db  *sqlx.DB
	log *logging.Logger
}

// New sets up a Store using the provided database handle.
func New(db *sqlx.DB, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Store{db: db, log: logger}
}

// Begin opens the transaction that scopes one source file.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, &DatabaseError{Op: "begin tx", Err: err}
	}
	return &Tx{tx: tx, log: s.log}, nil
}

// EnsureSchema creates the star-schema tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range Schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return &DatabaseError{Op: "apply schema", Err: err}
		}
	}
	return nil
}

// Tx is a unit of work over the star schema. It is not safe for concurrent use.
type Tx struct {
	tx  *sqlx.Tx
	log *logging.Logger
}

// Commit makes the file's rows durable.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return &DatabaseError{Op: "commit tx", Err: err}
	}
	return nil
}

// Rollback discards the file's rows. Rolling back a finished transaction is a no-op.
func (t *Tx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return &DatabaseError{Op: "rollback tx", Err: err}
	}
	return nil
}

func (t *Tx) namedExec(ctx context.Context, op, query string, arg any) error {
	start := time.Now()
	_, err := t.tx.NamedExecContext(ctx, query, arg)
	t.log.DBStatement(op, time.Since(start), err)
	if err != nil {
		return &DatabaseError{Op: op, Err: err}
	}
	return nil
}
