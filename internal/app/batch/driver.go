package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"sparkify/internal/files"
	"sparkify/internal/logging"
	"sparkify/internal/metrics"
	"sparkify/internal/store"
)

// Beginner opens the transaction that scopes one file.
type Beginner interface {
	Begin(ctx context.Context) (*store.Tx, error)
}

// ProcessFunc loads a single file inside tx. The returned hook, when not nil,
// runs only after the file's transaction has committed.
type ProcessFunc func(ctx context.Context, tx *store.Tx, path string) (committed func(), err error)

// Summary describes a finished dataset pass.
type Summary struct {
	Dataset string
	Root    string
	Found   int
	Done    int
}

// Driver walks a directory tree and loads every data file in its own transaction.
type Driver struct {
	db      Beginner
	out     io.Writer
	log     *logging.Logger
	metrics *metrics.Metrics
}

// Option customises a Driver.
type Option func(*Driver)

// WithOutput sets where progress lines are printed. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(d *Driver) { d.out = w }
}

// WithLogger sets the structured logger.
func WithLogger(logger *logging.Logger) Option {
	return func(d *Driver) { d.log = logger }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Driver) { d.metrics = m }
}

// NewDriver builds a Driver on top of db.
func NewDriver(db Beginner, opts ...Option) *Driver {
	d := &Driver{
		db:  db,
		out: os.Stdout,
		log: logging.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.log == nil {
		d.log = logging.Nop()
	}
	if d.metrics == nil {
		d.metrics = metrics.New()
	}
	return d
}

// Run processes every file under root in lexical path order. The first failure
// rolls back that file's transaction and stops the run; files before it stay
// committed.
func (d *Driver) Run(ctx context.Context, dataset, root string, fn ProcessFunc) (Summary, error) {
	summary := Summary{Dataset: dataset, Root: root}
	log := d.log.With("dataset", dataset)

	paths, err := files.Find(root, files.DefaultPattern)
	if err != nil {
		return summary, err
	}
	summary.Found = len(paths)
	fmt.Fprintf(d.out, "%d files found in %s\n", len(paths), root)

	for i, path := range paths {
		start := time.Now()
		err := d.processFile(ctx, path, fn)
		dur := time.Since(start)

		d.metrics.FileProcessed(dataset, dur, err)
		log.FileProcessed(path, i+1, len(paths), dur, err)
		if err != nil {
			logDatabaseFailure(log, path, err)
			return summary, err
		}

		summary.Done++
		fmt.Fprintf(d.out, "%d/%d files processed.\n", i+1, len(paths))
	}

	return summary, nil
}

func (d *Driver) processFile(ctx context.Context, path string, fn ProcessFunc) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	tx, err := d.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	committed, err := fn(ctx, tx, path)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			d.log.Error(rbErr, "rollback failed")
		}
		return fmt.Errorf("%s: %w", path, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if committed != nil {
		committed()
	}
	return nil
}

// logDatabaseFailure records the server's verdict for failures that reached Postgres.
func logDatabaseFailure(log *logging.Logger, path string, err error) {
	var dbErr *store.DatabaseError
	if !errors.As(err, &dbErr) {
		return
	}
	log.WithFields(map[string]interface{}{
		"file":                 path,
		"op":                   dbErr.Op,
		"sqlstate":             dbErr.SQLState(),
		"constraint_violation": dbErr.IsConstraintViolation(),
	}).Error(dbErr.Err, "database operation failed")
}
