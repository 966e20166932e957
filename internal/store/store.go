package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/rlfscan/internal/engine"
	"github.com/xkilldash9x/rlfscan/internal/failures"
	"github.com/xkilldash9x/rlfscan/internal/ranges"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Schema creates the tables SaveRun writes to.
const Schema = `
CREATE TABLE IF NOT EXISTS rlf_runs (
    id            UUID PRIMARY KEY,
    run           INTEGER NOT NULL,
    webpage       TEXT NOT NULL,
    started_at    TIMESTAMPTZ NOT NULL,
    duration_ms   BIGINT NOT NULL,
    min_width     INTEGER NOT NULL,
    max_width     INTEGER NOT NULL,
    failure_count INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS rlf_failures (
    run_id    UUID NOT NULL REFERENCES rlf_runs(id) ON DELETE CASCADE,
    fid       INTEGER NOT NULL,
    type      TEXT NOT NULL,
    range_min INTEGER NOT NULL,
    range_max INTEGER NOT NULL,
    xpath1    TEXT NOT NULL,
    xpath2    TEXT NOT NULL,
    detail    JSONB NOT NULL DEFAULT '{}',
    narrower  TEXT NOT NULL DEFAULT '-',
    min_label TEXT NOT NULL DEFAULT '-',
    mid_label TEXT NOT NULL DEFAULT '-',
    max_label TEXT NOT NULL DEFAULT '-',
    wider     TEXT NOT NULL DEFAULT '-',
    PRIMARY KEY (run_id, fid)
);`

const (
	sqlInsertRun = `
        INSERT INTO rlf_runs (id, run, webpage, started_at, duration_ms, min_width, max_width, failure_count)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
    `
	sqlSelectRun = `
        SELECT run, webpage, started_at, duration_ms
        FROM rlf_runs
        WHERE id = $1;
    `
	sqlSelectFailures = `
        SELECT fid, type, range_min, range_max, xpath1, xpath2, detail, narrower, min_label, mid_label, max_label, wider
        FROM rlf_failures
        WHERE run_id = $1
        ORDER BY fid ASC;
    `
)

var failureColumns = []string{
	"run_id", "fid", "type", "range_min", "range_max", "xpath1", "xpath2",
	"detail", "narrower", "min_label", "mid_label", "max_label", "wider",
}

// detail carries the kind-specific payload of a failure in the jsonb column.
type detail struct {
	Wrapping   *failures.WrappingDetail   `json:"wrapping,omitempty"`
	SmallRange *failures.SmallRangeDetail `json:"smallRange,omitempty"`
}

// Store persists runs and their failures in PostgreSQL.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

var _ engine.Store = (*Store)(nil)

// New creates a new store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

// EnsureSchema creates the tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveRun writes the run row and bulk copies its failures in one transaction.
func (s *Store) SaveRun(ctx context.Context, res *engine.Result) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	minWidth, maxWidth := widthBounds(res.Widths)
	_, err = tx.Exec(ctx, sqlInsertRun,
		res.ID.String(), res.Run, res.Webpage, res.StartedAt.UTC(),
		res.Duration.Milliseconds(), minWidth, maxWidth, len(res.Failures))
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if len(res.Failures) > 0 {
		if err := s.copyFailures(ctx, tx, res.ID, res.Failures); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.log.Debug("Saved run.", zap.String("run_id", res.ID.String()), zap.Int("failures", len(res.Failures)))
	return nil
}

func (s *Store) copyFailures(ctx context.Context, tx pgx.Tx, runID uuid.UUID, fs []failures.Failure) error {
	rows := make([][]interface{}, len(fs))
	for i, f := range fs {
		d, err := jsoniter.Marshal(detail{Wrapping: f.Wrapping, SmallRange: f.SmallRange})
		if err != nil {
			return fmt.Errorf("failed to encode detail of failure %d: %w", f.ID, err)
		}
		c := f.Classification
		rows[i] = []interface{}{
			runID.String(), f.ID, f.Kind.String(), f.Range.Min, f.Range.Max, f.XPath1, f.XPath2,
			d, c.Narrower, c.Min, c.Mid, c.Max, c.Wider,
		}
	}

	copyCount, err := tx.CopyFrom(ctx, pgx.Identifier{"rlf_failures"}, failureColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to copy failures: %w", err)
	}
	if int(copyCount) != len(fs) {
		return fmt.Errorf("mismatch in copied failures count: expected %d, got %d", len(fs), copyCount)
	}
	return nil
}

// GetRun loads a persisted run with its failures. The graph is not stored,
// so Result.Graph is nil.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (*engine.Result, error) {
	res := &engine.Result{ID: id}
	var durationMS int64
	err := s.pool.QueryRow(ctx, sqlSelectRun, id.String()).Scan(&res.Run, &res.Webpage, &res.StartedAt, &durationMS)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	res.Duration = time.Duration(durationMS) * time.Millisecond

	fs, err := s.GetFailuresByRun(ctx, id)
	if err != nil {
		return nil, err
	}
	res.Failures = fs
	return res, nil
}

// GetFailuresByRun returns the failures of a run in ID order.
func (s *Store) GetFailuresByRun(ctx context.Context, runID uuid.UUID) ([]failures.Failure, error) {
	rows, err := s.pool.Query(ctx, sqlSelectFailures, runID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query failures: %w", err)
	}
	defer rows.Close()

	var out []failures.Failure
	for rows.Next() {
		var (
			f      failures.Failure
			kind   string
			lo, hi int
			raw    []byte
			c      failures.Classification
		)
		if err := rows.Scan(&f.ID, &kind, &lo, &hi, &f.XPath1, &f.XPath2, &raw,
			&c.Narrower, &c.Min, &c.Mid, &c.Max, &c.Wider); err != nil {
			return nil, fmt.Errorf("failed to scan failure row: %w", err)
		}
		if f.Kind, err = failures.ParseKind(kind); err != nil {
			return nil, fmt.Errorf("failure %d: %w", f.ID, err)
		}
		if lo > hi {
			return nil, fmt.Errorf("failure %d: invalid range %d-%d", f.ID, lo, hi)
		}
		f.Range = ranges.New(lo, hi)
		f.Classification = c

		if len(raw) > 0 {
			var d detail
			if err := jsoniter.Unmarshal(raw, &d); err != nil {
				return nil, fmt.Errorf("failed to decode detail of failure %d: %w", f.ID, err)
			}
			f.Wrapping, f.SmallRange = d.Wrapping, d.SmallRange
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return out, nil
}

func widthBounds(widths []int) (int, int) {
	if len(widths) == 0 {
		return 0, 0
	}
	lo, hi := widths[0], widths[0]
	for _, w := range widths[1:] {
		if w < lo {
			lo = w
		}
		if w > hi {
			hi = w
		}
	}
	return lo, hi
}
