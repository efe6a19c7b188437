package sweep

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/snailsolver/internal/database"
)

// Sweep statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ErrNotFound is returned for unknown sweep ids.
var ErrNotFound = errors.New("sweep: not found")

// Record is a stored sweep.
type Record struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind"`
	Request     Request    `json:"request"`
	Status      string     `json:"status"`
	Failures    int        `json:"failures"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	// Result is only loaded by Get.
	Result *Result `json:"result,omitempty"`
}

// Repository persists sweeps in the sweeps database. Grids and requests are
// stored as msgpack blobs.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a repository on a migrated sweeps database.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "sweep").Logger(),
	}
}

// Create stores a new running sweep and returns its id.
func (r *Repository) Create(ctx context.Context, kind string, req Request) (string, error) {
	blob, err := msgpack.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode sweep request: %w", err)
	}

	id := uuid.New().String()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO sweeps (id, kind, n, request, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, kind, req.N, blob, StatusRunning, time.Now().Unix())
	if err != nil {
		return "", fmt.Errorf("failed to insert sweep: %w", err)
	}

	r.log.Debug().Str("id", id).Str("kind", kind).Msg("Sweep created")
	return id, nil
}

// Complete stores the grids and failures of a finished sweep.
func (r *Repository) Complete(ctx context.Context, id string, res *Result) error {
	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		for _, name := range res.Observables {
			grid := res.Grids[name]
			blob, err := msgpack.Marshal(grid.Data)
			if err != nil {
				return fmt.Errorf("failed to encode grid %s: %w", name, err)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT OR REPLACE INTO sweep_grids (sweep_id, observable, grid_rows, grid_cols, data)
				VALUES (?, ?, ?, ?, ?)
			`, id, name, grid.Rows, grid.Cols, blob); err != nil {
				return fmt.Errorf("failed to insert grid %s: %w", name, err)
			}
		}

		for _, f := range res.Failures {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR REPLACE INTO sweep_failures (sweep_id, row_index, col_index, alpha, phi_ext, message)
				VALUES (?, ?, ?, ?, ?, ?)
			`, id, f.Row, f.Col, f.Alpha, f.PhiExt, f.Message); err != nil {
				return fmt.Errorf("failed to insert failure: %w", err)
			}
		}

		return r.setStatus(ctx, tx, id, StatusCompleted, len(res.Failures))
	})
}

// Fail marks a sweep as aborted.
func (r *Repository) Fail(ctx context.Context, id string, cause error) error {
	r.log.Warn().Err(cause).Str("id", id).Msg("Sweep aborted")
	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		return r.setStatus(ctx, tx, id, StatusFailed, 0)
	})
}

func (r *Repository) setStatus(ctx context.Context, tx *sql.Tx, id, status string, failures int) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE sweeps SET status = ?, failures = ?, completed_at = ? WHERE id = ?
	`, status, failures, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to update sweep %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Get loads a sweep with its grids and failures.
func (r *Repository) Get(ctx context.Context, id string) (*Record, error) {
	rec, err := r.scanRecord(r.db.QueryRowContext(ctx, `
		SELECT id, kind, request, status, failures, created_at, completed_at
		FROM sweeps WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	res := &Result{
		Alphas:  rec.Request.Alphas,
		PhiExts: rec.Request.PhiExts,
		Grids:   make(map[string]Grid),
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT observable, grid_rows, grid_cols, data FROM sweep_grids
		WHERE sweep_id = ? ORDER BY rowid
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query grids: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			name string
			grid Grid
			blob []byte
		)
		if err := rows.Scan(&name, &grid.Rows, &grid.Cols, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan grid: %w", err)
		}
		if err := msgpack.Unmarshal(blob, &grid.Data); err != nil {
			return nil, fmt.Errorf("failed to decode grid %s: %w", name, err)
		}
		res.Observables = append(res.Observables, name)
		res.Grids[name] = grid
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	failures, err := r.db.QueryContext(ctx, `
		SELECT row_index, col_index, alpha, phi_ext, message FROM sweep_failures
		WHERE sweep_id = ? ORDER BY row_index, col_index
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query failures: %w", err)
	}
	defer failures.Close()
	for failures.Next() {
		var f Failure
		if err := failures.Scan(&f.Row, &f.Col, &f.Alpha, &f.PhiExt, &f.Message); err != nil {
			return nil, fmt.Errorf("failed to scan failure: %w", err)
		}
		res.Failures = append(res.Failures, f)
	}
	if err := failures.Err(); err != nil {
		return nil, err
	}

	rec.Result = res
	return rec, nil
}

// List returns the most recent sweeps without their grids.
func (r *Repository) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, request, status, failures, created_at, completed_at
		FROM sweeps ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sweeps: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanRecord(s scanner) (*Record, error) {
	var (
		rec       Record
		blob      []byte
		created   int64
		completed sql.NullInt64
	)
	if err := s.Scan(&rec.ID, &rec.Kind, &blob, &rec.Status, &rec.Failures, &created, &completed); err != nil {
		return nil, err
	}
	if err := msgpack.Unmarshal(blob, &rec.Request); err != nil {
		return nil, fmt.Errorf("failed to decode sweep request: %w", err)
	}
	rec.CreatedAt = time.Unix(created, 0)
	if completed.Valid {
		t := time.Unix(completed.Int64, 0)
		rec.CompletedAt = &t
	}
	return &rec, nil
}
