package sweep

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	testingpkg "github.com/aristath/snailsolver/internal/testing"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db := testingpkg.NewTestDB(t, "sweeps")
	return NewRepository(db.Conn(), zerolog.Nop())
}

func TestRepositoryRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	req := Request{N: 3, Alphas: []float64{0.2, 0.3}, PhiExts: []float64{1, 2, 3}, Workers: 2}
	id, err := repo.Create(ctx, "ancilla", req)
	require.NoError(t, err)
	assert.Len(t, id, 36)

	grid := NewGrid(2, 3)
	grid.Set(0, 0, -3.5e8)
	grid.Set(1, 2, 1.25)
	res := &Result{
		Alphas:      req.Alphas,
		PhiExts:     req.PhiExts,
		Observables: []string{FirstAnharmonicity},
		Grids:       map[string]Grid{FirstAnharmonicity: grid},
		Failures:    []Failure{{Row: 1, Col: 0, Alpha: 0.3, PhiExt: 1, Message: "did not converge"}},
	}
	require.NoError(t, repo.Complete(ctx, id, res))

	rec, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, rec.Status)
	assert.Equal(t, 1, rec.Failures)
	assert.Equal(t, req, rec.Request)
	require.NotNil(t, rec.CompletedAt)

	got := rec.Result.Grids[FirstAnharmonicity]
	assert.Equal(t, 2, got.Rows)
	assert.Equal(t, 3, got.Cols)
	assert.Equal(t, -3.5e8, got.At(0, 0))
	assert.Equal(t, 1.25, got.At(1, 2))
	assert.True(t, math.IsNaN(got.At(0, 1)))
	assert.Equal(t, res.Failures, rec.Result.Failures)
	assert.Equal(t, []string{FirstAnharmonicity}, rec.Result.Observables)
}

func TestRepositoryStoresFlatGridBlobs(t *testing.T) {
	db := testingpkg.NewTestDB(t, "sweeps")
	repo := NewRepository(db.Conn(), zerolog.Nop())
	ctx := context.Background()

	id, err := repo.Create(ctx, "ancilla", Request{N: 3, Alphas: []float64{0.2, 0.3}, PhiExts: []float64{1, 2, 3}})
	require.NoError(t, err)
	grid := NewGrid(2, 3)
	grid.Set(1, 2, 7)
	require.NoError(t, repo.Complete(ctx, id, &Result{
		Observables: []string{FirstAnharmonicity},
		Grids:       map[string]Grid{FirstAnharmonicity: grid},
	}))

	var rows, cols int
	var blob []byte
	err = db.Conn().QueryRowContext(ctx,
		"SELECT grid_rows, grid_cols, data FROM sweep_grids WHERE sweep_id = ? AND observable = ?",
		id, FirstAnharmonicity).Scan(&rows, &cols, &blob)
	require.NoError(t, err)

	var data []float64
	require.NoError(t, msgpack.Unmarshal(blob, &data))
	assert.Equal(t, 2, rows)
	assert.Equal(t, 3, cols)
	require.Len(t, data, rows*cols)
	assert.Equal(t, 7.0, data[1*cols+2])
}

func TestRepositoryListAndFail(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	req := Request{N: 3, Alphas: []float64{0.2}, PhiExts: []float64{1}}
	first, err := repo.Create(ctx, "ancilla", req)
	require.NoError(t, err)
	second, err := repo.Create(ctx, "circuit", req)
	require.NoError(t, err)

	require.NoError(t, repo.Fail(ctx, first, errors.New("invalid degree")))

	list, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0].ID)
	assert.Equal(t, StatusRunning, list[0].Status)
	assert.Equal(t, StatusFailed, list[1].Status)
	assert.Nil(t, list[0].Result)
}

func TestRepositoryNotFound(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Fail(ctx, "missing", errors.New("x")), ErrNotFound)
}
