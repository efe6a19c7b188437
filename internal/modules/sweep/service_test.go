package sweep

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/snailsolver/internal/modules/element"
	"github.com/aristath/snailsolver/internal/modules/expansion"
)

func TestServiceStoresCompletedSweep(t *testing.T) {
	repo := newTestRepository(t)
	svc := NewService(repo, 2, zerolog.Nop())

	ev := &fakeEvaluator{fn: func(p element.Parameters) ([]float64, error) {
		return []float64{p.Alpha, p.PhiExt}, nil
	}}
	id, err := svc.Submit(context.Background(), "fake", Request{N: 3, Alphas: []float64{0.1, 0.2}, PhiExts: []float64{1}}, ev)
	require.NoError(t, err)
	svc.Wait()

	rec, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, rec.Status)
	assert.Equal(t, 2, rec.Request.Workers)
	assert.Equal(t, 0.2, rec.Result.Grids["sum"].At(1, 0))
}

func TestServiceMarksStructuralFailure(t *testing.T) {
	repo := newTestRepository(t)
	svc := NewService(repo, 1, zerolog.Nop())

	ev := &fakeEvaluator{fn: func(element.Parameters) ([]float64, error) {
		return nil, &expansion.InvalidDegreeError{Degree: 2, Minimum: 4}
	}}
	id, err := svc.Submit(context.Background(), "fake", Request{N: 3, Alphas: []float64{0.1}, PhiExts: []float64{1}}, ev)
	require.NoError(t, err)
	svc.Wait()

	rec, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, rec.Status)
}

func TestServiceRejectsInvalidRequest(t *testing.T) {
	svc := NewService(newTestRepository(t), 1, zerolog.Nop())
	_, err := svc.Submit(context.Background(), "fake", Request{N: 0}, &fakeEvaluator{})
	assert.Error(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, svc.Shutdown(ctx))
}

func TestServiceRejectsOversizedGrid(t *testing.T) {
	svc := NewService(newTestRepository(t), 1, zerolog.Nop())
	assert.Equal(t, DefaultMaxGridCells, svc.MaxGridCells())

	svc.SetMaxGridCells(1)
	ev := &fakeEvaluator{fn: func(element.Parameters) ([]float64, error) { return []float64{0, 0}, nil }}
	_, err := svc.Submit(context.Background(), "fake", Request{N: 3, Alphas: []float64{0.1, 0.2}, PhiExts: []float64{1}}, ev)
	assert.True(t, errors.Is(err, ErrGridTooLarge), "got %v", err)
	assert.Zero(t, ev.calls.Load())

	svc.SetMaxGridCells(0)
	assert.Equal(t, DefaultMaxGridCells, svc.MaxGridCells())
}
