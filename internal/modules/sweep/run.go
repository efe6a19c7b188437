package sweep

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/snailsolver/internal/modules/element"
	"github.com/aristath/snailsolver/internal/modules/expansion"
	"github.com/aristath/snailsolver/internal/modules/spectrum"
)

var validate = validator.New()

// Request describes a sweep over alpha × phi_ext for a SNAIL with N large
// junctions.
type Request struct {
	N       int       `json:"n" msgpack:"n" validate:"gte=1"`
	Alphas  []float64 `json:"alphas" msgpack:"alphas" validate:"required,min=1,dive,gt=0,lt=1"`
	PhiExts []float64 `json:"phi_exts" msgpack:"phi_exts" validate:"required,min=1"`
	// Workers bounds the concurrent evaluations. Zero uses GOMAXPROCS.
	Workers int `json:"workers,omitempty" msgpack:"workers" validate:"gte=0"`
}

// DefaultMaxGridCells is the largest alpha × phi_ext grid a service accepts
// unless configured otherwise.
const DefaultMaxGridCells = 10000

// Validate checks the request ranges.
func (r Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("sweep: invalid request: %w", err)
	}
	return nil
}

// Cells is the number of grid points.
func (r Request) Cells() int {
	return len(r.Alphas) * len(r.PhiExts)
}

// Evaluator computes a fixed list of observables at one grid point.
type Evaluator interface {
	Observables() []string
	Evaluate(ctx context.Context, params element.Parameters) ([]float64, error)
}

// Failure records a grid point whose evaluation failed.
type Failure struct {
	Row     int     `json:"row" msgpack:"row"`
	Col     int     `json:"col" msgpack:"col"`
	Alpha   float64 `json:"alpha" msgpack:"alpha"`
	PhiExt  float64 `json:"phi_ext" msgpack:"phi_ext"`
	Message string  `json:"message" msgpack:"message"`
}

// Result holds one grid per observable, shaped (len(Alphas), len(PhiExts)).
// Failed points are NaN in every grid.
type Result struct {
	Alphas      []float64       `json:"alphas"`
	PhiExts     []float64       `json:"phi_exts"`
	Observables []string        `json:"observables"`
	Grids       map[string]Grid `json:"grids"`
	Failures    []Failure       `json:"failures"`
}

// Structural reports whether err invalidates the whole sweep rather than one
// grid point.
func Structural(err error) bool {
	var degErr *expansion.InvalidDegreeError
	var diagErr *spectrum.DiagonalizationError
	return errors.As(err, &degErr) || errors.As(err, &diagErr)
}

// Run evaluates every grid point on a bounded worker pool. Parameter-level
// failures are recorded and the sweep continues; structural failures and
// context cancellation abort it.
func Run(ctx context.Context, req Request, ev Evaluator, progress *ProgressReporter) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	names := ev.Observables()
	res := &Result{
		Alphas:      append([]float64(nil), req.Alphas...),
		PhiExts:     append([]float64(nil), req.PhiExts...),
		Observables: names,
		Grids:       make(map[string]Grid, len(names)),
	}
	rows, cols := len(req.Alphas), len(req.PhiExts)
	for _, name := range names {
		res.Grids[name] = NewGrid(rows, cols)
	}

	workers := req.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var (
		mu   sync.Mutex
		done atomic.Int64
	)
	total := rows * cols

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for r, alpha := range req.Alphas {
		for c, phiExt := range req.PhiExts {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				params := element.Parameters{N: req.N, Alpha: alpha, PhiExt: phiExt}
				values, err := ev.Evaluate(gctx, params)
				switch {
				case err != nil && (Structural(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
					return fmt.Errorf("sweep: alpha=%g phi_ext=%g: %w", alpha, phiExt, err)
				case err != nil:
					mu.Lock()
					res.Failures = append(res.Failures, Failure{Row: r, Col: c, Alpha: alpha, PhiExt: phiExt, Message: err.Error()})
					mu.Unlock()
				case len(values) != len(names):
					return fmt.Errorf("sweep: evaluator returned %d values for %d observables", len(values), len(names))
				default:
					// Grid cells are distinct per point.
					for i, name := range names {
						res.Grids[name].Set(r, c, values[i])
					}
				}
				progress.Report(int(done.Add(1)), total, "sweep point evaluated")
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Workers finish in any order; report failures in grid order.
	sort.Slice(res.Failures, func(i, j int) bool {
		a, b := res.Failures[i], res.Failures[j]
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Col < b.Col
	})
	return res, nil
}
