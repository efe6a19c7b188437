package expansion

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/optimize"
)

// MinimizeSettings bounds the work done by Minimize. Zero fields select the
// defaults below.
type MinimizeSettings struct {
	// GridPoints is the number of intervals in the coarse scan of the bracket.
	GridPoints int
	// MaxIterations caps the Nelder-Mead major iterations.
	MaxIterations int
	// TieTolerance is the relative gap under which two refined minima count as
	// equally deep.
	TieTolerance float64
}

const (
	defaultGridPoints    = 2000
	defaultMaxIterations = 500
	defaultTieTolerance  = 1e-9

	maxCandidates = 16
)

func (s MinimizeSettings) withDefaults() MinimizeSettings {
	if s.GridPoints <= 0 {
		s.GridPoints = defaultGridPoints
	}
	if s.MaxIterations <= 0 {
		s.MaxIterations = defaultMaxIterations
	}
	if s.TieTolerance <= 0 {
		s.TieTolerance = defaultTieTolerance
	}
	return s
}

// Minimize finds the minimum of fn inside [lo, hi] without derivatives.
//
// The bracket is scanned on a uniform grid and every local minimum of the
// scan is refined with Nelder-Mead on the bracket-clamped objective. Among the
// refined minima, those within TieTolerance of the deepest one are
// candidates and the candidate closest to anchor wins.
func Minimize(fn func(float64) float64, lo, hi, anchor float64, settings MinimizeSettings) (float64, error) {
	if !(hi > lo) {
		return 0, fmt.Errorf("expansion: empty minimization bracket [%g, %g]", lo, hi)
	}
	s := settings.withDefaults()

	step := (hi - lo) / float64(s.GridPoints)
	values := make([]float64, s.GridPoints+1)
	for i := range values {
		values[i] = fn(lo + float64(i)*step)
		if math.IsNaN(values[i]) {
			return 0, &ConvergenceError{Lo: lo, Hi: hi, Err: fmt.Errorf("objective is NaN at %g", lo+float64(i)*step)}
		}
	}

	var starts []int
	for i, v := range values {
		if i > 0 && values[i-1] <= v {
			continue
		}
		if i < len(values)-1 && values[i+1] < v {
			continue
		}
		starts = append(starts, i)
	}
	sort.Slice(starts, func(a, b int) bool { return values[starts[a]] < values[starts[b]] })
	if len(starts) > maxCandidates {
		starts = starts[:maxCandidates]
	}

	clamp := func(x float64) float64 {
		return math.Max(lo, math.Min(hi, x))
	}
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return fn(clamp(x[0]))
		},
	}

	type minimum struct{ x, f float64 }
	var found []minimum
	var lastErr error
	for _, i := range starts {
		result, err := optimize.Minimize(problem, []float64{lo + float64(i)*step}, &optimize.Settings{
			MajorIterations: s.MaxIterations,
			Converger: &optimize.FunctionConverge{
				Absolute:   1e-15,
				Iterations: 50,
			},
		}, &optimize.NelderMead{SimplexSize: step})
		if err != nil {
			lastErr = &ConvergenceError{Lo: lo, Hi: hi, Iterations: s.MaxIterations, Err: err}
			continue
		}
		if result.Status.Early() {
			lastErr = &ConvergenceError{Lo: lo, Hi: hi, Iterations: result.Stats.MajorIterations, Err: result.Status.Err()}
			continue
		}
		x := clamp(result.X[0])
		found = append(found, minimum{x: x, f: fn(x)})
	}
	if len(found) == 0 {
		if lastErr == nil {
			lastErr = &ConvergenceError{Lo: lo, Hi: hi, Err: fmt.Errorf("no minimum found on scan grid")}
		}
		return 0, lastErr
	}

	deepest := math.Inf(1)
	for _, m := range found {
		deepest = math.Min(deepest, m.f)
	}
	tie := s.TieTolerance * (1 + math.Abs(deepest))

	best := -1
	for i, m := range found {
		if m.f > deepest+tie {
			continue
		}
		if best < 0 || math.Abs(m.x-anchor) < math.Abs(found[best].x-anchor) {
			best = i
		}
	}
	return found[best].x, nil
}
