// Package sweep evaluates observables over a grid of SNAIL parameters.
package sweep

import (
	"fmt"
	"math"
)

// MaxAxisPoints is the longest list Arange produces.
const MaxAxisPoints = 10000

// Arange returns start, start+step, ... up to but excluding stop.
func Arange(start, stop, step float64) ([]float64, error) {
	if step == 0 || math.IsNaN(step) || math.IsInf(step, 0) {
		return nil, fmt.Errorf("sweep: invalid step %g", step)
	}
	if math.IsNaN(start) || math.IsInf(start, 0) || math.IsNaN(stop) || math.IsInf(stop, 0) {
		return nil, fmt.Errorf("sweep: invalid range [%g, %g)", start, stop)
	}
	count := math.Ceil((stop - start) / step)
	if count > MaxAxisPoints {
		return nil, fmt.Errorf("sweep: range [%g, %g) with step %g has %.0f points, limit %d", start, stop, step, count, MaxAxisPoints)
	}
	n := int(count)
	if n <= 0 {
		return []float64{}, nil
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out, nil
}

// Grid is a dense row-major matrix of one observable, indexed by
// (alpha, phi_ext).
type Grid struct {
	Rows int       `json:"rows" msgpack:"rows"`
	Cols int       `json:"cols" msgpack:"cols"`
	Data []float64 `json:"data" msgpack:"data"`
}

// NewGrid returns a grid filled with NaN.
func NewGrid(rows, cols int) Grid {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = math.NaN()
	}
	return Grid{Rows: rows, Cols: cols, Data: data}
}

func (g Grid) At(row, col int) float64 {
	return g.Data[row*g.Cols+col]
}

func (g Grid) Set(row, col int, v float64) {
	g.Data[row*g.Cols+col] = v
}

// Matrix returns the grid as a slice of rows.
func (g Grid) Matrix() [][]float64 {
	out := make([][]float64, g.Rows)
	for r := range out {
		out[r] = g.Data[r*g.Cols : (r+1)*g.Cols]
	}
	return out
}

// Missing counts NaN cells.
func (g Grid) Missing() int {
	n := 0
	for _, v := range g.Data {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}
