// Package spectrum diagonalizes real symmetric Hamiltonians and post-processes
// the resulting eigensystems.
package spectrum

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultHermitianTolerance is the relative asymmetry accepted by
// DiagonalizeDense.
const DefaultHermitianTolerance = 1e-9

var errNotHermitian = errors.New("matrix is not hermitian")

// Spectrum holds eigenvalues in ascending order. Column i of Vectors is the
// eigenvector for Values[i].
type Spectrum struct {
	Values  []float64
	Vectors *mat.Dense
}

// Len returns the number of eigenpairs.
func (s *Spectrum) Len() int {
	return len(s.Values)
}

// Vector returns a copy of eigenvector i.
func (s *Spectrum) Vector(i int) []float64 {
	return mat.Col(nil, i, s.Vectors)
}

// Diagonalize computes the full eigensystem of h.
func Diagonalize(h mat.Symmetric, label string) (*Spectrum, error) {
	n := h.SymmetricDim()
	var eig mat.EigenSym
	if ok := eig.Factorize(h, true); !ok {
		return nil, &DiagonalizationError{Dimension: n, Label: label, Err: errors.New("eigen decomposition did not converge")}
	}

	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	if floats.HasNaN(values) {
		return nil, &DiagonalizationError{Dimension: n, Label: label, Err: errors.New("eigenvalue is NaN")}
	}

	if !sort.Float64sAreSorted(values) {
		return sortSpectrum(values, &vectors), nil
	}
	return &Spectrum{Values: values, Vectors: &vectors}, nil
}

// DiagonalizeDense checks that h is symmetric within the relative tolerance
// tol before diagonalizing its symmetric part.
func DiagonalizeDense(h mat.Matrix, tol float64, label string) (*Spectrum, error) {
	r, c := h.Dims()
	if r != c {
		return nil, &DiagonalizationError{Dimension: r, Label: label, Err: fmt.Errorf("matrix is %dx%d", r, c)}
	}
	if tol <= 0 {
		tol = DefaultHermitianTolerance
	}
	if !isSymmetric(h, tol) {
		return nil, &DiagonalizationError{Dimension: r, Label: label, Err: errNotHermitian}
	}

	sym := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			sym.SetSym(i, j, (h.At(i, j)+h.At(j, i))/2)
		}
	}
	return Diagonalize(sym, label)
}

func isSymmetric(m mat.Matrix, tol float64) bool {
	n, _ := m.Dims()
	scale := mat.Norm(m, 1)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := m.At(i, j) - m.At(j, i)
			if d > tol*scale || -d > tol*scale {
				return false
			}
		}
	}
	return true
}

func sortSpectrum(values []float64, vectors *mat.Dense) *Spectrum {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] < values[order[b]] })

	rows, _ := vectors.Dims()
	out := &Spectrum{
		Values:  make([]float64, len(values)),
		Vectors: mat.NewDense(rows, len(values), nil),
	}
	for dst, src := range order {
		out.Values[dst] = values[src]
		out.Vectors.SetCol(dst, mat.Col(nil, src, vectors))
	}
	return out
}

// Select returns the eigenpairs at the given indices, in that order.
func (s *Spectrum) Select(indices []int) *Spectrum {
	if len(indices) == 0 {
		return &Spectrum{Values: []float64{}, Vectors: &mat.Dense{}}
	}
	rows, _ := s.Vectors.Dims()
	out := &Spectrum{
		Values:  make([]float64, len(indices)),
		Vectors: mat.NewDense(rows, len(indices), nil),
	}
	for dst, src := range indices {
		out.Values[dst] = s.Values[src]
		out.Vectors.SetCol(dst, mat.Col(nil, src, s.Vectors))
	}
	return out
}

// Relative returns the eigenvalues measured from the ground state.
func (s *Spectrum) Relative() []float64 {
	out := make([]float64, len(s.Values))
	if len(out) == 0 {
		return out
	}
	copy(out, s.Values)
	floats.AddConst(-s.Values[0], out)
	return out
}

// TransitionEnergies returns E[i+1] - E[i].
func (s *Spectrum) TransitionEnergies() []float64 {
	return diff(s.Relative())
}

// Anharmonicities returns the differences of consecutive transition energies.
func (s *Spectrum) Anharmonicities() []float64 {
	return diff(s.TransitionEnergies())
}

func diff(v []float64) []float64 {
	if len(v) < 2 {
		return nil
	}
	out := make([]float64, len(v)-1)
	floats.SubTo(out, v[1:], v[:len(v)-1])
	return out
}
