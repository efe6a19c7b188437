// Package fock builds ladder operators on truncated Fock spaces and composes
// them across modes.
//
// Multi-mode spaces are Kronecker products in mode order, so mode 0 is the
// most significant digit of a basis index.
package fock

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Destroy returns the annihilation operator a on n levels.
func Destroy(n int) *mat.Dense {
	a := mat.NewDense(n, n, nil)
	for i := 0; i+1 < n; i++ {
		a.Set(i, i+1, math.Sqrt(float64(i+1)))
	}
	return a
}

// Create returns the creation operator a† on n levels.
func Create(n int) *mat.Dense {
	ad := mat.NewDense(n, n, nil)
	for i := 0; i+1 < n; i++ {
		ad.Set(i+1, i, math.Sqrt(float64(i+1)))
	}
	return ad
}

// Number returns a†a.
func Number(n int) *mat.Dense {
	num := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		num.Set(i, i, float64(i))
	}
	return num
}

// Quadrature returns a + a†.
func Quadrature(n int) *mat.Dense {
	x := mat.NewDense(n, n, nil)
	x.Add(Destroy(n), Create(n))
	return x
}

// Identity returns the n by n identity.
func Identity(n int) *mat.Dense {
	id := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		id.Set(i, i, 1)
	}
	return id
}

// Dimension is the product of the mode sizes.
func Dimension(dims []int) int {
	d := 1
	for _, n := range dims {
		d *= n
	}
	return d
}

// Embed lifts a single-mode operator acting on mode index into the joint
// space I ⊗ ... ⊗ op ⊗ ... ⊗ I.
func Embed(op mat.Matrix, index int, dims []int) (*mat.Dense, error) {
	if index < 0 || index >= len(dims) {
		return nil, fmt.Errorf("fock: mode %d out of range for %d modes", index, len(dims))
	}
	r, c := op.Dims()
	if r != dims[index] || c != dims[index] {
		return nil, fmt.Errorf("fock: operator is %dx%d, mode %d has %d levels", r, c, index, dims[index])
	}

	out := mat.NewDense(1, 1, []float64{1})
	for i, n := range dims {
		var factor mat.Matrix = Identity(n)
		if i == index {
			factor = op
		}
		var next mat.Dense
		next.Kronecker(out, factor)
		out = &next
	}
	return out, nil
}

// Polynomial evaluates Σ coeffs[k] x^k with Horner's scheme.
func Polynomial(x mat.Matrix, coeffs []float64) *mat.Dense {
	n, _ := x.Dims()
	out := mat.NewDense(n, n, nil)
	if len(coeffs) == 0 {
		return out
	}

	addDiagonal := func(m *mat.Dense, v float64) {
		if v == 0 {
			return
		}
		for i := 0; i < n; i++ {
			m.Set(i, i, m.At(i, i)+v)
		}
	}

	addDiagonal(out, coeffs[len(coeffs)-1])
	var tmp mat.Dense
	for k := len(coeffs) - 2; k >= 0; k-- {
		tmp.Mul(out, x)
		out.Copy(&tmp)
		addDiagonal(out, coeffs[k])
	}
	return out
}

// IsHermitian reports whether m equals its transpose within tol, relative to
// the largest entry.
func IsHermitian(m mat.Matrix, tol float64) bool {
	r, c := m.Dims()
	if r != c {
		return false
	}
	scale := mat.Norm(m, math.Inf(1))
	if scale == 0 {
		return true
	}
	for i := 0; i < r; i++ {
		for j := i + 1; j < c; j++ {
			if math.Abs(m.At(i, j)-m.At(j, i)) > tol*scale {
				return false
			}
		}
	}
	return true
}

// Symmetrize returns (m + mᵀ)/2.
func Symmetrize(m mat.Matrix) *mat.SymDense {
	n, _ := m.Dims()
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, (m.At(i, j)+m.At(j, i))/2)
		}
	}
	return sym
}

// BasisIndex maps per-mode occupations to the joint basis index.
func BasisIndex(occupations, dims []int) (int, error) {
	if len(occupations) != len(dims) {
		return 0, fmt.Errorf("fock: %d occupations for %d modes", len(occupations), len(dims))
	}
	idx := 0
	for i, n := range dims {
		if occupations[i] < 0 || occupations[i] >= n {
			return 0, fmt.Errorf("fock: occupation %d of mode %d outside [0, %d)", occupations[i], i, n)
		}
		idx = idx*n + occupations[i]
	}
	return idx, nil
}

// Occupations is the inverse of BasisIndex.
func Occupations(index int, dims []int) []int {
	occ := make([]int, len(dims))
	for i := len(dims) - 1; i >= 0; i-- {
		occ[i] = index % dims[i]
		index /= dims[i]
	}
	return occ
}
