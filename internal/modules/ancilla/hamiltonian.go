package ancilla

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/snailsolver/internal/modules/fock"
	"github.com/aristath/snailsolver/internal/modules/spectrum"
)

// MinReliableLevels is the number of anharmonicities past the cutoff needed
// for a reliable average.
const MinReliableLevels = 10

var errAsymmetric = errors.New("hamiltonian is not hermitian")

// Summary condenses the anharmonic ladder of the ancilla. Energies in Hz.
type Summary struct {
	FirstAnharmonicity   float64
	AverageAnharmonicity float64
	FockCutoff           int
	Reliable             bool
	CleanLevels          int
	A3                   float64
	A4                   float64
}

// Hamiltonian returns f·N + Ej·P(φ_r(a+a†)), or only the nonlinear part, on
// FockTrunc levels, together with the raw cubic and quartic coefficients of
// U/Ej.
func (a *Ancilla) Hamiltonian(nonlinearOnly bool) (*mat.SymDense, float64, float64, error) {
	h, a3, a4, err := a.hamiltonianDense(nonlinearOnly)
	if err != nil {
		return nil, 0, 0, err
	}
	if !fock.IsHermitian(h, spectrum.DefaultHermitianTolerance) {
		return nil, 0, 0, &spectrum.DiagonalizationError{Dimension: a.opts.FockTrunc, Label: a.label(), Err: errAsymmetric}
	}
	return fock.Symmetrize(h), a3, a4, nil
}

func (a *Ancilla) hamiltonianDense(nonlinearOnly bool) (*mat.Dense, float64, float64, error) {
	p, err := a.NonlinearPotential()
	if err != nil {
		return nil, 0, 0, err
	}

	var h *mat.Dense
	if p.MaxAbsCoefficient(3) == 0 {
		// Harmonic element: no nonlinear terms to expand.
		h = mat.NewDense(a.opts.FockTrunc, a.opts.FockTrunc, nil)
	} else {
		h = fock.Polynomial(fock.Quadrature(a.opts.FockTrunc), EnergyCoefficients(p.Coefficients, a.ej, a.phiRZPF))
	}
	if !nonlinearOnly {
		var linear mat.Dense
		linear.Scale(a.freq, fock.Number(a.opts.FockTrunc))
		h.Add(h, &linear)
	}
	return h, p.Coefficient(3), p.Coefficient(4), nil
}

// EnergyCoefficients rescales coefficients of U/Ej in φ into coefficients in
// the quadrature a+a†: Ej·c_k·φ_r^k.
func EnergyCoefficients(coeffs []float64, ej, reducedZPF float64) []float64 {
	out := make([]float64, len(coeffs))
	pow := ej
	for k, c := range coeffs {
		out[k] = c * pow
		pow *= reducedZPF
	}
	return out
}

// Spectrum diagonalizes the full Hamiltonian.
func (a *Ancilla) Spectrum() (*spectrum.Spectrum, error) {
	h, _, _, err := a.Hamiltonian(false)
	if err != nil {
		return nil, err
	}
	return spectrum.Diagonalize(h, a.label())
}

// CleanSpectrum diagonalizes and filters truncation artefacts.
func (a *Ancilla) CleanSpectrum() (*spectrum.Spectrum, error) {
	s, err := a.Spectrum()
	if err != nil {
		return nil, err
	}
	return spectrum.Clean(s, a.cleanOptions()), nil
}

func (a *Ancilla) cleanOptions() spectrum.CleanOptions {
	if a.opts.Clean != nil {
		return *a.opts.Clean
	}
	return spectrum.DefaultCleanOptions()
}

// AnalyzeAnharmonicities diagonalizes, cleans, and summarises the
// anharmonicity series. The cutoff is the index of the largest anharmonicity
// plus two; the average runs over the absolute anharmonicities from there on.
func (a *Ancilla) AnalyzeAnharmonicities() (*Summary, error) {
	sum, _, err := a.Analyze()
	return sum, err
}

// Analyze is AnalyzeAnharmonicities that also returns the clean spectrum.
func (a *Ancilla) Analyze() (*Summary, *spectrum.Spectrum, error) {
	h, a3, a4, err := a.Hamiltonian(false)
	if err != nil {
		return nil, nil, err
	}
	s, err := spectrum.Diagonalize(h, a.label())
	if err != nil {
		return nil, nil, err
	}
	clean := spectrum.Clean(s, a.cleanOptions())
	return Summarize(clean.Anharmonicities(), a3, a4, clean.Len()), clean, nil
}

// Summarize reduces an anharmonicity series. An empty series yields NaN
// fields and Reliable false.
func Summarize(anharm []float64, a3, a4 float64, levels int) *Summary {
	sum := &Summary{
		FirstAnharmonicity:   math.NaN(),
		AverageAnharmonicity: math.NaN(),
		CleanLevels:          levels,
		A3:                   a3,
		A4:                   a4,
	}
	if len(anharm) == 0 {
		return sum
	}

	maxIdx := floats.MaxIdx(anharm)
	tail := make([]float64, len(anharm)-maxIdx)
	for i, v := range anharm[maxIdx:] {
		tail[i] = math.Abs(v)
	}

	sum.FirstAnharmonicity = anharm[0]
	sum.FockCutoff = maxIdx + 2
	sum.AverageAnharmonicity = stat.Mean(tail, nil)
	sum.Reliable = len(tail) >= MinReliableLevels
	return sum
}
