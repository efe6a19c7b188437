// Package circuit couples several linear modes through one shared Josephson
// element and diagonalizes the joint Hamiltonian.
package circuit

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gonum.org/v1/gonum/mat"

	"github.com/aristath/snailsolver/internal/modules/ancilla"
	"github.com/aristath/snailsolver/internal/modules/expansion"
	"github.com/aristath/snailsolver/internal/modules/fock"
	"github.com/aristath/snailsolver/internal/modules/spectrum"
)

var validate = validator.New()

// Mode is one linear mode participating in the element.
type Mode struct {
	Frequency  float64 `json:"frequency" yaml:"frequency" validate:"gt=0"`
	ReducedZPF float64 `json:"reduced_zpf" yaml:"reduced_zpf" validate:"gt=0"`
	Truncation int     `json:"truncation" yaml:"truncation" validate:"gte=2"`
}

// Circuit holds the joint Hamiltonian
//
//	H = Σ f_i N_i + Ej·P(Σ φ_i (a_i + a_i†))
//
// where P is the nonlinear part of U/Ej. The spectrum is computed on first
// use and cached.
type Circuit struct {
	potential *expansion.TruncatedPotential
	ej        float64
	modes     []Mode

	once     sync.Once
	spectrum *spectrum.Spectrum
	err      error
}

// New couples the modes described by freqs and zpfs to the element of a.
// Every mode uses the ancilla's Fock truncation.
func New(a *ancilla.Ancilla, freqs, zpfs []float64) (*Circuit, error) {
	if len(freqs) != len(zpfs) {
		return nil, fmt.Errorf("circuit: %d frequencies for %d zero-point fluctuations", len(freqs), len(zpfs))
	}
	p, err := a.NonlinearPotential()
	if err != nil {
		return nil, err
	}
	modes := make([]Mode, len(freqs))
	for i := range freqs {
		modes[i] = Mode{Frequency: freqs[i], ReducedZPF: zpfs[i], Truncation: a.FockTrunc()}
	}
	return NewFromModes(p, a.JosephsonEnergy(), modes)
}

// NewFromModes builds a circuit from an explicit nonlinear potential (in
// units of ej) and mode list.
func NewFromModes(potential *expansion.TruncatedPotential, ej float64, modes []Mode) (*Circuit, error) {
	if potential == nil {
		return nil, fmt.Errorf("circuit: nil potential")
	}
	if len(modes) == 0 {
		return nil, fmt.Errorf("circuit: no modes")
	}
	if !(ej > 0) {
		return nil, fmt.Errorf("circuit: josephson energy must be positive, got %g", ej)
	}
	for i, m := range modes {
		if err := validate.Struct(m); err != nil {
			return nil, fmt.Errorf("circuit: invalid mode %d: %w", i, err)
		}
	}
	return &Circuit{
		potential: potential,
		ej:        ej,
		modes:     append([]Mode(nil), modes...),
	}, nil
}

// Modes returns a copy of the mode list.
func (c *Circuit) Modes() []Mode {
	return append([]Mode(nil), c.modes...)
}

// Dims returns the per-mode truncations.
func (c *Circuit) Dims() []int {
	dims := make([]int, len(c.modes))
	for i, m := range c.modes {
		dims[i] = m.Truncation
	}
	return dims
}

// Hamiltonian builds the joint Hamiltonian on the tensor-product space.
func (c *Circuit) Hamiltonian() (*mat.SymDense, error) {
	dims := c.Dims()
	n := fock.Dimension(dims)

	phi := mat.NewDense(n, n, nil)
	linear := mat.NewDense(n, n, nil)
	for i, m := range c.modes {
		x, err := fock.Embed(fock.Quadrature(m.Truncation), i, dims)
		if err != nil {
			return nil, err
		}
		x.Scale(m.ReducedZPF, x)
		phi.Add(phi, x)

		num, err := fock.Embed(fock.Number(m.Truncation), i, dims)
		if err != nil {
			return nil, err
		}
		num.Scale(m.Frequency, num)
		linear.Add(linear, num)
	}

	h := fock.Polynomial(phi, ancilla.EnergyCoefficients(c.potential.Coefficients, c.ej, 1))
	h.Add(h, linear)
	if !fock.IsHermitian(h, spectrum.DefaultHermitianTolerance) {
		return nil, &spectrum.DiagonalizationError{Dimension: n, Label: c.label(), Err: fmt.Errorf("hamiltonian is not hermitian")}
	}
	return fock.Symmetrize(h), nil
}

// Spectrum diagonalizes the joint Hamiltonian once.
func (c *Circuit) Spectrum() (*spectrum.Spectrum, error) {
	c.once.Do(func() {
		h, err := c.Hamiltonian()
		if err != nil {
			c.err = err
			return
		}
		c.spectrum, c.err = spectrum.Diagonalize(h, c.label())
	})
	return c.spectrum, c.err
}

// GetEigenstate returns the eigenpair with the largest overlap on the Fock
// state given by occupation (mode index to photon number; absent modes are
// in their ground state).
func (c *Circuit) GetEigenstate(occupation map[int]int) (float64, []float64, error) {
	idx, err := c.basisIndex(occupation)
	if err != nil {
		return 0, nil, err
	}
	s, err := c.Spectrum()
	if err != nil {
		return 0, nil, err
	}

	best, bestOverlap := -1, -1.0
	for i := 0; i < s.Len(); i++ {
		v := s.Vectors.At(idx, i)
		if overlap := v * v; overlap > bestOverlap {
			best, bestOverlap = i, overlap
		}
	}
	return s.Values[best], s.Vector(best), nil
}

// DominantOccupation returns the photon numbers of the Fock state carrying
// the largest weight in eigenstate k.
func (c *Circuit) DominantOccupation(k int) ([]int, error) {
	s, err := c.Spectrum()
	if err != nil {
		return nil, err
	}
	if k < 0 || k >= s.Len() {
		return nil, fmt.Errorf("circuit: eigenstate %d out of range for %d states", k, s.Len())
	}
	return fock.Occupations(spectrum.DominantIndex(s.Vector(k)), c.Dims()), nil
}

func (c *Circuit) basisIndex(occupation map[int]int) (int, error) {
	occ := make([]int, len(c.modes))
	for mode, n := range occupation {
		if mode < 0 || mode >= len(c.modes) {
			return 0, fmt.Errorf("circuit: mode %d out of range for %d modes", mode, len(c.modes))
		}
		occ[mode] = n
	}
	return fock.BasisIndex(occ, c.Dims())
}

// ModeLadder returns the eigenvalues of the states with 0..levels-1 photons
// in mode and none elsewhere.
func (c *Circuit) ModeLadder(mode, levels int) ([]float64, error) {
	out := make([]float64, levels)
	for i := range out {
		e, _, err := c.GetEigenstate(map[int]int{mode: i})
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

// CrossKerr returns E(1_i 1_j) - E(1_i) - E(1_j) + E(0).
func (c *Circuit) CrossKerr(i, j int) (float64, error) {
	if i == j {
		return 0, fmt.Errorf("circuit: cross-Kerr needs two distinct modes, got %d twice", i)
	}
	states := []map[int]int{{}, {i: 1}, {j: 1}, {i: 1, j: 1}}
	e := make([]float64, len(states))
	for k, occ := range states {
		v, _, err := c.GetEigenstate(occ)
		if err != nil {
			return 0, err
		}
		e[k] = v
	}
	return e[3] - e[1] - e[2] + e[0], nil
}

func (c *Circuit) label() string {
	parts := make([]string, len(c.modes))
	for i, m := range c.modes {
		parts[i] = fmt.Sprintf("f%d=%g zpf%d=%g", i, m.Frequency, i, m.ReducedZPF)
	}
	return fmt.Sprintf("Ej=%g %s", c.ej, strings.Join(parts, " "))
}
