// Package ancilla quantizes a Josephson element shunted by a capacitance into
// a single bosonic mode and analyses its spectrum.
package ancilla

import (
	"fmt"
	"math"

	"github.com/aristath/snailsolver/internal/modules/element"
	"github.com/aristath/snailsolver/internal/modules/expansion"
	"github.com/aristath/snailsolver/internal/modules/spectrum"
	"github.com/aristath/snailsolver/internal/units"
)

// DefaultFockTrunc is the default number of Fock levels.
const DefaultFockTrunc = 70

// Element is the nonlinear inductive element the ancilla is built from.
// Expansion must return the normalized potential U/Ej expanded around its
// minimum.
type Element interface {
	JosephsonEnergy() float64
	Expansion(opts expansion.Options) (*expansion.TruncatedPotential, error)
}

// Options holds the numerical parameters of the ancilla.
type Options struct {
	FockTrunc int
	// Expansion carries the Taylor degree, scale and order. Shift,
	// normalization and the nonlinear flag are set by the ancilla.
	Expansion expansion.Options

	// Clean overrides spectrum.DefaultCleanOptions in AnalyzeAnharmonicities.
	Clean    *spectrum.CleanOptions
	Observer Observer
}

func (o Options) withDefaults() Options {
	if o.FockTrunc == 0 {
		o.FockTrunc = DefaultFockTrunc
	}
	if o.Expansion.Degree == 0 {
		o.Expansion.Degree = expansion.DefaultDegree
	}
	if o.Expansion.Scale <= 0 {
		o.Expansion.Scale = expansion.DefaultScale
	}
	if o.Expansion.Order == 0 {
		o.Expansion.Order = o.Expansion.Degree + expansion.DefaultOrderPadding
	}
	return o
}

// Ancilla is a quantized oscillator. Frequencies and energies are in Hz.
type Ancilla struct {
	element Element
	opts    Options

	ej      float64
	freq    float64
	lj      float64
	cap     float64
	phiZPF  float64
	phiRZPF float64
}

// FromFrequencyAndInductance builds an ancilla whose element is calibrated to
// the linear inductance lj (H) and which resonates at freq (Hz).
func FromFrequencyAndInductance(el Element, freq, lj float64, opts Options) (*Ancilla, error) {
	if !(freq > 0) || !(lj > 0) {
		return nil, fmt.Errorf("ancilla: frequency and inductance must be positive, got f=%g Lj=%g", freq, lj)
	}
	opts = opts.withDefaults()
	if opts.FockTrunc < 2 {
		return nil, fmt.Errorf("ancilla: fock truncation must be at least 2, got %d", opts.FockTrunc)
	}

	a2, err := quadraticCoefficient(el, opts.Expansion)
	if err != nil {
		return nil, err
	}

	w := units.AngularFrequency(freq)
	a := &Ancilla{
		element: el,
		opts:    opts,
		ej:      element.JosephsonEnergyFromInductance(lj, a2),
		freq:    freq,
		lj:      lj,
		cap:     1 / (lj * w * w),
	}
	a.phiZPF = math.Sqrt(units.ReducedPlanck / (2 * a.cap * w))
	a.phiRZPF = 2 * math.Pi * a.phiZPF / units.FluxQuantum

	if opts.Observer != nil {
		opts.Observer.AncillaBuilt(a.Diagnostics())
	}
	return a, nil
}

// FromFrequencyAndCapacitance builds an ancilla from its frequency and shunt
// capacitance cap (F). The inductance follows from the resonance condition.
func FromFrequencyAndCapacitance(el Element, freq, cap float64, opts Options) (*Ancilla, error) {
	if !(freq > 0) || !(cap > 0) {
		return nil, fmt.Errorf("ancilla: frequency and capacitance must be positive, got f=%g C=%g", freq, cap)
	}
	w := units.AngularFrequency(freq)
	return FromFrequencyAndInductance(el, freq, 1/(cap*w*w), opts)
}

// FromCapacitance builds an ancilla from the element's own Josephson energy
// and a shunt capacitance cap (F).
func FromCapacitance(el Element, cap float64, opts Options) (*Ancilla, error) {
	ej := el.JosephsonEnergy()
	if !(ej > 0) || !(cap > 0) {
		return nil, fmt.Errorf("ancilla: josephson energy and capacitance must be positive, got Ej=%g C=%g", ej, cap)
	}
	a2, err := quadraticCoefficient(el, opts.withDefaults().Expansion)
	if err != nil {
		return nil, err
	}
	lj := element.InductanceFromJosephsonEnergy(ej, a2)
	freq := 1 / (2 * math.Pi * math.Sqrt(lj*cap))
	return FromFrequencyAndInductance(el, freq, lj, opts)
}

func quadraticCoefficient(el Element, opts expansion.Options) (float64, error) {
	opts.Normalize = false
	opts.Nonlinear = false
	p, err := el.Expansion(opts)
	if err != nil {
		return 0, fmt.Errorf("ancilla: expanding element: %w", err)
	}
	a2 := p.Coefficient(2)
	if !(a2 > 0) {
		return 0, fmt.Errorf("ancilla: element quadratic coefficient %g is not positive", a2)
	}
	return a2, nil
}

// Diagnostics returns the derived circuit quantities.
func (a *Ancilla) Diagnostics() Diagnostics {
	return Diagnostics{
		Frequency:       a.freq,
		Inductance:      a.lj,
		Capacitance:     a.cap,
		PhiZPF:          a.phiZPF,
		ReducedZPF:      a.phiRZPF,
		JosephsonEnergy: a.ej,
		FockTrunc:       a.opts.FockTrunc,
	}
}

func (a *Ancilla) Element() Element { return a.element }
func (a *Ancilla) JosephsonEnergy() float64 { return a.ej }
func (a *Ancilla) Frequency() float64 { return a.freq }
func (a *Ancilla) Inductance() float64 { return a.lj }
func (a *Ancilla) Capacitance() float64 { return a.cap }
func (a *Ancilla) ReducedZPF() float64 { return a.phiRZPF }
func (a *Ancilla) FockTrunc() int { return a.opts.FockTrunc }
func (a *Ancilla) Options() Options { return a.opts }

// NonlinearPotential returns the cubic and higher part of U/Ej around the
// minimum.
func (a *Ancilla) NonlinearPotential() (*expansion.TruncatedPotential, error) {
	opts := a.opts.Expansion
	opts.Normalize = false
	opts.Nonlinear = true
	p, err := a.element.Expansion(opts)
	if err != nil {
		return nil, fmt.Errorf("ancilla: nonlinear expansion: %w", err)
	}
	return p, nil
}

// PerturbativeKerr returns the leading-order Kerr 12·(g4 - 5·g3²/f), with
// g_k = Ej·c_k·φ_r^k.
func (a *Ancilla) PerturbativeKerr() (float64, error) {
	p, err := a.NonlinearPotential()
	if err != nil {
		return 0, err
	}
	g3 := a.ej * p.Coefficient(3) * math.Pow(a.phiRZPF, 3)
	g4 := a.ej * p.Coefficient(4) * math.Pow(a.phiRZPF, 4)
	return 12 * (g4 - 5*g3*g3/a.freq), nil
}

func (a *Ancilla) label() string {
	l := fmt.Sprintf("f=%g Lj=%g Ej=%g N=%d", a.freq, a.lj, a.ej, a.opts.FockTrunc)
	if s, ok := a.element.(fmt.Stringer); ok {
		l = s.String() + " " + l
	}
	return l
}
