package sweep

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/snailsolver/internal/modules/ancilla"
	"github.com/aristath/snailsolver/internal/modules/circuit"
	"github.com/aristath/snailsolver/internal/modules/element"
	"github.com/aristath/snailsolver/internal/modules/epr"
	"github.com/aristath/snailsolver/internal/modules/fock"
	"github.com/aristath/snailsolver/internal/modules/spectrum"
)

// ErrTooFewLevels marks a grid point whose clean spectrum is too short to
// yield an anharmonicity.
var ErrTooFewLevels = errors.New("sweep: too few clean levels")

// Observable names.
const (
	FirstAnharmonicity   = "first_anharmonicity"
	AverageAnharmonicity = "average_anharmonicity"
	FockCutoff           = "fock_cutoff"
	Reliable             = "reliable"
	A3                   = "a3"
	A4                   = "a4"
	PerturbativeKerr     = "perturbative_kerr"

	AverageCavityKerr = "average_cavity_kerr"
	MaxCavityKerr     = "max_cavity_kerr"
)

// MaxJointDimension bounds the tensor-product space of a circuit sweep.
const MaxJointDimension = 4096

// jointDimension returns trunc^modes, or false once it passes
// MaxJointDimension.
func jointDimension(trunc, modes int) (int, bool) {
	if trunc > MaxJointDimension {
		return 0, false
	}
	dims := make([]int, 0, modes)
	d := 1
	for i := 0; i < modes; i++ {
		d *= trunc
		if d > MaxJointDimension {
			return 0, false
		}
		dims = append(dims, trunc)
	}
	return fock.Dimension(dims), true
}

// AncillaEvaluator analyses a single ancilla calibrated to a fixed
// frequency and inductance at every grid point.
type AncillaEvaluator struct {
	Frequency  float64
	Inductance float64
	Options    ancilla.Options
}

func (e *AncillaEvaluator) Observables() []string {
	return []string{FirstAnharmonicity, AverageAnharmonicity, FockCutoff, Reliable, A3, A4, PerturbativeKerr}
}

func (e *AncillaEvaluator) Evaluate(ctx context.Context, params element.Parameters) ([]float64, error) {
	snail, err := element.NewSNAIL(params, 0)
	if err != nil {
		return nil, err
	}
	a, err := ancilla.FromFrequencyAndInductance(snail, e.Frequency, e.Inductance, e.Options)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sum, err := a.AnalyzeAnharmonicities()
	if err != nil {
		return nil, err
	}
	if math.IsNaN(sum.FirstAnharmonicity) {
		return nil, fmt.Errorf("%w: %d", ErrTooFewLevels, sum.CleanLevels)
	}
	kerr, err := a.PerturbativeKerr()
	if err != nil {
		return nil, err
	}

	reliable := 0.0
	if sum.Reliable {
		reliable = 1
	}
	return []float64{
		sum.FirstAnharmonicity,
		sum.AverageAnharmonicity,
		float64(sum.FockCutoff),
		reliable,
		sum.A3,
		sum.A4,
		kerr,
	}, nil
}

// CircuitEvaluator couples the SNAIL ancilla to the modes of an EPR result
// and measures the Kerr ladder of one cavity mode.
type CircuitEvaluator struct {
	Params    epr.Parameters
	FockTrunc int
	// CavityMode is the mode whose ladder is measured.
	CavityMode int
	Options    ancilla.Options
}

// NewCircuitEvaluator validates params and picks the ancilla frequency from
// the mode with the largest zero-point fluctuation.
func NewCircuitEvaluator(params epr.Parameters, fockTrunc, cavityMode int) (*CircuitEvaluator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if cavityMode < 0 || cavityMode >= len(params.Frequencies) {
		return nil, fmt.Errorf("sweep: cavity mode %d out of range for %d modes", cavityMode, len(params.Frequencies))
	}
	if fockTrunc < 6 {
		return nil, fmt.Errorf("sweep: fock truncation %d leaves no cavity ladder", fockTrunc)
	}
	if _, ok := jointDimension(fockTrunc, len(params.Frequencies)); !ok {
		return nil, fmt.Errorf("sweep: %d modes at truncation %d exceed the joint dimension limit %d", len(params.Frequencies), fockTrunc, MaxJointDimension)
	}
	return &CircuitEvaluator{Params: params, FockTrunc: fockTrunc, CavityMode: cavityMode}, nil
}

func (e *CircuitEvaluator) Observables() []string {
	return []string{AverageCavityKerr, MaxCavityKerr}
}

func (e *CircuitEvaluator) Evaluate(ctx context.Context, params element.Parameters) ([]float64, error) {
	snail, err := element.NewSNAIL(params, 0)
	if err != nil {
		return nil, err
	}
	opts := e.Options
	opts.FockTrunc = e.FockTrunc
	a, err := ancilla.FromFrequencyAndInductance(snail, e.Params.AncillaFrequency(), e.Params.Lj, opts)
	if err != nil {
		return nil, err
	}
	c, err := circuit.New(a, e.Params.Frequencies, e.Params.ReducedZPF)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The top levels are distorted by the truncation.
	ladder, err := c.ModeLadder(e.CavityMode, e.FockTrunc-3)
	if err != nil {
		return nil, err
	}
	anharm := (&spectrum.Spectrum{Values: ladder}).Anharmonicities()
	if len(anharm) == 0 {
		return nil, ErrTooFewLevels
	}

	abs := make([]float64, len(anharm))
	for i, v := range anharm {
		abs[i] = math.Abs(v)
	}
	return []float64{stat.Mean(anharm, nil), floats.Max(abs)}, nil
}
