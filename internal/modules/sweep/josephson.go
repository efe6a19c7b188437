package sweep

import (
	"context"
	"fmt"

	"github.com/aristath/snailsolver/internal/modules/ancilla"
	"github.com/aristath/snailsolver/internal/modules/element"
)

// EjPoint is the analysis of one Josephson energy at fixed shunt
// capacitance.
type EjPoint struct {
	JosephsonEnergy float64          `json:"ej"`
	Frequency       float64          `json:"frequency"`
	Summary         *ancilla.Summary `json:"summary"`
	// Levels are the clean eigenvalues relative to the ground state.
	Levels []float64 `json:"levels"`
}

// SweepJosephsonEnergy analyses a SNAIL shunted by capacitance cap for every
// Josephson energy in ejs. The frequency of each point follows from Ej.
func SweepJosephsonEnergy(ctx context.Context, params element.Parameters, cap float64, ejs []float64, opts ancilla.Options) ([]EjPoint, error) {
	snail, err := element.NewSNAIL(params, 0)
	if err != nil {
		return nil, err
	}

	out := make([]EjPoint, 0, len(ejs))
	for _, ej := range ejs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		a, err := ancilla.FromCapacitance(snail.WithJosephsonEnergy(ej), cap, opts)
		if err != nil {
			return nil, fmt.Errorf("sweep: Ej=%g: %w", ej, err)
		}
		sum, clean, err := a.Analyze()
		if err != nil {
			return nil, err
		}
		out = append(out, EjPoint{
			JosephsonEnergy: ej,
			Frequency:       a.Frequency(),
			Summary:         sum,
			Levels:          clean.Relative(),
		})
	}
	return out, nil
}
