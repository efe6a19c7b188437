// Package units holds the physical constants and conversions shared by the solver.
//
// All constants are SI (2019 redefinition, exact where the SI defines them).
// Energies in the solver are expressed as frequencies in Hz, i.e. E/h.
package units

import (
	"math"

	"gonum.org/v1/gonum/unit/constant"
)

const (
	// Planck is h in J·s.
	Planck = float64(constant.Planck)
	// ReducedPlanck is ħ = h/2π in J·s.
	ReducedPlanck = Planck / (2 * math.Pi)
	// ElementaryCharge is e in C.
	ElementaryCharge = float64(constant.ElementaryCharge)
	// FluxQuantum is Φ0 = h/2e in Wb.
	FluxQuantum = Planck / (2 * ElementaryCharge)
	// ReducedFluxQuantum is Φ0/2π in Wb.
	ReducedFluxQuantum = FluxQuantum / (2 * math.Pi)
)

// AngularFrequency converts a frequency in Hz to rad/s.
func AngularFrequency(f float64) float64 {
	return 2 * math.Pi * f
}

// HzToMHz converts Hz to MHz.
func HzToMHz(v float64) float64 {
	return v / 1e6
}

// HzToGHz converts Hz to GHz.
func HzToGHz(v float64) float64 {
	return v / 1e9
}
