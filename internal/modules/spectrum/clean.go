package spectrum

import (
	"gonum.org/v1/gonum/floats"
)

// Ordering selects the excitation key Clean checks for monotonicity.
type Ordering int

const (
	// ByMeanExcitation orders states by Σ n |ψ_n|².
	ByMeanExcitation Ordering = iota
	// ByDominantIndex orders states by the Fock index of their largest component.
	ByDominantIndex
)

func (o Ordering) String() string {
	switch o {
	case ByMeanExcitation:
		return "mean-excitation"
	case ByDominantIndex:
		return "dominant-index"
	default:
		return "unknown"
	}
}

// CleanOptions holds the thresholds of the truncation filter.
type CleanOptions struct {
	Ordering Ordering
	// EdgeLevels is the number of highest Fock states treated as the
	// truncation edge.
	EdgeLevels int
	// EdgeThreshold is the largest population allowed on the edge.
	EdgeThreshold float64
	// MinOverlap is the smallest population of the dominant component a
	// state needs under ByDominantIndex ordering. Zero disables the check.
	MinOverlap float64
}

// DefaultCleanOptions returns the thresholds used by the ancilla analysis.
func DefaultCleanOptions() CleanOptions {
	return CleanOptions{
		Ordering:      ByMeanExcitation,
		EdgeLevels:    3,
		EdgeThreshold: 1e-3,
	}
}

// Populations returns |ψ_n|².
func Populations(vec []float64) []float64 {
	out := make([]float64, len(vec))
	floats.MulTo(out, vec, vec)
	return out
}

// DominantIndex returns the basis index carrying the largest population.
func DominantIndex(vec []float64) int {
	if len(vec) == 0 {
		return -1
	}
	return floats.MaxIdx(Populations(vec))
}

// MeanExcitation returns Σ n |ψ_n|² for a single-mode vector.
func MeanExcitation(vec []float64) float64 {
	var m float64
	for n, v := range vec {
		m += float64(n) * v * v
	}
	return m
}

// EdgePopulation returns the population held by the last levels basis states.
func EdgePopulation(vec []float64, levels int) float64 {
	if levels <= 0 {
		return 0
	}
	start := len(vec) - levels
	if start < 0 {
		start = 0
	}
	return floats.Sum(Populations(vec[start:]))
}

// Clean drops the eigenstates produced by the Fock truncation: states leaking
// onto the truncation edge, and states whose excitation key does not
// increase along the ascending-energy sequence. The ground state is always
// kept.
func Clean(s *Spectrum, opts CleanOptions) *Spectrum {
	if s.Len() == 0 {
		return s.Select(nil)
	}

	keep := []int{0}
	last := key(s.Vector(0), opts.Ordering)
	for i := 1; i < s.Len(); i++ {
		vec := s.Vector(i)
		if opts.EdgeLevels > 0 && EdgePopulation(vec, opts.EdgeLevels) > opts.EdgeThreshold {
			continue
		}
		if opts.Ordering == ByDominantIndex && opts.MinOverlap > 0 {
			if floats.Max(Populations(vec)) < opts.MinOverlap {
				continue
			}
		}
		k := key(vec, opts.Ordering)
		if k <= last {
			continue
		}
		keep = append(keep, i)
		last = k
	}
	return s.Select(keep)
}

func key(vec []float64, ordering Ordering) float64 {
	if ordering == ByDominantIndex {
		return float64(DominantIndex(vec))
	}
	return MeanExcitation(vec)
}
