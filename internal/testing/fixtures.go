package testing

import "math"

// Reference device used across the test suites: a three-junction SNAIL
// calibrated to a 5.19 GHz, 11 nH ancilla.
const (
	ReferenceN          = 3
	ReferenceAlpha      = 0.32
	ReferenceFlux       = 0.47
	ReferenceFrequency  = 5.19381e9
	ReferenceInductance = 11e-9
)

// ReferencePhiExt is the reference external flux phase in radians.
var ReferencePhiExt = ReferenceFlux * 2 * math.Pi

// ReferenceEPRYAML is a two-mode EPR result with the reference ancilla as
// mode 1 and a weakly coupled cavity as mode 0.
const ReferenceEPRYAML = `lj: 11.0e-9
frequencies: [7.0e9, 5.19381e9]
reduced_zpf: [0.05, 0.41804]
variation: 0
`
