package spectrum

import "fmt"

// DiagonalizationError reports a Hamiltonian that could not be diagonalized.
// Label identifies the parameter set that produced it.
type DiagonalizationError struct {
	Dimension int
	Label     string
	Err       error
}

func (e *DiagonalizationError) Error() string {
	msg := fmt.Sprintf("spectrum: diagonalization of %dx%d hamiltonian failed", e.Dimension, e.Dimension)
	if e.Label != "" {
		msg += " (" + e.Label + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DiagonalizationError) Unwrap() error {
	return e.Err
}
