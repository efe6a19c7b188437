package expansion

import "fmt"

// InvalidDegreeError reports an expansion request whose polynomial degree (or
// sample order) cannot support the requested terms. It is a configuration
// error and is never retried.
type InvalidDegreeError struct {
	Degree  int
	Minimum int
	Reason  string
}

func (e *InvalidDegreeError) Error() string {
	return fmt.Sprintf("expansion: invalid degree %d (minimum %d): %s", e.Degree, e.Minimum, e.Reason)
}

// ConvergenceError reports a minimization that did not settle inside its
// iteration budget.
type ConvergenceError struct {
	Lo         float64
	Hi         float64
	Iterations int
	Err        error
}

func (e *ConvergenceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("expansion: minimization in [%g, %g] did not converge after %d iterations", e.Lo, e.Hi, e.Iterations)
	}
	return fmt.Sprintf("expansion: minimization in [%g, %g] did not converge after %d iterations: %v", e.Lo, e.Hi, e.Iterations, e.Err)
}

func (e *ConvergenceError) Unwrap() error {
	return e.Err
}
