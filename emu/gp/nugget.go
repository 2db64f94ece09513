package gp

import "fmt"

// NuggetPolicy selects how the diagonal regularization term (nugget) of
// the training covariance matrix is chosen.
type NuggetPolicy string

const (
	// NuggetNone fits a pure interpolator. Factorization failure — the
	// expected outcome when near-duplicate inputs carry divergent
	// outputs — surfaces as a *NumericalError.
	NuggetNone NuggetPolicy = "none"

	// NuggetAdaptive escalates a diagonal jitter term until the covariance
	// matrix factorizes, at the cost of inflated predictive uncertainty.
	NuggetAdaptive NuggetPolicy = "adaptive"

	// NuggetFit treats the nugget variance as a hyperparameter optimized
	// jointly with the kernel hyperparameters, so it converges to the
	// actual observation noise level.
	NuggetFit NuggetPolicy = "fit"
)

// validNuggetPolicies maps accepted policy strings.
var validNuggetPolicies = map[NuggetPolicy]bool{
	NuggetNone:     true,
	NuggetAdaptive: true,
	NuggetFit:      true,
}

// ParseNuggetPolicy validates a policy string. Empty defaults to adaptive.
func ParseNuggetPolicy(s string) (NuggetPolicy, error) {
	if s == "" {
		return NuggetAdaptive, nil
	}
	p := NuggetPolicy(s)
	if !validNuggetPolicies[p] {
		return "", fmt.Errorf("unknown nugget policy %q (want none, adaptive or fit)", s)
	}
	return p, nil
}

// NumericalError reports that the training covariance matrix could not be
// factorized under the requested nugget policy.
type NumericalError struct {
	Op     string  // operation that failed, e.g. "cholesky"
	Jitter float64 // largest diagonal regularization attempted
}

func (e *NumericalError) Error() string {
	if e.Jitter > 0 {
		return fmt.Sprintf("gp: %s failed: covariance matrix not positive definite (jitter up to %g attempted)", e.Op, e.Jitter)
	}
	return fmt.Sprintf("gp: %s failed: covariance matrix not positive definite", e.Op)
}
