// Package gp implements a Gaussian process regression emulator: a
// statistical surrogate fit to (design point, simulator output) pairs and
// queried for predictive mean and uncertainty at new points.
//
// Hyperparameters (signal variance, per-dimension lengthscales and, under
// the "fit" nugget policy, the noise variance) are chosen by maximizing the
// log marginal likelihood with Nelder-Mead in log space.
package gp

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// adaptive jitter escalation, relative to the signal variance
const (
	jitterStart = 1e-10
	jitterMax   = 1.0
)

// Hyperparameters holds the fitted kernel and noise parameters.
type Hyperparameters struct {
	Variance      float64   // signal variance
	Lengthscales  []float64 // one per input dimension
	NoiseVariance float64   // fitted nugget variance (zero unless policy is "fit")
	Jitter        float64   // diagonal regularization used (adaptive policy)
}

// GP is a Gaussian process emulator over a fixed training set. Construct
// with New, train with Fit, then query with Predict. Not safe for
// concurrent mutation; Predict alone is read-only and may be shared.
type GP struct {
	x      [][]float64
	y      []float64
	dims   int
	kernel Kernel
	policy NuggetPolicy

	fitted       bool
	meanY        float64
	variance     float64
	lengthscales []float64
	noiseVar     float64
	jitter       float64
	chol         mat.Cholesky
	alpha        *mat.VecDense
}

// New validates the training set and constructs an unfitted GP.
func New(x [][]float64, y []float64, kernel Kernel, policy NuggetPolicy) (*GP, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("gp: training set is empty")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("gp: %d training points but %d outputs", len(x), len(y))
	}
	dims := len(x[0])
	if dims == 0 {
		return nil, fmt.Errorf("gp: training points have zero dimensions")
	}
	for i, p := range x {
		if len(p) != dims {
			return nil, fmt.Errorf("gp: training point %d has %d dimensions, want %d", i, len(p), dims)
		}
	}
	if kernel == nil {
		return nil, fmt.Errorf("gp: kernel is required")
	}
	if !validNuggetPolicies[policy] {
		return nil, fmt.Errorf("gp: unknown nugget policy %q", policy)
	}
	return &GP{x: x, y: y, dims: dims, kernel: kernel, policy: policy}, nil
}

// Hyperparameters returns the fitted hyperparameters. Zero-valued before Fit.
func (g *GP) Hyperparameters() Hyperparameters {
	ls := make([]float64, len(g.lengthscales))
	copy(ls, g.lengthscales)
	return Hyperparameters{
		Variance:      g.variance,
		Lengthscales:  ls,
		NoiseVariance: g.noiseVar,
		Jitter:        g.jitter,
	}
}

// factorization is one Cholesky decomposition of the training covariance
// under concrete hyperparameters.
type factorization struct {
	chol   mat.Cholesky
	alpha  *mat.VecDense // K^{-1} (y - meanY)
	jitter float64
}

// factorize builds K(x, x) + (noiseVar + jitter) I and decomposes it,
// applying the adaptive jitter escalation when the policy asks for it.
func (g *GP) factorize(variance float64, lengthscales []float64, noiseVar float64) (*factorization, error) {
	n := len(g.x)
	k := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := g.kernel.Cov(variance, lengthscales, g.x[i], g.x[j])
			if i == j {
				v += noiseVar
			}
			k.SetSym(i, j, v)
		}
	}

	yc := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		yc.SetVec(i, g.y[i]-g.meanY)
	}

	attempt := func(jitter float64) (*factorization, bool) {
		kj := mat.NewSymDense(n, nil)
		kj.CopySym(k)
		if jitter > 0 {
			for i := 0; i < n; i++ {
				kj.SetSym(i, i, kj.At(i, i)+jitter)
			}
		}
		var f factorization
		if !f.chol.Factorize(kj) {
			return nil, false
		}
		f.alpha = mat.NewVecDense(n, nil)
		if err := f.chol.SolveVecTo(f.alpha, yc); err != nil {
			return nil, false
		}
		f.jitter = jitter
		return &f, true
	}

	if f, ok := attempt(0); ok {
		return f, nil
	}
	if g.policy != NuggetAdaptive {
		return nil, &NumericalError{Op: "cholesky"}
	}

	jitter := variance * jitterStart
	for jitter <= variance*jitterMax {
		if f, ok := attempt(jitter); ok {
			return f, nil
		}
		jitter *= 10
	}
	return nil, &NumericalError{Op: "cholesky", Jitter: variance * jitterMax}
}

// theta layout: [log variance, log ls_0 .. log ls_{d-1}, (log noiseVar)]
func (g *GP) unpack(theta []float64) (variance float64, lengthscales []float64, noiseVar float64, ok bool) {
	for _, t := range theta {
		if math.Abs(t) > 25 {
			return 0, nil, 0, false
		}
	}
	variance = math.Exp(theta[0])
	lengthscales = make([]float64, g.dims)
	for d := 0; d < g.dims; d++ {
		lengthscales[d] = math.Exp(theta[1+d])
	}
	if g.policy == NuggetFit {
		noiseVar = math.Exp(theta[1+g.dims])
	}
	return variance, lengthscales, noiseVar, true
}

// negLogLik is the negative log marginal likelihood of the training outputs.
func (g *GP) negLogLik(theta []float64) float64 {
	variance, lengthscales, noiseVar, ok := g.unpack(theta)
	if !ok {
		return math.Inf(1)
	}
	f, err := g.factorize(variance, lengthscales, noiseVar)
	if err != nil {
		return math.Inf(1)
	}
	n := len(g.y)
	yc := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		yc.SetVec(i, g.y[i]-g.meanY)
	}
	nll := 0.5*mat.Dot(yc, f.alpha) + 0.5*f.chol.LogDet() + 0.5*float64(n)*math.Log(2*math.Pi)
	if math.IsNaN(nll) {
		return math.Inf(1)
	}
	return nll
}

// initialTheta builds the optimizer start point from training-data scales:
// variance from var(y), lengthscales from half the per-dimension data range.
func (g *GP) initialTheta() []float64 {
	variance := stat.Variance(g.y, nil)
	if variance <= 0 || math.IsNaN(variance) {
		variance = 1.0
	}
	theta := make([]float64, 0, g.dims+2)
	theta = append(theta, math.Log(variance))
	for d := 0; d < g.dims; d++ {
		lo, hi := g.x[0][d], g.x[0][d]
		for _, p := range g.x {
			lo = math.Min(lo, p[d])
			hi = math.Max(hi, p[d])
		}
		ls := (hi - lo) / 2
		if ls <= 0 {
			ls = 1.0
		}
		theta = append(theta, math.Log(ls))
	}
	if g.policy == NuggetFit {
		theta = append(theta, math.Log(variance*1e-2))
	}
	return theta
}

// Fit optimizes the hyperparameters by maximum marginal likelihood and
// caches the final factorization for prediction. Returns *NumericalError
// when no hyperparameter setting yields a positive-definite covariance.
func (g *GP) Fit() error {
	g.meanY = stat.Mean(g.y, nil)

	base := g.initialTheta()
	starts := [][]float64{base}
	// Multi-start over shorter and longer lengthscales; Nelder-Mead is
	// local and the likelihood surface is multi-modal.
	for _, shift := range []float64{-1.2, 1.2} {
		s := make([]float64, len(base))
		copy(s, base)
		for d := 0; d < g.dims; d++ {
			s[1+d] += shift
		}
		starts = append(starts, s)
	}

	problem := optimize.Problem{Func: g.negLogLik}
	settings := &optimize.Settings{FuncEvaluations: 4000}

	bestF := math.Inf(1)
	var bestTheta []float64
	for _, start := range starts {
		result, err := optimize.Minimize(problem, start, settings, &optimize.NelderMead{})
		if err != nil && result == nil {
			continue
		}
		if result != nil && !math.IsInf(result.F, 1) && !math.IsNaN(result.F) && result.F < bestF {
			bestF = result.F
			bestTheta = result.X
		}
	}
	if bestTheta == nil {
		// Every start failed to factorize anywhere the optimizer looked.
		_, err := g.factorize(math.Exp(base[0]), g.baseLengthscales(base), 0)
		if err != nil {
			return err
		}
		bestTheta = base
	}

	variance, lengthscales, noiseVar, ok := g.unpack(bestTheta)
	if !ok {
		return &NumericalError{Op: "hyperparameter optimization"}
	}
	f, err := g.factorize(variance, lengthscales, noiseVar)
	if err != nil {
		return err
	}

	g.variance = variance
	g.lengthscales = lengthscales
	g.noiseVar = noiseVar
	g.jitter = f.jitter
	g.chol = f.chol
	g.alpha = f.alpha
	g.fitted = true

	logrus.Debugf("gp fit: nll=%.4f variance=%.4g lengthscales=%v noise=%.4g jitter=%.3g",
		bestF, variance, lengthscales, noiseVar, f.jitter)
	return nil
}

func (g *GP) baseLengthscales(theta []float64) []float64 {
	ls := make([]float64, g.dims)
	for d := 0; d < g.dims; d++ {
		ls[d] = math.Exp(theta[1+d])
	}
	return ls
}

// Predict returns the predictive mean and one standard deviation of
// uncertainty at each query point. With includeNugget the learned noise
// variance (and any adaptive jitter) is added back into the reported
// uncertainty; without it the uncertainty is the GP's interpolation
// uncertainty only — callers comparing against repeated-run spread should
// keep the two cases distinct.
func (g *GP) Predict(points [][]float64, includeNugget bool) (mean, std []float64, err error) {
	if !g.fitted {
		return nil, nil, fmt.Errorf("gp: Predict called before Fit")
	}
	n := len(g.x)
	mean = make([]float64, len(points))
	std = make([]float64, len(points))

	kvec := mat.NewVecDense(n, nil)
	solved := mat.NewVecDense(n, nil)
	for q, p := range points {
		if len(p) != g.dims {
			return nil, nil, fmt.Errorf("gp: query point %d has %d dimensions, want %d", q, len(p), g.dims)
		}
		for i := 0; i < n; i++ {
			kvec.SetVec(i, g.kernel.Cov(g.variance, g.lengthscales, p, g.x[i]))
		}
		mean[q] = g.meanY + mat.Dot(kvec, g.alpha)

		if err := g.chol.SolveVecTo(solved, kvec); err != nil {
			return nil, nil, &NumericalError{Op: "predictive solve", Jitter: g.jitter}
		}
		variance := g.kernel.Cov(g.variance, g.lengthscales, p, p) - mat.Dot(kvec, solved)
		if includeNugget {
			variance += g.noiseVar + g.jitter
		}
		if variance < 0 {
			// round-off below zero
			variance = 0
		}
		std[q] = math.Sqrt(variance)
	}
	return mean, std, nil
}
