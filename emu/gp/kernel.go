package gp

import (
	"fmt"
	"math"
)

// Kernel computes the covariance between two input points under a signal
// variance and per-dimension (ARD) lengthscales. Implementations must be
// stationary and return variance exactly when x1 == x2.
type Kernel interface {
	Name() string
	Cov(variance float64, lengthscales, x1, x2 []float64) float64
}

// scaledDistance returns sqrt(sum_d ((x1_d - x2_d) / ls_d)^2).
func scaledDistance(lengthscales, x1, x2 []float64) float64 {
	var sum float64
	for d := range x1 {
		diff := (x1[d] - x2[d]) / lengthscales[d]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

// RBF is the squared-exponential kernel: smooth (infinitely differentiable)
// sample paths.
type RBF struct{}

func (RBF) Name() string { return "rbf" }

func (RBF) Cov(variance float64, lengthscales, x1, x2 []float64) float64 {
	r := scaledDistance(lengthscales, x1, x2)
	return variance * math.Exp(-0.5*r*r)
}

// Matern52 is the Matérn 5/2 kernel: twice-differentiable sample paths,
// the usual intermediate-roughness choice for simulator output.
type Matern52 struct{}

func (Matern52) Name() string { return "matern52" }

func (Matern52) Cov(variance float64, lengthscales, x1, x2 []float64) float64 {
	r := scaledDistance(lengthscales, x1, x2)
	sr := math.Sqrt(5) * r
	return variance * (1 + sr + sr*sr/3) * math.Exp(-sr)
}

// Matern32 is the Matérn 3/2 kernel: once-differentiable, rough sample paths.
type Matern32 struct{}

func (Matern32) Name() string { return "matern32" }

func (Matern32) Cov(variance float64, lengthscales, x1, x2 []float64) float64 {
	r := scaledDistance(lengthscales, x1, x2)
	sr := math.Sqrt(3) * r
	return variance * (1 + sr) * math.Exp(-sr)
}

// kernelsByName maps accepted kernel names to implementations.
var kernelsByName = map[string]Kernel{
	"rbf":      RBF{},
	"matern52": Matern52{},
	"matern32": Matern32{},
}

// KernelByName returns the kernel registered under the given name.
func KernelByName(name string) (Kernel, error) {
	k, ok := kernelsByName[name]
	if !ok {
		return nil, fmt.Errorf("unknown kernel %q (want rbf, matern52 or matern32)", name)
	}
	return k, nil
}
