// Package objectives provides benchmark functions in the shape of
// optimization.ObjectiveFunction. The maximizer climbs, so the classic
// minimization benchmarks are also offered negated.
package objectives

import (
	"errors"
	"fmt"
	"math"
)

// ErrDimension is returned when a function is called with a vector it is not
// defined for.
var ErrDimension = errors.New("unsupported dimension")

// Sphere returns the sum of squares.
func Sphere(x []float64) (float64, error) {
	sum := 0.0
	for _, v := range x {
		sum += v * v
	}
	return sum, nil
}

// NegSphere is the negated Sphere function, maximal at the origin.
func NegSphere(x []float64) (float64, error) {
	return negate(Sphere)(x)
}

// Rastrigin is 10n + sum(x^2 - 10 cos(2 pi x)), minimal at the origin.
func Rastrigin(x []float64) (float64, error) {
	sum := 10.0 * float64(len(x))
	for _, v := range x {
		sum += v*v - 10.0*math.Cos(2.0*math.Pi*v)
	}
	return sum, nil
}

// NegRastrigin is the negated Rastrigin function.
func NegRastrigin(x []float64) (float64, error) {
	return negate(Rastrigin)(x)
}

// NegRosenbrock is the negated Rosenbrock valley, maximal at (1, ..., 1).
func NegRosenbrock(x []float64) (float64, error) {
	if len(x) < 2 {
		return 0, fmt.Errorf("rosenbrock needs at least 2 dimensions, got %d: %w", len(x), ErrDimension)
	}
	sum := 0.0
	for i := 0; i < len(x)-1; i++ {
		a := x[i+1] - x[i]*x[i]
		b := 1.0 - x[i]
		sum += 100.0*a*a + b*b
	}
	return -sum, nil
}

// NegAckley is the negated Ackley function, maximal at the origin with value 0.
func NegAckley(x []float64) (float64, error) {
	if len(x) == 0 {
		return 0, fmt.Errorf("ackley needs at least 1 dimension: %w", ErrDimension)
	}
	n := float64(len(x))
	sumSq, sumCos := 0.0, 0.0
	for _, v := range x {
		sumSq += v * v
		sumCos += math.Cos(2.0 * math.Pi * v)
	}
	f := -20.0*math.Exp(-0.2*math.Sqrt(sumSq/n)) - math.Exp(sumCos/n) + 20.0 + math.E
	return -f, nil
}

// NegEggholder is the negated two dimensional Eggholder function. On
// [-512, 512]^2 its maximum is about 959.6407 at (512, 404.2319).
func NegEggholder(x []float64) (float64, error) {
	if len(x) != 2 {
		return 0, fmt.Errorf("eggholder is defined in 2 dimensions, got %d: %w", len(x), ErrDimension)
	}
	a, b := x[0], x[1]+47
	f := -b*math.Sin(math.Sqrt(math.Abs(a/2+b))) - a*math.Sin(math.Sqrt(math.Abs(a-b)))
	return -f, nil
}

type function func([]float64) (float64, error)

func negate(fn function) function {
	return func(x []float64) (float64, error) {
		v, err := fn(x)
		return -v, err
	}
}
