package backtest

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Polynomial holds coefficients in ascending powers of x:
// c[0] + c[1]x + c[2]x^2 + ...
type Polynomial struct {
	Coeffs []float64
}

// Degree of the polynomial
func (p Polynomial) Degree() int { return len(p.Coeffs) - 1 }

// At evaluates the polynomial at x (Horner's rule).
func (p Polynomial) At(x float64) float64 {
	v := 0.0
	for i := len(p.Coeffs) - 1; i >= 0; i-- {
		v = v*x + p.Coeffs[i]
	}
	return v
}

// DegreeFor returns the degree fitted to a sample of n points: quadratic
// once there are more than two points, linear otherwise.
func DegreeFor(n int) int {
	if n > 2 {
		return 2
	}
	return 1
}

// Forecast is the rounded value of p at time coordinate n. Halves round up
// (floor(v + 0.5)), so 2.5 becomes 3 and -2.5 becomes -2.
func Forecast(p Polynomial, n int) float64 {
	return math.Floor(p.At(float64(n)) + 0.5)
}

// Fit finds the least-squares polynomial of the given degree through (x, y)
// by QR factorisation of the Vandermonde matrix.
//
// Returns ErrEmptySample when there are no points and ErrSingular when the
// system is underdetermined or too ill-conditioned to solve.
func Fit(x, y []float64, degree int) (Polynomial, error) {
	// 1. Check the sample can determine the coefficients
	if len(x) != len(y) {
		return Polynomial{}, fmt.Errorf("sample length mismatch: %d x values, %d y values", len(x), len(y))
	}
	if degree < 0 {
		return Polynomial{}, fmt.Errorf("degree must be >= 0, got %d", degree)
	}
	if len(x) == 0 {
		return Polynomial{}, ErrEmptySample
	}

	n, m := len(x), degree+1
	if n < m {
		return Polynomial{}, fmt.Errorf("%w: %d points for %d coefficients", ErrSingular, n, m)
	}

	// 2. Build the design matrix and response vector
	a := vandermonde(x, degree)
	b := mat.NewDense(n, 1, append([]float64(nil), y...))

	// 3. Solve the least-squares system by QR
	var qr mat.QR
	qr.Factorize(a)

	var c mat.Dense
	if err := qr.SolveTo(&c, false, b); err != nil {
		return Polynomial{}, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	// 4. Extract coefficients, rejecting blown-up solutions
	coeffs := make([]float64, m)
	for i := range coeffs {
		coeffs[i] = c.At(i, 0)
		if math.IsNaN(coeffs[i]) || math.IsInf(coeffs[i], 0) {
			return Polynomial{}, fmt.Errorf("%w: coefficient %d is %v", ErrSingular, i, coeffs[i])
		}
	}

	return Polynomial{Coeffs: coeffs}, nil
}

// vandermonde builds the n x (degree+1) design matrix [1, x, x^2, ...].
func vandermonde(x []float64, degree int) *mat.Dense {
	v := mat.NewDense(len(x), degree+1, nil)
	for i := range x {
		for j, p := 0, 1.0; j <= degree; j, p = j+1, p*x[i] {
			v.Set(i, j, p)
		}
	}
	return v
}
