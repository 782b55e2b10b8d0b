package attribution

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Fit is an ordinary least squares fit with intercept.
type Fit struct {
	Intercept    float64
	Coefficients []float64
	RSquared     float64
}

// OLS regresses y on the columns of features plus an intercept.
// features[i] is the i-th observation.
func OLS(features [][]float64, y []float64) (Fit, error) {
	n := len(y)
	if n == 0 || len(features) != n {
		return Fit{}, fmt.Errorf("have %d observations for %d targets", len(features), n)
	}
	k := len(features[0])
	if n < k+1 {
		return Fit{}, fmt.Errorf("%d observations cannot determine %d parameters", n, k+1)
	}

	x := mat.NewDense(n, k+1, nil)
	for i, row := range features {
		if len(row) != k {
			return Fit{}, fmt.Errorf("observation %d has %d features, want %d", i, len(row), k)
		}
		x.Set(i, 0, 1)
		for j, v := range row {
			x.Set(i, j+1, v)
		}
	}

	var beta mat.VecDense
	if err := beta.SolveVec(x, mat.NewVecDense(n, append([]float64(nil), y...))); err != nil {
		var cond mat.Condition
		if errors.As(err, &cond) {
			return Fit{}, fmt.Errorf("design matrix is singular (condition %.3g)", float64(cond))
		}
		return Fit{}, fmt.Errorf("least squares solve failed: %w", err)
	}

	fit := Fit{
		Intercept:    beta.AtVec(0),
		Coefficients: make([]float64, k),
	}
	for j := 0; j < k; j++ {
		fit.Coefficients[j] = beta.AtVec(j + 1)
	}
	for _, c := range append([]float64{fit.Intercept}, fit.Coefficients...) {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return Fit{}, errors.New("least squares produced non-finite coefficients")
		}
	}

	var fitted mat.VecDense
	fitted.MulVec(x, &beta)

	mean := stat.Mean(y, nil)
	var ssRes, ssTot float64
	for i, v := range y {
		r := v - fitted.AtVec(i)
		ssRes += r * r
		d := v - mean
		ssTot += d * d
	}
	if ssTot > 0 {
		fit.RSquared = 1 - ssRes/ssTot
	}

	return fit, nil
}
