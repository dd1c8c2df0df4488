package model

import (
	"errors"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var errNotPositiveDefinite = errors.New("matrix is not positive definite")

// standardize returns the samples' inputs as an n×p matrix of z-scores along
// with the column means and scales used. Constant inputs get scale 1.
func standardize(samples []Sample, p int) (*mat.Dense, []float64, []float64) {
	z := mat.NewDense(len(samples), p, nil)
	for i, s := range samples {
		z.SetRow(i, s.Inputs)
	}

	means := make([]float64, p)
	scales := make([]float64, p)
	col := make([]float64, len(samples))
	for j := 0; j < p; j++ {
		mat.Col(col, j, z)
		means[j], scales[j] = stat.PopMeanStdDev(col, nil)
		if scales[j] < 1e-12 {
			scales[j] = 1
		}
	}

	z.Apply(func(_, j int, v float64) float64 {
		return (v - means[j]) / scales[j]
	}, z)
	return z, means, scales
}

// ridgeGram returns ZᵀZ + λI.
func ridgeGram(z *mat.Dense, lambda float64) *mat.SymDense {
	var g mat.SymDense
	g.SymOuterK(1, z.T())
	n := g.SymmetricDim()
	for i := 0; i < n; i++ {
		g.SetSym(i, i, g.At(i, i)+lambda)
	}
	return &g
}

// solveCholesky solves A x = b for symmetric positive-definite A.
func solveCholesky(a *mat.SymDense, b *mat.VecDense) ([]float64, error) {
	var chol mat.Cholesky
	if !chol.Factorize(a) {
		return nil, errNotPositiveDefinite
	}
	var x mat.VecDense
	if err := chol.SolveVecTo(&x, b); err != nil {
		return nil, err
	}
	return mat.Col(nil, 0, &x), nil
}
