package ensemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mrestimator/linear"
	"github.com/YuminosukeSato/mrestimator/pkg/errors"
	"github.com/YuminosukeSato/mrestimator/tree"
)

func linearData(n int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		a := float64(i) / 10
		b := float64((i*5)%7) / 7
		X.Set(i, 0, a)
		X.Set(i, 1, b)
		y.Set(i, 0, 2*a-b+1)
	}
	return X, y
}

func TestStackingRegressor_LinearBasesRecoverTarget(t *testing.T) {
	X, y := linearData(60)
	s := NewStackingRegressor([]NamedEstimator{
		{Name: "lr", Model: linear.NewLinearRegression()},
		{Name: "dtr", Model: tree.NewDecisionTreeRegressor(tree.WithMinSamplesLeaf(5))},
	}, linear.NewBayesianRidge(), 2)

	require.NoError(t, s.Fit(X, y))
	assert.Len(t, s.FittedEstimators, 2)
	assert.Equal(t, []string{"lr", "dtr"}, s.Names())

	meta, err := s.Transform(X)
	require.NoError(t, err)
	r, c := meta.Dims()
	assert.Equal(t, 60, r)
	assert.Equal(t, 2, c)

	pred, err := s.Predict(X)
	require.NoError(t, err)
	for i := 0; i < 60; i++ {
		assert.InDelta(t, y.At(i, 0), pred.At(i, 0), 1e-3)
	}

	// 元の推定器は学習されない
	assert.False(t, s.Estimators[0].Model.(*linear.LinearRegression).IsFitted())
}

func TestStackingRegressor_CloneIsIndependent(t *testing.T) {
	X, y := linearData(20)
	s := NewStackingRegressor([]NamedEstimator{
		{Name: "lr", Model: linear.NewLinearRegression()},
	}, linear.NewLinearRegression(), 2)
	require.NoError(t, s.Fit(X, y))

	c := s.Clone().(*StackingRegressor)
	assert.False(t, c.IsFitted())
	assert.Equal(t, 2, c.CV)
	assert.Nil(t, c.FittedEstimators)
	assert.NotSame(t, s.Estimators[0].Model, c.Estimators[0].Model)
}

func TestStackingRegressor_Errors(t *testing.T) {
	X, y := linearData(10)

	_, err := NewStackingRegressor(nil, linear.NewLinearRegression(), 2).Predict(X)
	var nfe *errors.NotFittedError
	assert.True(t, errors.As(err, &nfe))

	assert.Error(t, NewStackingRegressor(nil, linear.NewLinearRegression(), 2).Fit(X, y))
	assert.Error(t, NewStackingRegressor([]NamedEstimator{
		{Name: "lr", Model: linear.NewLinearRegression()},
	}, nil, 2).Fit(X, y))
}
