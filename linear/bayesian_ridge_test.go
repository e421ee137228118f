package linear

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mrestimator/core/model"
	"github.com/YuminosukeSato/mrestimator/pkg/errors"
)

func TestBayesianRidge_ApproachesOLSOnCleanData(t *testing.T) {
	X, y := makeLinearData(200, true)

	br := NewBayesianRidge()
	require.NoError(t, br.Fit(X, y))

	ols := NewLinearRegression()
	require.NoError(t, ols.Fit(X, y))

	// 十分なデータでは事前分布の影響は小さい
	assert.InDeltaSlice(t, ols.Weights, br.Coef, 0.05)
	assert.InDelta(t, ols.Intercept, br.Intercept, 0.05)
	assert.Greater(t, br.Alpha, 0.0)
	assert.Greater(t, br.Lambda, 0.0)
	assert.LessOrEqual(t, br.NIter, br.MaxIter)

	score, err := br.Score(X, y)
	require.NoError(t, err)
	assert.Greater(t, score, 0.99)
}

func TestBayesianRidge_ShrinksIrrelevantFeature(t *testing.T) {
	// 2列目は y と無関係
	n := 50
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x := float64(i) / 10
		X.Set(i, 0, x)
		X.Set(i, 1, float64((i*7)%11)/11-0.5)
		y.Set(i, 0, 1.5*x+0.3)
	}

	br := NewBayesianRidge()
	require.NoError(t, br.Fit(X, y))
	assert.InDelta(t, 1.5, br.Coef[0], 1e-3)
	assert.InDelta(t, 0.0, br.Coef[1], 1e-3)
}

func TestBayesianRidge_PredictBeforeFit(t *testing.T) {
	_, err := NewBayesianRidge().Predict(mat.NewDense(1, 2, nil))
	var nfe *errors.NotFittedError
	assert.True(t, errors.As(err, &nfe))
}

func TestBayesianRidge_CloneAndParams(t *testing.T) {
	br := NewBayesianRidge(WithMaxIter(50), WithTol(1e-4), WithLambdaPrior(1e-3, 1e-3))
	c := br.Clone().(*BayesianRidge)

	assert.Equal(t, br.GetParams(), c.GetParams())
	assert.False(t, c.IsFitted())

	require.NoError(t, c.SetParams(map[string]interface{}{"max_iter": 10, "tol": 0.1}))
	assert.Equal(t, 10, c.MaxIter)
	assert.Equal(t, 0.1, c.Tol)
	assert.Error(t, c.SetParams(map[string]interface{}{"max_iter": "ten"}))
	assert.Error(t, c.SetParams(map[string]interface{}{"gamma": 1}))

	var _ model.Cloner = c
}
