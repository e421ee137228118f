package linear

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mrestimator/core/model"
	"github.com/YuminosukeSato/mrestimator/pkg/errors"
)

// makeLinearData は y = 2*x1 + 3*x2 - x3 + 5 の決定的なデータを作る
func makeLinearData(n int, noise bool) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(n, 3, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, math.Sin(float64(i)/10.0))
		X.Set(i, 1, math.Cos(float64(i)/10.0))
		X.Set(i, 2, float64(i)/50.0)
		v := 2*X.At(i, 0) + 3*X.At(i, 1) - X.At(i, 2) + 5
		if noise {
			v += float64(i%5) / 100.0
		}
		y.Set(i, 0, v)
	}
	return X, y
}

func TestLinearRegression_RecoversCoefficients(t *testing.T) {
	X, y := makeLinearData(100, false)

	lr := NewLinearRegression()
	require.NoError(t, lr.Fit(X, y))

	assert.InDeltaSlice(t, []float64{2, 3, -1}, lr.Weights, 1e-8)
	assert.InDelta(t, 5.0, lr.Intercept, 1e-8)

	score, err := lr.Score(X, y)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-10)
}

func TestLinearRegression_WithoutIntercept(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{2, 4, 6, 8})

	lr := NewLinearRegression(WithFitIntercept(false))
	require.NoError(t, lr.Fit(X, y))

	assert.Equal(t, 0.0, lr.Intercept)
	assert.InDelta(t, 2.0, lr.Weights[0], 1e-10)
}

func TestLinearRegression_Errors(t *testing.T) {
	lr := NewLinearRegression()

	_, err := lr.Predict(mat.NewDense(1, 3, nil))
	var nfe *errors.NotFittedError
	assert.True(t, errors.As(err, &nfe))

	// 列が完全に共線なら特異行列
	X := mat.NewDense(4, 2, []float64{1, 2, 2, 4, 3, 6, 4, 8})
	y := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	err = lr.Fit(X, y)
	assert.True(t, errors.Is(err, errors.ErrSingularMatrix))

	Xg, yg := makeLinearData(20, false)
	require.NoError(t, lr.Fit(Xg, yg))
	_, err = lr.Predict(mat.NewDense(2, 5, nil))
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))
}

func TestLinearRegression_CloneIsUnfitted(t *testing.T) {
	X, y := makeLinearData(30, true)
	lr := NewLinearRegression(WithFitIntercept(false))
	require.NoError(t, lr.Fit(X, y))

	c := lr.Clone().(*LinearRegression)
	assert.False(t, c.IsFitted())
	assert.False(t, c.FitIntercept)
	assert.Nil(t, c.Weights)

	require.NoError(t, c.SetParams(map[string]interface{}{"fit_intercept": true}))
	assert.True(t, c.FitIntercept)
	assert.Error(t, c.SetParams(map[string]interface{}{"alpha": 1.0}))

	var _ model.Regressor = c
	var _ model.ParamSetter = c
}
