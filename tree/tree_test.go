package tree

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mrestimator/pkg/errors"
)

// TestDecisionTreeRegressor_StepFunction は階段関数を1回の分割で再現できるか確認する
func TestDecisionTreeRegressor_StepFunction(t *testing.T) {
	X := mat.NewDense(8, 2, []float64{
		0, 5,
		1, 3,
		2, 9,
		3, 1,
		10, 4,
		11, 8,
		12, 2,
		13, 6,
	})
	y := mat.NewDense(8, 1, []float64{1, 1, 1, 1, 5, 5, 5, 5})

	dt := NewDecisionTreeRegressor()
	require.NoError(t, dt.Fit(X, y))

	assert.Equal(t, 1, dt.GetDepth())
	assert.Equal(t, 2, dt.GetNLeaves())
	assert.Equal(t, 0, dt.Nodes[0].Feature)
	assert.InDelta(t, 6.5, dt.Nodes[0].Threshold, 1e-12)
	assert.InDeltaSlice(t, []float64{1, 0}, dt.FeatureImportances(), 1e-12)

	pred, err := dt.Predict(mat.NewDense(2, 2, []float64{0.5, 100, 12.5, -100}))
	require.NoError(t, err)
	assert.Equal(t, 1.0, pred.At(0, 0))
	assert.Equal(t, 5.0, pred.At(1, 0))
}

// TestDecisionTreeRegressor_FitsTrainingDataExactly は制約がなければ訓練誤差0になることを確認する
func TestDecisionTreeRegressor_FitsTrainingDataExactly(t *testing.T) {
	n := 30
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		y.Set(i, 0, math.Sin(float64(i)))
	}

	dt := NewDecisionTreeRegressor()
	require.NoError(t, dt.Fit(X, y))

	pred, err := dt.Predict(X)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		assert.InDelta(t, y.At(i, 0), pred.At(i, 0), 1e-12)
	}
}

// TestDecisionTreeRegressor_MaxDepth tests max depth constraint
func TestDecisionTreeRegressor_MaxDepth(t *testing.T) {
	X := mat.NewDense(16, 2, nil)
	y := mat.NewDense(16, 1, nil)
	for i := 0; i < 16; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64(i%4))
		y.Set(i, 0, float64(i%2))
	}

	dt := NewDecisionTreeRegressor(WithMaxDepth(2))
	require.NoError(t, dt.Fit(X, y))
	assert.LessOrEqual(t, dt.GetDepth(), 2)
	assert.LessOrEqual(t, dt.GetNLeaves(), 4)
}

// TestDecisionTreeRegressor_MinSamplesLeaf は全ての葉が min_samples_leaf 以上のサンプルを持つことを確認する
func TestDecisionTreeRegressor_MinSamplesLeaf(t *testing.T) {
	for _, leaf := range []int{1, 5, 10, 50, 100} {
		n := 120
		X := mat.NewDense(n, 1, nil)
		y := mat.NewDense(n, 1, nil)
		for i := 0; i < n; i++ {
			X.Set(i, 0, float64(i))
			y.Set(i, 0, float64(i*i%17))
		}

		dt := NewDecisionTreeRegressor(WithMinSamplesLeaf(leaf))
		require.NoError(t, dt.Fit(X, y))
		for _, node := range dt.Nodes {
			if node.IsLeaf() {
				assert.GreaterOrEqual(t, node.NSamples, leaf, "min_samples_leaf=%d", leaf)
			}
		}
	}
}

// TestDecisionTreeRegressor_ConstantFeature は分割できない入力では葉1つになることを確認する
func TestDecisionTreeRegressor_ConstantFeature(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{2, 2, 2, 2})
	y := mat.NewDense(4, 1, []float64{1, 2, 3, 4})

	dt := NewDecisionTreeRegressor()
	require.NoError(t, dt.Fit(X, y))
	assert.Equal(t, 1, dt.GetNLeaves())
	assert.Equal(t, 2.5, dt.Nodes[0].Value)
}

// TestDecisionTreeRegressor_GetSetParams tests parameter management
func TestDecisionTreeRegressor_GetSetParams(t *testing.T) {
	dt := NewDecisionTreeRegressor()
	params := dt.GetParams()
	assert.Equal(t, "squared_error", params["criterion"])
	assert.Equal(t, 2, params["min_samples_split"])
	assert.Equal(t, 1, params["min_samples_leaf"])

	require.NoError(t, dt.SetParams(map[string]interface{}{
		"max_depth":         5,
		"min_samples_split": 4,
		"min_samples_leaf":  2,
	}))
	assert.Equal(t, 5, dt.MaxDepth)
	assert.Equal(t, 4, dt.MinSamplesSplit)
	assert.Equal(t, 2, dt.MinSamplesLeaf)

	c := dt.Clone().(*DecisionTreeRegressor)
	assert.Equal(t, dt.GetParams(), c.GetParams())

	assert.Error(t, dt.SetParams(map[string]interface{}{"criterion": "gini"}))
	assert.Error(t, dt.SetParams(map[string]interface{}{"n_estimators": 3}))
}

// TestDecisionTreeRegressor_Errors tests invalid usage
func TestDecisionTreeRegressor_Errors(t *testing.T) {
	dt := NewDecisionTreeRegressor()

	_, err := dt.Predict(mat.NewDense(2, 2, []float64{1, 2, 3, 4}))
	var nfe *errors.NotFittedError
	assert.True(t, errors.As(err, &nfe))

	bad := NewDecisionTreeRegressor(WithMinSamplesLeaf(0))
	err = bad.Fit(mat.NewDense(2, 1, []float64{1, 2}), mat.NewDense(2, 1, []float64{1, 2}))
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))
}
