package neighbors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mrestimator/pkg/errors"
)

func TestKNeighborsRegressor_UniformMean(t *testing.T) {
	X := mat.NewDense(6, 1, []float64{0, 1, 2, 3, 10, 11})
	y := mat.NewDense(6, 1, []float64{0, 1, 2, 3, 10, 11})

	knn := NewKNeighborsRegressor(WithNNeighbors(2))
	require.NoError(t, knn.Fit(X, y))

	pred, err := knn.Predict(mat.NewDense(3, 1, []float64{0.4, 10.6, 6.4}))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, pred.At(0, 0), 1e-12)
	assert.InDelta(t, 10.5, pred.At(1, 0), 1e-12)
	// 6.4 に近いのは 3 (3.4) と 10 (3.6)
	assert.InDelta(t, 6.5, pred.At(2, 0), 1e-12)
}

func TestKNeighborsRegressor_DefaultFiveNeighbors(t *testing.T) {
	X := mat.NewDense(7, 2, nil)
	y := mat.NewDense(7, 1, nil)
	for i := 0; i < 7; i++ {
		X.Set(i, 0, float64(i))
		y.Set(i, 0, float64(i*i))
	}
	knn := NewKNeighborsRegressor()
	require.NoError(t, knn.Fit(X, y))

	pred, err := knn.Predict(mat.NewDense(1, 2, []float64{0, 0}))
	require.NoError(t, err)
	// (0 + 1 + 4 + 9 + 16) / 5
	assert.InDelta(t, 6.0, pred.At(0, 0), 1e-12)
}

func TestKNeighborsRegressor_DistanceWeights(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{0, 3})
	y := mat.NewDense(2, 1, []float64{0, 3})

	knn := NewKNeighborsRegressor(WithNNeighbors(2), WithWeights("distance"))
	require.NoError(t, knn.Fit(X, y))

	pred, err := knn.Predict(mat.NewDense(2, 1, []float64{1, 3}))
	require.NoError(t, err)
	// 重み 1/1 と 1/2
	assert.InDelta(t, 1.0, pred.At(0, 0), 1e-12)
	assert.InDelta(t, 3.0, pred.At(1, 0), 1e-12)
}

func TestKNeighborsRegressor_Errors(t *testing.T) {
	knn := NewKNeighborsRegressor()
	_, err := knn.Predict(mat.NewDense(1, 1, nil))
	var nfe *errors.NotFittedError
	assert.True(t, errors.As(err, &nfe))

	// k > n
	err = knn.Fit(mat.NewDense(3, 1, nil), mat.NewDense(3, 1, nil))
	var ve *errors.ValueError
	assert.True(t, errors.As(err, &ve))

	require.NoError(t, knn.SetParams(map[string]interface{}{"n_neighbors": 1}))
	assert.Equal(t, 1, knn.Clone().(*KNeighborsRegressor).NNeighbors)
	assert.Error(t, knn.SetParams(map[string]interface{}{"metric": "manhattan"}))
}
