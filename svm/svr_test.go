package svm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mrestimator/metrics"
	"github.com/YuminosukeSato/mrestimator/pkg/errors"
)

func TestSVR_RBFFitsSine(t *testing.T) {
	n := 80
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x := float64(i)/float64(n)*6 - 3
		X.Set(i, 0, x)
		y.Set(i, 0, math.Sin(x))
	}

	s := NewSVR(WithGamma(1), WithC(10))
	require.NoError(t, s.Fit(X, y))
	assert.Greater(t, s.NSupport(), 0)
	assert.Less(t, s.NSupport(), n)

	pred, err := s.Predict(X)
	require.NoError(t, err)
	mae, err := metrics.MAEMatrix(y, pred)
	require.NoError(t, err)
	assert.Less(t, mae, 0.12)
}

func TestSVR_LinearKernelStaysInsideTube(t *testing.T) {
	n := 21
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x := float64(i)/10 - 1
		X.Set(i, 0, x)
		y.Set(i, 0, 2*x+0.5)
	}

	s := NewSVR(WithKernel("linear"), WithC(100), WithEpsilon(0.05), WithTol(1e-4), WithMaxIter(10000))
	require.NoError(t, s.Fit(X, y))

	pred, err := s.Predict(X)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		assert.InDelta(t, y.At(i, 0), pred.At(i, 0), 0.06)
	}
}

func TestSVR_ConvergenceWarning(t *testing.T) {
	var warnings []error
	errors.SetZerologWarnFunc(nil)
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(func(error) {})

	X := mat.NewDense(30, 1, nil)
	y := mat.NewDense(30, 1, nil)
	for i := 0; i < 30; i++ {
		X.Set(i, 0, float64(i))
		y.Set(i, 0, float64(i*i))
	}
	s := NewSVR(WithMaxIter(1), WithC(1000), WithGamma(1e-4))
	require.NoError(t, s.Fit(X, y))

	require.Len(t, warnings, 1)
	var cw *errors.ConvergenceWarning
	assert.True(t, errors.As(warnings[0], &cw))
	assert.Equal(t, "SVR", cw.Algorithm)
}

func TestSVR_ParamsAndErrors(t *testing.T) {
	s := NewSVR()
	assert.Equal(t, "rbf", s.Kernel)
	assert.Equal(t, 0.1, s.Epsilon)

	require.NoError(t, s.SetParams(map[string]interface{}{"gamma": 1e-3, "C": 10}))
	assert.Equal(t, 1e-3, s.Gamma)
	assert.Equal(t, 10.0, s.C)
	require.NoError(t, s.SetParams(map[string]interface{}{"gamma": "scale"}))
	assert.Equal(t, 0.0, s.Gamma)
	assert.Error(t, s.SetParams(map[string]interface{}{"degree": 3}))

	c := s.Clone().(*SVR)
	assert.Equal(t, s.GetParams(), c.GetParams())

	_, err := s.Predict(mat.NewDense(1, 1, nil))
	var nfe *errors.NotFittedError
	assert.True(t, errors.As(err, &nfe))

	bad := NewSVR(WithKernel("poly"))
	err = bad.Fit(mat.NewDense(2, 1, []float64{0, 1}), mat.NewDense(2, 1, []float64{0, 1}))
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestScaleGamma(t *testing.T) {
	X := mat.NewDense(2, 2, []float64{0, 0, 2, 2})
	// var = 1, n_features = 2
	assert.InDelta(t, 0.5, scaleGamma(X), 1e-12)
	assert.Equal(t, 1.0, scaleGamma(mat.NewDense(2, 1, []float64{3, 3})))
}
