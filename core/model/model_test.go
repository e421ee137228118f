package model

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mrestimator/pkg/errors"
)

type meanModel struct {
	BaseEstimator
	Mean float64
}

func (m *meanModel) Fit(X, y mat.Matrix) error {
	r, _, err := CheckXY("meanModel.Fit", X, y)
	if err != nil {
		return err
	}
	for _, v := range Column(y) {
		m.Mean += v
	}
	m.Mean /= float64(r)
	m.SetFitted()
	return nil
}

func (m *meanModel) Predict(X mat.Matrix) (mat.Matrix, error) {
	r, _ := X.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		out.Set(i, 0, m.Mean)
	}
	return out, nil
}

func TestBaseEstimator_State(t *testing.T) {
	var e BaseEstimator
	assert.False(t, e.IsFitted())
	e.SetFitted()
	assert.True(t, e.IsFitted())
	e.Reset()
	assert.False(t, e.IsFitted())
}

func TestCheckXY(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})

	r, c, err := CheckXY("op", X, mat.NewDense(3, 1, []float64{1, 2, 3}))
	require.NoError(t, err)
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, c)

	_, _, err = CheckXY("op", X, mat.NewDense(2, 1, []float64{1, 2}))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))

	_, _, err = CheckXY("op", X, mat.NewDense(3, 2, nil))
	assert.Error(t, err)
}

func TestClone_RequiresCloner(t *testing.T) {
	_, err := Clone(&meanModel{})
	assert.Error(t, err)
}

func TestParamHelpers(t *testing.T) {
	f, err := ParamFloat("C", 10)
	require.NoError(t, err)
	assert.Equal(t, 10.0, f)

	i, err := ParamInt("min_samples_leaf", 50.0)
	require.NoError(t, err)
	assert.Equal(t, 50, i)

	_, err = ParamInt("min_samples_leaf", 2.5)
	assert.Error(t, err)

	_, err = ParamString("kernel", 1)
	assert.Error(t, err)
}

func TestSubsetRows(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	sub := SubsetRows(X, []int{2, 0})
	assert.Equal(t, []float64{5, 6}, sub.RawRowView(0))
	assert.Equal(t, []float64{1, 2}, sub.RawRowView(1))
}

func TestSaveLoadCompressed(t *testing.T) {
	m := &meanModel{}
	require.NoError(t, m.Fit(mat.NewDense(2, 1, []float64{0, 1}), mat.NewDense(2, 1, []float64{2, 4})))

	path := filepath.Join(t.TempDir(), "mean.gob.xz")
	require.NoError(t, SaveCompressed(m, path))

	var loaded meanModel
	require.NoError(t, LoadCompressed(&loaded, path))
	assert.True(t, loaded.IsFitted())
	assert.InDelta(t, 3.0, loaded.Mean, 1e-12)

	plain := filepath.Join(t.TempDir(), "mean.gob")
	require.NoError(t, SaveModel(m, plain))
	var again meanModel
	require.NoError(t, LoadModel(&again, plain))
	assert.Equal(t, m.Mean, again.Mean)
}
