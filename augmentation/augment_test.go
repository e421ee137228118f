package augmentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mrestimator/pkg/errors"
)

// toy は R レコード、2特徴量の3列組データ
func toy(r int, lo, hi float64) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(r, 6, nil)
	y := mat.NewDense(r, 3, nil)
	for i := 0; i < r; i++ {
		X.SetRow(i, []float64{float64(i), lo, hi, 100 + float64(i), 2 * lo, 2 * hi})
		y.SetRow(i, []float64{float64(i) / 10, lo / 10, hi / 10})
	}
	return X, y
}

func TestAugment_RowCount(t *testing.T) {
	for _, r := range []int{1, 3, 7} {
		for _, k := range []int{0, 1, 3, 10} {
			X, y := toy(r, 0.5, 1.5)
			XAug, yAug, err := Augment(X, y, k, NewSource(DefaultSeed))
			require.NoError(t, err)

			rows, cols := XAug.Dims()
			assert.Equal(t, r*(k+1), rows, "R=%d K=%d", r, k)
			assert.Equal(t, 2, cols)
			assert.Equal(t, r*(k+1), yAug.Len())
		}
	}
}

func TestAugment_ZeroIsIdentity(t *testing.T) {
	X, y := toy(4, 0.5, 1.5)
	XAug, yAug, err := Augment(X, y, 0, nil)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		assert.Equal(t, X.At(i, 0), XAug.At(i, 0))
		assert.Equal(t, X.At(i, 3), XAug.At(i, 1))
		assert.Equal(t, y.At(i, 0), yAug.AtVec(i))
	}
}

func TestAugment_SamplesWithinBounds(t *testing.T) {
	X, y := toy(5, 0.3, 0.7)
	k := 20
	XAug, yAug, err := Augment(X, y, k, NewSource(42))
	require.NoError(t, err)

	const eps = 1e-9
	for i := 0; i < 5; i++ {
		for s := 1; s <= k; s++ {
			row := i*(k+1) + s
			assert.GreaterOrEqual(t, XAug.At(row, 0), X.At(i, 0)-0.3-eps)
			assert.LessOrEqual(t, XAug.At(row, 0), X.At(i, 0)+0.7+eps)
			assert.GreaterOrEqual(t, XAug.At(row, 1), X.At(i, 3)-0.6-eps)
			assert.LessOrEqual(t, XAug.At(row, 1), X.At(i, 3)+1.4+eps)
			assert.GreaterOrEqual(t, yAug.AtVec(row), y.At(i, 0)-0.03-eps)
			assert.LessOrEqual(t, yAug.AtVec(row), y.At(i, 0)+0.07+eps)
		}
	}
}

func TestAugment_CanonicalStride(t *testing.T) {
	X, y := toy(6, 1, 1)
	k := 4
	XAug, yAug, err := Augment(X, y, k, NewSource(DefaultSeed))
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		row := i * (k + 1)
		assert.Equal(t, X.At(i, 0), XAug.At(row, 0))
		assert.Equal(t, X.At(i, 3), XAug.At(row, 1))
		assert.Equal(t, y.At(i, 0), yAug.AtVec(row))
	}
}

func TestAugment_ZeroWidthBoundsRepeatSource(t *testing.T) {
	// 5 レコード、誤差0、K=3 -> 20 行で合成行は元の行と同じ
	X, y := toy(5, 0, 0)
	XAug, yAug, err := Augment(X, y, 3, NewSource(DefaultSeed))
	require.NoError(t, err)

	rows, _ := XAug.Dims()
	require.Equal(t, 20, rows)
	for row := 0; row < 20; row++ {
		src := row / 4
		assert.Equal(t, X.At(src, 0), XAug.At(row, 0))
		assert.Equal(t, X.At(src, 3), XAug.At(row, 1))
		assert.Equal(t, y.At(src, 0), yAug.AtVec(row))
	}
}

func TestAugment_Deterministic(t *testing.T) {
	X, y := toy(3, 1, 2)
	a, ya, err := Augment(X, y, 5, NewSource(DefaultSeed))
	require.NoError(t, err)
	b, yb, err := Augment(X, y, 5, NewSource(DefaultSeed))
	require.NoError(t, err)
	assert.True(t, mat.Equal(a, b))
	assert.True(t, mat.Equal(ya, yb))

	c, _, err := Augment(X, y, 5, NewSource(2))
	require.NoError(t, err)
	assert.False(t, mat.Equal(a, c))
}

func TestAugment_Errors(t *testing.T) {
	X, y := toy(2, 1, 1)

	_, _, err := Augment(X, y, -1, NewSource(1))
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))

	_, _, err = Augment(mat.NewDense(2, 4, nil), y, 1, NewSource(1))
	assert.Error(t, err)

	_, _, err = Augment(X, mat.NewDense(2, 2, nil), 1, NewSource(1))
	assert.Error(t, err)

	_, _, err = Augment(X, mat.NewDense(3, 3, nil), 1, NewSource(1))
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))

	neg, _ := toy(2, -1, 1)
	_, _, err = Augment(neg, y, 1, NewSource(1))
	assert.True(t, errors.As(err, &ve))

	_, _, err = Augment(X, y, 1, nil)
	assert.Error(t, err)
}

func TestSplit(t *testing.T) {
	X := mat.NewDense(1, 6, []float64{1, 0.1, 0.2, 2, 0.3, 0.4})
	v, b, err := Split(X)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, v.RawRowView(0))
	assert.Equal(t, []float64{0.1, 0.2, 0.3, 0.4}, b.RawRowView(0))
}
