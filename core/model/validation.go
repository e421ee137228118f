package model

import (
	"github.com/YuminosukeSato/mrestimator/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// CheckXY は学習データの形状を検証し、行数と列数を返す
func CheckXY(op string, X, y mat.Matrix) (int, int, error) {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return 0, 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}

	ry, cy := y.Dims()
	if ry != r {
		return 0, 0, errors.NewDimensionError(op, r, ry, 0)
	}
	if cy != 1 {
		return 0, 0, errors.NewValueError(op, "y must be a column vector")
	}
	return r, c, nil
}

// CheckPredictInput は予測入力の特徴量数を検証し、行数を返す
func CheckPredictInput(op string, X mat.Matrix, nFeatures int) (int, error) {
	r, c := X.Dims()
	if c != nFeatures {
		return 0, errors.NewDimensionError(op, nFeatures, c, 1)
	}
	return r, nil
}

// Column は y の最初の列を []float64 として取り出す
func Column(y mat.Matrix) []float64 {
	r, _ := y.Dims()
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		out[i] = y.At(i, 0)
	}
	return out
}

// Rows は X の行を [][]float64 にコピーする
func Rows(X mat.Matrix) [][]float64 {
	r, c := X.Dims()
	out := make([][]float64, r)
	for i := 0; i < r; i++ {
		row := make([]float64, c)
		for j := 0; j < c; j++ {
			row[j] = X.At(i, j)
		}
		out[i] = row
	}
	return out
}

// SubsetRows は indices の行だけを持つ新しい行列を返す
func SubsetRows(X mat.Matrix, indices []int) *mat.Dense {
	_, c := X.Dims()
	out := mat.NewDense(len(indices), c, nil)
	for i, idx := range indices {
		for j := 0; j < c; j++ {
			out.Set(i, j, X.At(idx, j))
		}
	}
	return out
}

// ColumnVector は値を n×1 の行列に包む
func ColumnVector(values []float64) *mat.Dense {
	return mat.NewDense(len(values), 1, values)
}
