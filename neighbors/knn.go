// Package neighbors は k 近傍回帰を提供する
package neighbors

import (
	"cmp"
	"math"
	"slices"

	"github.com/YuminosukeSato/mrestimator/core/model"
	"github.com/YuminosukeSato/mrestimator/core/parallel"
	"github.com/YuminosukeSato/mrestimator/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// KNeighborsRegressor は近傍 k 点の目的変数の平均で予測する。
// 距離はユークリッド距離、全点探索
type KNeighborsRegressor struct {
	model.BaseEstimator

	// NNeighbors は近傍点の数 (デフォルト: 5)
	NNeighbors int
	// Weights は "uniform" (デフォルト) または "distance"
	Weights string

	X         [][]float64
	Y         []float64
	NFeatures int
}

// Option は KNeighborsRegressor を設定する関数
type Option func(*KNeighborsRegressor)

// WithNNeighbors sets k
func WithNNeighbors(k int) Option {
	return func(knn *KNeighborsRegressor) {
		knn.NNeighbors = k
	}
}

// WithWeights sets the neighbour weighting: "uniform" or "distance"
func WithWeights(w string) Option {
	return func(knn *KNeighborsRegressor) {
		knn.Weights = w
	}
}

// NewKNeighborsRegressor は新しい k 近傍回帰を作成する
func NewKNeighborsRegressor(opts ...Option) *KNeighborsRegressor {
	knn := &KNeighborsRegressor{NNeighbors: 5, Weights: "uniform"}
	for _, opt := range opts {
		opt(knn)
	}
	return knn
}

// Fit は訓練データを保持する
func (knn *KNeighborsRegressor) Fit(X, y mat.Matrix) error {
	n, c, err := model.CheckXY("KNeighborsRegressor.Fit", X, y)
	if err != nil {
		return err
	}
	if knn.NNeighbors <= 0 {
		return errors.NewValidationError("n_neighbors", "must be positive", knn.NNeighbors)
	}
	if knn.NNeighbors > n {
		return errors.NewValueError("KNeighborsRegressor.Fit", "n_neighbors must not exceed the number of samples")
	}
	if knn.Weights != "uniform" && knn.Weights != "distance" {
		return errors.NewValidationError("weights", "must be uniform or distance", knn.Weights)
	}

	knn.X = model.Rows(X)
	knn.Y = model.Column(y)
	knn.NFeatures = c
	knn.SetFitted()
	return nil
}

type neighbor struct {
	index int
	dist  float64
}

// Predict は各行の近傍 k 点を探して予測する
func (knn *KNeighborsRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !knn.IsFitted() {
		return nil, errors.NewNotFittedError("KNeighborsRegressor", "Predict")
	}
	r, err := model.CheckPredictInput("KNeighborsRegressor.Predict", X, knn.NFeatures)
	if err != nil {
		return nil, err
	}

	rows := model.Rows(X)
	out := make([]float64, r)
	parallel.ParallelizeWithThreshold(r, 64, func(start, end int) {
		buf := make([]neighbor, len(knn.X))
		for i := start; i < end; i++ {
			out[i] = knn.predictRow(rows[i], buf)
		}
	})
	return model.ColumnVector(out), nil
}

func (knn *KNeighborsRegressor) predictRow(row []float64, buf []neighbor) float64 {
	for j, x := range knn.X {
		d2 := 0.0
		for f := range x {
			diff := x[f] - row[f]
			d2 += diff * diff
		}
		buf[j] = neighbor{index: j, dist: math.Sqrt(d2)}
	}
	// 同距離の場合は訓練データの順序を優先する
	slices.SortStableFunc(buf, func(a, b neighbor) int {
		return cmp.Compare(a.dist, b.dist)
	})
	nearest := buf[:knn.NNeighbors]

	if knn.Weights == "distance" {
		// 距離0の点があればそれらだけの平均
		sum, cnt := 0.0, 0
		for _, nb := range nearest {
			if nb.dist == 0 {
				sum += knn.Y[nb.index]
				cnt++
			}
		}
		if cnt > 0 {
			return sum / float64(cnt)
		}
		num, den := 0.0, 0.0
		for _, nb := range nearest {
			w := 1 / nb.dist
			num += w * knn.Y[nb.index]
			den += w
		}
		return num / den
	}

	sum := 0.0
	for _, nb := range nearest {
		sum += knn.Y[nb.index]
	}
	return sum / float64(len(nearest))
}

// Clone は同じハイパーパラメータの未学習モデルを返す
func (knn *KNeighborsRegressor) Clone() model.Regressor {
	return NewKNeighborsRegressor(WithNNeighbors(knn.NNeighbors), WithWeights(knn.Weights))
}

// GetParams はハイパーパラメータを返す
func (knn *KNeighborsRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_neighbors": knn.NNeighbors,
		"weights":     knn.Weights,
	}
}

// SetParams はハイパーパラメータを設定する
func (knn *KNeighborsRegressor) SetParams(params map[string]interface{}) error {
	for k, v := range params {
		var err error
		switch k {
		case "n_neighbors":
			knn.NNeighbors, err = model.ParamInt(k, v)
		case "weights":
			knn.Weights, err = model.ParamString(k, v)
		default:
			return model.UnknownParam("KNeighborsRegressor", k)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
