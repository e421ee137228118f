// Package augmentation は測定誤差の範囲内で一様にサンプリングして訓練データを増やす
package augmentation

import (
	"math/rand/v2"

	"github.com/YuminosukeSato/mrestimator/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultSeed は拡張に使う乱数の既定のシード
const DefaultSeed uint64 = 1

// NewSource は seed で初期化した乱数源を返す。
// 同じ seed なら同じ入力に対して同じ拡張結果になる
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed)
}

// Split は (値, 下側誤差, 上側誤差) の3列組を値の行列 (n x f) と
// 誤差の行列 (n x 2f, 特徴量ごとに下側・上側) に分ける
func Split(X mat.Matrix) (values, bounds *mat.Dense, err error) {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return nil, nil, errors.NewModelError("augmentation.Split", "empty data", errors.ErrEmptyData)
	}
	if c%3 != 0 {
		return nil, nil, errors.NewValueError("augmentation.Split",
			"columns must come in (value, lower, upper) triples")
	}

	f := c / 3
	values = mat.NewDense(r, f, nil)
	bounds = mat.NewDense(r, 2*f, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < f; j++ {
			values.Set(i, j, X.At(i, 3*j))
			bounds.Set(i, 2*j, X.At(i, 3*j+1))
			bounds.Set(i, 2*j+1, X.At(i, 3*j+2))
		}
	}
	return values, bounds, nil
}

// Augment は各レコードについて元の点と、誤差区間 [v-lo, v+hi] から一様に引いた
// k 個の合成点を出力する。出力の行数は R*(k+1) で、元の点は k+1 行ごとに元の順で並ぶ。
//
// 乱数はレコードごとに、目的変数の k 個、続いて特徴量ごとに k 個の順に消費する。
// k == 0 の場合は値をそのまま返し、src は使わない。
// 幅0の区間はその値を返す
func Augment(X, y mat.Matrix, k int, src rand.Source) (*mat.Dense, *mat.VecDense, error) {
	if k < 0 {
		return nil, nil, errors.NewValidationError("n_samples", "must be non-negative", k)
	}
	xv, xb, err := Split(X)
	if err != nil {
		return nil, nil, err
	}
	rx, _ := X.Dims()
	ry, cy := y.Dims()
	if cy != 3 {
		return nil, nil, errors.NewValueError("augmentation.Augment",
			"target must be a single (value, lower, upper) triple")
	}
	if ry != rx {
		return nil, nil, errors.NewDimensionError("augmentation.Augment", rx, ry, 0)
	}
	yv, yb, err := Split(y)
	if err != nil {
		return nil, nil, err
	}

	if err := checkBounds(xb); err != nil {
		return nil, nil, err
	}
	if err := checkBounds(yb); err != nil {
		return nil, nil, err
	}

	if k == 0 {
		return xv, mat.VecDenseCopyOf(yv.ColView(0)), nil
	}
	if src == nil {
		return nil, nil, errors.NewValueError("augmentation.Augment", "random source is required when n_samples > 0")
	}

	_, f := xv.Dims()
	outRows := rx * (k + 1)
	XAug := mat.NewDense(outRows, f, nil)
	yAug := mat.NewVecDense(outRows, nil)

	ySamples := make([]float64, k)
	xSamples := make([][]float64, f)
	for j := range xSamples {
		xSamples[j] = make([]float64, k)
	}

	for i := 0; i < rx; i++ {
		draw(ySamples, yv.At(i, 0), yb.At(i, 0), yb.At(i, 1), src)
		for j := 0; j < f; j++ {
			draw(xSamples[j], xv.At(i, j), xb.At(i, 2*j), xb.At(i, 2*j+1), src)
		}

		base := i * (k + 1)
		yAug.SetVec(base, yv.At(i, 0))
		for j := 0; j < f; j++ {
			XAug.Set(base, j, xv.At(i, j))
		}
		for s := 0; s < k; s++ {
			yAug.SetVec(base+1+s, ySamples[s])
			for j := 0; j < f; j++ {
				XAug.Set(base+1+s, j, xSamples[j][s])
			}
		}
	}
	return XAug, yAug, nil
}

func checkBounds(b *mat.Dense) error {
	r, c := b.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if b.At(i, j) < 0 {
				return errors.NewValidationError("uncertainty_bound", "must be non-negative", b.At(i, j))
			}
		}
	}
	return nil
}

// draw は [v-lo, v+hi] から len(dst) 個の一様乱数を引く
func draw(dst []float64, v, lo, hi float64, src rand.Source) {
	u := distuv.Uniform{Min: v - lo, Max: v + hi, Src: src}
	for s := range dst {
		dst[s] = u.Rand()
	}
}
