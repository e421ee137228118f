// Package linear は線形回帰モデル (lr) とベイズリッジ回帰 (bayes) を提供する
package linear

import (
	"github.com/YuminosukeSato/mrestimator/core/model"
	"github.com/YuminosukeSato/mrestimator/core/parallel"
	"github.com/YuminosukeSato/mrestimator/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// LinearRegression は最小二乗法による線形回帰モデル
type LinearRegression struct {
	model.BaseEstimator

	// Weights は学習された係数
	Weights []float64
	// Intercept は切片
	Intercept float64
	// NFeatures は特徴量の数
	NFeatures int
	// FitIntercept が false の場合は切片を 0 に固定する
	FitIntercept bool
}

// NewLinearRegression は新しい線形回帰モデルを作成する
func NewLinearRegression(opts ...LinearRegressionOption) *LinearRegression {
	lr := &LinearRegression{FitIntercept: true}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// Fit はモデルを訓練データで学習させる
// 正規方程式 w = (X^T * X)^(-1) * X^T * y を使用
func (lr *LinearRegression) Fit(X, y mat.Matrix) error {
	r, c, err := model.CheckXY("LinearRegression.Fit", X, y)
	if err != nil {
		return err
	}

	offset := 0
	if lr.FitIntercept {
		offset = 1
	}

	// 切片項のために X に 1 の列を追加
	// X_with_intercept = [1, X]
	design := mat.NewDense(r, c+offset, nil)

	// 並列処理の閾値（この値以下の行数では逐次処理を使用）
	const parallelThreshold = 1000

	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			if offset == 1 {
				design.Set(i, 0, 1.0)
			}
			for j := 0; j < c; j++ {
				design.Set(i, j+offset, X.At(i, j))
			}
		}
	})

	var XTX mat.Dense
	XTX.Mul(design.T(), design)

	var XTXInv mat.Dense
	if err := XTXInv.Inverse(&XTX); err != nil {
		return errors.NewModelError("LinearRegression.Fit", "singular matrix", errors.ErrSingularMatrix)
	}

	yVec := mat.NewVecDense(r, model.Column(y))

	var XTy mat.VecDense
	XTy.MulVec(design.T(), yVec)

	var weights mat.VecDense
	weights.MulVec(&XTXInv, &XTy)

	lr.NFeatures = c
	lr.Intercept = 0
	if offset == 1 {
		lr.Intercept = weights.AtVec(0)
	}
	lr.Weights = make([]float64, c)
	for j := 0; j < c; j++ {
		lr.Weights[j] = weights.AtVec(j + offset)
	}

	lr.SetFitted()
	return nil
}

// Predict は入力データに対する予測を行う
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !lr.IsFitted() {
		return nil, errors.NewNotFittedError("LinearRegression", "Predict")
	}
	return predictLinear("LinearRegression.Predict", X, lr.Weights, lr.Intercept)
}

// Score はモデルの決定係数（R²）を計算する
func (lr *LinearRegression) Score(X, y mat.Matrix) (float64, error) {
	if !lr.IsFitted() {
		return 0, errors.NewNotFittedError("LinearRegression", "Score")
	}
	return scoreR2(lr, X, y)
}

// Clone は同じ設定の未学習モデルを返す
func (lr *LinearRegression) Clone() model.Regressor {
	return NewLinearRegression(WithFitIntercept(lr.FitIntercept))
}

// GetParams はハイパーパラメータを返す
func (lr *LinearRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{"fit_intercept": lr.FitIntercept}
}

// SetParams はハイパーパラメータを設定する
func (lr *LinearRegression) SetParams(params map[string]interface{}) error {
	for k, v := range params {
		switch k {
		case "fit_intercept":
			b, ok := v.(bool)
			if !ok {
				return errors.NewValidationError(k, "expected a bool", v)
			}
			lr.FitIntercept = b
		default:
			return model.UnknownParam("LinearRegression", k)
		}
	}
	return nil
}

// predictLinear は y = X * w + b を計算する
func predictLinear(op string, X mat.Matrix, weights []float64, intercept float64) (*mat.Dense, error) {
	r, err := model.CheckPredictInput(op, X, len(weights))
	if err != nil {
		return nil, err
	}

	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		pred := intercept
		for j, w := range weights {
			pred += X.At(i, j) * w
		}
		predictions.Set(i, 0, pred)
	}
	return predictions, nil
}

func scoreR2(p model.Predictor, X, y mat.Matrix) (float64, error) {
	yPred, err := p.Predict(X)
	if err != nil {
		return 0, err
	}

	r, _ := y.Dims()
	var yMean float64
	for i := 0; i < r; i++ {
		yMean += y.At(i, 0)
	}
	yMean /= float64(r)

	// R² = 1 - RSS/TSS
	var tss, rss float64
	for i := 0; i < r; i++ {
		d := y.At(i, 0) - yMean
		e := y.At(i, 0) - yPred.At(i, 0)
		tss += d * d
		rss += e * e
	}
	if tss == 0 {
		return 0, errors.Newf("total sum of squares is zero")
	}
	return 1 - rss/tss, nil
}
