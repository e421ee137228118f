package linear

import (
	"math"

	"github.com/YuminosukeSato/mrestimator/core/model"
	"github.com/YuminosukeSato/mrestimator/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// BayesianRidge はエビデンス最大化で正則化の強さを推定するベイズリッジ回帰
//
// ノイズ精度 Alpha と重み精度 Lambda をガンマ事前分布のもとで交互に更新する。
// 更新は X^T X の固有値分解を1回だけ行い、各反復では係数の再計算のみ行う。
//
// 使用例:
//
//	br := linear.NewBayesianRidge()
//	err := br.Fit(X, y)
//	pred, err := br.Predict(XTest)
type BayesianRidge struct {
	model.BaseEstimator

	// ハイパーパラメータ
	MaxIter      int
	Tol          float64
	Alpha1       float64
	Alpha2       float64
	Lambda1      float64
	Lambda2      float64
	FitIntercept bool

	// 学習結果
	Coef      []float64
	Intercept float64
	Alpha     float64
	Lambda    float64
	NIter     int
	NFeatures int
}

// NewBayesianRidge は新しい BayesianRidge を作成する
// デフォルト: MaxIter=300, Tol=1e-3, 事前分布のパラメータはすべて 1e-6
func NewBayesianRidge(opts ...BayesianRidgeOption) *BayesianRidge {
	br := &BayesianRidge{
		MaxIter:      300,
		Tol:          1e-3,
		Alpha1:       1e-6,
		Alpha2:       1e-6,
		Lambda1:      1e-6,
		Lambda2:      1e-6,
		FitIntercept: true,
	}
	for _, opt := range opts {
		opt(br)
	}
	return br
}

// Fit はモデルを訓練データで学習させる
func (br *BayesianRidge) Fit(X, y mat.Matrix) error {
	n, d, err := model.CheckXY("BayesianRidge.Fit", X, y)
	if err != nil {
		return err
	}
	if br.MaxIter <= 0 {
		return errors.NewValidationError("max_iter", "must be positive", br.MaxIter)
	}

	// 中心化
	xOffset := make([]float64, d)
	yv := model.Column(y)
	yOffset := 0.0
	Xc := mat.DenseCopyOf(X)
	if br.FitIntercept {
		col := make([]float64, n)
		for j := 0; j < d; j++ {
			mat.Col(col, j, Xc)
			xOffset[j] = stat.Mean(col, nil)
			for i := 0; i < n; i++ {
				Xc.Set(i, j, col[i]-xOffset[j])
			}
		}
		yOffset = stat.Mean(yv, nil)
		for i := range yv {
			yv[i] -= yOffset
		}
	}
	yc := mat.NewVecDense(n, yv)

	var xtx mat.SymDense
	xtx.SymOuterK(1, Xc.T())

	var eig mat.EigenSym
	if ok := eig.Factorize(&xtx, true); !ok {
		return errors.NewModelError("BayesianRidge.Fit", "eigendecomposition failed", errors.ErrSingularMatrix)
	}
	eigVals := eig.Values(nil)
	for i, v := range eigVals {
		if v < 0 {
			eigVals[i] = 0
		}
	}
	var V mat.Dense
	eig.VectorsTo(&V)

	// V^T X^T y は反復中に変わらない
	var xty, vtxty mat.VecDense
	xty.MulVec(Xc.T(), yc)
	vtxty.MulVec(V.T(), &xty)

	eps := math.Nextafter(1, 2) - 1
	_, yVar := stat.PopMeanVariance(yv, nil)
	alpha := 1.0 / (yVar + eps)
	lambda := 1.0

	fn := float64(n)
	coef := make([]float64, d)
	var coefOld []float64
	var iter int
	for iter = 0; iter < br.MaxIter; iter++ {
		br.posteriorMean(&V, eigVals, &vtxty, alpha, lambda, coef)

		rmse := residualSS(Xc, yv, coef)
		gamma := 0.0
		for _, ev := range eigVals {
			gamma += alpha * ev / (lambda + alpha*ev)
		}
		coefNorm := 0.0
		for _, c := range coef {
			coefNorm += c * c
		}

		lambda = (gamma + 2*br.Lambda1) / (coefNorm + 2*br.Lambda2)
		alpha = (fn - gamma + 2*br.Alpha1) / (rmse + 2*br.Alpha2)

		if math.IsNaN(alpha) || math.IsNaN(lambda) || math.IsInf(alpha, 0) || math.IsInf(lambda, 0) {
			return errors.NewNumericalInstabilityError("bayesian_ridge_update", []float64{alpha, lambda}, iter)
		}

		if iter != 0 {
			delta := 0.0
			for j := range coef {
				delta += math.Abs(coefOld[j] - coef[j])
			}
			if delta < br.Tol {
				iter++
				break
			}
		}
		coefOld = append(coefOld[:0], coef...)
	}

	// 最終的な精度で係数を計算し直す
	br.posteriorMean(&V, eigVals, &vtxty, alpha, lambda, coef)

	br.Coef = coef
	br.Alpha = alpha
	br.Lambda = lambda
	br.NIter = iter
	br.NFeatures = d
	br.Intercept = 0
	if br.FitIntercept {
		br.Intercept = yOffset
		for j := 0; j < d; j++ {
			br.Intercept -= xOffset[j] * coef[j]
		}
	}

	br.SetFitted()
	return nil
}

// posteriorMean computes coef = V diag(1/(eig + lambda/alpha)) V^T X^T y into dst.
func (br *BayesianRidge) posteriorMean(V *mat.Dense, eigVals []float64, vtxty *mat.VecDense, alpha, lambda float64, dst []float64) {
	d := len(eigVals)
	scaled := mat.NewVecDense(d, nil)
	for k := 0; k < d; k++ {
		scaled.SetVec(k, vtxty.AtVec(k)/(eigVals[k]+lambda/alpha))
	}
	out := mat.NewVecDense(d, dst)
	out.MulVec(V, scaled)
}

func residualSS(X *mat.Dense, y, coef []float64) float64 {
	n, d := X.Dims()
	ss := 0.0
	for i := 0; i < n; i++ {
		pred := 0.0
		for j := 0; j < d; j++ {
			pred += X.At(i, j) * coef[j]
		}
		r := y[i] - pred
		ss += r * r
	}
	return ss
}

// Predict は入力データに対する予測（事後平均）を行う
func (br *BayesianRidge) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !br.IsFitted() {
		return nil, errors.NewNotFittedError("BayesianRidge", "Predict")
	}
	return predictLinear("BayesianRidge.Predict", X, br.Coef, br.Intercept)
}

// Score はモデルの決定係数（R²）を計算する
func (br *BayesianRidge) Score(X, y mat.Matrix) (float64, error) {
	if !br.IsFitted() {
		return 0, errors.NewNotFittedError("BayesianRidge", "Score")
	}
	return scoreR2(br, X, y)
}

// Clone は同じハイパーパラメータの未学習モデルを返す
func (br *BayesianRidge) Clone() model.Regressor {
	return NewBayesianRidge(
		WithMaxIter(br.MaxIter),
		WithTol(br.Tol),
		WithAlphaPrior(br.Alpha1, br.Alpha2),
		WithLambdaPrior(br.Lambda1, br.Lambda2),
		WithBayesFitIntercept(br.FitIntercept),
	)
}

// GetParams はハイパーパラメータを返す
func (br *BayesianRidge) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"max_iter":      br.MaxIter,
		"tol":           br.Tol,
		"alpha_1":       br.Alpha1,
		"alpha_2":       br.Alpha2,
		"lambda_1":      br.Lambda1,
		"lambda_2":      br.Lambda2,
		"fit_intercept": br.FitIntercept,
	}
}

// SetParams はハイパーパラメータを設定する
func (br *BayesianRidge) SetParams(params map[string]interface{}) error {
	for k, v := range params {
		var err error
		switch k {
		case "max_iter":
			br.MaxIter, err = model.ParamInt(k, v)
		case "tol":
			br.Tol, err = model.ParamFloat(k, v)
		case "alpha_1":
			br.Alpha1, err = model.ParamFloat(k, v)
		case "alpha_2":
			br.Alpha2, err = model.ParamFloat(k, v)
		case "lambda_1":
			br.Lambda1, err = model.ParamFloat(k, v)
		case "lambda_2":
			br.Lambda2, err = model.ParamFloat(k, v)
		case "fit_intercept":
			b, ok := v.(bool)
			if !ok {
				return errors.NewValidationError(k, "expected a bool", v)
			}
			br.FitIntercept = b
		default:
			return model.UnknownParam("BayesianRidge", k)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
