// Package svm はカーネル付きのサポートベクター回帰 (SVR) を提供する
package svm

import (
	"math"
	"math/rand/v2"

	"github.com/YuminosukeSato/mrestimator/core/model"
	"github.com/YuminosukeSato/mrestimator/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// kernelCacheRows 以下の行数ならカーネル行列を事前に計算して保持する
const kernelCacheRows = 2048

// SVR は epsilon 不感帯損失のサポートベクター回帰
//
// 双対問題
//
//	min 1/2 b^T K' b - y^T b + epsilon |b|_1,  -C <= b_i <= C
//
// を座標降下法で解く。K' = K + 1 としてバイアス項をカーネルに吸収しているため、
// 等式制約は現れない。予測は f(x) = sum_i b_i (K(x_i, x) + 1)
type SVR struct {
	model.BaseEstimator

	// ハイパーパラメータ
	Kernel      string
	Gamma       float64
	C           float64
	Epsilon     float64
	Tol         float64
	MaxIter     int
	RandomState uint64

	// 学習結果
	SupportVectors [][]float64
	DualCoef       []float64
	FittedGamma    float64
	NFeatures      int
	NIter          int
}

// NewSVR は新しい SVR を作成する
// デフォルト: rbf カーネル, gamma=scale, C=1, epsilon=0.1, tol=1e-3, max_iter=1000
func NewSVR(opts ...Option) *SVR {
	s := &SVR{
		Kernel:  "rbf",
		C:       1.0,
		Epsilon: 0.1,
		Tol:     1e-3,
		MaxIter: 1000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SVR) validate() error {
	if s.Kernel != "rbf" && s.Kernel != "linear" {
		return errors.NewValidationError("kernel", "must be rbf or linear", s.Kernel)
	}
	if s.C <= 0 {
		return errors.NewValidationError("C", "must be positive", s.C)
	}
	if s.Gamma < 0 {
		return errors.NewValidationError("gamma", "must be non-negative", s.Gamma)
	}
	if s.Epsilon < 0 {
		return errors.NewValidationError("epsilon", "must be non-negative", s.Epsilon)
	}
	if s.MaxIter <= 0 {
		return errors.NewValidationError("max_iter", "must be positive", s.MaxIter)
	}
	return nil
}

// Fit は双対座標降下法でモデルを学習する。
// max_iter 回で収束しなければ ConvergenceWarning を発行し、その時点の解を使う
func (s *SVR) Fit(X, y mat.Matrix) error {
	n, d, err := model.CheckXY("SVR.Fit", X, y)
	if err != nil {
		return err
	}
	if err := s.validate(); err != nil {
		return err
	}

	rows := model.Rows(X)
	yv := model.Column(y)
	gamma := s.Gamma
	if gamma == 0 {
		gamma = scaleGamma(X)
	}
	k := kernelFunc(s.Kernel, gamma)

	// K'(i, j) = K(x_i, x_j) + 1
	column := func(i int, dst []float64) {
		for j := 0; j < n; j++ {
			dst[j] = k(rows[i], rows[j]) + 1
		}
	}
	var cache [][]float64
	if n <= kernelCacheRows {
		cache = make([][]float64, n)
		for i := range cache {
			cache[i] = make([]float64, n)
			column(i, cache[i])
		}
	}
	diag := make([]float64, n)
	for i := 0; i < n; i++ {
		diag[i] = k(rows[i], rows[i]) + 1
	}

	beta := make([]float64, n)
	f := make([]float64, n) // f = K' beta
	col := make([]float64, n)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	rng := rand.New(rand.NewPCG(s.RandomState, s.RandomState))

	converged := false
	var iter int
	for iter = 0; iter < s.MaxIter; iter++ {
		rng.Shuffle(n, func(a, b int) { order[a], order[b] = order[b], order[a] })

		maxViolation := 0.0
		for _, i := range order {
			g := f[i] - yv[i]
			if v := s.violation(beta[i], g); v > maxViolation {
				maxViolation = v
			}

			z := beta[i] - g/diag[i]
			shrink := s.Epsilon / diag[i]
			next := 0.0
			switch {
			case z > shrink:
				next = math.Min(z-shrink, s.C)
			case z < -shrink:
				next = math.Max(z+shrink, -s.C)
			}

			delta := next - beta[i]
			if delta == 0 {
				continue
			}
			beta[i] = next

			kc := col
			if cache != nil {
				kc = cache[i]
			} else {
				column(i, col)
			}
			for j := 0; j < n; j++ {
				f[j] += delta * kc[j]
			}
		}

		if math.IsNaN(maxViolation) || math.IsInf(maxViolation, 0) {
			return errors.NewNumericalInstabilityError("svr_dual_update", []float64{maxViolation}, iter)
		}
		if maxViolation < s.Tol {
			converged = true
			iter++
			break
		}
	}
	if !converged {
		errors.Warn(errors.NewConvergenceWarning("SVR", s.MaxIter,
			"dual coordinate descent did not reach tol; consider scaling the data or increasing max_iter"))
	}

	s.SupportVectors = s.SupportVectors[:0]
	s.DualCoef = s.DualCoef[:0]
	for i, b := range beta {
		if b != 0 {
			s.SupportVectors = append(s.SupportVectors, rows[i])
			s.DualCoef = append(s.DualCoef, b)
		}
	}
	s.FittedGamma = gamma
	s.NFeatures = d
	s.NIter = iter
	s.SetFitted()
	return nil
}

// violation は座標 i の射影勾配の大きさ (KKT 条件からのずれ) を返す
func (s *SVR) violation(b, g float64) float64 {
	switch {
	case b == 0:
		return math.Max(0, math.Abs(g)-s.Epsilon)
	case b > 0:
		pg := g + s.Epsilon
		if b >= s.C && pg < 0 {
			return 0
		}
		return math.Abs(pg)
	default:
		pg := g - s.Epsilon
		if b <= -s.C && pg > 0 {
			return 0
		}
		return math.Abs(pg)
	}
}

// Predict は入力データに対する予測を行う
func (s *SVR) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("SVR", "Predict")
	}
	r, err := model.CheckPredictInput("SVR.Predict", X, s.NFeatures)
	if err != nil {
		return nil, err
	}

	k := kernelFunc(s.Kernel, s.FittedGamma)
	out := make([]float64, r)
	row := make([]float64, s.NFeatures)
	for i := 0; i < r; i++ {
		mat.Row(row, i, X)
		sum := 0.0
		for j, sv := range s.SupportVectors {
			sum += s.DualCoef[j] * (k(sv, row) + 1)
		}
		out[i] = sum
	}
	return model.ColumnVector(out), nil
}

// NSupport はサポートベクターの数を返す
func (s *SVR) NSupport() int {
	return len(s.SupportVectors)
}

// Clone は同じハイパーパラメータの未学習モデルを返す
func (s *SVR) Clone() model.Regressor {
	return NewSVR(
		WithKernel(s.Kernel),
		WithGamma(s.Gamma),
		WithC(s.C),
		WithEpsilon(s.Epsilon),
		WithTol(s.Tol),
		WithMaxIter(s.MaxIter),
		WithRandomState(s.RandomState),
	)
}

// GetParams はハイパーパラメータを返す
func (s *SVR) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"kernel":       s.Kernel,
		"gamma":        s.Gamma,
		"C":            s.C,
		"epsilon":      s.Epsilon,
		"tol":          s.Tol,
		"max_iter":     s.MaxIter,
		"random_state": s.RandomState,
	}
}

// SetParams はハイパーパラメータを設定する。gamma には "scale" も指定できる
func (s *SVR) SetParams(params map[string]interface{}) error {
	for k, v := range params {
		var err error
		switch k {
		case "kernel":
			s.Kernel, err = model.ParamString(k, v)
		case "gamma":
			if str, ok := v.(string); ok && str == "scale" {
				s.Gamma = 0
				continue
			}
			s.Gamma, err = model.ParamFloat(k, v)
		case "C":
			s.C, err = model.ParamFloat(k, v)
		case "epsilon":
			s.Epsilon, err = model.ParamFloat(k, v)
		case "tol":
			s.Tol, err = model.ParamFloat(k, v)
		case "max_iter":
			s.MaxIter, err = model.ParamInt(k, v)
		case "random_state":
			var seed int
			seed, err = model.ParamInt(k, v)
			s.RandomState = uint64(seed)
		default:
			return model.UnknownParam("SVR", k)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func kernelFunc(kernel string, gamma float64) func(a, b []float64) float64 {
	if kernel == "linear" {
		return func(a, b []float64) float64 {
			dot := 0.0
			for i := range a {
				dot += a[i] * b[i]
			}
			return dot
		}
	}
	return func(a, b []float64) float64 {
		d2 := 0.0
		for i := range a {
			diff := a[i] - b[i]
			d2 += diff * diff
		}
		return math.Exp(-gamma * d2)
	}
}

// scaleGamma は 1 / (n_features * X.var()) を返す。分散が0なら1
func scaleGamma(X mat.Matrix) float64 {
	r, c := X.Dims()
	all := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			all = append(all, X.At(i, j))
		}
	}
	_, v := stat.PopMeanVariance(all, nil)
	if v == 0 {
		return 1.0
	}
	return 1.0 / (float64(c) * v)
}
