// Package neural は多層パーセプトロン回帰 (MLPRegressor) を提供する
package neural

import (
	"math"
	"math/rand/v2"

	"github.com/YuminosukeSato/mrestimator/core/model"
	"github.com/YuminosukeSato/mrestimator/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// MLPRegressor は二乗誤差を最小化する全結合ニューラルネットワーク
//
// 隠れ層は Activation、出力層は恒等関数。重みは Glorot 一様分布で初期化し、
// ミニバッチ SGD (モメンタム, Nesterov 可) で学習する。LearningRate が "adaptive" の場合、
// NIterNoChange エポック連続で損失が Tol 以上改善しなければ学習率を 1/5 にし、
// 学習率が 1e-6 以下になったら停止する
type MLPRegressor struct {
	model.BaseEstimator

	// ハイパーパラメータ
	HiddenLayerSizes []int
	Activation       string
	Alpha            float64
	BatchSize        int
	LearningRate     string
	LearningRateInit float64
	MaxIter          int
	Momentum         float64
	Nesterov         bool
	Tol              float64
	NIterNoChange    int
	Shuffle          bool
	RandomState      uint64

	// 学習結果
	Coefs             []*mat.Dense
	Intercepts        []*mat.VecDense
	LossCurve         []float64
	BestLoss          float64
	NIter             int
	NFeatures         int
	FinalLearningRate float64
}

// NewMLPRegressor は新しい MLPRegressor を作成する
// デフォルト: 隠れ層 (100), relu, alpha=1e-4, 学習率一定 1e-3, max_iter=200,
// momentum=0.9 (Nesterov), tol=1e-4, n_iter_no_change=10
func NewMLPRegressor(opts ...Option) *MLPRegressor {
	m := &MLPRegressor{
		HiddenLayerSizes: []int{100},
		Activation:       "relu",
		Alpha:            1e-4,
		LearningRate:     "constant",
		LearningRateInit: 1e-3,
		MaxIter:          200,
		Momentum:         0.9,
		Nesterov:         true,
		Tol:              1e-4,
		NIterNoChange:    10,
		Shuffle:          true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MLPRegressor) validate() error {
	for _, s := range m.HiddenLayerSizes {
		if s <= 0 {
			return errors.NewValidationError("hidden_layer_sizes", "must be positive", m.HiddenLayerSizes)
		}
	}
	switch m.Activation {
	case "relu", "tanh", "logistic", "identity":
	default:
		return errors.NewValidationError("activation", "must be relu, tanh, logistic or identity", m.Activation)
	}
	if m.LearningRate != "constant" && m.LearningRate != "adaptive" {
		return errors.NewValidationError("learning_rate", "must be constant or adaptive", m.LearningRate)
	}
	if m.LearningRateInit <= 0 {
		return errors.NewValidationError("learning_rate_init", "must be positive", m.LearningRateInit)
	}
	if m.MaxIter <= 0 {
		return errors.NewValidationError("max_iter", "must be positive", m.MaxIter)
	}
	if m.Alpha < 0 {
		return errors.NewValidationError("alpha", "must be non-negative", m.Alpha)
	}
	if m.Momentum < 0 || m.Momentum > 1 {
		return errors.NewValidationError("momentum", "must be in [0, 1]", m.Momentum)
	}
	if m.BatchSize < 0 {
		return errors.NewValidationError("batch_size", "must be non-negative", m.BatchSize)
	}
	return nil
}

// Fit はミニバッチ SGD でネットワークを学習する
func (m *MLPRegressor) Fit(X, y mat.Matrix) error {
	n, d, err := model.CheckXY("MLPRegressor.Fit", X, y)
	if err != nil {
		return err
	}
	if err := m.validate(); err != nil {
		return err
	}

	rng := rand.New(rand.NewPCG(m.RandomState, m.RandomState))
	m.initialize(d, rng)

	batch := m.BatchSize
	if batch == 0 {
		batch = 200
	}
	batch = min(max(batch, 1), n)

	nParams := len(m.Coefs)
	velW := make([]*mat.Dense, nParams)
	velB := make([]*mat.VecDense, nParams)
	for l := range m.Coefs {
		r, c := m.Coefs[l].Dims()
		velW[l] = mat.NewDense(r, c, nil)
		velB[l] = mat.NewVecDense(c, nil)
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	lr := m.LearningRateInit
	m.LossCurve = m.LossCurve[:0]
	m.BestLoss = math.Inf(1)
	noImprovement := 0
	stopped := false

	var epoch int
	for epoch = 0; epoch < m.MaxIter; epoch++ {
		if m.Shuffle {
			rng.Shuffle(n, func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
		}

		accum := 0.0
		for start := 0; start < n; start += batch {
			end := min(start+batch, n)
			bIdx := idx[start:end]
			Xb := model.SubsetRows(X, bIdx)
			yb := model.SubsetRows(y, bIdx)

			loss, gradW, gradB := m.backprop(Xb, yb)
			accum += loss * float64(len(bIdx))

			for l := 0; l < nParams; l++ {
				m.sgdStep(m.Coefs[l].RawMatrix().Data, velW[l].RawMatrix().Data, gradW[l].RawMatrix().Data, lr)
				m.sgdStep(m.Intercepts[l].RawVector().Data, velB[l].RawVector().Data, gradB[l].RawVector().Data, lr)
			}
		}

		loss := accum / float64(n)
		if math.IsNaN(loss) || math.IsInf(loss, 0) {
			return errors.NewNumericalInstabilityError("mlp_loss", []float64{loss}, epoch)
		}
		m.LossCurve = append(m.LossCurve, loss)

		if loss > m.BestLoss-m.Tol {
			noImprovement++
		} else {
			noImprovement = 0
		}
		if loss < m.BestLoss {
			m.BestLoss = loss
		}

		if noImprovement > m.NIterNoChange {
			if m.LearningRate != "adaptive" || lr <= 1e-6 {
				stopped = true
				epoch++
				break
			}
			lr /= 5
			noImprovement = 0
		}
	}

	m.NIter = epoch
	m.FinalLearningRate = lr
	m.NFeatures = d
	if !stopped && epoch == m.MaxIter {
		errors.Warn(errors.NewConvergenceWarning("MLPRegressor", m.MaxIter,
			"stochastic optimizer reached max_iter and the optimization hasn't converged yet"))
	}

	m.SetFitted()
	return nil
}

// initialize は Glorot 一様分布で重みとバイアスを初期化する
func (m *MLPRegressor) initialize(nFeatures int, rng *rand.Rand) {
	sizes := append(append([]int{nFeatures}, m.HiddenLayerSizes...), 1)
	factor := 6.0
	if m.Activation == "logistic" {
		factor = 2.0
	}

	m.Coefs = make([]*mat.Dense, len(sizes)-1)
	m.Intercepts = make([]*mat.VecDense, len(sizes)-1)
	for l := 0; l < len(sizes)-1; l++ {
		fanIn, fanOut := sizes[l], sizes[l+1]
		bound := math.Sqrt(factor / float64(fanIn+fanOut))
		u := distuv.Uniform{Min: -bound, Max: bound, Src: rng}

		w := mat.NewDense(fanIn, fanOut, nil)
		for i := 0; i < fanIn; i++ {
			for j := 0; j < fanOut; j++ {
				w.Set(i, j, u.Rand())
			}
		}
		b := mat.NewVecDense(fanOut, nil)
		for j := 0; j < fanOut; j++ {
			b.SetVec(j, u.Rand())
		}
		m.Coefs[l] = w
		m.Intercepts[l] = b
	}
}

// sgdStep はモメンタム付き SGD でパラメータを更新する
func (m *MLPRegressor) sgdStep(param, vel, grad []float64, lr float64) {
	for i := range param {
		vel[i] = m.Momentum*vel[i] - lr*grad[i]
		update := vel[i]
		if m.Nesterov {
			update = m.Momentum*vel[i] - lr*grad[i]
		}
		param[i] += update
	}
}

// forward は各層の活性を返す。先頭は入力、末尾は出力
func (m *MLPRegressor) forward(X mat.Matrix) []*mat.Dense {
	acts := make([]*mat.Dense, len(m.Coefs)+1)
	acts[0] = mat.DenseCopyOf(X)
	last := len(m.Coefs) - 1
	for l, w := range m.Coefs {
		var z mat.Dense
		z.Mul(acts[l], w)
		r, c := z.Dims()
		b := m.Intercepts[l]
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				z.Set(i, j, z.At(i, j)+b.AtVec(j))
			}
		}
		if l != last {
			m.activate(&z)
		}
		acts[l+1] = &z
	}
	return acts
}

// backprop は1バッチの損失と勾配を返す
func (m *MLPRegressor) backprop(Xb, yb mat.Matrix) (float64, []*mat.Dense, []*mat.VecDense) {
	acts := m.forward(Xb)
	bs, _ := Xb.Dims()
	fbs := float64(bs)
	out := acts[len(acts)-1]

	delta := new(mat.Dense)
	delta.Sub(out, yb)

	// squared loss / 2 + L2
	loss := 0.0
	for i := 0; i < bs; i++ {
		e := delta.At(i, 0)
		loss += e * e
	}
	loss /= 2 * fbs
	l2 := 0.0
	for _, w := range m.Coefs {
		for _, v := range w.RawMatrix().Data {
			l2 += v * v
		}
	}
	loss += 0.5 * m.Alpha * l2 / fbs

	nLayers := len(m.Coefs)
	gradW := make([]*mat.Dense, nLayers)
	gradB := make([]*mat.VecDense, nLayers)
	for l := nLayers - 1; l >= 0; l-- {
		var gw mat.Dense
		gw.Mul(acts[l].T(), delta)
		gw.Add(&gw, scaled(m.Alpha, m.Coefs[l]))
		gw.Scale(1/fbs, &gw)
		gradW[l] = &gw

		_, c := delta.Dims()
		gb := mat.NewVecDense(c, nil)
		for j := 0; j < c; j++ {
			s := 0.0
			for i := 0; i < bs; i++ {
				s += delta.At(i, j)
			}
			gb.SetVec(j, s/fbs)
		}
		gradB[l] = gb

		if l > 0 {
			next := new(mat.Dense)
			next.Mul(delta, m.Coefs[l].T())
			m.derivative(acts[l], next)
			delta = next
		}
	}
	return loss, gradW, gradB
}

func scaled(f float64, a mat.Matrix) *mat.Dense {
	var out mat.Dense
	out.Scale(f, a)
	return &out
}

func (m *MLPRegressor) activate(z *mat.Dense) {
	var fn func(float64) float64
	switch m.Activation {
	case "relu":
		fn = func(v float64) float64 { return math.Max(v, 0) }
	case "tanh":
		fn = math.Tanh
	case "logistic":
		fn = func(v float64) float64 { return 1 / (1 + math.Exp(-v)) }
	default:
		return
	}
	z.Apply(func(_, _ int, v float64) float64 { return fn(v) }, z)
}

// derivative は活性 a における活性化関数の微分を delta に掛ける
func (m *MLPRegressor) derivative(a *mat.Dense, delta *mat.Dense) {
	switch m.Activation {
	case "relu":
		delta.Apply(func(i, j int, v float64) float64 {
			if a.At(i, j) <= 0 {
				return 0
			}
			return v
		}, delta)
	case "tanh":
		delta.Apply(func(i, j int, v float64) float64 {
			x := a.At(i, j)
			return v * (1 - x*x)
		}, delta)
	case "logistic":
		delta.Apply(func(i, j int, v float64) float64 {
			x := a.At(i, j)
			return v * x * (1 - x)
		}, delta)
	}
}

// Predict は入力データに対する予測を行う
func (m *MLPRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("MLPRegressor", "Predict")
	}
	if _, err := model.CheckPredictInput("MLPRegressor.Predict", X, m.NFeatures); err != nil {
		return nil, err
	}
	acts := m.forward(X)
	return acts[len(acts)-1], nil
}

// Clone は同じハイパーパラメータの未学習モデルを返す
func (m *MLPRegressor) Clone() model.Regressor {
	return NewMLPRegressor(
		WithHiddenLayerSizes(m.HiddenLayerSizes...),
		WithActivation(m.Activation),
		WithAlpha(m.Alpha),
		WithBatchSize(m.BatchSize),
		WithLearningRate(m.LearningRate),
		WithLearningRateInit(m.LearningRateInit),
		WithMaxIter(m.MaxIter),
		WithMomentum(m.Momentum, m.Nesterov),
		WithTol(m.Tol),
		WithNIterNoChange(m.NIterNoChange),
		WithShuffle(m.Shuffle),
		WithRandomState(m.RandomState),
	)
}

// GetParams はハイパーパラメータを返す
func (m *MLPRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"hidden_layer_sizes": append([]int(nil), m.HiddenLayerSizes...),
		"activation":         m.Activation,
		"solver":             "sgd",
		"alpha":              m.Alpha,
		"batch_size":         m.BatchSize,
		"learning_rate":      m.LearningRate,
		"learning_rate_init": m.LearningRateInit,
		"max_iter":           m.MaxIter,
		"momentum":           m.Momentum,
		"nesterovs_momentum": m.Nesterov,
		"tol":                m.Tol,
		"n_iter_no_change":   m.NIterNoChange,
		"shuffle":            m.Shuffle,
		"random_state":       m.RandomState,
	}
}

// SetParams はハイパーパラメータを設定する
func (m *MLPRegressor) SetParams(params map[string]interface{}) error {
	for k, v := range params {
		var err error
		switch k {
		case "hidden_layer_sizes":
			sizes, ok := v.([]int)
			if !ok {
				return errors.NewValidationError(k, "expected []int", v)
			}
			m.HiddenLayerSizes = append([]int(nil), sizes...)
		case "activation":
			m.Activation, err = model.ParamString(k, v)
		case "solver":
			if s, _ := v.(string); s != "sgd" {
				return errors.NewValidationError(k, "only sgd is supported", v)
			}
		case "alpha":
			m.Alpha, err = model.ParamFloat(k, v)
		case "batch_size":
			m.BatchSize, err = model.ParamInt(k, v)
		case "learning_rate":
			m.LearningRate, err = model.ParamString(k, v)
		case "learning_rate_init":
			m.LearningRateInit, err = model.ParamFloat(k, v)
		case "max_iter":
			m.MaxIter, err = model.ParamInt(k, v)
		case "momentum":
			m.Momentum, err = model.ParamFloat(k, v)
		case "nesterovs_momentum", "shuffle":
			b, ok := v.(bool)
			if !ok {
				return errors.NewValidationError(k, "expected a bool", v)
			}
			if k == "shuffle" {
				m.Shuffle = b
			} else {
				m.Nesterov = b
			}
		case "tol":
			m.Tol, err = model.ParamFloat(k, v)
		case "n_iter_no_change":
			m.NIterNoChange, err = model.ParamInt(k, v)
		case "random_state":
			var seed int
			seed, err = model.ParamInt(k, v)
			m.RandomState = uint64(seed)
		default:
			return model.UnknownParam("MLPRegressor", k)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
