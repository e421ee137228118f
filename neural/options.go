package neural

// Option は MLPRegressor を設定する関数
type Option func(*MLPRegressor)

// WithHiddenLayerSizes sets the width of every hidden layer
func WithHiddenLayerSizes(sizes ...int) Option {
	return func(m *MLPRegressor) {
		m.HiddenLayerSizes = append([]int(nil), sizes...)
	}
}

// WithActivation sets the hidden activation: "relu" (default), "tanh", "logistic" or "identity"
func WithActivation(act string) Option {
	return func(m *MLPRegressor) {
		m.Activation = act
	}
}

// WithAlpha sets the L2 penalty
func WithAlpha(alpha float64) Option {
	return func(m *MLPRegressor) {
		m.Alpha = alpha
	}
}

// WithBatchSize sets the minibatch size. 0 means min(200, n_samples).
func WithBatchSize(n int) Option {
	return func(m *MLPRegressor) {
		m.BatchSize = n
	}
}

// WithLearningRate sets the schedule: "constant" or "adaptive"
func WithLearningRate(schedule string) Option {
	return func(m *MLPRegressor) {
		m.LearningRate = schedule
	}
}

// WithLearningRateInit sets the initial step size
func WithLearningRateInit(lr float64) Option {
	return func(m *MLPRegressor) {
		m.LearningRateInit = lr
	}
}

// WithMaxIter sets the maximum number of epochs
func WithMaxIter(n int) Option {
	return func(m *MLPRegressor) {
		m.MaxIter = n
	}
}

// WithMomentum sets the SGD momentum and whether Nesterov's variant is used
func WithMomentum(momentum float64, nesterov bool) Option {
	return func(m *MLPRegressor) {
		m.Momentum = momentum
		m.Nesterov = nesterov
	}
}

// WithTol sets the minimum loss improvement counted as progress
func WithTol(tol float64) Option {
	return func(m *MLPRegressor) {
		m.Tol = tol
	}
}

// WithNIterNoChange sets how many epochs without progress trigger the schedule
func WithNIterNoChange(n int) Option {
	return func(m *MLPRegressor) {
		m.NIterNoChange = n
	}
}

// WithShuffle toggles reshuffling the samples every epoch
func WithShuffle(shuffle bool) Option {
	return func(m *MLPRegressor) {
		m.Shuffle = shuffle
	}
}

// WithRandomState fixes the seed for weight initialisation and shuffling
func WithRandomState(seed uint64) Option {
	return func(m *MLPRegressor) {
		m.RandomState = seed
	}
}
