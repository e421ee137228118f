package svm

// Option は SVR を設定する関数
type Option func(*SVR)

// WithKernel sets the kernel: "rbf" (default) or "linear"
func WithKernel(kernel string) Option {
	return func(s *SVR) {
		s.Kernel = kernel
	}
}

// WithGamma sets the RBF kernel coefficient. 0 selects 1 / (n_features * X.var()).
func WithGamma(gamma float64) Option {
	return func(s *SVR) {
		s.Gamma = gamma
	}
}

// WithC sets the regularization parameter
func WithC(c float64) Option {
	return func(s *SVR) {
		s.C = c
	}
}

// WithEpsilon sets the width of the epsilon-insensitive tube
func WithEpsilon(eps float64) Option {
	return func(s *SVR) {
		s.Epsilon = eps
	}
}

// WithTol sets the stopping tolerance on the maximum KKT violation
func WithTol(tol float64) Option {
	return func(s *SVR) {
		s.Tol = tol
	}
}

// WithMaxIter sets the maximum number of passes over the data
func WithMaxIter(n int) Option {
	return func(s *SVR) {
		s.MaxIter = n
	}
}

// WithRandomState fixes the seed of the coordinate visiting order
func WithRandomState(seed uint64) Option {
	return func(s *SVR) {
		s.RandomState = seed
	}
}
