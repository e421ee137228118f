package linear

// LinearRegressionOption は LinearRegression を設定する関数
type LinearRegressionOption func(*LinearRegression)

// WithFitIntercept sets whether to calculate the intercept
func WithFitIntercept(fit bool) LinearRegressionOption {
	return func(lr *LinearRegression) {
		lr.FitIntercept = fit
	}
}

// BayesianRidgeOption は BayesianRidge を設定する関数
type BayesianRidgeOption func(*BayesianRidge)

// WithMaxIter sets the maximum number of evidence updates
func WithMaxIter(n int) BayesianRidgeOption {
	return func(br *BayesianRidge) {
		br.MaxIter = n
	}
}

// WithTol stops the updates once the coefficients move less than tol (L1)
func WithTol(tol float64) BayesianRidgeOption {
	return func(br *BayesianRidge) {
		br.Tol = tol
	}
}

// WithAlphaPrior sets the gamma prior (shape, rate) over the noise precision
func WithAlphaPrior(alpha1, alpha2 float64) BayesianRidgeOption {
	return func(br *BayesianRidge) {
		br.Alpha1 = alpha1
		br.Alpha2 = alpha2
	}
}

// WithLambdaPrior sets the gamma prior (shape, rate) over the weight precision
func WithLambdaPrior(lambda1, lambda2 float64) BayesianRidgeOption {
	return func(br *BayesianRidge) {
		br.Lambda1 = lambda1
		br.Lambda2 = lambda2
	}
}

// WithBayesFitIntercept sets whether to center the data and fit an intercept
func WithBayesFitIntercept(fit bool) BayesianRidgeOption {
	return func(br *BayesianRidge) {
		br.FitIntercept = fit
	}
}
