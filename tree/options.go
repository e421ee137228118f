package tree

// Option は DecisionTreeRegressor を設定する関数
type Option func(*DecisionTreeRegressor)

// WithMaxDepth sets the maximum depth of the tree. 0 means unlimited.
func WithMaxDepth(depth int) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.MaxDepth = depth
	}
}

// WithMinSamplesSplit sets the minimum number of samples required to split a node
func WithMinSamplesSplit(n int) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.MinSamplesSplit = n
	}
}

// WithMinSamplesLeaf sets the minimum number of samples required at a leaf
func WithMinSamplesLeaf(n int) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.MinSamplesLeaf = n
	}
}

// WithMaxFeatures sets how many features are considered per split. 0 means all.
func WithMaxFeatures(n int) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.MaxFeatures = n
	}
}

// WithRandomState fixes the seed used to permute candidate features
func WithRandomState(seed uint64) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.RandomState = seed
	}
}
