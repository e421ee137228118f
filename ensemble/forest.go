// Package ensemble はランダムフォレストとスタッキング回帰を提供する
package ensemble

import (
	"math/rand/v2"

	"github.com/YuminosukeSato/mrestimator/core/model"
	"github.com/YuminosukeSato/mrestimator/core/parallel"
	"github.com/YuminosukeSato/mrestimator/pkg/errors"
	"github.com/YuminosukeSato/mrestimator/tree"
	"gonum.org/v1/gonum/mat"
)

// ForestOption は RandomForestRegressor を設定する関数
type ForestOption func(*RandomForestRegressor)

// WithNEstimators sets the number of trees
func WithNEstimators(n int) ForestOption {
	return func(rf *RandomForestRegressor) {
		rf.NEstimators = n
	}
}

// WithForestMaxDepth sets the maximum depth of every tree. 0 means unlimited.
func WithForestMaxDepth(depth int) ForestOption {
	return func(rf *RandomForestRegressor) {
		rf.MaxDepth = depth
	}
}

// WithForestMinSamplesLeaf sets min_samples_leaf of every tree
func WithForestMinSamplesLeaf(n int) ForestOption {
	return func(rf *RandomForestRegressor) {
		rf.MinSamplesLeaf = n
	}
}

// WithForestMaxFeatures sets how many features each split considers. 0 means all.
func WithForestMaxFeatures(n int) ForestOption {
	return func(rf *RandomForestRegressor) {
		rf.MaxFeatures = n
	}
}

// WithBootstrap toggles bootstrap sampling of the training rows
func WithBootstrap(bootstrap bool) ForestOption {
	return func(rf *RandomForestRegressor) {
		rf.Bootstrap = bootstrap
	}
}

// WithForestRandomState sets the seed from which per-tree seeds are derived
func WithForestRandomState(seed uint64) ForestOption {
	return func(rf *RandomForestRegressor) {
		rf.RandomState = seed
	}
}

// WithNJobs sets the number of trees fitted concurrently. 0 means one per CPU.
func WithNJobs(n int) ForestOption {
	return func(rf *RandomForestRegressor) {
		rf.NJobs = n
	}
}

// RandomForestRegressor はブートストラップ標本で学習した回帰木の平均で予測する
//
// 各木のシードは RandomState から順番に導出するため、並列に学習しても
// 結果は NJobs に依存しない
type RandomForestRegressor struct {
	model.BaseEstimator

	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int
	Bootstrap       bool
	RandomState     uint64
	NJobs           int

	Trees     []*tree.DecisionTreeRegressor
	NFeatures int
}

// NewRandomForestRegressor は新しいランダムフォレストを作成する
// デフォルト: 100本, ブートストラップあり, 全特徴量
func NewRandomForestRegressor(opts ...ForestOption) *RandomForestRegressor {
	rf := &RandomForestRegressor{
		NEstimators:     100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Bootstrap:       true,
	}
	for _, opt := range opts {
		opt(rf)
	}
	return rf
}

// Fit は全ての木を並列に学習する
func (rf *RandomForestRegressor) Fit(X, y mat.Matrix) error {
	n, c, err := model.CheckXY("RandomForestRegressor.Fit", X, y)
	if err != nil {
		return err
	}
	if rf.NEstimators <= 0 {
		return errors.NewValidationError("n_estimators", "must be positive", rf.NEstimators)
	}

	rows := model.Rows(X)
	yv := model.Column(y)

	master := rand.New(rand.NewPCG(rf.RandomState, rf.RandomState))
	seeds := make([]uint64, rf.NEstimators)
	for i := range seeds {
		seeds[i] = master.Uint64()
	}

	trees := make([]*tree.DecisionTreeRegressor, rf.NEstimators)
	errs := make([]error, rf.NEstimators)
	parallel.ParallelizeN(rf.NEstimators, rf.NJobs, func(start, end int) {
		for t := start; t < end; t++ {
			dt := tree.NewDecisionTreeRegressor(
				tree.WithMaxDepth(rf.MaxDepth),
				tree.WithMinSamplesSplit(rf.MinSamplesSplit),
				tree.WithMinSamplesLeaf(rf.MinSamplesLeaf),
				tree.WithMaxFeatures(rf.MaxFeatures),
				tree.WithRandomState(seeds[t]),
			)
			errs[t] = dt.FitRows(rows, yv, rf.sampleIndices(n, seeds[t]))
			trees[t] = dt
		}
	})
	for t, err := range errs {
		if err != nil {
			return errors.Wrapf(err, "tree %d", t)
		}
	}

	rf.Trees = trees
	rf.NFeatures = c
	rf.SetFitted()
	return nil
}

func (rf *RandomForestRegressor) sampleIndices(n int, seed uint64) []int {
	idx := make([]int, n)
	if !rf.Bootstrap {
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	r := rand.New(rand.NewPCG(seed, ^seed))
	for i := range idx {
		idx[i] = r.IntN(n)
	}
	return idx
}

// Predict は全ての木の予測の平均を返す
func (rf *RandomForestRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !rf.IsFitted() {
		return nil, errors.NewNotFittedError("RandomForestRegressor", "Predict")
	}
	r, err := model.CheckPredictInput("RandomForestRegressor.Predict", X, rf.NFeatures)
	if err != nil {
		return nil, err
	}

	rows := model.Rows(X)
	out := make([]float64, r)
	parallel.ParallelizeWithThreshold(r, 256, func(start, end int) {
		for i := start; i < end; i++ {
			sum := 0.0
			for _, t := range rf.Trees {
				sum += t.PredictRow(rows[i])
			}
			out[i] = sum / float64(len(rf.Trees))
		}
	})
	return model.ColumnVector(out), nil
}

// FeatureImportances は木ごとの重要度の平均を返す
func (rf *RandomForestRegressor) FeatureImportances() []float64 {
	imp := make([]float64, rf.NFeatures)
	for _, t := range rf.Trees {
		for j, v := range t.Importances {
			imp[j] += v
		}
	}
	for j := range imp {
		imp[j] /= float64(len(rf.Trees))
	}
	return imp
}

// Clone は同じハイパーパラメータの未学習のフォレストを返す
func (rf *RandomForestRegressor) Clone() model.Regressor {
	c := *rf
	c.BaseEstimator = model.BaseEstimator{}
	c.Trees = nil
	c.NFeatures = 0
	return &c
}

// GetParams はハイパーパラメータを返す
func (rf *RandomForestRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":      rf.NEstimators,
		"max_depth":         rf.MaxDepth,
		"min_samples_split": rf.MinSamplesSplit,
		"min_samples_leaf":  rf.MinSamplesLeaf,
		"max_features":      rf.MaxFeatures,
		"bootstrap":         rf.Bootstrap,
		"random_state":      rf.RandomState,
		"n_jobs":            rf.NJobs,
	}
}

// SetParams はハイパーパラメータを設定する
func (rf *RandomForestRegressor) SetParams(params map[string]interface{}) error {
	for k, v := range params {
		var err error
		switch k {
		case "n_estimators":
			rf.NEstimators, err = model.ParamInt(k, v)
		case "max_depth":
			rf.MaxDepth, err = model.ParamInt(k, v)
		case "min_samples_split":
			rf.MinSamplesSplit, err = model.ParamInt(k, v)
		case "min_samples_leaf":
			rf.MinSamplesLeaf, err = model.ParamInt(k, v)
		case "max_features":
			rf.MaxFeatures, err = model.ParamInt(k, v)
		case "n_jobs":
			rf.NJobs, err = model.ParamInt(k, v)
		case "random_state":
			var seed int
			seed, err = model.ParamInt(k, v)
			rf.RandomState = uint64(seed)
		case "bootstrap":
			b, ok := v.(bool)
			if !ok {
				return errors.NewValidationError(k, "expected a bool", v)
			}
			rf.Bootstrap = b
		default:
			return model.UnknownParam("RandomForestRegressor", k)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
