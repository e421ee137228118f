// Package tree は二乗誤差基準の回帰木を提供する
package tree

import (
	"math"
	"math/rand/v2"
	"slices"

	"github.com/YuminosukeSato/mrestimator/core/model"
	"github.com/YuminosukeSato/mrestimator/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// featureThreshold 未満の差しかない特徴量値の間では分割しない
const featureThreshold = 1e-7

// Node は木のノード。gob で保存できるよう子はポインタではなくインデックスで持つ
type Node struct {
	// Feature は分割に使う特徴量。葉では -1
	Feature   int
	Threshold float64
	Left      int
	Right     int
	// Value はノードに属するサンプルの平均
	Value    float64
	NSamples int
	Impurity float64
}

// IsLeaf は葉ノードかどうかを返す
func (n *Node) IsLeaf() bool {
	return n.Feature < 0
}

// DecisionTreeRegressor は CART 回帰木
type DecisionTreeRegressor struct {
	model.BaseEstimator

	// ハイパーパラメータ
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int
	RandomState     uint64

	// 学習結果
	Nodes       []Node
	NFeatures   int
	Depth       int
	Importances []float64
}

// NewDecisionTreeRegressor は新しい回帰木を作成する
// デフォルト: 深さ無制限, min_samples_split=2, min_samples_leaf=1, 全特徴量
func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	dt := &DecisionTreeRegressor{
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
	for _, opt := range opts {
		opt(dt)
	}
	return dt
}

// Fit は訓練データから木を構築する
func (dt *DecisionTreeRegressor) Fit(X, y mat.Matrix) error {
	n, _, err := model.CheckXY("DecisionTreeRegressor.Fit", X, y)
	if err != nil {
		return err
	}
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return dt.FitRows(model.Rows(X), model.Column(y), indices)
}

// FitRows は行データの indices で示すサンプルから木を構築する。
// indices には重複があってよく、ブートストラップ標本をそのまま渡せる
func (dt *DecisionTreeRegressor) FitRows(rows [][]float64, y []float64, indices []int) error {
	if len(indices) == 0 || len(rows) == 0 {
		return errors.NewModelError("DecisionTreeRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if len(rows) != len(y) {
		return errors.NewDimensionError("DecisionTreeRegressor.Fit", len(rows), len(y), 0)
	}
	if err := dt.validate(); err != nil {
		return err
	}

	d := len(rows[0])
	b := &builder{
		dt:          dt,
		rows:        rows,
		y:           y,
		nFeatures:   d,
		rng:         rand.New(rand.NewPCG(dt.RandomState, dt.RandomState^0x9e3779b97f4a7c15)),
		importances: make([]float64, d),
	}

	dt.Nodes = dt.Nodes[:0]
	dt.Depth = 0
	b.build(slices.Clone(indices), 0)

	total := 0.0
	for _, v := range b.importances {
		total += v
	}
	if total > 0 {
		for i := range b.importances {
			b.importances[i] /= total
		}
	}
	dt.Importances = b.importances
	dt.NFeatures = d
	dt.SetFitted()
	return nil
}

func (dt *DecisionTreeRegressor) validate() error {
	if dt.MinSamplesSplit < 2 {
		return errors.NewValidationError("min_samples_split", "must be at least 2", dt.MinSamplesSplit)
	}
	if dt.MinSamplesLeaf < 1 {
		return errors.NewValidationError("min_samples_leaf", "must be at least 1", dt.MinSamplesLeaf)
	}
	if dt.MaxDepth < 0 {
		return errors.NewValidationError("max_depth", "must be non-negative", dt.MaxDepth)
	}
	if dt.MaxFeatures < 0 {
		return errors.NewValidationError("max_features", "must be non-negative", dt.MaxFeatures)
	}
	return nil
}

type builder struct {
	dt          *DecisionTreeRegressor
	rows        [][]float64
	y           []float64
	nFeatures   int
	rng         *rand.Rand
	importances []float64
}

type split struct {
	feature   int
	threshold float64
	cost      float64
	pos       int
	sorted    []int
}

// build はノードを追加し、そのインデックスを返す
func (b *builder) build(idx []int, depth int) int {
	dt := b.dt
	n := len(idx)

	sum, sumSq := 0.0, 0.0
	for _, i := range idx {
		sum += b.y[i]
		sumSq += b.y[i] * b.y[i]
	}
	mean := sum / float64(n)
	sse := math.Max(sumSq-sum*sum/float64(n), 0)

	id := len(dt.Nodes)
	dt.Nodes = append(dt.Nodes, Node{
		Feature:  -1,
		Left:     -1,
		Right:    -1,
		Value:    mean,
		NSamples: n,
		Impurity: sse / float64(n),
	})
	if depth > dt.Depth {
		dt.Depth = depth
	}

	if (dt.MaxDepth > 0 && depth >= dt.MaxDepth) ||
		n < dt.MinSamplesSplit ||
		n < 2*dt.MinSamplesLeaf ||
		sse/float64(n) <= 1e-14 {
		return id
	}

	best, ok := b.bestSplit(idx)
	if !ok {
		return id
	}
	b.importances[best.feature] += sse - best.cost

	left := slices.Clone(best.sorted[:best.pos])
	right := slices.Clone(best.sorted[best.pos:])

	dt.Nodes[id].Feature = best.feature
	dt.Nodes[id].Threshold = best.threshold
	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	dt.Nodes[id].Left = l
	dt.Nodes[id].Right = r
	return id
}

// bestSplit は左右の二乗誤差和の合計が最小になる分割を探す
func (b *builder) bestSplit(idx []int) (split, bool) {
	features := b.candidateFeatures()
	minLeaf := b.dt.MinSamplesLeaf
	n := len(idx)

	best := split{cost: math.Inf(1)}
	found := false
	sorted := make([]int, n)

	for _, f := range features {
		copy(sorted, idx)
		b.sortBy(sorted, f)

		totalSum, totalSq := 0.0, 0.0
		for _, i := range sorted {
			totalSum += b.y[i]
			totalSq += b.y[i] * b.y[i]
		}

		leftSum, leftSq := 0.0, 0.0
		for pos := 0; pos < n-1; pos++ {
			yi := b.y[sorted[pos]]
			leftSum += yi
			leftSq += yi * yi

			nl := pos + 1
			nr := n - nl
			if nl < minLeaf {
				continue
			}
			if nr < minLeaf {
				break
			}
			v, next := b.rows[sorted[pos]][f], b.rows[sorted[pos+1]][f]
			if next <= v+featureThreshold {
				continue
			}

			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			cost := (leftSq - leftSum*leftSum/float64(nl)) + (rightSq - rightSum*rightSum/float64(nr))
			if cost < best.cost {
				threshold := (v + next) / 2
				if threshold >= next {
					threshold = v
				}
				best = split{feature: f, threshold: threshold, cost: cost, pos: nl}
				found = true
			}
		}
	}
	if found {
		// 分割位置は値が異なる境界なので、並べ直しても同じ左右に分かれる
		copy(sorted, idx)
		b.sortBy(sorted, best.feature)
		best.sorted = sorted
	}
	return best, found
}

func (b *builder) sortBy(idx []int, f int) {
	slices.SortFunc(idx, func(a, c int) int {
		va, vc := b.rows[a][f], b.rows[c][f]
		switch {
		case va < vc:
			return -1
		case va > vc:
			return 1
		}
		return 0
	})
}

func (b *builder) candidateFeatures() []int {
	d := b.nFeatures
	k := b.dt.MaxFeatures
	if k <= 0 || k >= d {
		all := make([]int, d)
		for i := range all {
			all[i] = i
		}
		return all
	}
	return b.rng.Perm(d)[:k]
}

// Predict は各サンプルが到達する葉の平均値を返す
func (dt *DecisionTreeRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !dt.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeRegressor", "Predict")
	}
	r, err := model.CheckPredictInput("DecisionTreeRegressor.Predict", X, dt.NFeatures)
	if err != nil {
		return nil, err
	}

	out := mat.NewDense(r, 1, nil)
	row := make([]float64, dt.NFeatures)
	for i := 0; i < r; i++ {
		mat.Row(row, i, X)
		out.Set(i, 0, dt.PredictRow(row))
	}
	return out, nil
}

// PredictRow は1サンプルの予測値を返す
func (dt *DecisionTreeRegressor) PredictRow(row []float64) float64 {
	node := &dt.Nodes[0]
	for !node.IsLeaf() {
		if row[node.Feature] <= node.Threshold {
			node = &dt.Nodes[node.Left]
		} else {
			node = &dt.Nodes[node.Right]
		}
	}
	return node.Value
}

// GetDepth は木の深さを返す
func (dt *DecisionTreeRegressor) GetDepth() int {
	return dt.Depth
}

// GetNLeaves は葉の数を返す
func (dt *DecisionTreeRegressor) GetNLeaves() int {
	leaves := 0
	for i := range dt.Nodes {
		if dt.Nodes[i].IsLeaf() {
			leaves++
		}
	}
	return leaves
}

// FeatureImportances は不純度減少に基づく正規化済みの重要度を返す
func (dt *DecisionTreeRegressor) FeatureImportances() []float64 {
	return slices.Clone(dt.Importances)
}

// Clone は同じハイパーパラメータの未学習の木を返す
func (dt *DecisionTreeRegressor) Clone() model.Regressor {
	return NewDecisionTreeRegressor(
		WithMaxDepth(dt.MaxDepth),
		WithMinSamplesSplit(dt.MinSamplesSplit),
		WithMinSamplesLeaf(dt.MinSamplesLeaf),
		WithMaxFeatures(dt.MaxFeatures),
		WithRandomState(dt.RandomState),
	)
}

// GetParams はハイパーパラメータを返す
func (dt *DecisionTreeRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"criterion":         "squared_error",
		"max_depth":         dt.MaxDepth,
		"min_samples_split": dt.MinSamplesSplit,
		"min_samples_leaf":  dt.MinSamplesLeaf,
		"max_features":      dt.MaxFeatures,
		"random_state":      dt.RandomState,
	}
}

// SetParams はハイパーパラメータを設定する
func (dt *DecisionTreeRegressor) SetParams(params map[string]interface{}) error {
	for k, v := range params {
		var err error
		switch k {
		case "max_depth":
			dt.MaxDepth, err = model.ParamInt(k, v)
		case "min_samples_split":
			dt.MinSamplesSplit, err = model.ParamInt(k, v)
		case "min_samples_leaf":
			dt.MinSamplesLeaf, err = model.ParamInt(k, v)
		case "max_features":
			dt.MaxFeatures, err = model.ParamInt(k, v)
		case "random_state":
			var seed int
			seed, err = model.ParamInt(k, v)
			dt.RandomState = uint64(seed)
		case "criterion":
			if s, _ := v.(string); s != "squared_error" {
				return errors.NewValidationError(k, "only squared_error is supported", v)
			}
		default:
			return model.UnknownParam("DecisionTreeRegressor", k)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
