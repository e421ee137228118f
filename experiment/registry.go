// Package experiment は回帰モデルの登録、評価ハーネス、
// 読み込みから保存までの一連の実行をまとめる
package experiment

import (
	"github.com/YuminosukeSato/mrestimator/core/model"
	"github.com/YuminosukeSato/mrestimator/dataset"
	"github.com/YuminosukeSato/mrestimator/ensemble"
	"github.com/YuminosukeSato/mrestimator/linear"
	"github.com/YuminosukeSato/mrestimator/model_selection"
	"github.com/YuminosukeSato/mrestimator/neighbors"
	"github.com/YuminosukeSato/mrestimator/neural"
	"github.com/YuminosukeSato/mrestimator/pkg/errors"
	"github.com/YuminosukeSato/mrestimator/svm"
	"github.com/YuminosukeSato/mrestimator/tree"
)

// ModelNames は評価と出力の順序
var ModelNames = []string{"lr", "dtr", "rf", "svm", "bayes", "knn", "nnet", "stacking"}

// gridCV はグリッドサーチの分割数
const gridCV = 5

// Registry は名前から未学習モデルへの対応。構築時には何も学習しない
type Registry struct {
	Target dataset.Target
	names  []string
	models map[string]model.Regressor
}

// NewRegistry は target 用のモデル一式を作る
func NewRegistry(target dataset.Target) (*Registry, error) {
	var lrInit float64
	switch target {
	case dataset.Mass:
		lrInit = 0.2
	case dataset.Radius:
		lrInit = 0.09
	default:
		return nil, errors.NewValidationError("target", "must be M or R", string(target))
	}

	stackBase := []ensemble.NamedEstimator{{Name: "nnet", Model: newMLP(lrInit)}}
	if target == dataset.Mass {
		stackBase = append(stackBase,
			ensemble.NamedEstimator{Name: "rf", Model: ensemble.NewRandomForestRegressor(ensemble.WithForestRandomState(0))},
			ensemble.NamedEstimator{Name: "knn", Model: neighbors.NewKNeighborsRegressor()},
		)
	}
	stackBase = append(stackBase, ensemble.NamedEstimator{Name: "svr", Model: newSVRSearch()})

	models := map[string]model.Regressor{
		"lr": linear.NewLinearRegression(),
		"dtr": model_selection.NewGridSearchCV(tree.NewDecisionTreeRegressor(),
			model_selection.ParamGrid{"min_samples_leaf": {5, 10, 50, 100}}, gridCV),
		"rf":       ensemble.NewRandomForestRegressor(),
		"svm":      newSVRSearch(),
		"bayes":    linear.NewBayesianRidge(),
		"knn":      neighbors.NewKNeighborsRegressor(),
		"nnet":     newMLP(lrInit),
		"stacking": ensemble.NewStackingRegressor(stackBase, linear.NewBayesianRidge(), 2),
	}
	return &Registry{Target: target, names: ModelNames, models: models}, nil
}

func newSVRSearch() *model_selection.GridSearchCV {
	return model_selection.NewGridSearchCV(svm.NewSVR(), model_selection.ParamGrid{
		"kernel": {"rbf"},
		"gamma":  {1e-3, 1e-4},
		"C":      {1.0, 10.0, 100.0, 1000.0},
	}, gridCV)
}

func newMLP(lrInit float64) *neural.MLPRegressor {
	return neural.NewMLPRegressor(
		neural.WithHiddenLayerSizes(25, 25, 25, 25),
		neural.WithActivation("relu"),
		neural.WithLearningRate("adaptive"),
		neural.WithLearningRateInit(lrInit),
		neural.WithAlpha(0.01),
		neural.WithMaxIter(1000),
		neural.WithRandomState(0),
	)
}

// Names は登録順のモデル名を返す
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Get は名前でモデルを返す
func (r *Registry) Get(name string) (model.Regressor, bool) {
	m, ok := r.models[name]
	return m, ok
}

// Models は登録順のモデルを返す
func (r *Registry) Models() []model.Regressor {
	out := make([]model.Regressor, len(r.names))
	for i, n := range r.names {
		out[i] = r.models[n]
	}
	return out
}

// Len は登録されたモデルの数
func (r *Registry) Len() int {
	return len(r.names)
}

// NewRegistryWith は任意のモデルでレジストリを作る。names の順で評価される
func NewRegistryWith(target dataset.Target, names []string, models []model.Regressor) (*Registry, error) {
	if len(names) != len(models) {
		return nil, errors.NewDimensionError("experiment.NewRegistryWith", len(names), len(models), 0)
	}
	m := make(map[string]model.Regressor, len(names))
	for i, n := range names {
		if _, dup := m[n]; dup {
			return nil, errors.NewValidationError("names", "duplicate model name", n)
		}
		m[n] = models[i]
	}
	return &Registry{Target: target, names: append([]string(nil), names...), models: m}, nil
}
