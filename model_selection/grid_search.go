package model_selection

import (
	"maps"
	"math"
	"slices"

	"github.com/YuminosukeSato/mrestimator/core/model"
	"github.com/YuminosukeSato/mrestimator/pkg/errors"
	"github.com/YuminosukeSato/mrestimator/pkg/log"
	"gonum.org/v1/gonum/mat"
)

// ParamGrid はハイパーパラメータ名から候補値への対応
type ParamGrid map[string][]interface{}

// Candidates はグリッドの直積を返す。キーは名前順で、最後のキーが最も速く変化する
func (g ParamGrid) Candidates() []map[string]interface{} {
	keys := slices.Sorted(maps.Keys(g))
	out := []map[string]interface{}{{}}
	for _, k := range keys {
		next := make([]map[string]interface{}, 0, len(out)*len(g[k]))
		for _, base := range out {
			for _, v := range g[k] {
				c := maps.Clone(base)
				c[k] = v
				next = append(next, c)
			}
		}
		out = next
	}
	return out
}

// GridResult は1候補の交差検証結果
type GridResult struct {
	Params  map[string]interface{}
	MeanMAE float64
	StdMAE  float64
}

// GridSearchCV はグリッド上の全候補を KFold で評価し、平均 MAE が最小の候補で
// 全データを学習し直す。同点の場合は先に評価した候補を選ぶ
//
// 使用例:
//
//	gs := model_selection.NewGridSearchCV(tree.NewDecisionTreeRegressor(),
//		model_selection.ParamGrid{"min_samples_leaf": {5, 10, 50, 100}}, 5)
//	err := gs.Fit(X, y)
type GridSearchCV struct {
	model.BaseEstimator

	Estimator model.Regressor
	Grid      ParamGrid
	CV        int

	BestParams    map[string]interface{}
	BestScore     float64
	BestEstimator model.Regressor
	Results       []GridResult
}

// NewGridSearchCV creates a grid search over est. est must implement
// model.Cloner and model.ParamSetter.
func NewGridSearchCV(est model.Regressor, grid ParamGrid, cv int) *GridSearchCV {
	return &GridSearchCV{Estimator: est, Grid: grid, CV: cv}
}

// Fit は全候補を評価し、最良の候補を全データで再学習する
func (gs *GridSearchCV) Fit(X, y mat.Matrix) error {
	if _, _, err := model.CheckXY("GridSearchCV.Fit", X, y); err != nil {
		return err
	}
	if _, ok := gs.Estimator.(model.ParamSetter); !ok {
		return errors.NewValueError("GridSearchCV.Fit", "estimator does not implement ParamSetter")
	}
	if len(gs.Grid) == 0 {
		return errors.NewValidationError("param_grid", "must not be empty", gs.Grid)
	}
	candidates := gs.Grid.Candidates()

	splitter := NewKFold(gs.CV, false, 0)
	logger := log.GetLogger().With(log.ComponentKey, "GridSearchCV")

	gs.Results = make([]GridResult, 0, len(candidates))
	bestIdx := -1
	bestScore := math.Inf(1)
	for i, params := range candidates {
		est, err := gs.withParams(params)
		if err != nil {
			return err
		}
		cv, err := CrossValidate(est, X, y, splitter)
		if err != nil {
			return errors.Wrapf(err, "grid search candidate %v", params)
		}
		score := cv.GetMeanScore()
		gs.Results = append(gs.Results, GridResult{Params: params, MeanMAE: score, StdMAE: cv.GetStdScore()})
		logger.Debug("grid candidate evaluated", log.HyperParamsKey, params, log.MAEKey, score)

		if score < bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return errors.NewNumericalInstabilityError("grid_search_score", []float64{bestScore}, 0)
	}

	best, err := gs.withParams(candidates[bestIdx])
	if err != nil {
		return err
	}
	if err := best.Fit(X, y); err != nil {
		return errors.Wrap(err, "refit best candidate")
	}

	gs.BestParams = candidates[bestIdx]
	gs.BestScore = bestScore
	gs.BestEstimator = best
	gs.SetFitted()
	return nil
}

func (gs *GridSearchCV) withParams(params map[string]interface{}) (model.Regressor, error) {
	est, err := model.Clone(gs.Estimator)
	if err != nil {
		return nil, err
	}
	ps, ok := est.(model.ParamSetter)
	if !ok {
		return nil, errors.NewValueError("GridSearchCV.Fit", "estimator does not implement ParamSetter")
	}
	if err := ps.SetParams(params); err != nil {
		return nil, err
	}
	return est, nil
}

// Predict は最良の推定器で予測する
func (gs *GridSearchCV) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !gs.IsFitted() {
		return nil, errors.NewNotFittedError("GridSearchCV", "Predict")
	}
	return gs.BestEstimator.Predict(X)
}

// Clone は同じ推定器とグリッドを持つ未学習の GridSearchCV を返す
func (gs *GridSearchCV) Clone() model.Regressor {
	est, err := model.Clone(gs.Estimator)
	if err != nil {
		est = gs.Estimator
	}
	return NewGridSearchCV(est, gs.Grid, gs.CV)
}
