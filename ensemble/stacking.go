package ensemble

import (
	"github.com/YuminosukeSato/mrestimator/core/model"
	"github.com/YuminosukeSato/mrestimator/model_selection"
	"github.com/YuminosukeSato/mrestimator/pkg/errors"
	"github.com/YuminosukeSato/mrestimator/pkg/log"
	"gonum.org/v1/gonum/mat"
)

// NamedEstimator は名前付きのベース推定器
type NamedEstimator struct {
	Name  string
	Model model.Regressor
}

// StackingRegressor はベース推定器の out-of-fold 予測を特徴量としてメタ推定器を学習する
//
// Fit ではベース推定器のクローンを全データで学習し、同時に KFold(CV) の
// CrossValPredict でメタ推定器用の訓練行列を作る。Predict では学習済みベースの
// 予測を並べてメタ推定器に渡す
type StackingRegressor struct {
	model.BaseEstimator

	Estimators     []NamedEstimator
	FinalEstimator model.Regressor
	CV             int

	FittedEstimators []model.Regressor
	FittedFinal      model.Regressor
	NFeatures        int
}

// NewStackingRegressor creates a stacking ensemble. cv < 2 falls back to 5 folds.
func NewStackingRegressor(estimators []NamedEstimator, final model.Regressor, cv int) *StackingRegressor {
	return &StackingRegressor{
		Estimators:     estimators,
		FinalEstimator: final,
		CV:             cv,
	}
}

// Fit はベース推定器とメタ推定器を学習する
func (s *StackingRegressor) Fit(X, y mat.Matrix) error {
	n, c, err := model.CheckXY("StackingRegressor.Fit", X, y)
	if err != nil {
		return err
	}
	if len(s.Estimators) == 0 {
		return errors.NewValidationError("estimators", "must not be empty", len(s.Estimators))
	}
	if s.FinalEstimator == nil {
		return errors.NewValidationError("final_estimator", "must not be nil", nil)
	}

	logger := log.GetLogger().With(log.ComponentKey, "StackingRegressor")
	splitter := model_selection.NewKFold(s.CV, false, 0)

	fitted := make([]model.Regressor, len(s.Estimators))
	meta := mat.NewDense(n, len(s.Estimators), nil)
	for j, est := range s.Estimators {
		m, err := model.Clone(est.Model)
		if err != nil {
			return errors.Wrapf(err, "base estimator %s", est.Name)
		}
		if err := m.Fit(X, y); err != nil {
			return errors.Wrapf(err, "fit base estimator %s", est.Name)
		}
		fitted[j] = m

		oof, err := model_selection.CrossValPredict(est.Model, X, y, splitter)
		if err != nil {
			return errors.Wrapf(err, "out-of-fold predictions for %s", est.Name)
		}
		meta.SetCol(j, oof.RawMatrix().Data)
		logger.Debug("base estimator fitted", log.ModelNameKey, est.Name)
	}

	final, err := model.Clone(s.FinalEstimator)
	if err != nil {
		return errors.Wrap(err, "final estimator")
	}
	if err := final.Fit(meta, y); err != nil {
		return errors.Wrap(err, "fit final estimator")
	}

	s.FittedEstimators = fitted
	s.FittedFinal = final
	s.NFeatures = c
	s.SetFitted()
	return nil
}

// Transform はベース推定器の予測を列に並べた行列を返す
func (s *StackingRegressor) Transform(X mat.Matrix) (*mat.Dense, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StackingRegressor", "Transform")
	}
	r, err := model.CheckPredictInput("StackingRegressor.Transform", X, s.NFeatures)
	if err != nil {
		return nil, err
	}

	meta := mat.NewDense(r, len(s.FittedEstimators), nil)
	col := make([]float64, r)
	for j, m := range s.FittedEstimators {
		pred, err := m.Predict(X)
		if err != nil {
			return nil, errors.Wrapf(err, "predict base estimator %s", s.Estimators[j].Name)
		}
		mat.Col(col, 0, pred)
		meta.SetCol(j, col)
	}
	return meta, nil
}

// Predict はメタ推定器の予測を返す
func (s *StackingRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StackingRegressor", "Predict")
	}
	meta, err := s.Transform(X)
	if err != nil {
		return nil, err
	}
	return s.FittedFinal.Predict(meta)
}

// Names はベース推定器の名前を返す
func (s *StackingRegressor) Names() []string {
	names := make([]string, len(s.Estimators))
	for i, e := range s.Estimators {
		names[i] = e.Name
	}
	return names
}

// Clone は同じ構成の未学習のスタッキングを返す
func (s *StackingRegressor) Clone() model.Regressor {
	ests := make([]NamedEstimator, len(s.Estimators))
	for i, e := range s.Estimators {
		m, err := model.Clone(e.Model)
		if err != nil {
			m = e.Model
		}
		ests[i] = NamedEstimator{Name: e.Name, Model: m}
	}
	final, err := model.Clone(s.FinalEstimator)
	if err != nil {
		final = s.FinalEstimator
	}
	return NewStackingRegressor(ests, final, s.CV)
}
