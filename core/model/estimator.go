package model

import (
	"github.com/YuminosukeSato/mrestimator/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる。y は n×1 の列ベクトル
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を n×1 の行列で返す
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Regressor は回帰モデルの共通インターフェース。
// ハーネスやアンサンブルはこの2操作だけに依存する
type Regressor interface {
	Fitter
	Predictor
}

// Cloner は同じハイパーパラメータを持つ未学習のコピーを作れるモデル
type Cloner interface {
	Clone() Regressor
}

// ParamSetter はグリッドサーチからハイパーパラメータを変更できるモデル
type ParamSetter interface {
	// GetParams はハイパーパラメータを返す
	GetParams() map[string]interface{}
	// SetParams はハイパーパラメータを設定する。未知のキーはエラー
	SetParams(params map[string]interface{}) error
}

// Clone は r の未学習コピーを返す。Cloner を実装していない場合はエラー
func Clone(r Regressor) (Regressor, error) {
	c, ok := r.(Cloner)
	if !ok {
		return nil, errors.NewValueError("model.Clone", "estimator does not implement Cloner")
	}
	return c.Clone(), nil
}
