// Package report は学習済みモデル・テストデータの保存、MAE の棒グラフ、
// 実行履歴の sqlite ストアを提供する
package report

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mrestimator/core/model"
	"github.com/YuminosukeSato/mrestimator/ensemble"
	"github.com/YuminosukeSato/mrestimator/linear"
	"github.com/YuminosukeSato/mrestimator/model_selection"
	"github.com/YuminosukeSato/mrestimator/neighbors"
	"github.com/YuminosukeSato/mrestimator/neural"
	"github.com/YuminosukeSato/mrestimator/pkg/errors"
	"github.com/YuminosukeSato/mrestimator/preprocessing"
	"github.com/YuminosukeSato/mrestimator/svm"
	"github.com/YuminosukeSato/mrestimator/tree"
)

// インターフェース型のフィールドに入る具象型は gob に登録しておく
func init() {
	gob.Register(&linear.LinearRegression{})
	gob.Register(&linear.BayesianRidge{})
	gob.Register(&tree.DecisionTreeRegressor{})
	gob.Register(&ensemble.RandomForestRegressor{})
	gob.Register(&ensemble.StackingRegressor{})
	gob.Register(&svm.SVR{})
	gob.Register(&neighbors.KNeighborsRegressor{})
	gob.Register(&neural.MLPRegressor{})
	gob.Register(&model_selection.GridSearchCV{})
}

// ModelCollection は1回の実行で学習したモデルを登録順に保持する
type ModelCollection struct {
	Target string
	Names  []string
	Models []model.Regressor
	// Scaler は訓練データで学習した正規化パラメータ
	Scaler *preprocessing.StandardScaler
}

// Get は名前でモデルを探す
func (c *ModelCollection) Get(name string) (model.Regressor, bool) {
	for i, n := range c.Names {
		if n == name {
			return c.Models[i], true
		}
	}
	return nil, false
}

// TestArtifact は評価に使った正規化済みテストデータ
type TestArtifact struct {
	XTest *mat.Dense
	YTest *mat.VecDense
	// NSamples はテスト側の拡張サンプル数 K_test
	NSamples int
}

// ModelsPath は experiments/models_<T>.gob.xz のパスを返す
func ModelsPath(dir, target string) string {
	return filepath.Join(dir, fmt.Sprintf("models_%s.gob.xz", target))
}

// TestDataPath は experiments/test_data_<T>.gob.xz のパスを返す
func TestDataPath(dir, target string) string {
	return filepath.Join(dir, fmt.Sprintf("test_data_%s.gob.xz", target))
}

// EnsureDirectories は存在しないディレクトリを作成する
func EnsureDirectories(dirs ...string) error {
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create directory %s", d)
		}
	}
	return nil
}

// SaveModels は学習済みモデルを gob+xz で保存し、書き込んだパスを返す
func SaveModels(dir, target string, c *ModelCollection) (string, error) {
	if len(c.Names) != len(c.Models) {
		return "", errors.NewDimensionError("report.SaveModels", len(c.Names), len(c.Models), 0)
	}
	path := ModelsPath(dir, target)
	if err := model.SaveCompressed(c, path); err != nil {
		return "", errors.Wrapf(err, "failed to save models for target %s", target)
	}
	return path, nil
}

// LoadModels は SaveModels で保存したモデルを読み込む
func LoadModels(dir, target string) (*ModelCollection, error) {
	var c ModelCollection
	if err := model.LoadCompressed(&c, ModelsPath(dir, target)); err != nil {
		return nil, errors.Wrapf(err, "failed to load models for target %s", target)
	}
	return &c, nil
}

// SaveTestData はテストデータを gob+xz で保存し、書き込んだパスを返す
func SaveTestData(dir, target string, art *TestArtifact) (string, error) {
	if art.XTest == nil || art.YTest == nil {
		return "", errors.NewValueError("report.SaveTestData", "test data is empty")
	}
	r, _ := art.XTest.Dims()
	if r != art.YTest.Len() {
		return "", errors.NewDimensionError("report.SaveTestData", r, art.YTest.Len(), 0)
	}
	path := TestDataPath(dir, target)
	if err := model.SaveCompressed(art, path); err != nil {
		return "", errors.Wrapf(err, "failed to save test data for target %s", target)
	}
	return path, nil
}

// LoadTestData は SaveTestData で保存したテストデータを読み込む
func LoadTestData(dir, target string) (*TestArtifact, error) {
	var art TestArtifact
	if err := model.LoadCompressed(&art, TestDataPath(dir, target)); err != nil {
		return nil, errors.Wrapf(err, "failed to load test data for target %s", target)
	}
	return &art, nil
}
