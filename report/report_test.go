package report

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mrestimator/core/model"
	"github.com/YuminosukeSato/mrestimator/linear"
	"github.com/YuminosukeSato/mrestimator/model_selection"
	"github.com/YuminosukeSato/mrestimator/tree"
)

func trainingData() (*mat.Dense, *mat.Dense) {
	n := 40
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		a, b := float64(i), float64(i%7)
		X.SetRow(i, []float64{a, b})
		y.Set(i, 0, 2*a-b+1)
	}
	return X, y
}

func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	exp := filepath.Join(root, "experiments")
	res := filepath.Join(root, "results")

	require.NoError(t, EnsureDirectories(exp, res))
	require.NoError(t, EnsureDirectories(exp, res))
	for _, d := range []string{exp, res} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestSaveLoadModels(t *testing.T) {
	dir := t.TempDir()
	X, y := trainingData()

	lr := linear.NewLinearRegression()
	require.NoError(t, lr.Fit(X, y))
	gs := model_selection.NewGridSearchCV(tree.NewDecisionTreeRegressor(),
		model_selection.ParamGrid{"min_samples_leaf": {1, 5}}, 2)
	require.NoError(t, gs.Fit(X, y))

	coll := &ModelCollection{
		Target: "M",
		Names:  []string{"lr", "dtr"},
		Models: []model.Regressor{lr, gs},
	}
	path, err := SaveModels(dir, "M", coll)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "models_M.gob.xz"), path)

	loaded, err := LoadModels(dir, "M")
	require.NoError(t, err)
	assert.Equal(t, "M", loaded.Target)
	assert.Equal(t, []string{"lr", "dtr"}, loaded.Names)

	for _, name := range coll.Names {
		orig, _ := coll.Get(name)
		got, ok := loaded.Get(name)
		require.True(t, ok, name)

		want, err := orig.Predict(X)
		require.NoError(t, err)
		pred, err := got.Predict(X)
		require.NoError(t, err)
		assert.True(t, mat.EqualApprox(want, pred, 1e-12), name)
	}

	_, ok := loaded.Get("svm")
	assert.False(t, ok)
}

func TestSaveModels_Mismatch(t *testing.T) {
	_, err := SaveModels(t.TempDir(), "R", &ModelCollection{Names: []string{"lr"}})
	assert.Error(t, err)
}

func TestLoadModels_Missing(t *testing.T) {
	_, err := LoadModels(t.TempDir(), "R")
	assert.Error(t, err)
}

func TestSaveLoadTestData(t *testing.T) {
	dir := t.TempDir()
	art := &TestArtifact{
		XTest:    mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6}),
		YTest:    mat.NewVecDense(2, []float64{0.5, 1.5}),
		NSamples: 0,
	}
	path, err := SaveTestData(dir, "R", art)
	require.NoError(t, err)
	assert.Equal(t, TestDataPath(dir, "R"), path)

	loaded, err := LoadTestData(dir, "R")
	require.NoError(t, err)
	assert.True(t, mat.Equal(art.XTest, loaded.XTest))
	assert.True(t, mat.Equal(art.YTest, loaded.YTest))
	assert.Equal(t, 0, loaded.NSamples)

	_, err = SaveTestData(dir, "R", &TestArtifact{
		XTest: mat.NewDense(3, 1, nil),
		YTest: mat.NewVecDense(2, nil),
	})
	assert.Error(t, err)
}

func TestPlotScores(t *testing.T) {
	path := PlotPath(t.TempDir(), "M")
	require.NoError(t, PlotScores(path, "M",
		[]string{"lr", "dtr", "rf"}, []float64{0.12, 0.08, 0.05}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	assert.Error(t, PlotScores(path, "M", nil, nil))
	assert.Error(t, PlotScores(path, "M", []string{"lr"}, []float64{1, 2}))
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	s, err := OpenStore(ctx, filepath.Join(t.TempDir(), StoreFile))
	require.NoError(t, err)
	defer s.Close()

	run := Run{Target: "M", Features: "Teff,logg,Meta,L", TrainSamples: 10, SplitSeed: 1, AugmentSeed: 1, NTrain: 80, NTest: 20}
	id1, err := s.RecordRun(ctx, run, []Score{{Name: "lr", MAE: 0.2, R2: 0.5}, {Name: "rf", MAE: 0.1, R2: 0.8}})
	require.NoError(t, err)
	id2, err := s.RecordRun(ctx, run, []Score{{Name: "lr", MAE: 0.15, R2: math.NaN()}})
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	scores, err := s.Scores(ctx, id1)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, "lr", scores[0].Name)
	assert.Equal(t, "rf", scores[1].Name)
	assert.InDelta(t, 0.8, scores[1].R2, 1e-12)

	runs, err := s.Runs(ctx, "M")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, id2, runs[0].ID)
	assert.Equal(t, uint64(1), runs[0].SplitSeed)
	assert.False(t, runs[0].CreatedAt.IsZero())

	latest, err := s.Scores(ctx, id2)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.True(t, math.IsNaN(latest[0].R2))

	best, ok, err := s.BestScore(ctx, "M", "lr")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 0.15, best, 1e-12)

	_, ok, err = s.BestScore(ctx, "R", "lr")
	require.NoError(t, err)
	assert.False(t, ok)
}
