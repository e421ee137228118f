package model_selection

import (
	"math"
	"sync"

	"github.com/YuminosukeSato/mrestimator/core/model"
	"github.com/YuminosukeSato/mrestimator/metrics"
	"github.com/YuminosukeSato/mrestimator/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// CVResult stores cross-validation results. Scores are MAE, lower is better.
type CVResult struct {
	TestScores []float64
}

// GetMeanScore returns mean test score
func (cv *CVResult) GetMeanScore() float64 {
	if len(cv.TestScores) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, score := range cv.TestScores {
		sum += score
	}
	return sum / float64(len(cv.TestScores))
}

// GetStdScore returns standard deviation of test scores
func (cv *CVResult) GetStdScore() float64 {
	if len(cv.TestScores) <= 1 {
		return 0.0
	}
	mean := cv.GetMeanScore()
	sumSq := 0.0
	for _, score := range cv.TestScores {
		diff := score - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(cv.TestScores)-1))
}

// CrossValidate fits a fresh clone of est on every fold concurrently and
// scores it on the held-out rows with MAE.
func CrossValidate(est model.Regressor, X, y mat.Matrix, splitter KFoldSplitter) (*CVResult, error) {
	folds, err := splitter.Split(X)
	if err != nil {
		return nil, err
	}
	nFolds := len(folds)
	result := &CVResult{TestScores: make([]float64, nFolds)}

	var wg sync.WaitGroup
	errs := make([]error, nFolds)
	for foldIdx := 0; foldIdx < nFolds; foldIdx++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			pred, testY, err := fitPredictFold(est, X, y, folds[idx])
			if err != nil {
				errs[idx] = errors.Wrapf(err, "fold %d", idx)
				return
			}
			result.TestScores[idx], errs[idx] = metrics.MAEMatrix(testY, pred)
		}(foldIdx)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// CrossValPredict returns out-of-fold predictions: row i is predicted by a
// clone of est that never saw row i during fitting.
func CrossValPredict(est model.Regressor, X, y mat.Matrix, splitter KFoldSplitter) (*mat.Dense, error) {
	n, _ := X.Dims()
	folds, err := splitter.Split(X)
	if err != nil {
		return nil, err
	}

	out := mat.NewDense(n, 1, nil)
	var wg sync.WaitGroup
	errs := make([]error, len(folds))
	for foldIdx := range folds {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			fold := folds[idx]
			pred, _, err := fitPredictFold(est, X, y, fold)
			if err != nil {
				errs[idx] = errors.Wrapf(err, "fold %d", idx)
				return
			}
			// test indices are disjoint across folds
			for i, row := range fold.TestIndices {
				out.Set(row, 0, pred.At(i, 0))
			}
		}(foldIdx)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func fitPredictFold(est model.Regressor, X, y mat.Matrix, fold CVFold) (mat.Matrix, mat.Matrix, error) {
	m, err := model.Clone(est)
	if err != nil {
		return nil, nil, err
	}
	trainX, trainY := model.SubsetRows(X, fold.TrainIndices), model.SubsetRows(y, fold.TrainIndices)
	testX, testY := model.SubsetRows(X, fold.TestIndices), model.SubsetRows(y, fold.TestIndices)

	if err := m.Fit(trainX, trainY); err != nil {
		return nil, nil, errors.Wrap(err, "training failed")
	}
	pred, err := m.Predict(testX)
	if err != nil {
		return nil, nil, errors.Wrap(err, "prediction failed")
	}
	return pred, testY, nil
}
