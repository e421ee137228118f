// Package mrestimator estimates the mass (M) or radius (R) of a star from its
// observed parameters (Teff, logg, Meta, L) with supervised regression.
//
// Every observation in the input catalogue carries a lower and an upper
// uncertainty. The training set is augmented by drawing synthetic samples
// uniformly inside those intervals, normalized, and then used to train and
// compare a fixed set of regressors, from least squares to a stacked ensemble
// with nested grid search.
//
// # Quick Start
//
// The command line tool runs the whole pipeline:
//
//	mrestimate run --data stars.tsv --target M --train-samples 10
//
// which prints one line per model
//
//	>lr 0.112
//	>dtr 0.084
//	...
//
// and writes experiments/models_M.gob.xz, experiments/test_data_M.gob.xz,
// results/mae_M.png and results/results.db.
//
// The same pipeline is available as a library:
//
//	cfg := config.Default()
//	cfg.DataPath = "stars.tsv"
//	outcome, err := experiment.Run(ctx, cfg, os.Stdout)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	best, mae := outcome.Results.Best()
//
// # Packages
//
//   - dataset: TSV loader for records with uncertainty triples
//   - augmentation: uniform sampling inside the uncertainty intervals
//   - preprocessing: StandardScaler
//   - linear: LinearRegression, BayesianRidge
//   - tree: DecisionTreeRegressor
//   - ensemble: RandomForestRegressor, StackingRegressor
//   - svm: epsilon-SVR
//   - neighbors: KNeighborsRegressor
//   - neural: MLPRegressor
//   - model_selection: KFold, TrainTestSplit, GridSearchCV, CrossValPredict
//   - metrics: MAE, MSE, R²
//   - experiment: model registry, evaluation harness, end-to-end run
//   - report: model/test-data artifacts, bar chart, results store
//   - config: YAML configuration
//   - core/model: Regressor interfaces, BaseEstimator, persistence
//   - core/parallel: CPU-parallel helpers
//   - pkg/errors, pkg/log: error types and structured logging
//
// # Reproducibility
//
// The train/test split, the augmentation sampler and every seeded estimator
// take explicit seeds, so two runs with the same configuration produce the
// same scores.
package mrestimator
