// Package log defines standard attribute keys for the estimation pipeline.
//
// The keys follow a hierarchical naming convention (e.g. "model.name",
// "data.samples") so that log lines from the estimators and the harness can be
// filtered together.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the registry name or type of a model ("svm", "MLPRegressor").
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed ("fit", "predict", ...).
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the run ("training", "testing", ...).
	PhaseKey = "ml.phase"

	// TargetKey is the stellar quantity being estimated ("M" or "R").
	TargetKey = "stellar.target"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of samples (rows).
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns).
	FeaturesKey = "data.features"

	// AugmentSamplesKey is the number of synthetic samples drawn per record.
	AugmentSamplesKey = "data.augment_samples"

	// DroppedKey is the number of records removed for missing values.
	DroppedKey = "data.dropped"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// LossKey records a training loss value.
	LossKey = "metrics.loss"

	// MAEKey records the mean absolute error of an evaluation.
	MAEKey = "metrics.mae"

	// R2ScoreKey records the R² coefficient of determination.
	R2ScoreKey = "metrics.r2_score"

	// IterationKey records the current iteration number.
	IterationKey = "training.iteration"

	// EpochKey records the current epoch number.
	EpochKey = "training.epoch"
)

// Error Context
const (
	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// StacktraceKey contains stack trace information for debugging.
	StacktraceKey = "error.stacktrace"
)

// Hyperparameters and Configuration
const (
	// HyperParamsKey contains model hyperparameters as a structured object.
	HyperParamsKey = "model.hyperparams"

	// LearningRateKey records the learning rate for gradient-based algorithms.
	LearningRateKey = "hyperparams.learning_rate"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Standard attribute values.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationScore     = "score"
	OperationAugment   = "augment"
	OperationLoad      = "load"
	OperationPersist   = "persist"

	PhaseTraining      = "training"
	PhaseValidation    = "validation"
	PhaseTesting       = "testing"
	PhasePreprocessing = "preprocessing"
)
