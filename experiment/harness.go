package experiment

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mrestimator/core/model"
	"github.com/YuminosukeSato/mrestimator/metrics"
	"github.com/YuminosukeSato/mrestimator/pkg/errors"
	"github.com/YuminosukeSato/mrestimator/pkg/log"
)

// Split は正規化済みの訓練・テストデータ
type Split struct {
	XTrain *mat.Dense
	YTrain *mat.VecDense
	XTest  *mat.Dense
	YTest  *mat.VecDense
}

// Result は1モデルの評価結果
type Result struct {
	Name        string
	MAE         float64
	// R2 はテスト目的変数が定数のとき NaN
	R2          float64
	Predictions *mat.Dense
	Duration    time.Duration
}

// Results は登録順に並んだ評価結果
type Results struct {
	Names       []string
	Scores      []float64
	R2          []float64
	Predictions []*mat.Dense
	Models      []model.Regressor
	// Failed は WithIsolateFailures で読み飛ばしたモデル
	Failed []string
}

// Best は MAE が最小のモデル名を返す
func (r *Results) Best() (string, float64) {
	best, score := "", math.Inf(1)
	for i, s := range r.Scores {
		if s < score {
			best, score = r.Names[i], s
		}
	}
	return best, score
}

// Evaluate は m を訓練データで学習し、テストデータの MAE を計算する。
// 推定器内の panic はエラーとして返す
func Evaluate(ctx context.Context, name string, m model.Regressor, XTrain, yTrain, XTest, yTest mat.Matrix) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, errors.Wrapf(err, "evaluation of %s cancelled", name)
	}

	start := time.Now()
	if err := errors.SafeExecute(name+".Fit", func() error {
		return m.Fit(XTrain, yTrain)
	}); err != nil {
		return Result{}, errors.Wrapf(err, "failed to fit %s", name)
	}

	var pred mat.Matrix
	if err := errors.SafeExecute(name+".Predict", func() error {
		var err error
		pred, err = m.Predict(XTest)
		return err
	}); err != nil {
		return Result{}, errors.Wrapf(err, "failed to predict with %s", name)
	}

	mae, err := metrics.MAEMatrix(yTest, pred)
	if err != nil {
		return Result{}, errors.Wrapf(err, "failed to score %s", name)
	}
	r2, err := metrics.R2ScoreMatrix(yTest, pred)
	if err != nil {
		r2 = math.NaN()
	}

	return Result{
		Name:        name,
		MAE:         mae,
		R2:          r2,
		Predictions: mat.DenseCopyOf(pred),
		Duration:    time.Since(start),
	}, nil
}

// Harness はレジストリの全モデルを順に評価する
type Harness struct {
	out     io.Writer
	logger  log.Logger
	isolate bool
}

// HarnessOption は Harness を設定する関数
type HarnessOption func(*Harness)

// WithOutput sets the writer for the ">name mae" console lines.
func WithOutput(w io.Writer) HarnessOption {
	return func(h *Harness) {
		h.out = w
	}
}

// WithLogger sets the structured logger.
func WithLogger(l log.Logger) HarnessOption {
	return func(h *Harness) {
		h.logger = l
	}
}

// WithIsolateFailures logs and skips models whose fit or predict fails
// instead of aborting the run.
func WithIsolateFailures(isolate bool) HarnessOption {
	return func(h *Harness) {
		h.isolate = isolate
	}
}

// NewHarness は標準出力に書き出す Harness を作る
func NewHarness(opts ...HarnessOption) *Harness {
	h := &Harness{out: os.Stdout}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = log.GetLogger()
	}
	h.logger = h.logger.With(log.ComponentKey, "experiment")
	return h
}

// Run は登録順に各モデルを評価し、">name 0.123" を出力する
func (h *Harness) Run(ctx context.Context, reg *Registry, split Split) (*Results, error) {
	res := &Results{}
	logger := h.logger.With(log.TargetKey, string(reg.Target))

	for _, name := range reg.Names() {
		m, _ := reg.Get(name)
		r, err := Evaluate(ctx, name, m, split.XTrain, split.YTrain, split.XTest, split.YTest)
		if err != nil {
			if ctx.Err() != nil || !h.isolate {
				return res, err
			}
			logger.Error("model evaluation failed", err, log.ModelNameKey, name)
			res.Failed = append(res.Failed, name)
			continue
		}

		if _, err := fmt.Fprintf(h.out, ">%s %.3f\n", name, r.MAE); err != nil {
			return res, errors.Wrap(err, "failed to write score")
		}
		logger.Info("model evaluated",
			log.ModelNameKey, name,
			log.OperationKey, log.OperationScore,
			log.MAEKey, r.MAE,
			log.R2ScoreKey, r.R2,
			log.DurationMsKey, r.Duration.Milliseconds(),
		)

		res.Names = append(res.Names, name)
		res.Scores = append(res.Scores, r.MAE)
		res.R2 = append(res.R2, r.R2)
		res.Predictions = append(res.Predictions, r.Predictions)
		res.Models = append(res.Models, m)
	}
	return res, nil
}
