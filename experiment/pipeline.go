package experiment

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mrestimator/augmentation"
	"github.com/YuminosukeSato/mrestimator/config"
	"github.com/YuminosukeSato/mrestimator/dataset"
	"github.com/YuminosukeSato/mrestimator/model_selection"
	"github.com/YuminosukeSato/mrestimator/pkg/errors"
	"github.com/YuminosukeSato/mrestimator/pkg/log"
	"github.com/YuminosukeSato/mrestimator/preprocessing"
	"github.com/YuminosukeSato/mrestimator/report"
)

// Outcome は Run の結果と書き出したファイル
type Outcome struct {
	Target       dataset.Target
	NTrain       int
	NTest        int
	Dropped      int
	Results      *Results
	Scaler       *preprocessing.StandardScaler
	ModelsPath   string
	TestDataPath string
	PlotPath     string
	// RunID は結果ストアの実行 ID。ストアを使わない場合は 0
	RunID int64
}

// Prepared は正規化まで済んだ訓練・テストデータ
type Prepared struct {
	Split
	Scaler *preprocessing.StandardScaler
	// NTrain, NTest は拡張前のレコード数
	NTrain int
	NTest  int
}

// Prepare はデータセットを分割し、拡張と正規化を行う。
// 拡張の乱数は訓練・テストそれぞれで augmentSeed から作り直す
func Prepare(ds *dataset.Dataset, cfg *config.Config) (*Prepared, error) {
	XTrain, XTest, YTrain, YTest, err := model_selection.TrainTestSplit(
		ds.Features(), ds.Targets(), cfg.TestSize, cfg.SplitSeed)
	if err != nil {
		return nil, errors.Wrap(err, "failed to split dataset")
	}

	XTrainAug, yTrainAug, err := augmentation.Augment(XTrain, YTrain, cfg.TrainSamples,
		augmentation.NewSource(cfg.AugmentSeed))
	if err != nil {
		return nil, errors.Wrap(err, "failed to augment training data")
	}
	XTestAug, yTestAug, err := augmentation.Augment(XTest, YTest, cfg.TestSamples,
		augmentation.NewSource(cfg.AugmentSeed))
	if err != nil {
		return nil, errors.Wrap(err, "failed to augment test data")
	}

	scaler := preprocessing.NewStandardScalerDefault()
	XTrainN, err := scaler.FitTransform(XTrainAug)
	if err != nil {
		return nil, errors.Wrap(err, "failed to normalize training data")
	}
	XTestN, err := scaler.Transform(XTestAug)
	if err != nil {
		return nil, errors.Wrap(err, "failed to normalize test data")
	}

	nTrain, _ := XTrain.Dims()
	nTest, _ := XTest.Dims()
	return &Prepared{
		Split: Split{
			XTrain: XTrainN.(*mat.Dense),
			YTrain: yTrainAug,
			XTest:  XTestN.(*mat.Dense),
			YTest:  yTestAug,
		},
		Scaler: scaler,
		NTrain: nTrain,
		NTest:  nTest,
	}, nil
}

// Run は読み込み、分割、拡張、正規化、全モデルの評価、保存を順に行う。
// スコアは out に ">name 0.123" の形式で書き出す
func Run(ctx context.Context, cfg *config.Config, out io.Writer) (*Outcome, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	target, _ := dataset.ParseTarget(cfg.Target)
	features, _ := dataset.ParseFeatureSet(cfg.Features)

	logger := log.GetLogger().With(log.ComponentKey, "experiment", log.TargetKey, string(target))

	ds, err := dataset.Load(cfg.DataPath, target)
	if err != nil {
		return nil, err
	}
	ds = ds.WithFeatures(features)
	logger.Info("dataset loaded",
		log.OperationKey, log.OperationLoad,
		log.SamplesKey, ds.Len(),
		log.DroppedKey, ds.Dropped,
	)

	prep, err := Prepare(ds, cfg)
	if err != nil {
		return nil, err
	}
	trainRows, nFeatures := prep.XTrain.Dims()
	testRows, _ := prep.XTest.Dims()
	logger.Info("data prepared",
		log.PhaseKey, log.PhasePreprocessing,
		log.SamplesKey, trainRows,
		log.FeaturesKey, nFeatures,
		log.AugmentSamplesKey, cfg.TrainSamples,
		"data.test_samples", testRows,
		log.RandomSeedKey, cfg.AugmentSeed,
	)

	reg, err := NewRegistry(target)
	if err != nil {
		return nil, err
	}
	h := NewHarness(WithOutput(out), WithLogger(logger), WithIsolateFailures(cfg.IsolateFailures))
	results, err := h.Run(ctx, reg, prep.Split)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{
		Target:  target,
		NTrain:  prep.NTrain,
		NTest:   prep.NTest,
		Dropped: ds.Dropped,
		Results: results,
		Scaler:  prep.Scaler,
	}
	if err := persist(ctx, cfg, prep, outcome); err != nil {
		return nil, err
	}
	if best, score := results.Best(); best != "" {
		logger.Info("run finished", log.ModelNameKey, best, log.MAEKey, score)
	}
	return outcome, nil
}

func persist(ctx context.Context, cfg *config.Config, prep *Prepared, o *Outcome) error {
	if err := report.EnsureDirectories(cfg.ExperimentsDir, cfg.ResultsDir); err != nil {
		return err
	}
	t := string(o.Target)

	var err error
	o.ModelsPath, err = report.SaveModels(cfg.ExperimentsDir, t, &report.ModelCollection{
		Target: t,
		Names:  o.Results.Names,
		Models: o.Results.Models,
		Scaler: prep.Scaler,
	})
	if err != nil {
		return err
	}
	o.TestDataPath, err = report.SaveTestData(cfg.ExperimentsDir, t, &report.TestArtifact{
		XTest:    prep.XTest,
		YTest:    prep.YTest,
		NSamples: cfg.TestSamples,
	})
	if err != nil {
		return err
	}

	if cfg.Plot && len(o.Results.Names) > 0 {
		o.PlotPath = report.PlotPath(cfg.ResultsDir, t)
		if err := report.PlotScores(o.PlotPath, t, o.Results.Names, o.Results.Scores); err != nil {
			return err
		}
	}

	if cfg.Store {
		store, err := report.OpenStore(ctx, filepath.Join(cfg.ResultsDir, report.StoreFile))
		if err != nil {
			return err
		}
		defer store.Close()

		scores := make([]report.Score, len(o.Results.Names))
		for i, name := range o.Results.Names {
			scores[i] = report.Score{Name: name, MAE: o.Results.Scores[i], R2: o.Results.R2[i]}
		}
		fs, _ := dataset.ParseFeatureSet(cfg.Features)
		names := make([]string, len(fs))
		for i, f := range fs {
			names[i] = string(f)
		}
		o.RunID, err = store.RecordRun(ctx, report.Run{
			Target:       t,
			Features:     strings.Join(names, ","),
			TrainSamples: cfg.TrainSamples,
			TestSamples:  cfg.TestSamples,
			SplitSeed:    cfg.SplitSeed,
			AugmentSeed:  cfg.AugmentSeed,
			NTrain:       o.NTrain,
			NTest:        o.NTest,
		}, scores)
		if err != nil {
			return err
		}
	}
	return nil
}
