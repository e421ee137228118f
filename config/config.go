// Package config は実行設定の YAML 読み込みと検証を行う
package config

import (
	"bytes"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/mrestimator/dataset"
	"github.com/YuminosukeSato/mrestimator/pkg/errors"
	"github.com/YuminosukeSato/mrestimator/pkg/log"
)

// Config は1回の推定実行の設定。
// KnownFields(true) で読み込むので、未知のキーはエラーになる
type Config struct {
	DataPath        string   `yaml:"data_path"`
	Target          string   `yaml:"target"`
	Features        []string `yaml:"features"`
	TrainSamples    int      `yaml:"train_samples"`
	TestSamples     int      `yaml:"test_samples"`
	TestSize        float64  `yaml:"test_size"`
	SplitSeed       uint64   `yaml:"split_seed"`
	AugmentSeed     uint64   `yaml:"augment_seed"`
	ExperimentsDir  string   `yaml:"experiments_dir"`
	ResultsDir      string   `yaml:"results_dir"`
	LogLevel        string   `yaml:"log_level"`
	IsolateFailures bool     `yaml:"isolate_failures"`
	Plot            bool     `yaml:"plot"`
	Store           bool     `yaml:"store"`
}

// Default はデフォルト設定を返す
func Default() *Config {
	return &Config{
		DataPath:       "data/stellar.tsv",
		Target:         string(dataset.Mass),
		TrainSamples:   10,
		TestSamples:    0,
		TestSize:       0.2,
		SplitSeed:      1,
		AugmentSeed:    1,
		ExperimentsDir: "experiments",
		ResultsDir:     "results",
		LogLevel:       "info",
		Plot:           true,
		Store:          true,
	}
}

// Load は path の YAML を Default() の上に読み込んで検証する
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate は値の範囲を検証する
func (c *Config) Validate() error {
	if c.DataPath == "" {
		return errors.NewValidationError("data_path", "must not be empty", c.DataPath)
	}
	if _, err := dataset.ParseTarget(c.Target); err != nil {
		return err
	}
	if _, err := dataset.ParseFeatureSet(c.Features); err != nil {
		return err
	}
	if c.TrainSamples < 0 {
		return errors.NewValidationError("train_samples", "must be non-negative", c.TrainSamples)
	}
	if c.TestSamples < 0 {
		return errors.NewValidationError("test_samples", "must be non-negative", c.TestSamples)
	}
	if c.TestSize <= 0 || c.TestSize >= 1 {
		return errors.NewValidationError("test_size", "must be in (0, 1)", c.TestSize)
	}
	if c.ExperimentsDir == "" {
		return errors.NewValidationError("experiments_dir", "must not be empty", c.ExperimentsDir)
	}
	if c.ResultsDir == "" {
		return errors.NewValidationError("results_dir", "must not be empty", c.ResultsDir)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}
