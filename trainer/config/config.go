/*
 *     Copyright 2024 The Harness Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/creditrisk/harness/trainer/classifier"
	"github.com/creditrisk/harness/trainer/evaluation"
	"github.com/creditrisk/harness/trainer/record"
)

type Config struct {
	// Base options.
	BaseOptions `yaml:",inline" mapstructure:",squash"`

	// Dataset configuration.
	Dataset DatasetConfig `yaml:"dataset" mapstructure:"dataset"`

	// Evaluation configuration.
	Evaluation EvaluationConfig `yaml:"evaluation" mapstructure:"evaluation"`

	// Tuning configuration.
	Tuning TuningConfig `yaml:"tuning" mapstructure:"tuning"`

	// Storage configuration.
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`

	// Metrics configuration.
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

type BaseOptions struct {
	// Console shows log on console.
	Console bool `yaml:"console" mapstructure:"console"`

	// Verbose prints debug logs.
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`

	// LogDir is the log directory.
	LogDir string `yaml:"logDir" mapstructure:"logDir"`

	// Maximum size in megabytes of log files before rotation (default: 40)
	LogMaxSize int `yaml:"logMaxSize" mapstructure:"logMaxSize"`

	// Maximum number of days to retain old log files (default: 7)
	LogMaxAge int `yaml:"logMaxAge" mapstructure:"logMaxAge"`

	// Maximum number of old log files to keep (default: 20)
	LogMaxBackups int `yaml:"logMaxBackups" mapstructure:"logMaxBackups"`
}

type DatasetConfig struct {
	// Name of the dataset.
	Name string `yaml:"name" mapstructure:"name"`

	// Path of the labeled csv file.
	Path string `yaml:"path" mapstructure:"path"`

	// Schema is the dataset variant, status or client_type.
	Schema string `yaml:"schema" mapstructure:"schema"`

	// Header reports whether the first csv line holds the column names,
	// otherwise the schema column order is used.
	Header bool `yaml:"header" mapstructure:"header"`

	// LoadPolicy is failFast or skipInvalid.
	LoadPolicy string `yaml:"loadPolicy" mapstructure:"loadPolicy"`
}

type EvaluationConfig struct {
	// Policy is the scoring policy, accuracy or roc_auc.
	Policy string `yaml:"policy" mapstructure:"policy"`
}

type TuningConfig struct {
	// Trials is the hyperparameter grid.
	Trials []classifier.Config `yaml:"trials" mapstructure:"trials"`

	// Concurrency is the number of trials evaluated at the same time.
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

type StorageConfig struct {
	// DataDir is the directory of exported csv files.
	DataDir string `yaml:"dataDir" mapstructure:"dataDir"`

	// Export writes the tuning history after tuning.
	Export bool `yaml:"export" mapstructure:"export"`
}

type MetricsConfig struct {
	// Enable metrics service.
	Enable bool `yaml:"enable" mapstructure:"enable"`

	// Metrics service address.
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// New default configuration.
func New() *Config {
	return &Config{
		BaseOptions: BaseOptions{
			Console:       false,
			Verbose:       false,
			LogMaxSize:    DefaultLogRotateMaxSize,
			LogMaxAge:     DefaultLogRotateMaxAge,
			LogMaxBackups: DefaultLogRotateMaxBackups,
		},
		Dataset: DatasetConfig{
			Name:       DefaultDatasetName,
			Schema:     record.StatusSchemaName,
			Header:     false,
			LoadPolicy: FailFastLoadPolicy,
		},
		Evaluation: EvaluationConfig{
			Policy: evaluation.AccuracyPolicyName,
		},
		Tuning: TuningConfig{
			Trials:      DefaultTrials(),
			Concurrency: DefaultTuningConcurrency,
		},
		Storage: StorageConfig{
			Export: true,
		},
		Metrics: MetricsConfig{
			Enable: false,
			Addr:   DefaultMetricsAddr,
		},
	}
}

// Validate config parameters.
func (cfg *Config) Validate() error {
	if cfg.Dataset.Name == "" {
		return errors.New("dataset requires parameter name")
	}

	if cfg.Dataset.Path == "" {
		return errors.New("dataset requires parameter path")
	}

	if _, err := record.LookupSchema(cfg.Dataset.Schema); err != nil {
		return fmt.Errorf("dataset requires parameter schema: %w", err)
	}

	switch cfg.Dataset.LoadPolicy {
	case FailFastLoadPolicy, SkipInvalidLoadPolicy:
	default:
		return fmt.Errorf("dataset requires parameter loadPolicy, got %q", cfg.Dataset.LoadPolicy)
	}

	if _, err := evaluation.LookupPolicy(cfg.Evaluation.Policy); err != nil {
		return fmt.Errorf("evaluation requires parameter policy: %w", err)
	}

	if len(cfg.Tuning.Trials) == 0 {
		return errors.New("tuning requires parameter trials")
	}

	var errs *multierror.Error
	for i, trial := range cfg.Tuning.Trials {
		if err := trial.Validate(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("trial %d: %w", i, err))
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return err
	}

	if cfg.Tuning.Concurrency <= 0 {
		return errors.New("tuning requires parameter concurrency")
	}

	if cfg.Storage.Export && cfg.Storage.DataDir == "" {
		return errors.New("storage requires parameter dataDir")
	}

	if cfg.Metrics.Enable {
		if cfg.Metrics.Addr == "" {
			return errors.New("metrics requires parameter addr")
		}
	}

	return nil
}

// Convert fills the parameters derived from other parameters.
func (cfg *Config) Convert() error {
	for i := range cfg.Tuning.Trials {
		trial := &cfg.Tuning.Trials[i]
		switch trial.Algorithm {
		case classifier.DecisionTreeAlgorithm:
			if trial.Criterion == "" {
				trial.Criterion = classifier.GiniCriterion
			}

			if trial.MinSamplesSplit == 0 {
				trial.MinSamplesSplit = classifier.DefaultMinSamplesSplit
			}
		case classifier.KNNAlgorithm:
			if trial.Distance == "" {
				trial.Distance = classifier.EuclideanDistance
			}

			if trial.Neighbors == 0 {
				trial.Neighbors = classifier.DefaultNeighbors
			}
		}
	}

	return nil
}

// DefaultTrials returns the default hyperparameter grid.
func DefaultTrials() []classifier.Config {
	return []classifier.Config{
		{Algorithm: classifier.MajorityAlgorithm},
		{Algorithm: classifier.DecisionTreeAlgorithm, Criterion: classifier.GiniCriterion, MaxDepth: 4, MinSamplesSplit: 2},
		{Algorithm: classifier.DecisionTreeAlgorithm, Criterion: classifier.GiniCriterion, MaxDepth: 8, MinSamplesSplit: 8},
		{Algorithm: classifier.DecisionTreeAlgorithm, Criterion: classifier.EntropyCriterion, MaxDepth: 6, MinSamplesSplit: 4},
		{Algorithm: classifier.KNNAlgorithm, Neighbors: 5, Distance: classifier.EuclideanDistance},
		{Algorithm: classifier.KNNAlgorithm, Neighbors: 9, Distance: classifier.ManhattanDistance},
	}
}
