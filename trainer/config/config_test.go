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
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"

	"github.com/creditrisk/harness/trainer/classifier"
)

var (
	mockDatasetConfig = DatasetConfig{
		Name:       DefaultDatasetName,
		Path:       "foo.csv",
		Schema:     "status",
		LoadPolicy: FailFastLoadPolicy,
	}

	mockStorageConfig = StorageConfig{
		DataDir: "foo",
		Export:  true,
	}

	mockMetricsConfig = MetricsConfig{
		Enable: true,
		Addr:   DefaultMetricsAddr,
	}
)

func TestConfig_Load(t *testing.T) {
	config := &Config{
		BaseOptions: BaseOptions{
			Console:       true,
			Verbose:       true,
			LogDir:        "foo",
			LogMaxSize:    512,
			LogMaxAge:     5,
			LogMaxBackups: 3,
		},
		Dataset: DatasetConfig{
			Name:       "bar",
			Path:       "foo/credit.csv",
			Schema:     "client_type",
			Header:     true,
			LoadPolicy: SkipInvalidLoadPolicy,
		},
		Evaluation: EvaluationConfig{
			Policy: "roc_auc",
		},
		Tuning: TuningConfig{
			Trials: []classifier.Config{
				{Algorithm: "decision_tree", Criterion: "entropy", MaxDepth: 3, MinSamplesSplit: 5},
				{Algorithm: "knn", Neighbors: 7, Distance: "cosine"},
			},
			Concurrency: 2,
		},
		Storage: StorageConfig{
			DataDir: "foo",
			Export:  true,
		},
		Metrics: MetricsConfig{
			Enable: false,
			Addr:   ":8000",
		},
	}

	trainerConfigYAML := &Config{}
	contentYAML, _ := os.ReadFile("./testdata/trainer.yaml")
	if err := yaml.Unmarshal(contentYAML, &trainerConfigYAML); err != nil {
		t.Fatal(err)
	}
	assert := assert.New(t)
	assert.EqualValues(config, trainerConfigYAML)
	assert.NoError(trainerConfigYAML.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
		mock   func(cfg *Config)
		expect func(t *testing.T, err error)
	}{
		{
			name:   "valid config",
			config: New(),
			mock: func(cfg *Config) {
				cfg.Dataset = mockDatasetConfig
				cfg.Storage = mockStorageConfig
			},
			expect: func(t *testing.T, err error) {
				assert := assert.New(t)
				assert.NoError(err)
			},
		},
		{
			name:   "dataset requires parameter name",
			config: New(),
			mock: func(cfg *Config) {
				cfg.Dataset = mockDatasetConfig
				cfg.Storage = mockStorageConfig
				cfg.Dataset.Name = ""
			},
			expect: func(t *testing.T, err error) {
				assert := assert.New(t)
				assert.EqualError(err, "dataset requires parameter name")
			},
		},
		{
			name:   "dataset requires parameter path",
			config: New(),
			mock: func(cfg *Config) {
				cfg.Storage = mockStorageConfig
			},
			expect: func(t *testing.T, err error) {
				assert := assert.New(t)
				assert.EqualError(err, "dataset requires parameter path")
			},
		},
		{
			name:   "dataset requires parameter schema",
			config: New(),
			mock: func(cfg *Config) {
				cfg.Dataset = mockDatasetConfig
				cfg.Storage = mockStorageConfig
				cfg.Dataset.Schema = "foo"
			},
			expect: func(t *testing.T, err error) {
				assert := assert.New(t)
				assert.EqualError(err, `dataset requires parameter schema: unknown schema "foo"`)
			},
		},
		{
			name:   "dataset requires parameter loadPolicy",
			config: New(),
			mock: func(cfg *Config) {
				cfg.Dataset = mockDatasetConfig
				cfg.Storage = mockStorageConfig
				cfg.Dataset.LoadPolicy = "retry"
			},
			expect: func(t *testing.T, err error) {
				assert := assert.New(t)
				assert.EqualError(err, `dataset requires parameter loadPolicy, got "retry"`)
			},
		},
		{
			name:   "evaluation requires parameter policy",
			config: New(),
			mock: func(cfg *Config) {
				cfg.Dataset = mockDatasetConfig
				cfg.Storage = mockStorageConfig
				cfg.Evaluation.Policy = "f1"
			},
			expect: func(t *testing.T, err error) {
				assert := assert.New(t)
				assert.EqualError(err, `evaluation requires parameter policy: unknown policy "f1"`)
			},
		},
		{
			name:   "tuning requires parameter trials",
			config: New(),
			mock: func(cfg *Config) {
				cfg.Dataset = mockDatasetConfig
				cfg.Storage = mockStorageConfig
				cfg.Tuning.Trials = nil
			},
			expect: func(t *testing.T, err error) {
				assert := assert.New(t)
				assert.EqualError(err, "tuning requires parameter trials")
			},
		},
		{
			name:   "invalid trials",
			config: New(),
			mock: func(cfg *Config) {
				cfg.Dataset = mockDatasetConfig
				cfg.Storage = mockStorageConfig
				cfg.Tuning.Trials = []classifier.Config{
					{Algorithm: "svm"},
					{Algorithm: classifier.MajorityAlgorithm},
					{Algorithm: classifier.KNNAlgorithm},
				}
			},
			expect: func(t *testing.T, err error) {
				assert := assert.New(t)
				assert.Error(err)
				assert.Contains(err.Error(), `trial 0: unknown algorithm "svm"`)
				assert.Contains(err.Error(), "trial 2: neighbors requires parameter greater than 0")
				assert.NotContains(err.Error(), "trial 1")
			},
		},
		{
			name:   "tuning requires parameter concurrency",
			config: New(),
			mock: func(cfg *Config) {
				cfg.Dataset = mockDatasetConfig
				cfg.Storage = mockStorageConfig
				cfg.Tuning.Concurrency = 0
			},
			expect: func(t *testing.T, err error) {
				assert := assert.New(t)
				assert.EqualError(err, "tuning requires parameter concurrency")
			},
		},
		{
			name:   "storage requires parameter dataDir",
			config: New(),
			mock: func(cfg *Config) {
				cfg.Dataset = mockDatasetConfig
			},
			expect: func(t *testing.T, err error) {
				assert := assert.New(t)
				assert.EqualError(err, "storage requires parameter dataDir")
			},
		},
		{
			name:   "metrics requires parameter addr",
			config: New(),
			mock: func(cfg *Config) {
				cfg.Dataset = mockDatasetConfig
				cfg.Storage = mockStorageConfig
				cfg.Metrics = mockMetricsConfig
				cfg.Metrics.Addr = ""
			},
			expect: func(t *testing.T, err error) {
				assert := assert.New(t)
				assert.EqualError(err, "metrics requires parameter addr")
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.config.Convert(); err != nil {
				t.Fatal(err)
			}

			tc.mock(tc.config)
			tc.expect(t, tc.config.Validate())
		})
	}
}

func TestConfig_Convert(t *testing.T) {
	cfg := New()
	cfg.Tuning.Trials = []classifier.Config{
		{Algorithm: classifier.DecisionTreeAlgorithm, MaxDepth: 3},
		{Algorithm: classifier.KNNAlgorithm},
		{Algorithm: classifier.MajorityAlgorithm},
	}

	assert := assert.New(t)
	assert.NoError(cfg.Convert())
	assert.Equal([]classifier.Config{
		{Algorithm: classifier.DecisionTreeAlgorithm, Criterion: classifier.GiniCriterion, MaxDepth: 3, MinSamplesSplit: classifier.DefaultMinSamplesSplit},
		{Algorithm: classifier.KNNAlgorithm, Neighbors: classifier.DefaultNeighbors, Distance: classifier.EuclideanDistance},
		{Algorithm: classifier.MajorityAlgorithm},
	}, cfg.Tuning.Trials)

	for _, trial := range DefaultTrials() {
		assert.NoError(trial.Validate())
	}
}
