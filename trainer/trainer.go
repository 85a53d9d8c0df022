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

package trainer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/schollz/progressbar/v3"

	logger "github.com/creditrisk/harness/internal/dflog"
	"github.com/creditrisk/harness/pkg/workpath"
	"github.com/creditrisk/harness/trainer/config"
	"github.com/creditrisk/harness/trainer/dataset"
	"github.com/creditrisk/harness/trainer/evaluation"
	"github.com/creditrisk/harness/trainer/hyperparameter"
	"github.com/creditrisk/harness/trainer/metrics"
	"github.com/creditrisk/harness/trainer/record"
	"github.com/creditrisk/harness/trainer/storage"
)

// ErrNotTuned is returned when records are classified before a trial was tested.
var ErrNotTuned = errors.New("dataset has no tested trial")

// Report is the outcome of tuning.
type Report struct {
	// Best is the trial of the highest quality.
	Best *hyperparameter.Trial

	// Summary describes the qualities of the tuning history.
	Summary dataset.Summary

	// Confusion is the confusion matrix of the best trial on the testing partition.
	Confusion *evaluation.Report
}

type Server struct {
	// Server configuration.
	config *config.Config

	// Registry of datasets.
	registry *dataset.Registry

	// Dataset loaded from the configured path.
	dataset *dataset.Dataset

	// Scoring policy of the trials.
	policy evaluation.Policy

	// Metrics server.
	metricsServer *http.Server

	// Storage interface.
	storage storage.Storage

	// Progress of the running tuning.
	progress *progressbar.ProgressBar

	// Output of the progress bar.
	output io.Writer
}

// Option is a functional option for server.
type Option func(s *Server)

// WithStorage replaces the storage created in the data directory.
func WithStorage(st storage.Storage) Option {
	return func(s *Server) {
		s.storage = st
	}
}

// WithOutput sets the output of the tuning progress bar.
func WithOutput(w io.Writer) Option {
	return func(s *Server) {
		s.output = w
	}
}

func New(cfg *config.Config, w workpath.Workpath, options ...Option) (*Server, error) {
	s := &Server{
		config:   cfg,
		registry: dataset.NewRegistry(),
		output:   io.Discard,
	}

	for _, opt := range options {
		opt(s)
	}

	schema, err := record.LookupSchema(cfg.Dataset.Schema)
	if err != nil {
		return nil, err
	}

	policy, err := evaluation.LookupPolicy(cfg.Evaluation.Policy)
	if err != nil {
		return nil, err
	}
	s.policy = policy

	// Initialize dataset.
	s.dataset = s.registry.Create(cfg.Dataset.Name, schema,
		dataset.WithLoadPolicy(loadPolicy(cfg.Dataset.LoadPolicy)),
		dataset.WithConcurrency(cfg.Tuning.Concurrency),
		dataset.WithTestHook(s.observe),
	)

	// Initialize Storage.
	if s.storage == nil {
		s.storage = storage.New(w.DataDir())
	}

	// Initialize metrics.
	if cfg.Metrics.Enable {
		s.metricsServer = metrics.New(&cfg.Metrics)
	}

	return s, nil
}

// Dataset returns the dataset of the server.
func (s *Server) Dataset() *dataset.Dataset {
	return s.dataset
}

// Serve loads the dataset and tunes the configured trials.
func (s *Server) Serve(ctx context.Context) (*Report, error) {
	// Started metrics server.
	if s.metricsServer != nil {
		go func() {
			logger.Infof("started metrics server at %s", s.metricsServer.Addr)
			if err := s.metricsServer.ListenAndServe(); err != nil {
				if err == http.ErrServerClosed {
					return
				}

				logger.Fatalf("metrics server closed unexpect: %s", err.Error())
			}
		}()
	}

	if err := s.Load(); err != nil {
		return nil, err
	}

	return s.Tune(ctx)
}

// Load reads the configured csv file into the dataset.
func (s *Server) Load() error {
	schema := s.dataset.Schema()
	r, err := storage.Open(s.config.Dataset.Path, s.config.Dataset.Header, schema.Columns()...)
	if err != nil {
		return err
	}
	defer r.Close()

	if err := s.dataset.Load(r); err != nil {
		if _, ok := s.dataset.Uploaded(); !ok {
			return fmt.Errorf("load %s: %w", s.config.Dataset.Path, err)
		}

		logger.Warnf("load %s skipped invalid rows: %s", s.config.Dataset.Path, err.Error())
	}

	logger.Infof("load %s completed, %d training and %d testing records",
		s.config.Dataset.Path, len(s.dataset.Training()), len(s.dataset.Testing()))
	return nil
}

// Tune tests every configured trial against the dataset and reports the best one.
func (s *Server) Tune(ctx context.Context) (*Report, error) {
	trials := make([]*hyperparameter.Trial, 0, len(s.config.Tuning.Trials))
	for _, cfg := range s.config.Tuning.Trials {
		trial, err := hyperparameter.New(s.dataset.Ref(), cfg, hyperparameter.WithPolicy(s.policy))
		if err != nil {
			return nil, err
		}
		trials = append(trials, trial)
	}

	s.progress = progressbar.NewOptions(len(trials),
		progressbar.OptionSetWriter(s.output),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(fmt.Sprintf("tuning %s", s.dataset.Name())),
	)
	defer func() {
		s.progress = nil
	}()

	if err := s.dataset.TestAll(ctx, trials...); err != nil {
		return nil, err
	}

	best, ok := s.dataset.Best()
	if !ok {
		return nil, ErrNotTuned
	}

	summary, err := s.dataset.Summary()
	if err != nil {
		return nil, err
	}

	// Testing records carry the predictions of the best trial.
	if err := best.Test(); err != nil {
		return nil, err
	}

	confusion, err := s.confusion()
	if err != nil {
		return nil, err
	}

	logger.Infof("best trial %s of %d, mean %.4f, stddev %.4f", best, summary.Trials, summary.Mean, summary.StdDev)
	if s.config.Storage.Export {
		if err := s.export(); err != nil {
			return nil, err
		}
	}

	return &Report{
		Best:      best,
		Summary:   summary,
		Confusion: confusion,
	}, nil
}

// Classify classifies unlabeled rows with the best trial.
func (s *Server) Classify(rows dataset.RowReader) ([]*record.Record, error) {
	best, ok := s.dataset.Best()
	if !ok {
		return nil, ErrNotTuned
	}

	var classified []*record.Record
	for n := 1; ; n++ {
		row, err := rows.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, &dataset.LoadError{Row: n, Err: err}
		}

		r, err := record.ParseUnlabeled(s.dataset.Schema(), row)
		if err != nil {
			return nil, &dataset.LoadError{Row: n, Err: err}
		}

		c, err := s.dataset.Classify(best, r)
		if err != nil {
			return nil, err
		}
		classified = append(classified, c)
	}

	if s.config.Storage.Export {
		if err := s.storage.CreateClassified(s.dataset.Name(), classified); err != nil {
			return nil, err
		}
	}

	return classified, nil
}

func (s *Server) Stop() {
	// Stop metrics server.
	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(context.Background()); err != nil {
			logger.Errorf("metrics server failed to stop: %s", err.Error())
		} else {
			logger.Info("metrics server closed under request")
		}
	}

	s.dataset.Close()
}

// observe advances the progress bar.
func (s *Server) observe(trial *hyperparameter.Trial, err error) {
	if err != nil {
		logger.Warnf("trial %s failed: %s", trial.Config(), err.Error())
	}

	if s.progress != nil {
		if err := s.progress.Add(1); err != nil {
			logger.Warnf("update progress failed: %s", err.Error())
		}
	}
}

// confusion builds the confusion matrix of the testing partition.
func (s *Server) confusion() (*evaluation.Report, error) {
	schema := s.dataset.Schema()
	testing := s.dataset.Testing()
	actual := make([]int, len(testing))
	predicted := make([]int, len(testing))
	for i, r := range testing {
		actual[i], _ = r.Class()

		label, ok := r.Prediction()
		if !ok {
			return nil, fmt.Errorf("testing record %d has no prediction", i)
		}
		predicted[i], _ = schema.ClassOf(label)
	}

	return evaluation.Confusion(schema.Labels, actual, predicted)
}

// export writes the tuning history to the data directory.
func (s *Server) export() error {
	tuning := s.dataset.Tuning()
	trials := make([]storage.Trial, 0, len(tuning))
	for _, trial := range tuning {
		quality, _ := trial.Quality()
		trials = append(trials, storage.Trial{
			ID:        trial.ID(),
			Algorithm: trial.Config().Algorithm,
			Config:    trial.Config().String(),
			Policy:    trial.Policy().Name(),
			Quality:   quality,
		})
	}

	return s.storage.CreateTuning(s.dataset.Name(), trials)
}

// loadPolicy maps the configured load policy to the dataset strategy.
func loadPolicy(name string) dataset.LoadPolicy {
	if name == config.SkipInvalidLoadPolicy {
		return dataset.SkipInvalid
	}

	return dataset.FailFast
}
