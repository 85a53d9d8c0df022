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

//go:generate mockgen -destination mocks/trial_mock.go -source trial.go -package mocks

package hyperparameter

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	logger "github.com/creditrisk/harness/internal/dflog"
	"github.com/creditrisk/harness/trainer/classifier"
	"github.com/creditrisk/harness/trainer/evaluation"
	"github.com/creditrisk/harness/trainer/record"
)

var (
	// ErrBrokenReference is returned when the dataset of a trial was destroyed.
	ErrBrokenReference = errors.New("dataset reference is broken")

	// ErrStaleSnapshot is returned when the dataset was reloaded while a trial
	// was predicting on it.
	ErrStaleSnapshot = errors.New("dataset was reloaded during the trial")
)

// Snapshot is a consistent view of the partitions of a dataset.
type Snapshot struct {
	// Generation identifies the load that produced the partitions.
	Generation uint64

	// Training is the training partition.
	Training []*record.Record

	// Testing is the testing partition.
	Testing []*record.Record
}

// Source is the data a trial is evaluated against.
type Source interface {
	// Schema returns the dataset variant.
	Schema() *record.Schema

	// Snapshot returns the current partitions.
	Snapshot() Snapshot

	// WritePredictions calls write with the testing partition of the given
	// generation while holding the dataset writer lock.
	WritePredictions(generation uint64, write func(testing []*record.Record) error) error
}

// Reference is a non-owning handle on a source.
type Reference interface {
	// Resolve returns the source, or ErrBrokenReference once it was destroyed.
	Resolve() (Source, error)
}

// Option is a functional option for trial.
type Option func(t *Trial)

// WithClassifier replaces the classifier built from the config.
func WithClassifier(c classifier.Classifier) Option {
	return func(t *Trial) {
		t.classifier = c
	}
}

// WithPolicy sets the scoring policy.
func WithPolicy(p evaluation.Policy) Option {
	return func(t *Trial) {
		t.policy = p
	}
}

// Trial is a classifier configuration tuned against a dataset.
type Trial struct {
	id         string
	config     classifier.Config
	reference  Reference
	classifier classifier.Classifier
	policy     evaluation.Policy

	mu              sync.Mutex
	quality         float64
	qualityDefined  bool
	generation      uint64
	model           classifier.Model
	modelGeneration uint64
}

// New returns a trial of the config against the referenced dataset.
func New(ref Reference, cfg classifier.Config, options ...Option) (*Trial, error) {
	t := &Trial{
		id:        uuid.NewString(),
		config:    cfg,
		reference: ref,
		policy:    evaluation.Accuracy{},
	}

	for _, opt := range options {
		opt(t)
	}

	if t.classifier == nil {
		c, err := classifier.New(cfg)
		if err != nil {
			return nil, err
		}
		t.classifier = c
	}

	return t, nil
}

// ID returns the trial id.
func (t *Trial) ID() string {
	return t.id
}

// Config returns the classifier configuration.
func (t *Trial) Config() classifier.Config {
	return t.config
}

// Reference returns the handle of the dataset the trial is tuned against.
func (t *Trial) Reference() Reference {
	return t.reference
}

// Policy returns the scoring policy.
func (t *Trial) Policy() evaluation.Policy {
	return t.policy
}

// Quality returns the score of the last successful test.
func (t *Trial) Quality() (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.quality, t.qualityDefined
}

// Generation returns the dataset load the quality was scored on.
func (t *Trial) Generation() (uint64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.generation, t.qualityDefined
}

// String returns the config and quality of the trial.
func (t *Trial) String() string {
	if quality, ok := t.Quality(); ok {
		return fmt.Sprintf("%s %s=%.4f", t.config, t.policy.Name(), quality)
	}

	return fmt.Sprintf("%s %s=undefined", t.config, t.policy.Name())
}

// Test fits the classifier on the training partition, predicts the testing
// partition, writes every prediction back in partition order and scores them.
// The quality changes only when every step succeeded.
func (t *Trial) Test() error {
	source, err := t.reference.Resolve()
	if err != nil {
		return err
	}

	schema := source.Schema()
	snapshot := source.Snapshot()
	if len(snapshot.Testing) == 0 {
		return evaluation.ErrEmptyPartition
	}

	model, err := t.fit(snapshot)
	if err != nil {
		return err
	}

	x, actual := matrix(snapshot.Testing)
	predicted, err := model.Predict(x)
	if err != nil {
		return err
	}

	if len(predicted) != len(snapshot.Testing) {
		return fmt.Errorf("got %d predictions for %d testing records", len(predicted), len(snapshot.Testing))
	}

	labels := make([]string, len(predicted))
	for i, class := range predicted {
		label, err := schema.LabelOf(class)
		if err != nil {
			return err
		}
		labels[i] = label
	}

	if err := source.WritePredictions(snapshot.Generation, func(testing []*record.Record) error {
		for i, r := range testing {
			if err := r.SetPrediction(labels[i]); err != nil {
				return err
			}
		}

		return nil
	}); err != nil {
		return err
	}

	quality, err := t.policy.Score(actual, predicted)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.quality = quality
	t.qualityDefined = true
	t.generation = snapshot.Generation
	t.mu.Unlock()

	logger.WithTrial(t.id, t.config.Algorithm).Debugf("tested %d records, %s %.4f", len(predicted), t.policy.Name(), quality)
	return nil
}

// Classify predicts the label of an unlabeled record. The fitted model is
// reused until the dataset is reloaded.
func (t *Trial) Classify(r *record.Record) (string, error) {
	if r.Tag() != record.Unlabeled {
		return "", record.ErrNotUnlabeled
	}

	source, err := t.reference.Resolve()
	if err != nil {
		return "", err
	}

	schema := source.Schema()
	if r.Schema() != schema {
		return "", fmt.Errorf("record schema %s does not match dataset schema %s", r.Schema().Name, schema.Name)
	}

	model, err := t.fit(source.Snapshot())
	if err != nil {
		return "", err
	}

	predicted, err := model.Predict([][]float64{r.Features()})
	if err != nil {
		return "", err
	}

	if len(predicted) != 1 {
		return "", fmt.Errorf("got %d predictions for 1 record", len(predicted))
	}

	return schema.LabelOf(predicted[0])
}

// fit returns the model of the snapshot generation, fitting it on a miss.
func (t *Trial) fit(snapshot Snapshot) (classifier.Model, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.model != nil && t.modelGeneration == snapshot.Generation {
		return t.model, nil
	}

	if len(snapshot.Training) == 0 {
		return nil, classifier.ErrEmptyTraining
	}

	x, y := matrix(snapshot.Training)
	model, err := t.classifier.Fit(x, y)
	if err != nil {
		return nil, err
	}

	t.model = model
	t.modelGeneration = snapshot.Generation
	return model, nil
}

// matrix returns the feature matrix and class vector of labeled records.
func matrix(records []*record.Record) ([][]float64, []int) {
	x := make([][]float64, len(records))
	y := make([]int, len(records))
	for i, r := range records {
		x[i] = r.Features()
		y[i], _ = r.Class()
	}

	return x, y
}
