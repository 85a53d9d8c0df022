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

package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/montanaflynn/stats"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	logger "github.com/creditrisk/harness/internal/dflog"
	"github.com/creditrisk/harness/trainer/hyperparameter"
	"github.com/creditrisk/harness/trainer/metrics"
	"github.com/creditrisk/harness/trainer/record"
)

const (
	// TestingInterval routes every fifth row to the testing partition.
	TestingInterval = 5

	// DefaultConcurrency is the default number of trials tested at the same time.
	DefaultConcurrency = 4
)

var (
	// ErrClosed is returned when a destroyed dataset is loaded.
	ErrClosed = errors.New("dataset is closed")

	// ErrForeignTrial is returned when a trial references another dataset.
	ErrForeignTrial = errors.New("trial does not reference the dataset")

	// ErrNoTrials is returned when the tuning history holds no tested trial.
	ErrNoTrials = errors.New("tuning history is empty")
)

// LoadPolicy is the strategy applied to invalid rows.
type LoadPolicy int

const (
	// FailFast aborts the load on the first invalid row. Records appended
	// before it are kept and the upload time stays unset.
	FailFast LoadPolicy = iota

	// SkipInvalid skips invalid rows, completes the load and returns every
	// row error.
	SkipInvalid
)

// String returns the policy name.
func (p LoadPolicy) String() string {
	if p == SkipInvalid {
		return "skipInvalid"
	}

	return "failFast"
}

// LoadError is an invalid row, Row is the 1-based position in the source.
type LoadError struct {
	Row int
	Err error
}

// Error implements error.
func (e *LoadError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Err)
}

// Unwrap returns the row error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// RowReader is a lazy sequence of rows. Read returns io.EOF after the last row.
type RowReader interface {
	Read() (record.Row, error)
}

// Rows returns a reader over an in memory sequence.
func Rows(rows ...record.Row) RowReader {
	return &sliceReader{rows: rows}
}

type sliceReader struct {
	rows []record.Row
	next int
}

func (r *sliceReader) Read() (record.Row, error) {
	if r.next >= len(r.rows) {
		return nil, io.EOF
	}

	row := r.rows[r.next]
	r.next++
	return row, nil
}

// Option is a functional option for dataset.
type Option func(d *Dataset)

// WithLoadPolicy sets the invalid row strategy.
func WithLoadPolicy(p LoadPolicy) Option {
	return func(d *Dataset) {
		d.loadPolicy = p
	}
}

// WithConcurrency sets the number of trials tested at the same time by TestAll.
func WithConcurrency(n int) Option {
	return func(d *Dataset) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// WithTestHook sets a function called after every trial test.
func WithTestHook(hook func(trial *hyperparameter.Trial, err error)) Option {
	return func(d *Dataset) {
		d.testHook = hook
	}
}

// Summary describes the qualities of the tuning history.
type Summary struct {
	Trials int
	Mean   float64
	StdDev float64
	Max    float64
}

// Dataset owns the training and testing partitions and the tuning history.
type Dataset struct {
	id          string
	name        string
	schema      *record.Schema
	registry    *Registry
	loadPolicy  LoadPolicy
	concurrency int
	testHook    func(*hyperparameter.Trial, error)
	closed      *atomic.Bool

	mu         sync.RWMutex
	uploaded   time.Time
	tested     time.Time
	training   []*record.Record
	testing    []*record.Record
	tuning     []*hyperparameter.Trial
	generation uint64
}

// Create registers a new empty dataset.
func (r *Registry) Create(name string, schema *record.Schema, options ...Option) *Dataset {
	d := &Dataset{
		id:          uuid.NewString(),
		name:        name,
		schema:      schema,
		registry:    r,
		loadPolicy:  FailFast,
		concurrency: DefaultConcurrency,
		closed:      atomic.NewBool(false),
	}

	for _, opt := range options {
		opt(d)
	}

	r.datasets.Set(d.id, d)
	return d
}

// ID returns the dataset id.
func (d *Dataset) ID() string {
	return d.id
}

// Name returns the dataset name.
func (d *Dataset) Name() string {
	return d.name
}

// Schema returns the dataset variant.
func (d *Dataset) Schema() *record.Schema {
	return d.schema
}

// Ref returns a non-owning reference to the dataset.
func (d *Dataset) Ref() hyperparameter.Reference {
	return reference{registry: d.registry, id: d.id}
}

// Close destroys the dataset, every reference to it is broken afterwards.
func (d *Dataset) Close() {
	d.registry.Destroy(d.id)
	d.closed.Store(true)
}

// Load consumes rows once, in order. The row at zero-based position n is a
// testing record when n is a multiple of TestingInterval, a training record
// otherwise. Loading again replaces the partitions and the tuning history.
func (d *Dataset) Load(rows RowReader) error {
	if d.closed.Load() {
		return ErrClosed
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.training = nil
	d.testing = nil
	d.tuning = nil
	d.uploaded = time.Time{}
	d.tested = time.Time{}
	d.generation++

	log := logger.WithDataset(d.id, d.name)
	metrics.LoadCount.WithLabelValues(d.schema.Name).Inc()

	var errs *multierror.Error
	for n := 0; ; n++ {
		row, err := rows.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			metrics.LoadFailureCount.WithLabelValues(d.schema.Name).Inc()
			log.Errorf("read row %d failed: %s", n+1, err.Error())
			return &LoadError{Row: n + 1, Err: err}
		}

		parse := record.ParseTraining
		if n%TestingInterval == 0 {
			parse = record.ParseTesting
		}

		r, err := parse(d.schema, row)
		if err != nil {
			metrics.ParseFailureCount.WithLabelValues(d.schema.Name).Inc()
			log.Warnf("row %d: %s", n+1, err.Error())

			loadErr := &LoadError{Row: n + 1, Err: err}
			if d.loadPolicy == FailFast {
				metrics.LoadFailureCount.WithLabelValues(d.schema.Name).Inc()
				return loadErr
			}

			errs = multierror.Append(errs, loadErr)
			continue
		}

		if r.Tag() == record.Testing {
			d.testing = append(d.testing, r)
		} else {
			d.training = append(d.training, r)
		}
	}

	d.uploaded = time.Now().UTC()
	log.Infof("loaded %d training and %d testing records", len(d.training), len(d.testing))
	return errs.ErrorOrNil()
}

// Test tests the trial and appends it to the tuning history.
func (d *Dataset) Test(trial *hyperparameter.Trial) error {
	if err := d.test(trial); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.appendTrial(trial)
}

// TestAll tests the trials concurrently, then appends every successful trial
// to the tuning history in argument order. It returns the first error.
func (d *Dataset) TestAll(ctx context.Context, trials ...*hyperparameter.Trial) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(d.concurrency)

	results := make([]error, len(trials))
	for i, trial := range trials {
		i, trial := i, trial
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = err
				return err
			}

			results[i] = d.test(trial)
			return results[i]
		})
	}
	err := eg.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()
	for i, trial := range trials {
		if results[i] != nil {
			continue
		}

		if appendErr := d.appendTrial(trial); appendErr != nil && err == nil {
			err = appendErr
		}
	}

	return err
}

// appendTrial records a tested trial unless the dataset was reloaded after
// it was scored. The caller holds the writer lock.
func (d *Dataset) appendTrial(trial *hyperparameter.Trial) error {
	if generation, ok := trial.Generation(); !ok || generation != d.generation {
		return hyperparameter.ErrStaleSnapshot
	}

	d.tuning = append(d.tuning, trial)
	d.tested = time.Now().UTC()
	return nil
}

func (d *Dataset) test(trial *hyperparameter.Trial) (err error) {
	if d.testHook != nil {
		defer func() { d.testHook(trial, err) }()
	}

	algorithm, policy := trial.Config().Algorithm, trial.Policy().Name()
	metrics.TrialCount.WithLabelValues(algorithm, policy).Inc()

	log := logger.WithDatasetAndTrial(d.id, trial.ID())
	if err := d.owns(trial); err != nil {
		metrics.TrialFailureCount.WithLabelValues(algorithm, policy).Inc()
		return err
	}

	if err := trial.Test(); err != nil {
		metrics.TrialFailureCount.WithLabelValues(algorithm, policy).Inc()
		log.Errorf("test %s failed: %s", trial.Config(), err.Error())
		return err
	}

	quality, _ := trial.Quality()
	metrics.TrialQuality.WithLabelValues(algorithm, policy).Observe(quality)
	logger.TuningLogger.Infow("trial tested", "datasetID", d.id, "trialID", trial.ID(), "config", trial.Config().String(), "policy", policy, "quality", quality)
	return nil
}

// Classify returns a classified record derived from an unlabeled one.
func (d *Dataset) Classify(trial *hyperparameter.Trial, r *record.Record) (*record.Record, error) {
	if err := d.owns(trial); err != nil {
		metrics.ClassifyFailureCount.Inc()
		return nil, err
	}

	label, err := trial.Classify(r)
	if err != nil {
		metrics.ClassifyFailureCount.Inc()
		return nil, err
	}

	metrics.ClassifyCount.WithLabelValues(label).Inc()
	return record.Classify(r, label)
}

// owns checks that the trial references this live dataset.
func (d *Dataset) owns(trial *hyperparameter.Trial) error {
	source, err := trial.Reference().Resolve()
	if err != nil {
		return err
	}

	if source != hyperparameter.Source(d) {
		return ErrForeignTrial
	}

	return nil
}

// Tuning returns the tuning history in insertion order.
func (d *Dataset) Tuning() []*hyperparameter.Trial {
	d.mu.RLock()
	defer d.mu.RUnlock()

	tuning := make([]*hyperparameter.Trial, len(d.tuning))
	copy(tuning, d.tuning)
	return tuning
}

// Best returns the trial of the highest quality, the earliest one on ties.
func (d *Dataset) Best() (*hyperparameter.Trial, bool) {
	var (
		best    *hyperparameter.Trial
		quality float64
	)
	for _, trial := range d.Tuning() {
		q, ok := trial.Quality()
		if !ok {
			continue
		}

		if best == nil || q > quality {
			best, quality = trial, q
		}
	}

	return best, best != nil
}

// Summary describes the qualities of the tuning history.
func (d *Dataset) Summary() (Summary, error) {
	var qualities stats.Float64Data
	for _, trial := range d.Tuning() {
		if q, ok := trial.Quality(); ok {
			qualities = append(qualities, q)
		}
	}

	if len(qualities) == 0 {
		return Summary{}, ErrNoTrials
	}

	mean, err := stats.Mean(qualities)
	if err != nil {
		return Summary{}, err
	}

	stddev, err := stats.StandardDeviation(qualities)
	if err != nil {
		return Summary{}, err
	}

	max, err := stats.Max(qualities)
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		Trials: len(qualities),
		Mean:   mean,
		StdDev: stddev,
		Max:    max,
	}, nil
}

// Training returns the training partition.
func (d *Dataset) Training() []*record.Record {
	d.mu.RLock()
	defer d.mu.RUnlock()

	training := make([]*record.Record, len(d.training))
	copy(training, d.training)
	return training
}

// Testing returns copies of the testing records. Predictions written by
// later tests do not show through them.
func (d *Dataset) Testing() []*record.Record {
	d.mu.RLock()
	defer d.mu.RUnlock()

	testing := make([]*record.Record, len(d.testing))
	for i, r := range d.testing {
		testing[i] = r.Clone()
	}
	return testing
}

// Uploaded returns the time the last load completed.
func (d *Dataset) Uploaded() (time.Time, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.uploaded, !d.uploaded.IsZero()
}

// Tested returns the time a trial was last appended to the tuning history.
func (d *Dataset) Tested() (time.Time, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.tested, !d.tested.IsZero()
}

// Generation returns the number of loads.
func (d *Dataset) Generation() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.generation
}

// Snapshot implements hyperparameter.Source.
func (d *Dataset) Snapshot() hyperparameter.Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()

	snapshot := hyperparameter.Snapshot{
		Generation: d.generation,
		Training:   make([]*record.Record, len(d.training)),
		Testing:    make([]*record.Record, len(d.testing)),
	}
	copy(snapshot.Training, d.training)
	copy(snapshot.Testing, d.testing)
	return snapshot
}

// WritePredictions implements hyperparameter.Source.
func (d *Dataset) WritePredictions(generation uint64, write func([]*record.Record) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed.Load() {
		return hyperparameter.ErrBrokenReference
	}

	if generation != d.generation {
		return hyperparameter.ErrStaleSnapshot
	}

	return write(d.testing)
}
