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
	"strconv"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/creditrisk/harness/trainer/classifier"
	"github.com/creditrisk/harness/trainer/evaluation"
	"github.com/creditrisk/harness/trainer/hyperparameter"
	"github.com/creditrisk/harness/trainer/record"
)

var (
	majorityConfig = classifier.Config{Algorithm: classifier.MajorityAlgorithm}

	// Testing positions 0 and 5 hold "1" and "0", the training majority is "0".
	mockLabels = []string{"1", "0", "0", "0", "1", "0", "0", "1", "0", "0"}
)

func mockRow(seniority int, status string) record.Row {
	row := record.Row{
		"seniority": strconv.Itoa(seniority),
		"home":      "1",
		"age":       "30",
		"marital":   "2",
		"records":   "1",
		"expenses":  "73",
		"assets":    "5000",
		"amount":    "800",
		"price":     "846",
	}
	if status != "" {
		row["status"] = status
	}

	return row
}

func mockRows(labels ...string) []record.Row {
	rows := make([]record.Row, len(labels))
	for i, label := range labels {
		rows[i] = mockRow(i, label)
	}

	return rows
}

func seniorities(records []*record.Record) []float64 {
	values := make([]float64, len(records))
	for i, r := range records {
		values[i], _ = r.Value("seniority")
	}

	return values
}

type errReader struct {
	rows RowReader
	at   int
	n    int
}

func (r *errReader) Read() (record.Row, error) {
	if r.n == r.at {
		return nil, errors.New("foo")
	}

	r.n++
	return r.rows.Read()
}

func TestDataset_Load(t *testing.T) {
	tests := []struct {
		name    string
		options []Option
		rows    func() RowReader
		expect  func(t *testing.T, d *Dataset, err error)
	}{
		{
			name: "split ten rows",
			rows: func() RowReader { return Rows(mockRows(mockLabels...)...) },
			expect: func(t *testing.T, d *Dataset, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Equal([]float64{0, 5}, seniorities(d.Testing()))
				assert.Equal([]float64{1, 2, 3, 4, 6, 7, 8, 9}, seniorities(d.Training()))
				for _, r := range d.Testing() {
					assert.Equal(record.Testing, r.Tag())
				}
				for _, r := range d.Training() {
					assert.Equal(record.Training, r.Tag())
				}
				_, ok := d.Uploaded()
				assert.True(ok)
				assert.Equal(uint64(1), d.Generation())
			},
		},
		{
			name: "empty rows",
			rows: func() RowReader { return Rows() },
			expect: func(t *testing.T, d *Dataset, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Empty(d.Testing())
				assert.Empty(d.Training())
				_, ok := d.Uploaded()
				assert.True(ok)
			},
		},
		{
			name: "fail fast keeps partial inserts",
			rows: func() RowReader {
				rows := mockRows(mockLabels...)
				rows[6]["status"] = "2"
				return Rows(rows...)
			},
			expect: func(t *testing.T, d *Dataset, err error) {
				assert := assert.New(t)
				var loadErr *LoadError
				assert.True(errors.As(err, &loadErr))
				assert.Equal(7, loadErr.Row)
				assert.ErrorIs(err, record.ErrInvalidRecord)
				assert.Equal([]float64{0, 5}, seniorities(d.Testing()))
				assert.Equal([]float64{1, 2, 3, 4}, seniorities(d.Training()))
				_, ok := d.Uploaded()
				assert.False(ok)
			},
		},
		{
			name:    "skip invalid rows",
			options: []Option{WithLoadPolicy(SkipInvalid)},
			rows: func() RowReader {
				rows := mockRows(mockLabels...)
				rows[0]["age"] = "foo"
				rows[6]["status"] = "2"
				return Rows(rows...)
			},
			expect: func(t *testing.T, d *Dataset, err error) {
				assert := assert.New(t)
				var merr *multierror.Error
				assert.True(errors.As(err, &merr))
				assert.Len(merr.Errors, 2)
				var loadErr *LoadError
				assert.True(errors.As(merr.Errors[1], &loadErr))
				assert.Equal(7, loadErr.Row)
				assert.Equal([]float64{5}, seniorities(d.Testing()))
				assert.Equal([]float64{1, 2, 3, 4, 7, 8, 9}, seniorities(d.Training()))
				_, ok := d.Uploaded()
				assert.True(ok)
			},
		},
		{
			name: "read error aborts",
			rows: func() RowReader {
				return &errReader{rows: Rows(mockRows(mockLabels...)...), at: 3}
			},
			expect: func(t *testing.T, d *Dataset, err error) {
				assert := assert.New(t)
				assert.EqualError(err, "row 4: foo")
				assert.Len(d.Testing(), 1)
				assert.Len(d.Training(), 2)
				_, ok := d.Uploaded()
				assert.False(ok)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := NewRegistry().Create("foo", record.StatusSchema, tc.options...)
			tc.expect(t, d, d.Load(tc.rows()))
		})
	}
}

func TestDataset_LoadSplitSize(t *testing.T) {
	for n := 0; n <= 23; n++ {
		labels := make([]string, n)
		for i := range labels {
			labels[i] = "0"
		}

		d := NewRegistry().Create("foo", record.StatusSchema)
		require.NoError(t, d.Load(Rows(mockRows(labels...)...)))

		want := (n + TestingInterval - 1) / TestingInterval
		assert.Len(t, d.Testing(), want, "rows %d", n)
		assert.Len(t, d.Training(), n-want, "rows %d", n)
	}
}

func TestDataset_Reload(t *testing.T) {
	assert := assert.New(t)
	d := NewRegistry().Create("foo", record.StatusSchema)
	require.NoError(t, d.Load(Rows(mockRows(mockLabels...)...)))

	trial, err := hyperparameter.New(d.Ref(), majorityConfig)
	require.NoError(t, err)
	require.NoError(t, d.Test(trial))
	assert.Len(d.Tuning(), 1)

	require.NoError(t, d.Load(Rows(mockRows("0", "0", "0")...)))
	assert.Len(d.Testing(), 1)
	assert.Len(d.Training(), 2)
	assert.Empty(d.Tuning())
	_, ok := d.Tested()
	assert.False(ok)
	assert.Equal(uint64(2), d.Generation())
}

func TestDataset_Test(t *testing.T) {
	assert := assert.New(t)
	d := NewRegistry().Create("foo", record.StatusSchema)
	require.NoError(t, d.Load(Rows(mockRows(mockLabels...)...)))

	trial, err := hyperparameter.New(d.Ref(), majorityConfig)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, d.Test(trial))
	}

	tuning := d.Tuning()
	assert.Len(tuning, 3)
	for _, tr := range tuning {
		assert.Same(trial, tr)
	}

	quality, ok := trial.Quality()
	assert.True(ok)
	assert.Equal(0.5, quality)
	_, ok = d.Tested()
	assert.True(ok)

	for _, r := range d.Testing() {
		prediction, ok := r.Prediction()
		assert.True(ok)
		assert.Equal("0", prediction)
	}
}

func TestDataset_TestDecisionTree(t *testing.T) {
	assert := assert.New(t)
	d := NewRegistry().Create("foo", record.StatusSchema)

	// Odd rows are "1" and sit above seniority 100, even rows stay below 20.
	rows := make([]record.Row, 20)
	for i := range rows {
		if i%2 == 1 {
			rows[i] = mockRow(100+i, "1")
			continue
		}
		rows[i] = mockRow(i, "0")
	}
	require.NoError(t, d.Load(Rows(rows...)))

	trial, err := hyperparameter.New(d.Ref(), classifier.Config{
		Algorithm:       classifier.DecisionTreeAlgorithm,
		Criterion:       classifier.GiniCriterion,
		MaxDepth:        3,
		MinSamplesSplit: 2,
	})
	require.NoError(t, err)
	require.NoError(t, d.Test(trial))

	quality, ok := trial.Quality()
	assert.True(ok)
	assert.Equal(1.0, quality)
	assert.Equal([]float64{0, 105, 10, 115}, seniorities(d.Testing()))

	var predictions []string
	for _, r := range d.Testing() {
		prediction, ok := r.Prediction()
		assert.True(ok)
		assert.True(r.Matches())
		predictions = append(predictions, prediction)
	}
	assert.Equal([]string{"0", "1", "0", "1"}, predictions)

	unlabeled, err := record.ParseUnlabeled(record.StatusSchema, mockRow(150, ""))
	require.NoError(t, err)
	classified, err := d.Classify(trial, unlabeled)
	require.NoError(t, err)
	label, _ := classified.Prediction()
	assert.Equal("1", label)
}

func TestDataset_TestReloaded(t *testing.T) {
	assert := assert.New(t)
	var d *Dataset
	reloads := atomic.NewInt32(0)
	d = NewRegistry().Create("foo", record.StatusSchema, WithTestHook(func(_ *hyperparameter.Trial, err error) {
		if err == nil && reloads.Inc() == 1 {
			require.NoError(t, d.Load(Rows(mockRows(mockLabels...)...)))
		}
	}))
	require.NoError(t, d.Load(Rows(mockRows(mockLabels...)...)))

	trial, err := hyperparameter.New(d.Ref(), majorityConfig)
	require.NoError(t, err)

	assert.ErrorIs(d.Test(trial), hyperparameter.ErrStaleSnapshot)
	assert.Empty(d.Tuning())
	_, ok := d.Tested()
	assert.False(ok)

	assert.NoError(d.Test(trial))
	assert.Len(d.Tuning(), 1)
	generation, ok := trial.Generation()
	assert.True(ok)
	assert.Equal(d.Generation(), generation)
}

func TestDataset_TestingRace(t *testing.T) {
	d := NewRegistry().Create("foo", record.StatusSchema)
	require.NoError(t, d.Load(Rows(mockRows(mockLabels...)...)))

	var trials []*hyperparameter.Trial
	for i := 0; i < 8; i++ {
		trial, err := hyperparameter.New(d.Ref(), majorityConfig)
		require.NoError(t, err)
		trials = append(trials, trial)
	}

	eg := errgroup.Group{}
	for _, trial := range trials {
		trial := trial
		eg.Go(func() error {
			return d.Test(trial)
		})
		eg.Go(func() error {
			for _, r := range d.Testing() {
				if prediction, ok := r.Prediction(); ok && prediction != "0" {
					return fmt.Errorf("unexpected prediction %q", prediction)
				}
			}
			return nil
		})
	}

	assert.NoError(t, eg.Wait())
	assert.Len(t, d.Tuning(), len(trials))
}

func TestDataset_TestingCopies(t *testing.T) {
	assert := assert.New(t)
	d := NewRegistry().Create("foo", record.StatusSchema)
	require.NoError(t, d.Load(Rows(mockRows(mockLabels...)...)))

	before := d.Testing()
	trial, err := hyperparameter.New(d.Ref(), majorityConfig)
	require.NoError(t, err)
	require.NoError(t, d.Test(trial))

	for _, r := range before {
		_, ok := r.Prediction()
		assert.False(ok)
	}

	for _, r := range d.Testing() {
		_, ok := r.Prediction()
		assert.True(ok)
	}
}

func TestDataset_TestFailures(t *testing.T) {
	tests := []struct {
		name   string
		rows   []record.Row
		mock   func(t *testing.T, registry *Registry, d *Dataset) *hyperparameter.Trial
		expect func(t *testing.T, d *Dataset, err error)
	}{
		{
			name: "empty testing partition",
			rows: nil,
			mock: func(t *testing.T, registry *Registry, d *Dataset) *hyperparameter.Trial {
				trial, err := hyperparameter.New(d.Ref(), majorityConfig)
				require.NoError(t, err)
				return trial
			},
			expect: func(t *testing.T, d *Dataset, err error) {
				assert := assert.New(t)
				assert.ErrorIs(err, evaluation.ErrEmptyPartition)
				assert.Empty(d.Tuning())
			},
		},
		{
			name: "destroyed dataset",
			rows: mockRows(mockLabels...),
			mock: func(t *testing.T, registry *Registry, d *Dataset) *hyperparameter.Trial {
				trial, err := hyperparameter.New(d.Ref(), majorityConfig)
				require.NoError(t, err)
				registry.Destroy(d.ID())
				return trial
			},
			expect: func(t *testing.T, d *Dataset, err error) {
				assert := assert.New(t)
				assert.ErrorIs(err, hyperparameter.ErrBrokenReference)
				assert.Empty(d.Tuning())
			},
		},
		{
			name: "foreign trial",
			rows: mockRows(mockLabels...),
			mock: func(t *testing.T, registry *Registry, d *Dataset) *hyperparameter.Trial {
				other := registry.Create("bar", record.StatusSchema)
				require.NoError(t, other.Load(Rows(mockRows(mockLabels...)...)))
				trial, err := hyperparameter.New(other.Ref(), majorityConfig)
				require.NoError(t, err)
				return trial
			},
			expect: func(t *testing.T, d *Dataset, err error) {
				assert := assert.New(t)
				assert.ErrorIs(err, ErrForeignTrial)
				assert.Empty(d.Tuning())
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			registry := NewRegistry()
			d := registry.Create("foo", record.StatusSchema)
			require.NoError(t, d.Load(Rows(tc.rows...)))
			trial := tc.mock(t, registry, d)
			tc.expect(t, d, d.Test(trial))
		})
	}
}

func TestDataset_Liveness(t *testing.T) {
	assert := assert.New(t)
	registry := NewRegistry()
	d := registry.Create("foo", record.StatusSchema)
	require.NoError(t, d.Load(Rows(mockRows(mockLabels...)...)))

	trial, err := hyperparameter.New(d.Ref(), majorityConfig)
	require.NoError(t, err)
	require.NoError(t, trial.Test())

	d.Close()
	assert.Equal(0, registry.Len())
	assert.ErrorIs(trial.Test(), hyperparameter.ErrBrokenReference)
	assert.ErrorIs(d.Load(Rows()), ErrClosed)

	unlabeled, err := record.ParseUnlabeled(record.StatusSchema, mockRow(1, ""))
	require.NoError(t, err)
	_, err = trial.Classify(unlabeled)
	assert.ErrorIs(err, hyperparameter.ErrBrokenReference)

	quality, ok := trial.Quality()
	assert.True(ok)
	assert.Equal(0.5, quality)
}

func TestDataset_StaleSnapshot(t *testing.T) {
	d := NewRegistry().Create("foo", record.StatusSchema)
	require.NoError(t, d.Load(Rows(mockRows(mockLabels...)...)))

	generation := d.Generation()
	require.NoError(t, d.Load(Rows(mockRows(mockLabels...)...)))

	err := d.WritePredictions(generation, func([]*record.Record) error { return nil })
	assert.ErrorIs(t, err, hyperparameter.ErrStaleSnapshot)
	assert.NoError(t, d.WritePredictions(d.Generation(), func([]*record.Record) error { return nil }))
}

func TestDataset_Classify(t *testing.T) {
	assert := assert.New(t)
	d := NewRegistry().Create("foo", record.StatusSchema)
	require.NoError(t, d.Load(Rows(mockRows(mockLabels...)...)))

	trial, err := hyperparameter.New(d.Ref(), majorityConfig)
	require.NoError(t, err)

	unlabeled, err := record.ParseUnlabeled(record.StatusSchema, mockRow(3, ""))
	require.NoError(t, err)

	classified, err := d.Classify(trial, unlabeled)
	require.NoError(t, err)
	assert.Equal(record.Classified, classified.Tag())
	label, ok := classified.Prediction()
	assert.True(ok)
	assert.Equal("0", label)
	assert.Equal(unlabeled.Features(), classified.Features())

	assert.Equal(record.Unlabeled, unlabeled.Tag())
	_, ok = unlabeled.Prediction()
	assert.False(ok)

	_, err = d.Classify(trial, d.Testing()[0])
	assert.ErrorIs(err, record.ErrNotUnlabeled)
}

func TestDataset_TestAll(t *testing.T) {
	assert := assert.New(t)
	observed := atomic.NewInt32(0)
	d := NewRegistry().Create("foo", record.StatusSchema, WithConcurrency(2), WithTestHook(func(_ *hyperparameter.Trial, err error) {
		if err == nil {
			observed.Inc()
		}
	}))
	require.NoError(t, d.Load(Rows(mockRows(mockLabels...)...)))

	var trials []*hyperparameter.Trial
	for _, cfg := range []classifier.Config{
		majorityConfig,
		{Algorithm: classifier.KNNAlgorithm, Neighbors: 1, Distance: classifier.EuclideanDistance},
		majorityConfig,
		{Algorithm: classifier.MajorityAlgorithm, Neighbors: 3},
	} {
		trial, err := hyperparameter.New(d.Ref(), cfg)
		require.NoError(t, err)
		trials = append(trials, trial)
	}

	require.NoError(t, d.TestAll(context.Background(), trials...))
	assert.Equal(trials, d.Tuning())
	assert.Equal(int32(len(trials)), observed.Load())
	for _, trial := range trials {
		quality, ok := trial.Quality()
		assert.True(ok)
		assert.GreaterOrEqual(quality, 0.0)
		assert.LessOrEqual(quality, 1.0)
	}

	empty := NewRegistry().Create("bar", record.StatusSchema)
	require.NoError(t, empty.Load(Rows()))
	trial, err := hyperparameter.New(empty.Ref(), majorityConfig)
	require.NoError(t, err)
	assert.ErrorIs(empty.TestAll(context.Background(), trial), evaluation.ErrEmptyPartition)
	assert.Empty(empty.Tuning())
}

func TestDataset_Summary(t *testing.T) {
	assert := assert.New(t)
	d := NewRegistry().Create("foo", record.StatusSchema)
	require.NoError(t, d.Load(Rows(mockRows(mockLabels...)...)))

	_, err := d.Summary()
	assert.ErrorIs(err, ErrNoTrials)
	_, ok := d.Best()
	assert.False(ok)

	majority, err := hyperparameter.New(d.Ref(), majorityConfig)
	require.NoError(t, err)

	// Predicting the minority label everywhere scores 0.5 as well, ties keep the earliest.
	constant, err := hyperparameter.New(d.Ref(), majorityConfig, hyperparameter.WithClassifier(constantClassifier(1)))
	require.NoError(t, err)

	require.NoError(t, d.Test(majority))
	require.NoError(t, d.Test(constant))

	summary, err := d.Summary()
	require.NoError(t, err)
	assert.Equal(2, summary.Trials)
	assert.Equal(0.5, summary.Mean)
	assert.Equal(0.0, summary.StdDev)
	assert.Equal(0.5, summary.Max)

	best, ok := d.Best()
	assert.True(ok)
	assert.Same(majority, best)
}

type constantClassifier int

func (c constantClassifier) Fit([][]float64, []int) (classifier.Model, error) {
	return &classifier.ConstantModel{Class: int(c)}, nil
}

func TestRegistry(t *testing.T) {
	assert := assert.New(t)
	registry := NewRegistry()
	foo := registry.Create("foo", record.StatusSchema)
	bar := registry.Create("bar", record.ClientTypeSchema)
	assert.Equal(2, registry.Len())
	assert.ElementsMatch([]string{foo.ID(), bar.ID()}, registry.IDs())

	d, ok := registry.Get(bar.ID())
	assert.True(ok)
	assert.Same(bar, d)

	source, err := foo.Ref().Resolve()
	assert.NoError(err)
	assert.Equal(record.StatusSchema, source.Schema())

	assert.True(registry.Destroy(foo.ID()))
	assert.False(registry.Destroy(foo.ID()))
	_, err = foo.Ref().Resolve()
	assert.ErrorIs(err, hyperparameter.ErrBrokenReference)
	assert.ErrorIs(foo.WritePredictions(foo.Generation(), func([]*record.Record) error { return nil }), hyperparameter.ErrBrokenReference)
	assert.Equal("failFast", FailFast.String())
	assert.Equal("skipInvalid", SkipInvalid.String())
}
