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

package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_SetPrediction(t *testing.T) {
	tests := []struct {
		name   string
		parse  func() (*Record, error)
		label  string
		expect func(t *testing.T, r *Record, err error)
	}{
		{
			name: "testing record accepts prediction",
			parse: func() (*Record, error) {
				return ParseTesting(StatusSchema, mockStatusRow())
			},
			label: "0",
			expect: func(t *testing.T, r *Record, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				p, ok := r.Prediction()
				assert.True(ok)
				assert.Equal("0", p)
				assert.True(r.Matches())
			},
		},
		{
			name: "prediction is overwritten",
			parse: func() (*Record, error) {
				r, err := ParseTesting(StatusSchema, mockStatusRow())
				if err != nil {
					return nil, err
				}

				return r, r.SetPrediction("0")
			},
			label: "1",
			expect: func(t *testing.T, r *Record, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				p, _ := r.Prediction()
				assert.Equal("1", p)
				assert.False(r.Matches())
			},
		},
		{
			name: "training record never receives a prediction",
			parse: func() (*Record, error) {
				return ParseTraining(StatusSchema, mockStatusRow())
			},
			label: "0",
			expect: func(t *testing.T, r *Record, err error) {
				assert := assert.New(t)
				assert.ErrorIs(err, ErrNotTesting)
				_, ok := r.Prediction()
				assert.False(ok)
			},
		},
		{
			name: "prediction outside the label set",
			parse: func() (*Record, error) {
				return ParseTesting(StatusSchema, mockStatusRow())
			},
			label: "Can pay",
			expect: func(t *testing.T, r *Record, err error) {
				assert := assert.New(t)
				assert.Error(err)
				_, ok := r.Prediction()
				assert.False(ok)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := tc.parse()
			require.NoError(t, err)
			tc.expect(t, r, r.SetPrediction(tc.label))
		})
	}
}

func TestRecord_Classify(t *testing.T) {
	assert := assert.New(t)
	row := mockStatusRow()
	delete(row, "status")
	unlabeled, err := ParseUnlabeled(StatusSchema, row)
	require.NoError(t, err)

	classified, err := Classify(unlabeled, "1")
	assert.NoError(err)
	assert.Equal(Classified, classified.Tag())
	assert.Equal(unlabeled.Features(), classified.Features())
	p, ok := classified.Prediction()
	assert.True(ok)
	assert.Equal("1", p)

	_, ok = unlabeled.Prediction()
	assert.False(ok)
	assert.Equal(Unlabeled, unlabeled.Tag())

	training, err := ParseTraining(StatusSchema, mockStatusRow())
	require.NoError(t, err)
	_, err = Classify(training, "1")
	assert.ErrorIs(err, ErrNotUnlabeled)

	_, err = Classify(unlabeled, "2")
	assert.Error(err)
}

func TestRecord_FeaturesIsACopy(t *testing.T) {
	r, err := ParseTraining(StatusSchema, mockStatusRow())
	require.NoError(t, err)

	values := r.Features()
	values[0] = -1
	v, ok := r.Value("seniority")
	assert.True(t, ok)
	assert.Equal(t, float64(9), v)

	_, ok = r.Value("unknown")
	assert.False(t, ok)
}

func TestRecord_Clone(t *testing.T) {
	assert := assert.New(t)
	r, err := ParseTesting(StatusSchema, mockStatusRow())
	require.NoError(t, err)

	clone := r.Clone()
	require.NoError(t, r.SetPrediction("1"))
	_, ok := clone.Prediction()
	assert.False(ok)

	clone = r.Clone()
	prediction, ok := clone.Prediction()
	assert.True(ok)
	assert.Equal("1", prediction)
	assert.Equal(r.Features(), clone.Features())
	assert.Equal(Testing, clone.Tag())
}

func TestRecord_String(t *testing.T) {
	r, err := ParseTesting(StatusSchema, mockStatusRow())
	require.NoError(t, err)
	require.NoError(t, r.SetPrediction("1"))
	assert.Equal(t,
		`Testing(seniority=9, home=1, age=30, marital=2, records=1, expenses=73, assets=5000, amount=800, price=846, status="0", classification="1")`,
		r.String())
}

func TestSchema_Lookup(t *testing.T) {
	assert := assert.New(t)
	s, err := LookupSchema("status")
	assert.NoError(err)
	assert.Same(StatusSchema, s)

	s, err = LookupSchema("client_type")
	assert.NoError(err)
	assert.Same(ClientTypeSchema, s)
	assert.Equal("client_type", s.Columns()[len(s.Columns())-1])

	_, err = LookupSchema("foo")
	assert.EqualError(err, `unknown schema "foo"`)

	label, err := StatusSchema.LabelOf(1)
	assert.NoError(err)
	assert.Equal("1", label)
	_, err = StatusSchema.LabelOf(2)
	assert.Error(err)
}
