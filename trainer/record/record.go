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
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Tag is the lifecycle state of a record.
type Tag int

const (
	// Training records are labeled and only used for fitting.
	Training Tag = iota

	// Testing records are labeled and receive a predicted label on every trial.
	Testing

	// Unlabeled records are classification requests without ground truth.
	Unlabeled

	// Classified records are read-only projections of an unlabeled record
	// plus its predicted label.
	Classified
)

// String returns the tag name.
func (t Tag) String() string {
	switch t {
	case Training:
		return "Training"
	case Testing:
		return "Testing"
	case Unlabeled:
		return "Unlabeled"
	case Classified:
		return "Classified"
	}

	return fmt.Sprintf("Tag(%d)", int(t))
}

var (
	// ErrNotTesting is returned when a prediction is written to a record
	// that is not a testing record.
	ErrNotTesting = errors.New("record is not a testing record")

	// ErrNotUnlabeled is returned when a record other than an unlabeled one
	// is classified.
	ErrNotUnlabeled = errors.New("record is not an unlabeled record")
)

// Record is one client observation. Feature values never change after
// construction; only the prediction slot of a testing record is mutable.
type Record struct {
	tag    Tag
	schema *Schema
	values []float64

	label    string
	hasLabel bool

	prediction    string
	hasPrediction bool
}

// Tag returns the lifecycle state of the record.
func (r *Record) Tag() Tag {
	return r.tag
}

// Schema returns the dataset variant of the record.
func (r *Record) Schema() *Schema {
	return r.schema
}

// Features returns a copy of the feature vector.
func (r *Record) Features() []float64 {
	values := make([]float64, len(r.values))
	copy(values, r.values)
	return values
}

// Value returns the value of the named feature.
func (r *Record) Value(name string) (float64, bool) {
	i, ok := r.schema.index(name)
	if !ok {
		return 0, false
	}

	return r.values[i], true
}

// Label returns the ground truth label.
func (r *Record) Label() (string, bool) {
	return r.label, r.hasLabel
}

// Class returns the class index of the ground truth label.
func (r *Record) Class() (int, bool) {
	if !r.hasLabel {
		return 0, false
	}

	return r.schema.ClassOf(r.label)
}

// Prediction returns the predicted label. Testing records carry it after a
// trial ran, classified records always carry it.
func (r *Record) Prediction() (string, bool) {
	return r.prediction, r.hasPrediction
}

// SetPrediction overwrites the predicted label of a testing record.
func (r *Record) SetPrediction(label string) error {
	if r.tag != Testing {
		return ErrNotTesting
	}

	if _, ok := r.schema.ClassOf(label); !ok {
		return fmt.Errorf("label %q is not valid for schema %s", label, r.schema.Name)
	}

	r.prediction = label
	r.hasPrediction = true
	return nil
}

// Clone returns a copy of the record, prediction slot included.
func (r *Record) Clone() *Record {
	clone := *r
	return &clone
}

// Matches reports whether the predicted label equals the ground truth.
func (r *Record) Matches() bool {
	return r.hasLabel && r.hasPrediction && r.label == r.prediction
}

// Fields serializes the record back into a raw row. Integer features are
// written exactly, float features in their shortest round-trip form.
func (r *Record) Fields() map[string]string {
	fields := make(map[string]string, len(r.values)+1)
	for i, f := range r.schema.Features {
		fields[f.Name] = formatValue(f.Kind, r.values[i])
	}

	if r.hasLabel {
		fields[r.schema.LabelField] = r.label
	}

	return fields
}

// String returns a readable representation of the record.
func (r *Record) String() string {
	var b strings.Builder
	b.WriteString(r.tag.String())
	b.WriteString("(")
	for i, f := range r.schema.Features {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%s", f.Name, formatValue(f.Kind, r.values[i]))
	}

	if r.hasLabel {
		fmt.Fprintf(&b, ", %s=%q", r.schema.LabelField, r.label)
	}

	if r.hasPrediction {
		fmt.Fprintf(&b, ", classification=%q", r.prediction)
	}
	b.WriteString(")")
	return b.String()
}

// Classify derives a classified record from an unlabeled one. The input
// record is left untouched.
func Classify(r *Record, label string) (*Record, error) {
	if r.tag != Unlabeled {
		return nil, ErrNotUnlabeled
	}

	if _, ok := r.schema.ClassOf(label); !ok {
		return nil, fmt.Errorf("label %q is not valid for schema %s", label, r.schema.Name)
	}

	return &Record{
		tag:           Classified,
		schema:        r.schema,
		values:        r.Features(),
		prediction:    label,
		hasPrediction: true,
	}, nil
}

func formatValue(kind Kind, v float64) string {
	if kind == Integer {
		return strconv.FormatInt(int64(v), 10)
	}

	return strconv.FormatFloat(v, 'g', -1, 64)
}
