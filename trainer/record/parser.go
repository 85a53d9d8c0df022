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
	"math"
	"strconv"
	"strings"
)

// Row is a loosely typed record, field name to raw value.
type Row map[string]string

// ErrInvalidRecord is the sentinel wrapped by every parse failure.
var ErrInvalidRecord = errors.New("invalid record")

// maxExactInteger is the largest integer magnitude a feature holds exactly.
const maxExactInteger = 1 << 53

// InvalidRecordError is returned when a row can not be turned into a record.
// It always carries the offending row.
type InvalidRecordError struct {
	// Row is the raw row that failed to parse.
	Row Row

	// Reason describes the failed check.
	Reason string

	// Err is the underlying conversion error, if any.
	Err error
}

// Error implements error.
func (e *InvalidRecordError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s in %v: %s", ErrInvalidRecord, e.Reason, map[string]string(e.Row), e.Err)
	}

	return fmt.Sprintf("%s: %s in %v", ErrInvalidRecord, e.Reason, map[string]string(e.Row))
}

// Is matches ErrInvalidRecord.
func (e *InvalidRecordError) Is(target error) bool {
	return target == ErrInvalidRecord
}

// Unwrap returns the underlying conversion error.
func (e *InvalidRecordError) Unwrap() error {
	return e.Err
}

// ParseTraining parses a labeled row into a training record.
func ParseTraining(schema *Schema, row Row) (*Record, error) {
	return parseLabeled(schema, row, Training)
}

// ParseTesting parses a labeled row into a testing record with an empty
// prediction slot.
func ParseTesting(schema *Schema, row Row) (*Record, error) {
	return parseLabeled(schema, row, Testing)
}

// ParseUnlabeled parses a classification request. The row's field names must
// equal the schema's feature names exactly; this is checked before any value
// is converted.
func ParseUnlabeled(schema *Schema, row Row) (*Record, error) {
	if len(row) != len(schema.Features) {
		return nil, &InvalidRecordError{Row: row, Reason: "invalid fields"}
	}

	for _, f := range schema.Features {
		if _, ok := row[f.Name]; !ok {
			return nil, &InvalidRecordError{Row: row, Reason: "invalid fields"}
		}
	}

	values, err := parseValues(schema, row)
	if err != nil {
		return nil, err
	}

	return &Record{
		tag:    Unlabeled,
		schema: schema,
		values: values,
	}, nil
}

func parseLabeled(schema *Schema, row Row, tag Tag) (*Record, error) {
	if len(row) != len(schema.Features)+1 {
		return nil, &InvalidRecordError{Row: row, Reason: "invalid fields"}
	}

	label, ok := row[schema.LabelField]
	if !ok {
		return nil, &InvalidRecordError{Row: row, Reason: fmt.Sprintf("missing %s", schema.LabelField)}
	}

	if _, ok := schema.ClassOf(label); !ok {
		return nil, &InvalidRecordError{Row: row, Reason: fmt.Sprintf("invalid %s %q", schema.LabelField, label)}
	}

	values, err := parseValues(schema, row)
	if err != nil {
		return nil, err
	}

	return &Record{
		tag:      tag,
		schema:   schema,
		values:   values,
		label:    label,
		hasLabel: true,
	}, nil
}

func parseValues(schema *Schema, row Row) ([]float64, error) {
	values := make([]float64, len(schema.Features))
	for i, f := range schema.Features {
		raw, ok := row[f.Name]
		if !ok {
			return nil, &InvalidRecordError{Row: row, Reason: fmt.Sprintf("missing %s", f.Name)}
		}

		v, err := parseValue(f.Kind, strings.TrimSpace(raw))
		if err != nil {
			return nil, &InvalidRecordError{Row: row, Reason: fmt.Sprintf("invalid %s", f.Name), Err: err}
		}
		values[i] = v
	}

	return values, nil
}

func parseValue(kind Kind, raw string) (float64, error) {
	switch kind {
	case Integer:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, err
		}

		if v > maxExactInteger || v < -maxExactInteger {
			return 0, fmt.Errorf("value %q exceeds %d", raw, int64(maxExactInteger))
		}

		return float64(v), nil
	case Float:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, err
		}

		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("value %q is not finite", raw)
		}

		return v, nil
	}

	return 0, fmt.Errorf("unsupported kind %s", kind)
}
