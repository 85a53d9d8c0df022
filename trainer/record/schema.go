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

import "fmt"

// Kind is the semantic type of a feature value.
type Kind int

const (
	// Integer feature, parsed as a base 10 integer.
	Integer Kind = iota

	// Float feature, parsed as a 64-bit floating point number.
	Float
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Integer:
		return "integer"
	case Float:
		return "float"
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// Feature describes one column of a client record.
type Feature struct {
	// Name is the field name in the raw row.
	Name string

	// Kind is the semantic type of the value.
	Kind Kind
}

// Schema describes a dataset variant: its feature columns, the name of the
// ground truth column and the closed set of valid labels. The class index of
// a label is its position in Labels.
type Schema struct {
	// Name of the variant.
	Name string

	// Features in the order used by feature vectors.
	Features []Feature

	// LabelField is the raw row field holding the ground truth.
	LabelField string

	// Labels is the closed set of valid ground truth values.
	Labels []string
}

const (
	// StatusSchemaName is the name of the binary status variant.
	StatusSchemaName = "status"

	// ClientTypeSchemaName is the name of the can pay / can't pay variant.
	ClientTypeSchemaName = "client_type"
)

var (
	// StatusSchema is the nine feature variant labeled with an accept (0) or
	// reject (1) status.
	StatusSchema = &Schema{
		Name: StatusSchemaName,
		Features: []Feature{
			{Name: "seniority", Kind: Integer},
			{Name: "home", Kind: Integer},
			{Name: "age", Kind: Integer},
			{Name: "marital", Kind: Integer},
			{Name: "records", Kind: Integer},
			{Name: "expenses", Kind: Integer},
			{Name: "assets", Kind: Integer},
			{Name: "amount", Kind: Integer},
			{Name: "price", Kind: Integer},
		},
		LabelField: "status",
		Labels:     []string{"0", "1"},
	}

	// ClientTypeSchema is the thirteen feature variant labeled with a
	// can pay / can't pay class.
	ClientTypeSchema = &Schema{
		Name: ClientTypeSchemaName,
		Features: []Feature{
			{Name: "status", Kind: Integer},
			{Name: "seniority", Kind: Integer},
			{Name: "home", Kind: Integer},
			{Name: "time", Kind: Integer},
			{Name: "age", Kind: Integer},
			{Name: "marital", Kind: Integer},
			{Name: "job", Kind: Integer},
			{Name: "expenses", Kind: Float},
			{Name: "income", Kind: Integer},
			{Name: "assets", Kind: Float},
			{Name: "debt", Kind: Float},
			{Name: "amount", Kind: Float},
			{Name: "price", Kind: Float},
		},
		LabelField: "client_type",
		Labels:     []string{"Can pay", "Can't pay"},
	}
)

// LookupSchema returns the built-in schema with the given name.
func LookupSchema(name string) (*Schema, error) {
	switch name {
	case StatusSchemaName:
		return StatusSchema, nil
	case ClientTypeSchemaName:
		return ClientTypeSchema, nil
	}

	return nil, fmt.Errorf("unknown schema %q", name)
}

// FeatureNames returns the feature names in vector order.
func (s *Schema) FeatureNames() []string {
	names := make([]string, len(s.Features))
	for i, f := range s.Features {
		names[i] = f.Name
	}

	return names
}

// Columns returns the feature names followed by the label field, the column
// order of a labeled csv file.
func (s *Schema) Columns() []string {
	return append(s.FeatureNames(), s.LabelField)
}

// ClassOf returns the class index of label.
func (s *Schema) ClassOf(label string) (int, bool) {
	for i, l := range s.Labels {
		if l == label {
			return i, true
		}
	}

	return 0, false
}

// LabelOf returns the label of the class index.
func (s *Schema) LabelOf(class int) (string, error) {
	if class < 0 || class >= len(s.Labels) {
		return "", fmt.Errorf("class %d out of range for schema %s", class, s.Name)
	}

	return s.Labels[class], nil
}

// index returns the vector position of the named feature.
func (s *Schema) index(name string) (int, bool) {
	for i, f := range s.Features {
		if f.Name == name {
			return i, true
		}
	}

	return 0, false
}
