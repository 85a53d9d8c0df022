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

package classifier

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/sjwhitworth/golearn/base"
)

const (
	// featureAttributePrefix is the attribute name prefix of feature columns.
	featureAttributePrefix = "feature"

	// classAttributeName is the attribute name of the class column.
	classAttributeName = "label"
)

// estimator is the fit and predict surface of golearn classifiers that
// return a prediction grid.
type estimator interface {
	Fit(base.FixedDataGrid) error
	Predict(base.FixedDataGrid) (base.FixedDataGrid, error)
}

// NewInstances builds dense instances with one float attribute per feature
// and a float class attribute. A nil y leaves every class cell at zero, so
// prediction grids stay compatible with the training grid.
func NewInstances(x [][]float64, y []int) (*base.DenseInstances, error) {
	if len(x) == 0 {
		return nil, ErrEmptyTraining
	}

	if y != nil && len(y) != len(x) {
		return nil, ErrShape
	}

	width := len(x[0])
	instances := base.NewDenseInstances()
	specs := make([]base.AttributeSpec, width)
	for i := 0; i < width; i++ {
		specs[i] = instances.AddAttribute(base.NewFloatAttribute(featureAttributePrefix + strconv.Itoa(i)))
	}

	label := base.NewFloatAttribute(classAttributeName)
	classSpec := instances.AddAttribute(label)
	if err := instances.AddClassAttribute(label); err != nil {
		return nil, err
	}

	if err := instances.Extend(len(x)); err != nil {
		return nil, err
	}

	for row, values := range x {
		if len(values) != width {
			return nil, fmt.Errorf("row %d has %d features, want %d: %w", row, len(values), width, ErrShape)
		}

		for i, v := range values {
			instances.Set(specs[i], row, base.PackFloatToBytes(v))
		}

		class := 0
		if y != nil {
			class = y[row]
		}
		instances.Set(classSpec, row, base.PackFloatToBytes(float64(class)))
	}

	return instances, nil
}

// ReadClasses returns the class index stored in the class attribute of every
// row of a prediction grid. Estimators pack class cells either as unsigned
// integers or as floats, both encodings are accepted.
func ReadClasses(grid base.FixedDataGrid, classes int) ([]int, error) {
	attrs := grid.AllClassAttributes()
	if len(attrs) != 1 {
		return nil, errors.New("only 1 class variable is permitted")
	}

	spec, err := grid.GetAttribute(attrs[0])
	if err != nil {
		return nil, err
	}

	_, rows := grid.Size()
	result := make([]int, rows)
	for i := 0; i < rows; i++ {
		class, err := decodeClass(grid.Get(spec, i), classes)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}

		result[i] = class
	}

	return result, nil
}

func decodeClass(cell []byte, classes int) (int, error) {
	if u := base.UnpackBytesToU64(cell); u < uint64(classes) {
		return int(u), nil
	}

	f := base.UnpackBytesToFloat(cell)
	if math.IsNaN(f) {
		return 0, errors.New("class is not a number")
	}

	class := int(math.Round(f))
	if class < 0 || class >= classes {
		return 0, fmt.Errorf("class %v out of range", f)
	}

	return class, nil
}

// guard converts a panic raised inside fn into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("classifier panic: %v", r)
		}
	}()

	return fn()
}

// estimatorModel is a fitted golearn estimator.
type estimatorModel struct {
	estimator estimator
	classes   int
}

// Predict implements Model.
func (m *estimatorModel) Predict(x [][]float64) ([]int, error) {
	if len(x) == 0 {
		return []int{}, nil
	}

	instances, err := NewInstances(x, nil)
	if err != nil {
		return nil, err
	}

	var result []int
	if err := guard(func() error {
		grid, err := m.estimator.Predict(instances)
		if err != nil {
			return err
		}

		result, err = ReadClasses(grid, m.classes)
		return err
	}); err != nil {
		return nil, err
	}

	return result, nil
}
