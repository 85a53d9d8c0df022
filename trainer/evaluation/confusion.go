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

package evaluation

import (
	"fmt"

	"github.com/sjwhitworth/golearn/base"
	"github.com/sjwhitworth/golearn/evaluation"
)

// Report is the confusion matrix of a scored partition.
type Report struct {
	// Matrix maps the actual label to the predicted label counts.
	Matrix evaluation.ConfusionMatrix

	// Accuracy is the overall accuracy of the matrix.
	Accuracy float64

	// Summary is the per class precision, recall and f1 table.
	Summary string
}

// Confusion builds the confusion matrix of predicted against actual, where
// labels maps a class index to its label.
func Confusion(labels []string, actual, predicted []int) (*Report, error) {
	if err := checkLength(actual, predicted); err != nil {
		return nil, err
	}

	if len(actual) == 0 {
		return nil, ErrEmptyPartition
	}

	ref, err := labelGrid(labels, actual)
	if err != nil {
		return nil, err
	}

	gen, err := labelGrid(labels, predicted)
	if err != nil {
		return nil, err
	}

	matrix, err := evaluation.GetConfusionMatrix(ref, gen)
	if err != nil {
		return nil, err
	}

	return &Report{
		Matrix:   matrix,
		Accuracy: evaluation.GetAccuracy(matrix),
		Summary:  evaluation.GetSummary(matrix),
	}, nil
}

// labelGrid builds a single column grid holding the label of every class.
func labelGrid(labels []string, classes []int) (*base.DenseInstances, error) {
	attr := base.NewCategoricalAttribute()
	attr.SetName("label")
	for _, label := range labels {
		attr.GetSysValFromString(label)
	}

	grid := base.NewDenseInstances()
	grid.AddAttribute(attr)
	if err := grid.AddClassAttribute(attr); err != nil {
		return nil, err
	}

	if err := grid.Extend(len(classes)); err != nil {
		return nil, err
	}

	for i, c := range classes {
		if c < 0 || c >= len(labels) {
			return nil, fmt.Errorf("class %d out of range", c)
		}

		base.SetClass(grid, i, labels[c])
	}

	return grid, nil
}
