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
	"fmt"

	"github.com/sjwhitworth/golearn/trees"
)

// DecisionTree is a CART decision tree classifier.
type DecisionTree struct {
	criterion       string
	maxDepth        int
	minSamplesSplit int
}

// NewDecisionTree returns a decision tree classifier. A maxDepth of zero
// grows the tree without limit.
func NewDecisionTree(criterion string, maxDepth, minSamplesSplit int) *DecisionTree {
	return &DecisionTree{
		criterion:       criterion,
		maxDepth:        maxDepth,
		minSamplesSplit: minSamplesSplit,
	}
}

// Fit grows a tree on the training set. With fewer rows than the minimum
// split size the root stays a leaf predicting the majority class.
func (d *DecisionTree) Fit(x [][]float64, y []int) (Model, error) {
	classes, err := checkShape(x, y)
	if err != nil {
		return nil, err
	}

	if len(x) < d.minSamplesSplit {
		return majorityOf(y, classes), nil
	}

	instances, err := NewInstances(x, y)
	if err != nil {
		return nil, err
	}

	maxDepth := int64(d.maxDepth)
	if maxDepth <= 0 {
		maxDepth = -1
	}

	labels := make([]int64, classes)
	for i := range labels {
		labels[i] = int64(i)
	}

	tree := trees.NewDecisionTreeClassifier(d.criterion, maxDepth, labels)
	if err := guard(func() error {
		return tree.Fit(instances)
	}); err != nil {
		return nil, err
	}

	return &treeModel{tree: tree, classes: classes}, nil
}

// treeModel is a fitted CART tree. The tree predicts class ids directly
// instead of a prediction grid.
type treeModel struct {
	tree    *trees.CARTDecisionTreeClassifier
	classes int
}

// Predict implements Model.
func (m *treeModel) Predict(x [][]float64) ([]int, error) {
	if len(x) == 0 {
		return []int{}, nil
	}

	instances, err := NewInstances(x, nil)
	if err != nil {
		return nil, err
	}

	var predicted []int64
	if err := guard(func() error {
		predicted = m.tree.Predict(instances)
		return nil
	}); err != nil {
		return nil, err
	}

	if len(predicted) != len(x) {
		return nil, fmt.Errorf("got %d predictions for %d rows", len(predicted), len(x))
	}

	result := make([]int, len(predicted))
	for i, class := range predicted {
		if class < 0 || class >= int64(m.classes) {
			return nil, fmt.Errorf("row %d: class %d out of range", i, class)
		}
		result[i] = int(class)
	}

	return result, nil
}
