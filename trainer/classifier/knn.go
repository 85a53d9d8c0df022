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
	"github.com/sjwhitworth/golearn/knn"
)

// knnSearchAlgorithm is the neighbour search strategy.
const knnSearchAlgorithm = "linear"

// KNN is a k nearest neighbours classifier.
type KNN struct {
	distance  string
	neighbors int
}

// NewKNN returns a knn classifier.
func NewKNN(distance string, neighbors int) *KNN {
	return &KNN{
		distance:  distance,
		neighbors: neighbors,
	}
}

// Fit memorizes the training set.
func (k *KNN) Fit(x [][]float64, y []int) (Model, error) {
	classes, err := checkShape(x, y)
	if err != nil {
		return nil, err
	}

	instances, err := NewInstances(x, y)
	if err != nil {
		return nil, err
	}

	neighbors := k.neighbors
	if neighbors > len(x) {
		neighbors = len(x)
	}

	cls := knn.NewKnnClassifier(k.distance, knnSearchAlgorithm, neighbors)
	if err := guard(func() error {
		return cls.Fit(instances)
	}); err != nil {
		return nil, err
	}

	return &estimatorModel{estimator: cls, classes: classes}, nil
}
