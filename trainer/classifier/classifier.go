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

//go:generate mockgen -destination mocks/classifier_mock.go -source classifier.go -package mocks

package classifier

import (
	"errors"
	"fmt"
)

const (
	// DecisionTreeAlgorithm is the name of the CART decision tree classifier.
	DecisionTreeAlgorithm = "decision_tree"

	// KNNAlgorithm is the name of the k nearest neighbours classifier.
	KNNAlgorithm = "knn"

	// MajorityAlgorithm is the name of the majority class baseline.
	MajorityAlgorithm = "majority"
)

const (
	// GiniCriterion selects the gini impurity split criterion.
	GiniCriterion = "gini"

	// EntropyCriterion selects the information gain split criterion.
	EntropyCriterion = "entropy"
)

const (
	// EuclideanDistance is the euclidean distance function.
	EuclideanDistance = "euclidean"

	// ManhattanDistance is the manhattan distance function.
	ManhattanDistance = "manhattan"

	// CosineDistance is the cosine distance function.
	CosineDistance = "cosine"
)

const (
	// DefaultMinSamplesSplit is the default minimum number of rows to split a node.
	DefaultMinSamplesSplit = 2

	// DefaultNeighbors is the default neighbour count of knn.
	DefaultNeighbors = 5
)

var (
	// ErrEmptyTraining is returned when a classifier is fitted without rows.
	ErrEmptyTraining = errors.New("training partition is empty")

	// ErrShape is returned when features and labels disagree in size.
	ErrShape = errors.New("features and labels have different shapes")
)

// Classifier is a learning algorithm.
type Classifier interface {
	// Fit trains a model on the feature matrix and the class indexes.
	Fit(x [][]float64, y []int) (Model, error)
}

// Model is a fitted classifier.
type Model interface {
	// Predict returns the class index of every row.
	Predict(x [][]float64) ([]int, error)
}

// Config holds the tunable knobs of a classifier.
type Config struct {
	// Algorithm is the classifier family.
	Algorithm string `yaml:"algorithm" mapstructure:"algorithm"`

	// Criterion is the split criterion of the decision tree.
	Criterion string `yaml:"criterion" mapstructure:"criterion"`

	// MaxDepth is the maximum depth of the decision tree, zero means unlimited.
	MaxDepth int `yaml:"maxDepth" mapstructure:"maxDepth"`

	// MinSamplesSplit is the minimum number of rows to split the root.
	MinSamplesSplit int `yaml:"minSamplesSplit" mapstructure:"minSamplesSplit"`

	// Neighbors is the k of knn.
	Neighbors int `yaml:"neighbors" mapstructure:"neighbors"`

	// Distance is the distance function of knn.
	Distance string `yaml:"distance" mapstructure:"distance"`
}

// Validate checks the knobs of the selected algorithm.
func (c Config) Validate() error {
	switch c.Algorithm {
	case DecisionTreeAlgorithm:
		if c.Criterion != GiniCriterion && c.Criterion != EntropyCriterion {
			return fmt.Errorf("invalid criterion %q", c.Criterion)
		}

		if c.MaxDepth < 0 {
			return errors.New("maxDepth requires parameter greater than or equal to 0")
		}

		if c.MinSamplesSplit < DefaultMinSamplesSplit {
			return fmt.Errorf("minSamplesSplit requires parameter greater than or equal to %d", DefaultMinSamplesSplit)
		}
	case KNNAlgorithm:
		if c.Neighbors <= 0 {
			return errors.New("neighbors requires parameter greater than 0")
		}

		switch c.Distance {
		case EuclideanDistance, ManhattanDistance, CosineDistance:
		default:
			return fmt.Errorf("invalid distance %q", c.Distance)
		}
	case MajorityAlgorithm:
	default:
		return fmt.Errorf("unknown algorithm %q", c.Algorithm)
	}

	return nil
}

// String returns a compact form of the knobs of the selected algorithm.
func (c Config) String() string {
	switch c.Algorithm {
	case DecisionTreeAlgorithm:
		return fmt.Sprintf("%s(criterion=%s, maxDepth=%d, minSamplesSplit=%d)", c.Algorithm, c.Criterion, c.MaxDepth, c.MinSamplesSplit)
	case KNNAlgorithm:
		return fmt.Sprintf("%s(neighbors=%d, distance=%s)", c.Algorithm, c.Neighbors, c.Distance)
	}

	return c.Algorithm
}

// New returns the classifier selected by the config.
func New(cfg Config) (Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Algorithm {
	case DecisionTreeAlgorithm:
		return NewDecisionTree(cfg.Criterion, cfg.MaxDepth, cfg.MinSamplesSplit), nil
	case KNNAlgorithm:
		return NewKNN(cfg.Distance, cfg.Neighbors), nil
	default:
		return NewMajority(), nil
	}
}

// checkShape validates a training set and returns its class count.
func checkShape(x [][]float64, y []int) (int, error) {
	if len(x) == 0 {
		return 0, ErrEmptyTraining
	}

	if len(x) != len(y) {
		return 0, ErrShape
	}

	classes := 0
	for _, c := range y {
		if c < 0 {
			return 0, fmt.Errorf("invalid class %d", c)
		}

		if c+1 > classes {
			classes = c + 1
		}
	}

	return classes, nil
}
