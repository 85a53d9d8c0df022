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
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

const (
	// AccuracyPolicyName is the name of the accuracy policy.
	AccuracyPolicyName = "accuracy"

	// ROCAUCPolicyName is the name of the area under the roc curve policy.
	ROCAUCPolicyName = "roc_auc"
)

// PositiveClass is the class index treated as positive by ranking policies.
const PositiveClass = 1

var (
	// ErrEmptyPartition is returned when a score is computed without rows.
	ErrEmptyPartition = errors.New("testing partition is empty")

	// ErrUndefinedAUC is returned when the actual classes hold a single value.
	ErrUndefinedAUC = errors.New("auc is undefined when only one class is present")
)

// Policy scores predictions against the ground truth.
type Policy interface {
	// Name returns the policy name.
	Name() string

	// Score returns the quality of predicted against actual, in [0, 1].
	Score(actual, predicted []int) (float64, error)
}

// LookupPolicy returns the policy with the given name.
func LookupPolicy(name string) (Policy, error) {
	switch name {
	case AccuracyPolicyName:
		return Accuracy{}, nil
	case ROCAUCPolicyName:
		return ROCAUC{}, nil
	}

	return nil, fmt.Errorf("unknown policy %q", name)
}

// Accuracy is the ratio of matching predictions.
type Accuracy struct{}

// Name implements Policy.
func (Accuracy) Name() string {
	return AccuracyPolicyName
}

// Score returns matches / (matches + mismatches).
func (Accuracy) Score(actual, predicted []int) (float64, error) {
	if err := checkLength(actual, predicted); err != nil {
		return 0, err
	}

	var matches, mismatches int
	for i := range actual {
		if actual[i] == predicted[i] {
			matches++
			continue
		}

		mismatches++
	}

	if matches+mismatches == 0 {
		return 0, ErrEmptyPartition
	}

	return float64(matches) / float64(matches+mismatches), nil
}

// ROCAUC is the area under the roc curve of a binary classification, using
// the predicted class as the ranking score.
type ROCAUC struct{}

// Name implements Policy.
func (ROCAUC) Name() string {
	return ROCAUCPolicyName
}

// Score integrates the roc curve with the trapezoidal rule.
func (ROCAUC) Score(actual, predicted []int) (float64, error) {
	if err := checkLength(actual, predicted); err != nil {
		return 0, err
	}

	if len(actual) == 0 {
		return 0, ErrEmptyPartition
	}

	scores := make([]float64, len(predicted))
	classes := make([]bool, len(actual))
	var positives int
	for i := range actual {
		scores[i] = float64(predicted[i])
		classes[i] = actual[i] == PositiveClass
		if classes[i] {
			positives++
		}
	}

	if positives == 0 || positives == len(actual) {
		return 0, ErrUndefinedAUC
	}

	return AUC(scores, classes), nil
}

// AUC returns the area under the roc curve of the scores, where classes marks
// the positive rows.
func AUC(scores []float64, classes []bool) float64 {
	y := make([]float64, len(scores))
	copy(y, scores)
	c := make([]bool, len(classes))
	copy(c, classes)
	sort.Sort(byScore{y: y, classes: c})

	tpr, fpr, _ := stat.ROC(nil, y, c, nil)
	return integrate.Trapezoidal(fpr, tpr)
}

type byScore struct {
	y       []float64
	classes []bool
}

func (b byScore) Len() int           { return len(b.y) }
func (b byScore) Less(i, j int) bool { return b.y[i] < b.y[j] }
func (b byScore) Swap(i, j int) {
	b.y[i], b.y[j] = b.y[j], b.y[i]
	b.classes[i], b.classes[j] = b.classes[j], b.classes[i]
}

func checkLength(actual, predicted []int) error {
	if len(actual) != len(predicted) {
		return fmt.Errorf("got %d predictions for %d rows", len(predicted), len(actual))
	}

	return nil
}
