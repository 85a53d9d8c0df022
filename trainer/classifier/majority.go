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

// Majority predicts the most frequent training class.
type Majority struct{}

// NewMajority returns the majority class baseline.
func NewMajority() *Majority {
	return &Majority{}
}

// Fit counts the classes of y. Ties are broken by the lowest class index.
func (m *Majority) Fit(x [][]float64, y []int) (Model, error) {
	classes, err := checkShape(x, y)
	if err != nil {
		return nil, err
	}

	return majorityOf(y, classes), nil
}

// ConstantModel predicts the same class for every row.
type ConstantModel struct {
	Class int
}

// Predict implements Model.
func (m *ConstantModel) Predict(x [][]float64) ([]int, error) {
	result := make([]int, len(x))
	for i := range result {
		result[i] = m.Class
	}

	return result, nil
}

func majorityOf(y []int, classes int) *ConstantModel {
	counts := make([]int, classes)
	for _, c := range y {
		counts[c]++
	}

	best := 0
	for c, n := range counts {
		if n > counts[best] {
			best = c
		}
	}

	return &ConstantModel{Class: best}
}
