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

package dataset

import (
	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/creditrisk/harness/trainer/hyperparameter"
)

// Registry owns datasets. Trials observe a dataset through a reference into
// the registry, so destroying a dataset breaks every reference to it.
type Registry struct {
	datasets cmap.ConcurrentMap[*Dataset]
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		datasets: cmap.New[*Dataset](),
	}
}

// Get returns the dataset with the given id.
func (r *Registry) Get(id string) (*Dataset, bool) {
	return r.datasets.Get(id)
}

// Destroy closes the dataset with the given id and removes it.
func (r *Registry) Destroy(id string) bool {
	d, ok := r.datasets.Pop(id)
	if !ok {
		return false
	}

	d.closed.Store(true)
	return true
}

// Len returns the number of live datasets.
func (r *Registry) Len() int {
	return r.datasets.Count()
}

// IDs returns the ids of the live datasets.
func (r *Registry) IDs() []string {
	return r.datasets.Keys()
}

// reference is the non-owning handle of a dataset.
type reference struct {
	registry *Registry
	id       string
}

// Resolve implements hyperparameter.Reference.
func (r reference) Resolve() (hyperparameter.Source, error) {
	d, ok := r.registry.datasets.Get(r.id)
	if !ok || d.closed.Load() {
		return nil, hyperparameter.ErrBrokenReference
	}

	return d, nil
}
