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

package config

const (
	// DefaultLogRotateMaxSize is the maximum size in megabytes of log files before rotation.
	DefaultLogRotateMaxSize = 40

	// DefaultLogRotateMaxAge is the maximum number of days to retain old log files.
	DefaultLogRotateMaxAge = 7

	// DefaultLogRotateMaxBackups is the maximum number of old log files to keep.
	DefaultLogRotateMaxBackups = 20
)

const (
	// DefaultDatasetName is default name of the dataset.
	DefaultDatasetName = "credit"

	// FailFastLoadPolicy aborts the load on the first invalid row.
	FailFastLoadPolicy = "failFast"

	// SkipInvalidLoadPolicy skips invalid rows and reports them after the load.
	SkipInvalidLoadPolicy = "skipInvalid"
)

const (
	// DefaultTuningConcurrency is default number of trials evaluated at the same time.
	DefaultTuningConcurrency = 4
)

const (
	// DefaultMetricsAddr is default address for metrics server.
	DefaultMetricsAddr = ":8000"
)
