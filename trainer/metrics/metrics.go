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

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/creditrisk/harness/pkg/types"
	"github.com/creditrisk/harness/trainer/config"
	"github.com/creditrisk/harness/version"
)

// Variables declared for metrics.
var (
	LoadCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: types.MetricsNamespace,
		Subsystem: types.TrainerMetricsName,
		Name:      "load_total",
		Help:      "Counter of the number of the dataset load.",
	}, []string{"schema"})

	LoadFailureCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: types.MetricsNamespace,
		Subsystem: types.TrainerMetricsName,
		Name:      "load_failure_total",
		Help:      "Counter of the number of failed of the dataset load.",
	}, []string{"schema"})

	ParseFailureCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: types.MetricsNamespace,
		Subsystem: types.TrainerMetricsName,
		Name:      "parse_failure_total",
		Help:      "Counter of the number of invalid rows.",
	}, []string{"schema"})

	TrialCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: types.MetricsNamespace,
		Subsystem: types.TrainerMetricsName,
		Name:      "trial_total",
		Help:      "Counter of the number of the trial.",
	}, []string{"algorithm", "policy"})

	TrialFailureCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: types.MetricsNamespace,
		Subsystem: types.TrainerMetricsName,
		Name:      "trial_failure_total",
		Help:      "Counter of the number of failed of the trial.",
	}, []string{"algorithm", "policy"})

	TrialQuality = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: types.MetricsNamespace,
		Subsystem: types.TrainerMetricsName,
		Name:      "trial_quality",
		Help:      "Histogram of the quality of the trial.",
		Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
	}, []string{"algorithm", "policy"})

	ClassifyCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: types.MetricsNamespace,
		Subsystem: types.TrainerMetricsName,
		Name:      "classify_total",
		Help:      "Counter of the number of the classify.",
	}, []string{"label"})

	ClassifyFailureCount = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: types.MetricsNamespace,
		Subsystem: types.TrainerMetricsName,
		Name:      "classify_failure_total",
		Help:      "Counter of the number of failed of the classify.",
	})

	VersionGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: types.MetricsNamespace,
		Subsystem: types.TrainerMetricsName,
		Name:      "version",
		Help:      "Version info of the service.",
	}, []string{"major", "minor", "git_version", "git_commit", "platform", "build_time", "go_version"})
)

func New(cfg *config.MetricsConfig) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	VersionGauge.WithLabelValues(version.Major, version.Minor, version.GitVersion, version.GitCommit, version.Platform, version.BuildTime, version.GoVersion).Set(1)
	return &http.Server{
		Addr:    cfg.Addr,
		Handler: mux,
	}
}
