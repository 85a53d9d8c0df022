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
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/creditrisk/harness/trainer/config"
)

func TestMetrics_New(t *testing.T) {
	assert := assert.New(t)
	svr := New(&config.MetricsConfig{Enable: true, Addr: ":8000"})
	assert.Equal(":8000", svr.Addr)

	LoadCount.WithLabelValues("status").Inc()
	TrialQuality.WithLabelValues("majority", "accuracy").Observe(0.5)

	rec := httptest.NewRecorder()
	svr.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(strings.Contains(body, `harness_trainer_load_total{schema="status"}`))
	assert.True(strings.Contains(body, "harness_trainer_trial_quality_bucket"))
	assert.True(strings.Contains(body, "harness_trainer_version"))
}
