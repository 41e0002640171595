// Copyright 2019 The Gravsearch Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package triplestore

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mRequestSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "gravsearch_triplestore_request_seconds",
		Help: "Time to run a query on the triple store.",
	}, []string{"op"})
	mErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gravsearch_triplestore_errors_total",
		Help: "Number of failed triple store requests.",
	}, []string{"op"})
)

func observe(op string, start time.Time, err *error) {
	mRequestSeconds.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if *err != nil {
		mErrors.WithLabelValues(op).Inc()
	}
}
