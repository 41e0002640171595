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

package search

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dasch-swiss/gravsearch/query/gravsearch"
)

var (
	mQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gravsearch_queries_total",
		Help: "Number of Gravsearch queries by outcome: search, count or the kind of error.",
	}, []string{"kind"})
	mPrequeryRows = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gravsearch_prequery_rows",
		Help:    "Number of main resources returned by a prequery.",
		Buckets: prometheus.LinearBuckets(0, 5, 11),
	})
	mHidden = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gravsearch_hidden_subjects_total",
		Help: "Number of subjects dropped because the requesting user may not see them.",
	}, []string{"role"})
)

func kindLabel(err error) string {
	if k, ok := gravsearch.KindOf(err); ok {
		return k.String()
	}
	return "error"
}
