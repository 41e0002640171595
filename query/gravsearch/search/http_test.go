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
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dasch-swiss/gravsearch/query/gravsearch"
	"github.com/dasch-swiss/gravsearch/query/gravsearch/search/searchtest"
	"github.com/dasch-swiss/gravsearch/triplestore"
)

func TestSearchOverHTTP(t *testing.T) {
	st := searchtest.NewStore(12)
	srv := httptest.NewServer(st)
	defer srv.Close()

	cli, err := triplestore.New(triplestore.Config{URL: srv.URL, QueryPath: "/repositories/knora-test"})
	require.NoError(t, err)
	e := newEngine(t, cli, 5)
	ctx := context.Background()

	n, err := e.Count(ctx, fmt.Sprintf(searchtest.LabelQuery, 0))
	require.NoError(t, err)
	require.Equal(t, 12, n)

	res, err := e.Search(ctx, fmt.Sprintf(searchtest.LabelQuery, 2), nil, gravsearch.SchemaOptions{})
	require.NoError(t, err)
	require.Equal(t, st.Resources[10:], resourceIris([]*Result{res}))
	require.False(t, res.MayHaveMoreResults)
	for _, r := range res.Resources {
		require.Equal(t, "Test", r.Label)
	}

	res, err = e.Search(ctx, searchtest.TextQuery, nil, gravsearch.SchemaOptions{MarkupAsStandoff: true})
	require.NoError(t, err)
	require.Len(t, res.Resources, 5)
	require.True(t, res.MayHaveMoreResults)
	require.Contains(t, res.Mappings, searchtest.Mapping)
}

func TestSearchOverHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "repository knora-test not found", http.StatusNotFound)
	}))
	defer srv.Close()

	cli, err := triplestore.New(triplestore.Config{URL: srv.URL, QueryPath: "/repositories/knora-test"})
	require.NoError(t, err)
	e := newEngine(t, cli, 5)
	_, err = e.Search(context.Background(), fmt.Sprintf(searchtest.LabelQuery, 0), nil, gravsearch.SchemaOptions{})
	kind, _ := gravsearch.KindOf(err)
	require.Equal(t, gravsearch.TriplestoreCommunication, kind)

	var se *triplestore.Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusNotFound, se.StatusCode)
}
