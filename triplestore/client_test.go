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
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cayleygraph/quad"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/dasch-swiss/gravsearch/query/sparql"
)

const selectJSON = `{
  "head": {"vars": ["main", "main__Concat"]},
  "results": {"bindings": [
    {"main": {"type": "uri", "value": "http://rdfh.ch/0001/a"},
     "main__Concat": {"type": "literal", "value": "x\u001Fy"}},
    {"main": {"type": "uri", "value": "http://rdfh.ch/0001/b"},
     "n": {"type": "literal", "datatype": "http://www.w3.org/2001/XMLSchema#integer", "value": "2"}}
  ]}
}`

func newStore(t *testing.T, h http.HandlerFunc) *Client {
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{URL: srv.URL + "/", QueryPath: "/repositories/test", Username: "admin", Password: "secret"})
	require.NoError(t, err)
	return c
}

func TestSelect(t *testing.T) {
	c := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/repositories/test" {
			http.NotFound(w, r)
			return
		}
		if user, pass, ok := r.BasicAuth(); !ok || user != "admin" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("Accept") != selectAccept || r.FormValue("query") != "SELECT * WHERE { ?s ?p ?o . }" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", selectAccept)
		fmt.Fprint(w, selectJSON)
	})
	res, err := c.Select(context.Background(), "SELECT * WHERE { ?s ?p ?o . }")
	require.NoError(t, err)
	require.Equal(t, &sparql.SelectResults{
		Vars: []string{"main", "main__Concat"},
		Rows: []sparql.VariableResultsRow{
			{"main": "http://rdfh.ch/0001/a", "main__Concat": "x\u001Fy"},
			{"main": "http://rdfh.ch/0001/b", "n": "2"},
		},
	}, res)
}

func TestConstruct(t *testing.T) {
	var accept string
	c := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		accept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", constructAccept)
		fmt.Fprint(w, `<http://rdfh.ch/0001/a> <http://www.w3.org/2000/01/rdf-schema#label> "A" .
<http://rdfh.ch/0001/a> <http://www.knora.org/ontology/knora-base#isMainResource> "true"^^<http://www.w3.org/2001/XMLSchema#boolean> .
`)
	})
	quads, err := c.Construct(context.Background(), "CONSTRUCT { ?s ?p ?o . } WHERE { ?s ?p ?o . }")
	require.NoError(t, err)
	require.Equal(t, constructAccept, accept)
	require.Len(t, quads, 2)
	for _, q := range quads {
		require.Equal(t, quad.IRI("http://rdfh.ch/0001/a"), q.Subject)
	}
	require.Equal(t, quad.IRI("http://www.w3.org/2000/01/rdf-schema#label"), quads[0].Predicate)
	require.Equal(t, "A", sparql.LexicalForm(quads[0].Object))
	require.Equal(t, "true", sparql.LexicalForm(quads[1].Object))
}

func TestStatusError(t *testing.T) {
	c := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "MALFORMED QUERY: unexpected token", http.StatusBadRequest)
	})
	before := testutil.ToFloat64(mErrors.WithLabelValues(OpSelect))
	_, err := c.Select(context.Background(), "SELECT")
	var e *Error
	require.True(t, errors.As(err, &e), "%v", err)
	require.Equal(t, OpSelect, e.Op)
	require.Equal(t, http.StatusBadRequest, e.StatusCode)
	require.Equal(t, "MALFORMED QUERY: unexpected token", e.Body)
	require.Equal(t, before+1, testutil.ToFloat64(mErrors.WithLabelValues(OpSelect)))
}

func TestBadResponse(t *testing.T) {
	c := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"head": {"vars": ["x"]}, "results": {"bindings": [{"x": {"type": "nonsense", "value": "1"}}]}}`)
	})
	_, err := c.Select(context.Background(), "SELECT ?x WHERE { ?x ?p ?o . }")
	var e *Error
	require.True(t, errors.As(err, &e))
	require.Zero(t, e.StatusCode)
	require.Error(t, e.Err)
}

func TestCancel(t *testing.T) {
	c := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Construct(ctx, "CONSTRUCT { ?s ?p ?o . } WHERE { ?s ?p ?o . }")
	require.True(t, errors.Is(err, context.Canceled), "%v", err)
}
