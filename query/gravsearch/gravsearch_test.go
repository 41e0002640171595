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

package gravsearch_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dasch-swiss/gravsearch/ontology/ontologytest"
	"github.com/dasch-swiss/gravsearch/query/gravsearch"
	"github.com/dasch-swiss/gravsearch/query/sparql"
	"github.com/dasch-swiss/gravsearch/voc/knora"
)

const complexQuery = `
PREFIX knora-api: <http://api.knora.org/ontology/knora-api/v2#>
PREFIX anything: <http://0.0.0.0:3333/ontology/0001/anything/v2#>
CONSTRUCT {
	?thing knora-api:isMainResource true .
	?thing anything:hasInteger ?int .
} WHERE {
	?thing a anything:Thing .
	?thing anything:hasInteger ?int .
	?int knora-api:intValueAsInt ?intVal .
	FILTER(?intVal > 3 && knora-api:match(?label, "x"))
	?thing knora-api:hasLabel ?label .
}
ORDER BY ?int
OFFSET 1
`

func TestToInternal(t *testing.T) {
	q, err := gravsearch.Parse(complexQuery)
	require.NoError(t, err)
	in, err := gravsearch.ToInternal(q, ontologytest.Converter())
	require.NoError(t, err)
	require.Equal(t, sparql.ApiV2Complex, in.QuerySchema)
	require.Equal(t, int64(1), in.Offset)

	require.Equal(t, []sparql.StatementPattern{
		sparql.Statement(sparql.Var("thing"), sparql.Iri(knora.IsMainResource), sparql.BoolLiteral(true)),
		sparql.Statement(sparql.Var("thing"), sparql.Iri(ontologytest.HasInteger), sparql.Var("int")),
	}, in.ConstructClause)

	require.Equal(t, []sparql.QueryPattern{
		sparql.Statement(sparql.Var("thing"), sparql.Iri(knora.RDFType), sparql.Iri(ontologytest.Thing)),
		sparql.Statement(sparql.Var("thing"), sparql.Iri(ontologytest.HasInteger), sparql.Var("int")),
		sparql.Statement(sparql.Var("int"), sparql.Iri(knora.ValueHasInteger), sparql.Var("intVal")),
		sparql.FilterPattern{Expr: sparql.AndExpression{
			Left: sparql.CompareExpression{Left: sparql.Var("intVal"), Operator: sparql.GreaterThan, Right: sparql.IntLiteral(3)},
			Right: sparql.FunctionCallExpression{Iri: knora.MatchFunction, Args: []sparql.Expression{
				sparql.Var("label"), sparql.StringLiteral("x"),
			}},
		}},
		sparql.Statement(sparql.Var("thing"), sparql.Iri(knora.RDFSLabel), sparql.Var("label")),
	}, in.WhereClause.Patterns)

	main, err := gravsearch.Validate(in)
	require.NoError(t, err)
	require.Equal(t, sparql.Var("thing"), main)
}

func TestDetectSchema(t *testing.T) {
	conv := ontologytest.Converter()
	simple, err := gravsearch.Parse(`
PREFIX knora-api: <http://api.knora.org/ontology/knora-api/simple/v2#>
CONSTRUCT { ?r knora-api:isMainResource true . } WHERE { ?r a knora-api:Resource . }`)
	require.NoError(t, err)
	s, err := gravsearch.DetectSchema(simple, conv)
	require.NoError(t, err)
	require.Equal(t, sparql.ApiV2Simple, s)

	mixed, err := gravsearch.Parse(`
CONSTRUCT { ?r <http://api.knora.org/ontology/knora-api/v2#isMainResource> true . }
WHERE { ?r a <http://api.knora.org/ontology/knora-api/simple/v2#Resource> . }`)
	require.NoError(t, err)
	_, err = gravsearch.DetectSchema(mixed, conv)
	kind, ok := gravsearch.KindOf(err)
	require.True(t, ok)
	require.Equal(t, gravsearch.QuerySyntax, kind)
}

func TestValidate(t *testing.T) {
	conv := ontologytest.Converter()
	for _, c := range []string{
		`CONSTRUCT { ?r <http://api.knora.org/ontology/knora-api/v2#hasLabel> ?l . } WHERE { ?r <http://api.knora.org/ontology/knora-api/v2#hasLabel> ?l . }`,
		`CONSTRUCT { ?r <http://api.knora.org/ontology/knora-api/v2#isMainResource> true . ?r <http://api.knora.org/ontology/knora-api/v2#hasLabel> ?x . } WHERE { ?r <http://api.knora.org/ontology/knora-api/v2#hasLabel> ?l . }`,
		`CONSTRUCT { ?r <http://api.knora.org/ontology/knora-api/v2#isMainResource> true . ?s <http://api.knora.org/ontology/knora-api/v2#isMainResource> true . } WHERE { ?r ?p ?s . }`,
		`CONSTRUCT { <http://rdfh.ch/r> <http://api.knora.org/ontology/knora-api/v2#isMainResource> true . } WHERE { <http://rdfh.ch/r> ?p ?o . }`,
		`CONSTRUCT { ?r <http://api.knora.org/ontology/knora-api/v2#isMainResource> true . } WHERE { ?r ?p ?o . } ORDER BY ?z`,
		`CONSTRUCT { ?r <http://api.knora.org/ontology/knora-api/v2#isMainResource> true . } WHERE { MINUS { ?r ?p ?o . } }`,
	} {
		q, err := gravsearch.Parse(c)
		require.NoError(t, err, c)
		in, err := gravsearch.ToInternal(q, conv)
		require.NoError(t, err, c)
		_, err = gravsearch.Validate(in)
		kind, _ := gravsearch.KindOf(err)
		require.Equal(t, gravsearch.QuerySyntax, kind, c)
	}
}

func TestParseErrors(t *testing.T) {
	_, err := gravsearch.Parse("CONSTRUCT { ?s ?p ?o } WHERE {")
	require.True(t, gravsearch.IsIncomplete(err))
	kind, _ := gravsearch.KindOf(err)
	require.Equal(t, gravsearch.QuerySyntax, kind)

	_, err = gravsearch.Parse("SELECT ?s WHERE { ?s ?p ?o }")
	require.Error(t, err)
	require.False(t, gravsearch.IsIncomplete(err))
}

func TestErrorWrapping(t *testing.T) {
	base := errors.New("connection refused")
	err := gravsearch.Wrap(gravsearch.TriplestoreCommunication, base, "prequery")
	require.True(t, errors.Is(err, base))
	require.Equal(t, "triplestore communication error: prequery: connection refused", err.Error())

	// an existing kind is kept
	inner := gravsearch.Errorf(gravsearch.TypeInference, "ambiguous ?x")
	err = gravsearch.Wrap(gravsearch.QuerySyntax, fmt.Errorf("inspect: %w", inner), "")
	kind, ok := gravsearch.KindOf(err)
	require.True(t, ok)
	require.Equal(t, gravsearch.TypeInference, kind)

	require.NoError(t, gravsearch.Wrap(gravsearch.QuerySyntax, nil, "x"))
	_, ok = gravsearch.KindOf(base)
	require.False(t, ok)
}
