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

package prequery

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/dasch-swiss/gravsearch/ontology/ontologytest"
	"github.com/dasch-swiss/gravsearch/query/gravsearch"
	"github.com/dasch-swiss/gravsearch/query/gravsearch/typeinspect"
	"github.com/dasch-swiss/gravsearch/query/sparql"
	"github.com/dasch-swiss/gravsearch/voc/knora"
)

const (
	simplePrefixes = `
PREFIX knora-api: <http://api.knora.org/ontology/knora-api/simple/v2#>
PREFIX anything: <http://0.0.0.0:3333/ontology/0001/anything/simple/v2#>
`
	complexPrefixes = `
PREFIX knora-api: <http://api.knora.org/ontology/knora-api/v2#>
PREFIX anything: <http://0.0.0.0:3333/ontology/0001/anything/v2#>
`
)

const labelQuery = simplePrefixes + `
CONSTRUCT { ?r knora-api:isMainResource true . }
WHERE {
	?r a knora-api:Resource .
	?r knora-api:hasLabel ?label .
	FILTER(?label = "Test")
}`

func transform(t testing.TB, q string, opts Options) (*Prequery, error) {
	t.Helper()
	parsed, err := gravsearch.Parse(q)
	require.NoError(t, err, q)
	in, err := gravsearch.ToInternal(parsed, ontologytest.Converter())
	require.NoError(t, err, q)
	_, err = gravsearch.Validate(in)
	require.NoError(t, err, q)
	types, where, err := typeinspect.New(ontologytest.Anything()).Inspect(in.WhereClause)
	require.NoError(t, err, q)
	in.WhereClause = where
	opts.Schema = in.QuerySchema
	if opts.PageSize == 0 {
		opts.PageSize = 25
	}
	return Transform(in, types, ontologytest.Anything(), opts)
}

func mustTransform(t testing.TB, q string, opts Options) *Prequery {
	t.Helper()
	pq, err := transform(t, q, opts)
	require.NoError(t, err)
	return pq
}

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestLabelGolden(t *testing.T) {
	pq := mustTransform(t, labelQuery, Options{})
	require.Equal(t, sparql.Var("r"), pq.MainVar)
	require.Empty(t, pq.DependentVars)
	require.Empty(t, pq.ValueVars)
	golden(t).Assert(t, "label", []byte(pq.Query.String()))
}

func TestCountGolden(t *testing.T) {
	pq := mustTransform(t, labelQuery+"\nORDER BY ?label", Options{Count: true})
	require.Nil(t, pq.Query.OrderBy)
	require.Nil(t, pq.Query.GroupBy)
	require.Zero(t, pq.Query.Limit)
	golden(t).Assert(t, "count", []byte(pq.Query.String()))
}

func TestCountWithOffset(t *testing.T) {
	_, err := transform(t, labelQuery+"\nOFFSET 1", Options{Count: true})
	kind, ok := gravsearch.KindOf(err)
	require.True(t, ok, "%v", err)
	require.Equal(t, gravsearch.QuerySyntax, kind)
}

func TestLinkAndOrder(t *testing.T) {
	pq := mustTransform(t, complexPrefixes+`
CONSTRUCT {
	?thing knora-api:isMainResource true .
	?thing anything:hasOtherThing ?other .
	?thing anything:hasInteger ?int .
}
WHERE {
	?thing a anything:Thing .
	?thing anything:hasOtherThing ?other .
	?thing anything:hasInteger ?int .
	?int knora-api:intValueAsInt ?intVal .
	FILTER(?intVal > 3)
}
ORDER BY DESC(?int)
OFFSET 1`, Options{})

	require.Equal(t, []sparql.Variable{sparql.Var("other")}, pq.DependentVars)
	require.Equal(t, []sparql.Variable{sparql.Var("other__LinkValue"), sparql.Var("int")}, pq.ValueVars)

	text := pq.Query.String()
	for _, s := range []string{
		"?thing <http://www.knora.org/ontology/0001/anything#hasOtherThingValue> ?other__LinkValue .",
		"?other__LinkValue <http://www.w3.org/1999/02/22-rdf-syntax-ns#object> ?other .",
		"GRAPH <http://www.knora.org/explicit> { ?other <http://www.knora.org/ontology/knora-base#hasPermissions> ?other__permissions . }",
		"?int <http://www.knora.org/ontology/knora-base#valueHasInteger> ?int__orderBy .",
		"?int <http://www.knora.org/ontology/knora-base#valueHasInteger> ?intVal .",
		`(GROUP_CONCAT(DISTINCT ?other; SEPARATOR="\u001F") AS ?other__Concat)`,
		"(MAX(?int__orderBy) AS ?int__orderByValue)",
		"GROUP BY ?thing ?thing__creator ?thing__project ?thing__permissions\n",
		"ORDER BY DESC(?int__orderByValue) ASC(?thing)\n",
		"OFFSET 25\nLIMIT 25\n",
	} {
		require.Contains(t, text, s)
	}
	// the metadata of the main resource is retrieved once
	require.Equal(t, 1, strings.Count(text, "?thing <http://www.knora.org/ontology/knora-base#attachedToUser>"))
	_, err := sparql.Parse(text)
	require.NoError(t, err)
}

func TestSimpleValueIndirection(t *testing.T) {
	pq := mustTransform(t, simplePrefixes+`
CONSTRUCT { ?thing knora-api:isMainResource true . ?thing anything:hasInteger ?int . }
WHERE {
	?thing a knora-api:Resource .
	?thing anything:hasInteger ?int .
	FILTER(?int > 3)
}
ORDER BY ?int`, Options{})

	require.Equal(t, []sparql.Variable{sparql.Var("int__valueObject")}, pq.ValueVars)
	text := pq.Query.String()
	for _, s := range []string{
		"?thing <http://www.knora.org/ontology/0001/anything#hasInteger> ?int__valueObject .",
		"GRAPH <http://www.knora.org/explicit> { ?int__valueObject <http://www.knora.org/ontology/knora-base#isDeleted> " +
			`"false"^^<http://www.w3.org/2001/XMLSchema#boolean> . }`,
		"?int__valueObject <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.knora.org/ontology/knora-base#IntValue> .",
		"?int__valueObject <http://www.knora.org/ontology/knora-base#valueHasInteger> ?int .",
		"(MIN(?int) AS ?int__orderByValue)",
		"ORDER BY ASC(?int__orderByValue) ASC(?thing)\n",
	} {
		require.Contains(t, text, s)
	}
	require.NotContains(t, text, "anything#hasInteger> ?int .")
}

func TestSimpleTextValueIndirection(t *testing.T) {
	pq := mustTransform(t, simplePrefixes+`
CONSTRUCT { ?thing knora-api:isMainResource true . ?thing anything:hasText ?text . }
WHERE {
	?thing a knora-api:Resource .
	?thing anything:hasText ?text .
}`, Options{})

	var got []sparql.StatementPattern
	for _, p := range pq.Query.WhereClause.Patterns {
		if st, ok := p.(sparql.StatementPattern); ok && (st.Subj == sparql.Var("thing") || st.Subj == sparql.Var("text__valueObject")) {
			got = append(got, st)
		}
	}
	vo := sparql.Var("text__valueObject")
	require.Contains(t, got, sparql.Statement(sparql.Var("thing"), sparql.Iri(ontologytest.HasText), vo))
	require.Contains(t, got, sparql.Statement(vo, sparql.Iri(knora.RDFType), sparql.Iri(knora.TextValue)))
	require.Contains(t, got, sparql.Statement(vo, sparql.Iri(knora.ValueHasString), sparql.Var("text")))
}

func TestDateFilter(t *testing.T) {
	const query = simplePrefixes + `
CONSTRUCT { ?thing knora-api:isMainResource true . ?thing anything:hasDate ?date . }
WHERE {
	?thing a knora-api:Resource .
	?thing anything:hasDate ?date .
	FILTER(?date %s "GREGORIAN:2017"^^knora-api:Date)
}`
	const (
		start = `"2457755"^^<http://www.w3.org/2001/XMLSchema#integer>`
		end   = `"2458119"^^<http://www.w3.org/2001/XMLSchema#integer>`
	)
	for _, c := range []struct {
		op     string
		filter string
	}{
		{"=", "FILTER((?date__startJDN <= " + end + " && ?date__endJDN >= " + start + "))"},
		{"!=", "FILTER((?date__startJDN > " + end + " || ?date__endJDN < " + start + "))"},
		{"<", "FILTER(?date__startJDN < " + start + ")"},
		{"<=", "FILTER(?date__startJDN <= " + end + ")"},
		{">", "FILTER(?date__endJDN > " + end + ")"},
		{">=", "FILTER(?date__endJDN >= " + start + ")"},
	} {
		t.Run(c.op, func(t *testing.T) {
			pq := mustTransform(t, strings.Replace(query, "%s", c.op, 1), Options{})
			text := pq.Query.String()
			require.Contains(t, text, "?date__valueObject <http://www.knora.org/ontology/knora-base#valueHasStartJDN> ?date__startJDN .")
			require.Contains(t, text, "?date__valueObject <http://www.knora.org/ontology/knora-base#valueHasEndJDN> ?date__endJDN .")
			require.Contains(t, text, c.filter)
		})
	}
}

func TestMatch(t *testing.T) {
	pq := mustTransform(t, complexPrefixes+`
CONSTRUCT { ?thing knora-api:isMainResource true . ?thing anything:hasText ?text . }
WHERE {
	?thing a anything:Thing .
	?thing anything:hasText ?text .
	FILTER(knora-api:match(?text, "Zeit"))
}`, Options{})
	text := pq.Query.String()
	require.Contains(t, text, "?text <http://www.knora.org/ontology/knora-base#valueHasString> ?text__valueHasString .")
	require.Contains(t, text, `FILTER(CONTAINS(LCASE(STR(?text__valueHasString)), LCASE("Zeit")))`)
}

func TestNegatedGroupsProjectNothing(t *testing.T) {
	pq := mustTransform(t, complexPrefixes+`
CONSTRUCT { ?thing knora-api:isMainResource true . }
WHERE {
	?thing a anything:Thing .
	MINUS { ?thing anything:hasOtherThing ?other . }
}`, Options{})
	require.Empty(t, pq.DependentVars)
	require.Empty(t, pq.ValueVars)
	text := pq.Query.String()
	require.Contains(t, text, "MINUS {")
	require.NotContains(t, text, "__LinkValue")
	require.NotContains(t, text, "?other__permissions")
}

func TestOptionalScopes(t *testing.T) {
	pq := mustTransform(t, complexPrefixes+`
CONSTRUCT { ?thing knora-api:isMainResource true . }
WHERE {
	?thing a anything:Thing .
	OPTIONAL { ?thing anything:hasOtherThing ?other . }
	OPTIONAL { ?thing anything:hasBlueThing ?other . }
}`, Options{})
	require.Equal(t, []sparql.Variable{sparql.Var("other")}, pq.DependentVars)
	// each optional group retrieves the metadata of ?other on its own
	require.Equal(t, 2, strings.Count(pq.Query.String(), "{ ?other <http://www.knora.org/ontology/knora-base#attachedToUser> ?other__creator . }"))
}
