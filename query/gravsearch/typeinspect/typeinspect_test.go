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

package typeinspect

import (
	"testing"

	"github.com/cayleygraph/quad"
	"github.com/stretchr/testify/require"

	"github.com/dasch-swiss/gravsearch/ontology/ontologytest"
	"github.com/dasch-swiss/gravsearch/query/gravsearch"
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

func inspect(t testing.TB, q string) (*gravsearch.TypeInspectionResult, sparql.WhereClause, error) {
	parsed, err := gravsearch.Parse(q)
	require.NoError(t, err, q)
	in, err := gravsearch.ToInternal(parsed, ontologytest.Converter())
	require.NoError(t, err, q)
	return New(ontologytest.Anything()).Inspect(in.WhereClause)
}

func v(name string) gravsearch.TypeableEntity  { return gravsearch.TypeableVariable{Name: name} }
func iri(i quad.IRI) gravsearch.TypeableEntity { return gravsearch.TypeableIri{Iri: i} }

func np(t quad.IRI) gravsearch.TypeInfo   { return gravsearch.NonPropertyTypeInfo{Type: t} }
func prop(t quad.IRI) gravsearch.TypeInfo { return gravsearch.PropertyTypeInfo{ObjectType: t} }

var inspectTests = []struct {
	name     string
	query    string
	expect   map[gravsearch.TypeableEntity]gravsearch.TypeInfo
	patterns int // patterns left after removing annotations
}{
	{
		name: "label filter",
		query: simplePrefixes + `
CONSTRUCT { ?r knora-api:isMainResource true . ?r knora-api:hasLabel ?label . }
WHERE { ?r a knora-api:Resource . ?r knora-api:hasLabel ?label . FILTER(?label = "Test") }`,
		expect: map[gravsearch.TypeableEntity]gravsearch.TypeInfo{
			v("r"):               np(knora.Resource),
			v("label"):           np(knora.XSDString),
			iri(knora.RDFSLabel): prop(knora.XSDString),
		},
		patterns: 2,
	},
	{
		name: "value object",
		query: complexPrefixes + `
CONSTRUCT { ?thing knora-api:isMainResource true . ?thing anything:hasInteger ?int . }
WHERE {
	?thing a anything:Thing .
	?thing anything:hasInteger ?int .
	?int knora-api:intValueAsInt ?intVal .
	FILTER(?intVal > 3)
}`,
		expect: map[gravsearch.TypeableEntity]gravsearch.TypeInfo{
			v("thing"):                   np(knora.Resource),
			v("int"):                     np(knora.IntValue),
			v("intVal"):                  np(knora.XSDInteger),
			iri(ontologytest.HasInteger): prop(knora.IntValue),
			iri(knora.ValueHasInteger):   prop(knora.XSDInteger),
		},
		patterns: 4,
	},
	{
		name: "simple literal types",
		query: simplePrefixes + `
CONSTRUCT { ?thing knora-api:isMainResource true . ?thing anything:hasText ?text . }
WHERE {
	?thing a knora-api:Resource .
	?thing anything:hasText ?text .
	?text a xsd:string .
	?thing anything:hasDate ?date .
	FILTER(knora-api:match(?text, "Zeitglöcklein") && ?date > "GREGORIAN:2017-01-01"^^knora-api:Date)
}`,
		expect: map[gravsearch.TypeableEntity]gravsearch.TypeInfo{
			v("thing"):                np(knora.Resource),
			v("text"):                 np(knora.TextValue),
			v("date"):                 np(knora.DateValue),
			iri(ontologytest.HasText): prop(knora.TextValue),
			iri(ontologytest.HasDate): prop(knora.DateValue),
		},
		patterns: 3,
	},
	{
		name: "link",
		query: complexPrefixes + `
CONSTRUCT { ?thing knora-api:isMainResource true . ?thing anything:hasOtherThing ?other . }
WHERE {
	?thing a knora-api:Resource .
	?thing anything:hasOtherThing ?other .
	FILTER(?other = <http://rdfh.ch/0001/a-thing>)
}`,
		expect: map[gravsearch.TypeableEntity]gravsearch.TypeInfo{
			v("thing"):                         np(knora.Resource),
			v("other"):                         np(knora.Resource),
			iri("http://rdfh.ch/0001/a-thing"): np(knora.Resource),
			iri(ontologytest.HasOtherThing):    prop(knora.Resource),
		},
		patterns: 2,
	},
	{
		name: "property variable",
		query: complexPrefixes + `
CONSTRUCT { ?thing knora-api:isMainResource true . ?thing ?p ?text . }
WHERE {
	?thing ?p ?text .
	?p knora-api:objectType knora-api:TextValue .
}`,
		expect: map[gravsearch.TypeableEntity]gravsearch.TypeInfo{
			v("thing"): np(knora.Resource),
			v("p"):     prop(knora.TextValue),
			v("text"):  np(knora.TextValue),
		},
		patterns: 1,
	},
	{
		name: "iri comparison default",
		query: complexPrefixes + `
CONSTRUCT { ?thing knora-api:isMainResource true . }
WHERE {
	?thing a knora-api:Resource .
	?thing ?linkProp ?target .
	FILTER(?target = <http://rdfh.ch/0001/a-thing>)
}`,
		expect: map[gravsearch.TypeableEntity]gravsearch.TypeInfo{
			v("thing"):                         np(knora.Resource),
			v("linkProp"):                      prop(knora.Resource),
			v("target"):                        np(knora.Resource),
			iri("http://rdfh.ch/0001/a-thing"): np(knora.Resource),
		},
		patterns: 2,
	},
	{
		name: "negated patterns need no types",
		query: complexPrefixes + `
CONSTRUCT { ?thing knora-api:isMainResource true . }
WHERE {
	?thing a knora-api:Resource .
	MINUS { ?thing ?p ?x . }
}`,
		expect: map[gravsearch.TypeableEntity]gravsearch.TypeInfo{
			v("thing"): np(knora.Resource),
		},
		patterns: 1,
	},
}

func TestInspect(t *testing.T) {
	for _, c := range inspectTests {
		t.Run(c.name, func(t *testing.T) {
			res, where, err := inspect(t, c.query)
			require.NoError(t, err)
			require.Equal(t, c.expect, res.Entities)
			require.Len(t, where.Patterns, c.patterns)
		})
	}
}

func TestAnnotationsRemoved(t *testing.T) {
	_, where, err := inspect(t, complexPrefixes+`
CONSTRUCT { ?thing knora-api:isMainResource true . }
WHERE { ?thing a knora-api:Resource . ?thing a anything:BlueThing . }`)
	require.NoError(t, err)
	require.Equal(t, []sparql.QueryPattern{
		sparql.Statement(sparql.Var("thing"), sparql.Iri(knora.RDFType), sparql.Iri(ontologytest.BlueThing)),
	}, where.Patterns)
}

var inspectErrors = []struct {
	name  string
	query string
	kind  gravsearch.ErrorKind
}{
	{
		name: "value and literal",
		query: simplePrefixes + `
CONSTRUCT { ?thing knora-api:isMainResource true . }
WHERE { ?thing anything:hasInteger ?int . ?int a xsd:string . }`,
		kind: gravsearch.TypeInference,
	},
	{
		name: "resource and value",
		query: complexPrefixes + `
CONSTRUCT { ?thing knora-api:isMainResource true . }
WHERE { ?thing anything:hasInteger ?int . ?int a knora-api:Resource . }`,
		kind: gravsearch.TypeInference,
	},
	{
		name: "untyped",
		query: complexPrefixes + `
CONSTRUCT { ?a knora-api:isMainResource true . }
WHERE { ?a ?p ?b . }`,
		kind: gravsearch.TypeInference,
	},
	{
		name: "property and non-property",
		query: complexPrefixes + `
CONSTRUCT { ?a knora-api:isMainResource true . }
WHERE { ?a anything:hasText ?p . ?a ?p ?b . }`,
		kind: gravsearch.TypeInference,
	},
	{
		name: "unknown property",
		query: complexPrefixes + `
CONSTRUCT { ?a knora-api:isMainResource true . }
WHERE { ?a anything:hasNothing ?b . }`,
		kind: gravsearch.OntologyConstraint,
	},
	{
		name: "unknown class",
		query: complexPrefixes + `
CONSTRUCT { ?a knora-api:isMainResource true . }
WHERE { ?a a anything:Nothing . }`,
		kind: gravsearch.OntologyConstraint,
	},
}

func TestInspectErrors(t *testing.T) {
	for _, c := range inspectErrors {
		t.Run(c.name, func(t *testing.T) {
			_, _, err := inspect(t, c.query)
			require.Error(t, err)
			kind, ok := gravsearch.KindOf(err)
			require.True(t, ok, "%v", err)
			require.Equal(t, c.kind, kind, "%v", err)
		})
	}
}
