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

package mainquery

import (
	"testing"

	"github.com/cayleygraph/quad"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/dasch-swiss/gravsearch/ontology/ontologytest"
	"github.com/dasch-swiss/gravsearch/query/gravsearch"
	"github.com/dasch-swiss/gravsearch/query/sparql"
	"github.com/dasch-swiss/gravsearch/voc/knora"
)

const data = "http://rdfh.ch/0001/"

func TestMainOnlyGolden(t *testing.T) {
	q := Build(Input{MainResources: []quad.IRI{data + "a", data + "b"}})
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "main-only", []byte(q.String()))
}

func TestBuild(t *testing.T) {
	q := Build(Input{
		MainResources:      []quad.IRI{data + "a"},
		DependentResources: []quad.IRI{data + "b"},
		ValueObjects:       []quad.IRI{data + "a/values/1", data + "a/values/2"},
		Properties:         []quad.IRI{ontologytest.HasText, ontologytest.HasOtherThingValue},
		Standoff:           true,
	})
	require.Len(t, q.WhereClause.Patterns, 1)
	union, ok := q.WhereClause.Patterns[0].(sparql.UnionPattern)
	require.True(t, ok)
	require.Len(t, union.Blocks, 4)
	require.Equal(t, sparql.ValuesPattern{Var: resource, Values: []sparql.Entity{sparql.Iri(data + "b")}}, union.Blocks[1][0])
	require.Contains(t, union.Blocks[2], sparql.FilterPattern{Expr: sparql.InExpression{
		Expr:   valueProp,
		Values: []sparql.Expression{sparql.Iri(ontologytest.HasText), sparql.Iri(ontologytest.HasOtherThingValue)},
	}})
	require.Contains(t, q.ConstructClause, sparql.Statement(valueObj, hasStandoff, standoffTag))
	require.Contains(t, q.ConstructClause, sparql.Statement(standoffTag, standoffPred, standoffObj))
	require.Len(t, q.ConstructClause, 7)
	require.Contains(t, union.Blocks[0], sparql.FilterPattern{Expr: oneOf(mainPred, resourceMetadata)})
	require.Contains(t, resourceMetadata, knora.IsDeleted)

	// no pagination and no traversal of value literals
	require.Zero(t, q.Offset)
	require.Empty(t, q.OrderBy)
	require.NotContains(t, q.String(), knora.ValueHasString.String())

	parsed, err := sparql.Parse(q.String())
	require.NoError(t, err)
	require.Equal(t, q, parsed)
}

func TestBuildWithoutRequestedValues(t *testing.T) {
	q := Build(Input{
		MainResources: []quad.IRI{data + "a"},
		ValueObjects:  []quad.IRI{data + "a/values/1"},
	})
	_, isUnion := q.WhereClause.Patterns[0].(sparql.UnionPattern)
	require.False(t, isUnion)
	require.Len(t, q.ConstructClause, 2)
}

func TestRequestedProperties(t *testing.T) {
	parsed, err := gravsearch.Parse(`
PREFIX knora-api: <http://api.knora.org/ontology/knora-api/v2#>
PREFIX anything: <http://0.0.0.0:3333/ontology/0001/anything/v2#>
CONSTRUCT {
	?thing knora-api:isMainResource true .
	?thing anything:hasOtherThing ?other .
	?thing anything:hasInteger ?int .
	?thing knora-api:hasLabel ?label .
} WHERE {
	?thing a anything:Thing .
	?thing anything:hasOtherThing ?other .
	?thing anything:hasInteger ?int .
	?thing knora-api:hasLabel ?label .
}`)
	require.NoError(t, err)
	q, err := gravsearch.ToInternal(parsed, ontologytest.Converter())
	require.NoError(t, err)
	props, all := RequestedProperties(q, ontologytest.Anything())
	require.False(t, all)
	require.Equal(t, []quad.IRI{ontologytest.HasInteger, ontologytest.HasOtherThingValue}, props)

	q.ConstructClause = append(q.ConstructClause, sparql.Statement(sparql.Var("thing"), sparql.Var("p"), sparql.Var("o")))
	_, all = RequestedProperties(q, ontologytest.Anything())
	require.True(t, all)
}
