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

package dialect_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dasch-swiss/gravsearch/ontology/ontologytest"
	"github.com/dasch-swiss/gravsearch/query/gravsearch"
	"github.com/dasch-swiss/gravsearch/query/gravsearch/dialect"
	_ "github.com/dasch-swiss/gravsearch/query/gravsearch/dialect/all"
	"github.com/dasch-swiss/gravsearch/query/sparql"
	"github.com/dasch-swiss/gravsearch/voc/knora"
)

var (
	thing   = sparql.Var("thing")
	other   = sparql.Var("other")
	deleted = sparql.StatementPattern{
		Subj: thing, Pred: sparql.Iri(knora.IsDeleted), Obj: sparql.BoolLiteral(false), NamedGraph: knora.ExplicitGraph,
	}
)

func newDialect(t *testing.T, name string) *dialect.Dialect {
	d, err := dialect.New(name, ontologytest.Anything())
	require.NoError(t, err)
	return d
}

func TestLookup(t *testing.T) {
	require.Equal(t, []string{"fuseki", "graphdb"}, dialect.Names())
	_, err := dialect.New("virtuoso", ontologytest.Anything())
	kind, ok := gravsearch.KindOf(err)
	require.True(t, ok)
	require.Equal(t, gravsearch.DialectUnsupported, kind)

	require.Equal(t, "/repositories/knora-test", newDialect(t, "graphdb").QueryPath("knora-test"))
	require.Equal(t, "/knora-test/query", newDialect(t, "fuseki").QueryPath("knora-test"))
}

func TestGraphDBSelect(t *testing.T) {
	d := newDialect(t, "graphdb")
	q := &sparql.SelectQuery{
		Variables: []sparql.Projection{{Var: thing}},
		WhereClause: sparql.WhereClause{Patterns: []sparql.QueryPattern{
			sparql.Statement(thing, sparql.Iri(knora.RDFType), sparql.Iri(knora.Resource)),
			deleted,
			sparql.OptionalPattern{Patterns: []sparql.QueryPattern{
				sparql.Statement(thing, sparql.Var("p"), other),
			}},
		}},
	}
	got := d.Select(q)
	require.Equal(t, []sparql.QueryPattern{
		sparql.Statement(thing, sparql.Iri(knora.RDFType), sparql.Iri(knora.Resource)),
		sparql.StatementPattern{Subj: thing, Pred: sparql.Iri(knora.IsDeleted), Obj: sparql.BoolLiteral(false), NamedGraph: knora.OntotextExplicitGraph},
		sparql.OptionalPattern{Patterns: []sparql.QueryPattern{
			sparql.StatementPattern{Subj: thing, Pred: sparql.Var("p"), Obj: other, NamedGraph: knora.OntotextExplicitGraph},
		}},
	}, got.WhereClause.Patterns)
	// the input is left alone
	require.Equal(t, knora.ExplicitGraph, q.WhereClause.Patterns[1].(sparql.StatementPattern).NamedGraph)
}

func TestGraphDBConstruct(t *testing.T) {
	d := newDialect(t, "graphdb")
	q := &sparql.ConstructQuery{
		ConstructClause: []sparql.StatementPattern{sparql.Statement(thing, sparql.Var("p"), other)},
		WhereClause: sparql.WhereClause{Patterns: []sparql.QueryPattern{
			deleted,
			sparql.Statement(thing, sparql.Var("p"), other),
		}},
	}
	got := d.Construct(q, false)
	require.Equal(t, knora.OntotextExplicitGraph, got.FromGraph)
	require.Equal(t, []sparql.QueryPattern{
		sparql.Statement(thing, sparql.Iri(knora.IsDeleted), sparql.BoolLiteral(false)),
		sparql.Statement(thing, sparql.Var("p"), other),
	}, got.WhereClause.Patterns)
}

func TestFusekiExpandsHierarchies(t *testing.T) {
	d := newDialect(t, "fuseki")
	q := &sparql.SelectQuery{
		Variables: []sparql.Projection{{Var: thing}},
		WhereClause: sparql.WhereClause{Patterns: []sparql.QueryPattern{
			sparql.Statement(thing, sparql.Iri(knora.RDFType), sparql.Iri(knora.Resource)),
			deleted,
			sparql.Statement(thing, sparql.Iri(ontologytest.HasOtherThing), other),
			sparql.Statement(thing, sparql.Iri(ontologytest.HasBlueThing), other),
		}},
	}
	got := d.Select(q)
	star := func(iri sparql.IriRef) sparql.IriRef {
		iri.PropertyPathOperator = "*"
		return iri
	}
	require.Equal(t, []sparql.QueryPattern{
		sparql.Statement(thing, sparql.Iri(knora.RDFType), sparql.Var("subClass__1")),
		sparql.Statement(sparql.Var("subClass__1"), star(sparql.Iri(knora.RDFSSubClassOf)), sparql.Iri(knora.Resource)),
		sparql.Statement(thing, sparql.Iri(knora.IsDeleted), sparql.BoolLiteral(false)),
		sparql.Statement(thing, sparql.Var("subProperty__2"), other),
		sparql.Statement(sparql.Var("subProperty__2"), star(sparql.Iri(knora.RDFSSubPropertyOf)), sparql.Iri(ontologytest.HasOtherThing)),
		sparql.Statement(thing, sparql.Iri(ontologytest.HasBlueThing), other),
	}, got.WhereClause.Patterns)

	_, err := sparql.Parse(got.String())
	require.NoError(t, err)
}

func TestFusekiConstruct(t *testing.T) {
	d := newDialect(t, "fuseki")
	q := &sparql.ConstructQuery{
		ConstructClause: []sparql.StatementPattern{sparql.Statement(thing, sparql.Iri(knora.RDFType), sparql.Var("t"))},
		WhereClause: sparql.WhereClause{Patterns: []sparql.QueryPattern{
			deleted,
			sparql.Statement(thing, sparql.Iri(knora.RDFType), sparql.Var("t")),
		}},
	}
	got := d.Construct(q, false)
	require.Empty(t, got.FromGraph)
	require.Equal(t, []sparql.QueryPattern{
		sparql.Statement(thing, sparql.Iri(knora.IsDeleted), sparql.BoolLiteral(false)),
		sparql.Statement(thing, sparql.Iri(knora.RDFType), sparql.Var("t")),
	}, got.WhereClause.Patterns)
}
