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

package ontology

import (
	"context"

	"github.com/cayleygraph/quad"

	"github.com/dasch-swiss/gravsearch/query/sparql"
	"github.com/dasch-swiss/gravsearch/voc/knora"
)

// Constructor runs CONSTRUCT queries against a triplestore.
type Constructor interface {
	Construct(ctx context.Context, q string) ([]quad.Quad, error)
}

// DefinitionsQuery returns the CONSTRUCT query that reads the class and
// property definitions of all ontologies stored in the repository.
func DefinitionsQuery() *sparql.ConstructQuery {
	s, p, o := sparql.Var("entity"), sparql.Var("pred"), sparql.Var("obj")
	typeBlock := func(t quad.IRI) []sparql.QueryPattern {
		return []sparql.QueryPattern{sparql.Statement(s, sparql.Iri(knora.RDFType), sparql.Iri(t))}
	}
	preds := []sparql.Expression{
		sparql.Iri(knora.RDFType),
		sparql.Iri(knora.RDFSLabel),
		sparql.Iri(knora.RDFSSubClassOf),
		sparql.Iri(knora.RDFSSubPropertyOf),
		sparql.Iri(knora.ObjectClassConstraint),
		sparql.Iri(knora.ObjectDatatypeConstraint),
		sparql.Iri(knora.SubjectClassConstraint),
	}
	return &sparql.ConstructQuery{
		ConstructClause: []sparql.StatementPattern{sparql.Statement(s, p, o)},
		WhereClause: sparql.WhereClause{Patterns: []sparql.QueryPattern{
			sparql.UnionPattern{Blocks: [][]sparql.QueryPattern{
				typeBlock(owlClass),
				typeBlock(owlObjectProperty),
				typeBlock(owlDatatypeProperty),
				typeBlock(owlAnnotationProperty),
			}},
			sparql.Statement(s, p, o),
			sparql.FilterPattern{Expr: sparql.InExpression{Expr: p, Values: preds}},
		}},
	}
}

// FetchFromStore adds the ontology definitions held by a triplestore to b.
func FetchFromStore(ctx context.Context, c Constructor, b *Builder) (int, error) {
	quads, err := c.Construct(ctx, DefinitionsQuery().String())
	if err != nil {
		return 0, err
	}
	for _, q := range quads {
		b.Add(q)
	}
	return len(quads), nil
}
