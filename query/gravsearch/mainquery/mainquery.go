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

// Package mainquery generates the CONSTRUCT query that fetches the
// resources and values a prequery found.
package mainquery

import (
	"sort"

	"github.com/cayleygraph/quad"

	"github.com/dasch-swiss/gravsearch/ontology"
	"github.com/dasch-swiss/gravsearch/query/sparql"
	"github.com/dasch-swiss/gravsearch/voc/knora"
)

// Variables of the generated query.
var (
	MainResource  = sparql.Var("mainResource")
	mainPred      = sparql.Var("mainPred")
	mainObj       = sparql.Var("mainObj")
	resource      = sparql.Var("resource")
	resourcePred  = sparql.Var("resourcePred")
	resourceObj   = sparql.Var("resourceObj")
	valueOwner    = sparql.Var("valueOwner")
	valueProp     = sparql.Var("valueProp")
	valueObj      = sparql.Var("valueObject")
	valuePred     = sparql.Var("valueObjectPred")
	valueObjObj   = sparql.Var("valueObjectObj")
	standoffTag   = sparql.Var("standoffTag")
	standoffPred  = sparql.Var("standoffTagPred")
	standoffObj   = sparql.Var("standoffTagObj")
	hasStandoff   = sparql.Iri(knora.ValueHasStandoff)
	isMainTrue    = sparql.BoolLiteral(true)
	isDeletedPred = sparql.Iri(knora.IsDeleted)
)

// resourceMetadata are the statements fetched about every resource.
var resourceMetadata = []quad.IRI{
	knora.RDFType,
	knora.RDFSLabel,
	knora.AttachedToUser,
	knora.AttachedToProject,
	knora.HasPermissions,
	knora.IsDeleted,
	knora.CreationDate,
	knora.LastModificationDate,
}

// Input lists what the main query fetches.
type Input struct {
	MainResources      []quad.IRI
	DependentResources []quad.IRI
	ValueObjects       []quad.IRI
	// Properties are the value and link value properties whose values are
	// returned. If AllProperties is set, values of any property are returned.
	Properties    []quad.IRI
	AllProperties bool
	// Standoff fetches the standoff tags of text values.
	Standoff bool
}

// Build returns the main query. Results are not paginated: the prequery
// already selected one page of main resources.
func Build(in Input) *sparql.ConstructQuery {
	q := &sparql.ConstructQuery{
		ConstructClause: []sparql.StatementPattern{
			sparql.Statement(MainResource, sparql.Iri(knora.IsMainResource), isMainTrue),
			sparql.Statement(MainResource, mainPred, mainObj),
		},
	}
	blocks := [][]sparql.QueryPattern{{
		sparql.ValuesPattern{Var: MainResource, Values: iris(in.MainResources)},
		sparql.Statement(MainResource, mainPred, mainObj),
		sparql.FilterPattern{Expr: oneOf(mainPred, resourceMetadata)},
	}}
	if len(in.DependentResources) > 0 {
		q.ConstructClause = append(q.ConstructClause, sparql.Statement(resource, resourcePred, resourceObj))
		blocks = append(blocks, []sparql.QueryPattern{
			sparql.ValuesPattern{Var: resource, Values: iris(in.DependentResources)},
			sparql.Statement(resource, resourcePred, resourceObj),
			sparql.FilterPattern{Expr: oneOf(resourcePred, resourceMetadata)},
		})
	}
	if len(in.ValueObjects) > 0 && (in.AllProperties || len(in.Properties) > 0) {
		q.ConstructClause = append(q.ConstructClause,
			sparql.Statement(valueOwner, valueProp, valueObj),
			sparql.Statement(valueObj, valuePred, valueObjObj),
		)
		block := []sparql.QueryPattern{
			sparql.ValuesPattern{Var: valueObj, Values: iris(in.ValueObjects)},
			sparql.Statement(valueOwner, valueProp, valueObj),
		}
		if !in.AllProperties {
			block = append(block, sparql.FilterPattern{Expr: oneOf(valueProp, in.Properties)})
		}
		block = append(block,
			sparql.StatementPattern{Subj: valueObj, Pred: isDeletedPred, Obj: sparql.BoolLiteral(false), NamedGraph: knora.ExplicitGraph},
			sparql.Statement(valueObj, valuePred, valueObjObj),
			sparql.FilterPattern{Expr: sparql.CompareExpression{Left: valuePred, Operator: sparql.NotEquals, Right: hasStandoff}},
		)
		blocks = append(blocks, block)

		if in.Standoff {
			q.ConstructClause = append(q.ConstructClause,
				sparql.Statement(valueObj, hasStandoff, standoffTag),
				sparql.Statement(standoffTag, standoffPred, standoffObj),
			)
			blocks = append(blocks, []sparql.QueryPattern{
				sparql.ValuesPattern{Var: valueObj, Values: iris(in.ValueObjects)},
				sparql.Statement(valueObj, sparql.Iri(knora.RDFType), sparql.Iri(knora.TextValue)),
				sparql.Statement(valueObj, hasStandoff, standoffTag),
				sparql.Statement(standoffTag, standoffPred, standoffObj),
			})
		}
	}
	if len(blocks) == 1 {
		q.WhereClause.Patterns = blocks[0]
	} else {
		q.WhereClause.Patterns = []sparql.QueryPattern{sparql.UnionPattern{Blocks: blocks}}
	}
	return q
}

func iris(list []quad.IRI) []sparql.Entity {
	out := make([]sparql.Entity, 0, len(list))
	for _, iri := range list {
		out = append(out, sparql.Iri(iri))
	}
	return out
}

func oneOf(v sparql.Variable, list []quad.IRI) sparql.Expression {
	vals := make([]sparql.Expression, 0, len(list))
	for _, iri := range list {
		vals = append(vals, sparql.Iri(iri))
	}
	return sparql.InExpression{Expr: v, Values: vals}
}

// RequestedProperties returns the value properties named in the CONSTRUCT
// clause of an internal Gravsearch query. Link properties contribute their
// link value property. all is true if a statement has a variable predicate.
func RequestedProperties(q *sparql.ConstructQuery, ont ontology.Provider) (props []quad.IRI, all bool) {
	set := make(map[quad.IRI]struct{})
	for _, st := range q.ConstructClause {
		switch p := st.Pred.(type) {
		case sparql.Variable:
			all = true
		case sparql.IriRef:
			info, ok := ont.Property(p.Iri)
			if !ok {
				continue
			}
			switch {
			case info.IsLinkProperty:
				set[info.LinkValueProperty] = struct{}{}
			case info.IsValueProperty, info.IsLinkValueProperty:
				set[p.Iri] = struct{}{}
			}
		}
	}
	for iri := range set {
		props = append(props, iri)
	}
	sort.Slice(props, func(i, j int) bool { return props[i] < props[j] })
	return props, all
}
