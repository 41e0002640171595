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

// Package prequery turns a type-inspected Gravsearch query into the SELECT
// query that finds one page of matching main resources.
//
// The prequery returns one row per main resource, with the resource's
// creator, project and permission literal, and the IRIs of the dependent
// resources and value objects that matched, each concatenated with
// Separator.
package prequery

import (
	"fmt"
	"strconv"

	"github.com/cayleygraph/quad"

	"github.com/dasch-swiss/gravsearch/clog"
	"github.com/dasch-swiss/gravsearch/ontology"
	"github.com/dasch-swiss/gravsearch/query/gravsearch"
	"github.com/dasch-swiss/gravsearch/query/sparql"
	"github.com/dasch-swiss/gravsearch/voc/knora"
)

// Separator joins the values of a concatenated column.
const Separator = "\u001F"

// Column suffixes of the prequery result.
const (
	ConcatSuffix      = "__Concat"
	CreatorSuffix     = "__creator"
	ProjectSuffix     = "__project"
	PermissionsSuffix = "__permissions"
)

// CountVariable is the result column of a count prequery.
const CountVariable = "count"

// Options control the shape of the prequery.
type Options struct {
	// Schema is the schema the query was written in. In the simple
	// schema, value variables stand for the literal of the value.
	Schema sparql.Schema
	// Count requests a count of matching main resources.
	Count bool
	// PageSize is the number of main resources per page.
	PageSize int
}

// Prequery is a generated prequery and the variables whose values it returns.
type Prequery struct {
	Query   *sparql.SelectQuery
	MainVar sparql.Variable
	// DependentVars are resource variables other than the main one.
	DependentVars []sparql.Variable
	// ValueVars are value object variables, including link value objects.
	ValueVars []sparql.Variable
}

// ConcatColumn returns the result column holding the concatenated values of v.
func ConcatColumn(v sparql.Variable) string { return v.Name + ConcatSuffix }

// MetadataColumns returns the creator, project and permission columns of the main resource.
func (p *Prequery) MetadataColumns() (creator, project, permissions string) {
	return p.MainVar.Name + CreatorSuffix, p.MainVar.Name + ProjectSuffix, p.MainVar.Name + PermissionsSuffix
}

// Transform builds the prequery of q, an internal query whose WHERE clause
// has been cleaned by type inspection.
func Transform(q *sparql.ConstructQuery, types *gravsearch.TypeInspectionResult, ont ontology.Provider, opts Options) (*Prequery, error) {
	main, err := gravsearch.MainResourceVariable(q)
	if err != nil {
		return nil, err
	}
	if opts.PageSize <= 0 {
		return nil, fmt.Errorf("prequery: invalid page size %d", opts.PageSize)
	}
	if opts.Count && q.Offset > 0 {
		return nil, gravsearch.Errorf(gravsearch.QuerySyntax, "OFFSET must be 0 in a count query")
	}
	if !types.IsResource(main) {
		return nil, gravsearch.Errorf(gravsearch.TypeInference, "main resource variable ?%s is not typed as a resource", main.Name)
	}
	t := &transformer{
		ont:       ont,
		types:     types,
		opts:      opts,
		main:      main,
		seen:      make(map[string]bool),
		orderVars: make(map[string]bool),
		orderSrc:  make(map[string]sparql.Variable),
	}
	if opts.Count && len(q.OrderBy) > 0 {
		clog.Warningf("ignoring ORDER BY in count query")
	}
	if !opts.Count {
		for _, o := range q.OrderBy {
			if o.Var != main {
				t.orderVars[o.Var.Name] = true
			}
		}
	}

	top := newScope(nil, false)
	var patterns []sparql.QueryPattern
	patterns = append(patterns, t.resourceMetadata(top, main)...)
	body, err := t.patterns(top, q.WhereClause.Patterns)
	if err != nil {
		return nil, err
	}
	patterns = append(patterns, body...)

	pq := &Prequery{MainVar: main, DependentVars: t.dependents, ValueVars: t.values}
	sel := &sparql.SelectQuery{WhereClause: sparql.WhereClause{Patterns: patterns}}
	if opts.Count {
		sel.Variables = []sparql.Projection{{
			Var:  sparql.Var(CountVariable),
			Expr: sparql.AggregateExpression{Function: sparql.Count, Distinct: true, Expr: main},
		}}
		pq.Query = sel
		return pq, nil
	}

	creator, project, perms := pq.MetadataColumns()
	keys := []sparql.Variable{main, sparql.Var(creator), sparql.Var(project), sparql.Var(perms)}
	for _, k := range keys {
		sel.Variables = append(sel.Variables, sparql.Projection{Var: k})
	}
	concat := func(v sparql.Variable) {
		sel.Variables = append(sel.Variables, sparql.Projection{
			Var: sparql.Var(ConcatColumn(v)),
			Expr: sparql.AggregateExpression{
				Function: sparql.GroupConcat, Distinct: true, Expr: v, Separator: Separator,
			},
		})
	}
	for _, v := range t.dependents {
		concat(v)
	}
	for _, v := range t.values {
		concat(v)
	}
	sel.GroupBy = keys

	orderedByMain := false
	for _, o := range q.OrderBy {
		if o.Var == main {
			sel.OrderBy = append(sel.OrderBy, sparql.OrderCriterion{Var: main, Ascending: o.Ascending})
			orderedByMain = true
			continue
		}
		src, ok := t.orderSrc[o.Var.Name]
		if !ok {
			return nil, gravsearch.Errorf(gravsearch.QuerySyntax, "cannot order by ?%s: it is not bound to a sortable value", o.Var.Name)
		}
		fn := sparql.Min
		if !o.Ascending {
			fn = sparql.Max
		}
		agg := sparql.Var(o.Var.Name + "__orderByValue")
		sel.Variables = append(sel.Variables, sparql.Projection{
			Var:  agg,
			Expr: sparql.AggregateExpression{Function: fn, Expr: src},
		})
		sel.OrderBy = append(sel.OrderBy, sparql.OrderCriterion{Var: agg, Ascending: o.Ascending})
	}
	if !orderedByMain {
		sel.OrderBy = append(sel.OrderBy, sparql.OrderCriterion{Var: main, Ascending: true})
	}
	sel.Offset = q.Offset * int64(opts.PageSize)
	sel.Limit = int64(opts.PageSize)
	pq.Query = sel
	return pq, nil
}

// scope tracks the resources whose metadata a group already retrieves.
// Groups see the metadata of their parents, never of their siblings.
type scope struct {
	parent  *scope
	negated bool
	emitted map[string]bool
}

func newScope(parent *scope, negated bool) *scope {
	return &scope{parent: parent, negated: negated || (parent != nil && parent.negated), emitted: make(map[string]bool)}
}

func (s *scope) has(key string) bool {
	for ; s != nil; s = s.parent {
		if s.emitted[key] {
			return true
		}
	}
	return false
}

type transformer struct {
	ont   ontology.Provider
	types *gravsearch.TypeInspectionResult
	opts  Options
	main  sparql.Variable

	dependents []sparql.Variable
	values     []sparql.Variable
	seen       map[string]bool

	orderVars map[string]bool
	orderSrc  map[string]sparql.Variable

	fresh int
}

func (t *transformer) freshVar(prefix string) sparql.Variable {
	t.fresh++
	return sparql.Var(prefix + "__" + strconv.Itoa(t.fresh))
}

func (t *transformer) simple() bool { return t.opts.Schema == sparql.ApiV2Simple }

func (t *transformer) addDependent(v sparql.Variable) {
	if v == t.main || t.seen[v.Name] {
		return
	}
	t.seen[v.Name] = true
	t.dependents = append(t.dependents, v)
}

func (t *transformer) addValue(v sparql.Variable) {
	if t.seen[v.Name] {
		return
	}
	t.seen[v.Name] = true
	t.values = append(t.values, v)
}

func explicit(s, p, o sparql.Entity) sparql.StatementPattern {
	return sparql.StatementPattern{Subj: s, Pred: p, Obj: o, NamedGraph: knora.ExplicitGraph}
}

// resourceMetadata returns the statements retrieving the metadata of a
// resource, unless the scope already has them. IRIs are only checked for
// deletion.
func (t *transformer) resourceMetadata(sc *scope, e sparql.Entity) []sparql.QueryPattern {
	key := ""
	switch e := e.(type) {
	case sparql.Variable:
		key = "?" + e.Name
	case sparql.IriRef:
		key = string(e.Iri)
	default:
		return nil
	}
	if sc.has(key) {
		return nil
	}
	sc.emitted[key] = true
	out := []sparql.QueryPattern{
		sparql.Statement(e, sparql.Iri(knora.RDFType), sparql.Iri(knora.Resource)),
		explicit(e, sparql.Iri(knora.IsDeleted), sparql.BoolLiteral(false)),
	}
	v, ok := e.(sparql.Variable)
	if !ok || sc.negated {
		return out
	}
	if v != t.main {
		t.addDependent(v)
	}
	return append(out,
		explicit(v, sparql.Iri(knora.AttachedToUser), sparql.Var(v.Name+CreatorSuffix)),
		explicit(v, sparql.Iri(knora.AttachedToProject), sparql.Var(v.Name+ProjectSuffix)),
		explicit(v, sparql.Iri(knora.HasPermissions), sparql.Var(v.Name+PermissionsSuffix)),
	)
}

func (t *transformer) patterns(sc *scope, ps []sparql.QueryPattern) ([]sparql.QueryPattern, error) {
	var out []sparql.QueryPattern
	for _, p := range ps {
		switch p := p.(type) {
		case sparql.StatementPattern:
			st, err := t.statement(sc, p)
			if err != nil {
				return nil, err
			}
			out = append(out, st...)
		case sparql.FilterPattern:
			pre, expr, err := t.filter(sc, p.Expr)
			if err != nil {
				return nil, err
			}
			out = append(out, pre...)
			out = append(out, sparql.FilterPattern{Expr: expr})
		case sparql.OptionalPattern:
			sub, err := t.patterns(newScope(sc, false), p.Patterns)
			if err != nil {
				return nil, err
			}
			out = append(out, sparql.OptionalPattern{Patterns: sub})
		case sparql.UnionPattern:
			blocks := make([][]sparql.QueryPattern, len(p.Blocks))
			for i, b := range p.Blocks {
				sub, err := t.patterns(newScope(sc, false), b)
				if err != nil {
					return nil, err
				}
				blocks[i] = sub
			}
			out = append(out, sparql.UnionPattern{Blocks: blocks})
		case sparql.MinusPattern:
			sub, err := t.patterns(newScope(sc, true), p.Patterns)
			if err != nil {
				return nil, err
			}
			out = append(out, sparql.MinusPattern{Patterns: sub})
		case sparql.FilterNotExistsPattern:
			sub, err := t.patterns(newScope(sc, true), p.Patterns)
			if err != nil {
				return nil, err
			}
			out = append(out, sparql.FilterNotExistsPattern{Patterns: sub})
		default:
			out = append(out, p)
		}
	}
	return out, nil
}

// propertyKind classifies the predicate of a statement.
type propertyKind int

const (
	otherProperty propertyKind = iota
	valueProperty
	linkProperty
	linkValueProperty
)

func (t *transformer) kindOf(pred sparql.Entity) (propertyKind, *ontology.PropertyInfo) {
	switch pred := pred.(type) {
	case sparql.IriRef:
		info, ok := t.ont.Property(pred.Iri)
		if !ok {
			return otherProperty, nil
		}
		switch {
		case info.IsLinkProperty:
			return linkProperty, info
		case info.IsLinkValueProperty:
			return linkValueProperty, info
		case info.IsValueProperty:
			return valueProperty, info
		}
		return otherProperty, info
	case sparql.Variable:
		ot, ok := t.types.PropertyObjectType(pred)
		if !ok {
			return otherProperty, nil
		}
		if ot == knora.Resource {
			return linkProperty, nil
		}
		if c, ok := t.ont.Class(ot); ok && c.IsValueClass {
			if ot == knora.LinkValue {
				return linkValueProperty, nil
			}
			return valueProperty, nil
		}
	}
	return otherProperty, nil
}

func (t *transformer) statement(sc *scope, st sparql.StatementPattern) ([]sparql.QueryPattern, error) {
	var out []sparql.QueryPattern
	if t.types.IsResource(st.Subj) {
		out = append(out, t.resourceMetadata(sc, st.Subj)...)
	}
	kind, info := t.kindOf(st.Pred)
	switch kind {
	case linkProperty:
		out = append(out, st)
		if t.types.IsResource(st.Obj) {
			out = append(out, t.resourceMetadata(sc, st.Obj)...)
		}
		if info != nil && !sc.negated {
			out = append(out, t.linkValue(st, info.LinkValueProperty)...)
		}
		t.orderByResource(st.Obj)
		return out, nil
	case valueProperty, linkValueProperty:
		return append(out, t.value(sc, st)...), nil
	}
	out = append(out, st)
	if !sc.negated {
		t.orderByLiteral(st.Obj)
	}
	return out, nil
}

// linkValue returns the statements matching the link value object that
// reifies a link statement.
func (t *transformer) linkValue(st sparql.StatementPattern, prop quad.IRI) []sparql.QueryPattern {
	var lv sparql.Variable
	if o, ok := st.Obj.(sparql.Variable); ok {
		lv = sparql.Var(o.Name + "__LinkValue")
	} else {
		lv = t.freshVar("linkValue")
	}
	t.addValue(lv)
	return []sparql.QueryPattern{
		sparql.Statement(st.Subj, sparql.Iri(prop), lv),
		sparql.Statement(lv, sparql.Iri(knora.RDFType), sparql.Iri(knora.LinkValue)),
		sparql.Statement(lv, sparql.Iri(knora.RDFSubject), st.Subj),
		sparql.Statement(lv, sparql.Iri(knora.RDFPredicate), st.Pred),
		sparql.Statement(lv, sparql.Iri(knora.RDFObject), st.Obj),
		explicit(lv, sparql.Iri(knora.IsDeleted), sparql.BoolLiteral(false)),
	}
}

func (t *transformer) valueClassOf(st sparql.StatementPattern) quad.IRI {
	if vc, ok := t.types.NonPropertyType(st.Obj); ok {
		if c, ok := t.ont.Class(vc); ok && c.IsValueClass {
			return vc
		}
	}
	if ot, ok := t.types.PropertyObjectType(st.Pred); ok {
		return ot
	}
	return ""
}

// value returns the statements traversing from a resource to a value object.
func (t *transformer) value(sc *scope, st sparql.StatementPattern) []sparql.QueryPattern {
	valueClass := t.valueClassOf(st)
	if !t.simple() {
		out := []sparql.QueryPattern{st}
		if v, ok := st.Obj.(sparql.Variable); ok {
			out = append(out, explicit(v, sparql.Iri(knora.IsDeleted), sparql.BoolLiteral(false)))
			if !sc.negated {
				t.addValue(v)
				if t.orderVars[v.Name] {
					src := sparql.Var(v.Name + "__orderBy")
					out = append(out, sparql.Statement(v, sparql.Iri(gravsearch.OrderPredicate(valueClass)), src))
					t.orderSrc[v.Name] = src
				}
			}
		}
		return out
	}

	// the object of a simple-schema value statement stands for the literal
	var vo sparql.Variable
	if v, ok := st.Obj.(sparql.Variable); ok {
		vo = sparql.Var(v.Name + "__valueObject")
	} else {
		vo = t.freshVar("valueObject")
	}
	out := []sparql.QueryPattern{
		sparql.StatementPattern{Subj: st.Subj, Pred: st.Pred, Obj: vo, NamedGraph: st.NamedGraph},
	}
	if c, ok := t.ont.Class(valueClass); ok && c.IsValueClass {
		out = append(out, sparql.Statement(vo, sparql.Iri(knora.RDFType), sparql.Iri(valueClass)))
	}
	out = append(out, explicit(vo, sparql.Iri(knora.IsDeleted), sparql.BoolLiteral(false)))
	if !sc.negated {
		t.addValue(vo)
	}
	if valueClass == knora.DateValue {
		if v, ok := st.Obj.(sparql.Variable); ok {
			start, end := jdnVars(v)
			out = append(out,
				sparql.Statement(vo, sparql.Iri(knora.ValueHasStartJDN), start),
				sparql.Statement(vo, sparql.Iri(knora.ValueHasEndJDN), end),
			)
			if !sc.negated && t.orderVars[v.Name] {
				t.orderSrc[v.Name] = start
			}
		}
		return out
	}
	if lit, ok := gravsearch.LiteralPredicate(valueClass); ok {
		out = append(out, sparql.Statement(vo, sparql.Iri(lit), st.Obj))
		if v, ok := st.Obj.(sparql.Variable); ok && !sc.negated && t.orderVars[v.Name] {
			t.orderSrc[v.Name] = v
		}
	}
	return out
}

func jdnVars(v sparql.Variable) (start, end sparql.Variable) {
	return sparql.Var(v.Name + "__startJDN"), sparql.Var(v.Name + "__endJDN")
}

func (t *transformer) orderByResource(e sparql.Entity) {
	if v, ok := e.(sparql.Variable); ok && t.orderVars[v.Name] {
		if _, done := t.orderSrc[v.Name]; !done {
			t.orderSrc[v.Name] = v
		}
	}
}

// orderByLiteral records a variable bound to a literal, such as a label or
// a complex-schema value component, as its own sort key.
func (t *transformer) orderByLiteral(e sparql.Entity) {
	if v, ok := e.(sparql.Variable); ok && t.orderVars[v.Name] {
		if _, done := t.orderSrc[v.Name]; !done {
			t.orderSrc[v.Name] = v
		}
	}
}
