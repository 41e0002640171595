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

// Package gravsearch contains the types shared by the stages of the
// Gravsearch pipeline and the checks applied to incoming queries.
package gravsearch

import (
	"errors"
	"sort"

	"github.com/cayleygraph/quad"

	"github.com/dasch-swiss/gravsearch/ontology"
	"github.com/dasch-swiss/gravsearch/query/sparql"
	"github.com/dasch-swiss/gravsearch/voc/knora"
)

// Parse parses a Gravsearch query. Syntax errors are returned as
// QuerySyntax errors wrapping the parser error, so errors.Is(err,
// sparql.ErrParseMore) detects incomplete input.
func Parse(s string) (*sparql.ConstructQuery, error) {
	q, err := sparql.ParseConstruct(s)
	if err != nil {
		return nil, &Error{Kind: QuerySyntax, Err: err}
	}
	return q, nil
}

// IsIncomplete reports whether err means the query text ended early.
func IsIncomplete(err error) bool {
	return errors.Is(err, sparql.ErrParseMore)
}

func queryIris(q *sparql.ConstructQuery) []quad.IRI {
	var out []quad.IRI
	f := func(e sparql.Entity) sparql.Entity {
		switch e := e.(type) {
		case sparql.IriRef:
			out = append(out, e.Iri)
		case sparql.Literal:
			out = append(out, e.Datatype)
		}
		return e
	}
	for _, s := range q.ConstructClause {
		sparql.MapStatement(s, f)
	}
	sparql.MapPatterns(q.WhereClause.Patterns, f)
	sparql.Walk(q.WhereClause.Patterns, func(p sparql.QueryPattern, _ bool) {
		if fp, ok := p.(sparql.FilterPattern); ok {
			collectFunctionIris(fp.Expr, &out)
		}
	})
	return out
}

func collectFunctionIris(e sparql.Expression, out *[]quad.IRI) {
	switch e := e.(type) {
	case sparql.FunctionCallExpression:
		if e.Iri != "" {
			*out = append(*out, e.Iri)
		}
		for _, a := range e.Args {
			collectFunctionIris(a, out)
		}
	case sparql.CompareExpression:
		collectFunctionIris(e.Left, out)
		collectFunctionIris(e.Right, out)
	case sparql.AndExpression:
		collectFunctionIris(e.Left, out)
		collectFunctionIris(e.Right, out)
	case sparql.OrExpression:
		collectFunctionIris(e.Left, out)
		collectFunctionIris(e.Right, out)
	case sparql.NotExpression:
		collectFunctionIris(e.Expr, out)
	case sparql.InExpression:
		collectFunctionIris(e.Expr, out)
	}
}

// DetectSchema determines the schema a query is written in from the knora
// ontology IRIs it uses. A query without any is taken to be in the simple
// schema. Mixing schemas is a QuerySyntax error.
func DetectSchema(q *sparql.ConstructQuery, conv *ontology.Converter) (sparql.Schema, error) {
	found := make(map[sparql.Schema]quad.IRI)
	for _, iri := range queryIris(q) {
		if s, ok := conv.SchemaOf(iri); ok {
			if _, dup := found[s]; !dup {
				found[s] = iri
			}
		}
	}
	switch len(found) {
	case 0:
		return sparql.ApiV2Simple, nil
	case 1:
		for s := range found {
			return s, nil
		}
	}
	var iris []string
	for _, iri := range found {
		iris = append(iris, string(iri))
	}
	sort.Strings(iris)
	return 0, Errorf(QuerySyntax, "query mixes ontology schemas: %v", iris)
}

// ToInternal returns a copy of q with all knora IRIs, literal datatypes and
// function IRIs converted to the internal schema. QuerySchema is set to the
// schema the query was written in.
func ToInternal(q *sparql.ConstructQuery, conv *ontology.Converter) (*sparql.ConstructQuery, error) {
	schema, err := DetectSchema(q, conv)
	if err != nil {
		return nil, err
	}
	f := func(e sparql.Entity) sparql.Entity {
		switch e := e.(type) {
		case sparql.IriRef:
			e.Iri = conv.ToInternal(e.Iri)
			return e
		case sparql.Literal:
			if e.Datatype != "" {
				e.Datatype = conv.ToInternal(e.Datatype)
			}
			return e
		}
		return e
	}
	out := &sparql.ConstructQuery{
		FromGraph:   q.FromGraph,
		OrderBy:     append([]sparql.OrderCriterion(nil), q.OrderBy...),
		Offset:      q.Offset,
		QuerySchema: schema,
	}
	for _, s := range q.ConstructClause {
		out.ConstructClause = append(out.ConstructClause, sparql.MapStatement(s, f))
	}
	out.WhereClause.Patterns = convertFunctions(sparql.MapPatterns(q.WhereClause.Patterns, f), conv)
	return out, nil
}

func convertFunctions(ps []sparql.QueryPattern, conv *ontology.Converter) []sparql.QueryPattern {
	out := make([]sparql.QueryPattern, len(ps))
	for i, p := range ps {
		switch p := p.(type) {
		case sparql.FilterPattern:
			out[i] = sparql.FilterPattern{Expr: convertFunctionExpr(p.Expr, conv)}
		case sparql.OptionalPattern:
			out[i] = sparql.OptionalPattern{Patterns: convertFunctions(p.Patterns, conv)}
		case sparql.MinusPattern:
			out[i] = sparql.MinusPattern{Patterns: convertFunctions(p.Patterns, conv)}
		case sparql.FilterNotExistsPattern:
			out[i] = sparql.FilterNotExistsPattern{Patterns: convertFunctions(p.Patterns, conv)}
		case sparql.UnionPattern:
			blocks := make([][]sparql.QueryPattern, len(p.Blocks))
			for j, b := range p.Blocks {
				blocks[j] = convertFunctions(b, conv)
			}
			out[i] = sparql.UnionPattern{Blocks: blocks}
		default:
			out[i] = p
		}
	}
	return out
}

func convertFunctionExpr(e sparql.Expression, conv *ontology.Converter) sparql.Expression {
	switch e := e.(type) {
	case sparql.FunctionCallExpression:
		args := make([]sparql.Expression, len(e.Args))
		for i, a := range e.Args {
			args[i] = convertFunctionExpr(a, conv)
		}
		if e.Iri != "" {
			e.Iri = conv.ToInternal(e.Iri)
		}
		e.Args = args
		return e
	case sparql.CompareExpression:
		return sparql.CompareExpression{Left: convertFunctionExpr(e.Left, conv), Operator: e.Operator, Right: convertFunctionExpr(e.Right, conv)}
	case sparql.AndExpression:
		return sparql.AndExpression{Left: convertFunctionExpr(e.Left, conv), Right: convertFunctionExpr(e.Right, conv)}
	case sparql.OrExpression:
		return sparql.OrExpression{Left: convertFunctionExpr(e.Left, conv), Right: convertFunctionExpr(e.Right, conv)}
	case sparql.NotExpression:
		return sparql.NotExpression{Expr: convertFunctionExpr(e.Expr, conv)}
	}
	return e
}

// MainResourceVariable returns the variable marked with
// knora-base:isMainResource true in the CONSTRUCT clause of an internal query.
func MainResourceVariable(q *sparql.ConstructQuery) (sparql.Variable, error) {
	var main []sparql.Variable
	for _, s := range q.ConstructClause {
		p, ok := s.Pred.(sparql.IriRef)
		if !ok || p.Iri != knora.IsMainResource {
			continue
		}
		if o, ok := s.Obj.(sparql.Literal); !ok || o.Value != "true" {
			return sparql.Variable{}, Errorf(QuerySyntax, "isMainResource must be true")
		}
		v, ok := s.Subj.(sparql.Variable)
		if !ok {
			return sparql.Variable{}, Errorf(QuerySyntax, "the main resource must be a variable")
		}
		main = append(main, v)
	}
	switch len(main) {
	case 0:
		return sparql.Variable{}, Errorf(QuerySyntax, "no main resource variable in CONSTRUCT clause")
	case 1:
		return main[0], nil
	}
	return sparql.Variable{}, Errorf(QuerySyntax, "more than one main resource variable in CONSTRUCT clause")
}

// Validate checks the structural requirements of an internal Gravsearch
// query and returns its main resource variable.
func Validate(q *sparql.ConstructQuery) (sparql.Variable, error) {
	main, err := MainResourceVariable(q)
	if err != nil {
		return main, err
	}
	if q.Offset < 0 {
		return main, Errorf(QuerySyntax, "negative OFFSET %d", q.Offset)
	}
	if q.FromGraph != "" {
		return main, Errorf(QuerySyntax, "FROM is not allowed in Gravsearch")
	}
	bound := sparql.BoundVariables(q.WhereClause.Patterns)
	for _, s := range q.ConstructClause {
		for _, e := range []sparql.Entity{s.Subj, s.Pred, s.Obj} {
			if v, ok := e.(sparql.Variable); ok {
				if _, ok := bound[v.Name]; !ok {
					return main, Errorf(QuerySyntax, "variable ?%s is used in CONSTRUCT but not bound in WHERE", v.Name)
				}
			}
		}
	}
	for _, o := range q.OrderBy {
		if _, ok := bound[o.Var.Name]; !ok {
			return main, Errorf(QuerySyntax, "variable ?%s is used in ORDER BY but not bound in WHERE", o.Var.Name)
		}
	}
	if _, ok := bound[main.Name]; !ok {
		return main, Errorf(QuerySyntax, "main resource variable ?%s is not bound in WHERE", main.Name)
	}
	return main, nil
}
