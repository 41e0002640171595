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

package sparql

import "fmt"

// EntityMapper rewrites a single entity.
type EntityMapper func(Entity) Entity

// MapStatement applies f to the subject, predicate and object of s.
func MapStatement(s StatementPattern, f EntityMapper) StatementPattern {
	return StatementPattern{Subj: f(s.Subj), Pred: f(s.Pred), Obj: f(s.Obj), NamedGraph: s.NamedGraph}
}

// MapExpression applies f to every entity of e.
func MapExpression(e Expression, f EntityMapper) Expression {
	switch e := e.(type) {
	case nil:
		return nil
	case Entity:
		return f(e)
	case CompareExpression:
		return CompareExpression{Left: MapExpression(e.Left, f), Operator: e.Operator, Right: MapExpression(e.Right, f)}
	case AndExpression:
		return AndExpression{Left: MapExpression(e.Left, f), Right: MapExpression(e.Right, f)}
	case OrExpression:
		return OrExpression{Left: MapExpression(e.Left, f), Right: MapExpression(e.Right, f)}
	case NotExpression:
		return NotExpression{Expr: MapExpression(e.Expr, f)}
	case InExpression:
		return InExpression{Expr: MapExpression(e.Expr, f), Negated: e.Negated, Values: mapExpressions(e.Values, f)}
	case FunctionCallExpression:
		return FunctionCallExpression{Name: e.Name, Iri: e.Iri, Args: mapExpressions(e.Args, f)}
	case AggregateExpression:
		e.Expr = MapExpression(e.Expr, f)
		return e
	}
	panic(fmt.Errorf("unsupported expression type: %T", e))
}

func mapExpressions(list []Expression, f EntityMapper) []Expression {
	if list == nil {
		return nil
	}
	out := make([]Expression, len(list))
	for i, e := range list {
		out[i] = MapExpression(e, f)
	}
	return out
}

// MapPatterns applies f to every entity in ps, including nested groups and
// filter expressions. VALUES variables are left untouched.
func MapPatterns(ps []QueryPattern, f EntityMapper) []QueryPattern {
	if ps == nil {
		return nil
	}
	out := make([]QueryPattern, 0, len(ps))
	for _, p := range ps {
		switch p := p.(type) {
		case StatementPattern:
			out = append(out, MapStatement(p, f))
		case FilterPattern:
			out = append(out, FilterPattern{Expr: MapExpression(p.Expr, f)})
		case OptionalPattern:
			out = append(out, OptionalPattern{Patterns: MapPatterns(p.Patterns, f)})
		case MinusPattern:
			out = append(out, MinusPattern{Patterns: MapPatterns(p.Patterns, f)})
		case FilterNotExistsPattern:
			out = append(out, FilterNotExistsPattern{Patterns: MapPatterns(p.Patterns, f)})
		case UnionPattern:
			blocks := make([][]QueryPattern, len(p.Blocks))
			for i, b := range p.Blocks {
				blocks[i] = MapPatterns(b, f)
			}
			out = append(out, UnionPattern{Blocks: blocks})
		case ValuesPattern:
			vals := make([]Entity, len(p.Values))
			for i, v := range p.Values {
				vals[i] = f(v)
			}
			out = append(out, ValuesPattern{Var: p.Var, Values: vals})
		case BindPattern:
			out = append(out, BindPattern{Expr: MapExpression(p.Expr, f), Var: p.Var})
		default:
			panic(fmt.Errorf("unsupported pattern type: %T", p))
		}
	}
	return out
}

// Walk calls fn for every pattern in ps, parents before their children.
// Negated is true inside MINUS and FILTER NOT EXISTS.
func Walk(ps []QueryPattern, fn func(p QueryPattern, negated bool)) {
	walk(ps, false, fn)
}

func walk(ps []QueryPattern, negated bool, fn func(QueryPattern, bool)) {
	for _, p := range ps {
		fn(p, negated)
		switch p := p.(type) {
		case OptionalPattern:
			walk(p.Patterns, negated, fn)
		case MinusPattern:
			walk(p.Patterns, true, fn)
		case FilterNotExistsPattern:
			walk(p.Patterns, true, fn)
		case UnionPattern:
			for _, b := range p.Blocks {
				walk(b, negated, fn)
			}
		}
	}
}

// ExpressionEntities returns the entities of e in evaluation order.
func ExpressionEntities(e Expression) []Entity {
	var out []Entity
	MapExpression(e, func(x Entity) Entity {
		out = append(out, x)
		return x
	})
	return out
}

// BoundVariables returns the names of the variables that can be bound by
// ps: those used in statements, VALUES and BIND outside of negated groups.
func BoundVariables(ps []QueryPattern) map[string]struct{} {
	vars := make(map[string]struct{})
	add := func(e Entity) {
		if v, ok := e.(Variable); ok {
			vars[v.Name] = struct{}{}
		}
	}
	Walk(ps, func(p QueryPattern, negated bool) {
		if negated {
			return
		}
		switch p := p.(type) {
		case StatementPattern:
			add(p.Subj)
			add(p.Pred)
			add(p.Obj)
		case ValuesPattern:
			add(p.Var)
		case BindPattern:
			add(p.Var)
		}
	})
	return vars
}
