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
	"github.com/dasch-swiss/gravsearch/query/gravsearch"
	"github.com/dasch-swiss/gravsearch/query/sparql"
	"github.com/dasch-swiss/gravsearch/voc/knora"
)

// filter rewrites a filter expression, returning the statements it needs
// in the enclosing group.
func (t *transformer) filter(sc *scope, e sparql.Expression) ([]sparql.QueryPattern, sparql.Expression, error) {
	switch e := e.(type) {
	case sparql.AndExpression:
		lp, l, err := t.filter(sc, e.Left)
		if err != nil {
			return nil, nil, err
		}
		rp, r, err := t.filter(sc, e.Right)
		if err != nil {
			return nil, nil, err
		}
		return append(lp, rp...), sparql.AndExpression{Left: l, Right: r}, nil
	case sparql.OrExpression:
		lp, l, err := t.filter(sc, e.Left)
		if err != nil {
			return nil, nil, err
		}
		rp, r, err := t.filter(sc, e.Right)
		if err != nil {
			return nil, nil, err
		}
		return append(lp, rp...), sparql.OrExpression{Left: l, Right: r}, nil
	case sparql.NotExpression:
		p, x, err := t.filter(sc, e.Expr)
		if err != nil {
			return nil, nil, err
		}
		return p, sparql.NotExpression{Expr: x}, nil
	case sparql.CompareExpression:
		return t.compare(e)
	case sparql.FunctionCallExpression:
		if e.Iri == knora.MatchFunction {
			return t.match(e)
		}
	}
	return nil, e, nil
}

func isDateLiteral(e sparql.Expression) (sparql.Literal, bool) {
	l, ok := e.(sparql.Literal)
	return l, ok && l.Datatype == knora.Date
}

// flip returns the operator o' such that "b o' a" holds iff "a o b" does.
func flip(o sparql.CompareOperator) sparql.CompareOperator {
	switch o {
	case sparql.LessThan:
		return sparql.GreaterThan
	case sparql.LessThanOrEqual:
		return sparql.GreaterThanOrEqual
	case sparql.GreaterThan:
		return sparql.LessThan
	case sparql.GreaterThanOrEqual:
		return sparql.LessThanOrEqual
	}
	return o
}

// compare rewrites a comparison between a date value and a date literal
// into a comparison of Julian Day Number ranges.
func (t *transformer) compare(e sparql.CompareExpression) ([]sparql.QueryPattern, sparql.Expression, error) {
	v, vok := e.Left.(sparql.Variable)
	lit, lok := isDateLiteral(e.Right)
	op := e.Operator
	if !vok || !lok {
		v, vok = e.Right.(sparql.Variable)
		lit, lok = isDateLiteral(e.Left)
		op = flip(op)
	}
	if !vok || !lok {
		if _, ok := isDateLiteral(e.Left); ok {
			return nil, nil, gravsearch.Errorf(gravsearch.QuerySyntax, "a date literal can only be compared with a date value")
		}
		if _, ok := isDateLiteral(e.Right); ok {
			return nil, nil, gravsearch.Errorf(gravsearch.QuerySyntax, "a date literal can only be compared with a date value")
		}
		return nil, e, nil
	}
	if vc, _ := t.types.NonPropertyType(v); vc != knora.DateValue {
		return nil, nil, gravsearch.Errorf(gravsearch.TypeInference, "?%s is compared with a date but is not a date value", v.Name)
	}
	dr, err := gravsearch.ParseDateLiteral(lit.Value)
	if err != nil {
		return nil, nil, gravsearch.Wrap(gravsearch.QuerySyntax, err, "invalid date in filter")
	}
	var pre []sparql.QueryPattern
	start, end := jdnVars(v)
	if !t.simple() {
		// complex-schema variables are the value objects themselves
		pre = append(pre,
			sparql.Statement(v, sparql.Iri(knora.ValueHasStartJDN), start),
			sparql.Statement(v, sparql.Iri(knora.ValueHasEndJDN), end),
		)
	}
	ds, de := sparql.IntLiteral(dr.StartJDN), sparql.IntLiteral(dr.EndJDN)
	cmp := func(l sparql.Expression, o sparql.CompareOperator, r sparql.Expression) sparql.Expression {
		return sparql.CompareExpression{Left: l, Operator: o, Right: r}
	}
	var out sparql.Expression
	switch op {
	case sparql.Equals:
		out = sparql.AndExpression{Left: cmp(start, sparql.LessThanOrEqual, de), Right: cmp(end, sparql.GreaterThanOrEqual, ds)}
	case sparql.NotEquals:
		out = sparql.OrExpression{Left: cmp(start, sparql.GreaterThan, de), Right: cmp(end, sparql.LessThan, ds)}
	case sparql.LessThan:
		out = cmp(start, sparql.LessThan, ds)
	case sparql.LessThanOrEqual:
		out = cmp(start, sparql.LessThanOrEqual, de)
	case sparql.GreaterThan:
		out = cmp(end, sparql.GreaterThan, de)
	case sparql.GreaterThanOrEqual:
		out = cmp(end, sparql.GreaterThanOrEqual, ds)
	default:
		return nil, nil, gravsearch.Errorf(gravsearch.QuerySyntax, "unsupported date comparison %q", string(op))
	}
	return pre, out, nil
}

// match rewrites a full-text match into a case-insensitive substring test.
func (t *transformer) match(e sparql.FunctionCallExpression) ([]sparql.QueryPattern, sparql.Expression, error) {
	if len(e.Args) != 2 {
		return nil, nil, gravsearch.Errorf(gravsearch.QuerySyntax, "match expects 2 arguments, got %d", len(e.Args))
	}
	v, ok := e.Args[0].(sparql.Variable)
	if !ok {
		return nil, nil, gravsearch.Errorf(gravsearch.QuerySyntax, "the first argument of match must be a variable")
	}
	term, ok := e.Args[1].(sparql.Literal)
	if !ok || (term.Datatype != "" && term.Datatype != knora.XSDString) {
		return nil, nil, gravsearch.Errorf(gravsearch.QuerySyntax, "the second argument of match must be a string literal")
	}
	var pre []sparql.QueryPattern
	target := v
	if vc, _ := t.types.NonPropertyType(v); !t.simple() && vc == knora.TextValue {
		target = sparql.Var(v.Name + "__valueHasString")
		pre = append(pre, sparql.Statement(v, sparql.Iri(knora.ValueHasString), target))
	}
	return pre, sparql.Call("CONTAINS",
		sparql.Call("LCASE", sparql.Call("STR", target)),
		sparql.Call("LCASE", sparql.StringLiteral(term.Value)),
	), nil
}
