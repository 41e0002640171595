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

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/voc"
	"github.com/cayleygraph/quad/voc/rdf"
	"github.com/cayleygraph/quad/voc/xsd"
)

// Parse parses a SELECT or CONSTRUCT query. Prefixed names are resolved
// using the PREFIX declarations of the query first, and the namespaces
// registered with the quad/voc package second.
//
// ErrParseMore is returned if the input ends before the query is complete.
func Parse(s string) (Query, error) {
	toks, err := lex(s)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, prefixes: make(map[string]string)}
	if err := p.prologue(); err != nil {
		return nil, err
	}
	var q Query
	switch t := p.peek(); {
	case p.isWord(t, "CONSTRUCT"):
		p.next()
		q, err = p.construct()
	case p.isWord(t, "SELECT"):
		p.next()
		q, err = p.selectQuery()
	case t.kind == tokEOF:
		return nil, ErrParseMore
	default:
		return nil, p.unexpected(t, "SELECT or CONSTRUCT")
	}
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.unexpected(t, "end of query")
	}
	return q, nil
}

// ParseConstruct parses a CONSTRUCT query.
func ParseConstruct(s string) (*ConstructQuery, error) {
	q, err := Parse(s)
	if err != nil {
		return nil, err
	}
	cq, ok := q.(*ConstructQuery)
	if !ok {
		return nil, &ParseError{Msg: "expected a CONSTRUCT query"}
	}
	return cq, nil
}

// ParseSelect parses a SELECT query.
func ParseSelect(s string) (*SelectQuery, error) {
	q, err := Parse(s)
	if err != nil {
		return nil, err
	}
	sq, ok := q.(*SelectQuery)
	if !ok {
		return nil, &ParseError{Msg: "expected a SELECT query"}
	}
	return sq, nil
}

type parser struct {
	toks     []token
	pos      int
	prefixes map[string]string
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isWord(t token, w string) bool {
	return t.kind == tokWord && strings.EqualFold(t.text, w)
}

func (p *parser) isPunct(t token, s string) bool {
	return t.kind == tokPunct && t.text == s
}

func (p *parser) unexpected(t token, want string) error {
	if t.kind == tokEOF {
		return ErrParseMore
	}
	return &ParseError{Pos: t.pos, Msg: fmt.Sprintf("expected %s, got %v", want, t)}
}

func (p *parser) expectPunct(s string) error {
	if t := p.next(); !p.isPunct(t, s) {
		return p.unexpected(t, strconv.Quote(s))
	}
	return nil
}

func (p *parser) expectWord(w string) error {
	if t := p.next(); !p.isWord(t, w) {
		return p.unexpected(t, w)
	}
	return nil
}

func (p *parser) prologue() error {
	for {
		t := p.peek()
		switch {
		case p.isWord(t, "PREFIX"):
			p.next()
			name := p.next()
			if name.kind != tokPName || !strings.HasSuffix(name.text, ":") {
				return p.unexpected(name, "prefix name")
			}
			iri := p.next()
			if iri.kind != tokIRI {
				return p.unexpected(iri, "namespace IRI")
			}
			p.prefixes[strings.TrimSuffix(name.text, ":")] = iri.text
		case p.isWord(t, "BASE"):
			return &ParseError{Pos: t.pos, Msg: "BASE is not supported"}
		default:
			return nil
		}
	}
}

func (p *parser) resolve(t token) (quad.IRI, error) {
	i := strings.Index(t.text, ":")
	if ns, ok := p.prefixes[t.text[:i]]; ok {
		return quad.IRI(ns + t.text[i+1:]), nil
	}
	if full := voc.FullIRI(t.text); full != t.text {
		return quad.IRI(full), nil
	}
	return "", &ParseError{Pos: t.pos, Msg: fmt.Sprintf("unknown prefix in %q", t.text)}
}

func (p *parser) iri() (quad.IRI, error) {
	t := p.next()
	switch t.kind {
	case tokIRI:
		return quad.IRI(t.text), nil
	case tokPName:
		return p.resolve(t)
	}
	return "", p.unexpected(t, "IRI")
}

func (p *parser) integer() (int64, error) {
	t := p.next()
	if t.kind != tokInteger {
		return 0, p.unexpected(t, "integer")
	}
	n, err := strconv.ParseInt(t.text, 10, 64)
	if err != nil {
		return 0, &ParseError{Pos: t.pos, Msg: err.Error()}
	}
	return n, nil
}

func (p *parser) construct() (*ConstructQuery, error) {
	q := &ConstructQuery{}
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	for !p.isPunct(p.peek(), "}") {
		if p.isPunct(p.peek(), ".") {
			p.next()
			continue
		}
		st, err := p.triples()
		if err != nil {
			return nil, err
		}
		for _, s := range st {
			if iri, ok := s.Pred.(IriRef); ok && iri.PropertyPathOperator != "" {
				return nil, &ParseError{Msg: "property paths are not allowed in a CONSTRUCT template"}
			}
		}
		q.ConstructClause = append(q.ConstructClause, st...)
	}
	p.next()
	if p.isWord(p.peek(), "FROM") {
		p.next()
		g, err := p.iri()
		if err != nil {
			return nil, err
		}
		q.FromGraph = g
	}
	where, err := p.where()
	if err != nil {
		return nil, err
	}
	q.WhereClause = where
	for {
		t := p.peek()
		switch {
		case p.isWord(t, "ORDER"):
			if q.OrderBy, err = p.orderBy(); err != nil {
				return nil, err
			}
		case p.isWord(t, "OFFSET"):
			p.next()
			if q.Offset, err = p.integer(); err != nil {
				return nil, err
			}
		case p.isWord(t, "LIMIT"):
			return nil, &ParseError{Pos: t.pos, Msg: "LIMIT is not allowed in a CONSTRUCT query"}
		default:
			return q, nil
		}
	}
}

func (p *parser) selectQuery() (*SelectQuery, error) {
	q := &SelectQuery{}
	if p.isWord(p.peek(), "DISTINCT") {
		p.next()
		q.Distinct = true
	}
	if p.isPunct(p.peek(), "*") {
		p.next()
	} else {
	loop:
		for {
			t := p.peek()
			switch {
			case t.kind == tokVar:
				p.next()
				q.Variables = append(q.Variables, Projection{Var: Var(t.text)})
			case p.isPunct(t, "("):
				p.next()
				e, err := p.expression()
				if err != nil {
					return nil, err
				}
				if err = p.expectWord("AS"); err != nil {
					return nil, err
				}
				v := p.next()
				if v.kind != tokVar {
					return nil, p.unexpected(v, "variable")
				}
				if err = p.expectPunct(")"); err != nil {
					return nil, err
				}
				q.Variables = append(q.Variables, Projection{Expr: e, Var: Var(v.text)})
			default:
				break loop
			}
		}
		if len(q.Variables) == 0 {
			return nil, p.unexpected(p.peek(), "projection")
		}
	}
	if p.isWord(p.peek(), "FROM") {
		p.next()
		g, err := p.iri()
		if err != nil {
			return nil, err
		}
		q.FromGraph = g
	}
	where, err := p.where()
	if err != nil {
		return nil, err
	}
	q.WhereClause = where
	for {
		t := p.peek()
		switch {
		case p.isWord(t, "GROUP"):
			p.next()
			if err = p.expectWord("BY"); err != nil {
				return nil, err
			}
			for p.peek().kind == tokVar {
				q.GroupBy = append(q.GroupBy, Var(p.next().text))
			}
			if len(q.GroupBy) == 0 {
				return nil, p.unexpected(p.peek(), "variable")
			}
		case p.isWord(t, "ORDER"):
			if q.OrderBy, err = p.orderBy(); err != nil {
				return nil, err
			}
		case p.isWord(t, "OFFSET"):
			p.next()
			if q.Offset, err = p.integer(); err != nil {
				return nil, err
			}
		case p.isWord(t, "LIMIT"):
			p.next()
			if q.Limit, err = p.integer(); err != nil {
				return nil, err
			}
		default:
			return q, nil
		}
	}
}

func (p *parser) where() (WhereClause, error) {
	if p.isWord(p.peek(), "WHERE") {
		p.next()
	}
	if err := p.expectPunct("{"); err != nil {
		return WhereClause{}, err
	}
	pats, err := p.group()
	if err != nil {
		return WhereClause{}, err
	}
	return WhereClause{Patterns: pats}, nil
}

func (p *parser) orderBy() ([]OrderCriterion, error) {
	p.next()
	if err := p.expectWord("BY"); err != nil {
		return nil, err
	}
	var out []OrderCriterion
	for {
		t := p.peek()
		switch {
		case t.kind == tokVar:
			p.next()
			out = append(out, OrderCriterion{Var: Var(t.text), Ascending: true})
		case p.isWord(t, "ASC"), p.isWord(t, "DESC"):
			p.next()
			if err := p.expectPunct("("); err != nil {
				return nil, err
			}
			v := p.next()
			if v.kind != tokVar {
				return nil, p.unexpected(v, "variable")
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			out = append(out, OrderCriterion{Var: Var(v.text), Ascending: p.isWord(t, "ASC")})
		default:
			if len(out) == 0 {
				return nil, p.unexpected(t, "order condition")
			}
			return out, nil
		}
	}
}

// group parses the patterns of a group; the opening brace is already consumed.
func (p *parser) group() ([]QueryPattern, error) {
	var out []QueryPattern
	for {
		t := p.peek()
		switch {
		case t.kind == tokEOF:
			return nil, ErrParseMore
		case p.isPunct(t, "}"):
			p.next()
			return out, nil
		case p.isPunct(t, "."):
			p.next()
		case p.isWord(t, "OPTIONAL"), p.isWord(t, "MINUS"):
			p.next()
			if err := p.expectPunct("{"); err != nil {
				return nil, err
			}
			sub, err := p.group()
			if err != nil {
				return nil, err
			}
			if p.isWord(t, "OPTIONAL") {
				out = append(out, OptionalPattern{Patterns: sub})
			} else {
				out = append(out, MinusPattern{Patterns: sub})
			}
		case p.isWord(t, "FILTER"):
			p.next()
			pat, err := p.filter()
			if err != nil {
				return nil, err
			}
			out = append(out, pat)
		case p.isWord(t, "VALUES"):
			p.next()
			pat, err := p.values()
			if err != nil {
				return nil, err
			}
			out = append(out, pat)
		case p.isWord(t, "BIND"):
			p.next()
			if err := p.expectPunct("("); err != nil {
				return nil, err
			}
			e, err := p.expression()
			if err != nil {
				return nil, err
			}
			if err = p.expectWord("AS"); err != nil {
				return nil, err
			}
			v := p.next()
			if v.kind != tokVar {
				return nil, p.unexpected(v, "variable")
			}
			if err = p.expectPunct(")"); err != nil {
				return nil, err
			}
			out = append(out, BindPattern{Expr: e, Var: Var(v.text)})
		case p.isWord(t, "GRAPH"):
			p.next()
			g, err := p.iri()
			if err != nil {
				return nil, err
			}
			if err = p.expectPunct("{"); err != nil {
				return nil, err
			}
			sub, err := p.group()
			if err != nil {
				return nil, err
			}
			for _, sp := range sub {
				st, ok := sp.(StatementPattern)
				if !ok {
					return nil, &ParseError{Pos: t.pos, Msg: "only triple patterns are supported in a GRAPH block"}
				}
				st.NamedGraph = g
				out = append(out, st)
			}
		case p.isPunct(t, "{"):
			p.next()
			first, err := p.group()
			if err != nil {
				return nil, err
			}
			blocks := [][]QueryPattern{first}
			for p.isWord(p.peek(), "UNION") {
				p.next()
				if err = p.expectPunct("{"); err != nil {
					return nil, err
				}
				b, err := p.group()
				if err != nil {
					return nil, err
				}
				blocks = append(blocks, b)
			}
			if len(blocks) == 1 {
				out = append(out, first...)
			} else {
				out = append(out, UnionPattern{Blocks: blocks})
			}
		default:
			st, err := p.triples()
			if err != nil {
				return nil, err
			}
			for _, s := range st {
				out = append(out, s)
			}
		}
	}
}

func (p *parser) filter() (QueryPattern, error) {
	t := p.peek()
	if p.isWord(t, "NOT") {
		p.next()
		if err := p.expectWord("EXISTS"); err != nil {
			return nil, err
		}
		if err := p.expectPunct("{"); err != nil {
			return nil, err
		}
		sub, err := p.group()
		if err != nil {
			return nil, err
		}
		return FilterNotExistsPattern{Patterns: sub}, nil
	}
	if p.isPunct(t, "(") {
		p.next()
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		if err = p.expectPunct(")"); err != nil {
			return nil, err
		}
		return FilterPattern{Expr: e}, nil
	}
	e, err := p.primary()
	if err != nil {
		return nil, err
	}
	if _, ok := e.(FunctionCallExpression); !ok {
		return nil, &ParseError{Pos: t.pos, Msg: "FILTER expects a bracketed expression or a function call"}
	}
	return FilterPattern{Expr: e}, nil
}

func (p *parser) values() (QueryPattern, error) {
	v := p.next()
	if v.kind != tokVar {
		return nil, p.unexpected(v, "variable")
	}
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	pat := ValuesPattern{Var: Var(v.text)}
	for !p.isPunct(p.peek(), "}") {
		e, err := p.term()
		if err != nil {
			return nil, err
		}
		if _, ok := e.(Variable); ok {
			return nil, &ParseError{Pos: v.pos, Msg: "variables are not allowed in VALUES"}
		}
		pat.Values = append(pat.Values, e)
	}
	p.next()
	return pat, nil
}

// triples parses a subject with its predicate-object list.
func (p *parser) triples() ([]StatementPattern, error) {
	subj, err := p.term()
	if err != nil {
		return nil, err
	}
	if _, ok := subj.(Literal); ok {
		return nil, &ParseError{Pos: p.peek().pos, Msg: "a literal cannot be a subject"}
	}
	var out []StatementPattern
	for {
		pred, err := p.verb()
		if err != nil {
			return nil, err
		}
		for {
			obj, err := p.term()
			if err != nil {
				return nil, err
			}
			out = append(out, Statement(subj, pred, obj))
			if !p.isPunct(p.peek(), ",") {
				break
			}
			p.next()
		}
		if !p.isPunct(p.peek(), ";") {
			break
		}
		p.next()
		// a trailing ';' is allowed
		if t := p.peek(); p.isPunct(t, ".") || p.isPunct(t, "}") {
			break
		}
	}
	if p.isPunct(p.peek(), ".") {
		p.next()
	}
	return out, nil
}

func (p *parser) verb() (Entity, error) {
	t := p.peek()
	if t.kind == tokWord && t.text == "a" {
		p.next()
		return Iri(quad.IRI(rdf.NS + "type")), nil
	}
	e, err := p.term()
	if err != nil {
		return nil, err
	}
	switch e := e.(type) {
	case Variable:
		return e, nil
	case IriRef:
		if n := p.peek(); p.isPunct(n, "*") || p.isPunct(n, "+") {
			p.next()
			e.PropertyPathOperator = n.text
		}
		return e, nil
	}
	return nil, &ParseError{Pos: t.pos, Msg: "a literal cannot be a predicate"}
}

// term parses a variable, an IRI or a literal.
func (p *parser) term() (Entity, error) {
	t := p.next()
	switch t.kind {
	case tokVar:
		return Var(t.text), nil
	case tokIRI:
		return Iri(quad.IRI(t.text)), nil
	case tokPName:
		iri, err := p.resolve(t)
		if err != nil {
			return nil, err
		}
		return Iri(iri), nil
	case tokString:
		lit := StringLiteral(t.text)
		switch n := p.peek(); {
		case p.isPunct(n, "^^"):
			p.next()
			dt, err := p.iri()
			if err != nil {
				return nil, err
			}
			lit.Datatype = dt
		case n.kind == tokLangTag:
			p.next()
		}
		return lit, nil
	case tokInteger:
		return Literal{Value: t.text, Datatype: xsd.NS + "integer"}, nil
	case tokDecimal:
		return Literal{Value: t.text, Datatype: xsd.NS + "decimal"}, nil
	case tokDouble:
		return Literal{Value: t.text, Datatype: xsd.NS + "double"}, nil
	case tokWord:
		switch strings.ToLower(t.text) {
		case "true":
			return BoolLiteral(true), nil
		case "false":
			return BoolLiteral(false), nil
		}
	}
	return nil, p.unexpected(t, "variable, IRI or literal")
}

// expression parses a conditional-or expression.
func (p *parser) expression() (Expression, error) {
	left, err := p.conjunction()
	if err != nil {
		return nil, err
	}
	for p.isPunct(p.peek(), "||") {
		p.next()
		right, err := p.conjunction()
		if err != nil {
			return nil, err
		}
		left = OrExpression{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) conjunction() (Expression, error) {
	left, err := p.relational()
	if err != nil {
		return nil, err
	}
	for p.isPunct(p.peek(), "&&") {
		p.next()
		right, err := p.relational()
		if err != nil {
			return nil, err
		}
		left = AndExpression{Left: left, Right: right}
	}
	return left, nil
}

var compareOperators = map[string]CompareOperator{
	"=": Equals, "!=": NotEquals, "<": LessThan, "<=": LessThanOrEqual, ">": GreaterThan, ">=": GreaterThanOrEqual,
}

func (p *parser) relational() (Expression, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	if t.kind == tokPunct {
		if op, ok := compareOperators[t.text]; ok {
			p.next()
			right, err := p.unary()
			if err != nil {
				return nil, err
			}
			return CompareExpression{Left: left, Operator: op, Right: right}, nil
		}
	}
	negated := false
	if p.isWord(t, "NOT") {
		p.next()
		negated = true
		t = p.peek()
		if !p.isWord(t, "IN") {
			return nil, p.unexpected(t, "IN")
		}
	}
	if p.isWord(t, "IN") {
		p.next()
		list, err := p.argList()
		if err != nil {
			return nil, err
		}
		return InExpression{Expr: left, Negated: negated, Values: list}, nil
	}
	return left, nil
}

func (p *parser) unary() (Expression, error) {
	if p.isPunct(p.peek(), "!") {
		p.next()
		e, err := p.unary()
		if err != nil {
			return nil, err
		}
		return NotExpression{Expr: e}, nil
	}
	return p.primary()
}

func (p *parser) argList() ([]Expression, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var out []Expression
	if p.isPunct(p.peek(), ")") {
		p.next()
		return out, nil
	}
	for {
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
		t := p.next()
		if p.isPunct(t, ")") {
			return out, nil
		}
		if !p.isPunct(t, ",") {
			return nil, p.unexpected(t, `"," or ")"`)
		}
	}
}

var aggregates = map[string]AggregateFunction{
	"COUNT": Count, "GROUP_CONCAT": GroupConcat, "MIN": Min, "MAX": Max, "SAMPLE": Sample,
}

func (p *parser) primary() (Expression, error) {
	t := p.peek()
	switch {
	case p.isPunct(t, "("):
		p.next()
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		if err = p.expectPunct(")"); err != nil {
			return nil, err
		}
		return e, nil
	case t.kind == tokWord && !p.isWord(t, "true") && !p.isWord(t, "false"):
		p.next()
		name := strings.ToUpper(t.text)
		if fn, ok := aggregates[name]; ok {
			return p.aggregate(fn)
		}
		args, err := p.argList()
		if err != nil {
			return nil, err
		}
		return FunctionCallExpression{Name: name, Args: args}, nil
	}
	e, err := p.term()
	if err != nil {
		return nil, err
	}
	if iri, ok := e.(IriRef); ok && p.isPunct(p.peek(), "(") {
		args, err := p.argList()
		if err != nil {
			return nil, err
		}
		return FunctionCallExpression{Iri: iri.Iri, Args: args}, nil
	}
	return e, nil
}

func (p *parser) aggregate(fn AggregateFunction) (Expression, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	agg := AggregateExpression{Function: fn}
	if p.isWord(p.peek(), "DISTINCT") {
		p.next()
		agg.Distinct = true
	}
	if p.isPunct(p.peek(), "*") {
		if fn != Count {
			return nil, p.unexpected(p.peek(), "expression")
		}
		p.next()
	} else {
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		agg.Expr = e
	}
	if fn == GroupConcat && p.isPunct(p.peek(), ";") {
		p.next()
		if err := p.expectWord("SEPARATOR"); err != nil {
			return nil, err
		}
		if err := p.expectPunct("="); err != nil {
			return nil, err
		}
		s := p.next()
		if s.kind != tokString {
			return nil, p.unexpected(s, "string")
		}
		agg.Separator = s.text
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return agg, nil
}
