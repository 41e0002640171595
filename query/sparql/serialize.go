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

	"github.com/cayleygraph/quad/voc/xsd"
)

const indent = "    "

func (v Variable) String() string { return "?" + v.Name }

func (i IriRef) String() string { return i.Iri.String() + i.PropertyPathOperator }

func (l Literal) String() string {
	if l.Datatype == "" || l.Datatype == xsd.NS+"string" {
		return quoteString(l.Value)
	}
	return quoteString(l.Value) + "^^" + l.Datatype.String()
}

// quoteString renders s as a SPARQL string literal. Control characters
// are written as \u escapes so the output stays on one line.
func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04X`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

func (e CompareExpression) String() string {
	return e.Left.String() + " " + string(e.Operator) + " " + e.Right.String()
}

func (e AndExpression) String() string {
	return "(" + e.Left.String() + " && " + e.Right.String() + ")"
}

func (e OrExpression) String() string {
	return "(" + e.Left.String() + " || " + e.Right.String() + ")"
}

func (e NotExpression) String() string {
	switch e.Expr.(type) {
	case CompareExpression, InExpression:
		return "!(" + e.Expr.String() + ")"
	}
	return "!" + e.Expr.String()
}

func (e InExpression) String() string {
	op := " IN "
	if e.Negated {
		op = " NOT IN "
	}
	return e.Expr.String() + op + "(" + joinExpressions(e.Values) + ")"
}

func (e FunctionCallExpression) String() string {
	name := e.Name
	if e.Iri != "" {
		name = e.Iri.String()
	}
	return name + "(" + joinExpressions(e.Args) + ")"
}

func (e AggregateExpression) String() string {
	var b strings.Builder
	b.WriteString(string(e.Function))
	b.WriteByte('(')
	if e.Distinct {
		b.WriteString("DISTINCT ")
	}
	if e.Expr == nil {
		b.WriteByte('*')
	} else {
		b.WriteString(e.Expr.String())
	}
	if e.Function == GroupConcat && e.Separator != "" {
		b.WriteString("; SEPARATOR=")
		b.WriteString(quoteString(e.Separator))
	}
	b.WriteByte(')')
	return b.String()
}

func joinExpressions(list []Expression) string {
	parts := make([]string, 0, len(list))
	for _, e := range list {
		parts = append(parts, e.String())
	}
	return strings.Join(parts, ", ")
}

func (s StatementPattern) String() string {
	st := s.Subj.String() + " " + s.Pred.String() + " " + s.Obj.String() + " ."
	if s.NamedGraph != "" {
		return "GRAPH " + s.NamedGraph.String() + " { " + st + " }"
	}
	return st
}

func (p Projection) String() string {
	if p.Expr == nil {
		return p.Var.String()
	}
	return "(" + p.Expr.String() + " AS " + p.Var.String() + ")"
}

func (c OrderCriterion) String() string {
	if c.Ascending {
		return "ASC(" + c.Var.String() + ")"
	}
	return "DESC(" + c.Var.String() + ")"
}

type writer struct {
	b strings.Builder
}

func (w *writer) line(depth int, s string) {
	for i := 0; i < depth; i++ {
		w.b.WriteString(indent)
	}
	w.b.WriteString(s)
	w.b.WriteByte('\n')
}

func (w *writer) patterns(depth int, list []QueryPattern) {
	for _, p := range list {
		w.pattern(depth, p)
	}
}

func (w *writer) block(depth int, head string, list []QueryPattern) {
	w.line(depth, head+"{")
	w.patterns(depth+1, list)
	w.line(depth, "}")
}

func (w *writer) pattern(depth int, p QueryPattern) {
	switch p := p.(type) {
	case StatementPattern:
		w.line(depth, p.String())
	case FilterPattern:
		w.line(depth, "FILTER("+p.Expr.String()+")")
	case OptionalPattern:
		w.block(depth, "OPTIONAL ", p.Patterns)
	case MinusPattern:
		w.block(depth, "MINUS ", p.Patterns)
	case FilterNotExistsPattern:
		w.block(depth, "FILTER NOT EXISTS ", p.Patterns)
	case UnionPattern:
		for i, b := range p.Blocks {
			if i == 0 {
				w.line(depth, "{")
			} else {
				w.line(depth, "} UNION {")
			}
			w.patterns(depth+1, b)
		}
		w.line(depth, "}")
	case ValuesPattern:
		vals := make([]string, 0, len(p.Values))
		for _, v := range p.Values {
			vals = append(vals, v.String())
		}
		w.line(depth, "VALUES "+p.Var.String()+" { "+strings.Join(vals, " ")+" }")
	case BindPattern:
		w.line(depth, "BIND("+p.Expr.String()+" AS "+p.Var.String()+")")
	default:
		panic(fmt.Errorf("sparql: unsupported pattern type %T", p))
	}
}

func (w *writer) where(c WhereClause) {
	w.line(0, "WHERE {")
	w.patterns(1, c.Patterns)
	w.line(0, "}")
}

func (w *writer) modifiers(orderBy []OrderCriterion, offset, limit int64) {
	if len(orderBy) > 0 {
		parts := make([]string, 0, len(orderBy))
		for _, c := range orderBy {
			parts = append(parts, c.String())
		}
		w.line(0, "ORDER BY "+strings.Join(parts, " "))
	}
	if offset > 0 {
		w.line(0, "OFFSET "+strconv.FormatInt(offset, 10))
	}
	if limit > 0 {
		w.line(0, "LIMIT "+strconv.FormatInt(limit, 10))
	}
}

// String renders the query as SPARQL. All IRIs are written in full.
func (q *ConstructQuery) String() string {
	var w writer
	w.line(0, "CONSTRUCT {")
	for _, s := range q.ConstructClause {
		w.line(1, s.String())
	}
	w.line(0, "}")
	if q.FromGraph != "" {
		w.line(0, "FROM "+q.FromGraph.String())
	}
	w.where(q.WhereClause)
	w.modifiers(q.OrderBy, q.Offset, 0)
	return w.b.String()
}

// String renders the query as SPARQL. All IRIs are written in full.
func (q *SelectQuery) String() string {
	var w writer
	head := "SELECT "
	if q.Distinct {
		head += "DISTINCT "
	}
	if len(q.Variables) == 0 {
		head += "*"
	} else {
		parts := make([]string, 0, len(q.Variables))
		for _, p := range q.Variables {
			parts = append(parts, p.String())
		}
		head += strings.Join(parts, " ")
	}
	w.line(0, head)
	if q.FromGraph != "" {
		w.line(0, "FROM "+q.FromGraph.String())
	}
	w.where(q.WhereClause)
	if len(q.GroupBy) > 0 {
		parts := make([]string, 0, len(q.GroupBy))
		for _, v := range q.GroupBy {
			parts = append(parts, v.String())
		}
		w.line(0, "GROUP BY "+strings.Join(parts, " "))
	}
	w.modifiers(q.OrderBy, q.Offset, q.Limit)
	return w.b.String()
}
