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

// Package sparql contains the query AST shared by the Gravsearch pipeline,
// together with a serializer and a parser for the SPARQL subset it uses.
//
// All nodes are values. Transformations build new trees instead of
// mutating the ones they receive.
package sparql

import (
	"fmt"
	"strconv"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/voc/xsd"
)

// Schema is the ontology schema a query is expressed in.
type Schema uint8

const (
	InternalSchema Schema = iota
	ApiV2Simple
	ApiV2Complex
)

func (s Schema) String() string {
	switch s {
	case InternalSchema:
		return "internal"
	case ApiV2Simple:
		return "simple"
	case ApiV2Complex:
		return "complex"
	}
	return fmt.Sprintf("Schema(%d)", int(s))
}

// Entity is a term that can appear in a statement: a Variable, an IriRef or a Literal.
type Entity interface {
	Expression
	isEntity()
}

// Variable is a query variable, named without the leading '?'.
type Variable struct {
	Name string
}

// IriRef is an IRI in a query. A non-empty PropertyPathOperator ("*" or "+")
// turns the IRI into a one-step property path in predicate position.
type IriRef struct {
	Iri                  quad.IRI
	PropertyPathOperator string
}

// Literal is a typed literal. An empty Datatype is equivalent to xsd:string.
type Literal struct {
	Value    string
	Datatype quad.IRI
}

func (Variable) isEntity() {}
func (IriRef) isEntity()   {}
func (Literal) isEntity()  {}

func (Variable) isExpression() {}
func (IriRef) isExpression()   {}
func (Literal) isExpression()  {}

// Iri is a shorthand for an IriRef without a property path.
func Iri(iri quad.IRI) IriRef { return IriRef{Iri: iri} }

// Var is a shorthand for a Variable.
func Var(name string) Variable { return Variable{Name: name} }

// StringLiteral returns an xsd:string literal.
func StringLiteral(s string) Literal { return Literal{Value: s, Datatype: xsd.NS + "string"} }

// BoolLiteral returns an xsd:boolean literal.
func BoolLiteral(b bool) Literal {
	return Literal{Value: strconv.FormatBool(b), Datatype: xsd.NS + "boolean"}
}

// IntLiteral returns an xsd:integer literal.
func IntLiteral(n int64) Literal {
	return Literal{Value: strconv.FormatInt(n, 10), Datatype: xsd.NS + "integer"}
}

// Expression is a filter, projection or bind expression.
type Expression interface {
	fmt.Stringer
	isExpression()
}

// CompareOperator is a binary relational operator.
type CompareOperator string

const (
	Equals             CompareOperator = "="
	NotEquals          CompareOperator = "!="
	LessThan           CompareOperator = "<"
	LessThanOrEqual    CompareOperator = "<="
	GreaterThan        CompareOperator = ">"
	GreaterThanOrEqual CompareOperator = ">="
)

// CompareExpression compares two expressions.
type CompareExpression struct {
	Left     Expression
	Operator CompareOperator
	Right    Expression
}

// AndExpression is a logical conjunction.
type AndExpression struct {
	Left, Right Expression
}

// OrExpression is a logical disjunction.
type OrExpression struct {
	Left, Right Expression
}

// NotExpression is a logical negation.
type NotExpression struct {
	Expr Expression
}

// InExpression tests membership of Expr in Values; Negated turns it into NOT IN.
type InExpression struct {
	Expr    Expression
	Negated bool
	Values  []Expression
}

// FunctionCallExpression calls either a built-in function (Name, upper case)
// or a function identified by an IRI.
type FunctionCallExpression struct {
	Name string
	Iri  quad.IRI
	Args []Expression
}

// AggregateFunction is the name of an aggregate.
type AggregateFunction string

const (
	Count       AggregateFunction = "COUNT"
	GroupConcat AggregateFunction = "GROUP_CONCAT"
	Min         AggregateFunction = "MIN"
	Max         AggregateFunction = "MAX"
	Sample      AggregateFunction = "SAMPLE"
)

// AggregateExpression applies an aggregate function. A nil Expr means '*'.
type AggregateExpression struct {
	Function  AggregateFunction
	Distinct  bool
	Expr      Expression
	Separator string
}

func (CompareExpression) isExpression()      {}
func (AndExpression) isExpression()          {}
func (OrExpression) isExpression()           {}
func (NotExpression) isExpression()          {}
func (InExpression) isExpression()           {}
func (FunctionCallExpression) isExpression() {}
func (AggregateExpression) isExpression()    {}

// Call is a shorthand for a built-in function call.
func Call(name string, args ...Expression) FunctionCallExpression {
	return FunctionCallExpression{Name: name, Args: args}
}

// QueryPattern is an element of a WHERE clause.
type QueryPattern interface {
	isPattern()
}

// StatementPattern is a triple pattern, optionally restricted to a named graph.
type StatementPattern struct {
	Subj       Entity
	Pred       Entity
	Obj        Entity
	NamedGraph quad.IRI
}

// FilterPattern is FILTER(expr).
type FilterPattern struct {
	Expr Expression
}

// OptionalPattern is OPTIONAL { ... }.
type OptionalPattern struct {
	Patterns []QueryPattern
}

// UnionPattern is { ... } UNION { ... }.
type UnionPattern struct {
	Blocks [][]QueryPattern
}

// MinusPattern is MINUS { ... }.
type MinusPattern struct {
	Patterns []QueryPattern
}

// FilterNotExistsPattern is FILTER NOT EXISTS { ... }.
type FilterNotExistsPattern struct {
	Patterns []QueryPattern
}

// ValuesPattern is VALUES ?var { ... }.
type ValuesPattern struct {
	Var    Variable
	Values []Entity
}

// BindPattern is BIND(expr AS ?var).
type BindPattern struct {
	Expr Expression
	Var  Variable
}

func (StatementPattern) isPattern()       {}
func (FilterPattern) isPattern()          {}
func (OptionalPattern) isPattern()        {}
func (UnionPattern) isPattern()           {}
func (MinusPattern) isPattern()           {}
func (FilterNotExistsPattern) isPattern() {}
func (ValuesPattern) isPattern()          {}
func (BindPattern) isPattern()            {}

// Statement is a shorthand for a StatementPattern in the default graph.
func Statement(s, p, o Entity) StatementPattern {
	return StatementPattern{Subj: s, Pred: p, Obj: o}
}

// WhereClause is the body of a query.
type WhereClause struct {
	Patterns []QueryPattern
}

// OrderCriterion sorts solutions by a variable.
type OrderCriterion struct {
	Var       Variable
	Ascending bool
}

// Projection is a selected variable, or an expression bound to a variable.
type Projection struct {
	Expr Expression
	Var  Variable
}

// Query is either a *ConstructQuery or a *SelectQuery.
type Query interface {
	fmt.Stringer
	isQuery()
}

// ConstructQuery is a CONSTRUCT query. For Gravsearch input, Offset is a page number.
type ConstructQuery struct {
	ConstructClause []StatementPattern
	FromGraph       quad.IRI
	WhereClause     WhereClause
	OrderBy         []OrderCriterion
	Offset          int64
	QuerySchema     Schema
}

// SelectQuery is a SELECT query.
type SelectQuery struct {
	Distinct    bool
	Variables   []Projection
	FromGraph   quad.IRI
	WhereClause WhereClause
	GroupBy     []Variable
	OrderBy     []OrderCriterion
	Offset      int64
	Limit       int64
}

func (*ConstructQuery) isQuery() {}
func (*SelectQuery) isQuery()    {}
