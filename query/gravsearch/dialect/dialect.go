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

// Package dialect adapts generated queries to the triple store they run on.
//
// Generated queries mark statements that must match explicit data only
// with the knora.ExplicitGraph named graph. A dialect rewrites that marker
// into what the store understands and, for stores without inference,
// expands class and property hierarchies with property paths.
package dialect

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cayleygraph/quad"

	"github.com/dasch-swiss/gravsearch/ontology"
	"github.com/dasch-swiss/gravsearch/query/gravsearch"
	"github.com/dasch-swiss/gravsearch/query/sparql"
	"github.com/dasch-swiss/gravsearch/voc/knora"
)

// Registration describes a triple store dialect.
type Registration struct {
	// Inference is true if the store applies RDFS inference when answering queries.
	Inference bool
	// ExplicitGraph is the store's graph of explicit statements. It replaces
	// knora.ExplicitGraph in queries; an empty value drops the marker.
	ExplicitGraph quad.IRI
	// QueryPath is the path of the SPARQL endpoint relative to the store URL.
	// "%s" is replaced with the repository name.
	QueryPath string
}

var registry = make(map[string]Registration)

// Register adds a dialect. It panics if the name is already taken.
func Register(name string, r Registration) {
	if _, ok := registry[name]; ok {
		panic(fmt.Sprintf("dialect %q already registered", name))
	}
	if r.Inference && r.ExplicitGraph == "" {
		panic("an inferring dialect needs an explicit graph")
	}
	registry[name] = r
}

// Lookup returns the registration of a dialect.
func Lookup(name string) (Registration, error) {
	r, ok := registry[name]
	if !ok {
		return Registration{}, gravsearch.Errorf(gravsearch.DialectUnsupported,
			"unsupported triple store dialect %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return r, nil
}

// Names lists registered dialects.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Dialect rewrites queries for one triple store.
type Dialect struct {
	name string
	reg  Registration
	ont  ontology.Provider
}

// New returns the named dialect. The ontology is needed to expand
// hierarchies for stores without inference.
func New(name string, ont ontology.Provider) (*Dialect, error) {
	reg, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return &Dialect{name: name, reg: reg, ont: ont}, nil
}

func (d *Dialect) Name() string { return d.name }

// Inference reports whether the store infers statements.
func (d *Dialect) Inference() bool { return d.reg.Inference }

// Path returns the endpoint path for a repository.
func (r Registration) Path(repository string) string {
	if !strings.Contains(r.QueryPath, "%s") {
		return r.QueryPath
	}
	return fmt.Sprintf(r.QueryPath, repository)
}

// QueryPath returns the endpoint path for a repository.
func (d *Dialect) QueryPath(repository string) string { return d.reg.Path(repository) }

// Select adapts a query that relies on inference, such as a prequery.
func (d *Dialect) Select(q *sparql.SelectQuery) *sparql.SelectQuery {
	out := *q
	out.WhereClause = sparql.WhereClause{Patterns: d.inferring(q.WhereClause.Patterns, new(int))}
	return &out
}

// Construct adapts a CONSTRUCT query. Without inference, the query only
// matches explicit statements.
func (d *Dialect) Construct(q *sparql.ConstructQuery, inference bool) *sparql.ConstructQuery {
	out := *q
	switch {
	case inference:
		out.WhereClause = sparql.WhereClause{Patterns: d.inferring(q.WhereClause.Patterns, new(int))}
	case d.reg.Inference:
		out.FromGraph = d.reg.ExplicitGraph
		out.WhereClause = sparql.WhereClause{Patterns: rewrite(q.WhereClause.Patterns, func(st sparql.StatementPattern) []sparql.QueryPattern {
			if st.NamedGraph == knora.ExplicitGraph {
				st.NamedGraph = ""
			}
			return []sparql.QueryPattern{st}
		})}
	default:
		out.WhereClause = sparql.WhereClause{Patterns: rewrite(q.WhereClause.Patterns, d.explicitStatement)}
	}
	return &out
}

func (d *Dialect) explicitStatement(st sparql.StatementPattern) []sparql.QueryPattern {
	if st.NamedGraph == knora.ExplicitGraph {
		st.NamedGraph = d.reg.ExplicitGraph
	}
	return []sparql.QueryPattern{st}
}

func (d *Dialect) inferring(ps []sparql.QueryPattern, n *int) []sparql.QueryPattern {
	if d.reg.Inference {
		return rewrite(ps, func(st sparql.StatementPattern) []sparql.QueryPattern {
			if _, ok := st.Pred.(sparql.Variable); ok && st.NamedGraph == "" {
				// inferred statements have no predicate to bind
				st.NamedGraph = knora.ExplicitGraph
			}
			return d.explicitStatement(st)
		})
	}
	return rewrite(ps, func(st sparql.StatementPattern) []sparql.QueryPattern {
		if st.NamedGraph == knora.ExplicitGraph {
			return d.explicitStatement(st)
		}
		return d.expand(st, n)
	})
}

// expand emulates RDFS inference for one statement with property paths.
func (d *Dialect) expand(st sparql.StatementPattern, n *int) []sparql.QueryPattern {
	pred, ok := st.Pred.(sparql.IriRef)
	if !ok || pred.PropertyPathOperator != "" {
		return []sparql.QueryPattern{st}
	}
	fresh := func(prefix string) sparql.Variable {
		*n++
		return sparql.Var(prefix + "__" + strconv.Itoa(*n))
	}
	if pred.Iri == knora.RDFType {
		class, ok := st.Obj.(sparql.IriRef)
		if !ok {
			return []sparql.QueryPattern{st}
		}
		t := fresh("subClass")
		return []sparql.QueryPattern{
			sparql.StatementPattern{Subj: st.Subj, Pred: pred, Obj: t, NamedGraph: st.NamedGraph},
			sparql.Statement(t, sparql.IriRef{Iri: knora.RDFSSubClassOf, PropertyPathOperator: "*"}, class),
		}
	}
	if !d.ont.HasSubProperties(pred.Iri) {
		return []sparql.QueryPattern{st}
	}
	p := fresh("subProperty")
	return []sparql.QueryPattern{
		sparql.StatementPattern{Subj: st.Subj, Pred: p, Obj: st.Obj, NamedGraph: st.NamedGraph},
		sparql.Statement(p, sparql.IriRef{Iri: knora.RDFSSubPropertyOf, PropertyPathOperator: "*"}, pred),
	}
}

// rewrite replaces every statement, at any depth, with the patterns fn returns.
func rewrite(ps []sparql.QueryPattern, fn func(sparql.StatementPattern) []sparql.QueryPattern) []sparql.QueryPattern {
	out := make([]sparql.QueryPattern, 0, len(ps))
	for _, p := range ps {
		switch p := p.(type) {
		case sparql.StatementPattern:
			out = append(out, fn(p)...)
		case sparql.OptionalPattern:
			out = append(out, sparql.OptionalPattern{Patterns: rewrite(p.Patterns, fn)})
		case sparql.MinusPattern:
			out = append(out, sparql.MinusPattern{Patterns: rewrite(p.Patterns, fn)})
		case sparql.FilterNotExistsPattern:
			out = append(out, sparql.FilterNotExistsPattern{Patterns: rewrite(p.Patterns, fn)})
		case sparql.UnionPattern:
			blocks := make([][]sparql.QueryPattern, len(p.Blocks))
			for i, b := range p.Blocks {
				blocks[i] = rewrite(b, fn)
			}
			out = append(out, sparql.UnionPattern{Blocks: blocks})
		default:
			out = append(out, p)
		}
	}
	return out
}
