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

// Package typeinspect infers the types of the variables and IRIs of a
// Gravsearch query from explicit type annotations, the ontology and the
// way entities are used.
package typeinspect

import (
	"sort"
	"strings"

	"github.com/cayleygraph/quad"

	"github.com/dasch-swiss/gravsearch/clog"
	"github.com/dasch-swiss/gravsearch/ontology"
	"github.com/dasch-swiss/gravsearch/query/gravsearch"
	"github.com/dasch-swiss/gravsearch/query/sparql"
	"github.com/dasch-swiss/gravsearch/voc/knora"
)

// Inspector runs type inference against an ontology.
type Inspector struct {
	ont ontology.Provider
}

// New returns an inspector using ont.
func New(ont ontology.Provider) *Inspector {
	return &Inspector{ont: ont}
}

type typeSet map[quad.IRI]struct{}

func (s typeSet) sorted() []quad.IRI {
	out := make([]quad.IRI, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type operandPair struct {
	a, b gravsearch.TypeableEntity
}

type state struct {
	ont ontology.Provider

	nonProp map[gravsearch.TypeableEntity]typeSet
	props   map[gravsearch.TypeableEntity]typeSet
	// weak hints only apply to entities nothing else types
	weak map[gravsearch.TypeableEntity]typeSet

	seen     map[gravsearch.TypeableEntity]struct{}
	required map[gravsearch.TypeableEntity]struct{}
	order    []gravsearch.TypeableEntity

	statements []sparql.StatementPattern
	compares   []operandPair
	defaults   []operandPair
	textArgs   []gravsearch.TypeableEntity
}

func (s *state) see(e gravsearch.TypeableEntity, required bool) {
	if _, ok := s.seen[e]; !ok {
		s.seen[e] = struct{}{}
		s.order = append(s.order, e)
	}
	if required {
		s.required[e] = struct{}{}
	}
}

func add(m map[gravsearch.TypeableEntity]typeSet, e gravsearch.TypeableEntity, t quad.IRI) bool {
	if t == "" {
		return false
	}
	set := m[e]
	if set == nil {
		set = make(typeSet)
		m[e] = set
	}
	if _, ok := set[t]; ok {
		return false
	}
	set[t] = struct{}{}
	return true
}

// normalize reduces resource classes to knora-base:Resource.
func (s *state) normalize(t quad.IRI) quad.IRI {
	if c, ok := s.ont.Class(t); ok && c.IsResourceClass {
		return knora.Resource
	}
	return t
}

func (s *state) addType(e gravsearch.TypeableEntity, t quad.IRI) bool {
	s.see(e, false)
	return add(s.nonProp, e, s.normalize(t))
}

func (s *state) addObjectType(e gravsearch.TypeableEntity, t quad.IRI) bool {
	s.see(e, false)
	if _, ok := s.props[e]; !ok {
		s.props[e] = make(typeSet)
	}
	return add(s.props, e, s.normalize(t))
}

func (s *state) isValueClass(t quad.IRI) bool {
	c, ok := s.ont.Class(t)
	return ok && c.IsValueClass
}

// Inspect infers the type of every typeable entity in where. It returns the
// result together with the patterns left once type annotations have been
// removed.
func (in *Inspector) Inspect(where sparql.WhereClause) (*gravsearch.TypeInspectionResult, sparql.WhereClause, error) {
	s := &state{
		ont:      in.ont,
		nonProp:  make(map[gravsearch.TypeableEntity]typeSet),
		props:    make(map[gravsearch.TypeableEntity]typeSet),
		weak:     make(map[gravsearch.TypeableEntity]typeSet),
		seen:     make(map[gravsearch.TypeableEntity]struct{}),
		required: make(map[gravsearch.TypeableEntity]struct{}),
	}
	cleaned, err := s.collect(where.Patterns, false)
	if err != nil {
		return nil, sparql.WhereClause{}, err
	}
	s.run()
	res, err := s.resolve()
	if err != nil {
		return nil, sparql.WhereClause{}, err
	}
	if clog.V(3) {
		for _, e := range s.order {
			if t, ok := res.Entities[e]; ok {
				clog.Infof("type of %v: %v", e, t)
			}
		}
	}
	return res, sparql.WhereClause{Patterns: cleaned}, nil
}

// collect records annotations, statements and filters, and returns ps
// without the annotations.
func (s *state) collect(ps []sparql.QueryPattern, negated bool) ([]sparql.QueryPattern, error) {
	out := make([]sparql.QueryPattern, 0, len(ps))
	for _, p := range ps {
		switch p := p.(type) {
		case sparql.StatementPattern:
			keep, err := s.statement(p, negated)
			if err != nil {
				return nil, err
			}
			if keep {
				out = append(out, p)
			}
		case sparql.FilterPattern:
			s.filter(p.Expr, !negated)
			out = append(out, p)
		case sparql.OptionalPattern:
			sub, err := s.collect(p.Patterns, negated)
			if err != nil {
				return nil, err
			}
			out = append(out, sparql.OptionalPattern{Patterns: sub})
		case sparql.MinusPattern:
			sub, err := s.collect(p.Patterns, true)
			if err != nil {
				return nil, err
			}
			out = append(out, sparql.MinusPattern{Patterns: sub})
		case sparql.FilterNotExistsPattern:
			sub, err := s.collect(p.Patterns, true)
			if err != nil {
				return nil, err
			}
			out = append(out, sparql.FilterNotExistsPattern{Patterns: sub})
		case sparql.UnionPattern:
			blocks := make([][]sparql.QueryPattern, len(p.Blocks))
			for i, b := range p.Blocks {
				sub, err := s.collect(b, negated)
				if err != nil {
					return nil, err
				}
				blocks[i] = sub
			}
			out = append(out, sparql.UnionPattern{Blocks: blocks})
		case sparql.ValuesPattern:
			v := gravsearch.TypeableVariable{Name: p.Var.Name}
			s.see(v, false)
			for _, val := range p.Values {
				if _, ok := val.(sparql.IriRef); ok {
					add(s.weak, v, knora.Resource)
				} else if lit, ok := val.(sparql.Literal); ok {
					add(s.weak, v, lit.Datatype)
				}
			}
			out = append(out, p)
		default:
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *state) statement(st sparql.StatementPattern, negated bool) (bool, error) {
	subj, subjOK := gravsearch.ToTypeable(st.Subj)
	obj, objOK := gravsearch.ToTypeable(st.Obj)
	pred, ok := st.Pred.(sparql.IriRef)
	if !ok {
		if v, ok := st.Pred.(sparql.Variable); ok {
			pv := gravsearch.TypeableVariable{Name: v.Name}
			s.see(pv, !negated)
			if _, ok := s.props[pv]; !ok {
				s.props[pv] = make(typeSet)
			}
		}
		if subjOK {
			s.see(subj, !negated)
		}
		if objOK {
			s.see(obj, !negated)
		}
		s.statements = append(s.statements, st)
		return true, nil
	}

	switch pred.Iri {
	case knora.RDFType:
		class, ok := st.Obj.(sparql.IriRef)
		if !ok {
			if subjOK {
				s.see(subj, !negated)
			}
			return true, nil
		}
		if !subjOK {
			return false, gravsearch.Errorf(gravsearch.QuerySyntax, "literal subject of rdf:type")
		}
		s.see(subj, !negated)
		switch {
		case class.Iri == knora.Resource:
			s.addType(subj, knora.Resource)
			return false, nil
		case s.isValueClass(class.Iri) || gravsearch.IsSimpleLiteralType(class.Iri):
			s.addType(subj, class.Iri)
			return false, nil
		}
		c, ok := s.ont.Class(class.Iri)
		if !ok {
			return false, gravsearch.Errorf(gravsearch.OntologyConstraint, "unknown class %v", class.Iri)
		}
		if c.IsResourceClass {
			s.addType(subj, knora.Resource)
		} else {
			s.addType(subj, class.Iri)
		}
		return true, nil
	case knora.ObjectClassConstraint:
		class, ok := st.Obj.(sparql.IriRef)
		if !subjOK || !ok {
			return false, gravsearch.Errorf(gravsearch.QuerySyntax, "objectType annotation needs a property and a class IRI")
		}
		s.addObjectType(subj, class.Iri)
		return false, nil
	}

	pt := gravsearch.TypeableIri{Iri: pred.Iri}
	if _, ok := s.ont.Property(pred.Iri); !ok {
		return false, gravsearch.Errorf(gravsearch.OntologyConstraint, "unknown property %v", pred.Iri)
	}
	s.see(pt, !negated)
	if _, ok := s.props[pt]; !ok {
		s.props[pt] = make(typeSet)
	}
	if subjOK {
		s.see(subj, !negated)
	}
	// objects of rdf:predicate are properties named as data
	if objOK && pred.Iri != knora.RDFPredicate {
		s.see(obj, !negated)
	}
	s.statements = append(s.statements, st)
	return true, nil
}

var textFunctions = map[string]bool{
	"REGEX": true, "LANG": true, "CONTAINS": true, "STRSTARTS": true, "STRENDS": true,
}

// filter records the relations a filter expression establishes. Entities of
// filters in positive contexts must be typed.
func (s *state) filter(e sparql.Expression, required bool) {
	switch e := e.(type) {
	case sparql.CompareExpression:
		s.operands(e.Left, []sparql.Expression{e.Right}, required)
	case sparql.InExpression:
		s.operands(e.Expr, e.Values, required)
	case sparql.AndExpression:
		s.filter(e.Left, required)
		s.filter(e.Right, required)
	case sparql.OrExpression:
		s.filter(e.Left, required)
		s.filter(e.Right, required)
	case sparql.NotExpression:
		s.filter(e.Expr, required)
	case sparql.FunctionCallExpression:
		text := textFunctions[e.Name] || e.Iri == knora.MatchFunction
		for i, a := range e.Args {
			if ent, ok := a.(sparql.Variable); ok {
				te := gravsearch.TypeableVariable{Name: ent.Name}
				s.see(te, required)
				if text && i == 0 {
					s.textArgs = append(s.textArgs, te)
				}
				continue
			}
			s.filter(a, required)
		}
	}
}

func (s *state) operands(left sparql.Expression, rights []sparql.Expression, required bool) {
	l, lok := left.(sparql.Entity)
	if !lok {
		s.filter(left, required)
	}
	for _, r := range rights {
		re, rok := r.(sparql.Entity)
		if !rok {
			s.filter(r, required)
		}
		if !lok || !rok {
			continue
		}
		lt, lTypeable := gravsearch.ToTypeable(l)
		rt, rTypeable := gravsearch.ToTypeable(re)
		if lTypeable {
			s.see(lt, required)
		}
		if rTypeable {
			s.see(rt, required)
		}
		switch {
		case lTypeable && rTypeable:
			s.compares = append(s.compares, operandPair{lt, rt})
			if _, isIri := re.(sparql.IriRef); isIri {
				s.defaults = append(s.defaults, operandPair{lt, rt})
			} else if _, isIri := l.(sparql.IriRef); isIri {
				s.defaults = append(s.defaults, operandPair{rt, lt})
			}
		case lTypeable:
			if lit, ok := re.(sparql.Literal); ok {
				add(s.weak, lt, literalType(lit))
			}
		case rTypeable:
			if lit, ok := l.(sparql.Literal); ok {
				add(s.weak, rt, literalType(lit))
			}
		}
	}
}

func literalType(l sparql.Literal) quad.IRI {
	if l.Datatype == "" {
		return knora.XSDString
	}
	return l.Datatype
}

// run applies the inference rules until nothing changes. Every pass either
// adds a type or stops, so the loop is bounded by the number of types.
func (s *state) run() {
	for {
		for s.pass() {
		}
		if !s.applyDefaults() {
			return
		}
	}
}

func (s *state) pass() bool {
	changed := false
	for _, st := range s.statements {
		subj, subjOK := gravsearch.ToTypeable(st.Subj)
		obj, objOK := gravsearch.ToTypeable(st.Obj)
		switch pred := st.Pred.(type) {
		case sparql.IriRef:
			pt := gravsearch.TypeableIri{Iri: pred.Iri}
			info, _ := s.ont.Property(pred.Iri)
			if ot := info.ObjectType(); ot != "" {
				changed = s.addObjectType(pt, ot) || changed
				if objOK && pred.Iri != knora.RDFPredicate {
					changed = s.addType(obj, ot) || changed
				}
			}
			if subjOK {
				if info.IsResourceProperty {
					changed = s.addType(subj, knora.Resource) || changed
				} else if info.SubjectClassConstraint != "" {
					changed = s.addType(subj, info.SubjectClassConstraint) || changed
				}
			}
		case sparql.Variable:
			pv := gravsearch.TypeableVariable{Name: pred.Name}
			if objOK {
				for t := range s.nonProp[obj] {
					changed = s.addObjectType(pv, t) || changed
				}
				for t := range s.props[pv] {
					changed = s.addType(obj, t) || changed
				}
			}
			if subjOK {
				for t := range s.props[pv] {
					if t == knora.Resource || s.isValueClass(t) {
						changed = s.addType(subj, knora.Resource) || changed
						break
					}
				}
			}
		}
	}
	for _, c := range s.compares {
		changed = s.share(c.a, c.b) || changed
		changed = s.share(c.b, c.a) || changed
	}
	for _, e := range s.textArgs {
		changed = s.addType(e, knora.XSDString) || changed
	}
	return changed
}

// share copies the types of from to to.
func (s *state) share(from, to gravsearch.TypeableEntity) bool {
	changed := false
	for t := range s.nonProp[from] {
		changed = s.addType(to, t) || changed
	}
	if _, ok := s.props[from]; ok {
		for t := range s.props[from] {
			changed = s.addObjectType(to, t) || changed
		}
	}
	return changed
}

// applyDefaults types IRIs compared with variables as resources when
// nothing else typed them.
func (s *state) applyDefaults() bool {
	changed := false
	for _, d := range s.defaults {
		iri := d.b.(gravsearch.TypeableIri)
		if _, ok := s.ont.Property(iri.Iri); ok {
			if s.addObjectTypeFromOntology(iri) {
				changed = true
			}
			continue
		}
		if len(s.nonProp[d.a]) == 0 && len(s.nonProp[d.b]) == 0 && len(s.props[d.a]) == 0 {
			changed = s.addType(d.b, knora.Resource) || changed
		}
	}
	return changed
}

func (s *state) addObjectTypeFromOntology(iri gravsearch.TypeableIri) bool {
	info, _ := s.ont.Property(iri.Iri)
	if ot := info.ObjectType(); ot != "" {
		return s.addObjectType(iri, ot)
	}
	if _, ok := s.props[iri]; !ok {
		s.props[iri] = make(typeSet)
		return true
	}
	return false
}

// resolve reduces every entity's candidate types to one.
func (s *state) resolve() (*gravsearch.TypeInspectionResult, error) {
	res := &gravsearch.TypeInspectionResult{Entities: make(map[gravsearch.TypeableEntity]gravsearch.TypeInfo)}
	for _, e := range s.order {
		objTypes, isProp := s.props[e]
		types := s.nonProp[e]
		_, required := s.required[e]
		if isProp {
			if len(types) > 0 {
				return nil, gravsearch.Errorf(gravsearch.TypeInference, "%v is used both as a property and as a %v", e, types.sorted()[0])
			}
			t, err := s.merge(e, objTypes)
			if err != nil {
				return nil, err
			}
			if _, iri := e.(gravsearch.TypeableIri); t == "" && !iri {
				if required {
					return nil, gravsearch.Errorf(gravsearch.TypeInference, "cannot infer the object type of property %v", e)
				}
				continue
			}
			res.Entities[e] = gravsearch.PropertyTypeInfo{ObjectType: t}
			continue
		}
		if len(types) == 0 {
			types = s.weak[e]
		}
		t, err := s.merge(e, types)
		if err != nil {
			return nil, err
		}
		if t == "" {
			if required {
				return nil, gravsearch.Errorf(gravsearch.TypeInference, "cannot infer the type of %v", e)
			}
			continue
		}
		res.Entities[e] = gravsearch.NonPropertyTypeInfo{Type: t}
	}
	return res, nil
}

func (s *state) merge(e gravsearch.TypeableEntity, types typeSet) (quad.IRI, error) {
	if len(types) == 0 {
		return "", nil
	}
	list := types.sorted()
	if len(list) == 1 {
		return list[0], nil
	}
	if _, ok := types[knora.Resource]; ok {
		return "", gravsearch.Errorf(gravsearch.TypeInference, "inconsistent types for %v: %s", e, join(list))
	}
	// a simple literal type yields to the value class it stands for
	var values []quad.IRI
	for _, t := range list {
		if s.isValueClass(t) {
			values = append(values, t)
		}
	}
	var rest []quad.IRI
	for _, t := range list {
		if s.isValueClass(t) {
			continue
		}
		absorbed := false
		for _, v := range values {
			if gravsearch.ValueClasses[v] == t {
				absorbed = true
				break
			}
		}
		if !absorbed {
			rest = append(rest, t)
		}
	}
	// keep the most specific value classes
	var specific []quad.IRI
	for _, v := range values {
		sub := false
		for _, w := range values {
			if w == v {
				continue
			}
			if c, ok := s.ont.Class(w); ok && c.IsSubClassOf(v) {
				sub = true
				break
			}
		}
		if !sub {
			specific = append(specific, v)
		}
	}
	final := append(specific, rest...)
	if len(final) != 1 {
		return "", gravsearch.Errorf(gravsearch.TypeInference, "inconsistent types for %v: %s", e, join(list))
	}
	return final[0], nil
}

func join(list []quad.IRI) string {
	parts := make([]string, len(list))
	for i, t := range list {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
