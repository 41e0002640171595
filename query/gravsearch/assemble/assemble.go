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

// Package assemble turns the statements returned by a main query into
// resources with their values, keeping only what the requesting user may see.
package assemble

import (
	"sort"
	"strconv"

	"github.com/cayleygraph/quad"

	"github.com/dasch-swiss/gravsearch/clog"
	"github.com/dasch-swiss/gravsearch/ontology"
	"github.com/dasch-swiss/gravsearch/permission"
	"github.com/dasch-swiss/gravsearch/query/gravsearch"
	"github.com/dasch-swiss/gravsearch/query/sparql"
	"github.com/dasch-swiss/gravsearch/standoff"
	"github.com/dasch-swiss/gravsearch/voc/knora"
)

// Minimum permissions needed to see a resource and a value.
const (
	ResourceVisibility = permission.RestrictedView
	ValueVisibility    = permission.View
)

// Resource is a resource with the values the query asked for.
type Resource struct {
	Iri                  quad.IRI
	Class                quad.IRI
	Label                string
	Creator              quad.IRI
	Project              quad.IRI
	Permissions          string
	UserPermission       permission.Permission
	CreationDate         string
	LastModificationDate string
	IsMainResource       bool
	// Values by property. Values of one property are sorted by
	// knora-base:valueHasOrder, then by IRI.
	Values map[quad.IRI][]*Value
}

// Properties returns the properties the resource has values for, sorted.
func (r *Resource) Properties() []quad.IRI {
	out := make([]quad.IRI, 0, len(r.Values))
	for p := range r.Values {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Value is a value object.
type Value struct {
	Iri            quad.IRI
	Class          quad.IRI
	Creator        quad.IRI
	Permissions    string
	UserPermission permission.Permission
	// Order is knora-base:valueHasOrder, or -1.
	Order int
	// Literals are the remaining statements of the value object, such as
	// knora-base:valueHasString, with values sorted.
	Literals map[quad.IRI][]string

	// Source and Target are the ends of a link value.
	Source quad.IRI
	Target quad.IRI
	// Nested is the resource at the other end of a link value: the target
	// of an outgoing link, the source of an incoming one. Link values of a
	// nested resource are not expanded further.
	Nested *Resource

	Mapping  quad.IRI
	Standoff []standoff.Tag
}

// IsLink reports whether the value is a link value.
func (v *Value) IsLink() bool { return v.Class == knora.LinkValue }

// Result is the output of Assemble.
type Result struct {
	// Resources are the visible main resources in prequery order.
	Resources []*Resource
	// Mappings are the standoff mappings referenced by text values.
	Mappings []quad.IRI
	// Hidden counts subjects dropped because the user may not see them.
	HiddenResources int
	HiddenValues    int
}

type subject struct {
	iri   quad.IRI
	props map[quad.IRI][]quad.Value
	types []quad.IRI
}

func (s *subject) single(p quad.IRI) (string, bool) {
	vals := s.props[p]
	if len(vals) == 0 {
		return "", false
	}
	return sparql.LexicalForm(vals[0]), true
}

func (s *subject) iriOf(p quad.IRI) quad.IRI {
	v, _ := s.single(p)
	return quad.IRI(v)
}

type assembler struct {
	ont      ontology.Provider
	user     *permission.User
	subjects map[quad.IRI]*subject
	res      *Result

	resources map[quad.IRI]*Resource
	hidden    map[quad.IRI]bool
	mappings  map[quad.IRI]struct{}
}

// Assemble builds the resources described by statements, in the order of
// orderBy. Subjects the user may not see are dropped together with the
// values that belong to them.
func Assemble(statements []quad.Quad, orderBy []quad.IRI, user *permission.User, ont ontology.Provider) (*Result, error) {
	a := &assembler{
		ont:       ont,
		user:      user,
		subjects:  make(map[quad.IRI]*subject),
		res:       &Result{},
		resources: make(map[quad.IRI]*Resource),
		hidden:    make(map[quad.IRI]bool),
		mappings:  make(map[quad.IRI]struct{}),
	}
	for _, q := range statements {
		s, ok := q.Subject.(quad.IRI)
		if !ok {
			continue
		}
		p, ok := q.Predicate.(quad.IRI)
		if !ok {
			continue
		}
		sub := a.subjects[s]
		if sub == nil {
			sub = &subject{iri: s, props: make(map[quad.IRI][]quad.Value)}
			a.subjects[s] = sub
		}
		sub.props[p] = append(sub.props[p], q.Object)
		if p == knora.RDFType {
			if t, ok := q.Object.(quad.IRI); ok {
				sub.types = append(sub.types, t)
			}
		}
	}
	if err := a.buildResources(); err != nil {
		return nil, err
	}
	if err := a.attachValues(); err != nil {
		return nil, err
	}
	a.linkResources()

	for _, iri := range orderBy {
		r, ok := a.resources[iri]
		if !ok || !r.IsMainResource {
			continue
		}
		a.res.Resources = append(a.res.Resources, r)
	}
	for m := range a.mappings {
		a.res.Mappings = append(a.res.Mappings, m)
	}
	sort.Slice(a.res.Mappings, func(i, j int) bool { return a.res.Mappings[i] < a.res.Mappings[j] })
	return a.res, nil
}

func (a *assembler) isResource(s *subject) bool {
	if v, ok := s.single(knora.IsMainResource); ok && v == "true" {
		return true
	}
	for _, t := range s.types {
		if c, ok := a.ont.Class(t); ok && c.IsResourceClass {
			return true
		}
	}
	_, ok := s.props[knora.AttachedToProject]
	return ok
}

func (a *assembler) resourceClass(s *subject) quad.IRI {
	for _, t := range s.types {
		if c, ok := a.ont.Class(t); ok && c.IsResourceClass && t != knora.Resource {
			return t
		}
	}
	if len(s.types) > 0 {
		return s.types[0]
	}
	return ""
}

func inconsistent(format string, args ...interface{}) error {
	err := gravsearch.Errorf(gravsearch.InconsistentRepositoryData, format, args...)
	clog.Errorf("%v", err)
	return err
}

func (a *assembler) buildResources() error {
	for _, iri := range sortedKeys(a.subjects) {
		s := a.subjects[iri]
		if !a.isResource(s) {
			continue
		}
		r := &Resource{Iri: iri, Class: a.resourceClass(s), Values: make(map[quad.IRI][]*Value)}
		if v, ok := s.single(knora.IsMainResource); ok && v == "true" {
			r.IsMainResource = true
		}
		var ok bool
		if r.Permissions, ok = s.single(knora.HasPermissions); !ok {
			return inconsistent("resource %s has no permissions", iri)
		}
		if r.Creator = s.iriOf(knora.AttachedToUser); r.Creator == "" {
			return inconsistent("resource %s has no creator", iri)
		}
		if r.Project = s.iriOf(knora.AttachedToProject); r.Project == "" {
			return inconsistent("resource %s is not attached to a project", iri)
		}
		if r.Class == "" {
			return inconsistent("resource %s has no type", iri)
		}
		deleted, _ := s.single(knora.IsDeleted)
		p, ok := permission.GetUserPermission(r.Creator, r.Project, r.Permissions, a.user)
		if !ok || p < ResourceVisibility || deleted == "true" {
			a.hidden[iri] = true
			a.res.HiddenResources++
			continue
		}
		r.UserPermission = p
		r.Label, _ = s.single(knora.RDFSLabel)
		r.CreationDate, _ = s.single(knora.CreationDate)
		r.LastModificationDate, _ = s.single(knora.LastModificationDate)
		a.resources[iri] = r
	}
	return nil
}

// valueMetadata are value object statements kept in fields rather than Literals.
var valueMetadata = map[quad.IRI]bool{
	knora.RDFType:          true,
	knora.AttachedToUser:   true,
	knora.HasPermissions:   true,
	knora.IsDeleted:        true,
	knora.ValueHasOrder:    true,
	knora.ValueHasStandoff: true,
	knora.ValueHasMapping:  true,
	knora.RDFSubject:       true,
	knora.RDFObject:        true,
}

func (a *assembler) isValueProperty(p quad.IRI) bool {
	info, ok := a.ont.Property(p)
	return ok && (info.IsValueProperty || info.IsLinkValueProperty)
}

func (a *assembler) attachValues() error {
	for _, iri := range sortedKeys(a.subjects) {
		owner, ok := a.resources[iri]
		if !ok {
			continue
		}
		s := a.subjects[iri]
		for p, objs := range s.props {
			if !a.isValueProperty(p) {
				continue
			}
			for _, o := range objs {
				vi, ok := o.(quad.IRI)
				if !ok {
					continue
				}
				vs, ok := a.subjects[vi]
				if !ok {
					continue
				}
				v, err := a.value(owner, vs)
				if err != nil {
					return err
				}
				if v == nil {
					continue
				}
				owner.Values[p] = append(owner.Values[p], v)
			}
		}
		for _, vals := range owner.Values {
			sortValues(vals)
		}
	}
	return nil
}

// value builds a value object of owner, or returns nil if the user may not see it.
func (a *assembler) value(owner *Resource, s *subject) (*Value, error) {
	var class quad.IRI
	for _, t := range s.types {
		if c, ok := a.ont.Class(t); ok && c.IsValueClass {
			class = t
			break
		}
	}
	if class == "" {
		return nil, inconsistent("value %s of resource %s has no value type", s.iri, owner.Iri)
	}
	v := &Value{Iri: s.iri, Class: class, Order: -1}
	var ok bool
	if v.Permissions, ok = s.single(knora.HasPermissions); !ok {
		return nil, inconsistent("value %s has no permissions", s.iri)
	}
	if v.Creator = s.iriOf(knora.AttachedToUser); v.Creator == "" {
		return nil, inconsistent("value %s has no creator", s.iri)
	}
	p, ok := permission.GetUserPermission(v.Creator, owner.Project, v.Permissions, a.user)
	if !ok || p < ValueVisibility {
		a.res.HiddenValues++
		return nil, nil
	}
	v.UserPermission = p
	if o, ok := s.single(knora.ValueHasOrder); ok {
		n, err := strconv.Atoi(o)
		if err != nil {
			return nil, inconsistent("value %s has an invalid order %q", s.iri, o)
		}
		v.Order = n
	}
	if v.IsLink() {
		v.Source = s.iriOf(knora.RDFSubject)
		v.Target = s.iriOf(knora.RDFObject)
		if v.Target == "" {
			return nil, inconsistent("link value %s has no target", s.iri)
		}
		// a target missing from the statements is one the user may not see
		if _, ok := a.subjects[v.Target]; !ok || a.hidden[v.Target] {
			a.res.HiddenValues++
			return nil, nil
		}
	}
	if m := s.iriOf(knora.ValueHasMapping); m != "" {
		v.Mapping = m
		a.mappings[m] = struct{}{}
	}
	for pred, objs := range s.props {
		if valueMetadata[pred] {
			continue
		}
		if v.Literals == nil {
			v.Literals = make(map[quad.IRI][]string)
		}
		for _, o := range objs {
			v.Literals[pred] = append(v.Literals[pred], sparql.LexicalForm(o))
		}
		sort.Strings(v.Literals[pred])
	}
	for _, t := range s.props[knora.ValueHasStandoff] {
		ti, ok := t.(quad.IRI)
		if !ok {
			continue
		}
		ts, ok := a.subjects[ti]
		if !ok {
			return nil, inconsistent("standoff tag %s of value %s has no statements", ti, s.iri)
		}
		tag, err := standoff.NewTag(ti, ts.props)
		if err != nil {
			return nil, inconsistent("%v", err)
		}
		v.Standoff = append(v.Standoff, tag)
	}
	if err := standoff.Resolve(v.Standoff); err != nil {
		return nil, inconsistent("%v", err)
	}
	return v, nil
}

func sortValues(vals []*Value) {
	sort.SliceStable(vals, func(i, j int) bool {
		a, b := vals[i], vals[j]
		if a.Order != b.Order {
			switch {
			case a.Order < 0:
				return false
			case b.Order < 0:
				return true
			}
			return a.Order < b.Order
		}
		return a.Iri < b.Iri
	})
}

// linkResources nests the resources at the ends of link values, and
// attaches links from dependent resources to the main resources they point at.
func (a *assembler) linkResources() {
	for _, iri := range sortedKeys(a.resources) {
		r := a.resources[iri]
		for _, p := range r.Properties() {
			for _, v := range r.Values[p] {
				if !v.IsLink() {
					continue
				}
				target, ok := a.resources[v.Target]
				if !ok {
					continue
				}
				if r.IsMainResource {
					v.Nested = shallow(target)
				}
				if target.IsMainResource && !r.IsMainResource {
					in := *v
					in.Nested = shallow(r)
					target.Values[knora.HasIncomingLinkValue] = append(target.Values[knora.HasIncomingLinkValue], &in)
				}
			}
		}
	}
	for _, r := range a.resources {
		if vals, ok := r.Values[knora.HasIncomingLinkValue]; ok {
			sortValues(vals)
		}
	}
}

// shallow copies r without expanding its own link values.
func shallow(r *Resource) *Resource {
	c := *r
	c.Values = make(map[quad.IRI][]*Value, len(r.Values))
	for p, vals := range r.Values {
		if p == knora.HasIncomingLinkValue {
			continue
		}
		cp := make([]*Value, len(vals))
		for i, v := range vals {
			if v.IsLink() {
				nv := *v
				nv.Nested = nil
				v = &nv
			}
			cp[i] = v
		}
		c.Values[p] = cp
	}
	return &c
}

func sortedKeys[V any](m map[quad.IRI]V) []quad.IRI {
	out := make([]quad.IRI, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
