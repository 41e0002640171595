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

// Package ontology holds the class and property definitions Gravsearch
// needs to type queries and classify results, and converts entity IRIs
// between the internal and the external API schemas.
package ontology

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/nquads"
	"github.com/cayleygraph/quad/voc/owl"
	"github.com/cayleygraph/quad/voc/rdf"
	"github.com/cayleygraph/quad/voc/rdfs"

	"github.com/dasch-swiss/gravsearch/query/sparql"
	"github.com/dasch-swiss/gravsearch/voc/knora"
)

//go:embed knora-base.nt
var knoraBase []byte

// ClassInfo describes an OWL class.
type ClassInfo struct {
	Iri        quad.IRI
	Label      string
	SubClassOf []quad.IRI // direct superclasses

	IsResourceClass bool
	IsValueClass    bool
	IsStandoffClass bool

	ancestors map[quad.IRI]struct{}
}

// IsSubClassOf reports whether the class is iri or one of its subclasses.
func (c *ClassInfo) IsSubClassOf(iri quad.IRI) bool {
	if c.Iri == iri {
		return true
	}
	_, ok := c.ancestors[iri]
	return ok
}

// PropertyInfo describes an OWL property. Constraints that are not set on
// the property itself are inherited from its nearest superproperty.
type PropertyInfo struct {
	Iri           quad.IRI
	Label         string
	SubPropertyOf []quad.IRI // direct superproperties

	ObjectClassConstraint    quad.IRI
	ObjectDatatypeConstraint quad.IRI
	SubjectClassConstraint   quad.IRI

	// IsResourceProperty is true for properties pointing from a resource to
	// one of its values or to another resource.
	IsResourceProperty  bool
	IsValueProperty     bool
	IsLinkProperty      bool
	IsLinkValueProperty bool

	// LinkValueProperty is the link value property paired with a link property.
	LinkValueProperty quad.IRI

	ancestors map[quad.IRI]struct{}
}

// IsSubPropertyOf reports whether the property is iri or one of its subproperties.
func (p *PropertyInfo) IsSubPropertyOf(iri quad.IRI) bool {
	if p.Iri == iri {
		return true
	}
	_, ok := p.ancestors[iri]
	return ok
}

// ObjectType returns the class or datatype constraint of the property's
// objects, or an empty IRI if there is none.
func (p *PropertyInfo) ObjectType() quad.IRI {
	if p.ObjectClassConstraint != "" {
		return p.ObjectClassConstraint
	}
	return p.ObjectDatatypeConstraint
}

// Provider answers ontology lookups. Entities are addressed by internal IRIs.
type Provider interface {
	Class(iri quad.IRI) (*ClassInfo, bool)
	Property(iri quad.IRI) (*PropertyInfo, bool)
	// HasSubProperties reports whether any property is declared a direct
	// subproperty of iri.
	HasSubProperties(iri quad.IRI) bool
}

// Ontology is an immutable set of class and property definitions.
type Ontology struct {
	classes  map[quad.IRI]*ClassInfo
	props    map[quad.IRI]*PropertyInfo
	subProps map[quad.IRI]bool
}

var _ Provider = (*Ontology)(nil)

func (o *Ontology) Class(iri quad.IRI) (*ClassInfo, bool) {
	c, ok := o.classes[iri]
	return c, ok
}

func (o *Ontology) Property(iri quad.IRI) (*PropertyInfo, bool) {
	p, ok := o.props[iri]
	return p, ok
}

func (o *Ontology) HasSubProperties(iri quad.IRI) bool {
	return o.subProps[iri]
}

// Classes returns the IRIs of all known classes in lexical order.
func (o *Ontology) Classes() []quad.IRI {
	out := make([]quad.IRI, 0, len(o.classes))
	for iri := range o.classes {
		out = append(out, iri)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Properties returns the IRIs of all known properties in lexical order.
func (o *Ontology) Properties() []quad.IRI {
	out := make([]quad.IRI, 0, len(o.props))
	for iri := range o.props {
		out = append(out, iri)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Builder collects ontology statements.
type Builder struct {
	classes map[quad.IRI]*ClassInfo
	props   map[quad.IRI]*PropertyInfo
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		classes: make(map[quad.IRI]*ClassInfo),
		props:   make(map[quad.IRI]*PropertyInfo),
	}
}

func (b *Builder) class(iri quad.IRI) *ClassInfo {
	c := b.classes[iri]
	if c == nil {
		c = &ClassInfo{Iri: iri}
		b.classes[iri] = c
	}
	return c
}

func (b *Builder) property(iri quad.IRI) *PropertyInfo {
	p := b.props[iri]
	if p == nil {
		p = &PropertyInfo{Iri: iri}
		b.props[iri] = p
	}
	return p
}

var (
	owlClass              = quad.IRI(owl.NS + "Class")
	owlObjectProperty     = quad.IRI(owl.NS + "ObjectProperty")
	owlDatatypeProperty   = quad.IRI(owl.NS + "DatatypeProperty")
	owlAnnotationProperty = quad.IRI(owl.NS + "AnnotationProperty")
	rdfsClass             = quad.IRI(rdfs.NS + "Class")
	rdfProperty           = quad.IRI(rdf.NS + "Property")
)

// Add records a single statement. Statements that do not describe a class
// or a property are ignored.
func (b *Builder) Add(q quad.Quad) {
	s, ok := q.Subject.(quad.IRI)
	if !ok {
		return
	}
	p, ok := q.Predicate.(quad.IRI)
	if !ok {
		return
	}
	o, isIRI := q.Object.(quad.IRI)
	switch p {
	case knora.RDFType:
		switch o {
		case owlClass, rdfsClass:
			b.class(s)
		case owlObjectProperty, owlDatatypeProperty, owlAnnotationProperty, rdfProperty:
			b.property(s)
		}
	case knora.RDFSSubClassOf:
		if isIRI {
			c := b.class(s)
			c.SubClassOf = appendUnique(c.SubClassOf, o)
		}
	case knora.RDFSSubPropertyOf:
		if isIRI {
			pr := b.property(s)
			pr.SubPropertyOf = appendUnique(pr.SubPropertyOf, o)
		}
	case knora.ObjectClassConstraint:
		if isIRI {
			b.property(s).ObjectClassConstraint = o
		}
	case knora.ObjectDatatypeConstraint:
		if isIRI {
			b.property(s).ObjectDatatypeConstraint = o
		}
	case knora.SubjectClassConstraint:
		if isIRI {
			b.property(s).SubjectClassConstraint = o
		}
	case knora.RDFSLabel:
		label := sparql.LexicalForm(q.Object)
		if c := b.classes[s]; c != nil {
			c.Label = label
		}
		if pr := b.props[s]; pr != nil {
			pr.Label = label
		}
	}
}

func appendUnique(list []quad.IRI, iri quad.IRI) []quad.IRI {
	for _, v := range list {
		if v == iri {
			return list
		}
	}
	return append(list, iri)
}

// Read adds all statements from r and returns their number.
func (b *Builder) Read(r quad.Reader) (int, error) {
	n := 0
	for {
		q, err := r.ReadQuad()
		if err == io.EOF {
			return n, nil
		} else if err != nil {
			return n, err
		}
		b.Add(q)
		n++
	}
}

// ReadNQuads parses N-Triples or N-Quads from r.
func (b *Builder) ReadNQuads(r io.Reader) (int, error) {
	return b.Read(nquads.NewReader(r, false))
}

// ReadCore adds the built-in knora-base definitions.
func (b *Builder) ReadCore() error {
	_, err := b.ReadNQuads(bytes.NewReader(knoraBase))
	return err
}

// ReadFile adds the statements of an N-Triples file.
func (b *Builder) ReadFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	n, err := b.ReadNQuads(f)
	if err != nil {
		return n, fmt.Errorf("ontology: reading %s: %w", path, err)
	}
	return n, nil
}

func closure(start []quad.IRI, parents func(quad.IRI) []quad.IRI) ([]quad.IRI, map[quad.IRI]struct{}) {
	seen := make(map[quad.IRI]struct{})
	var order []quad.IRI
	queue := append([]quad.IRI(nil), start...)
	for len(queue) > 0 {
		iri := queue[0]
		queue = queue[1:]
		if _, ok := seen[iri]; ok {
			continue
		}
		seen[iri] = struct{}{}
		order = append(order, iri)
		queue = append(queue, parents(iri)...)
	}
	return order, seen
}

// Build computes the inferred class and property information. It fails if
// a link property has no matching link value property.
func (b *Builder) Build() (*Ontology, error) {
	o := &Ontology{
		classes:  make(map[quad.IRI]*ClassInfo, len(b.classes)),
		props:    make(map[quad.IRI]*PropertyInfo, len(b.props)),
		subProps: make(map[quad.IRI]bool),
	}
	classParents := func(iri quad.IRI) []quad.IRI {
		if c := b.classes[iri]; c != nil {
			return c.SubClassOf
		}
		return nil
	}
	for iri, c := range b.classes {
		nc := *c
		nc.SubClassOf = append([]quad.IRI(nil), c.SubClassOf...)
		_, nc.ancestors = closure(c.SubClassOf, classParents)
		nc.IsResourceClass = nc.IsSubClassOf(knora.Resource)
		nc.IsValueClass = nc.IsSubClassOf(knora.Value)
		nc.IsStandoffClass = nc.IsSubClassOf(knora.StandoffTag)
		o.classes[iri] = &nc
	}

	propParents := func(iri quad.IRI) []quad.IRI {
		if p := b.props[iri]; p != nil {
			return p.SubPropertyOf
		}
		return nil
	}
	for iri, p := range b.props {
		np := *p
		np.SubPropertyOf = append([]quad.IRI(nil), p.SubPropertyOf...)
		var order []quad.IRI
		order, np.ancestors = closure(p.SubPropertyOf, propParents)
		// breadth-first order makes the nearest ancestor win
		for _, anc := range order {
			ap := b.props[anc]
			if ap == nil {
				continue
			}
			if np.ObjectClassConstraint == "" && np.ObjectDatatypeConstraint == "" {
				np.ObjectClassConstraint = ap.ObjectClassConstraint
				np.ObjectDatatypeConstraint = ap.ObjectDatatypeConstraint
			}
			if np.SubjectClassConstraint == "" {
				np.SubjectClassConstraint = ap.SubjectClassConstraint
			}
		}
		np.IsLinkProperty = np.IsSubPropertyOf(knora.HasLinkTo)
		np.IsLinkValueProperty = np.IsSubPropertyOf(knora.HasLinkToValue)
		np.IsValueProperty = np.IsSubPropertyOf(knora.HasValue) && !np.IsLinkValueProperty
		np.IsResourceProperty = np.IsLinkProperty || np.IsValueProperty || np.IsLinkValueProperty
		o.props[iri] = &np
		for _, sup := range p.SubPropertyOf {
			o.subProps[sup] = true
		}
	}
	for iri, p := range o.props {
		if !p.IsLinkProperty {
			continue
		}
		lv := iri + "Value"
		if iri == knora.HasLinkTo {
			lv = knora.HasLinkToValue
		}
		if lvp, ok := o.props[lv]; !ok || !lvp.IsLinkValueProperty {
			return nil, fmt.Errorf("ontology: link property %v has no link value property %v", iri, lv)
		}
		p.LinkValueProperty = lv
	}
	return o, nil
}

// Load builds an ontology from the built-in knora-base definitions and the
// given N-Triples files.
func Load(paths ...string) (*Ontology, error) {
	b := NewBuilder()
	if err := b.ReadCore(); err != nil {
		return nil, err
	}
	for _, path := range paths {
		if _, err := b.ReadFile(path); err != nil {
			return nil, err
		}
	}
	return b.Build()
}
