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

package gravsearch

import (
	"github.com/cayleygraph/quad"

	"github.com/dasch-swiss/gravsearch/query/sparql"
	"github.com/dasch-swiss/gravsearch/voc/knora"
)

// TypeableEntity is a query entity whose type the inspector determines:
// a variable or an IRI.
type TypeableEntity interface {
	String() string
	isTypeable()
}

// TypeableVariable is a typeable query variable.
type TypeableVariable struct {
	Name string
}

// TypeableIri is a typeable IRI.
type TypeableIri struct {
	Iri quad.IRI
}

func (v TypeableVariable) String() string { return "?" + v.Name }
func (i TypeableIri) String() string      { return i.Iri.String() }

func (TypeableVariable) isTypeable() {}
func (TypeableIri) isTypeable()      {}

// ToTypeable returns the typeable entity for a query entity. Literals are
// not typeable.
func ToTypeable(e sparql.Entity) (TypeableEntity, bool) {
	switch e := e.(type) {
	case sparql.Variable:
		return TypeableVariable{Name: e.Name}, true
	case sparql.IriRef:
		return TypeableIri{Iri: e.Iri}, true
	}
	return nil, false
}

// TypeInfo is the inferred type of a typeable entity.
type TypeInfo interface {
	String() string
	isTypeInfo()
}

// PropertyTypeInfo types an entity used as a property. ObjectType is the
// type of its objects, with every resource class reduced to knora-base:Resource.
type PropertyTypeInfo struct {
	ObjectType quad.IRI
}

// NonPropertyTypeInfo types an entity used as a subject or object: either
// knora-base:Resource, a value class, or a literal datatype.
type NonPropertyTypeInfo struct {
	Type quad.IRI
}

func (t PropertyTypeInfo) String() string    { return "property of " + t.ObjectType.String() }
func (t NonPropertyTypeInfo) String() string { return t.Type.String() }

func (PropertyTypeInfo) isTypeInfo()    {}
func (NonPropertyTypeInfo) isTypeInfo() {}

// TypeInspectionResult maps every typeable entity of a query to its type.
type TypeInspectionResult struct {
	Entities map[TypeableEntity]TypeInfo
}

// TypeOf returns the type of a query entity.
func (r *TypeInspectionResult) TypeOf(e sparql.Entity) (TypeInfo, bool) {
	te, ok := ToTypeable(e)
	if !ok || r == nil {
		return nil, false
	}
	t, ok := r.Entities[te]
	return t, ok
}

// NonPropertyType returns the type of an entity used as a subject or object.
func (r *TypeInspectionResult) NonPropertyType(e sparql.Entity) (quad.IRI, bool) {
	t, ok := r.TypeOf(e)
	if !ok {
		return "", false
	}
	np, ok := t.(NonPropertyTypeInfo)
	return np.Type, ok
}

// PropertyObjectType returns the object type of an entity used as a property.
func (r *TypeInspectionResult) PropertyObjectType(e sparql.Entity) (quad.IRI, bool) {
	t, ok := r.TypeOf(e)
	if !ok {
		return "", false
	}
	p, ok := t.(PropertyTypeInfo)
	return p.ObjectType, ok
}

// IsResource reports whether e is typed as a resource.
func (r *TypeInspectionResult) IsResource(e sparql.Entity) bool {
	t, ok := r.NonPropertyType(e)
	return ok && t == knora.Resource
}

// SchemaOptions are per-request options of the external schema.
type SchemaOptions struct {
	// MarkupAsStandoff requests text markup as standoff tags.
	MarkupAsStandoff bool
}
