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

// Package render presents search results as JSON documents and as tables.
package render

import (
	"github.com/cayleygraph/quad"

	"github.com/dasch-swiss/gravsearch/ontology"
	"github.com/dasch-swiss/gravsearch/query/gravsearch/assemble"
	"github.com/dasch-swiss/gravsearch/query/gravsearch/search"
	"github.com/dasch-swiss/gravsearch/query/sparql"
	"github.com/dasch-swiss/gravsearch/standoff"
)

// Result is the JSON form of a search result.
type Result struct {
	Resources          []*Resource         `json:"resources"`
	Mappings           []*standoff.Mapping `json:"mappings,omitempty"`
	MayHaveMoreResults bool                `json:"mayHaveMoreResults"`
}

type Resource struct {
	Iri                  string             `json:"iri"`
	Class                string             `json:"class"`
	Label                string             `json:"label,omitempty"`
	Creator              string             `json:"attachedToUser"`
	Project              string             `json:"attachedToProject"`
	Permissions          string             `json:"hasPermissions"`
	UserPermission       string             `json:"userHasPermission"`
	CreationDate         string             `json:"creationDate,omitempty"`
	LastModificationDate string             `json:"lastModificationDate,omitempty"`
	Values               map[string][]Value `json:"values,omitempty"`
}

type Value struct {
	Iri            string              `json:"iri"`
	Class          string              `json:"class"`
	Creator        string              `json:"attachedToUser"`
	Permissions    string              `json:"hasPermissions"`
	UserPermission string              `json:"userHasPermission"`
	Order          *int                `json:"valueHasOrder,omitempty"`
	Literals       map[string][]string `json:"literals,omitempty"`
	Source         string              `json:"source,omitempty"`
	Target         string              `json:"target,omitempty"`
	Nested         *Resource           `json:"resource,omitempty"`
	Mapping        string              `json:"mapping,omitempty"`
	Standoff       []Tag               `json:"standoff,omitempty"`
}

type Tag struct {
	Iri         string              `json:"iri"`
	Class       string              `json:"class"`
	UUID        string              `json:"uuid,omitempty"`
	Start       int                 `json:"start"`
	End         int                 `json:"end"`
	StartIndex  int                 `json:"startIndex"`
	EndIndex    *int                `json:"endIndex,omitempty"`
	ParentIndex *int                `json:"parentIndex,omitempty"`
	Attributes  map[string][]string `json:"attributes,omitempty"`
}

// namer writes IRIs of the internal schema in the schema of the query.
type namer struct {
	conv   *ontology.Converter
	schema sparql.Schema
}

func (n namer) name(iri quad.IRI) string {
	if n.conv == nil || iri == "" {
		return string(iri)
	}
	return string(n.conv.ToExternal(iri, n.schema))
}

// NewResult converts res. Class and property IRIs are written in the schema
// of the query if conv is set, and in the internal schema otherwise.
func NewResult(res *search.Result, conv *ontology.Converter) *Result {
	n := namer{conv: conv, schema: res.Schema}
	out := &Result{
		Resources:          make([]*Resource, 0, len(res.Resources)),
		MayHaveMoreResults: res.MayHaveMoreResults,
	}
	for _, r := range res.Resources {
		out.Resources = append(out.Resources, n.resource(r))
	}
	for _, iri := range sortedMappings(res.Mappings) {
		out.Mappings = append(out.Mappings, res.Mappings[iri])
	}
	return out
}

func sortedMappings(m map[quad.IRI]*standoff.Mapping) []quad.IRI {
	out := make([]quad.IRI, 0, len(m))
	for iri := range m {
		out = append(out, iri)
	}
	sortIRIs(out)
	return out
}

func (n namer) resource(r *assemble.Resource) *Resource {
	out := &Resource{
		Iri:                  string(r.Iri),
		Class:                n.name(r.Class),
		Label:                r.Label,
		Creator:              string(r.Creator),
		Project:              string(r.Project),
		Permissions:          r.Permissions,
		UserPermission:       r.UserPermission.String(),
		CreationDate:         r.CreationDate,
		LastModificationDate: r.LastModificationDate,
	}
	for _, p := range r.Properties() {
		if out.Values == nil {
			out.Values = make(map[string][]Value)
		}
		key := n.name(p)
		for _, v := range r.Values[p] {
			out.Values[key] = append(out.Values[key], n.value(v))
		}
	}
	return out
}

func (n namer) value(v *assemble.Value) Value {
	out := Value{
		Iri:            string(v.Iri),
		Class:          n.name(v.Class),
		Creator:        string(v.Creator),
		Permissions:    v.Permissions,
		UserPermission: v.UserPermission.String(),
		Source:         string(v.Source),
		Target:         string(v.Target),
		Mapping:        string(v.Mapping),
	}
	if v.Order >= 0 {
		order := v.Order
		out.Order = &order
	}
	for p, lits := range v.Literals {
		if out.Literals == nil {
			out.Literals = make(map[string][]string)
		}
		out.Literals[n.name(p)] = lits
	}
	if v.Nested != nil {
		out.Nested = n.resource(v.Nested)
	}
	for _, t := range v.Standoff {
		out.Standoff = append(out.Standoff, n.tag(t))
	}
	return out
}

func optional(i int) *int {
	if i < 0 {
		return nil
	}
	return &i
}

func (n namer) tag(t standoff.Tag) Tag {
	out := Tag{
		Iri:         string(t.Iri),
		Class:       n.name(t.Class),
		UUID:        t.UUID,
		Start:       t.Start,
		End:         t.End,
		StartIndex:  t.StartIndex,
		EndIndex:    optional(t.EndIndex),
		ParentIndex: optional(t.ParentIndex),
	}
	for p, vals := range t.Attributes {
		if out.Attributes == nil {
			out.Attributes = make(map[string][]string)
		}
		out.Attributes[n.name(p)] = vals
	}
	return out
}
