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

package ontology

import (
	"strconv"
	"strings"

	"github.com/cayleygraph/quad"

	"github.com/dasch-swiss/gravsearch/internal/lru"
	"github.com/dasch-swiss/gravsearch/query/sparql"
	"github.com/dasch-swiss/gravsearch/voc/knora"
)

const apiStandoffNS = knora.APIOntologyBase + "standoff/v2#"

// Properties of the complex API schema whose internal names differ.
var complexToInternal = map[string]quad.IRI{
	"valueAsString":             knora.ValueHasString,
	"textValueHasLanguage":      knora.ValueHasLanguage,
	"textValueHasMapping":       knora.ValueHasMapping,
	"textValueHasStandoff":      knora.ValueHasStandoff,
	"intValueAsInt":             knora.ValueHasInteger,
	"decimalValueAsDecimal":     knora.ValueHasDecimal,
	"booleanValueAsBoolean":     knora.ValueHasBoolean,
	"uriValueAsUri":             knora.ValueHasUri,
	"colorValueAsColor":         knora.ValueHasColor,
	"geonameValueAsGeonameCode": knora.ValueHasGeonameCode,
	"listValueAsListNode":       knora.ValueHasListNode,
	"intervalValueHasStart":     knora.ValueHasIntervalStart,
	"intervalValueHasEnd":       knora.ValueHasIntervalEnd,
	"timeValueAsTimeStamp":      knora.ValueHasTimeStamp,
	"dateValueHasCalendar":      knora.ValueHasCalendar,
	"linkValueHasSource":        knora.RDFSubject,
	"linkValueHasSourceIri":     knora.RDFSubject,
	"linkValueHasTarget":        knora.RDFObject,
	"linkValueHasTargetIri":     knora.RDFObject,
	"objectType":                knora.ObjectClassConstraint,
	"subjectType":               knora.SubjectClassConstraint,
	"hasLabel":                  knora.RDFSLabel,
}

var internalToComplex = map[quad.IRI]string{
	knora.ValueHasString:         "valueAsString",
	knora.ValueHasLanguage:       "textValueHasLanguage",
	knora.ValueHasMapping:        "textValueHasMapping",
	knora.ValueHasStandoff:       "textValueHasStandoff",
	knora.ValueHasInteger:        "intValueAsInt",
	knora.ValueHasDecimal:        "decimalValueAsDecimal",
	knora.ValueHasBoolean:        "booleanValueAsBoolean",
	knora.ValueHasUri:            "uriValueAsUri",
	knora.ValueHasColor:          "colorValueAsColor",
	knora.ValueHasGeonameCode:    "geonameValueAsGeonameCode",
	knora.ValueHasListNode:       "listValueAsListNode",
	knora.ValueHasIntervalStart:  "intervalValueHasStart",
	knora.ValueHasIntervalEnd:    "intervalValueHasEnd",
	knora.ValueHasTimeStamp:      "timeValueAsTimeStamp",
	knora.ValueHasCalendar:       "dateValueHasCalendar",
	knora.ObjectClassConstraint:  "objectType",
	knora.SubjectClassConstraint: "subjectType",
}

var simpleToInternal = map[string]quad.IRI{
	"objectType":  knora.ObjectClassConstraint,
	"subjectType": knora.SubjectClassConstraint,
	"hasLabel":    knora.RDFSLabel,
}

// Converter translates entity IRIs between the internal schema and the
// external API schemas. Project ontologies are served under apiHost.
// It is safe for concurrent use.
type Converter struct {
	apiHost string
	cache   *lru.Cache[string, quad.IRI]
}

// NewConverter returns a converter for project ontologies served by apiHost
// (for example "0.0.0.0:3333").
func NewConverter(apiHost string) *Converter {
	return &Converter{apiHost: apiHost, cache: lru.New[string, quad.IRI](4096)}
}

func (c *Converter) projectBase() string {
	return "http://" + c.apiHost + "/ontology/"
}

func splitLocal(iri string) (ns, local string, ok bool) {
	i := strings.LastIndexByte(iri, '#')
	if i < 0 {
		return "", "", false
	}
	return iri[:i+1], iri[i+1:], true
}

// SchemaOf reports the schema of a knora ontology entity IRI. Other IRIs
// report false.
func (c *Converter) SchemaOf(iri quad.IRI) (sparql.Schema, bool) {
	ns, _, ok := splitLocal(string(iri))
	if !ok {
		return 0, false
	}
	switch {
	case ns == knora.APIComplexNS || ns == apiStandoffNS:
		return sparql.ApiV2Complex, true
	case ns == knora.APISimpleNS:
		return sparql.ApiV2Simple, true
	case strings.HasPrefix(ns, knora.InternalOntologyBase):
		return sparql.InternalSchema, true
	case strings.HasPrefix(ns, c.projectBase()):
		if strings.HasSuffix(ns, "/simple/v2#") {
			return sparql.ApiV2Simple, true
		} else if strings.HasSuffix(ns, "/v2#") {
			return sparql.ApiV2Complex, true
		}
	}
	return 0, false
}

// ToInternal converts an external entity IRI to the internal schema.
// IRIs outside the knora ontologies are returned unchanged.
func (c *Converter) ToInternal(iri quad.IRI) quad.IRI {
	key := "i|" + string(iri)
	if v, ok := c.cache.Get(key); ok {
		return v
	}
	v := c.toInternal(iri)
	c.cache.Put(key, v)
	return v
}

func (c *Converter) toInternal(iri quad.IRI) quad.IRI {
	ns, local, ok := splitLocal(string(iri))
	if !ok {
		return iri
	}
	switch {
	case ns == knora.APIComplexNS:
		if v, ok := complexToInternal[local]; ok {
			return v
		}
		return quad.IRI(knora.NS + local)
	case ns == knora.APISimpleNS:
		if v, ok := simpleToInternal[local]; ok {
			return v
		}
		return quad.IRI(knora.NS + local)
	case ns == apiStandoffNS:
		return quad.IRI(knora.StandoffNS + local)
	case strings.HasPrefix(ns, c.projectBase()):
		path := strings.TrimSuffix(ns[len(c.projectBase()):], "#")
		if !strings.HasSuffix(path, "/v2") {
			return iri
		}
		path = strings.TrimSuffix(strings.TrimSuffix(path, "/v2"), "/simple")
		return quad.IRI(knora.InternalOntologyBase + path + "#" + local)
	}
	return iri
}

// ToExternal converts an internal entity IRI to the given schema. IRIs
// outside the knora ontologies, and knora-admin IRIs, are returned unchanged.
func (c *Converter) ToExternal(iri quad.IRI, schema sparql.Schema) quad.IRI {
	if schema == sparql.InternalSchema {
		return iri
	}
	key := strconv.Itoa(int(schema)) + "|" + string(iri)
	if v, ok := c.cache.Get(key); ok {
		return v
	}
	v := c.toExternal(iri, schema)
	c.cache.Put(key, v)
	return v
}

func (c *Converter) toExternal(iri quad.IRI, schema sparql.Schema) quad.IRI {
	ns, local, ok := splitLocal(string(iri))
	if !ok || !strings.HasPrefix(ns, knora.InternalOntologyBase) {
		return iri
	}
	switch ns {
	case knora.NS:
		if schema == sparql.ApiV2Complex {
			if name, ok := internalToComplex[iri]; ok {
				return quad.IRI(knora.APIComplexNS + name)
			}
			return quad.IRI(knora.APIComplexNS + local)
		}
		return quad.IRI(knora.APISimpleNS + local)
	case knora.AdminNS:
		return iri
	case knora.StandoffNS:
		return quad.IRI(apiStandoffNS + local)
	}
	path := strings.TrimSuffix(ns[len(knora.InternalOntologyBase):], "#")
	if schema == sparql.ApiV2Simple {
		return quad.IRI(c.projectBase() + path + "/simple/v2#" + local)
	}
	return quad.IRI(c.projectBase() + path + "/v2#" + local)
}
