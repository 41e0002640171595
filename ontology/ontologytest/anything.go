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

// Package ontologytest provides a small project ontology for tests.
package ontologytest

import (
	"bytes"
	_ "embed"

	"github.com/cayleygraph/quad"

	"github.com/dasch-swiss/gravsearch/ontology"
)

//go:embed anything.nt
var anything []byte

// NS is the internal namespace of the anything ontology.
const NS = "http://www.knora.org/ontology/0001/anything#"

// Complex and Simple are the external namespaces of the anything ontology
// when served from APIHost.
const (
	APIHost = "0.0.0.0:3333"
	Complex = "http://" + APIHost + "/ontology/0001/anything/v2#"
	Simple  = "http://" + APIHost + "/ontology/0001/anything/simple/v2#"
)

const (
	Thing              = quad.IRI(NS + "Thing")
	BlueThing          = quad.IRI(NS + "BlueThing")
	HasText            = quad.IRI(NS + "hasText")
	HasInteger         = quad.IRI(NS + "hasInteger")
	HasDecimal         = quad.IRI(NS + "hasDecimal")
	HasBoolean         = quad.IRI(NS + "hasBoolean")
	HasDate            = quad.IRI(NS + "hasDate")
	HasColor           = quad.IRI(NS + "hasColor")
	HasUri             = quad.IRI(NS + "hasUri")
	HasListItem        = quad.IRI(NS + "hasListItem")
	HasOtherThing      = quad.IRI(NS + "hasOtherThing")
	HasOtherThingValue = quad.IRI(NS + "hasOtherThingValue")
	HasBlueThing       = quad.IRI(NS + "hasBlueThing")
	HasBlueThingValue  = quad.IRI(NS + "hasBlueThingValue")
)

// Anything returns knora-base extended with the anything ontology.
// It panics on error.
func Anything() *ontology.Ontology {
	b := ontology.NewBuilder()
	if err := b.ReadCore(); err != nil {
		panic(err)
	}
	if _, err := b.ReadNQuads(bytes.NewReader(anything)); err != nil {
		panic(err)
	}
	o, err := b.Build()
	if err != nil {
		panic(err)
	}
	return o
}

// Converter returns a schema converter for APIHost.
func Converter() *ontology.Converter {
	return ontology.NewConverter(APIHost)
}
