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

// Package knora contains the IRIs of the knora-base, knora-admin and knora-api vocabularies.
package knora

import (
	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/voc"
	"github.com/cayleygraph/quad/voc/rdf"
	"github.com/cayleygraph/quad/voc/rdfs"
	"github.com/cayleygraph/quad/voc/xsd"
)

func init() {
	voc.Register(voc.Namespace{Full: NS, Prefix: Prefix})
	voc.Register(voc.Namespace{Full: AdminNS, Prefix: AdminPrefix})
	voc.Register(voc.Namespace{Full: APIComplexNS, Prefix: APIComplexPrefix})
	voc.Register(voc.Namespace{Full: APISimpleNS, Prefix: APISimplePrefix})
	voc.Register(voc.Namespace{Full: StandoffNS, Prefix: StandoffPrefix})
}

const (
	NS     = "http://www.knora.org/ontology/knora-base#"
	Prefix = "knora-base:"

	AdminNS     = "http://www.knora.org/ontology/knora-admin#"
	AdminPrefix = "knora-admin:"

	APIComplexNS     = "http://api.knora.org/ontology/knora-api/v2#"
	APIComplexPrefix = "knora-api:"

	APISimpleNS     = "http://api.knora.org/ontology/knora-api/simple/v2#"
	APISimplePrefix = "knora-api-simple:"

	StandoffNS     = "http://www.knora.org/ontology/standoff#"
	StandoffPrefix = "standoff:"

	// InternalOntologyBase is the prefix of every ontology IRI in the internal schema.
	InternalOntologyBase = "http://www.knora.org/ontology/"
	// APIOntologyBase is the prefix of the built-in ontologies in the external schemas.
	APIOntologyBase = "http://api.knora.org/ontology/"
)

// Named graphs.
const (
	// ExplicitGraph marks statements that must be matched without inference.
	// Dialects replace it by their own equivalent.
	ExplicitGraph = quad.IRI("http://www.knora.org/explicit")
	// OntotextExplicitGraph is the GraphDB pseudo-graph holding explicit statements only.
	OntotextExplicitGraph = quad.IRI("http://www.ontotext.com/explicit")
)

// RDF, RDFS and XSD terms used by the pipeline.
const (
	RDFType      = quad.IRI(rdf.NS + "type")
	RDFSubject   = quad.IRI(rdf.NS + "subject")
	RDFPredicate = quad.IRI(rdf.NS + "predicate")
	RDFObject    = quad.IRI(rdf.NS + "object")

	RDFSLabel         = quad.IRI(rdfs.NS + "label")
	RDFSSubClassOf    = quad.IRI(rdfs.NS + "subClassOf")
	RDFSSubPropertyOf = quad.IRI(rdfs.NS + "subPropertyOf")

	XSDString       = quad.IRI(xsd.NS + "string")
	XSDInteger      = quad.IRI(xsd.NS + "integer")
	XSDDecimal      = quad.IRI(xsd.NS + "decimal")
	XSDBoolean      = quad.IRI(xsd.NS + "boolean")
	XSDAnyURI       = quad.IRI(xsd.NS + "anyURI")
	XSDDateTime     = quad.IRI(xsd.NS + "dateTime")
	XSDDateTimeStmp = quad.IRI(xsd.NS + "dateTimeStamp")
)

// Classes.
const (
	Resource      = quad.IRI(NS + "Resource")
	Value         = quad.IRI(NS + "Value")
	TextValue     = quad.IRI(NS + "TextValue")
	IntValue      = quad.IRI(NS + "IntValue")
	DecimalValue  = quad.IRI(NS + "DecimalValue")
	BooleanValue  = quad.IRI(NS + "BooleanValue")
	DateValue     = quad.IRI(NS + "DateValue")
	ColorValue    = quad.IRI(NS + "ColorValue")
	UriValue      = quad.IRI(NS + "UriValue")
	GeonameValue  = quad.IRI(NS + "GeonameValue")
	ListValue     = quad.IRI(NS + "ListValue")
	IntervalValue = quad.IRI(NS + "IntervalValue")
	TimeValue     = quad.IRI(NS + "TimeValue")
	LinkValue     = quad.IRI(NS + "LinkValue")
	FileValue     = quad.IRI(NS + "FileValue")
	ListNode      = quad.IRI(NS + "ListNode")
	StandoffTag   = quad.IRI(NS + "StandoffTag")

	// Literal types of the simple schema that have no XSD equivalent.
	Date     = quad.IRI(NS + "Date")
	Color    = quad.IRI(NS + "Color")
	Geoname  = quad.IRI(NS + "Geoname")
	Interval = quad.IRI(NS + "Interval")
	File     = quad.IRI(NS + "File")
)

// Properties.
const (
	IsMainResource         = quad.IRI(NS + "isMainResource")
	IsDeleted              = quad.IRI(NS + "isDeleted")
	AttachedToUser         = quad.IRI(NS + "attachedToUser")
	AttachedToProject      = quad.IRI(NS + "attachedToProject")
	HasPermissions         = quad.IRI(NS + "hasPermissions")
	CreationDate           = quad.IRI(NS + "creationDate")
	LastModificationDate   = quad.IRI(NS + "lastModificationDate")
	ValueCreationDate      = quad.IRI(NS + "valueCreationDate")
	HasValue               = quad.IRI(NS + "hasValue")
	HasLinkTo              = quad.IRI(NS + "hasLinkTo")
	HasLinkToValue         = quad.IRI(NS + "hasLinkToValue")
	HasIncomingLinkValue   = quad.IRI(NS + "hasIncomingLinkValue")
	HasComment             = quad.IRI(NS + "hasComment")
	ValueHas               = quad.IRI(NS + "valueHas")
	ValueHasString         = quad.IRI(NS + "valueHasString")
	ValueHasInteger        = quad.IRI(NS + "valueHasInteger")
	ValueHasDecimal        = quad.IRI(NS + "valueHasDecimal")
	ValueHasBoolean        = quad.IRI(NS + "valueHasBoolean")
	ValueHasUri            = quad.IRI(NS + "valueHasUri")
	ValueHasColor          = quad.IRI(NS + "valueHasColor")
	ValueHasGeonameCode    = quad.IRI(NS + "valueHasGeonameCode")
	ValueHasListNode       = quad.IRI(NS + "valueHasListNode")
	ValueHasIntervalStart  = quad.IRI(NS + "valueHasIntervalStart")
	ValueHasIntervalEnd    = quad.IRI(NS + "valueHasIntervalEnd")
	ValueHasTimeStamp      = quad.IRI(NS + "valueHasTimeStamp")
	ValueHasStartJDN       = quad.IRI(NS + "valueHasStartJDN")
	ValueHasEndJDN         = quad.IRI(NS + "valueHasEndJDN")
	ValueHasStartPrecision = quad.IRI(NS + "valueHasStartPrecision")
	ValueHasEndPrecision   = quad.IRI(NS + "valueHasEndPrecision")
	ValueHasCalendar       = quad.IRI(NS + "valueHasCalendar")
	ValueHasOrder          = quad.IRI(NS + "valueHasOrder")
	ValueHasLanguage       = quad.IRI(NS + "valueHasLanguage")
	ValueHasMapping        = quad.IRI(NS + "valueHasMapping")
	ValueHasStandoff       = quad.IRI(NS + "valueHasStandoff")
	ValueHasRefCount       = quad.IRI(NS + "valueHasRefCount")

	ValueHasMaxStandoffStartIndex = quad.IRI(NS + "valueHasMaxStandoffStartIndex")

	StandoffTagHasStart             = quad.IRI(NS + "standoffTagHasStart")
	StandoffTagHasEnd               = quad.IRI(NS + "standoffTagHasEnd")
	StandoffTagHasStartIndex        = quad.IRI(NS + "standoffTagHasStartIndex")
	StandoffTagHasEndIndex          = quad.IRI(NS + "standoffTagHasEndIndex")
	StandoffTagHasStartParent       = quad.IRI(NS + "standoffTagHasStartParent")
	StandoffTagHasEndParent         = quad.IRI(NS + "standoffTagHasEndParent")
	StandoffTagHasUUID              = quad.IRI(NS + "standoffTagHasUUID")
	StandoffTagHasOriginalXMLID     = quad.IRI(NS + "standoffTagHasOriginalXMLID")
	StandoffTagHasInternalReference = quad.IRI(NS + "standoffTagHasInternalReference")

	ObjectClassConstraint    = quad.IRI(NS + "objectClassConstraint")
	ObjectDatatypeConstraint = quad.IRI(NS + "objectDatatypeConstraint")
	SubjectClassConstraint   = quad.IRI(NS + "subjectClassConstraint")

	// MatchFunction is the internal name of the full-text match filter function.
	MatchFunction = quad.IRI(NS + "match")
)

// Built-in groups.
const (
	UnknownUser   = quad.IRI(AdminNS + "UnknownUser")
	KnownUser     = quad.IRI(AdminNS + "KnownUser")
	ProjectMember = quad.IRI(AdminNS + "ProjectMember")
	ProjectAdmin  = quad.IRI(AdminNS + "ProjectAdmin")
	Creator       = quad.IRI(AdminNS + "Creator")
	SystemAdmin   = quad.IRI(AdminNS + "SystemAdmin")

	// AnonymousUser is the IRI of the user that did not authenticate.
	AnonymousUser = quad.IRI("http://rdfh.ch/users/AnonymousUser")
)
