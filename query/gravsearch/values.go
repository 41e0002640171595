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

	"github.com/dasch-swiss/gravsearch/voc/knora"
)

// ValueClasses lists the value classes that can be queried, with the
// simple-schema literal type standing for each.
var ValueClasses = map[quad.IRI]quad.IRI{
	knora.TextValue:     knora.XSDString,
	knora.IntValue:      knora.XSDInteger,
	knora.DecimalValue:  knora.XSDDecimal,
	knora.BooleanValue:  knora.XSDBoolean,
	knora.UriValue:      knora.XSDAnyURI,
	knora.DateValue:     knora.Date,
	knora.ColorValue:    knora.Color,
	knora.GeonameValue:  knora.Geoname,
	knora.ListValue:     knora.ListNode,
	knora.IntervalValue: knora.Interval,
	knora.TimeValue:     knora.XSDDateTimeStmp,
	knora.FileValue:     knora.File,
}

// literalPredicates is the value object property holding the literal a
// simple-schema query compares against.
var literalPredicates = map[quad.IRI]quad.IRI{
	knora.TextValue:     knora.ValueHasString,
	knora.IntValue:      knora.ValueHasInteger,
	knora.DecimalValue:  knora.ValueHasDecimal,
	knora.BooleanValue:  knora.ValueHasBoolean,
	knora.UriValue:      knora.ValueHasUri,
	knora.ColorValue:    knora.ValueHasColor,
	knora.GeonameValue:  knora.ValueHasGeonameCode,
	knora.ListValue:     knora.ValueHasListNode,
	knora.IntervalValue: knora.ValueHasIntervalStart,
	knora.TimeValue:     knora.ValueHasTimeStamp,
}

var orderPredicates = map[quad.IRI]quad.IRI{
	knora.IntValue:     knora.ValueHasInteger,
	knora.DecimalValue: knora.ValueHasDecimal,
	knora.BooleanValue: knora.ValueHasBoolean,
	knora.DateValue:    knora.ValueHasStartJDN,
	knora.ColorValue:   knora.ValueHasColor,
	knora.UriValue:     knora.ValueHasUri,
	knora.GeonameValue: knora.ValueHasGeonameCode,
}

// IsSimpleLiteralType reports whether t is the simple-schema type of some
// value class.
func IsSimpleLiteralType(t quad.IRI) bool {
	for _, lit := range ValueClasses {
		if lit == t {
			return true
		}
	}
	return false
}

// LiteralPredicate returns the property linking a value object of the given
// class to its comparable literal. Date values have none: they are compared
// through their Julian Day Numbers.
func LiteralPredicate(valueClass quad.IRI) (quad.IRI, bool) {
	p, ok := literalPredicates[valueClass]
	return p, ok
}

// OrderPredicate returns the property used to sort values of the given class.
func OrderPredicate(valueClass quad.IRI) quad.IRI {
	if p, ok := orderPredicates[valueClass]; ok {
		return p
	}
	return knora.ValueHasString
}
