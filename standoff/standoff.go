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

// Package standoff models the markup of text values: standoff tags read
// from the triple store and the mappings between XML and standoff classes.
package standoff

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/cayleygraph/quad"

	"github.com/dasch-swiss/gravsearch/query/sparql"
	"github.com/dasch-swiss/gravsearch/voc/knora"
)

// Tag is one standoff tag of a text value. Start and End are character
// offsets in the text; StartIndex orders the tags of one text.
type Tag struct {
	Iri               quad.IRI
	Class             quad.IRI
	UUID              string
	Start, End        int
	StartIndex        int
	EndIndex          int
	StartParent       quad.IRI
	EndParent         quad.IRI
	OriginalXMLID     string
	InternalReference quad.IRI
	// ParentIndex is the StartIndex of the enclosing tag, or -1.
	ParentIndex int
	// Attributes holds the statements not covered by the fields above.
	Attributes map[quad.IRI][]string
}

// NewTag builds a tag from the statements about it, keyed by predicate.
func NewTag(iri quad.IRI, props map[quad.IRI][]quad.Value) (Tag, error) {
	t := Tag{Iri: iri, EndIndex: -1, ParentIndex: -1}
	single := func(p quad.IRI) (string, bool) {
		vals := props[p]
		if len(vals) == 0 {
			return "", false
		}
		return sparql.LexicalForm(vals[0]), true
	}
	num := func(p quad.IRI, required bool) (int, error) {
		s, ok := single(p)
		if !ok {
			if required {
				return 0, fmt.Errorf("standoff tag %s has no %s", iri, p)
			}
			return -1, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("standoff tag %s: invalid %s %q", iri, p, s)
		}
		return n, nil
	}
	var err error
	if t.Start, err = num(knora.StandoffTagHasStart, true); err != nil {
		return t, err
	}
	if t.End, err = num(knora.StandoffTagHasEnd, true); err != nil {
		return t, err
	}
	if t.StartIndex, err = num(knora.StandoffTagHasStartIndex, true); err != nil {
		return t, err
	}
	if t.EndIndex, err = num(knora.StandoffTagHasEndIndex, false); err != nil {
		return t, err
	}
	for p, vals := range props {
		switch p {
		case knora.StandoffTagHasStart, knora.StandoffTagHasEnd,
			knora.StandoffTagHasStartIndex, knora.StandoffTagHasEndIndex:
		case knora.RDFType:
			if len(vals) > 0 {
				t.Class = quad.IRI(sparql.LexicalForm(vals[0]))
			}
		case knora.StandoffTagHasUUID:
			t.UUID, _ = single(p)
		case knora.StandoffTagHasStartParent:
			s, _ := single(p)
			t.StartParent = quad.IRI(s)
		case knora.StandoffTagHasEndParent:
			s, _ := single(p)
			t.EndParent = quad.IRI(s)
		case knora.StandoffTagHasOriginalXMLID:
			t.OriginalXMLID, _ = single(p)
		case knora.StandoffTagHasInternalReference:
			s, _ := single(p)
			t.InternalReference = quad.IRI(s)
		default:
			if t.Attributes == nil {
				t.Attributes = make(map[quad.IRI][]string)
			}
			for _, v := range vals {
				t.Attributes[p] = append(t.Attributes[p], sparql.LexicalForm(v))
			}
		}
	}
	if t.Class == "" {
		return t, fmt.Errorf("standoff tag %s has no type", iri)
	}
	for _, list := range t.Attributes {
		sort.Strings(list)
	}
	return t, nil
}

// Resolve sorts the tags of one text by start index and fills in ParentIndex.
func Resolve(tags []Tag) error {
	sort.Slice(tags, func(i, j int) bool { return tags[i].StartIndex < tags[j].StartIndex })
	index := make(map[quad.IRI]int, len(tags))
	for _, t := range tags {
		index[t.Iri] = t.StartIndex
	}
	for i := range tags {
		if tags[i].StartParent == "" {
			continue
		}
		p, ok := index[tags[i].StartParent]
		if !ok {
			return fmt.Errorf("standoff tag %s refers to unknown parent %s", tags[i].Iri, tags[i].StartParent)
		}
		tags[i].ParentIndex = p
	}
	return nil
}
