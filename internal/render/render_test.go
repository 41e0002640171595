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

package render

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/cayleygraph/quad"
	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/dasch-swiss/gravsearch/ontology"
	"github.com/dasch-swiss/gravsearch/permission"
	"github.com/dasch-swiss/gravsearch/query/gravsearch/assemble"
	"github.com/dasch-swiss/gravsearch/query/gravsearch/search"
	"github.com/dasch-swiss/gravsearch/query/sparql"
	"github.com/dasch-swiss/gravsearch/standoff"
	"github.com/dasch-swiss/gravsearch/voc/knora"
)

const (
	anything = "http://www.knora.org/ontology/0001/anything#"
	thing    = "http://rdfh.ch/0001/thing"
	other    = "http://rdfh.ch/0001/other"
	mapping  = "http://rdfh.ch/standoff/mappings/StandardMapping"
)

func testResult(schema sparql.Schema) *search.Result {
	nested := &assemble.Resource{Iri: other, Class: anything + "Thing", Label: "Other", UserPermission: permission.View}
	return &search.Result{
		Schema:             schema,
		MayHaveMoreResults: true,
		Mappings:           map[quad.IRI]*standoff.Mapping{mapping: {Iri: mapping}},
		Resources: []*assemble.Resource{{
			Iri:            thing,
			Class:          anything + "Thing",
			Label:          "Thing",
			UserPermission: permission.ChangeRights,
			Values: map[quad.IRI][]*assemble.Value{
				anything + "hasText": {{
					Iri:            thing + "/values/1",
					Class:          knora.TextValue,
					Order:          -1,
					UserPermission: permission.View,
					Literals:       map[quad.IRI][]string{knora.ValueHasString: {"text"}},
					Mapping:        mapping,
					Standoff: []standoff.Tag{{
						Iri: thing + "/values/1/standoff/0", Class: knora.StandoffNS + "StandoffParagraphTag",
						End: 4, EndIndex: -1, ParentIndex: -1,
					}},
				}},
				anything + "hasOtherThingValue": {{
					Iri:    thing + "/values/2",
					Class:  knora.LinkValue,
					Order:  2,
					Source: thing,
					Target: other,
					Nested: nested,
				}},
			},
		}},
	}
}

func TestNewResultInternal(t *testing.T) {
	res := NewResult(testResult(sparql.ApiV2Complex), nil)
	require.True(t, res.MayHaveMoreResults)
	require.Len(t, res.Mappings, 1)
	require.Len(t, res.Resources, 1)
	r := res.Resources[0]
	require.Equal(t, anything+"Thing", r.Class)
	require.Equal(t, "CR", r.UserPermission)

	text := r.Values[anything+"hasText"][0]
	require.Nil(t, text.Order)
	require.Equal(t, []string{"text"}, text.Literals[knora.NS+"valueHasString"])
	require.Len(t, text.Standoff, 1)
	require.Nil(t, text.Standoff[0].EndIndex)
	require.Nil(t, text.Standoff[0].ParentIndex)

	link := r.Values[anything+"hasOtherThingValue"][0]
	require.NotNil(t, link.Order)
	require.Equal(t, 2, *link.Order)
	require.Equal(t, other, link.Nested.Iri)
	require.Equal(t, "V", link.Nested.UserPermission)
}

func TestNewResultExternal(t *testing.T) {
	res := NewResult(testResult(sparql.ApiV2Complex), ontology.NewConverter("0.0.0.0:3333"))
	r := res.Resources[0]
	require.Equal(t, "http://0.0.0.0:3333/ontology/0001/anything/v2#Thing", r.Class)
	text := r.Values["http://0.0.0.0:3333/ontology/0001/anything/v2#hasText"][0]
	require.Equal(t, knora.APIComplexNS+"TextValue", text.Class)
	require.Equal(t, []string{"text"}, text.Literals[knora.APIComplexNS+"valueAsString"])

	res = NewResult(testResult(sparql.ApiV2Simple), ontology.NewConverter("0.0.0.0:3333"))
	require.Equal(t, "http://0.0.0.0:3333/ontology/0001/anything/simple/v2#Thing", res.Resources[0].Class)
}

func TestJSON(t *testing.T) {
	data, err := json.Marshal(NewResult(&search.Result{}, nil))
	require.NoError(t, err)
	require.JSONEq(t, `{"resources":[],"mayHaveMoreResults":false}`, string(data))
}

func TestTable(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	require.NoError(t, Table(&buf, NewResult(testResult(sparql.ApiV2Complex), nil)))
	out := buf.String()
	require.Contains(t, out, "resource")
	require.Contains(t, out, other)
	require.Contains(t, out, "| Thing")
	require.Contains(t, out, "1 resources (more may follow)")

	buf.Reset()
	require.NoError(t, Table(&buf, NewResult(&search.Result{}, nil)))
	require.Equal(t, "no results\n", buf.String())
}

func TestRows(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	require.NoError(t, Rows(&buf, &sparql.SelectResults{
		Vars: []string{"main", "count"},
		Rows: []sparql.VariableResultsRow{{"main": thing, "count": "3"}, {"main": other}},
	}))
	require.Contains(t, buf.String(), "2 rows")
	require.Contains(t, buf.String(), thing)
}

func TestCut(t *testing.T) {
	long := string(bytes.Repeat([]byte("a"), MaxWidth+10))
	require.Len(t, []rune(cut(long)), MaxWidth)
	require.Equal(t, "a b", cut("a\nb"))
}
