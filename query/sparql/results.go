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

package sparql

import (
	"strconv"
	"time"

	"github.com/cayleygraph/quad"
)

// VariableResultsRow is one solution of a SELECT query: variable name
// (without '?') to the lexical form of its binding. Unbound variables are absent.
type VariableResultsRow map[string]string

// Clone returns a copy of the row.
func (r VariableResultsRow) Clone() VariableResultsRow {
	c := make(VariableResultsRow, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// SelectResults is the response to a SELECT query. Vars keeps the order of
// the result header.
type SelectResults struct {
	Vars []string
	Rows []VariableResultsRow
}

// LexicalForm returns the lexical form of an RDF term: the IRI or blank node
// label without brackets, or the literal text without quotes and datatype.
func LexicalForm(v quad.Value) string {
	switch v := v.(type) {
	case nil:
		return ""
	case quad.IRI:
		return string(v)
	case quad.BNode:
		return string(v)
	case quad.String:
		return string(v)
	case quad.TypedString:
		return string(v.Value)
	case quad.LangString:
		return string(v.Value)
	case quad.Int:
		return strconv.FormatInt(int64(v), 10)
	case quad.Float:
		return strconv.FormatFloat(float64(v), 'g', -1, 64)
	case quad.Bool:
		return strconv.FormatBool(bool(v))
	case quad.Time:
		return time.Time(v).UTC().Format(time.RFC3339Nano)
	}
	return quad.StringOf(v)
}
