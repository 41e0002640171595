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

package triplestore

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dasch-swiss/gravsearch/query/sparql"
)

// selectResults is the SPARQL 1.1 Query Results JSON Format.
type selectResults struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []map[string]binding `json:"bindings"`
	} `json:"results"`
}

type binding struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Lang     string `json:"xml:lang,omitempty"`
}

func decodeSelectResults(r io.Reader) (*sparql.SelectResults, error) {
	var raw selectResults
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("cannot decode SELECT results: %w", err)
	}
	out := &sparql.SelectResults{Vars: raw.Head.Vars}
	for _, b := range raw.Results.Bindings {
		row := make(sparql.VariableResultsRow, len(b))
		for name, v := range b {
			switch v.Type {
			case "uri", "literal", "typed-literal", "bnode":
			default:
				return nil, fmt.Errorf("unknown binding type %q for ?%s", v.Type, name)
			}
			row[name] = v.Value
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}
