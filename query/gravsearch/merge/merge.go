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

// Package merge combines prequery rows that belong to the same main resource.
//
// Stores that aggregate with GROUP BY already return one row per main
// resource; merging those rows again changes nothing.
package merge

import (
	"strings"

	"github.com/dasch-swiss/gravsearch/query/gravsearch/prequery"
	"github.com/dasch-swiss/gravsearch/query/sparql"
)

// Merge returns one row per distinct value of mainVar, in the order the
// values first appear. The other columns of a group are joined with
// prequery.Separator, without repeating a value. Rows without mainVar are
// dropped.
func Merge(rows []sparql.VariableResultsRow, mainVar string) []sparql.VariableResultsRow {
	var (
		out   []sparql.VariableResultsRow
		index = make(map[string]int)
		seen  []map[string]map[string]struct{}
	)
	for _, row := range rows {
		main, ok := row[mainVar]
		if !ok {
			continue
		}
		i, ok := index[main]
		if !ok {
			i = len(out)
			index[main] = i
			out = append(out, sparql.VariableResultsRow{mainVar: main})
			seen = append(seen, make(map[string]map[string]struct{}))
		}
		merged := out[i]
		for col, val := range row {
			if col == mainVar {
				continue
			}
			set := seen[i][col]
			if set == nil {
				set = make(map[string]struct{})
				seen[i][col] = set
			}
			for _, v := range Split(val) {
				if _, dup := set[v]; dup {
					continue
				}
				set[v] = struct{}{}
				if cur, ok := merged[col]; ok && cur != "" {
					merged[col] = cur + prequery.Separator + v
				} else {
					merged[col] = v
				}
			}
			if _, ok := merged[col]; !ok {
				merged[col] = ""
			}
		}
	}
	return out
}

// Split returns the values of a concatenated column. An empty string has none.
func Split(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, prequery.Separator)
}
