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
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/cayleygraph/quad"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/dasch-swiss/gravsearch/query/sparql"
)

// MaxWidth is the width at which table cells are cut.
const MaxWidth = 60

func sortIRIs(list []quad.IRI) {
	sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
}

func cut(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if r := []rune(s); len(r) > MaxWidth {
		return string(r[:MaxWidth-3]) + "..."
	}
	return s
}

func newTable(w io.Writer, columns int) *tablewriter.Table {
	alignment := make([]tw.Align, columns)
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}
	return tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
}

// Table writes one row per value of every resource of res, and a summary line.
func Table(w io.Writer, res *Result) error {
	if len(res.Resources) == 0 {
		_, err := fmt.Fprintln(w, color.YellowString("no results"))
		return err
	}
	table := newTable(w, 5)
	table.Header([]string{"resource", "label", "class", "property", "value"})
	for _, r := range res.Resources {
		row := []string{cut(r.Iri), cut(r.Label), cut(r.Class)}
		if len(r.Values) == 0 {
			table.Append(append(row, "", ""))
			continue
		}
		props := make([]string, 0, len(r.Values))
		for p := range r.Values {
			props = append(props, p)
		}
		sort.Strings(props)
		for _, p := range props {
			for _, v := range r.Values[p] {
				table.Append(append(row[:3:3], cut(p), cut(summary(v))))
			}
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	more := ""
	if res.MayHaveMoreResults {
		more = color.CyanString(" (more may follow)")
	}
	_, err := fmt.Fprintf(w, "\n%s%s\n", color.GreenString("%d resources", len(res.Resources)), more)
	return err
}

// summary is the most telling part of a value: its link target or its literals.
func summary(v Value) string {
	if v.Nested != nil {
		return v.Nested.Label + " <" + v.Nested.Iri + ">"
	}
	if v.Target != "" {
		return "<" + v.Target + ">"
	}
	keys := make([]string, 0, len(v.Literals))
	for k := range v.Literals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var parts []string
	for _, k := range keys {
		parts = append(parts, strings.Join(v.Literals[k], ", "))
	}
	return strings.Join(parts, "; ")
}

// Rows writes the rows of a SELECT result.
func Rows(w io.Writer, res *sparql.SelectResults) error {
	lines := make([][]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		line := make([]string, len(res.Vars))
		for i, v := range res.Vars {
			line[i] = row[v]
		}
		lines = append(lines, line)
	}
	return Lines(w, res.Vars, lines)
}

// Lines writes a table of rows under header, and the number of rows.
func Lines(w io.Writer, header []string, rows [][]string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, color.YellowString("no rows"))
		return err
	}
	table := newTable(w, len(header))
	table.Header(header)
	for _, row := range rows {
		line := make([]string, len(row))
		for i, v := range row {
			line[i] = cut(v)
		}
		table.Append(line)
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%s\n", color.GreenString("%d rows", len(rows)))
	return err
}
