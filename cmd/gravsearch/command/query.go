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

package command

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dasch-swiss/gravsearch/internal/db"
	"github.com/dasch-swiss/gravsearch/internal/render"
	"github.com/dasch-swiss/gravsearch/query/gravsearch"
	"github.com/dasch-swiss/gravsearch/query/gravsearch/search"
)

func registerQueryFlags(cmd *cobra.Command) {
	cmd.Flags().DurationP(flagTimeout, "t", 0, "elapsed time until the query times out")
}

func writeResult(w io.Writer, format string, res *search.Result, e *search.Engine) error {
	out := render.NewResult(res, e.Converter())
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case formatTable:
		return render.Table(w, out)
	}
	return fmt.Errorf("unknown output format: %q", format)
}

func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search FILE",
		Short: `Run a Gravsearch query and print one page of results ("-" reads the query from stdin).`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := readQuery(cmd, args[0])
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString(flagFormat)
			standoff, _ := cmd.Flags().GetBool(flagStandoff)
			p := mustSetupProfile(cmd)
			defer mustFinishProfile(p)

			ctx, cancel := getContext()
			defer cancel()
			e, _, err := openEngine(ctx)
			if err != nil {
				return err
			}
			ctx, cancel = withTimeout(ctx, cmd)
			defer cancel()
			res, err := e.Search(ctx, query, userFromFlags(cmd), gravsearch.SchemaOptions{MarkupAsStandoff: standoff})
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), format, res, e)
		},
	}
	registerQueryFlags(cmd)
	registerUserFlags(cmd)
	cmd.Flags().StringP(flagFormat, "f", formatTable, `output format ("table" or "json")`)
	cmd.Flags().Bool(flagStandoff, false, "include the standoff markup of text values")
	return cmd
}

func NewCountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count FILE",
		Short: "Print the number of main resources matching a Gravsearch query.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := readQuery(cmd, args[0])
			if err != nil {
				return err
			}
			ctx, cancel := getContext()
			defer cancel()
			e, _, err := openEngine(ctx)
			if err != nil {
				return err
			}
			ctx, cancel = withTimeout(ctx, cmd)
			defer cancel()
			n, err := e.Count(ctx, query)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), n)
			return err
		},
	}
	registerQueryFlags(cmd)
	return cmd
}

func NewCompileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile FILE",
		Short: "Print the SPARQL prequery generated for a Gravsearch query.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := readQuery(cmd, args[0])
			if err != nil {
				return err
			}
			count, _ := cmd.Flags().GetBool("count")
			page, _ := cmd.Flags().GetInt64("page")
			run, _ := cmd.Flags().GetBool("run")

			ctx, cancel := getContext()
			defer cancel()
			e, cfg, err := openEngine(ctx)
			if err != nil {
				return err
			}
			c, err := e.Compile(query, count, page)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			text := c.Select.String()
			fmt.Fprint(out, text)
			if !run {
				return nil
			}
			store, err := db.OpenStore(cfg)
			if err != nil {
				return err
			}
			ctx, cancel = withTimeout(ctx, cmd)
			defer cancel()
			start := time.Now()
			rows, err := store.Select(ctx, text)
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			if err := render.Rows(out, rows); err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "Elapsed time: %s ms\n", strconv.FormatFloat(float64(time.Since(start))/float64(time.Millisecond), 'g', 4, 64))
			return err
		},
	}
	registerQueryFlags(cmd)
	cmd.Flags().Bool("count", false, "generate the count prequery")
	cmd.Flags().Int64("page", -1, "page to select instead of the OFFSET of the query")
	cmd.Flags().Bool("run", false, "run the prequery and print its rows")
	return cmd
}
