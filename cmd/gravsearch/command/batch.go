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
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dasch-swiss/gravsearch/clog"
	"github.com/dasch-swiss/gravsearch/internal/render"
	"github.com/dasch-swiss/gravsearch/permission"
	"github.com/dasch-swiss/gravsearch/query/gravsearch"
	"github.com/dasch-swiss/gravsearch/query/gravsearch/search"
)

type batchResult struct {
	file      string
	resources int
	count     int
	more      bool
	elapsed   time.Duration
	err       error
}

func (r batchResult) row(count bool) []string {
	status := color.GreenString("ok")
	if r.err != nil {
		status = color.RedString(r.err.Error())
	}
	n := strconv.Itoa(r.resources)
	if count {
		n = strconv.Itoa(r.count)
	} else if r.more {
		n += "+"
	}
	return []string{filepath.Base(r.file), n, r.elapsed.Round(time.Millisecond).String(), status}
}

type batch struct {
	engine   *search.Engine
	user     *permission.User
	count    bool
	standoff bool
	timeout  time.Duration
}

func (b *batch) run(ctx context.Context, file, query string) batchResult {
	res := batchResult{file: file}
	if b.timeout > 0 {
		var cancel func()
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	start := time.Now()
	if b.count {
		res.count, res.err = b.engine.Count(ctx, query)
	} else {
		var out *search.Result
		out, res.err = b.engine.Search(ctx, query, b.user, gravsearch.SchemaOptions{MarkupAsStandoff: b.standoff})
		if res.err == nil {
			res.resources, res.more = len(out.Resources), out.MayHaveMoreResults
		}
	}
	res.elapsed = time.Since(start)
	return res
}

func NewBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch FILE...",
		Short: "Run Gravsearch queries in parallel and print a summary.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parallel, _ := cmd.Flags().GetInt("parallel")
			if parallel <= 0 {
				return fmt.Errorf("invalid number of parallel queries: %d", parallel)
			}
			keepGoing, _ := cmd.Flags().GetBool("keep_going")
			timeout, _ := cmd.Flags().GetDuration(flagTimeout)
			count, _ := cmd.Flags().GetBool("count")
			standoff, _ := cmd.Flags().GetBool(flagStandoff)

			queries := make([]string, len(args))
			for i, file := range args {
				q, err := readQuery(cmd, file)
				if err != nil {
					return err
				}
				queries[i] = q
			}
			p := mustSetupProfile(cmd)
			defer mustFinishProfile(p)

			ctx, cancel := getContext()
			defer cancel()
			e, _, err := openEngine(ctx)
			if err != nil {
				return err
			}
			b := &batch{engine: e, user: userFromFlags(cmd), count: count, standoff: standoff, timeout: timeout}

			start := time.Now()
			results := make([]batchResult, len(args))
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(parallel)
			for i := range args {
				i := i
				g.Go(func() error {
					results[i] = b.run(gctx, args[i], queries[i])
					if err := results[i].err; err != nil {
						clog.Errorf("%s: %v", args[i], err)
						if !keepGoing {
							return fmt.Errorf("%s: %w", args[i], err)
						}
					}
					return nil
				})
			}
			err = g.Wait()

			header := []string{"query", "resources", "elapsed", "status"}
			if count {
				header[1] = "count"
			}
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				if r.file != "" {
					rows = append(rows, r.row(count))
				}
			}
			out := cmd.OutOrStdout()
			if rerr := render.Lines(out, header, rows); rerr != nil && err == nil {
				err = rerr
			}
			fmt.Fprintf(out, "%d queries in %v\n", len(args), time.Since(start).Round(time.Millisecond))
			return err
		},
	}
	registerQueryFlags(cmd)
	registerUserFlags(cmd)
	cmd.Flags().IntP("parallel", "p", 4, "number of queries to run at the same time")
	cmd.Flags().Bool("keep_going", false, "run the remaining queries after a failure")
	cmd.Flags().Bool("count", false, "count the main resources instead of searching")
	cmd.Flags().Bool(flagStandoff, false, "include the standoff markup of text values")
	return cmd
}
