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
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/dasch-swiss/gravsearch/internal/config"
	chttp "github.com/dasch-swiss/gravsearch/internal/http"
	"github.com/dasch-swiss/gravsearch/internal/render"
	_ "github.com/dasch-swiss/gravsearch/query/gravsearch/dialect/all"
	"github.com/dasch-swiss/gravsearch/query/gravsearch/search/searchtest"
)

func setup(t *testing.T, n int) *searchtest.Store {
	t.Helper()
	color.NoColor = true
	st := searchtest.NewStore(n)
	srv := httptest.NewServer(st)
	t.Cleanup(srv.Close)
	viper.Reset()
	t.Cleanup(viper.Reset)
	config.SetDefaults(viper.GetViper())
	viper.Set(config.KeyURL, srv.URL)
	viper.Set(config.KeyRepository, "test")
	viper.Set(config.KeyPageSize, 10)
	return st
}

func writeQuery(t *testing.T, name, query string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(query), 0644))
	return path
}

func execute(cmd *cobra.Command, args ...string) (string, error) {
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestSearchCmd(t *testing.T) {
	st := setup(t, 3)
	file := writeQuery(t, "label.rq", fmt.Sprintf(searchtest.LabelQuery, 0))

	out, err := execute(NewSearchCmd(), file, "--format", "json")
	require.NoError(t, err)
	var res render.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Resources, 3)
	require.Equal(t, string(st.Resources[0]), res.Resources[0].Iri)

	out, err = execute(NewSearchCmd(), file)
	require.NoError(t, err)
	require.Contains(t, out, "3 resources")

	_, err = execute(NewSearchCmd(), file, "--format", "xml")
	require.Error(t, err)
}

func TestSearchCmdStdin(t *testing.T) {
	setup(t, 2)
	cmd := NewSearchCmd()
	cmd.SetIn(strings.NewReader(fmt.Sprintf(searchtest.LabelQuery, 0)))
	out, err := execute(cmd, "-")
	require.NoError(t, err)
	require.Contains(t, out, "2 resources")
}

func TestSearchCmdUser(t *testing.T) {
	st := setup(t, 3)
	st.Perms[st.Resources[0]] = "V knora-admin:ProjectMember"
	file := writeQuery(t, "label.rq", fmt.Sprintf(searchtest.LabelQuery, 0))

	out, err := execute(NewSearchCmd(), file)
	require.NoError(t, err)
	require.Contains(t, out, "2 resources")

	out, err = execute(NewSearchCmd(), file, "--user", "http://rdfh.ch/users/member", "--project", string(searchtest.Project))
	require.NoError(t, err)
	require.Contains(t, out, "3 resources")
}

func TestCountCmd(t *testing.T) {
	setup(t, 23)
	file := writeQuery(t, "label.rq", fmt.Sprintf(searchtest.LabelQuery, 0))
	out, err := execute(NewCountCmd(), file)
	require.NoError(t, err)
	require.Equal(t, "23\n", out)
}

func TestCompileCmd(t *testing.T) {
	st := setup(t, 3)
	file := writeQuery(t, "label.rq", fmt.Sprintf(searchtest.LabelQuery, 0))

	out, err := execute(NewCompileCmd(), file, "--page", "2")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "SELECT"), out)
	require.Contains(t, out, "OFFSET 20")
	require.Empty(t, st.Selects)

	out, err = execute(NewCompileCmd(), file, "--run")
	require.NoError(t, err)
	require.Contains(t, out, "3 rows")
	require.Contains(t, out, string(st.Resources[2]))
	require.Len(t, st.Selects, 1)

	out, err = execute(NewCompileCmd(), file, "--count", "--run")
	require.NoError(t, err)
	require.Contains(t, out, "COUNT(DISTINCT")
	require.Contains(t, out, "1 rows")
}

func TestBatchCmd(t *testing.T) {
	setup(t, 3)
	dir := t.TempDir()
	var files []string
	for i := 0; i < 3; i++ {
		path := filepath.Join(dir, fmt.Sprintf("q%d.rq", i))
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(searchtest.LabelQuery, 0)), 0644))
		files = append(files, path)
	}
	out, err := execute(NewBatchCmd(), append(files, "--parallel", "2")...)
	require.NoError(t, err)
	for i := range files {
		require.Contains(t, out, fmt.Sprintf("q%d.rq", i))
	}
	require.Contains(t, out, "3 queries in")

	out, err = execute(NewBatchCmd(), append(files, "--count")...)
	require.NoError(t, err)
	require.Contains(t, out, "count")
}

func TestBatchCmdFailure(t *testing.T) {
	setup(t, 3)
	good := writeQuery(t, "good.rq", fmt.Sprintf(searchtest.LabelQuery, 0))
	bad := writeQuery(t, "bad.rq", "CONSTRUCT } WHERE {")

	_, err := execute(NewBatchCmd(), good, bad)
	require.Error(t, err)
	require.Contains(t, err.Error(), "bad.rq")

	out, err := execute(NewBatchCmd(), good, bad, "--keep_going")
	require.NoError(t, err)
	require.Contains(t, out, "query syntax error")
	require.Contains(t, out, "ok")

	_, err = execute(NewBatchCmd(), good, "--parallel", "0")
	require.Error(t, err)
	_, err = execute(NewBatchCmd(), filepath.Join(t.TempDir(), "missing.rq"))
	require.Error(t, err)
}

func TestHealthCmd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(chttp.HandleHealth))
	defer srv.Close()
	out, err := execute(NewHealthCmd(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "ok\n", out)

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer failing.Close()
	_, err = execute(NewHealthCmd(), failing.URL)
	require.Error(t, err)
}

func TestInvalidConfig(t *testing.T) {
	setup(t, 0)
	viper.Set(config.KeyDialect, "virtuoso")
	file := writeQuery(t, "label.rq", fmt.Sprintf(searchtest.LabelQuery, 0))
	_, err := execute(NewCountCmd(), file)
	require.Error(t, err)
}
