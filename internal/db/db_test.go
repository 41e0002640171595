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

package db

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dasch-swiss/gravsearch/internal/config"
	_ "github.com/dasch-swiss/gravsearch/query/gravsearch/dialect/all"
)

const (
	book    = "http://www.knora.org/ontology/0001/books#Book"
	chapter = "http://www.knora.org/ontology/0001/books#Chapter"
)

func testConfig(url string) *config.Config {
	return &config.Config{
		Dialect:    "fuseki",
		URL:        url,
		Repository: "knora",
		PageSize:   25,
		APIHost:    "0.0.0.0:3333",
	}
}

func TestOpenStore(t *testing.T) {
	c, err := OpenStore(testConfig("http://localhost:3030"))
	require.NoError(t, err)
	require.Equal(t, "http://localhost:3030/knora/query", c.Endpoint())

	cfg := testConfig("http://localhost:3030")
	cfg.Dialect = "stardog"
	_, err = OpenStore(cfg)
	require.Error(t, err)
}

func TestLoadOntology(t *testing.T) {
	var queries int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&queries, 1)
		w.Header().Set("Content-Type", "application/n-triples")
		fmt.Fprintf(w, "<%s> <http://www.w3.org/2000/01/rdf-schema#subClassOf> <http://www.knora.org/ontology/knora-base#Resource> .\n", book)
	}))
	defer srv.Close()

	dir := t.TempDir()
	file := filepath.Join(dir, "chapter.nt")
	require.NoError(t, os.WriteFile(file, []byte(fmt.Sprintf(
		"<%s> <http://www.w3.org/2000/01/rdf-schema#subClassOf> <%s> .\n", chapter, book)), 0644))

	cfg := testConfig(srv.URL)
	cfg.OntologyFiles = []string{file}
	cfg.OntologyFromStore = true
	store, err := OpenStore(cfg)
	require.NoError(t, err)
	ont, err := LoadOntology(context.Background(), cfg, store)
	require.NoError(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&queries))

	c, ok := ont.Class(chapter)
	require.True(t, ok)
	require.True(t, c.IsResourceClass)
	require.True(t, c.IsSubClassOf(book))

	e, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, 25, e.PageSize())
}

func TestOpenMissingMappings(t *testing.T) {
	cfg := testConfig("http://localhost:3030")
	cfg.Mappings = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := Open(context.Background(), cfg)
	require.Error(t, err)
}
