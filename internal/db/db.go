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

// Package db opens the triple store and the search engine described by a
// configuration.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/dasch-swiss/gravsearch/clog"
	"github.com/dasch-swiss/gravsearch/internal/config"
	"github.com/dasch-swiss/gravsearch/ontology"
	"github.com/dasch-swiss/gravsearch/query/gravsearch/dialect"
	"github.com/dasch-swiss/gravsearch/query/gravsearch/search"
	"github.com/dasch-swiss/gravsearch/standoff"
	"github.com/dasch-swiss/gravsearch/triplestore"
)

// OpenStore returns a client for the SPARQL endpoint of the configured repository.
func OpenStore(cfg *config.Config) (*triplestore.Client, error) {
	reg, err := dialect.Lookup(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	return triplestore.New(triplestore.Config{
		URL:       cfg.URL,
		QueryPath: reg.Path(cfg.Repository),
		Username:  cfg.Username,
		Password:  cfg.Password,
		Timeout:   cfg.Timeout,
	})
}

// LoadOntology builds the ontology from the built-in definitions, the
// configured files and, if enabled, the definitions held by the store.
func LoadOntology(ctx context.Context, cfg *config.Config, store ontology.Constructor) (*ontology.Ontology, error) {
	b := ontology.NewBuilder()
	if err := b.ReadCore(); err != nil {
		return nil, err
	}
	for _, path := range cfg.OntologyFiles {
		n, err := b.ReadFile(path)
		if err != nil {
			return nil, err
		}
		clog.Infof("read %d ontology statements from %s", n, path)
	}
	if cfg.OntologyFromStore {
		start := time.Now()
		n, err := ontology.FetchFromStore(ctx, store, b)
		if err != nil {
			return nil, fmt.Errorf("cannot load ontologies from the triple store: %w", err)
		}
		clog.Infof("read %d ontology statements from the triple store in %v", n, time.Since(start))
	}
	return b.Build()
}

// Open returns a search engine for cfg.
func Open(ctx context.Context, cfg *config.Config) (*search.Engine, error) {
	store, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}
	ont, err := LoadOntology(ctx, cfg, store)
	if err != nil {
		return nil, err
	}
	d, err := dialect.New(cfg.Dialect, ont)
	if err != nil {
		return nil, err
	}
	var mappings standoff.MappingProvider
	if cfg.Mappings != "" {
		if mappings, err = standoff.Open(cfg.Mappings, cfg.MappingCacheSize); err != nil {
			return nil, err
		}
	}
	clog.Infof("using %s dialect at %s", d.Name(), store.Endpoint())
	return search.New(search.Config{
		Ontology:  ont,
		Converter: ontology.NewConverter(cfg.APIHost),
		Store:     store,
		Dialect:   d,
		Mappings:  mappings,
		PageSize:  cfg.PageSize,
	})
}
