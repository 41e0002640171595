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

// Package search runs Gravsearch queries against a triple store: a
// prequery selects one page of main resources, a main query fetches their
// data, and the statements are assembled into resources the requesting
// user may see.
package search

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/cayleygraph/quad"
	"github.com/google/uuid"

	"github.com/dasch-swiss/gravsearch/clog"
	"github.com/dasch-swiss/gravsearch/ontology"
	"github.com/dasch-swiss/gravsearch/permission"
	"github.com/dasch-swiss/gravsearch/query/gravsearch"
	"github.com/dasch-swiss/gravsearch/query/gravsearch/assemble"
	"github.com/dasch-swiss/gravsearch/query/gravsearch/dialect"
	"github.com/dasch-swiss/gravsearch/query/gravsearch/mainquery"
	"github.com/dasch-swiss/gravsearch/query/gravsearch/merge"
	"github.com/dasch-swiss/gravsearch/query/gravsearch/prequery"
	"github.com/dasch-swiss/gravsearch/query/gravsearch/typeinspect"
	"github.com/dasch-swiss/gravsearch/query/sparql"
	"github.com/dasch-swiss/gravsearch/standoff"
)

// DefaultPageSize is used when Config.PageSize is not set.
const DefaultPageSize = 25

// Store answers SPARQL queries. *triplestore.Client implements it.
type Store interface {
	Select(ctx context.Context, query string) (*sparql.SelectResults, error)
	Construct(ctx context.Context, query string) ([]quad.Quad, error)
}

// Config holds the collaborators of an Engine.
type Config struct {
	Ontology  ontology.Provider
	Converter *ontology.Converter
	Store     Store
	Dialect   *dialect.Dialect
	// Mappings resolves the standoff mappings of text values. Optional.
	Mappings standoff.MappingProvider
	PageSize int
}

// Engine runs Gravsearch queries. It keeps no state between queries and
// is safe for concurrent use.
type Engine struct {
	ont      ontology.Provider
	conv     *ontology.Converter
	store    Store
	dialect  *dialect.Dialect
	mappings standoff.MappingProvider
	pageSize int
}

// New returns an Engine for c.
func New(c Config) (*Engine, error) {
	switch {
	case c.Ontology == nil:
		return nil, errors.New("search: no ontology")
	case c.Converter == nil:
		return nil, errors.New("search: no schema converter")
	case c.Store == nil:
		return nil, errors.New("search: no triple store")
	case c.Dialect == nil:
		return nil, gravsearch.Errorf(gravsearch.DialectUnsupported, "no triple store dialect configured")
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	return &Engine{
		ont:      c.Ontology,
		conv:     c.Converter,
		store:    c.Store,
		dialect:  c.Dialect,
		mappings: c.Mappings,
		pageSize: c.PageSize,
	}, nil
}

// PageSize returns the number of main resources per page.
func (e *Engine) PageSize() int { return e.pageSize }

// Converter returns the schema converter of the engine.
func (e *Engine) Converter() *ontology.Converter { return e.conv }

// Result is one page of search results.
type Result struct {
	// Resources are the visible main resources of the page, in order.
	Resources []*assemble.Resource
	// Mappings are the standoff mappings used by text values of the page.
	Mappings map[quad.IRI]*standoff.Mapping
	// Schema is the schema the query was written in.
	Schema sparql.Schema
	// MayHaveMoreResults is set if the prequery returned a full page.
	// Some main resources of a full page may be hidden, so a page can be
	// short and still be followed by another one.
	MayHaveMoreResults bool
}

// Compiled is a query compiled to its prequery.
type Compiled struct {
	// Query is the Gravsearch query in the internal schema, without type annotations.
	Query    *sparql.ConstructQuery
	Types    *gravsearch.TypeInspectionResult
	Prequery *prequery.Prequery
	// Select is the prequery in the dialect of the triple store.
	Select *sparql.SelectQuery
}

// Compile compiles a Gravsearch query to the prequery sent to the triple
// store. If page is not negative, it replaces the OFFSET of the query.
func (e *Engine) Compile(query string, count bool, page int64) (*Compiled, error) {
	parsed, err := gravsearch.Parse(query)
	if err != nil {
		return nil, err
	}
	if page >= 0 {
		parsed.Offset = page
	}
	q, err := gravsearch.ToInternal(parsed, e.conv)
	if err != nil {
		return nil, err
	}
	if _, err := gravsearch.Validate(q); err != nil {
		return nil, err
	}
	types, where, err := typeinspect.New(e.ont).Inspect(q.WhereClause)
	if err != nil {
		return nil, err
	}
	q.WhereClause = where
	pq, err := prequery.Transform(q, types, e.ont, prequery.Options{
		Schema:   q.QuerySchema,
		Count:    count,
		PageSize: e.pageSize,
	})
	if err != nil {
		return nil, err
	}
	return &Compiled{Query: q, Types: types, Prequery: pq, Select: e.dialect.Select(pq.Query)}, nil
}

// Count returns the number of main resources matching query, regardless
// of the requesting user's permissions.
func (e *Engine) Count(ctx context.Context, query string) (int, error) {
	run := clog.Scope(uuid.New().String())
	start := time.Now()
	c, err := e.Compile(query, true, -1)
	if err != nil {
		mQueries.WithLabelValues(kindLabel(err)).Inc()
		return 0, err
	}
	text := c.Select.String()
	if clog.V(2) {
		run.Infof("count prequery:\n%s", text)
	}
	res, err := e.store.Select(ctx, text)
	if err != nil {
		err = gravsearch.Wrap(gravsearch.TriplestoreCommunication, err, "count prequery failed")
		mQueries.WithLabelValues(kindLabel(err)).Inc()
		return 0, err
	}
	n := 0
	if len(res.Rows) > 0 {
		s, ok := res.Rows[0][prequery.CountVariable]
		if !ok {
			err = gravsearch.Errorf(gravsearch.InconsistentRepositoryData, "count prequery returned no ?%s", prequery.CountVariable)
		} else if n, err = strconv.Atoi(s); err != nil {
			err = gravsearch.Wrap(gravsearch.InconsistentRepositoryData, err, "invalid count")
		}
		if err != nil {
			mQueries.WithLabelValues(kindLabel(err)).Inc()
			return 0, err
		}
	}
	mQueries.WithLabelValues("count").Inc()
	if clog.V(1) {
		run.Infof("count: %d main resources in %v", n, time.Since(start))
	}
	return n, nil
}

// page is the outcome of a prequery: the main resources the user may see
// and the resources and values the main query fetches for them.
type page struct {
	order      []quad.IRI
	dependents []quad.IRI
	values     []quad.IRI
	rows       int
	hidden     int
}

type iriSet struct {
	seen map[quad.IRI]struct{}
	list []quad.IRI
}

func (s *iriSet) add(iri quad.IRI) {
	if iri == "" {
		return
	}
	if s.seen == nil {
		s.seen = make(map[quad.IRI]struct{})
	}
	if _, ok := s.seen[iri]; ok {
		return
	}
	s.seen[iri] = struct{}{}
	s.list = append(s.list, iri)
}

// visible keeps the prequery rows whose main resource the user may see
// and collects the IRIs found in their concatenated columns.
func visible(pq *prequery.Prequery, rows []sparql.VariableResultsRow, u *permission.User) (*page, error) {
	creatorCol, projectCol, permsCol := pq.MetadataColumns()
	p := &page{rows: len(rows)}
	var mains, deps, vals iriSet
	for _, row := range rows {
		main := quad.IRI(row[pq.MainVar.Name])
		creator, ok1 := row[creatorCol]
		project, ok2 := row[projectCol]
		perms, ok3 := row[permsCol]
		if !ok1 || !ok2 || !ok3 {
			return nil, gravsearch.Errorf(gravsearch.InconsistentRepositoryData, "main resource %s lacks a creator, project or permissions", main)
		}
		level, ok := permission.GetUserPermission(quad.IRI(creator), quad.IRI(project), perms, u)
		if !ok || level < assemble.ResourceVisibility {
			p.hidden++
			continue
		}
		mains.add(main)
		for _, v := range pq.DependentVars {
			for _, iri := range merge.Split(row[prequery.ConcatColumn(v)]) {
				deps.add(quad.IRI(iri))
			}
		}
		for _, v := range pq.ValueVars {
			for _, iri := range merge.Split(row[prequery.ConcatColumn(v)]) {
				vals.add(quad.IRI(iri))
			}
		}
	}
	p.order = mains.list
	for _, iri := range deps.list {
		if _, ok := mains.seen[iri]; !ok {
			p.dependents = append(p.dependents, iri)
		}
	}
	p.values = vals.list
	return p, nil
}

// Search runs query for user and returns one page of results. The page is
// chosen by the OFFSET of the query.
func (e *Engine) Search(ctx context.Context, query string, u *permission.User, opts gravsearch.SchemaOptions) (*Result, error) {
	res, err := e.search(ctx, query, u, opts)
	if err != nil {
		mQueries.WithLabelValues(kindLabel(err)).Inc()
		return nil, err
	}
	mQueries.WithLabelValues("search").Inc()
	return res, nil
}

func (e *Engine) search(ctx context.Context, query string, u *permission.User, opts gravsearch.SchemaOptions) (*Result, error) {
	if u == nil {
		u = permission.Anonymous()
	}
	run := clog.Scope(uuid.New().String())
	start := time.Now()
	c, err := e.Compile(query, false, -1)
	if err != nil {
		return nil, err
	}
	out := &Result{Schema: c.Query.QuerySchema}

	text := c.Select.String()
	if clog.V(2) {
		run.Infof("prequery:\n%s", text)
	}
	sel, err := e.store.Select(ctx, text)
	if err != nil {
		return nil, gravsearch.Wrap(gravsearch.TriplestoreCommunication, err, "prequery failed")
	}
	rows := merge.Merge(sel.Rows, c.Prequery.MainVar.Name)
	mPrequeryRows.Observe(float64(len(rows)))
	out.MayHaveMoreResults = len(rows) >= e.pageSize

	pg, err := visible(c.Prequery, rows, u)
	if err != nil {
		run.Errorf("%v", err)
		return nil, err
	}
	mHidden.WithLabelValues("main_resource").Add(float64(pg.hidden))
	if len(pg.order) == 0 {
		if clog.V(1) {
			run.Infof("prequery: %d rows, no visible main resources in %v", pg.rows, time.Since(start))
		}
		return out, nil
	}

	props, all := mainquery.RequestedProperties(c.Query, e.ont)
	mq := e.dialect.Construct(mainquery.Build(mainquery.Input{
		MainResources:      pg.order,
		DependentResources: pg.dependents,
		ValueObjects:       pg.values,
		Properties:         props,
		AllProperties:      all,
		Standoff:           opts.MarkupAsStandoff,
	}), false)
	text = mq.String()
	if clog.V(2) {
		run.Infof("main query:\n%s", text)
	}
	statements, err := e.store.Construct(ctx, text)
	if err != nil {
		return nil, gravsearch.Wrap(gravsearch.TriplestoreCommunication, err, "main query failed")
	}
	ar, err := assemble.Assemble(statements, pg.order, u, e.ont)
	if err != nil {
		return nil, err
	}
	mHidden.WithLabelValues("resource").Add(float64(ar.HiddenResources))
	mHidden.WithLabelValues("value").Add(float64(ar.HiddenValues))
	out.Resources = ar.Resources

	if len(ar.Mappings) > 0 && e.mappings != nil {
		out.Mappings = make(map[quad.IRI]*standoff.Mapping, len(ar.Mappings))
		for _, iri := range ar.Mappings {
			m, err := e.mappings.Mapping(ctx, iri)
			if errors.Is(err, standoff.ErrMappingNotFound) {
				run.Warningf("text values refer to unknown mapping %s", iri)
				continue
			} else if err != nil {
				return nil, gravsearch.Wrap(gravsearch.InconsistentRepositoryData, err, "cannot load mapping "+string(iri))
			}
			out.Mappings[iri] = m
		}
	}
	if clog.V(1) {
		run.Infof("prequery: %d rows, %d main resources, %d statements in %v",
			pg.rows, len(out.Resources), len(statements), time.Since(start))
	}
	return out, nil
}
