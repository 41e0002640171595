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

// Package searchtest provides a fake triple store for testing the search
// engine and its front ends.
package searchtest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/nquads"

	"github.com/dasch-swiss/gravsearch/ontology/ontologytest"
	"github.com/dasch-swiss/gravsearch/query/gravsearch/mainquery"
	"github.com/dasch-swiss/gravsearch/query/gravsearch/prequery"
	"github.com/dasch-swiss/gravsearch/query/sparql"
	"github.com/dasch-swiss/gravsearch/voc/knora"
)

// LabelQuery matches every resource labelled "Test". It takes the page number.
const LabelQuery = `
PREFIX knora-api: <http://api.knora.org/ontology/knora-api/simple/v2#>
CONSTRUCT { ?r knora-api:isMainResource true . }
WHERE {
	?r a knora-api:Resource .
	?r knora-api:hasLabel ?label .
	FILTER(?label = "Test")
}
OFFSET %d`

// TextQuery asks for things with their text values.
const TextQuery = `
PREFIX knora-api: <http://api.knora.org/ontology/knora-api/v2#>
PREFIX anything: <http://0.0.0.0:3333/ontology/0001/anything/v2#>
CONSTRUCT {
	?thing knora-api:isMainResource true .
	?thing anything:hasText ?text .
}
WHERE {
	?thing a anything:Thing .
	?thing anything:hasText ?text .
}`

const (
	Creator = quad.IRI("http://rdfh.ch/users/creator")
	Project = quad.IRI("http://rdfh.ch/projects/0001")
	Mapping = quad.IRI("http://rdfh.ch/projects/0001/mappings/standard")
	// Public is the permission literal of resources without an entry in Perms.
	Public = "V knora-admin:UnknownUser"
)

// Store answers the queries of the search engine from a list of matching
// resources, the way a triple store holding them would. Every resource is
// a thing labelled "Test" with one text value.
type Store struct {
	mu         sync.Mutex
	Resources  []quad.IRI
	Perms      map[quad.IRI]string
	Err        error
	Selects    []*sparql.SelectQuery
	Constructs []*sparql.ConstructQuery
}

// NewStore returns a store holding n resources.
func NewStore(n int) *Store {
	s := &Store{Perms: make(map[quad.IRI]string)}
	for i := 0; i < n; i++ {
		s.Resources = append(s.Resources, quad.IRI(fmt.Sprintf("http://rdfh.ch/0001/r%03d", i)))
	}
	return s
}

// Fail makes all following queries return err.
func (s *Store) Fail(err error) {
	s.mu.Lock()
	s.Err = err
	s.mu.Unlock()
}

func (s *Store) permsOf(iri quad.IRI) string {
	if p, ok := s.Perms[iri]; ok {
		return p
	}
	return Public
}

func (s *Store) Select(_ context.Context, text string) (*sparql.SelectResults, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	q, err := sparql.ParseSelect(text)
	if err != nil {
		return nil, err
	}
	s.Selects = append(s.Selects, q)
	if q.Variables[0].Var.Name == prequery.CountVariable {
		return &sparql.SelectResults{
			Vars: []string{prequery.CountVariable},
			Rows: []sparql.VariableResultsRow{{prequery.CountVariable: strconv.Itoa(len(s.Resources))}},
		}, nil
	}
	main := q.GroupBy[0].Name
	res := &sparql.SelectResults{}
	for _, p := range q.Variables {
		res.Vars = append(res.Vars, p.Var.Name)
	}
	start, end := int(q.Offset), int(q.Offset+q.Limit)
	if start > len(s.Resources) {
		start = len(s.Resources)
	}
	if end > len(s.Resources) {
		end = len(s.Resources)
	}
	for _, iri := range s.Resources[start:end] {
		row := sparql.VariableResultsRow{
			main:                              string(iri),
			main + prequery.CreatorSuffix:     string(Creator),
			main + prequery.ProjectSuffix:     string(Project),
			main + prequery.PermissionsSuffix: s.permsOf(iri),
		}
		for _, p := range q.Variables {
			if agg, ok := p.Expr.(sparql.AggregateExpression); ok && agg.Function == sparql.GroupConcat {
				row[p.Var.Name] = string(iri) + "/values/" + agg.Expr.(sparql.Variable).Name
			}
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

// ValuesOf collects the IRIs of the VALUES blocks in ps, by variable name.
func ValuesOf(ps []sparql.QueryPattern, out map[string]map[quad.IRI]struct{}) {
	for _, p := range ps {
		switch p := p.(type) {
		case sparql.ValuesPattern:
			if out[p.Var.Name] == nil {
				out[p.Var.Name] = make(map[quad.IRI]struct{})
			}
			for _, v := range p.Values {
				out[p.Var.Name][v.(sparql.IriRef).Iri] = struct{}{}
			}
		case sparql.UnionPattern:
			for _, b := range p.Blocks {
				ValuesOf(b, out)
			}
		}
	}
}

func (s *Store) Construct(_ context.Context, text string) ([]quad.Quad, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	q, err := sparql.ParseConstruct(text)
	if err != nil {
		return nil, err
	}
	s.Constructs = append(s.Constructs, q)
	values := make(map[string]map[quad.IRI]struct{})
	ValuesOf(q.WhereClause.Patterns, values)

	var out []quad.Quad
	add := func(s quad.IRI, p quad.IRI, o quad.Value) {
		out = append(out, quad.Quad{Subject: s, Predicate: p, Object: o})
	}
	for iri := range values[mainquery.MainResource.Name] {
		add(iri, knora.IsMainResource, quad.Bool(true))
		add(iri, knora.RDFType, ontologytest.Thing)
		add(iri, knora.RDFSLabel, quad.String("Test"))
		add(iri, knora.AttachedToUser, Creator)
		add(iri, knora.AttachedToProject, Project)
		add(iri, knora.HasPermissions, quad.String(s.permsOf(iri)))
	}
	for iri := range values["valueObject"] {
		owner := quad.IRI(strings.SplitN(string(iri), "/values/", 2)[0])
		add(owner, ontologytest.HasText, iri)
		add(iri, knora.RDFType, knora.TextValue)
		add(iri, knora.ValueHasString, quad.String("text of "+string(owner)))
		add(iri, knora.ValueHasMapping, Mapping)
		add(iri, knora.AttachedToUser, Creator)
		add(iri, knora.HasPermissions, quad.String(Public))
	}
	return out, nil
}

// ServeHTTP exposes the store as a SPARQL endpoint. SELECT results are
// written as SPARQL JSON, CONSTRUCT results as N-Triples.
func (s *Store) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.FormValue("query")
	if strings.HasPrefix(strings.TrimSpace(query), "SELECT") {
		res, err := s.Select(r.Context(), query)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		bindings := make([]map[string]map[string]string, 0, len(res.Rows))
		for _, row := range res.Rows {
			b := make(map[string]map[string]string)
			for k, v := range row {
				typ := "literal"
				if strings.HasPrefix(v, "http://") {
					typ = "uri"
				}
				b[k] = map[string]string{"type": typ, "value": v}
			}
			bindings = append(bindings, b)
		}
		w.Header().Set("Content-Type", "application/sparql-results+json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"head":    map[string]interface{}{"vars": res.Vars},
			"results": map[string]interface{}{"bindings": bindings},
		})
		return
	}
	quads, err := s.Construct(r.Context(), query)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/n-triples")
	qw := nquads.NewWriter(w)
	for _, q := range quads {
		if err := qw.WriteQuad(q); err != nil {
			return
		}
	}
	if err := qw.Close(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
