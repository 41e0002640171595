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

package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/dasch-swiss/gravsearch/internal/render"
	"github.com/dasch-swiss/gravsearch/query/gravsearch"
)

// readLimit bounds the size of a query.
const readLimit = 1 << 20

var (
	errNoQuery       = errors.New("no query")
	errQueryTooLarge = fmt.Errorf("query is larger than %d bytes", readLimit)
)

type SuccessQueryWrapper struct {
	Result interface{} `json:"result"`
}

type ErrorQueryWrapper struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func WriteError(w io.Writer, err error) error {
	out := ErrorQueryWrapper{Error: err.Error()}
	if kind, ok := gravsearch.KindOf(err); ok {
		out.Kind = kind.String()
	}
	return json.NewEncoder(w).Encode(out)
}

func WriteResult(w io.Writer, result interface{}) error {
	return json.NewEncoder(w).Encode(SuccessQueryWrapper{result})
}

type countResult struct {
	Count int `json:"count"`
}

type compileResult struct {
	Query    string `json:"query"`
	Prequery string `json:"prequery"`
}

func (api *API) contextForRequest(r *http.Request) (context.Context, func()) {
	ctx := r.Context()
	cancel := func() {}
	if api.config.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, api.config.Timeout)
	}
	return ctx, cancel
}

// StatusOf returns the HTTP status code for an error of the search engine.
func StatusOf(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	kind, ok := gravsearch.KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case gravsearch.QuerySyntax, gravsearch.TypeInference, gravsearch.OntologyConstraint:
		return http.StatusBadRequest
	case gravsearch.TriplestoreCommunication:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set(hdrContentType, contentTypeJSON)
	w.WriteHeader(StatusOf(err))
	_ = WriteError(w, err)
}

func writeResult(w http.ResponseWriter, result interface{}) {
	w.Header().Set(hdrContentType, contentTypeJSON)
	_ = WriteResult(w, result)
}

// readQuery returns the query of r: the body of a POST request or the
// query parameter of a GET request.
func readQuery(r *http.Request) (string, int, error) {
	var query string
	if r.Method == http.MethodGet {
		query = r.URL.Query().Get("query")
	} else {
		data, err := io.ReadAll(io.LimitReader(r.Body, readLimit+1))
		if err != nil {
			return "", http.StatusBadRequest, err
		}
		if len(data) > readLimit {
			return "", http.StatusRequestEntityTooLarge, errQueryTooLarge
		}
		query = string(data)
	}
	if strings.TrimSpace(query) == "" {
		return "", http.StatusBadRequest, errNoQuery
	}
	return query, 0, nil
}

// ServeSearch runs a query and returns one page of resources. The markup
// parameter set to "standoff" includes the standoff of text values.
func (api *API) ServeSearch(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := api.contextForRequest(r)
	defer cancel()
	query, code, err := readQuery(r)
	if err != nil {
		jsonResponse(w, code, err)
		return
	}
	u, err := userForRequest(r)
	if err != nil {
		jsonResponse(w, http.StatusBadRequest, err)
		return
	}
	opts := gravsearch.SchemaOptions{MarkupAsStandoff: r.URL.Query().Get("markup") == "standoff"}
	res, err := api.engine.Search(ctx, query, u, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, render.NewResult(res, api.engine.Converter()))
}

// ServeCount returns the number of main resources matching a query.
func (api *API) ServeCount(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := api.contextForRequest(r)
	defer cancel()
	query, code, err := readQuery(r)
	if err != nil {
		jsonResponse(w, code, err)
		return
	}
	n, err := api.engine.Count(ctx, query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, countResult{Count: n})
}

// ServeCompile returns the prequery generated for a query without running
// it. Parameters: count=true for the count prequery, page=N to replace the
// OFFSET of the query.
func (api *API) ServeCompile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query, code, err := readQuery(r)
	if err != nil {
		jsonResponse(w, code, err)
		return
	}
	params := r.URL.Query()
	count := params.Get("count") == "true"
	page := int64(-1)
	if s := params.Get("page"); s != "" {
		page, err = strconv.ParseInt(s, 10, 64)
		if err != nil || page < 0 {
			jsonResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid page %q", s))
			return
		}
	}
	c, err := api.engine.Compile(query, count, page)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, compileResult{Query: c.Query.String(), Prequery: c.Select.String()})
}
