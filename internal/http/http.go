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

// Package http serves Gravsearch queries over HTTP.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dasch-swiss/gravsearch/ontology"
	"github.com/dasch-swiss/gravsearch/permission"
	"github.com/dasch-swiss/gravsearch/query/gravsearch"
	"github.com/dasch-swiss/gravsearch/query/gravsearch/search"
)

const (
	prefix          = "/v2/searchextended"
	hdrContentType  = "Content-Type"
	contentTypeJSON = "application/json"
)

// Engine runs the queries received over HTTP. *search.Engine implements it.
type Engine interface {
	Search(ctx context.Context, query string, u *permission.User, opts gravsearch.SchemaOptions) (*search.Result, error)
	Count(ctx context.Context, query string) (int, error)
	Compile(query string, count bool, page int64) (*search.Compiled, error)
	Converter() *ontology.Converter
}

type Config struct {
	// Timeout bounds a request, including both triple store round trips.
	Timeout time.Duration
}

type API struct {
	config *Config
	engine Engine
}

func NewAPI(e Engine, cfg *Config) *API {
	if cfg == nil {
		cfg = &Config{}
	}
	return &API{config: cfg, engine: e}
}

func jsonResponse(w http.ResponseWriter, code int, err interface{}) {
	w.Header().Set(hdrContentType, contentTypeJSON)
	w.WriteHeader(code)
	w.Write([]byte(`{"error": `))
	data, _ := json.Marshal(fmt.Sprint(err))
	w.Write(data)
	w.Write([]byte(`}`))
}

func CORSFunc(w http.ResponseWriter, req *http.Request, params httprouter.Params) {
	if origin := req.Header.Get("Origin"); origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers",
			"Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, "+
				hdrUser+", "+hdrGroups+", "+hdrProjects+", "+hdrProjectAdmin+", "+hdrSystemAdmin)
	}
}

func CORS(h httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {
		CORSFunc(w, req, params)
		h(w, req, params)
	}
}

// RegisterOn adds the search routes to r.
func (api *API) RegisterOn(r *httprouter.Router) {
	for _, method := range []string{http.MethodGet, http.MethodPost} {
		r.Handle(method, prefix, CORS(LogRequest(api.ServeSearch)))
		r.Handle(method, prefix+"/count", CORS(LogRequest(api.ServeCount)))
		r.Handle(method, prefix+"/compile", CORS(LogRequest(api.ServeCompile)))
	}
}

// SetupRoutes returns the handler of the HTTP surface: the search routes,
// a health check and the metrics of the process.
func SetupRoutes(e Engine, cfg *Config) http.Handler {
	r := httprouter.New()
	r.OPTIONS("/*path", CORSFunc)
	NewAPI(e, cfg).RegisterOn(r)
	r.HandlerFunc(http.MethodGet, "/health", HandleHealth)
	r.Handler(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}
