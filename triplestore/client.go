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

// Package triplestore is a SPARQL 1.1 protocol client for the triple store
// that answers Gravsearch queries.
package triplestore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/nquads"
	"golang.org/x/net/context/ctxhttp"

	"github.com/dasch-swiss/gravsearch/clog"
	"github.com/dasch-swiss/gravsearch/query/sparql"
)

// Operations, as reported in errors and metrics.
const (
	OpSelect    = "select"
	OpConstruct = "construct"
)

const (
	selectAccept    = "application/sparql-results+json"
	constructAccept = "application/n-triples"
	maxErrorBody    = 4 << 10
)

// Config describes how to reach the store.
type Config struct {
	// URL is the base address of the store, such as http://localhost:7200.
	URL string
	// QueryPath is the path of the query endpoint, relative to URL.
	QueryPath string
	Username  string
	Password  string
	// Timeout bounds a single request. Zero means no timeout.
	Timeout time.Duration
}

// Client sends queries to a triple store. It is safe for concurrent use.
type Client struct {
	endpoint string
	user     string
	pass     string
	cli      *http.Client
}

// New returns a client for the store described by c.
func New(c Config) (*Client, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("triplestore: no URL configured")
	}
	u, err := url.Parse(strings.TrimSuffix(c.URL, "/") + c.QueryPath)
	if err != nil {
		return nil, fmt.Errorf("triplestore: invalid URL: %w", err)
	}
	return &Client{
		endpoint: u.String(),
		user:     c.Username,
		pass:     c.Password,
		cli:      &http.Client{Timeout: c.Timeout},
	}, nil
}

// SetHTTPClient replaces the HTTP client used for requests.
func (c *Client) SetHTTPClient(cli *http.Client) {
	c.cli = cli
}

// Endpoint returns the URL queries are sent to.
func (c *Client) Endpoint() string { return c.endpoint }

// Error is a failed request to the store.
type Error struct {
	Op         string
	StatusCode int    // zero if no response was received
	Body       string // start of the response body
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0 && e.Body != "":
		return fmt.Sprintf("triplestore %s: status %d: %s", e.Op, e.StatusCode, e.Body)
	case e.StatusCode != 0:
		return fmt.Sprintf("triplestore %s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("triplestore %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (c *Client) do(ctx context.Context, op, query, accept string) (*http.Response, error) {
	form := url.Values{"query": {query}}
	req, err := http.NewRequest(http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", accept)
	if c.user != "" {
		req.SetBasicAuth(c.user, c.pass)
	}
	if clog.V(2) {
		clog.Infof("triplestore %s:\n%s", op, query)
	}
	resp, err := ctxhttp.Do(ctx, c.cli, req)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &Error{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return resp, nil
}

// Select runs a SELECT query.
func (c *Client) Select(ctx context.Context, query string) (res *sparql.SelectResults, err error) {
	defer observe(OpSelect, time.Now(), &err)
	resp, err := c.do(ctx, OpSelect, query, selectAccept)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	res, err = decodeSelectResults(resp.Body)
	if err != nil {
		return nil, &Error{Op: OpSelect, Err: err}
	}
	return res, nil
}

// Construct runs a CONSTRUCT query and returns the statements it produced.
func (c *Client) Construct(ctx context.Context, query string) (quads []quad.Quad, err error) {
	defer observe(OpConstruct, time.Now(), &err)
	resp, err := c.do(ctx, OpConstruct, query, constructAccept)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	quads, err = quad.ReadAll(nquads.NewReader(resp.Body, false))
	if err != nil {
		return nil, &Error{Op: OpConstruct, Err: fmt.Errorf("cannot parse statements: %w", err)}
	}
	return quads, nil
}
