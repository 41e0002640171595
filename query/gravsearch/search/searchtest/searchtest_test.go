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

package searchtest_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/cayleygraph/quad"
	"github.com/stretchr/testify/require"

	"github.com/dasch-swiss/gravsearch/query/gravsearch/search/searchtest"
	"github.com/dasch-swiss/gravsearch/triplestore"
	"github.com/dasch-swiss/gravsearch/voc/knora"
)

func TestConstructOverHTTP(t *testing.T) {
	st := searchtest.NewStore(2)
	srv := httptest.NewServer(st)
	defer srv.Close()

	c, err := triplestore.New(triplestore.Config{URL: srv.URL, QueryPath: "/repositories/test"})
	require.NoError(t, err)

	query := `CONSTRUCT { ?mainResource ?p ?o . }
WHERE {
    VALUES ?mainResource { <` + string(st.Resources[0]) + `> <` + string(st.Resources[1]) + `> }
    ?mainResource ?p ?o .
}
`
	local, err := st.Construct(context.Background(), query)
	require.NoError(t, err)
	require.NotEmpty(t, local)

	remote, err := c.Construct(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, remote, len(local))

	mains := make(map[quad.Value]struct{})
	for _, q := range remote {
		if q.Predicate == knora.IsMainResource {
			mains[q.Subject] = struct{}{}
		}
	}
	require.Len(t, mains, 2)
}
