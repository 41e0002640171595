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
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/cayleygraph/quad"

	"github.com/dasch-swiss/gravsearch/permission"
)

// Identity headers. They are set by an authenticating proxy in front of the
// server and are trusted as they are.
const (
	hdrUser         = "X-Gravsearch-User"
	hdrGroups       = "X-Gravsearch-Groups"
	hdrProjects     = "X-Gravsearch-Projects"
	hdrProjectAdmin = "X-Gravsearch-Project-Admin"
	hdrSystemAdmin  = "X-Gravsearch-System-Admin"
)

func iriList(s string) []quad.IRI {
	var out []quad.IRI
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, quad.IRI(v))
		}
	}
	return out
}

// userForRequest returns the user a request runs for. Requests without a
// user header run as the anonymous user.
func userForRequest(r *http.Request) (*permission.User, error) {
	iri := strings.TrimSpace(r.Header.Get(hdrUser))
	if iri == "" {
		return permission.Anonymous(), nil
	}
	u := &permission.User{
		IRI:            quad.IRI(iri),
		Groups:         iriList(r.Header.Get(hdrGroups)),
		Projects:       iriList(r.Header.Get(hdrProjects)),
		ProjectAdminOf: iriList(r.Header.Get(hdrProjectAdmin)),
	}
	if s := r.Header.Get(hdrSystemAdmin); s != "" {
		admin, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("invalid %s header: %q", hdrSystemAdmin, s)
		}
		u.SystemAdmin = admin
	}
	return u, nil
}
