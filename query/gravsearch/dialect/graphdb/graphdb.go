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

// Package graphdb registers the Ontotext GraphDB dialect.
package graphdb

import (
	"github.com/dasch-swiss/gravsearch/query/gravsearch/dialect"
	"github.com/dasch-swiss/gravsearch/voc/knora"
)

const Type = "graphdb"

func init() {
	dialect.Register(Type, dialect.Registration{
		Inference:     true,
		ExplicitGraph: knora.OntotextExplicitGraph,
		QueryPath:     "/repositories/%s",
	})
}
