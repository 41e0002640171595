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

package standoff

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cayleygraph/quad"
	"gopkg.in/yaml.v3"

	"github.com/dasch-swiss/gravsearch/clog"
	"github.com/dasch-swiss/gravsearch/internal/lru"
)

// ErrMappingNotFound is returned by providers for unknown mapping IRIs.
var ErrMappingNotFound = errors.New("standoff: mapping not found")

// Mapping translates between XML elements and standoff classes.
type Mapping struct {
	Iri                      quad.IRI  `yaml:"iri"`
	DefaultXSLTransformation quad.IRI  `yaml:"defaultXSLTransformation,omitempty"`
	Elements                 []Element `yaml:"elements"`
}

// Element maps one XML element, optionally restricted to a class attribute.
type Element struct {
	Tag           string      `yaml:"tag"`
	Namespace     string      `yaml:"namespace,omitempty"`
	Class         string      `yaml:"class,omitempty"`
	StandoffClass quad.IRI    `yaml:"standoffClass"`
	DataType      string      `yaml:"dataType,omitempty"`
	Attributes    []Attribute `yaml:"attributes,omitempty"`
}

// Attribute maps an XML attribute to a standoff property.
type Attribute struct {
	Name      string   `yaml:"name"`
	Namespace string   `yaml:"namespace,omitempty"`
	Property  quad.IRI `yaml:"property"`
}

// ElementFor returns the element a standoff class is written as.
func (m *Mapping) ElementFor(class quad.IRI) (Element, bool) {
	for _, e := range m.Elements {
		if e.StandoffClass == class {
			return e, true
		}
	}
	return Element{}, false
}

func (m *Mapping) validate() error {
	if m.Iri == "" {
		return errors.New("standoff: mapping without iri")
	}
	seen := make(map[string]bool)
	for _, e := range m.Elements {
		if e.Tag == "" || e.StandoffClass == "" {
			return fmt.Errorf("standoff: mapping %s: element needs a tag and a standoff class", m.Iri)
		}
		key := e.Namespace + "|" + e.Tag + "|" + e.Class
		if seen[key] {
			return fmt.Errorf("standoff: mapping %s: element %q mapped twice", m.Iri, e.Tag)
		}
		seen[key] = true
	}
	return nil
}

// MappingProvider resolves mapping IRIs.
type MappingProvider interface {
	Mapping(ctx context.Context, iri quad.IRI) (*Mapping, error)
}

// Mappings is a fixed set of mappings.
type Mappings map[quad.IRI]*Mapping

func (m Mappings) Mapping(_ context.Context, iri quad.IRI) (*Mapping, error) {
	if mp, ok := m[iri]; ok {
		return mp, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrMappingNotFound, iri)
}

type mappingFile struct {
	Mappings []*Mapping `yaml:"mappings"`
}

// ReadMappings decodes a YAML document with a list of mappings.
func ReadMappings(r io.Reader) (Mappings, error) {
	var f mappingFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("standoff: cannot decode mappings: %w", err)
	}
	out := make(Mappings, len(f.Mappings))
	for _, m := range f.Mappings {
		if err := m.validate(); err != nil {
			return nil, err
		}
		if _, dup := out[m.Iri]; dup {
			return nil, fmt.Errorf("standoff: mapping %s defined twice", m.Iri)
		}
		out[m.Iri] = m
	}
	return out, nil
}

// LoadMappings reads mappings from a YAML file.
func LoadMappings(path string) (Mappings, error) {
	m, err := readFile(path)
	if err != nil {
		return nil, err
	}
	clog.Infof("loaded %d standoff mappings from %s", len(m), path)
	return m, nil
}

func readFile(path string) (Mappings, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := ReadMappings(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// DirProvider looks mappings up in the YAML files of a directory, reading
// the files on every call. Mappings added to the directory are found
// without a restart; wrap it in a CachedProvider to avoid rereading.
type DirProvider struct {
	Dir string
}

func (p DirProvider) Mapping(ctx context.Context, iri quad.IRI) (*Mapping, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		list, err := filepath.Glob(filepath.Join(p.Dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, list...)
	}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, err := readFile(path)
		if err != nil {
			return nil, err
		}
		if mp, ok := m[iri]; ok {
			clog.Infof("loaded standoff mapping %s from %s", iri, path)
			return mp, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrMappingNotFound, iri)
}

// Open returns the provider for path: the mappings of a file, or a cached
// DirProvider for a directory.
func Open(path string, cacheSize int) (MappingProvider, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return LoadMappings(path)
	}
	return NewCachedProvider(DirProvider{Dir: path}, cacheSize), nil
}

// CachedProvider keeps recently used mappings of a slower provider.
type CachedProvider struct {
	p     MappingProvider
	cache *lru.Cache[quad.IRI, *Mapping]
}

// NewCachedProvider wraps p with a cache of the given size.
func NewCachedProvider(p MappingProvider, size int) *CachedProvider {
	return &CachedProvider{p: p, cache: lru.New[quad.IRI, *Mapping](size)}
}

func (c *CachedProvider) Mapping(ctx context.Context, iri quad.IRI) (*Mapping, error) {
	if m, ok := c.cache.Get(iri); ok {
		return m, nil
	}
	m, err := c.p.Mapping(ctx, iri)
	if err != nil {
		return nil, err
	}
	c.cache.Put(iri, m)
	return m, nil
}
