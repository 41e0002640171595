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

// Package config holds the settings of a gravsearch instance.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/dasch-swiss/gravsearch/query/gravsearch/dialect"
)

// Configuration keys.
const (
	KeyDialect    = "triplestore.dialect"
	KeyURL        = "triplestore.url"
	KeyRepository = "triplestore.repository"
	KeyUsername   = "triplestore.username"
	KeyPassword   = "triplestore.password"
	KeyTimeout    = "triplestore.timeout"

	KeyPageSize = "gravsearch.page_size"
	KeyAPIHost  = "gravsearch.api_host"

	KeyOntologyFiles     = "ontology.files"
	KeyOntologyFromStore = "ontology.from_store"

	KeyMappings         = "standoff.mappings"
	KeyMappingCacheSize = "standoff.cache_size"

	KeyHTTPHost    = "http.host"
	KeyHTTPTimeout = "http.timeout"
)

// SetDefaults registers the default values of all keys on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDialect, "graphdb")
	v.SetDefault(KeyURL, "http://localhost:7200")
	v.SetDefault(KeyRepository, "knora-test")
	v.SetDefault(KeyTimeout, 30*time.Second)
	v.SetDefault(KeyPageSize, 25)
	v.SetDefault(KeyAPIHost, "0.0.0.0:3333")
	v.SetDefault(KeyMappingCacheSize, 64)
	v.SetDefault(KeyHTTPHost, "127.0.0.1:3333")
	v.SetDefault(KeyHTTPTimeout, 60*time.Second)
}

// Config defines the behavior of a gravsearch instance.
type Config struct {
	Dialect    string
	URL        string
	Repository string
	Username   string
	Password   string
	// Timeout bounds a single request to the triple store.
	Timeout time.Duration

	PageSize int
	// APIHost is the host of external ontology IRIs.
	APIHost string

	// OntologyFiles are loaded on top of the built-in knora-base ontology.
	OntologyFiles []string
	// OntologyFromStore loads project ontologies from the triple store.
	OntologyFromStore bool

	// Mappings is a YAML file of standoff mappings.
	Mappings         string
	MappingCacheSize int

	HTTPHost    string
	HTTPTimeout time.Duration
}

// Load reads the configuration from v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	c := &Config{
		Dialect:           v.GetString(KeyDialect),
		URL:               v.GetString(KeyURL),
		Repository:        v.GetString(KeyRepository),
		Username:          v.GetString(KeyUsername),
		Password:          v.GetString(KeyPassword),
		Timeout:           v.GetDuration(KeyTimeout),
		PageSize:          v.GetInt(KeyPageSize),
		APIHost:           v.GetString(KeyAPIHost),
		OntologyFiles:     v.GetStringSlice(KeyOntologyFiles),
		OntologyFromStore: v.GetBool(KeyOntologyFromStore),
		Mappings:          v.GetString(KeyMappings),
		MappingCacheSize:  v.GetInt(KeyMappingCacheSize),
		HTTPHost:          v.GetString(KeyHTTPHost),
		HTTPTimeout:       v.GetDuration(KeyHTTPTimeout),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks that c describes a usable instance. An unknown dialect
// is reported as a gravsearch.DialectUnsupported error.
func (c *Config) Validate() error {
	if _, err := dialect.Lookup(c.Dialect); err != nil {
		return err
	}
	switch {
	case c.URL == "":
		return fmt.Errorf("config: %s is not set", KeyURL)
	case c.Repository == "":
		return fmt.Errorf("config: %s is not set", KeyRepository)
	case c.PageSize <= 0:
		return fmt.Errorf("config: %s must be positive, got %d", KeyPageSize, c.PageSize)
	case c.Timeout < 0:
		return fmt.Errorf("config: %s must not be negative", KeyTimeout)
	case c.APIHost == "":
		return fmt.Errorf("config: %s is not set", KeyAPIHost)
	}
	return nil
}
