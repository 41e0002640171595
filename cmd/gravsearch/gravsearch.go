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

package main

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dasch-swiss/gravsearch/clog"
	_ "github.com/dasch-swiss/gravsearch/clog/glog"
	"github.com/dasch-swiss/gravsearch/cmd/gravsearch/command"
	"github.com/dasch-swiss/gravsearch/internal/config"

	// Load all supported triple store dialects.
	_ "github.com/dasch-swiss/gravsearch/query/gravsearch/dialect/all"
)

// Filled in by `go build ldflags="-X main.Version `ver`"`.
var (
	BuildDate string
	Version   = "dev"
)

var rootCmd = &cobra.Command{
	Use:          "gravsearch",
	Short:        "Gravsearch compiles and runs search queries against a knora repository.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// let glog see its flags
		flag.CommandLine.Parse([]string{})
		if f := flag.Lookup("v"); f != nil {
			if v, err := strconv.Atoi(f.Value.String()); err == nil {
				clog.SetV(v)
			}
		}
		if conf, _ := cmd.Flags().GetString("config"); conf != "" {
			viper.SetConfigFile(conf)
		}
		err := viper.ReadInConfig()
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && err != nil {
			return err
		}
		if conf := viper.ConfigFileUsed(); conf != "" {
			clog.Infof("using config file: %s", conf)
		}
		return nil
	},
}

func init() {
	config.SetDefaults(viper.GetViper())
	viper.SetConfigName("gravsearch")
	viper.SetEnvPrefix("GRAVSEARCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.gravsearch/")
	viper.AddConfigPath("/etc/gravsearch/")
	if conf := os.Getenv("GRAVSEARCH_CFG"); conf != "" {
		viper.SetConfigFile(conf)
	}

	rootCmd.Version = Version
	if BuildDate != "" {
		rootCmd.Version += " (" + BuildDate + ")"
	}
	rootCmd.AddCommand(
		command.NewSearchCmd(),
		command.NewCountCmd(),
		command.NewCompileCmd(),
		command.NewBatchCmd(),
		command.NewHttpCmd(),
		command.NewReplCmd(),
		command.NewHealthCmd(),
	)

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "path to an explicit configuration file")
	flags.String("dialect", "", `triple store dialect ("graphdb" or "fuseki")`)
	flags.String("url", "", "base URL of the triple store")
	flags.String("repository", "", "name of the repository")
	flags.StringSlice("ontology", nil, "additional ontology files (N-Triples or N-Quads)")
	flags.Bool("ontology_from_store", false, "load the project ontologies from the triple store")
	flags.String("mappings", "", "standoff mapping file or directory")
	flags.Int("page_size", 0, "main resources per page")
	flags.String("cpuprofile", "", "path to output CPU profile")
	flags.String("memprofile", "", "path to output memory profile")
	flags.AddGoFlagSet(flag.CommandLine)

	for key, name := range map[string]string{
		config.KeyDialect:           "dialect",
		config.KeyURL:               "url",
		config.KeyRepository:        "repository",
		config.KeyOntologyFiles:     "ontology",
		config.KeyOntologyFromStore: "ontology_from_store",
		config.KeyMappings:          "mappings",
		config.KeyPageSize:          "page_size",
	} {
		viper.BindPFlag(key, flags.Lookup(name))
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
