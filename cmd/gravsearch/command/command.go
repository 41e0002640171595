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

// Package command implements the commands of the gravsearch binary.
package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"

	"github.com/cayleygraph/quad"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dasch-swiss/gravsearch/clog"
	"github.com/dasch-swiss/gravsearch/internal/config"
	"github.com/dasch-swiss/gravsearch/internal/db"
	"github.com/dasch-swiss/gravsearch/permission"
	"github.com/dasch-swiss/gravsearch/query/gravsearch/search"
)

const (
	flagFormat      = "format"
	flagStandoff    = "standoff"
	flagUser        = "user"
	flagProject     = "project"
	flagGroup       = "group"
	flagSystemAdmin = "system_admin"
	flagTimeout     = "timeout"

	formatTable = "table"
	formatJSON  = "json"
)

func getContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	go func() {
		select {
		case <-ch:
		case <-ctx.Done():
		}
		signal.Stop(ch)
		cancel()
	}()
	return ctx, cancel
}

// withTimeout bounds ctx by the timeout flag of cmd, if set.
func withTimeout(ctx context.Context, cmd *cobra.Command) (context.Context, func()) {
	if d, _ := cmd.Flags().GetDuration(flagTimeout); d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return ctx, func() {}
}

func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}

func openEngine(ctx context.Context) (*search.Engine, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	clog.Infof("using %s repository %q at %s", cfg.Dialect, cfg.Repository, cfg.URL)
	e, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return e, cfg, nil
}

// readQuery reads the query in path, or standard input if path is "-".
func readQuery(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("cannot read query: %w", err)
	}
	return string(data), nil
}

func registerUserFlags(cmd *cobra.Command) {
	cmd.Flags().String(flagUser, "", "IRI of the user to run the query as (anonymous if not set)")
	cmd.Flags().StringSlice(flagProject, nil, "IRIs of the projects the user is a member of")
	cmd.Flags().StringSlice(flagGroup, nil, "IRIs of the groups the user is a member of")
	cmd.Flags().Bool(flagSystemAdmin, false, "the user is a system administrator")
}

func iris(list []string) []quad.IRI {
	out := make([]quad.IRI, 0, len(list))
	for _, s := range list {
		out = append(out, quad.IRI(s))
	}
	return out
}

func userFromFlags(cmd *cobra.Command) *permission.User {
	iri, _ := cmd.Flags().GetString(flagUser)
	if iri == "" {
		return permission.Anonymous()
	}
	projects, _ := cmd.Flags().GetStringSlice(flagProject)
	groups, _ := cmd.Flags().GetStringSlice(flagGroup)
	admin, _ := cmd.Flags().GetBool(flagSystemAdmin)
	return &permission.User{
		IRI:         quad.IRI(iri),
		Projects:    iris(projects),
		Groups:      iris(groups),
		SystemAdmin: admin,
	}
}

type profileData struct {
	cpuProfile *os.File
	memPath    string
}

// mustSetupProfile starts the CPU profile requested by the persistent
// profiling flags, if any.
func mustSetupProfile(cmd *cobra.Command) profileData {
	p := profileData{}
	if mpp := cmd.Flag("memprofile"); mpp != nil {
		p.memPath = mpp.Value.String()
	}
	cpp := cmd.Flag("cpuprofile")
	if cpp == nil || cpp.Value.String() == "" {
		return p
	}
	v := cpp.Value.String()
	f, err := os.Create(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not open CPU profile file %s\n", v)
		os.Exit(1)
	}
	p.cpuProfile = f
	pprof.StartCPUProfile(f)
	return p
}

func mustFinishProfile(p profileData) {
	if p.cpuProfile != nil {
		pprof.StopCPUProfile()
		p.cpuProfile.Close()
	}
	if p.memPath != "" {
		f, err := os.Create(p.memPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not open memory profile file %s\n", p.memPath)
			os.Exit(1)
		}
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not write memory profile file %s\n", p.memPath)
		}
		f.Close()
	}
}
