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

package command

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dasch-swiss/gravsearch/clog"
	"github.com/dasch-swiss/gravsearch/internal/config"
	chttp "github.com/dasch-swiss/gravsearch/internal/http"
)

func NewHttpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Serve Gravsearch queries over HTTP on the given host and port.",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := mustSetupProfile(cmd)
			defer mustFinishProfile(p)

			ctx, cancel := getContext()
			defer cancel()
			e, cfg, err := openEngine(ctx)
			if err != nil {
				return err
			}
			srv := &http.Server{
				Addr:    cfg.HTTPHost,
				Handler: chttp.SetupRoutes(e, &chttp.Config{Timeout: cfg.HTTPTimeout}),
			}
			go func() {
				<-ctx.Done()
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(sctx); err != nil {
					clog.Warningf("shutdown: %v", err)
				}
			}()
			phost := cfg.HTTPHost
			if host, port, err := net.SplitHostPort(cfg.HTTPHost); err == nil && host == "" {
				phost = net.JoinHostPort("localhost", port)
			}
			clog.Infof("listening on %s, queries at http://%s/v2/searchextended", cfg.HTTPHost, phost)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().String("host", "", "host:port to listen on")
	cmd.Flags().DurationP(flagTimeout, "t", 0, "elapsed time until a request times out")
	viper.BindPFlag(config.KeyHTTPHost, cmd.Flags().Lookup("host"))
	viper.BindPFlag(config.KeyHTTPTimeout, cmd.Flags().Lookup(flagTimeout))
	return cmd
}
