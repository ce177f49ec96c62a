// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/pdiddy/nnaasynth/internal/server"
	"github.com/pdiddy/nnaasynth/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve analyses over HTTP",
	Long: `Serve starts an HTTP API that runs analyses on request and serves the
results database:

  POST /v1/analyses       {"smiles": "OC(=O)C(N)C"}
  GET  /v1/analyses       ?query=<smiles>&limit=<n>
  GET  /v1/analyses/:id
  GET  /healthz
  GET  /metrics           prometheus metrics`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	runner, err := newRunner(cfg, os.Stderr)
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(cfg.Server, runner, st, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx)
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().Duration("run-timeout", 0, "time limit for one analysis request (0 = none)")
	bindFlag(serveCmd.Flags(), "addr", "server.addr")
	bindFlag(serveCmd.Flags(), "run-timeout", "server.run_timeout")

	rootCmd.AddCommand(serveCmd)
}
