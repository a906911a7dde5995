package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mhoran/kubesift/internal/webapi"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON analysis API server",
		Long:  "Serves the analysis pipeline over HTTP: single and batch analysis, history access, cluster discovery, and report export.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "kubesift.yaml", "path to kubesift config file")
	cmd.Flags().IntVarP(&port, "port", "p", 8787, "HTTP port")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	a, err := loadApp(configPath)
	if err != nil {
		return err
	}

	srv := webapi.New(webapi.Deps{
		Config:      a.cfg,
		Runner:      a.runner,
		Coordinator: a.coord,
		Cluster:     a.source,
		Store:       a.store,
		Notifier:    a.notifier,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Start(ctx, webapi.StartOpts{
		Port: port,
		Out:  cmd.OutOrStdout(),
	})
}
