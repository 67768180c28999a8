package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vogtb/go-cellcalc/packages/grid"
	"github.com/vogtb/go-cellcalc/packages/logging"
	"github.com/vogtb/go-cellcalc/packages/server"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		file string
		addr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Share a grid with websocket clients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sheet := grid.NewSheet()
			if file != "" {
				loaded, err := loadSheet(file, a.cfg.Import)
				if err != nil {
					return err
				}
				sheet = loaded
			}

			cfg := a.cfg
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.New(cfg, sheet, logging.Component(a.logger, "server")).Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "grid file (.csv or .xlsx) to preload")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides the configuration")
	return cmd
}
