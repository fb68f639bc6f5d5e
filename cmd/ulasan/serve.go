package main

import (
	"github.com/spf13/cobra"

	"github.com/pbaille/ulasan/internal/api"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve sentiment predictions over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			p, err := loadPredictor(ctx)
			if err != nil {
				return err
			}
			defer p.Close()

			return api.New(p, cfg.Server.Addr).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&cfg.Server.Addr, "addr", cfg.Server.Addr, "listen address")
	cfg.BindPredictorFlags(cmd.Flags())
	return cmd
}
