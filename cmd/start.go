package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/webhookx-io/intercom/app"
	"github.com/webhookx-io/intercom/config/modules"
	"golang.org/x/sync/errgroup"
)

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start an endpoint or dispatcher node",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := initConfig(configurationFile)
			if err != nil {
				return err
			}
			if verbose {
				cfg.Log.Level = modules.LogLevelDebug
			}

			app, err := app.New(cfg)
			if err != nil {
				return err
			}
			if err := app.Start(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(app.Wait)
			g.Go(func() error {
				<-ctx.Done()
				return app.Stop()
			})
			return g.Wait()
		},
	}
}

