package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/personachat/personachat/internal/api"
	"github.com/personachat/personachat/internal/logger"
	"github.com/personachat/personachat/internal/scheduler"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sched := scheduler.New(store, retentionDays(cfg))
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()

		go func() {
			if err := manager.Watch(ctx); err != nil && ctx.Err() == nil {
				logger.Warning("Plugin watcher stopped: %v", err)
			}
		}()

		server := api.NewServer(cfg, store, registry, manager, ragSvc, chatSvc, integrations)
		return server.Run(serveAddr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8000", "address to listen on")
	rootCmd.AddCommand(serveCmd)
}
