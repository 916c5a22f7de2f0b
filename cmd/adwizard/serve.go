package main

import (
	"fmt"
	"log/slog"
	"net"

	"github.com/aretw0/adwizard/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Starts the wizard as a JSON API with server-sent events, the text functions and /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Addr = addr
		}
		log := newLogger(cmd)
		slog.SetDefault(log)

		stack, err := cli.BuildStack(cfg, log)
		if err != nil {
			return err
		}
		defer stack.Close()

		ln, err := net.Listen("tcp", cfg.Addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", cfg.Addr, err)
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		if err := cli.Serve(sigCtx, ln, stack, log); err != nil {
			return err
		}
		if sig := sigCtx.Signal(); sig != nil {
			log.Info("Shutdown complete", "signal", sig.String())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (default from config, :8080)")
}
