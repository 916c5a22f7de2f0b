package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/adwizard/internal/cli"
	"github.com/aretw0/adwizard/internal/config"
	"github.com/spf13/cobra"
)

// cfg is loaded once by the root command before any subcommand runs.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "adwizard",
	Short: "adwizard is a conversational ad-creative wizard",
	Long: `adwizard guides a user from picking a creative template, through collecting
its inputs in plain language, to generating and publishing the result.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}
		path, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		if dir, _ := cmd.Flags().GetString("templates"); dir != "" {
			loaded.Templates = dir
		}
		cfg = loaded
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default adwizard.yaml when present)")
	rootCmd.PersistentFlags().String("env-file", "", "Environment file to load (default .env when present)")
	rootCmd.PersistentFlags().String("templates", "", "Template file or Loam directory (overrides config)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	debug, _ := cmd.Flags().GetBool("debug")
	return cli.NewLogger(cfg, debug)
}

func main() {
	Execute()
}
