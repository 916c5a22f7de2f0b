package main

import (
	"github.com/aretw0/adwizard/internal/cli"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run the wizard as an interactive chat",
	Long: `Starts an interactive conversation in the terminal.
Type "restart" to start over and "exit" to leave. With a file or redis store,
--session resumes an earlier conversation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		headless, _ := cmd.Flags().GetBool("headless")
		fresh, _ := cmd.Flags().GetBool("fresh")
		debug, _ := cmd.Flags().GetBool("debug")

		return cli.Chat(cfg, cli.ChatOptions{
			SessionID: sessionID,
			Headless:  headless,
			Fresh:     fresh,
			Debug:     debug,
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringP("session", "s", "", "Session id to create or resume")
	chatCmd.Flags().Bool("headless", false, "Plain output without banner or markdown rendering")
	chatCmd.Flags().Bool("fresh", false, "Discard the session before starting")
}
