package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/adwizard/internal/cli"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persistent sessions",
	Long:  `List, inspect, and remove sessions in the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := cli.OpenPersistence(cfg.Store)
		if err != nil {
			return err
		}
		defer p.Close()

		sessions, err := p.Store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing sessions: %w", err)
		}

		if len(sessions) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No sessions found.")
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Sessions:")
		for _, s := range sessions {
			fmt.Fprintln(cmd.OutOrStdout(), "- "+s)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Inspect the state of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := cli.OpenPersistence(cfg.Store)
		if err != nil {
			return err
		}
		defer p.Close()

		s, err := p.Store.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("error loading session '%s': %w", args[0], err)
		}

		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling session: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm [session-id...]",
	Short: "Remove one or more sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := cli.OpenPersistence(cfg.Store)
		if err != nil {
			return err
		}
		defer p.Close()

		if all, _ := cmd.Flags().GetBool("all"); all {
			if args, err = p.Store.List(cmd.Context()); err != nil {
				return fmt.Errorf("error listing sessions: %w", err)
			}
		} else if len(args) == 0 {
			return fmt.Errorf("requires at least 1 session id or --all")
		}

		var failed int
		for _, sessionID := range args {
			if err := p.Store.Delete(cmd.Context(), sessionID); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error removing '%s': %v\n", sessionID, err)
				failed++
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", sessionID)
		}
		if failed > 0 {
			return fmt.Errorf("%d session(s) could not be removed", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
	sessionRmCmd.Flags().Bool("all", false, "Remove every session in the store")
}
