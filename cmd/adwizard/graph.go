package main

import (
	"fmt"

	"github.com/aretw0/adwizard/internal/cli"
	"github.com/aretw0/adwizard/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the wizard state machine as a Mermaid flowchart",
	Long: `Prints the canvas states and their transitions. With --session, the session's
current state and template inputs are highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var overlay *graph.Overlay

		if sessionID, _ := cmd.Flags().GetString("session"); sessionID != "" {
			p, err := cli.OpenPersistence(cfg.Store)
			if err != nil {
				return err
			}
			defer p.Close()

			s, err := p.Store.Load(cmd.Context(), sessionID)
			if err != nil {
				return fmt.Errorf("error loading session '%s': %w", sessionID, err)
			}
			overlay = graph.OverlayFor(s)
		} else if templateID, _ := cmd.Flags().GetString("template"); templateID != "" {
			cat, err := cli.OpenCatalog(cfg.Templates)
			if err != nil {
				return err
			}
			t, err := cat.Get(cmd.Context(), templateID)
			if err != nil {
				return err
			}
			overlay = &graph.Overlay{Template: t}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("session", "s", "", "Highlight a stored session")
	graphCmd.Flags().StringP("template", "t", "", "Show the inputs of a template")
}
