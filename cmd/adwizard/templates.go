package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/adwizard/internal/cli"
	"github.com/spf13/cobra"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Inspect the template catalog",
}

var templatesLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List templates and their inputs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := cli.OpenCatalog(cfg.Templates)
		if err != nil {
			return err
		}
		templates, err := cat.List(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, t := range templates {
			fmt.Fprintf(out, "%s\t%s\n", t.ID, t.Name)
			for _, in := range t.Inputs() {
				marker := "optional"
				if in.Required {
					marker = "required"
				}
				line := fmt.Sprintf("  - %s (%s, %s)", in.ID, in.Type, marker)
				if in.HasOptions() {
					ids := make([]string, len(in.Options))
					for i, o := range in.Options {
						ids[i] = o.ID
					}
					line += ": " + strings.Join(ids, ", ")
				}
				fmt.Fprintln(out, line)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(templatesCmd)
	templatesCmd.AddCommand(templatesLsCmd)
}
