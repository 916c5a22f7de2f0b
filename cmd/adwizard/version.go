package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/adwizard"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of adwizard",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "adwizard version %s\n", strings.TrimSpace(adwizard.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
