package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/adwizard/pkg/domain"
	"github.com/aretw0/adwizard/pkg/matcher"
	"github.com/aretw0/adwizard/pkg/sanitize"
	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:   "match <input>",
	Short: "Run the option matcher against a question",
	Long: `Prints the MatchResult for input as JSON. Options are given as id=label pairs:

  adwizard match "the second one" --option script-a="Script A" --option script-b="Script B"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := sanitize.Input(strings.Join(args, " "))
		if err != nil {
			return err
		}
		qid, _ := cmd.Flags().GetString("question")
		pairs, _ := cmd.Flags().GetStringArray("option")

		q := &domain.Question{ID: qid}
		for _, pair := range pairs {
			id, label, ok := strings.Cut(pair, "=")
			if !ok {
				label = id
			}
			q.Options = append(q.Options, domain.Option{ID: id, Label: label})
		}

		out := map[string]any{"match": matcher.Match(input, q)}
		if matcher.LooksLikeURL(input) {
			out["url"] = matcher.ExtractURL(input)
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)
	matchCmd.Flags().StringArrayP("option", "o", nil, "Option as id=label (repeatable)")
	matchCmd.Flags().StringP("question", "q", "", "Question id (enables confirmation phrases for continue-or-change and publish-or-preview)")
}
