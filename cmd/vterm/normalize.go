package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ashwch/vterm/internal/dispatch"
	"github.com/ashwch/vterm/internal/normalize"
	"github.com/spf13/cobra"
)

func newNormalizeCmd() *cobra.Command {
	var asJSON bool
	var listRules bool
	cmd := &cobra.Command{
		Use:   "normalize [input...]",
		Short: "Print the canonical command for an input without running it",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if listRules {
				for _, rule := range normalize.Rules() {
					if _, err := fmt.Fprintf(out, "%-24s %s\n", rule.Phrase, rule.Render("<args>")); err != nil {
						return err
					}
				}
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("normalize needs an input or --rules")
			}

			input := strings.Join(args, " ")
			canonical := normalize.Normalize(input)
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(previewPayload{
					Input:     input,
					Canonical: canonical,
					Verb:      string(dispatch.Parse(canonical).Verb),
				})
			}
			_, err := fmt.Fprintln(out, canonical)
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print input, canonical command and verb as JSON")
	cmd.Flags().BoolVar(&listRules, "rules", false, "list the phrase table in match order")
	cmd.Flags().SetInterspersed(false)
	return cmd
}
