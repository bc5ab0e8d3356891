package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ashwch/vterm/internal/history"
	"github.com/ashwch/vterm/internal/ui"
	"github.com/spf13/cobra"
)

func newHistoryCmd(state *appState) *cobra.Command {
	var (
		limit  int
		asJSON bool
		pick   bool
	)
	cmd := &cobra.Command{
		Use:   "history [query...]",
		Short: "List recent commands or search them",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := state.app
			if a.history == nil {
				return fmt.Errorf("history is disabled (history.enabled=false)")
			}
			out := cmd.OutOrStdout()
			query := strings.TrimSpace(strings.Join(args, " "))

			if query == "" {
				commands, err := a.history.Commands()
				if err != nil {
					return err
				}
				if len(commands) > limit {
					commands = commands[len(commands)-limit:]
				}
				if asJSON {
					if commands == nil {
						commands = []string{}
					}
					return json.NewEncoder(out).Encode(commands)
				}
				for _, command := range commands {
					fmt.Fprintln(out, command)
				}
				return nil
			}

			matches, err := a.history.Search(query, limit)
			if err != nil {
				return err
			}
			if pick {
				return pickAndRun(cmd, a, query, matches)
			}
			if asJSON {
				if matches == nil {
					matches = []history.Match{}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(matches)
			}
			if len(matches) == 0 {
				_, err := fmt.Fprintf(out, "no history matches for %q\n", query)
				return err
			}
			for _, match := range matches {
				fmt.Fprintf(out, "%6.2f  %s\n", match.Score, match.Command)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum entries to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print entries as JSON")
	cmd.Flags().BoolVar(&pick, "pick", false, "choose a match interactively and run it")
	return cmd
}

func pickAndRun(cmd *cobra.Command, a *app, query string, matches []history.Match) error {
	backend := interactiveBackend(a.cfg.UI.Backend, cmd.InOrStdin(), cmd.OutOrStdout())
	command, used, err := ui.PickHistory(backend, query, matches)
	if err != nil {
		return err
	}
	if !used {
		if len(matches) == 0 {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "no history matches for %q\n", query)
			return err
		}
		return fmt.Errorf("--pick needs an interactive terminal")
	}
	if command == "" {
		return nil
	}
	return runInput(cmd, a, command, runOptions{})
}
