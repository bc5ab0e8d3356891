package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ashwch/vterm/internal/dispatch"
	"github.com/ashwch/vterm/internal/session"
	"github.com/ashwch/vterm/internal/ui"
	"github.com/spf13/cobra"
)

type runOptions struct {
	JSON   bool
	DryRun bool
	Yes    bool
}

type previewPayload struct {
	Input     string `json:"input"`
	Canonical string `json:"canonical"`
	Verb      string `json:"verb"`
	HighRisk  bool   `json:"high_risk"`
}

type resultPayload struct {
	Output        []string `json:"output"`
	ParsedCommand *string  `json:"parsed_command"`
	Cwd           string   `json:"cwd"`
	Timestamp     string   `json:"timestamp"`
	Exit          bool     `json:"exit,omitempty"`
	Kind          string   `json:"kind,omitempty"`
}

func newRunCmd(state *appState) *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run <input...>",
		Short: "Normalize and execute one input, then exit",
		Example: "  vterm run list files\n" +
			"  vterm run --dry-run delete folder build\n" +
			"  vterm run --json ls -la",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInput(cmd, state.app, strings.Join(args, " "), opts)
		},
	}
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "show the canonical command without running it")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "run high-risk commands without confirmation")
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func runInput(cmd *cobra.Command, a *app, input string, opts runOptions) error {
	sess := a.newSession()
	preview := sess.Preview(input)

	if opts.DryRun {
		return writePreview(cmd, preview, opts.JSON)
	}

	if preview.HighRisk && a.cfg.Safety.ConfirmHighRisk && !opts.Yes {
		backend := interactiveBackend(a.cfg.UI.Backend, cmd.InOrStdin(), cmd.OutOrStdout())
		approved, shown, err := ui.ConfirmHighRisk(backend, preview.Canonical)
		if !shown {
			if err != nil {
				return fmt.Errorf("could not confirm high-risk command: %w", err)
			}
			return fmt.Errorf("refusing high-risk command without confirmation (use --yes): %s", preview.Canonical)
		}
		if !approved {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return err
		}
	}

	result := sess.Execute(cmd.Context(), input)
	if err := writeResult(cmd, result, a.cfg.UI.ShowNormalized, opts.JSON); err != nil {
		return err
	}
	if result.Kind != dispatch.KindNone {
		return exitError{code: 1}
	}
	return nil
}

func writePreview(cmd *cobra.Command, preview session.Preview, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(previewPayload{
			Input:     preview.Input,
			Canonical: preview.Canonical,
			Verb:      string(preview.Verb),
			HighRisk:  preview.HighRisk,
		})
	}
	if _, err := fmt.Fprintln(out, preview.Canonical); err != nil {
		return err
	}
	if preview.HighRisk {
		_, err := fmt.Fprintln(out, "risk: high")
		return err
	}
	return nil
}

func writeResult(cmd *cobra.Command, result dispatch.Result, showNormalized bool, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		payload := resultPayload{
			Output:    result.Lines,
			Cwd:       result.WorkingDirectory,
			Timestamp: result.Timestamp.Format("15:04:05"),
			Exit:      result.Exit,
			Kind:      string(result.Kind),
		}
		if payload.Output == nil {
			payload.Output = []string{}
		}
		if result.Normalized != "" {
			parsed := result.Normalized
			payload.ParsedCommand = &parsed
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	}

	if showNormalized && result.Normalized != "" {
		if _, err := fmt.Fprintf(out, "→ %s\n", result.Normalized); err != nil {
			return err
		}
	}
	for _, line := range result.Lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}
