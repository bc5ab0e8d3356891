package main

import (
	"io"
	"os"

	"github.com/ashwch/vterm/internal/history"
	"github.com/ashwch/vterm/internal/normalize"
	"github.com/ashwch/vterm/internal/router"
	"github.com/ashwch/vterm/internal/ui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newREPLCmd(state *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runREPL(cmd, state.app)
		},
	}
}

func runREPL(cmd *cobra.Command, a *app) error {
	var recent []string
	if a.history != nil {
		commands, err := a.history.Commands()
		if err != nil {
			a.logger.Warn("could not load history", zap.Error(err))
		}
		recent = commands
	}

	in, out := cmd.InOrStdin(), cmd.OutOrStdout()
	sess := a.newSession()
	a.logger.Info("repl started", zap.String("session", sess.ID), zap.String("cwd", a.startDir))

	return ui.RunREPL(cmd.Context(), sess, ui.REPLOptions{
		Backend:         interactiveBackend(a.cfg.UI.Backend, in, out),
		ShowNormalized:  a.cfg.UI.ShowNormalized,
		ConfirmHighRisk: a.cfg.Safety.ConfirmHighRisk,
		History:         recent,
		Completions:     completions(recent),
		In:              in,
		Out:             out,
	})
}

// completions merges built-in verbs, natural phrases and history into one
// suggestion list.
func completions(recent []string) []string {
	all := append([]string{}, router.Builtins()...)
	all = append(all, normalize.Phrases()...)
	for i := len(recent) - 1; i >= 0; i-- {
		all = append(all, recent[i])
	}
	return history.Complete("", all)
}

// interactiveBackend resolves the configured backend against the actual
// streams; anything that is not a terminal gets the plain backend.
func interactiveBackend(backend string, in io.Reader, out io.Writer) string {
	inFile, inOK := in.(*os.File)
	outFile, outOK := out.(*os.File)
	if !inOK || !outOK {
		return ui.BackendPlain
	}
	return ui.ResolveBackend(backend, int(inFile.Fd()), int(outFile.Fd()))
}
