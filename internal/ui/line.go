package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

func runLineREPL(ctx context.Context, shell Shell, opts REPLOptions) error {
	in, out := opts.In, opts.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}

	scanner := bufio.NewScanner(in)
	cwd := shell.WorkingDirectory()
	plain := func(parts ...string) string { return strings.Join(parts, " ") }

	for {
		fmt.Fprintf(out, "%s$ ", cwd)
		if !scanner.Scan() {
			fmt.Fprintf(out, "\n%s\n", exitNotice)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if preview := shell.Preview(input); preview.HighRisk && opts.ConfirmHighRisk {
			approved, err := confirmLine(scanner, out, opts.Backend, preview.Canonical)
			if err != nil {
				return err
			}
			if !approved {
				fmt.Fprintln(out, "Cancelled.")
				continue
			}
		}

		result := shell.Execute(ctx, input)
		if result.WorkingDirectory != "" {
			cwd = result.WorkingDirectory
		}
		for _, line := range resultLines(result, opts.ShowNormalized, plain) {
			fmt.Fprintln(out, line)
		}
		if result.Exit {
			return nil
		}
	}
}

// confirmLine prefers a huh or tview modal when one is configured and falls
// back to a y/N question on the same input stream.
func confirmLine(scanner *bufio.Scanner, out io.Writer, backend string, canonical string) (bool, error) {
	switch NormalizeBackend(backend) {
	case BackendHuh, BackendTView:
		if approved, shown, _ := ConfirmHighRisk(backend, canonical); shown {
			return approved, nil
		}
	}

	fmt.Fprintf(out, "%s\n  %s\nRun it? [y/N] ", highRiskNotice, canonical)
	if !scanner.Scan() {
		fmt.Fprintln(out)
		return false, scanner.Err()
	}
	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
