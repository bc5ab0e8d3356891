package dispatch

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

func (d *Dispatcher) passthrough(ctx context.Context, raw string, state State) ([]string, error) {
	runCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	started := d.now()
	out, err := d.exec.Run(runCtx, raw, state.WorkingDirectory)
	// The caller's own cancellation or deadline is not our timeout.
	if ctxErr := ctx.Err(); ctxErr != nil {
		d.logCommand("passthrough cancelled", raw, state, zap.Error(ctxErr))
		return nil, fail(ErrIO, ctxErr, "Command cancelled: %v", ctxErr)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		d.logCommand("passthrough timed out", raw, state, zap.Duration("timeout", d.timeout))
		return nil, fail(ErrTimeout, err, "Command timed out after %s seconds", formatSeconds(d.timeout))
	}
	if err != nil {
		d.logCommand("passthrough failed", raw, state, zap.Error(err))
		return nil, fail(ErrIO, err, "Error: %v", err)
	}
	d.logCommand("passthrough", raw, state,
		zap.Int("exit_code", out.ExitCode),
		zap.Duration("elapsed", d.now().Sub(started)))

	lines := splitOutput(out.Stdout)
	for _, line := range splitOutput(out.Stderr) {
		lines = append(lines, "Error: "+line)
	}
	return lines, nil
}

func splitOutput(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, "\r")
	}
	return lines
}

func formatSeconds(d time.Duration) string {
	if d%time.Second == 0 {
		return strconv.FormatInt(int64(d/time.Second), 10)
	}
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
