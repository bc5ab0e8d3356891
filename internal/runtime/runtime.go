package runtime

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Output is the captured result of one shell invocation. A non-zero exit
// status is reported through ExitCode, not as an error.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// ShellExecutor runs raw command text through the host shell.
type ShellExecutor struct {
	// Program overrides $SHELL when set.
	Program string
	// WaitDelay bounds how long Run waits for output pipes after the process
	// group has been killed.
	WaitDelay time.Duration
}

func NewShellExecutor(program string) *ShellExecutor {
	return &ShellExecutor{Program: strings.TrimSpace(program), WaitDelay: time.Second}
}

// Run executes command with dir as its working directory. The whole process
// group is killed when ctx is done; ctx.Err() is returned in that case.
func (e *ShellExecutor) Run(ctx context.Context, command string, dir string) (Output, error) {
	shell, args := shellCommandInvocation(e.Program, command)
	cmd := exec.CommandContext(ctx, shell, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	configureCommandProcess(cmd)
	cmd.Cancel = func() error {
		terminateCommandProcess(cmd)
		return nil
	}
	cmd.WaitDelay = e.WaitDelay

	err := cmd.Run()
	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return out, ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	}
	if err != nil {
		return out, err
	}
	return out, nil
}

func shellCommandInvocation(program string, command string) (string, []string) {
	if runtime.GOOS == "windows" {
		comspec := strings.TrimSpace(program)
		if comspec == "" {
			comspec = strings.TrimSpace(os.Getenv("COMSPEC"))
		}
		if comspec == "" {
			comspec = "cmd"
		}
		return comspec, []string{"/C", command}
	}

	for _, shell := range []string{strings.TrimSpace(program), strings.TrimSpace(os.Getenv("SHELL"))} {
		if shell == "" {
			continue
		}
		if filepath.IsAbs(shell) {
			if _, err := os.Stat(shell); err == nil {
				return shell, []string{"-c", command}
			}
		} else if resolved, err := exec.LookPath(shell); err == nil {
			return resolved, []string{"-c", command}
		}
	}
	return "sh", []string{"-c", command}
}

// TrimPrompt strips pasted decoration around a command: a surrounding code
// fence and a leading "$ " or "> " prompt marker.
func TrimPrompt(input string) string {
	trimmed := strings.TrimSpace(input)
	if strings.HasPrefix(trimmed, "```") {
		lines := strings.Split(trimmed, "\n")
		if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[0]), "```") {
			lines = lines[1:]
		}
		if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
			lines = lines[:len(lines)-1]
		}
		trimmed = strings.TrimSpace(strings.Join(lines, "\n"))
	}

	switch {
	case strings.HasPrefix(trimmed, "$ "):
		trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, "$ "))
	case strings.HasPrefix(trimmed, "> "):
		trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, "> "))
	}
	return trimmed
}

var highRiskPatterns = []string{
	"rm -rf /",
	"rm -rf ~",
	"rm -rf *",
	"mkfs",
	"dd if=",
	"shutdown",
	"reboot",
	"userdel",
	"chmod 777 /",
	":(){",
}

// HighRisk reports whether raw shell text matches a known destructive pattern.
func HighRisk(command string) bool {
	low := strings.Join(strings.Fields(strings.ToLower(command)), " ")
	for _, pattern := range highRiskPatterns {
		if strings.Contains(low, pattern) {
			return true
		}
	}
	return false
}
