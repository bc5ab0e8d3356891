package ui

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/ashwch/vterm/internal/dispatch"
	"github.com/ashwch/vterm/internal/session"
	tea "github.com/charmbracelet/bubbletea"
)

type fakeShell struct {
	cwd      string
	highRisk map[string]bool
	executed []string
}

func newFakeShell() *fakeShell {
	return &fakeShell{cwd: "/home", highRisk: map[string]bool{"rm -rf /": true}}
}

func (f *fakeShell) Preview(input string) session.Preview {
	return session.Preview{Input: input, Canonical: input, HighRisk: f.highRisk[input]}
}

func (f *fakeShell) Execute(_ context.Context, input string) dispatch.Result {
	f.executed = append(f.executed, input)
	switch input {
	case "exit":
		return dispatch.Result{Lines: []string{"Goodbye!"}, Exit: true, WorkingDirectory: f.cwd}
	case "go to tmp":
		f.cwd = "/tmp"
		return dispatch.Result{Lines: []string{"Changed to: /tmp"}, Normalized: "cd tmp", WorkingDirectory: f.cwd}
	}
	return dispatch.Result{Lines: []string{"ran " + input}, WorkingDirectory: f.cwd}
}

func (f *fakeShell) WorkingDirectory() string { return f.cwd }

func press(t *testing.T, m replModel, msg tea.Msg) (replModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(replModel)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	return out, cmd
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestLineREPLRunsUntilExit(t *testing.T) {
	shell := newFakeShell()
	var out bytes.Buffer
	in := strings.NewReader("go to tmp\n\nrm -rf /\nn\nls\nexit\nnever\n")

	err := RunREPL(context.Background(), shell, REPLOptions{
		Backend:         BackendPlain,
		ShowNormalized:  true,
		ConfirmHighRisk: true,
		In:              in,
		Out:             &out,
	})
	if err != nil {
		t.Fatalf("repl failed: %v", err)
	}

	if got := strings.Join(shell.executed, "|"); got != "go to tmp|ls|exit" {
		t.Fatalf("unexpected executed commands %q", got)
	}
	text := out.String()
	for _, want := range []string{
		"/home$ ",
		"→ cd tmp",
		"Changed to: /tmp",
		"/tmp$ ",
		highRiskNotice,
		"Cancelled.",
		"ran ls",
		"Goodbye!",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, text)
		}
	}
}

func TestLineREPLApprovesHighRiskOnYes(t *testing.T) {
	shell := newFakeShell()
	var out bytes.Buffer

	err := RunREPL(context.Background(), shell, REPLOptions{
		Backend:         BackendPlain,
		ConfirmHighRisk: true,
		In:              strings.NewReader("rm -rf /\nyes\n"),
		Out:             &out,
	})
	if err != nil {
		t.Fatalf("repl failed: %v", err)
	}
	if len(shell.executed) != 1 || shell.executed[0] != "rm -rf /" {
		t.Fatalf("expected approved command to run, got %v", shell.executed)
	}
}

func TestLineREPLPrintsExitNoticeOnEOF(t *testing.T) {
	shell := newFakeShell()
	var out bytes.Buffer

	err := RunREPL(context.Background(), shell, REPLOptions{
		Backend: BackendPlain,
		In:      strings.NewReader("pwd\n"),
		Out:     &out,
	})
	if err != nil {
		t.Fatalf("repl failed: %v", err)
	}
	if !strings.HasSuffix(out.String(), exitNotice+"\n") {
		t.Fatalf("expected exit notice at EOF, got %q", out.String())
	}
	if strings.Contains(out.String(), "→") {
		t.Fatalf("expected no normalized echo when disabled, got %q", out.String())
	}
}

func TestREPLModelHighRiskCancel(t *testing.T) {
	shell := newFakeShell()
	m := newREPLModel(context.Background(), shell, REPLOptions{ConfirmHighRisk: true})

	m.input.SetValue("rm -rf /")
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.pending != "rm -rf /" {
		t.Fatalf("expected pending confirmation, got %q", m.pending)
	}
	if !strings.Contains(m.View(), highRiskNotice) {
		t.Fatalf("expected confirmation view, got %q", m.View())
	}

	m, _ = press(t, m, keyRune('x'))
	if m.pending == "" {
		t.Fatalf("expected unrelated key to keep the prompt open")
	}

	m, cmd := press(t, m, keyRune('n'))
	if m.pending != "" || m.running || cmd == nil {
		t.Fatalf("expected cancellation, got pending=%q running=%v", m.pending, m.running)
	}
	if len(shell.executed) != 0 {
		t.Fatalf("expected nothing to run, got %v", shell.executed)
	}
}

func TestREPLModelHighRiskApprove(t *testing.T) {
	shell := newFakeShell()
	m := newREPLModel(context.Background(), shell, REPLOptions{ConfirmHighRisk: true})

	m.input.SetValue("rm -rf /")
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, cmd := press(t, m, keyRune('y'))
	if !m.running || cmd == nil {
		t.Fatalf("expected approved command to start")
	}
	if m.history[len(m.history)-1] != "rm -rf /" {
		t.Fatalf("expected command in recall history, got %v", m.history)
	}
}

func TestREPLModelSkipsConfirmationWhenDisabled(t *testing.T) {
	shell := newFakeShell()
	m := newREPLModel(context.Background(), shell, REPLOptions{})

	m.input.SetValue("rm -rf /")
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.pending != "" || !m.running || cmd == nil {
		t.Fatalf("expected command to start without confirmation")
	}

	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatalf("expected enter to be ignored while running")
	}
	if !strings.Contains(m.View(), "running") {
		t.Fatalf("expected running hint, got %q", m.View())
	}
}

func TestREPLModelFinishUpdatesPromptAndExits(t *testing.T) {
	shell := newFakeShell()
	m := newREPLModel(context.Background(), shell, REPLOptions{ShowNormalized: true})
	m.running = true

	m, cmd := press(t, m, executedMsg{
		input:  "go to tmp",
		result: dispatch.Result{Lines: []string{"Changed to: /tmp"}, Normalized: "cd tmp", WorkingDirectory: "/tmp"},
	})
	if m.running || cmd == nil {
		t.Fatalf("expected run to finish with output")
	}
	if !strings.Contains(m.View(), "/tmp$ ") {
		t.Fatalf("expected prompt to follow new working directory, got %q", m.View())
	}

	m, cmd = press(t, m, executedMsg{
		input:  "exit",
		result: dispatch.Result{Lines: []string{"Goodbye!"}, Exit: true, WorkingDirectory: "/tmp"},
	})
	if !m.quitting || cmd == nil {
		t.Fatalf("expected exit to quit")
	}
	if m.View() != "" {
		t.Fatalf("expected empty view after quit, got %q", m.View())
	}
}

func TestREPLModelHistoryRecall(t *testing.T) {
	shell := newFakeShell()
	m := newREPLModel(context.Background(), shell, REPLOptions{History: []string{"ls", "pwd"}})
	m.input.SetValue("dr")

	steps := []struct {
		key  tea.KeyType
		want string
	}{
		{tea.KeyUp, "pwd"},
		{tea.KeyUp, "ls"},
		{tea.KeyUp, "ls"},
		{tea.KeyDown, "pwd"},
		{tea.KeyDown, "dr"},
		{tea.KeyDown, "dr"},
	}
	for i, step := range steps {
		m, _ = press(t, m, tea.KeyMsg{Type: step.key})
		if got := m.input.Value(); got != step.want {
			t.Fatalf("step %d: expected %q, got %q", i, step.want, got)
		}
	}
}

func TestREPLModelCtrlCQuitsWhenIdle(t *testing.T) {
	m := newREPLModel(context.Background(), newFakeShell(), REPLOptions{})
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if !m.quitting || cmd == nil {
		t.Fatalf("expected ctrl+c to quit when idle")
	}
}

func TestREPLModelCtrlCCancelsRunningCommand(t *testing.T) {
	m := newREPLModel(context.Background(), newFakeShell(), REPLOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	m.running = true
	m.cancel = cancel

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if m.quitting {
		t.Fatalf("expected ctrl+c to cancel instead of quit")
	}
	if ctx.Err() == nil {
		t.Fatalf("expected running command context to be cancelled")
	}
}

func TestResultLinesEcho(t *testing.T) {
	plain := func(parts ...string) string { return strings.Join(parts, "") }
	result := dispatch.Result{Lines: []string{"Directory created: a"}, Normalized: "mkdir a"}

	if got := resultLines(result, true, plain); len(got) != 2 || got[0] != "→ mkdir a" {
		t.Fatalf("unexpected echoed lines %v", got)
	}
	if got := resultLines(result, false, plain); len(got) != 1 {
		t.Fatalf("expected echo to be suppressed, got %v", got)
	}
}
