package ui

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/ashwch/vterm/internal/dispatch"
	"github.com/ashwch/vterm/internal/session"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const exitNotice = "Exiting terminal..."

// Shell is the session surface the REPL drives.
type Shell interface {
	Preview(input string) session.Preview
	Execute(ctx context.Context, input string) dispatch.Result
	WorkingDirectory() string
}

type REPLOptions struct {
	// Backend must already be resolved; see ResolveBackend.
	Backend         string
	ShowNormalized  bool
	ConfirmHighRisk bool
	// History seeds up/down recall, oldest first.
	History     []string
	Completions []string
	In          io.Reader
	Out         io.Writer
}

// RunREPL reads commands until exit, EOF or ctx is done. bubbletea gets the
// full line editor; every other backend uses the line loop.
func RunREPL(ctx context.Context, shell Shell, opts REPLOptions) error {
	if NormalizeBackend(opts.Backend) == BackendBubbleTea {
		return runBubbleREPL(ctx, shell, opts)
	}
	return runLineREPL(ctx, shell, opts)
}

func runBubbleREPL(ctx context.Context, shell Shell, opts REPLOptions) error {
	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.In != nil {
		programOpts = append(programOpts, tea.WithInput(opts.In))
	}
	if opts.Out != nil {
		programOpts = append(programOpts, tea.WithOutput(opts.Out))
	}
	_, err := tea.NewProgram(newREPLModel(ctx, shell, opts), programOpts...).Run()
	if err != nil && (ctx.Err() != nil || errors.Is(err, tea.ErrProgramKilled)) {
		return nil
	}
	return err
}

type executedMsg struct {
	input  string
	result dispatch.Result
}

type replModel struct {
	ctx   context.Context
	shell Shell
	opts  REPLOptions
	input textinput.Model

	cwd     string
	history []string
	cursor  int
	draft   string

	pending          string
	pendingCanonical string

	running  bool
	cancel   context.CancelFunc
	quitting bool
}

func newREPLModel(ctx context.Context, shell Shell, opts REPLOptions) replModel {
	input := textinput.New()
	input.Prompt = ""
	input.Placeholder = "a command, or plain words like \"go to projects\""
	input.ShowSuggestions = true
	input.SetSuggestions(opts.Completions)
	input.KeyMap.NextSuggestion = key.NewBinding(key.WithKeys("ctrl+n"))
	input.KeyMap.PrevSuggestion = key.NewBinding(key.WithKeys("ctrl+p"))
	input.Focus()

	history := append([]string(nil), opts.History...)
	return replModel{
		ctx:     ctx,
		shell:   shell,
		opts:    opts,
		input:   input,
		cwd:     shell.WorkingDirectory(),
		history: history,
		cursor:  len(history),
	}
}

func (m replModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case executedMsg:
		return m.finish(msg)
	case tea.KeyMsg:
		if m.pending != "" {
			return m.updateConfirm(msg)
		}
		switch msg.Type {
		case tea.KeyCtrlC:
			if m.running {
				m.cancel()
				return m, nil
			}
			return m.quit()
		case tea.KeyCtrlD:
			if !m.running && m.input.Value() == "" {
				return m.quit()
			}
		case tea.KeyEnter:
			if m.running {
				return m, nil
			}
			return m.submit()
		case tea.KeyUp:
			m.recallOlder()
			return m, nil
		case tea.KeyDown:
			m.recallNewer()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m replModel) View() string {
	if m.quitting {
		return ""
	}
	if m.pending != "" {
		return confirmView(m.pendingCanonical)
	}
	view := promptStyle.Render(m.prompt()) + m.input.View()
	if m.running {
		view += "\n" + hintStyle.Render("running (ctrl+c to cancel)")
	}
	return view
}

func (m replModel) prompt() string {
	return m.cwd + "$ "
}

func (m replModel) submit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	m.cursor = len(m.history)
	m.draft = ""
	if input == "" {
		return m, tea.Println(m.prompt())
	}

	preview := m.shell.Preview(input)
	if preview.HighRisk && m.opts.ConfirmHighRisk {
		m.pending = input
		m.pendingCanonical = preview.Canonical
		return m, nil
	}
	return m.start(input)
}

func (m replModel) start(input string) (tea.Model, tea.Cmd) {
	runCtx, cancel := context.WithCancel(m.ctx)
	m.running = true
	m.cancel = cancel
	m.remember(input)

	shell := m.shell
	run := func() tea.Msg {
		defer cancel()
		return executedMsg{input: input, result: shell.Execute(runCtx, input)}
	}
	return m, tea.Sequence(tea.Println(m.prompt()+input), run)
}

func (m replModel) finish(msg executedMsg) (tea.Model, tea.Cmd) {
	m.running = false
	m.cancel = nil
	if msg.result.WorkingDirectory != "" {
		m.cwd = msg.result.WorkingDirectory
	}

	var cmds []tea.Cmd
	if lines := resultLines(msg.result, m.opts.ShowNormalized, normalizedStyle.Render); len(lines) > 0 {
		cmds = append(cmds, tea.Println(strings.Join(lines, "\n")))
	}
	if msg.result.Exit {
		m.quitting = true
		cmds = append(cmds, tea.Quit)
	}
	if len(cmds) == 0 {
		return m, nil
	}
	return m, tea.Sequence(cmds...)
}

func (m replModel) updateConfirm(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	approved, decided := confirmKey(k)
	if !decided {
		return m, nil
	}
	input := m.pending
	m.pending = ""
	m.pendingCanonical = ""
	if approved {
		return m.start(input)
	}
	return m, tea.Println(m.prompt() + input + "\nCancelled.")
}

func (m replModel) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	return m, tea.Sequence(tea.Println(exitNotice), tea.Quit)
}

func (m *replModel) remember(input string) {
	if n := len(m.history); n == 0 || m.history[n-1] != input {
		m.history = append(m.history, input)
	}
	m.cursor = len(m.history)
}

func (m *replModel) recallOlder() {
	if m.cursor == 0 {
		return
	}
	if m.cursor == len(m.history) {
		m.draft = m.input.Value()
	}
	m.cursor--
	m.input.SetValue(m.history[m.cursor])
	m.input.CursorEnd()
}

func (m *replModel) recallNewer() {
	if m.cursor >= len(m.history) {
		return
	}
	m.cursor++
	if m.cursor == len(m.history) {
		m.input.SetValue(m.draft)
	} else {
		m.input.SetValue(m.history[m.cursor])
	}
	m.input.CursorEnd()
}

// resultLines renders a result for display, prefixed by the normalized echo
// when enabled.
func resultLines(result dispatch.Result, showNormalized bool, style func(...string) string) []string {
	lines := make([]string, 0, len(result.Lines)+1)
	if showNormalized && result.Normalized != "" {
		lines = append(lines, style("→ "+result.Normalized))
	}
	return append(lines, result.Lines...)
}
