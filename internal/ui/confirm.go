package ui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/rivo/tview"
)

const highRiskNotice = "This command matches a high-risk pattern."

// ConfirmHighRisk asks before a high-risk command runs. shown is false when
// no interactive backend could display the prompt.
func ConfirmHighRisk(backend string, command string) (approved bool, shown bool, err error) {
	command = strings.TrimSpace(command)
	var firstErr error
	for _, candidate := range backendCandidates(backend) {
		switch candidate {
		case BackendBubbleTea:
			approved, err = confirmWithBubbleTea(command)
		case BackendHuh:
			approved, err = confirmWithHuh(command)
		case BackendTView:
			approved, err = confirmWithTView(command)
		default:
			continue
		}
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		return approved, true, nil
	}
	return false, false, firstErr
}

type confirmModel struct {
	command  string
	approved bool
	done     bool
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	approved, decided := confirmKey(k)
	if !decided {
		return m, nil
	}
	m.approved = approved
	m.done = true
	return m, tea.Quit
}

func (m confirmModel) View() string {
	return confirmView(m.command)
}

// confirmKey maps a key to a decision. Only y approves.
func confirmKey(k tea.KeyMsg) (approved bool, decided bool) {
	switch strings.ToLower(k.String()) {
	case "y":
		return true, true
	case "n", "esc", "ctrl+c", "enter":
		return false, true
	}
	return false, false
}

func confirmView(command string) string {
	return strings.Join([]string{
		warningStyle.Render(highRiskNotice),
		"",
		commandStyle.Render(command),
		"",
		hintStyle.Render("[y] run  [n] cancel"),
	}, "\n")
}

func confirmWithBubbleTea(command string) (bool, error) {
	final, err := tea.NewProgram(confirmModel{command: command}).Run()
	if err != nil {
		return false, err
	}
	out, ok := final.(confirmModel)
	if !ok || !out.done {
		return false, nil
	}
	return out.approved, nil
}

func confirmWithHuh(command string) (bool, error) {
	approved := false
	prompt := huh.NewConfirm().
		Title(highRiskNotice).
		Description(command).
		Affirmative("Run").
		Negative("Cancel").
		Value(&approved).
		WithTheme(huh.ThemeCharm())
	if err := prompt.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return approved, nil
}

func confirmWithTView(command string) (bool, error) {
	app := tview.NewApplication()
	approved := false

	modal := tview.NewModal().
		SetText(fmt.Sprintf("%s\n\n%s", highRiskNotice, command)).
		AddButtons([]string{"Run", "Cancel"}).
		SetDoneFunc(func(_ int, label string) {
			approved = label == "Run"
			app.Stop()
		})

	if err := app.SetRoot(modal, true).Run(); err != nil {
		return false, err
	}
	return approved, nil
}
