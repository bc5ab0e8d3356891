package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ashwch/vterm/internal/history"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/rivo/tview"
)

type historyOption struct {
	Label   string
	Command string
}

// PickHistory lets the user choose one of matches. used is false when no
// interactive backend could show the picker; an empty command with used set
// means the user cancelled.
func PickHistory(backend string, query string, matches []history.Match) (command string, used bool, err error) {
	options := buildHistoryOptions(matches)
	if len(options) == 0 {
		return "", false, nil
	}

	var firstErr error
	for _, candidate := range backendCandidates(backend) {
		switch candidate {
		case BackendBubbleTea:
			command, used, err = selectWithBubbleTea(query, options)
		case BackendHuh:
			command, used, err = selectWithHuh(query, options)
		case BackendTView:
			command, used, err = selectWithTView(query, options)
		default:
			continue
		}
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if used {
			return command, true, nil
		}
	}
	return "", false, firstErr
}

func buildHistoryOptions(matches []history.Match) []historyOption {
	options := make([]historyOption, 0, len(matches))
	seen := map[string]struct{}{}
	for _, match := range matches {
		command := strings.TrimSpace(match.Command)
		if command == "" {
			continue
		}
		if _, ok := seen[command]; ok {
			continue
		}
		seen[command] = struct{}{}

		label := command
		if when, err := time.Parse(time.RFC3339, match.Timestamp); err == nil {
			label = fmt.Sprintf("%s  %s", when.Local().Format("Jan 02 15:04"), command)
		}
		options = append(options, historyOption{Label: label, Command: command})
	}
	return options
}

func pickerTitle(query string) string {
	return fmt.Sprintf("vterm history: %s", strings.TrimSpace(query))
}

func selectWithHuh(query string, options []historyOption) (string, bool, error) {
	huhOptions := make([]huh.Option[string], 0, len(options))
	for _, option := range options {
		huhOptions = append(huhOptions, huh.NewOption(option.Label, option.Command))
	}

	choice := options[0].Command
	prompt := huh.NewSelect[string]().
		Title(pickerTitle(query)).
		Options(huhOptions...).
		Filtering(true).
		Height(huhSelectHeight(len(huhOptions))).
		Value(&choice).
		WithTheme(huh.ThemeCharm())

	if err := prompt.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", true, nil
		}
		return "", false, err
	}
	return choice, true, nil
}

type bubbleSelectorItem struct {
	label   string
	command string
}

func (i bubbleSelectorItem) Title() string       { return i.label }
func (i bubbleSelectorItem) Description() string { return "" }
func (i bubbleSelectorItem) FilterValue() string { return i.label + " " + i.command }

type bubbleSelectorModel struct {
	list      list.Model
	selection string
	cancelled bool
	options   int
}

func (m bubbleSelectorModel) Init() tea.Cmd { return nil }

func (m bubbleSelectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch k := msg.(type) {
	case tea.WindowSizeMsg:
		width, height := bubblePickerSize(k.Width, k.Height, m.options)
		m.list.SetSize(width, height)
		return m, nil
	case tea.KeyMsg:
		switch k.String() {
		case "q", "esc", "ctrl+c":
			m.cancelled = true
			return m, tea.Quit
		case "enter":
			if item, ok := m.list.SelectedItem().(bubbleSelectorItem); ok {
				m.selection = item.command
			}
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m bubbleSelectorModel) View() string {
	return m.list.View()
}

func selectWithBubbleTea(query string, options []historyOption) (string, bool, error) {
	items := make([]list.Item, 0, len(options))
	for _, option := range options {
		items = append(items, bubbleSelectorItem{label: option.Label, command: option.Command})
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)

	initialWidth, initialHeight := bubblePickerSize(80, 24, len(items))
	picker := list.New(items, delegate, initialWidth, initialHeight)
	picker.Title = pickerTitle(query)
	picker.SetShowHelp(false)
	picker.SetFilteringEnabled(true)

	model := bubbleSelectorModel{list: picker, options: len(items)}
	final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		return "", false, err
	}
	out, ok := final.(bubbleSelectorModel)
	if !ok || out.cancelled {
		return "", true, nil
	}
	return out.selection, true, nil
}

func selectWithTView(query string, options []historyOption) (string, bool, error) {
	app := tview.NewApplication()
	listView := tview.NewList()
	listView.SetBorder(true)
	listView.SetTitle(pickerTitle(query))
	listView.ShowSecondaryText(false)

	selected := ""
	for _, option := range options {
		command := option.Command
		listView.AddItem(option.Label, "", 0, func() {
			selected = command
			app.Stop()
		})
	}
	listView.SetDoneFunc(func() {
		app.Stop()
	})

	if err := app.SetRoot(listView, true).SetFocus(listView).Run(); err != nil {
		return "", false, err
	}
	return selected, true, nil
}

func clampInt(v, minV, maxV int) int {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

func bubblePickerSize(termWidth, termHeight, optionCount int) (int, int) {
	if termWidth <= 0 {
		termWidth = 80
	}
	if termHeight <= 0 {
		termHeight = 24
	}
	if optionCount < 1 {
		optionCount = 1
	}

	maxWidth := termWidth
	minWidth := 32
	if maxWidth < minWidth {
		minWidth = maxWidth
	}
	width := clampInt(termWidth-4, minWidth, maxWidth)

	visibleItems := clampInt(optionCount, 3, 12)
	desiredHeight := visibleItems + 6

	maxHeight := termHeight - 2
	if maxHeight <= 0 {
		maxHeight = termHeight
	}
	if maxHeight <= 0 {
		maxHeight = 1
	}
	minHeight := 8
	if maxHeight < minHeight {
		minHeight = maxHeight
	}
	height := clampInt(desiredHeight, minHeight, maxHeight)
	return width, height
}

func huhSelectHeight(optionCount int) int {
	if optionCount < 1 {
		optionCount = 1
	}
	return clampInt(optionCount+1, 4, 10)
}
