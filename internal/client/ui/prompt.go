package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Option is one entry of a Select prompt.
type Option struct {
	Label       string
	Description string
}

// choiceModel is a single-choice list. Confirm is a two-entry choice.
type choiceModel struct {
	title    string
	options  []Option
	cursor   int
	selected int
	aborted  bool
	done     bool
	// shortcuts maps a key to the index it selects immediately.
	shortcuts map[string]int
}

func newChoice(title string, options []Option) choiceModel {
	return choiceModel{title: title, options: options, selected: -1}
}

func (m choiceModel) Init() tea.Cmd {
	return nil
}

func (m choiceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch k := key.String(); k {
	case "ctrl+c", "q", "esc":
		m.aborted = true
		m.done = true
		return m, tea.Quit
	case "up", "k", "left", "h":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j", "right", "l", "tab":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.selected = m.cursor
		m.done = true
		return m, tea.Quit
	default:
		if i, ok := m.shortcuts[k]; ok {
			m.cursor = i
			m.selected = i
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m choiceModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	if m.title != "" {
		b.WriteString(TitleStyle.Render(m.title))
		b.WriteString("\n\n")
	}

	for i, opt := range m.options {
		cursor, style := "  ", UnselectedStyle
		if i == m.cursor {
			cursor, style = SelectedStyle.Render("▸ "), SelectedStyle
		}
		b.WriteString(cursor)
		b.WriteString(style.Render(opt.Label))
		if opt.Description != "" {
			b.WriteString("\n    ")
			b.WriteString(HelpStyle.Render(opt.Description))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("↑/↓ move • Enter select • Esc cancel"))
	return b.String()
}

// Choice returns the chosen index, or -1 if the prompt was cancelled.
func (m choiceModel) Choice() int {
	if m.aborted {
		return -1
	}
	return m.selected
}

func run(m choiceModel) (int, error) {
	result, err := tea.NewProgram(m).Run()
	if err != nil {
		return -1, fmt.Errorf("failed to run prompt: %w", err)
	}
	return result.(choiceModel).Choice(), nil
}

// Select shows options and returns the chosen index, or -1 on cancel.
func Select(title string, options []Option) (int, error) {
	return run(newChoice(title, options))
}

func newConfirm(title string, defaultYes bool) choiceModel {
	m := newChoice(title, []Option{{Label: "Yes"}, {Label: "No"}})
	m.shortcuts = map[string]int{"y": 0, "Y": 0, "n": 1, "N": 1}
	if !defaultYes {
		m.cursor = 1
	}
	return m
}

// Confirm asks a yes/no question. Cancelling counts as no.
func Confirm(title string, defaultYes bool) (bool, error) {
	choice, err := run(newConfirm(title, defaultYes))
	if err != nil {
		return false, err
	}
	return choice == 0, nil
}
