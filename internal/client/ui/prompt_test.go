package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func press(m choiceModel, keys ...tea.KeyMsg) choiceModel {
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(choiceModel)
	}
	return m
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestConfirm_Keys(t *testing.T) {
	tests := []struct {
		name       string
		defaultYes bool
		keys       []tea.KeyMsg
		want       int
	}{
		{"enter keeps default yes", true, []tea.KeyMsg{{Type: tea.KeyEnter}}, 0},
		{"enter keeps default no", false, []tea.KeyMsg{{Type: tea.KeyEnter}}, 1},
		{"y shortcut", false, []tea.KeyMsg{runeKey('y')}, 0},
		{"n shortcut", true, []tea.KeyMsg{runeKey('n')}, 1},
		{"tab then enter", true, []tea.KeyMsg{{Type: tea.KeyTab}, {Type: tea.KeyEnter}}, 1},
		{"escape cancels", true, []tea.KeyMsg{{Type: tea.KeyEsc}}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := press(newConfirm("Proceed?", tt.defaultYes), tt.keys...)
			if got := m.Choice(); got != tt.want {
				t.Errorf("Choice() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSelect_CursorStaysInRange(t *testing.T) {
	m := newChoice("Pick", []Option{{Label: "a"}, {Label: "b"}})

	m = press(m, tea.KeyMsg{Type: tea.KeyUp}, tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})

	if got := m.Choice(); got != 1 {
		t.Errorf("Choice() = %d, want 1", got)
	}
	if m.View() != "" {
		t.Error("View should be empty once a choice is made")
	}
}
