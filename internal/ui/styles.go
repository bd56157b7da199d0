package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/josephgoksu/tasknest/models"
)

var (
	ColorAccent = lipgloss.Color("205") // project titles, headers
	ColorMuted  = lipgloss.Color("241") // ids, tree lines, hints
	ColorDone   = lipgloss.Color("42")
	ColorError  = lipgloss.Color("160")
	ColorText   = lipgloss.Color("252")
	ColorMatch  = lipgloss.Color("87")

	StyleHeader    = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true).Padding(0, 1)
	StyleSubtle    = lipgloss.NewStyle().Foreground(ColorMuted)
	StyleError     = lipgloss.NewStyle().Foreground(ColorError)
	StyleTaskID    = lipgloss.NewStyle().Foreground(ColorMuted)
	StyleSearch    = lipgloss.NewStyle().Foreground(ColorMatch).Bold(true)
	StyleTreeLines = lipgloss.NewStyle().Foreground(ColorMuted)
)

// TaskState is how a task line is drawn.
type TaskState int

const (
	StateOpen TaskState = iota
	StateDone
	// StatePartial is an open task with at least one completed descendant.
	StatePartial
)

// StateOf derives the display state of t from its completion flags.
func StateOf(t models.Task) TaskState {
	if t.IsCompleted {
		return StateDone
	}
	if anyCompleted(t.SubTasks) {
		return StatePartial
	}
	return StateOpen
}

func anyCompleted(tasks []models.Task) bool {
	for _, t := range tasks {
		if t.IsCompleted || anyCompleted(t.SubTasks) {
			return true
		}
	}
	return false
}

type stateStyle struct {
	marker string
	mark   lipgloss.Style
	text   lipgloss.Style
}

var stateStyles = map[TaskState]stateStyle{
	StateOpen: {
		marker: "[ ]",
		mark:   lipgloss.NewStyle().Foreground(ColorText),
		text:   lipgloss.NewStyle().Foreground(ColorText),
	},
	StateDone: {
		marker: "[x]",
		mark:   lipgloss.NewStyle().Foreground(ColorDone),
		text:   lipgloss.NewStyle().Foreground(ColorMuted).Strikethrough(true),
	},
	StatePartial: {
		marker: "[-]",
		mark:   lipgloss.NewStyle().Foreground(ColorDone),
		text:   lipgloss.NewStyle().Foreground(ColorText),
	},
}

// Render draws the styled checkbox and description for the state.
func (s TaskState) Render(description string) string {
	st := stateStyles[s]
	return st.mark.Render(st.marker) + " " + st.text.Render(description)
}
