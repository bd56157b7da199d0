package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// RefreshMsg tells the watch view that the project collection changed.
type RefreshMsg struct {
	Source   string
	Revision uint64
}

// WatchModel is the Bubble Tea model behind `tasknest watch`. It re-renders
// its content on every RefreshMsg and scrolls with the viewport keys.
type WatchModel struct {
	title    string
	render   func() string
	viewport viewport.Model
	updates  int
	last     RefreshMsg
	lastAt   time.Time
	quitting bool
}

// NewWatchModel creates a watch view whose content comes from render.
func NewWatchModel(title string, render func() string) WatchModel {
	vp := viewport.New(80, 20)
	vp.SetContent(render())
	return WatchModel{title: title, render: render, viewport: vp}
}

func (m WatchModel) Init() tea.Cmd {
	return nil
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(1, msg.Height-2)
	case RefreshMsg:
		m.updates++
		m.last = msg
		m.lastAt = time.Now()
		m.viewport.SetContent(m.render())
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m WatchModel) View() string {
	if m.quitting {
		return ""
	}
	header := StyleHeader.Render(m.title)
	footer := StyleSubtle.Render("waiting for changes • ↑/↓ scroll • q quit")
	if m.updates > 0 {
		footer = StyleSubtle.Render(fmt.Sprintf("%d update(s), last %s change rev %d at %s • q quit",
			m.updates, m.last.Source, m.last.Revision, m.lastAt.Format("15:04:05")))
	}
	return header + "\n" + m.viewport.View() + "\n" + footer
}

// Updates returns how many refreshes the view has applied.
func (m WatchModel) Updates() int { return m.updates }
