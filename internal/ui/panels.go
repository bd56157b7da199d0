package ui

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// CrashPanelWidth is the width crash summaries are wrapped to.
const CrashPanelWidth = 72

// IsInteractive checks if stdout is a terminal.
// The watch view falls back to plain re-printing when it is not.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// box draws a rounded panel. A zero width fits the content.
func box(title, body string, border lipgloss.Color, width int) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)
	if width > 0 {
		style = style.Width(width)
	}
	heading := lipgloss.NewStyle().Bold(true).Foreground(border).Render(title)
	return style.Render(heading + "\n" + body)
}

// RenderImportRejected explains why an import was refused. kind is the
// rejection category and may be empty.
func RenderImportRejected(kind, message string) string {
	title := "Import rejected"
	if kind != "" {
		title += " (" + kind + ")"
	}
	return box(title, message+"\n"+StyleSubtle.Render("The task list was not changed."), ColorError, 0)
}

// RenderImported confirms that projectTitle's task list was replaced.
func RenderImported(projectTitle string, count int) string {
	return box("Import complete", fmt.Sprintf("Imported %d task(s) into %q", count, projectTitle), ColorDone, 0)
}

// RenderCrash shows the summary of the crash report stored at path.
func RenderCrash(path, summary string) string {
	body := summary + "\n" + StyleSubtle.Render(filepath.Base(path))
	return box("Last crash", body, ColorError, CrashPanelWidth)
}
