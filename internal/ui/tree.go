package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss/tree"

	"github.com/josephgoksu/tasknest/models"
)

// RenderProject renders a project. With no active search the full task tree
// is drawn; otherwise the flat filtered list is shown instead.
func RenderProject(p models.Project, filtered models.TasksList) string {
	var sb strings.Builder
	sb.WriteString(StyleHeader.Render(p.Title))
	sb.WriteString(StyleTaskID.Render("(" + p.ID + ")"))
	sb.WriteString("\n")

	if p.Filters.Search != "" {
		sb.WriteString(RenderSearch(p.Filters.Search, filtered))
		return sb.String()
	}
	if len(p.TasksList) == 0 {
		sb.WriteString(StyleSubtle.Render("  No tasks yet"))
		sb.WriteString("\n")
		return sb.String()
	}
	sb.WriteString(RenderTree(p.TasksList))
	sb.WriteString("\n")
	return sb.String()
}

// RenderTree draws the forest. Subtasks below models.NestingThreshold levels
// are drawn at the threshold level instead of indenting further.
func RenderTree(tasks models.TasksList) string {
	root := tree.New().
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(StyleTreeLines)
	addTasks(root, tasks, 1)
	return root.String()
}

func addTasks(parent *tree.Tree, tasks []models.Task, depth int) {
	for _, t := range tasks {
		if !t.HasSubTasks() {
			parent.Child(TaskLine(t))
			continue
		}
		if depth >= models.NestingThreshold {
			parent.Child(TaskLine(t))
			addTasks(parent, t.SubTasks, depth+1)
			continue
		}
		node := tree.Root(TaskLine(t)).
			Enumerator(tree.RoundedEnumerator).
			EnumeratorStyle(StyleTreeLines)
		addTasks(node, t.SubTasks, depth+1)
		parent.Child(node)
	}
}

// RenderSearch draws the flat result list of a search.
func RenderSearch(query string, results models.TasksList) string {
	var sb strings.Builder
	sb.WriteString(StyleSearch.Render(fmt.Sprintf("  Search %q: %d match(es)", query, len(results))))
	sb.WriteString("\n")
	for _, t := range results {
		sb.WriteString("  ")
		sb.WriteString(TaskLine(t))
		sb.WriteString("\n")
	}
	return sb.String()
}

// TaskLine renders one task without its subtasks. An open task whose
// subtree has completed tasks is marked partial.
func TaskLine(t models.Task) string {
	return StateOf(t).Render(t.Description) + " " + StyleTaskID.Render(t.ID)
}
