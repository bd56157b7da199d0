package tasktree

import (
	"strings"

	"github.com/josephgoksu/tasknest/internal/utils"
	"github.com/josephgoksu/tasknest/models"
	"golang.org/x/text/cases"
)

// FlatList linearizes the forest depth-first, pre-order. Each entry is a copy
// of the task with its subtasks stripped.
func FlatList(tasks []models.Task) []models.Task {
	flat := make([]models.Task, 0, len(tasks))
	var walk func([]models.Task)
	walk = func(level []models.Task) {
		for _, t := range level {
			children := t.SubTasks
			t.SubTasks = nil
			flat = append(flat, t)
			walk(children)
		}
	}
	walk(tasks)
	return flat
}

// Search returns the flat entries whose description contains query, ignoring
// case. The query is whitespace-trimmed first and an empty query matches
// nothing. Matches keep no parent/child relation.
func Search(tasks []models.Task, query string) []models.Task {
	result := []models.Task{}

	// Casers are stateful, so each call gets its own.
	fold := cases.Fold()
	needle := fold.String(utils.RemoveWhitespaces(query))
	if needle == "" {
		return result
	}

	for _, t := range FlatList(tasks) {
		if strings.Contains(fold.String(t.Description), needle) {
			result = append(result, t)
		}
	}
	return result
}

// IDs returns every id in the forest, pre-order, duplicates included.
func IDs(tasks []models.Task) []string {
	flat := FlatList(tasks)
	ids := make([]string, len(flat))
	for i, t := range flat {
		ids[i] = t.ID
	}
	return ids
}
