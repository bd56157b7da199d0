// Package project holds the per-project working state: the task tree
// operations a user performs on one project and the derived search view.
package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/josephgoksu/tasknest/internal/logger"
	"github.com/josephgoksu/tasknest/internal/metrics"
	"github.com/josephgoksu/tasknest/internal/tasktree"
	"github.com/josephgoksu/tasknest/internal/tracker"
	"github.com/josephgoksu/tasknest/internal/transfer"
	"github.com/josephgoksu/tasknest/models"
)

// Mutation operation labels.
const (
	OpRename  = "rename"
	OpAdd     = "add"
	OpSubtask = "subtask"
	OpRemove  = "remove"
	OpToggle  = "toggle"
	OpSwap    = "swap"
	OpSearch  = "search"
	OpImport  = "import"
)

// Store is the persistence a Session needs. *tracker.Tracker satisfies it.
type Store interface {
	Project(id string) (models.Project, error)
	UpdateProject(ctx context.Context, p models.Project) error
}

var _ Store = (*tracker.Tracker)(nil)

// Session operates on a single project. Every mutation works on a private
// copy of the project and hands the result to the Store in full.
type Session struct {
	store     Store
	projectID string
	metrics   *metrics.Metrics

	filtered    models.TasksList
	importError string
}

// NewSession creates a session for projectID. A nil m uses the default metrics.
// The filtered view is seeded from the project's stored search.
func NewSession(store Store, projectID string, m *metrics.Metrics) *Session {
	if m == nil {
		m = metrics.GetDefault()
	}
	s := &Session{store: store, projectID: projectID, metrics: m}
	if p, err := store.Project(projectID); err == nil && p.Filters.Search != "" {
		s.filtered = tasktree.Search(p.TasksList, p.Filters.Search)
	}
	return s
}

// ProjectID returns the id of the project this session edits.
func (s *Session) ProjectID() string { return s.projectID }

// Project returns a copy of the current project.
func (s *Session) Project() (models.Project, error) {
	return s.store.Project(s.projectID)
}

// FilteredTasks returns the flat search result of the last Search call.
func (s *Session) FilteredTasks() models.TasksList {
	return s.filtered.Clone()
}

// ImportError returns the message of the last failed import, or "".
func (s *Session) ImportError() string { return s.importError }

// ClearImportError resets the import error state.
func (s *Session) ClearImportError() { s.importError = "" }

// mutate runs fn on a copy of the project and persists the result. path is
// the task the operation targets, nil for project-level operations.
func (s *Session) mutate(ctx context.Context, op string, path []string, fn func(*models.Project) error) error {
	defer logger.BeginOperation(op, path)()

	p, err := s.store.Project(s.projectID)
	if err != nil {
		return err
	}
	if err := fn(&p); err != nil {
		return err
	}
	if err := s.store.UpdateProject(ctx, p); err != nil {
		return fmt.Errorf("save project %s: %w", s.projectID, err)
	}
	s.metrics.Mutations.WithLabelValues(op).Inc()
	slog.Debug("project updated", "project", s.projectID, "op", op)
	return nil
}

// ChangeTitle renames the project.
func (s *Session) ChangeTitle(ctx context.Context, title string) error {
	return s.mutate(ctx, OpRename, nil, func(p *models.Project) error {
		p.Title = title
		return nil
	})
}

// AddNewTask appends an incomplete root task.
func (s *Session) AddNewTask(ctx context.Context, description, id string) (models.Task, error) {
	if id == "" {
		return models.Task{}, errors.New("task id is required")
	}
	task := models.NewTask(id, description)
	err := s.mutate(ctx, OpAdd, nil, func(p *models.Project) error {
		p.TasksList = append(p.TasksList, task)
		return nil
	})
	if err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// SwapTasks moves the root task at indexX to indexY.
func (s *Session) SwapTasks(ctx context.Context, indexX, indexY int) error {
	return s.mutate(ctx, OpSwap, nil, func(p *models.Project) error {
		p.TasksList = tasktree.SwapRoot(p.TasksList, indexX, indexY)
		return nil
	})
}

// Search stores value as the project's search filter and recomputes the
// flat result list from the unfiltered tree.
func (s *Session) Search(ctx context.Context, value string) (models.TasksList, error) {
	var result models.TasksList
	err := s.mutate(ctx, OpSearch, nil, func(p *models.Project) error {
		p.Filters.Search = value
		result = tasktree.Search(p.TasksList, value)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.filtered = result
	return result.Clone(), nil
}

// Import replaces the task list with the tasks encoded in text. On failure
// the project is left untouched and the message is kept as ImportError.
func (s *Session) Import(ctx context.Context, text string) error {
	tasks, err := transfer.Import(text)
	if err != nil {
		var ie *transfer.ImportError
		if errors.As(err, &ie) {
			s.importError = ie.Error()
			s.metrics.Imports.WithLabelValues(string(ie.Kind)).Inc()
			slog.Debug("import rejected", "project", s.projectID, "kind", ie.Kind, "detail", ie.Detail)
		}
		return err
	}

	err = s.mutate(ctx, OpImport, nil, func(p *models.Project) error {
		p.TasksList = tasks
		return nil
	})
	if err != nil {
		return err
	}
	s.importError = ""
	s.metrics.Imports.WithLabelValues("ok").Inc()
	return nil
}

// Export renders the task list as indented JSON.
func (s *Session) Export() (string, error) {
	p, err := s.store.Project(s.projectID)
	if err != nil {
		return "", err
	}
	return transfer.Export(p.TasksList)
}

// ExportAs renders the task list in the given format.
func (s *Session) ExportAs(format string) (string, error) {
	p, err := s.store.Project(s.projectID)
	if err != nil {
		return "", err
	}
	return transfer.ExportAs(p.TasksList, format)
}

// Task returns a handle on the task at path, ids from a root task down to
// and including the target.
func (s *Session) Task(path []string) *TaskHandle {
	return &TaskHandle{session: s, path: append([]string(nil), path...)}
}

// TaskHandle scopes tree operations to one task path.
type TaskHandle struct {
	session *Session
	path    []string
}

// Path returns the handle's path.
func (h *TaskHandle) Path() []string { return append([]string(nil), h.path...) }

// AddSubtask appends newTask below the task.
func (h *TaskHandle) AddSubtask(ctx context.Context, newTask models.Task) error {
	return h.session.mutate(ctx, OpSubtask, h.path, func(p *models.Project) error {
		tasks, err := tasktree.AddSubtask(p.TasksList, h.path, newTask)
		if err != nil {
			return err
		}
		p.TasksList = tasks
		return nil
	})
}

// Remove deletes the task and its subtree. The removed tasks also leave the
// filtered view.
func (h *TaskHandle) Remove(ctx context.Context) error {
	var removed []string
	err := h.session.mutate(ctx, OpRemove, h.path, func(p *models.Project) error {
		target, ok := tasktree.Find(p.TasksList, h.path)
		if !ok {
			return tasktree.ErrPathNotFound
		}
		tasks, err := tasktree.Remove(p.TasksList, h.path)
		if err != nil {
			return err
		}
		p.TasksList = tasks
		removed = append([]string{target.ID}, tasktree.Descendants(target)...)
		return nil
	})
	if err != nil {
		return err
	}
	h.session.dropFiltered(removed)
	return nil
}

// ToggleCompleted sets the completion flag on the task and all of its
// descendants.
func (h *TaskHandle) ToggleCompleted(ctx context.Context, isCompleted bool) error {
	var changed []string
	err := h.session.mutate(ctx, OpToggle, h.path, func(p *models.Project) error {
		target, ok := tasktree.Find(p.TasksList, h.path)
		if !ok {
			return tasktree.ErrPathNotFound
		}
		tasks, err := tasktree.ToggleCompleted(p.TasksList, h.path, isCompleted)
		if err != nil {
			return err
		}
		p.TasksList = tasks
		changed = append([]string{target.ID}, tasktree.Descendants(target)...)
		return nil
	})
	if err != nil {
		return err
	}
	h.session.markFiltered(changed, isCompleted)
	return nil
}

func (s *Session) dropFiltered(ids []string) {
	if len(s.filtered) == 0 {
		return
	}
	drop := toSet(ids)
	kept := make(models.TasksList, 0, len(s.filtered))
	for _, t := range s.filtered {
		if _, ok := drop[t.ID]; !ok {
			kept = append(kept, t)
		}
	}
	s.filtered = kept
}

func (s *Session) markFiltered(ids []string, isCompleted bool) {
	if len(s.filtered) == 0 {
		return
	}
	mark := toSet(ids)
	for i := range s.filtered {
		if _, ok := mark[s.filtered[i].ID]; ok {
			s.filtered[i].IsCompleted = isCompleted
		}
	}
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
