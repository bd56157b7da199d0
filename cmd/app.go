package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	"github.com/josephgoksu/tasknest/internal/logger"
	"github.com/josephgoksu/tasknest/internal/metrics"
	"github.com/josephgoksu/tasknest/internal/project"
	"github.com/josephgoksu/tasknest/internal/tasktree"
	"github.com/josephgoksu/tasknest/internal/tracker"
	"github.com/josephgoksu/tasknest/internal/util"
	"github.com/josephgoksu/tasknest/models"
	"github.com/josephgoksu/tasknest/store"
)

// app bundles the store and tracker a command works against.
type app struct {
	kv      store.KVStore
	tracker *tracker.Tracker
}

// openApp opens the configured store. watch enables cross-process change
// detection; one-shot commands leave it off.
func openApp(ctx context.Context, watch bool) (*app, error) {
	kv, err := store.Open(store.Options{
		Backend:  appConfig.Store.Backend,
		Dir:      appConfig.Store.Dir,
		Watch:    watch && appConfig.Store.Watch,
		Debounce: appConfig.Store.Debounce,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", appConfig.Store.Backend, err)
	}

	tr, err := tracker.Open(ctx, kv, tracker.Options{Metrics: metrics.GetDefault()})
	if err != nil {
		_ = kv.Close()
		return nil, err
	}
	logger.SetBackend(kv.Name())
	slog.Debug("store opened", "backend", kv.Name(), "dir", appConfig.Store.Dir, "watch", watch)
	return &app{kv: kv, tracker: tr}, nil
}

func (a *app) Close() {
	a.tracker.Close()
	if err := a.kv.Close(); err != nil {
		slog.Warn("close store", "error", err)
	}
}

// projectIDs returns the sorted ids of every stored project.
func (a *app) projectIDs() []string {
	projects := a.tracker.Projects()
	ids := make([]string, 0, len(projects))
	for id := range projects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// resolveProject turns a project id or unique prefix into a project id.
// Without one, the configured default project is used, and failing that the
// only project when exactly one exists.
func (a *app) resolveProject(idOrPrefix string) (string, error) {
	if idOrPrefix == "" {
		idOrPrefix = appConfig.Project
	}
	ids := a.projectIDs()
	if idOrPrefix == "" {
		switch len(ids) {
		case 0:
			return "", newUserError("no projects yet, create one with `tasknest project create <title>`", nil)
		case 1:
			return ids[0], nil
		default:
			return "", newUserError("several projects exist, choose one with --project or `tasknest project use`", nil)
		}
	}
	id, err := util.ResolveID(idOrPrefix, ids, "project")
	if err != nil {
		return "", newUserError(err.Error(), err)
	}
	logger.SetProject(id)
	return id, nil
}

// session opens a session on the project selected by the --project flag.
func (a *app) session(cmd *cobra.Command) (*project.Session, error) {
	flag, _ := cmd.Flags().GetString("project")
	id, err := a.resolveProject(flag)
	if err != nil {
		return nil, err
	}
	return project.NewSession(a.tracker, id, metrics.GetDefault()), nil
}

// resolveTaskPath turns a task id or unique prefix into its path from the root.
func resolveTaskPath(p models.Project, idOrPrefix string) ([]string, models.Task, error) {
	id, err := util.ResolveID(idOrPrefix, tasktree.IDs(p.TasksList), "task")
	if err != nil {
		return nil, models.Task{}, newUserError(err.Error(), err)
	}
	path, ok := tasktree.PathTo(p.TasksList, id)
	if !ok {
		return nil, models.Task{}, fmt.Errorf("task %s: %w", id, tasktree.ErrPathNotFound)
	}
	task, _ := tasktree.Find(p.TasksList, path)
	return path, task, nil
}

// withSession opens the app, builds a session and runs fn.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *project.Session) error) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.session(cmd)
	if err != nil {
		return err
	}
	return fn(ctx, s)
}

func printJSON(w io.Writer, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}
