// Package tasktree implements path-addressed edits, flattening and search
// over a project's task forest.
//
// A path is the ordered list of ids from a root task down to the target.
// Every operation returns a new sibling slice; nodes on the path are rebuilt
// and untouched subtrees are shared with the input, so callers must treat
// trees as immutable values.
package tasktree

import (
	"errors"

	"github.com/josephgoksu/tasknest/models"
)

// ErrPathNotFound is returned by Apply when a path does not resolve to a node.
var ErrPathNotFound = errors.New("task path not found")

// Transform edits the node at the end of a path. Returning false deletes the
// node (and with it the whole subtree).
type Transform func(models.Task) (models.Task, bool)

// Keep is the identity transform.
func Keep(t models.Task) (models.Task, bool) { return t, true }

// Drop deletes the target node.
func Drop(models.Task) (models.Task, bool) { return models.Task{}, false }

// Traverse walks one sibling level looking for path[0]. When the path has a
// single segment the transform is applied to the match; otherwise Traverse
// descends into the match's subtasks with the rest of the path.
//
// An empty path or an unmatched segment leaves the level unchanged.
func Traverse(nodes []models.Task, path []string, transform Transform) []models.Task {
	out, _ := traverse(nodes, path, transform)
	return out
}

// Apply is Traverse that reports an unresolved path as ErrPathNotFound.
// The returned tree is unchanged in that case.
func Apply(nodes []models.Task, path []string, transform Transform) ([]models.Task, error) {
	out, found := traverse(nodes, path, transform)
	if !found {
		return out, ErrPathNotFound
	}
	return out, nil
}

func traverse(nodes []models.Task, path []string, transform Transform) ([]models.Task, bool) {
	if nodes == nil {
		return nil, false
	}
	out := make([]models.Task, 0, len(nodes))
	if len(path) == 0 {
		return append(out, nodes...), false
	}

	head, tail := path[0], path[1:]
	for i, node := range nodes {
		if node.ID != head {
			out = append(out, node)
			continue
		}

		// Only the first sibling carrying the id is addressed.
		if len(tail) == 0 {
			if replaced, keep := transform(node); keep {
				out = append(out, replaced)
			}
			return append(out, nodes[i+1:]...), true
		}

		subTasks, found := traverse(node.SubTasks, tail, transform)
		if found {
			node.SubTasks = normalize(subTasks)
		}
		out = append(out, node)
		return append(out, nodes[i+1:]...), found
	}
	return out, false
}

// normalize keeps leaves free of an empty subtask slice.
func normalize(nodes []models.Task) []models.Task {
	if len(nodes) == 0 {
		return nil
	}
	return nodes
}

// Find returns the node addressed by path.
func Find(nodes []models.Task, path []string) (models.Task, bool) {
	if len(path) == 0 {
		return models.Task{}, false
	}
	for _, node := range nodes {
		if node.ID != path[0] {
			continue
		}
		if len(path) == 1 {
			return node, true
		}
		return Find(node.SubTasks, path[1:])
	}
	return models.Task{}, false
}

// PathTo returns the root-to-node id path of the first task with the given id
// in pre-order.
func PathTo(nodes []models.Task, id string) ([]string, bool) {
	for _, node := range nodes {
		if node.ID == id {
			return []string{node.ID}, true
		}
		if sub, ok := PathTo(node.SubTasks, id); ok {
			return append([]string{node.ID}, sub...), true
		}
	}
	return nil, false
}
