package tasktree

import (
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/josephgoksu/tasknest/models"
	"pgregory.net/rapid"
)

// genForest draws a forest with unique ids. ids are handed out from a shared
// counter so nested subtrees never collide.
func genForest(t *rapid.T) []models.Task {
	next := 0
	var level func(depth int) []models.Task
	level = func(depth int) []models.Task {
		n := rapid.IntRange(0, 4).Draw(t, fmt.Sprintf("width_%d", depth))
		if depth == 0 {
			n = rapid.IntRange(1, 4).Draw(t, "roots")
		}
		nodes := make([]models.Task, 0, n)
		for range n {
			next++
			tk := models.NewTask(
				fmt.Sprintf("t%d", next),
				rapid.StringMatching(`[A-Za-z][A-Za-z ]{0,11}`).Draw(t, "description"),
			)
			tk.IsCompleted = rapid.Bool().Draw(t, "completed")
			if depth < 3 {
				if children := level(depth + 1); len(children) > 0 {
					tk.SubTasks = children
				}
			}
			nodes = append(nodes, tk)
		}
		return nodes
	}
	return level(0)
}

// genPath picks an existing node and returns its root-to-node path.
func genPath(t *rapid.T, forest []models.Task) []string {
	ids := IDs(forest)
	target := rapid.SampledFrom(ids).Draw(t, "target")
	path, ok := PathTo(forest, target)
	if !ok {
		t.Fatalf("no path to %s", target)
	}
	return path
}

func TestTraverse_IdentityProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		forest := genForest(t)
		path := genPath(t, forest)

		out := Traverse(forest, path, Keep)
		if !slices.EqualFunc(out, forest, tasksEqual) {
			t.Fatalf("identity traverse changed the tree at %v", path)
		}
	})
}

func TestRemove_DropsWholeSubtreeProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		forest := genForest(t)
		path := genPath(t, forest)
		target, _ := Find(forest, path)
		gone := append([]string{target.ID}, Descendants(target)...)

		out, err := Remove(forest, path)
		if err != nil {
			t.Fatalf("Remove(%v): %v", path, err)
		}
		remaining := IDs(out)
		for _, id := range gone {
			if slices.Contains(remaining, id) {
				t.Fatalf("id %s survived removal of %v", id, path)
			}
		}
		if len(remaining) != len(IDs(forest))-len(gone) {
			t.Fatalf("removal of %v dropped unrelated nodes", path)
		}
	})
}

func TestToggleCompleted_CascadeProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		forest := genForest(t)
		path := genPath(t, forest)
		target, _ := Find(forest, path)
		affected := append([]string{target.ID}, Descendants(target)...)

		out, err := ToggleCompleted(forest, path, true)
		if err != nil {
			t.Fatalf("ToggleCompleted(%v): %v", path, err)
		}

		before := FlatList(forest)
		after := FlatList(out)
		for i, tk := range after {
			if slices.Contains(affected, tk.ID) {
				if !tk.IsCompleted {
					t.Fatalf("descendant %s not completed", tk.ID)
				}
				continue
			}
			if tk.IsCompleted != before[i].IsCompleted {
				t.Fatalf("unrelated node %s changed", tk.ID)
			}
		}
	})
}

func TestSearch_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		forest := genForest(t)

		if got := Search(forest, ""); len(got) != 0 {
			t.Fatalf("empty query matched %d tasks", len(got))
		}

		flat := FlatList(forest)
		pick := rapid.SampledFrom(flat).Draw(t, "pick")
		query := strings.ToUpper(pick.Description)
		if strings.TrimSpace(query) == "" {
			return
		}
		found := false
		for _, tk := range Search(forest, query) {
			if tk.ID == pick.ID {
				found = true
			}
		}
		if !found {
			t.Fatalf("search for %q missed %s", query, pick.ID)
		}
	})
}

func tasksEqual(a, b models.Task) bool {
	if a.ID != b.ID || a.Description != b.Description || a.IsCompleted != b.IsCompleted {
		return false
	}
	return slices.EqualFunc(a.SubTasks, b.SubTasks, tasksEqual)
}
