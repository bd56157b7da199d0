package tasktree

import (
	"testing"

	"github.com/josephgoksu/tasknest/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddSubtask(t *testing.T) {
	t.Run("creates subtasks on a leaf", func(t *testing.T) {
		out, err := AddSubtask(sampleTree(), []string{"e"}, models.NewSubtask("f", "e", "Foxtrot"))
		require.NoError(t, err)

		e, _ := Find(out, []string{"e"})
		require.Len(t, e.SubTasks, 1)
		assert.Equal(t, "f", e.SubTasks[0].ID)
		require.NotNil(t, e.SubTasks[0].ParentID)
		assert.Equal(t, "e", *e.SubTasks[0].ParentID)
	})

	t.Run("appends after existing subtasks", func(t *testing.T) {
		out, err := AddSubtask(sampleTree(), []string{"a"}, task("f", "Foxtrot"))
		require.NoError(t, err)

		a, _ := Find(out, []string{"a"})
		require.Len(t, a.SubTasks, 3)
		assert.Equal(t, "f", a.SubTasks[2].ID)
	})

	t.Run("input untouched", func(t *testing.T) {
		tree := sampleTree()
		_, err := AddSubtask(tree, []string{"a"}, task("f", "Foxtrot"))
		require.NoError(t, err)
		assert.Equal(t, sampleTree(), tree)
	})

	t.Run("duplicate ids are not rejected", func(t *testing.T) {
		_, err := AddSubtask(sampleTree(), []string{"a"}, task("e", "Echo again"))
		assert.NoError(t, err)
	})

	t.Run("missing path", func(t *testing.T) {
		out, err := AddSubtask(sampleTree(), []string{"nope"}, task("f", "Foxtrot"))
		assert.ErrorIs(t, err, ErrPathNotFound)
		assert.Equal(t, sampleTree(), out)
	})
}

func TestRemove(t *testing.T) {
	out, err := Remove(sampleTree(), []string{"a", "b"})
	require.NoError(t, err)

	ids := IDs(out)
	assert.NotContains(t, ids, "b")
	assert.NotContains(t, ids, "c")
	assert.Equal(t, []string{"a", "d", "e"}, ids)
}

func TestRemove_LastChildLeavesLeaf(t *testing.T) {
	out, err := Remove(sampleTree(), []string{"a", "b", "c"})
	require.NoError(t, err)

	b, ok := Find(out, []string{"a", "b"})
	require.True(t, ok)
	assert.Nil(t, b.SubTasks)
	assert.False(t, b.HasSubTasks())
}

func TestToggleCompleted_Cascades(t *testing.T) {
	out, err := ToggleCompleted(sampleTree(), []string{"a", "b"}, true)
	require.NoError(t, err)

	b, _ := Find(out, []string{"a", "b"})
	c, _ := Find(out, []string{"a", "b", "c"})
	a, _ := Find(out, []string{"a"})
	d, _ := Find(out, []string{"a", "d"})

	assert.True(t, b.IsCompleted)
	assert.True(t, c.IsCompleted)
	assert.False(t, a.IsCompleted, "ancestors are not touched")
	assert.False(t, d.IsCompleted, "siblings are not touched")

	out, err = ToggleCompleted(out, []string{"a"}, false)
	require.NoError(t, err)
	for _, tk := range FlatList(out) {
		assert.False(t, tk.IsCompleted, tk.ID)
	}
}

func TestCascade_ForcesValue(t *testing.T) {
	mixed := task("r", "root", task("x", "x"), task("y", "y", task("z", "z")))
	mixed.SubTasks[0].IsCompleted = true

	got := Cascade(mixed, true)
	for _, tk := range FlatList([]models.Task{got}) {
		assert.True(t, tk.IsCompleted, tk.ID)
	}
	assert.False(t, mixed.SubTasks[1].IsCompleted, "input untouched")
}

func TestSwapRoot(t *testing.T) {
	abc := []models.Task{task("A", "a"), task("B", "b"), task("C", "c")}

	tests := []struct {
		name string
		x, y int
		want []string
	}{
		{"first to last", 0, 2, []string{"B", "C", "A"}},
		{"last to first", 2, 0, []string{"C", "A", "B"}},
		{"adjacent", 0, 1, []string{"B", "A", "C"}},
		{"same index", 1, 1, []string{"A", "B", "C"}},
		{"target past end is clamped", 0, 10, []string{"B", "C", "A"}},
		{"source out of range", 5, 0, []string{"A", "B", "C"}},
		{"negative source", -1, 0, []string{"A", "B", "C"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := SwapRoot(abc, tt.x, tt.y)
			assert.Equal(t, tt.want, IDs(out))
			assert.Equal(t, []string{"A", "B", "C"}, IDs(abc), "input untouched")
		})
	}
}

func TestDescendants(t *testing.T) {
	a, _ := Find(sampleTree(), []string{"a"})
	assert.Equal(t, []string{"b", "c", "d"}, Descendants(a))
	e, _ := Find(sampleTree(), []string{"e"})
	assert.Empty(t, Descendants(e))
}

func TestScenario_AddToggleRemove(t *testing.T) {
	tasks := []models.Task{}
	tasks = append(tasks, models.NewTask("t1", "buy milk"))

	tasks, err := AddSubtask(tasks, []string{"t1"}, models.NewSubtask("t2", "t1", "2%"))
	require.NoError(t, err)

	tasks, err = ToggleCompleted(tasks, []string{"t1"}, true)
	require.NoError(t, err)
	t2, ok := Find(tasks, []string{"t1", "t2"})
	require.True(t, ok)
	assert.True(t, t2.IsCompleted)

	tasks, err = Remove(tasks, []string{"t1"})
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.NotNil(t, tasks)
}
