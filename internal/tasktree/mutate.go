package tasktree

import "github.com/josephgoksu/tasknest/models"

// AddSubtask appends newTask to the subtasks of the node at path.
// Id uniqueness is not checked here; imports are the only place that enforces it.
func AddSubtask(nodes []models.Task, path []string, newTask models.Task) ([]models.Task, error) {
	return Apply(nodes, path, func(t models.Task) (models.Task, bool) {
		subTasks := make([]models.Task, 0, len(t.SubTasks)+1)
		subTasks = append(subTasks, t.SubTasks...)
		t.SubTasks = append(subTasks, newTask)
		return t, true
	})
}

// Remove deletes the node at path together with its subtree.
func Remove(nodes []models.Task, path []string) ([]models.Task, error) {
	return Apply(nodes, path, Drop)
}

// ToggleCompleted sets the completion flag on the node at path and cascades it
// to every descendant. Ancestors are never touched.
func ToggleCompleted(nodes []models.Task, path []string, isCompleted bool) ([]models.Task, error) {
	return Apply(nodes, path, func(t models.Task) (models.Task, bool) {
		return Cascade(t, isCompleted), true
	})
}

// Cascade returns a copy of task with isCompleted forced onto the task and all
// of its descendants, pre-order.
func Cascade(task models.Task, isCompleted bool) models.Task {
	task.IsCompleted = isCompleted
	if task.SubTasks == nil {
		return task
	}
	subTasks := make([]models.Task, len(task.SubTasks))
	for i, sub := range task.SubTasks {
		subTasks[i] = Cascade(sub, isCompleted)
	}
	task.SubTasks = subTasks
	return task
}

// SwapRoot moves the root task at indexX to indexY with splice semantics: the
// task is removed first, shifting later tasks down by one, then reinserted.
// An out-of-range indexX leaves the order unchanged; indexY is clamped.
func SwapRoot(nodes []models.Task, indexX, indexY int) []models.Task {
	out := make([]models.Task, 0, len(nodes))
	if indexX < 0 || indexX >= len(nodes) {
		return append(out, nodes...)
	}

	moved := nodes[indexX]
	out = append(out, nodes[:indexX]...)
	out = append(out, nodes[indexX+1:]...)

	indexY = max(0, min(indexY, len(out)))
	out = append(out, models.Task{})
	copy(out[indexY+1:], out[indexY:])
	out[indexY] = moved
	return out
}

// Descendants returns the ids of every node below task, pre-order.
func Descendants(task models.Task) []string {
	var ids []string
	for _, sub := range task.SubTasks {
		ids = append(ids, sub.ID)
		ids = append(ids, Descendants(sub)...)
	}
	return ids
}
