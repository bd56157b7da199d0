package tasktree

import "github.com/josephgoksu/tasknest/models"

func task(id, description string, subTasks ...models.Task) models.Task {
	t := models.NewTask(id, description)
	if len(subTasks) > 0 {
		t.SubTasks = subTasks
	}
	return t
}

// sampleTree:
//
//	a
//	├── b
//	│   └── c
//	└── d
//	e
func sampleTree() []models.Task {
	return []models.Task{
		task("a", "Alpha",
			task("b", "Bravo",
				task("c", "Charlie"),
			),
			task("d", "Delta"),
		),
		task("e", "Echo"),
	}
}
