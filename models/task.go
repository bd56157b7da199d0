package models

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NestingThreshold is the depth after which renderers stop indenting subtasks.
// It is a visual limit only; the tree itself may be deeper.
const NestingThreshold = 30

// Task represents a node in a project's task tree.
type Task struct {
	ID          string  `json:"id" yaml:"id" toml:"id"`
	ParentID    *string `json:"parentId,omitempty" yaml:"parentId,omitempty" toml:"parentId,omitempty"` // ID of the parent task
	Description string  `json:"description" yaml:"description" toml:"description"`
	IsCompleted bool    `json:"isCompleted" yaml:"isCompleted" toml:"isCompleted"`
	SubTasks    []Task  `json:"subTasks,omitempty" yaml:"subTasks,omitempty" toml:"subTasks,omitempty" validate:"dive"` // nil for leaves
}

// TasksList is an ordered forest of tasks.
type TasksList []Task

// Filters holds derived view state of a project.
type Filters struct {
	Search string `json:"search" yaml:"search"`
}

// Project is a titled task forest. Only the id is required; titles and task
// ids are free-form strings.
type Project struct {
	ID        string    `json:"id" validate:"required"`
	Title     string    `json:"title"`
	TasksList TasksList `json:"tasksList" validate:"dive"`
	Filters   Filters   `json:"filters"`
}

// ProjectsList maps project IDs to projects. It is the unit of persistence.
// A nil ProjectsList means nothing valid has been stored yet.
type ProjectsList map[string]Project

// global validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidateStruct performs validation on any struct that has validation tags.
func ValidateStruct(s interface{}) error {
	if validate == nil {
		validate = validator.New()
	}
	err := validate.Struct(s)
	if err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		var errorMessages []string
		for _, e := range validationErrors {
			errorMessages = append(errorMessages, fmt.Sprintf("Validation failed on field '%s': rule '%s' (value: '%v')", e.StructNamespace(), e.Tag(), e.Value()))
		}
		return fmt.Errorf("%s", strings.Join(errorMessages, "; "))
	}
	return nil
}

// NewTask creates an incomplete root task.
func NewTask(id, description string) Task {
	return Task{
		ID:          id,
		Description: description,
	}
}

// NewSubtask creates an incomplete task that records parentID as its parent.
func NewSubtask(id, parentID, description string) Task {
	p := parentID
	return Task{
		ID:          id,
		ParentID:    &p,
		Description: description,
	}
}

// NewProject creates an empty project with no active search.
func NewProject(id, title string) Project {
	return Project{
		ID:        id,
		Title:     title,
		TasksList: TasksList{},
	}
}

// HasSubTasks reports whether the task has at least one child.
func (t Task) HasSubTasks() bool {
	return len(t.SubTasks) > 0
}

// Clone returns a deep copy of the task and its subtree.
func (t Task) Clone() Task {
	c := t
	if t.ParentID != nil {
		p := *t.ParentID
		c.ParentID = &p
	}
	if t.SubTasks != nil {
		c.SubTasks = make([]Task, len(t.SubTasks))
		for i, sub := range t.SubTasks {
			c.SubTasks[i] = sub.Clone()
		}
	}
	return c
}

// Clone returns a deep copy of the forest. A nil list stays nil.
func (l TasksList) Clone() TasksList {
	if l == nil {
		return nil
	}
	c := make(TasksList, len(l))
	for i, t := range l {
		c[i] = t.Clone()
	}
	return c
}

// Clone returns a deep copy of the project.
func (p Project) Clone() Project {
	c := p
	c.TasksList = p.TasksList.Clone()
	if c.TasksList == nil {
		c.TasksList = TasksList{}
	}
	return c
}

// Clone returns a deep copy of every project. A nil list stays nil.
func (pl ProjectsList) Clone() ProjectsList {
	if pl == nil {
		return nil
	}
	c := make(ProjectsList, len(pl))
	for id, p := range pl {
		c[id] = p.Clone()
	}
	return c
}
