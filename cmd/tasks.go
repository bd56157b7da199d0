package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/josephgoksu/tasknest/internal/project"
	"github.com/josephgoksu/tasknest/internal/util"
	"github.com/josephgoksu/tasknest/internal/utils"
	"github.com/josephgoksu/tasknest/models"
)

// descriptionArg joins and trims a description; blank input is rejected.
func descriptionArg(args []string) (string, error) {
	description := utils.RemoveWhitespaces(strings.Join(args, " "))
	if description == "" {
		return "", newUserError("Field should not be empty", nil)
	}
	return description, nil
}

var addCmd = &cobra.Command{
	Use:     "add <description>",
	Aliases: []string{"a"},
	Short:   "Add a root task to the project",
	Example: `  tasknest add "Paint the kitchen"
  tasknest -p 3f2a add "Call the plumber"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, err := descriptionArg(args)
		if err != nil {
			return err
		}
		return withSession(cmd, func(ctx context.Context, s *project.Session) error {
			task, err := s.AddNewTask(ctx, description, util.NewTaskID())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added task %q (%s)\n", task.Description, task.ID)
			return nil
		})
	},
}

var subtaskCmd = &cobra.Command{
	Use:     "subtask <parent-id> <description>",
	Aliases: []string{"sub"},
	Short:   "Add a subtask below an existing task",
	Example: `  tasknest subtask 9c1e "Buy primer"`,
	Args:    cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, err := descriptionArg(args[1:])
		if err != nil {
			return err
		}
		return withSession(cmd, func(ctx context.Context, s *project.Session) error {
			p, err := s.Project()
			if err != nil {
				return err
			}
			path, parent, err := resolveTaskPath(p, args[0])
			if err != nil {
				return err
			}
			task := models.NewSubtask(util.NewTaskID(), parent.ID, description)
			if err := s.Task(path).AddSubtask(ctx, task); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added subtask %q (%s) under %s\n", task.Description, task.ID, parent.ID)
			return nil
		})
	},
}

var removeCmd = &cobra.Command{
	Use:     "remove <task-id>",
	Aliases: []string{"rm", "delete"},
	Short:   "Remove a task together with its subtasks",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *project.Session) error {
			p, err := s.Project()
			if err != nil {
				return err
			}
			path, task, err := resolveTaskPath(p, args[0])
			if err != nil {
				return err
			}
			if err := s.Task(path).Remove(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed task %q (%s)\n", task.Description, task.ID)
			return nil
		})
	},
}

// toggleCommand builds done and undone, which differ only in the flag they set.
func toggleCommand(use, short string, isCompleted bool, aliases ...string) *cobra.Command {
	return &cobra.Command{
		Use:     use + " <task-id>",
		Aliases: aliases,
		Short:   short,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *project.Session) error {
				p, err := s.Project()
				if err != nil {
					return err
				}
				path, task, err := resolveTaskPath(p, args[0])
				if err != nil {
					return err
				}
				if err := s.Task(path).ToggleCompleted(ctx, isCompleted); err != nil {
					return err
				}
				state := "open"
				if isCompleted {
					state = "done"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Marked %q (%s) and its subtasks %s\n", task.Description, task.ID, state)
				return nil
			})
		},
	}
}

var moveCmd = &cobra.Command{
	Use:   "move <from> <to>",
	Short: "Move a root task from one position to another",
	Long: `Move the root task at position <from> to position <to>. Positions start
at 0. The task is taken out first, so later tasks shift up by one before it
is put back. A <to> past the end moves the task last.`,
	Example: `  tasknest move 0 2`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := strconv.Atoi(args[0])
		if err != nil {
			return newUserError("position must be a number", err)
		}
		to, err := strconv.Atoi(args[1])
		if err != nil {
			return newUserError("position must be a number", err)
		}
		return withSession(cmd, func(ctx context.Context, s *project.Session) error {
			p, err := s.Project()
			if err != nil {
				return err
			}
			if from < 0 || from >= len(p.TasksList) {
				return newUserError(fmt.Sprintf("no root task at position %d", from), nil)
			}
			if err := s.SwapTasks(ctx, from, to); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %q to position %d\n", p.TasksList[from].Description, max(0, min(to, len(p.TasksList)-1)))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(
		addCmd,
		subtaskCmd,
		removeCmd,
		toggleCommand("done", "Mark a task and all of its subtasks as done", true, "d", "complete"),
		toggleCommand("undone", "Mark a task and all of its subtasks as not done", false, "reopen"),
		moveCmd,
	)
}
