package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/josephgoksu/tasknest/internal/config"
	"github.com/josephgoksu/tasknest/internal/project"
	"github.com/josephgoksu/tasknest/internal/tasktree"
	"github.com/josephgoksu/tasknest/internal/ui"
	"github.com/josephgoksu/tasknest/internal/util"
	"github.com/josephgoksu/tasknest/internal/utils"
)

var projectCmd = &cobra.Command{
	Use:     "project",
	Aliases: []string{"projects", "p"},
	Short:   "Manage projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create an empty project",
	Example: `  tasknest project create "Home renovation"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title := utils.RemoveWhitespaces(strings.Join(args, " "))
		if title == "" {
			return newUserError("Field should not be empty", nil)
		}
		a, err := openApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.tracker.CreateProject(cmd.Context(), util.NewProjectID(), title)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created project %q (%s)\n", p.Title, p.ID)
		return nil
	},
}

var projectListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		projects := a.tracker.Projects()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd.OutOrStdout(), projects)
		}
		if len(projects) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No projects yet.")
			return nil
		}

		table := &ui.Table{Headers: []string{"ID", "Title", "Tasks", "Done", "Search"}, MaxWidth: 40}
		for _, id := range a.projectIDs() {
			p := projects[id]
			flat := tasktree.FlatList(p.TasksList)
			done := 0
			for _, t := range flat {
				if t.IsCompleted {
					done++
				}
			}
			marker := id
			if id == appConfig.Project {
				marker += " *"
			}
			table.Rows = append(table.Rows, []string{marker, p.Title, strconv.Itoa(len(flat)), strconv.Itoa(done), p.Filters.Search})
		}
		fmt.Fprint(cmd.OutOrStdout(), table.Render())
		return nil
	},
}

var projectRemoveCmd = &cobra.Command{
	Use:     "remove <project-id>",
	Aliases: []string{"rm", "delete"},
	Short:   "Delete a project and all of its tasks",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := a.resolveProject(args[0])
		if err != nil {
			return err
		}
		if err := a.tracker.RemoveProject(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed project %s\n", id)
		return nil
	},
}

var projectRenameCmd = &cobra.Command{
	Use:   "rename <project-id> <title>",
	Short: "Change a project's title",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		title := utils.RemoveWhitespaces(strings.Join(args[1:], " "))
		if title == "" {
			return newUserError("Field should not be empty", nil)
		}
		a, err := openApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := a.resolveProject(args[0])
		if err != nil {
			return err
		}
		s := project.NewSession(a.tracker, id, nil)
		if err := s.ChangeTitle(cmd.Context(), title); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Renamed project %s to %q\n", id, title)
		return nil
	},
}

var projectUseCmd = &cobra.Command{
	Use:   "use <project-id>",
	Short: "Make a project the default for task commands",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := a.resolveProject(args[0])
		if err != nil {
			return err
		}
		path, err := config.SaveSetting(viper.GetViper(), "project", id)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Default project is now %s (saved to %s)\n", id, path)
		return nil
	},
}

func init() {
	projectListCmd.Flags().Bool("json", false, "print projects as JSON")
	projectCmd.AddCommand(projectCreateCmd, projectListCmd, projectRemoveCmd, projectRenameCmd, projectUseCmd)
	rootCmd.AddCommand(projectCmd)
}
