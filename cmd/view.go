package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/josephgoksu/tasknest/internal/project"
	"github.com/josephgoksu/tasknest/internal/ui"
)

var searchCmd = &cobra.Command{
	Use:     "search [query]",
	Aliases: []string{"find", "s"},
	Short:   "Filter the project's tasks by description",
	Long: `Search every task of the project, at any depth, for descriptions containing
the query (case-insensitive). The query is remembered: ` + "`tasknest show`" + ` lists the
matches until the search is cleared with --clear or an empty query.`,
	Example: `  tasknest search milk
  tasknest search --clear`,
	RunE: func(cmd *cobra.Command, args []string) error {
		clearSearch, _ := cmd.Flags().GetBool("clear")
		query := strings.Join(args, " ")
		if clearSearch {
			query = ""
		}
		return withSession(cmd, func(ctx context.Context, s *project.Session) error {
			result, err := s.Search(ctx, query)
			if err != nil {
				return err
			}
			if strings.TrimSpace(query) == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Search cleared.")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), ui.RenderSearch(query, result))
			return nil
		})
	},
}

var showCmd = &cobra.Command{
	Use:     "show",
	Aliases: []string{"ls", "list"},
	Short:   "Show the project's task tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *project.Session) error {
			p, err := s.Project()
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(cmd.OutOrStdout(), p)
			}
			fmt.Fprint(cmd.OutOrStdout(), ui.RenderProject(p, s.FilteredTasks()))
			return nil
		})
	},
}

func init() {
	searchCmd.Flags().Bool("clear", false, "clear the current search")
	showCmd.Flags().Bool("json", false, "print the project as JSON")
	rootCmd.AddCommand(searchCmd, showCmd)
}
