package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/josephgoksu/tasknest/internal/project"
	"github.com/josephgoksu/tasknest/internal/tasktree"
	"github.com/josephgoksu/tasknest/internal/transfer"
	"github.com/josephgoksu/tasknest/internal/ui"
)

// cliFs is the filesystem import reads from and export --output writes to.
var cliFs = afero.NewOsFs()

var importCmd = &cobra.Command{
	Use:   "import [file|-]",
	Short: "Replace the project's tasks with a JSON task list",
	Long: `Import a JSON array of tasks and replace the project's whole task list with
it. Reads standard input when no file or "-" is given. Every task needs a string
id and description and a boolean isCompleted; subTasks nest the same shape.
Ids must be unique across the whole tree. Nothing changes when the input is
rejected.`,
	Example: `  tasknest import tasks.json
  tasknest export | tasknest -p 5e6f import -`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			data []byte
			err  error
		)
		if len(args) == 0 || args[0] == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = afero.ReadFile(cliFs, args[0])
		}
		if err != nil {
			return fmt.Errorf("read import: %w", err)
		}

		return withSession(cmd, func(ctx context.Context, s *project.Session) error {
			if err := s.Import(ctx, string(data)); err != nil {
				if kind := transfer.KindOf(err); kind != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), ui.RenderImportRejected(string(kind), s.ImportError()))
				}
				return err
			}
			p, err := s.Project()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.RenderImported(p.Title, len(tasktree.FlatList(p.TasksList))))
			return nil
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the project's tasks",
	Example: `  tasknest export > tasks.json
  tasknest export --format yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		return withSession(cmd, func(ctx context.Context, s *project.Session) error {
			text, err := s.ExportAs(format)
			if err != nil {
				return err
			}
			if output == "" {
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			}
			if err := afero.WriteFile(cliFs, output, []byte(text+"\n"), 0644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", output)
			return nil
		})
	},
}

func init() {
	exportCmd.Flags().StringP("format", "f", transfer.FormatJSON, "output format: json, yaml or toml")
	exportCmd.Flags().StringP("output", "o", "", "write to a file instead of stdout")
	rootCmd.AddCommand(importCmd, exportCmd)
}
