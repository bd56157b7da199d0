package cmd

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/josephgoksu/tasknest/internal/logger"
	"github.com/josephgoksu/tasknest/internal/metrics"
	"github.com/josephgoksu/tasknest/internal/tasktree"
	"github.com/josephgoksu/tasknest/internal/ui"
	"github.com/josephgoksu/tasknest/models"
)

// depth returns the number of levels in the forest.
func depth(tasks []models.Task) int {
	d := 0
	for _, t := range tasks {
		d = max(d, 1+depth(t.SubTasks))
	}
	return d
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show store and project statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Store:    %s (%s)\n", a.kv.Name(), appConfig.Store.Dir)
		fmt.Fprintf(out, "Revision: %d\n", a.tracker.Revision())
		fmt.Fprintf(out, "Projects: %d\n\n", len(a.tracker.Projects()))

		projects := a.tracker.Projects()
		if len(projects) > 0 {
			table := &ui.Table{Headers: []string{"Project", "Roots", "Tasks", "Done", "Depth"}, MaxWidth: 40}
			for _, id := range a.projectIDs() {
				p := projects[id]
				flat := tasktree.FlatList(p.TasksList)
				done := 0
				for _, t := range flat {
					if t.IsCompleted {
						done++
					}
				}
				table.Rows = append(table.Rows, []string{
					p.Title,
					strconv.Itoa(len(p.TasksList)),
					strconv.Itoa(len(flat)),
					strconv.Itoa(done),
					strconv.Itoa(depth(p.TasksList)),
				})
			}
			fmt.Fprint(out, table.Render())
			fmt.Fprintln(out)
		}

		samples, err := metrics.Snapshot(metrics.Gatherer())
		if err != nil {
			return err
		}
		table := &ui.Table{Headers: []string{"Counter", "Labels", "Value"}}
		for _, sm := range samples {
			table.Rows = append(table.Rows, []string{sm.Name, sm.Labels, fmt.Sprintf("%g", sm.Value)})
		}
		fmt.Fprint(out, table.Render())

		crashes, err := logger.ListCrashReports()
		if err != nil {
			return fmt.Errorf("list crash reports: %w", err)
		}
		if len(crashes) > 0 {
			latest := crashes[len(crashes)-1]
			fmt.Fprintf(out, "\nCrash reports: %d\n", len(crashes))
			report, err := logger.ReadCrashReport(latest)
			if err != nil {
				slog.Warn("read crash report", "path", latest, "error", err)
			} else {
				fmt.Fprintln(out, ui.RenderCrash(latest, report.Summary()))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
