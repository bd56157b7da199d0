package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/josephgoksu/tasknest/internal/metrics"
	"github.com/josephgoksu/tasknest/internal/tasktree"
	"github.com/josephgoksu/tasknest/internal/tracker"
	"github.com/josephgoksu/tasknest/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show the project and redraw it whenever any terminal changes it",
	Long: `Keep the project on screen and redraw it on every change, including changes
made by other tasknest processes sharing the same store. On a terminal this is
a full-screen view (q to quit); otherwise each change is printed in turn until
interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.session(cmd)
		if err != nil {
			return err
		}
		render := func() string {
			p, err := s.Project()
			if err != nil {
				return ui.StyleError.Render(err.Error())
			}
			return ui.RenderProject(p, tasktree.Search(p.TasksList, p.Filters.Search))
		}

		if ui.IsInteractive() {
			err = watchInteractive(ctx, a.tracker, render)
		} else {
			err = watchPlain(ctx, cmd.OutOrStdout(), a.tracker, render)
		}
		printCounters(cmd.ErrOrStderr())
		return err
	},
}

func watchInteractive(ctx context.Context, tr *tracker.Tracker, render func() string) error {
	prog := tea.NewProgram(ui.NewWatchModel("tasknest watch", render), tea.WithAltScreen(), tea.WithContext(ctx))
	cancel := tr.Subscribe(func(e tracker.Event) {
		prog.Send(ui.RefreshMsg{Source: e.Source, Revision: e.Revision})
	})
	defer cancel()

	if _, err := prog.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("watch view: %w", err)
	}
	return nil
}

func watchPlain(ctx context.Context, w io.Writer, tr *tracker.Tracker, render func() string) error {
	events := make(chan tracker.Event, 16)
	cancel := tr.Subscribe(func(e tracker.Event) {
		select {
		case events <- e:
		default:
		}
	})
	defer cancel()

	fmt.Fprint(w, render())
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-events:
			fmt.Fprintf(w, "\n--- %s change, revision %d ---\n", e.Source, e.Revision)
			fmt.Fprint(w, render())
		}
	}
}

// printCounters writes the non-zero process counters, one per line.
func printCounters(w io.Writer) {
	samples, err := metrics.Snapshot(metrics.Gatherer())
	if err != nil {
		return
	}
	for _, sm := range samples {
		if sm.Value == 0 {
			continue
		}
		fmt.Fprintf(w, "%s{%s} %g\n", sm.Name, sm.Labels, sm.Value)
	}
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
