package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/msccatools/msccat-client/internal/console"
	"github.com/msccatools/msccat-client/internal/constants"
	"github.com/msccatools/msccat-client/internal/history"
	"github.com/msccatools/msccat-client/internal/run"
)

// newHistoryCmd creates the 'history' command.
func newHistoryCmd() *cobra.Command {
	var (
		limit int
		clearAll bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past runs",
		Long: `List the runs recorded in the local history database, newest first.

The database lives at history.path (default ~/.config/msccat/history.db).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				fmt.Fprintln(cmd.OutOrStdout(), "Run history is disabled.")
				return nil
			}

			store, err := history.Open(cfg.History.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			if clearAll {
				if err := store.Clear(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
				return nil
			}

			entries, err := store.List(ctx, limit)
			if err != nil {
				return err
			}
			return renderHistory(cmd.OutOrStdout(), entries)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", constants.DefaultHistoryLimit, "Number of runs to show (0 for all)")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Delete all recorded runs")

	return cmd
}

func renderHistory(w io.Writer, entries []history.Entry) error {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		jobID := e.JobID
		if jobID == "" {
			jobID = "-"
		}
		rows[i] = []string{
			fmt.Sprint(e.ID),
			e.StartedAt.Local().Format("2006-01-02 15:04:05"),
			e.URL,
			jobID,
			console.Label(run.Indicator(e.Indicator)),
			e.Duration().Round(time.Second).String(),
			fmt.Sprint(e.Lines),
		}
	}
	return console.RenderTable(w, []string{"ID", "Started", "URL", "Job", "Status", "Duration", "Lines"}, rows)
}
