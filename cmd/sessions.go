package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/voc-cli/internal/model"
	"github.com/sells-group/voc-cli/internal/monitoring"
	"github.com/sells-group/voc-cli/internal/output"
	"github.com/sells-group/voc-cli/internal/store"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect saved wizard sessions",
	Long:  "Commands for listing, viewing, summarizing and cleaning up saved wizard sessions.",
}

// openSessionStore is initStore for commands that cannot work without
// a store.
func openSessionStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, eris.New("sessions: store.driver is none")
	}
	return st, nil
}

// -- sessions list --

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openSessionStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		step, _ := cmd.Flags().GetString("step")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		sessions, err := st.ListSessions(ctx, model.SessionFilter{
			Step:   model.Step(step),
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			return eris.Wrap(err, "sessions list")
		}

		if len(sessions) == 0 {
			fmt.Fprintln(os.Stderr, "No sessions found.")
			return nil
		}

		formatSessionsList(cmd.OutOrStdout(), sessions)
		return nil
	},
}

// -- sessions show --

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show the full state of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openSessionStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sess, err := st.GetSession(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "sessions show")
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(sess)
	},
}

// -- sessions stats --

var sessionsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize sessions by step",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openSessionStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		since, _ := cmd.Flags().GetDuration("since")
		snap, err := monitoring.NewCollector(st).Collect(ctx, int(since.Hours()))
		if err != nil {
			return eris.Wrap(err, "sessions stats")
		}

		formatSessionStats(cmd.OutOrStdout(), snap)
		return nil
	},
}

// -- sessions delete --

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a saved session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openSessionStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.DeleteSession(ctx, args[0]); err != nil {
			return eris.Wrap(err, "sessions delete")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", args[0])
		return nil
	},
}

// -- sessions prune --

var sessionsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete sessions not updated within a time window",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		olderThan, _ := cmd.Flags().GetDuration("older-than")
		if olderThan <= 0 {
			return eris.New("sessions prune: --older-than must be positive")
		}

		st, err := openSessionStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := st.PruneSessions(ctx, time.Now().Add(-olderThan))
		if err != nil {
			return eris.Wrap(err, "sessions prune")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d sessions\n", n)
		return nil
	},
}

func init() {
	sessionsListCmd.Flags().String("step", "", "filter by step (website, review_links, success, failed, ...)")
	sessionsListCmd.Flags().Int("limit", 50, "max number of sessions to display")
	sessionsListCmd.Flags().Int("offset", 0, "skip this many sessions")

	sessionsStatsCmd.Flags().Duration("since", 24*time.Hour, "time window for stats (e.g. 24h, 168h); 0 covers all")

	sessionsPruneCmd.Flags().Duration("older-than", 30*24*time.Hour, "delete sessions last updated before this long ago")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsStatsCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	sessionsCmd.AddCommand(sessionsPruneCmd)
	rootCmd.AddCommand(sessionsCmd)
}

// formatSessionsList writes a tabular list of sessions to out.
func formatSessionsList(out io.Writer, sessions []model.Session) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTEP\tWEBSITE\tCOMPANIES\tUPDATED\tERROR")
	for _, s := range sessions {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			s.ID,
			s.State.Step,
			truncate(s.State.Website, 40),
			len(s.State.Companies),
			s.UpdatedAt.Local().Format("2006-01-02 15:04"),
			truncate(s.State.Error, 40),
		)
	}
	_ = w.Flush()
}

// formatSessionStats writes the step breakdown in flow order.
func formatSessionStats(out io.Writer, snap *monitoring.Snapshot) {
	window := "all time"
	if snap.LookbackHours > 0 {
		window = fmt.Sprintf("last %dh", snap.LookbackHours)
	}
	_, _ = fmt.Fprintf(out, "Sessions (%s): %d\n", window, snap.Total)
	_, _ = fmt.Fprintf(out, "  Succeeded: %d\n", snap.Succeeded)
	_, _ = fmt.Fprintf(out, "  Failed:    %d (%s of finished)\n", snap.Failed, output.Percent(snap.FailRate*100))
	_, _ = fmt.Fprintf(out, "  Running:   %d\n", snap.Running)

	if snap.Total == 0 {
		return
	}
	_, _ = fmt.Fprintln(out)
	for _, step := range append(model.Steps(), model.StepFailed) {
		if n := snap.ByStep[step]; n > 0 {
			_, _ = fmt.Fprintf(out, "  %-20s %d\n", output.Label(string(step)), n)
		}
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
