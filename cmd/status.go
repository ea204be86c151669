package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/voc-cli/internal/config"
	"github.com/sells-group/voc-cli/internal/model"
	"github.com/sells-group/voc-cli/internal/output"
	"github.com/sells-group/voc-cli/internal/poller"
)

var statusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show the status of a backend job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		jobID := args[0]
		watch, _ := cmd.Flags().GetBool("watch")
		kind, _ := cmd.Flags().GetString("kind")
		asJSON, _ := cmd.Flags().GetBool("json")
		client := newClient(cfg)
		out := cmd.OutOrStdout()

		var (
			status *model.JobStatus
			err    error
		)
		if watch {
			pc, perr := watchConfig(cfg, kind)
			if perr != nil {
				return perr
			}
			status, err = poller.Wait(ctx, jobID, client.CheckStatus, pc, func(p model.Progress) {
				fmt.Fprintln(out, output.StatusLine(p.Status, p.Message, p.Processed, p.Total))
			})
		} else {
			status, err = client.CheckStatus(ctx, jobID)
		}
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(status)
		}
		printJobStatus(out, status)
		return nil
	},
}

// watchConfig picks the polling budget for a job kind.
func watchConfig(c *config.Config, kind string) (poller.Config, error) {
	var jp config.JobPollConfig
	switch kind {
	case "website":
		jp = c.Poll.Website
	case "maps":
		jp = c.Poll.Maps
	case "scrape":
		jp = c.Poll.Scrape
	case "analysis":
		jp = c.Poll.Analysis
	default:
		return poller.Config{}, eris.Errorf("--kind must be website, maps, scrape or analysis, got %q", kind)
	}
	return poller.Config{Name: kind, Interval: jp.Interval(), MaxAttempts: jp.MaxAttempts}, nil
}

func printJobStatus(w io.Writer, s *model.JobStatus) {
	fmt.Fprintln(w, output.StatusLine(s.Status, s.Message, s.Processed, s.Total))
	for _, kv := range [][2]string{
		{"Job", s.JobID},
		{"Summary", s.Summary},
		{"S3 key", s.S3Key},
		{"CSV", s.CSVDownloadURL},
		{"Dashboard", s.DashboardLink},
	} {
		if kv[1] != "" {
			fmt.Fprintf(w, " %s %s\n", output.StyleLabel.Render(kv[0]), kv[1])
		}
	}
}

func init() {
	statusCmd.Flags().Bool("watch", false, "poll until the job completes or fails")
	statusCmd.Flags().String("kind", "scrape", "polling budget to use with --watch: website, maps, scrape or analysis")
	statusCmd.Flags().Bool("json", false, "print the final status as JSON")
	rootCmd.AddCommand(statusCmd)
}
