package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/voc-cli/internal/dashboard"
	"github.com/sells-group/voc-cli/internal/export"
	"github.com/sells-group/voc-cli/internal/ingest"
	"github.com/sells-group/voc-cli/internal/model"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard [csv-url-or-file]",
	Short: "Render the sentiment dashboard for a review CSV",
	Long: `Loads a review CSV and prints the executive, operational or data tab.

The source is a CSV URL (fetched through the configured proxy), a local
file, or a backend job id whose current CSV location is looked up first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("dashboard"); err != nil {
			return err
		}
		ctx := cmd.Context()

		csvURL, _ := cmd.Flags().GetString("csv-url")
		file, _ := cmd.Flags().GetString("file")
		jobID, _ := cmd.Flags().GetString("job-id")
		brands, _ := cmd.Flags().GetStringSlice("brand")
		tabName, _ := cmd.Flags().GetString("tab")
		xlsxPath, _ := cmd.Flags().GetString("xlsx")
		asJSON, _ := cmd.Flags().GetBool("json")
		anchor, _ := cmd.Flags().GetString("as-of")

		if len(args) == 1 {
			csvURL = args[0]
		}
		if file != "" {
			csvURL = file
		}
		if (csvURL == "") == (jobID == "") {
			return eris.New("dashboard: give exactly one of a csv url, --file or --job-id")
		}

		tab, err := dashboard.ParseTab(tabName)
		if err != nil {
			return err
		}

		var opts []dashboard.Option
		if anchor != "" {
			t, err := time.Parse("2006-01-02", anchor)
			if err != nil {
				return eris.Wrap(err, "--as-of")
			}
			opts = append(opts, dashboard.WithNow(t))
		}
		shell := dashboard.New(opts...)
		loader := newLoader(cfg)

		start := time.Now()
		if jobID != "" {
			err = shell.LoadFromJob(ctx, newClient(cfg), loader, jobID)
		} else {
			var src ingest.Source
			src, err = ingest.ParseSource(csvURL)
			if err == nil {
				err = shell.Load(ctx, loader, src)
			}
		}
		if err != nil {
			return err
		}
		zap.L().Info("dashboard: loaded reviews",
			zap.String("source", shell.Source()),
			zap.Int("records", len(shell.Records())),
			zap.Duration("elapsed", time.Since(start)),
		)

		if len(brands) > 0 {
			shell.SetBrandFilter(brands)
		}
		shell.SelectTab(tab)

		if xlsxPath != "" {
			if err := export.WriteFile(xlsxPath, shell.Source(), shell.Data(), shell.Records()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", xlsxPath)
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Source string   `json:"source"`
				Brands []string `json:"brands,omitempty"`
				model.DashboardData
			}{shell.Source(), shell.BrandFilter(), shell.Data()})
		}
		return shell.Render(cmd.OutOrStdout())
	},
}

func init() {
	f := dashboardCmd.Flags()
	f.String("csv-url", "", "review CSV URL")
	f.String("file", "", "local review CSV file")
	f.String("job-id", "", "backend job id whose CSV to load")
	f.StringSlice("brand", nil, "only include these brands (repeatable or comma-separated)")
	f.String("tab", string(dashboard.TabExecutive), "tab to render: "+tabNames())
	f.String("xlsx", "", "also write the dashboard to this XLSX file")
	f.Bool("json", false, "print the aggregated data as JSON")
	f.String("as-of", "", "anchor the trend window on this date (YYYY-MM-DD)")
	rootCmd.AddCommand(dashboardCmd)
}

func tabNames() string {
	names := make([]string, 0, len(dashboard.Tabs()))
	for _, t := range dashboard.Tabs() {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}
