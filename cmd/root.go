package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/voc-cli/internal/config"
	"github.com/sells-group/voc-cli/internal/output"
)

var (
	cfg     *config.Config
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "voc",
	Short: "Voice-of-customer review intake and dashboards",
	Long:  "Walks through a company's website, competitors, app ids, map locations and review links, submits them for scraping and sentiment analysis, and renders the resulting CSV as executive and operational dashboards.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		if noColor {
			output.SetNoColor(true)
		} else {
			output.AutoColor()
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
