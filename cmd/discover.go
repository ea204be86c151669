package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/voc-cli/internal/model"
	"github.com/sells-group/voc-cli/internal/output"
	"github.com/sells-group/voc-cli/internal/wizard"
)

var discoverCmd = &cobra.Command{
	Use:   "discover Name=https://site [Name=https://site ...]",
	Short: "Discover map locations for companies",
	Long:  "Runs maps discovery for every company concurrently and prints the locations found, outside of a wizard session.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		pairs, err := parsePairs(args)
		if err != nil {
			return err
		}
		companies := make([]model.Company, 0, len(pairs))
		for _, p := range pairs {
			companies = append(companies, model.Company{Name: p[0], Website: p[1]})
		}

		found, states, err := wizard.DiscoverAll(ctx, newClient(cfg), companies, wizard.ConfigFrom(cfg))
		if err != nil {
			return err
		}

		t := output.NewTable("Company", "Location", "Reviews", "URL").AlignRight(2)
		for _, co := range found {
			st := states[co.Key()]
			if st.Status == model.DiscoveryFailed {
				t.AddRow(co.Name, output.StyleNegative.Render(st.Error), "", "")
				continue
			}
			links := append([]model.MapLocationLink(nil), co.MapsLinks...)
			sort.SliceStable(links, func(i, j int) bool { return links[i].ReviewCount > links[j].ReviewCount })
			if len(links) == 0 {
				t.AddRow(co.Name, output.StyleMuted.Render("none found"), "", "")
			}
			for _, l := range links {
				count := ""
				if l.ReviewCount > 0 {
					count = strconv.Itoa(l.ReviewCount)
				}
				t.AddRow(co.Name, l.DisplayName(), count, l.URL)
			}
		}
		fmt.Fprint(cmd.OutOrStdout(), t.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(discoverCmd)
}
