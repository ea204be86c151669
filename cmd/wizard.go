package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/voc-cli/internal/model"
	"github.com/sells-group/voc-cli/internal/output"
	"github.com/sells-group/voc-cli/internal/store"
	"github.com/sells-group/voc-cli/internal/wizard"
)

var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Run the review intake wizard",
	Long: `Walks a company through every intake step: website analysis, competitor
confirmation, app store ids, map locations, review links, scraping and the
final sentiment analysis.

Without a terminal (or with --yes) every step is completed from flags.
Sessions are saved after each change and can be continued with --resume.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("wizard"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		in, err := wizardInputFromFlags(cmd)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return eris.Wrap(err, "init store")
		}
		var opts []wizard.Option
		if st != nil {
			defer st.Close() //nolint:errcheck
			opts = append(opts, wizard.WithPersister(st))
		}

		ctrl := wizard.New(newClient(cfg), wizard.ConfigFrom(cfg), opts...)
		defer ctrl.Close()

		if in.Resume != "" {
			if st == nil {
				return eris.New("wizard: --resume needs a session store")
			}
			sess, err := st.GetSession(ctx, in.Resume)
			if err != nil {
				if eris.Is(err, store.ErrNotFound) {
					return eris.Errorf("session %s not found", in.Resume)
				}
				return eris.Wrap(err, "load session")
			}
			if err := ctrl.Restore(sess); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(cmd.ErrOrStderr(), "Session %s\n", ctrl.SessionID())
		var prompt prompter
		if !in.Yes && output.IsTerminal(os.Stdin) {
			prompt = newLinePrompter(os.Stdin, out)
		}

		unsubscribe := ctrl.Subscribe(progressPrinter(out, output.IsTerminal(os.Stdout)))
		defer unsubscribe()

		flow := &wizardFlow{ctrl: ctrl, in: in, out: out, prompt: prompt}
		return flow.run(ctx)
	},
}

// wizardInput carries the answers supplied on the command line.
type wizardInput struct {
	Website     string
	Competitors []model.Company
	// Drop names competitors to remove from the detected list.
	Drop        []string
	AppIDs      map[string]appIDs
	MapsLinks   map[string][]model.MapLocationLink
	Rediscover  []string
	ReviewLinks map[string]string

	Description   string
	Dimensions    []model.Dimension
	DimensionsOut string
	Resume        string
	Retry         bool
	Yes           bool
}

// appIDs is a manual store id override. Empty parts keep the resolved id.
type appIDs struct {
	Android string
	Apple   string
}

func wizardInputFromFlags(cmd *cobra.Command) (wizardInput, error) {
	var in wizardInput
	f := cmd.Flags()

	in.Website, _ = f.GetString("website")
	in.Description, _ = f.GetString("description")
	in.DimensionsOut, _ = f.GetString("dimensions-out")
	in.Resume, _ = f.GetString("resume")
	in.Retry, _ = f.GetBool("retry")
	in.Yes, _ = f.GetBool("yes")

	competitors, _ := f.GetStringArray("competitor")
	pairs, err := parsePairs(competitors)
	if err != nil {
		return in, eris.Wrap(err, "--competitor")
	}
	for _, p := range pairs {
		in.Competitors = append(in.Competitors, model.Company{Name: p[0], Website: p[1]})
	}

	in.Drop, _ = f.GetStringArray("drop-competitor")
	in.Rediscover, _ = f.GetStringArray("rediscover")

	ids, _ := f.GetStringArray("app-id")
	pairs, err = parsePairs(ids)
	if err != nil {
		return in, eris.Wrap(err, "--app-id")
	}
	in.AppIDs = make(map[string]appIDs, len(pairs))
	for _, p := range pairs {
		id, err := parseAppIDs(p[1])
		if err != nil {
			return in, eris.Wrap(err, "--app-id")
		}
		in.AppIDs[p[0]] = id
	}

	maps, _ := f.GetStringArray("maps-link")
	pairs, err = parsePairs(maps)
	if err != nil {
		return in, eris.Wrap(err, "--maps-link")
	}
	in.MapsLinks = make(map[string][]model.MapLocationLink, len(pairs))
	for _, p := range pairs {
		if p[1] == "" {
			return in, eris.Errorf("--maps-link: %s has no location", p[0])
		}
		in.MapsLinks[p[0]] = append(in.MapsLinks[p[0]], parseMapLink(p[1]))
	}

	links, _ := f.GetStringArray("review-link")
	pairs, err = parsePairs(links)
	if err != nil {
		return in, eris.Wrap(err, "--review-link")
	}
	in.ReviewLinks = make(map[string]string, len(pairs))
	for _, p := range pairs {
		in.ReviewLinks[p[0]] = p[1]
	}

	if path, _ := f.GetString("dimensions-file"); path != "" {
		fh, err := os.Open(path)
		if err != nil {
			return in, eris.Wrap(err, "open dimensions file")
		}
		defer fh.Close() //nolint:errcheck
		in.Dimensions, err = model.ReadDimensions(fh)
		if err != nil {
			return in, err
		}
		if len(in.Dimensions) == 0 {
			return in, eris.Errorf("dimensions file %s has no dimensions", path)
		}
	}

	if in.Website == "" && in.Resume == "" && in.Yes {
		return in, eris.New("--website is required with --yes")
	}
	return in, nil
}

// parsePairs splits "Name=value" arguments. The name may contain spaces;
// the value is everything after the first '='.
func parsePairs(vals []string) ([][2]string, error) {
	out := make([][2]string, 0, len(vals))
	for _, v := range vals {
		name, value, ok := strings.Cut(v, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, eris.Errorf("%q is not Name=value", v)
		}
		out = append(out, [2]string{name, strings.TrimSpace(value)})
	}
	return out, nil
}

// parseAppIDs splits "android:apple". Either side may be empty, not both.
func parseAppIDs(v string) (appIDs, error) {
	android, apple, _ := strings.Cut(v, ":")
	id := appIDs{Android: strings.TrimSpace(android), Apple: strings.TrimSpace(apple)}
	if id.Android == "" && id.Apple == "" {
		return id, eris.Errorf("%q has no android or apple id", v)
	}
	return id, nil
}

// parseMapLink turns a URL into a structured link and anything else into
// a place name.
func parseMapLink(v string) model.MapLocationLink {
	v = strings.TrimSpace(v)
	lower := strings.ToLower(v)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return model.StructuredLink("", v, "", 0)
	}
	return model.BareLink(v)
}

// errPaused stops the flow without failing the command.
var errPaused = eris.New("wizard paused")

// stateError is a message shown to the user as is: one the controller
// recorded on the state, or a bad answer for the current step.
type stateError struct{ msg string }

func (e *stateError) Error() string { return e.msg }

type wizardFlow struct {
	ctrl   *wizard.Controller
	in     wizardInput
	out    io.Writer
	prompt prompter
}

// run advances the controller until the session succeeds, fails or is
// paused for offline dimension editing.
func (f *wizardFlow) run(ctx context.Context) error {
	for {
		snap := f.ctrl.Snapshot()
		step := snap.State.Step
		zap.L().Debug("wizard: step", zap.String("session_id", snap.SessionID), zap.String("step", string(step)))

		var err error
		switch step {
		case model.StepWebsite:
			err = f.website(ctx, snap)
		case model.StepCompetitors:
			err = f.competitors(ctx, snap)
		case model.StepAppIdentifiers:
			err = f.appIdentifiers(snap)
		case model.StepMapLocations:
			err = f.mapLocations(ctx)
		case model.StepReviewLinks:
			err = f.reviewLinks(ctx, snap)
		case model.StepScrapingProgress:
			err = f.dimensions(ctx, snap)
		case model.StepAnalysisProgress:
			fmt.Fprintf(f.out, "Analysis job %s is running; this can take a while. Resume later with --resume %s\n",
				snap.State.AnalysisJobID, snap.SessionID)
			err = f.analysis(ctx)
		case model.StepSuccess:
			f.printSuccess(snap)
			return nil
		case model.StepFailed:
			if !f.in.Retry {
				return eris.Errorf("session %s failed: %s (rerun with --resume %s --retry)",
					snap.SessionID, snap.State.Error, snap.SessionID)
			}
			f.in.Retry = false
			err = f.ctrl.Retry()
		default:
			return eris.Errorf("wizard: unknown step %q", step)
		}

		if eris.Is(err, errPaused) {
			return nil
		}
		if err != nil {
			msg := wizard.UserMessage(err)
			var se *stateError
			if errors.As(err, &se) {
				msg = se.msg
			}
			return eris.Errorf("%s: %s", output.Label(string(step)), msg)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (f *wizardFlow) website(ctx context.Context, snap wizard.Snapshot) error {
	if !snap.Busy {
		site := f.in.Website
		if site == "" {
			site = snap.State.Website
		}
		if f.prompt != nil {
			var err error
			if site, err = f.prompt.Ask("Company website", site); err != nil {
				return err
			}
		}
		if site == "" {
			return wizard.ErrInvalidURL
		}
		f.in.Website = ""
		if err := f.ctrl.SubmitWebsite(ctx, site); err != nil {
			return err
		}
	}
	if err := f.ctrl.Wait(ctx); err != nil {
		return err
	}

	snap = f.ctrl.Snapshot()
	if snap.State.Step == model.StepWebsite && snap.State.Error != "" {
		return &stateError{msg: snap.State.Error}
	}
	return nil
}

func (f *wizardFlow) competitors(ctx context.Context, snap wizard.Snapshot) error {
	companies := mergeCompetitors(snap.State.Companies, f.in.Competitors)
	companies, err := dropCompetitors(companies, f.in.Drop)
	f.in.Competitors, f.in.Drop = nil, nil
	if err != nil {
		return err
	}

	printCompanies(f.out, companies)

	if f.prompt != nil {
		for {
			ans, err := f.prompt.Ask("Add or edit competitor (Name=url), remove (-Name), blank to continue", "")
			if err != nil {
				return err
			}
			if ans == "" {
				break
			}
			if name, ok := strings.CutPrefix(ans, "-"); ok {
				next, err := dropCompetitors(companies, []string{name})
				if err != nil {
					fmt.Fprintln(f.out, err)
					continue
				}
				companies = next
				printCompanies(f.out, companies)
				continue
			}
			pairs, err := parsePairs([]string{ans})
			if err != nil {
				fmt.Fprintln(f.out, err)
				continue
			}
			companies = mergeCompetitors(companies, []model.Company{{Name: pairs[0][0], Website: pairs[0][1]}})
			printCompanies(f.out, companies)
		}
	}
	return f.ctrl.CompleteCompetitors(ctx, companies)
}

func printCompanies(w io.Writer, companies []model.Company) {
	fmt.Fprint(w, output.Section("Companies"))
	t := output.NewTable("", "Company", "Website")
	for _, co := range companies {
		marker := ""
		if co.IsMain {
			marker = "*"
		}
		t.AddRow(marker, co.Name, co.Website)
	}
	fmt.Fprint(w, t.String())
}

// mergeCompetitors appends extra companies whose name is not listed yet.
// A listed name with a website in extra gets that website.
func mergeCompetitors(companies, extra []model.Company) []model.Company {
	out := model.CloneCompanies(companies)
	index := make(map[string]int, len(out))
	for i, co := range out {
		index[co.Key()] = i
	}
	for _, co := range extra {
		if i, ok := index[co.Key()]; ok {
			if co.Website != "" {
				out[i].Website = co.Website
			}
			continue
		}
		index[co.Key()] = len(out)
		out = append(out, co)
	}
	return out
}

// dropCompetitors removes the named companies. The main company cannot
// be removed.
func dropCompetitors(companies []model.Company, names []string) ([]model.Company, error) {
	if len(names) == 0 {
		return companies, nil
	}
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		i := companyIndex(companies, n)
		if i < 0 {
			return companies, &stateError{msg: fmt.Sprintf("unknown company %q", strings.TrimSpace(n))}
		}
		if companies[i].IsMain {
			return companies, &stateError{msg: fmt.Sprintf("%s is the main company and cannot be removed", companies[i].Name)}
		}
		drop[companies[i].Key()] = true
	}

	out := make([]model.Company, 0, len(companies))
	for _, co := range companies {
		if !drop[co.Key()] {
			out = append(out, co)
		}
	}
	return out, nil
}

// appIdentifiers applies --app-id overrides, lets the user confirm each
// store id and moves on to map locations.
func (f *wizardFlow) appIdentifiers(snap wizard.Snapshot) error {
	companies, err := applyAppIDs(snap.State.Companies, f.in.AppIDs)
	f.in.AppIDs = nil
	if err != nil {
		return err
	}

	if f.prompt != nil {
		for i := range companies {
			co := &companies[i]
			if co.AndroidID, err = f.prompt.Ask("Android package for "+co.Name, co.AndroidID); err != nil {
				return err
			}
			if co.AppleID, err = f.prompt.Ask("Apple id for "+co.Name, co.AppleID); err != nil {
				return err
			}
		}
	}

	fmt.Fprint(f.out, output.Section("App identifiers"))
	t := output.NewTable("Company", "Android", "Apple")
	for _, co := range companies {
		t.AddRow(co.Name, co.AndroidID, co.AppleID)
	}
	fmt.Fprint(f.out, t.String())

	return f.ctrl.CompleteAppIdentifiers(companies)
}

func applyAppIDs(companies []model.Company, ids map[string]appIDs) ([]model.Company, error) {
	out := model.CloneCompanies(companies)
	for name, id := range ids {
		i := companyIndex(out, name)
		if i < 0 {
			return nil, &stateError{msg: fmt.Sprintf("unknown company %q", name)}
		}
		if id.Android != "" {
			out[i].AndroidID = id.Android
		}
		if id.Apple != "" {
			out[i].AppleID = id.Apple
		}
	}
	return out, nil
}

func addMapsLinks(companies []model.Company, links map[string][]model.MapLocationLink) ([]model.Company, error) {
	out := model.CloneCompanies(companies)
	for name, ls := range links {
		i := companyIndex(out, name)
		if i < 0 {
			return nil, &stateError{msg: fmt.Sprintf("unknown company %q", name)}
		}
		out[i].MapsLinks = model.NormalizeLinks(append(out[i].MapsLinks, ls...))
	}
	return out, nil
}

func companyIndex(companies []model.Company, name string) int {
	key := model.Company{Name: name}.Key()
	for i, co := range companies {
		if co.Key() == key {
			return i
		}
	}
	return -1
}

// mapLocations waits for discovery, reruns it for the requested
// companies, adds manual locations and confirms the list.
func (f *wizardFlow) mapLocations(ctx context.Context) error {
	if err := f.ctrl.Wait(ctx); err != nil {
		return err
	}

	names := f.in.Rediscover
	f.in.Rediscover = nil
	if err := f.rediscover(ctx, names); err != nil {
		return err
	}
	printLocations(f.out, f.ctrl.Snapshot())

	if f.prompt != nil {
		for {
			name, err := f.prompt.Ask("Rediscover locations for (company, blank to continue)", "")
			if err != nil {
				return err
			}
			if name == "" {
				break
			}
			if err := f.rediscover(ctx, []string{name}); err != nil {
				var se *stateError
				if errors.As(err, &se) {
					fmt.Fprintln(f.out, se.msg)
					continue
				}
				return err
			}
			printLocations(f.out, f.ctrl.Snapshot())
		}
	}

	links := f.in.MapsLinks
	f.in.MapsLinks = nil
	companies, err := addMapsLinks(f.ctrl.Snapshot().State.Companies, links)
	if err != nil {
		return err
	}

	if f.prompt != nil {
		added := false
		for {
			ans, err := f.prompt.Ask("Add map location (Name=url or place, blank to continue)", "")
			if err != nil {
				return err
			}
			if ans == "" {
				break
			}
			pairs, err := parsePairs([]string{ans})
			if err == nil && pairs[0][1] == "" {
				err = eris.Errorf("%q has no location", ans)
			}
			if err == nil {
				var next []model.Company
				next, err = addMapsLinks(companies, map[string][]model.MapLocationLink{pairs[0][0]: {parseMapLink(pairs[0][1])}})
				if err == nil {
					companies, added = next, true
				}
			}
			if err != nil {
				fmt.Fprintln(f.out, err)
			}
		}
		if added {
			printLocations(f.out, wizard.Snapshot{State: model.WizardState{Companies: companies}})
		}
	}

	return f.ctrl.CompleteMapLocations(companies)
}

// rediscover restarts maps discovery for each named company and waits
// for the jobs to finish.
func (f *wizardFlow) rediscover(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	for _, name := range names {
		if err := f.ctrl.DiscoverLocations(name); err != nil {
			if errors.Is(err, wizard.ErrUnknownCompany) {
				return &stateError{msg: fmt.Sprintf("unknown company %q", strings.TrimSpace(name))}
			}
			return err
		}
		fmt.Fprintf(f.out, "Rediscovering locations for %s\n", strings.TrimSpace(name))
	}
	return f.ctrl.Wait(ctx)
}

func printLocations(w io.Writer, snap wizard.Snapshot) {
	fmt.Fprint(w, output.Section("Map locations"))
	t := output.NewTable("Company", "Location", "Reviews").AlignRight(2)
	for _, co := range snap.State.Companies {
		if d, ok := snap.State.Discovery[co.Key()]; ok && d.Status == model.DiscoveryFailed {
			t.AddRow(co.Name, output.StyleNegative.Render(d.Error), "")
			continue
		}
		if len(co.MapsLinks) == 0 {
			t.AddRow(co.Name, output.StyleMuted.Render("none found"), "")
		}
		for _, l := range co.MapsLinks {
			count := ""
			if l.ReviewCount > 0 {
				count = fmt.Sprint(l.ReviewCount)
			}
			t.AddRow(co.Name, l.DisplayName(), count)
		}
	}
	fmt.Fprint(w, t.String())
}

func (f *wizardFlow) reviewLinks(ctx context.Context, snap wizard.Snapshot) error {
	links := make(map[string]string, len(f.in.ReviewLinks))
	for k, v := range f.in.ReviewLinks {
		links[k] = v
	}
	if f.prompt != nil {
		for _, co := range snap.State.Companies {
			if _, ok := lookupFold(links, co.Name); ok {
				continue
			}
			link, err := f.prompt.Ask("Review page for "+co.Name, co.ReviewLink)
			if err != nil {
				return err
			}
			links[co.Name] = link
		}
	}
	if err := f.ctrl.CompleteReviewLinks(ctx, links); err != nil {
		return err
	}
	fmt.Fprintf(f.out, "Scraping reviews for %d companies (session %s)\n", len(snap.State.Companies), snap.SessionID)
	return nil
}

func lookupFold(m map[string]string, key string) (string, bool) {
	for k, v := range m {
		if strings.EqualFold(strings.TrimSpace(k), strings.TrimSpace(key)) {
			return v, true
		}
	}
	return "", false
}

// dimensions waits for the scrape, then submits the user's dimensions or
// the backend's proposal. With --dimensions-out the proposal is written
// for editing and the session pauses.
func (f *wizardFlow) dimensions(ctx context.Context, snap wizard.Snapshot) error {
	if !snap.ScrapingComplete() {
		if err := f.ctrl.Wait(ctx); err != nil {
			return err
		}
		snap = f.ctrl.Snapshot()
		if snap.State.Step != model.StepScrapingProgress {
			return nil
		}
		if !snap.ScrapingComplete() {
			return wizard.ErrNoScrapeResult
		}
		f.printScrape(snap)
	}

	dims := f.in.Dimensions
	if len(dims) == 0 {
		proposed, err := f.ctrl.ProcessExtractedData(ctx, f.in.Description)
		if err != nil {
			return err
		}
		dims = proposed

		if f.in.DimensionsOut != "" {
			if err := writeDimensionsFile(f.in.DimensionsOut, dims); err != nil {
				return err
			}
			fmt.Fprintf(f.out, "Wrote %d proposed dimensions to %s\nEdit them, then run: voc wizard --resume %s --dimensions-file %s\n",
				len(dims), f.in.DimensionsOut, snap.SessionID, f.in.DimensionsOut)
			return errPaused
		}
	}

	fmt.Fprint(f.out, output.Section("Dimensions"))
	t := output.NewTable("Dimension", "Keywords")
	for _, d := range dims {
		t.AddRow(d.Name, strings.Join(d.Keywords, ", "))
	}
	fmt.Fprint(f.out, t.String())

	if f.prompt != nil {
		ok, err := f.prompt.Confirm("Start the analysis with these dimensions?")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(f.out, "Paused. Resume with --resume %s\n", snap.SessionID)
			return errPaused
		}
	}
	return f.ctrl.SubmitDimensions(ctx, dims)
}

func writeDimensionsFile(path string, dims []model.Dimension) error {
	fh, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "create dimensions file")
	}
	if err := model.WriteDimensions(fh, dims); err != nil {
		fh.Close() //nolint:errcheck
		return err
	}
	return fh.Close()
}

func (f *wizardFlow) analysis(ctx context.Context) error {
	if err := f.ctrl.Wait(ctx); err != nil {
		return err
	}
	if snap := f.ctrl.Snapshot(); snap.State.Step == model.StepAnalysisProgress {
		return eris.Errorf("wizard: session %s has no analysis job to wait for", snap.SessionID)
	}
	return nil
}

func (f *wizardFlow) printScrape(snap wizard.Snapshot) {
	sc := snap.State.Scrape
	fmt.Fprint(f.out, output.Section("Scraping complete"))
	if sc.Summary != "" {
		fmt.Fprintf(f.out, " %s\n", sc.Summary)
	}
	if len(sc.BrandNames) > 0 {
		fmt.Fprintf(f.out, " %s %s\n", output.StyleLabel.Render("Brands"), strings.Join(sc.BrandNames, ", "))
	}
	if u := snap.CSVDownloadURL(); u != "" {
		fmt.Fprintf(f.out, " %s %s\n", output.StyleLabel.Render("CSV"), u)
	}
	if sc.DashboardLink != "" {
		fmt.Fprintf(f.out, " %s %s\n", output.StyleLabel.Render("Dashboard"), sc.DashboardLink)
	}
}

func (f *wizardFlow) printSuccess(snap wizard.Snapshot) {
	fmt.Fprint(f.out, output.Section("Analysis complete"))
	fmt.Fprintf(f.out, " %s %s\n", output.StyleLabel.Render("Session"), snap.SessionID)
	if a := snap.State.Analysis; a != nil && a.DashboardLink != "" {
		fmt.Fprintf(f.out, " %s %s\n", output.StyleLabel.Render("Dashboard"), a.DashboardLink)
	}
	if u := snap.CSVDownloadURL(); u != "" {
		fmt.Fprintf(f.out, " %s %s\n", output.StyleLabel.Render("CSV"), u)
	}
}

// progressPrinter prints job progress as it changes. On a terminal the
// line is rewritten in place.
func progressPrinter(w io.Writer, tty bool) func(wizard.Snapshot) {
	var last string
	return func(snap wizard.Snapshot) {
		p := snap.State.Progress
		if p == nil {
			if tty && last != "" {
				fmt.Fprintln(w)
			}
			last = ""
			return
		}
		line := output.StatusLine(p.Status, p.Message, p.Processed, p.Total)
		if p.Total > 0 {
			line = output.ProgressBar(p.Processed, p.Total, 20) + " " + line
		}
		if line == last {
			return
		}
		last = line
		if tty {
			fmt.Fprintf(w, "\r\033[K%s", line)
			return
		}
		fmt.Fprintln(w, line)
	}
}

func addWizardFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("website", "", "company website to analyse")
	f.StringArray("competitor", nil, "add a competitor or change its website, as Name=https://site (repeatable)")
	f.StringArray("drop-competitor", nil, "remove a detected competitor by name (repeatable)")
	f.StringArray("app-id", nil, "store ids as Name=android.package:appleid, either side may be empty (repeatable)")
	f.StringArray("maps-link", nil, "add a map location as Name=https://maps-url or Name=place name (repeatable)")
	f.StringArray("rediscover", nil, "rerun map location discovery for a company (repeatable)")
	f.StringArray("review-link", nil, "review page as Name=https://link (repeatable)")
	f.String("description", "", "what the analysis should focus on")
	f.String("dimensions-file", "", "YAML file with the analysis dimensions")
	f.String("dimensions-out", "", "write the proposed dimensions to this YAML file and pause")
	f.String("resume", "", "continue a saved session by id")
	f.Bool("retry", false, "retry a failed session from the step that failed")
	f.BoolP("yes", "y", false, "never prompt; take every answer from flags")
}

func init() {
	addWizardFlags(wizardCmd)
	rootCmd.AddCommand(wizardCmd)
}
