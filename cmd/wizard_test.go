package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/voc-cli/internal/model"
	"github.com/sells-group/voc-cli/internal/poller"
	"github.com/sells-group/voc-cli/internal/wizard"
	"github.com/sells-group/voc-cli/pkg/voc"
)

// fakeBackend serves the review backend API with canned answers.
type fakeBackend struct {
	mu           sync.Mutex
	scrapeStatus []string
	scrapeChecks int
	analyzeFail  bool
	scrapes      []voc.ScrapeRequest
	finals       []voc.FinalAnalysisRequest
	discovers    map[string]int
}

func (b *fakeBackend) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/api/analyze-website", func(w http.ResponseWriter, r *http.Request) {
		if b.analyzeFail {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"detail":"backend down"}`))
			return
		}
		_, _ = w.Write([]byte(`[{"company_name":"Acme","website":"https://acme.com","is_main":true}]`))
	})
	mux.HandleFunc("/api/appids", func(w http.ResponseWriter, r *http.Request) {
		var refs []voc.CompanyRef
		_ = json.NewDecoder(r.Body).Decode(&refs)
		out := make([]model.Company, 0, len(refs))
		for _, ref := range refs {
			out = append(out, model.Company{Name: ref.Name, Website: ref.Website, AndroidID: "com." + strings.ToLower(ref.Name)})
		}
		_ = json.NewEncoder(w).Encode(out)
	})
	mux.HandleFunc("/api/discover-maps", func(w http.ResponseWriter, r *http.Request) {
		var req voc.DiscoverMapsRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		if b.discovers == nil {
			b.discovers = make(map[string]int)
		}
		b.discovers[req.CompanyName]++
		b.mu.Unlock()
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"name": req.CompanyName + " HQ", "url": "https://maps.example.com/" + strings.ToLower(req.CompanyName), "reviews_count": 120},
		})
	})
	mux.HandleFunc("/api/scrap-reviews", func(w http.ResponseWriter, r *http.Request) {
		var req voc.ScrapeRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		b.scrapes = append(b.scrapes, req)
		b.mu.Unlock()
		_, _ = w.Write([]byte(`{"job_id":"scrape-1","message":"queued"}`))
	})
	mux.HandleFunc("/api/check-status", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("job_id") {
		case "scrape-1":
			b.mu.Lock()
			i := b.scrapeChecks
			b.scrapeChecks++
			seq := b.scrapeStatus
			b.mu.Unlock()
			if i >= len(seq) {
				i = len(seq) - 1
			}
			_, _ = w.Write([]byte(seq[i]))
		case "analysis-1":
			_, _ = w.Write([]byte(`{"status":"completed","csv_download_url":"https://cdn.example.com/final.csv"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"unknown job"}`))
		}
	})
	mux.HandleFunc("/api/scrapped-data", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"dimensions":[{"dimension":"Service","description":"Staff and support","keywords":["staff","support"]}]}`))
	})
	mux.HandleFunc("/api/final-analysis", func(w http.ResponseWriter, r *http.Request) {
		var req voc.FinalAnalysisRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		b.finals = append(b.finals, req)
		b.mu.Unlock()
		_, _ = w.Write([]byte(`{"job_id":"analysis-1"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

const (
	scrapeRunning   = `{"status":"running","message":"Scraping reviews","processed":1,"total":2}`
	scrapeCompleted = `{"status":"completed","s3_key":"scrapped_data/scrape-1.csv","csv_download_url":"https://cdn.example.com/scrape-1.csv","summary":"2 brands scraped"}`
	scrapeFailed    = `{"status":"failed","message":"quota exceeded"}`
)

func newTestController(t *testing.T, backendURL string) *wizard.Controller {
	t.Helper()
	pc := poller.Config{Interval: 5 * time.Millisecond, MaxAttempts: 50}
	ctrl := wizard.New(voc.NewClient(voc.WithBaseURL(backendURL)), wizard.Config{
		Website:      pc,
		Maps:         pc,
		Scrape:       pc,
		Analysis:     pc,
		AutoDiscover: true,
		S3Bucket:     "voc-bucket",
		DashboardURL: "https://dash.example.com",
	})
	t.Cleanup(ctrl.Close)
	return ctrl
}

func flagInput() wizardInput {
	return wizardInput{
		Website:     "acme.com",
		Competitors: []model.Company{{Name: "Rival", Website: "https://rival.com"}},
		ReviewLinks: map[string]string{"Acme": "https://trustpilot.com/review/acme.com"},
		Description: "service quality",
		Yes:         true,
	}
}

func runFlow(t *testing.T, ctrl *wizard.Controller, in wizardInput, prompt prompter) (string, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var out bytes.Buffer
	flow := &wizardFlow{ctrl: ctrl, in: in, out: &out, prompt: prompt}
	err := flow.run(ctx)
	return out.String(), err
}

func TestWizardFlow_FromFlags(t *testing.T) {
	b := &fakeBackend{scrapeStatus: []string{scrapeRunning, scrapeCompleted}}
	srv := b.server(t)
	ctrl := newTestController(t, srv.URL)

	out, err := runFlow(t, ctrl, flagInput(), nil)
	require.NoError(t, err)

	snap := ctrl.Snapshot()
	assert.Equal(t, model.StepSuccess, snap.State.Step)
	assert.Contains(t, out, "Analysis complete")
	assert.Contains(t, out, "https://cdn.example.com/final.csv")
	assert.Contains(t, out, "2 brands scraped")
	assert.Contains(t, out, "Acme HQ")

	b.mu.Lock()
	defer b.mu.Unlock()
	require.Len(t, b.scrapes, 1)
	brands := b.scrapes[0].Brands
	require.Len(t, brands, 2)
	assert.Equal(t, "Acme", brands[0].Name)
	assert.Equal(t, "com.acme", brands[0].AndroidID)
	assert.Equal(t, "https://trustpilot.com/review/acme.com", brands[0].ReviewLink)
	require.NotEmpty(t, brands[0].MapsLinks)
	assert.Equal(t, "Acme HQ", brands[0].MapsLinks[0].Name)
	assert.Equal(t, "Rival", brands[1].Name)

	require.Len(t, b.finals, 1)
	assert.Equal(t, "voc-bucket", b.finals[0].BucketName)
	assert.Equal(t, "scrapped_data/scrape-1.csv", b.finals[0].FileKey)
	require.Len(t, b.finals[0].Dimensions, 1)
	assert.Equal(t, "Service", b.finals[0].Dimensions[0].Name)
}

func TestWizardFlow_PausesForDimensionEditing(t *testing.T) {
	b := &fakeBackend{scrapeStatus: []string{scrapeCompleted}}
	srv := b.server(t)
	ctrl := newTestController(t, srv.URL)

	path := filepath.Join(t.TempDir(), "dims.yaml")
	in := flagInput()
	in.DimensionsOut = path

	out, err := runFlow(t, ctrl, in, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StepScrapingProgress, ctrl.Snapshot().State.Step)
	assert.Contains(t, out, "--dimensions-file "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "dimension: Service")

	edited := []model.Dimension{{Name: "Pricing", Keywords: []string{"price", "cost"}}}
	_, err = runFlow(t, ctrl, wizardInput{Dimensions: edited, Yes: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StepSuccess, ctrl.Snapshot().State.Step)

	b.mu.Lock()
	defer b.mu.Unlock()
	require.Len(t, b.finals, 1)
	assert.Equal(t, "Pricing", b.finals[0].Dimensions[0].Name)
}

func TestWizardFlow_ScrapeFailure(t *testing.T) {
	b := &fakeBackend{scrapeStatus: []string{scrapeFailed}}
	srv := b.server(t)
	ctrl := newTestController(t, srv.URL)

	_, err := runFlow(t, ctrl, flagInput(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Contains(t, err.Error(), "--retry")

	snap := ctrl.Snapshot()
	assert.Equal(t, model.StepFailed, snap.State.Step)
	assert.Equal(t, model.StepScrapingProgress, snap.State.FailedFrom)
}

func TestWizardFlow_WebsiteError(t *testing.T) {
	b := &fakeBackend{analyzeFail: true}
	srv := b.server(t)
	ctrl := newTestController(t, srv.URL)

	_, err := runFlow(t, ctrl, flagInput(), nil)
	require.Error(t, err)
	assert.Equal(t, "Website: backend down", err.Error())
	assert.Equal(t, model.StepWebsite, ctrl.Snapshot().State.Step)
}

// scriptedPrompter answers prompts from a fixed list; blank answers take
// the default.
type scriptedPrompter struct {
	answers []string
	asked   []string
	confirm bool
}

func (p *scriptedPrompter) Ask(label, def string) (string, error) {
	p.asked = append(p.asked, label)
	if len(p.answers) == 0 {
		return def, nil
	}
	ans := p.answers[0]
	p.answers = p.answers[1:]
	if ans == "" {
		return def, nil
	}
	return ans, nil
}

func (p *scriptedPrompter) Confirm(string) (bool, error) { return p.confirm, nil }

func TestWizardFlow_Interactive(t *testing.T) {
	b := &fakeBackend{scrapeStatus: []string{scrapeCompleted}}
	srv := b.server(t)
	ctrl := newTestController(t, srv.URL)

	prompt := &scriptedPrompter{
		answers: []string{
			"acme.com",                       // website
			"Other Co=https://other.example", // extra competitor
			"",                               // done adding
			"",                               // Acme android id
			"1234",                           // Acme apple id
			"",                               // Other Co android id
			"",                               // Other Co apple id
			"",                               // no rediscovery
			"Other Co=Other Co Uptown",       // manual map location
			"",                               // done adding locations
			"https://trustpilot.com/r/acme",  // Acme review page
			"https://trustpilot.com/r/other", // Other Co review page
		},
		confirm: false,
	}

	out, err := runFlow(t, ctrl, wizardInput{}, prompt)
	require.NoError(t, err)
	assert.Contains(t, out, "Paused")
	assert.Equal(t, model.StepScrapingProgress, ctrl.Snapshot().State.Step)
	assert.Contains(t, prompt.asked, "Review page for Other Co")

	b.mu.Lock()
	defer b.mu.Unlock()
	require.Len(t, b.scrapes, 1)
	require.Len(t, b.scrapes[0].Brands, 2)
	assert.Equal(t, "https://trustpilot.com/r/other", b.scrapes[0].Brands[1].ReviewLink)
	assert.Equal(t, "com.acme", b.scrapes[0].Brands[0].AndroidID)
	assert.Equal(t, "1234", b.scrapes[0].Brands[0].AppleID)
	assert.Contains(t, locationNames(b.scrapes[0].Brands[1]), "Other Co Uptown")
	assert.Empty(t, b.finals)
}

func locationNames(co model.Company) []string {
	names := make([]string, 0, len(co.MapsLinks))
	for _, l := range co.MapsLinks {
		names = append(names, l.DisplayName())
	}
	return names
}

func TestWizardFlow_ManualEdits(t *testing.T) {
	b := &fakeBackend{scrapeStatus: []string{scrapeCompleted}}
	srv := b.server(t)
	ctrl := newTestController(t, srv.URL)

	in := flagInput()
	in.Competitors = []model.Company{
		{Name: "Rival", Website: "https://rival.com"},
		{Name: "Gone Co", Website: "https://gone.example"},
		{Name: "acme", Website: "https://acme.io"},
	}
	in.Drop = []string{"gone co"}
	in.AppIDs = map[string]appIDs{
		"Acme":  {Apple: "123456"},
		"rival": {Android: "com.rival.custom"},
	}
	in.MapsLinks = map[string][]model.MapLocationLink{
		"Acme":  {model.BareLink("Acme Downtown")},
		"Rival": {parseMapLink("https://maps.example.com/rival-east")},
	}
	in.Rediscover = []string{"Rival"}
	in.DimensionsOut = filepath.Join(t.TempDir(), "dims.yaml")

	out, err := runFlow(t, ctrl, in, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "Rediscovering locations for Rival")
	assert.Contains(t, out, "App identifiers")

	b.mu.Lock()
	defer b.mu.Unlock()
	require.Len(t, b.scrapes, 1)
	brands := b.scrapes[0].Brands
	require.Len(t, brands, 2)

	assert.Equal(t, "Acme", brands[0].Name)
	assert.Equal(t, "https://acme.io", brands[0].Website)
	assert.Equal(t, "com.acme", brands[0].AndroidID)
	assert.Equal(t, "123456", brands[0].AppleID)
	assert.Equal(t, []string{"Acme HQ", "Acme Downtown"}, locationNames(brands[0]))

	assert.Equal(t, "Rival", brands[1].Name)
	assert.Equal(t, "com.rival.custom", brands[1].AndroidID)
	assert.Equal(t, []string{"Rival HQ", "https://maps.example.com/rival-east"}, locationNames(brands[1]))

	assert.Equal(t, 1, b.discovers["Acme"])
	assert.Equal(t, 2, b.discovers["Rival"])
	assert.Zero(t, b.discovers["Gone Co"])
}

func TestWizardFlow_ManualEditErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *wizardInput)
		want   string
	}{
		{
			name:   "drop main company",
			mutate: func(in *wizardInput) { in.Drop = []string{"Acme"} },
			want:   "Competitors: Acme is the main company and cannot be removed",
		},
		{
			name:   "drop unknown company",
			mutate: func(in *wizardInput) { in.Drop = []string{"Nobody"} },
			want:   `Competitors: unknown company "Nobody"`,
		},
		{
			name:   "app id for unknown company",
			mutate: func(in *wizardInput) { in.AppIDs = map[string]appIDs{"Nobody": {Apple: "1"}} },
			want:   `App Identifiers: unknown company "Nobody"`,
		},
		{
			name: "maps link for unknown company",
			mutate: func(in *wizardInput) {
				in.MapsLinks = map[string][]model.MapLocationLink{"Nobody": {model.BareLink("Somewhere")}}
			},
			want: `Map Locations: unknown company "Nobody"`,
		},
		{
			name:   "rediscover unknown company",
			mutate: func(in *wizardInput) { in.Rediscover = []string{"Nobody"} },
			want:   `Map Locations: unknown company "Nobody"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBackend{scrapeStatus: []string{scrapeCompleted}}
			srv := b.server(t)
			ctrl := newTestController(t, srv.URL)

			in := flagInput()
			tt.mutate(&in)
			_, err := runFlow(t, ctrl, in, nil)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestWizardFlow_InteractiveCompetitorEdits(t *testing.T) {
	b := &fakeBackend{scrapeStatus: []string{scrapeCompleted}}
	srv := b.server(t)
	ctrl := newTestController(t, srv.URL)

	prompt := &scriptedPrompter{
		answers: []string{
			"acme.com",
			"-Acme",                // refused, main company
			"-Rival",               // remove the flag competitor
			"Acme=https://acme.io", // edit the main website
			"",                     // done with competitors
			"",                     // Acme android id
			"",                     // Acme apple id
			"Rival",                // removed, so rediscovery is refused
			"Acme",                 // rediscover Acme
			"",                     // done rediscovering
			"Nobody=Somewhere",     // refused, unknown company
			"",                     // done adding locations
		},
		confirm: false,
	}
	in := wizardInput{
		Competitors: []model.Company{{Name: "Rival", Website: "https://rival.com"}},
		ReviewLinks: map[string]string{"Acme": "https://trustpilot.com/review/acme.com"},
	}

	out, err := runFlow(t, ctrl, in, prompt)
	require.NoError(t, err)
	assert.Contains(t, out, "Acme is the main company and cannot be removed")
	assert.Contains(t, out, `unknown company "Rival"`)
	assert.Contains(t, out, `unknown company "Nobody"`)

	b.mu.Lock()
	defer b.mu.Unlock()
	require.Len(t, b.scrapes, 1)
	require.Len(t, b.scrapes[0].Brands, 1)
	assert.Equal(t, "https://acme.io", b.scrapes[0].Brands[0].Website)
	assert.Equal(t, 2, b.discovers["Acme"])
}

func TestWizardInputFromFlags(t *testing.T) {
	dims := filepath.Join(t.TempDir(), "dims.yaml")
	require.NoError(t, os.WriteFile(dims, []byte("- dimension: Service\n  keywords: [staff]\n"), 0o644))

	cmd := &cobra.Command{Use: "wizard"}
	addWizardFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{
		"--website", "acme.com",
		"--competitor", "Rival Inc=https://rival.com",
		"--review-link", "Acme=https://trustpilot.com/review/acme.com",
		"--dimensions-file", dims,
		"--drop-competitor", "Old Co",
		"--app-id", "Acme=com.acme:123456",
		"--app-id", "Rival Inc=:987",
		"--maps-link", "Acme=https://maps.example.com/acme",
		"--maps-link", "Acme=Acme Downtown",
		"--rediscover", "Rival Inc",
		"-y",
	}))

	in, err := wizardInputFromFlags(cmd)
	require.NoError(t, err)
	assert.Equal(t, "acme.com", in.Website)
	assert.Equal(t, []model.Company{{Name: "Rival Inc", Website: "https://rival.com"}}, in.Competitors)
	assert.Equal(t, "https://trustpilot.com/review/acme.com", in.ReviewLinks["Acme"])
	require.Len(t, in.Dimensions, 1)
	assert.Equal(t, []string{"staff"}, in.Dimensions[0].Keywords)
	assert.True(t, in.Yes)
	assert.Equal(t, []string{"Old Co"}, in.Drop)
	assert.Equal(t, map[string]appIDs{
		"Acme":      {Android: "com.acme", Apple: "123456"},
		"Rival Inc": {Apple: "987"},
	}, in.AppIDs)
	require.Len(t, in.MapsLinks["Acme"], 2)
	assert.Equal(t, "https://maps.example.com/acme", in.MapsLinks["Acme"][0].URL)
	assert.Equal(t, "Acme Downtown", in.MapsLinks["Acme"][1].Name)
	assert.Equal(t, []string{"Rival Inc"}, in.Rediscover)
}

func TestWizardInputFromFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "bad competitor", args: []string{"--website", "a.com", "--competitor", "nourl"}, want: "--competitor"},
		{name: "bad review link", args: []string{"--website", "a.com", "--review-link", "=https://x.com"}, want: "--review-link"},
		{name: "empty app id", args: []string{"--website", "a.com", "--app-id", "Acme=:"}, want: "--app-id"},
		{name: "app id without name", args: []string{"--website", "a.com", "--app-id", "com.acme"}, want: "--app-id"},
		{name: "empty maps link", args: []string{"--website", "a.com", "--maps-link", "Acme="}, want: "--maps-link"},
		{name: "yes without website", args: []string{"--yes"}, want: "--website is required"},
		{name: "missing dimensions file", args: []string{"--website", "a.com", "--dimensions-file", "/nonexistent/dims.yaml"}, want: "dimensions file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{Use: "wizard"}
			addWizardFlags(cmd)
			require.NoError(t, cmd.ParseFlags(tt.args))

			_, err := wizardInputFromFlags(cmd)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParsePairs(t *testing.T) {
	got, err := parsePairs([]string{"Acme Co = https://acme.com", "B=https://b.com/?x=1"})
	require.NoError(t, err)
	assert.Equal(t, [][2]string{{"Acme Co", "https://acme.com"}, {"B", "https://b.com/?x=1"}}, got)

	_, err = parsePairs([]string{"novalue"})
	require.Error(t, err)
}

func TestMergeCompetitors(t *testing.T) {
	base := []model.Company{{Name: "Acme", IsMain: true}, {Name: "Rival", Website: "https://rival.com"}}
	got := mergeCompetitors(base, []model.Company{{Name: "rival"}, {Name: "New Co"}, {Name: "ACME", Website: "https://acme.io"}})

	require.Len(t, got, 3)
	assert.Equal(t, "New Co", got[2].Name)
	assert.True(t, got[0].IsMain)
	assert.Equal(t, "Acme", got[0].Name)
	assert.Equal(t, "https://acme.io", got[0].Website)
	assert.Equal(t, "https://rival.com", got[1].Website, "a bare name keeps the website")
	assert.Empty(t, base[0].Website, "input is not modified")
}

func TestDropCompetitors(t *testing.T) {
	base := []model.Company{{Name: "Acme", IsMain: true}, {Name: "Rival"}, {Name: "Other"}}

	got, err := dropCompetitors(base, []string{" rival "})
	require.NoError(t, err)
	assert.Equal(t, []model.Company{{Name: "Acme", IsMain: true}, {Name: "Other"}}, got)

	_, err = dropCompetitors(base, []string{"Acme"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "main company")

	_, err = dropCompetitors(base, []string{"Nobody"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown company")
}

func TestParseAppIDs(t *testing.T) {
	tests := []struct {
		in      string
		want    appIDs
		wantErr bool
	}{
		{in: "com.acme:123", want: appIDs{Android: "com.acme", Apple: "123"}},
		{in: "com.acme", want: appIDs{Android: "com.acme"}},
		{in: ":123", want: appIDs{Apple: "123"}},
		{in: " : ", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseAppIDs(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseMapLink(t *testing.T) {
	u := parseMapLink(" https://maps.example.com/acme ")
	assert.Equal(t, model.LinkStructured, u.Kind)
	assert.Equal(t, "https://maps.example.com/acme", u.URL)

	n := parseMapLink("Acme Downtown")
	assert.Equal(t, model.LinkBare, n.Kind)
	assert.Equal(t, "Acme Downtown", n.Name)
}

func TestProgressPrinter(t *testing.T) {
	var buf bytes.Buffer
	printer := progressPrinter(&buf, false)

	snap := wizard.Snapshot{State: model.WizardState{Progress: &model.Progress{Status: "running", Message: "Scraping", Processed: 1, Total: 4}}}
	printer(snap)
	printer(snap)
	printer(wizard.Snapshot{})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "[RUNNING] Scraping (1/4)")

	buf.Reset()
	tty := progressPrinter(&buf, true)
	tty(snap)
	tty(wizard.Snapshot{})
	assert.True(t, strings.HasPrefix(buf.String(), "\r\033[K"))
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}
