package wizard

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/voc-cli/internal/model"
	"github.com/sells-group/voc-cli/internal/poller"
	"github.com/sells-group/voc-cli/pkg/voc"
)

// fakeClient scripts backend answers. Status sequences repeat their last
// entry once exhausted.
type fakeClient struct {
	mu sync.Mutex

	analyze   func(website string) (*voc.AnalyzeResult, error)
	resolve   func(companies []model.Company) ([]model.Company, error)
	discover  func(req voc.DiscoverMapsRequest) (*voc.DiscoverResult, error)
	scrape    func(req voc.ScrapeRequest) (*voc.JobAccepted, error)
	extracted func(req voc.ExtractedDataRequest) ([]model.Dimension, error)
	final     func(req voc.FinalAnalysisRequest) (*voc.JobAccepted, error)

	statuses map[string][]*model.JobStatus
	checks   map[string]int

	scrapeReqs    []voc.ScrapeRequest
	extractedReqs []voc.ExtractedDataRequest
	finalReqs     []voc.FinalAnalysisRequest
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		statuses: make(map[string][]*model.JobStatus),
		checks:   make(map[string]int),
	}
}

func (f *fakeClient) script(jobID string, seq ...*model.JobStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[jobID] = seq
}

func (f *fakeClient) checkCount(jobID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checks[jobID]
}

func (f *fakeClient) AnalyzeWebsite(_ context.Context, website string) (*voc.AnalyzeResult, error) {
	if f.analyze != nil {
		return f.analyze(website)
	}
	return &voc.AnalyzeResult{Companies: []model.Company{
		{Name: "Example", Website: website, IsMain: true},
	}}, nil
}

func (f *fakeClient) ResolveAppIDs(_ context.Context, companies []model.Company) ([]model.Company, error) {
	if f.resolve != nil {
		return f.resolve(companies)
	}
	return model.CloneCompanies(companies), nil
}

func (f *fakeClient) DiscoverMaps(_ context.Context, req voc.DiscoverMapsRequest) (*voc.DiscoverResult, error) {
	if f.discover != nil {
		return f.discover(req)
	}
	return &voc.DiscoverResult{}, nil
}

func (f *fakeClient) ScrapeReviews(_ context.Context, req voc.ScrapeRequest) (*voc.JobAccepted, error) {
	f.mu.Lock()
	f.scrapeReqs = append(f.scrapeReqs, req)
	f.mu.Unlock()
	if f.scrape != nil {
		return f.scrape(req)
	}
	return &voc.JobAccepted{JobID: "scrape-1", Message: "Scraping started (Async)"}, nil
}

func (f *fakeClient) CheckStatus(_ context.Context, jobID string) (*model.JobStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seq := f.statuses[jobID]
	n := f.checks[jobID]
	f.checks[jobID]++
	if len(seq) == 0 {
		return &model.JobStatus{JobID: jobID, Status: "processing"}, nil
	}
	if n >= len(seq) {
		n = len(seq) - 1
	}
	s := *seq[n]
	s.JobID = jobID
	return &s, nil
}

func (f *fakeClient) ProcessExtractedData(_ context.Context, req voc.ExtractedDataRequest) ([]model.Dimension, error) {
	f.mu.Lock()
	f.extractedReqs = append(f.extractedReqs, req)
	f.mu.Unlock()
	if f.extracted != nil {
		return f.extracted(req)
	}
	return []model.Dimension{{Name: "Price", Description: "cost", Keywords: []string{"cheap"}}}, nil
}

func (f *fakeClient) FinalAnalysis(_ context.Context, req voc.FinalAnalysisRequest) (*voc.JobAccepted, error) {
	f.mu.Lock()
	f.finalReqs = append(f.finalReqs, req)
	f.mu.Unlock()
	if f.final != nil {
		return f.final(req)
	}
	return &voc.JobAccepted{JobID: "analysis-1"}, nil
}

func running(msg string, processed, total int) *model.JobStatus {
	return &model.JobStatus{Status: "running", Message: msg, Processed: processed, Total: total}
}

func completed(result string) *model.JobStatus {
	s := &model.JobStatus{Status: "completed"}
	if result != "" {
		s.Result = json.RawMessage(result)
	}
	return s
}

func fastConfig() Config {
	pc := func(name string) poller.Config {
		return poller.Config{Name: name, Interval: time.Millisecond, MaxAttempts: 20}
	}
	return Config{
		Website:          pc("website"),
		Maps:             pc("maps"),
		Scrape:           pc("scrape"),
		Analysis:         pc("analysis"),
		DiscoveryStagger: time.Millisecond,
		AutoDiscover:     true,
		S3Bucket:         "voc-bucket",
		DashboardURL:     "https://app.example.com/dashboard",
	}
}

func newController(t *testing.T, fc *fakeClient, cfg Config, opts ...Option) *Controller {
	t.Helper()
	c := New(fc, cfg, opts...)
	t.Cleanup(c.Close)
	return c
}

func settle(t *testing.T, c *Controller) Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Wait(ctx))
	return c.Snapshot()
}

// recorder collects published snapshots.
type recorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func record(c *Controller) *recorder {
	r := &recorder{}
	c.Subscribe(func(s Snapshot) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.snaps = append(r.snaps, s)
	})
	return r
}

func (r *recorder) all() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Snapshot(nil), r.snaps...)
}

// memPersister keeps the last saved copy of each session.
type memPersister struct {
	mu       sync.Mutex
	sessions map[string]model.Session
	saves    int
}

func newMemPersister() *memPersister {
	return &memPersister{sessions: make(map[string]model.Session)}
}

func (m *memPersister) SaveSession(_ context.Context, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = model.Session{ID: s.ID, State: s.State.Clone(), CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt}
	m.saves++
	return nil
}

func (m *memPersister) get(id string) (model.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}
