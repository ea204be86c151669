// Package dashboard holds the tabbed dashboard over aggregated review data.
// A Shell owns the loaded records, the brand filter and the active tab, and
// recomputes the full snapshot on every change.
package dashboard

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/voc-cli/internal/analytics"
	"github.com/sells-group/voc-cli/internal/ingest"
	"github.com/sells-group/voc-cli/internal/model"
	"github.com/sells-group/voc-cli/internal/poller"
)

// Tab is one dashboard view.
type Tab string

const (
	TabExecutive   Tab = "executive"
	TabOperational Tab = "operational"
	TabData        Tab = "data"
)

// Tabs lists the views in display order.
func Tabs() []Tab {
	return []Tab{TabExecutive, TabOperational, TabData}
}

// ParseTab matches a tab name case-insensitively. Empty selects the
// executive view.
func ParseTab(s string) (Tab, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return TabExecutive, nil
	}
	for _, t := range Tabs() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", eris.Errorf("dashboard: unknown tab %q", s)
}

// Loader loads review records from a source. *ingest.Loader implements it.
type Loader interface {
	Load(ctx context.Context, src ingest.Source) ([]model.ReviewRecord, error)
}

// StatusChecker reads a backend job status. voc.Client implements it.
type StatusChecker interface {
	CheckStatus(ctx context.Context, jobID string) (*model.JobStatus, error)
}

var (
	// ErrNoCSV is returned when a completed job carries no CSV location.
	ErrNoCSV = eris.New("job has no csv download url")
	// ErrJobRunning is returned when the job has not finished yet.
	ErrJobRunning = eris.New("job is still running")
)

// Shell is safe for concurrent use.
type Shell struct {
	mu      sync.RWMutex
	records []model.ReviewRecord
	source  string
	brands  []string
	tab     Tab
	now     time.Time
	data    model.DashboardData
}

// Option configures a Shell.
type Option func(*Shell)

// WithNow anchors the trend window at t instead of the latest review.
func WithNow(t time.Time) Option {
	return func(s *Shell) { s.now = t }
}

// New returns an empty shell on the executive tab.
func New(opts ...Option) *Shell {
	s := &Shell{tab: TabExecutive}
	for _, o := range opts {
		o(s)
	}
	s.recompute()
	return s
}

// Load replaces the records with those read from src. The brand filter is
// kept; brands absent from the new data simply match nothing.
func (s *Shell) Load(ctx context.Context, loader Loader, src ingest.Source) error {
	records, err := loader.Load(ctx, src)
	if err != nil {
		return err
	}
	s.SetRecords(src.String(), records)
	return nil
}

// LoadFromJob asks the backend for the job's current CSV location and loads
// it. Download URLs expire, so the location is resolved on every call.
func (s *Shell) LoadFromJob(ctx context.Context, checker StatusChecker, loader Loader, jobID string) error {
	status, err := checker.CheckStatus(ctx, jobID)
	if err != nil {
		return eris.Wrapf(err, "dashboard: check job %s", jobID)
	}

	switch status.Phase() {
	case model.JobFailed:
		msg := strings.TrimSpace(status.Message)
		if msg == "" {
			msg = poller.DefaultFailureMessage
		}
		return &poller.JobFailedError{JobID: jobID, Status: status.Status, Message: msg}
	case model.JobInProgress:
		return eris.Wrapf(ErrJobRunning, "dashboard: job %s is still %s", jobID, status.Status)
	}

	if status.CSVDownloadURL == "" {
		return eris.Wrapf(ErrNoCSV, "dashboard: job %s", jobID)
	}
	src, err := ingest.ParseSource(status.CSVDownloadURL)
	if err != nil {
		return eris.Wrapf(err, "dashboard: job %s", jobID)
	}
	zap.L().Debug("dashboard: resolved job csv", zap.String("job_id", jobID), zap.String("csv_url", status.CSVDownloadURL))
	return s.Load(ctx, loader, src)
}

// SetRecords replaces the loaded records.
func (s *Shell) SetRecords(source string, records []model.ReviewRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = source
	s.records = append([]model.ReviewRecord(nil), records...)
	s.recomputeLocked()
}

// SetBrandFilter restricts every view to brands. Empty shows all brands.
func (s *Shell) SetBrandFilter(brands []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.brands = cleanBrands(brands)
	s.recomputeLocked()
}

// ToggleBrand adds brand to the filter or removes it. Toggling with no
// filter selects only brand; removing the last brand shows all again.
func (s *Shell) ToggleBrand(brand string) {
	brand = strings.TrimSpace(brand)
	if brand == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]string, 0, len(s.brands)+1)
	removed := false
	for _, b := range s.brands {
		if strings.EqualFold(b, brand) {
			removed = true
			continue
		}
		next = append(next, b)
	}
	if !removed {
		next = append(next, brand)
	}
	s.brands = next
	s.recomputeLocked()
}

// SelectTab switches the active view.
func (s *Shell) SelectTab(t Tab) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tab = t
}

// Tab returns the active view.
func (s *Shell) Tab() Tab {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tab
}

// Source describes where the records came from.
func (s *Shell) Source() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// BrandFilter returns a copy of the current filter.
func (s *Shell) BrandFilter() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.brands...)
}

// Records returns a copy of the loaded records.
func (s *Shell) Records() []model.ReviewRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.ReviewRecord(nil), s.records...)
}

// Data returns the current snapshot. Slices are shared with the shell and
// must not be modified; the shell replaces them rather than mutating.
func (s *Shell) Data() model.DashboardData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

func (s *Shell) recompute() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recomputeLocked()
}

func (s *Shell) recomputeLocked() {
	s.data = analytics.Aggregate(s.records, analytics.Options{Brands: s.brands, Now: s.now})
}

func cleanBrands(brands []string) []string {
	out := make([]string, 0, len(brands))
	for _, b := range brands {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
