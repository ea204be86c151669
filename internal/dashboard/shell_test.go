package dashboard

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/voc-cli/internal/ingest"
	"github.com/sells-group/voc-cli/internal/model"
	"github.com/sells-group/voc-cli/internal/output"
	"github.com/sells-group/voc-cli/internal/poller"
)

func init() {
	output.SetNoColor(true)
}

func sampleRecords() []model.ReviewRecord {
	return []model.ReviewRecord{
		{Brand: "Acme", Platform: "trustpilot", Rating: "5", Date: "2026-02-09", Sentiment: "positive", Topics: "Speed (Positive); Price (Negative)"},
		{Brand: "Acme", Platform: "google_play", Rating: "4", Date: "2026-02-11", Sentiment: "positive", Topics: "Speed (Positive)"},
		{Brand: "Globex", Platform: "trustpilot", Rating: "2", Date: "2026-02-12", Sentiment: "negative", Topics: "Support (Negative)"},
		{Brand: "", Platform: "", Rating: "x", Date: "", Sentiment: "neutral"},
	}
}

type fakeLoader struct {
	mu      sync.Mutex
	sources []ingest.Source
	records []model.ReviewRecord
	err     error
}

func (f *fakeLoader) Load(_ context.Context, src ingest.Source) ([]model.ReviewRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sources = append(f.sources, src)
	return f.records, f.err
}

type fakeChecker struct {
	statuses []*model.JobStatus
	calls    int
	err      error
}

func (f *fakeChecker) CheckStatus(_ context.Context, jobID string) (*model.JobStatus, error) {
	if f.err != nil {
		return nil, f.err
	}
	s := f.statuses[min(f.calls, len(f.statuses)-1)]
	f.calls++
	return s, nil
}

func TestParseTab(t *testing.T) {
	tests := []struct {
		in      string
		want    Tab
		wantErr bool
	}{
		{in: "", want: TabExecutive},
		{in: "Operational", want: TabOperational},
		{in: " data ", want: TabData},
		{in: "charts", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTab(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestShellLoad(t *testing.T) {
	loader := &fakeLoader{records: sampleRecords()}
	s := New()

	require.NoError(t, s.Load(context.Background(), loader, ingest.Source{Path: "reviews.csv"}))

	d := s.Data()
	assert.Equal(t, 4, d.TotalReviews)
	assert.Equal(t, []string{"Acme", "Globex", model.UnknownBrand}, d.AvailableBrands)
	assert.Equal(t, "reviews.csv", s.Source())
	assert.Len(t, s.Records(), 4)
}

func TestShellLoadErrorKeepsData(t *testing.T) {
	s := New()
	s.SetRecords("first.csv", sampleRecords())

	loader := &fakeLoader{err: &ingest.Error{Source: "second.csv", Err: errors.New("boom")}}
	err := s.Load(context.Background(), loader, ingest.Source{Path: "second.csv"})
	require.ErrorIs(t, err, ingest.ErrIngest)

	assert.Equal(t, "first.csv", s.Source())
	assert.Equal(t, 4, s.Data().TotalReviews)
}

func TestShellLoadFromJobResolvesFreshURL(t *testing.T) {
	checker := &fakeChecker{statuses: []*model.JobStatus{
		{Status: "completed", CSVDownloadURL: "https://s3.example.com/a.csv?sig=1"},
		{Status: "completed", CSVDownloadURL: "https://s3.example.com/a.csv?sig=2"},
	}}
	loader := &fakeLoader{records: sampleRecords()}
	s := New()

	require.NoError(t, s.LoadFromJob(context.Background(), checker, loader, "analysis-1"))
	require.NoError(t, s.LoadFromJob(context.Background(), checker, loader, "analysis-1"))

	require.Len(t, loader.sources, 2)
	assert.Equal(t, "https://s3.example.com/a.csv?sig=1", loader.sources[0].URL)
	assert.Equal(t, "https://s3.example.com/a.csv?sig=2", loader.sources[1].URL)
	assert.Equal(t, "https://s3.example.com/a.csv?sig=2", s.Source())
}

func TestShellLoadFromJobErrors(t *testing.T) {
	tests := []struct {
		name   string
		status *model.JobStatus
		check  func(t *testing.T, err error)
	}{
		{
			name:   "failed job",
			status: &model.JobStatus{Status: "error"},
			check: func(t *testing.T, err error) {
				var jf *poller.JobFailedError
				require.ErrorAs(t, err, &jf)
				assert.Equal(t, poller.DefaultFailureMessage, jf.Message)
			},
		},
		{
			name:   "still running",
			status: &model.JobStatus{Status: "processing"},
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, ErrJobRunning)
				assert.Contains(t, err.Error(), "still processing")
			},
		},
		{
			name:   "no csv",
			status: &model.JobStatus{Status: "completed"},
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, ErrNoCSV)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := &fakeLoader{}
			s := New()
			err := s.LoadFromJob(context.Background(), &fakeChecker{statuses: []*model.JobStatus{tt.status}}, loader, "job-1")
			require.Error(t, err)
			tt.check(t, err)
			assert.Empty(t, loader.sources)
		})
	}
}

func TestShellBrandFilter(t *testing.T) {
	s := New()
	s.SetRecords("x.csv", sampleRecords())

	s.SetBrandFilter([]string{" acme ", ""})
	d := s.Data()
	assert.Equal(t, 2, d.TotalReviews)
	assert.Equal(t, []string{"acme"}, d.ActiveBrands)
	assert.Len(t, d.AvailableBrands, 3, "available brands ignore the filter")

	s.SetBrandFilter([]string{"Acme", "Globex", "Unknown"})
	assert.Equal(t, 4, s.Data().TotalReviews)
	assert.Empty(t, s.Data().ActiveBrands, "a filter covering every brand is no filter")

	s.SetBrandFilter(nil)
	assert.Equal(t, 4, s.Data().TotalReviews)
}

func TestShellToggleBrand(t *testing.T) {
	s := New()
	s.SetRecords("x.csv", sampleRecords())

	s.ToggleBrand("Globex")
	assert.Equal(t, []string{"Globex"}, s.BrandFilter())
	assert.Equal(t, 1, s.Data().TotalReviews)

	s.ToggleBrand("Acme")
	assert.Equal(t, 3, s.Data().TotalReviews)

	s.ToggleBrand("globex")
	assert.Equal(t, []string{"Acme"}, s.BrandFilter())

	s.ToggleBrand("Acme")
	assert.Empty(t, s.BrandFilter())
	assert.Equal(t, 4, s.Data().TotalReviews)

	s.ToggleBrand("  ")
	assert.Empty(t, s.BrandFilter())
}

func TestShellTrendAnchor(t *testing.T) {
	s := New(WithNow(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)))
	s.SetRecords("x.csv", sampleRecords())
	assert.Empty(t, s.Data().Trend, "february reviews fall outside a window anchored in august")

	latest := New()
	latest.SetRecords("x.csv", sampleRecords())
	assert.NotEmpty(t, latest.Data().Trend)
}

func TestShellConcurrentUse(t *testing.T) {
	s := New()
	s.SetRecords("x.csv", sampleRecords())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.ToggleBrand("Acme")
		}()
		go func() {
			defer wg.Done()
			var buf bytes.Buffer
			assert.NoError(t, s.Render(&buf))
			_ = s.Data()
		}()
	}
	wg.Wait()
	assert.Empty(t, s.BrandFilter(), "an even number of toggles cancels out")
}
