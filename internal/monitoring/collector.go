package monitoring

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/voc-cli/internal/model"
)

// SessionLister is the store method the collector needs.
type SessionLister interface {
	ListSessions(ctx context.Context, filter model.SessionFilter) ([]model.Session, error)
}

// Snapshot is a point-in-time view of wizard sessions.
type Snapshot struct {
	Total     int                `json:"total"`
	ByStep    map[model.Step]int `json:"by_step"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
	// Running counts sessions waiting on a scrape or analysis job.
	Running  int     `json:"running"`
	FailRate float64 `json:"fail_rate"`

	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// Collector summarises persisted sessions.
type Collector struct {
	store SessionLister
}

// NewCollector creates a session collector.
func NewCollector(st SessionLister) *Collector {
	return &Collector{store: st}
}

// Collect summarises sessions updated within the lookback window. A
// non-positive lookback covers every session.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*Snapshot, error) {
	now := time.Now().UTC()
	snap := &Snapshot{
		ByStep:        make(map[model.Step]int),
		LookbackHours: lookbackHours,
		CollectedAt:   now,
	}

	sessions, err := c.store.ListSessions(ctx, model.SessionFilter{Limit: 10000})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list sessions")
	}

	cutoff := now.Add(-time.Duration(lookbackHours) * time.Hour)
	for _, s := range sessions {
		if lookbackHours > 0 && s.UpdatedAt.Before(cutoff) {
			continue
		}
		snap.Total++
		snap.ByStep[s.State.Step]++
		switch s.State.Step {
		case model.StepSuccess:
			snap.Succeeded++
		case model.StepFailed:
			snap.Failed++
		case model.StepScrapingProgress, model.StepAnalysisProgress:
			snap.Running++
		}
	}

	if finished := snap.Succeeded + snap.Failed; finished > 0 {
		snap.FailRate = float64(snap.Failed) / float64(finished)
	}
	return snap, nil
}

var sessionsDesc = prometheus.NewDesc(
	"voc_sessions",
	"Persisted wizard sessions by current step.",
	[]string{"step"}, nil,
)

// Metrics returns a prometheus.Collector reporting session counts per
// step, read from the store on every scrape.
func (c *Collector) Metrics() prometheus.Collector {
	return sessionMetrics{c: c}
}

type sessionMetrics struct {
	c *Collector
}

func (m sessionMetrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- sessionsDesc
}

func (m sessionMetrics) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	snap, err := m.c.Collect(ctx, 0)
	if err != nil {
		zap.L().Warn("monitoring: session scrape failed", zap.Error(err))
		return
	}
	for _, step := range append(model.Steps(), model.StepFailed) {
		ch <- prometheus.MustNewConstMetric(sessionsDesc, prometheus.GaugeValue, float64(snap.ByStep[step]), string(step))
	}
}
