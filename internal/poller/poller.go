// Package poller tracks long-running backend jobs by checking their status
// at a fixed interval until they finish, fail or run out of attempts.
package poller

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/voc-cli/internal/model"
	"github.com/sells-group/voc-cli/internal/monitoring"
)

// Defaults applied to a zero Config.
const (
	DefaultInterval    = 5 * time.Second
	DefaultMaxAttempts = 60
)

// Progress is one non-terminal observation.
type Progress = model.Progress

// StatusFunc fetches the current status of a job.
type StatusFunc func(ctx context.Context, jobID string) (*model.JobStatus, error)

// Config controls one poller.
type Config struct {
	// Interval is the wait between the end of one check and the next.
	Interval time.Duration
	// MaxAttempts bounds the number of checks, failed ones included.
	MaxAttempts int
	// Classify maps a status to a phase. Default (*model.JobStatus).Phase.
	Classify func(*model.JobStatus) model.JobPhase
	// Name labels logs and metrics.
	Name string
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.Classify == nil {
		c.Classify = (*model.JobStatus).Phase
	}
	return c
}

// Listener receives poller events. Nil callbacks are skipped. Exactly one
// of OnComplete or OnFail fires unless the poller is stopped first.
type Listener struct {
	OnProgress func(Progress)
	OnComplete func(*model.JobStatus)
	OnFail     func(error)
}

// Handle controls a running poller.
type Handle struct {
	jobID   string
	cancel  context.CancelFunc
	done    chan struct{}
	stopped atomic.Bool
}

// JobID returns the job being polled.
func (h *Handle) JobID() string { return h.jobID }

// Stop cancels the poller. Once it returns no further delivery is
// attempted; a callback already running may still finish. Stop does not
// wait for the goroutine, so it is safe to call from a callback or while
// holding a lock the callbacks take. Use Wait to join.
func (h *Handle) Stop() {
	if h == nil || h.stopped.Swap(true) {
		return
	}
	h.cancel()
}

// Done is closed when the poller goroutine exits.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the poller goroutine exits.
func (h *Handle) Wait() { <-h.done }

// Stopped reports whether Stop was called.
func (h *Handle) Stopped() bool { return h.stopped.Load() }

// deliver runs fn unless the handle was stopped.
func (h *Handle) deliver(fn func()) bool {
	if h.stopped.Load() {
		return false
	}
	fn()
	return true
}

// Start polls jobID in a new goroutine. The first check runs immediately.
// Cancelling ctx behaves like Stop.
func Start(ctx context.Context, jobID string, fetch StatusFunc, cfg Config, l Listener) *Handle {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{jobID: jobID, cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(h.done)
		defer cancel()
		run(ctx, h, fetch, cfg, l)
	}()
	return h
}

func run(ctx context.Context, h *Handle, fetch StatusFunc, cfg Config, l Listener) {
	log := zap.L().With(zap.String("poller", cfg.Name), zap.String("job_id", h.jobID))

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			monitoring.RecordPollOutcome(cfg.Name, monitoring.OutcomeStopped)
			return
		}

		monitoring.RecordPollAttempt(cfg.Name)
		status, err := fetch(ctx, h.jobID)
		switch {
		case ctx.Err() != nil:
			monitoring.RecordPollOutcome(cfg.Name, monitoring.OutcomeStopped)
			return
		case err != nil:
			log.Warn("poller: status check failed", zap.Int("attempt", attempt), zap.Error(err))
		case status == nil:
			log.Warn("poller: empty status", zap.Int("attempt", attempt))
		default:
			switch cfg.Classify(status) {
			case model.JobCompleted:
				log.Info("poller: job completed", zap.Int("attempt", attempt))
				if h.deliver(func() { call(l.OnComplete, status) }) {
					monitoring.RecordPollOutcome(cfg.Name, monitoring.OutcomeCompleted)
				}
				return
			case model.JobFailed:
				msg := status.Message
				if msg == "" {
					msg = DefaultFailureMessage
				}
				ferr := &JobFailedError{JobID: h.jobID, Status: status.Status, Message: msg}
				log.Error("poller: job failed", zap.Int("attempt", attempt), zap.String("message", msg))
				if h.deliver(func() { call(l.OnFail, error(ferr)) }) {
					monitoring.RecordPollOutcome(cfg.Name, monitoring.OutcomeFailed)
				}
				return
			default:
				p := model.ProgressFrom(h.jobID, status, attempt)
				h.deliver(func() { call(l.OnProgress, p) })
			}
		}

		if attempt == cfg.MaxAttempts {
			break
		}
		t := time.NewTimer(cfg.Interval)
		select {
		case <-ctx.Done():
			t.Stop()
			monitoring.RecordPollOutcome(cfg.Name, monitoring.OutcomeStopped)
			return
		case <-t.C:
		}
	}

	log.Warn("poller: attempts exhausted", zap.Int("max_attempts", cfg.MaxAttempts))
	if h.deliver(func() { call(l.OnFail, ErrTimeout) }) {
		monitoring.RecordPollOutcome(cfg.Name, monitoring.OutcomeTimeout)
	}
}

func call[T any](fn func(T), v T) {
	if fn != nil {
		fn(v)
	}
}

// Wait polls jobID on the calling goroutine and returns the completed
// status, a *JobFailedError, ErrTimeout or the context error.
func Wait(ctx context.Context, jobID string, fetch StatusFunc, cfg Config, onProgress func(Progress)) (*model.JobStatus, error) {
	var (
		result *model.JobStatus
		failed error
	)
	h := Start(ctx, jobID, fetch, cfg, Listener{
		OnProgress: onProgress,
		OnComplete: func(s *model.JobStatus) { result = s },
		OnFail:     func(err error) { failed = err },
	})
	h.Wait()

	switch {
	case result != nil:
		return result, nil
	case failed != nil:
		return nil, failed
	default:
		return nil, ctx.Err()
	}
}
