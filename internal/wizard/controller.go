// Package wizard drives the intake flow from a company website to a
// finished review analysis. A single Controller owns the accumulated
// state; callers read snapshots and advance it through step methods.
package wizard

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/voc-cli/internal/model"
	"github.com/sells-group/voc-cli/internal/poller"
	"github.com/sells-group/voc-cli/pkg/voc"
)

// Persister saves the session after every state change.
type Persister interface {
	SaveSession(ctx context.Context, s *model.Session) error
}

// Snapshot is a read-only copy of the wizard state.
type Snapshot struct {
	SessionID string
	CreatedAt time.Time
	State     model.WizardState
	// Busy is set while a website analysis job is being polled.
	Busy bool
}

// Discovering reports whether any maps discovery job is in flight.
func (s Snapshot) Discovering() bool {
	for _, d := range s.State.Discovery {
		if d.Status == model.DiscoveryRunning {
			return true
		}
	}
	return false
}

// ScrapingComplete reports whether the scrape finished and its CSV can be
// downloaded.
func (s Snapshot) ScrapingComplete() bool {
	return s.State.Step == model.StepScrapingProgress && s.State.Scrape != nil
}

// LongRunning reports whether the session may be closed while the
// analysis job finishes in the background.
func (s Snapshot) LongRunning() bool {
	return s.State.Step == model.StepAnalysisProgress
}

// CanAdvance reports whether the current step's completion action is
// enabled.
func (s Snapshot) CanAdvance() bool {
	switch s.State.Step {
	case model.StepWebsite:
		return !s.Busy
	case model.StepMapLocations:
		return !s.Discovering()
	case model.StepScrapingProgress:
		return s.ScrapingComplete()
	case model.StepAnalysisProgress, model.StepSuccess, model.StepFailed:
		return false
	default:
		return true
	}
}

// CSVDownloadURL returns the most recent CSV location, if any.
func (s Snapshot) CSVDownloadURL() string {
	if s.State.Analysis != nil && s.State.Analysis.CSVDownloadURL != "" {
		return s.State.Analysis.CSVDownloadURL
	}
	if s.State.Scrape != nil {
		return s.State.Scrape.CSVDownloadURL
	}
	return ""
}

// Option configures a Controller.
type Option func(*Controller)

// WithPersister saves every state change through p.
func WithPersister(p Persister) Option {
	return func(c *Controller) {
		c.persist = p
	}
}

// WithClock overrides time.Now for session timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

type subscriber struct {
	id int
	fn func(Snapshot)
}

// handlers run with the controller lock held.
type handlers struct {
	progress func(model.Progress)
	complete func(*model.JobStatus)
	fail     func(error)
}

// Controller owns one wizard session.
type Controller struct {
	client  voc.Client
	cfg     Config
	persist Persister
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	sessionID   string
	createdAt   time.Time
	state       model.WizardState
	gen         uint64
	version     uint64
	closed      bool
	pollers     map[string]*poller.Handle
	timers      map[string]*time.Timer
	discoverSeq map[string]uint64
	active      int
	idle        chan struct{}

	subMu   sync.Mutex
	subs    []subscriber
	nextSub int

	// notifyMu orders saves and notifications.
	notifyMu  sync.Mutex
	published uint64
	lastStep  model.Step
}

// New creates a controller on the first step with a fresh session id.
func New(client voc.Client, cfg Config, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	idle := make(chan struct{})
	close(idle)

	c := &Controller{
		client:      client,
		cfg:         cfg.withNames(),
		now:         time.Now,
		ctx:         ctx,
		cancel:      cancel,
		state:       model.NewWizardState(),
		pollers:     make(map[string]*poller.Handle),
		timers:      make(map[string]*time.Timer),
		discoverSeq: make(map[string]uint64),
		idle:        idle,
	}
	for _, o := range opts {
		o(c)
	}
	c.sessionID = uuid.NewString()
	c.createdAt = c.now().UTC()
	return c
}

// SessionID returns the current session id. Reset starts a new one.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Snapshot returns a deep copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		SessionID: c.sessionID,
		CreatedAt: c.createdAt,
		State:     c.state.Clone(),
		Busy:      c.pollers["website"] != nil,
	}
}

// Subscribe registers fn for every state change. Notifications are
// delivered in order; fn must not call step methods synchronously.
func (c *Controller) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.nextSub++
	id := c.nextSub
	c.subs = append(c.subs, subscriber{id: id, fn: fn})

	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		for i, s := range c.subs {
			if s.id == id {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

// mutate runs fn under the lock and publishes the state when fn reports a
// change.
func (c *Controller) mutate(fn func() bool) {
	c.mu.Lock()
	if !fn() {
		c.mu.Unlock()
		return
	}
	snap, v := c.commitLocked()
	c.mu.Unlock()
	c.publish(snap, v)
}

func (c *Controller) commitLocked() (Snapshot, uint64) {
	c.version++
	return c.snapshotLocked(), c.version
}

// publish saves and broadcasts snap unless a newer version already went
// out.
func (c *Controller) publish(snap Snapshot, version uint64) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if version <= c.published {
		return
	}
	c.published = version

	if snap.State.Step != c.lastStep {
		zap.L().Info("wizard: step",
			zap.String("session_id", snap.SessionID),
			zap.String("step", string(snap.State.Step)),
			zap.String("from", string(c.lastStep)),
		)
		c.lastStep = snap.State.Step
	}

	c.save(snap)

	c.subMu.Lock()
	subs := append([]subscriber(nil), c.subs...)
	c.subMu.Unlock()
	for _, s := range subs {
		s.fn(snap)
	}
}

func (c *Controller) save(snap Snapshot) {
	if c.persist == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sess := &model.Session{
		ID:        snap.SessionID,
		State:     snap.State,
		CreatedAt: snap.CreatedAt,
		UpdatedAt: c.now().UTC(),
	}
	if err := c.persist.SaveSession(ctx, sess); err != nil {
		zap.L().Warn("wizard: save session failed",
			zap.String("session_id", snap.SessionID),
			zap.Error(err),
		)
	}
}

// checkLocked returns ErrClosed or ErrWrongStep unless the wizard is on
// step.
func (c *Controller) checkLocked(step model.Step) error {
	if c.closed {
		return ErrClosed
	}
	if c.state.Step != step {
		return eris.Wrapf(ErrWrongStep, "wizard: on %s, not %s", c.state.Step, step)
	}
	return nil
}

// recordError shows err on step unless the wizard moved on since gen.
func (c *Controller) recordError(gen uint64, step model.Step, err error) error {
	c.mutate(func() bool {
		if c.gen != gen || c.state.Step != step {
			return false
		}
		c.state.Error = UserMessage(err)
		return true
	})
	return err
}

// failLocked moves to the failed step.
func (c *Controller) failLocked(from model.Step, err error) {
	zap.L().Error("wizard: job failed",
		zap.String("session_id", c.sessionID),
		zap.String("step", string(from)),
		zap.Error(err),
	)
	c.state.Step = model.StepFailed
	c.state.FailedFrom = from
	c.state.Error = UserMessage(err)
	c.state.Progress = nil
}

func (c *Controller) beginLocked() {
	if c.active == 0 {
		c.idle = make(chan struct{})
	}
	c.active++
}

func (c *Controller) endLocked() {
	c.active--
	if c.active == 0 {
		close(c.idle)
	}
}

func (c *Controller) end() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endLocked()
}

// trackLocked starts a poller for jobID under key, replacing any poller
// already there. Callbacks from a replaced or stopped poller are dropped.
func (c *Controller) trackLocked(key, jobID string, pc poller.Config, hs handlers) {
	c.stopPollerLocked(key)

	var h *poller.Handle
	owned := func() bool { return c.pollers[key] == h }

	l := poller.Listener{
		OnProgress: func(p poller.Progress) {
			c.mutate(func() bool {
				if !owned() || hs.progress == nil {
					return false
				}
				hs.progress(p)
				return true
			})
		},
		OnComplete: func(s *model.JobStatus) {
			c.mutate(func() bool {
				if !owned() {
					return false
				}
				delete(c.pollers, key)
				hs.complete(s)
				return true
			})
		},
		OnFail: func(err error) {
			c.mutate(func() bool {
				if !owned() {
					return false
				}
				delete(c.pollers, key)
				hs.fail(err)
				return true
			})
		},
	}

	h = poller.Start(c.ctx, jobID, c.client.CheckStatus, pc, l)
	c.pollers[key] = h
	c.beginLocked()
	go func() {
		<-h.Done()
		c.end()
	}()
}

func (c *Controller) stopPollerLocked(key string) {
	if h := c.pollers[key]; h != nil {
		h.Stop()
		delete(c.pollers, key)
	}
}

func (c *Controller) stopTimerLocked(key string) {
	if t := c.timers[key]; t != nil {
		if t.Stop() {
			c.endLocked()
		}
		delete(c.timers, key)
	}
}

// stopAllLocked stops every poller and pending discovery and invalidates
// in-flight submissions.
func (c *Controller) stopAllLocked() {
	for key := range c.pollers {
		c.stopPollerLocked(key)
	}
	for key := range c.timers {
		c.stopTimerLocked(key)
	}
	c.gen++
}

// Reset stops all jobs and starts a new session on the first step.
func (c *Controller) Reset() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.stopAllLocked()
	c.state = model.NewWizardState()
	c.sessionID = uuid.NewString()
	c.createdAt = c.now().UTC()
	snap, v := c.commitLocked()
	c.mu.Unlock()
	c.publish(snap, v)
}

// Retry returns from the failed step to the step that submitted the
// failed job.
func (c *Controller) Retry() error {
	var err error
	c.mutate(func() bool {
		if err = c.checkLocked(model.StepFailed); err != nil {
			return false
		}
		switch c.state.FailedFrom {
		case model.StepScrapingProgress:
			c.state.Step = model.StepReviewLinks
			c.state.JobID = ""
			c.state.Scrape = nil
		case model.StepAnalysisProgress:
			c.state.Step = model.StepScrapingProgress
			c.state.AnalysisJobID = ""
		default:
			c.state.Step = model.StepWebsite
		}
		c.state.FailedFrom = ""
		c.state.Error = ""
		c.state.Progress = nil
		return true
	})
	return err
}

// Restore replaces the state with a saved session and resumes any job the
// session was waiting on.
func (c *Controller) Restore(sess *model.Session) error {
	if sess == nil || sess.ID == "" {
		return eris.New("wizard: restore: empty session")
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.stopAllLocked()
	c.sessionID = sess.ID
	c.createdAt = sess.CreatedAt
	c.state = sess.State.Clone()
	if c.state.Step == "" {
		c.state.Step = model.StepWebsite
	}

	switch c.state.Step {
	case model.StepWebsite:
		if p := c.state.Progress; p != nil && p.JobID != "" {
			c.trackWebsiteLocked(p.JobID)
		}
	case model.StepMapLocations:
		for key, d := range c.state.Discovery {
			if d.Status != model.DiscoveryRunning {
				continue
			}
			if d.JobID != "" {
				c.trackDiscoveryLocked(key, d.JobID)
			} else {
				c.scheduleDiscoveryLocked(key, 0)
			}
		}
	case model.StepScrapingProgress:
		if c.state.Scrape == nil && c.state.JobID != "" {
			c.trackScrapeLocked()
		}
	case model.StepAnalysisProgress:
		if c.state.AnalysisJobID != "" {
			c.trackAnalysisLocked()
		}
	}

	snap, v := c.commitLocked()
	c.mu.Unlock()

	zap.L().Info("wizard: restored session",
		zap.String("session_id", sess.ID),
		zap.String("step", string(snap.State.Step)),
	)
	c.publish(snap, v)
	return nil
}

// Wait blocks until no job or pending discovery is active, or ctx is
// done.
func (c *Controller) Wait(ctx context.Context) error {
	for {
		c.mu.Lock()
		if c.active == 0 {
			c.mu.Unlock()
			return nil
		}
		idle := c.idle
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-idle:
		}
	}
}

// Close stops every job and waits for the pollers to exit. The session is
// left as it was last saved, so it can be restored later.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopAllLocked()
	c.mu.Unlock()

	c.cancel()
	_ = c.Wait(context.Background())
}
