package wizard

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/voc-cli/internal/model"
	"github.com/sells-group/voc-cli/internal/poller"
	"github.com/sells-group/voc-cli/pkg/voc"
)

// discoveryConcurrency bounds DiscoverAll.
const discoveryConcurrency = 8

// DiscoverLocations starts or restarts maps discovery for one company.
// Results are merged into the company's links when the job completes.
func (c *Controller) DiscoverLocations(name string) error {
	var err error
	c.mutate(func() bool {
		if err = c.checkLocked(model.StepMapLocations); err != nil {
			return false
		}
		key := model.Company{Name: name}.Key()
		if _, ok := c.companyLocked(key); !ok {
			err = eris.Wrapf(ErrUnknownCompany, "wizard: discover %q", name)
			return false
		}
		c.scheduleDiscoveryLocked(key, 0)
		return true
	})
	return err
}

func (c *Controller) companyLocked(key string) (int, bool) {
	for i, co := range c.state.Companies {
		if co.Key() == key {
			return i, true
		}
	}
	return -1, false
}

// scheduleDiscoveryLocked marks key as running and submits its discovery
// job after delay. Any earlier discovery for key is abandoned.
func (c *Controller) scheduleDiscoveryLocked(key string, delay time.Duration) {
	c.stopTimerLocked(key)
	c.stopPollerLocked("maps:" + key)

	c.discoverSeq[key]++
	seq := c.discoverSeq[key]
	if c.state.Discovery == nil {
		c.state.Discovery = make(map[string]model.DiscoveryState)
	}
	c.state.Discovery[key] = model.DiscoveryState{Status: model.DiscoveryRunning}

	gen := c.gen
	c.beginLocked()
	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		c.mu.Lock()
		if c.timers[key] != t {
			// Stopped after it had already fired.
			c.endLocked()
			c.mu.Unlock()
			return
		}
		delete(c.timers, key)
		c.mu.Unlock()

		defer c.end()
		c.submitDiscovery(key, gen, seq)
	})
	c.timers[key] = t
}

func (c *Controller) submitDiscovery(key string, gen, seq uint64) {
	c.mu.Lock()
	i, ok := c.companyLocked(key)
	if c.closed || c.gen != gen || c.discoverSeq[key] != seq || !ok {
		c.mu.Unlock()
		return
	}
	co := c.state.Companies[i]
	ctx := c.ctx
	c.mu.Unlock()

	res, err := c.client.DiscoverMaps(ctx, voc.DiscoverMapsRequest{CompanyName: co.Name, Website: co.Website})

	c.mutate(func() bool {
		if c.closed || c.gen != gen || c.discoverSeq[key] != seq {
			return false
		}
		if err != nil {
			zap.L().Warn("wizard: maps discovery failed", zap.String("company", co.Name), zap.Error(err))
			c.state.Discovery[key] = model.DiscoveryState{Status: model.DiscoveryFailed, Error: UserMessage(err)}
			return true
		}
		if res.JobID == "" {
			c.mergeLocationsLocked(key, "", res.Locations)
			return true
		}
		c.state.Discovery[key] = model.DiscoveryState{Status: model.DiscoveryRunning, JobID: res.JobID}
		c.trackDiscoveryLocked(key, res.JobID)
		return true
	})
}

func (c *Controller) trackDiscoveryLocked(key, jobID string) {
	c.trackLocked("maps:"+key, jobID, c.cfg.Maps, handlers{
		complete: func(s *model.JobStatus) {
			locs, err := voc.DecodeLocations(s.Result)
			if err != nil {
				c.state.Discovery[key] = model.DiscoveryState{Status: model.DiscoveryFailed, JobID: jobID, Error: UserMessage(err)}
				return
			}
			c.mergeLocationsLocked(key, jobID, locs)
		},
		fail: func(err error) {
			c.state.Discovery[key] = model.DiscoveryState{Status: model.DiscoveryFailed, JobID: jobID, Error: UserMessage(err)}
		},
	})
}

func (c *Controller) mergeLocationsLocked(key, jobID string, locs []model.MapLocationLink) {
	if i, ok := c.companyLocked(key); ok {
		c.state.Companies[i].MapsLinks = model.MergeLocations(c.state.Companies[i].MapsLinks, locs)
	}
	c.state.Discovery[key] = model.DiscoveryState{Status: model.DiscoveryDone, JobID: jobID, Found: len(locs)}
}

// DiscoverAll runs maps discovery for every company concurrently and
// returns the companies with the discovered locations merged in. A failed
// company is reported in the returned states and does not stop the rest.
func DiscoverAll(ctx context.Context, client voc.Client, companies []model.Company, cfg Config) ([]model.Company, map[string]model.DiscoveryState, error) {
	cfg = cfg.withNames()
	out := model.CloneCompanies(companies)
	states := make(map[string]model.DiscoveryState, len(out))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(discoveryConcurrency)

	for i := range out {
		co := out[i]
		delay := cfg.DiscoveryStagger * time.Duration(i)
		g.Go(func() error {
			if err := sleep(gctx, delay); err != nil {
				return err
			}
			locs, jobID, err := discoverOne(gctx, client, co, cfg.Maps)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				zap.L().Warn("wizard: maps discovery failed", zap.String("company", co.Name), zap.Error(err))
				states[co.Key()] = model.DiscoveryState{Status: model.DiscoveryFailed, JobID: jobID, Error: UserMessage(err)}
				return nil
			}
			out[i].MapsLinks = model.MergeLocations(out[i].MapsLinks, locs)
			states[co.Key()] = model.DiscoveryState{Status: model.DiscoveryDone, JobID: jobID, Found: len(locs)}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, eris.Wrap(err, "wizard: discover locations")
	}
	return out, states, nil
}

func discoverOne(ctx context.Context, client voc.Client, co model.Company, pc poller.Config) ([]model.MapLocationLink, string, error) {
	res, err := client.DiscoverMaps(ctx, voc.DiscoverMapsRequest{CompanyName: co.Name, Website: co.Website})
	if err != nil {
		return nil, "", err
	}
	if res.JobID == "" {
		return res.Locations, "", nil
	}

	status, err := poller.Wait(ctx, res.JobID, client.CheckStatus, pc, nil)
	if err != nil {
		return nil, res.JobID, err
	}
	locs, err := voc.DecodeLocations(status.Result)
	return locs, res.JobID, err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
