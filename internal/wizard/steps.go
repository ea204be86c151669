package wizard

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/voc-cli/internal/model"
	"github.com/sells-group/voc-cli/pkg/voc"
)

// SubmitWebsite analyses the company website. A synchronous answer moves
// to the competitors step at once; a job answer is polled in the
// background and the step advances when it completes. Failures stay on
// the website step.
func (c *Controller) SubmitWebsite(ctx context.Context, raw string) error {
	c.mu.Lock()
	if err := c.checkLocked(model.StepWebsite); err != nil {
		c.mu.Unlock()
		return err
	}
	gen := c.gen
	c.mu.Unlock()

	website, err := NormalizeURL(raw)
	if err != nil {
		return c.recordError(gen, model.StepWebsite, err)
	}

	c.mutate(func() bool {
		if c.gen != gen || c.state.Step != model.StepWebsite {
			return false
		}
		c.stopPollerLocked("website")
		c.state.Website = website
		c.state.Error = ""
		c.state.Progress = nil
		return true
	})

	res, err := c.client.AnalyzeWebsite(ctx, website)
	if err != nil {
		return c.recordError(gen, model.StepWebsite, err)
	}

	if len(res.Companies) == 0 && res.JobID == "" {
		return c.recordError(gen, model.StepWebsite, ErrNoCompaniesFound)
	}

	c.mutate(func() bool {
		if c.gen != gen || c.state.Step != model.StepWebsite {
			err = ErrWrongStep
			return false
		}
		if len(res.Companies) > 0 {
			c.acceptCompaniesLocked(res.Companies)
			return true
		}
		c.state.Progress = &model.Progress{JobID: res.JobID, Status: "queued"}
		c.trackWebsiteLocked(res.JobID)
		return true
	})
	return err
}

func (c *Controller) trackWebsiteLocked(jobID string) {
	c.trackLocked("website", jobID, c.cfg.Website, handlers{
		progress: func(p model.Progress) {
			c.state.Progress = &p
		},
		complete: func(s *model.JobStatus) {
			c.state.Progress = nil
			companies, err := voc.DecodeCompanies(s.Result)
			if err == nil && len(companies) == 0 {
				err = ErrNoCompaniesFound
			}
			if err != nil {
				c.state.Error = UserMessage(err)
				return
			}
			c.acceptCompaniesLocked(companies)
		},
		fail: func(err error) {
			c.state.Progress = nil
			c.state.Error = UserMessage(err)
		},
	})
}

func (c *Controller) acceptCompaniesLocked(companies []model.Company) {
	out := make([]model.Company, 0, len(companies))
	for _, co := range companies {
		co = co.Clone()
		co.Name = strings.TrimSpace(co.Name)
		if co.Name == "" {
			continue
		}
		co.Website = strings.TrimSpace(co.Website)
		co.MapsLinks = model.NormalizeLinks(co.MapsLinks)
		out = append(out, co)
	}
	c.state.Companies = out
	c.state.Step = model.StepCompetitors
	c.state.Error = ""
	c.state.Progress = nil
}

// CompleteCompetitors confirms the edited competitor list and resolves
// store ids for it before moving to the app identifiers step.
func (c *Controller) CompleteCompetitors(ctx context.Context, companies []model.Company) error {
	c.mu.Lock()
	if err := c.checkLocked(model.StepCompetitors); err != nil {
		c.mu.Unlock()
		return err
	}
	gen := c.gen
	c.mu.Unlock()

	cleaned, err := cleanCompanies(companies)
	if err != nil {
		return c.recordError(gen, model.StepCompetitors, err)
	}

	resolved, err := c.client.ResolveAppIDs(ctx, cleaned)
	if err != nil {
		return c.recordError(gen, model.StepCompetitors, err)
	}

	c.mutate(func() bool {
		if c.gen != gen || c.state.Step != model.StepCompetitors {
			err = ErrWrongStep
			return false
		}
		c.state.Companies = mergeAppIDs(cleaned, resolved)
		c.state.Step = model.StepAppIdentifiers
		c.state.Error = ""
		return true
	})
	return err
}

// CompleteAppIdentifiers stores the confirmed store ids. On the first
// visit to the map locations step, discovery starts for every company
// that has no locations yet.
func (c *Controller) CompleteAppIdentifiers(companies []model.Company) error {
	cleaned, cerr := cleanCompanies(companies)

	var err error
	c.mutate(func() bool {
		if err = c.checkLocked(model.StepAppIdentifiers); err != nil {
			return false
		}
		if cerr != nil {
			err = cerr
			c.state.Error = UserMessage(cerr)
			return true
		}

		c.state.Companies = cleaned
		c.state.Step = model.StepMapLocations
		c.state.Error = ""
		if c.state.Discovery == nil {
			c.state.Discovery = make(map[string]model.DiscoveryState)
		}

		if c.cfg.AutoDiscover && !c.state.AutoDiscovered {
			c.state.AutoDiscovered = true
			n := 0
			for _, co := range cleaned {
				if len(co.MapsLinks) > 0 {
					continue
				}
				c.scheduleDiscoveryLocked(co.Key(), c.cfg.DiscoveryStagger*time.Duration(n))
				n++
			}
		}
		return true
	})
	return err
}

// CompleteMapLocations stores the confirmed locations. It fails with
// ErrDiscoveryInFlight while any discovery job is running.
func (c *Controller) CompleteMapLocations(companies []model.Company) error {
	cleaned, cerr := cleanCompanies(companies)

	var err error
	c.mutate(func() bool {
		if err = c.checkLocked(model.StepMapLocations); err != nil {
			return false
		}
		for _, d := range c.state.Discovery {
			if d.Status == model.DiscoveryRunning {
				err = ErrDiscoveryInFlight
				return false
			}
		}
		if cerr != nil {
			err = cerr
			c.state.Error = UserMessage(cerr)
			return true
		}

		c.state.Companies = cleaned
		c.state.Step = model.StepReviewLinks
		c.state.Error = ""
		return true
	})
	return err
}

// CompleteReviewLinks stores one review platform link per company and
// starts the scraping job. links is keyed by company name.
func (c *Controller) CompleteReviewLinks(ctx context.Context, links map[string]string) error {
	c.mu.Lock()
	if err := c.checkLocked(model.StepReviewLinks); err != nil {
		c.mu.Unlock()
		return err
	}
	gen := c.gen
	companies, err := applyReviewLinks(c.state.Companies, links)
	c.mu.Unlock()
	if err != nil {
		return c.recordError(gen, model.StepReviewLinks, err)
	}

	acc, err := c.client.ScrapeReviews(ctx, voc.ScrapeRequest{
		Brands: companies,
		JobID:  uuid.NewString(),
	})
	if err != nil {
		return c.recordError(gen, model.StepReviewLinks, err)
	}

	c.mutate(func() bool {
		if c.gen != gen || c.state.Step != model.StepReviewLinks {
			err = ErrWrongStep
			return false
		}
		c.state.Companies = companies
		c.state.JobID = acc.JobID
		c.state.Scrape = nil
		c.state.Error = ""
		c.state.Step = model.StepScrapingProgress
		c.state.Progress = &model.Progress{JobID: acc.JobID, Status: "queued", Message: acc.Message}
		c.trackScrapeLocked()
		return true
	})
	return err
}

func (c *Controller) trackScrapeLocked() {
	jobID := c.state.JobID
	c.trackLocked("scrape", jobID, c.cfg.Scrape, handlers{
		progress: func(p model.Progress) {
			c.state.Progress = &p
		},
		complete: func(s *model.JobStatus) {
			c.state.Scrape = c.scrapeOutcome(jobID, s)
			c.state.Progress = &model.Progress{
				JobID:     jobID,
				Status:    s.Status,
				Message:   s.Message,
				Processed: s.Processed,
				Total:     s.Total,
			}
			zap.L().Info("wizard: scraping complete",
				zap.String("session_id", c.sessionID),
				zap.String("job_id", jobID),
				zap.String("s3_key", c.state.Scrape.S3Key),
			)
		},
		fail: func(err error) {
			c.failLocked(model.StepScrapingProgress, err)
		},
	})
}

func (c *Controller) scrapeOutcome(jobID string, s *model.JobStatus) *model.ScrapeOutcome {
	out := &model.ScrapeOutcome{
		S3Key:          s.S3Key,
		CSVDownloadURL: s.CSVDownloadURL,
		DashboardLink:  s.DashboardLink,
		Summary:        s.Summary,
		BrandNames:     append([]string(nil), s.BrandNames...),
		SampleReviews:  append([]byte(nil), s.SampleReviews...),
	}
	if out.S3Key == "" {
		out.S3Key = "scrapped_data/" + jobID + ".csv"
	}
	if out.DashboardLink == "" && out.CSVDownloadURL != "" && c.cfg.DashboardURL != "" {
		out.DashboardLink = voc.BuildDashboardLink(c.cfg.DashboardURL, out.CSVDownloadURL)
	}
	return out
}

// ProcessExtractedData asks the backend to propose analysis dimensions
// for the scraped reviews. The proposal is stored for editing.
func (c *Controller) ProcessExtractedData(ctx context.Context, description string) ([]model.Dimension, error) {
	c.mu.Lock()
	if err := c.checkLocked(model.StepScrapingProgress); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if c.state.Scrape == nil {
		c.mu.Unlock()
		return nil, ErrNoScrapeResult
	}
	gen := c.gen
	req := voc.ExtractedDataRequest{
		S3Bucket:      c.cfg.S3Bucket,
		S3Key:         c.state.Scrape.S3Key,
		Description:   strings.TrimSpace(description),
		SampleReviews: append([]byte(nil), c.state.Scrape.SampleReviews...),
		JobID:         c.state.JobID,
	}
	c.mu.Unlock()

	dims, err := c.client.ProcessExtractedData(ctx, req)
	if err != nil {
		return nil, c.recordError(gen, model.StepScrapingProgress, err)
	}

	c.mutate(func() bool {
		if c.gen != gen || c.state.Step != model.StepScrapingProgress {
			err = ErrWrongStep
			return false
		}
		c.state.Dimensions = dims
		c.state.Error = ""
		return true
	})
	if err != nil {
		return nil, err
	}
	return dims, nil
}

// SubmitDimensions starts the final analysis with the edited dimensions.
func (c *Controller) SubmitDimensions(ctx context.Context, dims []model.Dimension) error {
	c.mu.Lock()
	if err := c.checkLocked(model.StepScrapingProgress); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.state.Scrape == nil {
		c.mu.Unlock()
		return ErrNoScrapeResult
	}
	gen := c.gen
	fileKey := c.state.Scrape.S3Key
	c.mu.Unlock()

	cleaned := model.CleanDimensions(dims)
	if len(cleaned) == 0 {
		return c.recordError(gen, model.StepScrapingProgress, ErrNoDimensions)
	}

	acc, err := c.client.FinalAnalysis(ctx, voc.FinalAnalysisRequest{
		Dimensions: cleaned,
		BucketName: c.cfg.S3Bucket,
		FileKey:    fileKey,
	})
	if err != nil {
		return c.recordError(gen, model.StepScrapingProgress, eris.Wrap(err, "wizard: submit dimensions"))
	}

	c.mutate(func() bool {
		if c.gen != gen || c.state.Step != model.StepScrapingProgress {
			err = ErrWrongStep
			return false
		}
		c.state.Dimensions = cleaned
		c.state.AnalysisJobID = acc.JobID
		c.state.Error = ""
		c.state.Step = model.StepAnalysisProgress
		c.state.Progress = &model.Progress{JobID: acc.JobID, Status: "queued", Message: acc.Message}
		c.trackAnalysisLocked()
		return true
	})
	return err
}

func (c *Controller) trackAnalysisLocked() {
	jobID := c.state.AnalysisJobID
	c.trackLocked("analysis", jobID, c.cfg.Analysis, handlers{
		progress: func(p model.Progress) {
			c.state.Progress = &p
		},
		complete: func(s *model.JobStatus) {
			out := &model.AnalysisOutcome{
				DashboardLink:  s.DashboardLink,
				CSVDownloadURL: s.CSVDownloadURL,
				S3Key:          s.S3Key,
			}
			if out.DashboardLink == "" && out.CSVDownloadURL != "" && c.cfg.DashboardURL != "" {
				out.DashboardLink = voc.BuildDashboardLink(c.cfg.DashboardURL, out.CSVDownloadURL)
			}
			c.state.Analysis = out
			c.state.Step = model.StepSuccess
			c.state.Progress = nil
		},
		fail: func(err error) {
			c.failLocked(model.StepAnalysisProgress, err)
		},
	})
}
