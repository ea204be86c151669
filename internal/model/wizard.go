package model

import "encoding/json"

// Step is a wizard state.
type Step string

const (
	StepWebsite          Step = "website"
	StepCompetitors      Step = "competitors"
	StepAppIdentifiers   Step = "app_identifiers"
	StepMapLocations     Step = "map_locations"
	StepReviewLinks      Step = "review_links"
	StepScrapingProgress Step = "scraping_progress"
	StepAnalysisProgress Step = "analysis_progress"
	StepSuccess          Step = "success"
	StepFailed           Step = "failed"
)

// Steps lists the wizard states in flow order, excluding StepFailed.
func Steps() []Step {
	return []Step{
		StepWebsite,
		StepCompetitors,
		StepAppIdentifiers,
		StepMapLocations,
		StepReviewLinks,
		StepScrapingProgress,
		StepAnalysisProgress,
		StepSuccess,
	}
}

// Index returns the 1-based position of s in the flow, or 0 for
// StepFailed and unknown values.
func (s Step) Index() int {
	for i, step := range Steps() {
		if step == s {
			return i + 1
		}
	}
	return 0
}

// DiscoveryStatus is the lifecycle of one company's maps discovery.
type DiscoveryStatus string

const (
	DiscoveryIdle    DiscoveryStatus = "idle"
	DiscoveryRunning DiscoveryStatus = "running"
	DiscoveryDone    DiscoveryStatus = "done"
	DiscoveryFailed  DiscoveryStatus = "failed"
)

// DiscoveryState tracks maps discovery for one company.
type DiscoveryState struct {
	Status DiscoveryStatus `json:"status"`
	JobID  string          `json:"job_id,omitempty"`
	Found  int             `json:"found,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// ScrapeOutcome is what a completed scraping job hands to the next steps.
type ScrapeOutcome struct {
	S3Key          string          `json:"s3_key,omitempty"`
	CSVDownloadURL string          `json:"csv_download_url,omitempty"`
	DashboardLink  string          `json:"dashboard_link,omitempty"`
	Summary        string          `json:"summary,omitempty"`
	BrandNames     []string        `json:"brand_names,omitempty"`
	SampleReviews  json.RawMessage `json:"sample_reviews,omitempty"`
}

// AnalysisOutcome is the result of a completed analysis job.
type AnalysisOutcome struct {
	DashboardLink  string `json:"dashboard_link,omitempty"`
	CSVDownloadURL string `json:"csv_download_url,omitempty"`
	S3Key          string `json:"s3_key,omitempty"`
}

// WizardState is the data accumulated across wizard steps.
type WizardState struct {
	Step          Step                      `json:"step"`
	Website       string                    `json:"website,omitempty"`
	Companies     []Company                 `json:"companies,omitempty"`
	JobID         string                    `json:"job_id,omitempty"`
	AnalysisJobID string                    `json:"analysis_job_id,omitempty"`
	Progress      *Progress                 `json:"progress,omitempty"`
	Scrape        *ScrapeOutcome            `json:"scrape,omitempty"`
	Dimensions    []Dimension               `json:"dimensions,omitempty"`
	Analysis      *AnalysisOutcome          `json:"analysis,omitempty"`
	Error         string                    `json:"error,omitempty"`
	FailedFrom    Step                      `json:"failed_from,omitempty"`
	Discovery     map[string]DiscoveryState `json:"discovery,omitempty"`
	// AutoDiscovered is set once the first visit to map_locations has
	// started discovery.
	AutoDiscovered bool `json:"auto_discovered,omitempty"`
}

// NewWizardState returns an empty state on the first step.
func NewWizardState() WizardState {
	return WizardState{Step: StepWebsite}
}

// Clone returns a deep copy.
func (s WizardState) Clone() WizardState {
	out := s
	out.Companies = CloneCompanies(s.Companies)
	if s.Progress != nil {
		p := *s.Progress
		out.Progress = &p
	}
	if s.Scrape != nil {
		sc := *s.Scrape
		sc.BrandNames = append([]string(nil), s.Scrape.BrandNames...)
		sc.SampleReviews = append(json.RawMessage(nil), s.Scrape.SampleReviews...)
		out.Scrape = &sc
	}
	if s.Dimensions != nil {
		out.Dimensions = make([]Dimension, len(s.Dimensions))
		for i, d := range s.Dimensions {
			d.Keywords = append([]string(nil), d.Keywords...)
			out.Dimensions[i] = d
		}
	}
	if s.Analysis != nil {
		a := *s.Analysis
		out.Analysis = &a
	}
	if s.Discovery != nil {
		out.Discovery = make(map[string]DiscoveryState, len(s.Discovery))
		for k, v := range s.Discovery {
			out.Discovery[k] = v
		}
	}
	return out
}
