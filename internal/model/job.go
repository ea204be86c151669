package model

import (
	"encoding/json"
	"strings"
)

// JobPhase is the coarse classification of a backend job status.
type JobPhase string

const (
	JobInProgress JobPhase = "in_progress"
	JobCompleted  JobPhase = "completed"
	JobFailed     JobPhase = "failed"
)

// JobStatus is the payload returned by the backend status endpoint.
type JobStatus struct {
	JobID          string          `json:"job_id,omitempty"`
	Status         string          `json:"status"`
	Message        string          `json:"message,omitempty"`
	Processed      int             `json:"processed,omitempty"`
	Total          int             `json:"total,omitempty"`
	Result         json.RawMessage `json:"result,omitempty"`
	S3Key          string          `json:"s3_key,omitempty"`
	CSVDownloadURL string          `json:"csv_download_url,omitempty"`
	DashboardLink  string          `json:"dashboard_link,omitempty"`
	Summary        string          `json:"summary,omitempty"`
	BrandNames     []string        `json:"brand_names,omitempty"`
	SampleReviews  json.RawMessage `json:"sample_reviews,omitempty"`
}

// Phase classifies the raw status string. Unknown values (including
// pending, processing and running) are in progress.
func (s *JobStatus) Phase() JobPhase {
	if s == nil {
		return JobInProgress
	}
	switch strings.ToLower(strings.TrimSpace(s.Status)) {
	case "completed", "complete", "success", "succeeded", "done":
		return JobCompleted
	case "error", "failed", "failure":
		return JobFailed
	default:
		return JobInProgress
	}
}

// Progress is one non-terminal observation of a job.
type Progress struct {
	JobID     string `json:"job_id,omitempty"`
	Status    string `json:"status,omitempty"`
	Message   string `json:"message,omitempty"`
	Processed int    `json:"processed,omitempty"`
	Total     int    `json:"total,omitempty"`
	Attempt   int    `json:"attempt,omitempty"`
}

// ProgressFrom builds a Progress from a status payload.
func ProgressFrom(jobID string, s *JobStatus, attempt int) Progress {
	p := Progress{JobID: jobID, Attempt: attempt}
	if s != nil {
		p.Status = s.Status
		p.Message = s.Message
		p.Processed = s.Processed
		p.Total = s.Total
	}
	return p
}

// Percent returns processed/total as a percentage, or 0 when unknown.
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	pct := float64(p.Processed) / float64(p.Total) * 100
	if pct > 100 {
		return 100
	}
	return pct
}
