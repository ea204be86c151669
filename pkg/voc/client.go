// Package voc is the client for the review scraping and analysis backend.
package voc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/voc-cli/internal/model"
	"github.com/sells-group/voc-cli/internal/monitoring"
	"github.com/sells-group/voc-cli/internal/resilience"
)

const defaultBaseURL = "http://localhost:8000"

// Client defines the backend operations used by the wizard and dashboard.
type Client interface {
	AnalyzeWebsite(ctx context.Context, website string) (*AnalyzeResult, error)
	ResolveAppIDs(ctx context.Context, companies []model.Company) ([]model.Company, error)
	DiscoverMaps(ctx context.Context, req DiscoverMapsRequest) (*DiscoverResult, error)
	ScrapeReviews(ctx context.Context, req ScrapeRequest) (*JobAccepted, error)
	CheckStatus(ctx context.Context, jobID string) (*model.JobStatus, error)
	ProcessExtractedData(ctx context.Context, req ExtractedDataRequest) ([]model.Dimension, error)
	FinalAnalysis(ctx context.Context, req FinalAnalysisRequest) (*JobAccepted, error)
}

// APIError is returned when the backend responds with a non-2xx status or
// a 2xx body carrying an error field.
type APIError struct {
	StatusCode int
	Body       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("voc: api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("voc: api error %d: %s", e.StatusCode, e.Body)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithAPIKey sends the key as a bearer token.
func WithAPIKey(key string) Option {
	return func(c *httpClient) {
		c.apiKey = key
	}
}

// WithRetry sets the retry policy for status checks.
func WithRetry(p resilience.Policy) Option {
	return func(c *httpClient) {
		c.retry = p
	}
}

// httpClient implements Client using net/http.
type httpClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	retry   resilience.Policy
}

// NewClient creates a new backend client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 120 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retry: resilience.DefaultPolicy(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = resilience.LogRetries("voc", "check_status")
	}
	return c
}

func (c *httpClient) AnalyzeWebsite(ctx context.Context, website string) (*AnalyzeResult, error) {
	var raw json.RawMessage
	if err := c.post(ctx, "analyze_website", "/api/analyze-website", AnalyzeWebsiteRequest{Website: website}, &raw); err != nil {
		return nil, eris.Wrap(err, "voc: analyze website")
	}

	if !isArray(raw) {
		var job struct {
			JobID string `json:"job_id"`
		}
		if err := json.Unmarshal(raw, &job); err == nil && job.JobID != "" {
			return &AnalyzeResult{JobID: job.JobID}, nil
		}
	}

	companies, err := DecodeCompanies(raw)
	if err != nil {
		return nil, err
	}
	return &AnalyzeResult{Companies: companies}, nil
}

func (c *httpClient) ResolveAppIDs(ctx context.Context, companies []model.Company) ([]model.Company, error) {
	refs := make([]CompanyRef, 0, len(companies))
	for _, co := range companies {
		refs = append(refs, CompanyRef{Name: co.Name, Website: co.Website})
	}

	var raw json.RawMessage
	if err := c.post(ctx, "appids", "/api/appids", refs, &raw); err != nil {
		return nil, eris.Wrap(err, "voc: resolve app ids")
	}
	return DecodeCompanies(raw)
}

func (c *httpClient) DiscoverMaps(ctx context.Context, req DiscoverMapsRequest) (*DiscoverResult, error) {
	var raw json.RawMessage
	if err := c.post(ctx, "discover_maps", "/api/discover-maps", req, &raw); err != nil {
		return nil, eris.Wrapf(err, "voc: discover maps for %s", req.CompanyName)
	}

	out := &DiscoverResult{}
	if !isArray(raw) {
		var job struct {
			JobID string `json:"job_id"`
		}
		if err := json.Unmarshal(raw, &job); err != nil {
			return nil, eris.Wrap(err, "voc: decode discover maps")
		}
		out.JobID = job.JobID
	}

	locs, err := DecodeLocations(raw)
	if err != nil {
		return nil, err
	}
	out.Locations = locs
	return out, nil
}

func (c *httpClient) ScrapeReviews(ctx context.Context, req ScrapeRequest) (*JobAccepted, error) {
	var out JobAccepted
	if err := c.post(ctx, "scrape_reviews", "/api/scrap-reviews", req, &out); err != nil {
		return nil, eris.Wrap(err, "voc: scrape reviews")
	}
	if out.JobID == "" {
		return nil, eris.New("voc: scrape reviews: response has no job_id")
	}
	return &out, nil
}

// CheckStatus is the only retried call: it is an idempotent GET.
func (c *httpClient) CheckStatus(ctx context.Context, jobID string) (*model.JobStatus, error) {
	path := "/api/check-status?job_id=" + url.QueryEscape(jobID)

	status, err := resilience.RetryValue(ctx, c.retry, func(ctx context.Context) (*model.JobStatus, error) {
		var out model.JobStatus
		if err := c.get(ctx, "check_status", path, &out); err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && resilience.IsTransientStatus(apiErr.StatusCode) {
				return nil, resilience.Transient(apiErr, apiErr.StatusCode)
			}
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		var te *resilience.TransientError
		if errors.As(err, &te) {
			err = te.Err
		}
		return nil, eris.Wrapf(err, "voc: check status %s", jobID)
	}
	if status.JobID == "" {
		status.JobID = jobID
	}
	return status, nil
}

func (c *httpClient) ProcessExtractedData(ctx context.Context, req ExtractedDataRequest) ([]model.Dimension, error) {
	var raw json.RawMessage
	if err := c.post(ctx, "scrapped_data", "/api/scrapped-data", req, &raw); err != nil {
		return nil, eris.Wrap(err, "voc: process extracted data")
	}
	return DecodeDimensions(raw)
}

func (c *httpClient) FinalAnalysis(ctx context.Context, req FinalAnalysisRequest) (*JobAccepted, error) {
	var out JobAccepted
	if err := c.post(ctx, "final_analysis", "/api/final-analysis", req, &out); err != nil {
		return nil, eris.Wrap(err, "voc: final analysis")
	}
	if out.JobID == "" {
		return nil, eris.New("voc: final analysis: response has no job_id")
	}
	return &out, nil
}

func (c *httpClient) post(ctx context.Context, op, path string, body any, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return eris.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(op, req, out)
}

func (c *httpClient) get(ctx context.Context, op, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}

	return c.do(op, req, out)
}

func (c *httpClient) do(op string, req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		monitoring.RecordBackendCall(op, 0)
		return eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close()
	monitoring.RecordBackendCall(op, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(data),
			Message:    errorField(data, true),
		}
	}
	if msg := errorField(data, false); msg != "" {
		return &APIError{StatusCode: resp.StatusCode, Body: string(data), Message: msg}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrap(err, "decode response")
	}

	return nil
}

// errorField returns the error field of an object body, falling back to
// detail when withDetail is set. A body with a status field is a job status
// and reports failure through it instead.
func errorField(data []byte, withDetail bool) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return ""
	}
	var env struct {
		Error  json.RawMessage `json:"error"`
		Detail json.RawMessage `json:"detail"`
		Status string          `json:"status"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return ""
	}
	fields := []json.RawMessage{env.Error}
	if withDetail {
		fields = append(fields, env.Detail)
	} else if env.Status != "" {
		return ""
	}
	for _, raw := range fields {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || string(raw) == "null" || string(raw) == "false" || string(raw) == `""` {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
		return string(raw)
	}
	return ""
}
