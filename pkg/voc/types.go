package voc

import (
	"bytes"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/voc-cli/internal/model"
)

// AnalyzeWebsiteRequest is the body for POST /api/analyze-website.
type AnalyzeWebsiteRequest struct {
	Website string `json:"website"`
}

// AnalyzeResult is either a resolved company list or a job to poll.
type AnalyzeResult struct {
	Companies []model.Company
	JobID     string
}

// CompanyRef is one entry of the app-id resolution request.
type CompanyRef struct {
	Name    string `json:"company_name"`
	Website string `json:"website"`
}

// DiscoverMapsRequest is the body for POST /api/discover-maps.
type DiscoverMapsRequest struct {
	CompanyName string `json:"company_name"`
	Website     string `json:"website"`
}

// DiscoverResult is either discovered locations or a job to poll.
type DiscoverResult struct {
	JobID     string
	Locations []model.MapLocationLink
}

// ScrapeRequest is the body for POST /api/scrap-reviews.
type ScrapeRequest struct {
	Brands []model.Company `json:"brands"`
	JobID  string          `json:"job_id,omitempty"`
}

// JobAccepted is returned by job-submitting endpoints.
type JobAccepted struct {
	JobID   string `json:"job_id"`
	Message string `json:"message,omitempty"`
}

// ExtractedDataRequest is the body for POST /api/scrapped-data.
type ExtractedDataRequest struct {
	S3Bucket      string          `json:"s3_bucket"`
	S3Key         string          `json:"s3_key"`
	Description   string          `json:"description"`
	SampleReviews json.RawMessage `json:"sample_reviews,omitempty"`
	JobID         string          `json:"job_id,omitempty"`
}

// FinalAnalysisRequest is the body for POST /api/final-analysis.
type FinalAnalysisRequest struct {
	Dimensions []model.Dimension `json:"dimensions"`
	BucketName string            `json:"bucket_name"`
	FileKey    string            `json:"file_key"`
}

func isArray(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

// DecodeCompanies reads a company list from a bare array or an object
// with a companies or result field.
func DecodeCompanies(raw json.RawMessage) ([]model.Company, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	if isArray(raw) {
		var out []model.Company
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, eris.Wrap(err, "voc: decode companies")
		}
		return out, nil
	}

	var env struct {
		Companies json.RawMessage `json:"companies"`
		Result    json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, eris.Wrap(err, "voc: decode companies")
	}
	switch {
	case isArray(env.Companies):
		return DecodeCompanies(env.Companies)
	case len(env.Result) > 0:
		return DecodeCompanies(env.Result)
	}
	return nil, nil
}

// DecodeLocations reads map locations from a bare array or an object with
// a locations field.
func DecodeLocations(raw json.RawMessage) ([]model.MapLocationLink, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	if !isArray(raw) {
		var env struct {
			Locations json.RawMessage `json:"locations"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, eris.Wrap(err, "voc: decode locations")
		}
		raw = env.Locations
		if len(raw) == 0 {
			return nil, nil
		}
	}

	var out []model.MapLocationLink
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, eris.Wrap(err, "voc: decode locations")
	}
	return model.NormalizeLinks(out), nil
}

// DecodeDimensions reads dimensions from a bare array, {dimensions}, or
// the {body: {dimensions}} envelope, where body may itself be a JSON
// string.
func DecodeDimensions(raw json.RawMessage) ([]model.Dimension, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, eris.Wrap(err, "voc: decode dimensions")
		}
		return DecodeDimensions(json.RawMessage(inner))
	}
	if isArray(raw) {
		var out []model.Dimension
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, eris.Wrap(err, "voc: decode dimensions")
		}
		return model.CleanDimensions(out), nil
	}

	var env struct {
		Dimensions json.RawMessage `json:"dimensions"`
		Body       json.RawMessage `json:"body"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, eris.Wrap(err, "voc: decode dimensions")
	}
	if len(env.Dimensions) > 0 {
		return DecodeDimensions(env.Dimensions)
	}
	return DecodeDimensions(env.Body)
}
