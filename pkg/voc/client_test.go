package voc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/voc-cli/internal/model"
	"github.com/sells-group/voc-cli/internal/resilience"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(
		WithBaseURL(srv.URL),
		WithAPIKey("test-key"),
		WithRetry(resilience.Policy{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}),
	)
	return srv, c
}

func TestAnalyzeWebsite(t *testing.T) {
	tests := []struct {
		name          string
		handler       http.HandlerFunc
		wantJobID     string
		wantCompanies []string
		wantAPIErr    bool
		wantStatus    int
	}{
		{
			name: "company list",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/api/analyze-website", r.URL.Path)
				assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var req AnalyzeWebsiteRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "https://acme.com", req.Website)

				w.Write([]byte(`[{"company_name":"Acme","website":"https://acme.com","is_main":true},{"company_name":"Rival","website":"https://rival.com"}]`))
			},
			wantCompanies: []string{"Acme", "Rival"},
		},
		{
			name: "job id",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"job_id":"job-1","message":"queued"}`))
			},
			wantJobID: "job-1",
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"detail":"boom"}`))
			},
			wantAPIErr: true,
			wantStatus: 500,
		},
		{
			name: "error body with ok status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"error":"bad website"}`))
			},
			wantAPIErr: true,
			wantStatus: 200,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := newTestServer(t, tt.handler)
			res, err := c.AnalyzeWebsite(context.Background(), "https://acme.com")

			if tt.wantAPIErr {
				require.Error(t, err)
				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantJobID, res.JobID)
			var names []string
			for _, co := range res.Companies {
				names = append(names, co.Name)
			}
			assert.Equal(t, tt.wantCompanies, names)
		})
	}
}

func TestAPIErrorMessage(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"website is required"}`))
	})

	_, err := c.AnalyzeWebsite(context.Background(), "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "website is required", apiErr.Message)
	assert.Contains(t, apiErr.Error(), "400")
}

func TestResolveAppIDs(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/appids", r.URL.Path)

		var refs []CompanyRef
		require.NoError(t, json.NewDecoder(r.Body).Decode(&refs))
		require.Len(t, refs, 2)
		assert.Equal(t, "Acme", refs[0].Name)

		w.Write([]byte(`[{"company_name":"Acme","website":"https://acme.com","android_id":"com.acme","apple_id":"123"},{"company_name":"Rival","website":"https://rival.com"}]`))
	})

	out, err := c.ResolveAppIDs(context.Background(), []model.Company{
		{Name: "Acme", Website: "https://acme.com", MapsLinks: []model.MapLocationLink{model.BareLink("HQ")}},
		{Name: "Rival", Website: "https://rival.com"},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "com.acme", out[0].AndroidID)
	assert.Equal(t, "123", out[0].AppleID)
	assert.Empty(t, out[1].AndroidID)
}

func TestDiscoverMaps(t *testing.T) {
	t.Run("job", func(t *testing.T) {
		_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			var req DiscoverMapsRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "Acme", req.CompanyName)
			w.Write([]byte(`{"job_id":"maps-1"}`))
		})

		res, err := c.DiscoverMaps(context.Background(), DiscoverMapsRequest{CompanyName: "Acme", Website: "https://acme.com"})
		require.NoError(t, err)
		assert.Equal(t, "maps-1", res.JobID)
		assert.Empty(t, res.Locations)
	})

	t.Run("synchronous locations", func(t *testing.T) {
		_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"locations":["Acme Downtown",{"name":"Acme Downtown","url":"https://maps/1","reviews_count":"1,204"}]}`))
		})

		res, err := c.DiscoverMaps(context.Background(), DiscoverMapsRequest{CompanyName: "Acme"})
		require.NoError(t, err)
		require.Len(t, res.Locations, 1)
		assert.Equal(t, model.LinkStructured, res.Locations[0].Kind)
		assert.Equal(t, 1204, res.Locations[0].ReviewCount)
	})
}

func TestScrapeReviews(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/scrap-reviews", r.URL.Path)

		var body map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "brands")
		assert.NotContains(t, body, "job_id")

		w.Write([]byte(`{"job_id":"scrape-9","message":"started"}`))
	})

	res, err := c.ScrapeReviews(context.Background(), ScrapeRequest{Brands: []model.Company{{Name: "Acme"}}})
	require.NoError(t, err)
	assert.Equal(t, "scrape-9", res.JobID)
	assert.Equal(t, "started", res.Message)
}

func TestScrapeReviewsMissingJobID(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"ok"}`))
	})

	_, err := c.ScrapeReviews(context.Background(), ScrapeRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no job_id")
}

func TestCheckStatus(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/check-status", r.URL.Path)
		assert.Equal(t, "a b", r.URL.Query().Get("job_id"))
		w.Write([]byte(`{"status":"completed","processed":10,"total":10,"s3_key":"k.csv","csv_download_url":"https://s3/k.csv","brand_names":["Acme"]}`))
	})

	st, err := c.CheckStatus(context.Background(), "a b")
	require.NoError(t, err)
	assert.Equal(t, "a b", st.JobID)
	assert.Equal(t, model.JobCompleted, st.Phase())
	assert.Equal(t, "k.csv", st.S3Key)
	assert.Equal(t, []string{"Acme"}, st.BrandNames)
}

func TestCheckStatusFailedJobIsNotAnAPIError(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","message":"scrape failed","error":"scrape failed"}`))
	})

	st, err := c.CheckStatus(context.Background(), "j")
	require.NoError(t, err)
	assert.Equal(t, model.JobFailed, st.Phase())
}

func TestCheckStatusRetriesTransient(t *testing.T) {
	var calls atomic.Int32
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"status":"processing","message":"working"}`))
	})

	st, err := c.CheckStatus(context.Background(), "j")
	require.NoError(t, err)
	assert.Equal(t, "working", st.Message)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCheckStatusGivesUp(t *testing.T) {
	var calls atomic.Int32
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.CheckStatus(context.Background(), "j")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCheckStatusDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.CheckStatus(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSubmissionsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.FinalAnalysis(context.Background(), FinalAnalysisRequest{})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestProcessExtractedData(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "body envelope", body: `{"message":"ok","body":{"dimensions":[{"dimension":"Price","description":"cost"}],"s3_bucket":"b","s3_key":"k"}}`},
		{name: "string body", body: `{"body":"{\"dimensions\":[{\"dimension\":\"Price\",\"description\":\"cost\"}]}"}`},
		{name: "dimensions field", body: `{"dimensions":[{"dimension":"Price","description":"cost"}]}`},
		{name: "bare array", body: `[{"dimension":"Price","description":"cost"},{"dimension":"  "}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/scrapped-data", r.URL.Path)

				var req ExtractedDataRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "bucket", req.S3Bucket)
				assert.Equal(t, "key.csv", req.S3Key)
				assert.Equal(t, "we sell shoes", req.Description)

				w.Write([]byte(tt.body))
			})

			dims, err := c.ProcessExtractedData(context.Background(), ExtractedDataRequest{
				S3Bucket: "bucket", S3Key: "key.csv", Description: "we sell shoes", JobID: "j",
			})
			require.NoError(t, err)
			require.Len(t, dims, 1)
			assert.Equal(t, "Price", dims[0].Name)
			assert.Equal(t, "cost", dims[0].Description)
		})
	}
}

func TestFinalAnalysis(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/final-analysis", r.URL.Path)

		var req FinalAnalysisRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "bucket", req.BucketName)
		assert.Equal(t, "key.csv", req.FileKey)
		require.Len(t, req.Dimensions, 1)

		w.Write([]byte(`{"job_id":"analysis-1"}`))
	})

	res, err := c.FinalAnalysis(context.Background(), FinalAnalysisRequest{
		Dimensions: []model.Dimension{{Name: "Price"}},
		BucketName: "bucket",
		FileKey:    "key.csv",
	})
	require.NoError(t, err)
	assert.Equal(t, "analysis-1", res.JobID)
}

func TestBuildDashboardLink(t *testing.T) {
	tests := []struct {
		name      string
		dashboard string
		csv       string
		want      string
	}{
		{
			name:      "escapes reserved characters",
			dashboard: "https://app.example.com/dashboard",
			csv:       "https://bucket.s3.amazonaws.com/a b.csv?X-Amz=1&sig=2",
			want:      "https://app.example.com/dashboard?csv_url=https%3A%2F%2Fbucket.s3.amazonaws.com%2Fa%20b.csv%3FX-Amz%3D1%26sig%3D2",
		},
		{
			name:      "existing query",
			dashboard: "https://app.example.com/dashboard?tab=data",
			csv:       "https://x/y.csv",
			want:      "https://app.example.com/dashboard?tab=data&csv_url=https%3A%2F%2Fx%2Fy.csv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildDashboardLink(tt.dashboard, tt.csv))
		})
	}
}
