package main

import (
	"context"
	"net/http"
	"time"

	"github.com/sells-group/voc-cli/internal/config"
	"github.com/sells-group/voc-cli/internal/fetcher"
	"github.com/sells-group/voc-cli/internal/ingest"
	"github.com/sells-group/voc-cli/internal/resilience"
	"github.com/sells-group/voc-cli/internal/store"
	"github.com/sells-group/voc-cli/pkg/voc"
)

func newClient(c *config.Config) voc.Client {
	opts := []voc.Option{
		voc.WithBaseURL(c.Backend.BaseURL),
		voc.WithRetry(resilience.FromMaxRetries(c.Backend.MaxRetries)),
	}
	if c.Backend.APIKey != "" {
		opts = append(opts, voc.WithAPIKey(c.Backend.APIKey))
	}
	if c.Backend.TimeoutSecs > 0 {
		opts = append(opts, voc.WithHTTPClient(&http.Client{Timeout: time.Duration(c.Backend.TimeoutSecs) * time.Second}))
	}
	return voc.NewClient(opts...)
}

func newFetcher(c *config.Config) *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  c.Fetch.UserAgent,
		Timeout:    time.Duration(c.Fetch.TimeoutSecs) * time.Second,
		MaxRetries: c.Fetch.MaxRetries,
		RateLimits: c.Fetch.HostLimits(),
	})
}

// newLoader returns a CSV loader that goes through the configured proxy.
func newLoader(c *config.Config) *ingest.Loader {
	return ingest.NewLoader(newFetcher(c), c.Dashboard.ProxyURL)
}

// initStore opens and migrates the configured session store. It returns
// a nil store for the "none" driver.
func initStore(ctx context.Context) (store.Store, error) {
	return store.New(ctx, cfg.Store)
}
