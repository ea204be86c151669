package wizard

import (
	"time"

	"github.com/sells-group/voc-cli/internal/config"
	"github.com/sells-group/voc-cli/internal/poller"
)

// Config controls the controller's pollers and defaults.
type Config struct {
	Website  poller.Config
	Maps     poller.Config
	Scrape   poller.Config
	Analysis poller.Config

	// DiscoveryStagger spaces out the automatic discovery jobs started on
	// the first visit to the map locations step.
	DiscoveryStagger time.Duration
	AutoDiscover     bool

	// S3Bucket is sent with extracted-data and final-analysis requests.
	S3Bucket string
	// DashboardURL builds a dashboard link when the backend sends only a
	// CSV URL.
	DashboardURL string
}

// ConfigFrom builds a Config from application settings.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Website:          pollConfig("website", cfg.Poll.Website),
		Maps:             pollConfig("maps", cfg.Poll.Maps),
		Scrape:           pollConfig("scrape", cfg.Poll.Scrape),
		Analysis:         pollConfig("analysis", cfg.Poll.Analysis),
		DiscoveryStagger: time.Duration(cfg.Wizard.DiscoveryStaggerMs) * time.Millisecond,
		AutoDiscover:     cfg.Wizard.AutoDiscover,
		S3Bucket:         cfg.Backend.S3Bucket,
		DashboardURL:     cfg.Dashboard.DashboardURL,
	}
}

func pollConfig(name string, c config.JobPollConfig) poller.Config {
	return poller.Config{Name: name, Interval: c.Interval(), MaxAttempts: c.MaxAttempts}
}

func (c Config) withNames() Config {
	for name, pc := range map[string]*poller.Config{
		"website":  &c.Website,
		"maps":     &c.Maps,
		"scrape":   &c.Scrape,
		"analysis": &c.Analysis,
	} {
		if pc.Name == "" {
			pc.Name = name
		}
	}
	return c
}
