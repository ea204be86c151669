package config

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Backend   BackendConfig   `yaml:"backend" mapstructure:"backend"`
	Poll      PollConfig      `yaml:"poll" mapstructure:"poll"`
	Wizard    WizardConfig    `yaml:"wizard" mapstructure:"wizard"`
	Dashboard DashboardConfig `yaml:"dashboard" mapstructure:"dashboard"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// BackendConfig points at the scraping/analysis backend.
type BackendConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	APIKey      string `yaml:"api_key" mapstructure:"api_key"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
	S3Bucket    string `yaml:"s3_bucket" mapstructure:"s3_bucket"`
}

// PollConfig holds one polling budget per backend job kind.
type PollConfig struct {
	Website  JobPollConfig `yaml:"website" mapstructure:"website"`
	Maps     JobPollConfig `yaml:"maps" mapstructure:"maps"`
	Scrape   JobPollConfig `yaml:"scrape" mapstructure:"scrape"`
	Analysis JobPollConfig `yaml:"analysis" mapstructure:"analysis"`
}

// JobPollConfig is the interval and attempt budget for one job kind.
type JobPollConfig struct {
	IntervalSecs int `yaml:"interval_secs" mapstructure:"interval_secs"`
	MaxAttempts  int `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// Interval returns the poll interval as a duration.
func (c JobPollConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSecs) * time.Second
}

// WizardConfig configures the intake wizard.
type WizardConfig struct {
	DiscoveryStaggerMs int  `yaml:"discovery_stagger_ms" mapstructure:"discovery_stagger_ms"`
	AutoDiscover       bool `yaml:"auto_discover" mapstructure:"auto_discover"`
}

// DashboardConfig configures CSV loading and dashboard links.
type DashboardConfig struct {
	ProxyURL     string `yaml:"proxy_url" mapstructure:"proxy_url"`
	DashboardURL string `yaml:"dashboard_url" mapstructure:"dashboard_url"`
}

// FetchConfig configures the CSV HTTP fetcher.
type FetchConfig struct {
	TimeoutSecs int             `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int             `yaml:"max_retries" mapstructure:"max_retries"`
	UserAgent   string          `yaml:"user_agent" mapstructure:"user_agent"`
	RateLimits  []HostRateLimit `yaml:"rate_limits" mapstructure:"rate_limits"`
}

// HostRateLimit caps requests per second to one host. Hosts are listed
// rather than used as map keys because viper splits keys on dots.
type HostRateLimit struct {
	Host string  `yaml:"host" mapstructure:"host"`
	RPS  float64 `yaml:"rps" mapstructure:"rps"`
}

// HostLimits returns the rate limits keyed by host. Later entries win.
func (c FetchConfig) HostLimits() map[string]float64 {
	if len(c.RateLimits) == 0 {
		return nil
	}
	m := make(map[string]float64, len(c.RateLimits))
	for _, rl := range c.RateLimits {
		if rl.Host == "" {
			continue
		}
		m[strings.ToLower(rl.Host)] = rl.RPS
	}
	return m
}

// StoreConfig configures the session store.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the dashboard API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	// ProxyRPS and ProxyBurst bound CSV proxy requests per client IP.
	ProxyRPS   float64 `yaml:"proxy_rps" mapstructure:"proxy_rps"`
	ProxyBurst int     `yaml:"proxy_burst" mapstructure:"proxy_burst"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config file and environment.
func Load() (*Config, error) {
	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: read .env")
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("VOC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key needs a default for AutomaticEnv to see it.
	v.SetDefault("backend.base_url", "http://localhost:8000")
	v.SetDefault("backend.api_key", "")
	v.SetDefault("backend.timeout_secs", 120)
	v.SetDefault("backend.max_retries", 2)
	v.SetDefault("backend.s3_bucket", "horus-voc-data")
	v.SetDefault("poll.website.interval_secs", 2)
	v.SetDefault("poll.website.max_attempts", 90)
	v.SetDefault("poll.maps.interval_secs", 5)
	v.SetDefault("poll.maps.max_attempts", 60)
	v.SetDefault("poll.scrape.interval_secs", 10)
	v.SetDefault("poll.scrape.max_attempts", 90)
	v.SetDefault("poll.analysis.interval_secs", 30)
	v.SetDefault("poll.analysis.max_attempts", 480)
	v.SetDefault("wizard.discovery_stagger_ms", 500)
	v.SetDefault("wizard.auto_discover", true)
	v.SetDefault("dashboard.proxy_url", "")
	v.SetDefault("dashboard.dashboard_url", "http://localhost:3000/dashboard")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.user_agent", "voc-cli/1.0")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "voc.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.proxy_rps", 5.0)
	v.SetDefault("server.proxy_burst", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command depends on. Mode is one of
// "wizard", "dashboard" or "serve".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "wizard":
		if c.Backend.BaseURL == "" {
			problems = append(problems, "backend.base_url is required")
		}
		for name, p := range map[string]JobPollConfig{
			"website":  c.Poll.Website,
			"maps":     c.Poll.Maps,
			"scrape":   c.Poll.Scrape,
			"analysis": c.Poll.Analysis,
		} {
			if p.IntervalSecs <= 0 || p.MaxAttempts <= 0 {
				problems = append(problems, fmt.Sprintf("poll.%s needs a positive interval_secs and max_attempts", name))
			}
		}
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
		}
	case "dashboard":
	default:
		return eris.Errorf("config: unknown validation mode %q", mode)
	}

	switch c.Store.Driver {
	case "sqlite", "postgres", "none":
	default:
		problems = append(problems, fmt.Sprintf("store.driver %q is not supported", c.Store.Driver))
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
