package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// DefaultAdminPassword is the shared admin secret used when ADMIN_PASSWORD is
// unset. It matches the value existing deployments were configured with.
const DefaultAdminPassword = "fei~123"

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Report store.
	ReportsFile         string
	ReportsAllowCorrupt bool

	// School catalog.
	SchoolsFile string

	AdminPassword string

	// Report event publishing; disabled when KafkaBrokers is empty.
	KafkaBrokers      []string
	ReportEventsTopic string

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// School search API scraping.
	SekolahAPIURL  string
	ScrapePageSize int
}

// KafkaEnabled reports whether report events should be published.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// UsingDefaultAdminPassword reports whether ADMIN_PASSWORD was left unset.
func (c *Config) UsingDefaultAdminPassword() bool {
	return c.AdminPassword == DefaultAdminPassword
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s"))
	if err != nil || mapboxTimeout <= 0 {
		return nil, errors.New("invalid MAPBOX_TIMEOUT")
	}

	allowCorrupt, err := parseBool("REPORTS_ALLOW_CORRUPT", false)
	if err != nil {
		return nil, err
	}

	pageSize, err := parseScrapePageSize()
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ReportsFile:         sharedcfg.EnvOrDefault("REPORTS_FILE", "data/laporan_warga.csv"),
		ReportsAllowCorrupt: allowCorrupt,
		SchoolsFile:         sharedcfg.EnvOrDefault("SCHOOLS_FILE", "data/data_sekolah_clean.json"),

		AdminPassword: sharedcfg.EnvOrDefault("ADMIN_PASSWORD", DefaultAdminPassword),

		KafkaBrokers:      brokers,
		ReportEventsTopic: sharedcfg.EnvOrDefault("REPORT_EVENTS_TOPIC", "school-report-events"),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),

		SekolahAPIURL:  sharedcfg.EnvOrDefault("SEKOLAH_API_URL", "https://sekolah.data.kemendikdasmen.go.id/v1/sekolah-service/sekolah/cari-sekolah"),
		ScrapePageSize: pageSize,
	}

	if cfg.ReportsFile == "" {
		return nil, errors.New("REPORTS_FILE is required")
	}
	if cfg.KafkaEnabled() && cfg.ReportEventsTopic == "" {
		return nil, errors.New("REPORT_EVENTS_TOPIC is required when KAFKA_BROKERS is set")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, errors.New("invalid " + key)
	}
	return v, nil
}

func parseScrapePageSize() (int, error) {
	s := os.Getenv("SCRAPE_PAGE_SIZE")
	if s == "" {
		return 48, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > 500 {
		return 0, errors.New("invalid SCRAPE_PAGE_SIZE: must be 1-500")
	}
	return n, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
