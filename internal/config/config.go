package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	DatabaseURL   string
	SourcesFile   string
	FeedStateFile string
	LogDir        string

	// Crawl scheduling.
	CrawlInterval     time.Duration
	FastCrawlInterval time.Duration
	FastSourceDomain  string

	// Outbound HTTP.
	HTTPMaxConns       int
	HTTPMaxIdle        int
	FetchTimeout       time.Duration
	EnrichTimeout      time.Duration
	FetchAttempts      int
	SearchFeedBase     string
	InsecureTLSDomains []string

	DedupWindow   time.Duration
	EventWindow   time.Duration
	StatsCacheTTL time.Duration

	// Optional integrations; empty disables them.
	RedisURL         string
	KafkaBrokers     []string
	KafkaEventsTopic string
	NATSURL          string
	NATSSubject      string
	AdminToken       string
}

// Load reads configuration from environment variables, applying defaults
// where unset. Variables from the file named by ENV_FILE (default .env) are
// applied first without overriding the real environment.
func Load() (*Config, error) {
	if err := loadDotEnv(sharedcfg.EnvOrDefault("ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DatabaseURL:   os.Getenv("DATABASE_URL"),
		SourcesFile:   sharedcfg.EnvOrDefault("SOURCES_FILE", "config/sources.json"),
		FeedStateFile: sharedcfg.EnvOrDefault("FEED_STATE_FILE", "data/feed_state.json"),
		LogDir:        sharedcfg.EnvOrDefault("LOG_DIR", "logs"),

		FastSourceDomain: sharedcfg.EnvOrDefault("FAST_SOURCE_DOMAIN", "nchmf.gov.vn"),
		SearchFeedBase:   sharedcfg.EnvOrDefault("SEARCH_FEED_BASE", "https://news.google.com/rss/search"),

		RedisURL:         os.Getenv("REDIS_URL"),
		KafkaEventsTopic: sharedcfg.EnvOrDefault("KAFKA_EVENTS_TOPIC", "disaster-events"),
		NATSURL:          os.Getenv("NATS_URL"),
		NATSSubject:      sharedcfg.EnvOrDefault("NATS_SUBJECT", "disaster.events.new"),
		AdminToken:       os.Getenv("ADMIN_TOKEN"),
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(v)
	}
	cfg.InsecureTLSDomains = splitList(os.Getenv("INSECURE_TLS_DOMAINS"))

	durations := []struct {
		name string
		def  string
		dst  *time.Duration
	}{
		{"CRAWL_INTERVAL", "10m", &cfg.CrawlInterval},
		{"FAST_CRAWL_INTERVAL", "2m", &cfg.FastCrawlInterval},
		{"FETCH_TIMEOUT", "10s", &cfg.FetchTimeout},
		{"ENRICH_TIMEOUT", "15s", &cfg.EnrichTimeout},
		{"DEDUP_WINDOW", "24h", &cfg.DedupWindow},
		{"EVENT_WINDOW", "48h", &cfg.EventWindow},
		{"STATS_CACHE_TTL", "3m", &cfg.StatsCacheTTL},
	}
	for _, d := range durations {
		if *d.dst, err = parseDuration(d.name, d.def); err != nil {
			return nil, err
		}
	}

	ints := []struct {
		name string
		def  int
		dst  *int
	}{
		{"HTTP_MAX_CONNS", 20, &cfg.HTTPMaxConns},
		{"HTTP_MAX_IDLE", 10, &cfg.HTTPMaxIdle},
		{"FETCH_ATTEMPTS", 3, &cfg.FetchAttempts},
	}
	for _, n := range ints {
		if *n.dst, err = parsePositiveInt(n.name, n.def); err != nil {
			return nil, err
		}
	}

	if cfg.SourcesFile == "" {
		return nil, errors.New("SOURCES_FILE is required")
	}
	if cfg.KafkaEventsTopic == "" {
		return nil, errors.New("KAFKA_EVENTS_TOPIC is required")
	}
	if cfg.HTTPMaxIdle > cfg.HTTPMaxConns {
		return nil, errors.New("invalid HTTP_MAX_IDLE: exceeds HTTP_MAX_CONNS")
	}

	return cfg, nil
}

// RequireDatabase reports an error when no database is configured. The
// long-running services need one; the CLI falls back to memory.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	return nil
}

func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

func parseDuration(name, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(name, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return d, nil
}

func parsePositiveInt(name string, def int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
