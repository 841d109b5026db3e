package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap/zapcore"

	"github.com/hamed0406/uptimeprobe/internal/domain"
)

type Config struct {
	Addr      string `env:"API_ADDR" envDefault:":4000"`
	LogDir    string `env:"LOG_DIR" envDefault:"logs"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogStdout bool   `env:"LOG_STDOUT" envDefault:"false"`

	// Probing
	ProbeTimeout   time.Duration `env:"PROBE_TIMEOUT" envDefault:"10s"`
	ProbeTLSStrict bool          `env:"PROBE_TLS_STRICT" envDefault:"false"`
	UserAgent      string        `env:"PROBE_USER_AGENT" envDefault:"uptimeprobe/1.0"`
	RetryDefault   int           `env:"RETRY_DEFAULT" envDefault:"3"`
	RetryMax       int           `env:"RETRY_MAX" envDefault:"10"`
	RetryDelay     time.Duration `env:"RETRY_DELAY" envDefault:"300ms"`
	RetryMaxDelay  time.Duration `env:"RETRY_MAX_DELAY" envDefault:"1s"`
	CheckTimeout   time.Duration `env:"CHECK_TIMEOUT" envDefault:"60s"`

	// Stores; empty means in-memory
	DatabaseURL  string        `env:"DATABASE_URL"`
	RedisURL     string        `env:"REDIS_URL"`
	StreakTTL    time.Duration `env:"STREAK_TTL" envDefault:"168h"`
	SeedWebsites []string      `env:"SEED_WEBSITES" envSeparator:","`

	// Result sinks
	ClickHouseAddrs    []string `env:"CLICKHOUSE_ADDRS" envSeparator:","`
	ClickHouseDatabase string   `env:"CLICKHOUSE_DATABASE" envDefault:"uptime"`
	ClickHouseUsername string   `env:"CLICKHOUSE_USERNAME" envDefault:"default"`
	ClickHousePassword string   `env:"CLICKHOUSE_PASSWORD"`
	KafkaBrokers       []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic         string   `env:"KAFKA_TOPIC" envDefault:"uptime.results"`

	// Inbound rate limit per website id
	RatePerMinute int `env:"RATE_PER_MINUTE" envDefault:"60"`
	RateBurst     int `env:"RATE_BURST" envDefault:"10"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	c, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("API_ADDR is empty"))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if c.ProbeTimeout <= 0 {
		errs = append(errs, errors.New("PROBE_TIMEOUT must be positive"))
	}
	if c.RetryMax < 1 || c.RetryMax > 10 {
		errs = append(errs, fmt.Errorf("RETRY_MAX must be within [1,10], got %d", c.RetryMax))
	}
	if c.RetryDefault < 0 || c.RetryDefault > c.RetryMax {
		errs = append(errs, fmt.Errorf("RETRY_DEFAULT must be within [0,RETRY_MAX], got %d", c.RetryDefault))
	}
	if c.RetryDelay < 0 || c.RetryMaxDelay < 0 {
		errs = append(errs, errors.New("retry delays must not be negative"))
	}
	// the server write timeout is derived from it, so it must bound every check
	if c.CheckTimeout <= 0 {
		errs = append(errs, errors.New("CHECK_TIMEOUT must be positive"))
	}
	if c.StreakTTL < 0 {
		errs = append(errs, errors.New("STREAK_TTL must not be negative"))
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		errs = append(errs, errors.New("KAFKA_TOPIC is required with KAFKA_BROKERS"))
	}
	if c.RatePerMinute < 0 || c.RateBurst < 0 {
		errs = append(errs, errors.New("rate limit settings must not be negative"))
	}
	if _, err := c.Seeds(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Seeds parses SEED_WEBSITES entries of the form id=domain. A trailing
// "!maintenance" on the domain marks the site as under maintenance.
func (c Config) Seeds() ([]domain.Site, error) {
	sites := make([]domain.Site, 0, len(c.SeedWebsites))
	for _, entry := range c.SeedWebsites {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, host, ok := strings.Cut(entry, "=")
		id, host = strings.TrimSpace(id), strings.TrimSpace(host)
		if !ok || id == "" || host == "" {
			return nil, fmt.Errorf("SEED_WEBSITES: entry %q is not id=domain", entry)
		}
		host, maint := strings.CutSuffix(host, "!maintenance")
		sites = append(sites, domain.Site{ID: domain.SiteID(id), Domain: host, Maintenance: maint})
	}
	return sites, nil
}
