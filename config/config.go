package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

// Config holds the full application configuration.
type Config struct {
	Postgres      PostgresConfig         `yaml:"postgres"`
	NATS          NATSConfig             `yaml:"nats"`
	HTTP          HTTPConfig             `yaml:"http"`
	Rating        RatingConfig           `yaml:"rating"`
	Striche       apptypes.StricheConfig `yaml:"striche"`
	Observability ObservabilityConfig    `yaml:"observability"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// HTTPConfig holds the query API configuration.
type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	RequestsPerSec  float64       `yaml:"requests_per_sec"`
	Burst           int           `yaml:"burst"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RatingConfig holds the tunable constants of the rating model and ledger.
type RatingConfig struct {
	KFactor          float64 `yaml:"k_factor"`
	StartingRating   float64 `yaml:"starting_rating"`
	Scale            float64 `yaml:"scale"`
	MaxPlausibleDiff float64 `yaml:"max_plausible_diff"`
	LedgerMaxEntries int     `yaml:"ledger_max_entries"`
}

// ObservabilityConfig holds configuration for observability components.
type ObservabilityConfig struct {
	MetricsAddress  string  `yaml:"metrics_address"`
	TempoEndpoint   string  `yaml:"tempo_endpoint"`
	TempoInsecure   bool    `yaml:"tempo_insecure"`
	TempoSampleRate float64 `yaml:"tempo_sample_rate"`
	Environment     string  `yaml:"environment"`
}

// Defaults applied when the file and environment leave a field unset.
const (
	DefaultKFactor          = 32.0
	DefaultStartingRating   = 100.0
	DefaultScale            = 1000.0
	DefaultMaxPlausibleDiff = 10.0
	DefaultLedgerMaxEntries = 500
	DefaultHTTPAddr         = ":8080"
)

// LoadConfig loads the configuration from a YAML file, falling back to
// environment variables when the file is absent. Environment variables
// override file values either way.
func LoadConfig(filename string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(filename)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("postgres DSN not configured (set postgres.dsn or DATABASE_URL)")
	}
	if cfg.NATS.URL == "" {
		return nil, fmt.Errorf("NATS URL not configured (set nats.url or NATS_URL)")
	}

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("TEMPO_ENDPOINT"); v != "" {
		cfg.Observability.TempoEndpoint = v
	}
	if v := os.Getenv("TEMPO_INSECURE"); v != "" {
		cfg.Observability.TempoInsecure = v == "true"
	}
	if v := os.Getenv("TEMPO_SAMPLE_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Observability.TempoSampleRate = f
		}
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("RATING_K_FACTOR"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Rating.KFactor = f
		}
	}
	if v := os.Getenv("RATING_STARTING"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Rating.StartingRating = f
		}
	}
	if v := os.Getenv("RATING_SCALE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Rating.Scale = f
		}
	}
	if v := os.Getenv("RATING_MAX_PLAUSIBLE_DIFF"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Rating.MaxPlausibleDiff = f
		}
	}
	if v := os.Getenv("RATING_LEDGER_MAX_ENTRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Rating.LedgerMaxEntries = n
		}
	}
	if v := os.Getenv("STRICHE_BERG_ENABLED"); v != "" {
		cfg.Striche.BergEnabled = v == "true"
	}
	if v := os.Getenv("STRICHE_SCHNEIDER_ENABLED"); v != "" {
		cfg.Striche.SchneiderEnabled = v == "true"
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Rating.KFactor == 0 {
		cfg.Rating.KFactor = DefaultKFactor
	}
	if cfg.Rating.StartingRating == 0 {
		cfg.Rating.StartingRating = DefaultStartingRating
	}
	if cfg.Rating.Scale == 0 {
		cfg.Rating.Scale = DefaultScale
	}
	if cfg.Rating.MaxPlausibleDiff == 0 {
		cfg.Rating.MaxPlausibleDiff = DefaultMaxPlausibleDiff
	}
	if cfg.Rating.LedgerMaxEntries == 0 {
		cfg.Rating.LedgerMaxEntries = DefaultLedgerMaxEntries
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = DefaultHTTPAddr
	}
	if cfg.HTTP.RequestsPerSec == 0 {
		cfg.HTTP.RequestsPerSec = 20
	}
	if cfg.HTTP.Burst == 0 {
		cfg.HTTP.Burst = 40
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Observability.TempoSampleRate == 0 {
		cfg.Observability.TempoSampleRate = 0.1
	}
}
