package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

const defaultConfigPath = "config/config.yaml"

type Config struct {
	Server struct {
		Address     string   `yaml:"address"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Database struct {
		Driver  string `yaml:"driver"`
		URL     string `yaml:"url"`
		Migrate bool   `yaml:"migrate"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Search SearchConfig `yaml:"search"`
}

// SearchConfig tunes the proximity search defaults.
type SearchConfig struct {
	DefaultRadiusKm     float64 `yaml:"default_radius_km"`
	MaxLimit            int     `yaml:"max_limit"`
	MapMaxLimit         int     `yaml:"map_max_limit"`
	QueryTimeoutSeconds int     `yaml:"query_timeout_seconds"`
	RetryAttempts       int     `yaml:"retry_attempts"`
	RetryDelayMs        int     `yaml:"retry_delay_ms"`
	CacheTTLSeconds     int     `yaml:"cache_ttl_seconds"`
}

func (s SearchConfig) QueryTimeout() time.Duration {
	return time.Duration(s.QueryTimeoutSeconds) * time.Second
}

// RetryDelay is the wait before the first retry; it doubles on each further attempt.
func (s SearchConfig) RetryDelay() time.Duration {
	return time.Duration(s.RetryDelayMs) * time.Millisecond
}

func (s SearchConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLSeconds) * time.Second
}

func defaults() Config {
	var cfg Config
	cfg.Server.Address = ":4000"
	cfg.Database.Driver = "postgis"
	cfg.Search.DefaultRadiusKm = 10
	cfg.Search.MaxLimit = 10
	cfg.Search.MapMaxLimit = 100
	cfg.Search.QueryTimeoutSeconds = 5
	cfg.Search.RetryAttempts = 1
	cfg.Search.RetryDelayMs = 50
	return cfg
}

// LoadConfig reads the YAML file at CONFIG_PATH, if present, and overlays
// environment variables.
func LoadConfig() (Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}
	return Load(path)
}

// Load reads the YAML file at path, if present, and overlays environment
// variables. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("unmarshal config data: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		if !strings.HasPrefix(v, ":") {
			v = ":" + v
		}
		cfg.Server.Address = v
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"REDIS_DB", &cfg.Redis.DB},
		{"SEARCH_MAX_LIMIT", &cfg.Search.MaxLimit},
		{"SEARCH_MAP_MAX_LIMIT", &cfg.Search.MapMaxLimit},
		{"SEARCH_QUERY_TIMEOUT_SECONDS", &cfg.Search.QueryTimeoutSeconds},
		{"SEARCH_RETRY_ATTEMPTS", &cfg.Search.RetryAttempts},
		{"SEARCH_RETRY_DELAY_MS", &cfg.Search.RetryDelayMs},
		{"SEARCH_CACHE_TTL_SECONDS", &cfg.Search.CacheTTLSeconds},
	}
	for _, e := range ints {
		if v, err := readIntEnv(e.key); err != nil {
			return fmt.Errorf("parse %s: %w", e.key, err)
		} else if v != nil {
			*e.dst = *v
		}
	}

	if v := os.Getenv("SEARCH_DEFAULT_RADIUS_KM"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parse SEARCH_DEFAULT_RADIUS_KM: %w", err)
		}
		cfg.Search.DefaultRadiusKm = f
	}
	return nil
}

func (c Config) validate() error {
	if c.Database.URL == "" {
		return errors.New("database url is required (DATABASE_URL)")
	}
	if c.Search.DefaultRadiusKm <= 0 {
		return fmt.Errorf("search default radius must be positive, got %v", c.Search.DefaultRadiusKm)
	}
	if c.Search.MaxLimit <= 0 || c.Search.MapMaxLimit <= 0 {
		return fmt.Errorf("search limits must be positive, got %d and %d", c.Search.MaxLimit, c.Search.MapMaxLimit)
	}
	if c.Search.QueryTimeoutSeconds < 0 || c.Search.CacheTTLSeconds < 0 || c.Search.RetryDelayMs < 0 {
		return errors.New("search timeouts must not be negative")
	}
	if c.Search.RetryAttempts < 1 {
		return fmt.Errorf("search retry attempts must be at least 1, got %d", c.Search.RetryAttempts)
	}
	return nil
}

func readIntEnv(key string) (*int, error) {
	v := os.Getenv(key)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
