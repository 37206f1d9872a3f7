package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the complete application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
	Tracker TrackerConfig `mapstructure:"tracker"`
	Auth    AuthConfig    `mapstructure:"auth"`
}

// ServerConfig defines server ports and addresses
type ServerConfig struct {
	BindAddress string `mapstructure:"bind_address"`
	HTTPPort    int    `mapstructure:"http_port"`
	MetricsPort int    `mapstructure:"metrics_port"`
}

// StorageConfig defines storage backend settings
type StorageConfig struct {
	Type      string         `mapstructure:"type"` // bolt, redis or postgres
	Path      string         `mapstructure:"path"`
	CacheSize int            `mapstructure:"cache_size"` // 0 disables the game cache
	Redis     RedisConfig    `mapstructure:"redis"`
	Postgres  PostgresConfig `mapstructure:"postgres"`
	Retry     RetryConfig    `mapstructure:"retry"`
}

// RedisConfig defines Redis connection settings
type RedisConfig struct {
	Host         string `mapstructure:"host"` // may carry the port as host:port
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	DialTimeout  string `mapstructure:"dial_timeout"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// PostgresConfig defines PostgreSQL connection settings
type PostgresConfig struct {
	URI      string `mapstructure:"uri"`
	MinConns int32  `mapstructure:"min_conns"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// RetryConfig controls retries at the storage boundary
type RetryConfig struct {
	MaxAttempts  int     `mapstructure:"max_attempts"`
	InitialDelay string  `mapstructure:"initial_delay"`
	MaxDelay     string  `mapstructure:"max_delay"`
	Multiplier   float64 `mapstructure:"multiplier"`
}

// LoggingConfig defines logging behavior
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TrackerConfig defines play tracking behavior
type TrackerConfig struct {
	Timezone       string `mapstructure:"timezone"`
	PlayMilestones []int  `mapstructure:"play_milestones"`
	WinMilestones  []int  `mapstructure:"win_milestones"`
}

// AuthConfig defines API authentication settings
type AuthConfig struct {
	JWTSecret       string   `mapstructure:"jwt_secret"`
	TokenExpiration string   `mapstructure:"token_expiration"`
	InitialUsername string   `mapstructure:"initial_username"`
	InitialPassword string   `mapstructure:"initial_password"`
	RateLimit       int      `mapstructure:"rate_limit"`
	RateLimitWindow string   `mapstructure:"rate_limit_window"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`

	AllowRegistration bool `mapstructure:"allow_registration"`
}

// Load loads configuration from file and environment variables.
// An empty or missing path falls back to defaults and the environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("GAMESHELF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.bind_address", "127.0.0.1")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.metrics_port", 9090)

	// Storage defaults
	v.SetDefault("storage.type", "bolt")
	v.SetDefault("storage.path", "gameshelf.bolt")
	v.SetDefault("storage.cache_size", 256)
	v.SetDefault("storage.redis.host", "localhost")
	v.SetDefault("storage.redis.port", 6379)
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.pool_size", 10)
	v.SetDefault("storage.redis.min_idle_conns", 2)
	v.SetDefault("storage.redis.dial_timeout", "5s")
	v.SetDefault("storage.redis.read_timeout", "3s")
	v.SetDefault("storage.redis.write_timeout", "3s")
	v.SetDefault("storage.postgres.uri", "")
	v.SetDefault("storage.postgres.min_conns", 1)
	v.SetDefault("storage.postgres.max_conns", 8)
	v.SetDefault("storage.retry.max_attempts", 3)
	v.SetDefault("storage.retry.initial_delay", "100ms")
	v.SetDefault("storage.retry.max_delay", "2s")
	v.SetDefault("storage.retry.multiplier", 2.0)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Tracker defaults
	v.SetDefault("tracker.timezone", "Local")
	v.SetDefault("tracker.play_milestones", []int{50, 40, 30, 20, 10, 5})
	v.SetDefault("tracker.win_milestones", []int{50, 40, 30, 20, 10, 5})

	// Auth defaults; every key needs a default to be settable from the environment
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.initial_password", "")
	v.SetDefault("auth.token_expiration", "24h")
	v.SetDefault("auth.initial_username", "admin")
	v.SetDefault("auth.rate_limit", 100)
	v.SetDefault("auth.rate_limit_window", "1m")
	v.SetDefault("auth.allowed_origins", []string{})
	v.SetDefault("auth.allow_registration", false)
}

func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", cfg.Server.HTTPPort)
	}
	if cfg.Server.MetricsPort < 0 || cfg.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", cfg.Server.MetricsPort)
	}

	cfg.Storage.Type = strings.ToLower(cfg.Storage.Type)
	switch cfg.Storage.Type {
	case "", "bolt":
		cfg.Storage.Type = "bolt"
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage path is required")
		}
	case "redis":
		if cfg.Storage.Redis.Host == "" {
			return fmt.Errorf("redis host is required")
		}
	case "postgres":
		if cfg.Storage.Postgres.URI == "" {
			return fmt.Errorf("postgres uri is required")
		}
	default:
		return fmt.Errorf("unknown storage type: %s", cfg.Storage.Type)
	}
	if cfg.Storage.CacheSize < 0 {
		return fmt.Errorf("invalid cache size: %d", cfg.Storage.CacheSize)
	}

	if cfg.Storage.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry max_attempts must be at least 1")
	}
	for name, value := range map[string]string{
		"retry initial_delay":    cfg.Storage.Retry.InitialDelay,
		"retry max_delay":        cfg.Storage.Retry.MaxDelay,
		"auth token_expiration":  cfg.Auth.TokenExpiration,
		"auth rate_limit_window": cfg.Auth.RateLimitWindow,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, value, err)
		}
	}

	if _, err := cfg.Location(); err != nil {
		return err
	}
	for _, m := range append(append([]int{}, cfg.Tracker.PlayMilestones...), cfg.Tracker.WinMilestones...) {
		if m <= 0 {
			return fmt.Errorf("milestones must be positive, got %d", m)
		}
	}

	switch cfg.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown logging format: %s", cfg.Logging.Format)
	}

	return nil
}

// Location resolves the tracker timezone used to decide what "today" is.
func (c *Config) Location() (*time.Location, error) {
	switch c.Tracker.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Tracker.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid tracker timezone %q: %w", c.Tracker.Timezone, err)
	}
	return loc, nil
}

// Duration parses one of the duration strings held in the configuration,
// falling back when the value is empty.
func Duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// UnknownKeys lists keys in the file at configPath that no setting reads.
func UnknownKeys(configPath string) ([]string, error) {
	if configPath == "" {
		return nil, nil
	}
	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	file := viper.New()
	file.SetConfigFile(configPath)
	if err := file.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	known := viper.New()
	setDefaults(known)
	valid := make(map[string]bool)
	for _, key := range known.AllKeys() {
		valid[key] = true
	}

	var unknown []string
	for _, key := range file.AllKeys() {
		if !valid[key] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	return unknown, nil
}
