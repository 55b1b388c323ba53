package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DatabaseConfig Postgres connection settings for the remote data service.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"-"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int    `yaml:"max_conns"`
	MaxIdle  int    `yaml:"max_idle"`
}

// GetDSN returns the lib/pq connection string.
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig signed-URL cache settings.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"-"`
	DB       int    `yaml:"db"`
}

// StorageConfig object storage (Supabase Storage) settings.
type StorageConfig struct {
	URL             string        `yaml:"url"`
	ServiceKey      string        `yaml:"-"`
	SignatureBucket string        `yaml:"signature_bucket"`
	SignedURLTTL    time.Duration `yaml:"signed_url_ttl"`
}

// AuthConfig session validation settings.
type AuthConfig struct {
	Enabled   bool   `yaml:"enabled"`
	JWTSecret string `yaml:"-"`
}

// Config pestcontrol-data configuration.
// Values come from defaults, then the optional YAML file named by CONFIG_FILE,
// then environment variables. Secrets are only read from the environment.
type Config struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	DBEnabled     bool           `yaml:"db_enabled"`
	Database      DatabaseConfig `yaml:"database"`
	Redis         RedisConfig    `yaml:"redis"`
	Storage       StorageConfig  `yaml:"storage"`
	Auth          AuthConfig     `yaml:"auth"`
	DraftDBPath   string         `yaml:"draft_db_path"`
	RemoteTimeout time.Duration  `yaml:"remote_timeout"`
	Log           struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = ":8080"
	cfg.DBEnabled = true
	cfg.Database = DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "postgres",
		SSLMode:  "disable",
		MaxConns: 10,
		MaxIdle:  5,
	}
	cfg.Redis = RedisConfig{Enabled: false, Addr: "localhost:6379"}
	cfg.Storage = StorageConfig{
		SignatureBucket: "workers",
		SignedURLTTL:    time.Hour,
	}
	cfg.Auth.Enabled = true
	cfg.DraftDBPath = "controlplagas-drafts.db"
	cfg.RemoteTimeout = 15 * time.Second
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	return cfg
}

// Load reads the configuration.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", cfg.HTTP.Addr)

	cfg.DBEnabled = parseBool(os.Getenv("DB_ENABLED"), cfg.DBEnabled)
	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = parseInt(os.Getenv("DB_PORT"), cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Database = getEnv("DB_NAME", cfg.Database.Database)
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", cfg.Database.SSLMode)

	cfg.Redis.Enabled = parseBool(os.Getenv("REDIS_ENABLED"), cfg.Redis.Enabled)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = parseInt(os.Getenv("REDIS_DB"), cfg.Redis.DB)

	cfg.Storage.URL = getEnv("SUPABASE_URL", cfg.Storage.URL)
	cfg.Storage.ServiceKey = getEnv("SUPABASE_SERVICE_KEY", cfg.Storage.ServiceKey)
	cfg.Storage.SignatureBucket = getEnv("SIGNATURE_BUCKET", cfg.Storage.SignatureBucket)
	cfg.Storage.SignedURLTTL = parseDuration(os.Getenv("SIGNED_URL_TTL"), cfg.Storage.SignedURLTTL)

	cfg.Auth.Enabled = parseBool(os.Getenv("AUTH_ENABLED"), cfg.Auth.Enabled)
	cfg.Auth.JWTSecret = getEnv("SUPABASE_JWT_SECRET", cfg.Auth.JWTSecret)

	cfg.DraftDBPath = getEnv("DRAFT_DB_PATH", cfg.DraftDBPath)
	cfg.RemoteTimeout = parseDuration(os.Getenv("REMOTE_TIMEOUT"), cfg.RemoteTimeout)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail late.
func (c *Config) Validate() error {
	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required when auth is enabled")
	}
	if c.RemoteTimeout <= 0 {
		return fmt.Errorf("remote_timeout must be positive, got %s", c.RemoteTimeout)
	}
	if c.Storage.SignatureBucket == "" {
		return fmt.Errorf("signature bucket is required")
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseBool(s string, def bool) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return b
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
