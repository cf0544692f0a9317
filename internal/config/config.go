package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	APIPort     string   `toml:"api_port"`
	CORSOrigins []string `toml:"cors_origins"`

	LogLevelName string     `toml:"log_level"`
	LogLevel     slog.Level `toml:"-"`
	LogFormat    string     `toml:"log_format"`

	DB       DBConfig       `toml:"db"`
	S3       S3Config       `toml:"s3"`
	Qdrant   QdrantConfig   `toml:"qdrant"`
	Notary   NotaryConfig   `toml:"notary"`
	Upload   UploadConfig   `toml:"upload"`
	Indexing IndexingConfig `toml:"indexing"`
}

// DBConfig selects the relational driver and sizes its pool.
type DBConfig struct {
	Driver          string        `toml:"driver"`
	DSN             string        `toml:"dsn"`
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

// S3Config holds object storage settings.
type S3Config struct {
	Endpoint     string `toml:"endpoint"`
	Region       string `toml:"region"`
	Bucket       string `toml:"bucket"`
	AccessKey    string `toml:"access_key"`
	SecretKey    string `toml:"secret_key"`
	UsePathStyle bool   `toml:"use_path_style"`
}

// QdrantConfig holds search index settings.
type QdrantConfig struct {
	URL              string `toml:"url"`
	APIKey           string `toml:"api_key"`
	CollectionPrefix string `toml:"collection_prefix"`
}

// NotaryConfig holds identity service settings.
type NotaryConfig struct {
	URL           string `toml:"url"`
	Client        string `toml:"client"`
	Key           string `toml:"key"`
	Callback      string `toml:"callback"`
	LocalCallback string `toml:"local_callback"`
}

// UploadConfig controls multipart upload spooling.
type UploadConfig struct {
	TmpDir string `toml:"tmp_dir"`
}

// IndexingConfig controls outbox delivery to the search index.
type IndexingConfig struct {
	RetryInterval time.Duration `toml:"retry_interval"`
	BatchSize     int           `toml:"batch_size"`
}

// Load reads configuration and returns a Config struct.
// Values come from built-in defaults, then the TOML file named by CONFIG_FILE (if any),
// then environment variables. A .env file in the current directory or project root is
// loaded first; variables already set in the environment take precedence over it.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			slog.Warn("config file contains undecoded keys", "path", path, "keys", keys)
		}
	}

	if err := overlayEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.DB.Driver == "sqlite" {
		// Create the data directory for file-backed databases
		if path := sqlitePath(cfg.DB.DSN); path != "" {
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		APIPort:      "8080",
		LogFormat:    "text",
		LogLevelName: "info",
		DB: DBConfig{
			Driver:          "sqlite",
			DSN:             "./data/lessonarchiver.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		S3: S3Config{
			Region: "us-east-1",
		},
		Qdrant: QdrantConfig{
			URL:              "http://localhost:6333",
			CollectionPrefix: "lessonarchiver",
		},
		Notary: NotaryConfig{
			Callback:      "https://app.lessonarchiver.com/token",
			LocalCallback: "http://localhost:8080/token",
		},
		Indexing: IndexingConfig{
			RetryInterval: 30 * time.Second,
			BatchSize:     50,
		},
	}
}

func overlayEnv(cfg *Config) error {
	cfg.APIPort = getEnv("API_PORT", cfg.APIPort)
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", cfg.LogFormat))
	cfg.LogLevelName = getEnv("LOG_LEVEL", cfg.LogLevelName)
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}

	cfg.DB.Driver = strings.ToLower(getEnv("DB_DRIVER", cfg.DB.Driver))
	cfg.DB.DSN = getEnv("DB_DSN", cfg.DB.DSN)

	cfg.S3.Endpoint = getEnv("S3_ENDPOINT", cfg.S3.Endpoint)
	cfg.S3.Region = getEnv("S3_REGION", cfg.S3.Region)
	cfg.S3.Bucket = getEnv("S3_BUCKET", cfg.S3.Bucket)
	cfg.S3.AccessKey = getEnv("S3_ACCESS_KEY", cfg.S3.AccessKey)
	cfg.S3.SecretKey = getEnv("S3_SECRET_KEY", cfg.S3.SecretKey)

	cfg.Qdrant.URL = getEnv("QDRANT_URL", cfg.Qdrant.URL)
	cfg.Qdrant.APIKey = getEnv("QDRANT_API_KEY", cfg.Qdrant.APIKey)
	cfg.Qdrant.CollectionPrefix = getEnv("QDRANT_COLLECTION_PREFIX", cfg.Qdrant.CollectionPrefix)

	cfg.Notary.URL = getEnv("NOTARY_URL", cfg.Notary.URL)
	cfg.Notary.Client = getEnv("NOTARY_CLIENT", cfg.Notary.Client)
	cfg.Notary.Key = getEnv("NOTARY_KEY", cfg.Notary.Key)
	cfg.Notary.Callback = getEnv("NOTARY_CALLBACK", cfg.Notary.Callback)
	cfg.Notary.LocalCallback = getEnv("NOTARY_LOCAL_CALLBACK", cfg.Notary.LocalCallback)

	cfg.Upload.TmpDir = getEnv("UPLOAD_TMP_DIR", cfg.Upload.TmpDir)

	var err error
	if cfg.DB.MaxOpenConns, err = getEnvInt("DB_MAX_OPEN_CONNS", cfg.DB.MaxOpenConns); err != nil {
		return err
	}
	if cfg.DB.MaxIdleConns, err = getEnvInt("DB_MAX_IDLE_CONNS", cfg.DB.MaxIdleConns); err != nil {
		return err
	}
	if cfg.DB.ConnMaxLifetime, err = getEnvDuration("DB_CONN_MAX_LIFETIME", cfg.DB.ConnMaxLifetime); err != nil {
		return err
	}
	if cfg.S3.UsePathStyle, err = getEnvBool("S3_USE_PATH_STYLE", cfg.S3.UsePathStyle); err != nil {
		return err
	}
	if cfg.Indexing.RetryInterval, err = getEnvDuration("INDEX_RETRY_INTERVAL", cfg.Indexing.RetryInterval); err != nil {
		return err
	}
	if cfg.Indexing.BatchSize, err = getEnvInt("INDEX_BATCH_SIZE", cfg.Indexing.BatchSize); err != nil {
		return err
	}
	return nil
}

func (c *Config) validate() error {
	level, err := parseLevel(c.LogLevelName)
	if err != nil {
		return err
	}
	c.LogLevel = level

	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	if c.DB.Driver != "sqlite" && c.DB.Driver != "postgres" {
		return fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.DB.Driver)
	}
	if c.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if c.S3.Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required")
	}
	if c.Notary.URL == "" {
		return fmt.Errorf("NOTARY_URL is required")
	}
	if c.Notary.Client == "" {
		return fmt.Errorf("NOTARY_CLIENT is required")
	}
	if c.Notary.Key == "" {
		return fmt.Errorf("NOTARY_KEY is required")
	}
	if c.Indexing.BatchSize <= 0 {
		return fmt.Errorf("INDEX_BATCH_SIZE must be greater than 0")
	}
	if c.Indexing.RetryInterval <= 0 {
		return fmt.Errorf("INDEX_RETRY_INTERVAL must be greater than 0")
	}
	return nil
}

// loadDotEnv loads .env from the current directory, then walks up to find one near the project root.
func loadDotEnv() {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

func parseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}
	return level, nil
}

// sqlitePath strips the file: prefix and query options from a SQLite DSN.
func sqlitePath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return ""
	}
	return path
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}
