// Package config reads runtime settings from the environment (and an optional
// .env file).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/xob0t/GoMockup/pkg/placement"
)

type Config struct {
	// Server
	ListenAddr string
	LogLevel   string

	// Output area
	TempDir      string
	TempURL      string
	Retention    time.Duration
	OutputFormat string
	JPEGQuality  int

	// Rendering
	FontsDir           string
	DefaultFont        string
	AssetsDir          string
	MaxCanvasDimension int
	MaxSourceBytes     int64
	FetchTimeout       time.Duration
	ResampleFilter     string

	// Pipeline
	RequestTimeout   time.Duration
	BatchConcurrency int

	// Templates
	TemplateStore     string
	TemplateStorePath string

	// S3 mirror; disabled when S3Bucket is empty
	S3Bucket    string
	S3Prefix    string
	S3PublicURL string
}

// Load reads .env when present, then the environment, and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	store := strings.ToLower(getEnv("TEMPLATE_STORE", "memory"))

	cfg := &Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		TempDir:      getEnv("TEMP_DIR", "./pdw-temp"),
		TempURL:      getEnv("TEMP_URL", "http://localhost:8080/mockups"),
		Retention:    getEnvAsDuration("RETENTION", 24*time.Hour),
		OutputFormat: strings.ToLower(strings.TrimPrefix(getEnv("OUTPUT_FORMAT", "png"), ".")),
		JPEGQuality:  getEnvAsInt("JPEG_QUALITY", 90),

		FontsDir:           getEnv("FONTS_DIR", "./fonts"),
		DefaultFont:        getEnv("DEFAULT_FONT", "OpenSans"),
		AssetsDir:          getEnv("ASSETS_DIR", ""),
		MaxCanvasDimension: getEnvAsInt("MAX_CANVAS_DIMENSION", 4096),
		MaxSourceBytes:     int64(getEnvAsInt("MAX_SOURCE_BYTES", 5<<20)),
		FetchTimeout:       getEnvAsDuration("FETCH_TIMEOUT", 10*time.Second),
		ResampleFilter:     getEnv("RESAMPLE_FILTER", "lanczos"),

		RequestTimeout:   getEnvAsDuration("REQUEST_TIMEOUT", 30*time.Second),
		BatchConcurrency: getEnvAsInt("BATCH_CONCURRENCY", 4),

		TemplateStore:     store,
		TemplateStorePath: getEnv("TEMPLATE_STORE_PATH", defaultStorePath(store)),

		S3Bucket:    getEnv("S3_BUCKET", ""),
		S3Prefix:    getEnv("S3_PREFIX", ""),
		S3PublicURL: getEnv("S3_PUBLIC_URL", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.TemplateStore {
	case "memory", "filesystem", "sqlite":
	default:
		return fmt.Errorf("TEMPLATE_STORE must be memory, filesystem or sqlite, got %q", c.TemplateStore)
	}
	switch c.OutputFormat {
	case "png", "jpg", "jpeg", "bmp", "tif", "tiff", "gif":
	default:
		return fmt.Errorf("OUTPUT_FORMAT %q is not supported", c.OutputFormat)
	}
	if _, err := placement.FilterByName(c.ResampleFilter); err != nil {
		return fmt.Errorf("RESAMPLE_FILTER: %w", err)
	}
	if c.TempDir == "" {
		return fmt.Errorf("TEMP_DIR is required")
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("JPEG_QUALITY must be between 1 and 100")
	}
	if c.MaxCanvasDimension < 1 {
		return fmt.Errorf("MAX_CANVAS_DIMENSION must be positive")
	}
	if c.MaxSourceBytes < 1 {
		return fmt.Errorf("MAX_SOURCE_BYTES must be positive")
	}
	if c.BatchConcurrency < 1 {
		return fmt.Errorf("BATCH_CONCURRENCY must be positive")
	}
	return nil
}

func defaultStorePath(store string) string {
	switch store {
	case "sqlite":
		return "templates.db"
	default:
		return "./data/templates"
	}
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		logrus.WithField("key", key).Warn("Ignoring non-integer value")
	}
	return defaultVal
}

// getEnvAsDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	logrus.WithField("key", key).Warn("Ignoring invalid duration")
	return defaultVal
}
