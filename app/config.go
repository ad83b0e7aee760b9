package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sndcds/redrovr/catalog"
	"github.com/sndcds/redrovr/ingest"
	"github.com/sndcds/redrovr/logging"
	"github.com/sndcds/redrovr/media"
	"github.com/sndcds/redrovr/rover"
)

// Config holds everything the server and the CLI need. It is read from a
// JSON or YAML file; secrets may come from the environment instead.
type Config struct {
	Addr        string   `json:"addr" yaml:"addr"`
	CorsOrigins []string `json:"cors_origins" yaml:"cors_origins"`
	Verbose     bool     `json:"verbose" yaml:"verbose"`
	LogFile     string   `json:"log_file" yaml:"log_file"`

	// catalog_driver is "postgres" or "sqlite".
	CatalogDriver string `json:"catalog_driver" yaml:"catalog_driver"`
	SQLitePath    string `json:"sqlite_path" yaml:"sqlite_path"`
	DbHost        string `json:"db_host" yaml:"db_host"`
	DbPort        int    `json:"db_port" yaml:"db_port"`
	DbUser        string `json:"db_user" yaml:"db_user"`
	DbPassword    string `json:"db_password" yaml:"db_password"`
	DbName        string `json:"db_name" yaml:"db_name"`
	DbSchema      string `json:"db_schema" yaml:"db_schema"`
	SSLMode       string `json:"ssl_mode" yaml:"ssl_mode"`

	// media_driver is "fs" or "s3".
	MediaDriver       string `json:"media_driver" yaml:"media_driver"`
	MediaDir          string `json:"media_dir" yaml:"media_dir"`
	CacheDir          string `json:"cache_dir" yaml:"cache_dir"`
	S3Region          string `json:"s3_region" yaml:"s3_region"`
	S3Bucket          string `json:"s3_bucket" yaml:"s3_bucket"`
	S3Prefix          string `json:"s3_prefix" yaml:"s3_prefix"`
	S3Endpoint        string `json:"s3_endpoint" yaml:"s3_endpoint"`
	S3AccessKeyID     string `json:"s3_access_key_id" yaml:"s3_access_key_id"`
	S3SecretAccessKey string `json:"s3_secret_access_key" yaml:"s3_secret_access_key"`

	// marker_driver is "file" or "catalog".
	MarkerDriver string `json:"marker_driver" yaml:"marker_driver"`
	MarkerPath   string `json:"marker_path" yaml:"marker_path"`

	NasaAPIKey        string `json:"nasa_api_key" yaml:"nasa_api_key"`
	NasaBaseURL       string `json:"nasa_base_url" yaml:"nasa_base_url"`
	Rover             string `json:"rover" yaml:"rover"`
	TimeoutSeconds    int    `json:"timeout_seconds" yaml:"timeout_seconds"`
	RequestIntervalMs int    `json:"request_interval_ms" yaml:"request_interval_ms"`

	CooldownSeconds int `json:"cooldown_seconds" yaml:"cooldown_seconds"`
	ImageWidth      int `json:"image_width" yaml:"image_width"`
	ImageQuality    int `json:"image_quality" yaml:"image_quality"`
	RecentLimit     int `json:"recent_limit" yaml:"recent_limit"`
	MaxRenditionPx  int `json:"max_rendition_px" yaml:"max_rendition_px"`
}

// LoadConfig reads fileName (YAML for .yaml/.yml, JSON otherwise), applies
// environment overrides and fills in defaults.
func LoadConfig(fileName string) (Config, error) {
	var cfg Config

	if fileName != "" {
		data, err := os.ReadFile(fileName)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		switch strings.ToLower(filepath.Ext(fileName)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, &cfg)
		default:
			err = json.Unmarshal(data, &cfg)
		}
		if err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", fileName, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	if v := os.Getenv("NASA_API_KEY"); v != "" {
		c.NasaAPIKey = v
	}
	if v := os.Getenv("REDROVR_DB_PASSWORD"); v != "" {
		c.DbPassword = v
	}
	if v := os.Getenv("REDROVR_S3_SECRET_ACCESS_KEY"); v != "" {
		c.S3SecretAccessKey = v
	}
}

func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.CatalogDriver == "" {
		c.CatalogDriver = "sqlite"
	}
	if c.SQLitePath == "" {
		c.SQLitePath = "data/redrovr.db"
	}
	if c.DbPort == 0 {
		c.DbPort = 5432
	}
	if c.DbSchema == "" {
		c.DbSchema = "public"
	}
	if c.MediaDriver == "" {
		c.MediaDriver = "fs"
	}
	if c.MediaDir == "" {
		c.MediaDir = "data/media"
	}
	if c.CacheDir == "" {
		c.CacheDir = "data/cache"
	}
	if c.MarkerDriver == "" {
		c.MarkerDriver = "file"
	}
	if c.MarkerPath == "" {
		c.MarkerPath = "data/last-ran.txt"
	}
	if c.NasaAPIKey == "" {
		c.NasaAPIKey = "DEMO_KEY"
	}
	if c.NasaBaseURL == "" {
		c.NasaBaseURL = rover.DefaultBaseURL
	}
	if c.Rover == "" {
		c.Rover = rover.DefaultRover
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	if c.RequestIntervalMs == 0 {
		c.RequestIntervalMs = 250
	}
	if c.CooldownSeconds == 0 {
		c.CooldownSeconds = int(ingest.DefaultCooldown / time.Second)
	}
	if c.ImageWidth <= 0 {
		c.ImageWidth = ingest.DefaultWidth
	}
	if c.ImageQuality <= 0 {
		c.ImageQuality = ingest.DefaultQuality
	}
	if c.RecentLimit <= 0 {
		c.RecentLimit = ingest.DefaultRecentLimit
	}
	if c.MaxRenditionPx <= 0 {
		c.MaxRenditionPx = 2400
	}
}

// Validate rejects unknown drivers and incomplete backend settings.
func (c Config) Validate() error {
	switch c.CatalogDriver {
	case "sqlite":
	case "postgres":
		if c.DbHost == "" || c.DbName == "" {
			return &catalog.ValidationError{Field: "db_host", Msg: "postgres catalog needs db_host and db_name"}
		}
	default:
		return &catalog.ValidationError{Field: "catalog_driver", Msg: fmt.Sprintf("unknown driver %q", c.CatalogDriver)}
	}

	switch c.MediaDriver {
	case "fs":
	case "s3":
		if c.S3Bucket == "" {
			return &catalog.ValidationError{Field: "s3_bucket", Msg: "s3 media store needs a bucket"}
		}
	default:
		return &catalog.ValidationError{Field: "media_driver", Msg: fmt.Sprintf("unknown driver %q", c.MediaDriver)}
	}

	switch c.MarkerDriver {
	case "file", "catalog":
	default:
		return &catalog.ValidationError{Field: "marker_driver", Msg: fmt.Sprintf("unknown driver %q", c.MarkerDriver)}
	}

	if c.CooldownSeconds < 0 {
		return &catalog.ValidationError{Field: "cooldown_seconds", Msg: "must not be negative"}
	}
	if c.ImageQuality > 100 {
		return &catalog.ValidationError{Field: "image_quality", Msg: "must be between 1 and 100"}
	}
	return nil
}

func (c Config) Cooldown() time.Duration {
	return time.Duration(c.CooldownSeconds) * time.Second
}

func (c Config) PostgresConfig() catalog.PostgresConfig {
	return catalog.PostgresConfig{
		Host:     c.DbHost,
		Port:     c.DbPort,
		User:     c.DbUser,
		Password: c.DbPassword,
		DBName:   c.DbName,
		Schema:   c.DbSchema,
		SSLMode:  c.SSLMode,
	}
}

func (c Config) S3Config() media.S3Config {
	return media.S3Config{
		Region:          c.S3Region,
		Bucket:          c.S3Bucket,
		Prefix:          c.S3Prefix,
		AccessKeyID:     c.S3AccessKeyID,
		SecretAccessKey: c.S3SecretAccessKey,
		Endpoint:        c.S3Endpoint,
	}
}

func (c Config) RoverOptions() rover.Options {
	return rover.Options{
		BaseURL:  c.NasaBaseURL,
		Rover:    c.Rover,
		APIKey:   c.NasaAPIKey,
		Timeout:  time.Duration(c.TimeoutSeconds) * time.Second,
		Interval: time.Duration(c.RequestIntervalMs) * time.Millisecond,
	}
}

func (c Config) JobConfig() ingest.Config {
	return ingest.Config{
		Cooldown:    c.Cooldown(),
		Width:       c.ImageWidth,
		Quality:     c.ImageQuality,
		RecentLimit: c.RecentLimit,
	}
}

// Print logs the effective configuration. Secrets are never logged.
func (c Config) Print() {
	logging.Info("config",
		"addr", c.Addr,
		"catalog_driver", c.CatalogDriver,
		"sqlite_path", c.SQLitePath,
		"db_host", c.DbHost,
		"db_port", c.DbPort,
		"db_user", c.DbUser,
		"db_name", c.DbName,
		"db_schema", c.DbSchema,
		"ssl_mode", c.SSLMode,
		"media_driver", c.MediaDriver,
		"media_dir", c.MediaDir,
		"cache_dir", c.CacheDir,
		"s3_bucket", c.S3Bucket,
		"s3_prefix", c.S3Prefix,
		"marker_driver", c.MarkerDriver,
		"marker_path", c.MarkerPath,
		"rover", c.Rover,
		"nasa_base_url", c.NasaBaseURL,
		"cooldown", c.Cooldown(),
		"image_width", c.ImageWidth,
		"image_quality", c.ImageQuality,
	)
}
