// Package config loads process configuration from the environment.
//
// Values come from environment variables, optionally seeded from a .env file
// in the working directory. See Config for the variables and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store backends accepted by REEL_STORE.
const (
	StoreFile     = "file"
	StoreDynamoDB = "dynamodb"
	StoreRedis    = "redis"
)

// DefaultModelID is the Bedrock model used for multi-shot generation.
const DefaultModelID = "amazon.nova-reel-v1:1"

// Config is the full application configuration.
type Config struct {
	LogLevel string `env:"REEL_LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"REEL_LOG_FILE"`

	ImagesDir string `env:"REEL_IMAGES_DIR" envDefault:"images"`
	OutputDir string `env:"REEL_OUTPUT_DIR" envDefault:"generated_videos"`

	Store Store

	Provider Provider

	// ArtifactBucket, when set, stores finished videos in S3 instead of OutputDir.
	ArtifactBucket string `env:"REEL_ARTIFACT_BUCKET"`

	Gemini Gemini

	HTTPAddr     string        `env:"REEL_HTTP_ADDR" envDefault:":8080"`
	SelectionTTL time.Duration `env:"REEL_SELECTION_TTL" envDefault:"30m"`
}

// Store selects and configures the job table backend.
type Store struct {
	Backend     string `env:"REEL_STORE" envDefault:"file"`
	JobsFile    string `env:"REEL_JOBS_FILE"`
	DynamoTable string `env:"REEL_DYNAMO_TABLE"`
	RedisAddr   string `env:"REEL_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisKey    string `env:"REEL_REDIS_KEY" envDefault:"reel:jobs"`
}

// Provider configures the video generation service.
type Provider struct {
	ModelID     string  `env:"REEL_MODEL_ID" envDefault:"amazon.nova-reel-v1:1"`
	OutputS3URI string  `env:"REEL_OUTPUT_S3_URI"`
	MaxShots    int     `env:"REEL_MAX_SHOTS" envDefault:"8"`
	RPS         float64 `env:"REEL_PROVIDER_RPS" envDefault:"2"`
}

// Gemini configures the shot description writer. An empty APIKey selects the
// offline template writer.
type Gemini struct {
	APIKey   string `env:"GEMINI_API_KEY"`
	Model    string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	SSMParam string `env:"SSM_API_KEY_PARAM"`
}

// Load reads .env (if present) and the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.Sanitize()
	return cfg, nil
}

// Sanitize clamps out-of-range values and fills derived defaults.
func (c *Config) Sanitize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))

	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	switch c.Store.Backend {
	case StoreFile, StoreDynamoDB, StoreRedis:
	default:
		c.Store.Backend = StoreFile
	}
	if c.Store.JobsFile == "" {
		c.Store.JobsFile = filepath.Join(c.OutputDir, "jobs.json")
	}

	if c.Provider.ModelID == "" {
		c.Provider.ModelID = DefaultModelID
	}
	if c.Provider.MaxShots < 1 || c.Provider.MaxShots > 8 {
		c.Provider.MaxShots = 8
	}
	if c.Provider.RPS <= 0 {
		c.Provider.RPS = 2
	}
	c.Provider.OutputS3URI = strings.TrimRight(c.Provider.OutputS3URI, "/")

	if c.SelectionTTL <= 0 {
		c.SelectionTTL = 30 * time.Minute
	}
}

// Validate reports settings that make the configured backend unusable.
func (c Config) Validate() error {
	var errs []error
	switch c.Store.Backend {
	case StoreDynamoDB:
		if c.Store.DynamoTable == "" {
			errs = append(errs, errors.New("REEL_DYNAMO_TABLE is required when REEL_STORE=dynamodb"))
		}
	case StoreRedis:
		if c.Store.RedisAddr == "" {
			errs = append(errs, errors.New("REEL_REDIS_ADDR is required when REEL_STORE=redis"))
		}
	}
	if c.Provider.OutputS3URI != "" && !strings.HasPrefix(c.Provider.OutputS3URI, "s3://") {
		errs = append(errs, fmt.Errorf("REEL_OUTPUT_S3_URI must start with s3://, got %q", c.Provider.OutputS3URI))
	}
	return errors.Join(errs...)
}
