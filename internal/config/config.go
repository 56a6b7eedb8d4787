package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/JoeShih716/go-devweek-bank/pkg/database"
	"github.com/JoeShih716/go-devweek-bank/pkg/logger"
)

// DefaultPath is where the binaries look for the yaml file.
const DefaultPath = "config/config.yaml"

// Config is the configuration shared by cmd/bank and cmd/etl.
type Config struct {
	HTTP     HTTPConfig      `yaml:"http"`
	GRPC     GRPCConfig      `yaml:"grpc"`
	Database database.Config `yaml:"database"`
	Log      logger.Config   `yaml:"log"`
	// Seed creates the sample users on an empty store. Defaults to true.
	Seed     *bool          `yaml:"seed"`
	Journal  JournalConfig  `yaml:"journal"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	ETL      ETLConfig      `yaml:"etl"`
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	CORSOrigins    []string      `yaml:"cors_origins"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type GRPCConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// JournalConfig enables the movement journal when Path is set.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// RabbitMQConfig enables movement events when URL is set.
type RabbitMQConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

type ETLConfig struct {
	APIURL    string        `yaml:"api_url"`
	InputPath string        `yaml:"input_path"`
	OutputDir string        `yaml:"output_dir"`
	PushLimit *int          `yaml:"push_limit"`
	Timeout   time.Duration `yaml:"timeout"`
	// Schedule is a cron spec; empty runs the pipeline once
	Schedule string   `yaml:"schedule"`
	S3       S3Config `yaml:"s3"`
}

// S3Config enables artifact upload when Bucket is set.
// Empty credentials fall back to the default AWS credential chain.
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// Load reads the yaml file at path, then .env and BANK_* overrides, then fills defaults.
// A missing file is not an error: defaults and environment are enough to run locally.
func Load(path string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var errs []error
	setString(&c.Database.Driver, "BANK_DB_DRIVER")
	setString(&c.Database.DSN, "BANK_DB_DSN")
	setString(&c.Log.Level, "BANK_LOG_LEVEL")
	setString(&c.ETL.APIURL, "BANK_API_URL")
	setString(&c.ETL.Schedule, "BANK_ETL_SCHEDULE")
	setString(&c.ETL.S3.Bucket, "BANK_S3_BUCKET")
	setString(&c.RabbitMQ.URL, "BANK_RABBITMQ_URL")
	setString(&c.Journal.Path, "BANK_JOURNAL_PATH")
	errs = append(errs,
		setInt(&c.HTTP.Port, "BANK_HTTP_PORT"),
		setInt(&c.GRPC.Port, "BANK_GRPC_PORT"),
		setBool(&c.GRPC.Enabled, "BANK_GRPC_ENABLED"),
		setBool(&c.Log.Pretty, "BANK_LOG_PRETTY"),
	)
	if v, ok := os.LookupEnv("BANK_SEED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("BANK_SEED: %w", err))
		} else {
			c.Seed = &b
		}
	}
	return errors.Join(errs...)
}

func (c *Config) applyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8000
	}
	if len(c.HTTP.CORSOrigins) == 0 {
		c.HTTP.CORSOrigins = []string{"*"}
	}
	if c.HTTP.RequestTimeout == 0 {
		c.HTTP.RequestTimeout = 30 * time.Second
	}
	if c.GRPC.Port == 0 {
		c.GRPC.Port = 50051
	}
	c.Database = c.Database.WithDefaults()
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Seed == nil {
		seed := true
		c.Seed = &seed
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "bank.movements"
	}
	if c.ETL.APIURL == "" {
		c.ETL.APIURL = "http://localhost:8000"
	}
	if c.ETL.InputPath == "" {
		c.ETL.InputPath = "data/SDW2023.csv"
	}
	if c.ETL.OutputDir == "" {
		c.ETL.OutputDir = "output"
	}
	if c.ETL.PushLimit == nil {
		limit := 3
		c.ETL.PushLimit = &limit
	}
	if c.ETL.Timeout == 0 {
		c.ETL.Timeout = 10 * time.Second
	}
	if c.ETL.S3.Region == "" {
		c.ETL.S3.Region = "us-east-1"
	}
}

// Validate checks the values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port %d out of range", c.HTTP.Port))
	}
	if c.GRPC.Enabled && (c.GRPC.Port < 1 || c.GRPC.Port > 65535) {
		errs = append(errs, fmt.Errorf("grpc.port %d out of range", c.GRPC.Port))
	}
	if _, err := c.Database.BuildDSN(); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}
	if u, err := url.Parse(c.ETL.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("etl.api_url %q is not an absolute url", c.ETL.APIURL))
	}
	if c.ETL.PushLimit != nil && *c.ETL.PushLimit < 0 {
		errs = append(errs, fmt.Errorf("etl.push_limit must not be negative"))
	}
	return errors.Join(errs...)
}

// SeedEnabled reports whether sample data is created on startup.
func (c *Config) SeedEnabled() bool {
	return c.Seed == nil || *c.Seed
}

// HTTPAddr is the listen address of the REST API.
func (c *Config) HTTPAddr() string {
	return ":" + strconv.Itoa(c.HTTP.Port)
}

// GRPCAddr is the listen address of the ledger RPC endpoint.
func (c *Config) GRPCAddr() string {
	return ":" + strconv.Itoa(c.GRPC.Port)
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}
