package database

import (
	"fmt"
	"strings"
	"time"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Config describes the database connection and its pool.
type Config struct {
	Driver string `yaml:"driver"` // sqlite | mysql | postgres
	// DSN overrides the one built from the fields below.
	// For sqlite it is the file path or a "file:" URI.
	DSN string `yaml:"dsn"`

	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`

	// Connection pool
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`

	// Connect retries, for databases that start together with the service
	MaxRetries    int           `yaml:"max_retries"`
	RetryInterval time.Duration `yaml:"retry_interval"`

	LogLevel string `yaml:"log_level"` // silent | error | warn | info
}

// WithDefaults fills zero values with the defaults used in production.
func (c Config) WithDefaults() Config {
	if c.Driver == "" {
		c.Driver = DriverSQLite
	}
	if c.Driver == DriverSQLite && c.DSN == "" && c.DBName == "" {
		c.DBName = "devweek.db"
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 100
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 10
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = 30 * time.Minute
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 10
	}
	if c.RetryInterval == 0 {
		c.RetryInterval = 2 * time.Second
	}
	return c
}

// BuildDSN returns the driver specific connection string.
func (c *Config) BuildDSN() (string, error) {
	if c.DSN != "" {
		return c.DSN, nil
	}
	switch c.Driver {
	case DriverMySQL:
		// user:password@tcp(host:port)/dbname?charset=utf8mb4&parseTime=True&loc=Local
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			c.User,
			c.Password,
			c.Host,
			c.Port,
			c.DBName,
		), nil
	case DriverPostgres:
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			c.Host,
			c.Port,
			c.User,
			c.Password,
			c.DBName,
		), nil
	case DriverSQLite:
		return fmt.Sprintf("file:%s?_foreign_keys=1&_busy_timeout=5000", c.DBName), nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", c.Driver)
	}
}

// isMemory reports whether the sqlite database only lives inside the process.
func (c *Config) isMemory(dsn string) bool {
	return c.Driver == DriverSQLite && (strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory"))
}
