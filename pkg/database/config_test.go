package database

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_BuildDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "mysql",
			cfg:  Config{Driver: DriverMySQL, Host: "db", Port: 3306, User: "bank", Password: "pw", DBName: "devweek"},
			want: "bank:pw@tcp(db:3306)/devweek?charset=utf8mb4&parseTime=True&loc=Local",
		},
		{
			name: "postgres",
			cfg:  Config{Driver: DriverPostgres, Host: "pg", Port: 5432, User: "bank", Password: "pw", DBName: "devweek"},
			want: "host=pg port=5432 user=bank password=pw dbname=devweek sslmode=disable TimeZone=UTC",
		},
		{
			name: "sqlite file",
			cfg:  Config{Driver: DriverSQLite, DBName: "bank.db"},
			want: "file:bank.db?_foreign_keys=1&_busy_timeout=5000",
		},
		{
			name: "explicit dsn wins",
			cfg:  Config{Driver: DriverMySQL, DSN: "custom", Host: "ignored"},
			want: "custom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cfg.BuildDSN()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfig_BuildDSNUnknownDriver(t *testing.T) {
	cfg := Config{Driver: "oracle"}
	_, err := cfg.BuildDSN()
	assert.Error(t, err)
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{}.WithDefaults()

	assert.Equal(t, DriverSQLite, cfg.Driver)
	assert.Equal(t, "devweek.db", cfg.DBName)
	assert.Equal(t, 100, cfg.MaxOpenConns)
	assert.Equal(t, 10, cfg.MaxIdleConns)
	assert.Equal(t, 30*time.Minute, cfg.ConnMaxLifetime)
	assert.Equal(t, 10, cfg.MaxRetries)
}

func TestNewClient_SQLiteMemory(t *testing.T) {
	client, err := NewClient(Config{
		Driver:     DriverSQLite,
		DSN:        "file:client_test?mode=memory&cache=shared",
		MaxRetries: 1,
		LogLevel:   "silent",
	}, zerolog.Nop())
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, DriverSQLite, client.Driver())
	assert.NoError(t, client.Ping())

	sqlDB, err := client.DB().DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}
