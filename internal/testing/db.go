// Package testing provides helpers shared by the package tests.
package testing

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/JoeShih716/go-devweek-bank/pkg/database"
)

// NewTestDB opens a private in-memory SQLite database that is closed when the test ends.
// Each call gets its own database, so tests never see each other's rows.
func NewTestDB(t *testing.T) *database.Client {
	t.Helper()

	client, err := database.NewClient(database.Config{
		Driver:     database.DriverSQLite,
		DSN:        fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString()),
		MaxRetries: 1,
		LogLevel:   "silent",
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}
