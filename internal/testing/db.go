// Package testing provides testing utilities and helpers for the roadscan project.
package testing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aristath/roadscan/internal/database"
)

// NewTestDB creates a migrated results database in a temporary file.
// Each call gets its own isolated file. The cleanup function is idempotent.
func NewTestDB(t *testing.T) (*database.DB, func()) {
	t.Helper()

	tmpPath := filepath.Join(t.TempDir(), "road_safety_results.db")

	db, err := database.New(database.Config{
		Path:    tmpPath,
		Profile: database.ProfileLedger,
		Name:    "results",
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	closed := false
	return db, func() {
		if closed {
			return
		}
		closed = true
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database: %v", err)
		}
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			t.Logf("Warning: Failed to remove temporary database file %s: %v", tmpPath, err)
		}
	}
}
