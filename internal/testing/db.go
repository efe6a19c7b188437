// Package testing provides testing utilities and helpers for the solver.
package testing

import (
	"path/filepath"
	"testing"

	"github.com/aristath/snailsolver/internal/database"
)

// NewTestDB creates a file-backed SQLite database in the test's temporary
// directory and applies the schema registered under name. Unknown names give
// an empty database. The database is closed when the test finishes.
func NewTestDB(t *testing.T, name string) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), name+".db"),
		Profile: database.ProfileCache,
		Name:    name,
	})
	if err != nil {
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
	})

	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}
	return db
}
