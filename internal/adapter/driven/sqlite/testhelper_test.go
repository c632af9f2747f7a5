package sqlite

import (
	"context"
	"fmt"
	"net/url"
	"testing"
)

// setupTestDB creates a named shared in-memory SQLite database for testing.
// Writer and reader connections share the same in-memory database via cache=shared.
// A unique name derived from t.Name() isolates tests from each other.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	// WAL mode is not applicable to in-memory databases; omit journal_mode pragma.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&%s", url.PathEscape(t.Name()), pragmas)

	db, err := connect(context.Background(), dsn, dsn)
	if err != nil {
		t.Fatalf("connect test db: %v", err)
	}

	if err := RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		t.Fatalf("run migrations: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return db
}
