package testfixtures

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/iliyamo/appointment-slot-reservation/internal/database"
)

// NewDB opens a throwaway SQLite database in the test's temp directory
// and applies the production schema.  The repositories keep their SQL
// to the subset shared by MySQL and SQLite, so the same statements the
// server runs in production are exercised here against a real store.
//
// The pool is limited to a single connection: SQLite allows one writer
// at a time, and funnelling every transaction through one connection
// makes concurrent test goroutines serialize at BeginTx instead of
// failing with a busy error.  The claim semantics under test do not
// change; each transaction still observes the previously committed
// state.
func NewDB(tb testing.TB) *sql.DB {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "reservation.db")
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		tb.Fatalf("failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := database.EnsureSchema(context.Background(), db); err != nil {
		_ = db.Close()
		tb.Fatalf("failed to apply schema: %v", err)
	}

	tb.Cleanup(func() { _ = db.Close() })
	return db
}
