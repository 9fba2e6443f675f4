package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestOpen_SchemaVersion verifies a fresh database ends up at the latest
// schema version.
func TestOpen_SchemaVersion(t *testing.T) {
	s := openTestStore(t)

	v, err := s.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != 2 {
		t.Errorf("schema version = %d, want 2", v)
	}
}

func TestOpen_CreatesDatabaseFile(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open(%s): %v", dir, err)
	}
	defer s.Close()

	if _, err := os.Stat(filepath.Join(dir, "docsbot.db")); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// data survives and migrations are not re-applied.
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	if _, err := s1.SaveInteraction(Interaction{SessionID: "s1", UserInput: "hi", BotResponse: "hello", QuestionType: "general"}); err != nil {
		t.Fatalf("SaveInteraction: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v, err := s2.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != 2 {
		t.Errorf("schema version after reopen = %d, want 2", v)
	}

	rows, err := s2.ListInteractions(10, 0)
	if err != nil {
		t.Fatalf("ListInteractions: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("got %d interactions after reopen, want 1", len(rows))
	}
}

// TestIndexesExist verifies the migrations create the expected indexes.
func TestIndexesExist(t *testing.T) {
	s := openTestStore(t)

	indexes := []string{"idx_interactions_session", "idx_interactions_question_type", "idx_document_vectors_source"}
	for _, idx := range indexes {
		var count int
		err := s.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name=?", idx).Scan(&count)
		if err != nil {
			t.Fatalf("querying sqlite_master for %q: %v", idx, err)
		}
		if count != 1 {
			t.Errorf("index %q not found in sqlite_master", idx)
		}
	}
}

// TestVersionTable_SingleRow verifies the version table holds exactly one row.
func TestVersionTable_SingleRow(t *testing.T) {
	s := openTestStore(t)

	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM version").Scan(&n); err != nil {
		t.Fatalf("counting version rows: %v", err)
	}
	if n != 1 {
		t.Errorf("version table has %d rows, want 1", n)
	}
}
