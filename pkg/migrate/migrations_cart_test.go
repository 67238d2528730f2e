package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCartLinesMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_cart_lines.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no cart_lines migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS cart_lines",
		"FOREIGN KEY (session_id) REFERENCES dining_sessions(id) ON DELETE CASCADE",
		"version         bigint NOT NULL DEFAULT 0",
		"CHECK (quantity > 0)",
		"CHECK (unit_price >= 0)",
		"CREATE INDEX IF NOT EXISTS idx_cart_lines_identity",
		"DROP TABLE IF EXISTS cart_lines",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestSplitEntriesMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_split_entries.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no split_entries migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS split_entries",
		"FOREIGN KEY (line_id) REFERENCES cart_lines(id) ON DELETE CASCADE",
		"CHECK (split_count > 0)",
		"split_price     numeric(18,6) NOT NULL",
		"CREATE UNIQUE INDEX IF NOT EXISTS uq_split_entries_line",
		"DROP TABLE IF EXISTS split_entries",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
