package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/librarian-backend/pkg/migrate"
)

func TestInitMigrationContainsSchemas(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_init_schema.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no init schema migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TYPE copy_status AS ENUM",
		"CREATE TYPE loan_status AS ENUM",
		"CREATE TYPE member_status AS ENUM",
		"CREATE TYPE membership_type AS ENUM",
		"CREATE TYPE payment_type AS ENUM",
		"CREATE TYPE payment_method AS ENUM",
		"CREATE TABLE users",
		"CREATE TABLE books",
		"CREATE TABLE racks",
		"CREATE TABLE book_copies",
		"CREATE TABLE members",
		"CREATE TABLE loans",
		"CREATE TABLE payments",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCirculationIndexesMigration(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_circulation_indexes.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no circulation indexes migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE UNIQUE INDEX idx_loans_open_copy",
		"CREATE INDEX idx_loans_due_date",
		"CREATE INDEX idx_book_copies_status",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}
