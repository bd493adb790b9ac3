package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/greenleague-backend/pkg/migrate"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
}

func TestRelationshipsMigrationContainsSchema(t *testing.T) {
	content := readMigration(t, "*_create_pharmacy_relationships_table.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS pharmacy_relationships",
		"stat_date date NOT NULL",
		"manufacturer_id uuid REFERENCES manufacturers(id)",
		"product_id uuid REFERENCES products(id)",
		"strain_id uuid REFERENCES strains(id)",
		"manufacturer_id IS NOT NULL OR product_id IS NOT NULL OR strain_id IS NOT NULL",
		"CREATE INDEX IF NOT EXISTS idx_pharmacy_relationships_stat_date",
		"CREATE INDEX IF NOT EXISTS idx_pharmacy_relationships_composite",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
	if strings.Contains(content, "CREATE UNIQUE INDEX") {
		t.Errorf("composite key must not be backed by a unique index")
	}
}

func TestCatalogMigrationContainsTables(t *testing.T) {
	content := readMigration(t, "*_create_catalog_tables.sql")
	for _, table := range []string{"pharmacies", "manufacturers", "products", "strains"} {
		if !strings.Contains(content, "CREATE TABLE IF NOT EXISTS "+table) {
			t.Errorf("missing table %s", table)
		}
	}
}

func TestCreateSQLMigrationWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Strain Aliases")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_strain_aliases.sql") {
		t.Fatalf("unexpected filename %s", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file found for %s", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
