package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/multierr"
)

const (
	versionLayout = "20060102150405"
	upMarker      = "-- +goose Up"
	downMarker    = "-- +goose Down"
)

var (
	nameSanitizeRe = regexp.MustCompile(`[^a-z0-9_]+`)
	sqlFileRe      = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)
)

// CreateSQLMigration writes an empty goose migration named <dir>/<YYYYMMDDHHMMSS>_<name>.sql.
func CreateSQLMigration(dir string, name string) (string, error) {
	return createSQLMigrationAt(dir, name, time.Now().UTC())
}

func createSQLMigrationAt(dir, name string, at time.Time) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	slug := sanitizeName(name)
	if slug == "" {
		return "", fmt.Errorf("name %q results in empty sanitized filename", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	fullpath := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", at.Format(versionLayout), slug))
	body := fmt.Sprintf("%s\n-- +goose StatementBegin\n-- %s\n-- +goose StatementEnd\n\n%s\n-- +goose StatementBegin\n-- rollback %s\n-- +goose StatementEnd\n",
		upMarker, slug, downMarker, slug)

	f, err := os.OpenFile(fullpath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return "", fmt.Errorf("migration already exists: %s", fullpath)
		}
		return "", fmt.Errorf("create migration %q: %w", fullpath, err)
	}
	_, err = f.WriteString(body)
	err = multierr.Append(err, f.Close())
	if err != nil {
		return "", fmt.Errorf("write migration %q: %w", fullpath, err)
	}
	return fullpath, nil
}

func sanitizeName(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "_")
	slug = nameSanitizeRe.ReplaceAllString(slug, "_")
	return strings.Trim(slug, "_")
}

// ValidateDir checks every .sql file in dir for a versioned name, a unique version
// and an Up section followed by a Down section. All problems are reported together.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	var errs error
	seen := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			errs = multierr.Append(errs, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name))
			continue
		}
		if prev, ok := seen[m[1]]; ok {
			errs = multierr.Append(errs, fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name))
		}
		seen[m[1]] = name
		errs = multierr.Append(errs, validateFile(filepath.Join(dir, name)))
	}
	return errs
}

func validateFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file %q: %w", path, err)
	}
	txt := string(b)
	up := strings.Index(txt, upMarker)
	down := strings.Index(txt, downMarker)
	switch {
	case up < 0:
		return fmt.Errorf("migration %q missing %q", filepath.Base(path), upMarker)
	case down < 0:
		return fmt.Errorf("migration %q missing %q", filepath.Base(path), downMarker)
	case down < up:
		return fmt.Errorf("migration %q has Down before Up", filepath.Base(path))
	}
	return nil
}
