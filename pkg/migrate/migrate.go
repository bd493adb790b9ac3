package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/angelmondragon/greenleague-backend/pkg/config"
	"github.com/pressly/goose/v3"
)

const DefaultDir = "pkg/migrate/migrations"

// Commands are the goose commands Run accepts.
var Commands = []string{"up", "down", "redo", "reset", "status", "version"}

var errSQLiteUnsupported = errors.New("goose migrations target postgres; sqlite databases use AutoMigrate")

// Run executes a goose command against db. Version targeting goes through
// MigrateToVersion instead.
func Run(ctx context.Context, db *sql.DB, driver, dir, command string, args ...string) error {
	if db == nil {
		return errors.New("db is required")
	}
	if dir == "" {
		return errors.New("dir is required")
	}
	if !slices.Contains(Commands, command) {
		return fmt.Errorf("unsupported goose command %q (want one of %s)", command, strings.Join(Commands, ", "))
	}
	if err := setDialect(driver); err != nil {
		return err
	}

	// goose prints status and version output to stdout
	if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// MigrateToVersion moves the schema up or down to targetVersion (YYYYMMDDHHMMSS).
func MigrateToVersion(ctx context.Context, db *sql.DB, driver, dir, targetVersion string) error {
	target, err := parseVersion(targetVersion)
	if err != nil {
		return err
	}
	if err := setDialect(driver); err != nil {
		return err
	}

	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current == target:
		return nil
	case current < target:
		if err := goose.UpToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose up-to %d: %w", target, err)
		}
	default:
		if err := goose.DownToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose down-to %d: %w", target, err)
		}
	}
	return nil
}

func parseVersion(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New("target version is required")
	}
	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || version <= 0 {
		return 0, fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS)", raw)
	}
	return version, nil
}

func dialectFor(driver string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", config.DBDriverPostgres:
		return "postgres", nil
	case config.DBDriverSQLite:
		return "", errSQLiteUnsupported
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

func setDialect(driver string) error {
	dialect, err := dialectFor(driver)
	if err != nil {
		return err
	}
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}
