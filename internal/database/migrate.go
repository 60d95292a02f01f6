package database

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

//go:embed schema/*.sql
var schemaFiles embed.FS

// Migrate creates any missing tables for the given driver.  Every
// statement in the schema is idempotent, so Migrate is safe to run on
// each start.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	name := "schema/mysql.sql"
	if db.DriverName() == DriverSQLite {
		name = "schema/sqlite.sql"
	}
	raw, err := schemaFiles.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	for i, stmt := range splitStatements(string(raw)) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply %s statement %d: %w", name, i+1, err)
		}
	}
	return nil
}

// splitStatements splits a schema file on semicolons.  The schema has no
// string literals containing ';'.
func splitStatements(src string) []string {
	parts := strings.Split(src, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
