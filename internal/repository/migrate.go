package repository

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

var migrationsDir = map[string]string{
	dialect.SQLite:   "migrations/sqlite",
	dialect.Postgres: "migrations/postgres",
}

var migrationsTable = map[string]string{
	dialect.SQLite: `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	dialect.Postgres: `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMPTZ DEFAULT now()
	)`,
}

// migrate runs all pending migrations for the store's dialect.
func (s *Store) migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrationsFS, migrationsDir[s.dialect])
	if err != nil {
		return fmt.Errorf("migrations for %s: %w", s.dialect, err)
	}

	if err := s.drv.Exec(ctx, migrationsTable[s.dialect], []any{}, nil); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	current, err := s.schemaVersion(ctx)
	if err != nil {
		return err
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var upFiles []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			upFiles = append(upFiles, e.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_init.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.applyMigration(ctx, version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		s.logger.Info("applied migration", "name", name, "dialect", s.dialect)
	}
	return nil
}

func (s *Store) schemaVersion(ctx context.Context) (int, error) {
	var rows entsql.Rows
	if err := s.drv.Query(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations", []any{}, &rows); err != nil {
		return 0, fmt.Errorf("getting current version: %w", err)
	}
	defer rows.Close()
	var v int
	if rows.Next() {
		if err := rows.Scan(&v); err != nil {
			return 0, fmt.Errorf("getting current version: %w", err)
		}
	}
	return v, rows.Err()
}

func (s *Store) applyMigration(ctx context.Context, version int, content string) error {
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return err
	}
	for _, stmt := range splitStatements(content) {
		if err := tx.Exec(ctx, stmt, []any{}, nil); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	q, args := entsql.Dialect(s.dialect).
		Insert("schema_migrations").
		Columns("version").
		Values(version).
		Query()
	if err := tx.Exec(ctx, q, args, nil); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func splitStatements(content string) []string {
	var out []string
	for _, stmt := range strings.Split(content, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
