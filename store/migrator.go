package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
)

//go:embed migration
var migrationFS embed.FS

// LatestSchemaFileName is the name of the latest schema file.
// This file is used to initialize fresh installations with the current schema.
const LatestSchemaFileName = "LATEST.sql"

// Migrate initializes the database schema when it does not exist yet.
// The schema ships as a single LATEST.sql per driver; a fresh project has no
// incremental migration history to replay.
func (s *Store) Migrate(ctx context.Context) error {
	initialized, err := s.driver.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check if database is initialized")
	}
	if initialized {
		return nil
	}

	filePath := s.getMigrationBasePath() + LatestSchemaFileName
	bytes, err := migrationFS.ReadFile(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to read latest schema file: %s", filePath)
	}

	// Start a transaction to apply the latest schema.
	tx, err := s.driver.GetDB().Begin()
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	slog.Info("initializing new database with latest schema", slog.String("file", filePath))
	if err := s.execute(ctx, tx, string(bytes)); err != nil {
		return errors.Wrapf(err, "failed to execute SQL file %s", filePath)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	slog.Info("database initialized successfully")
	return nil
}

func (s *Store) getMigrationBasePath() string {
	return fmt.Sprintf("migration/%s/", s.profile.Driver)
}

// execute executes a SQL statement within a transaction context.
// For PostgreSQL, it splits multi-statement SQL and executes each separately.
func (s *Store) execute(ctx context.Context, tx *sql.Tx, stmt string) error {
	// PostgreSQL doesn't support multiple statements in a single ExecContext call.
	if s.profile.Driver == "postgres" {
		return s.executeMultiStmt(ctx, tx, stmt)
	}
	// For other drivers (SQLite), try single execution first
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return errors.Wrap(err, "failed to execute statement")
	}
	return nil
}

// executeMultiStmt splits SQL into individual statements and executes them.
func (s *Store) executeMultiStmt(ctx context.Context, tx *sql.Tx, sql string) error {
	for i, stmt := range splitSQL(sql) {
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to execute statement %d: %s", i+1, stmt)
		}
	}
	return nil
}

// splitSQL splits a multi-statement SQL string into individual statements.
// Comment lines are dropped. The schema files keep semicolons out of string
// literals, so splitting on bare semicolons is sufficient.
func splitSQL(sql string) []string {
	var kept []string
	for _, line := range strings.Split(sql, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		kept = append(kept, line)
	}

	var statements []string
	for _, stmt := range strings.Split(strings.Join(kept, "\n"), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}
