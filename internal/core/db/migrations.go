package db

import (
	"crypto/sha256"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	embeddedmigrations "github.com/solatis/clausekeeper/migrations"
)

// RevisionStatus describes one schema revision of the ruleset cache: its
// embedded checksum, and whether (and when) it has been applied to the
// database the server is currently pointed at.
type RevisionStatus struct {
	ID          string
	Checksum    string
	Applied     bool
	AppliedAt   *time.Time
	ExecutionMs int64
}

// MigrateUp brings the ruleset cache schema up to date with the revisions
// embedded in the binary. Because the cache is supplemental — evicting or
// losing it never changes an evaluation result — a drifted
// checksum on an already-applied revision is logged and skipped rather than
// treated as a fatal integrity failure: the server still starts and the
// cache degrades to "stop trusting this one row's bookkeeping," not "refuse
// to serve."
func MigrateUp(db *sqlx.DB) error {
	revisions, err := loadRevisions(db)
	if err != nil {
		return err
	}

	for _, warning := range checkSchemaDrift(db, revisions) {
		log.Printf("ruleset cache schema: %s", warning)
	}

	applied, err := getAppliedRevisions(db)
	if err != nil {
		return fmt.Errorf("failed to query applied revisions: %w", err)
	}

	for _, rev := range revisions {
		if applied[rev.ID] {
			continue
		}

		start := time.Now()

		// A revision and its bookkeeping row are committed together: if the
		// row write fails after the DDL/DML succeeded, roll back rather than
		// leave a revision applied with no record of it, which would cause
		// it to be re-applied (and fail on a non-idempotent statement) next
		// startup.
		tx, err := db.Beginx()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for revision %s: %w", rev.ID, err)
		}

		if err := applyRevision(tx, rev); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to apply revision %s: %w", rev.ID, err)
		}

		duration := time.Since(start)

		if err := recordRevision(tx, rev.ID, rev.Checksum, duration); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record revision %s: %w", rev.ID, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit revision %s: %w", rev.ID, err)
		}
	}

	return nil
}

// MigrateStatus reports every known schema revision of the ruleset cache,
// embedded or applied, for the `clausekeeper migrate status` command.
func MigrateStatus(db *sqlx.DB) ([]RevisionStatus, error) {
	revisions, err := loadRevisions(db)
	if err != nil {
		return nil, err
	}

	rows, err := db.Queryx("SELECT revision_id, checksum, applied_at, execution_ms FROM schema_revisions")
	if err != nil {
		return nil, fmt.Errorf("failed to query schema_revisions: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]RevisionStatus)
	for rows.Next() {
		var status RevisionStatus
		if err := rows.Scan(&status.ID, &status.Checksum, &status.AppliedAt, &status.ExecutionMs); err != nil {
			return nil, err
		}
		status.Applied = true
		applied[status.ID] = status
	}

	var statuses []RevisionStatus
	for _, rev := range revisions {
		if s, ok := applied[rev.ID]; ok {
			statuses = append(statuses, s)
		} else {
			statuses = append(statuses, RevisionStatus{
				ID:       rev.ID,
				Checksum: rev.Checksum,
			})
		}
	}

	return statuses, nil
}

// schemaRevision is one embedded .sql file that evolves the rulesets table.
type schemaRevision struct {
	ID       string
	Checksum string
	SQL      string
}

// loadRevisions picks the embedded revision set matching db's driver,
// ensures schema_revisions exists, and parses the revision files — the
// three steps both MigrateUp and MigrateStatus need before they diverge
// into "apply what's pending" vs "report on everything."
func loadRevisions(db *sqlx.DB) ([]schemaRevision, error) {
	driver := db.DriverName()

	var revisionsFS embed.FS
	var revisionsDir string
	switch driver {
	case "sqlite3":
		revisionsFS = embeddedmigrations.SqliteMigrations
		revisionsDir = "sqlite"
	case "postgres":
		revisionsFS = embeddedmigrations.PostgresMigrations
		revisionsDir = "postgres"
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	if err := createRevisionsTable(db); err != nil {
		return nil, fmt.Errorf("failed to create schema_revisions table: %w", err)
	}

	revisions, err := parseRevisionFiles(revisionsFS, revisionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema revisions: %w", err)
	}

	return revisions, nil
}

// parseRevisionFiles extracts the ordered list of schema revisions from
// the embedded sqlite or postgres directory.
func parseRevisionFiles(fsys embed.FS, dir string) ([]schemaRevision, error) {
	var revisions []schemaRevision

	err := fs.WalkDir(fsys, dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".sql") {
			return nil
		}

		content, err := fsys.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		hash := sha256.Sum256(content)
		checksum := fmt.Sprintf("%x", hash)

		revisions = append(revisions, schemaRevision{
			ID:       filepath.Base(path),
			Checksum: checksum,
			SQL:      string(content),
		})

		return nil
	})

	if err != nil {
		return nil, err
	}

	// Filenames carry an ordinal prefix (001_, 002_, ...) so lexical order
	// is application order.
	sort.Slice(revisions, func(i, j int) bool {
		return revisions[i].ID < revisions[j].ID
	})

	return revisions, nil
}

// createRevisionsTable ensures the bookkeeping table for applied schema
// revisions exists. Distinct from the rulesets table itself (cache.go):
// this one tracks which .sql files have run, not which rule texts have
// been seen.
func createRevisionsTable(db *sqlx.DB) error {
	var createSQL string

	if db.DriverName() == "sqlite3" {
		createSQL = `
			CREATE TABLE IF NOT EXISTS schema_revisions (
				revision_id TEXT PRIMARY KEY,
				checksum TEXT NOT NULL,
				applied_at TEXT NOT NULL,
				execution_ms INTEGER NOT NULL,
				CHECK (applied_at LIKE '____-__-__T__:__:__Z')
			)
		`
	} else {
		createSQL = `
			CREATE TABLE IF NOT EXISTS schema_revisions (
				revision_id TEXT PRIMARY KEY,
				checksum TEXT NOT NULL,
				applied_at TIMESTAMP WITHOUT TIME ZONE NOT NULL,
				execution_ms INTEGER NOT NULL
			)
		`
	}

	_, err := db.Exec(createSQL)
	return err
}

// getAppliedRevisions returns the set of revision IDs already recorded.
func getAppliedRevisions(db *sqlx.DB) (map[string]bool, error) {
	rows, err := db.Queryx("SELECT revision_id FROM schema_revisions")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		applied[id] = true
	}

	return applied, nil
}

// checkSchemaDrift compares the checksum of each applied revision against
// the copy embedded in this binary, returning one human-readable warning
// per mismatch or orphan instead of an error: the ruleset cache tolerates
// a stale or foreign schema_revisions row because nothing downstream of it
// affects an evaluation's result.
func checkSchemaDrift(db *sqlx.DB, revisions []schemaRevision) []string {
	rows, err := db.Queryx("SELECT revision_id, checksum FROM schema_revisions")
	if err != nil {
		return []string{fmt.Sprintf("could not inspect applied revisions: %v", err)}
	}
	defer rows.Close()

	checksumByID := make(map[string]string, len(revisions))
	for _, rev := range revisions {
		checksumByID[rev.ID] = rev.Checksum
	}

	var warnings []string
	for rows.Next() {
		var id, dbChecksum string
		if err := rows.Scan(&id, &dbChecksum); err != nil {
			warnings = append(warnings, fmt.Sprintf("failed to scan applied revision row: %v", err))
			continue
		}

		expected, known := checksumByID[id]
		if !known {
			warnings = append(warnings, fmt.Sprintf("revision %s is recorded as applied but is not one of this binary's embedded revisions", id))
			continue
		}
		if dbChecksum != expected {
			warnings = append(warnings, fmt.Sprintf("revision %s has drifted: database checksum %s, embedded checksum %s", id, dbChecksum, expected))
		}
	}

	return warnings
}

// applyRevision executes a single revision's SQL within a transaction.
func applyRevision(tx *sqlx.Tx, rev schemaRevision) error {
	// lib/pq rejects multiple statements in one Exec, so each revision's
	// SQL is split on ';' and run statement by statement.
	statements := strings.Split(rev.SQL, ";")
	for _, stmt := range statements {
		// Drop "--" comment lines, so a statement that follows a comment
		// header in the same chunk still runs.
		var kept []string
		for _, line := range strings.Split(stmt, "\n") {
			if !strings.HasPrefix(strings.TrimSpace(line), "--") {
				kept = append(kept, line)
			}
		}
		stmt = strings.TrimSpace(strings.Join(kept, "\n"))
		if stmt == "" {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("statement failed: %w", err)
		}
	}
	return nil
}

// recordRevision stores a revision's checksum and timing in
// schema_revisions, the bookkeeping trail that lets MigrateUp skip it next
// time and MigrateStatus report on it.
func recordRevision(tx *sqlx.Tx, id, checksum string, duration time.Duration) error {
	now := time.Now().UTC()
	executionMs := duration.Milliseconds()

	if tx.DriverName() == "sqlite3" {
		_, err := tx.Exec(
			"INSERT INTO schema_revisions (revision_id, checksum, applied_at, execution_ms) VALUES (?, ?, ?, ?)",
			id, checksum, now.Format(time.RFC3339), executionMs,
		)
		return err
	}

	_, err := tx.Exec(
		"INSERT INTO schema_revisions (revision_id, checksum, applied_at, execution_ms) VALUES ($1, $2, $3, $4)",
		id, checksum, now, executionMs,
	)
	return err
}
