// Package audit persists every tool invocation so operators can answer
// "what did the AI do to this workspace, and when".
package audit

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hexabase/hexabase-ai/internal/orchestrator"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Entry is one recorded invocation.
type Entry struct {
	ID          string
	WorkspaceID string
	UserID      string
	Tool        string
	Status      string
	Detail      string
	CreatedAt   time.Time
}

// Store writes the audit trail to SQLite at dataDir/audit.db.
type Store struct {
	db *sql.DB
}

// Open opens the audit database, creating dataDir if needed, enables WAL
// mode and applies pending migrations.
func Open(dataDir string) (*Store, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("audit: data_dir is required")
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("audit: %w", err)
	}
	dbPath := filepath.Join(dataDir, "audit.db")
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("audit: open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("audit: WAL: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record implements orchestrator.Recorder.
func (s *Store) Record(ctx context.Context, inv orchestrator.Invocation) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO invocations (id, workspace_id, user_id, tool, status, detail)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), inv.WorkspaceID, inv.UserID, inv.Tool, inv.Status, inv.Detail)
	if err != nil {
		return fmt.Errorf("audit: record invocation: %w", err)
	}
	return nil
}

// Recent returns the newest entries for a workspace, newest first.
func (s *Store) Recent(ctx context.Context, workspaceID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, workspace_id, user_id, tool, status, detail, created_at
		 FROM invocations
		 WHERE workspace_id = ?
		 ORDER BY created_at DESC
		 LIMIT ?`,
		workspaceID, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: query invocations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.WorkspaceID, &e.UserID, &e.Tool, &e.Status, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: scan invocation: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: read invocations: %w", err)
	}
	return entries, nil
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec("CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL PRIMARY KEY)"); err != nil {
		return fmt.Errorf("audit migrations: create schema_version: %w", err)
	}
	current, err := s.schemaVersion()
	if err != nil {
		return err
	}
	names, err := migrationNames()
	if err != nil {
		return err
	}
	for _, name := range names {
		n, err := migrationNumber(name)
		if err != nil || n <= current {
			continue
		}
		stmt, err := fs.ReadFile(migrationsFS, "migrations/"+name)
		if err != nil {
			return fmt.Errorf("audit migration %s: %w", name, err)
		}
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("audit migration %s: begin: %w", name, err)
		}
		if _, err := tx.Exec(string(stmt)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("audit migration %s: %w", name, err)
		}
		if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("audit migration %s: clear version: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", n); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("audit migration %s: set version: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("audit migration %s: commit: %w", name, err)
		}
	}
	return nil
}

func (s *Store) schemaVersion() (int, error) {
	var v sql.NullInt64
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if err == sql.ErrNoRows || (err == nil && !v.Valid) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("audit migrations: read version: %w", err)
	}
	return int(v.Int64), nil
}

func migrationNames() ([]string, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func migrationNumber(name string) (int, error) {
	base := strings.TrimSuffix(name, ".sql")
	parts := strings.SplitN(base, "_", 2)
	if len(parts) < 2 {
		return 0, fmt.Errorf("invalid migration name")
	}
	return strconv.Atoi(parts[0])
}
