package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/keeva-labs/keeva/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/keeva-labs/keeva/internal/core/domain"
	"github.com/keeva-labs/keeva/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.MemoryStore = (*Store)(nil)

// Store is a SQLite-backed long-term memory store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens the memory database at the specified data directory.
// If dataDir is empty, defaults to ~/.keeva/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".keeva", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "memory.db")

	// WAL keeps concurrent CLI and MCP readers from blocking writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate applies any embedded *.up.sql file whose version exceeds the
// highest version recorded in schema_migrations.
func (s *Store) migrate(fsys embed.FS) error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var applied int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&applied); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	type migration struct {
		version int
		name    string
	}
	var pending []migration
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		var v int
		if _, err := fmt.Sscanf(name, "%d_", &v); err != nil {
			continue
		}
		if v > applied {
			pending = append(pending, migration{version: v, name: name})
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].version < pending[j].version })

	for _, m := range pending {
		content, err := fs.ReadFile(fsys, m.name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", m.name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", m.name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
			return fmt.Errorf("recording migration %s: %w", m.name, err)
		}
	}

	return nil
}

// AddMemory stores a fact about the user and returns its id.
func (s *Store) AddMemory(ctx context.Context, userID, memoryType, content string) (int64, error) {
	content = strings.TrimSpace(content)
	if userID == "" || content == "" {
		return 0, fmt.Errorf("%w: user id and content are required", domain.ErrInvalidInput)
	}
	if memoryType == "" {
		memoryType = "note"
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO memories (user_id, type, content, created_at) VALUES (?, ?, ?, ?)",
		userID, memoryType, content, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("inserting memory: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting memory id: %w", err)
	}
	return id, nil
}

// ListMemories returns the most recent memories for a user, newest
// first. A limit of 0 or less means no limit.
func (s *Store) ListMemories(ctx context.Context, userID string, limit int) ([]domain.MemoryRecord, error) {
	query := "SELECT id, user_id, type, content, created_at FROM memories WHERE user_id = ? ORDER BY id DESC"
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying memories: %w", err)
	}
	defer rows.Close()

	var records []domain.MemoryRecord
	for rows.Next() {
		var (
			r  domain.MemoryRecord
			ts string
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.Type, &r.Content, &ts); err != nil {
			return nil, fmt.Errorf("scanning memory: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			r.CreatedAt = t
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating memories: %w", err)
	}
	return records, nil
}
