// Package sqlite loads index snapshots produced by the ingestion
// pipeline. A snapshot is a SQLite file holding embedded chunks and,
// when ingestion built one, an FTS5 table for keyword search.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/keeva-labs/keeva/internal/adapters/driven/index/bm25"
	"github.com/keeva-labs/keeva/internal/adapters/driven/index/dense"
	"github.com/keeva-labs/keeva/internal/core/domain"
	"github.com/keeva-labs/keeva/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.IndexLoader = (*Loader)(nil)

// Loader reads index snapshots from a SQLite file.
type Loader struct {
	path string
}

// NewLoader creates a loader for the given index file. If path is
// empty, defaults to ~/.keeva/data/index.db.
func NewLoader(path string) (*Loader, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".keeva", "data", "index.db")
	}
	return &Loader{path: path}, nil
}

// Path returns the index file path.
func (l *Loader) Path() string {
	return l.path
}

// Load reads every chunk into an in-memory dense index and wires the
// lexical side to the file's FTS5 table when present, falling back to
// an in-memory BM25 index built from the same chunks otherwise.
func (l *Loader) Load(ctx context.Context) (driven.IndexSnapshot, error) {
	if _, err := os.Stat(l.path); err != nil {
		return nil, fmt.Errorf("index file %s: %w", l.path, err)
	}

	db, err := sql.Open("sqlite", l.path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}

	chunks, err := loadChunks(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if len(chunks) == 0 {
		db.Close()
		return nil, fmt.Errorf("index file %s holds no chunks", l.path)
	}

	denseIdx, err := dense.New(chunks)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("building dense index: %w", err)
	}

	hasFTS, err := tableExists(ctx, db, "chunks_fts")
	if err != nil {
		db.Close()
		return nil, err
	}

	if !hasFTS {
		// Nothing else needs the file handle; the snapshot is fully
		// in-memory.
		db.Close()
		return &snapshot{
			dense:   denseIdx,
			lexical: bm25.New(chunks),
		}, nil
	}

	return &snapshot{
		dense:   denseIdx,
		lexical: &ftsIndex{db: db},
		db:      db,
	}, nil
}

func loadChunks(ctx context.Context, db *sql.DB) ([]domain.Chunk, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id, path, position, text, embedding FROM chunks ORDER BY path, position")
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var (
			c    domain.Chunk
			blob []byte
		)
		if err := rows.Scan(&c.ID, &c.Path, &c.Position, &c.Text, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		c.Embedding = bytesToFloat32Slice(blob)
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

func tableExists(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking for table %s: %w", name, err)
	}
	return count > 0, nil
}

// snapshot is one immutable loaded index generation.
type snapshot struct {
	dense   *dense.Index
	lexical driven.LexicalIndex
	db      *sql.DB // nil when the lexical index is in-memory
}

func (s *snapshot) Dense() driven.DenseIndex     { return s.dense }
func (s *snapshot) Lexical() driven.LexicalIndex { return s.lexical }

func (s *snapshot) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ftsIndex serves keyword search from the snapshot's FTS5 table.
type ftsIndex struct {
	db *sql.DB
}

// Search runs an OR-of-terms MATCH query. bm25() returns lower-is-better
// values, so results are ordered ascending and scores negated.
func (f *ftsIndex) Search(ctx context.Context, query string, k int) ([]domain.Hit, error) {
	match := ftsMatchExpr(query)
	if match == "" || k <= 0 {
		return nil, nil
	}

	rows, err := f.db.QueryContext(ctx,
		`SELECT id, path, text, bm25(chunks_fts) AS score
		 FROM chunks_fts WHERE chunks_fts MATCH ?
		 ORDER BY score LIMIT ?`, match, k)
	if err != nil {
		return nil, fmt.Errorf("fts query: %w", err)
	}
	defer rows.Close()

	var hits []domain.Hit
	for rows.Next() {
		var (
			h     domain.Hit
			score float64
		)
		if err := rows.Scan(&h.ID, &h.Path, &h.Text, &score); err != nil {
			return nil, fmt.Errorf("scanning fts hit: %w", err)
		}
		h.Score = -score
		h.Rank = len(hits) + 1
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating fts hits: %w", err)
	}
	return hits, nil
}

// ftsMatchExpr quotes each alphanumeric token so user input can never
// be parsed as FTS5 query syntax.
func ftsMatchExpr(query string) string {
	tokens := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	if len(tokens) == 0 {
		return ""
	}
	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = `"` + tok + `"`
	}
	return strings.Join(quoted, " OR ")
}

// bytesToFloat32Slice decodes a little-endian float32 blob.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
