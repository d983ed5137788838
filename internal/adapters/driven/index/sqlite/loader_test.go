package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// writeIndexFile builds a minimal index file with two chunks. When
// withFTS is set, the same rows are mirrored into an FTS5 table.
func writeIndexFile(t *testing.T, withFTS bool) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE chunks (
		id TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		position INTEGER NOT NULL,
		text TEXT NOT NULL,
		embedding BLOB
	)`)
	require.NoError(t, err)

	rows := []struct {
		id, path, text string
		position       int
		embedding      []float32
	}{
		{"c1", "notes/alpha.md", "standup notes from monday morning", 0, []float32{1, 0, 0}},
		{"c2", "notes/beta.md", "grocery list with oat milk", 0, []float32{0, 1, 0}},
	}
	for _, r := range rows {
		_, err = db.Exec(
			"INSERT INTO chunks (id, path, position, text, embedding) VALUES (?, ?, ?, ?, ?)",
			r.id, r.path, r.position, r.text, float32SliceToBytes(r.embedding))
		require.NoError(t, err)
	}

	if withFTS {
		_, err = db.Exec(`CREATE VIRTUAL TABLE chunks_fts USING fts5(id, path, text)`)
		require.NoError(t, err)
		for _, r := range rows {
			_, err = db.Exec("INSERT INTO chunks_fts (id, path, text) VALUES (?, ?, ?)",
				r.id, r.path, r.text)
			require.NoError(t, err)
		}
	}
	return path
}

func TestLoadBuildsDenseIndex(t *testing.T) {
	loader, err := NewLoader(writeIndexFile(t, true))
	require.NoError(t, err)

	snap, err := loader.Load(context.Background())
	require.NoError(t, err)
	defer snap.Close()

	require.Equal(t, 2, snap.Dense().Size())

	hits, err := snap.Dense().Search(context.Background(), []float32{0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c2", hits[0].ID)
	assert.Equal(t, "notes/beta.md", hits[0].Path)
}

func TestLoadUsesFTSWhenPresent(t *testing.T) {
	loader, err := NewLoader(writeIndexFile(t, true))
	require.NoError(t, err)

	snap, err := loader.Load(context.Background())
	require.NoError(t, err)
	defer snap.Close()

	hits, err := snap.Lexical().Search(context.Background(), "grocery", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c2", hits[0].ID)
	assert.Greater(t, hits[0].Score, 0.0)
}

func TestLoadFallsBackToBM25WithoutFTS(t *testing.T) {
	loader, err := NewLoader(writeIndexFile(t, false))
	require.NoError(t, err)

	snap, err := loader.Load(context.Background())
	require.NoError(t, err)
	defer snap.Close()

	hits, err := snap.Lexical().Search(context.Background(), "standup", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c1", hits[0].ID)
}

func TestLoadSkipsChunksWithoutEmbedding(t *testing.T) {
	path := writeIndexFile(t, false)

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(
		"INSERT INTO chunks (id, path, position, text, embedding) VALUES (?, ?, ?, ?, NULL)",
		"c3", "notes/gamma.md", 0, "chunk indexed without a vector")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	loader, err := NewLoader(path)
	require.NoError(t, err)

	snap, err := loader.Load(context.Background())
	require.NoError(t, err)
	defer snap.Close()

	// The embedding-less chunk is absent from the dense index but still
	// reachable through the keyword index built over all rows.
	assert.Equal(t, 2, snap.Dense().Size())

	hits, err := snap.Lexical().Search(context.Background(), "indexed without a vector", 5)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "c3", hits[0].ID)
}

func TestLoadMissingFile(t *testing.T) {
	loader, err := NewLoader(filepath.Join(t.TempDir(), "absent.db"))
	require.NoError(t, err)

	_, err = loader.Load(context.Background())
	require.Error(t, err)
}

func TestLoadEmptyIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE chunks (
		id TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		position INTEGER NOT NULL,
		text TEXT NOT NULL,
		embedding BLOB
	)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	loader, err := NewLoader(path)
	require.NoError(t, err)

	_, err = loader.Load(context.Background())
	require.Error(t, err)
}

func TestFTSMatchExprQuotesTokens(t *testing.T) {
	assert.Equal(t, `"oat" OR "milk"`, ftsMatchExpr("oat milk"))
	assert.Equal(t, `"near"`, ftsMatchExpr(`NEAR(`))
	assert.Empty(t, ftsMatchExpr("!!!"))
}
