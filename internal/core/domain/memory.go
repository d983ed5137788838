package domain

import "time"

// MemoryRecord is a durable fact, preference, or task belonging to a
// user. Retrieval only reads a bounded recent window of these; writes go
// through the memory store directly.
type MemoryRecord struct {
	// ID is the store-assigned identifier.
	ID int64

	// UserID is the owning user.
	UserID string

	// Type classifies the record: "fact", "preference", "task", or "note".
	Type string

	// Content is the record text.
	Content string

	// CreatedAt is when the record was stored.
	CreatedAt time.Time
}

// Valid reports whether the record has the fields retrieval requires.
// Malformed records are skipped with a warning, never aborting a batch.
func (m MemoryRecord) Valid() bool {
	return m.Content != ""
}

// SessionItem is one uploaded-file fragment held in an ephemeral session.
type SessionItem struct {
	// Text is the fragment content.
	Text string

	// Path is the upload provenance, e.g. "notes.txt::2".
	Path string
}

// SessionStats reports the live state of the ephemeral session store.
type SessionStats struct {
	// Sessions is the number of live sessions.
	Sessions int

	// Items is the total number of stored fragments across sessions.
	Items int
}
