// Package migrations holds the versioned schema for the memory store,
// embedded so the binary can migrate a fresh data directory on first run.
package migrations

import "embed"

// FS holds every *.sql migration, applied in filename order.
//
//go:embed *.sql
var FS embed.FS
