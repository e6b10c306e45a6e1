package migrations

import "embed"

// FS contains embedded SQLite migrations for backend storage.
//
//go:embed *.sql
var FS embed.FS
