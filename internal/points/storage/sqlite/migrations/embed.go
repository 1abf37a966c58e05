package migrations

import "embed"

// FS contains embedded SQLite migrations for points storage.
//
//go:embed *.sql
var FS embed.FS
