package migrations

import "embed"

// FS contains embedded SQLite migrations for simulation results.
//
//go:embed *.sql
var FS embed.FS
