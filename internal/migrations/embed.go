// Package migrations embeds the versioned PostgreSQL schema of the ledger.
package migrations

import "embed"

// FS holds the golang-migrate up and down scripts.
//
//go:embed *.sql
var FS embed.FS
