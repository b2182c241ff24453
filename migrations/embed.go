// Package migrations embeds the SQL schema migrations of the tax service.
package migrations

import "embed"

// FS holds the numbered up and down migration files
//
//go:embed *.sql
var FS embed.FS
