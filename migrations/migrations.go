// Package migrations embeds the catalog schema migrations.
package migrations

import "embed"

// FS holds the .sql files applied by deskspin db migrate.
//
//go:embed *.sql
var FS embed.FS
