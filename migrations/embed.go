// Package migrations embeds the SQL schema for every store backend.
package migrations

import "embed"

// FS holds goose migrations under postgres/ and sqlite/.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
