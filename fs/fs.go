package appfs

import "embed"

// FS holds the SQL migrations of the key-value slot store.
//
//go:embed migrations/*.sql
var FS embed.FS
