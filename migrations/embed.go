// Package migrations embeds the SQL schema files so the binary applies them
// itself and deployments need no migrations directory on disk.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
