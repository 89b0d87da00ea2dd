// Package migrations embeds the goose-managed schema migrations so
// cmd/api (the only process that owns schema changes) can apply them
// without a separate deploy-time file copy.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
