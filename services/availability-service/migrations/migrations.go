package migrations

import "embed"

// FS holds the service's SQL migrations for golang-migrate's iofs source.
//
//go:embed *.sql
var FS embed.FS
