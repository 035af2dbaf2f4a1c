// Package migrations holds the embedded schema of the analysis archive and
// applies it through a caller-supplied exec function, so it depends on no
// database driver.
package migrations

import "embed"

//go:embed postgres/*.sql clickhouse/*.sql
var files embed.FS
