//go:build !cgo_sqlite

package stencil

import _ "modernc.org/sqlite"

const sqliteDriverName = "sqlite"
