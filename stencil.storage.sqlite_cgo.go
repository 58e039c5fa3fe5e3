//go:build cgo_sqlite

package stencil

import _ "github.com/mattn/go-sqlite3"

const sqliteDriverName = "sqlite3"
