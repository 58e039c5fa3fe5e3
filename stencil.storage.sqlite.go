package stencil

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SQLiteMemoryDSN opens a private in-memory database.
const SQLiteMemoryDSN = ":memory:"

// SQLiteConfig configures the SQLite storage driver.
type SQLiteConfig struct {
	// DSN is the database file or URI, e.g. "templates.db" or "file:t.db?cache=shared".
	DSN string

	// TablePrefix customizes table names. Default: "stencil_"
	TablePrefix string

	// QueryTimeout bounds each query. Default: 30 seconds
	QueryTimeout time.Duration

	// Logger receives migration events. Default: no-op
	Logger *zap.Logger
}

// SQLiteStorage implements TemplateStorage on an embedded SQLite database.
// The pure-Go driver is used by default; build with -tags cgo_sqlite for
// the cgo one.
type SQLiteStorage struct {
	*sqlStorage
	config SQLiteConfig
}

// SQLiteStorageDriver creates SQLiteStorage instances.
type SQLiteStorageDriver struct{}

func init() {
	RegisterStorageDriver(StorageDriverNameSQLite, &SQLiteStorageDriver{})
}

// Open creates a SQLiteStorage. The connection string is the DSN; empty
// means an in-memory database.
func (d *SQLiteStorageDriver) Open(connectionString string) (TemplateStorage, error) {
	return NewSQLiteStorage(SQLiteConfig{DSN: connectionString})
}

var sqliteDialect = sqlDialect{
	name:        StorageDriverNameSQLite,
	placeholder: func(n int) string { return fmt.Sprintf("?%d", n) },
	migrations: func(table string) []sqlMigration {
		return []sqlMigration{
			{
				Version:     1,
				Description: "create templates table",
				Statements: []string{
					fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
						name       TEXT PRIMARY KEY,
						source     TEXT NOT NULL,
						version    INTEGER NOT NULL DEFAULT 1,
						metadata   TEXT,
						created_at TIMESTAMP NOT NULL,
						updated_at TIMESTAMP NOT NULL
					)`, table),
				},
			},
		}
	},
}

// NewSQLiteStorage opens the database and applies migrations.
func NewSQLiteStorage(config SQLiteConfig) (*SQLiteStorage, error) {
	if strings.TrimSpace(config.DSN) == StringValueEmpty {
		config.DSN = SQLiteMemoryDSN
	}

	db, err := openSQLite(config.DSN)
	if err != nil {
		return nil, NewStorageError(ErrMsgStorageOpenFailed, err)
	}
	// An in-memory database lives only on the connection that created it.
	db.SetMaxOpenConns(1)

	storage := &SQLiteStorage{
		sqlStorage: newSQLStorage(db, sqliteDialect, config.TablePrefix, config.QueryTimeout, config.Logger),
		config:     config,
	}

	ctx, cancel := context.WithTimeout(context.Background(), storage.queryTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, NewStorageError(ErrMsgStorageOpenFailed, err)
	}
	if err := storage.RunMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return storage, nil
}

// MustNewSQLiteStorage is like NewSQLiteStorage but panics on error.
func MustNewSQLiteStorage(config SQLiteConfig) *SQLiteStorage {
	storage, err := NewSQLiteStorage(config)
	if err != nil {
		panic(err)
	}
	return storage
}

func openSQLite(dsn string) (*sql.DB, error) {
	return sql.Open(sqliteDriverName, dsn)
}
