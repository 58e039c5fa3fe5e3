package stencil

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SQL storage defaults shared by the database backends
const (
	SQLTablePrefix         = "stencil_"
	SQLDefaultQueryTimeout = 30 * time.Second
	sqlTemplatesTable      = "templates"
	sqlMigrationsTable     = "schema_migrations"
)

// SQL storage error messages
const (
	ErrMsgStorageTransaction = "storage transaction failed"
	ErrMsgStorageScan        = "failed to scan storage row"
	ErrMsgStorageEncode      = "failed to encode template metadata"
	ErrMsgStorageDecode      = "failed to decode template metadata"
	ErrMsgStorageClose       = "failed to close storage"
)

// sqlDialect captures what differs between the database backends.
type sqlDialect struct {
	name        string
	placeholder func(n int) string
	migrations  func(table string) []sqlMigration
}

// sqlMigration is one numbered schema step.
type sqlMigration struct {
	Version     int
	Description string
	Statements  []string
}

// sqlStorage implements TemplateStorage over database/sql. One row per
// template name; each Save increments the row's version.
type sqlStorage struct {
	db           *sql.DB
	dialect      sqlDialect
	prefix       string
	queryTimeout time.Duration
	logger       *zap.Logger
	mu           sync.RWMutex
	closed       bool
}

func newSQLStorage(db *sql.DB, dialect sqlDialect, prefix string, timeout time.Duration, logger *zap.Logger) *sqlStorage {
	if prefix == StringValueEmpty {
		prefix = SQLTablePrefix
	}
	if timeout <= 0 {
		timeout = SQLDefaultQueryTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &sqlStorage{db: db, dialect: dialect, prefix: prefix, queryTimeout: timeout, logger: logger}
}

func (s *sqlStorage) tableName() string {
	return s.prefix + sqlTemplatesTable
}

func (s *sqlStorage) migrationsTableName() string {
	return s.prefix + sqlMigrationsTable
}

func (s *sqlStorage) ph(n int) string {
	return s.dialect.placeholder(n)
}

// DB returns the underlying connection pool.
func (s *sqlStorage) DB() *sql.DB {
	return s.db
}

// Get retrieves a template by name.
func (s *sqlStorage) Get(ctx context.Context, name string) (*StoredTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT name, source, version, metadata, created_at, updated_at
		FROM %s
		WHERE name = %s`, s.tableName(), s.ph(1))

	tmpl, err := scanStoredTemplate(s.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewTemplateNotFoundError(name)
		}
		return nil, NewStorageError(ErrMsgStorageQueryFailed, err)
	}
	return tmpl, nil
}

// Save upserts a template, bumping its version when the name exists.
func (s *sqlStorage) Save(ctx context.Context, tmpl *StoredTemplate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateTemplateName(tmpl.Name); err != nil {
		return err
	}

	metadataJSON, err := json.Marshal(tmpl.Metadata)
	if err != nil {
		return NewStorageError(ErrMsgStorageEncode, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageClosedError()
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return NewStorageError(ErrMsgStorageTransaction, err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	upsert := fmt.Sprintf(`
		INSERT INTO %[1]s (name, source, version, metadata, created_at, updated_at)
		VALUES (%[2]s, %[3]s, 1, %[4]s, %[5]s, %[5]s)
		ON CONFLICT (name) DO UPDATE SET
			source = excluded.source,
			version = %[1]s.version + 1,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at`,
		s.tableName(), s.ph(1), s.ph(2), s.ph(3), s.ph(4))

	if _, err := tx.ExecContext(ctx, upsert, tmpl.Name, tmpl.Source, string(metadataJSON), now); err != nil {
		return NewStorageError(ErrMsgStorageQueryFailed, err)
	}

	var version int
	var createdAt time.Time
	err = tx.QueryRowContext(ctx,
		fmt.Sprintf("SELECT version, created_at FROM %s WHERE name = %s", s.tableName(), s.ph(1)),
		tmpl.Name).Scan(&version, &createdAt)
	if err != nil {
		return NewStorageError(ErrMsgStorageScan, err)
	}

	if err := tx.Commit(); err != nil {
		return NewStorageError(ErrMsgStorageTransaction, err)
	}

	tmpl.Version = version
	tmpl.CreatedAt = createdAt
	tmpl.UpdatedAt = now
	return nil
}

// Delete removes a template.
func (s *sqlStorage) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageClosedError()
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE name = %s", s.tableName(), s.ph(1)), name)
	if err != nil {
		return NewStorageError(ErrMsgStorageQueryFailed, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return NewStorageError(ErrMsgStorageQueryFailed, err)
	}
	if affected == 0 {
		return NewTemplateNotFoundError(name)
	}
	return nil
}

// List returns templates matching the query ordered by name.
func (s *sqlStorage) List(ctx context.Context, query *TemplateQuery) ([]*StoredTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var sb strings.Builder
	var args []any
	fmt.Fprintf(&sb, "SELECT name, source, version, metadata, created_at, updated_at FROM %s", s.tableName())
	if query != nil && query.NamePrefix != StringValueEmpty {
		args = append(args, escapeLike(query.NamePrefix)+"%")
		fmt.Fprintf(&sb, ` WHERE name LIKE %s ESCAPE '\'`, s.ph(len(args)))
	}
	sb.WriteString(" ORDER BY name")
	if query != nil && query.Limit > 0 {
		args = append(args, query.Limit)
		fmt.Fprintf(&sb, " LIMIT %s", s.ph(len(args)))
	}
	if query != nil && query.Offset > 0 {
		if query.Limit <= 0 {
			// SQLite needs a LIMIT before OFFSET; -1 and ALL both mean unbounded.
			sb.WriteString(s.unboundedLimit())
		}
		args = append(args, query.Offset)
		fmt.Fprintf(&sb, " OFFSET %s", s.ph(len(args)))
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, NewStorageError(ErrMsgStorageQueryFailed, err)
	}
	defer rows.Close()

	result := []*StoredTemplate{}
	for rows.Next() {
		tmpl, err := scanStoredTemplate(rows)
		if err != nil {
			return nil, NewStorageError(ErrMsgStorageScan, err)
		}
		result = append(result, tmpl)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError(ErrMsgStorageQueryFailed, err)
	}
	return result, nil
}

// Exists reports whether a template exists.
func (s *sqlStorage) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, NewStorageClosedError()
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var count int
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE name = %s", s.tableName(), s.ph(1)),
		name).Scan(&count)
	if err != nil {
		return false, NewStorageError(ErrMsgStorageQueryFailed, err)
	}
	return count > 0, nil
}

// Close releases the connection pool. Closing twice is a no-op.
func (s *sqlStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.db.Close(); err != nil {
		return NewStorageError(ErrMsgStorageClose, err)
	}
	return nil
}

// RunMigrations applies pending schema migrations in order.
func (s *sqlStorage) RunMigrations(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version     INTEGER PRIMARY KEY,
			description VARCHAR(255)
		)`, s.migrationsTableName()))
	if err != nil {
		return NewStorageError(ErrMsgStorageMigration, err)
	}

	applied, err := s.appliedMigrations(ctx)
	if err != nil {
		return err
	}

	for _, m := range s.dialect.migrations(s.tableName()) {
		if applied[m.Version] {
			continue
		}
		if err := s.applyMigration(ctx, m); err != nil {
			return err
		}
		s.logger.Info(LogMsgMigrationApplied,
			zap.String(LogFieldDriver, s.dialect.name),
			zap.Int(LogFieldVersion, m.Version))
	}
	return nil
}

func (s *sqlStorage) appliedMigrations(ctx context.Context) (map[int]bool, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT version FROM %s", s.migrationsTableName()))
	if err != nil {
		return nil, NewStorageError(ErrMsgStorageMigration, err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, NewStorageError(ErrMsgStorageMigration, err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError(ErrMsgStorageMigration, err)
	}
	return applied, nil
}

func (s *sqlStorage) applyMigration(ctx context.Context, m sqlMigration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return NewStorageError(ErrMsgStorageMigration, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range m.Statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return NewStorageError(ErrMsgStorageMigration, fmt.Errorf("migration %d: %w", m.Version, err))
		}
	}
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (version, description) VALUES (%s, %s)", s.migrationsTableName(), s.ph(1), s.ph(2)),
		m.Version, m.Description); err != nil {
		return NewStorageError(ErrMsgStorageMigration, err)
	}
	if err := tx.Commit(); err != nil {
		return NewStorageError(ErrMsgStorageMigration, err)
	}
	return nil
}

// CurrentSchemaVersion returns the highest applied migration, 0 when none.
func (s *sqlStorage) CurrentSchemaVersion(ctx context.Context) (int, error) {
	var version sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT MAX(version) FROM %s", s.migrationsTableName())).Scan(&version)
	if err != nil {
		return 0, NewStorageError(ErrMsgStorageQueryFailed, err)
	}
	return int(version.Int64), nil
}

func (s *sqlStorage) unboundedLimit() string {
	if s.dialect.name == StorageDriverNamePostgres {
		return " LIMIT ALL"
	}
	return " LIMIT -1"
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanStoredTemplate(row rowScanner) (*StoredTemplate, error) {
	var (
		tmpl     StoredTemplate
		metadata []byte
	)
	if err := row.Scan(&tmpl.Name, &tmpl.Source, &tmpl.Version, &metadata, &tmpl.CreatedAt, &tmpl.UpdatedAt); err != nil {
		return nil, err
	}
	if len(metadata) > 0 && string(metadata) != "null" {
		if err := json.Unmarshal(metadata, &tmpl.Metadata); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgStorageDecode, err)
		}
	}
	return &tmpl, nil
}

// escapeLike escapes LIKE wildcards so a prefix matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
