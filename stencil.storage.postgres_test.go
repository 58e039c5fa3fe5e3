package stencil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPostgresConfig(t *testing.T) {
	config := DefaultPostgresConfig()
	assert.Equal(t, PostgresDefaultMaxOpenConns, config.MaxOpenConns)
	assert.Equal(t, PostgresDefaultMaxIdleConns, config.MaxIdleConns)
	assert.Equal(t, PostgresDefaultConnMaxLifetime, config.ConnMaxLifetime)
	assert.Equal(t, PostgresDefaultConnMaxIdleTime, config.ConnMaxIdleTime)
	assert.Equal(t, SQLTablePrefix, config.TablePrefix)
	assert.Equal(t, SQLDefaultQueryTimeout, config.QueryTimeout)
	assert.False(t, config.AutoMigrate)
}

func TestPostgresStorage_EmptyConnectionString(t *testing.T) {
	_, err := NewPostgresStorage(PostgresConfig{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStorage))
	assert.Contains(t, err.Error(), ErrMsgEmptyConnString)
}

func TestPostgresStorageDriver_Open_EmptyConnectionString(t *testing.T) {
	_, err := OpenStorage(StorageDriverNamePostgres, "")
	require.Error(t, err)
	assert.True(t, IsStorageError(err))
}

func TestPostgresDialect(t *testing.T) {
	assert.Equal(t, "$3", postgresDialect.placeholder(3))
	migrations := postgresDialect.migrations("stencil_templates")
	require.NotEmpty(t, migrations)
	assert.Equal(t, 1, migrations[0].Version)
	assert.Contains(t, migrations[0].Statements[0], "JSONB")
}
