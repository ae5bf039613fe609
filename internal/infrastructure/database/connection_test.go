package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/keyhub/internal/shared/config"
)

func TestOpenSQLite(t *testing.T) {
	cfg := &config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "keyhub.db")}
	assert.True(t, IsSQLite(cfg))

	conn, err := Open(cfg)
	require.NoError(t, err)

	var one int
	require.NoError(t, conn.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	require.NoError(t, sqlDB.Close())
}

func TestDriverName(t *testing.T) {
	assert.Equal(t, DriverMySQL, driverName(&config.DatabaseConfig{}))
	assert.Equal(t, DriverSQLite, driverName(&config.DatabaseConfig{Driver: "SQLite3"}))
	assert.False(t, IsSQLite(&config.DatabaseConfig{Driver: "mysql"}))
}
