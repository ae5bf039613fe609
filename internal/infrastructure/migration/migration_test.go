package migration

import (
	"fmt"
	"io/fs"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/orris-inc/keyhub/internal/shared/constants"
	"github.com/orris-inc/keyhub/internal/shared/logger"
)

func TestEmbeddedScripts(t *testing.T) {
	entries, err := fs.ReadDir(scriptsFS, scriptsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, e := range entries {
		body, err := fs.ReadFile(scriptsFS, scriptsDir+"/"+e.Name())
		require.NoError(t, err)
		assert.Contains(t, string(body), "-- +goose Up", e.Name())
		assert.Contains(t, string(body), "-- +goose Down", e.Name())
	}

	initial, err := fs.ReadFile(scriptsFS, scriptsDir+"/00001_init.sql")
	require.NoError(t, err)
	for _, table := range []string{
		constants.TableResellers, constants.TableBotModules, constants.TablePacks,
		constants.TablePackBatches, constants.TableKeys, constants.TableLocations,
		constants.TableServers, constants.TablePanels, constants.TableServerUsers,
		constants.TableViolations,
	} {
		assert.Contains(t, string(initial), "CREATE TABLE "+table+" (", table)
	}
}

func TestManager_SQLiteUsesAutoMigrate(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	m := NewManager(true, logger.NewNopLogger())
	assert.Equal(t, "gorm-automigrate", m.Strategy().GetName())
	require.NoError(t, m.Migrate(db))
	assert.True(t, db.Migrator().HasTable(constants.TableKeys))
	assert.True(t, db.Migrator().HasTable(constants.TableViolations))

	assert.Equal(t, "goose", NewManager(false, logger.NewNopLogger()).Strategy().GetName())
}

func TestCreateScript(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, CreateScript(dir, "add_reseller_notes"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), "_add_reseller_notes.sql"))
}
