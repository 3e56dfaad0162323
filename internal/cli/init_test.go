package cli

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conti/internal/config"
	applog "conti/internal/log"
)

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	return &config.Config{
		Port:           "8081",
		LedgerBackend:  backend,
		SQLiteDBPath:   filepath.Join(t.TempDir(), "conti.db"),
		UserAName:      "Junior",
		UserBName:      "Rosângela",
		BackupDir:      t.TempDir(),
		BackupInterval: time.Hour,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

func TestBootstrapSQLitePersistsAcrossRuns(t *testing.T) {
	cfg := testConfig(t, config.BackendSQLite)
	ctx := context.Background()

	rt, err := Bootstrap(ctx, cfg, applog.Discard())
	require.NoError(t, err)
	require.NotNil(t, rt.SQLite)
	require.NoError(t, rt.Ready(ctx))

	_, err = rt.Household.QuickAdd(ctx, "food 12,50")
	require.NoError(t, err)
	require.NoError(t, rt.Close())

	rt, err = Bootstrap(ctx, cfg, applog.Discard())
	require.NoError(t, err)
	defer rt.Close()
	assert.Len(t, rt.Store.Snapshot().Transactions, 1)
}

func TestBootstrapMemory(t *testing.T) {
	rt, err := Bootstrap(context.Background(), testConfig(t, config.BackendMemory), applog.Discard())
	require.NoError(t, err)
	defer rt.Close()

	assert.Nil(t, rt.SQLite)
	assert.Nil(t, rt.AMQP)
	assert.NoError(t, rt.Ready(context.Background()))
	assert.Equal(t, "Rosângela", rt.Household.Names().B)
}

func TestSheetsExporterDisabled(t *testing.T) {
	exp, err := SheetsExporter(context.Background(), testConfig(t, config.BackendMemory), applog.Discard())
	require.NoError(t, err)
	assert.Nil(t, exp)
}
