package migration

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(embeddedMigrations, migrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	assert.Equal(t, ups, downs)
}

func TestApplyAutoMigratesSQLite(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, Apply(conn, "sqlite"))

	for _, table := range []string{
		"customers",
		"parts",
		"inventory_lots",
		"preshipments",
		"preshipment_items",
		"entry_summaries",
		"entry_line_items",
		"entry_ftz_statuses",
		"entry_grand_totals",
		"entry_summary_groups",
		"entry_group_preshipments",
		"entry_number_sequences",
		"audit_logs",
	} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}

	// Re-running is a no-op.
	require.NoError(t, Apply(conn, "sqlite"))
}

func TestApplyRequiresConnection(t *testing.T) {
	assert.Error(t, Apply(nil, "sqlite"))
}
