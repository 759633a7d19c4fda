package migration

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	taxdomain "github.com/smallbiznis/storefront/internal/tax/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMigrateAutoMigratesNonPostgres(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:migrate_auto?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(conn, "sqlite"))

	for _, model := range append(catalogdomain.Models(), &taxdomain.Tax{}) {
		require.True(t, conn.Migrator().HasTable(model))
	}
}

func TestMigrateRequiresHandle(t *testing.T) {
	require.Error(t, Migrate(nil, "sqlite"))
	require.Error(t, RunMigrations(nil))
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(embeddedMigrations, migrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	require.Equal(t, ups, downs)

	up, err := fs.ReadFile(embeddedMigrations, migrationsDir+"/000001_catalog.up.sql")
	require.NoError(t, err)
	for _, table := range []string{"products", "categories", "product_property_values", "taxes", "filter_steps"} {
		require.Contains(t, string(up), "CREATE TABLE IF NOT EXISTS "+table+" ")
	}
}
