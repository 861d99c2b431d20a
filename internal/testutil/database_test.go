package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestDSN(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("TEST_POSTGRES_DSN", "")
		t.Setenv("TEST_MYSQL_DSN", "")

		assert.Equal(t, postgresDialect.defaultDSN, GetPostgresTestDSN())
		assert.Equal(t, mysqlDialect.defaultDSN, GetMySQLTestDSN())
	})

	t.Run("FromEnvironment", func(t *testing.T) {
		t.Setenv("TEST_POSTGRES_DSN", "postgres://ci:ci@db:5432/filevault?sslmode=disable")
		t.Setenv("TEST_MYSQL_DSN", "ci:ci@tcp(db:3306)/filevault?parseTime=true")

		assert.Equal(t, "postgres://ci:ci@db:5432/filevault?sslmode=disable", GetPostgresTestDSN())
		assert.Equal(t, "ci:ci@tcp(db:3306)/filevault?parseTime=true", GetMySQLTestDSN())
	})
}

func TestGetMigrationsPath(t *testing.T) {
	for _, dir := range []string{"postgresql", "mysql"} {
		t.Run(dir, func(t *testing.T) {
			path, err := getMigrationsPath(dir)
			require.NoError(t, err)
			assert.Equal(t, dir, filepath.Base(path))

			entries, err := os.ReadDir(path)
			require.NoError(t, err)
			assert.NotEmpty(t, entries)
		})
	}

	t.Run("Error_Unknown", func(t *testing.T) {
		path, err := getMigrationsPath("oracle")
		assert.ErrorContains(t, err, "migrations directory not found for oracle")
		assert.Empty(t, path)
	})

	t.Run("FromNestedDirectory", func(t *testing.T) {
		root, err := filepath.EvalSymlinks(t.TempDir())
		require.NoError(t, err)
		want := filepath.Join(root, "migrations", "postgresql")
		nested := filepath.Join(root, "cmd", "app")
		require.NoError(t, os.MkdirAll(want, 0o700))
		require.NoError(t, os.MkdirAll(nested, 0o700))

		t.Chdir(nested)
		path, err := getMigrationsPath("postgresql")
		require.NoError(t, err)
		assert.Equal(t, want, path)
	})
}

func TestUUIDToDriverValue(t *testing.T) {
	id := uuid.Must(uuid.NewV7())

	pg, err := uuidToDriverValue(id, "postgres")
	require.NoError(t, err)
	assert.Equal(t, id, pg)

	my, err := uuidToDriverValue(id, "mysql")
	require.NoError(t, err)
	assert.Equal(t, id[:], my)
}

func TestDialectPlaceholders(t *testing.T) {
	assert.Equal(t, "$3", dialectFor("postgres").placeholder(3))
	assert.Equal(t, "?", dialectFor("mysql").placeholder(3))
}

func TestTeardownDB_Nil(t *testing.T) {
	assert.NotPanics(t, func() { TeardownDB(t, nil) })
}

func TestFixtures(t *testing.T) {
	tests := []struct {
		driver  string
		skip    func(t *testing.T)
		setup   func(t *testing.T) *sql.DB
		cleanup func(t *testing.T, db *sql.DB)
	}{
		{"postgres", SkipIfNoPostgres, SetupPostgresDB, CleanupPostgresDB},
		{"mysql", SkipIfNoMySQL, SetupMySQLDB, CleanupMySQLDB},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			tt.skip(t)

			db := tt.setup(t)
			defer TeardownDB(t, db)

			ownerID := CreateTestUser(t, db, tt.driver, "owner")
			fileID := CreateTestFile(t, db, tt.driver, ownerID)

			assert.True(t, ValidateTestUser(t, db, tt.driver, ownerID))
			assert.True(t, ValidateTestFile(t, db, tt.driver, fileID))
			assert.False(t, ValidateTestFile(t, db, tt.driver, uuid.Must(uuid.NewV7())))

			tt.cleanup(t, db)

			assert.False(t, ValidateTestUser(t, db, tt.driver, ownerID))
			assert.False(t, ValidateTestFile(t, db, tt.driver, fileID))
		})
	}
}
