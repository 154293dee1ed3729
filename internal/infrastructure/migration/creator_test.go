package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/erp/backoffice/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add settlement index", "add_settlement_index"},
		{"Add-Settlement-Index", "add_settlement_index"},
		{"ADD__SETTLEMENT__INDEX", "add_settlement_index"},
		{"  trimmed  ", "trimmed"},
		{"drop!@#legacy", "droplegacy"},
		{"_leading and trailing_", "leading_and_trailing"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestListMigrations(t *testing.T) {
	t.Run("sorted by version, up files only", func(t *testing.T) {
		fsys := fstest.MapFS{
			"000010_add_index.up.sql":        {Data: []byte("")},
			"000010_add_index.down.sql":      {Data: []byte("")},
			"000002_create_documents.up.sql": {Data: []byte("")},
			"000003_orphan.down.sql":         {Data: []byte("")},
			"README.md":                      {Data: []byte("")},
			"nested/000004_x.up.sql":         {Data: []byte("")},
		}
		got, err := ListMigrations(fsys)
		require.NoError(t, err)
		assert.Equal(t, []Migration{
			{Version: 2, Name: "create_documents"},
			{Version: 10, Name: "add_index"},
		}, got)
		assert.Equal(t, "000010_add_index", got[1].String())
	})

	t.Run("duplicate versions are rejected", func(t *testing.T) {
		_, err := ListMigrations(fstest.MapFS{
			"000001_a.up.sql": {Data: []byte("")},
			"000001_b.up.sql": {Data: []byte("")},
		})
		assert.ErrorContains(t, err, "duplicate migration version 1")
	})

	t.Run("missing directory is empty", func(t *testing.T) {
		got, err := ListMigrations(os.DirFS(filepath.Join(t.TempDir(), "absent")))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("embedded schema", func(t *testing.T) {
		got, err := ListMigrations(migrations.FS)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(got), 2)
		assert.Equal(t, uint(1), got[0].Version)
		assert.Equal(t, "create_monetary_documents", got[1].Name)
	})
}

func TestCreateMigration(t *testing.T) {
	t.Run("first migration in a new directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "migrations")
		mf, err := CreateMigration(dir, "Create Documents", "monetary documents table")
		require.NoError(t, err)

		assert.Equal(t, uint(1), mf.Version)
		assert.Equal(t, filepath.Join(dir, "000001_create_documents.up.sql"), mf.UpPath)
		assert.FileExists(t, mf.DownPath)

		up, err := os.ReadFile(mf.UpPath)
		require.NoError(t, err)
		assert.Contains(t, string(up), "create_documents (up)")
		assert.Contains(t, string(up), "-- monetary documents table")
	})

	t.Run("numbers after the highest existing version", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"000001_a.up.sql", "000007_b.up.sql"} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
		}
		mf, err := CreateMigration(dir, "add_due_index", "")
		require.NoError(t, err)
		assert.Equal(t, uint(8), mf.Version)

		down, err := os.ReadFile(mf.DownPath)
		require.NoError(t, err)
		assert.NotContains(t, string(down), "-- \n")
	})

	t.Run("unusable name", func(t *testing.T) {
		_, err := CreateMigration(t.TempDir(), "!!!", "")
		assert.Error(t, err)
	})
}

func TestStatusOf(t *testing.T) {
	available := []Migration{{Version: 1, Name: "a"}, {Version: 2, Name: "b"}, {Version: 3, Name: "c"}}

	st := statusOf(2, false, available)
	assert.True(t, st.Migrations[0].Applied)
	assert.True(t, st.Migrations[1].Applied)
	assert.False(t, st.Migrations[2].Applied)
	assert.Equal(t, []Migration{{Version: 3, Name: "c"}}, st.Pending())

	assert.Len(t, statusOf(0, false, available).Pending(), 3)
}
