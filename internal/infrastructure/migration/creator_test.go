package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	mf, err := CreateMigration(dir, "create raffles", "raffle schema")

	require.NoError(t, err)
	assert.Equal(t, "create_raffles", mf.Name)
	assert.FileExists(t, mf.UpPath)
	assert.FileExists(t, mf.DownPath)

	content, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "raffle schema")
}

func TestCreateMigration_EmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "   ", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"2_b.up.sql", "1_a.up.sql", "1_a.down.sql", "readme.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	names, err := ListMigrations(dir)

	require.NoError(t, err)
	assert.Equal(t, []string{"1_a.up.sql", "2_b.up.sql"}, names)
}

func TestListMigrations_MissingDirectory(t *testing.T) {
	names, err := ListMigrations(filepath.Join(t.TempDir(), "nope"))

	require.NoError(t, err)
	assert.Empty(t, names)
}
