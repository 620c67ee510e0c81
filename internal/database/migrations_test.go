package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestReadMigrationFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "002_budget_tables.up.sql", "CREATE TABLE b (id INT);")
	writeFile(t, dir, "001_ledger_tables.up.sql", "CREATE TABLE a (id INT);")
	writeFile(t, dir, "001_ledger_tables.down.sql", "DROP TABLE a;")
	writeFile(t, dir, "README.md", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	migrations, err := ReadMigrationFiles(dir)
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	assert.Equal(t, "001", migrations[0].Version)
	assert.Equal(t, "ledger tables", migrations[0].Title)
	assert.Equal(t, "CREATE TABLE a (id INT);", migrations[0].UpSQL)
	assert.Equal(t, calculateChecksum("CREATE TABLE a (id INT);"), migrations[0].Checksum)
	assert.Equal(t, "002", migrations[1].Version)
}

func TestReadMigrationFilesRejectsDuplicateVersion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "001_a.up.sql", "SELECT 1;")
	writeFile(t, dir, "001_b.up.sql", "SELECT 2;")

	_, err := ReadMigrationFiles(dir)
	assert.ErrorContains(t, err, "duplicate migration version 001")
}

func TestReadMigrationFilesMissingDir(t *testing.T) {
	_, err := ReadMigrationFiles(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestVerifyChecksums(t *testing.T) {
	migrations := []Migration{
		{Version: "001", Title: "a", Checksum: "aaa"},
		{Version: "002", Title: "b", Checksum: "bbb"},
	}

	assert.NoError(t, verifyChecksums(migrations, map[string]string{"001": "aaa"}))
	assert.NoError(t, verifyChecksums(migrations, map[string]string{"001": ""}))

	err := verifyChecksums(migrations, map[string]string{"001": "aaa", "002": "changed"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Migration 002 (b)")
}
