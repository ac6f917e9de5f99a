package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/telefilter/internal/utils"
)

func TestWriteFilesReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	for _, content := range []string{"one", "two"} {
		_, err := utils.WriteFiles(dir, []utils.File{{Name: "out.xlsx", Data: []byte(content)}})
		require.NoError(t, err)
	}

	b, err := os.ReadFile(filepath.Join(dir, "out.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, "two", string(b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	written, err := utils.WriteFiles(dir, []utils.File{
		{Name: "a.xlsx", Data: []byte("a")},
		{Name: "b.xlsx", Data: []byte("b")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.xlsx"), filepath.Join(dir, "b.xlsx")}, written)

	b, err := os.ReadFile(filepath.Join(dir, "b.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, "b", string(b))
}

func TestWriteFilesStagesBeforeRenaming(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.xlsx"), []byte("old"), 0o644))

	_, err := utils.WriteFiles(dir, []utils.File{
		{Name: "a.xlsx", Data: []byte("new")},
		{Name: filepath.Join("missing", "b.xlsx"), Data: []byte("b")},
	})
	require.Error(t, err)

	b, err := os.ReadFile(filepath.Join(dir, "a.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(b))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestPrettyJSON(t *testing.T) {
	b, err := utils.PrettyJSON(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", string(b))
}
