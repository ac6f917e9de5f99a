package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "age", c.RangeColumn)
	assert.Equal(t, "y", c.OutcomeColumn)
	assert.Equal(t, ";", c.Delimiter)
	assert.Equal(t, "utf-8", c.Encoding)
	assert.Equal(t, 1, c.SheetIndex)
	assert.Equal(t, 5, c.HeadRows)
	assert.Equal(t, "bank_processed.xlsx", c.ProcessedFile)
	assert.Equal(t, "bank_raw_y.xlsx", c.RawOutcomeFile)
	assert.Equal(t, "bank_y.xlsx", c.FilteredOutcomeFile)
	assert.Equal(t, int64(64<<20), c.CacheMaxCost)
}

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	c := &Global{
		RangeColumn: "duration", OutcomeColumn: "y", InputFormat: "auto", Delimiter: ",",
		Encoding: "latin1", SheetIndex: 2, HeadRows: 3, ReportFormat: "json",
		OutputDir: "out", ProcessedFile: "p.xlsx", RawOutcomeFile: "r.xlsx", FilteredOutcomeFile: "f.xlsx",
		CacheMaxCost: 1024, LogLevel: "debug", LogEncoding: "console",
	}
	require.NoError(t, Save(c, path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("head_rows: 7\n"), 0o644))
	t.Setenv("TELEFILTER_HEAD_ROWS", "9")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, c.HeadRows)
}

func TestValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("delimiter: \";;\"\n"), 0o644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "delimiter must be a single character")

	require.NoError(t, os.WriteFile(path, []byte("report_format: html\n"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "unsupported report_format")
}

func TestDefaultsMatchLoad(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), c)
}
