package logger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestInitWritesToConfiguredPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")
	require.NoError(t, Init(Config{Level: "debug", Encoding: "json", OutputPaths: []string{path}}))
	t.Cleanup(func() { _ = Init(DefaultConfig()) })

	ctx := ContextWithSessionID(context.Background(), "abc")
	WithContext(ctx).Info("loaded")
	Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(b))
	assert.Contains(t, line, `"message":"loaded"`)
	assert.Contains(t, line, `"session_id":"abc"`)
}

func TestGetDefaults(t *testing.T) {
	assert.NotNil(t, Get())
}

func TestFromContextWithoutSession(t *testing.T) {
	base := zap.NewNop()
	assert.Same(t, base, FromContext(context.Background(), base))
}
