package logs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetLogger(t *testing.T) {
	defer SetLogger(nil)

	core, recorded := observer.New(zapcore.InfoLevel)
	SetLogger(zap.New(core))
	L().Info("hello", zap.String("stage", "build contours"))
	L().Debug("dropped")
	require.Equal(t, 1, recorded.Len())
	entry := recorded.All()[0]
	assert.Equal(t, "hello", entry.Message)
	assert.Equal(t, "build contours", entry.ContextMap()["stage"])

	SetLogger(nil)
	assert.NotNil(t, L(), "nil resets to a no-op logger")
}

func TestNew(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "navmesh.log")
	l, err := New(Options{Level: "debug", Json: true, File: path})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
	l.Info("written", zap.Int("tiles", 4))
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"written"`)
	assert.Contains(t, string(data), `"tiles":4`)
}
