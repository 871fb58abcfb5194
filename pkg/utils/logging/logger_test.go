package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitLogger_WritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	logger, path, err := InitLogger("test", WithDir(dir), WithConsole(zapcore.AddSync(&console)))
	require.NoError(t, err)

	logger.Debug("Debug only in file", zap.Int("section_id", 7))
	logger.Info("Enrollment finished")
	_ = logger.Sync()

	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "test_"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"Debug only in file"`)
	assert.Contains(t, string(data), `"section_id":7`)
	assert.Contains(t, string(data), `"env":"test"`)
	assert.Contains(t, string(data), `"timestamp"`)

	assert.Contains(t, console.String(), "Enrollment finished")
	assert.NotContains(t, console.String(), "Debug only in file")
}

func TestInitLogger_VerboseConsole(t *testing.T) {
	var console bytes.Buffer

	logger, _, err := InitLogger("test", WithDir(t.TempDir()), WithConsole(zapcore.AddSync(&console)), WithVerbose(true))
	require.NoError(t, err)

	logger.Debug("Candidate ordered")
	_ = logger.Sync()

	assert.Contains(t, console.String(), "Candidate ordered")
}
