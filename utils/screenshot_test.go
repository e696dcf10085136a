package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScreenshotDebugger_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")

	s := NewScreenshotDebugger(dir, logrus.New())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, dir, s.dir)
}

func TestNewScreenshotDebugger_DefaultDir(t *testing.T) {
	t.Chdir(t.TempDir())

	s := NewScreenshotDebugger("", logrus.New())

	assert.Equal(t, filepath.Join("logs", "screenshots"), s.dir)
}
