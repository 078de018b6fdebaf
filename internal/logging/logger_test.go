package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledLoggingIsNoop(t *testing.T) {
	require.NoError(t, Initialize("", Options{Enabled: false}))

	l := Get(CategoryAPI)
	require.NotNil(t, l)
	// Must not panic or write anywhere.
	l.Infof("dropped %d", 1)
	API("dropped %s", "too")
}

func TestEnabledLoggingWritesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, Options{Enabled: true, Level: "debug"}))
	defer func() {
		Sync()
		require.NoError(t, Initialize("", Options{Enabled: false}))
	}()

	Auth("logged in as %s", "admin@example.com")
	CacheDebug("fetch key=%s", "customer/list")
	Sync()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "logged in as admin@example.com")
	assert.Contains(t, string(data), "customer/list")
}

func TestCategoryFilter(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, Options{
		Enabled:    true,
		Level:      "debug",
		Categories: map[string]bool{"forms": false},
	}))
	defer func() {
		Sync()
		require.NoError(t, Initialize("", Options{Enabled: false}))
	}()

	Forms("should be filtered")
	API("should appear")
	Sync()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "should be filtered")
	assert.Contains(t, string(data), "should appear")
}
