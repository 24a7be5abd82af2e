package cfgutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")

	exists, err := FileExists(file)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, os.WriteFile(file, nil, 0600))
	exists, err = FileExists(file)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestNormalizeAddresses(t *testing.T) {
	addrs, err := NormalizeAddresses(
		[]string{"localhost", "localhost:8332", "127.0.0.1:1234", "::1"},
		"8332",
	)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"localhost:8332", "127.0.0.1:1234", "[::1]:8332",
	}, addrs)

	_, err = NormalizeAddress("[::1", "8332")
	assert.Error(t, err)
}
