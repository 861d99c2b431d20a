package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/filevault/internal/config"
)

func TestRunInitClientConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filevault", "client.toml")

	var out bytes.Buffer
	require.NoError(t, RunInitClientConfig(&out, path, false))
	assert.Contains(t, out.String(), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	cfg, err := config.LoadClient(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultClientConfig().APIURL, cfg.APIURL)

	err = RunInitClientConfig(&bytes.Buffer{}, path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, RunInitClientConfig(&bytes.Buffer{}, path, true))
}
