package registryfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
executor:
  core_pool_size: 3
  queue_capacity: 10
scripts:
  metadata-export:
    description: Nightly export
    options:
      - name: item_ids
        description: Items to export
  metadata-import:
    disabled: true
`

func TestLoadParsesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scripts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	overrides, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, overrides.CorePoolSize)
	assert.Equal(t, 10, overrides.QueueCapacity)
	require.Contains(t, overrides.Scripts, "metadata-export")
	assert.Equal(t, "Nightly export", overrides.Scripts["metadata-export"].Description)
	require.Len(t, overrides.Scripts["metadata-export"].Options, 1)
	assert.Equal(t, "item_ids", overrides.Scripts["metadata-export"].Options[0].Name)
	assert.True(t, overrides.Scripts["metadata-import"].Disabled)
}

func TestLoadEmptyPathAndEmptyDocument(t *testing.T) {
	overrides, err := Load("")
	require.NoError(t, err)
	assert.Zero(t, overrides.CorePoolSize)

	overrides, err = Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, overrides.Scripts)
}

func TestParseRejectsInvalidDocuments(t *testing.T) {
	_, err := Parse([]byte("executor:\n  pool: 3\n"))
	require.Error(t, err)

	_, err = Parse([]byte("executor:\n  core_pool_size: -1\n"))
	require.Error(t, err)

	_, err = Parse([]byte("scripts:\n  metadata-export:\n    options:\n      - description: x\n"))
	require.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
