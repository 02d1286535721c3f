package sqliteadapter

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *BitstreamStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "assets.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBitstreamStorePutOpenDelete(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	body := "<rdf:RDF/>"

	object, err := store.Put(ctx, "item-1/license_rdf", strings.NewReader(body))
	require.NoError(t, err)
	sum := md5.Sum([]byte(body))
	assert.Equal(t, hex.EncodeToString(sum[:]), object.Checksum)
	assert.Equal(t, int64(len(body)), object.SizeBytes)

	reader, err := store.Open(ctx, "item-1/license_rdf")
	require.NoError(t, err)
	raw, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.NoError(t, reader.Close())
	assert.Equal(t, body, string(raw))

	require.NoError(t, store.Delete(ctx, "item-1/license_rdf"))
	_, err = store.Open(ctx, "item-1/license_rdf")
	require.Error(t, err)
	require.NoError(t, store.Delete(ctx, "item-1/license_rdf"))
}

func TestBitstreamStoreOverwritesKey(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	_, err := store.Put(ctx, "key", strings.NewReader("first"))
	require.NoError(t, err)
	_, err = store.Put(ctx, "key", strings.NewReader("second"))
	require.NoError(t, err)

	reader, err := store.Open(ctx, "key")
	require.NoError(t, err)
	defer reader.Close()
	raw, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "second", string(raw))
}

func TestOpenIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.db")
	first, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}
