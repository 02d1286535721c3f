package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	ccerrors "ccdepot/contexts/content-licensing/creative-commons-service/domain/errors"
	cchttp "ccdepot/contexts/content-licensing/creative-commons-service/transport/http"
	scripterrors "ccdepot/contexts/internal-ops/script-runner-service/domain/errors"
	scripthttp "ccdepot/contexts/internal-ops/script-runner-service/transport/http"
	"ccdepot/internal/platform/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `items:
  - item_id: item-1
    handle: 123456789/1
    name: Thesis
    collection_id: col-1
    metadata:
      - {field: dc.title, value: Thesis}
      - {field: dc.subject, value: Physik, language: de}
  - item_id: item-2
    name: Dataset
    collection_id: col-2
`

const rdfPayload = `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns:cc="http://creativecommons.org/ns#"><cc:License rdf:about="http://creativecommons.org/licenses/by/4.0/"/></rdf:RDF>`

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	seedPath := filepath.Join(t.TempDir(), "items.yaml")
	require.NoError(t, os.WriteFile(seedPath, []byte(seedYAML), 0o600))

	cfg := config.Config{
		ServiceName: "ccdepot-test",
		CC: config.CCConfig{
			Enabled:         true,
			SubmitSetName:   true,
			AddBitstream:    true,
			LicenseURIField: "dc.rights.uri",
			LicenseName:     "dc.rights",
			PermissionField: "dc.rights.accessRights",
		},
		SeedItemsPath: seedPath,
		SeedRoles: map[string]string{
			"admin-1":  "admin",
			"editor-1": "editor",
			"reader-1": "reader",
		},
	}
	rt, err := BuildRuntime(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = rt.Scripts.Executor.Shutdown(ctx)
		_ = rt.Close()
	})
	return rt
}

func TestInMemoryRuntimeAuthorizesLicensing(t *testing.T) {
	rt := newTestRuntime(t)
	require.True(t, rt.InMemory())
	ctx := context.Background()
	handler := rt.Licensing.Handler

	_, err := handler.SetLicenseRDFHandler(ctx, "reader-1", "item-1", cchttp.SetLicenseRDFRequest{LicenseRDF: rdfPayload})
	require.ErrorIs(t, err, ccerrors.ErrForbidden)

	_, err = handler.SetLicenseRDFHandler(ctx, "editor-1", "item-1", cchttp.SetLicenseRDFRequest{LicenseRDF: rdfPayload})
	require.NoError(t, err)

	rdf, err := handler.GetLicenseRDFHandler(ctx, "reader-1", "item-1")
	require.NoError(t, err)
	assert.Equal(t, rdfPayload, rdf.LicenseRDF)

	_, err = handler.GetLicenseRDFHandler(ctx, "stranger", "item-1")
	require.ErrorIs(t, err, ccerrors.ErrForbidden)
}

func TestInMemoryRuntimeRunsScriptsAgainstCatalog(t *testing.T) {
	rt := newTestRuntime(t)
	ctx := context.Background()
	scripts := rt.Scripts.Handler

	_, err := scripts.StartProcessHandler(ctx, "editor-1", "metadata-export", scripthttp.StartProcessRequest{})
	require.ErrorIs(t, err, scripterrors.ErrForbidden)

	started, err := scripts.StartProcessHandler(ctx, "admin-1", "metadata-import", scripthttp.StartProcessRequest{
		Input: "id,collection,dc.title\nitem-1,col-1,Thesis (revised)\n",
	})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		resp, err := scripts.GetProcessHandler(ctx, "reader-1", started.Process.ProcessID)
		return err == nil && resp.Process.Status == "completed"
	}, 2*time.Second, 5*time.Millisecond)

	item, err := rt.Licensing.Handler.GetItemHandler(ctx, "reader-1", "item-1")
	require.NoError(t, err)
	values := map[string]string{}
	for _, value := range item.Item.Metadata {
		values[value.Field+"|"+value.Language] = value.Value
	}
	assert.Equal(t, "Thesis (revised)", values["dc.title|"])
	assert.Equal(t, "Physik", values["dc.subject|de"])
}

func TestParseSeedItemsRejectsBadInput(t *testing.T) {
	now := time.Now().UTC()

	items, err := parseSeedItems([]byte(seedYAML), now)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "dc", items[0].Metadata[1].Schema)
	assert.Equal(t, "de", items[0].Metadata[1].Language)

	_, err = parseSeedItems([]byte("items:\n  - name: no id\n"), now)
	require.Error(t, err)

	_, err = parseSeedItems([]byte("items:\n  - item_id: a\n  - item_id: a\n"), now)
	require.Error(t, err)

	_, err = parseSeedItems([]byte("items:\n  - item_id: a\n    metadata:\n      - {field: title, value: x}\n"), now)
	require.Error(t, err)

	_, err = parseSeedItems([]byte("widgets: []\n"), now)
	require.Error(t, err)

	empty, err := parseSeedItems(nil, now)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
