package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	scripterrors "ccdepot/contexts/internal-ops/script-runner-service/domain/errors"
	"ccdepot/internal/app/bootstrap"
	"ccdepot/internal/platform/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `items:
  - item_id: item-1
    name: Thesis
    collection_id: col-1
    metadata:
      - {field: dc.title, value: Thesis}
  - item_id: item-2
    name: Dataset
    collection_id: col-2
`

func testRuntime(t *testing.T) runtimeBuilder {
	t.Helper()
	seedPath := filepath.Join(t.TempDir(), "items.yaml")
	require.NoError(t, os.WriteFile(seedPath, []byte(seedYAML), 0o600))
	cfg := config.Config{
		ServiceName: "ccctl-test",
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
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return func(ctx context.Context) (*bootstrap.Runtime, error) {
		return bootstrap.BuildRuntime(ctx, cfg, logger)
	}
}

func run(t *testing.T, build runtimeBuilder, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := execute(context.Background(), build, args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestLicenseSetStoresTextLicense(t *testing.T) {
	build := testRuntime(t)
	licensePath := filepath.Join(t.TempDir(), "license.txt")
	require.NoError(t, os.WriteFile(licensePath, []byte("CC BY 4.0"), 0o600))

	stdout, _, err := run(t, build, "license", "set", "item-1", licensePath, "--user", "editor-1")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"license_text"`)
	assert.Contains(t, stdout, `"text/plain"`)
}

func TestLicenseHasPrintsFalseForUnlicensedItem(t *testing.T) {
	stdout, _, err := run(t, testRuntime(t), "license", "has", "item-2", "-u", "reader-1")
	require.NoError(t, err)
	assert.Equal(t, "false\n", stdout)
}

func TestLicenseCommandsRequireUser(t *testing.T) {
	_, _, err := run(t, testRuntime(t), "license", "get", "item-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--user is required")
}

func TestScriptsRunWritesExportToStdout(t *testing.T) {
	stdout, stderr, err := run(t, testRuntime(t),
		"scripts", "run", "metadata-export", "-u", "admin-1", "-p", "collection=col-1")
	require.NoError(t, err)
	assert.Equal(t, "id,collection,dc.title\nitem-1,col-1,Thesis\n", stdout)
	assert.Contains(t, stderr, "exported 1 items with 1 metadata columns")
}

func TestScriptsRunRejectsUnknownScript(t *testing.T) {
	_, _, err := run(t, testRuntime(t), "scripts", "run", "reindex", "-u", "admin-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, scripterrors.ErrScriptNotFound))
}

func TestScriptsRunRejectsMalformedParam(t *testing.T) {
	_, _, err := run(t, testRuntime(t), "scripts", "run", "metadata-export", "-u", "admin-1", "-p", "collection")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want key=value")
}

func TestAuthzGrantBootstrapSkipsManagerCheck(t *testing.T) {
	build := testRuntime(t)

	_, _, err := run(t, build, "authz", "grant", "user-9", "editor")
	require.Error(t, err)

	stdout, _, err := run(t, build, "authz", "grant", "user-9", "editor", "--bootstrap")
	require.NoError(t, err)
	assert.Contains(t, stdout, "user-9")

	_, _, err = run(t, build, "authz", "grant", "user-9", "editor", "-u", "reader-1")
	require.Error(t, err)
}

func TestBuildFailureIsReported(t *testing.T) {
	failing := func(context.Context) (*bootstrap.Runtime, error) {
		return nil, errors.New("postgres unreachable")
	}
	_, _, err := run(t, failing, "scripts", "list", "-u", "admin-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build runtime: postgres unreachable")
}
