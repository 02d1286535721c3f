package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	creativecommons "ccdepot/contexts/content-licensing/creative-commons-service"
	ccentities "ccdepot/contexts/content-licensing/creative-commons-service/domain/entities"
	authorization "ccdepot/contexts/identity-access/authorization-service"
	scriptrunner "ccdepot/contexts/internal-ops/script-runner-service"
	scriptports "ccdepot/contexts/internal-ops/script-runner-service/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCatalog struct{}

func (staticCatalog) ListItems(context.Context, []string) ([]scriptports.CatalogItem, error) {
	return []scriptports.CatalogItem{{ItemID: "item-1", CollectionID: "col-1"}}, nil
}

func (staticCatalog) ReplaceMetadata(context.Context, string, []scriptports.FieldUpdate) error {
	return nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	licensing := creativecommons.NewInMemoryModule([]ccentities.Item{
		{ItemID: "item-1", Name: "Thesis", CollectionID: "col-1", CreatedAt: now, UpdatedAt: now},
	}, creativecommons.DefaultSettings(), nil, nil, nil)
	authz := authorization.NewInMemoryModule(map[string]string{
		"admin-1":  "admin",
		"reader-1": "reader",
	}, nil, nil)
	scripts, err := scriptrunner.NewInMemoryModule(staticCatalog{}, nil, scriptports.RegistryOverrides{}, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = scripts.Executor.Shutdown(ctx)
	})
	return New(licensing, authz, scripts, nil, ":0")
}

func serve(server *Server, method string, target string, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	return rr
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var payload errorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	return payload.Code
}

func TestHealthz(t *testing.T) {
	rr := serve(newTestServer(t), http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestItemRoutesRequireUserHeader(t *testing.T) {
	rr := serve(newTestServer(t), http.MethodGet, "/v1/items/item-1", "", nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "missing_user", errorCode(t, rr))
}

func TestUploadAndDownloadLicenseText(t *testing.T) {
	server := newTestServer(t)
	user := map[string]string{"X-User-Id": "editor-1", "Content-Type": "text/plain; charset=utf-8"}

	rr := serve(server, http.MethodPut, "/v1/items/item-1/license", "CC BY 4.0", user)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = serve(server, http.MethodGet, "/v1/items/item-1/license/bitstreams/license_text", "", user)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "text/plain", rr.Header().Get("Content-Type"))
	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	assert.Equal(t, "CC BY 4.0", string(body))

	rr = serve(server, http.MethodGet, "/v1/items/item-1/license", "", user)
	require.Equal(t, http.StatusOK, rr.Code)
	var status struct {
		HasLicense bool `json:"has_license"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.True(t, status.HasLicense)
}

func TestLicensingErrorMapping(t *testing.T) {
	server := newTestServer(t)
	user := map[string]string{"X-User-Id": "editor-1"}

	rr := serve(server, http.MethodGet, "/v1/items/missing", "", user)
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "item_not_found", errorCode(t, rr))

	rr = serve(server, http.MethodGet, "/v1/license-fields/colour", "", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "unknown_license_field", errorCode(t, rr))

	rr = serve(server, http.MethodPost, "/v1/license-rdf/extract", `{"document":"<result/>"}`, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = serve(server, http.MethodPut, "/v1/items/item-1/license/rdf", `{`, user)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid_json", errorCode(t, rr))

	rr = serve(server, http.MethodGet, "/v1/items?licensed_only=maybe", "", user)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListItemsRequiresUserHeader(t *testing.T) {
	server := newTestServer(t)

	rr := serve(server, http.MethodGet, "/v1/items", "", nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "missing_user", errorCode(t, rr))
	assert.NotContains(t, rr.Body.String(), "Thesis")

	rr = serve(server, http.MethodGet, "/v1/items", "", map[string]string{"X-User-Id": "editor-1"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), "Thesis")
}

func TestAuthzGrantRequiresManager(t *testing.T) {
	server := newTestServer(t)

	rr := serve(server, http.MethodPost, "/v1/authz/users/user-2/roles", `{"role_id":"editor"}`,
		map[string]string{"X-User-Id": "reader-1"})
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = serve(server, http.MethodPost, "/v1/authz/users/user-2/roles", `{"role_id":"editor"}`,
		map[string]string{"X-User-Id": "admin-1", "Idempotency-Key": "grant-user-2"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = serve(server, http.MethodPost, "/v1/authz/check", `{"user_id":"user-2","permission":"item.write"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var decision struct {
		Allowed bool `json:"allowed"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &decision))
	assert.True(t, decision.Allowed)
}

func TestScriptRoutes(t *testing.T) {
	server := newTestServer(t)
	user := map[string]string{"X-User-Id": "admin-1"}

	rr := serve(server, http.MethodPost, "/v1/scripts/metadata-export/processes", `{}`, user)
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())
	var started struct {
		Process struct {
			ProcessID string `json:"process_id"`
		} `json:"process"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &started))

	require.Eventually(t, func() bool {
		rr := serve(server, http.MethodGet, "/v1/processes/"+started.Process.ProcessID, "", user)
		return rr.Code == http.StatusOK && strings.Contains(rr.Body.String(), `"status":"completed"`)
	}, 2*time.Second, 5*time.Millisecond)

	rr = serve(server, http.MethodGet, "/v1/processes/"+started.Process.ProcessID+"/output", "", user)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "id,collection\nitem-1,col-1\n", rr.Body.String())

	rr = serve(server, http.MethodPost, "/v1/scripts/reindex/processes", `{}`, user)
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "script_not_found", errorCode(t, rr))

	rr = serve(server, http.MethodGet, "/v1/processes?limit=ten", "", user)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(server, http.MethodPost, "/v1/processes/proc-404/cancel", "", user)
	require.Equal(t, http.StatusNotFound, rr.Code)
}
