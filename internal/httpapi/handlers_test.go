package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/apothecary/internal/catalog"
	"github.com/mesh-intelligence/apothecary/internal/sqlite"
	"github.com/mesh-intelligence/apothecary/pkg/types"
)

type testAPI struct {
	t       *testing.T
	handler http.Handler
}

func setupAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	b := sqlite.NewBackend(zap.NewNop())
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })

	srv := NewServer(catalog.New(b, nil, nil), Config{CORSOrigins: []string{"http://localhost:5173"}}, nil)
	return &testAPI{t: t, handler: srv.Handler()}
}

// do sends a request and returns the recorder. body is JSON-encoded unless
// it is a string.
func (a *testAPI) do(method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	switch v := body.(type) {
	case nil:
	case string:
		buf.WriteString(v)
	default:
		require.NoError(a.t, json.NewEncoder(&buf).Encode(v))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

// create POSTs body and decodes the created entity's id.
func (a *testAPI) create(path string, body any) string {
	a.t.Helper()
	rec := a.do(http.MethodPost, path, body)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		ID string `json:"id"`
	}
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.ID
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthCheck(t *testing.T) {
	api := setupAPI(t)
	rec := api.do(http.MethodGet, "/healthcheck", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, rec)["status"])
}

func TestCategoryRoutes(t *testing.T) {
	api := setupAPI(t)

	id := api.create("/api/categories", map[string]any{"name": "Herbs", "description": "Plants"})

	rec := api.do(http.MethodGet, "/api/categories/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Herbs", decode[types.Category](t, rec).Name)

	rec = api.do(http.MethodPatch, "/api/categories/"+id, map[string]any{"description": nil})
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[types.Category](t, rec)
	assert.Equal(t, "Herbs", got.Name)
	assert.Nil(t, got.Description)

	rec = api.do(http.MethodGet, "/api/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]types.Category](t, rec), 1)

	rec = api.do(http.MethodDelete, "/api/categories/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(http.MethodGet, "/api/categories/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeNotFound, decode[ErrorEnvelope](t, rec).Error.Code)
}

func TestErrorMapping(t *testing.T) {
	api := setupAPI(t)
	cat := api.create("/api/categories", map[string]any{"name": "Herbs"})
	api.create("/api/items", map[string]any{"name": "Sage", "description": "Leaf", "category_id": cat})

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{name: "missing required name", method: http.MethodPost, path: "/api/tags", body: map[string]any{}, wantStatus: http.StatusBadRequest, wantCode: CodeInvalidInput},
		{name: "blank name", method: http.MethodPost, path: "/api/uses", body: map[string]any{"name": "  "}, wantStatus: http.StatusBadRequest, wantCode: CodeInvalidInput},
		{name: "malformed json", method: http.MethodPost, path: "/api/properties", body: "{", wantStatus: http.StatusBadRequest, wantCode: CodeInvalidInput},
		{name: "bad image url", method: http.MethodPost, path: "/api/items", body: map[string]any{"name": "x", "description": "d", "category_id": cat, "image_url": "nope"}, wantStatus: http.StatusBadRequest, wantCode: CodeInvalidInput},
		{name: "unknown category on item", method: http.MethodPost, path: "/api/items", body: map[string]any{"name": "x", "description": "d", "category_id": "nope"}, wantStatus: http.StatusNotFound, wantCode: CodeNotFound},
		{name: "unknown item in protocol", method: http.MethodPost, path: "/api/protocols", body: map[string]any{"name": "p", "item_ids": []string{"nope"}}, wantStatus: http.StatusNotFound, wantCode: CodeNotFound},
		{name: "referenced category", method: http.MethodDelete, path: "/api/categories/" + cat, wantStatus: http.StatusConflict, wantCode: CodeReferentialConstraint},
		{name: "missing protocol metadata", method: http.MethodGet, path: "/api/protocols/nope/metadata", wantStatus: http.StatusNotFound, wantCode: CodeNotFound},
		{name: "items of missing tag", method: http.MethodGet, path: "/api/tags/nope/items", wantStatus: http.StatusNotFound, wantCode: CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			env := decode[ErrorEnvelope](t, rec)
			assert.Equal(t, tt.wantCode, env.Error.Code)
			assert.NotEmpty(t, env.Error.Message)
		})
	}
}

func TestItemAndProtocolRoutes(t *testing.T) {
	api := setupAPI(t)

	herbs := api.create("/api/categories", map[string]any{"name": "Herbs"})
	ai := api.create("/api/tags", map[string]any{"name": "Anti-inflammatory"})
	dig := api.create("/api/tags", map[string]any{"name": "Digestive"})
	propAI := api.create("/api/properties", map[string]any{"name": "Anti-inflammatory"})
	propDig := api.create("/api/properties", map[string]any{"name": "Digestive"})
	joint := api.create("/api/uses", map[string]any{"name": "Joint health"})
	nausea := api.create("/api/uses", map[string]any{"name": "Nausea relief"})

	turmeric := api.create("/api/items", map[string]any{
		"name": "Turmeric", "description": "Golden root", "category_id": herbs,
		"potential_side_effects": "stomach upset",
		"tag_ids":                []string{ai, dig}, "property_ids": []string{propAI}, "use_ids": []string{joint},
	})
	ginger := api.create("/api/items", map[string]any{
		"name": "Ginger", "description": "Pungent root", "category_id": herbs,
		"potential_side_effects": "heartburn",
		"tag_ids":                []string{ai}, "property_ids": []string{propDig}, "use_ids": []string{nausea},
	})

	rec := api.do(http.MethodGet, "/api/items?tag_id="+dig, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[[]types.Item](t, rec)
	require.Len(t, items, 1)
	assert.Equal(t, turmeric, items[0].ID)
	assert.Equal(t, "Herbs", items[0].Category.Name)

	rec = api.do(http.MethodGet, "/api/categories/"+herbs+"/items", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]types.Item](t, rec), 2)

	rec = api.do(http.MethodGet, "/api/tags/"+ai+"/items", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]types.Item](t, rec), 2)

	protocol := api.create("/api/protocols", map[string]any{"name": "Digestive support", "item_ids": []string{turmeric, ginger}})

	rec = api.do(http.MethodGet, "/api/protocols/"+protocol, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	described := decode[types.ProtocolWithMetadata](t, rec)
	assert.Len(t, described.Items, 2)
	meta := described.AggregatedMetadata
	assert.Len(t, meta.Categories, 1)
	assert.Len(t, meta.Tags, 2)
	assert.Len(t, meta.CommonProperties, 2)
	assert.Len(t, meta.CommonUses, 2)
	assert.Equal(t, []string{"stomach upset", "heartburn"}, meta.AllSideEffects)

	rec = api.do(http.MethodGet, "/api/protocols/"+protocol+"/metadata", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, meta, decode[types.ProtocolAggregatedMetadata](t, rec))

	// Clearing a nullable field and replacing tags through PATCH.
	rec = api.do(http.MethodPatch, "/api/items/"+ginger, map[string]any{"potential_side_effects": nil, "tag_ids": []string{}})
	require.Equal(t, http.StatusOK, rec.Code)
	patched := decode[types.Item](t, rec)
	assert.Nil(t, patched.PotentialSideEffects)
	assert.Empty(t, patched.Tags)

	rec = api.do(http.MethodGet, "/api/protocols/"+protocol+"/metadata", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"stomach upset"}, decode[types.ProtocolAggregatedMetadata](t, rec).AllSideEffects)

	rec = api.do(http.MethodDelete, "/api/protocols/"+protocol, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(http.MethodGet, "/api/items/"+turmeric, nil)
	assert.Equal(t, http.StatusOK, rec.Code, "items survive protocol deletion")
}

func TestCORS(t *testing.T) {
	api := setupAPI(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/items", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSDisabledWithoutOrigins(t *testing.T) {
	assert.Nil(t, CORS(nil))
}
