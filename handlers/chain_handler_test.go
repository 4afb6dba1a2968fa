package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/relayforge/llm-fallback-gateway/models"
	"github.com/relayforge/llm-fallback-gateway/services/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestChainHandler(t *testing.T) (*ChainHandler, *catalog.Catalog) {
	t.Helper()

	cat := catalog.New()
	cat.RegisterModel(&models.ModelDescriptor{
		ID: "m1", Provider: "stub", Name: "m1", CostTier: models.CostTierLow,
	})
	cat.RegisterModel(&models.ModelDescriptor{
		ID: "m2", Provider: "stub", Name: "m2", CostTier: models.CostTierHigh,
	})
	return NewChainHandler(cat, zap.NewNop()), cat
}

func TestHandleCreateChain(t *testing.T) {
	h, cat := newTestChainHandler(t)

	body, _ := json.Marshal(CreateChainRequest{
		Name:   "premium",
		Models: []string{"m2", "m1"},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chains", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleCreateChain(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	chain, err := cat.GetChain("premium")
	require.NoError(t, err)
	assert.Equal(t, []string{"m2", "m1"}, chain.Models)
}

func TestHandleCreateChain_Invalid(t *testing.T) {
	h, _ := newTestChainHandler(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"malformed json", "{oops", http.StatusBadRequest},
		{"missing name", `{"models":["m1"]}`, http.StatusBadRequest},
		{"no models", `{"name":"x"}`, http.StatusBadRequest},
		{"unknown model", `{"name":"x","models":["ghost"]}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/chains",
				bytes.NewReader([]byte(tt.body)))
			rec := httptest.NewRecorder()
			h.HandleCreateChain(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHandleCreateChain_Duplicate(t *testing.T) {
	h, cat := newTestChainHandler(t)
	require.NoError(t, cat.AddChain(&models.ChainDescriptor{
		Name: "premium", Models: []string{"m1"},
	}))

	body, _ := json.Marshal(CreateChainRequest{Name: "premium", Models: []string{"m2"}})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chains", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleCreateChain(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleDeleteChain(t *testing.T) {
	h, cat := newTestChainHandler(t)
	require.NoError(t, cat.AddChain(&models.ChainDescriptor{
		Name: "premium", Models: []string{"m1"},
	}))

	req := withURLParam(httptest.NewRequest(http.MethodDelete, "/api/v1/chains/premium", nil),
		"name", "premium")
	rec := httptest.NewRecorder()
	h.HandleDeleteChain(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err := cat.GetChain("premium")
	assert.Error(t, err)
}

func TestHandleDeleteChain_Missing(t *testing.T) {
	h, _ := newTestChainHandler(t)

	req := withURLParam(httptest.NewRequest(http.MethodDelete, "/api/v1/chains/ghost", nil),
		"name", "ghost")
	rec := httptest.NewRecorder()
	h.HandleDeleteChain(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleListChains(t *testing.T) {
	h, cat := newTestChainHandler(t)
	require.NoError(t, cat.AddChain(&models.ChainDescriptor{
		Name: "premium", Models: []string{"m1"},
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chains", nil)
	rec := httptest.NewRecorder()
	h.HandleListChains(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []models.ChainDescriptor `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "premium", resp.Data[0].Name)
}

func TestHandleListModels(t *testing.T) {
	h, _ := newTestChainHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/models", nil)
	rec := httptest.NewRecorder()
	h.HandleListModels(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []models.ModelDescriptor `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "m1", resp.Data[0].ID)
}

// withURLParam attaches a chi route parameter to a test request
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
