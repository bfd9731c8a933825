package yuman_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pvsync/ratelimit"
	"pvsync/yuman"
)

func newClient(t *testing.T, baseURL string) *yuman.Client {
	t.Helper()
	return yuman.NewClient(baseURL, "test-token",
		ratelimit.New(1000, time.Minute), 5*time.Second, zerolog.Nop())
}

func TestClient_ListSitesPaginates(t *testing.T) {
	// Two full pages of 100 plus a short final page.
	total := 230
	mux := http.NewServeMux()
	mux.HandleFunc("/sites", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		require.NoError(t, err)
		perPage, err := strconv.Atoi(r.URL.Query().Get("per_page"))
		require.NoError(t, err)

		start := (page - 1) * perPage
		var items []map[string]any
		for i := start; i < total && i < start+perPage; i++ {
			items = append(items, map[string]any{"id": i + 1, "name": fmt.Sprintf("site %d", i+1)})
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"items": items}))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	sites, err := newClient(t, srv.URL).ListSites(context.Background())
	require.NoError(t, err)
	assert.Len(t, sites, total)
}

func TestClient_CreateMaterialPostsPayload(t *testing.T) {
	var received yuman.MaterialPayload
	mux := http.NewServeMux()
	mux.HandleFunc("/materials", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":55,"name":"Inverter 1"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	created, err := newClient(t, srv.URL).CreateMaterial(context.Background(), yuman.MaterialPayload{
		SiteID:     7,
		Name:       "Inverter 1",
		CategoryID: 11102,
		Fields:     []yuman.CustomField{{Name: yuman.FieldInverterID, Value: "Inv1"}},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(55), created.ID)
	assert.Equal(t, int64(7), received.SiteID)
	require.Len(t, received.Fields, 1)
	assert.Equal(t, "Inv1", received.Fields[0].Value)
}

func TestClient_ErrorStatusSurfacesVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	t.Cleanup(srv.Close)

	err := newClient(t, srv.URL).UpdateSite(context.Background(), 7, map[string]any{"name": "x"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}
