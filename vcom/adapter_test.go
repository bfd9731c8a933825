package vcom_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pvsync/models"
	"pvsync/ratelimit"
	"pvsync/vcom"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	serve := func(path, body string) {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-API-Key") != "test-key" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		})
	}

	serve("/systems", `{"data":[
		{"key":"S1","name":"Alpha"},
		{"key":"","name":"no key, skipped"}
	]}`)
	serve("/systems/S1", `{"data":{
		"coordinates":{"latitude":48.85,"longitude":2.35},
		"commissionDate":"2021-03-01T00:00:00Z",
		"address":{"street":"1 rue de la Paix"}
	}}`)
	serve("/systems/S1/technical-data", `{"data":{
		"nominalPower":100.5,
		"panels":[{"vendor":"Acme","model":"X1","count":120}]
	}}`)
	serve("/systems/S1/inverters", `{"data":[
		{"id":"Inv1","name":"Inverter 1","serial":"SN-001"},
		{"id":"","name":"no device id, skipped"}
	]}`)
	serve("/systems/S1/inverters/Inv1", `{"data":{"vendor":"SMA","model":"Sunny"}}`)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newAdapter(t *testing.T, baseURL string) *vcom.Adapter {
	t.Helper()
	client := vcom.NewClient(baseURL, "test-key",
		ratelimit.New(1000, time.Minute), 5*time.Second, zerolog.Nop())
	return vcom.NewAdapter(client, zerolog.Nop())
}

func TestFetchSites(t *testing.T) {
	srv := testServer(t)
	adapter := newAdapter(t, srv.URL)

	sites, err := adapter.FetchSites(context.Background())
	require.NoError(t, err)

	require.Len(t, sites, 1, "system without key must be excluded")
	s := sites["S1"]
	assert.Equal(t, "Alpha", s.Name)
	require.NotNil(t, s.NominalPower)
	assert.Equal(t, 100.5, *s.NominalPower)
	require.NotNil(t, s.CommissionDate)
	assert.Equal(t, "2021-03-01", *s.CommissionDate, "datetime reduced to its date part")
	require.NotNil(t, s.Address)
	assert.Equal(t, "1 rue de la Paix", *s.Address)
	assert.Nil(t, s.YumanSiteID, "monitoring snapshot never carries foreign ids")
}

func TestFetchEquipment(t *testing.T) {
	srv := testServer(t)
	adapter := newAdapter(t, srv.URL)

	equips, err := adapter.FetchEquipment(context.Background())
	require.NoError(t, err)

	require.Len(t, equips, 2)

	mod := equips[models.EquipmentKey{SiteKey: "S1", DeviceID: "MODULES-S1"}]
	assert.Equal(t, models.KindModule, mod.Kind)
	assert.Equal(t, models.CategoryModule, mod.CategoryID)
	require.NotNil(t, mod.Count)
	assert.Equal(t, 120, *mod.Count)

	inv := equips[models.EquipmentKey{SiteKey: "S1", DeviceID: "Inv1"}]
	assert.Equal(t, models.KindInverter, inv.Kind)
	require.NotNil(t, inv.Brand)
	assert.Equal(t, "SMA", *inv.Brand)
	require.NotNil(t, inv.SerialNumber)
	assert.Equal(t, "SN-001", *inv.SerialNumber)
}

func TestClient_UnexpectedStatusSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	adapter := newAdapter(t, srv.URL)
	_, err := adapter.FetchSites(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestAdapter_FetchesOncePerRun(t *testing.T) {
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/systems", func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	adapter := newAdapter(t, srv.URL)
	ctx := context.Background()
	_, err := adapter.FetchSites(ctx)
	require.NoError(t, err)
	_, err = adapter.FetchEquipment(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "both fetches share one walk over the systems listing")
}
