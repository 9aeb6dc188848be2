package alarms

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geo-alert-engine/internal/event"
)

func TestWebhookDeliver(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wh := NewWebhook("test", srv.URL, false)
	require.NoError(t, wh.Connect())
	require.NoError(t, wh.StartupMessage()) // startup disabled, no call

	err := wh.Deliver(event.KindMonster, map[string]string{"monster_id": "150"})
	require.NoError(t, err)
	assert.Equal(t, "monster", got["kind"])
	assert.Equal(t, "150", got["monster_id"])
}

func TestWebhookDeliver_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	wh := NewWebhook("test", srv.URL, false)
	require.NoError(t, wh.Connect())

	err := wh.Deliver(event.KindGym, map[string]string{})
	assert.ErrorContains(t, err, "502")
}

func TestWebhookStartupMessage(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wh := NewWebhook("test", srv.URL, true)
	require.NoError(t, wh.Connect())
	require.NoError(t, wh.StartupMessage())
	assert.Equal(t, 1, calls)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alarms.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
alarms:
  primary:
    active: true
    type: webhook
    url: "http://localhost:9999/hook"
  disabled:
    active: false
    type: webhook
    url: "http://localhost:9999/other"
`), 0o644))

	out, err := Load(path)
	require.NoError(t, err)
	require.Len(t, out, 1)
	_, ok := out["primary"]
	assert.True(t, ok)
}

func TestLoad_UnknownType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alarms.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
alarms:
  odd:
    active: true
    type: carrier_pigeon
`), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "unknown alarm type")
}

func TestLoad_WebhookNeedsURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alarms.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
alarms:
  bare:
    active: true
    type: webhook
`), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "needs a url")
}
