package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyregistry/internal/faults"
)

func TestClient_Register(t *testing.T) {
	var got Registration
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/agents/register", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"server_id": 7, "entitlements": ["enterprise_entitled"]}`))
	}))
	defer srv.Close()

	out, err := NewClient(srv.URL).Register(context.Background(), Registration{
		ActivationKey: "1-abc",
		Hostname:      "web01",
		IP:            "10.0.0.5",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 7, out.ServerID)
	assert.Equal(t, []string{"enterprise_entitled"}, out.Entitlements)
	assert.Equal(t, "1-abc", got.ActivationKey)
	assert.Equal(t, "web01", got.Hostname)
}

func TestClient_RegisterFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"faultCode": 11000, "faultLabel": "invalidToken", "faultString": "Invalid token"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Register(context.Background(), Registration{ActivationKey: "nope"})
	require.Error(t, err)
	assert.ErrorIs(t, err, faults.ErrInvalidToken)

	var f *faults.Fault
	require.ErrorAs(t, err, &f)
	assert.Equal(t, faults.InvalidTokenMessage, f.Message)
}

func TestClient_Heartbeat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ServerID int64  `json:"server_id"`
			IP       string `json:"ip"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		if body.ServerID != 7 {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error": "server not registered"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status": "heartbeat ok"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	require.NoError(t, c.Heartbeat(context.Background(), 7, "10.0.0.5"))

	err := c.Heartbeat(context.Background(), 8, "10.0.0.5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server not registered")
	assert.NotErrorIs(t, err, faults.ErrInvalidToken)
}
