package internal

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gregriff/stegochat/configs"
	"github.com/gregriff/stegochat/internal/client"
	"github.com/gregriff/stegochat/internal/schemas"
	"github.com/gregriff/stegochat/internal/schemas/public"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSettings() configs.Settings {
	return configs.Settings{
		Relay: configs.RelaySettings{
			MaxImageBytes:      1 << 20,
			MaxPixels:          1 << 20,
			MaxConcurrentCodec: 2,
			DuplicatePolicy:    "replace",
			Acknowledge:        true,
		},
		Cipher:     configs.CipherSettings{Name: "aead", Iterations: 1000},
		APIEnabled: true,
	}
}

func TestNewHandlerUnknownCipher(t *testing.T) {
	s := testSettings()
	s.Cipher.Name = "rot13"
	_, err := NewHandler(s, nil)
	assert.Error(t, err)
}

func TestRelayAndAPI(t *testing.T) {
	conn, audit, err := OpenAudit(filepath.Join(t.TempDir(), "audit.sqlite"))
	require.NoError(t, err)
	defer conn.Close()

	handler, err := NewHandler(testSettings(), audit)
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	defer srv.Close()

	alice, err := client.Dial(srv.URL)
	require.NoError(t, err)
	defer alice.Close()
	require.NoError(t, alice.Register("alice"))
	_, err = client.Await[schemas.SystemMessage](alice, 2*time.Second)
	require.NoError(t, err)

	res, err := http.Get(srv.URL + "/api/v1/status")
	require.NoError(t, err)
	defer res.Body.Close()
	var status public.Status
	require.NoError(t, json.NewDecoder(res.Body).Decode(&status))
	assert.Equal(t, public.Status{Online: 1, Nicknames: []string{"alice"}}, status)

	require.NoError(t, alice.SendText("alice", "bob", "hi"))
	_, err = client.Await[schemas.SystemMessage](alice, 2*time.Second)
	require.NoError(t, err)

	stats, err := audit.Stats()
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Total)
	assert.Contains(t, stats.Events, public.EventCount{Kind: "text", Outcome: "offline", Count: 1})
}

func TestAPIDisabled(t *testing.T) {
	s := testSettings()
	s.APIEnabled = false
	handler, err := NewHandler(s, nil)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
