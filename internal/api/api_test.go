package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gregriff/stegochat/internal/cipher"
	"github.com/gregriff/stegochat/internal/conceal"
	"github.com/gregriff/stegochat/internal/presence"
	"github.com/gregriff/stegochat/internal/schemas"
	"github.com/gregriff/stegochat/internal/schemas/public"
	"github.com/gregriff/stegochat/internal/stego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStats struct {
	stats *public.Stats
	err   error
}

func (f fakeStats) Stats() (*public.Stats, error) { return f.stats, f.err }

func newTestServer(t *testing.T, stats StatsSource, config Config) (*Server, *presence.Registry) {
	t.Helper()
	registry := presence.NewRegistry(presence.ReplaceExisting)
	c := conceal.New(cipher.NewAEAD(1000), stego.Limits{MaxPixels: 1 << 20}, 0)
	return NewServer(registry, c, nil, stats, config), registry
}

func carrierPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 48, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 48; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 5), G: uint8(y * 5), B: 90, A: 255})
		}
	}
	data, err := stego.EncodePNG(img)
	require.NoError(t, err)
	return data
}

func multipartRequest(t *testing.T, path string, img []byte, fields map[string]string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if img != nil {
		part, err := w.CreateFormFile("image", "carrier.png")
		require.NoError(t, err)
		_, err = part.Write(img)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestStatus(t *testing.T) {
	s, registry := newTestServer(t, nil, Config{})
	for _, nick := range []string{"carol", "alice"} {
		_, _, err := registry.Register(nick, uuid.New())
		require.NoError(t, err)
	}

	w := serve(s, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var status public.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, public.Status{Online: 2, Nicknames: []string{"alice", "carol"}}, status)
}

func TestStats(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		s, _ := newTestServer(t, nil, Config{})
		w := serve(s, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("enabled", func(t *testing.T) {
		want := &public.Stats{Total: 3, Events: []public.EventCount{{Kind: "text", Outcome: "delivered", Count: 3}}}
		s, _ := newTestServer(t, fakeStats{stats: want}, Config{})
		w := serve(s, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		var got public.Stats
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, *want, got)
	})

	t.Run("error", func(t *testing.T) {
		s, _ := newTestServer(t, fakeStats{err: errors.New("disk gone")}, Config{})
		w := serve(s, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "disk gone")
	})
}

func TestEmbedThenExtract(t *testing.T) {
	s, _ := newTestServer(t, nil, Config{})

	w := serve(s, multipartRequest(t, "/api/v1/stego/embed", carrierPNG(t), map[string]string{
		"message": "drop at pier 9", "password": "k",
	}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	out := w.Body.Bytes()

	tests := []struct {
		name     string
		password string
		want     schemas.MessageExtracted
	}{
		{"right password", "k", schemas.MessageExtracted{Success: true, Message: "drop at pier 9"}},
		{"wrong password", "x", schemas.MessageExtracted{Error: "wrong-password-or-corrupt"}},
		{"no password", "", schemas.MessageExtracted{Error: "invalid-key"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := serve(s, multipartRequest(t, "/api/v1/stego/extract", out, map[string]string{"password": tc.password}))
			assert.Equal(t, http.StatusOK, w.Code)

			var got schemas.MessageExtracted
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExtractPlainImage(t *testing.T) {
	s, _ := newTestServer(t, nil, Config{})
	w := serve(s, multipartRequest(t, "/api/v1/stego/extract", carrierPNG(t), map[string]string{"password": "k"}))
	assert.Equal(t, http.StatusOK, w.Code)

	var got schemas.MessageExtracted
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, schemas.MessageExtracted{Error: "no-hidden-data"}, got)
}

func TestEmbedErrors(t *testing.T) {
	tests := []struct {
		name   string
		img    []byte
		fields map[string]string
		config Config
		code   int
		reason string
	}{
		{"missing image", nil, map[string]string{"message": "m", "password": "k"}, Config{}, http.StatusBadRequest, "missing-image"},
		{"not an image", []byte("plain text"), map[string]string{"message": "m", "password": "k"}, Config{}, http.StatusBadRequest, "invalid-image"},
		{"no password", nil, map[string]string{"message": "m"}, Config{}, http.StatusBadRequest, "invalid-key"},
		{"too large", nil, map[string]string{"message": "m", "password": "k"}, Config{MaxUploadBytes: 10}, http.StatusRequestEntityTooLarge, "image-too-large"},
		{"message too long", nil, map[string]string{"message": string(make([]byte, 2000)), "password": "k"}, Config{}, http.StatusUnprocessableEntity, "capacity"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			img := tc.img
			if img == nil && tc.name != "missing image" {
				img = carrierPNG(t)
			}
			s, _ := newTestServer(t, nil, tc.config)
			w := serve(s, multipartRequest(t, "/api/v1/stego/embed", img, tc.fields))
			assert.Equal(t, tc.code, w.Code, w.Body.String())

			var got ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tc.reason, got.Error)
		})
	}
}

func TestEmbedMissingMessage(t *testing.T) {
	s, _ := newTestServer(t, nil, Config{})
	w := serve(s, multipartRequest(t, "/api/v1/stego/embed", carrierPNG(t), map[string]string{"password": "k"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
