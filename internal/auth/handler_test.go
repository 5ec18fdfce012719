package auth

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"afilia/internal/jwttoken"
	"afilia/internal/platform/secrets"
)

func newHandler(t *testing.T) *Handler {
	t.Helper()
	hash, err := secrets.Hash("kiosk-key-1")
	require.NoError(t, err)
	tokens := jwttoken.NewJWTService("test-signing-key", "afilia", "afilia-kiosk")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(tokens, hash, 15*time.Minute, nil, logger)
}

func post(t *testing.T, h *Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, "/auth/session", &buf)
	rec := httptest.NewRecorder()
	r := chi.NewRouter()
	h.Register(r)
	r.ServeHTTP(rec, req)
	return rec
}

func TestSessionIssuesToken(t *testing.T) {
	h := newHandler(t)

	rec := post(t, h, SessionRequest{ClientID: "kiosk-42", APIKey: "kiosk-key-1"})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(900), resp.ExpiresIn)
}

func TestSessionRejectsWrongKey(t *testing.T) {
	h := newHandler(t)

	rec := post(t, h, SessionRequest{ClientID: "kiosk-42", APIKey: "wrong"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionRequiresFields(t *testing.T) {
	h := newHandler(t)

	rec := post(t, h, SessionRequest{ClientID: "kiosk-42"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIssuedTokenValidates(t *testing.T) {
	h := newHandler(t)
	rec := post(t, h, SessionRequest{ClientID: "kiosk-42", APIKey: "kiosk-key-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	claims, err := h.tokens.ValidateToken(resp.AccessToken)

	require.NoError(t, err)
	assert.Equal(t, "kiosk-42", claims.ClientID)
}
