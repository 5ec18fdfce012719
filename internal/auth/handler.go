// Package auth issues short-lived access tokens for kiosk clients. A kiosk
// authenticates once with its provisioned API key and uses the returned
// bearer token for the wizard endpoints.
package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"afilia/internal/jwttoken"
	"afilia/internal/platform/middleware"
	"afilia/internal/platform/secrets"
	dErrors "afilia/pkg/domain-errors"
	audit "afilia/pkg/platform/audit"
	"afilia/pkg/platform/audit/publisher"
	"afilia/pkg/platform/httputil"
)

// Handler exchanges API keys for access tokens.
type Handler struct {
	tokens     *jwttoken.JWTService
	apiKeyHash string
	tokenTTL   time.Duration
	audit      *publisher.Publisher
	logger     *slog.Logger
}

// New constructs an auth handler. apiKeyHash is the bcrypt hash of the
// provisioned kiosk key.
func New(tokens *jwttoken.JWTService, apiKeyHash string, tokenTTL time.Duration, auditPub *publisher.Publisher, logger *slog.Logger) *Handler {
	return &Handler{
		tokens:     tokens,
		apiKeyHash: apiKeyHash,
		tokenTTL:   tokenTTL,
		audit:      auditPub,
		logger:     logger,
	}
}

// Register mounts the token endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/session", h.HandleSession)
}

// SessionRequest identifies the kiosk asking for a token.
type SessionRequest struct {
	ClientID string `json:"client_id"`
	APIKey   string `json:"api_key"`
}

// SessionResponse carries the issued bearer token.
type SessionResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// HandleSession handles POST /auth/session requests.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.ClientID == "" || req.APIKey == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "client_id and api_key required"))
		return
	}

	if err := secrets.Verify(h.apiKeyHash, req.APIKey); err != nil {
		h.logger.WarnContext(ctx, "api key rejected",
			"request_id", middleware.GetRequestID(ctx),
			"client_id", req.ClientID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials"))
		return
	}

	token, err := h.tokens.GenerateAccessToken(req.ClientID, h.tokenTTL)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "issue token", err))
		return
	}

	if h.audit != nil {
		if err := h.audit.Emit(ctx, audit.Event{
			Action:    audit.EventTokenIssued,
			RequestID: middleware.GetRequestID(ctx),
			Outcome:   "issued",
		}); err != nil {
			h.logger.WarnContext(ctx, "audit emit failed", "error", err.Error())
		}
	}

	h.logger.InfoContext(ctx, "access token issued",
		"request_id", middleware.GetRequestID(ctx),
		"client_id", req.ClientID,
	)
	httputil.WriteJSON(w, http.StatusOK, SessionResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.tokenTTL.Seconds()),
	})
}
