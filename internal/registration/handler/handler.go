package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"afilia/internal/catalog"
	"afilia/internal/platform/middleware"
	"afilia/internal/registration/models"
	"afilia/internal/registration/service"
	"afilia/internal/registration/wizard"
	"afilia/internal/registry"
	dErrors "afilia/pkg/domain-errors"
	"afilia/pkg/platform/httputil"
	"afilia/pkg/platform/sentinel"
)

// Service defines the wizard operations the HTTP layer depends on.
type Service interface {
	Create(ctx context.Context) (*models.Session, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Session, error)
	Search(ctx context.Context, id uuid.UUID, tarjeta, email string) (service.SearchResult, error)
	ResolveConflict(ctx context.Context, id uuid.UUID, useRegistered bool) (service.SearchResult, error)
	SetFields(ctx context.Context, id uuid.UUID, fields map[string]any) (service.FieldResult, error)
	Next(ctx context.Context, id uuid.UUID) (wizard.NextResult, *models.Session, error)
	Prev(ctx context.Context, id uuid.UUID) (wizard.PrevResult, *models.Session, error)
	Reset(ctx context.Context, id uuid.UUID, confirm bool) (*models.Session, error)
	Submit(ctx context.Context, id uuid.UUID) (service.SubmitResult, error)
	HandleSignatureCallback(ctx context.Context, documentID string, success bool, sdkData json.RawMessage) error
	Products(ctx context.Context) ([]catalog.Product, error)
	CheckPostal(ctx context.Context, cp string) (bool, error)
}

// RegistrationReader looks up completed registrations by signed document.
type RegistrationReader interface {
	GetByDocument(ctx context.Context, documentID string) (registry.Registration, error)
}

// Handler wires the registration wizard endpoints to the service.
type Handler struct {
	service       Service
	registrations RegistrationReader
	logger        *slog.Logger
}

// New constructs a registration handler with its dependencies.
func New(service Service, registrations RegistrationReader, logger *slog.Logger) *Handler {
	return &Handler{
		service:       service,
		registrations: registrations,
		logger:        logger,
	}
}

// Register mounts wizard endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/wizard", h.HandleCreate)
	r.Get("/wizard/{id}", h.HandleGet)
	r.Post("/wizard/{id}/search", h.HandleSearch)
	r.Post("/wizard/{id}/search/resolve", h.HandleResolve)
	r.Post("/wizard/{id}/fields", h.HandleFields)
	r.Post("/wizard/{id}/next", h.HandleNext)
	r.Post("/wizard/{id}/prev", h.HandlePrev)
	r.Post("/wizard/{id}/reset", h.HandleReset)
	r.Post("/wizard/{id}/submit", h.HandleSubmit)
	r.Get("/registrations/{document_id}", h.HandleRegistration)
	r.Get("/products", h.HandleProducts)
	r.Get("/postal-codes/{cp}", h.HandlePostal)
}

// RegisterCallback mounts the signature callback outside the authenticated
// group: the signing provider posts to it directly.
func (h *Handler) RegisterCallback(r chi.Router) {
	r.Post("/signatures/callback", h.HandleCallback)
}

func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid session id"))
		return uuid.Nil, false
	}
	return id, true
}

func decode[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return req, false
	}
	return req, true
}

// HandleCreate handles POST /wizard requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, err := h.service.Create(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "wizard session created",
		"request_id", middleware.GetRequestID(ctx),
		"session_id", sess.ID,
	)
	httputil.WriteJSON(w, http.StatusCreated, sessionResponse(sess))
}

// HandleGet handles GET /wizard/{id} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	sess, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sessionResponse(sess))
}

// HandleSearch handles POST /wizard/{id}/search requests.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	req, ok := decode[SearchRequest](w, r)
	if !ok {
		return
	}

	tarjeta, email := req.Trimmed()
	result, err := h.service.Search(ctx, id, tarjeta, email)
	if err != nil {
		h.logger.ErrorContext(ctx, "profile search failed",
			"request_id", middleware.GetRequestID(ctx),
			"session_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, searchResponse(result))
}

// HandleResolve handles POST /wizard/{id}/search/resolve requests.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	req, ok := decode[ResolveRequest](w, r)
	if !ok {
		return
	}

	result, err := h.service.ResolveConflict(r.Context(), id, req.UseRegistered)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, searchResponse(result))
}

// HandleFields handles POST /wizard/{id}/fields requests.
func (h *Handler) HandleFields(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	req, ok := decode[FieldsRequest](w, r)
	if !ok {
		return
	}
	if len(req.Fields) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "no fields provided"))
		return
	}

	result, err := h.service.SetFields(r.Context(), id, req.Fields)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fieldsResponse(result))
}

// HandleNext handles POST /wizard/{id}/next requests.
func (h *Handler) HandleNext(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	result, sess, err := h.service.Next(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if result.Blocked {
		httputil.WriteJSON(w, http.StatusUnprocessableEntity, nextResponse(result, sess))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, nextResponse(result, sess))
}

// HandlePrev handles POST /wizard/{id}/prev requests.
func (h *Handler) HandlePrev(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	res, sess, err := h.service.Prev(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, prevResponse(res, sess))
}

// HandleReset handles POST /wizard/{id}/reset requests.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	req, ok := decode[ResetRequest](w, r)
	if !ok {
		return
	}

	sess, err := h.service.Reset(r.Context(), id, req.Confirm)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sessionResponse(sess))
}

// HandleSubmit handles POST /wizard/{id}/submit requests.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	result, err := h.service.Submit(ctx, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "contract submission failed",
			"request_id", middleware.GetRequestID(ctx),
			"session_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "contract submitted",
		"request_id", middleware.GetRequestID(ctx),
		"session_id", id,
		"document_id", result.DocumentID,
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleCallback handles POST /signatures/callback requests from the signing
// provider.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := decode[CallbackRequest](w, r)
	if !ok {
		return
	}
	if req.DocumentID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "document_id required"))
		return
	}

	if err := h.service.HandleSignatureCallback(ctx, req.DocumentID, req.Success, req.SDKData); err != nil {
		h.logger.ErrorContext(ctx, "signature callback failed",
			"request_id", middleware.GetRequestID(ctx),
			"document_id", req.DocumentID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleRegistration handles GET /registrations/{document_id} requests.
func (h *Handler) HandleRegistration(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")
	if documentID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "document_id required"))
		return
	}

	record, err := h.registrations.GetByDocument(r.Context(), documentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			err = dErrors.Wrap(dErrors.CodeNotFound, "registration not found", err)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

// HandleProducts handles GET /products requests.
func (h *Handler) HandleProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.Products(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"products": products})
}

// HandlePostal handles GET /postal-codes/{cp} requests.
func (h *Handler) HandlePostal(w http.ResponseWriter, r *http.Request) {
	cp := chi.URLParam(r, "cp")

	valid, err := h.service.CheckPostal(r.Context(), cp)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, postalResponse(cp, valid))
}
