package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"investgate/internal/platform/metrics"
	"investgate/internal/platform/middleware"
	"investgate/internal/platform/validate"
	"investgate/internal/register"
	"investgate/internal/sequence"
	dErrors "investgate/pkg/domain-errors"
	"investgate/pkg/platform/httputil"
)

// Handler exposes the registration flow. These endpoints are public; a
// prospect has no credentials yet.
type Handler struct {
	svc     *register.Service
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(svc *register.Service, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{svc: svc, logger: logger, metrics: m}
}

// Register mounts the registration routes.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(h.logger))
	router.Use(middleware.Timeout(30 * time.Second))
	router.Use(middleware.ContentTypeJSON)
	router.Use(middleware.Latency(h.metrics))
	router.Use(middleware.Device)

	router.Post("/", h.handleStart)
	router.Post("/resume", h.handleResume)
	router.Get("/{id}", h.handleGet)
	router.Post("/{id}/code", h.handleSendCode)
	router.Post("/{id}/code/resend", h.handleResendCode)
	router.Post("/{id}/code/verify", h.handleVerifyCode)
	router.Put("/{id}/profile", h.handleSetProfile)
	router.Post("/{id}/advance", h.handleAdvance)
	router.Post("/{id}/retreat", h.handleRetreat)

	r.Mount("/register", router)
}

type startRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type startResponse struct {
	Registration *register.Registration `json:"registration"`
	ResumeToken  string                 `json:"resume_token"`
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	reg, resumeToken, err := h.svc.Start(ctx, req.Email)
	if err != nil {
		h.logger.ErrorContext(ctx, "start registration failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, startResponse{Registration: reg, ResumeToken: resumeToken})
}

type resumeRequest struct {
	ResumeToken string `json:"resume_token" validate:"required"`
}

func (h *Handler) handleResume(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req resumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	reg, err := h.svc.Resume(ctx, req.ResumeToken)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reg)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.flowID(w, r)
	if !ok {
		return
	}
	reg, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reg)
}

func (h *Handler) handleSendCode(w http.ResponseWriter, r *http.Request) {
	id, ok := h.flowID(w, r)
	if !ok {
		return
	}
	if err := h.svc.SendCode(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleResendCode(w http.ResponseWriter, r *http.Request) {
	id, ok := h.flowID(w, r)
	if !ok {
		return
	}
	if err := h.svc.ResendCode(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type verifyCodeRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

func (h *Handler) handleVerifyCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.flowID(w, r)
	if !ok {
		return
	}
	var req verifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	reg, err := h.svc.VerifyCode(ctx, id, req.Code)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reg)
}

type profileRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
	Source    string `json:"source" validate:"required"`
}

func (h *Handler) handleSetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.flowID(w, r)
	if !ok {
		return
	}
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	reg, err := h.svc.SetProfile(ctx, id, register.Profile{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Source:    req.Source,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reg)
}

type advanceResponse struct {
	Registration *register.Registration `json:"registration"`
	Causes       []sequence.FieldCause  `json:"causes,omitempty"`
}

func (h *Handler) handleAdvance(w http.ResponseWriter, r *http.Request) {
	id, ok := h.flowID(w, r)
	if !ok {
		return
	}
	reg, causes, err := h.svc.Advance(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	status := http.StatusOK
	if len(causes) > 0 {
		status = http.StatusUnprocessableEntity
	}
	httputil.WriteJSON(w, status, advanceResponse{Registration: reg, Causes: causes})
}

func (h *Handler) handleRetreat(w http.ResponseWriter, r *http.Request) {
	id, ok := h.flowID(w, r)
	if !ok {
		return
	}
	reg, err := h.svc.Retreat(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reg)
}

func (h *Handler) flowID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid registration id"))
		return uuid.Nil, false
	}
	return id, true
}
