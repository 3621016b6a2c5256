package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"investgate/internal/order"
	"investgate/internal/platform/metrics"
	"investgate/internal/platform/middleware"
	"investgate/internal/platform/validate"
	dErrors "investgate/pkg/domain-errors"
	"investgate/pkg/platform/httputil"
)

// Handler exposes the order review flow. Trading requires an access
// token, and the device middleware feeds the audit trail.
type Handler struct {
	svc          *order.Service
	logger       *slog.Logger
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

func New(svc *order.Service, logger *slog.Logger, m *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{svc: svc, logger: logger, metrics: m, jwtValidator: jwtValidator}
}

// Register mounts the order routes.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(h.logger))
	router.Use(middleware.Timeout(30 * time.Second))
	router.Use(middleware.ContentTypeJSON)
	router.Use(middleware.Latency(h.metrics))
	router.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	router.Use(middleware.Device)

	router.Get("/disclosures", h.handleDisclosures)
	router.Post("/review", h.handleStartReview)
	router.Get("/review/{id}", h.handleGet)
	router.Put("/review/{id}/line", h.handleUpdateLine)
	router.Put("/review/{id}/acknowledgments", h.handleAcknowledge)
	router.Put("/review/{id}/consent", h.handleSetFinalConsent)
	router.Get("/review/{id}/readiness", h.handleReadiness)
	router.Post("/review/{id}/confirm", h.handleConfirm)
	router.Post("/review/{id}/edit", h.handleBackToEdit)
	router.Delete("/review/{id}", h.handleAbandon)

	r.Mount("/orders", router)
}

type disclosuresResponse struct {
	Disclosures []order.Disclosure `json:"disclosures"`
}

func (h *Handler) handleDisclosures(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, disclosuresResponse{Disclosures: h.svc.Disclosures()})
}

type feeComponentRequest struct {
	Label  string          `json:"label" validate:"required"`
	Amount decimal.Decimal `json:"amount"`
}

type startReviewRequest struct {
	Symbol    string                `json:"symbol" validate:"required"`
	Side      string                `json:"side" validate:"required,oneof=buy sell"`
	Quantity  int64                 `json:"quantity"`
	UnitPrice decimal.Decimal       `json:"unit_price"`
	Fees      []feeComponentRequest `json:"fees" validate:"dive"`
}

func (h *Handler) handleStartReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := uuid.Parse(middleware.GetUserID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid user identity"))
		return
	}
	var req startReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	fees := order.FeeSchedule{}
	for _, c := range req.Fees {
		fees.Components = append(fees.Components, order.FeeComponent{Label: c.Label, Amount: c.Amount})
	}
	sess, err := h.svc.StartReview(ctx, userID, req.Symbol, order.Side(req.Side), req.Quantity, req.UnitPrice, fees)
	if err != nil {
		h.logger.ErrorContext(ctx, "start review failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, sess)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	sess, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sess)
}

type updateLineRequest struct {
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (h *Handler) handleUpdateLine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	var req updateLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	sess, err := h.svc.UpdateLine(r.Context(), id, req.Quantity, req.UnitPrice)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sess)
}

type acknowledgeRequest struct {
	DisclosureID string `json:"disclosure_id" validate:"required"`
	Acknowledged bool   `json:"acknowledged"`
}

func (h *Handler) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	var req acknowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	sess, err := h.svc.Acknowledge(r.Context(), id, req.DisclosureID, req.Acknowledged)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sess)
}

type finalConsentRequest struct {
	Consent bool `json:"consent"`
}

func (h *Handler) handleSetFinalConsent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	var req finalConsentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	sess, err := h.svc.SetFinalConsent(r.Context(), id, req.Consent)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sess)
}

type readinessResponse struct {
	DisclosuresReady bool `json:"disclosures_ready"`
	FinalReady       bool `json:"final_ready"`
}

func (h *Handler) handleReadiness(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	disclosuresReady, finalReady, err := h.svc.Readiness(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, readinessResponse{
		DisclosuresReady: disclosuresReady,
		FinalReady:       finalReady,
	})
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	sess, err := h.svc.Confirm(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleBackToEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	sess, err := h.svc.BackToEdit(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleAbandon(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Abandon(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid session id"))
		return uuid.Nil, false
	}
	return id, true
}
