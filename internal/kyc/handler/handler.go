package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"investgate/internal/kyc"
	"investgate/internal/platform/metrics"
	"investgate/internal/platform/middleware"
	"investgate/internal/platform/validate"
	"investgate/internal/sequence"
	dErrors "investgate/pkg/domain-errors"
	"investgate/pkg/platform/httputil"
)

// Handler exposes the KYC flow. Every route requires an access token; the
// flow belongs to an authenticated user.
type Handler struct {
	svc          *kyc.Service
	logger       *slog.Logger
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

func New(svc *kyc.Service, logger *slog.Logger, m *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{svc: svc, logger: logger, metrics: m, jwtValidator: jwtValidator}
}

// Register mounts the KYC routes.
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

	router.Post("/", h.handleStart)
	router.Post("/resume", h.handleResume)
	router.Get("/{id}", h.handleGet)
	router.Get("/{id}/causes", h.handleCauses)
	router.Post("/{id}/advance", h.handleAdvance)
	router.Post("/{id}/retreat", h.handleRetreat)
	router.Post("/{id}/jump", h.handleJump)

	router.Put("/{id}/pan", h.handleSetPAN)
	router.Post("/{id}/bank-proof", h.handleBankProof)
	router.Put("/{id}/address", h.handleSetAddress)
	router.Post("/{id}/email/send", h.handleSendEmailCode)
	router.Post("/{id}/email/verify", h.handleVerifyEmail)
	router.Post("/{id}/phone/send", h.handleSendPhoneCode)
	router.Post("/{id}/phone/verify", h.handleVerifyPhone)
	router.Put("/{id}/segment", h.handleSetSegment)
	router.Put("/{id}/consents", h.handleSetConsents)
	router.Post("/{id}/esign", h.handleStartESign)

	r.Mount("/kyc", router)
}

type startRequest struct {
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required"`
}

type startResponse struct {
	Flow        *kyc.Flow `json:"flow"`
	ResumeToken string    `json:"resume_token"`
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := uuid.Parse(middleware.GetUserID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid user identity"))
		return
	}
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	flow, resumeToken, err := h.svc.Start(ctx, userID, req.Email, req.Phone)
	if err != nil {
		h.logger.ErrorContext(ctx, "start kyc failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, startResponse{Flow: flow, ResumeToken: resumeToken})
}

type resumeRequest struct {
	ResumeToken string `json:"resume_token" validate:"required"`
}

func (h *Handler) handleResume(w http.ResponseWriter, r *http.Request) {
	var req resumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	flow, err := h.svc.Resume(r.Context(), req.ResumeToken)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, flow)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.flowID(w, r)
	if !ok {
		return
	}
	flow, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, flow)
}

type causesResponse struct {
	Causes []sequence.FieldCause `json:"causes"`
}

func (h *Handler) handleCauses(w http.ResponseWriter, r *http.Request) {
	id, ok := h.flowID(w, r)
	if !ok {
		return
	}
	causes, err := h.svc.Causes(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, causesResponse{Causes: causes})
}

type advanceResponse struct {
	Flow   *kyc.Flow             `json:"flow"`
	Causes []sequence.FieldCause `json:"causes,omitempty"`
}

func (h *Handler) handleAdvance(w http.ResponseWriter, r *http.Request) {
	id, ok := h.flowID(w, r)
	if !ok {
		return
	}
	flow, causes, err := h.svc.Advance(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	status := http.StatusOK
	if len(causes) > 0 {
		status = http.StatusUnprocessableEntity
	}
	httputil.WriteJSON(w, status, advanceResponse{Flow: flow, Causes: causes})
}

func (h *Handler) handleRetreat(w http.ResponseWriter, r *http.Request) {
	id, ok := h.flowID(w, r)
	if !ok {
		return
	}
	flow, err := h.svc.Retreat(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, flow)
}

type jumpRequest struct {
	Index int `json:"index" validate:"min=0"`
}

func (h *Handler) handleJump(w http.ResponseWriter, r *http.Request) {
	id, ok := h.flowID(w, r)
	if !ok {
		return
	}
	var req jumpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	flow, err := h.svc.JumpTo(r.Context(), id, req.Index)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, flow)
}

type panRequest struct {
	PAN         string `json:"pan" validate:"required,pan"`
	FullName    string `json:"full_name" validate:"required"`
	DateOfBirth string `json:"date_of_birth" validate:"required"`
	FatherName  string `json:"father_name" validate:"required"`
	Residency   string `json:"residency" validate:"required"`
}

func (h *Handler) handleSetPAN(w http.ResponseWriter, r *http.Request) {
	id, ok := h.flowID(w, r)
	if !ok {
		return
	}
	var req panRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	flow, err := h.svc.SetPANDetails(r.Context(), id, kyc.PANDetails{
		PAN:         req.PAN,
		FullName:    req.FullName,
		DateOfBirth: req.DateOfBirth,
		FatherName:  req.FatherName,
		Residency:   req.Residency,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, flow)
}

// handleBankProof accepts a multipart form: account_number and ifsc fields
// plus the proof file under "proof". The file is buffered fully; the size
// ceiling makes that safe.
func (h *Handler) handleBankProof(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.flowID(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(kyc.MaxProofSize + 1<<20); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid multipart form"))
		return
	}
	details := kyc.BankDetails{
		AccountNumber: r.FormValue("account_number"),
		IFSC:          r.FormValue("ifsc"),
	}
	file, header, err := r.FormFile("proof")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "proof file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, kyc.MaxProofSize+1))
	if err != nil {
		h.logger.ErrorContext(ctx, "read proof upload failed", "error", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to read upload"))
		return
	}
	flow, err := h.svc.AttachBankProof(ctx, id, details, header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, flow)
}

type addressRequest struct {
	AddressLine string `json:"address_line" validate:"required"`
	City        string `json:"city" validate:"required"`
	State       string `json:"state" validate:"required"`
	Pincode     string `json:"pincode" validate:"required,len=6,numeric"`
}

func (h *Handler) handleSetAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := h.flowID(w, r)
	if !ok {
		return
	}
	var req addressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	flow, err := h.svc.SetAddress(r.Context(), id, kyc.Address{
		AddressLine: req.AddressLine,
		City:        req.City,
		State:       req.State,
		Pincode:     req.Pincode,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, flow)
}

func (h *Handler) handleSendEmailCode(w http.ResponseWriter, r *http.Request) {
	id, ok := h.flowID(w, r)
	if !ok {
		return
	}
	if err := h.svc.StartEmailVerification(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type verifyCodeRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

func (h *Handler) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
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
	flow, err := h.svc.VerifyEmail(r.Context(), id, req.Code)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, flow)
}

func (h *Handler) handleSendPhoneCode(w http.ResponseWriter, r *http.Request) {
	id, ok := h.flowID(w, r)
	if !ok {
		return
	}
	if err := h.svc.StartPhoneVerification(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleVerifyPhone(w http.ResponseWriter, r *http.Request) {
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
	flow, err := h.svc.VerifyPhone(r.Context(), id, req.Code)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, flow)
}

type segmentRequest struct {
	Occupation        string `json:"occupation" validate:"required"`
	IncomeRange       string `json:"income_range" validate:"required"`
	TradingExperience string `json:"trading_experience" validate:"required"`
}

func (h *Handler) handleSetSegment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.flowID(w, r)
	if !ok {
		return
	}
	var req segmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	flow, err := h.svc.SetSegment(r.Context(), id, kyc.Segment{
		Occupation:        req.Occupation,
		IncomeRange:       req.IncomeRange,
		TradingExperience: req.TradingExperience,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, flow)
}

type consentsRequest struct {
	Terms   bool `json:"terms"`
	Tariff  bool `json:"tariff"`
	Aadhaar bool `json:"aadhaar"`
}

func (h *Handler) handleSetConsents(w http.ResponseWriter, r *http.Request) {
	id, ok := h.flowID(w, r)
	if !ok {
		return
	}
	var req consentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	flow, err := h.svc.SetConsents(r.Context(), id, kyc.ESignConsents{
		Terms:   req.Terms,
		Tariff:  req.Tariff,
		Aadhaar: req.Aadhaar,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, flow)
}

func (h *Handler) handleStartESign(w http.ResponseWriter, r *http.Request) {
	id, ok := h.flowID(w, r)
	if !ok {
		return
	}
	flow, err := h.svc.StartESign(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, flow)
}

func (h *Handler) flowID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid flow id"))
		return uuid.Nil, false
	}
	return id, true
}
