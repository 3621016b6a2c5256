package register

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"investgate/internal/audit"
	"investgate/internal/otp"
	"investgate/internal/platform/metrics"
	"investgate/internal/platform/middleware"
	"investgate/internal/sequence"
	"investgate/internal/token"
	dErrors "investgate/pkg/domain-errors"
	"investgate/pkg/platform/sentinel"
)

// Service drives the three-stage registration flow. Completion mints the
// user ID that the KYC flow and trading surface operate on.
type Service struct {
	flows   Store
	otp     *otp.Service
	audit   *audit.Publisher
	tokens  *token.Service
	metrics *metrics.Metrics
	logger  *slog.Logger

	resumeTTL time.Duration
	now       func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock injects a clock for deterministic tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func NewService(
	flows Store,
	otpSvc *otp.Service,
	auditPub *audit.Publisher,
	tokens *token.Service,
	m *metrics.Metrics,
	logger *slog.Logger,
	resumeTTL time.Duration,
	opts ...ServiceOption,
) (*Service, error) {
	if flows == nil {
		return nil, fmt.Errorf("registration store is required")
	}
	if otpSvc == nil {
		return nil, fmt.Errorf("otp service is required")
	}
	if auditPub == nil {
		return nil, fmt.Errorf("audit publisher is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token service is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		flows:     flows,
		otp:       otpSvc,
		audit:     auditPub,
		tokens:    tokens,
		metrics:   m,
		logger:    logger,
		resumeTTL: resumeTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start opens a flow for the given email and returns the resume token that
// lets an interrupted signup pick up where it left off.
func (s *Service) Start(ctx context.Context, email string) (*Registration, string, error) {
	now := s.now()
	reg := &Registration{
		ID:        uuid.New(),
		Form:      Form{Email: email},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.flows.Save(ctx, reg); err != nil {
		return nil, "", fmt.Errorf("save registration: %w", err)
	}
	resumeToken, err := s.tokens.GenerateResumeToken(uuid.Nil, reg.ID, FlowType, s.resumeTTL)
	if err != nil {
		return nil, "", fmt.Errorf("generate resume token: %w", err)
	}
	return reg, resumeToken, nil
}

// Resume loads the flow named by a resume token.
func (s *Service) Resume(ctx context.Context, resumeToken string) (*Registration, error) {
	claims, err := s.tokens.Parse(resumeToken)
	if err != nil {
		return nil, err
	}
	if claims.FlowType != FlowType {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token is not a registration resume token")
	}
	id, err := uuid.Parse(claims.FlowID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "malformed flow id in token")
	}
	return s.Get(ctx, id)
}

// Get loads a flow by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Registration, error) {
	reg, err := s.flows.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "registration not found")
		}
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return reg, nil
}

// SendCode issues the verification code for the entered email.
func (s *Service) SendCode(ctx context.Context, id uuid.UUID) error {
	reg, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !ValidateEmail(reg.Form).OK() {
		return dErrors.New(dErrors.CodeInvalidInput, "enter a valid email address first")
	}
	return s.otp.Issue(ctx, identifier(reg.Form.Email), otp.ChannelEmail)
}

// ResendCode reissues the code, subject to the OTP service's cooldown.
func (s *Service) ResendCode(ctx context.Context, id uuid.UUID) error {
	reg, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.otp.Resend(ctx, identifier(reg.Form.Email))
}

// VerifyCode submits the assembled code. Rejection leaves the flow exactly
// where it was.
func (s *Service) VerifyCode(ctx context.Context, id uuid.UUID, code string) (*Registration, error) {
	reg, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.otp.Verify(ctx, identifier(reg.Form.Email), code); err != nil {
		return nil, err
	}
	reg.Form.EmailVerified = true
	reg.UpdatedAt = s.now()
	if err := s.flows.Save(ctx, reg); err != nil {
		return nil, fmt.Errorf("save registration: %w", err)
	}
	s.emit(ctx, reg, audit.ActionOTPVerified, "email", "")
	return reg, nil
}

// SetProfile records the final-stage inputs.
func (s *Service) SetProfile(ctx context.Context, id uuid.UUID, profile Profile) (*Registration, error) {
	reg, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if reg.CompletedAt != nil {
		return nil, dErrors.New(dErrors.CodeConflict, "registration already completed")
	}
	reg.Form.FirstName = profile.FirstName
	reg.Form.LastName = profile.LastName
	reg.Form.Phone = profile.Phone
	reg.Form.Source = profile.Source
	reg.UpdatedAt = s.now()
	if err := s.flows.Save(ctx, reg); err != nil {
		return nil, fmt.Errorf("save registration: %w", err)
	}
	return reg, nil
}

// Advance moves the flow forward when the current stage's validator
// passes; a blocked stage returns its causes with no state change.
// Completing the final stage mints the user ID.
func (s *Service) Advance(ctx context.Context, id uuid.UUID) (*Registration, []sequence.FieldCause, error) {
	reg, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	seq, err := sequence.New(Stages(), sequence.StartAt[Form](reg.StageIndex))
	if err != nil {
		return nil, nil, err
	}
	stage := seq.Stage()
	if !seq.Advance(reg.Form) {
		return reg, seq.Causes(reg.Form), nil
	}

	reg.StageIndex = seq.Current()
	reg.UpdatedAt = s.now()
	if seq.Complete() && reg.CompletedAt == nil {
		completed := s.now()
		reg.CompletedAt = &completed
		userID := uuid.New()
		reg.UserID = &userID
	}
	if err := s.flows.Save(ctx, reg); err != nil {
		return nil, nil, fmt.Errorf("save registration: %w", err)
	}

	s.metrics.StageAdvanced(FlowType)
	s.emit(ctx, reg, audit.ActionStageCompleted, stage.Label, "")
	if reg.CompletedAt != nil {
		s.emit(ctx, reg, audit.ActionFlowCompleted, FlowType, "")
	}
	return reg, nil, nil
}

// Retreat steps back for correction; always permitted.
func (s *Service) Retreat(ctx context.Context, id uuid.UUID) (*Registration, error) {
	reg, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	seq, err := sequence.New(Stages(), sequence.StartAt[Form](reg.StageIndex))
	if err != nil {
		return nil, err
	}
	seq.Retreat()
	reg.StageIndex = seq.Current()
	reg.UpdatedAt = s.now()
	if err := s.flows.Save(ctx, reg); err != nil {
		return nil, fmt.Errorf("save registration: %w", err)
	}
	return reg, nil
}

func (s *Service) emit(ctx context.Context, reg *Registration, action, subject, reason string) {
	userID := ""
	if reg.UserID != nil {
		userID = reg.UserID.String()
	}
	err := s.audit.Emit(ctx, audit.Event{
		Timestamp: s.now(),
		UserID:    userID,
		FlowID:    reg.ID.String(),
		Action:    action,
		Subject:   subject,
		Reason:    reason,
		Device:    middleware.GetDeviceName(ctx),
		RequestID: middleware.GetRequestID(ctx),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "action", action, "error", err)
	}
}

func identifier(email string) string { return "register:" + email }
