package kyc

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
	"investgate/internal/storage"
	"investgate/internal/token"
	dErrors "investgate/pkg/domain-errors"
	"investgate/pkg/platform/sentinel"
)

// Service drives the seven-stage KYC flow: it owns form mutation, builds
// the sequencer around persisted progress, and emits audit events on every
// stage transition. Validation rules stay in validators.go so they remain
// pure and testable.
type Service struct {
	flows   Store
	docs    storage.BlobStore
	otp     *otp.Service
	esign   Provider
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
	docs storage.BlobStore,
	otpSvc *otp.Service,
	esign Provider,
	auditPub *audit.Publisher,
	tokens *token.Service,
	m *metrics.Metrics,
	logger *slog.Logger,
	resumeTTL time.Duration,
	opts ...ServiceOption,
) (*Service, error) {
	if flows == nil {
		return nil, fmt.Errorf("flow store is required")
	}
	if docs == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if otpSvc == nil {
		return nil, fmt.Errorf("otp service is required")
	}
	if esign == nil {
		return nil, fmt.Errorf("esign provider is required")
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
		docs:      docs,
		otp:       otpSvc,
		esign:     esign,
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

// Start creates a fresh flow for the user and returns the resume token that
// makes later reconstruction a pure function of its inputs.
func (s *Service) Start(ctx context.Context, userID uuid.UUID, email, phone string) (*Flow, string, error) {
	now := s.now()
	flow := &Flow{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
		Form:      Form{Email: email, Phone: phone},
	}
	if err := s.flows.Save(ctx, flow); err != nil {
		return nil, "", fmt.Errorf("save flow: %w", err)
	}
	resumeToken, err := s.tokens.GenerateResumeToken(userID, flow.ID, FlowType, s.resumeTTL)
	if err != nil {
		return nil, "", fmt.Errorf("generate resume token: %w", err)
	}
	return flow, resumeToken, nil
}

// Resume loads the flow named by a resume token.
func (s *Service) Resume(ctx context.Context, resumeToken string) (*Flow, error) {
	claims, err := s.tokens.Parse(resumeToken)
	if err != nil {
		return nil, err
	}
	if claims.FlowType != FlowType {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token is not a KYC resume token")
	}
	flowID, err := uuid.Parse(claims.FlowID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "malformed flow id in token")
	}
	return s.Get(ctx, flowID)
}

// Get loads a flow by id. A flow owned by someone other than the
// authenticated user is indistinguishable from a missing one, so a leaked
// flow id reveals none of its PII.
func (s *Service) Get(ctx context.Context, flowID uuid.UUID) (*Flow, error) {
	flow, err := s.flows.FindByID(ctx, flowID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "kyc flow not found")
		}
		return nil, fmt.Errorf("find flow: %w", err)
	}
	if middleware.GetUserID(ctx) != flow.UserID.String() {
		return nil, dErrors.New(dErrors.CodeNotFound, "kyc flow not found")
	}
	return flow, nil
}

// Causes reports why the current stage is blocking the flow, empty when the
// flow may advance.
func (s *Service) Causes(ctx context.Context, flowID uuid.UUID) ([]sequence.FieldCause, error) {
	flow, err := s.Get(ctx, flowID)
	if err != nil {
		return nil, err
	}
	seq, err := s.sequencer(flow)
	if err != nil {
		return nil, err
	}
	return seq.Causes(flow.Form), nil
}

// Advance runs the current stage's validator and moves the cursor forward
// when it passes. A blocked stage returns its causes with no error and no
// state change.
func (s *Service) Advance(ctx context.Context, flowID uuid.UUID) (*Flow, []sequence.FieldCause, error) {
	flow, err := s.Get(ctx, flowID)
	if err != nil {
		return nil, nil, err
	}
	seq, err := s.sequencer(flow)
	if err != nil {
		return nil, nil, err
	}
	stage := seq.Stage()
	if !seq.Advance(flow.Form) {
		return flow, seq.Causes(flow.Form), nil
	}

	flow.StageIndex = seq.Current()
	flow.UpdatedAt = s.now()
	if seq.Complete() && flow.CompletedAt == nil {
		completed := s.now()
		flow.CompletedAt = &completed
	}
	if err := s.flows.Save(ctx, flow); err != nil {
		return nil, nil, fmt.Errorf("save flow: %w", err)
	}

	s.metrics.StageAdvanced(FlowType)
	s.emit(ctx, flow, audit.ActionStageCompleted, stage.Label, "")
	if flow.CompletedAt != nil {
		s.emit(ctx, flow, audit.ActionFlowCompleted, FlowType, "")
	}
	return flow, nil, nil
}

// Retreat steps the cursor back for correction; always permitted.
func (s *Service) Retreat(ctx context.Context, flowID uuid.UUID) (*Flow, error) {
	flow, err := s.Get(ctx, flowID)
	if err != nil {
		return nil, err
	}
	seq, err := s.sequencer(flow)
	if err != nil {
		return nil, err
	}
	seq.Retreat()
	flow.StageIndex = seq.Current()
	flow.UpdatedAt = s.now()
	if err := s.flows.Save(ctx, flow); err != nil {
		return nil, fmt.Errorf("save flow: %w", err)
	}
	return flow, nil
}

// JumpTo moves to a previously completed stage via the step rail. Jumping
// ahead is rejected.
func (s *Service) JumpTo(ctx context.Context, flowID uuid.UUID, index int) (*Flow, error) {
	flow, err := s.Get(ctx, flowID)
	if err != nil {
		return nil, err
	}
	seq, err := s.sequencer(flow)
	if err != nil {
		return nil, err
	}
	if err := seq.JumpTo(index); err != nil {
		return nil, dErrors.New(dErrors.CodeConflict, "cannot skip ahead of the current stage")
	}
	flow.StageIndex = seq.Current()
	flow.UpdatedAt = s.now()
	if err := s.flows.Save(ctx, flow); err != nil {
		return nil, fmt.Errorf("save flow: %w", err)
	}
	return flow, nil
}

// SetPANDetails records the identity stage inputs. Format problems surface
// as stage causes, not errors, so partial entry is always saveable.
func (s *Service) SetPANDetails(ctx context.Context, flowID uuid.UUID, details PANDetails) (*Flow, error) {
	return s.mutate(ctx, flowID, func(form *Form) error {
		form.PAN = details.PAN
		form.FullName = details.FullName
		form.DateOfBirth = details.DateOfBirth
		form.FatherName = details.FatherName
		form.Residency = details.Residency
		return nil
	})
}

// AttachBankProof validates and stores the proof document, then records the
// bank details. A failed document check rejects the upload outright; the
// stage stays blocked until a valid file arrives.
func (s *Service) AttachBankProof(ctx context.Context, flowID uuid.UUID, details BankDetails, fileName, contentType string, data []byte) (*Flow, error) {
	if causes := CheckProofDocument(fileName, int64(len(data)), contentType); len(causes) > 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, causes[0].Message)
	}
	key := fmt.Sprintf("kyc/%s/bank-proof", flowID)
	if err := s.docs.Put(ctx, storage.Blob{Key: key, ContentType: contentType, Data: data}); err != nil {
		return nil, fmt.Errorf("store proof document: %w", err)
	}
	return s.mutate(ctx, flowID, func(form *Form) error {
		form.AccountNumber = details.AccountNumber
		form.IFSC = details.IFSC
		form.BankProof = &ProofDocument{
			FileName:    fileName,
			Size:        int64(len(data)),
			ContentType: contentType,
			StorageKey:  key,
		}
		return nil
	})
}

// SetAddress records the correspondence address.
func (s *Service) SetAddress(ctx context.Context, flowID uuid.UUID, addr Address) (*Flow, error) {
	return s.mutate(ctx, flowID, func(form *Form) error {
		form.AddressLine = addr.AddressLine
		form.City = addr.City
		form.State = addr.State
		form.Pincode = addr.Pincode
		return nil
	})
}

// StartEmailVerification issues an OTP to the flow's email address.
func (s *Service) StartEmailVerification(ctx context.Context, flowID uuid.UUID) error {
	flow, err := s.Get(ctx, flowID)
	if err != nil {
		return err
	}
	return s.otp.Issue(ctx, emailIdentifier(flow.Form.Email), otp.ChannelEmail)
}

// VerifyEmail submits the assembled code. Rejection leaves the flag and the
// cursor untouched; retry is user-initiated.
func (s *Service) VerifyEmail(ctx context.Context, flowID uuid.UUID, code string) (*Flow, error) {
	flow, err := s.Get(ctx, flowID)
	if err != nil {
		return nil, err
	}
	if err := s.otp.Verify(ctx, emailIdentifier(flow.Form.Email), code); err != nil {
		return nil, err
	}
	flow, err = s.mutate(ctx, flowID, func(form *Form) error {
		form.EmailVerified = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, flow, audit.ActionOTPVerified, "email", "")
	return flow, nil
}

// StartPhoneVerification issues an OTP to the flow's phone number.
func (s *Service) StartPhoneVerification(ctx context.Context, flowID uuid.UUID) error {
	flow, err := s.Get(ctx, flowID)
	if err != nil {
		return err
	}
	return s.otp.Issue(ctx, phoneIdentifier(flow.Form.Phone), otp.ChannelPhone)
}

// VerifyPhone submits the assembled code for the phone channel.
func (s *Service) VerifyPhone(ctx context.Context, flowID uuid.UUID, code string) (*Flow, error) {
	flow, err := s.Get(ctx, flowID)
	if err != nil {
		return nil, err
	}
	if err := s.otp.Verify(ctx, phoneIdentifier(flow.Form.Phone), code); err != nil {
		return nil, err
	}
	flow, err = s.mutate(ctx, flowID, func(form *Form) error {
		form.PhoneVerified = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, flow, audit.ActionOTPVerified, "phone", "")
	return flow, nil
}

// SetSegment records the trading profile.
func (s *Service) SetSegment(ctx context.Context, flowID uuid.UUID, seg Segment) (*Flow, error) {
	return s.mutate(ctx, flowID, func(form *Form) error {
		form.Occupation = seg.Occupation
		form.IncomeRange = seg.IncomeRange
		form.TradingExperience = seg.TradingExperience
		return nil
	})
}

// SetConsents records the three signature consents. Checking them never
// marks the stage satisfied on its own; the provider signal is separate.
func (s *Service) SetConsents(ctx context.Context, flowID uuid.UUID, consents ESignConsents) (*Flow, error) {
	return s.mutate(ctx, flowID, func(form *Form) error {
		form.Consents = consents
		return nil
	})
}

// StartESign invokes the provider and records its outcome. Failure leaves
// the stage unsatisfied with no automatic retry.
func (s *Service) StartESign(ctx context.Context, flowID uuid.UUID) (*Flow, error) {
	flow, err := s.Get(ctx, flowID)
	if err != nil {
		return nil, err
	}
	if !flow.Form.Consents.All() {
		return nil, dErrors.New(dErrors.CodeConflict, "all consents must be accepted before signing")
	}
	result, err := s.esign.Sign(ctx, flow.ID, flow.Form.FullName)
	if err != nil {
		return nil, fmt.Errorf("esign provider: %w", err)
	}
	if !result.Succeeded {
		s.emit(ctx, flow, audit.ActionESignFailed, "esign", result.Reason)
		return nil, dErrors.New(dErrors.CodeRejected, "eSign was not completed")
	}
	flow, err = s.mutate(ctx, flowID, func(form *Form) error {
		form.ESignDone = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, flow, audit.ActionESignCompleted, result.Reference, "")
	return flow, nil
}

// sequencer rebuilds the stage machine around the persisted cursor.
func (s *Service) sequencer(flow *Flow) (*sequence.Sequence[Form], error) {
	return sequence.New(Stages(), sequence.StartAt[Form](flow.StageIndex))
}

// mutate applies a form edit and persists the flow. Completed flows are
// frozen.
func (s *Service) mutate(ctx context.Context, flowID uuid.UUID, edit func(form *Form) error) (*Flow, error) {
	flow, err := s.Get(ctx, flowID)
	if err != nil {
		return nil, err
	}
	if flow.CompletedAt != nil {
		return nil, dErrors.New(dErrors.CodeConflict, "kyc flow already completed")
	}
	if err := edit(&flow.Form); err != nil {
		return nil, err
	}
	flow.UpdatedAt = s.now()
	if err := s.flows.Save(ctx, flow); err != nil {
		return nil, fmt.Errorf("save flow: %w", err)
	}
	return flow, nil
}

func (s *Service) emit(ctx context.Context, flow *Flow, action, subject, reason string) {
	err := s.audit.Emit(ctx, audit.Event{
		Timestamp: s.now(),
		UserID:    flow.UserID.String(),
		FlowID:    flow.ID.String(),
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

func emailIdentifier(email string) string { return "email:" + email }
func phoneIdentifier(phone string) string { return "phone:" + phone }
