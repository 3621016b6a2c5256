package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"investgate/internal/audit"
	"investgate/internal/platform/metrics"
	"investgate/internal/platform/middleware"
	dErrors "investgate/pkg/domain-errors"
	"investgate/pkg/platform/sentinel"
)

// Service runs the order review machine. One session per checkout; the
// session is the only place acknowledgments and consent live, so
// abandoning it resets both.
type Service struct {
	sessions    Store
	gateway     SubmitGateway
	disclosures []Disclosure
	audit       *audit.Publisher
	metrics     *metrics.Metrics
	logger      *slog.Logger

	now func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock injects a clock for deterministic tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithDisclosures replaces the default disclosure catalogue.
func WithDisclosures(disclosures []Disclosure) ServiceOption {
	return func(s *Service) { s.disclosures = disclosures }
}

func NewService(
	sessions Store,
	gateway SubmitGateway,
	auditPub *audit.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
	opts ...ServiceOption,
) (*Service, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("submit gateway is required")
	}
	if auditPub == nil {
		return nil, fmt.Errorf("audit publisher is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		sessions:    sessions,
		gateway:     gateway,
		disclosures: DefaultDisclosures(),
		audit:       auditPub,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Disclosures returns the catalogue the review screen renders.
func (s *Service) Disclosures() []Disclosure {
	return s.disclosures
}

// StartReview opens a session for the given line. Acknowledgments start
// empty regardless of any earlier session for the same instrument.
func (s *Service) StartReview(ctx context.Context, userID uuid.UUID, symbol string, side Side, quantity int64, unitPrice decimal.Decimal, fees FeeSchedule) (*Session, error) {
	now := s.now()
	line := OrderLine{
		Quantity:  SanitizeQuantity(quantity),
		UnitPrice: SanitizeUnitPrice(unitPrice),
	}
	sess := &Session{
		ID:              uuid.New(),
		UserID:          userID,
		Symbol:          symbol,
		Side:            side,
		Line:            line,
		Fees:            fees,
		Totals:          Compute(line, fees),
		Acknowledgments: make(map[string]bool),
		State:           StateReviewing,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// Get loads a session by id. A session owned by someone other than the
// authenticated user is indistinguishable from a missing one, so a leaked
// session id reveals nothing.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	sess, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "review session not found")
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	if middleware.GetUserID(ctx) != sess.UserID.String() {
		return nil, dErrors.New(dErrors.CodeNotFound, "review session not found")
	}
	return sess, nil
}

// UpdateLine replaces the order line and recomputes every derived figure
// in the same step. Totals are never patched independently.
func (s *Service) UpdateLine(ctx context.Context, id uuid.UUID, quantity int64, unitPrice decimal.Decimal) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		sess.Line = OrderLine{
			Quantity:  SanitizeQuantity(quantity),
			UnitPrice: SanitizeUnitPrice(unitPrice),
		}
		sess.Totals = Compute(sess.Line, sess.Fees)
		return nil
	})
}

// Acknowledge toggles one disclosure. Unknown IDs are rejected so a stale
// client cannot satisfy the gate with acknowledgments nobody rendered.
func (s *Service) Acknowledge(ctx context.Context, id uuid.UUID, disclosureID string, acknowledged bool) (*Session, error) {
	if !s.knownDisclosure(disclosureID) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown disclosure")
	}
	return s.mutate(ctx, id, func(sess *Session) error {
		if sess.Acknowledgments == nil {
			sess.Acknowledgments = make(map[string]bool)
		}
		sess.Acknowledgments[disclosureID] = acknowledged
		return nil
	})
}

// SetFinalConsent records the order-level consent checkbox.
func (s *Service) SetFinalConsent(ctx context.Context, id uuid.UUID, consent bool) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		sess.FinalConsent = consent
		return nil
	})
}

// Readiness reports the two gate predicates for a session.
func (s *Service) Readiness(ctx context.Context, id uuid.UUID) (disclosuresReady, finalReady bool, err error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return false, false, err
	}
	disclosuresReady = DisclosureReadiness(sess.Acknowledgments, s.disclosures)
	finalReady = FinalReadiness(sess.Acknowledgments, s.disclosures, sess.FinalConsent)
	return disclosuresReady, finalReady, nil
}

// Confirm submits the order. The authorization timestamp is captured at
// this instant, while the readiness predicate holds, and survives into
// the confirmed session. A rejected or failed submission leaves the
// session in reviewing with the line and acknowledgments intact so the
// user can retry.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.State != StateReviewing {
		return nil, dErrors.New(dErrors.CodeConflict, "order already confirmed")
	}
	if !FinalReadiness(sess.Acknowledgments, s.disclosures, sess.FinalConsent) {
		return nil, dErrors.New(dErrors.CodeConflict, "acknowledge all mandatory disclosures and consent first")
	}

	authorizedAt := s.now()
	sess.AuthorizedAt = &authorizedAt

	result, err := s.gateway.Submit(ctx, sess.Line, sess.Totals)
	if err != nil || !result.Accepted {
		// Transport failure and explicit rejection look the same to the
		// user: the order did not go through and the control re-enables.
		reason := "submission failed"
		if err != nil {
			s.logger.ErrorContext(ctx, "order submission failed", "session_id", sess.ID, "error", err)
		} else if result.Reason != "" {
			reason = result.Reason
		}
		sess.AuthorizedAt = nil
		sess.UpdatedAt = s.now()
		if saveErr := s.sessions.Save(ctx, sess); saveErr != nil {
			return nil, fmt.Errorf("save session: %w", saveErr)
		}
		s.metrics.OrderRejected()
		s.emit(ctx, sess, audit.ActionOrderRejected, reason)
		return nil, dErrors.New(dErrors.CodeRejected, "order was not accepted, please try again")
	}

	sess.State = StateConfirmed
	sess.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.metrics.OrderConfirmed()
	s.emit(ctx, sess, audit.ActionOrderAuthorized, result.Reference)
	return sess, nil
}

// BackToEdit returns the user to order entry. The line is untouched; the
// order-entry screen reopens with the values the user left.
func (s *Service) BackToEdit(ctx context.Context, id uuid.UUID) (*Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.State != StateReviewing {
		return nil, dErrors.New(dErrors.CodeConflict, "order already confirmed")
	}
	return sess, nil
}

// Abandon discards the session. Acknowledgments and consent die with it.
func (s *Service) Abandon(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.sessions.Delete(ctx, id)
}

func (s *Service) mutate(ctx context.Context, id uuid.UUID, apply func(*Session) error) (*Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.State != StateReviewing {
		return nil, dErrors.New(dErrors.CodeConflict, "order already confirmed")
	}
	if err := apply(sess); err != nil {
		return nil, err
	}
	sess.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

func (s *Service) knownDisclosure(id string) bool {
	for _, d := range s.disclosures {
		if d.ID == id {
			return true
		}
	}
	return false
}

func (s *Service) emit(ctx context.Context, sess *Session, action, reason string) {
	err := s.audit.Emit(ctx, audit.Event{
		Timestamp: s.now(),
		UserID:    sess.UserID.String(),
		FlowID:    sess.ID.String(),
		Action:    action,
		Subject:   sess.Symbol,
		Reason:    reason,
		Device:    middleware.GetDeviceName(ctx),
		RequestID: middleware.GetRequestID(ctx),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "action", action, "error", err)
	}
}
