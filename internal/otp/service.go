package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"investgate/internal/platform/metrics"
	dErrors "investgate/pkg/domain-errors"
	"investgate/pkg/platform/sentinel"
)

const maxAttempts = 5

// Sender delivers a plaintext code out-of-band. The gateway does not own
// delivery; implementations wrap an email or SMS provider.
type Sender interface {
	Send(ctx context.Context, identifier string, channel Channel, code string) error
}

// Service owns the OTP lifecycle: issue, verify, resend. Codes are hashed
// at rest and consumed on first successful verification.
type Service struct {
	store   Store
	sender  Sender
	logger  *slog.Logger
	metrics *metrics.Metrics

	ttl      time.Duration
	cooldown time.Duration
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock injects a clock for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithResendCooldown sets the minimum interval between resends for one
// identifier. Zero disables the cooldown, matching the observed product
// behavior; operators can turn it on without a code change.
func WithResendCooldown(d time.Duration) Option {
	return func(s *Service) { s.cooldown = d }
}

func NewService(store Store, sender Sender, logger *slog.Logger, m *metrics.Metrics, ttl time.Duration, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("otp store is required")
	}
	if sender == nil {
		return nil, fmt.Errorf("otp sender is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("otp ttl must be positive")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:   store,
		sender:  sender,
		logger:  logger,
		metrics: m,
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue creates a fresh challenge for the identifier, replacing any
// outstanding one, and hands the plaintext code to the sender.
func (s *Service) Issue(ctx context.Context, identifier string, channel Channel) error {
	if identifier == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "identifier cannot be empty")
	}
	code, err := generateCode(CodeLength)
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}
	now := s.now()
	challenge := Challenge{
		Identifier: identifier,
		Channel:    channel,
		CodeHash:   string(hash),
		CreatedAt:  now,
		LastSentAt: now,
		ExpiresAt:  now.Add(s.ttl),
	}
	if err := s.store.Save(ctx, challenge); err != nil {
		return fmt.Errorf("save challenge: %w", err)
	}
	if err := s.sender.Send(ctx, identifier, channel, code); err != nil {
		return fmt.Errorf("send code: %w", err)
	}
	s.logger.InfoContext(ctx, "otp issued", "channel", string(channel))
	return nil
}

// Verify checks the submitted code against the stored hash. Any failure
// leaves the caller free to retry; a success consumes the challenge so the
// code is single use.
func (s *Service) Verify(ctx context.Context, identifier, code string) error {
	if len(code) != CodeLength {
		s.metrics.OTPVerified("rejected")
		return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("code must be %d digits", CodeLength))
	}
	challenge, err := s.store.Find(ctx, identifier)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.OTPVerified("rejected")
			return dErrors.New(dErrors.CodeRejected, "no active code for this identifier")
		}
		return fmt.Errorf("find challenge: %w", err)
	}
	if challenge.Expired(s.now()) {
		_ = s.store.Delete(ctx, identifier)
		s.metrics.OTPVerified("expired")
		return dErrors.New(dErrors.CodeRejected, "code has expired")
	}
	if bcrypt.CompareHashAndPassword([]byte(challenge.CodeHash), []byte(code)) != nil {
		challenge.Attempts++
		if challenge.Attempts >= maxAttempts {
			_ = s.store.Delete(ctx, identifier)
		} else {
			_ = s.store.Save(ctx, challenge)
		}
		s.metrics.OTPVerified("rejected")
		return dErrors.New(dErrors.CodeRejected, "incorrect code")
	}
	if err := s.store.Delete(ctx, identifier); err != nil {
		return fmt.Errorf("consume challenge: %w", err)
	}
	s.metrics.OTPVerified("verified")
	return nil
}

// Resend reissues a code for an identifier that already has an outstanding
// challenge, subject to the configured cooldown.
func (s *Service) Resend(ctx context.Context, identifier string) error {
	challenge, err := s.store.Find(ctx, identifier)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "no active code for this identifier")
		}
		return fmt.Errorf("find challenge: %w", err)
	}
	if s.cooldown > 0 && s.now().Sub(challenge.LastSentAt) < s.cooldown {
		return dErrors.New(dErrors.CodeConflict, "resend requested too soon")
	}
	return s.Issue(ctx, identifier, challenge.Channel)
}

func generateCode(length int) (string, error) {
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
