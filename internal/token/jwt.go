// Package token issues and validates the signed tokens that carry flow
// identity: resume tokens for onboarding flows and access tokens for the
// trading surface. Making the resume token explicit keeps a resumed
// sequencer a pure function of its inputs.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"investgate/internal/platform/middleware"
	dErrors "investgate/pkg/domain-errors"
)

// Claims are the JWT claims for gateway tokens.
type Claims struct {
	UserID   string `json:"user_id,omitempty"`
	FlowID   string `json:"flow_id,omitempty"`
	FlowType string `json:"flow_type,omitempty"`
	jwt.RegisteredClaims
}

// Service handles JWT creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
	audience   string
}

func NewService(signingKey, issuer, audience string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// GenerateResumeToken signs a token binding a flow to its owner so progress
// can be resumed without ambient storage.
func (s *Service) GenerateResumeToken(userID, flowID uuid.UUID, flowType string, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID:   userID.String(),
		FlowID:   flowID.String(),
		FlowType: flowType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
}

// Parse validates a token and returns its claims.
func (s *Service) Parse(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// ValidateToken adapts Parse to the middleware.JWTValidator interface.
func (s *Service) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := s.Parse(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{UserID: claims.UserID, FlowID: claims.FlowID}, nil
}
