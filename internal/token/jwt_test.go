package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "investgate/pkg/domain-errors"
)

func TestResumeToken_RoundTrip(t *testing.T) {
	svc := NewService("test-key", "investgate-test", "test-clients")

	userID := uuid.New()
	flowID := uuid.New()
	tokenString, err := svc.GenerateResumeToken(userID, flowID, "kyc", time.Hour)
	require.NoError(t, err)

	claims, err := svc.Parse(tokenString)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, flowID.String(), claims.FlowID)
	assert.Equal(t, "kyc", claims.FlowType)
}

func TestParse_RejectsExpiredToken(t *testing.T) {
	svc := NewService("test-key", "investgate-test", "test-clients")

	tokenString, err := svc.GenerateResumeToken(uuid.New(), uuid.New(), "kyc", -time.Minute)
	require.NoError(t, err)

	_, err = svc.Parse(tokenString)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func TestParse_RejectsForeignSignature(t *testing.T) {
	signer := NewService("key-one", "investgate-test", "test-clients")
	verifier := NewService("key-two", "investgate-test", "test-clients")

	tokenString, err := signer.GenerateResumeToken(uuid.New(), uuid.New(), "kyc", time.Hour)
	require.NoError(t, err)

	_, err = verifier.Parse(tokenString)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func TestParse_RejectsForeignAudience(t *testing.T) {
	signer := NewService("shared-key", "investgate-test", "partner-api")
	verifier := NewService("shared-key", "investgate-test", "test-clients")

	tokenString, err := signer.GenerateResumeToken(uuid.New(), uuid.New(), "kyc", time.Hour)
	require.NoError(t, err)

	// Same key, wrong audience: the token was minted for another consumer.
	_, err = verifier.Parse(tokenString)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func TestParse_RejectsForeignIssuer(t *testing.T) {
	signer := NewService("shared-key", "someone-else", "test-clients")
	verifier := NewService("shared-key", "investgate-test", "test-clients")

	tokenString, err := signer.GenerateResumeToken(uuid.New(), uuid.New(), "kyc", time.Hour)
	require.NoError(t, err)

	_, err = verifier.Parse(tokenString)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func TestParse_RejectsGarbage(t *testing.T) {
	svc := NewService("test-key", "investgate-test", "test-clients")
	_, err := svc.Parse("definitely.not.jwt")
	require.Error(t, err)
}

func TestValidateToken_AdaptsToMiddlewareClaims(t *testing.T) {
	svc := NewService("test-key", "investgate-test", "test-clients")

	userID := uuid.New()
	flowID := uuid.New()
	tokenString, err := svc.GenerateResumeToken(userID, flowID, "registration", time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, flowID.String(), claims.FlowID)
}
