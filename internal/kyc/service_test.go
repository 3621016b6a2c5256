package kyc

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"investgate/internal/audit"
	"investgate/internal/otp"
	"investgate/internal/platform/middleware"
	"investgate/internal/storage"
	"investgate/internal/token"
	dErrors "investgate/pkg/domain-errors"
)

type captureSender struct {
	lastCode string
}

func (s *captureSender) Send(_ context.Context, _ string, _ otp.Channel, code string) error {
	s.lastCode = code
	return nil
}

type ServiceSuite struct {
	suite.Suite

	svc        *Service
	sender     *captureSender
	esign      *SimulatedProvider
	auditStore *audit.InMemoryStore
	docs       *storage.InMemoryBlobStore
	userID     uuid.UUID
	ctx        context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.sender = &captureSender{}
	s.esign = &SimulatedProvider{Succeed: true}
	s.auditStore = audit.NewInMemoryStore()
	s.docs = storage.NewInMemoryBlobStore()
	s.userID = uuid.New()
	s.ctx = middleware.WithUserID(context.Background(), s.userID.String())

	otpSvc, err := otp.NewService(otp.NewInMemoryStore(), s.sender, nil, nil, 5*time.Minute)
	s.Require().NoError(err)

	tokens := token.NewService("test-signing-key", "investgate-test", "test-clients")
	svc, err := NewService(
		NewInMemoryStore(),
		s.docs,
		otpSvc,
		s.esign,
		audit.NewPublisher(s.auditStore, nil),
		tokens,
		nil,
		nil,
		time.Hour,
	)
	s.Require().NoError(err)
	s.svc = svc
}

func (s *ServiceSuite) startFlow() *Flow {
	flow, _, err := s.svc.Start(s.ctx, s.userID, "asha@example.org", "9876543210")
	s.Require().NoError(err)
	return flow
}

func (s *ServiceSuite) attachValidProof(flowID uuid.UUID) {
	_, err := s.svc.AttachBankProof(s.ctx, flowID,
		BankDetails{AccountNumber: "123456789012", IFSC: "HDFC0001234"},
		"statement.pdf", "application/pdf", []byte("%PDF-1.4"))
	s.Require().NoError(err)
}

func (s *ServiceSuite) verifyEmail(flowID uuid.UUID) {
	ctx := s.ctx
	s.Require().NoError(s.svc.StartEmailVerification(ctx, flowID))
	_, err := s.svc.VerifyEmail(ctx, flowID, s.sender.lastCode)
	s.Require().NoError(err)
}

func (s *ServiceSuite) verifyPhone(flowID uuid.UUID) {
	ctx := s.ctx
	s.Require().NoError(s.svc.StartPhoneVerification(ctx, flowID))
	_, err := s.svc.VerifyPhone(ctx, flowID, s.sender.lastCode)
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestAdvance_BlockedUntilStageValid() {
	ctx := s.ctx
	flow := s.startFlow()

	s.Run("fresh flow is blocked on identity details", func() {
		flow, causes, err := s.svc.Advance(ctx, flow.ID)
		s.Require().NoError(err)
		s.NotEmpty(causes)
		s.Equal(0, flow.StageIndex)
	})

	s.Run("valid details unblock exactly one stage", func() {
		_, err := s.svc.SetPANDetails(ctx, flow.ID, PANDetails{
			PAN:         "ABCDE1234F",
			FullName:    "Asha Verma",
			DateOfBirth: "1990-04-12",
			FatherName:  "Ramesh Verma",
			Residency:   "resident",
		})
		s.Require().NoError(err)

		advanced, causes, err := s.svc.Advance(ctx, flow.ID)
		s.Require().NoError(err)
		s.Empty(causes)
		s.Equal(StageBankProof, advanced.StageIndex)
	})
}

func (s *ServiceSuite) TestAttachBankProof() {
	ctx := s.ctx
	flow := s.startFlow()

	s.Run("invalid document is rejected outright", func() {
		_, err := s.svc.AttachBankProof(ctx, flow.ID,
			BankDetails{AccountNumber: "123456789012", IFSC: "HDFC0001234"},
			"malware.exe", "application/octet-stream", []byte("MZ"))
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	})

	s.Run("valid document is stored and recorded on the form", func() {
		s.attachValidProof(flow.ID)

		updated, err := s.svc.Get(ctx, flow.ID)
		s.Require().NoError(err)
		s.Require().NotNil(updated.Form.BankProof)
		s.Equal("statement.pdf", updated.Form.BankProof.FileName)

		blob, err := s.docs.Get(ctx, updated.Form.BankProof.StorageKey)
		s.Require().NoError(err)
		s.Equal([]byte("%PDF-1.4"), blob.Data)
	})
}

func (s *ServiceSuite) TestEmailVerification_OTPRoundTrip() {
	ctx := s.ctx
	flow := s.startFlow()

	s.Require().NoError(s.svc.StartEmailVerification(ctx, flow.ID))
	s.Require().Len(s.sender.lastCode, otp.CodeLength)

	s.Run("wrong code leaves the flag unset", func() {
		wrong := "000000"
		if wrong == s.sender.lastCode {
			wrong = "000001"
		}
		_, err := s.svc.VerifyEmail(ctx, flow.ID, wrong)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeRejected))

		current, err := s.svc.Get(ctx, flow.ID)
		s.Require().NoError(err)
		s.False(current.Form.EmailVerified)
	})

	s.Run("correct code flips the flag", func() {
		updated, err := s.svc.VerifyEmail(ctx, flow.ID, s.sender.lastCode)
		s.Require().NoError(err)
		s.True(updated.Form.EmailVerified)
	})

	s.Run("the code is single use", func() {
		_, err := s.svc.VerifyEmail(ctx, flow.ID, s.sender.lastCode)
		s.Require().Error(err)
	})
}

func (s *ServiceSuite) TestESign() {
	ctx := s.ctx
	flow := s.startFlow()

	s.Run("provider is not invoked without all consents", func() {
		_, err := s.svc.StartESign(ctx, flow.ID)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeConflict))
	})

	_, err := s.svc.SetConsents(ctx, flow.ID, ESignConsents{Terms: true, Tariff: true, Aadhaar: true})
	s.Require().NoError(err)

	s.Run("provider failure leaves the stage unsatisfied", func() {
		s.esign.Succeed = false
		_, err := s.svc.StartESign(ctx, flow.ID)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeRejected))

		current, err := s.svc.Get(ctx, flow.ID)
		s.Require().NoError(err)
		s.False(current.Form.ESignDone)
	})

	s.Run("provider success records the signature", func() {
		s.esign.Succeed = true
		updated, err := s.svc.StartESign(ctx, flow.ID)
		s.Require().NoError(err)
		s.True(updated.Form.ESignDone)
	})
}

func (s *ServiceSuite) TestFullFlow_CompletesAndFreezes() {
	ctx := s.ctx
	flow := s.startFlow()

	_, err := s.svc.SetPANDetails(ctx, flow.ID, PANDetails{
		PAN: "ABCDE1234F", FullName: "Asha Verma", DateOfBirth: "1990-04-12",
		FatherName: "Ramesh Verma", Residency: "resident",
	})
	s.Require().NoError(err)
	s.attachValidProof(flow.ID)
	_, err = s.svc.SetAddress(ctx, flow.ID, Address{
		AddressLine: "42 MG Road", City: "Bengaluru", State: "Karnataka", Pincode: "560001",
	})
	s.Require().NoError(err)
	s.verifyEmail(flow.ID)
	s.verifyPhone(flow.ID)
	_, err = s.svc.SetSegment(ctx, flow.ID, Segment{
		Occupation: "salaried", IncomeRange: "5-10L", TradingExperience: "1-3y",
	})
	s.Require().NoError(err)
	_, err = s.svc.SetConsents(ctx, flow.ID, ESignConsents{Terms: true, Tariff: true, Aadhaar: true})
	s.Require().NoError(err)
	_, err = s.svc.StartESign(ctx, flow.ID)
	s.Require().NoError(err)

	var final *Flow
	for i := 0; i < 7; i++ {
		updated, causes, err := s.svc.Advance(ctx, flow.ID)
		s.Require().NoError(err)
		s.Require().Empty(causes, "stage %d should be satisfied", i)
		final = updated
	}
	s.Require().NotNil(final.CompletedAt)

	s.Run("completed flow rejects further edits", func() {
		_, err := s.svc.SetAddress(ctx, flow.ID, Address{AddressLine: "new", City: "x", State: "y", Pincode: "110001"})
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeConflict))
	})

	s.Run("audit trail recorded every stage", func() {
		events, err := s.auditStore.ListByUser(ctx, flow.UserID.String())
		s.Require().NoError(err)
		stageCompletions := 0
		for _, e := range events {
			if e.Action == audit.ActionStageCompleted {
				stageCompletions++
			}
		}
		s.Equal(7, stageCompletions)
	})
}

func (s *ServiceSuite) TestNavigation() {
	ctx := s.ctx
	flow := s.startFlow()

	_, err := s.svc.SetPANDetails(ctx, flow.ID, PANDetails{
		PAN: "ABCDE1234F", FullName: "Asha Verma", DateOfBirth: "1990-04-12",
		FatherName: "Ramesh Verma", Residency: "resident",
	})
	s.Require().NoError(err)
	advanced, _, err := s.svc.Advance(ctx, flow.ID)
	s.Require().NoError(err)
	s.Equal(StageBankProof, advanced.StageIndex)

	s.Run("retreat steps back without validation", func() {
		back, err := s.svc.Retreat(ctx, flow.ID)
		s.Require().NoError(err)
		s.Equal(StagePANDetails, back.StageIndex)
	})

	s.Run("jumping ahead is rejected", func() {
		_, err := s.svc.JumpTo(ctx, flow.ID, StageSegment)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeConflict))
	})
}

func (s *ServiceSuite) TestResumeToken() {
	ctx := s.ctx
	flow, resumeToken, err := s.svc.Start(ctx, s.userID, "asha@example.org", "9876543210")
	s.Require().NoError(err)

	s.Run("valid token loads the flow", func() {
		resumed, err := s.svc.Resume(ctx, resumeToken)
		s.Require().NoError(err)
		s.Equal(flow.ID, resumed.ID)
	})

	s.Run("garbage token is rejected", func() {
		_, err := s.svc.Resume(ctx, "not-a-token")
		s.Require().Error(err)
	})

	s.Run("another user cannot resume with a stolen token", func() {
		otherCtx := middleware.WithUserID(context.Background(), uuid.NewString())
		_, err := s.svc.Resume(otherCtx, resumeToken)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestOwnership_OtherUsersFlowIsInvisible() {
	flow := s.startFlow()
	s.attachValidProof(flow.ID)
	otherCtx := middleware.WithUserID(context.Background(), uuid.NewString())

	s.Run("read exposes no PII", func() {
		_, err := s.svc.Get(otherCtx, flow.ID)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})

	s.Run("form edits are rejected", func() {
		_, err := s.svc.SetAddress(otherCtx, flow.ID, Address{
			AddressLine: "1 Elsewhere", City: "Pune", State: "Maharashtra", Pincode: "411001",
		})
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})

	s.Run("navigation is rejected", func() {
		_, _, err := s.svc.Advance(otherCtx, flow.ID)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})

	s.Run("the owner is unaffected", func() {
		current, err := s.svc.Get(s.ctx, flow.ID)
		s.Require().NoError(err)
		s.Equal("123456789012", current.Form.AccountNumber)
	})
}
