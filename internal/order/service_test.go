package order_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"investgate/internal/audit"
	"investgate/internal/order"
	"investgate/internal/order/mocks"
	"investgate/internal/platform/middleware"
	dErrors "investgate/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite

	ctrl       *gomock.Controller
	gateway    *mocks.MockSubmitGateway
	auditStore *audit.InMemoryStore
	svc        *order.Service
	userID     uuid.UUID
	ctx        context.Context
	now        time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.gateway = mocks.NewMockSubmitGateway(s.ctrl)
	s.auditStore = audit.NewInMemoryStore()
	s.userID = uuid.New()
	s.ctx = middleware.WithUserID(context.Background(), s.userID.String())
	s.now = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	svc, err := order.NewService(
		order.NewInMemoryStore(),
		s.gateway,
		audit.NewPublisher(s.auditStore, nil),
		nil,
		nil,
		order.WithClock(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)
	s.svc = svc
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func (s *ServiceSuite) startSession() *order.Session {
	sess, err := s.svc.StartReview(s.ctx, s.userID, "RELIANCE", order.SideBuy,
		2, dec("222.00"),
		order.FeeSchedule{Components: []order.FeeComponent{{Label: "Charges", Amount: dec("95.94")}}})
	s.Require().NoError(err)
	return sess
}

func (s *ServiceSuite) makeReady(id uuid.UUID) {
	ctx := s.ctx
	_, err := s.svc.Acknowledge(ctx, id, "risk", true)
	s.Require().NoError(err)
	_, err = s.svc.Acknowledge(ctx, id, "tariff", true)
	s.Require().NoError(err)
	_, err = s.svc.SetFinalConsent(ctx, id, true)
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestStartReview_ComputesTotals() {
	sess := s.startSession()

	s.Equal(order.StateReviewing, sess.State)
	s.True(sess.Totals.OrderValue.Equal(dec("444.00")))
	s.True(sess.Totals.TotalPayable.Equal(dec("539.94")))
	s.Empty(sess.Acknowledgments)
	s.Nil(sess.AuthorizedAt)
}

func (s *ServiceSuite) TestUpdateLine_RecomputesInTheSameStep() {
	ctx := s.ctx
	sess := s.startSession()

	updated, err := s.svc.UpdateLine(ctx, sess.ID, 3, dec("100.00"))
	s.Require().NoError(err)
	s.True(updated.Totals.OrderValue.Equal(dec("300.00")))
	s.True(updated.Totals.TotalPayable.Equal(dec("395.94")))
}

func (s *ServiceSuite) TestAcknowledge_UnknownDisclosureRejected() {
	ctx := s.ctx
	sess := s.startSession()

	_, err := s.svc.Acknowledge(ctx, sess.ID, "made-up", true)
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestConfirm_BlockedUntilReady() {
	ctx := s.ctx
	sess := s.startSession()

	s.Run("nothing acknowledged", func() {
		_, err := s.svc.Confirm(ctx, sess.ID)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeConflict))
	})

	s.Run("final consent alone is not enough", func() {
		_, err := s.svc.SetFinalConsent(ctx, sess.ID, true)
		s.Require().NoError(err)
		_, err = s.svc.Confirm(ctx, sess.ID)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeConflict))
	})
}

func (s *ServiceSuite) TestConfirm_TimestampsAtSubmission() {
	ctx := s.ctx
	sess := s.startSession()
	s.makeReady(sess.ID)

	// Time passes between consent and submission; the recorded instant is
	// the submission, not the consent.
	submittedAt := s.now.Add(42 * time.Minute)
	s.now = submittedAt

	s.gateway.EXPECT().
		Submit(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(order.SubmitResult{Accepted: true, Reference: "EX-1001"}, nil)

	confirmed, err := s.svc.Confirm(ctx, sess.ID)
	s.Require().NoError(err)
	s.Equal(order.StateConfirmed, confirmed.State)
	s.Require().NotNil(confirmed.AuthorizedAt)
	s.Equal(submittedAt, *confirmed.AuthorizedAt)

	s.Run("audit records the authorization", func() {
		events, err := s.auditStore.ListByUser(ctx, sess.UserID.String())
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(audit.ActionOrderAuthorized, events[0].Action)
		s.Equal("RELIANCE", events[0].Subject)
	})

	s.Run("a confirmed order cannot be confirmed again", func() {
		_, err := s.svc.Confirm(ctx, sess.ID)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeConflict))
	})
}

func (s *ServiceSuite) TestConfirm_RejectionKeepsSessionReviewing() {
	ctx := s.ctx
	sess := s.startSession()
	s.makeReady(sess.ID)

	s.gateway.EXPECT().
		Submit(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(order.SubmitResult{Accepted: false, Reason: "insufficient funds"}, nil)

	_, err := s.svc.Confirm(ctx, sess.ID)
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeRejected))

	current, err := s.svc.Get(ctx, sess.ID)
	s.Require().NoError(err)
	s.Equal(order.StateReviewing, current.State)
	s.Nil(current.AuthorizedAt)
	s.True(current.Acknowledgments["risk"], "acknowledgments survive a rejection")

	s.Run("a retry can succeed", func() {
		s.gateway.EXPECT().
			Submit(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(order.SubmitResult{Accepted: true, Reference: "EX-1002"}, nil)
		confirmed, err := s.svc.Confirm(ctx, sess.ID)
		s.Require().NoError(err)
		s.Equal(order.StateConfirmed, confirmed.State)
	})
}

func (s *ServiceSuite) TestConfirm_TransportFailureLooksLikeRejection() {
	ctx := s.ctx
	sess := s.startSession()
	s.makeReady(sess.ID)

	s.gateway.EXPECT().
		Submit(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(order.SubmitResult{}, errors.New("connection reset"))

	_, err := s.svc.Confirm(ctx, sess.ID)
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeRejected))

	current, err := s.svc.Get(ctx, sess.ID)
	s.Require().NoError(err)
	s.Equal(order.StateReviewing, current.State)
}

func (s *ServiceSuite) TestBackToEdit_PreservesLine() {
	ctx := s.ctx
	sess := s.startSession()

	back, err := s.svc.BackToEdit(ctx, sess.ID)
	s.Require().NoError(err)
	s.EqualValues(2, back.Line.Quantity)
	s.True(back.Line.UnitPrice.Equal(dec("222.00")))
}

func (s *ServiceSuite) TestOwnership_OtherUsersSessionIsInvisible() {
	sess := s.startSession()
	otherCtx := middleware.WithUserID(context.Background(), uuid.NewString())

	s.Run("read is a not-found", func() {
		_, err := s.svc.Get(otherCtx, sess.ID)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})

	s.Run("acknowledgments cannot be forged", func() {
		_, err := s.svc.Acknowledge(otherCtx, sess.ID, "risk", true)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})

	s.Run("consent and confirm cannot be forged", func() {
		_, err := s.svc.SetFinalConsent(otherCtx, sess.ID, true)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))

		_, err = s.svc.Confirm(otherCtx, sess.ID)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})

	s.Run("abandon cannot discard someone else's session", func() {
		err := s.svc.Abandon(otherCtx, sess.ID)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})

	s.Run("the owner still sees an untouched session", func() {
		current, err := s.svc.Get(s.ctx, sess.ID)
		s.Require().NoError(err)
		s.Equal(order.StateReviewing, current.State)
		s.Empty(current.Acknowledgments)
		s.False(current.FinalConsent)
	})
}

func (s *ServiceSuite) TestAbandon_DiscardsAcknowledgments() {
	ctx := s.ctx
	sess := s.startSession()
	s.makeReady(sess.ID)

	s.Require().NoError(s.svc.Abandon(ctx, sess.ID))

	_, err := s.svc.Get(ctx, sess.ID)
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeNotFound))

	// A fresh session for the same instrument starts with nothing
	// acknowledged.
	fresh := s.startSession()
	s.Empty(fresh.Acknowledgments)
	s.False(fresh.FinalConsent)
}
