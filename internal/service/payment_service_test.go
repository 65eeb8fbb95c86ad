package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Baaaki/apartment-booking/internal/broker"
	"github.com/Baaaki/apartment-booking/internal/models"
	"github.com/Baaaki/apartment-booking/internal/payment"
	"github.com/Baaaki/apartment-booking/internal/repository"
	"github.com/Baaaki/apartment-booking/internal/service"
	"github.com/Baaaki/apartment-booking/internal/testutil"
	"github.com/Baaaki/apartment-booking/pkg/apperr"
	"github.com/Baaaki/apartment-booking/pkg/logger"
	"github.com/stretchr/testify/suite"
)

type brokenGateway struct{}

func (brokenGateway) Charge(context.Context, payment.ChargeRequest) (payment.ChargeResult, error) {
	return payment.ChargeResult{}, errors.New("connection reset by processor")
}

// hookGateway approves every charge after running onCharge.
type hookGateway struct {
	onCharge func(ctx context.Context)
}

func (g hookGateway) Charge(ctx context.Context, req payment.ChargeRequest) (payment.ChargeResult, error) {
	g.onCharge(ctx)
	return payment.FixedGateway{Approve: true}.Charge(ctx, req)
}

type PaymentServiceTestSuite struct {
	suite.Suite
	testDB    *testutil.TestDatabase
	publisher *testutil.RecordingPublisher
	svc       *testutil.Services
	ctx       context.Context

	guest       *models.User
	other       *models.User
	admin       *models.User
	apartment   *models.Apartment
	reservation *models.Reservation
}

func (s *PaymentServiceTestSuite) SetupSuite() {
	logger.Init(false)
	s.testDB = testutil.SetupTestDatabase(s.T())
	s.ctx = context.Background()
}

func (s *PaymentServiceTestSuite) TearDownSuite() {
	s.testDB.Teardown(s.T())
}

func (s *PaymentServiceTestSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.testDB.DB)
	s.useGateway(payment.FixedGateway{Approve: true})

	s.guest = testutil.DefaultTestUser(s.T(), s.testDB.DB)
	s.other = testutil.CreateTestUser(s.T(), s.testDB.DB, "Other Guest", "other@example.com", models.RoleUser)
	s.admin = testutil.DefaultAdminUser(s.T(), s.testDB.DB)
	s.apartment = testutil.CreateTestApartment(s.T(), s.testDB.DB, "Luxury Downtown", 150)
	s.reservation = testutil.CreateTestReservation(s.T(), s.testDB.DB, s.guest.ID, s.apartment.ID,
		testutil.At(s.T(), "2025-05-15T14:00:00Z"), testutil.At(s.T(), "2025-05-18T11:00:00Z"), models.ReservationPending)
}

func (s *PaymentServiceTestSuite) useGateway(gw payment.Gateway) {
	s.publisher = &testutil.RecordingPublisher{}
	s.svc = testutil.NewServices(s.testDB.DB, testutil.ServiceOptions{
		Clock:     testutil.FixedClock(bookingNow),
		Gateway:   gw,
		Publisher: s.publisher,
	})
}

func (s *PaymentServiceTestSuite) actor(u *models.User) service.Actor {
	return service.Actor{UserID: u.ID, Role: u.Role}
}

func (s *PaymentServiceTestSuite) reservationStatus() models.ReservationStatus {
	var res models.Reservation
	s.Require().NoError(s.testDB.DB.First(&res, s.reservation.ID).Error)
	return res.Status
}

func (s *PaymentServiceTestSuite) TestProcess_ConfirmsReservation() {
	p, err := s.svc.Payments.Process(s.ctx, s.actor(s.guest), s.reservation.ID)

	s.Require().NoError(err)
	s.Equal(models.PaymentCompleted, p.Status)
	s.Equal(150.0, p.Amount)
	s.Equal(service.DefaultPaymentMethod, p.PaymentMethod)
	s.NotEmpty(p.TransactionRef)
	s.Equal(models.ReservationConfirmed, s.reservationStatus())

	s.Equal([]broker.EventType{
		broker.EventReservationStatusChanged,
		broker.EventPaymentCompleted,
	}, s.publisher.Types())
}

func (s *PaymentServiceTestSuite) TestProcess_SecondPaymentIsDuplicate() {
	_, err := s.svc.Payments.Process(s.ctx, s.actor(s.guest), s.reservation.ID)
	s.Require().NoError(err)

	_, err = s.svc.Payments.Process(s.ctx, s.actor(s.guest), s.reservation.ID)

	s.ErrorIs(err, service.ErrDuplicatePayment)

	var count int64
	s.Require().NoError(s.testDB.DB.Model(&models.Payment{}).Where("reservation_id = ?", s.reservation.ID).Count(&count).Error)
	s.Equal(int64(1), count)
}

func (s *PaymentServiceTestSuite) TestProcess_ConfirmedReservationStaysConfirmed() {
	s.Require().NoError(s.testDB.DB.Model(s.reservation).Update("status", models.ReservationConfirmed).Error)

	p, err := s.svc.Payments.Process(s.ctx, s.actor(s.guest), s.reservation.ID)

	s.Require().NoError(err)
	s.Equal(models.PaymentCompleted, p.Status)
	s.Equal(models.ReservationConfirmed, s.reservationStatus())
	s.Equal([]broker.EventType{broker.EventPaymentCompleted}, s.publisher.Types())
}

func (s *PaymentServiceTestSuite) TestCreate_DeclinedChargeLeavesReservationPending() {
	s.useGateway(payment.FixedGateway{Approve: false})

	p, err := s.svc.Payments.Create(s.ctx, s.actor(s.guest), service.CreatePaymentInput{
		ReservationID: s.reservation.ID,
		Amount:        450,
		Method:        "credit_card",
	})

	s.Require().NoError(err)
	s.Equal(models.PaymentFailed, p.Status)
	s.Empty(p.TransactionRef)
	s.Equal(models.ReservationPending, s.reservationStatus())
	s.Equal([]broker.EventType{broker.EventPaymentFailed}, s.publisher.Types())

	// One payment per reservation, including failed ones.
	_, err = s.svc.Payments.Process(s.ctx, s.actor(s.guest), s.reservation.ID)
	s.ErrorIs(err, service.ErrDuplicatePayment)
}

func (s *PaymentServiceTestSuite) TestCreate_GatewayErrorMarksPaymentFailed() {
	s.useGateway(brokenGateway{})

	_, err := s.svc.Payments.Create(s.ctx, s.actor(s.guest), service.CreatePaymentInput{
		ReservationID: s.reservation.ID,
		Amount:        450,
		Method:        "credit_card",
	})

	testutil.RequireCode(s.T(), err, apperr.CodeInternal)

	var stored models.Payment
	s.Require().NoError(s.testDB.DB.Where("reservation_id = ?", s.reservation.ID).First(&stored).Error)
	s.Equal(models.PaymentFailed, stored.Status)
	s.Equal(models.ReservationPending, s.reservationStatus())
}

func (s *PaymentServiceTestSuite) TestCreate_ReservationCancelledDuringCharge() {
	s.useGateway(hookGateway{onCharge: func(ctx context.Context) {
		_, err := s.svc.Reservations.Cancel(ctx, s.actor(s.guest), s.reservation.ID)
		s.Require().NoError(err)
	}})

	p, err := s.svc.Payments.Create(s.ctx, s.actor(s.guest), service.CreatePaymentInput{
		ReservationID: s.reservation.ID,
		Amount:        450,
		Method:        "credit_card",
	})

	s.ErrorIs(err, service.ErrReservationNotPayable)
	s.Nil(p)
	s.Equal(models.ReservationCancelled, s.reservationStatus())

	var stored models.Payment
	s.Require().NoError(s.testDB.DB.Where("reservation_id = ?", s.reservation.ID).First(&stored).Error)
	s.Equal(models.PaymentFailed, stored.Status)
	s.Equal([]broker.EventType{
		broker.EventReservationStatusChanged,
		broker.EventPaymentFailed,
	}, s.publisher.Types())
}

func (s *PaymentServiceTestSuite) TestCreate_ValidatesInput() {
	_, err := s.svc.Payments.Create(s.ctx, s.actor(s.guest), service.CreatePaymentInput{
		ReservationID: s.reservation.ID,
		Amount:        -1,
	})

	var ae *apperr.AppError
	s.Require().True(errors.As(err, &ae))
	s.Equal(apperr.CodeValidation, ae.Code)
	s.Len(ae.Fields, 2)
}

func (s *PaymentServiceTestSuite) TestPayment_Rejections() {
	cancelled := testutil.CreateTestReservation(s.T(), s.testDB.DB, s.guest.ID, s.apartment.ID,
		testutil.At(s.T(), "2025-06-15T14:00:00Z"), testutil.At(s.T(), "2025-06-18T11:00:00Z"), models.ReservationCancelled)

	testCases := []struct {
		name          string
		actor         service.Actor
		reservationID uint
		want          error
	}{
		{"other_users_reservation", s.actor(s.other), s.reservation.ID, service.ErrNotOwner},
		{"cancelled_reservation", s.actor(s.guest), cancelled.ID, service.ErrReservationNotPayable},
		{"unknown_reservation", s.actor(s.guest), 9999, service.ErrReservationNotFound},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, err := s.svc.Payments.Process(s.ctx, tc.actor, tc.reservationID)
			s.ErrorIs(err, tc.want)
		})
	}

	var count int64
	s.Require().NoError(s.testDB.DB.Model(&models.Payment{}).Count(&count).Error)
	s.Zero(count)
}

func (s *PaymentServiceTestSuite) TestGetAndList_Visibility() {
	p, err := s.svc.Payments.Process(s.ctx, s.actor(s.guest), s.reservation.ID)
	s.Require().NoError(err)

	_, err = s.svc.Payments.Get(s.ctx, s.actor(s.other), p.ID)
	s.ErrorIs(err, service.ErrNotOwner)

	got, err := s.svc.Payments.Get(s.ctx, s.actor(s.admin), p.ID)
	s.Require().NoError(err)
	s.Equal(p.ID, got.ID)

	mine, err := s.svc.Payments.ListMine(s.ctx, s.actor(s.other), "", repository.Page{})
	s.Require().NoError(err)
	s.Zero(mine.Total)
	s.NotNil(mine.Items)

	all, err := s.svc.Payments.ListAll(s.ctx, s.actor(s.admin), models.PaymentCompleted, repository.Page{})
	s.Require().NoError(err)
	s.Equal(int64(1), all.Total)

	_, err = s.svc.Payments.ListAll(s.ctx, s.actor(s.guest), "", repository.Page{})
	s.ErrorIs(err, service.ErrAdminRequired)
}

func (s *PaymentServiceTestSuite) TestRefund_AdminOnly() {
	p, err := s.svc.Payments.Process(s.ctx, s.actor(s.guest), s.reservation.ID)
	s.Require().NoError(err)

	_, err = s.svc.Payments.Refund(s.ctx, s.actor(s.guest), p.ID)
	s.ErrorIs(err, service.ErrAdminRequired)

	refunded, err := s.svc.Payments.Refund(s.ctx, s.actor(s.admin), p.ID)
	s.Require().NoError(err)
	s.Equal(models.PaymentRefunded, refunded.Status)
	s.Equal(models.ReservationConfirmed, s.reservationStatus())

	_, err = s.svc.Payments.Refund(s.ctx, s.actor(s.admin), p.ID)
	s.ErrorIs(err, service.ErrPaymentNotRefundable)
}

func TestPaymentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PaymentServiceTestSuite))
}
