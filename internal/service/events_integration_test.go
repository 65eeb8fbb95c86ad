package service_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Baaaki/apartment-booking/internal/activity"
	"github.com/Baaaki/apartment-booking/internal/broker"
	"github.com/Baaaki/apartment-booking/internal/models"
	"github.com/Baaaki/apartment-booking/internal/service"
	"github.com/Baaaki/apartment-booking/internal/testutil"
	"github.com/Baaaki/apartment-booking/pkg/logger"
	"github.com/stretchr/testify/suite"
)

// EventPipelineIntegrationTestSuite runs bookings against SQLite, miniredis and a
// journal on disk, and checks what other processes observe.
type EventPipelineIntegrationTestSuite struct {
	suite.Suite
	testDB    *testutil.TestDatabase
	testRedis *testutil.TestRedis
	broker    *broker.RedisBroker
	journal   *activity.Journal
	svc       *testutil.Services

	guest     *models.User
	apartment *models.Apartment
}

func (s *EventPipelineIntegrationTestSuite) SetupSuite() {
	logger.Init(false)
	s.testDB = testutil.SetupTestDatabase(s.T())
	s.testRedis = testutil.SetupTestRedis(s.T())
	s.broker = broker.NewRedisBrokerFromClient(s.testRedis.Client)
}

func (s *EventPipelineIntegrationTestSuite) TearDownSuite() {
	s.testDB.Teardown(s.T())
	s.testRedis.Teardown(s.T())
}

func (s *EventPipelineIntegrationTestSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.testDB.DB)

	journal, err := activity.Open(filepath.Join(s.T().TempDir(), "activity.log"))
	s.Require().NoError(err)
	s.journal = journal

	s.svc = testutil.NewServices(s.testDB.DB, testutil.ServiceOptions{
		Clock:     testutil.FixedClock(bookingNow),
		Publisher: s.broker,
		Journal:   s.journal,
	})

	s.guest = testutil.DefaultTestUser(s.T(), s.testDB.DB)
	s.apartment = testutil.CreateTestApartment(s.T(), s.testDB.DB, "Luxury Downtown", 150)
}

func (s *EventPipelineIntegrationTestSuite) TearDownTest() {
	s.journal.Close()
}

func (s *EventPipelineIntegrationTestSuite) receive(events <-chan broker.Event) broker.Event {
	select {
	case e := <-events:
		return e
	case <-time.After(2 * time.Second):
		s.FailNow("timed out waiting for event")
		return broker.Event{}
	}
}

func (s *EventPipelineIntegrationTestSuite) TestBookAndPay_PublishesAndJournals() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := s.broker.Subscribe(ctx)
	s.Require().NoError(err)

	actor := service.Actor{UserID: s.guest.ID, Role: s.guest.Role}
	res, err := s.svc.Reservations.Create(ctx, actor, service.CreateReservationInput{
		ApartmentID: s.apartment.ID,
		StartTime:   testutil.At(s.T(), "2025-05-15T14:00:00Z"),
		EndTime:     testutil.At(s.T(), "2025-05-18T11:00:00Z"),
	})
	s.Require().NoError(err)

	p, err := s.svc.Payments.Process(ctx, actor, res.ID)
	s.Require().NoError(err)

	created := s.receive(events)
	s.Equal(broker.EventReservationCreated, created.Type)
	s.Equal(res.ID, created.ReservationID)
	s.Equal(s.guest.ID, created.UserID)
	s.False(created.OccurredAt.IsZero())

	confirmed := s.receive(events)
	s.Equal(broker.EventReservationStatusChanged, confirmed.Type)
	s.Equal(string(models.ReservationConfirmed), confirmed.Status)

	paid := s.receive(events)
	s.Equal(broker.EventPaymentCompleted, paid.Type)
	s.Equal(p.ID, paid.PaymentID)

	recent, err := s.svc.Events.Recent(10)
	s.Require().NoError(err)
	s.Require().Len(recent, 3)
	s.Equal(string(broker.EventPaymentCompleted), recent[0].Action)
	s.Equal(string(broker.EventReservationCreated), recent[2].Action)
	s.Equal(res.ID, recent[2].ReservationID)
}

func (s *EventPipelineIntegrationTestSuite) TestRejectedBooking_RecordsNothing() {
	actor := service.Actor{UserID: s.guest.ID, Role: s.guest.Role}
	_, err := s.svc.Reservations.Create(context.Background(), actor, service.CreateReservationInput{
		ApartmentID: s.apartment.ID,
		StartTime:   testutil.At(s.T(), "2025-04-15T14:00:00Z"),
		EndTime:     testutil.At(s.T(), "2025-04-18T11:00:00Z"),
	})
	s.Require().Error(err)

	entries, err := s.journal.ReadAll()
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *EventPipelineIntegrationTestSuite) TestBrokerDown_DoesNotFailBooking() {
	s.testRedis.Server.SetError("LOADING server is loading")
	defer s.testRedis.Server.SetError("")

	actor := service.Actor{UserID: s.guest.ID, Role: s.guest.Role}
	res, err := s.svc.Reservations.Create(context.Background(), actor, service.CreateReservationInput{
		ApartmentID: s.apartment.ID,
		StartTime:   testutil.At(s.T(), "2025-05-15T14:00:00Z"),
		EndTime:     testutil.At(s.T(), "2025-05-18T11:00:00Z"),
	})

	s.Require().NoError(err)
	s.Equal(models.ReservationPending, res.Status)

	entries, err := s.journal.ReadAll()
	s.Require().NoError(err)
	s.Len(entries, 1)
}

func TestEventPipelineIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(EventPipelineIntegrationTestSuite))
}
