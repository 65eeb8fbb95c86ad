package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Baaaki/apartment-booking/internal/broker"
	"github.com/Baaaki/apartment-booking/internal/handler"
	"github.com/Baaaki/apartment-booking/internal/models"
	"github.com/Baaaki/apartment-booking/internal/testutil"
	"github.com/Baaaki/apartment-booking/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

type BookingAPIIntegrationTestSuite struct {
	suite.Suite
	testDB *testutil.TestDatabase
	api    *testAPI

	guest      *models.User
	admin      *models.User
	apartment  *models.Apartment
	guestToken string
	adminToken string
}

func (s *BookingAPIIntegrationTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	logger.Init(false)

	s.testDB = testutil.SetupTestDatabase(s.T())
}

func (s *BookingAPIIntegrationTestSuite) TearDownSuite() {
	s.testDB.Teardown(s.T())
}

func (s *BookingAPIIntegrationTestSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.testDB.DB)
	s.api = newTestAPI(s.testDB.DB)

	s.guest = testutil.DefaultTestUser(s.T(), s.testDB.DB)
	s.admin = testutil.DefaultAdminUser(s.T(), s.testDB.DB)
	s.apartment = testutil.CreateTestApartment(s.T(), s.testDB.DB, "Sea View Loft", 120)
	s.guestToken = tokenFor(s.T(), s.guest)
	s.adminToken = tokenFor(s.T(), s.admin)
}

func (s *BookingAPIIntegrationTestSuite) book(start, end, token string) *httptest.ResponseRecorder {
	return s.api.do(http.MethodPost, "/api/reservations", map[string]any{
		"apartment_id": s.apartment.ID,
		"start_time":   start,
		"end_time":     end,
	}, token)
}

func (s *BookingAPIIntegrationTestSuite) TestBookAndPay() {
	// 1. Book
	w := s.book("2025-06-01T14:00:00Z", "2025-06-05T11:00:00Z", s.guestToken)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	res := decode(s.T(), w)
	s.Equal("pending", res["status"])
	id := uint(res["id"].(float64))

	// 2. Pay
	w = s.api.do(http.MethodPost, "/api/payments/process", map[string]any{"reservation_id": id}, s.guestToken)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	p := decode(s.T(), w)["payment"].(map[string]any)
	s.Equal("completed", p["status"])
	s.InDelta(120.0, p["amount"].(float64), 0.001)

	// 3. Reservation is confirmed
	w = s.api.do(http.MethodGet, "/api/reservations/"+itoa(id), nil, s.guestToken)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("confirmed", decode(s.T(), w)["status"])

	// 4. Paying twice conflicts
	w = s.api.do(http.MethodPost, "/api/payments/process", map[string]any{"reservation_id": id}, s.guestToken)
	s.Equal(http.StatusConflict, w.Code)

	s.Equal([]broker.EventType{
		broker.EventReservationCreated,
		broker.EventReservationStatusChanged,
		broker.EventPaymentCompleted,
	}, s.api.publisher.Types())
}

func (s *BookingAPIIntegrationTestSuite) TestOverlapIsRejected() {
	s.Require().Equal(http.StatusCreated, s.book("2025-06-01", "2025-06-05", s.guestToken).Code)

	w := s.book("2025-06-03", "2025-06-07", tokenFor(s.T(), s.admin))
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("conflict", decode(s.T(), w)["code"])

	// Checkout day is free for the next check-in
	s.Equal(http.StatusCreated, s.book("2025-06-05", "2025-06-08", s.guestToken).Code)
}

func (s *BookingAPIIntegrationTestSuite) TestAvailabilityEndpoint() {
	s.Require().Equal(http.StatusCreated, s.book("2025-06-01", "2025-06-05", s.guestToken).Code)

	path := "/api/apartments/" + itoa(s.apartment.ID) + "/availability"

	w := s.api.do(http.MethodGet, path+"?start_time=2025-06-02&end_time=2025-06-03", nil, "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal(false, decode(s.T(), w)["available"])

	w = s.api.do(http.MethodGet, path+"?start_time=2025-06-05&end_time=2025-06-09", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(true, decode(s.T(), w)["available"])

	w = s.api.do(http.MethodGet, path+"?start_time=yesterday&end_time=2025-06-09", nil, "")
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(fieldNames(decode(s.T(), w)), "start_time")
}

func (s *BookingAPIIntegrationTestSuite) TestInvalidWindow() {
	w := s.book("2025-06-05", "2025-06-01", s.guestToken)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("validation", decode(s.T(), w)["code"])

	w = s.book("2025-04-01", "2025-04-03", s.guestToken)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *BookingAPIIntegrationTestSuite) TestStatusUpdateRequiresAdmin() {
	w := s.book("2025-06-01", "2025-06-05", s.guestToken)
	s.Require().Equal(http.StatusCreated, w.Code)
	id := itoa(uint(decode(s.T(), w)["id"].(float64)))

	w = s.api.do(http.MethodPut, "/api/reservations/"+id+"/status", map[string]string{"status": "confirmed"}, s.guestToken)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.api.do(http.MethodPut, "/api/reservations/"+id+"/status", map[string]string{"status": "confirmed"}, s.adminToken)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal("confirmed", decode(s.T(), w)["reservation"].(map[string]any)["status"])
}

func (s *BookingAPIIntegrationTestSuite) TestOtherUsersReservation() {
	w := s.book("2025-06-01", "2025-06-05", s.guestToken)
	s.Require().Equal(http.StatusCreated, w.Code)
	id := itoa(uint(decode(s.T(), w)["id"].(float64)))

	stranger := testutil.CreateTestUser(s.T(), s.testDB.DB, "Stranger", "stranger@example.com", models.RoleUser)
	token := tokenFor(s.T(), stranger)

	s.Equal(http.StatusForbidden, s.api.do(http.MethodGet, "/api/reservations/"+id, nil, token).Code)
	s.Equal(http.StatusForbidden, s.api.do(http.MethodPut, "/api/reservations/"+id+"/cancel", nil, token).Code)
	s.Equal(http.StatusOK, s.api.do(http.MethodGet, "/api/reservations/"+id, nil, s.adminToken).Code)
}

func (s *BookingAPIIntegrationTestSuite) TestPagination() {
	testutil.CreateTestApartment(s.T(), s.testDB.DB, "Garden House", 90)
	testutil.CreateTestApartment(s.T(), s.testDB.DB, "City Studio", 70)

	w := s.api.do(http.MethodGet, "/api/apartments?page=1&limit=2", nil, "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	body := decode(s.T(), w)

	s.Len(body["items"], 2)
	pagination := body["pagination"].(map[string]any)
	s.Equal(float64(1), pagination["currentPage"])
	s.Equal(float64(2), pagination["totalPages"])
	s.Equal(float64(3), pagination["totalItems"])
	s.Equal(float64(2), pagination["itemsPerPage"])

	w = s.api.do(http.MethodGet, "/api/apartments?maxPrice=80", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(decode(s.T(), w)["items"], 1)
}

func (s *BookingAPIIntegrationTestSuite) TestHealth() {
	w := s.api.do(http.MethodGet, "/api/health", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("ok", decode(s.T(), w)["status"])
	s.NotEmpty(w.Header().Get("X-Request-ID"))
}

func (s *BookingAPIIntegrationTestSuite) TestWebSocketDelivery() {
	server := httptest.NewServer(s.api.router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/ws/reservations"
	header := http.Header{"Authorization": []string{"Bearer " + s.guestToken}}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	s.Require().NoError(err)
	defer resp.Body.Close()
	defer conn.Close()

	s.Require().Eventually(func() bool { return s.api.ws.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	// Someone else's reservation is not pushed to a guest
	s.Equal(0, s.api.ws.Deliver(broker.Event{Type: broker.EventReservationCreated, ReservationID: 1, UserID: s.guest.ID + 100}))

	s.Equal(1, s.api.ws.Deliver(broker.Event{
		Type:          broker.EventReservationStatusChanged,
		ReservationID: 7,
		UserID:        s.guest.ID,
		Status:        "confirmed",
	}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame handler.WSResponse
	s.Require().NoError(conn.ReadJSON(&frame))
	s.Equal("event", frame.Type)
	s.Require().NotNil(frame.Event)
	s.Equal(uint(7), frame.Event.ReservationID)
	s.Equal("confirmed", frame.Event.Status)
}

func (s *BookingAPIIntegrationTestSuite) TestWebSocketRequiresAuth() {
	server := httptest.NewServer(s.api.router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/ws/reservations"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().Error(err)
	s.Require().NotNil(resp)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestBookingAPIIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(BookingAPIIntegrationTestSuite))
}
