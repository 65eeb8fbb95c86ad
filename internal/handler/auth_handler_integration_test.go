package handler_test

import (
	"net/http"
	"testing"

	"github.com/Baaaki/apartment-booking/internal/middleware"
	"github.com/Baaaki/apartment-booking/internal/testutil"
	"github.com/Baaaki/apartment-booking/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
)

type AuthHandlerIntegrationTestSuite struct {
	suite.Suite
	testDB *testutil.TestDatabase
	api    *testAPI
}

func (s *AuthHandlerIntegrationTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	logger.Init(false)

	s.testDB = testutil.SetupTestDatabase(s.T())
	s.api = newTestAPI(s.testDB.DB)
}

func (s *AuthHandlerIntegrationTestSuite) TearDownSuite() {
	s.testDB.Teardown(s.T())
}

func (s *AuthHandlerIntegrationTestSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.testDB.DB)
}

func (s *AuthHandlerIntegrationTestSuite) TestRegisterSuccess() {
	w := s.api.do(http.MethodPost, "/api/auth/register", map[string]string{
		"name":     "New Guest",
		"email":    "NewGuest@Example.com",
		"password": "SecurePass123",
	}, "")

	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	body := decode(s.T(), w)
	s.Equal("User registered successfully", body["message"])
	s.NotEmpty(body["token"])

	user := body["user"].(map[string]any)
	s.Equal("New Guest", user["name"])
	s.Equal("newguest@example.com", user["email"])
	s.Equal("user", user["role"])
	s.NotContains(user, "password_hash")

	var tokenCookie *http.Cookie
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == middleware.TokenCookie {
			tokenCookie = cookie
		}
	}
	s.Require().NotNil(tokenCookie)
	s.True(tokenCookie.HttpOnly)
	s.Equal(http.SameSiteLaxMode, tokenCookie.SameSite)
	s.Equal(body["token"], tokenCookie.Value)
}

func (s *AuthHandlerIntegrationTestSuite) TestRegisterDuplicateEmail() {
	testutil.DefaultTestUser(s.T(), s.testDB.DB)

	w := s.api.do(http.MethodPost, "/api/auth/register", map[string]string{
		"name":     "Someone Else",
		"email":    "guest@example.com",
		"password": "SecurePass123",
	}, "")

	s.Equal(http.StatusConflict, w.Code)
	body := decode(s.T(), w)
	s.Equal("conflict", body["code"])
	s.Contains(body["error"], "email already exists")
}

func (s *AuthHandlerIntegrationTestSuite) TestRegisterInvalidInput() {
	testCases := []struct {
		name    string
		reqBody map[string]string
		field   string
	}{
		{
			name:    "missing name",
			reqBody: map[string]string{"email": "a@example.com", "password": "Pass123456"},
			field:   "name",
		},
		{
			name:    "bad email",
			reqBody: map[string]string{"name": "A", "email": "not-an-email", "password": "Pass123456"},
			field:   "email",
		},
		{
			name:    "short password",
			reqBody: map[string]string{"name": "A", "email": "a@example.com", "password": "12345"},
			field:   "password",
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			w := s.api.do(http.MethodPost, "/api/auth/register", tc.reqBody, "")
			s.Equal(http.StatusBadRequest, w.Code)
			body := decode(s.T(), w)
			s.Equal("validation", body["code"])
			s.Contains(fieldNames(body), tc.field)
		})
	}
}

func (s *AuthHandlerIntegrationTestSuite) TestLoginAndProfile() {
	testutil.DefaultTestUser(s.T(), s.testDB.DB)

	w := s.api.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "guest@example.com",
		"password": testutil.DefaultPassword,
	}, "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	token := decode(s.T(), w)["token"].(string)

	w = s.api.do(http.MethodGet, "/api/auth/profile", nil, token)
	s.Require().Equal(http.StatusOK, w.Code)
	user := decode(s.T(), w)["user"].(map[string]any)
	s.Equal("guest@example.com", user["email"])
}

func (s *AuthHandlerIntegrationTestSuite) TestLoginWrongPassword() {
	testutil.DefaultTestUser(s.T(), s.testDB.DB)

	w := s.api.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "guest@example.com",
		"password": "WrongPassword",
	}, "")
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *AuthHandlerIntegrationTestSuite) TestBlockedUserLosesAccess() {
	guest := testutil.DefaultTestUser(s.T(), s.testDB.DB)
	admin := testutil.DefaultAdminUser(s.T(), s.testDB.DB)
	guestToken := tokenFor(s.T(), guest)

	s.Require().Equal(http.StatusOK, s.api.do(http.MethodGet, "/api/auth/profile", nil, guestToken).Code)

	w := s.api.do(http.MethodPut, "/api/users/"+itoa(guest.ID)+"/block", nil, tokenFor(s.T(), admin))
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	s.Equal(http.StatusForbidden, s.api.do(http.MethodGet, "/api/auth/profile", nil, guestToken).Code)

	w = s.api.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "guest@example.com",
		"password": testutil.DefaultPassword,
	}, "")
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *AuthHandlerIntegrationTestSuite) TestChangePassword() {
	guest := testutil.DefaultTestUser(s.T(), s.testDB.DB)
	token := tokenFor(s.T(), guest)

	w := s.api.do(http.MethodPut, "/api/auth/change-password", map[string]string{
		"currentPassword": "nope-nope",
		"newPassword":     "BrandNew123",
	}, token)
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.api.do(http.MethodPut, "/api/auth/change-password", map[string]string{
		"currentPassword": testutil.DefaultPassword,
		"newPassword":     "BrandNew123",
	}, token)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.api.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "guest@example.com",
		"password": "BrandNew123",
	}, "")
	s.Equal(http.StatusOK, w.Code)
}

func (s *AuthHandlerIntegrationTestSuite) TestProtectedRouteWithoutToken() {
	w := s.api.do(http.MethodGet, "/api/reservations/my", nil, "")
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("unauthorized", decode(s.T(), w)["code"])
}

func TestAuthHandlerIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerIntegrationTestSuite))
}
