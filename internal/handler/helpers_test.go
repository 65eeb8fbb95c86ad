package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/Baaaki/apartment-booking/internal/handler"
	"github.com/Baaaki/apartment-booking/internal/models"
	"github.com/Baaaki/apartment-booking/internal/router"
	"github.com/Baaaki/apartment-booking/internal/testutil"
	"github.com/Baaaki/apartment-booking/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// apiNow is the wall clock seen by the availability checker in HTTP tests.
var apiNow = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

type testAPI struct {
	router    *gin.Engine
	svc       *testutil.Services
	ws        *handler.WebSocketHandler
	publisher *testutil.RecordingPublisher
}

func newTestAPI(db *gorm.DB) *testAPI {
	publisher := &testutil.RecordingPublisher{}
	svc := testutil.NewServices(db, testutil.ServiceOptions{
		Clock:     testutil.FixedClock(apiNow),
		Publisher: publisher,
	})
	ws := handler.NewWebSocketHandler()

	engine := router.New(router.Dependencies{
		JWTSecret:   testutil.TestJWTSecret,
		Users:       svc.Store.Users,
		CORSOrigins: []string{"http://localhost:5173"},

		Auth:         handler.NewAuthHandler(svc.Auth),
		Apartments:   handler.NewApartmentHandler(svc.Apartments, svc.Availability),
		Reservations: handler.NewReservationHandler(svc.Reservations),
		Payments:     handler.NewPaymentHandler(svc.Payments),
		Ratings:      handler.NewRatingHandler(svc.Ratings),
		Favorites:    handler.NewFavoriteHandler(svc.Favorites),
		Admin:        handler.NewAdminHandler(svc.Users, svc.Events, nil),
		Health:       handler.NewHealthHandler(svc.Store, nil),
		WebSocket:    ws,
	})

	return &testAPI{router: engine, svc: svc, ws: ws, publisher: publisher}
}

// do sends a JSON request, authenticated when token is non-empty.
func (a *testAPI) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func tokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := utils.GenerateToken(user, testutil.TestJWTSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func fieldNames(body map[string]any) []string {
	raw, _ := body["fields"].([]any)
	names := make([]string, 0, len(raw))
	for _, f := range raw {
		if m, ok := f.(map[string]any); ok {
			names = append(names, m["field"].(string))
		}
	}
	return names
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
