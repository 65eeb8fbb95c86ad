package router

import (
	"time"

	"github.com/Baaaki/apartment-booking/internal/handler"
	"github.com/Baaaki/apartment-booking/internal/middleware"
	"github.com/Baaaki/apartment-booking/pkg/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies are the handlers and middleware inputs the router mounts.
type Dependencies struct {
	JWTSecret   string
	Users       middleware.UserLookup
	CORSOrigins []string
	// TrustedProxies may set X-Forwarded-For. Empty trusts none.
	TrustedProxies []string
	IsProduction   bool
	// RateLimiter is optional; nil disables rate limiting.
	RateLimiter *middleware.RateLimiter

	Auth         *handler.AuthHandler
	Apartments   *handler.ApartmentHandler
	Reservations *handler.ReservationHandler
	Payments     *handler.PaymentHandler
	Ratings      *handler.RatingHandler
	Favorites    *handler.FavoriteHandler
	Admin        *handler.AdminHandler
	Health       *handler.HealthHandler
	WebSocket    *handler.WebSocketHandler
}

func New(deps Dependencies) *gin.Engine {
	router := gin.New()

	// The rate limiter and IP bans key on ClientIP, so forwarded headers count only from known proxies.
	if err := router.SetTrustedProxies(deps.TrustedProxies); err != nil {
		logger.Log.Error("Invalid trusted proxies, ignoring forwarded headers",
			zap.Strings("trusted_proxies", deps.TrustedProxies),
			zap.Error(err),
		)
		_ = router.SetTrustedProxies(nil)
	}

	// 1. Global middleware
	router.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.RequestLogger(),
		middleware.SecurityHeadersMiddleware(),
		middleware.HSTSMiddleware(deps.IsProduction),
		cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader, "Retry-After"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)

	router.GET("/api/health", deps.Health.Health)

	api := router.Group("/api")
	if deps.RateLimiter != nil {
		api.Use(deps.RateLimiter.Middleware())
	}

	auth := middleware.AuthMiddleware(deps.JWTSecret, deps.Users)
	admin := middleware.AdminMiddleware()

	// 2. Auth
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", deps.Auth.Register)
		authGroup.POST("/login", deps.Auth.Login)
		authGroup.POST("/logout", deps.Auth.Logout)
		authGroup.GET("/profile", auth, deps.Auth.Profile)
		authGroup.PUT("/change-password", auth, deps.Auth.ChangePassword)
	}

	// 3. Apartments (public reads, admin writes)
	apartments := api.Group("/apartments")
	{
		apartments.GET("", deps.Apartments.List)
		apartments.GET("/categories/list", deps.Apartments.Categories)
		apartments.GET("/locations/list", deps.Apartments.Locations)
		apartments.GET("/:id", deps.Apartments.Get)
		apartments.GET("/:id/availability", deps.Apartments.Availability)

		apartments.POST("", auth, admin, deps.Apartments.Create)
		apartments.PUT("/:id", auth, admin, deps.Apartments.Update)
		apartments.DELETE("/:id", auth, admin, deps.Apartments.Delete)
		apartments.POST("/:id/images", auth, admin, deps.Apartments.UploadImage)
	}

	// 4. Reservations
	reservations := api.Group("/reservations", auth)
	{
		reservations.POST("", deps.Reservations.Create)
		reservations.GET("/my", deps.Reservations.ListMine)
		reservations.GET("/:id", deps.Reservations.Get)
		reservations.PUT("/:id/cancel", deps.Reservations.Cancel)

		reservations.GET("", admin, deps.Reservations.ListAll)
		reservations.PUT("/:id/status", admin, deps.Reservations.UpdateStatus)
		reservations.DELETE("/:id", admin, deps.Reservations.Delete)
	}

	// 5. Payments
	payments := api.Group("/payments", auth)
	{
		payments.POST("", deps.Payments.Create)
		payments.POST("/process", deps.Payments.Process)
		payments.GET("/my", deps.Payments.ListMine)
		payments.GET("/:id", deps.Payments.Get)

		payments.GET("", admin, deps.Payments.ListAll)
		payments.PUT("/:id/refund", admin, deps.Payments.Refund)
	}

	// 6. Ratings
	ratings := api.Group("/ratings")
	{
		ratings.GET("/apartment/:id", deps.Ratings.ListForApartment)
		ratings.GET("/apartment/:id/average", deps.Ratings.Average)

		ratings.POST("", auth, deps.Ratings.SubmitForReservation)
		ratings.POST("/direct", auth, deps.Ratings.SubmitDirect)
		ratings.GET("/my", auth, deps.Ratings.ListMine)
		ratings.PUT("/:id", auth, deps.Ratings.Update)
		ratings.DELETE("/:id", auth, deps.Ratings.Delete)
	}

	// 7. Favorites
	favorites := api.Group("/favorites", auth)
	{
		favorites.POST("", deps.Favorites.Add)
		favorites.GET("", deps.Favorites.List)
		favorites.GET("/check/:apartment_id", deps.Favorites.Check)
		favorites.DELETE("/:apartment_id", deps.Favorites.Remove)
	}

	// 8. User administration
	users := api.Group("/users", auth, admin)
	{
		users.GET("", deps.Admin.ListUsers)
		users.GET("/:id", deps.Admin.GetUser)
		users.PUT("/:id/role", deps.Admin.UpdateRole)
		users.DELETE("/:id", deps.Admin.BlockUser)
		users.PUT("/:id/block", deps.Admin.BlockUser)
		users.PUT("/:id/unblock", deps.Admin.UnblockUser)
		users.PUT("/:id/reactivate", deps.Admin.UnblockUser)
	}

	adminGroup := api.Group("/admin", auth, admin)
	{
		adminGroup.GET("/activity", deps.Admin.Activity)
		adminGroup.POST("/ip-bans", deps.Admin.BanIP)
		adminGroup.DELETE("/ip-bans/:ip", deps.Admin.UnbanIP)
	}

	// 9. Live reservation events
	api.GET("/ws/reservations", auth, deps.WebSocket.HandleWebSocket)

	return router
}
