package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Baaaki/apartment-booking/internal/models"
	"github.com/Baaaki/apartment-booking/internal/utils"
	"github.com/Baaaki/apartment-booking/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenCookie is the cookie the auth handlers set on login.
const TokenCookie = "token"

// UserLookup loads the current state of a token's subject.
type UserLookup interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

func AuthMiddleware(jwtSecret string, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get token from header or cookie
		tokenString, ok := extractToken(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "unauthorized", "Authorization header required")
			return
		}

		// 2. Validate token
		claims, err := utils.ValidateToken(tokenString, jwtSecret)
		if err != nil {
			abort(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
			return
		}

		// 3. Re-check the account; blocked users lose access immediately
		user, err := users.GetUserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			logger.Log.Error("Failed to load token subject",
				zap.Uint("user_id", claims.UserID),
				zap.Error(err),
			)
			abort(c, http.StatusInternalServerError, "internal", "internal server error")
			return
		}
		if user == nil {
			abort(c, http.StatusUnauthorized, "unauthorized", "User no longer exists")
			return
		}
		if user.IsDeleted {
			abort(c, http.StatusForbidden, "forbidden", "account is blocked")
			return
		}

		// 4. Role comes from the store, not the token
		claims.Role = user.Role
		c.Set("user_id", user.ID)
		c.Set("user_email", user.Email)
		c.Set("user_role", user.Role)
		c.Set("claims", claims)

		c.Next()
	}
}

func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("user_role")
		if !exists {
			abort(c, http.StatusUnauthorized, "unauthorized", "Unauthorized")
			return
		}
		if role != models.RoleAdmin {
			abort(c, http.StatusForbidden, "forbidden", "Admin access required")
			return
		}
		c.Next()
	}
}

func extractToken(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			return "", false
		}
		return token, true
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil && cookie != "" {
		return cookie, true
	}
	return "", false
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": message,
		"code":  code,
	})
}
