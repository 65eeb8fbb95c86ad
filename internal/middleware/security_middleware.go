package middleware

import (
	"github.com/gin-gonic/gin"
)

// SecurityHeadersMiddleware adds security headers to all responses
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. No MIME sniffing; an uploaded image is never run as script
		c.Header("X-Content-Type-Options", "nosniff")

		// 2. No framing
		c.Header("X-Frame-Options", "DENY")

		// 3. Legacy browsers only; CSP covers the rest
		c.Header("X-XSS-Protection", "1; mode=block")

		// 4. Content Security Policy
		c.Header("Content-Security-Policy",
			"default-src 'self'; "+
				"script-src 'self'; "+
				"style-src 'self' 'unsafe-inline'; "+
				"img-src 'self' data: https:; "+ // apartment images are served from object storage
				"font-src 'self'; "+
				"connect-src 'self' ws: wss:; "+ // reservation status stream
				"frame-ancestors 'none';",
		)

		// 5. Referrer Policy
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// 6. Permissions Policy
		c.Header("Permissions-Policy",
			"camera=(), microphone=(), geolocation=(), payment=()",
		)

		c.Next()
	}
}

// HSTSMiddleware enforces HTTPS (only for production)
func HSTSMiddleware(isProduction bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isProduction {
			// max-age: 1 year
			c.Header("Strict-Transport-Security",
				"max-age=31536000; includeSubDomains; preload",
			)
		}
		c.Next()
	}
}
