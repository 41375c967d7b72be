package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"taskboard/pkg/logger"
)

const authCookieName = "authToken"

// FailureInjection 500s a fraction of mutating requests before they reach
// the handler, so clients exercise their rollback and retry paths. roll
// returns a value in [0,1); pass math/rand.Float64 in production and a
// fixed function in tests.
func FailureInjection(rate float64, roll func() float64) gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if (method == http.MethodPost || method == http.MethodPatch) && roll() < rate {
			logger.Debug(c.Request.Context(), "Injecting simulated failure", "method", method, "path", c.Request.URL.Path)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// AuthMiddleware gates mutating task routes on a valid session token,
// taken from the authToken cookie or a Bearer header.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		tokenStr, err := c.Cookie(authCookieName)
		if err != nil || tokenStr == "" {
			const prefix = "Bearer "
			if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, prefix) {
				tokenStr = strings.TrimSpace(auth[len(prefix):])
			}
		}
		if tokenStr == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			logger.Debug(ctx, "Missing session token")
			c.Abort()
			return
		}
		claims, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
		if err != nil || !claims.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			logger.Debug(ctx, "Session token rejected", "error", err)
			c.Abort()
			return
		}
		c.Set("user", claims.Claims.(*jwt.RegisteredClaims).Subject)
		c.Next()
	}
}
