package middleware

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"careercompass/utils"
)

// Context keys set by Auth for downstream handlers.
const (
	CtxUserID      = "auth_user_id"
	CtxIsAdmin     = "auth_is_admin"
	CtxBearerToken = "auth_bearer_token"
	CtxRequestID   = "request_id"
)

// RequestID tags every request with a unique id, honoring one supplied by the
// caller, so log lines across the service boundary can be correlated.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = utils.GenerateID()
		}
		c.Set(CtxRequestID, id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

// Logger is a Gin middleware for logging HTTP requests and responses.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		latency := time.Since(startTime)
		method := c.Request.Method
		uri := c.Request.RequestURI
		statusCode := c.Writer.Status()
		clientIP := c.ClientIP()
		errorsStr := c.Errors.ByType(gin.ErrorTypePrivate).String()
		if errorsStr == "" {
			errorsStr = "None"
		}

		c.Writer.Header().Set("X-Response-Time", latency.String())

		log.Printf("[GIN] %s | %3d | %13v | %15s | %-7s %s\n      Errors: %s",
			startTime.Format("2006/01/02 - 15:04:05"),
			statusCode,
			latency,
			clientIP,
			method,
			uri,
			errorsStr,
		)
	}
}

// Auth verifies the bearer token minted by the auth service and exposes the
// caller's identity to handlers. A missing or invalid identity is a hard 401;
// there is no anonymous fallback.
func Auth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid {
			log.Printf("WARN: [Auth] Rejected invalid token from %s: %v", c.ClientIP(), err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
			return
		}
		userID, _ := claims["sub"].(string)
		if userID == "" {
			// A token without a subject is as good as no token.
			log.Printf("WARN: [Auth] Token from %s carried no subject claim.", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token carries no user identity"})
			return
		}
		isAdmin, _ := claims["is_admin"].(bool)

		c.Set(CtxUserID, userID)
		c.Set(CtxIsAdmin, isAdmin)
		c.Set(CtxBearerToken, raw)
		c.Next()
	}
}

// RequireAdmin gates the admin dashboard routes. Must run after Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isAdmin, _ := c.Get(CtxIsAdmin); isAdmin != true {
			userID, _ := c.Get(CtxUserID)
			log.Printf("WARN: [Auth] Non-admin userID '%v' attempted to access %s.", userID, c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}
