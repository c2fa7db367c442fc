package middleware

import (
	"net/http"
	"strings"

	"hallbook/internal/shared/config"
	"hallbook/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// AdminAuthWithConfig creates an admin JWT authentication middleware with config
func AdminAuthWithConfig(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "Authorization header is required", nil, nil)
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "authorization header format must be Bearer {token}", nil, nil)
			c.Abort()
			return
		}

		tokenString := parts[1]

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.Admin.JWTSecret), nil
		})

		if err != nil || !token.Valid {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "invalid or expired token", nil, nil)
			c.Abort()
			return
		}

		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if role, ok := claims["role"]; !ok || role != "admin" {
				response.RespondJSON(c, "error", http.StatusForbidden, "Insufficient permissions", nil, nil)
				c.Abort()
				return
			}
			c.Set("admin", true)
		}

		c.Next()
	}
}

// SessionToken extracts the booking session token from the X-Session-Token
// header and stores it on the request context. Routes that mutate seat holds
// require it; read-only routes do not.
func SessionToken(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader("X-Session-Token"))
		if token == "" && required {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "X-Session-Token header is required", nil, nil)
			c.Abort()
			return
		}
		if token != "" {
			c.Set("session_token", token)
		}
		c.Next()
	}
}

// GetSessionToken returns the session token previously set by SessionToken.
func GetSessionToken(c *gin.Context) string {
	if v, ok := c.Get("session_token"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
