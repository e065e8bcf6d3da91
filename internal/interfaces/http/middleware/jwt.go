package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/procura/backend/internal/infrastructure/auth"
	"github.com/procura/backend/internal/interfaces/http/dto"
)

// JWT context keys
const (
	JWTClaimsKey     = "jwt_claims"
	JWTOperatorIDKey = "jwt_operator_id"
	JWTRoleKey       = "jwt_role"
	AuthHeaderKey    = "Authorization"
	BearerPrefix     = "Bearer "
)

// JWTConfig holds configuration for the JWT middleware
type JWTConfig struct {
	JWTService *auth.JWTService
	// SkipPaths are exact paths that don't require authentication
	SkipPaths []string
}

// DefaultJWTConfig returns default JWT middleware configuration
func DefaultJWTConfig(jwtService *auth.JWTService) JWTConfig {
	return JWTConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/health",
			"/api/v1/health",
		},
	}
}

// JWTAuth creates JWT authentication middleware with default configuration
func JWTAuth(jwtService *auth.JWTService) gin.HandlerFunc {
	return JWTAuthWithConfig(DefaultJWTConfig(jwtService))
}

// JWTAuthWithConfig creates JWT authentication middleware with custom config
func JWTAuthWithConfig(cfg JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath {
				c.Next()
				return
			}
		}

		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			abortUnauthorized(c, dto.ErrCodeTokenInvalid, "Invalid authorization header format")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
		claims, err := cfg.JWTService.ValidateToken(tokenString)
		if err != nil {
			code := dto.ErrCodeTokenInvalid
			if errors.Is(err, auth.ErrExpiredToken) {
				code = dto.ErrCodeTokenExpired
			}
			abortUnauthorized(c, code, "Token validation failed")
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTOperatorIDKey, claims.OperatorID)
		c.Set(JWTRoleKey, claims.Role)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}

// GetJWTClaims returns the validated claims, or nil outside an authenticated request
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(JWTClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetJWTOperatorID returns the operator ID from the validated token
func GetJWTOperatorID(c *gin.Context) string {
	return c.GetString(JWTOperatorIDKey)
}
