package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procura/backend/internal/infrastructure/auth"
	"github.com/procura/backend/internal/infrastructure/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID(t *testing.T) {
	t.Run("generates an ID when none is supplied", func(t *testing.T) {
		router := gin.New()
		router.Use(RequestID())
		router.GET("/", func(c *gin.Context) {
			assert.NotEmpty(t, GetRequestID(c))
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	})

	t.Run("honors an incoming request ID", func(t *testing.T) {
		router := gin.New()
		router.Use(RequestID())
		router.GET("/", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "caller-supplied-id")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "caller-supplied-id", w.Header().Get(RequestIDHeader))
	})
}

func TestCORSWithConfig(t *testing.T) {
	t.Run("rejects origins outside the whitelist", func(t *testing.T) {
		router := gin.New()
		router.Use(CORSWithConfig(CORSConfig{AllowOrigins: []string{"https://app.example.com"}}))
		router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("allows whitelisted origin and answers preflight", func(t *testing.T) {
		cfg := DefaultCORSConfig()
		cfg.AllowOrigins = []string{"https://app.example.com"}

		router := gin.New()
		router.Use(CORSWithConfig(cfg))
		router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		req.Header.Set("Origin", "https://app.example.com")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestBodyLimit(t *testing.T) {
	t.Run("rejects oversized bodies", func(t *testing.T) {
		router := gin.New()
		router.Use(BodyLimit(8))
		router.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("this body is too large"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("passes small bodies through", func(t *testing.T) {
		router := gin.New()
		router.Use(BodyLimit(1024))
		router.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("ok"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestJWTAuth(t *testing.T) {
	newService := func() *auth.JWTService {
		return auth.NewJWTService(config.JWTConfig{
			Secret:                "test-secret-at-least-32-characters-long",
			AccessTokenExpiration: 15 * time.Minute,
			Issuer:                "procura-test",
		})
	}

	t.Run("rejects missing authorization header", func(t *testing.T) {
		router := gin.New()
		router.Use(JWTAuth(newService()))
		router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects a malformed token", func(t *testing.T) {
		router := gin.New()
		router.Use(JWTAuth(newService()))
		router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+"not-a-token")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("accepts a valid token and exposes claims", func(t *testing.T) {
		service := newService()
		operatorID := uuid.New()
		token, _, err := service.GenerateToken(auth.GenerateTokenInput{
			OperatorID: operatorID,
			Name:       "Test Operator",
			Role:       "buyer",
		})
		require.NoError(t, err)

		router := gin.New()
		router.Use(JWTAuth(service))
		router.GET("/", func(c *gin.Context) {
			assert.Equal(t, operatorID.String(), GetJWTOperatorID(c))
			claims := GetJWTClaims(c)
			require.NotNil(t, claims)
			assert.Equal(t, "buyer", claims.Role)
			c.Status(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("skips configured paths", func(t *testing.T) {
		router := gin.New()
		router.Use(JWTAuth(newService()))
		router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
