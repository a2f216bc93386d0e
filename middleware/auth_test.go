package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"medisched/config"
	"medisched/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func authRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuthMiddleware())
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"id":   c.MustGet(ContextUserID),
			"role": c.MustGet(ContextUserRole),
		})
	})
	return r
}

func TestJWTAuthMiddleware(t *testing.T) {
	config.AppConfig.JWTSecret = testSecret
	r := authRouter()

	get := func(authorization string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("valid token passes identity through", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"sub":  "doc-1",
			"role": string(models.RoleDoctor),
			"exp":  time.Now().Add(time.Hour).Unix(),
		})

		w := get("Bearer " + token)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "doc-1")
		assert.Contains(t, w.Body.String(), "doctor")
	})

	t.Run("missing header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, get("").Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, get("Token abc").Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := signToken(t, "other-secret", jwt.MapClaims{"sub": "doc-1", "role": "doctor"})
		assert.Equal(t, http.StatusUnauthorized, get("Bearer "+token).Code)
	})

	t.Run("expired token", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"sub":  "doc-1",
			"role": "doctor",
			"exp":  time.Now().Add(-time.Hour).Unix(),
		})
		assert.Equal(t, http.StatusUnauthorized, get("Bearer "+token).Code)
	})

	t.Run("missing role claim", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{"sub": "doc-1"})
		assert.Equal(t, http.StatusUnauthorized, get("Bearer "+token).Code)
	})
}
