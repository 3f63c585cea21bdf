package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openballot/backend/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(secret)
	require.NoError(t, err)
	return s
}

// authRouter wires Auth with no database; only the pre-database rejection
// paths are exercised here. The authenticated happy path is covered by the
// handler integration tests.
func authRouter() *gin.Engine {
	r := gin.New()
	r.GET("/protected", Auth(nil, testSecret), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestAuthMissingHeader(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)

	authRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMalformedHeader(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token abc123")

	authRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthWrongSecret(t *testing.T) {
	token := signToken(t, []byte("other-secret"), jwt.MapClaims{
		"user_id": 1,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	authRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthExpiredToken(t *testing.T) {
	token := signToken(t, testSecret, jwt.MapClaims{
		"user_id": 1,
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	authRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name      string
		principal *models.Principal
		want      int
	}{
		{"admin allowed", &models.Principal{ID: 1, Role: models.RoleAdmin}, http.StatusOK},
		{"voter forbidden", &models.Principal{ID: 2, Role: models.RoleVoter}, http.StatusForbidden},
		{"unauthenticated forbidden", nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/admin", func(c *gin.Context) {
				if tt.principal != nil {
					c.Set(principalKey, *tt.principal)
				}
			}, RequireAdmin(), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestPrincipalHelper(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := Principal(c)
	assert.False(t, ok)

	c.Set(principalKey, models.Principal{ID: 7, Role: models.RoleVoter})
	p, ok := Principal(c)
	require.True(t, ok)
	assert.Equal(t, 7, p.ID)
	assert.False(t, p.IsAdmin())
}
