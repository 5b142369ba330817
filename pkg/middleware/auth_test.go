package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/insightboard/insightboard/internal/models"
	"github.com/stretchr/testify/require"
)

// fakeVerifier implements SessionVerifier
type fakeVerifier struct{}

func (f *fakeVerifier) Verify(raw string) (models.Identity, error) {
	if raw == "goodtoken" {
		return models.Identity{UserID: 42, Username: "alice"}, nil
	}
	return models.Identity{}, errors.New("invalid token")
}

func newGateRouter(calls *int) *gin.Engine {
	g := gin.New()
	g.GET("/", SessionMiddleware("auth_token", &fakeVerifier{}), func(c *gin.Context) {
		*calls++
		id, ok := IdentityFrom(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		ctxID, ok := IdentityFromContext(c.Request.Context())
		if !ok || ctxID != id {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, id)
	})
	return g
}

func TestSessionMiddleware_NoCookie(t *testing.T) {
	calls := 0
	g := newGateRouter(&calls)
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusUnauthorized, rw.Code)
	require.Contains(t, rw.Body.String(), "No token provided")
	require.Zero(t, calls)
}

func TestSessionMiddleware_InvalidToken(t *testing.T) {
	calls := 0
	g := newGateRouter(&calls)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: "forged"})
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)

	require.Equal(t, http.StatusUnauthorized, rw.Code)
	require.Contains(t, rw.Body.String(), "Invalid token")
	require.Zero(t, calls)
}

func TestSessionMiddleware_ValidToken(t *testing.T) {
	calls := 0
	g := newGateRouter(&calls)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: "goodtoken"})
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)

	require.Equal(t, http.StatusOK, rw.Code)
	require.Equal(t, 1, calls)
	var got models.Identity
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &got))
	require.Equal(t, models.Identity{UserID: 42, Username: "alice"}, got)
}

func TestSessionMiddleware_IgnoresAuthorizationHeader(t *testing.T) {
	calls := 0
	g := newGateRouter(&calls)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer goodtoken")
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)

	require.Equal(t, http.StatusUnauthorized, rw.Code)
	require.Zero(t, calls)
}
