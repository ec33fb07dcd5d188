package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/gymgrid/backend/internal/auth"
	"github.com/gymgrid/backend/internal/models"
	"github.com/gymgrid/backend/pkg/response"
)

const cookieName = "session"

type fakeSessions struct {
	active map[string]bool
}

func (f *fakeSessions) Active(_ context.Context, sid string) (bool, error) {
	return f.active[sid], nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *auth.TokenService, *fakeSessions) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens := auth.NewTokenService("test-secret", time.Hour, time.Hour)
	sessions := &fakeSessions{active: map[string]bool{}}
	verifier := auth.NewVerifier(tokens, sessions)

	r := gin.New()
	r.GET("/protected", Authenticate(verifier, cookieName), func(c *gin.Context) {
		ident, _ := auth.CurrentIdentity(c)
		response.OK(c, gin.H{"uid": ident.UID})
	})
	return r, tokens, sessions
}

func protectedUser() *models.User {
	return &models.User{ID: primitive.NewObjectID(), Name: "Ada", Email: "ada@example.com"}
}

func TestAuthenticateNoCredentials(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"unauthorized"`)
}

func TestAuthenticateValidCookie(t *testing.T) {
	r, tokens, sessions := newTestRouter(t)
	u := protectedUser()
	sessions.active["sid-1"] = true
	cookie, err := tokens.GenerateSessionToken(u, "sid-1")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: cookie})
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), u.ID.Hex())
}

func TestAuthenticateRevokedSession(t *testing.T) {
	r, tokens, _ := newTestRouter(t)
	cookie, err := tokens.GenerateSessionToken(protectedUser(), "sid-gone")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: cookie})
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateValidBearer(t *testing.T) {
	r, tokens, _ := newTestRouter(t)
	u := protectedUser()
	idToken, err := tokens.GenerateIDToken(u)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+idToken)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), u.ID.Hex())
}

// A bad cookie rejects the request even when a valid bearer token rides along.
func TestAuthenticateCookieTakesPrecedence(t *testing.T) {
	r, tokens, _ := newTestRouter(t)
	idToken, err := tokens.GenerateIDToken(protectedUser())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: "garbage"})
	req.Header.Set("Authorization", "Bearer "+idToken)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateMalformedAuthorizationHeader(t *testing.T) {
	r, tokens, _ := newTestRouter(t)
	idToken, err := tokens.GenerateIDToken(protectedUser())
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{name: "lowercase scheme", header: "bearer " + idToken},
		{name: "no scheme", header: idToken},
		{name: "wrong scheme", header: "Basic " + idToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", tt.header)
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}
