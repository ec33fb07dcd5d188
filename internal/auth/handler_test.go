package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/gymgrid/backend/internal/models"
	"github.com/gymgrid/backend/pkg/utils"
)

type fakeUsers struct {
	byEmail map[string]*models.User

	logins   []primitive.ObjectID
	upserted *models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byEmail: map[string]*models.User{}}
}

func (f *fakeUsers) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, models.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	if _, ok := f.byEmail[u.Email]; ok {
		return models.ErrDuplicate
	}
	u.ID = primitive.NewObjectID()
	f.byEmail[u.Email] = u
	return nil
}

func (f *fakeUsers) RecordLogin(_ context.Context, id primitive.ObjectID) error {
	f.logins = append(f.logins, id)
	return nil
}

func (f *fakeUsers) UpsertGoogle(_ context.Context, email, name string) (*models.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	u := &models.User{ID: primitive.NewObjectID(), Email: email, Name: name, Provider: models.ProviderGoogle}
	f.byEmail[email] = u
	f.upserted = u
	return u, nil
}

type fakeRegistrar struct {
	registered map[string]string
	revoked    []string
}

func (f *fakeRegistrar) Register(_ context.Context, sid, uid string) error {
	if f.registered == nil {
		f.registered = map[string]string{}
	}
	f.registered[sid] = uid
	return nil
}

func (f *fakeRegistrar) Revoke(_ context.Context, sid string) error {
	f.revoked = append(f.revoked, sid)
	return nil
}

type fakeGoogle struct {
	users map[string]*GoogleUser
}

func (f *fakeGoogle) Verify(_ context.Context, token string) (*GoogleUser, error) {
	u, ok := f.users[token]
	if !ok {
		return nil, ErrGoogleToken
	}
	return u, nil
}

type authFixture struct {
	router   *gin.Engine
	users    *fakeUsers
	sessions *fakeRegistrar
	tokens   *TokenService
}

func newAuthFixture(t *testing.T, google GoogleTokenVerifier) *authFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &authFixture{
		users:    newFakeUsers(),
		sessions: &fakeRegistrar{},
		tokens:   NewTokenService("test-secret", time.Hour, time.Hour),
	}
	h := NewHandler(f.users, f.tokens, f.sessions, google, "session", false, zap.NewNop())

	f.router = gin.New()
	f.router.POST("/auth/signup", h.Signup)
	f.router.POST("/auth/login", h.Login)
	f.router.POST("/auth/google-login", h.GoogleLogin)
	f.router.POST("/auth/logout", h.Logout)
	f.router.GET("/auth/profile", func(c *gin.Context) {
		// Stand-in for the auth middleware.
		if uid := c.GetHeader("X-Test-UID"); uid != "" {
			SetIdentity(c, &Identity{UID: uid})
		}
		h.Profile(c)
	})
	return f
}

func (f *authFixture) do(method, path string, body interface{}, mutate func(*http.Request)) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if mutate != nil {
		mutate(req)
	}
	f.router.ServeHTTP(w, req)
	return w
}

func (f *authFixture) seedUser(t *testing.T, email, password string) *models.User {
	t.Helper()
	hash, err := utils.HashPassword(password)
	require.NoError(t, err)
	u := &models.User{
		ID:           primitive.NewObjectID(),
		Name:         "Ada",
		Email:        email,
		PasswordHash: hash,
		Provider:     models.ProviderPassword,
	}
	f.users.byEmail[email] = u
	return u
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == "session" {
			return c
		}
	}
	return nil
}

func TestSignup(t *testing.T) {
	f := newAuthFixture(t, nil)

	w := f.do(http.MethodPost, "/auth/signup", gin.H{
		"name":     "Ada",
		"email":    "ada@example.com",
		"password": "hunter22",
	}, nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"uid"`)
	require.Contains(t, f.users.byEmail, "ada@example.com")
	u := f.users.byEmail["ada@example.com"]
	assert.Equal(t, models.ProviderPassword, u.Provider)
	assert.True(t, utils.CheckPassword("hunter22", u.PasswordHash))
}

func TestSignupMissingFieldsListed(t *testing.T) {
	f := newAuthFixture(t, nil)

	w := f.do(http.MethodPost, "/auth/signup", gin.H{"name": "Ada"}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "missing required fields: email, password")
}

func TestSignupDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t, nil)
	f.seedUser(t, "ada@example.com", "hunter22")

	w := f.do(http.MethodPost, "/auth/signup", gin.H{
		"name":     "Other",
		"email":    "ada@example.com",
		"password": "different",
	}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already registered")
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newAuthFixture(t, nil)
	f.seedUser(t, "ada@example.com", "hunter22")

	tests := []struct {
		name string
		body gin.H
	}{
		{name: "wrong password", body: gin.H{"email": "ada@example.com", "password": "nope"}},
		{name: "unknown email", body: gin.H{"email": "ghost@example.com", "password": "hunter22"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(http.MethodPost, "/auth/login", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestLoginIssuesTokenAndSession(t *testing.T) {
	f := newAuthFixture(t, nil)
	u := f.seedUser(t, "ada@example.com", "hunter22")

	w := f.do(http.MethodPost, "/auth/login", gin.H{
		"email":    "ada@example.com",
		"password": "hunter22",
	}, nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			IDToken string            `json:"idToken"`
			User    models.UserPublic `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, u.ID.Hex(), body.Data.User.ID)

	claims, err := f.tokens.VerifyIDToken(body.Data.IDToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID.Hex(), claims.UID)

	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	sc, err := f.tokens.ParseSessionToken(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, u.ID.Hex(), f.sessions.registered[sc.SID])
	assert.True(t, cookie.HttpOnly)

	assert.Equal(t, []primitive.ObjectID{u.ID}, f.users.logins)
}

func TestGoogleLoginInvalidToken(t *testing.T) {
	f := newAuthFixture(t, &fakeGoogle{users: map[string]*GoogleUser{}})

	w := f.do(http.MethodPost, "/auth/google-login", gin.H{"idToken": "bad"}, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGoogleLoginNotConfigured(t *testing.T) {
	f := newAuthFixture(t, nil)

	w := f.do(http.MethodPost, "/auth/google-login", gin.H{"idToken": "whatever"}, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGoogleLoginCreatesUserAndSession(t *testing.T) {
	f := newAuthFixture(t, &fakeGoogle{users: map[string]*GoogleUser{
		"good-token": {Subject: "g-123", Email: "ada@example.com", Name: "Ada"},
	}})

	w := f.do(http.MethodPost, "/auth/google-login", gin.H{"idToken": "good-token"}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, f.users.upserted)
	assert.Equal(t, models.ProviderGoogle, f.users.upserted.Provider)
	assert.NotNil(t, sessionCookie(w))
}

func TestLogoutRevokesSession(t *testing.T) {
	f := newAuthFixture(t, nil)
	u := f.seedUser(t, "ada@example.com", "hunter22")
	cookie, err := f.tokens.GenerateSessionToken(u, "sid-1")
	require.NoError(t, err)

	w := f.do(http.MethodPost, "/auth/logout", nil, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "session", Value: cookie})
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"sid-1"}, f.sessions.revoked)

	cleared := sessionCookie(w)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.True(t, cleared.MaxAge < 0)
}

func TestLogoutWithoutCookieStillSucceeds(t *testing.T) {
	f := newAuthFixture(t, nil)

	w := f.do(http.MethodPost, "/auth/logout", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, f.sessions.revoked)
}

func TestProfile(t *testing.T) {
	f := newAuthFixture(t, nil)
	u := f.seedUser(t, "ada@example.com", "hunter22")

	w := f.do(http.MethodGet, "/auth/profile", nil, func(req *http.Request) {
		req.Header.Set("X-Test-UID", u.ID.Hex())
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"uid":"`+u.ID.Hex()+`"`)
	assert.NotContains(t, w.Body.String(), "password_hash")
}

func TestProfileUnknownUser(t *testing.T) {
	f := newAuthFixture(t, nil)

	w := f.do(http.MethodGet, "/auth/profile", nil, func(req *http.Request) {
		req.Header.Set("X-Test-UID", primitive.NewObjectID().Hex())
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}
