package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/gymgrid/backend/internal/models"
	"github.com/gymgrid/backend/pkg/response"
	"github.com/gymgrid/backend/pkg/utils"
)

// UserStore is the persistence surface the auth handler needs.
type UserStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	RecordLogin(ctx context.Context, id primitive.ObjectID) error
	UpsertGoogle(ctx context.Context, email, name string) (*models.User, error)
}

// SessionRegistrar issues and revokes session ids.
type SessionRegistrar interface {
	Register(ctx context.Context, sid, uid string) error
	Revoke(ctx context.Context, sid string) error
}

// GoogleTokenVerifier validates a client-posted Google ID token.
type GoogleTokenVerifier interface {
	Verify(ctx context.Context, token string) (*GoogleUser, error)
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	users      UserStore
	tokens     *TokenService
	sessions   SessionRegistrar
	google     GoogleTokenVerifier // nil when Google login is not configured
	cookieName string
	secure     bool
	logger     *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(users UserStore, tokens *TokenService, sessions SessionRegistrar, google GoogleTokenVerifier, cookieName string, secure bool, logger *zap.Logger) *Handler {
	return &Handler{
		users:      users,
		tokens:     tokens,
		sessions:   sessions,
		google:     google,
		cookieName: cookieName,
		secure:     secure,
		logger:     logger,
	}
}

// SignupRequest is the body for POST /auth/signup.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GoogleLoginRequest is the body for POST /auth/google-login.
type GoogleLoginRequest struct {
	IDToken string `json:"idToken"`
}

// Signup handles POST /auth/signup.
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	var missing []string
	if req.Name == "" {
		missing = append(missing, "name")
	}
	if req.Email == "" {
		missing = append(missing, "email")
	}
	if req.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		response.BadRequest(c, "missing required fields: "+strings.Join(missing, ", "))
		return
	}

	if _, err := h.users.GetByEmail(c.Request.Context(), req.Email); err == nil {
		response.BadRequest(c, "email already registered")
		return
	} else if !errors.Is(err, models.ErrNotFound) {
		response.Internal(c, "failed to create user")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to create user")
		return
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Phone:        req.Phone,
		Provider:     models.ProviderPassword,
	}
	if err := h.users.Create(c.Request.Context(), user); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			response.BadRequest(c, "email already registered")
			return
		}
		response.Internal(c, "failed to create user")
		return
	}

	response.Created(c, gin.H{"uid": user.ID.Hex()})
}

// Login handles POST /auth/login. Issues a bearer ID token and sets the
// session cookie.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		response.BadRequest(c, "email and password required")
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.BadRequest(c, "invalid email or password")
		return
	}
	if !utils.CheckPassword(req.Password, user.PasswordHash) {
		response.BadRequest(c, "invalid email or password")
		return
	}

	idToken, err := h.tokens.GenerateIDToken(user)
	if err != nil {
		response.Internal(c, "failed to issue token")
		return
	}
	if err := h.startSession(c, user); err != nil {
		response.Internal(c, "failed to start session")
		return
	}
	if err := h.users.RecordLogin(c.Request.Context(), user.ID); err != nil {
		h.logger.Warn("record login", zap.Error(err))
	}

	response.OK(c, gin.H{"user": user.ToPublic(), "idToken": idToken})
}

// GoogleLogin handles POST /auth/google-login.
func (h *Handler) GoogleLogin(c *gin.Context) {
	if h.google == nil {
		response.Unauthorized(c, "google login not configured")
		return
	}
	var req GoogleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IDToken == "" {
		response.Unauthorized(c, "invalid google token")
		return
	}

	gu, err := h.google.Verify(c.Request.Context(), req.IDToken)
	if err != nil {
		response.Unauthorized(c, "invalid google token")
		return
	}

	user, err := h.users.UpsertGoogle(c.Request.Context(), gu.Email, gu.Name)
	if err != nil {
		response.Internal(c, "failed to sign in")
		return
	}
	if err := h.startSession(c, user); err != nil {
		response.Internal(c, "failed to start session")
		return
	}
	if err := h.users.RecordLogin(c.Request.Context(), user.ID); err != nil {
		h.logger.Warn("record login", zap.Error(err))
	}

	response.OK(c, gin.H{"user": user.ToPublic()})
}

// Profile handles GET /auth/profile (authenticated).
func (h *Handler) Profile(c *gin.Context) {
	ident, ok := CurrentIdentity(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}
	uid, err := primitive.ObjectIDFromHex(ident.UID)
	if err != nil {
		response.Unauthorized(c, "unauthorized")
		return
	}
	user, err := h.users.GetByID(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			response.NotFound(c, "profile not found")
			return
		}
		response.Internal(c, "failed to load profile")
		return
	}
	response.OK(c, gin.H{"user": user.ToPublic(), "profile": user})
}

// Logout handles POST /auth/logout. Revokes the session if one is presented
// and clears the cookie either way.
func (h *Handler) Logout(c *gin.Context) {
	if cookie, err := c.Cookie(h.cookieName); err == nil && cookie != "" {
		if claims, err := h.tokens.ParseSessionToken(cookie); err == nil {
			if err := h.sessions.Revoke(c.Request.Context(), claims.SID); err != nil {
				h.logger.Warn("revoke session", zap.Error(err))
			}
		}
	}
	h.clearSessionCookie(c)
	response.OKMessage(c, "logged out")
}

func (h *Handler) startSession(c *gin.Context, user *models.User) error {
	sid := uuid.NewString()
	if err := h.sessions.Register(c.Request.Context(), sid, user.ID.Hex()); err != nil {
		return err
	}
	token, err := h.tokens.GenerateSessionToken(user, sid)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, token, int(h.tokens.SessionTTL().Seconds()), "/", "", h.secure, true)
	return nil
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, "", -1, "/", "", h.secure, true)
}
