package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gymgrid/backend/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

// Claims are the ID-token claims attached to a verified request.
type Claims struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// SessionClaims extend Claims with the session id that the revocation
// registry tracks. Only session cookies carry a SID.
type SessionClaims struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Name  string `json:"name"`
	SID   string `json:"sid"`
	jwt.RegisteredClaims
}

// TokenService mints and validates the two credential kinds: short-lived
// bearer ID tokens and long-lived session-cookie tokens.
type TokenService struct {
	secret     []byte
	idTokenTTL time.Duration
	sessionTTL time.Duration
}

// NewTokenService creates a token service.
func NewTokenService(secret string, idTokenTTL, sessionTTL time.Duration) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		idTokenTTL: idTokenTTL,
		sessionTTL: sessionTTL,
	}
}

// SessionTTL returns the session cookie lifetime.
func (s *TokenService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// GenerateIDToken creates a short-lived bearer token for the user.
func (s *TokenService) GenerateIDToken(u *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UID:   u.ID.Hex(),
		Email: u.Email,
		Name:  u.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.idTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// VerifyIDToken parses and validates a bearer token, returning claims or error.
func (s *TokenService) VerifyIDToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, s.keyFunc)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateSessionToken creates a long-lived session cookie value bound to sid.
func (s *TokenService) GenerateSessionToken(u *models.User, sid string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		UID:   u.ID.Hex(),
		Email: u.Email,
		Name:  u.Name,
		SID:   sid,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseSessionToken validates a session cookie value. Revocation is checked
// separately by the Verifier; this only covers signature and expiry.
func (s *TokenService) ParseSessionToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, s.keyFunc)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.SID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *TokenService) keyFunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, ErrInvalidToken
	}
	return s.secret, nil
}
