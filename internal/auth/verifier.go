package auth

import (
	"context"
)

// Identity is the verified claim set attached to authenticated requests.
type Identity struct {
	UID   string
	Email string
	Name  string
}

// SessionChecker answers whether a session id is still live.
type SessionChecker interface {
	Active(ctx context.Context, sid string) (bool, error)
}

// Verifier resolves credential carriers to identities for the auth
// middleware. Session cookies are revocation-checked; bearer ID tokens are
// signature/expiry-checked only. All failures collapse to ErrInvalidToken so
// callers cannot distinguish why a credential was rejected.
type Verifier struct {
	tokens   *TokenService
	sessions SessionChecker
}

// NewVerifier creates a verifier over the token service and session registry.
func NewVerifier(tokens *TokenService, sessions SessionChecker) *Verifier {
	return &Verifier{tokens: tokens, sessions: sessions}
}

// VerifySessionCookie validates a session cookie value and checks revocation.
func (v *Verifier) VerifySessionCookie(ctx context.Context, cookie string) (*Identity, error) {
	claims, err := v.tokens.ParseSessionToken(cookie)
	if err != nil {
		return nil, ErrInvalidToken
	}
	active, err := v.sessions.Active(ctx, claims.SID)
	if err != nil || !active {
		return nil, ErrInvalidToken
	}
	return &Identity{UID: claims.UID, Email: claims.Email, Name: claims.Name}, nil
}

// VerifyIDToken validates a bearer ID token.
func (v *Verifier) VerifyIDToken(_ context.Context, token string) (*Identity, error) {
	claims, err := v.tokens.VerifyIDToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return &Identity{UID: claims.UID, Email: claims.Email, Name: claims.Name}, nil
}
