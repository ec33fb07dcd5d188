package auth

import (
	"context"
	"errors"

	"google.golang.org/api/idtoken"
)

var ErrGoogleToken = errors.New("invalid google token")

// GoogleUser is the subset of Google ID-token claims the service uses.
type GoogleUser struct {
	Subject string
	Email   string
	Name    string
}

// GoogleVerifier validates client-posted Google ID tokens against the
// configured OAuth client id.
type GoogleVerifier struct {
	clientID string
}

// NewGoogleVerifier creates a Google token verifier.
func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID}
}

// Verify checks the token's signature, expiry, and audience with Google's
// certs and extracts the profile claims.
func (g *GoogleVerifier) Verify(ctx context.Context, token string) (*GoogleUser, error) {
	payload, err := idtoken.Validate(ctx, token, g.clientID)
	if err != nil {
		return nil, ErrGoogleToken
	}
	email, _ := payload.Claims["email"].(string)
	name, _ := payload.Claims["name"].(string)
	if email == "" {
		return nil, ErrGoogleToken
	}
	return &GoogleUser{Subject: payload.Subject, Email: email, Name: name}, nil
}
