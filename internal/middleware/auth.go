package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gymgrid/backend/internal/auth"
	"github.com/gymgrid/backend/pkg/response"
)

const bearerPrefix = "Bearer "

// IdentityVerifier resolves credential carriers to verified identities.
type IdentityVerifier interface {
	VerifySessionCookie(ctx context.Context, cookie string) (*auth.Identity, error)
	VerifyIDToken(ctx context.Context, token string) (*auth.Identity, error)
}

// Authenticate gates a route group behind the two credential carriers,
// strictly cookie-first: a present-but-invalid cookie rejects the request even
// if a valid bearer token is also attached. Every failure is a uniform 401 so
// callers cannot probe verification internals.
func Authenticate(verifier IdentityVerifier, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
			ident, err := verifier.VerifySessionCookie(c.Request.Context(), cookie)
			if err != nil {
				unauthorized(c)
				return
			}
			auth.SetIdentity(c, ident)
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if strings.HasPrefix(header, bearerPrefix) {
			ident, err := verifier.VerifyIDToken(c.Request.Context(), strings.TrimPrefix(header, bearerPrefix))
			if err != nil {
				unauthorized(c)
				return
			}
			auth.SetIdentity(c, ident)
			c.Next()
			return
		}

		unauthorized(c)
	}
}

func unauthorized(c *gin.Context) {
	response.Unauthorized(c, "unauthorized")
	c.Abort()
}
