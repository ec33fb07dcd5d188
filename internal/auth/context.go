package auth

import "github.com/gin-gonic/gin"

const identityKey = "auth.identity"

// SetIdentity attaches the verified identity to the request context.
func SetIdentity(c *gin.Context, id *Identity) {
	c.Set(identityKey, id)
}

// CurrentIdentity returns the identity set by the auth middleware.
func CurrentIdentity(c *gin.Context) (*Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*Identity)
	return id, ok
}
