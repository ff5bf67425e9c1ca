package auth

import (
	"errors"
	"net/http"

	"reminders/internal/utils"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// RequireValidToken checks the bearer token on the request and returns who it belongs to
func (i *TokenIssuer) RequireValidToken(c *gin.Context) (Identity, error) {
	token, ok := utils.BearerToken(c)
	if !ok {
		return Identity{}, ErrMissingToken
	}
	return i.ValidateToken(token)
}

// AuthMiddleware rejects requests without a valid bearer token and stores the
// identity in the context for handlers
func AuthMiddleware(i *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := i.RequireValidToken(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message(err)})
			return
		}
		c.Set(identityKey, id)
		c.Set("username", id.Username)
		c.Next()
	}
}

// GetIdentity returns the identity set by AuthMiddleware
func GetIdentity(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

func message(err error) string {
	switch {
	case errors.Is(err, ErrMissingToken):
		return "token is missing"
	case errors.Is(err, ErrExpiredToken):
		return "token has expired"
	default:
		return "invalid token"
	}
}
