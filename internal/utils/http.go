package utils

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// BearerToken returns the token from an "Authorization: Bearer <token>" header.
// ok is false when the header is missing or uses another scheme.
func BearerToken(c *gin.Context) (token string, ok bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
