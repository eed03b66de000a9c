package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-import-api/internal/models"
)

// CurrentClaims returns the claims JWT or OptionalJWT stored for the
// request, or nil for anonymous callers such as signed report downloads.
func CurrentClaims(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	claims, _ := value.(*models.JWTClaims)
	return claims
}

// ImportActor names the caller running an import, for logs.
func ImportActor(c *gin.Context) string {
	return CurrentClaims(c).Actor()
}
