package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-import-api/internal/models"
	appErrors "github.com/noah-isme/sma-import-api/pkg/errors"
	"github.com/noah-isme/sma-import-api/pkg/response"
)

// RequireRoles lets the request through only when the caller holds one of
// roles. Missing claims answer 401, any other role 403.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := CurrentClaims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowed[claims.Role]; ok {
			c.Next()
			return
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// ImportOperators are the roles allowed to run imports.
func ImportOperators() gin.HandlerFunc {
	return RequireRoles(models.ImportOperatorRoles...)
}
