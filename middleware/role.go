package middleware

import (
	"net/http"

	"barberly/models"
	"barberly/utils"

	"github.com/gin-gonic/gin"
)

// RequireRoles only lets actors with one of the given roles through. It must
// run after JWTAuthMiddleware.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{Error: "Not authenticated", Code: "unauthenticated"})
			return
		}
		if !allowed[actor.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, utils.ErrorResponse{
				Error: "Role " + string(actor.Role) + " may not access this resource",
				Code:  "forbidden",
			})
			return
		}
		c.Next()
	}
}
