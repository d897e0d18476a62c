package middleware

import (
	"net/http"
	"strings"

	"barberly/models"
	"barberly/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ActorKey is the gin context key holding the authenticated models.Actor.
const ActorKey = "actor"

// JWTAuthMiddleware resolves the bearer token into an actor. System actors
// are never accepted from the outside.
func JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{
				Error: "Missing or invalid Authorization header",
				Code:  "unauthenticated",
			})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		actor, err := utils.ActorFromToken(tokenString)
		if err != nil {
			zap.L().Debug("Rejected bearer token", zap.String("ip", getClientIP(c)), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{
				Error: "Invalid token",
				Code:  "unauthenticated",
			})
			return
		}

		c.Set(ActorKey, actor)
		c.Set("logger", zap.L().With(zap.String("actorId", actor.ID), zap.String("role", string(actor.Role))))
		c.Next()
	}
}

// GetActor returns the actor stored by JWTAuthMiddleware.
func GetActor(c *gin.Context) (models.Actor, bool) {
	v, exists := c.Get(ActorKey)
	if !exists {
		return models.Actor{}, false
	}
	actor, ok := v.(models.Actor)
	return actor, ok
}
