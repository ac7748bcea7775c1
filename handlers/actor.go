package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fadhlanhapp/rentlot-backend/models"
	"github.com/fadhlanhapp/rentlot-backend/utils"
)

// Identity headers set by the upstream auth proxy
const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"
)

const actorKey = "actor"

// RequireActor rejects requests without an actor identity and stores the actor on the context
func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := models.Actor{
			ID:   strings.TrimSpace(c.GetHeader(HeaderActorID)),
			Role: models.ActorRole(strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderActorRole)))),
		}
		if actor.Role == "" {
			actor.Role = models.ActorTenant
		}
		if actor.IsZero() {
			utils.HandleError(c, &utils.AppError{Code: http.StatusUnauthorized, Kind: utils.KindValidation, Message: utils.ErrMissingActor})
			c.Abort()
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// RequireAdmin only lets administrators through. It must run after RequireActor.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !actorFrom(c).IsAdmin() {
			utils.HandleError(c, &utils.AppError{Code: http.StatusForbidden, Kind: utils.KindValidation, Message: utils.ErrAdminOnly})
			c.Abort()
			return
		}
		c.Next()
	}
}

func actorFrom(c *gin.Context) models.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(models.Actor); ok {
			return actor
		}
	}
	return models.Actor{}
}
