package handler

import (
	"errors"
	"net/http"
	"strings"

	"casetrack/internal/model"
	"casetrack/internal/service"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// AuthRequired resolves the bearer token to an active principal and stores
// it on the request context. Suspended users never reach a handler.
func AuthRequired(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		identity, err := authService.ResolveIdentity(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			if errors.Is(err, model.ErrUserSuspended) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account suspended"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(identityKey, *identity)
		c.Next()
	}
}

func identityFrom(c *gin.Context) model.Identity {
	return c.MustGet(identityKey).(model.Identity)
}
