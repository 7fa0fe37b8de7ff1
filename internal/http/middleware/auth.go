package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/tokenbid-backend/internal/pkg/apperror"
	"github.com/ignatzorin/tokenbid-backend/internal/service"
)

// Context ключи для gin.Context.
const (
	ContextUserIDKey = "userID"
	ContextRolesKey  = "roles"
)

// AuthMiddleware проверяет JWT access токен.
func AuthMiddleware(tokens *service.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			AbortWithError(c, apperror.ErrUnauthorized)
			return
		}

		raw := strings.TrimPrefix(auth, "Bearer ")
		userID, roles, err := tokens.ParseAccess(raw)
		if err != nil || userID == uuid.Nil {
			AbortWithError(c, apperror.New(apperror.ErrCodeUnauthorized, "токен невалиден"))
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Set(ContextRolesKey, roles)
		c.Next()
	}
}

// RequireRole пропускает пользователя, у которого есть хотя бы одна из ролей.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, _ := c.Get(ContextRolesKey)
		have, _ := raw.([]string)
		for _, want := range roles {
			for _, r := range have {
				if r == want {
					c.Next()
					return
				}
			}
		}
		AbortWithError(c, apperror.New(apperror.ErrCodeForbidden, "недостаточно прав для этого действия"))
	}
}
