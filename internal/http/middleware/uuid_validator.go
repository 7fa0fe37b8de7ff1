package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/tokenbid-backend/internal/pkg/apperror"
)

// UUIDValidator проверяет, что параметр с указанным именем является валидным UUID.
// Использование: router.GET("/bids/:id", UUIDValidator("id"), handler.GetBid)
func UUIDValidator(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := uuid.Parse(c.Param(paramName)); err != nil {
			AbortWithError(c, apperror.New(apperror.ErrCodeBadRequest,
				"параметр "+paramName+" должен быть валидным UUID"))
			return
		}
		c.Next()
	}
}
