package common

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/tokenbid-backend/internal/http/middleware"
	"github.com/ignatzorin/tokenbid-backend/internal/pkg/apperror"
)

var (
	// ErrUserNotFound пользователь не найден в контексте запроса
	ErrUserNotFound = apperror.New(apperror.ErrCodeUnauthorized, "пользователь не найден в контексте")

	// ErrInvalidUUID неверный формат UUID
	ErrInvalidUUID = apperror.New(apperror.ErrCodeBadRequest, "неверный формат UUID")
)

// CurrentUserID извлекает userID, положенный AuthMiddleware.
func CurrentUserID(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return uuid.Nil, ErrUserNotFound
	}

	userID, ok := raw.(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, ErrUserNotFound
	}

	return userID, nil
}

// ParseUUIDParam читает UUID из параметра пути.
func ParseUUIDParam(c *gin.Context, paramName string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(c.Param(paramName))
	if err != nil {
		return uuid.Nil, apperror.Newf(apperror.ErrCodeBadRequest, "параметр %s должен быть валидным UUID", paramName)
	}
	return parsed, nil
}

// BindJSON разбирает тело запроса. Ошибка биндинга становится VALIDATION_ERROR.
func BindJSON(c *gin.Context, req any) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, "некорректное тело запроса: "+err.Error())
	}
	return nil
}

// RespondAppError отвечает ошибкой в формате {"error": {"code", "message"}}.
func RespondAppError(c *gin.Context, err error) {
	middleware.WriteError(c, err)
}

// RespondJSON отвечает JSON с указанным статусом.
func RespondJSON(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, data)
}

// RespondOK отвечает 200.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// ParseIntQuery читает целочисленный query параметр с запасным значением.
func ParseIntQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

// GetPagination извлекает limit и offset из query с значениями по умолчанию.
func GetPagination(c *gin.Context) (limit, offset int) {
	limit = ParseIntQuery(c, "limit", 20)
	offset = ParseIntQuery(c, "offset", 0)
	if limit > 100 {
		limit = 100
	}
	if limit < 1 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return
}
