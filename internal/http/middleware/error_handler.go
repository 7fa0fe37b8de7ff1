package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/tokenbid-backend/internal/logger"
	"github.com/ignatzorin/tokenbid-backend/internal/pkg/apperror"
)

// ErrorBody формат ошибки во всех ответах API.
type ErrorBody struct {
	Code    apperror.ErrorCode `json:"code"`
	Message string             `json:"message"`
}

// ErrorResponse оборачивает ErrorBody.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorHandler отвечает за ошибки, которые хэндлеры положили в c.Errors,
// и за панику внутри цепочки.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Log.WithFields(logrus.Fields{
					"panic":  r,
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
				}).Error("panic in handler")
				AbortWithError(c, apperror.New(apperror.ErrCodeInternal, "внутренняя ошибка сервера"))
			}
		}()

		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}
		WriteError(c, c.Errors.Last().Err)
	}
}

// WriteError пишет ошибку в едином формате. Ошибки вне таксономии
// логируются и маскируются.
func WriteError(c *gin.Context, err error) {
	status, body := render(c, err)
	c.JSON(status, ErrorResponse{Error: body})
}

// AbortWithError прерывает цепочку и пишет ошибку.
func AbortWithError(c *gin.Context, err error) {
	status, body := render(c, err)
	c.AbortWithStatusJSON(status, ErrorResponse{Error: body})
}

func render(c *gin.Context, err error) (int, ErrorBody) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.HTTPStatus < http.StatusInternalServerError {
		return appErr.HTTPStatus, ErrorBody{Code: appErr.Code, Message: appErr.Message}
	}

	msg := "<nil>"
	if err != nil {
		msg = err.Error()
	}
	logger.Log.WithFields(logrus.Fields{
		"error":  msg,
		"path":   c.Request.URL.Path,
		"method": c.Request.Method,
	}).Error("request error")

	return http.StatusInternalServerError, ErrorBody{
		Code:    apperror.ErrCodeInternal,
		Message: "внутренняя ошибка сервера",
	}
}
