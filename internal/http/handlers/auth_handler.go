package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/tokenbid-backend/internal/http/handlers/common"
	"github.com/ignatzorin/tokenbid-backend/internal/pkg/apperror"
	"github.com/ignatzorin/tokenbid-backend/internal/service"
)

// AuthHandler предоставляет HTTP слой для регистрации и логина.
type AuthHandler struct {
	auth AuthService
}

// NewAuthHandler создаёт хэндлер.
func NewAuthHandler(auth AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register обрабатывает POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Name     string   `json:"name" binding:"required"`
		Email    string   `json:"email" binding:"required"`
		Password string   `json:"password" binding:"required"`
		Roles    []string `json:"roles"`
	}
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	result, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Roles:    req.Roles,
	}, sessionMeta(c))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, result)
}

// Login обрабатывает POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}, sessionMeta(c))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondOK(c, result)
}

// Refresh обрабатывает POST /auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	tokens, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken, sessionMeta(c))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondOK(c, gin.H{"tokens": tokens})
}

// Logout обрабатывает POST /auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	if err := h.auth.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondOK(c, gin.H{"message": "выход выполнен"})
}

// LogoutOthers обрабатывает DELETE /auth/sessions: завершает все сессии, кроме текущей.
func (h *AuthHandler) LogoutOthers(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.RefreshToken == "" {
		req.RefreshToken = c.GetHeader("X-Refresh-Token")
	}
	if req.RefreshToken == "" {
		common.RespondAppError(c, apperror.New(apperror.ErrCodeValidation, "refresh_token обязателен"))
		return
	}

	revoked, err := h.auth.LogoutOthers(c.Request.Context(), userID, req.RefreshToken)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondOK(c, gin.H{"revoked": revoked})
}

// UpdateMe обрабатывает PUT /users/me: имя и роли.
func (h *AuthHandler) UpdateMe(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	var req struct {
		Name  *string  `json:"name"`
		Roles []string `json:"roles"`
	}
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	user, err := h.auth.UpdateProfile(c.Request.Context(), userID, service.UpdateProfileInput{
		Name:  req.Name,
		Roles: req.Roles,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondOK(c, user)
}

// ChangePassword обрабатывает PUT /users/me/password. После смены нужно войти заново.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required"`
	}
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	if err := h.auth.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondOK(c, gin.H{"message": "пароль изменён, войдите заново"})
}

// Me обрабатывает GET /users/me.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	user, err := h.auth.Me(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondOK(c, user)
}

func sessionMeta(c *gin.Context) service.SessionMeta {
	return service.SessionMeta{
		UserAgent: c.GetHeader("User-Agent"),
		IP:        c.ClientIP(),
	}
}
