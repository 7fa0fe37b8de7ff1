package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/tokenbid-backend/internal/http/handlers/common"
)

// ConnectionHandler обслуживает разблокировку предложений и прямые контакты.
type ConnectionHandler struct {
	connections ConnectionService
}

// NewConnectionHandler создаёт хэндлер.
func NewConnectionHandler(connections ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{connections: connections}
}

// CreateDirect обрабатывает POST /connections/direct.
func (h *ConnectionHandler) CreateDirect(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	var req struct {
		RecipientID uuid.UUID `json:"recipient_id" binding:"required"`
	}
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	result, err := h.connections.CreateDirectConnection(c.Request.Context(), userID, req.RecipientID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, result)
}

// UnlockProposal обрабатывает POST /conversations/:id/unlock.
func (h *ConnectionHandler) UnlockProposal(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	conversationID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	result, err := h.connections.UnlockProposal(c.Request.Context(), conversationID, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondOK(c, result)
}

// ListMyConnections обрабатывает GET /connections.
func (h *ConnectionHandler) ListMyConnections(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	conns, err := h.connections.ListMyConnections(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondOK(c, gin.H{"connections": conns})
}

// CheckConnection обрабатывает GET /connections/check/:userId.
func (h *ConnectionHandler) CheckConnection(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	otherID, err := common.ParseUUIDParam(c, "userId")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	check, err := h.connections.CheckConnection(c.Request.Context(), userID, otherID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondOK(c, check)
}
