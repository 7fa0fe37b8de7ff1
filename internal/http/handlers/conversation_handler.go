package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/tokenbid-backend/internal/http/handlers/common"
)

// ConversationHandler обслуживает диалоги и сообщения.
type ConversationHandler struct {
	conversations ConversationService
}

// NewConversationHandler создаёт хэндлер.
func NewConversationHandler(conversations ConversationService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

// ListMyConversations обрабатывает GET /conversations.
func (h *ConversationHandler) ListMyConversations(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	limit, offset := common.GetPagination(c)
	list, err := h.conversations.ListMyConversations(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondOK(c, gin.H{"conversations": list})
}

// GetConversation обрабатывает GET /conversations/:id.
func (h *ConversationHandler) GetConversation(c *gin.Context) {
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

	view, err := h.conversations.GetConversation(c.Request.Context(), conversationID, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondOK(c, view)
}

// ListMessages обрабатывает GET /conversations/:id/messages.
func (h *ConversationHandler) ListMessages(c *gin.Context) {
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

	limit, offset := common.GetPagination(c)
	messages, err := h.conversations.ListMessages(c.Request.Context(), conversationID, userID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondOK(c, gin.H{"messages": messages})
}

// SendMessage обрабатывает POST /conversations/:id/messages.
// Заблокированный диалог отвечает 423.
func (h *ConversationHandler) SendMessage(c *gin.Context) {
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

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	msg, err := h.conversations.SendMessage(c.Request.Context(), conversationID, userID, req.Content)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, msg)
}

// MarkRead обрабатывает PUT /conversations/:id/read.
func (h *ConversationHandler) MarkRead(c *gin.Context) {
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

	n, err := h.conversations.MarkRead(c.Request.Context(), conversationID, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondOK(c, gin.H{"marked": n})
}

// UnreadCount обрабатывает GET /conversations/unread-count.
func (h *ConversationHandler) UnreadCount(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	count, err := h.conversations.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondOK(c, gin.H{"count": count})
}
