package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/tokenbid-backend/internal/http/handlers/common"
)

// TokenHandler отдаёт баланс и журнал токенов, принимает покупку пакетов.
type TokenHandler struct {
	ledger LedgerService
}

// NewTokenHandler создаёт хэндлер.
func NewTokenHandler(ledger LedgerService) *TokenHandler {
	return &TokenHandler{ledger: ledger}
}

// GetBalance обрабатывает GET /tokens/balance.
func (h *TokenHandler) GetBalance(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	wallet, err := h.ledger.GetBalance(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondOK(c, wallet)
}

// ListTransactions обрабатывает GET /tokens/transactions.
func (h *TokenHandler) ListTransactions(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	limit, offset := common.GetPagination(c)
	txs, err := h.ledger.ListTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondOK(c, gin.H{"transactions": txs})
}

// Purchase обрабатывает POST /tokens/purchase. Оплата внешним провайдером
// здесь не проводится, пакет зачисляется сразу.
func (h *TokenHandler) Purchase(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	var req struct {
		Amount int64 `json:"amount" binding:"required"`
	}
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	result, err := h.ledger.PurchaseTokens(c.Request.Context(), userID, req.Amount)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondOK(c, result)
}
