package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/tokenbid-backend/internal/http/handlers/common"
	"github.com/ignatzorin/tokenbid-backend/internal/models"
	"github.com/ignatzorin/tokenbid-backend/internal/service"
)

// BidHandler обслуживает жизненный цикл ставок.
type BidHandler struct {
	bids BidService
}

// NewBidHandler создаёт хэндлер.
func NewBidHandler(bids BidService) *BidHandler {
	return &BidHandler{bids: bids}
}

// CreateBid обрабатывает POST /projects/:id/bids.
func (h *BidHandler) CreateBid(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	projectID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	var req struct {
		Proposal      string  `json:"proposal" binding:"required"`
		BidAmount     float64 `json:"bid_amount" binding:"required"`
		EstimatedDays *int    `json:"estimated_days"`
	}
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	result, err := h.bids.CreateBid(c.Request.Context(), projectID, userID, service.CreateBidInput{
		Proposal:      req.Proposal,
		BidAmount:     req.BidAmount,
		EstimatedDays: req.EstimatedDays,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, result)
}

// AcceptBid обрабатывает POST /bids/:id/accept.
func (h *BidHandler) AcceptBid(c *gin.Context) {
	h.decide(c, h.bids.AcceptBid)
}

// RejectBid обрабатывает POST /bids/:id/reject.
func (h *BidHandler) RejectBid(c *gin.Context) {
	h.decide(c, h.bids.RejectBid)
}

func (h *BidHandler) decide(c *gin.Context, action func(ctx context.Context, bidID, ownerID uuid.UUID) (*models.Bid, error)) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	bidID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	bid, err := action(c.Request.Context(), bidID, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondOK(c, bid)
}

// WithdrawBid обрабатывает DELETE /bids/:id.
func (h *BidHandler) WithdrawBid(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	bidID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	result, err := h.bids.WithdrawBid(c.Request.Context(), bidID, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondOK(c, result)
}

// GetBid обрабатывает GET /bids/:id.
func (h *BidHandler) GetBid(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	bidID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	bid, err := h.bids.GetBid(c.Request.Context(), bidID, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondOK(c, bid)
}

// ListProjectBids обрабатывает GET /projects/:id/bids. Только для владельца.
func (h *BidHandler) ListProjectBids(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	projectID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	bids, err := h.bids.ListProjectBids(c.Request.Context(), projectID, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondOK(c, gin.H{"bids": bids})
}

// ListMyBids обрабатывает GET /bids/my.
func (h *BidHandler) ListMyBids(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	limit, offset := common.GetPagination(c)
	bids, err := h.bids.ListMyBids(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondOK(c, gin.H{"bids": bids})
}
