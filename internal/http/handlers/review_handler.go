package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/tokenbid-backend/internal/http/handlers/common"
	"github.com/ignatzorin/tokenbid-backend/internal/service"
)

type ReviewHandler struct {
	reviews ReviewService
}

func NewReviewHandler(reviews ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// CreateReview POST /projects/:id/reviews
func (h *ReviewHandler) CreateReview(c *gin.Context) {
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
		Rating  int      `json:"rating" binding:"required"`
		Comment string   `json:"comment"`
		Tags    []string `json:"tags"`
	}
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	review, err := h.reviews.CreateReview(c.Request.Context(), projectID, userID, service.CreateReviewInput{
		Rating:  req.Rating,
		Comment: req.Comment,
		Tags:    req.Tags,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, review)
}

// CanReview GET /projects/:id/can-review
func (h *ReviewHandler) CanReview(c *gin.Context) {
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

	res, err := h.reviews.CanReview(c.Request.Context(), projectID, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondOK(c, res)
}

// ListUserReviews GET /users/:id/reviews
func (h *ReviewHandler) ListUserReviews(c *gin.Context) {
	userID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	limit, offset := common.GetPagination(c)
	reviews, err := h.reviews.ListUserReviews(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondOK(c, gin.H{"reviews": reviews})
}
