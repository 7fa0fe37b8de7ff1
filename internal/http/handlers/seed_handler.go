package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/tokenbid-backend/internal/http/handlers/common"
	"github.com/ignatzorin/tokenbid-backend/internal/service"
)

// SeedHandler генерирует демонстрационные данные. Подключается только в development.
type SeedHandler struct {
	seed SeedService
}

// NewSeedHandler создаёт новый seed handler.
func NewSeedHandler(seed SeedService) *SeedHandler {
	return &SeedHandler{seed: seed}
}

// SeedResponse ответ на запрос генерации данных.
type SeedResponse struct {
	Message  string              `json:"message"`
	Result   *service.SeedResult `json:"result"`
	Password string              `json:"password"`
}

// Seed обрабатывает POST /api/seed?num_users=&num_projects=
func (h *SeedHandler) Seed(c *gin.Context) {
	numUsers := clamp(common.ParseIntQuery(c, "num_users", 30), 2, 500)
	numProjects := clamp(common.ParseIntQuery(c, "num_projects", 20), 1, 1000)

	result, err := h.seed.SeedData(c.Request.Context(), numUsers, numProjects)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondOK(c, SeedResponse{
		Message:  "тестовые данные созданы",
		Result:   result,
		Password: service.SeedPassword,
	})
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
