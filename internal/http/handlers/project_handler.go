package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/tokenbid-backend/internal/http/handlers/common"
	"github.com/ignatzorin/tokenbid-backend/internal/service"
)

// ProjectHandler обслуживает маршруты проектов.
type ProjectHandler struct {
	projects ProjectService
}

// NewProjectHandler создаёт хэндлер.
func NewProjectHandler(projects ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// CreateProject обрабатывает POST /projects. Пустой title генерируется AI.
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	var req struct {
		Title       string  `json:"title"`
		Description string  `json:"description" binding:"required"`
		BudgetMin   float64 `json:"budget_min"`
		BudgetMax   float64 `json:"budget_max"`
		Draft       bool    `json:"draft"`
		Summarize   bool    `json:"summarize"`
	}
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	project, err := h.projects.CreateProject(c.Request.Context(), userID, service.CreateProjectInput{
		Title:       req.Title,
		Description: req.Description,
		BudgetMin:   req.BudgetMin,
		BudgetMax:   req.BudgetMax,
		Draft:       req.Draft,
		Summarize:   req.Summarize,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, project)
}

// GetProject обрабатывает GET /projects/:id.
func (h *ProjectHandler) GetProject(c *gin.Context) {
	projectID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	project, err := h.projects.GetProject(c.Request.Context(), projectID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondOK(c, project)
}

// ListMyProjects обрабатывает GET /projects/my.
func (h *ProjectHandler) ListMyProjects(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	limit, offset := common.GetPagination(c)
	projects, err := h.projects.ListMyProjects(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondOK(c, gin.H{"projects": projects})
}

// UpdateStatus обрабатывает PUT /projects/:id/status.
func (h *ProjectHandler) UpdateStatus(c *gin.Context) {
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
		Status string `json:"status" binding:"required"`
	}
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	project, err := h.projects.UpdateStatus(c.Request.Context(), projectID, userID, req.Status)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondOK(c, project)
}

// SaveProject обрабатывает POST /projects/:id/save.
func (h *ProjectHandler) SaveProject(c *gin.Context) {
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

	saved, err := h.projects.SaveProject(c.Request.Context(), projectID, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, saved)
}

// UnsaveProject обрабатывает DELETE /projects/:id/save.
func (h *ProjectHandler) UnsaveProject(c *gin.Context) {
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

	if err := h.projects.UnsaveProject(c.Request.Context(), projectID, userID); err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondOK(c, gin.H{"message": "проект удалён из сохранённых"})
}

// ListSavedProjects обрабатывает GET /projects/saved.
func (h *ProjectHandler) ListSavedProjects(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	limit, offset := common.GetPagination(c)
	projects, err := h.projects.ListSavedProjects(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondOK(c, gin.H{"projects": projects})
}
