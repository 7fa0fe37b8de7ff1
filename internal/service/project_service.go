package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/tokenbid-backend/internal/domain/valueobject"
	"github.com/ignatzorin/tokenbid-backend/internal/logger"
	"github.com/ignatzorin/tokenbid-backend/internal/models"
	"github.com/ignatzorin/tokenbid-backend/internal/pkg/apperror"
	"github.com/ignatzorin/tokenbid-backend/internal/repository"
	"github.com/ignatzorin/tokenbid-backend/internal/validation"
)

// AIClient генерирует заголовок и краткое описание проекта.
type AIClient interface {
	GenerateProjectTitle(ctx context.Context, description string) (string, error)
	SummarizeProject(ctx context.Context, title, description string) (string, error)
}

// ProjectService отвечает за создание проектов и смену их статуса владельцем.
type ProjectService struct {
	tx            TxRunner
	projects      ProjectRepository
	saved         SavedProjectRepository
	bids          BidRepository
	notifications *NotificationService
	ai            AIClient
	aiTimeout     time.Duration
}

// NewProjectService создаёт сервис. ai может быть nil, тогда заголовок
// обязателен, а краткое описание не заполняется.
func NewProjectService(tx TxRunner, repos Repositories, notifications *NotificationService, ai AIClient, aiTimeout time.Duration) *ProjectService {
	if aiTimeout <= 0 {
		aiTimeout = 8 * time.Second
	}
	return &ProjectService{
		tx:            tx,
		projects:      repos.Projects,
		saved:         repos.SavedProjects,
		bids:          repos.Bids,
		notifications: notifications,
		ai:            ai,
		aiTimeout:     aiTimeout,
	}
}

// CreateProjectInput данные нового проекта.
type CreateProjectInput struct {
	Title       string
	Description string
	BudgetMin   float64
	BudgetMax   float64
	Draft       bool
	Summarize   bool
}

// CreateProject создаёт проект. Пустой заголовок генерируется AI, при сбое
// берётся начало описания.
func (s *ProjectService) CreateProject(ctx context.Context, clientID uuid.UUID, in CreateProjectInput) (*models.Project, error) {
	title := validation.SanitizeText(in.Title)
	description := validation.SanitizeText(in.Description)

	if err := validation.ValidateProjectDescription(description); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateBudget(in.BudgetMin, in.BudgetMax); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	if title == "" {
		title = s.generateTitle(ctx, description)
	}
	if err := validation.ValidateProjectTitle(title); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	project := &models.Project{
		ClientID:    clientID,
		Title:       title,
		Description: description,
		BudgetMin:   in.BudgetMin,
		BudgetMax:   in.BudgetMax,
		Status:      models.ProjectStatusOpen,
	}
	if in.Draft {
		project.Status = models.ProjectStatusDraft
	}
	if in.Summarize {
		project.AISummary = s.summarize(ctx, title, description)
	}

	if err := s.projects.Create(ctx, project); err != nil {
		return nil, translate(err)
	}

	logger.Log.WithFields(logrus.Fields{
		"project_id": project.ID,
		"client_id":  clientID,
		"status":     project.Status,
	}).Info("project created")

	return project, nil
}

// GetProject возвращает проект.
func (s *ProjectService) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	project, err := s.projects.GetByID(ctx, s.tx.DB(), id)
	if err != nil {
		return nil, translate(err)
	}
	return project, nil
}

// ListMyProjects проекты заказчика.
func (s *ProjectService) ListMyProjects(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.Project, error) {
	limit, offset = normalizePage(limit, offset)
	projects, err := s.projects.ListByClient(ctx, clientID, limit, offset)
	if err != nil {
		return nil, translate(err)
	}
	return projects, nil
}

// SaveProject добавляет проект в закладки пользователя.
// Чужой черновик недоступен и не сохраняется.
func (s *ProjectService) SaveProject(ctx context.Context, projectID, userID uuid.UUID) (*models.SavedProject, error) {
	project, err := s.projects.GetByID(ctx, s.tx.DB(), projectID)
	if err != nil {
		return nil, translate(err)
	}
	if project.Status == models.ProjectStatusDraft && project.ClientID != userID {
		return nil, apperror.ErrProjectNotFound
	}

	saved, err := s.saved.Save(ctx, userID, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.New(apperror.ErrCodeConflict, "проект уже сохранён")
		}
		return nil, translate(err)
	}
	return saved, nil
}

// UnsaveProject убирает проект из закладок.
func (s *ProjectService) UnsaveProject(ctx context.Context, projectID, userID uuid.UUID) error {
	return translate(s.saved.Remove(ctx, userID, projectID))
}

// ListSavedProjects сохранённые проекты пользователя, последние первыми.
func (s *ProjectService) ListSavedProjects(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Project, error) {
	limit, offset = normalizePage(limit, offset)
	projects, err := s.saved.ListProjects(ctx, userID, limit, offset)
	if err != nil {
		return nil, translate(err)
	}
	return projects, nil
}

// UpdateStatus переводит проект владельцем по разрешённым переходам.
// Исполнитель принятой ставки получает уведомление.
func (s *ProjectService) UpdateStatus(ctx context.Context, projectID, ownerID uuid.UUID, status string) (*models.Project, error) {
	target, err := valueobject.NewProjectStatus(status)
	if err != nil {
		return nil, err
	}

	var (
		project      *models.Project
		notification *models.Notification
	)

	err = s.tx.WithTx(ctx, func(q sqlx.ExtContext) error {
		p, err := s.projects.GetForUpdate(ctx, q, projectID)
		if err != nil {
			return err
		}
		if p.ClientID != ownerID {
			return apperror.New(apperror.ErrCodeForbidden, "только владелец может менять статус проекта")
		}

		current := valueobject.ProjectStatus(p.Status)
		if !current.CanTransitionTo(target) {
			return apperror.Newf(apperror.ErrCodeConflict, "нельзя перевести проект из %s в %s", current, target)
		}

		if err := s.projects.UpdateStatus(ctx, q, projectID, string(target)); err != nil {
			return err
		}
		p.Status = string(target)

		if p.AcceptedBidID != nil {
			bid, err := s.bids.GetByID(ctx, q, *p.AcceptedBidID)
			if err != nil {
				return err
			}
			notification = &models.Notification{
				UserID:           bid.FreelancerID,
				Type:             models.NotificationTypeProjectStatusChange,
				Title:            "Статус проекта изменён",
				Content:          fmt.Sprintf("Проект «%s» переведён в статус %s", p.Title, target),
				RelatedProjectID: &p.ID,
				RelatedBidID:     &bid.ID,
			}
			if err := s.notifications.Save(ctx, q, notification); err != nil {
				return err
			}
		}

		project = p
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	if notification != nil {
		s.notifications.Push(notification)
	}
	return project, nil
}

func (s *ProjectService) generateTitle(ctx context.Context, description string) string {
	if s.ai != nil {
		aiCtx, cancel := context.WithTimeout(ctx, s.aiTimeout)
		defer cancel()

		title, err := s.ai.GenerateProjectTitle(aiCtx, description)
		if err == nil && strings.TrimSpace(title) != "" {
			return validation.SanitizeText(title)
		}
		logger.Log.WithError(err).Warn("ai title generation failed, falling back to description")
	}
	return fallbackTitle(description)
}

func (s *ProjectService) summarize(ctx context.Context, title, description string) *string {
	if s.ai == nil {
		return nil
	}
	aiCtx, cancel := context.WithTimeout(ctx, s.aiTimeout)
	defer cancel()

	summary, err := s.ai.SummarizeProject(aiCtx, title, description)
	if err != nil || strings.TrimSpace(summary) == "" {
		logger.Log.WithError(err).Warn("ai summary failed")
		return nil
	}
	summary = validation.SanitizeText(summary)
	return &summary
}

// fallbackTitle первая строка описания, обрезанная по длине заголовка.
func fallbackTitle(description string) string {
	line := description
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	return preview(strings.TrimSpace(line), validation.MaxProjectTitleLength-1)
}
