package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/tokenbid-backend/internal/goroutine"
	"github.com/ignatzorin/tokenbid-backend/internal/logger"
	"github.com/ignatzorin/tokenbid-backend/internal/models"
)

// События, отправляемые по websocket.
const (
	EventNotification = "notification"
	EventMessage      = "message"
)

// Notifier доставляет события подключённым клиентам (websocket hub).
type Notifier interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
}

// NotificationService содержит бизнес-логику работы с уведомлениями.
type NotificationService struct {
	repo     NotificationRepository
	notifier Notifier
	log      *logrus.Entry
}

// NewNotificationService создаёт новый сервис уведомлений. notifier может быть nil.
func NewNotificationService(repo NotificationRepository, notifier Notifier) *NotificationService {
	return &NotificationService{
		repo:     repo,
		notifier: notifier,
		log:      logger.Component("notification_service"),
	}
}

// Save сохраняет уведомления в транзакции вызывающего.
func (s *NotificationService) Save(ctx context.Context, q sqlx.ExtContext, notifications ...*models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return s.repo.CreateBatch(ctx, q, notifications)
}

// Push отправляет сохранённые уведомления получателям. Вызывать после коммита.
func (s *NotificationService) Push(notifications ...*models.Notification) {
	for _, n := range notifications {
		s.Publish(n.UserID, EventNotification, n)
	}
}

// Publish отправляет событие пользователю в фоне. Ошибки доставки только логируются.
func (s *NotificationService) Publish(userID uuid.UUID, event string, data any) {
	if s.notifier == nil {
		return
	}
	goroutine.SafeGo(func() {
		if err := s.notifier.BroadcastToUser(userID, event, data); err != nil {
			s.log.WithFields(logrus.Fields{
				"user_id": userID,
				"event":   event,
				"error":   err.Error(),
			}).Warn("не удалось отправить событие по websocket")
		}
	})
}

// ListNotifications возвращает список уведомлений пользователя.
func (s *NotificationService) ListNotifications(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error) {
	limit, offset = normalizePage(limit, offset)
	return s.repo.List(ctx, userID, limit, offset, unreadOnly)
}

// MarkAsRead отмечает уведомление пользователя как прочитанное.
func (s *NotificationService) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	return translate(s.repo.MarkAsRead(ctx, id, userID))
}

// MarkAllAsRead отмечает все уведомления пользователя как прочитанные.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// CountUnread возвращает количество непрочитанных уведомлений.
func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

// normalizePage ограничивает параметры пагинации.
func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
