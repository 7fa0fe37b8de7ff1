package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/tokenbid-backend/internal/models"
)

// TxRunner открывает транзакцию для многошаговых операций.
// DB используется для чтений вне транзакции.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(q sqlx.ExtContext) error) error
	DB() sqlx.ExtContext
}

// Методы, принимающие q, участвуют в транзакции вызывающего.

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*models.User, error)
	LockForUpdate(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) error
	RecomputeRating(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (float64, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, name string, roles []string) (*models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	CreateSession(ctx context.Context, session *models.Session) error
	DeleteSession(ctx context.Context, refreshToken string) error
	DeleteAllSessionsExcept(ctx context.Context, userID uuid.UUID, exceptRefreshToken string) (int64, error)
}

type WalletRepository interface {
	Ensure(ctx context.Context, q sqlx.ExtContext, userID uuid.UUID, initial int64) (bool, error)
	Get(ctx context.Context, q sqlx.QueryerContext, userID uuid.UUID) (*models.Wallet, error)
	ApplyDelta(ctx context.Context, q sqlx.ExtContext, userID uuid.UUID, delta int64) (int64, error)
	InsertTransaction(ctx context.Context, q sqlx.ExtContext, t *models.TokenTransaction) error
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.TokenTransaction, error)
}

type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*models.Project, error)
	GetForShare(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*models.Project, error)
	GetForUpdate(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*models.Project, error)
	UpdateStatus(ctx context.Context, q sqlx.ExtContext, id uuid.UUID, status string) error
	SetAcceptedBid(ctx context.Context, q sqlx.ExtContext, id, bidID uuid.UUID) error
	ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.Project, error)
}

type SavedProjectRepository interface {
	Save(ctx context.Context, userID, projectID uuid.UUID) (*models.SavedProject, error)
	Remove(ctx context.Context, userID, projectID uuid.UUID) error
	ListProjects(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Project, error)
}

type BidRepository interface {
	Create(ctx context.Context, q sqlx.ExtContext, bid *models.Bid) error
	GetByID(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*models.Bid, error)
	GetForUpdate(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*models.Bid, error)
	ExistsForFreelancer(ctx context.Context, q sqlx.QueryerContext, projectID, freelancerID uuid.UUID) (bool, error)
	UpdateStatus(ctx context.Context, q sqlx.ExtContext, id uuid.UUID, status string) error
	RejectPendingExcept(ctx context.Context, q sqlx.ExtContext, projectID, keepID uuid.UUID) ([]models.Bid, error)
	Delete(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) error
	ListUnlockedForProject(ctx context.Context, q sqlx.QueryerContext, projectID uuid.UUID) ([]models.Bid, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Bid, error)
	ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Bid, error)
}

type ConversationRepository interface {
	Create(ctx context.Context, q sqlx.ExtContext, c *models.Conversation) error
	GetByID(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*models.Conversation, error)
	GetForUpdate(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*models.Conversation, error)
	MarkRecipientUnlocked(ctx context.Context, q sqlx.ExtContext, id uuid.UUID, at time.Time) error
	Touch(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) error
	IDsByBid(ctx context.Context, q sqlx.QueryerContext, bidID uuid.UUID) ([]uuid.UUID, error)
	DeleteByIDs(ctx context.Context, q sqlx.ExtContext, ids []uuid.UUID) (int64, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Conversation, error)
}

type MessageRepository interface {
	Create(ctx context.Context, q sqlx.ExtContext, m *models.Message) error
	ListByConversation(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]models.Message, error)
	DeleteByConversations(ctx context.Context, q sqlx.ExtContext, conversationIDs []uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

type ConnectionRepository interface {
	Insert(ctx context.Context, q sqlx.ExtContext, c *models.Connection, now time.Time) error
	GetByConversation(ctx context.Context, q sqlx.QueryerContext, conversationID uuid.UUID) (*models.Connection, error)
	MarkRecipientUnlocked(ctx context.Context, q sqlx.ExtContext, conversationID uuid.UUID, at time.Time) error
	ExistsDirectBetween(ctx context.Context, q sqlx.QueryerContext, a, b uuid.UUID) (bool, error)
	ListBetween(ctx context.Context, a, b uuid.UUID) ([]models.Connection, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Connection, error)
	DeleteByConversations(ctx context.Context, q sqlx.ExtContext, conversationIDs []uuid.UUID) (int64, error)
}

type ReviewRepository interface {
	Exists(ctx context.Context, q sqlx.QueryerContext, reviewerID, revieweeID, projectID uuid.UUID) (bool, error)
	Create(ctx context.Context, q sqlx.ExtContext, review *models.Review) error
	ListByReviewee(ctx context.Context, revieweeID uuid.UUID, limit, offset int) ([]models.Review, error)
}

// NotificationRepository описывает взаимодействие сервиса с хранилищем уведомлений.
type NotificationRepository interface {
	CreateBatch(ctx context.Context, q sqlx.ExtContext, notifications []*models.Notification) error
	List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

// Repositories набор хранилищ, общий для сервисов.
type Repositories struct {
	Users         UserRepository
	Wallets       WalletRepository
	Projects      ProjectRepository
	SavedProjects SavedProjectRepository
	Bids          BidRepository
	Conversations ConversationRepository
	Messages      MessageRepository
	Connections   ConnectionRepository
	Reviews       ReviewRepository
	Notifications NotificationRepository
}
