package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/tokenbid-backend/internal/models"
	"github.com/ignatzorin/tokenbid-backend/internal/service"
)

// Интерфейсы сервисов, от которых зависят хэндлеры. Реализуются пакетом service.

type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput, meta service.SessionMeta) (*service.AuthResult, error)
	Login(ctx context.Context, in service.LoginInput, meta service.SessionMeta) (*service.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string, meta service.SessionMeta) (*service.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutOthers(ctx context.Context, userID uuid.UUID, currentRefreshToken string) (int64, error)
	Me(ctx context.Context, userID uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, in service.UpdateProfileInput) (*models.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error
}

type ProjectService interface {
	CreateProject(ctx context.Context, clientID uuid.UUID, in service.CreateProjectInput) (*models.Project, error)
	GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error)
	ListMyProjects(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.Project, error)
	UpdateStatus(ctx context.Context, projectID, ownerID uuid.UUID, status string) (*models.Project, error)
	SaveProject(ctx context.Context, projectID, userID uuid.UUID) (*models.SavedProject, error)
	UnsaveProject(ctx context.Context, projectID, userID uuid.UUID) error
	ListSavedProjects(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Project, error)
}

type BidService interface {
	CreateBid(ctx context.Context, projectID, freelancerID uuid.UUID, in service.CreateBidInput) (*service.CreateBidResult, error)
	AcceptBid(ctx context.Context, bidID, ownerID uuid.UUID) (*models.Bid, error)
	RejectBid(ctx context.Context, bidID, ownerID uuid.UUID) (*models.Bid, error)
	WithdrawBid(ctx context.Context, bidID, freelancerID uuid.UUID) (*service.WithdrawResult, error)
	GetBid(ctx context.Context, bidID, userID uuid.UUID) (*models.Bid, error)
	ListProjectBids(ctx context.Context, projectID, ownerID uuid.UUID) ([]models.Bid, error)
	ListMyBids(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Bid, error)
}

type LedgerService interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.TokenTransaction, error)
	PurchaseTokens(ctx context.Context, userID uuid.UUID, amount int64) (*service.PurchaseResult, error)
}

type ConnectionService interface {
	UnlockProposal(ctx context.Context, conversationID, userID uuid.UUID) (*service.UnlockResult, error)
	CreateDirectConnection(ctx context.Context, initiatorID, recipientID uuid.UUID) (*service.DirectConnectionResult, error)
	CheckConnection(ctx context.Context, userID, otherID uuid.UUID) (*service.ConnectionCheck, error)
	ListMyConnections(ctx context.Context, userID uuid.UUID) ([]models.Connection, error)
}

type ConversationService interface {
	SendMessage(ctx context.Context, conversationID, senderID uuid.UUID, content string) (*models.Message, error)
	ListMessages(ctx context.Context, conversationID, userID uuid.UUID, limit, offset int) ([]models.Message, error)
	GetConversation(ctx context.Context, conversationID, userID uuid.UUID) (*service.ConversationView, error)
	ListMyConversations(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Conversation, error)
	MarkRead(ctx context.Context, conversationID, userID uuid.UUID) (int64, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
}

type ReviewService interface {
	CreateReview(ctx context.Context, projectID, reviewerID uuid.UUID, in service.CreateReviewInput) (*models.Review, error)
	CanReview(ctx context.Context, projectID, userID uuid.UUID) (*service.ReviewEligibility, error)
	ListUserReviews(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Review, error)
}

type NotificationService interface {
	ListNotifications(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

type SeedService interface {
	SeedData(ctx context.Context, numUsers, numProjects int) (*service.SeedResult, error)
}
