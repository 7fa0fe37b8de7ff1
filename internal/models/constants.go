package models

// Роли пользователей
const (
	RoleClient     = "client"
	RoleFreelancer = "freelancer"
	RoleAdmin      = "admin"
)

// ProjectStatus константы статусов проекта
const (
	ProjectStatusDraft      = "draft"
	ProjectStatusOpen       = "open"
	ProjectStatusInProgress = "in_progress"
	ProjectStatusCompleted  = "completed"
	ProjectStatusCancelled  = "cancelled"
	ProjectStatusClosed     = "closed"
)

// BidStatus константы статусов ставки
const (
	BidStatusPending  = "pending"
	BidStatusAccepted = "accepted"
	BidStatusRejected = "rejected"
)

// Типы диалогов и связей
const (
	ConversationTypeDirect          = "direct"
	ConversationTypeProjectProposal = "project_proposal"
)

// ConnectionStatus константы статусов связи
const (
	ConnectionStatusPending   = "pending"
	ConnectionStatusConnected = "connected"
	ConnectionStatusExpired   = "expired"
)

// Типы токен-транзакций
const (
	TransactionTypeUnlockDirectContact = "unlock_direct_contact"
	TransactionTypeSubmitProposal      = "submit_proposal"
	TransactionTypeViewProposal        = "view_proposal"
	TransactionTypeRefund              = "refund"
	TransactionTypePlatformFee         = "platform_fee"
	TransactionTypePurchase            = "purchase"
)

// Типы уведомлений
const (
	NotificationTypeBidReceived         = "bid_received"
	NotificationTypeBidAccepted         = "bid_accepted"
	NotificationTypeBidRejected         = "bid_rejected"
	NotificationTypeMessage             = "message"
	NotificationTypeProjectStatusChange = "project_status_change"
	NotificationTypeReviewReceived      = "review_received"
)

// ValidSignupRoles роли, которые можно выбрать при регистрации
var ValidSignupRoles = map[string]struct{}{
	RoleClient:     {},
	RoleFreelancer: {},
}

// ValidProjectStatuses список валидных статусов проекта
var ValidProjectStatuses = map[string]struct{}{
	ProjectStatusDraft:      {},
	ProjectStatusOpen:       {},
	ProjectStatusInProgress: {},
	ProjectStatusCompleted:  {},
	ProjectStatusCancelled:  {},
	ProjectStatusClosed:     {},
}
