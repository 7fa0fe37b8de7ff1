package router

import (
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"

	"github.com/ignatzorin/tokenbid-backend/internal/config"
	"github.com/ignatzorin/tokenbid-backend/internal/http/handlers"
	"github.com/ignatzorin/tokenbid-backend/internal/http/middleware"
	"github.com/ignatzorin/tokenbid-backend/internal/metrics"
	"github.com/ignatzorin/tokenbid-backend/internal/models"
	"github.com/ignatzorin/tokenbid-backend/internal/service"
)

// Handlers набор хэндлеров API. Seed и Metrics могут быть nil.
type Handlers struct {
	Auth          *handlers.AuthHandler
	Projects      *handlers.ProjectHandler
	Bids          *handlers.BidHandler
	Tokens        *handlers.TokenHandler
	Connections   *handlers.ConnectionHandler
	Conversations *handlers.ConversationHandler
	Reviews       *handlers.ReviewHandler
	Notifications *handlers.NotificationHandler
	Health        *handlers.HealthHandler
	WS            *handlers.WSHandler
	Seed          *handlers.SeedHandler
}

func SetupRouter(
	cfg *config.Config,
	h Handlers,
	tokenManager *service.TokenManager,
	limiterStore limiter.Store,
	m *metrics.Metrics,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	if m != nil {
		r.Use(m.Middleware())
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	r.GET("/health", h.Health.Health)

	api := r.Group("/api")
	api.Use(middleware.RateLimitMiddleware(limiterStore, cfg.RateLimitLimit, cfg.RateLimitPeriod))

	if h.Seed != nil && cfg.Env == "development" {
		api.POST("/seed", h.Seed.Seed)
	}

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(limiterStore, 5, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.POST("/logout", h.Auth.Logout)
	}

	// Публичные маршруты
	api.GET("/ws", h.WS.Handle)
	api.GET("/projects/:id", middleware.UUIDValidator("id"), h.Projects.GetProject)
	api.GET("/users/:id/reviews", middleware.UUIDValidator("id"), h.Reviews.ListUserReviews)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/users/me", h.Auth.Me)
		protected.PUT("/users/me", h.Auth.UpdateMe)
		protected.PUT("/users/me/password", h.Auth.ChangePassword)
		protected.DELETE("/auth/sessions", h.Auth.LogoutOthers)

		clientOnly := middleware.RequireRole(models.RoleClient)
		freelancerOnly := middleware.RequireRole(models.RoleFreelancer)

		protected.POST("/projects", clientOnly, h.Projects.CreateProject)
		protected.GET("/projects/my", clientOnly, h.Projects.ListMyProjects)
		protected.GET("/projects/saved", h.Projects.ListSavedProjects)
		protected.POST("/projects/:id/save", middleware.UUIDValidator("id"), h.Projects.SaveProject)
		protected.DELETE("/projects/:id/save", middleware.UUIDValidator("id"), h.Projects.UnsaveProject)
		protected.PUT("/projects/:id/status", middleware.UUIDValidator("id"), h.Projects.UpdateStatus)
		protected.GET("/projects/:id/bids", middleware.UUIDValidator("id"), h.Bids.ListProjectBids)
		protected.POST("/projects/:id/bids", middleware.UUIDValidator("id"), freelancerOnly, h.Bids.CreateBid)
		protected.POST("/projects/:id/reviews", middleware.UUIDValidator("id"), h.Reviews.CreateReview)
		protected.GET("/projects/:id/can-review", middleware.UUIDValidator("id"), h.Reviews.CanReview)

		protected.GET("/bids/my", freelancerOnly, h.Bids.ListMyBids)
		protected.GET("/bids/:id", middleware.UUIDValidator("id"), h.Bids.GetBid)
		protected.POST("/bids/:id/accept", middleware.UUIDValidator("id"), h.Bids.AcceptBid)
		protected.POST("/bids/:id/reject", middleware.UUIDValidator("id"), h.Bids.RejectBid)
		protected.DELETE("/bids/:id", middleware.UUIDValidator("id"), h.Bids.WithdrawBid)

		protected.GET("/tokens/balance", h.Tokens.GetBalance)
		protected.GET("/tokens/transactions", h.Tokens.ListTransactions)
		protected.POST("/tokens/purchase", h.Tokens.Purchase)

		protected.GET("/connections", h.Connections.ListMyConnections)
		protected.POST("/connections/direct", h.Connections.CreateDirect)
		protected.GET("/connections/check/:userId", middleware.UUIDValidator("userId"), h.Connections.CheckConnection)

		protected.GET("/conversations", h.Conversations.ListMyConversations)
		protected.GET("/conversations/unread-count", h.Conversations.UnreadCount)
		protected.GET("/conversations/:id", middleware.UUIDValidator("id"), h.Conversations.GetConversation)
		protected.GET("/conversations/:id/messages", middleware.UUIDValidator("id"), h.Conversations.ListMessages)
		protected.POST("/conversations/:id/messages", middleware.UUIDValidator("id"), h.Conversations.SendMessage)
		protected.PUT("/conversations/:id/read", middleware.UUIDValidator("id"), h.Conversations.MarkRead)
		protected.POST("/conversations/:id/unlock", middleware.UUIDValidator("id"), h.Connections.UnlockProposal)

		protected.GET("/notifications", h.Notifications.ListNotifications)
		protected.GET("/notifications/unread/count", h.Notifications.CountUnread)
		protected.PUT("/notifications/read-all", h.Notifications.MarkAllAsRead)
		protected.PUT("/notifications/:id/read", middleware.UUIDValidator("id"), h.Notifications.MarkAsRead)
	}

	return r
}
