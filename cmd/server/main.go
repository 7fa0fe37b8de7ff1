package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/ignatzorin/tokenbid-backend/internal/ai"
	"github.com/ignatzorin/tokenbid-backend/internal/cache"
	"github.com/ignatzorin/tokenbid-backend/internal/config"
	"github.com/ignatzorin/tokenbid-backend/internal/db"
	"github.com/ignatzorin/tokenbid-backend/internal/goroutine"
	httpHandlers "github.com/ignatzorin/tokenbid-backend/internal/http/handlers"
	"github.com/ignatzorin/tokenbid-backend/internal/http/middleware"
	httpRouter "github.com/ignatzorin/tokenbid-backend/internal/http/router"
	"github.com/ignatzorin/tokenbid-backend/internal/logger"
	"github.com/ignatzorin/tokenbid-backend/internal/metrics"
	"github.com/ignatzorin/tokenbid-backend/internal/repository"
	"github.com/ignatzorin/tokenbid-backend/internal/service"
	"github.com/ignatzorin/tokenbid-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}
	logger.Init(cfg.LogLevel, cfg.Env)
	log := logger.Component("main")

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(dbConn); err != nil {
		log.Fatalf("ошибка миграций: %v", err)
	}

	// Redis опционален: без него лимитер хранит счётчики в памяти.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("ошибка подключения к redis: %v", err)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.WithError(err).Warn("ошибка закрытия redis")
			}
		}()
	}

	limiterStore, err := middleware.NewLimiterStore(redisClient)
	if err != nil {
		log.Fatalf("ошибка инициализации лимитера: %v", err)
	}

	var (
		appMetrics *metrics.Metrics
		svcMetrics service.Metrics
	)
	if cfg.MetricsEnabled {
		appMetrics = metrics.New()
		svcMetrics = appMetrics
	}

	// Вебсокеты.
	hub := ws.NewHub()
	goroutine.SafeGoWithContext(ctx, hub.Run)

	// Репозитории.
	txManager := repository.NewTxManager(dbConn)
	repos := service.Repositories{
		Users:         repository.NewUserRepository(dbConn),
		Wallets:       repository.NewWalletRepository(dbConn),
		Projects:      repository.NewProjectRepository(dbConn),
		SavedProjects: repository.NewSavedProjectRepository(dbConn),
		Bids:          repository.NewBidRepository(dbConn),
		Conversations: repository.NewConversationRepository(dbConn),
		Messages:      repository.NewMessageRepository(dbConn),
		Connections:   repository.NewConnectionRepository(dbConn),
		Reviews:       repository.NewReviewRepository(dbConn),
		Notifications: repository.NewNotificationRepository(dbConn),
	}

	var aiClient service.AIClient
	if cfg.AIBaseURL != "" {
		aiClient = ai.NewClient(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel, cfg.AITimeout)
	} else {
		log.Info("AI_BASE_URL не задан, заголовки проектов берутся из описания")
	}

	// Сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	ledger := service.NewLedgerService(txManager, repos.Wallets, svcMetrics)
	notificationService := service.NewNotificationService(repos.Notifications, hub)
	authService := service.NewAuthService(txManager, repos, ledger, tokenManager)
	projectService := service.NewProjectService(txManager, repos, notificationService, aiClient, cfg.AITimeout)
	bidService := service.NewBidService(txManager, repos, ledger, notificationService, svcMetrics)
	connectionService := service.NewConnectionService(txManager, repos, ledger, svcMetrics)
	conversationService := service.NewConversationService(txManager, repos, notificationService)
	hub.SetTypingResolver(conversationService.TypingPeer)
	reviewService := service.NewReviewService(txManager, repos, notificationService)

	handlers := httpRouter.Handlers{
		Auth:          httpHandlers.NewAuthHandler(authService),
		Projects:      httpHandlers.NewProjectHandler(projectService),
		Bids:          httpHandlers.NewBidHandler(bidService),
		Tokens:        httpHandlers.NewTokenHandler(ledger),
		Connections:   httpHandlers.NewConnectionHandler(connectionService),
		Conversations: httpHandlers.NewConversationHandler(conversationService),
		Reviews:       httpHandlers.NewReviewHandler(reviewService),
		Notifications: httpHandlers.NewNotificationHandler(notificationService),
		Health:        httpHandlers.NewHealthHandler(dbConn, redisClient),
		WS:            httpHandlers.NewWSHandler(hub, tokenManager, cfg.AllowedOrigins),
	}
	if cfg.Env == "development" {
		seedService := service.NewSeedService(authService, projectService, bidService, time.Now().UnixNano())
		handlers.Seed = httpHandlers.NewSeedHandler(seedService)
	}

	engine := httpRouter.SetupRouter(cfg, handlers, tokenManager, limiterStore, appMetrics)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("ошибка остановки http сервера")
		}
	}()

	log.WithField("port", cfg.HTTPPort).Info("HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		logger.Component("main").WithError(err).Warn("ошибка закрытия базы")
	}
}
