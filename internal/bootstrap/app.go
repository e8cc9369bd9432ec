// Package bootstrap wires the application together and owns its lifecycle.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	httphandler "collaborative-taskboard/internal/handler/http"
	wshandler "collaborative-taskboard/internal/handler/websocket"
	"collaborative-taskboard/internal/hub"
	gormpersistence "collaborative-taskboard/internal/infra/persistence/gorm"
	redispresence "collaborative-taskboard/internal/infra/presence/redis"
	"collaborative-taskboard/internal/infra/setup"
	"collaborative-taskboard/internal/mail"
	"collaborative-taskboard/internal/middleware"
	"collaborative-taskboard/internal/repository"
	"collaborative-taskboard/internal/service"
	"collaborative-taskboard/internal/tasks"
	"collaborative-taskboard/internal/worker"
)

// App is the assembled server: HTTP API, websocket hub, background worker
// and scheduler.
type App struct {
	cfg *Config

	httpServer  *http.Server
	hub         *hub.Hub
	worker      *worker.Worker
	scheduler   *asynq.Scheduler
	asynqClient *asynq.Client
	redisClient *redis.Client
}

// NewApp connects infrastructure and wires every layer. It does not start
// anything; call Start next.
func NewApp(cfg *Config) (*App, error) {
	db, err := setup.InitDB(cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := setup.MigrateDB(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	redisClient, err := setup.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}

	userRepo := gormpersistence.NewGormUserRepository(db)
	boardRepo := gormpersistence.NewGormBoardRepository(db)
	cardRepo := gormpersistence.NewGormCardRepository(db)
	notificationRepo := gormpersistence.NewGormNotificationRepository(db)
	auditRepo := gormpersistence.NewGormAuditRepository(db)
	presenceRepo := redispresence.NewRedisPresenceRepository(redisClient, "")

	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	asynqClient := asynq.NewClient(redisOpt)

	var mailer mail.Mailer
	if cfg.SMTPAddr != "" && cfg.SMTPFrom != "" {
		mailer = mail.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPass)
	} else {
		mailer = mail.LogMailer{}
	}

	authService, err := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiryHours)
	if err != nil {
		return nil, fmt.Errorf("init auth service: %w", err)
	}
	boardService := service.NewBoardService(boardRepo, userRepo, auditRepo, asynqClient)
	cardService := service.NewCardService(cardRepo, boardRepo, userRepo, notificationRepo, auditRepo, asynqClient)
	notificationService := service.NewNotificationService(notificationRepo)

	registry := hub.NewRegistry()
	connectionHub := hub.NewHub(registry, presenceRepo)

	router := buildRouter(cfg, redisClient, connectionHub, presenceRepo, authService, boardService, cardService, notificationService)

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Logger: logrus.StandardLogger(),
	})
	if _, err := scheduler.Register("@every 5m", tasks.NewPresenceSweepTask(), asynq.Queue("low")); err != nil {
		return nil, fmt.Errorf("register presence sweep: %w", err)
	}

	return &App{
		cfg: cfg,
		httpServer: &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: router,
		},
		hub:         connectionHub,
		worker:      worker.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, mailer, presenceRepo),
		scheduler:   scheduler,
		asynqClient: asynqClient,
		redisClient: redisClient,
	}, nil
}

func buildRouter(
	cfg *Config,
	redisClient *redis.Client,
	connectionHub *hub.Hub,
	presenceRepo repository.PresenceRepository,
	authService *service.AuthService,
	boardService *service.BoardService,
	cardService *service.CardService,
	notificationService *service.NotificationService,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())
	r.Use(corsMiddleware())
	r.Use(middleware.RateLimit(redisClient, cfg.RateLimitPerSecond))

	authHandler := httphandler.NewAuthHandler(authService)
	boardHandler := httphandler.NewBoardHandler(boardService)
	cardHandler := httphandler.NewCardHandler(cardService)
	notificationHandler := httphandler.NewNotificationHandler(notificationService)
	presenceHandler := httphandler.NewPresenceHandler(presenceRepo)
	wsHandler := wshandler.NewHandler(connectionHub)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/api/auth/register", authHandler.Register)
	r.POST("/api/auth/login", authHandler.Login)

	// Identity on the websocket is carried by the join message, so the
	// upgrade endpoint itself is unauthenticated.
	r.GET("/ws", wsHandler.Serve)

	api := r.Group("/api")
	api.Use(middleware.Auth(authService))
	{
		api.GET("/auth/me", authHandler.Me)
		api.PUT("/auth/me", authHandler.UpdateProfile)
		api.PUT("/auth/me/password", authHandler.ChangePassword)

		api.POST("/boards", boardHandler.CreateBoard)
		api.GET("/boards", boardHandler.ListBoards)
		api.POST("/boards/join", boardHandler.JoinByCode)
		api.GET("/boards/:boardId", boardHandler.GetBoard)
		api.PUT("/boards/:boardId", boardHandler.UpdateBoard)
		api.DELETE("/boards/:boardId", boardHandler.DeleteBoard)
		api.GET("/boards/:boardId/audit", boardHandler.ListAudit)
		api.POST("/boards/:boardId/invite", boardHandler.InviteByEmail)
		api.POST("/boards/:boardId/columns", boardHandler.CreateColumn)
		api.PUT("/boards/:boardId/columns/:columnId", boardHandler.UpdateColumn)
		api.DELETE("/boards/:boardId/columns/:columnId", boardHandler.DeleteColumn)

		api.GET("/cards", cardHandler.ListCards)
		api.POST("/cards", cardHandler.CreateCard)
		api.GET("/cards/:cardId", cardHandler.GetCard)
		api.PUT("/cards/:cardId", cardHandler.UpdateCard)
		api.POST("/cards/:cardId/move", cardHandler.MoveCard)
		api.DELETE("/cards/:cardId", cardHandler.DeleteCard)

		api.GET("/notifications", notificationHandler.List)
		api.POST("/notifications/:notificationId/read", notificationHandler.MarkRead)

		api.GET("/presence/online", presenceHandler.ListOnline)
	}

	return r
}

// Start launches the hub loop, worker, scheduler and HTTP listener. It
// blocks until the HTTP server exits.
func (a *App) Start() error {
	go a.hub.Run()

	if err := a.worker.Start(); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}
	if err := a.scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	logrus.WithField("addr", a.cfg.HTTPAddr).Info("Server starting")
	if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the components in reverse dependency order.
func (a *App) Shutdown(ctx context.Context) error {
	logrus.Info("Shutting down")

	if err := a.httpServer.Shutdown(ctx); err != nil {
		logrus.WithError(err).Warn("HTTP server shutdown failed")
	}
	a.scheduler.Shutdown()
	a.worker.Shutdown()
	a.hub.Stop()

	if err := a.asynqClient.Close(); err != nil {
		logrus.WithError(err).Warn("Failed to close asynq client")
	}
	if err := a.redisClient.Close(); err != nil {
		logrus.WithError(err).Warn("Failed to close redis client")
	}
	return nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logrus.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"ip":      c.ClientIP(),
		}).Info("Request handled")
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
