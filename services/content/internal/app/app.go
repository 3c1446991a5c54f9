package internal

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"content-engine/pkg/config"
	"content-engine/pkg/logger"
	"content-engine/pkg/middleware"
	"content-engine/pkg/queue"
	"content-engine/pkg/s3"
	"content-engine/services/content/internal/clients"
	contentHTTP "content-engine/services/content/internal/controller/http"
	"content-engine/services/content/internal/entity"
	"content-engine/services/content/internal/generator"
	"content-engine/services/content/internal/publisher"
	"content-engine/services/content/internal/repo/persistent"
	"content-engine/services/content/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "content-engine/services/content/docs" // Swagger docs
)

type App struct {
	cfg         *config.Config
	log         *logger.Logger
	db          *gorm.DB
	redisClient *redis.Client
	s3Client    *s3.Client
	queueClient *queue.Client
	clients     *clients.Registry
	sender      *publisher.TelegramSender
	pipeline    usecase.PipelineUseCase
	httpServer  *http.Server
}

// NewApp connects the configured backends and builds the pipeline. Every
// backend except the client registry is optional: a failed connection is
// logged and the app runs without it.
func NewApp(cfg *config.Config) (*App, error) {
	log := logger.New()
	a := &App{cfg: cfg, log: log}

	tier := a.buildTier()

	registry, err := clients.Load(cfg.ClientsFile, log)
	if err != nil {
		log.Error("Failed to load clients from %s: %v", cfg.ClientsFile, err)
		return nil, err
	}
	a.clients = registry

	if cfg.S3BucketName != "" {
		s3Client, err := s3.NewClient(cfg)
		if err != nil {
			log.Error("Failed to create S3 client: %v (social content will not be staged)", err)
		} else {
			a.s3Client = s3Client
		}
	}

	if cfg.RabbitMQHost != "" {
		queueClient, err := queue.NewRabbitMQClient(cfg, log)
		if err != nil {
			log.Error("Failed to connect to RabbitMQ: %v (continuing without queue)", err)
		} else {
			a.queueClient = queueClient
		}
	}

	a.sender = publisher.NewTelegramSender(cfg.TelegramAPIURL, cfg.TelegramBotToken, time.Second)

	dispatcher := publisher.NewDispatcher(cfg.CallTimeout, log)
	dispatcher.Register(publisher.NewNewsletterPublisher(cfg.NewsletterAPIURL, cfg.NewsletterAPIKey), entity.TypeNewsletter)
	dispatcher.Register(publisher.NewChatPublisher(a.sender), entity.TypeTelegram)

	var store publisher.ObjectStore
	if a.s3Client != nil {
		store = a.s3Client
	}
	placeholderTypes := append([]entity.DerivativeType{entity.TypePodcast}, entity.SocialTypes...)
	dispatcher.Register(publisher.NewSocialPublisher(store), placeholderTypes...)

	var events usecase.EventPublisher
	if a.queueClient != nil {
		events = a.queueClient
	}

	a.pipeline = usecase.NewPipelineUseCase(
		persistent.NewPostRepository(tier, log),
		persistent.NewDerivativeRepository(tier, log),
		persistent.NewPillarRepository(tier, log),
		generator.NewHTTPClient(cfg.GeneratorURL, cfg.CallTimeout),
		dispatcher,
		registry,
		events,
		usecase.Options{
			CallTimeout:     cfg.CallTimeout,
			DispatchLease:   cfg.DispatchLease,
			DispatchWorkers: cfg.DispatchWorkers,
		},
		log,
	)

	return a, nil
}

func (a *App) Pipeline() usecase.PipelineUseCase {
	return a.pipeline
}

func (a *App) Logger() *logger.Logger {
	return a.log
}

func (a *App) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.ClientHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	if a.redisClient != nil {
		api.Use(middleware.RateLimitMiddleware(a.redisClient, a.cfg.RateLimitPerMinute, time.Minute))
	}

	contentHTTP.NewPipelineHandler(a.pipeline, a.log).Register(api)
	return r
}

func (a *App) Run() error {
	// Create HTTP server
	a.httpServer = &http.Server{
		Addr:    ":" + a.cfg.ServerPort,
		Handler: a.Router(),
	}

	// Start server in a goroutine
	go func() {
		a.log.Info("Content service starting on port %s", a.cfg.ServerPort)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	return nil
}

func (a *App) Wait() {
	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	a.log.Info("Shutting down content service...")
}

func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var shutdownErr error
	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(ctx); err != nil {
			a.log.Error("Server forced to shutdown: %v", err)
			shutdownErr = err
		}
	}

	a.Close()
	a.log.Info("Content service exited")
	return shutdownErr
}

// Close releases backend connections.
func (a *App) Close() {
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.log.Error("Error closing database: %v", err)
			}
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Error("Error closing Redis: %v", err)
		}
	}

	if a.queueClient != nil {
		a.queueClient.Close()
	}

	_ = a.log.Sync()
}
