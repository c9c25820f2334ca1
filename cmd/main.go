package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"bookstore/internal/auth"
	"bookstore/internal/config"
	"bookstore/internal/events"
	"bookstore/internal/handlers"
	"bookstore/internal/logger"
	"bookstore/internal/models"
	"bookstore/internal/policy"
	"bookstore/internal/repositories"
	"bookstore/internal/services"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.IsProduction() {
		logger.Init()
		gin.SetMode(gin.ReleaseMode)
	} else {
		logger.InitDev()
	}
	defer logger.Sync()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		logger.Log.Fatalw("failed to connect database", "error", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Log.Fatalw("failed to get generic DB", "error", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		logger.Log.Fatalw("database migration failed", "error", err)
	}

	var publisher events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers)
		logger.Log.Infow("kafka publisher enabled", "brokers", cfg.KafkaBrokers)
	} else {
		publisher = events.NopPublisher{}
		logger.Log.Info("no kafka brokers configured, events disabled")
	}
	defer publisher.Close()

	userRepo := repositories.NewUserRepository(db)
	bookRepo := repositories.NewBookRepository(db)
	customerRepo := repositories.NewCustomerRepository(db)
	reviewRepo := repositories.NewReviewRepository(db)
	cartRepo := repositories.NewCartRepository(db)
	orderRepo := repositories.NewOrderRepository(db)

	gate := policy.NewGate()
	tokens := auth.NewManager(cfg.TokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	svcs := handlers.Services{
		Auth:     services.NewAuthService(tokens, userRepo),
		Catalog:  services.NewCatalogService(gate, bookRepo),
		Customer: services.NewCustomerService(db, gate, userRepo, customerRepo, publisher),
		Cart:     services.NewCartService(db, gate, cartRepo, bookRepo, customerRepo),
		Order:    services.NewOrderService(db, gate, orderRepo, cartRepo, customerRepo, publisher),
		Review:   services.NewReviewService(gate, reviewRepo, bookRepo, customerRepo),
	}

	router := gin.Default()
	router.Use(auth.Middleware(tokens, userRepo, customerRepo))
	handlers.RegisterRoutes(router, svcs)

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	logger.Log.Infow("starting server", "addr", cfg.ServerAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Log.Fatalw("server error", "error", err)
	}
}
