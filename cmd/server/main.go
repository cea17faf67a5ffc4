package main

import (
	"context"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"floweradmin/docs"
	"floweradmin/internal/auth"
	"floweradmin/internal/cache"
	"floweradmin/internal/config"
	"floweradmin/internal/db"
	"floweradmin/internal/events"
	"floweradmin/internal/handler"
	"floweradmin/internal/model"
	"floweradmin/internal/notification"
	"floweradmin/internal/repository"
	"floweradmin/internal/router"
	"floweradmin/internal/service"
)

// @title FlowerAdmin API
// @version 1.0
// @description Admin-panel user management API with account lifecycle, role/permission assignment, and JWT authentication.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	e := echo.New()
	e.Use(middleware.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	// Run migrations for all models
	if err := gormDB.AutoMigrate(
		&model.Role{},
		&model.Permission{},
		&model.Account{},
		&model.PasswordHistory{},
		&model.Provider{},
		&model.AuditRecord{},
	); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(gormDB)
	roleRepo := repository.NewRoleRepository(gormDB)
	permissionRepo := repository.NewPermissionRepository(gormDB)
	auditRepo := repository.NewAuditRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Event stream and notification queue share the Redis connection
	publisher := events.NewStreamPublisher(cacheClient.Redis(), events.AccountEventsStream)
	notifier := notification.NewQueueDispatcher(cacheClient.Redis(), notification.Queue)

	// Initialize services
	authService := service.NewAuthService(accountRepo, jwtService, tokenStore)
	accountService := service.NewAccountService(accountRepo, roleRepo, permissionRepo, publisher, notifier, cacheClient, cfg.RequiresApproval)
	auditService := service.NewAuditService(auditRepo, accountRepo)

	// The audit subscriber consumes the lifecycle event stream independently
	// of the request path.
	subCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	subscriber := events.NewSubscriber(cacheClient.Redis(), events.SubscriberConfig{
		Group:    "audit",
		Consumer: "server",
		Stream:   events.AccountEventsStream,
		Handler: func(ctx context.Context, event events.Event) error {
			return auditService.Record(ctx, event)
		},
	})
	go func() {
		if err := subscriber.Start(subCtx); err != nil && err != context.Canceled {
			log.Printf("audit subscriber stopped: %v", err)
		}
	}()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	accountHandler := handler.NewAccountHandler(accountService, auditService)

	// Register routes
	router.Register(e, cfg, authHandler, accountHandler)

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}
	log.Printf("Swagger documentation available at: http://%s/swagger/index.html", docs.SwaggerInfo.Host)

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
