// Package app wires repositories, services and handlers into a router.
package app

import (
	"context"

	"opsportal/internal/advisory"
	"opsportal/internal/config"
	"opsportal/internal/handler"
	"opsportal/internal/middleware"
	"opsportal/internal/notify"
	"opsportal/internal/repository"
	"opsportal/internal/service"
	"opsportal/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App is the assembled portal.
type App struct {
	Router   *gin.Engine
	Hub      *websocket.Hub
	Requests service.RequestService
	Users    service.UserService
}

// NewAdvisor returns the classifier client for cfg. The reduced deployment
// and missing credentials both yield a disabled client.
func NewAdvisor(cfg *config.Config, log logrus.FieldLogger) *advisory.Client {
	if !cfg.ClassifierEnabled || !cfg.OpenAI.Configured() {
		return advisory.Disabled(log)
	}
	return advisory.NewClient(advisory.NewOpenAIBackend(cfg.OpenAI), cfg.OpenAI.Timeout, log)
}

// NewNotifier returns the SMS dispatcher for cfg, disabled without credentials.
func NewNotifier(cfg *config.Config, log logrus.FieldLogger) *notify.Dispatcher {
	if !cfg.Twilio.Configured() {
		return notify.Disabled(log)
	}
	return notify.NewDispatcher(notify.NewTwilioTransport(cfg.Twilio), cfg.Twilio.Timeout, log)
}

// New builds the application on an open database.
func New(cfg *config.Config, db *gorm.DB, log *logrus.Logger) (*App, error) {
	secret, err := cfg.Secret()
	if err != nil {
		return nil, err
	}

	hub := websocket.NewHub(log)

	// Set up dependencies (Repository -> Service -> Handler)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	userService := service.NewUserService(userRepo, secret)
	auditService := service.NewAuditService(auditRepo)
	requestService := service.NewRequestService(service.RequestServiceDeps{
		Requests:    repository.NewRequestRepository(db),
		Users:       userRepo,
		Audit:       auditRepo,
		Tx:          repository.NewTransactionManager(db),
		Advisor:     NewAdvisor(cfg, log),
		Notifier:    NewNotifier(cfg, log),
		Publisher:   hub,
		Logger:      log,
		AdminPhones: cfg.AdminPhones,
	})

	auth := middleware.NewAuthenticator(secret)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(hub, c, secret)
	})

	root := router.Group("")
	handler.NewSystemHandler(cfg, auth).RegisterRoutes(root)
	handler.NewUserHandler(userService, auth).RegisterRoutes(root)
	handler.NewRequestHandler(requestService, userService, auth).RegisterRoutes(root)
	handler.NewAuditHandler(auditService, auth).RegisterRoutes(root)

	return &App{Router: router, Hub: hub, Requests: requestService, Users: userService}, nil
}

// Run drives background loops until ctx is done.
func (a *App) Run(ctx context.Context) {
	a.Hub.Run(ctx)
}
