package main

import (
	"database/sql"
	"fmt"
	"log"

	"casetrack/config"
	"casetrack/internal/handler"
	"casetrack/internal/messaging"
	"casetrack/internal/repository"
	"casetrack/internal/service"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
)

func main() {
	cfg, err := config.LoadConfig("config/config.json")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.DBName,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("Connected to database")

	// Connect to RabbitMQ
	rmq, err := messaging.NewRabbitMQ(
		cfg.RabbitMQ.Host,
		cfg.RabbitMQ.Port,
		cfg.RabbitMQ.User,
		cfg.RabbitMQ.Password,
	)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer rmq.Close()
	log.Println("Connected to RabbitMQ")

	// Initialize repositories
	outboxRepo := repository.NewOutboxRepository(db)
	caseRepo := repository.NewCaseRepository(db, outboxRepo)
	unitRepo := repository.NewUnitRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Drain staged lifecycle events to the broker and back into durable
	// notifications.
	outboxWorker := messaging.NewOutboxWorker(outboxRepo, rmq)
	outboxWorker.Start()
	defer outboxWorker.Stop()

	consumer := messaging.NewCaseEventConsumer(rmq, notificationRepo)
	consumer.Start()
	defer consumer.Stop()

	// Initialize services
	caseService := service.NewCaseService(caseRepo, unitRepo)
	unitService := service.NewUnitService(unitRepo)
	feedbackService := service.NewFeedbackService(feedbackRepo, caseRepo)
	notificationService := service.NewNotificationService(notificationRepo)
	authService := service.NewAuthService(userRepo, cfg.JWT)

	// Initialize handlers
	caseHandler := handler.NewCaseHandler(caseService)
	unitHandler := handler.NewUnitHandler(unitService)
	feedbackHandler := handler.NewFeedbackHandler(feedbackService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	authHandler := handler.NewAuthHandler(authService)
	opsHandler := handler.NewOpsHandler(outboxWorker)

	// Setup Gin
	r := gin.Default()

	r.GET("/health", caseHandler.Health)

	r.POST("/auth/register", authHandler.Register)
	r.POST("/auth/login", authHandler.Login)

	authed := r.Group("/", handler.AuthRequired(authService))
	{
		authed.GET("/auth/me", authHandler.Me)
		authed.PATCH("/users/:id/suspend", authHandler.Suspend)

		authed.POST("/cases", caseHandler.Create)
		authed.GET("/cases", caseHandler.List)
		authed.GET("/cases/my", caseHandler.ListMine)
		authed.GET("/cases/:ref", caseHandler.Get)
		authed.PUT("/cases/:ref", caseHandler.Update)
		authed.POST("/cases/:ref/transition", caseHandler.Transition)

		authed.POST("/cases/:ref/feedback", feedbackHandler.Submit)
		authed.GET("/cases/:ref/feedback", feedbackHandler.Get)

		authed.GET("/units", unitHandler.List)
		authed.POST("/units", unitHandler.Create)
		authed.PATCH("/units/:id/deactivate", unitHandler.Deactivate)

		authed.GET("/notifications", notificationHandler.List)
		authed.PATCH("/notifications/:id/read", notificationHandler.MarkRead)
		authed.PATCH("/notifications/read-all", notificationHandler.MarkAllRead)

		authed.GET("/outbox/stats", opsHandler.OutboxStats)
	}

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("casetrack starting on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
