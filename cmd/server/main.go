// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/gurkanbulca/taskpulse/internal/config"
	"github.com/gurkanbulca/taskpulse/internal/database"
	"github.com/gurkanbulca/taskpulse/internal/handler"
	"github.com/gurkanbulca/taskpulse/internal/health"
	"github.com/gurkanbulca/taskpulse/internal/repository"
	"github.com/gurkanbulca/taskpulse/internal/service"
	"github.com/gurkanbulca/taskpulse/pkg/auth"
	"github.com/gurkanbulca/taskpulse/pkg/email"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Validate configuration
	if err := cfg.ValidateConfig(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	deletePolicy, err := service.ParseDeletePolicy(cfg.Security.DeletePolicy)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	adminPolicy, err := service.ParseAdminPolicy(cfg.Security.AdminPolicy)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Connect to database
	log.Printf("Connecting to %s...", cfg.Database.Driver)
	db, err := database.Open(database.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.ConnectionString(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Failed to close database connection: %v", err)
		}
	}()

	// Run auto migration
	if cfg.Server.AutoMigrate {
		if err := database.Migrate(context.Background(), db); err != nil {
			log.Fatalf("Failed to run auto migration: %v", err)
		}
	}

	// Initialize email service
	var emailService email.EmailService
	if cfg.Email.TestingMode || cfg.IsDevelopment() {
		log.Println("Using mock email service for development/testing")
		emailService = email.NewMockEmailService()
	} else {
		log.Println("Using SMTP email service")
		smtpService := email.NewSMTPEmailService(cfg.ToEmailConfig())
		if err := smtpService.TestConnection(context.Background()); err != nil {
			log.Printf("Warning: SMTP connection test failed: %v", err)
		} else {
			log.Println("SMTP connection test successful")
		}
		emailService = smtpService
	}

	tokenManager := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TokenDuration, cfg.JWT.Issuer)
	passwordManager := auth.NewPasswordManagerWithCost(cfg.Security.BcryptCost, cfg.Security.PasswordMinLength)
	clock := service.SystemClock{}

	// Initialize services
	store := repository.NewStore(db)
	securityService := service.NewSecurityService(store, clock)
	securityLogger := service.NewSecurityLogger(securityService)

	services := handler.Services{
		Auth:     service.NewAuthService(store, tokenManager, passwordManager, securityLogger, emailService, clock),
		Users:    service.NewUserService(store, passwordManager, securityLogger, clock, adminPolicy, cfg.Validation),
		Orgs:     service.NewOrganizationService(store, clock, cfg.Validation),
		Tasks:    service.NewTaskService(store, emailService, clock, deletePolicy, cfg.Validation),
		Comments: service.NewCommentService(store, clock, cfg.Validation),
		TimeLogs: service.NewTimeLogService(store, clock, cfg.Validation),
		Reports:  service.NewReportService(store, clock),
		Security: securityService,
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	api := handler.NewServer(cfg, services, db, clock)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.HTTPPort),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Ops server: gRPC health and, optionally, reflection
	healthServer := health.NewServer(db, cfg.Server.EnableReflection)
	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.Server.GRPCPort))
	if err != nil {
		log.Fatalf("Failed to listen: %v", err)
	}

	go func() {
		log.Printf("🩺 Health gRPC server listening on port %s", cfg.Server.GRPCPort)
		if err := healthServer.Serve(listener); err != nil {
			log.Fatalf("Failed to serve gRPC: %v", err)
		}
	}()

	go func() {
		log.Printf("🚀 TaskPulse API listening on port %s", cfg.Server.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("📴 Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
	healthServer.Stop()
	log.Println("✅ Server shutdown complete")
}
