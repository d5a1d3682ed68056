package main

import (
	"context"
	"go-contact-relay/config"
	_ "go-contact-relay/docs" // Important for Swagger
	v1 "go-contact-relay/internal/delivery/http/v1"
	"go-contact-relay/internal/usecase"
	"go-contact-relay/pkg/email"
	"go-contact-relay/pkg/logger"
	"go-contact-relay/pkg/security"
	"go-contact-relay/pkg/security/antivirus"
	"go-contact-relay/pkg/validation"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// @title           Contact Relay API
// @version         1.0
// @description     Relays website contact form submissions to staff by email.
// @host            localhost:3000
// @BasePath        /
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Logger
	logger.Init()
	logger.Log.Info("Starting contact relay", "port", cfg.Port, "static_dir", cfg.StaticDir)
	if err := cfg.Validate(); err != nil {
		logger.Log.Warn("Mail settings incomplete - submissions will fail until they are set", "error", err)
	}

	// 3. Setup Mail Transport
	sender := email.NewSMTPSender(email.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFromEmail,
		Timeout:  cfg.MailTimeout,
	})
	if !sender.IsConfigured() {
		logger.Log.Warn("SMTP transport not configured - contact form will answer 500")
	}

	// 4. Setup Attachment Gate
	var scanner antivirus.Scanner = antivirus.NewNoOpScanner()
	if cfg.ClamAVAddress != "" {
		scanner = antivirus.NewChainScanner(antivirus.NewClamAVScanner(cfg.ClamAVAddress, cfg.ClamAVTimeout))
		logger.Log.Info("Attachment scanning enabled", "clamav", cfg.ClamAVAddress)
	}
	gate := security.NewAttachmentGate(security.GateConfig{
		MaxBytes: cfg.MaxAttachmentBytes,
		Sniff:    cfg.AttachmentSniff,
		Scanner:  scanner,
	})

	// 5. Setup Dispatch Log
	events := security.NewDispatchLogger("contact-relay")
	defer func() { _ = events.Sync() }()

	// 6. Setup UseCases
	healthUC := usecase.NewHealthUsecase()
	contactUC := usecase.NewContactUsecase(validation.New(), gate, sender, events, usecase.ContactConfig{
		StaffAddress:   cfg.StaffEmailTo,
		ServiceAddress: cfg.SMTPFromEmail,
	})

	// 7. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		HealthUC:  healthUC,
		ContactUC: contactUC,
		Config:    cfg,
	})

	// 8. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Listen failed", "error", err)
			os.Exit(1)
		}
	}()
	logger.Log.Info("Server listening", "addr", srv.Addr)

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	// in-flight submissions may still be talking to the mail server
	ctx, cancel := context.WithTimeout(context.Background(), cfg.MailTimeout+5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}

	logger.Log.Info("Server exiting")
}
