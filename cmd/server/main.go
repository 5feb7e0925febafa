package main

import (
	"context"
	"log"

	"github.com/dopetechnp-dotcom/dopetechnp/internal/config"
	"github.com/dopetechnp-dotcom/dopetechnp/internal/database"
	"github.com/dopetechnp-dotcom/dopetechnp/internal/handler"
	"github.com/dopetechnp-dotcom/dopetechnp/internal/infrastructure/mail"
	"github.com/dopetechnp-dotcom/dopetechnp/internal/infrastructure/storage"
	"github.com/dopetechnp-dotcom/dopetechnp/internal/repo"
	"github.com/dopetechnp-dotcom/dopetechnp/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("Failed to init schema: %v", err)
	}
	log.Println("Connected to PostgreSQL")

	var store storage.ReceiptStore
	if cfg.Storage.Configured() {
		store = storage.NewClient(cfg.Storage.URL, cfg.Storage.ServiceKey, cfg.Storage.Bucket)
	} else {
		log.Println("Receipt storage not configured, orders will be created without receipt URLs")
	}

	var mailer mail.Sender
	if cfg.Mail.Configured() {
		mailer = mail.NewSMTPSender(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Password)
	} else {
		log.Println("Mail not configured, order notifications will be skipped")
	}

	orderRepo := repo.NewOrderRepo(db)
	checkout := service.NewCheckoutService(orderRepo, store, mailer, cfg.Mail)

	router := handler.NewRouter(checkout, db)
	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
