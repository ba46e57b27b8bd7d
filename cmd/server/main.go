package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/scanpay/backend/internal/appwrite"
	"github.com/scanpay/backend/internal/config"
	"github.com/scanpay/backend/internal/database"
	"github.com/scanpay/backend/internal/handlers"
	mW "github.com/scanpay/backend/internal/middleware"
	"github.com/scanpay/backend/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	client := appwrite.NewClient(cfg.Appwrite)

	redisClient := database.InitRedis(cfg.Redis)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Services
	webhookService := services.NewWebhookService(client, cfg.Appwrite, cfg.RazorpayWebhookSecret)
	qrService := services.NewQRService(client, client, redisClient, cfg.Appwrite)
	transactionService := services.NewTransactionService(client, qrService, cfg.Appwrite)
	userService := services.NewUserService(client)
	withdrawalService := services.NewWithdrawalService(client, cfg.Appwrite)
	settlementService := services.NewSettlementService(withdrawalService)

	// Handlers
	webhookHandler := handlers.NewWebhookHandler(webhookService)
	qrHandler := handlers.NewQRHandler(qrService)

	auth := mW.NewAuth(client, redisClient)

	r := chi.NewRouter()

	r.Use(mW.SecurityHeaders)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "x-razorpay-signature"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("QR Code Admin API is running!"))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// Gateway callback. Authenticated by signature, not by token.
	r.Post("/webhook", webhookHandler.HandleWebhook)

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Authenticate)

		// User-scoped endpoints
		r.Get("/qr-codes/user/{userId}", qrHandler.ListUserQRCodes)
		r.Route("/user", func(r chi.Router) {
			r.Post("/withdraw", withdrawalService.Withdraw)
			r.Get("/user_withdrawals", withdrawalService.ListUserWithdrawals)
		})

		// Admin endpoints
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)

			r.Get("/qr-codes", qrHandler.ListQRCodes)
			r.Post("/create-qr-entry", qrHandler.CreateEntry)
			r.Delete("/delete-qr/{qrId}", qrHandler.DeleteQRCode)
			r.Put("/toggle-qr-status/{qrId}", qrHandler.ToggleStatus)
			r.Put("/assign-qr/{qrId}", qrHandler.AssignUser)

			r.Get("/user/withdrawals", withdrawalService.ListWithdrawals)
			r.Post("/user/withdrawals/approve", withdrawalService.Approve)
			r.Post("/user/withdrawals/reject", withdrawalService.Reject)

			r.Route("/admin", func(r chi.Router) {
				r.Get("/users", userService.ListUsers)
				r.Post("/create-user", userService.CreateUser)
				r.Put("/edit-user/{id}", userService.EditUser)
				r.Post("/reset-password/{id}", userService.ResetPassword)
				r.Post("/update-user-status", userService.UpdateStatus)
				r.Delete("/delete-user/{id}", userService.DeleteUser)

				r.Get("/transactions", transactionService.ListTransactions)
				r.Get("/user/transactions", transactionService.ListUserTransactions)
				r.Get("/withdrawals/{id}/settlement", settlementService.ExportWithdrawal)
			})
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
