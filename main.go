package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"qrForgeAPI/auth"
	"qrForgeAPI/config"
	"qrForgeAPI/database"
	"qrForgeAPI/handlers"
	"qrForgeAPI/internal/user"
	"qrForgeAPI/middleware"
	"qrForgeAPI/services"
	"qrForgeAPI/storage"
)

var (
	cfg             *config.Config
	dbPool          *pgxpool.Pool
	tokenService    *auth.TokenService
	userService     *services.UserService
	qrCodeService   *services.QRCodeService
	campaignService *services.CampaignService
	paymentService  *services.PaymentService
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		log.Fatal("Configuration error: ", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbPool, err = database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	if err := database.Migrate(ctx, cfg.DatabaseURL); err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}
	log.Println("Successfully connected to Postgres")

	uploads, err := storage.NewFromConfig(cfg)
	if err != nil {
		log.Fatal("Failed to configure storage: ", err)
	}
	if _, ok := uploads.(*storage.S3Storage); ok {
		log.Println("Using S3 object storage for QR images")
	} else {
		log.Printf("Using local storage at %s for QR images", cfg.Storage.LocalDir)
	}

	tokenService = auth.NewTokenService(cfg.JWTSecret, cfg.Auth.SessionTTL, cfg.Auth.ResetTTL)
	userService = services.NewUserService(dbPool)
	qrCodeService = services.NewQRCodeService(dbPool, uploads)
	campaignService = services.NewCampaignService(dbPool)
	paymentService = services.NewPaymentService(dbPool,
		services.NewMpesaClient(cfg.Mpesa),
		services.NewFlutterwaveClient(cfg.Flw, cfg.ClientURL),
	)

	if cfg.SMTP.Configured() {
		userService.SetMailer(services.NewEmailService(cfg.SMTP))
		log.Println("SMTP mailer initialized")
	} else {
		log.Println("Warning: SMTP not configured, verification emails disabled")
	}

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	authHandler := handlers.NewAuthHandler(userService, tokenService, cfg)
	qrCodeHandler := handlers.NewQRCodeHandler(qrCodeService)
	campaignHandler := handlers.NewCampaignHandler(campaignService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	adminHandler := handlers.NewAdminHandler(userService, qrCodeService, paymentService)

	authGate := middleware.NewAuthGate(tokenService, userService)
	authLimiter := middleware.NewFixedWindowLimiter(cfg.Auth.RateLimitWindow, cfg.Auth.RateLimitMax)

	go middleware.CleanupVisitors()
	go authLimiter.Cleanup()

	r := mux.NewRouter()
	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(cfg.Metrics.User, cfg.Metrics.Pass, promhttp.Handler()))

	fs := http.FileServer(http.Dir(cfg.Storage.LocalDir))
	r.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", fs))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := dbPool.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "qr-forge-api"}`))
	}).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Authentication endpoints sit behind the fixed-window limiter.
	authRoutes := api.PathPrefix("/auth").Subrouter()
	authRoutes.Use(authLimiter.Middleware)
	authRoutes.HandleFunc("/register", authHandler.Register).Methods("POST")
	authRoutes.HandleFunc("/login", authHandler.Login).Methods("POST")
	authRoutes.HandleFunc("/verify-email", authHandler.VerifyEmail).Methods("GET")
	authRoutes.HandleFunc("/logout", authHandler.Logout).Methods("POST")

	// Scan recording is public so printed codes work without a session.
	api.HandleFunc("/qrcode/scan/{id}", qrCodeHandler.Scan).Methods("POST")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(authGate.Middleware)

	protected.HandleFunc("/qrcode/generate", qrCodeHandler.Generate).Methods("POST")
	protected.HandleFunc("/qrcode/", qrCodeHandler.List).Methods("GET")
	protected.HandleFunc("/qrcode/{id}", qrCodeHandler.Delete).Methods("DELETE")

	protected.HandleFunc("/campaign/create", campaignHandler.Create).Methods("POST")
	protected.HandleFunc("/campaign/", campaignHandler.List).Methods("GET")
	protected.HandleFunc("/campaign/add-qrcode/{campaignId}", campaignHandler.AddQRCode).Methods("PUT")
	protected.HandleFunc("/campaign/remove-qrcode/{campaignId}", campaignHandler.RemoveQRCode).Methods("PUT")
	protected.HandleFunc("/campaign/toggle-status/{campaignId}", campaignHandler.ToggleStatus).Methods("PUT")

	protected.HandleFunc("/payment/mpesa", paymentHandler.Mpesa).Methods("POST")
	protected.HandleFunc("/payment/flutterwave", paymentHandler.Flutterwave).Methods("POST")

	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(authGate.RequireRoles(user.RoleAdmin))
	admin.HandleFunc("/users", adminHandler.ListUsers).Methods("GET")
	admin.HandleFunc("/users/{id}", adminHandler.DeleteUser).Methods("DELETE")
	admin.HandleFunc("/users/{id}/promote", adminHandler.PromoteUser).Methods("PUT")
	admin.HandleFunc("/qrcodes", adminHandler.ListQRCodes).Methods("GET")
	admin.HandleFunc("/qrcodes/{id}", adminHandler.DeleteQRCode).Methods("DELETE")
	admin.HandleFunc("/payments", adminHandler.ListPayments).Methods("GET")

	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins(cfg.AllowedOrigins),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Access-Token"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorillaHandlers.AllowCredentials(),
	)

	server := http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server: ", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
