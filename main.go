package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hba-portal/membership-backend/shared/utils"
	v1 "github.com/hba-portal/membership-backend/v1"
	v1handlers "github.com/hba-portal/membership-backend/v1/handlers"
	v1middleware "github.com/hba-portal/membership-backend/v1/middleware"
	v1models "github.com/hba-portal/membership-backend/v1/models"
	v1services "github.com/hba-portal/membership-backend/v1/services"
)

func main() {
	// Load .env file if it exists (optional - fails silently if not found)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
	slog.SetDefault(logger)

	slog.Info("Starting Membership Backend initialization")

	// Initialize GORM database connection for V1
	v1DbConfig := v1.NewDatabaseConfig()
	gormDB, err := v1.ConnectGormDB(v1DbConfig)
	if err != nil {
		slog.Error("Failed to connect to GORM database", "error", err)
		os.Exit(1)
	}

	// The mailer is shared between the bulk email endpoint and the
	// notification worker
	mailer, err := v1services.NewSMTPMailerFromEnv()
	if err != nil {
		slog.Error("Failed to initialize SMTP mailer", "error", err)
		os.Exit(1)
	}

	// Initialize V1 handlers
	v1Handler, err := v1handlers.NewV1Handler(gormDB, mailer)
	if err != nil {
		slog.Error("Failed to initialize V1 handler", "error", err)
		os.Exit(1)
	}

	// Create a mux for API routes
	apiMux := http.NewServeMux()
	v1Handler.SetupV1Routes(apiMux) // All /api/v1/... routes go here

	// Setup middleware chain
	corsMiddleware := v1middleware.NewCORSMiddleware()
	metricsMiddleware := v1middleware.NewMetricsMiddleware()

	// Setup JWT Authentication middleware
	// Validate required environment variables first
	idpBaseURL := os.Getenv("IDP_BASE_URL")
	if idpBaseURL == "" {
		slog.Error("IDP_BASE_URL environment variable is required")
		os.Exit(1)
	}

	// Support multiple valid client IDs for different portals
	memberPortalClientID := os.Getenv("IDP_MEMBER_PORTAL_CLIENT_ID")
	adminPortalClientID := os.Getenv("IDP_ADMIN_PORTAL_CLIENT_ID")

	if memberPortalClientID == "" && adminPortalClientID == "" {
		slog.Error("At least one of IDP_MEMBER_PORTAL_CLIENT_ID or IDP_ADMIN_PORTAL_CLIENT_ID must be set")
		os.Exit(1)
	}

	var validClientIDs []string
	if memberPortalClientID != "" {
		validClientIDs = append(validClientIDs, memberPortalClientID)
	}
	if adminPortalClientID != "" {
		validClientIDs = append(validClientIDs, adminPortalClientID)
	}

	jwtConfig := v1middleware.JWTAuthConfig{
		JWKSURL:        utils.GetEnvOrDefault("IDP_JWKS_URL", idpBaseURL+"/oauth2/jwks"),
		ExpectedIssuer: utils.GetEnvOrDefault("IDP_TOKEN_URL", idpBaseURL+"/oauth2/token"),
		ValidClientIDs: validClientIDs,
		OrgName:        utils.GetEnvOrDefault("IDP_ORG_NAME", ""),
		Timeout:        10 * time.Second,
	}

	// Validate JWT configuration before proceeding
	if err := jwtConfig.Validate(); err != nil {
		slog.Error("Invalid JWT configuration", "error", err)
		os.Exit(1)
	}

	jwtAuthMiddleware := v1middleware.NewJWTAuthMiddleware(jwtConfig)

	// Setup Authorization middleware with configurable security policy
	authMode := utils.GetEnvOrDefault("AUTHORIZATION_MODE", "fail_open_admin_system")
	strictMode := utils.GetEnvOrDefault("AUTHORIZATION_STRICT_MODE", "false") == "true"

	var authConfig v1middleware.AuthorizationConfig
	switch authMode {
	case "fail_closed":
		authConfig.Mode = v1models.AuthorizationModeFailClosed
	case "fail_open_admin":
		authConfig.Mode = v1models.AuthorizationModeFailOpenAdmin
	case "fail_open_admin_system":
		authConfig.Mode = v1models.AuthorizationModeFailOpenAdminSystem
	default:
		slog.Error("Invalid authorization mode. Valid options: fail_closed, fail_open_admin, fail_open_admin_system", "mode", authMode)
		os.Exit(1)
	}
	authConfig.StrictMode = strictMode

	authorizationMiddleware := v1middleware.NewAuthorizationMiddlewareWithConfig(authConfig)

	// Initialize Audit system (creates global instance for direct LogAuditEvent calls from handlers)
	_ = v1middleware.NewAuditLogger(logger)

	// Apply middleware chain (CORS -> JWT Auth -> Authorization) to the API mux ONLY
	// Note: Audit logging is done directly in handlers via LogAuditEvent calls, not through middleware
	protectedAPIHandler := corsMiddleware(
		jwtAuthMiddleware.AuthenticateJWT(
			authorizationMiddleware.AuthorizeRequest(apiMux),
		),
	)

	// Create the MAIN (top-level) mux for all incoming traffic
	topLevelMux := http.NewServeMux()

	// Register public routes directly on the top-level mux
	topLevelMux.Handle("/health", utils.PanicRecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		type DBHealth struct {
			Status   string `json:"status"`
			Error    string `json:"error,omitempty"`
			Database string `json:"database,omitempty"`
		}
		type HealthStatus struct {
			Status    string              `json:"status"`
			Service   string              `json:"service"`
			Databases map[string]DBHealth `json:"databases"`
		}

		status := HealthStatus{
			Status:  "healthy",
			Service: "membership-backend",
			Databases: map[string]DBHealth{
				"v1": {Status: "unknown"},
			},
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// Test V1 GORM database connection
		if gormDB == nil {
			status.Databases["v1"] = DBHealth{Status: "unhealthy", Error: "GORM connection is nil"}
			status.Status = "unhealthy"
		} else {
			sqlDB, err := gormDB.DB()
			if err != nil {
				status.Databases["v1"] = DBHealth{Status: "unhealthy", Error: fmt.Sprintf("failed to get sql.DB: %v", err)}
				status.Status = "unhealthy"
			} else if err := sqlDB.PingContext(ctx); err != nil {
				status.Databases["v1"] = DBHealth{Status: "unhealthy", Error: err.Error()}
				status.Status = "unhealthy"
			} else {
				status.Databases["v1"] = DBHealth{Status: "healthy", Database: v1DbConfig.Database}
			}
		}

		statusCode := http.StatusOK
		if status.Status != "healthy" {
			statusCode = http.StatusServiceUnavailable
		}

		utils.RespondWithJSON(w, statusCode, status)
	})))

	topLevelMux.Handle("/metrics", promhttp.Handler())

	// The payment webhook is delivered by the provider without a user token;
	// it authenticates with an HMAC signature instead. Registering the exact
	// path here wins over the /api/v1/ subtree below, keeping it outside the
	// JWT chain.
	topLevelMux.Handle("/api/v1/payments/webhooks",
		utils.PanicRecoveryMiddleware(http.HandlerFunc(v1Handler.HandlePaymentWebhook)))

	// Register the protected API routes to the top-level mux
	// All traffic to /api/v1/ (and its sub-paths) will pass through the middleware chain
	topLevelMux.Handle("/api/v1/", protectedAPIHandler)

	// Start the notification email worker
	workerCtx, stopWorker := context.WithCancel(context.Background())
	emailWorker := v1services.NewEmailWorker(gormDB, mailer)
	go emailWorker.Start(workerCtx)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	addr := ":" + port
	server := &http.Server{
		Addr:         addr,
		Handler:      metricsMiddleware(topLevelMux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Membership Backend starting", "port", port, "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Failed to start Membership Backend", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down Membership Backend...")

	// Stop the email worker before closing the database
	stopWorker()

	// Create a deadline to wait for
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// Gracefully close database connection
	if gormDB != nil {
		if sqlDB, err := gormDB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				slog.Error("Failed to close database connection", "error", err)
			}
		}
	}

	slog.Info("Membership Backend exited")
}
