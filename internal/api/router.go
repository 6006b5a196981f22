package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/grantscope/backend/internal/api/handlers"
	"github.com/grantscope/backend/internal/api/response"
	"github.com/grantscope/backend/internal/auth"
	"github.com/grantscope/backend/internal/cache"
	"github.com/grantscope/backend/internal/config"
	"github.com/grantscope/backend/internal/database"
	"github.com/grantscope/backend/internal/grants"
	"github.com/grantscope/backend/internal/middleware"
	"github.com/grantscope/backend/internal/notify"
	"github.com/grantscope/backend/internal/ratelimit"
	"github.com/grantscope/backend/internal/repository"
	"github.com/grantscope/backend/internal/service"
)

// NewRouter creates and configures the main router
func NewRouter(cfg *config.Config, db *database.DB, redisCache *cache.Redis) *chi.Mux {
	r := chi.NewRouter()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	rateLimitRepo := repository.NewRateLimitRepository(db)

	// Auth stack
	tokenService := auth.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	verifier := auth.NewCredentialVerifier(tokenService, userRepo)
	authMiddleware := auth.NewMiddleware(verifier)

	// Rate limiting
	limiter := ratelimit.New(rateLimitRepo, cfg.RateLimitFailOpen)

	// Services
	notifier := notify.NewLogNotifier()
	authService := service.NewAuthService(userRepo, tokenService, notifier, cfg.ResetTicketTTL)
	grantsClient := grants.NewClient(cfg.GrantsAPIURL, cfg.FetchTimeout)
	acquirer := grants.NewService(grantsClient, grants.Config{
		LiveEnabled:     cfg.LiveEnabled,
		FallbackEnabled: cfg.FallbackEnabled,
	})
	grantsService := service.NewGrantsService(acquirer, userRepo, redisCache, cfg.CacheTTL)

	// Handlers
	healthHandler := handlers.NewHealthChecker(db, redisCache)
	authHandler := handlers.NewAuthHandler(authService, userRepo)
	grantsHandler := handlers.NewGrantsHandler(grantsService)
	usageHandler := handlers.NewUsageHandler(limiter, userRepo, cfg.SearchRateLimit, cfg.ProposalRateLimit, cfg.RateLimitWindow)

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORSWithOrigins(cfg.CORSOrigins))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		response.Error(w, http.StatusNotFound, response.CodeNotFound, "Resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, response.CodeValidationError, "Method not allowed")
	})

	// Health endpoints
	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", handlers.LivenessProbe)
	r.Get("/health/ready", healthHandler.ReadinessProbe)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoints
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.Refresh)
		r.Post("/auth/reset-password", authHandler.ResetPassword)
		r.Post("/auth/confirm-reset", authHandler.ConfirmReset)
		r.Post("/auth/logout", authHandler.Logout)

		// Search: identity-aware rate limiting, auth optional
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.OptionalAuth)
			r.Use(middleware.RateLimit(limiter, ratelimit.OpSearch, cfg.SearchRateLimit, cfg.RateLimitWindow))
			r.Get("/grants/search", grantsHandler.Search)
		})

		// Protected user endpoints
		r.Route("/user", func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Get("/me", authHandler.Me)
			r.Get("/usage", usageHandler.Usage)
		})
	})

	return r
}
