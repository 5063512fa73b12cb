package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/apihub-auth/internal/api/http"
	"github.com/spec-kit/apihub-auth/internal/api/http/handlers"
	"github.com/spec-kit/apihub-auth/internal/auth"
	"github.com/spec-kit/apihub-auth/internal/cache"
	"github.com/spec-kit/apihub-auth/internal/config"
	"github.com/spec-kit/apihub-auth/internal/events"
	"github.com/spec-kit/apihub-auth/internal/mail"
	"github.com/spec-kit/apihub-auth/internal/oauth"
	"github.com/spec-kit/apihub-auth/internal/observability"
	"github.com/spec-kit/apihub-auth/internal/persistence"
	"github.com/spec-kit/apihub-auth/internal/repository"
	"github.com/spec-kit/apihub-auth/internal/service"
	"github.com/spec-kit/apihub-auth/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	userRepo := repository.NewUserRepository(pg.PoolHandle())
	userCache := cache.NewUserCache(redis.Client, cfg.Auth.PrincipalCacheTTLSeconds, logger)
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:   userRepo,
		Cache:      userCache,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})

	mailer := mail.NewMailer(cfg.Mail, logger)
	notificationService := service.NewNotificationService(dispatcher, mailer, logger)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo, userCache)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout(), !cfg.App.Production())

	providers := buildProviders(cfg.OAuth)

	healthHandler := handlers.NewHealthHandler(pg, redis)
	authHandler := handlers.NewAuthHandler(authService, cfg.App.Production())
	var oauthHandler *handlers.OAuthHandler
	if len(providers) > 0 {
		oauthHandler = handlers.NewOAuthHandler(authService, providers, cfg.OAuth.ClientSSORedirectURL, cfg.App.Production())
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         healthHandler,
		Auth:           authHandler,
		OAuth:          oauthHandler,
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

// buildProviders instantiates only the providers that have credentials set.
func buildProviders(cfg config.OAuthConfig) []oauth.Provider {
	var providers []oauth.Provider
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		providers = append(providers, oauth.NewGoogleProvider(oauth.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.RedirectBaseURL + "/api/v1/auth/google/callback",
		}))
	}
	if cfg.GithubClientID != "" && cfg.GithubClientSecret != "" {
		providers = append(providers, oauth.NewGithubProvider(oauth.GithubConfig{
			ClientID:     cfg.GithubClientID,
			ClientSecret: cfg.GithubClientSecret,
			RedirectURL:  cfg.RedirectBaseURL + "/api/v1/auth/github/callback",
		}))
	}
	return providers
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
