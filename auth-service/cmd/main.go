package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	authcmd "github.com/cafein/cafein-server/auth-service/internal/command"
	"github.com/cafein/cafein-server/auth-service/internal/handler"
	"github.com/cafein/cafein-server/auth-service/internal/oauth"
	authqry "github.com/cafein/cafein-server/auth-service/internal/query"
	"github.com/cafein/cafein-server/auth-service/internal/repository"
	"github.com/cafein/cafein-server/shared/config"
	shareddb "github.com/cafein/cafein-server/shared/db"
	"github.com/cafein/cafein-server/shared/events"
	"github.com/cafein/cafein-server/shared/logging"
	"github.com/cafein/cafein-server/shared/middleware"
	redisClient "github.com/cafein/cafein-server/shared/redis"
	"github.com/cafein/cafein-server/shared/server"
	"github.com/cafein/cafein-server/shared/token"
)

func main() {
	cfg, err := config.Load("8081")
	if err != nil {
		panic(err)
	}
	logger := logging.MustNew("auth-service", cfg.LogLevel)
	defer logger.Sync() //nolint:errcheck
	zap.ReplaceGlobals(logger)

	if err := cfg.RequireJWTSecret(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	if cfg.CookieSecret == "" {
		logger.Fatal("invalid configuration", zap.String("missing", "COOKIE_SECRET"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := shareddb.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redis, err := redisClient.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redis.Close()

	issuer, err := token.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		logger.Fatal("failed to build token issuer", zap.Error(err))
	}

	google, err := oauth.NewGoogleProvider(ctx, cfg.GoogleClientID, cfg.GoogleClientSecret)
	if err != nil {
		logger.Fatal("failed to configure google login", zap.Error(err))
	}

	memberRepo := repository.NewMemberRepository(db)
	loginCommands := authcmd.NewOAuthLoginService(memberRepo, issuer, events.NewPublisher(redis.Client, "auth-service"), logger)
	authQueries := authqry.NewAuthQueryService(memberRepo, issuer)

	states := oauth.NewStateStore(cfg.CookieSecret, strings.HasPrefix(cfg.OAuthRedirectBaseURL, "https://"))
	social := handler.NewOAuthHandler(loginCommands, oauth.NewRegistry(google), states, cfg.OAuthRedirectBaseURL, cfg.FrontendLoginURL)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	limiter.StartCleanup(time.Minute, ctx.Done())

	router := server.NewRouter("auth-service", logger)
	handler.RegisterRoutes(router, handler.NewAuthHandler(authQueries), social, limiter.Middleware())

	if err := server.Run(ctx, ":"+cfg.Port, router, logger); err != nil {
		logger.Error("auth service stopped", zap.Error(err))
	}
}
