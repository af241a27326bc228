package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cafein/cafein-server/api-gateway/internal/proxy"
	"github.com/cafein/cafein-server/shared/config"
	"github.com/cafein/cafein-server/shared/logging"
	"github.com/cafein/cafein-server/shared/middleware"
	"github.com/cafein/cafein-server/shared/server"
)

const upstreamTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load("8080")
	if err != nil {
		panic(err)
	}
	logger := logging.MustNew("api-gateway", cfg.LogLevel)
	defer logger.Sync() //nolint:errcheck
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	limiter.StartCleanup(time.Minute, ctx.Done())

	gateway := proxy.New(proxy.Routes(cfg.AuthServiceURL, cfg.MemberServiceURL, cfg.CafeServiceURL), upstreamTimeout)

	router := server.NewRouter("api-gateway", logger)
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.NoRoute(limiter.Middleware(), gateway.Handle)

	logger.Info("routing to services",
		zap.String("auth", cfg.AuthServiceURL),
		zap.String("member", cfg.MemberServiceURL),
		zap.String("cafe", cfg.CafeServiceURL),
	)
	if err := server.Run(ctx, ":"+cfg.Port, router, logger); err != nil {
		logger.Error("api gateway stopped", zap.Error(err))
	}
}
