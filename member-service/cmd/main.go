package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	membercmd "github.com/cafein/cafein-server/member-service/internal/command"
	"github.com/cafein/cafein-server/member-service/internal/handler"
	memberqry "github.com/cafein/cafein-server/member-service/internal/query"
	"github.com/cafein/cafein-server/member-service/internal/repository"
	"github.com/cafein/cafein-server/shared/config"
	shareddb "github.com/cafein/cafein-server/shared/db"
	"github.com/cafein/cafein-server/shared/events"
	"github.com/cafein/cafein-server/shared/logging"
	"github.com/cafein/cafein-server/shared/middleware"
	"github.com/cafein/cafein-server/shared/models"
	redisClient "github.com/cafein/cafein-server/shared/redis"
	"github.com/cafein/cafein-server/shared/server"
	"github.com/cafein/cafein-server/shared/token"
)

func main() {
	cfg, err := config.Load("8082")
	if err != nil {
		panic(err)
	}
	logger := logging.MustNew("member-service", cfg.LogLevel)
	defer logger.Sync() //nolint:errcheck
	zap.ReplaceGlobals(logger)

	if err := cfg.RequireJWTSecret(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
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

	// --- CQRS wiring ---
	publisher := events.NewPublisher(redis.Client, "member-service")
	stats := redisClient.NewMemberStats(redis.Client)
	viewCache := redisClient.NewViewCache[models.MemberView](redis.Client, cfg.CacheTTL, logger)

	writeRepo := repository.NewMemberWriteRepository(db)
	readRepo := repository.NewMemberReadRepository(shareddb.Reader(db), viewCache)

	commandSvc := membercmd.NewMemberCommandService(writeRepo, readRepo, stats, publisher, logger)
	querySvc := memberqry.NewMemberQueryService(readRepo, stats, logger)

	router := server.NewRouter("member-service", logger)
	handler.RegisterRoutes(router, handler.NewMemberHandler(commandSvc, querySvc), middleware.AuthMiddleware(issuer))

	for _, stream := range []string{events.PostEventsStream, events.BookmarkEventsStream} {
		subscriber := events.NewSubscriber(redis.Client, events.SubscriberConfig{
			Group:    "member-service-group",
			Consumer: "member-consumer-1",
			Stream:   stream,
			Handler:  commandSvc.HandleContentEvent,
			Logger:   logger,
		})
		go func() {
			if err := subscriber.Start(ctx); err != nil && ctx.Err() == nil {
				logger.Error("content event subscriber stopped", zap.Error(err))
			}
		}()
	}

	if err := server.Run(ctx, ":"+cfg.Port, router, logger); err != nil {
		logger.Error("member service stopped", zap.Error(err))
	}
}
