package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	cafecmd "github.com/cafein/cafein-server/cafe-service/internal/command"
	"github.com/cafein/cafein-server/cafe-service/internal/handler"
	cafeqry "github.com/cafein/cafein-server/cafe-service/internal/query"
	"github.com/cafein/cafein-server/cafe-service/internal/repository"
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
	cfg, err := config.Load("8083")
	if err != nil {
		panic(err)
	}
	logger := logging.MustNew("cafe-service", cfg.LogLevel)
	defer logger.Sync() //nolint:errcheck
	zap.ReplaceGlobals(logger)

	if err := cfg.RequireJWTSecret(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database connection (write store)
	db, err := shareddb.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Redis connection (read model cache + event streaming)
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
	publisher := events.NewPublisher(redis.Client, "cafe-service")
	detailCache := redisClient.NewViewCache[models.CafeDetailView](redis.Client, cfg.CacheTTL, logger)

	cafeWriteRepo := repository.NewCafeWriteRepository(db)
	postWriteRepo := repository.NewPostWriteRepository(db)
	bookmarkRepo := repository.NewPostBookmarkRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	cafeReadRepo := repository.NewCafeReadRepository(shareddb.Reader(db), detailCache, cfg.Location())
	postReadRepo := repository.NewPostReadRepository(shareddb.Reader(db))

	cafeCommands := cafecmd.NewCafeCommandService(cafeWriteRepo, memberRepo, cafeReadRepo, publisher, logger)
	postCommands := cafecmd.NewPostCommandService(postWriteRepo, cafeReadRepo, publisher, logger)
	bookmarkCommands := cafecmd.NewBookmarkCommandService(bookmarkRepo, publisher, logger)
	cafeQueries := cafeqry.NewCafeQueryService(cafeReadRepo)
	postQueries := cafeqry.NewPostQueryService(postReadRepo, cafeReadRepo)

	router := server.NewRouter("cafe-service", logger)
	handler.RegisterRoutes(router,
		handler.NewCafeHandler(cafeCommands, cafeQueries),
		handler.NewPostHandler(postCommands, postQueries, bookmarkCommands),
		middleware.AuthMiddleware(issuer),
		middleware.OptionalAuthMiddleware(issuer),
	)

	go func() {
		subscriber := events.NewSubscriber(redis.Client, events.SubscriberConfig{
			Group:    "cafe-service-group",
			Consumer: "cafe-consumer-1",
			Stream:   events.MemberEventsStream,
			Handler:  cafeCommands.HandleMemberEvent,
			Logger:   logger,
		})
		if err := subscriber.Start(ctx); err != nil && ctx.Err() == nil {
			logger.Error("member event subscriber stopped", zap.Error(err))
		}
	}()

	if err := server.Run(ctx, ":"+cfg.Port, router, logger); err != nil {
		logger.Error("cafe service stopped", zap.Error(err))
	}
}
