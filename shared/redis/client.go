package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/cafein/cafein-server/shared/metrics"
)

const (
	dialTimeout = 5 * time.Second
	ioTimeout   = 3 * time.Second
	poolSize    = 10
)

// Client is the connection every service shares for its view cache, member
// counters and event streams.
type Client struct {
	*goredis.Client
}

// NewClient connects and pings. Every command is timed into the
// cafein_redis_command_duration_seconds histogram.
func NewClient(ctx context.Context, addr, password string, db int) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
		PoolSize:     poolSize,
	})
	rdb.AddHook(commandTimer{})

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &Client{Client: rdb}, nil
}

// commandTimer is a go-redis hook feeding shared/metrics.
type commandTimer struct{}

func (commandTimer) DialHook(next goredis.DialHook) goredis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (commandTimer) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		metrics.ObserveRedisCommand(cmd.Name(), time.Since(start), failed(err))
		return err
	}
}

func (commandTimer) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []goredis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		metrics.ObserveRedisCommand("pipeline", time.Since(start), failed(err))
		return err
	}
}

func failed(err error) bool {
	return err != nil && !errors.Is(err, goredis.Nil)
}
