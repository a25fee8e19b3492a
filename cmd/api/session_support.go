package main

import (
	"context"
	"fmt"

	"github.com/gin-contrib/sessions"
	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/thankful-journal/internal/config"
	"github.com/yourusername/thankful-journal/internal/session"
)

// setupSessionStore は設定に応じたセッションストアと、その後始末を返します。
func setupSessionStore(ctx context.Context, cfg *config.Config) (sessions.Store, func(), error) {
	if cfg.SessionStore != config.SessionStoreRedis {
		store, err := session.NewStore(cfg, nil)
		return store, func() {}, err
	}

	opt, err := redis.ParseURL(cfg.SessionRedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse SESSION_REDIS_URL: %w", err)
	}

	redisClient := redis.NewClient(opt)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}

	store, err := session.NewStore(cfg, redisClient)
	if err != nil {
		_ = redisClient.Close()
		return nil, nil, err
	}

	closeFn := func() {
		if err := redisClient.Close(); err != nil {
			logrus.WithError(err).Warn("failed to close redis client")
		}
	}
	logrus.WithField("addr", opt.Addr).Info("connected to session redis")
	return store, closeFn, nil
}
