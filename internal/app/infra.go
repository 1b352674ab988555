package app

import (
	"context"
	"errors"

	"blog-service/internal/config"
	"blog-service/internal/db"
	"blog-service/internal/logger"
	"blog-service/internal/redis"
)

type Infra struct {
	DB *db.DB
	// Redis is nil when REDIS_ADDR is unset.
	Redis *redis.Client
}

func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	database, err := db.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	logger.Info("database ready", map[string]any{"driver": cfg.DatabaseDriver})

	infra := &Infra{DB: database}
	if cfg.RedisAddr == "" {
		logger.Warn("redis not configured, pending oauth authorizations kept in memory", nil)
		return infra, nil
	}

	redisClient, err := redis.New(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		_ = database.Close()
		return nil, err
	}
	infra.Redis = redisClient

	logger.Info("redis ready", map[string]any{"addr": cfg.RedisAddr})

	return infra, nil
}

func (i *Infra) Close() error {
	var errs []error
	if i.Redis != nil {
		errs = append(errs, i.Redis.Close())
	}
	errs = append(errs, i.DB.Close())
	return errors.Join(errs...)
}
