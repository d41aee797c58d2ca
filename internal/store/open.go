package store

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ARF-DEV/caffeine_reply_bot/config"
	"github.com/ARF-DEV/caffeine_reply_bot/internal/cache/rediscache"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the Store selected by cfg.Driver. The returned closer
// releases the backing connection.
func Open(ctx context.Context, cfg config.StoreConfig, log *zap.Logger) (Store, io.Closer, error) {
	switch cfg.Driver {
	case "", config.StoreMemory:
		return NewMemoryStore(), nopCloser{}, nil

	case config.StoreFile:
		return NewFileStore(cfg.FilePath, log), nopCloser{}, nil

	case config.StoreRedis:
		rc := rediscache.CreateCache(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rc.Ping(ctx); err != nil {
			rc.Close()
			return nil, nil, err
		}
		cs := NewCacheStore(rc, cfg.RedisKeyPrefix, time.Duration(cfg.RedisTTL))
		return cs, cs, nil

	case config.StoreMySQL:
		db, err := ConnectMySQL(cfg.MySQLDSN)
		if err != nil {
			return nil, nil, errors.Wrap(err, "connect mysql")
		}
		gs, err := NewGormStore(db)
		if err != nil {
			if sqlDB, dbErr := db.DB(); dbErr == nil {
				sqlDB.Close()
			}
			return nil, nil, err
		}
		return gs, gs, nil
	}

	return nil, nil, errors.Wrap(config.ErrUnknownStore, cfg.Driver)
}
