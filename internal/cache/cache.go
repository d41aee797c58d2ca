package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrMiss is returned by GetAndParse when the key does not exist.
var ErrMiss = errors.New("cache: key not found")

type (
	Cache interface {
		GetAndParse(ctx context.Context, key string, dst interface{}) error
		Set(ctx context.Context, key string, value interface{}) error
		SetExp(ctx context.Context, key string, value interface{}, exp time.Duration) error
		SetExpFunc(ctx context.Context, key string, value interface{}, expFunc ExpFunc) error
		Del(ctx context.Context, key string) error
		Ping(ctx context.Context) error
		Close() error
	}

	ExpFunc func(ctx context.Context, val interface{}) time.Duration
)
