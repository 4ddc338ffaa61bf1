package paymentmethod

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/extpay/pkg/config"
)

// VerifyCache stores verify results per shop URL and payment method id.
type VerifyCache interface {
	Get(ctx context.Context, shopURL string, paymentMethodID int) (*VerifyResult, bool, error)
	Set(ctx context.Context, shopURL string, paymentMethodID int, res *VerifyResult, ttl time.Duration) error
	// InvalidateShop drops every cached result of the shop.
	InvalidateShop(ctx context.Context, shopURL string) error
}

func verifyKey(shopURL string, paymentMethodID int) string {
	return "verify:" + shopURL + ":" + strconv.Itoa(paymentMethodID)
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// shopPattern matches every verify key of shopURL and nothing else.
func shopPattern(shopURL string) string {
	return "verify:" + globEscaper.Replace(shopURL) + ":*"
}

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, shopURL string, paymentMethodID int) (*VerifyResult, bool, error) {
	raw, err := c.client.Get(ctx, verifyKey(shopURL, paymentMethodID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read verify cache: %w", err)
	}
	var res VerifyResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, false, fmt.Errorf("failed to decode verify cache entry: %w", err)
	}
	return &res, true, nil
}

func (c *RedisCache) Set(ctx context.Context, shopURL string, paymentMethodID int, res *VerifyResult, ttl time.Duration) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, verifyKey(shopURL, paymentMethodID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write verify cache: %w", err)
	}
	return nil
}

func (c *RedisCache) InvalidateShop(ctx context.Context, shopURL string) error {
	iter := c.client.Scan(ctx, 0, shopPattern(shopURL), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan verify cache: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate verify cache: %w", err)
	}
	return nil
}

// NopCache is used when redis is not configured.
type NopCache struct{}

func (NopCache) Get(context.Context, string, int) (*VerifyResult, bool, error) { return nil, false, nil }
func (NopCache) Set(context.Context, string, int, *VerifyResult, time.Duration) error {
	return nil
}
func (NopCache) InvalidateShop(context.Context, string) error { return nil }

// NewVerifyCache connects to redis when an address is configured. The client
// is closed when the app stops.
func NewVerifyCache(lc fx.Lifecycle, cfg *config.Config, log *zap.SugaredLogger) VerifyCache {
	if cfg.Redis.Addr == "" {
		log.Infow("verify cache disabled: redis address not configured")
		return NopCache{}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			log.Infow("closing redis client")
			return client.Close()
		},
	})
	log.Infow("verify cache backed by redis", "addr", cfg.Redis.Addr)
	return NewRedisCache(client)
}
