package paymentmethod

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/fatflowers/extpay/pkg/config"
)

func TestShopPattern(t *testing.T) {
	assert.Equal(t, "verify:https://shop.example.com:*", shopPattern("https://shop.example.com"))
	assert.Equal(t, `verify:https://a\*b\?c\[d\]\\e:*`, shopPattern(`https://a*b?c[d]\e`))
	assert.Equal(t, "verify:https://shop.example.com:42", verifyKey("https://shop.example.com", 42))
}

func TestNewVerifyCache(t *testing.T) {
	log := zap.NewNop().Sugar()

	lc := fxtest.NewLifecycle(t)
	assert.IsType(t, NopCache{}, NewVerifyCache(lc, &config.Config{}, log))

	lc = fxtest.NewLifecycle(t)
	cache := NewVerifyCache(lc, &config.Config{Redis: config.RedisConfig{Addr: "127.0.0.1:6379"}}, log)
	assert.IsType(t, &RedisCache{}, cache)
	lc.RequireStart().RequireStop()
}
