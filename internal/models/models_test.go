package models

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestShopToken_IsExpired(t *testing.T) {
	now := time.Now()
	tok := &ShopToken{ExpiresAt: now}
	assert.False(t, tok.IsExpired(now), "expiry is exclusive: now == expiresAt is still valid")
	assert.True(t, tok.IsExpired(now.Add(time.Second)))
	assert.False(t, tok.IsExpired(now.Add(-time.Second)))

	var missing *ShopToken
	assert.True(t, missing.IsExpired(now))
}

func TestShopPaymentMethod_State(t *testing.T) {
	m := &ShopPaymentMethod{}
	assert.Equal(t, PaymentMethodStateActive, m.State())
	assert.True(t, m.IsActive())

	m.RemovedAt = lo.ToPtr(time.Now())
	assert.Equal(t, PaymentMethodStateRemoved, m.State())
	assert.False(t, m.IsActive())
}
