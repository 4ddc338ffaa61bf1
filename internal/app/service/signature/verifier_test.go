package signature

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sha1Hex(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestVerifier_Sign(t *testing.T) {
	v := NewWithSecret("s3cret", zap.NewNop().Sugar())
	body := []byte(`{"order_id":"o1"}`)

	assert.Equal(t, sha1Hex(`id1:s3cret:{"order_id":"o1"}`), v.Sign("id1", body))
}

func TestVerifier_Verify(t *testing.T) {
	v := NewWithSecret("s3cret", zap.NewNop().Sugar())
	ctx := context.Background()
	body := []byte(`{"order_id":"o1","payment_id":"42"}`)
	sig := v.Sign("id1", body)

	require.NoError(t, v.Verify(ctx, "id1", body, sig))
	require.NoError(t, v.Verify(ctx, "id1", body, strings.ToUpper(sig)))

	assert.ErrorIs(t, v.Verify(ctx, "id2", body, sig), ErrInvalidSignature)
	assert.ErrorIs(t, v.Verify(ctx, "id1", body, ""), ErrInvalidSignature)
	assert.ErrorIs(t, v.Verify(ctx, "id1", body, "deadbeef"), ErrInvalidSignature)

	other := NewWithSecret("other", zap.NewNop().Sugar())
	assert.ErrorIs(t, other.Verify(ctx, "id1", body, sig), ErrInvalidSignature)
}

func TestVerifier_RawBytesFidelity(t *testing.T) {
	v := NewWithSecret("s3cret", zap.NewNop().Sugar())
	ctx := context.Background()
	original := []byte(`{"order_id": "o1", "payment_id": "42"}`)
	sig := v.Sign("id1", original)

	reformatted := []byte(`{"order_id":"o1","payment_id":"42"}`)
	assert.ErrorIs(t, v.Verify(ctx, "id1", reformatted, sig), ErrInvalidSignature)

	withNewline := append(append([]byte{}, original...), '\n')
	assert.ErrorIs(t, v.Verify(ctx, "id1", withNewline, sig), ErrInvalidSignature)

	require.NoError(t, v.Verify(ctx, "id1", original, sig))
}
