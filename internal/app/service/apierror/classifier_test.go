package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fatflowers/extpay/internal/platform/shoper"
)

func TestIsRecoverableError_StatusCodes(t *testing.T) {
	for _, code := range []int{429, 500, 502, 503, 504} {
		assert.True(t, IsRecoverableError(&shoper.APIError{StatusCode: code, Message: "boom"}), code)
	}
	for _, code := range []int{0, 400, 401, 403, 404, 409, 422, 501} {
		assert.False(t, IsRecoverableError(&shoper.APIError{StatusCode: code, Message: "boom"}), code)
	}
}

func TestIsRecoverableError_Messages(t *testing.T) {
	cases := []string{
		"request Timeout: context deadline exceeded",
		"Too Many Requests",
		"please TRY AGAIN later",
		"service temporarily unavailable",
	}
	for _, msg := range cases {
		assert.True(t, IsRecoverableError(&shoper.APIError{StatusCode: 400, Message: msg}), msg)
	}
	assert.True(t, IsRecoverableError(fmt.Errorf("wrapped: %w", errors.New("i/o timeout"))))
	assert.False(t, IsRecoverableError(errors.New("invalid currency")))
	assert.False(t, IsRecoverableError(nil))
}

func TestClassify(t *testing.T) {
	cause := &shoper.APIError{StatusCode: http.StatusServiceUnavailable}
	err := Classify(fmt.Errorf("insert payment: %w", cause))

	var tmp *TemporaryPaymentAPIError
	require.True(t, errors.As(err, &tmp))
	require.True(t, tmp.Retryable())
	var apiErr *shoper.APIError
	require.True(t, errors.As(err, &apiErr), "cause stays reachable")

	err = Classify(&shoper.APIError{StatusCode: http.StatusUnprocessableEntity})
	var perm *PaymentAPIError
	require.True(t, errors.As(err, &perm))
	require.False(t, errors.As(err, &tmp))

	require.Same(t, err, Classify(err))
	require.NoError(t, Classify(nil))
}
