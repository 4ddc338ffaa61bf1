package apierror

import (
	"errors"
	"net/http"
	"strings"

	"github.com/samber/lo"
)

var recoverableStatusCodes = []int{
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// Substring matching is a heuristic for upstreams that report throttling or
// outages in the message instead of the status code.
var recoverableMessages = []string{
	"timeout",
	"too many requests",
	"try again",
	"temporarily unavailable",
}

type statusCoder interface {
	HTTPStatusCode() int
}

// IsRecoverableError reports whether an upstream failure is expected to
// succeed when retried later.
func IsRecoverableError(err error) bool {
	if err == nil {
		return false
	}
	var sc statusCoder
	if errors.As(err, &sc) && lo.Contains(recoverableStatusCodes, sc.HTTPStatusCode()) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range recoverableMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// Classify wraps an upstream failure into a TemporaryPaymentAPIError or a
// PaymentAPIError. Already classified errors are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var tmp *TemporaryPaymentAPIError
	var perm *PaymentAPIError
	if errors.As(err, &tmp) || errors.As(err, &perm) {
		return err
	}
	if IsRecoverableError(err) {
		return &TemporaryPaymentAPIError{cause: err}
	}
	return &PaymentAPIError{cause: err}
}
