package apierror

// PaymentAPIError is a final upstream failure. It is never retried.
type PaymentAPIError struct {
	cause error
}

func NewPaymentAPIError(cause error) *PaymentAPIError { return &PaymentAPIError{cause: cause} }

func (e *PaymentAPIError) Error() string { return "payment api error: " + e.cause.Error() }
func (e *PaymentAPIError) Unwrap() error { return e.cause }

// TemporaryPaymentAPIError is an upstream failure worth retrying with backoff.
type TemporaryPaymentAPIError struct {
	cause error
}

func NewTemporaryPaymentAPIError(cause error) *TemporaryPaymentAPIError {
	return &TemporaryPaymentAPIError{cause: cause}
}

func (e *TemporaryPaymentAPIError) Error() string {
	return "temporary payment api error: " + e.cause.Error()
}
func (e *TemporaryPaymentAPIError) Unwrap() error { return e.cause }

// Retryable marks the error as eligible for bus redelivery.
func (e *TemporaryPaymentAPIError) Retryable() bool { return true }
