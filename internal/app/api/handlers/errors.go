package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/fatflowers/extpay/internal/app/service/apierror"
	"github.com/fatflowers/extpay/pkg/config"
	"github.com/fatflowers/extpay/pkg/response"
)

// NewErrorRegistry builds the registry shared by every handler: the apperr
// kinds first, then upstream shop API failures.
func NewErrorRegistry(cfg *config.Config, log *zap.SugaredLogger) *response.ErrorRegistry {
	r := response.NewDefaultErrorRegistry(cfg.IsDev(), log)
	r.Register(response.ErrorHandler{
		Name: "upstream_temporary",
		Match: func(err error) bool {
			var e *apierror.TemporaryPaymentAPIError
			return errors.As(err, &e)
		},
		Status: http.StatusServiceUnavailable,
		Redact: true,
	})
	r.Register(response.ErrorHandler{
		Name: "upstream",
		Match: func(err error) bool {
			var e *apierror.PaymentAPIError
			return errors.As(err, &e)
		},
		Status: http.StatusBadGateway,
		Redact: true,
	})
	return r
}
