package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/extpay/pkg/apperr"
	"github.com/fatflowers/extpay/pkg/logctx"
)

const GenericErrorMessage = "An error occurred while processing the request"

// APIResponse is the success envelope used by JSON APIs.
type APIResponse[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data,omitempty"`
}

// OKT returns a successful response with data.
func OKT[T any](data T) *APIResponse[T] {
	return &APIResponse[T]{Success: true, Data: data}
}

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Success bool     `json:"success"`
	Error   string   `json:"error"`
	Message string   `json:"message,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// ErrorHandler maps one kind of error to a status code and body.
type ErrorHandler struct {
	Name   string
	Match  func(err error) bool
	Status int
	// Redact hides err.Error() from callers outside dev mode.
	Redact bool
	// Body optionally customises the response body.
	Body func(err error) ErrorBody
}

// ErrorRegistry resolves errors against handlers in registration order.
// The first matching handler wins; unmatched errors produce a 500.
type ErrorRegistry struct {
	handlers []ErrorHandler
	dev      bool
	log      *zap.SugaredLogger
}

func NewErrorRegistry(dev bool, log *zap.SugaredLogger) *ErrorRegistry {
	return &ErrorRegistry{dev: dev, log: log}
}

// NewDefaultErrorRegistry registers the handlers for the apperr kinds.
func NewDefaultErrorRegistry(dev bool, log *zap.SugaredLogger) *ErrorRegistry {
	r := NewErrorRegistry(dev, log)
	r.Register(ErrorHandler{
		Name: "validation",
		Match: func(err error) bool {
			var ve *apperr.ValidationError
			return errors.As(err, &ve)
		},
		Status: http.StatusBadRequest,
		Body: func(err error) ErrorBody {
			var ve *apperr.ValidationError
			errors.As(err, &ve)
			return ErrorBody{Error: "Validation failed", Errors: ve.Violations}
		},
	})
	r.Register(KindHandler("bad_request", apperr.ErrBadRequest, http.StatusBadRequest, false))
	r.Register(KindHandler("unauthorized", apperr.ErrUnauthorized, http.StatusUnauthorized, false))
	r.Register(KindHandler("not_found", apperr.ErrNotFound, http.StatusNotFound, false))
	return r
}

// KindHandler matches errors wrapping kind.
func KindHandler(name string, kind error, status int, redact bool) ErrorHandler {
	return ErrorHandler{
		Name:   name,
		Match:  func(err error) bool { return errors.Is(err, kind) },
		Status: status,
		Redact: redact,
	}
}

func (r *ErrorRegistry) Register(h ErrorHandler) {
	r.handlers = append(r.handlers, h)
}

// Resolve returns the status code and body for err.
func (r *ErrorRegistry) Resolve(err error) (int, ErrorBody) {
	for _, h := range r.handlers {
		if !h.Match(err) {
			continue
		}
		var body ErrorBody
		if h.Body != nil {
			body = h.Body(err)
		} else {
			body = ErrorBody{Error: err.Error()}
		}
		if h.Redact && !r.dev {
			body = ErrorBody{Error: GenericErrorMessage}
		}
		body.Success = false
		return h.Status, body
	}
	body := ErrorBody{Success: false, Error: GenericErrorMessage}
	if r.dev {
		body.Message = err.Error()
	}
	return http.StatusInternalServerError, body
}

// Abort logs err and writes the resolved error response.
func (r *ErrorRegistry) Abort(c *gin.Context, err error) {
	status, body := r.Resolve(err)
	lg := logctx.FromGin(c, r.log)
	if status >= http.StatusInternalServerError {
		lg.Errorw("http_request_failed", "status", status, "error", err.Error(), "path", c.FullPath())
	} else {
		lg.Warnw("http_request_rejected", "status", status, "error", err.Error(), "path", c.FullPath())
	}
	c.AbortWithStatusJSON(status, body)
}
