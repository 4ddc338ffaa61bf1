package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/extpay/internal/app/service/lifecycle"
	"github.com/fatflowers/extpay/pkg/apperr"
	"github.com/fatflowers/extpay/pkg/logctx"
	"github.com/fatflowers/extpay/pkg/response"
)

type LifecycleHandler interface {
	Handle(ctx context.Context, e *lifecycle.Event) error
}

type AppStoreConfig struct {
	ApplicationCode string
	Secret          string
}

type AppStoreResult struct {
	Success bool `json:"success"`
}

// @Summary      App Store event
// @Description  Install, upgrade and uninstall callbacks. The hash field is an HMAC-SHA512 over the other sorted form fields.
// @Tags         AppStore
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        action               formData  string  true   "install | upgrade | uninstall"
// @Param        application_code     formData  string  true   "Application code"
// @Param        application_version  formData  int     true   "Application version"
// @Param        auth_code            formData  string  false  "One-time OAuth code (install)"
// @Param        shop                 formData  string  true   "Shop license"
// @Param        shop_url             formData  string  true   "Shop URL"
// @Param        trial                formData  string  false  "Trial flag"
// @Param        hash                 formData  string  true   "Signature"
// @Success      200  {object}  handlers.AppStoreResult
// @Failure      400  {object}  response.ErrorBody
// @Failure      401  {object}  response.ErrorBody
// @Router       /app-store/event [post]
func AppStoreEvent(cfg AppStoreConfig, svc LifecycleHandler, errs *response.ErrorRegistry, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := c.Request.ParseForm(); err != nil {
			errs.Abort(c, apperr.BadRequest("invalid form body"))
			return
		}
		form := c.Request.PostForm
		if len(form) == 0 {
			form = c.Request.Form
		}
		if err := lifecycle.VerifyHash(form, cfg.Secret); err != nil {
			errs.Abort(c, err)
			return
		}
		event, err := lifecycle.ParseEvent(form, cfg.ApplicationCode)
		if err != nil {
			errs.Abort(c, err)
			return
		}
		logctx.FromGin(c, log).Infow("app_store_event_received", "action", event.Action, "shop", event.Shop)

		if err := svc.Handle(c.Request.Context(), event); err != nil {
			errs.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, AppStoreResult{Success: true})
	}
}

func RegisterAppStoreRoutes(r gin.IRouter, cfg AppStoreConfig, svc LifecycleHandler, errs *response.ErrorRegistry, log *zap.SugaredLogger) {
	r.POST("/app-store/event", AppStoreEvent(cfg, svc, errs, log))
}
