package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/extpay/internal/app/service/webhook"
	"github.com/fatflowers/extpay/pkg/apperr"
	"github.com/fatflowers/extpay/pkg/logctx"
	"github.com/fatflowers/extpay/pkg/response"
	"github.com/fatflowers/extpay/pkg/types"
)

type WebhookAcceptor interface {
	Accept(ctx context.Context, req *webhook.Request) error
}

type WebhookAccepted struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// @Summary      Payment webhook
// @Description  Receives order-transaction.create and order-refund.create webhooks. The x-webhook-sha1 header must equal sha1(webhookId:secret:rawBody).
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        x-shop-license  header  string  true  "Shop license"
// @Param        x-webhook-name  header  string  true  "Webhook type"
// @Param        x-webhook-id    header  string  true  "Webhook delivery ID"
// @Param        x-webhook-sha1  header  string  true  "Signature"
// @Param        payload  body  object  true  "Webhook payload"
// @Success      202  {object}  handlers.WebhookAccepted
// @Failure      400  {object}  response.ErrorBody
// @Router       /webhook/payment [post]
func PaymentWebhook(intake WebhookAcceptor, errs *response.ErrorRegistry, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := c.GetRawData()
		if err != nil {
			errs.Abort(c, apperr.BadRequest("invalid content type/payload"))
			return
		}
		req := &webhook.Request{
			ContentType: c.GetHeader("Content-Type"),
			ShopLicense: c.GetHeader(types.HeaderShopLicense),
			WebhookType: c.GetHeader(types.HeaderWebhookName),
			WebhookID:   c.GetHeader(types.HeaderWebhookID),
			Signature:   c.GetHeader(types.HeaderWebhookSHA1),
			Body:        body,
		}
		logctx.FromGin(c, log).Infow("webhook_received", "webhook_type", req.WebhookType, "webhook_id", req.WebhookID)

		if err := intake.Accept(c.Request.Context(), req); err != nil {
			errs.Abort(c, err)
			return
		}
		c.JSON(http.StatusAccepted, WebhookAccepted{Status: "accepted", Message: "Webhook accepted for processing"})
	}
}

func RegisterWebhookRoutes(r gin.IRouter, intake WebhookAcceptor, errs *response.ErrorRegistry, log *zap.SugaredLogger) {
	r.POST("/webhook/payment", PaymentWebhook(intake, errs, log))
}
