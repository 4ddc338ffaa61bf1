package handlers

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/extpay/internal/app/service/paymentmethod"
	"github.com/fatflowers/extpay/pkg/apperr"
	"github.com/fatflowers/extpay/pkg/logctx"
	"github.com/fatflowers/extpay/pkg/response"
)

var jsonpCallbackPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$.]*$`)

type PaymentVerifier interface {
	Verify(ctx context.Context, shopURL string, paymentMethodID int) (*paymentmethod.VerifyResult, error)
}

type verifyParams struct {
	ShopURL         string          `json:"shopUrl"`
	PaymentMethodID json.RawMessage `json:"paymentMethodId"`
	paymentMethodID string
}

// @Summary      Verify payment method
// @Description  Public endpoint for storefront scripts. Parameters may be sent in the query string, a JSON body or a form. A callback query parameter switches the response to JSONP.
// @Tags         Storefront
// @Produce      json
// @Param        shopUrl          query  string  true   "Shop URL"
// @Param        paymentMethodId  query  int     true   "Payment method ID"
// @Param        callback         query  string  false  "JSONP callback name"
// @Success      200  {object}  paymentmethod.VerifyResult
// @Failure      400  {object}  response.ErrorBody
// @Failure      404  {object}  response.ErrorBody
// @Router       /api/shop/payment-methods/verify [get]
// @Router       /api/shop/payment-methods/verify [post]
func VerifyPaymentMethod(svc PaymentVerifier, errs *response.ErrorRegistry, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		callback := c.Query("callback")
		if callback != "" && !jsonpCallbackPattern.MatchString(callback) {
			// an invalid name cannot be echoed back, answer with plain JSON
			errs.Abort(c, apperr.BadRequest("invalid callback name"))
			return
		}

		params, err := readVerifyParams(c)
		if err != nil {
			writeVerifyError(c, errs, log, callback, err)
			return
		}
		id, err := strconv.Atoi(params.paymentMethodID)
		if err != nil || id <= 0 {
			writeVerifyError(c, errs, log, callback, apperr.BadRequest("paymentMethodId must be a positive integer"))
			return
		}

		res, err := svc.Verify(c.Request.Context(), params.ShopURL, id)
		if err != nil {
			writeVerifyError(c, errs, log, callback, err)
			return
		}
		logctx.FromGin(c, log).Debugw("payment_method_verified", "shop_url", params.ShopURL, "payment_method_id", id, "supported", res.IsSupported)
		writeVerify(c, http.StatusOK, callback, res)
	}
}

func readVerifyParams(c *gin.Context) (*verifyParams, error) {
	p := &verifyParams{
		ShopURL:         c.Query("shopUrl"),
		paymentMethodID: c.Query("paymentMethodId"),
	}
	if c.Request.Method == http.MethodPost && c.Request.ContentLength != 0 {
		mediaType, _, _ := mime.ParseMediaType(c.GetHeader("Content-Type"))
		switch mediaType {
		case "application/json":
			var body verifyParams
			if err := json.NewDecoder(c.Request.Body).Decode(&body); err != nil {
				return nil, apperr.BadRequest("invalid JSON body")
			}
			if body.ShopURL != "" {
				p.ShopURL = body.ShopURL
			}
			if raw := strings.Trim(string(body.PaymentMethodID), `"`); raw != "" && raw != "null" {
				p.paymentMethodID = raw
			}
		case "application/x-www-form-urlencoded", "multipart/form-data":
			if v := c.PostForm("shopUrl"); v != "" {
				p.ShopURL = v
			}
			if v := c.PostForm("paymentMethodId"); v != "" {
				p.paymentMethodID = v
			}
		}
	}

	v := &apperr.ValidationError{}
	if strings.TrimSpace(p.ShopURL) == "" {
		v.Add("shopUrl is required")
	}
	if strings.TrimSpace(p.paymentMethodID) == "" {
		v.Add("paymentMethodId is required")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

func writeVerifyError(c *gin.Context, errs *response.ErrorRegistry, log *zap.SugaredLogger, callback string, err error) {
	if callback == "" {
		errs.Abort(c, err)
		return
	}
	status, body := errs.Resolve(err)
	logctx.FromGin(c, log).Warnw("verify_failed", "status", status, "error", err.Error())
	writeVerify(c, status, callback, body)
	c.Abort()
}

// writeVerify renders JSON, or JSONP as callback(json); when callback is set.
func writeVerify(c *gin.Context, status int, callback string, v any) {
	if callback == "" {
		c.JSON(status, v)
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Header("X-Content-Type-Options", "nosniff")
	c.Data(status, "application/javascript; charset=utf-8", []byte(callback+"("+string(b)+");"))
}

func RegisterVerifyRoutes(r gin.IRouter, svc PaymentVerifier, errs *response.ErrorRegistry, log *zap.SugaredLogger, cors gin.HandlerFunc) {
	h := VerifyPaymentMethod(svc, errs, log)
	g := r.Group("/api/shop/payment-methods", cors)
	g.GET("/verify", h)
	g.POST("/verify", h)
	// preflight is answered by the cors middleware
	g.OPTIONS("/verify", func(c *gin.Context) { c.Status(http.StatusNoContent) })
}
