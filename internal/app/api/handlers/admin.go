package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/fatflowers/extpay/internal/app/api/middleware"
	"github.com/fatflowers/extpay/internal/app/service/apierror"
	"github.com/fatflowers/extpay/internal/app/service/oauth"
	"github.com/fatflowers/extpay/internal/app/service/paymentmethod"
	"github.com/fatflowers/extpay/internal/app/service/transaction"
	"github.com/fatflowers/extpay/internal/models"
	"github.com/fatflowers/extpay/internal/platform/shoper"
	"github.com/fatflowers/extpay/pkg/apperr"
	"github.com/fatflowers/extpay/pkg/logctx"
	"github.com/fatflowers/extpay/pkg/response"
)

// ShopPaymentAPI is the part of the shop REST client used by the admin API.
type ShopPaymentAPI interface {
	ListPayments(ctx context.Context, auth shoper.Auth) ([]shoper.Payment, error)
	InsertPayment(ctx context.Context, auth shoper.Auth, p *shoper.Payment) (int, error)
	UpdatePayment(ctx context.Context, auth shoper.Auth, paymentID int, p *shoper.Payment) error
	DeletePayment(ctx context.Context, auth shoper.Auth, paymentID int) error
	ListPaymentChannels(ctx context.Context, auth shoper.Auth, paymentID int) ([]shoper.PaymentChannel, error)
	InsertPaymentChannel(ctx context.Context, auth shoper.Auth, ch *shoper.PaymentChannel) (int, error)
	DeletePaymentChannel(ctx context.Context, auth shoper.Auth, channelID int) error
	ListCurrencies(ctx context.Context, auth shoper.Auth) ([]shoper.Currency, error)
}

type PaymentRegistry interface {
	Register(ctx context.Context, shop *models.ShopInstallation, paymentMethodID int) (*models.ShopPaymentMethod, error)
	Remove(ctx context.Context, shop *models.ShopInstallation, paymentMethodID int) error
	FindActive(ctx context.Context, shopID int64, paymentMethodID int) (*models.ShopPaymentMethod, error)
	ListActive(ctx context.Context, shopID int64) ([]models.ShopPaymentMethod, error)
}

type TransactionScanner interface {
	Scan(ctx context.Context, shopID int64, req *transaction.ScanTransactionsRequest) (*transaction.ScanTransactionsResponse, error)
}

type Admin struct {
	api      ShopPaymentAPI
	registry PaymentRegistry
	txns     TransactionScanner
	errs     *response.ErrorRegistry
	log      *zap.SugaredLogger
}

func NewAdmin(api ShopPaymentAPI, registry PaymentRegistry, txns TransactionScanner, errs *response.ErrorRegistry, log *zap.SugaredLogger) *Admin {
	return &Admin{api: api, registry: registry, txns: txns, errs: errs, log: log}
}

// PaymentMethodItem is a shop payment annotated with its local registration.
type PaymentMethodItem struct {
	shoper.Payment
	Registered     bool   `json:"registered"`
	RegistrationID string `json:"registration_id,omitempty"`
}

type PaymentMethodRequest struct {
	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description" binding:"max=4096"`
	Locale      string `json:"locale" binding:"required"`
	Active      *bool  `json:"active"`
	Notify      string `json:"notify"`
	Currencies  []int  `json:"currencies"`
}

func (r *PaymentMethodRequest) toPayment() *shoper.Payment {
	active := lo.FromPtrOr(r.Active, true)
	return &shoper.Payment{
		Active:     active,
		Visible:    active,
		Notify:     r.Notify,
		Currencies: r.Currencies,
		Translations: map[string]shoper.PaymentTranslation{
			r.Locale: {Title: r.Title, Description: r.Description, Active: active},
		},
	}
}

type PaymentChannelRequest struct {
	ApplicationChannelID string `json:"application_channel_id" binding:"required,max=128"`
	Name                 string `json:"name" binding:"required,max=255"`
	Description          string `json:"description"`
	AdditionalInfo       string `json:"additional_info"`
	Locale               string `json:"locale" binding:"required"`
	Type                 string `json:"type"`
	Currencies           []int  `json:"currencies"`
}

type CreatedID struct {
	ID int `json:"id"`
}

func (a *Admin) session(c *gin.Context) (*oauth.Session, bool) {
	sess := middleware.SessionFrom(c)
	if sess == nil {
		a.errs.Abort(c, apperr.Unauthorized("missing shop session"))
		return nil, false
	}
	return sess, true
}

// owned resolves the :id path parameter to a payment registered by this shop.
func (a *Admin) owned(c *gin.Context, sess *oauth.Session) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		a.errs.Abort(c, apperr.BadRequest("invalid payment method id"))
		return 0, false
	}
	if _, err := a.registry.FindActive(c.Request.Context(), sess.Shop.ID, id); err != nil {
		a.errs.Abort(c, err)
		return 0, false
	}
	return id, true
}

func upstream(err error) error {
	return apierror.Classify(err)
}

// @Summary      List payment methods
// @Description  Payments configured on the shop, annotated with their local registration.
// @Tags         Admin
// @Produce      json
// @Param        shop       query  string  true  "Shop license"
// @Param        timestamp  query  string  true  "Request timestamp"
// @Param        hash       query  string  true  "HMAC-SHA512 signature"
// @Success      200  {object}  handlers.RespPaymentMethods
// @Failure      401  {object}  response.ErrorBody
// @Failure      502  {object}  response.ErrorBody
// @Router       /api/admin/payment-methods [get]
func (a *Admin) ListPaymentMethods(c *gin.Context) {
	sess, ok := a.session(c)
	if !ok {
		return
	}
	payments, err := a.api.ListPayments(c.Request.Context(), sess.Auth())
	if err != nil {
		a.errs.Abort(c, upstream(err))
		return
	}
	registered, err := a.registry.ListActive(c.Request.Context(), sess.Shop.ID)
	if err != nil {
		a.errs.Abort(c, err)
		return
	}
	byID := lo.KeyBy(registered, func(m models.ShopPaymentMethod) int { return m.PaymentMethodID })
	items := lo.Map(payments, func(p shoper.Payment, _ int) PaymentMethodItem {
		item := PaymentMethodItem{Payment: p}
		if reg, ok := byID[p.PaymentID]; ok {
			item.Registered = true
			item.RegistrationID = reg.ID
		}
		return item
	})
	c.JSON(http.StatusOK, response.OKT(items))
}

// @Summary      Create payment method
// @Description  Creates the payment on the shop and registers it as handled by this application.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request  body  handlers.PaymentMethodRequest  true  "Payment method"
// @Success      201  {object}  handlers.RespCreated
// @Failure      400  {object}  response.ErrorBody
// @Failure      502  {object}  response.ErrorBody
// @Router       /api/admin/payment-methods [post]
func (a *Admin) CreatePaymentMethod(c *gin.Context) {
	sess, ok := a.session(c)
	if !ok {
		return
	}
	var req PaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.errs.Abort(c, apperr.BadRequest(err.Error()))
		return
	}
	id, err := a.api.InsertPayment(c.Request.Context(), sess.Auth(), req.toPayment())
	if err != nil {
		a.errs.Abort(c, upstream(err))
		return
	}
	if _, err := a.registry.Register(c.Request.Context(), sess.Shop, id); err != nil {
		a.errs.Abort(c, err)
		return
	}
	logctx.FromGin(c, a.log).Infow("admin_payment_method_created", "shop", sess.Shop.Shop, "payment_method_id", id)
	c.JSON(http.StatusCreated, response.OKT(CreatedID{ID: id}))
}

// @Summary      Update payment method
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        id       path  int                            true  "Payment method ID"
// @Param        request  body  handlers.PaymentMethodRequest  true  "Payment method"
// @Success      200  {object}  handlers.RespOK
// @Failure      404  {object}  response.ErrorBody
// @Router       /api/admin/payment-methods/{id} [put]
func (a *Admin) UpdatePaymentMethod(c *gin.Context) {
	sess, ok := a.session(c)
	if !ok {
		return
	}
	id, ok := a.owned(c, sess)
	if !ok {
		return
	}
	var req PaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.errs.Abort(c, apperr.BadRequest(err.Error()))
		return
	}
	if err := a.api.UpdatePayment(c.Request.Context(), sess.Auth(), id, req.toPayment()); err != nil {
		a.errs.Abort(c, upstream(err))
		return
	}
	c.JSON(http.StatusOK, response.OKT[any](nil))
}

// @Summary      Delete payment method
// @Description  Deletes the payment on the shop and removes the local registration. A payment already gone from the shop is still unregistered.
// @Tags         Admin
// @Produce      json
// @Param        id  path  int  true  "Payment method ID"
// @Success      200  {object}  handlers.RespOK
// @Failure      404  {object}  response.ErrorBody
// @Router       /api/admin/payment-methods/{id} [delete]
func (a *Admin) DeletePaymentMethod(c *gin.Context) {
	sess, ok := a.session(c)
	if !ok {
		return
	}
	id, ok := a.owned(c, sess)
	if !ok {
		return
	}
	if err := a.api.DeletePayment(c.Request.Context(), sess.Auth(), id); err != nil && !isUpstreamNotFound(err) {
		a.errs.Abort(c, upstream(err))
		return
	}
	if err := a.registry.Remove(c.Request.Context(), sess.Shop, id); err != nil && !errors.Is(err, paymentmethod.ErrNotFound) {
		a.errs.Abort(c, err)
		return
	}
	logctx.FromGin(c, a.log).Infow("admin_payment_method_deleted", "shop", sess.Shop.Shop, "payment_method_id", id)
	c.JSON(http.StatusOK, response.OKT[any](nil))
}

// @Summary      List payment channels
// @Tags         Admin
// @Produce      json
// @Param        id  path  int  true  "Payment method ID"
// @Success      200  {object}  handlers.RespPaymentChannels
// @Router       /api/admin/payment-methods/{id}/channels [get]
func (a *Admin) ListChannels(c *gin.Context) {
	sess, ok := a.session(c)
	if !ok {
		return
	}
	id, ok := a.owned(c, sess)
	if !ok {
		return
	}
	channels, err := a.api.ListPaymentChannels(c.Request.Context(), sess.Auth(), id)
	if err != nil {
		a.errs.Abort(c, upstream(err))
		return
	}
	c.JSON(http.StatusOK, response.OKT(channels))
}

// @Summary      Create payment channel
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        id       path  int                             true  "Payment method ID"
// @Param        request  body  handlers.PaymentChannelRequest  true  "Channel"
// @Success      201  {object}  handlers.RespCreated
// @Router       /api/admin/payment-methods/{id}/channels [post]
func (a *Admin) CreateChannel(c *gin.Context) {
	sess, ok := a.session(c)
	if !ok {
		return
	}
	id, ok := a.owned(c, sess)
	if !ok {
		return
	}
	var req PaymentChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.errs.Abort(c, apperr.BadRequest(err.Error()))
		return
	}
	ch := &shoper.PaymentChannel{
		PaymentID:            id,
		ApplicationChannelID: req.ApplicationChannelID,
		Type:                 req.Type,
		Currencies:           req.Currencies,
		Translations: map[string]shoper.PaymentChannelTranslation{
			req.Locale: {Name: req.Name, Description: req.Description, AdditionalInfo: req.AdditionalInfo},
		},
	}
	channelID, err := a.api.InsertPaymentChannel(c.Request.Context(), sess.Auth(), ch)
	if err != nil {
		a.errs.Abort(c, upstream(err))
		return
	}
	c.JSON(http.StatusCreated, response.OKT(CreatedID{ID: channelID}))
}

// @Summary      Delete payment channel
// @Tags         Admin
// @Produce      json
// @Param        id         path  int  true  "Payment method ID"
// @Param        channelId  path  int  true  "Channel ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/admin/payment-methods/{id}/channels/{channelId} [delete]
func (a *Admin) DeleteChannel(c *gin.Context) {
	sess, ok := a.session(c)
	if !ok {
		return
	}
	if _, ok := a.owned(c, sess); !ok {
		return
	}
	channelID, err := strconv.Atoi(c.Param("channelId"))
	if err != nil || channelID <= 0 {
		a.errs.Abort(c, apperr.BadRequest("invalid channel id"))
		return
	}
	if err := a.api.DeletePaymentChannel(c.Request.Context(), sess.Auth(), channelID); err != nil {
		a.errs.Abort(c, upstream(err))
		return
	}
	c.JSON(http.StatusOK, response.OKT[any](nil))
}

// @Summary      List currencies
// @Tags         Admin
// @Produce      json
// @Success      200  {object}  handlers.RespCurrencies
// @Router       /api/admin/currencies [get]
func (a *Admin) ListCurrencies(c *gin.Context) {
	sess, ok := a.session(c)
	if !ok {
		return
	}
	currencies, err := a.api.ListCurrencies(c.Request.Context(), sess.Auth())
	if err != nil {
		a.errs.Abort(c, upstream(err))
		return
	}
	c.JSON(http.StatusOK, response.OKT(currencies))
}

// @Summary      Scan transactions
// @Description  Paginated, filterable listing of the shop's recorded transactions.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request  body  transaction.ScanTransactionsRequest  true  "Filters, pagination and sorting"
// @Success      200  {object}  handlers.RespScanTransactions
// @Failure      400  {object}  response.ErrorBody
// @Router       /api/admin/transactions/scan [post]
func (a *Admin) ScanTransactions(c *gin.Context) {
	sess, ok := a.session(c)
	if !ok {
		return
	}
	var req transaction.ScanTransactionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.errs.Abort(c, apperr.BadRequest(err.Error()))
		return
	}
	res, err := a.txns.Scan(c.Request.Context(), sess.Shop.ID, &req)
	if err != nil {
		a.errs.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OKT(res))
}

func isUpstreamNotFound(err error) bool {
	var apiErr *shoper.APIError
	return errors.As(err, &apiErr) && apiErr.HTTPStatusCode() == http.StatusNotFound
}

func RegisterAdminRoutes(r gin.IRouter, a *Admin) {
	r.GET("/payment-methods", a.ListPaymentMethods)
	r.POST("/payment-methods", a.CreatePaymentMethod)
	r.PUT("/payment-methods/:id", a.UpdatePaymentMethod)
	r.DELETE("/payment-methods/:id", a.DeletePaymentMethod)
	r.GET("/payment-methods/:id/channels", a.ListChannels)
	r.POST("/payment-methods/:id/channels", a.CreateChannel)
	r.DELETE("/payment-methods/:id/channels/:channelId", a.DeleteChannel)
	r.GET("/currencies", a.ListCurrencies)
	r.POST("/transactions/scan", a.ScanTransactions)
}
