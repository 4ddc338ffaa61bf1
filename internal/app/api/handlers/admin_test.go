package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/extpay/internal/app/api/middleware"
	"github.com/fatflowers/extpay/internal/app/service/oauth"
	"github.com/fatflowers/extpay/internal/app/service/paymentmethod"
	"github.com/fatflowers/extpay/internal/app/service/transaction"
	"github.com/fatflowers/extpay/internal/models"
	"github.com/fatflowers/extpay/internal/platform/shoper"
)

type fakeShopAPI struct {
	payments  []shoper.Payment
	inserted  *shoper.Payment
	updated   map[int]*shoper.Payment
	deleted   []int
	deleteErr error
	channel   *shoper.PaymentChannel
	err       error
}

func (f *fakeShopAPI) ListPayments(context.Context, shoper.Auth) ([]shoper.Payment, error) {
	return f.payments, f.err
}

func (f *fakeShopAPI) InsertPayment(_ context.Context, _ shoper.Auth, p *shoper.Payment) (int, error) {
	f.inserted = p
	return 42, f.err
}

func (f *fakeShopAPI) UpdatePayment(_ context.Context, _ shoper.Auth, id int, p *shoper.Payment) error {
	if f.updated == nil {
		f.updated = map[int]*shoper.Payment{}
	}
	f.updated[id] = p
	return f.err
}

func (f *fakeShopAPI) DeletePayment(_ context.Context, _ shoper.Auth, id int) error {
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

func (f *fakeShopAPI) ListPaymentChannels(_ context.Context, _ shoper.Auth, id int) ([]shoper.PaymentChannel, error) {
	return []shoper.PaymentChannel{{ChannelID: 1, PaymentID: id, ApplicationChannelID: "blik"}}, f.err
}

func (f *fakeShopAPI) InsertPaymentChannel(_ context.Context, _ shoper.Auth, ch *shoper.PaymentChannel) (int, error) {
	f.channel = ch
	return 5, f.err
}

func (f *fakeShopAPI) DeletePaymentChannel(context.Context, shoper.Auth, int) error { return f.err }

func (f *fakeShopAPI) ListCurrencies(context.Context, shoper.Auth) ([]shoper.Currency, error) {
	return []shoper.Currency{{CurrencyID: 1, Name: "PLN"}}, f.err
}

type fakeRegistry struct {
	active  map[int]models.ShopPaymentMethod
	removed []int
}

func (f *fakeRegistry) Register(_ context.Context, shop *models.ShopInstallation, id int) (*models.ShopPaymentMethod, error) {
	m := models.ShopPaymentMethod{ID: "reg-new", ShopID: shop.ID, PaymentMethodID: id}
	f.active[id] = m
	return &m, nil
}

func (f *fakeRegistry) Remove(_ context.Context, _ *models.ShopInstallation, id int) error {
	if _, ok := f.active[id]; !ok {
		return paymentmethod.ErrNotFound
	}
	delete(f.active, id)
	f.removed = append(f.removed, id)
	return nil
}

func (f *fakeRegistry) FindActive(_ context.Context, _ int64, id int) (*models.ShopPaymentMethod, error) {
	m, ok := f.active[id]
	if !ok {
		return nil, paymentmethod.ErrNotFound
	}
	return &m, nil
}

func (f *fakeRegistry) ListActive(context.Context, int64) ([]models.ShopPaymentMethod, error) {
	return lo.Values(f.active), nil
}

type fakeScanner struct {
	shopID int64
	req    *transaction.ScanTransactionsRequest
}

func (f *fakeScanner) Scan(_ context.Context, shopID int64, req *transaction.ScanTransactionsRequest) (*transaction.ScanTransactionsResponse, error) {
	f.shopID, f.req = shopID, req
	return &transaction.ScanTransactionsResponse{Items: []*models.Transaction{}, Total: 0}, nil
}

type adminFixture struct {
	router   *gin.Engine
	api      *fakeShopAPI
	registry *fakeRegistry
	scanner  *fakeScanner
}

func newAdminFixture() *adminFixture {
	f := &adminFixture{
		api:      &fakeShopAPI{payments: []shoper.Payment{{PaymentID: 7, Active: true}, {PaymentID: 8}}},
		registry: &fakeRegistry{active: map[int]models.ShopPaymentMethod{7: {ID: "reg-7", ShopID: 1, PaymentMethodID: 7}}},
		scanner:  &fakeScanner{},
	}
	sess := &oauth.Session{
		Shop:  &models.ShopInstallation{ID: 1, Shop: "lic-1", ShopURL: "https://shop.example.com"},
		Token: &models.ShopToken{AccessToken: "tok", ExpiresAt: time.Now().Add(time.Hour)},
	}
	f.router = newRouter()
	g := f.router.Group("/api/admin", func(c *gin.Context) {
		c.Set(middleware.GinSessionKey, sess)
		c.Next()
	})
	RegisterAdminRoutes(g, NewAdmin(f.api, f.registry, f.scanner, newErrs(), zap.NewNop().Sugar()))
	return f
}

func (f *adminFixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestAdmin_ListPaymentMethods(t *testing.T) {
	f := newAdminFixture()
	w := f.do(http.MethodGet, "/api/admin/payment-methods", "")
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeBody(t, w)["data"].([]any)
	require.Len(t, data, 2)
	first := data[0].(map[string]any)
	assert.Equal(t, float64(7), first["payment_id"])
	assert.Equal(t, true, first["registered"])
	assert.Equal(t, "reg-7", first["registration_id"])
	assert.Equal(t, false, data[1].(map[string]any)["registered"])
}

func TestAdmin_CreatePaymentMethod(t *testing.T) {
	f := newAdminFixture()
	w := f.do(http.MethodPost, "/api/admin/payment-methods", `{"title":"Pay later","locale":"pl_PL","currencies":[1]}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"id":42}}`, w.Body.String())

	require.NotNil(t, f.api.inserted)
	assert.True(t, f.api.inserted.Active)
	assert.Equal(t, "Pay later", f.api.inserted.Translations["pl_PL"].Title)
	assert.Contains(t, f.registry.active, 42)

	w = f.do(http.MethodPost, "/api/admin/payment-methods", `{"locale":"pl_PL"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdmin_OnlyOwnedPaymentsAreEditable(t *testing.T) {
	f := newAdminFixture()

	w := f.do(http.MethodPut, "/api/admin/payment-methods/8", `{"title":"x","locale":"pl_PL"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, f.api.updated)

	w = f.do(http.MethodPut, "/api/admin/payment-methods/7", `{"title":"x","locale":"pl_PL","active":false}`)
	assert.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, f.api.updated, 7)
	assert.False(t, f.api.updated[7].Active)

	w = f.do(http.MethodGet, "/api/admin/payment-methods/abc/channels", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdmin_DeletePaymentMethod(t *testing.T) {
	f := newAdminFixture()
	f.api.deleteErr = &shoper.APIError{StatusCode: http.StatusNotFound, Message: "not found"}

	w := f.do(http.MethodDelete, "/api/admin/payment-methods/7", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int{7}, f.api.deleted)
	assert.Equal(t, []int{7}, f.registry.removed)
}

func TestAdmin_DeletePaymentMethodUpstreamFailure(t *testing.T) {
	f := newAdminFixture()
	f.api.deleteErr = &shoper.APIError{StatusCode: http.StatusServiceUnavailable, Message: "maintenance"}

	w := f.do(http.MethodDelete, "/api/admin/payment-methods/7", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Empty(t, f.registry.removed)
}

func TestAdmin_Channels(t *testing.T) {
	f := newAdminFixture()

	w := f.do(http.MethodGet, "/api/admin/payment-methods/7/channels", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["data"], 1)

	w = f.do(http.MethodPost, "/api/admin/payment-methods/7/channels", `{"application_channel_id":"blik","name":"BLIK","locale":"pl_PL"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, f.api.channel)
	assert.Equal(t, 7, f.api.channel.PaymentID)
	assert.Equal(t, "BLIK", f.api.channel.Translations["pl_PL"].Name)

	w = f.do(http.MethodDelete, "/api/admin/payment-methods/7/channels/5", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = f.do(http.MethodDelete, "/api/admin/payment-methods/7/channels/x", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdmin_CurrenciesAndScan(t *testing.T) {
	f := newAdminFixture()

	w := f.do(http.MethodGet, "/api/admin/currencies", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"PLN"`)

	w = f.do(http.MethodPost, "/api/admin/transactions/scan", `{"size":10,"sort_by":"created_at","sort_order":"desc"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), f.scanner.shopID)
	assert.Equal(t, 10, f.scanner.req.Size)
}

func TestAdmin_RequiresSession(t *testing.T) {
	r := newRouter()
	RegisterAdminRoutes(r.Group("/api/admin"), NewAdmin(&fakeShopAPI{}, &fakeRegistry{}, &fakeScanner{}, newErrs(), zap.NewNop().Sugar()))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/currencies", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
