package shoper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/extpay/pkg/config"
	"github.com/fatflowers/extpay/pkg/logctx"
)

const pageLimit = 50

// Client talks to the REST API of an authenticated shop.
type Client struct {
	http    *http.Client
	apiPath string
	log     *zap.SugaredLogger
}

func New(cfg *config.Config, log *zap.SugaredLogger) *Client {
	return NewWithHTTPClient(&http.Client{Timeout: cfg.ShopAPITimeout()}, cfg.ShopAPI.APIPath, log)
}

func NewWithHTTPClient(hc *http.Client, apiPath string, log *zap.SugaredLogger) *Client {
	if apiPath == "" {
		apiPath = "/webapi/rest"
	}
	return &Client{http: hc, apiPath: strings.TrimRight(apiPath, "/"), log: log}
}

// HTTPClient is shared with the OAuth exchange so both honour the timeout.
func (c *Client) HTTPClient() *http.Client { return c.http }

// Endpoint builds an absolute resource URL under the shop REST root.
func (c *Client) Endpoint(shopURL, resource string) string {
	return strings.TrimRight(shopURL, "/") + c.apiPath + "/" + strings.TrimLeft(resource, "/")
}

func (c *Client) ListPayments(ctx context.Context, auth Auth) ([]Payment, error) {
	return listAll[Payment](ctx, c, auth, "payments", nil)
}

func (c *Client) GetPayment(ctx context.Context, auth Auth, paymentID int) (*Payment, error) {
	var p Payment
	if err := c.do(ctx, auth, http.MethodGet, "payments/"+strconv.Itoa(paymentID), nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// InsertPayment creates the payment and returns its remote id.
func (c *Client) InsertPayment(ctx context.Context, auth Auth, p *Payment) (int, error) {
	var id int
	if err := c.do(ctx, auth, http.MethodPost, "payments", nil, p, &id); err != nil {
		return 0, err
	}
	return id, nil
}

func (c *Client) UpdatePayment(ctx context.Context, auth Auth, paymentID int, p *Payment) error {
	return c.do(ctx, auth, http.MethodPut, "payments/"+strconv.Itoa(paymentID), nil, p, nil)
}

func (c *Client) DeletePayment(ctx context.Context, auth Auth, paymentID int) error {
	return c.do(ctx, auth, http.MethodDelete, "payments/"+strconv.Itoa(paymentID), nil, nil, nil)
}

func (c *Client) ListPaymentChannels(ctx context.Context, auth Auth, paymentID int) ([]PaymentChannel, error) {
	filters, _ := json.Marshal(map[string]int{"payment_id": paymentID})
	return listAll[PaymentChannel](ctx, c, auth, "payment-channels", url.Values{"filters": {string(filters)}})
}

func (c *Client) InsertPaymentChannel(ctx context.Context, auth Auth, ch *PaymentChannel) (int, error) {
	var id int
	if err := c.do(ctx, auth, http.MethodPost, "payment-channels", nil, ch, &id); err != nil {
		return 0, err
	}
	return id, nil
}

func (c *Client) DeletePaymentChannel(ctx context.Context, auth Auth, channelID int) error {
	return c.do(ctx, auth, http.MethodDelete, "payment-channels/"+strconv.Itoa(channelID), nil, nil, nil)
}

func (c *Client) ListCurrencies(ctx context.Context, auth Auth) ([]Currency, error) {
	return listAll[Currency](ctx, c, auth, "currencies", nil)
}

func listAll[T any](ctx context.Context, c *Client, auth Auth, resource string, query url.Values) ([]T, error) {
	var out []T
	for page := 1; ; page++ {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("page", strconv.Itoa(page))
		q.Set("limit", strconv.Itoa(pageLimit))

		var res listResponse[T]
		if err := c.do(ctx, auth, http.MethodGet, resource, q, nil, &res); err != nil {
			return nil, err
		}
		out = append(out, res.List...)
		if page >= res.Pages || len(res.List) == 0 {
			return out, nil
		}
	}
}

func (c *Client) do(ctx context.Context, auth Auth, method, resource string, query url.Values, body, out any) error {
	endpoint := c.Endpoint(auth.ShopURL, resource)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s body: %w", resource, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", resource, err)
	}
	req.Header.Set("Authorization", "Bearer "+auth.AccessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logctx.FromCtx(ctx, c.log).Warnw("shop_api_transport_error", "method", method, "resource", resource, "error", err.Error())
		return NewTransportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return NewTransportError(err)
	}
	logctx.FromCtx(ctx, c.log).Debugw("shop_api_call", "method", method, "resource", resource, "status", resp.StatusCode, "latency_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(resp.StatusCode, respBody)
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", resource, err)
	}
	return nil
}

var Module = fx.Options(
	fx.Provide(New),
)
