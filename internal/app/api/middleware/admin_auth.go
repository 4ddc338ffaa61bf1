package middleware

import (
	"context"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/extpay/internal/app/service/lifecycle"
	"github.com/fatflowers/extpay/internal/app/service/oauth"
	"github.com/fatflowers/extpay/internal/models"
	"github.com/fatflowers/extpay/pkg/apperr"
	"github.com/fatflowers/extpay/pkg/response"
)

const GinSessionKey = "session"

// adminSignedParams are the iframe query parameters covered by the hash.
var adminSignedParams = []string{"shop", "timestamp", "place"}

type ShopFinder interface {
	FindByCode(ctx context.Context, code string) (*models.ShopInstallation, error)
}

type ShopAuthenticator interface {
	Authenticate(ctx context.Context, shop *models.ShopInstallation) (*oauth.Session, error)
}

// AdminAuth authorises requests from the admin iframe by the shop, timestamp
// and hash query parameters, then attaches an authenticated session.
func AdminAuth(secret string, shops ShopFinder, auth ShopAuthenticator, errs *response.ErrorRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := c.Request.URL.Query()
		signed := url.Values{}
		for _, k := range adminSignedParams {
			if v := q.Get(k); v != "" {
				signed.Set(k, v)
			}
		}
		signed.Set("hash", q.Get("hash"))

		if _, err := strconv.ParseInt(q.Get("timestamp"), 10, 64); err != nil || signed.Get("shop") == "" {
			errs.Abort(c, apperr.Unauthorized("missing shop or timestamp"))
			return
		}
		if err := lifecycle.VerifyHash(signed, secret); err != nil {
			errs.Abort(c, err)
			return
		}

		shop, err := shops.FindByCode(c.Request.Context(), signed.Get("shop"))
		if err != nil {
			errs.Abort(c, err)
			return
		}
		sess, err := auth.Authenticate(c.Request.Context(), shop)
		if err != nil {
			errs.Abort(c, err)
			return
		}
		c.Set(GinSessionKey, sess)
		c.Next()
	}
}

// SessionFrom returns the session attached by AdminAuth.
func SessionFrom(c *gin.Context) *oauth.Session {
	if v, ok := c.Get(GinSessionKey); ok {
		if s, ok := v.(*oauth.Session); ok {
			return s
		}
	}
	return nil
}
