// Package oauth runs the OAuth token lifecycle of installed shops.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/fatflowers/extpay/internal/app/service/apierror"
	"github.com/fatflowers/extpay/internal/app/service/credential"
	"github.com/fatflowers/extpay/internal/models"
	"github.com/fatflowers/extpay/internal/platform/shoper"
	"github.com/fatflowers/extpay/pkg/config"
	"github.com/fatflowers/extpay/pkg/logctx"
)

const tokenPath = "/webapi/rest/oauth/token"

// Session is an authenticated shop together with the token to call it with.
type Session struct {
	Shop  *models.ShopInstallation
	Token *models.ShopToken
}

// Auth returns the credentials for the shop REST client.
func (s *Session) Auth() shoper.Auth {
	return shoper.Auth{ShopURL: s.Shop.ShopURL, AccessToken: s.Token.AccessToken}
}

type Authenticator struct {
	store        *credential.Store
	clientID     string
	clientSecret string
	httpClient   *http.Client
	log          *zap.SugaredLogger
	now          func() time.Time
}

func New(cfg *config.Config, store *credential.Store, api *shoper.Client, log *zap.SugaredLogger) *Authenticator {
	return NewWithHTTPClient(cfg.AppStore.ClientID, cfg.AppStore.ClientSecret, store, api.HTTPClient(), log)
}

func NewWithHTTPClient(clientID, clientSecret string, store *credential.Store, hc *http.Client, log *zap.SugaredLogger) *Authenticator {
	return &Authenticator{
		store:        store,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   hc,
		log:          log,
		now:          time.Now,
	}
}

// Authenticate returns a session for shop. The active token is reused while
// it has not expired; otherwise it is refreshed, or a new one is exchanged for
// the stored authorization code. New tokens are persisted before returning.
func (a *Authenticator) Authenticate(ctx context.Context, shop *models.ShopInstallation) (*Session, error) {
	lg := logctx.FromCtx(ctx, a.log).With("shop", shop.Shop)

	current, err := a.store.ActiveToken(ctx, shop.ID)
	if err != nil && !errors.Is(err, credential.ErrTokenNotFound) {
		return nil, err
	}
	if current != nil && !current.IsExpired(a.now()) {
		return &Session{Shop: shop, Token: current}, nil
	}

	var token *models.ShopToken
	if current != nil && current.RefreshToken != "" {
		lg.Infow("shop_token_refresh", "expired_at", current.ExpiresAt)
		token, err = a.Refresh(ctx, shop.ShopURL, current.RefreshToken)
	} else {
		lg.Infow("shop_token_exchange")
		token, err = a.Exchange(ctx, shop.ShopURL, shop.AuthCode)
	}
	if err != nil {
		return nil, err
	}
	return a.persist(ctx, shop, token)
}

// Install exchanges the one-time authorization code and only then stores the
// installation with its first token. A failed exchange persists nothing, so a
// reinstall keeps the previous row intact.
func (a *Authenticator) Install(ctx context.Context, shop *models.ShopInstallation) (*Session, error) {
	shopURL, err := credential.NormalizeShopURL(shop.ShopURL)
	if err != nil {
		return nil, err
	}
	shop.ShopURL = shopURL
	token, err := a.Exchange(ctx, shop.ShopURL, shop.AuthCode)
	if err != nil {
		return nil, err
	}
	if err := a.store.Install(ctx, shop, token); err != nil {
		return nil, err
	}
	logctx.FromCtx(ctx, a.log).Infow("shop_installed", "shop", shop.Shop, "shop_id", shop.ID)
	return &Session{Shop: shop, Token: token}, nil
}

func (a *Authenticator) persist(ctx context.Context, shop *models.ShopInstallation, token *models.ShopToken) (*Session, error) {
	if err := a.store.RotateToken(ctx, shop.ID, token); err != nil {
		return nil, err
	}
	stored, err := a.store.ActiveToken(ctx, shop.ID)
	if err != nil {
		return nil, fmt.Errorf("token was not persisted: %w", err)
	}
	if stored.AccessToken != token.AccessToken {
		return nil, errors.New("token was not persisted: active token differs")
	}
	return &Session{Shop: shop, Token: stored}, nil
}

// Exchange runs the authorization_code grant against the shop.
func (a *Authenticator) Exchange(ctx context.Context, shopURL, code string) (*models.ShopToken, error) {
	tok, err := a.config(shopURL).Exchange(a.clientContext(ctx), code)
	if err != nil {
		return nil, apierror.Classify(fmt.Errorf("oauth code exchange: %w", toAPIError(err)))
	}
	return a.toModel(tok), nil
}

// Refresh runs the refresh_token grant against the shop.
func (a *Authenticator) Refresh(ctx context.Context, shopURL, refreshToken string) (*models.ShopToken, error) {
	src := a.config(shopURL).TokenSource(a.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, apierror.Classify(fmt.Errorf("oauth token refresh: %w", toAPIError(err)))
	}
	return a.toModel(tok), nil
}

func (a *Authenticator) config(shopURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     a.clientID,
		ClientSecret: a.clientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  strings.TrimRight(shopURL, "/") + tokenPath,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

func (a *Authenticator) clientContext(ctx context.Context) context.Context {
	if a.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
}

func (a *Authenticator) toModel(tok *oauth2.Token) *models.ShopToken {
	expires := tok.Expiry
	if expires.IsZero() {
		expires = a.now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}
	return &models.ShopToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    expires.UTC(),
	}
}

func toAPIError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		e := &shoper.APIError{Code: re.ErrorCode, Description: re.ErrorDescription}
		if re.Response != nil {
			e.StatusCode = re.Response.StatusCode
		}
		if e.Code == "" && e.Description == "" {
			e.Message = strings.TrimSpace(string(re.Body))
		}
		return e
	}
	return shoper.NewTransportError(err)
}

var Module = fx.Options(
	fx.Provide(New),
)
