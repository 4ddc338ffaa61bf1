package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/extpay/docs"
	"github.com/fatflowers/extpay/internal/app/api/handlers"
	mw "github.com/fatflowers/extpay/internal/app/api/middleware"
	"github.com/fatflowers/extpay/internal/app/service/credential"
	"github.com/fatflowers/extpay/internal/app/service/lifecycle"
	"github.com/fatflowers/extpay/internal/app/service/oauth"
	"github.com/fatflowers/extpay/internal/app/service/paymentmethod"
	"github.com/fatflowers/extpay/internal/app/service/transaction"
	"github.com/fatflowers/extpay/internal/app/service/webhook"
	"github.com/fatflowers/extpay/internal/platform/shoper"
	cfgpkg "github.com/fatflowers/extpay/pkg/config"
	metrics "github.com/fatflowers/extpay/pkg/metrics"
	"github.com/fatflowers/extpay/pkg/response"
)

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Add request tracing middleware only; request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware())
	return r
}

type routeDeps struct {
	fx.In

	Engine    *gin.Engine
	Log       *zap.SugaredLogger
	Cfg       *cfgpkg.Config
	Errors    *response.ErrorRegistry
	Intake    *webhook.Intake
	Lifecycle *lifecycle.Service
	Registry  *paymentmethod.Registry
	Shops     *credential.Store
	Auth      *oauth.Authenticator
	ShopAPI   *shoper.Client
	Txns      *transaction.Repository
}

func registerRoutes(d routeDeps) {
	r, log, cfg := d.Engine, d.Log, d.Cfg

	// Prometheus metrics
	if cfg != nil && cfg.MetricsAddr != "" {
		p := metrics.NewPrometheus(metrics.NewPrometheusOptions{
			ReqCntURLLabelMappingFn: func(c *gin.Context) string {
				if fp := c.FullPath(); fp != "" {
					return fp
				}
				return c.Request.URL.Path
			},
			Logger: log,
		})
		p.SetListenAddress(cfg.MetricsAddr)
		p.Use(r)
	}

	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(log))
	handlers.RegisterHealthRoutes(pub)
	// Swagger UI
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	handlers.RegisterWebhookRoutes(pub, d.Intake, d.Errors, log)
	handlers.RegisterAppStoreRoutes(pub, handlers.AppStoreConfig{
		ApplicationCode: cfg.AppStore.ApplicationCode,
		Secret:          cfg.AppStore.AppstoreSecret,
	}, d.Lifecycle, d.Errors, log)
	handlers.RegisterVerifyRoutes(pub, d.Registry, d.Errors, log, mw.CORS(cfg.Verify.AllowedOrigins))

	admin := r.Group("/api/admin")
	admin.Use(
		mw.RequestLoggerMiddleware(log),
		mw.AccessLogMiddleware(log),
		mw.AdminAuth(cfg.AppStore.AppstoreSecret, d.Shops, d.Auth, d.Errors),
	)
	handlers.RegisterAdminRoutes(admin, handlers.NewAdmin(d.ShopAPI, d.Registry, d.Txns, d.Errors, log))
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

func newErrorRegistry(cfg *cfgpkg.Config, log *zap.SugaredLogger) *response.ErrorRegistry {
	return handlers.NewErrorRegistry(cfg, log)
}

var Module = fx.Options(
	fx.Provide(newEngine, newErrorRegistry),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
