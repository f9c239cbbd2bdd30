package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/chowjack2099/China-side-Execution/cmd/mainconfig"
	"github.com/chowjack2099/China-side-Execution/internal/api/router"
	appconfig "github.com/chowjack2099/China-side-Execution/internal/config"
	"github.com/chowjack2099/China-side-Execution/internal/leads"
	"github.com/chowjack2099/China-side-Execution/internal/notify"
	"github.com/chowjack2099/China-side-Execution/internal/observability/metrics"
	"github.com/chowjack2099/China-side-Execution/internal/web"
	"github.com/chowjack2099/China-side-Execution/pkg/logging"
)

// Options overrides clients Build would otherwise create from config.
type Options struct {
	Registry *prometheus.Registry
	SES      notify.SESAPI
	Redis    redis.Cmdable
}

// App is the assembled HTTP surface plus whatever needs closing on shutdown.
type App struct {
	Handler  http.Handler
	Registry *prometheus.Registry

	closers []func()
}

// Close releases background resources in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// Build wires config into the router. A missing provider credential is
// logged and leaves the intake route answering 500 rather than failing
// startup.
func Build(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, opts Options) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	app := &App{Registry: opts.Registry}
	if app.Registry == nil {
		app.Registry = prometheus.NewRegistry()
		app.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	leadMetrics := metrics.NewLeadMetrics(app.Registry)

	sender, err := buildSender(ctx, cfg, opts, logger)
	if err != nil {
		if !errors.Is(err, notify.ErrMissingCredential) {
			return nil, err
		}
		logger.Error("email provider not configured; submissions will fail", "provider", cfg.EmailProvider, "error", err)
		sender = nil
	}

	redisClient := opts.Redis
	if redisClient == nil {
		if client := BuildRedisClient(ctx, cfg, logger, true); client != nil {
			redisClient = client
			app.closers = append(app.closers, func() { _ = client.Close() })
		}
	}
	limiter, closeLimiter := BuildLimiter(cfg, redisClient, logger)
	app.closers = append(app.closers, closeLimiter)

	identity := leads.Identity{
		From:       cfg.FromAddress,
		OwnerEmail: cfg.LeadToEmail,
		Brand:      cfg.BrandName,
		LegalName:  cfg.BrandLegalName,
		WhatsApp:   cfg.ContactWhatsApp,
	}
	dispatcher := leads.NewDispatcher(sender, identity, leadMetrics, logger)
	leadsHandler := leads.NewHandler(dispatcher, leads.HandlerConfig{
		Normalizer: leads.Normalizer{
			DefaultSource: cfg.DefaultSource,
			HoneypotField: cfg.HoneypotField,
		},
		Responder: leads.Responder{
			ThankYouPath: cfg.ThankYouPath,
			ExposeDetail: cfg.ExposeErrorDetail,
		},
		Metrics: leadMetrics,
	}, logger)

	app.Handler = router.New(&router.Config{
		Logger:             logger,
		LeadsHandler:       leadsHandler,
		MetricsHandler:     promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{}),
		StaticHandler:      web.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		CORSDefaultOrigin:  cfg.DefaultOrigin(),
		TrustProxyHeaders:  cfg.TrustProxyHeaders,
		Limiter:            limiter,
	})
	return app, nil
}

func buildSender(ctx context.Context, cfg *appconfig.Config, opts Options, logger *logging.Logger) (notify.EmailSender, error) {
	deps := notify.ProviderDeps{SES: opts.SES}
	if cfg.EmailProvider == appconfig.ProviderSES && deps.SES == nil {
		client, err := mainconfig.NewSESClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		deps.SES = client
	}
	sender, err := notify.NewSender(cfg, deps, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("email provider ready", "provider", cfg.EmailProvider)
	return sender, nil
}
