// Package control wires configuration into pools, service wrappers, and
// the admin server, and owns the process lifecycle.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hireloop/keypool/internal/admin"
	"github.com/hireloop/keypool/internal/core/config"
	"github.com/hireloop/keypool/internal/infra/completion"
	"github.com/hireloop/keypool/internal/infra/mailer"
	"github.com/hireloop/keypool/internal/keypool"
	"github.com/hireloop/keypool/internal/service/analysis"
	"github.com/hireloop/keypool/internal/service/dispatch"
)

const gaugeRefreshInterval = 15 * time.Second

// Config is the application configuration.
type Config struct {
	Port     int
	Services []config.ServiceConfig

	// FromAddress is the sender for dispatchers built from email services.
	FromAddress string
}

// App owns the pools and the admin server for one process.
type App struct {
	manager *keypool.Manager
	admin   *admin.Server
	log     *slog.Logger

	completionPools map[string]*keypool.Pool[*completion.Client]
	mailerPools     map[string]*keypool.Pool[*mailer.Client]

	analyzers   map[string]*analysis.Analyzer
	dispatchers map[string]*dispatch.Dispatcher

	cancel context.CancelFunc
	done   chan struct{}
}

// NewApp builds one pool per configured service. Credentials come from
// the environment via each service's env_prefix; a service with zero
// credentials still gets a pool so callers receive ErrNoCredentials
// instead of a nil dereference.
func NewApp(cfg Config) (*App, error) {
	app := &App{
		manager:         keypool.NewManager(),
		log:             slog.Default(),
		completionPools: make(map[string]*keypool.Pool[*completion.Client]),
		mailerPools:     make(map[string]*keypool.Pool[*mailer.Client]),
		analyzers:       make(map[string]*analysis.Analyzer),
		dispatchers:     make(map[string]*dispatch.Dispatcher),
		done:            make(chan struct{}),
	}

	for _, svc := range cfg.Services {
		creds := config.CollectCredentials(svc.EnvPrefix)
		opts := keypool.Options{
			Cooldown:    svc.Cooldown.Std(),
			MaxAttempts: svc.MaxAttempts,
			BaseDelay:   svc.BaseDelay.Std(),
			MaxDelay:    svc.MaxDelay.Std(),
			RateLimit:   svc.RateLimit,
			HardFail:    svc.HardFail,
		}

		switch svc.Kind {
		case config.KindCompletion:
			baseURL, timeout := svc.BaseURL, svc.Timeout.Std()
			pool := keypool.New(svc.Name, creds, func(cred string) (*completion.Client, error) {
				return completion.New(cred, baseURL, timeout)
			}, opts)
			app.completionPools[svc.Name] = pool
			app.analyzers[svc.Name] = analysis.New(pool, "")
			app.manager.Register(svc.Name, pool)
		case config.KindEmail:
			baseURL, timeout := svc.BaseURL, svc.Timeout.Std()
			pool := keypool.New(svc.Name, creds, func(cred string) (*mailer.Client, error) {
				return mailer.New(cred, baseURL, timeout)
			}, opts)
			app.mailerPools[svc.Name] = pool
			app.dispatchers[svc.Name] = dispatch.New(pool, cfg.FromAddress)
			app.manager.Register(svc.Name, pool)
		default:
			return nil, fmt.Errorf("control: service %s: unknown kind %q", svc.Name, svc.Kind)
		}

		masked := make([]string, 0, len(creds))
		for _, c := range creds {
			masked = append(masked, keypool.Mask(c))
		}
		slog.Info("Pool initialized",
			"service", svc.Name,
			"kind", svc.Kind,
			"keys", len(creds),
			"credentials", masked,
			"cooldown", svc.Cooldown.Std(),
		)
	}

	app.admin = admin.NewServer(app.manager, cfg.Port)
	return app, nil
}

// Manager exposes the pool manager for in-process consumers.
func (a *App) Manager() *keypool.Manager { return a.manager }

// Analyzer returns the resume analyzer for a completion service.
func (a *App) Analyzer(service string) (*analysis.Analyzer, error) {
	an, ok := a.analyzers[service]
	if !ok {
		return nil, fmt.Errorf("control: no completion service %q", service)
	}
	return an, nil
}

// Dispatcher returns the email dispatcher for an email service.
func (a *App) Dispatcher(service string) (*dispatch.Dispatcher, error) {
	d, ok := a.dispatchers[service]
	if !ok {
		return nil, fmt.Errorf("control: no email service %q", service)
	}
	return d, nil
}

// Start launches the admin server and the gauge refresher.
func (a *App) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	go func() {
		if err := a.admin.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Admin server failed", "error", err)
		}
	}()

	go a.runGaugeRefresher(runCtx)

	slog.Info("keypool started", "services", a.manager.Names())
	return nil
}

// Stop shuts the admin server down and waits for the refresher to exit.
func (a *App) Stop(ctx context.Context) error {
	if a.cancel != nil {
		a.cancel()
	}
	err := a.admin.Stop(ctx)

	select {
	case <-a.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}

func (a *App) runGaugeRefresher(ctx context.Context) {
	defer close(a.done)

	ticker := time.NewTicker(gaugeRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for name, snap := range a.manager.Status() {
				keypool.PublishGauges(name, snap)
			}
		}
	}
}
