package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	backendadapter "github.com/BitForged/Compass/internal/adapters/backend"
	catalogadapter "github.com/BitForged/Compass/internal/adapters/catalog"
	realtimeadapter "github.com/BitForged/Compass/internal/adapters/realtime"
	statusadapter "github.com/BitForged/Compass/internal/adapters/render/status"
	chainstore "github.com/BitForged/Compass/internal/adapters/storage/chain"
	redisstore "github.com/BitForged/Compass/internal/adapters/storage/redis"
	tomlstore "github.com/BitForged/Compass/internal/adapters/storage/toml"
	"github.com/BitForged/Compass/internal/application"
	"github.com/BitForged/Compass/internal/config"
	"github.com/BitForged/Compass/internal/domain"
	"github.com/BitForged/Compass/internal/logging"
	"github.com/BitForged/Compass/internal/ports"
	"github.com/BitForged/Compass/internal/version"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
)

const redisDialTimeout = 5 * time.Second

type app struct {
	cfg         *config.Config
	log         *slog.Logger
	storage     ports.LocalStorage
	storageName string
	closeFns    []func() error

	registry *prometheus.Registry
	metrics  *backendadapter.Metrics
	rtMetric *realtimeadapter.Metrics

	alerts   *application.AlertQueue
	backend  *backendadapter.Client
	api      *backendadapter.API
	catalog  *catalogadapter.Client
	session  *application.SessionStore
	router   *application.Router
	settings *application.SettingsStore

	statusRenderer func(statusadapter.Status, statusadapter.RenderOptions) (string, error)
	now            func() time.Time
}

// wireApp builds the object graph in dependency order. The session and the
// router need each other, so the session navigates through a func that is
// resolved once the router exists.
func wireApp(logOutput io.Writer) (*app, error) {
	v := viper.New()
	cfg, err := config.Load(v, os.Getenv("COMPASS_CONFIG"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logging.New(logOutput, cfg.Log.Level, cfg.Log.Format)
	ctx := context.Background()

	a := &app{
		cfg:            cfg,
		log:            log,
		registry:       prometheus.NewRegistry(),
		statusRenderer: statusadapter.Render,
		now:            time.Now,
	}

	a.storage, a.storageName, err = openStorage(ctx, v, cfg.Storage, a)
	if err != nil {
		return nil, fmt.Errorf("wire local storage: %w", err)
	}

	a.metrics = backendadapter.NewMetrics(a.registry)
	a.rtMetric = realtimeadapter.NewMetrics(a.registry)
	a.alerts = application.NewAlertQueue(ports.SystemClock{}, cfg.Alerts.Timeout, log)
	a.alerts.Subscribe(func(n domain.Notification) {
		log.Debug("notification shown", "id", n.ID, "severity", string(n.Severity), "message", n.Message)
	})

	a.backend, err = backendadapter.New(backendadapter.Options{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		UserAgent: "compass/" + version.Version,
		Logger:    log,
		Metrics:   a.metrics,
	})
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("wire backend client: %w", err)
	}

	var router *application.Router
	a.session = application.NewSessionStore(ctx, application.SessionStoreOptions{
		Requester: a.backend,
		Storage:   a.storage,
		Notifier:  a.alerts,
		Navigator: ports.NavigatorFunc(func(path string) (domain.Route, error) {
			return router.Navigate(path)
		}),
		VerifyPolicy: cfg.Session.VerifyPolicy,
		Logger:       log,
	})
	router = application.NewRouter(application.NewGuard(application.DefaultRoutes, a.session, a.alerts, log))
	a.router = router
	a.backend.BindSession(a.session)

	a.settings = application.NewSettingsStore(ctx, a.storage, log)
	a.api = backendadapter.NewAPI(a.backend)
	a.catalog = catalogadapter.New(a.backend)

	return a, nil
}

func openStorage(ctx context.Context, v *viper.Viper, cfg config.StorageConfig, a *app) (ports.LocalStorage, string, error) {
	switch cfg.Backend {
	case config.StorageRedis:
		dialCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
		defer cancel()

		store, err := redisstore.Dial(dialCtx, cfg.RedisAddr, cfg.RedisPrefix)
		if err != nil {
			return nil, "", err
		}
		a.closeFns = append(a.closeFns, store.Close)
		return store, fmt.Sprintf("redis %s", cfg.RedisAddr), nil
	case config.StoragePass:
		store, err := chainstore.NewPassFirstWithTOMLFallback(v, cfg.PassPrefix)
		if err != nil {
			return nil, "", err
		}
		return store, "pass (toml fallback)", nil
	default:
		store, err := tomlstore.NewStore(v)
		if err != nil {
			return nil, "", err
		}
		return store, fmt.Sprintf("toml %s", store.Path()), nil
	}
}

// newBridge builds a realtime bridge that authenticates with the current
// session token.
func (a *app) newBridge() (*realtimeadapter.Bridge, error) {
	return realtimeadapter.New(realtimeadapter.Options{
		URL:               a.cfg.Realtime.URL,
		AuthToken:         a.session.Token,
		Reconnect:         a.cfg.Realtime.Reconnect,
		ReconnectDelay:    a.cfg.Realtime.ReconnectDelay,
		ReconnectDelayMax: a.cfg.Realtime.ReconnectDelayMax,
		ReconnectAttempts: a.cfg.Realtime.ReconnectAttempts,
		Logger:            a.log,
		Metrics:           a.rtMetric,
	})
}

func (a *app) Close() error {
	var firstErr error
	for _, fn := range a.closeFns {
		if err := fn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closeFns = nil
	return firstErr
}
