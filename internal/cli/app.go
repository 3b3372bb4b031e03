package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/forestml/internal/config"
	"github.com/aretw0/forestml/pkg/adapters/file"
	"github.com/aretw0/forestml/pkg/adapters/memory"
	"github.com/aretw0/forestml/pkg/adapters/redis"
	"github.com/aretw0/forestml/pkg/observability"
	"github.com/aretw0/forestml/pkg/ports"
	"github.com/aretw0/forestml/pkg/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// App holds the adapters and services built from a Config.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Engine    ports.Engine
	Store     ports.MetadataStore
	Log       ports.ExecutionLog
	Registry  *prometheus.Registry
	Metrics   *observability.Metrics
	Publisher *service.Publisher
	Scorer    *service.Scorer

	closers []func() error
}

// NewApp wires the services for cfg.Engine. The redis engine checks the
// connection up front; the memory engine replays models kept in cfg.DataDir.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: reg,
		Metrics:  observability.NewMetrics(reg),
	}

	var svcOpts []service.Option
	switch cfg.Engine {
	case config.EngineRedis:
		locker, err := app.wireRedis(ctx)
		if err != nil {
			return nil, err
		}
		svcOpts = append(svcOpts, service.WithLocker(locker), service.WithLockTTL(cfg.Redis.LockTTL))
	case config.EngineMemory:
		app.wireMemory()
	default:
		return nil, fmt.Errorf("unknown engine %q", cfg.Engine)
	}

	svcOpts = append(svcOpts,
		service.WithLogger(logger),
		service.WithMetrics(app.Metrics),
		service.WithExecutionLog(app.Log),
	)
	app.Publisher = service.NewPublisher(app.Engine, app.Store, svcOpts...)
	app.Scorer = service.NewScorer(app.Engine, app.Store, svcOpts...)

	if cfg.Engine == config.EngineMemory && cfg.DataDir != "" {
		n, err := app.Publisher.Restore(ctx)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to restore models from %s: %w", cfg.DataDir, err)
		}
		logger.Info("Models restored", "count", n, "data_dir", cfg.DataDir)
	}
	return app, nil
}

func (a *App) wireRedis(ctx context.Context) (ports.DistributedLocker, error) {
	rc := a.Config.Redis
	client := redis.NewClient(rc.Addr, rc.Password, rc.DB)
	target := rc.Addr
	if rc.URL != "" {
		var err error
		if client, err = redis.NewClientFromURL(rc.URL); err != nil {
			return nil, err
		}
		target = client.Options().Addr
	}
	a.closers = append(a.closers, client.Close)

	if err := redis.Ping(ctx, client); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", target, err)
	}
	a.Logger.Debug("Connected to redis", "addr", target)

	a.Engine = redis.NewEngine(client)
	a.Store = redis.NewFromClient(client, redis.WithPrefix(rc.MetadataPrefix))
	a.Log = redis.NewExecutionLog(client,
		redis.WithLogPrefix(rc.ExecutionsPrefix),
		redis.WithMaxEntries(rc.MaxExecutions),
	)
	return redis.NewLocker(client, rc.LockPrefix), nil
}

func (a *App) wireMemory() {
	a.Engine = memory.NewEngine()
	a.Log = memory.NewExecutionLog()
	if a.Config.DataDir != "" {
		a.Store = file.NewStore(a.Config.DataDir)
	} else {
		a.Store = memory.NewStore()
	}
}

// Close releases the connections opened by NewApp.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}
