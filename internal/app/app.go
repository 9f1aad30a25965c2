// Package app assembles the planner core from configuration. Both the HTTP
// daemon and the command line tool build on it.
package app

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fastygo/auraplan/internal/clock"
	"github.com/fastygo/auraplan/internal/config"
	"github.com/fastygo/auraplan/internal/infrastructure/localstore"
	"github.com/fastygo/auraplan/internal/infrastructure/monitor"
	"github.com/fastygo/auraplan/internal/infrastructure/notify"
	pgInfra "github.com/fastygo/auraplan/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/auraplan/internal/infrastructure/redis"
	"github.com/fastygo/auraplan/internal/services/digest"
	"github.com/fastygo/auraplan/internal/services/lifecycle"
	"github.com/fastygo/auraplan/internal/services/reminder"
	"github.com/fastygo/auraplan/internal/services/syncer"
	"github.com/fastygo/auraplan/repository"
	"github.com/fastygo/auraplan/repository/local"
	"github.com/fastygo/auraplan/repository/memory"
	pgRepo "github.com/fastygo/auraplan/repository/postgres"
	redisRepo "github.com/fastygo/auraplan/repository/redis"
	analyticsUC "github.com/fastygo/auraplan/usecase/analytics"
	authUC "github.com/fastygo/auraplan/usecase/auth"
	goalUC "github.com/fastygo/auraplan/usecase/goal"
	settingsUC "github.com/fastygo/auraplan/usecase/settings"
	taskUC "github.com/fastygo/auraplan/usecase/task"
)

type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Clock     clock.Clock
	Lifecycle *lifecycle.Manager

	Store   *localstore.Store
	Tasks   *local.Tasks
	Goals   *local.Goals
	Remote  repository.DocumentStore
	Monitor *monitor.Monitor

	Notifier  notify.Notifier
	Hub       *notify.Hub
	Reminders *reminder.Scheduler
	Digest    *digest.Service
	Sync      *syncer.Coordinator

	Auth      *authUC.UseCase
	TaskUC    *taskUC.UseCase
	GoalUC    *goalUC.UseCase
	Settings  *settingsUC.UseCase
	Analytics *analyticsUC.UseCase

	migrator *pgInfra.Migrator
}

// Build opens the local store and connects the optional remote services.
// Nothing runs in the background until Start. Remote services that cannot be
// reached at boot degrade to offline operation instead of failing the build.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:    cfg,
		Logger:    logger,
		Clock:     clock.New(loc),
		Lifecycle: lifecycle.New(cfg.Context.ShutdownTimeout, logger),
	}

	a.Store, err = localstore.Open(cfg.Local.Path, localstore.Options{
		MaxBytes: cfg.Local.MaxBytes,
		Clock:    a.Clock,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	a.Lifecycle.Register("local_store", func(context.Context) error { return a.Store.Close() })
	// Passes triggered by sign-in or connectivity may still be running; the
	// store must outlive them.
	a.Lifecycle.Register("sync_drain", func(ctx context.Context) error {
		if a.Sync != nil {
			a.Sync.Stop(ctx)
		}
		return nil
	})

	a.Tasks = local.NewTasks(a.Store, logger)
	a.Goals = local.NewGoals(a.Store, logger)

	probes, err := a.buildRemote(ctx)
	if err != nil {
		_ = a.Lifecycle.Shutdown(ctx)
		return nil, err
	}
	a.Monitor = monitor.New(a.Store, cfg.Sync.MonitorInterval, logger, probes...)
	a.Store.SetOnlineProbe(a.Monitor.IsOnline)

	a.Settings = settingsUC.New(a.Store, logger)
	a.Notifier = notify.NewGate(a.buildNotifiers(), a.Settings.NotificationsAllowed, logger)

	sessions := a.buildSessions(ctx)
	a.Auth = authUC.New(a.Store, sessions, a.Clock, cfg.Redis.SessionTTL, logger, a.Tasks, a.Goals)

	a.Reminders = reminder.New(a.Store, a.Clock, a.Notifier, logger, reminder.Config{
		Location:      loc,
		Retention:     cfg.Reminders.Retention,
		PruneSchedule: cfg.Reminders.PruneSchedule,
	})
	a.Digest = digest.New(a.Tasks, a.Notifier, a.Clock, logger, digest.Config{
		Location:           loc,
		DailySchedule:      cfg.Digest.DailySchedule,
		UpcomingSchedule:   cfg.Digest.UpcomingSchedule,
		UpcomingWindow:     cfg.Digest.UpcomingWindow,
		MotivationSchedule: cfg.Digest.MotivationSchedule,
	})
	a.Sync = syncer.New(a.Tasks, a.Goals, a.Remote, a.Auth, a.Monitor, a.Store, a.Clock, logger, syncer.Config{
		Interval: cfg.Sync.Interval,
		Timeout:  cfg.Sync.Timeout,
		Merge:    cfg.Sync.MergePolicy,
		Failure:  cfg.Sync.FailurePolicy,
	})

	a.TaskUC = taskUC.New(a.Tasks, a.Reminders, a.Auth, a.Clock, logger)
	a.GoalUC = goalUC.New(a.Goals, a.Notifier, a.Auth, a.Clock, logger)
	a.Analytics = analyticsUC.New(a.Tasks, a.Goals, a.Store, a.Notifier, a.Clock, logger)

	a.Auth.OnIdentityChange(a.Sync.OnIdentityChange)
	if a.migrator != nil {
		a.Monitor.OnChange(func(online bool) {
			if !online {
				return
			}
			if err := a.migrator.EnsureApplied(); err != nil {
				logger.Warn("document store migrations pending", zap.Error(err))
			}
		})
	}
	a.Monitor.OnChange(a.Sync.OnConnectivityChange)
	return a, nil
}

// Start launches the background services. Each one is registered for
// shutdown as soon as it is running.
func (a *App) Start(ctx context.Context) error {
	if a.Hub != nil {
		if err := a.Lifecycle.Start("notify_hub", a.Hub.Start, a.Hub.Stop); err != nil {
			return err
		}
		a.Logger.Info("notification hub listening", zap.String("address", a.Hub.Addr()))
	}
	if err := a.Lifecycle.Start("reminders", func() error { return a.Reminders.Start(ctx) }, func(ctx context.Context) error {
		a.Reminders.Stop(ctx)
		return nil
	}); err != nil {
		return err
	}
	if a.Config.Digest.Enabled {
		if err := a.Lifecycle.Start("digest", a.Digest.Start, func(ctx context.Context) error {
			a.Digest.Stop(ctx)
			return nil
		}); err != nil {
			return err
		}
	}
	if err := a.Lifecycle.Start("sync", a.Sync.Start, func(ctx context.Context) error {
		a.Sync.Stop(ctx)
		return nil
	}); err != nil {
		return err
	}
	// The monitor goes last: its first probe may trigger a sync pass.
	return a.Lifecycle.Start("monitor", func() error {
		a.Monitor.Start()
		return nil
	}, func(context.Context) error {
		a.Monitor.Stop()
		return nil
	})
}

// Shutdown stops everything in reverse start order.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Lifecycle.Shutdown(ctx)
}

func (a *App) buildRemote(ctx context.Context) ([]monitor.Probe, error) {
	cfg := a.Config
	switch cfg.Remote.Driver {
	case "memory":
		a.Remote = memory.NewDocumentStore()
		return nil, nil
	case "postgres":
		pool, err := pgInfra.NewPool(ctx, cfg.Database, a.Logger)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		a.Lifecycle.Register("postgres", func(context.Context) error {
			pool.Close()
			return nil
		})
		a.migrator = pgInfra.NewMigrator(cfg.Database, cfg.Migrations, a.Logger)
		if err := a.migrator.EnsureApplied(); err != nil {
			a.Logger.Warn("document store migrations pending", zap.Error(err))
		}
		a.Remote = pgRepo.NewDocumentRepository(pool)
		return []monitor.Probe{monitor.PostgresProbe(pool)}, nil
	default:
		return nil, fmt.Errorf("unknown remote driver %q", cfg.Remote.Driver)
	}
}

func (a *App) buildSessions(ctx context.Context) repository.SessionRepository {
	cfg := a.Config.Redis
	if !cfg.Enabled {
		return memory.NewSessionRepository(cfg.SessionTTL)
	}
	client, err := redisInfra.NewClient(ctx, cfg)
	if err != nil {
		a.Logger.Warn("redis unavailable, sessions kept in process", zap.Error(err))
		return memory.NewSessionRepository(cfg.SessionTTL)
	}
	a.Lifecycle.Register("redis", func(context.Context) error { return client.Close() })
	return redisRepo.NewSessionRepository(client, cfg.SessionTTL)
}

func (a *App) buildNotifiers() notify.Notifier {
	cfg := a.Config.Notify
	chain := notify.Multi{notify.NewLog(a.Logger)}

	if cfg.WebsocketPort > 0 {
		a.Hub = notify.NewHub(notify.HubConfig{Port: cfg.WebsocketPort, Logger: a.Logger})
		chain = append(chain, a.Hub)
	}
	if cfg.NATSURL != "" {
		nc, err := notify.Connect(cfg.NATSURL, a.Config.AppName, a.Logger)
		if err != nil {
			a.Logger.Warn("nats unavailable, notifications not published", zap.Error(err))
			return chain
		}
		a.Lifecycle.Register("nats", func(context.Context) error { return drain(nc) })
		chain = append(chain, notify.NewNATSPublisher(nc, cfg.NATSSubject, a.Logger))
	}
	return chain
}

func drain(nc *nats.Conn) error {
	if err := nc.Drain(); err != nil {
		nc.Close()
		return err
	}
	return nil
}
