// Package syncer reconciles the local collections with the remote document store.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/auraplan/domain"
	"github.com/fastygo/auraplan/internal/clock"
	"github.com/fastygo/auraplan/repository"
	"github.com/fastygo/auraplan/repository/local"
)

// IdentitySource yields the signed-in identity, or nil when nobody is signed in.
type IdentitySource interface {
	CurrentIdentity(ctx context.Context) (*domain.Identity, error)
}

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// StatusStore records the outcome of sync runs.
type StatusStore interface {
	UpdateSyncStatus(fn func(*domain.SyncStatus)) error
}

// Config controls triggers and policies.
type Config struct {
	// Interval of the periodic trigger. Zero disables it.
	Interval time.Duration
	Timeout  time.Duration
	Merge    domain.MergePolicy
	Failure  domain.FailurePolicy
}

// Coordinator runs push-then-pull sync passes. At most one pass runs at a time;
// overlapping requests are dropped.
type Coordinator struct {
	tasks    *local.Tasks
	goals    *local.Goals
	remote   repository.DocumentStore
	identity IdentitySource
	health   ConnectionHealth
	status   StatusStore
	clock    clock.Clock
	logger   *zap.Logger
	cfg      Config
	cron     *cron.Cron

	running atomic.Bool

	// mu guards the background pass bookkeeping. idle is closed whenever
	// inflight is zero.
	mu       sync.Mutex
	stopped  bool
	inflight int
	idle     chan struct{}
}

func New(
	tasks *local.Tasks,
	goals *local.Goals,
	remote repository.DocumentStore,
	identity IdentitySource,
	health ConnectionHealth,
	status StatusStore,
	clk clock.Clock,
	logger *zap.Logger,
	cfg Config,
) *Coordinator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Merge == "" {
		cfg.Merge = domain.MergeNewest
	}
	if cfg.Failure == "" {
		cfg.Failure = domain.FailFast
	}
	if clk == nil {
		clk = clock.New(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	idle := make(chan struct{})
	close(idle)
	return &Coordinator{
		idle:     idle,
		tasks:    tasks,
		goals:    goals,
		remote:   remote,
		identity: identity,
		health:   health,
		status:   status,
		clock:    clk,
		logger:   logger.Named("sync"),
		cfg:      cfg,
	}
}

// Start launches the periodic trigger.
func (c *Coordinator) Start() error {
	if c.cfg.Interval <= 0 {
		return nil
	}
	c.cron = cron.New(cron.WithSeconds())
	schedule := fmt.Sprintf("@every %ds", int(c.cfg.Interval.Seconds()))
	if _, err := c.cron.AddFunc(schedule, func() { c.Trigger(domain.TriggerPeriodic) }); err != nil {
		return err
	}
	c.cron.Start()
	c.logger.Info("sync coordinator started", zap.Duration("interval", c.cfg.Interval))
	return nil
}

// Stop halts the periodic trigger and waits for in-flight passes. Triggers
// arriving afterwards are dropped.
func (c *Coordinator) Stop(ctx context.Context) {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
	if c.cron != nil {
		stopCtx := c.cron.Stop()
		select {
		case <-stopCtx.Done():
		case <-ctx.Done():
		}
	}
	c.Drain(ctx)
	c.logger.Info("sync coordinator stopped")
}

// Drain waits until no background pass is running or ctx is done.
func (c *Coordinator) Drain(ctx context.Context) {
	c.mu.Lock()
	idle := c.idle
	c.mu.Unlock()
	select {
	case <-idle:
	case <-ctx.Done():
	}
}

// Trigger starts a pass in the background unless the coordinator is stopped.
func (c *Coordinator) Trigger(trigger domain.SyncTrigger) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		c.logger.Debug("sync trigger dropped after stop", zap.String("trigger", string(trigger)))
		return
	}
	if c.inflight == 0 {
		c.idle = make(chan struct{})
	}
	c.inflight++
	c.mu.Unlock()

	go func() {
		defer c.passDone()
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
		defer cancel()
		if _, err := c.Sync(ctx, trigger); err != nil && !errors.Is(err, domain.ErrSyncInProgress) {
			c.logger.Error("sync failed", zap.String("trigger", string(trigger)), zap.Error(err))
		}
	}()
}

func (c *Coordinator) passDone() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--
	if c.inflight == 0 {
		close(c.idle)
	}
}

// OnConnectivityChange is wired to the monitor; coming online starts a pass.
func (c *Coordinator) OnConnectivityChange(online bool) {
	if online {
		c.Trigger(domain.TriggerOnline)
	}
}

// OnIdentityChange starts a pass once an identity becomes available.
func (c *Coordinator) OnIdentityChange(identity *domain.Identity) {
	if identity != nil {
		c.Trigger(domain.TriggerIdentity)
	}
}

// InProgress reports whether a pass is running.
func (c *Coordinator) InProgress() bool {
	return c.running.Load()
}

// Sync runs one pass synchronously. An overlapping call returns ErrSyncInProgress
// without doing anything. Without an identity or connectivity the pass is skipped.
func (c *Coordinator) Sync(ctx context.Context, trigger domain.SyncTrigger) (domain.SyncResult, error) {
	result := domain.SyncResult{Trigger: trigger, StartedAt: c.clock.Now()}
	if !c.running.CompareAndSwap(false, true) {
		result.Skipped = "in_progress"
		return result, domain.ErrSyncInProgress
	}
	defer c.running.Store(false)

	identity, err := c.identity.CurrentIdentity(ctx)
	if err != nil {
		return result, err
	}
	if identity == nil || identity.ID == "" {
		result.Skipped = "no_identity"
		return result, nil
	}
	if c.health != nil && !c.health.IsOnline() {
		result.Skipped = "offline"
		return result, nil
	}

	log := c.logger.With(zap.String("trigger", string(trigger)), zap.String("owner", identity.ID))
	log.Debug("sync started")

	pushErr := c.push(ctx, identity.ID, &result)
	if pushErr != nil && c.cfg.Failure == domain.FailFast {
		c.record(false, pushErr)
		log.Warn("sync aborted after push failure", zap.Error(pushErr))
		return c.finish(result), domain.SyncError("push", pushErr)
	}

	pullErr := c.pull(ctx, identity.ID, &result)
	err = errors.Join(pushErr, pullErr)
	c.record(pullErr == nil, err)

	result = c.finish(result)
	if err != nil {
		log.Warn("sync finished with errors", zap.Error(err))
		return result, domain.SyncError("sync", err)
	}
	log.Info("sync finished",
		zap.Int("pushed", result.Pushed),
		zap.Int("deleted", result.Deleted),
		zap.Int("pulled", result.Pulled),
		zap.String("duration", result.Duration))
	return result, nil
}

func (c *Coordinator) push(ctx context.Context, owner string, result *domain.SyncResult) error {
	taskStats, taskErr := pushCollection(ctx, c, c.tasks.Repository, owner)
	goalStats, goalErr := pushCollection(ctx, c, c.goals.Repository, owner)
	result.Pushed = taskStats.pushed + goalStats.pushed
	result.PushFailed = taskStats.failed + goalStats.failed
	result.Stale = taskStats.stale + goalStats.stale
	result.Deleted = taskStats.deleted + goalStats.deleted
	return errors.Join(taskErr, goalErr)
}

func (c *Coordinator) pull(ctx context.Context, owner string, result *domain.SyncResult) error {
	taskN, taskErr := pullCollection(ctx, c, c.tasks.Repository, owner)
	goalN, goalErr := pullCollection(ctx, c, c.goals.Repository, owner)
	result.Pulled = taskN + goalN
	return errors.Join(taskErr, goalErr)
}

func (c *Coordinator) record(pulled bool, err error) {
	if c.status == nil {
		return
	}
	now := c.clock.Now()
	pending := c.hasPending()
	if uErr := c.status.UpdateSyncStatus(func(s *domain.SyncStatus) {
		s.LastPush = &now
		if pulled {
			s.LastPull = &now
		}
		s.PendingSync = pending
		s.LastError = ""
		if err != nil {
			s.LastError = err.Error()
		}
	}); uErr != nil {
		c.logger.Error("failed to record sync status", zap.Error(uErr))
	}
}

func (c *Coordinator) hasPending() bool {
	ctx := context.Background()
	for _, pending := range []func() (int, error){
		func() (int, error) { items, err := c.tasks.Unsynced(ctx); return len(items), err },
		func() (int, error) { items, err := c.goals.Unsynced(ctx); return len(items), err },
		func() (int, error) { items, err := c.tasks.Tombstones(ctx); return len(items), err },
		func() (int, error) { items, err := c.goals.Tombstones(ctx); return len(items), err },
	} {
		if n, err := pending(); err != nil || n > 0 {
			return true
		}
	}
	return false
}

func (c *Coordinator) finish(result domain.SyncResult) domain.SyncResult {
	result.Duration = c.clock.Now().Sub(result.StartedAt).String()
	return result
}
