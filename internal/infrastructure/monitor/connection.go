package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Probe checks one remote dependency.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// PostgresProbe pings the document store database.
func PostgresProbe(pool *pgxpool.Pool) Probe {
	return Probe{Name: "postgresql", Check: func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		return pool.Ping(ctx)
	}}
}

// RedisProbe pings the session cache.
func RedisProbe(client *redislib.Client) Probe {
	return Probe{Name: "redis", Check: func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return client.Ping(ctx).Err()
	}}
}

// LocalSizer reports how many keys the local store holds.
type LocalSizer interface {
	Size() (int, error)
}

// Monitor polls remote dependencies and reports connectivity transitions.
// The process is online when every probe passes.
type Monitor struct {
	probes []Probe
	local  LocalSizer

	status    Status
	known     bool
	mu        sync.RWMutex
	listeners []func(online bool)

	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(local LocalSizer, interval time.Duration, logger *zap.Logger, probes ...Probe) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		probes:   probes,
		local:    local,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger.Named("monitor"),
	}
}

// OnChange registers a callback invoked after every online/offline transition.
// The first check also counts as a transition.
func (m *Monitor) OnChange(fn func(online bool)) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Online
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Refresh(context.Background())
	for {
		select {
		case <-ticker.C:
			m.Refresh(context.Background())
		case <-m.stopCh:
			return
		}
	}
}

// Refresh runs every probe once and notifies listeners on a transition.
func (m *Monitor) Refresh(ctx context.Context) Status {
	status := Status{
		Online:    true,
		Services:  make(map[string]bool, len(m.probes)),
		LastCheck: time.Now(),
	}
	for _, p := range m.probes {
		err := p.Check(ctx)
		status.Services[p.Name] = err == nil
		if err != nil {
			status.Online = false
			m.logger.Debug("probe failed", zap.String("service", p.Name), zap.Error(err))
		}
	}
	if m.local != nil {
		size, err := m.local.Size()
		if err != nil {
			m.logger.Warn("local store size check failed", zap.Error(err))
		}
		status.LocalKeys = size
	}

	m.mu.Lock()
	changed := !m.known || m.status.Online != status.Online
	m.known = true
	m.status = status
	listeners := append([]func(bool){}, m.listeners...)
	m.mu.Unlock()

	if changed {
		m.logger.Info("connectivity changed", zap.Bool("online", status.Online))
		for _, fn := range listeners {
			fn(status.Online)
		}
	}
	return status
}
