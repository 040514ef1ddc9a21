package connectivity

import (
	"context"
	"sync"
	"time"

	"bestea_pos/internal/api"
	"bestea_pos/internal/config"
	"bestea_pos/internal/store"
	"bestea_pos/internal/syncer"

	"go.uber.org/zap"
)

// Status is what the register UI shows next to the cart: connectivity,
// whether a pass is running, how many writes still wait locally, and when
// the queue last drained.
type Status struct {
	Online       bool      `json:"online"`
	Syncing      bool      `json:"syncing"`
	PendingCount int       `json:"pendingCount"`
	LastSynced   time.Time `json:"lastSynced,omitzero"`
}

// Monitor owns the single decision of when the sync engine runs: once on
// every offline-to-online transition, plus manual triggers. Going offline
// only flips state; subsequent writes queue on their own.
type Monitor struct {
	mu     sync.Mutex
	online bool

	client   *api.Client
	store    *store.Store
	engine   *syncer.Engine
	logger   *zap.Logger
	interval time.Duration
}

func NewMonitor(cfg config.Config, client *api.Client, st *store.Store, engine *syncer.Engine, logger *zap.Logger) *Monitor {
	return &Monitor{
		client:   client,
		store:    st,
		engine:   engine,
		logger:   logger.Named("connectivity"),
		interval: cfg.PingInterval,
	}
}

// Start probes once to seed the initial state, then watches for
// transitions until the context is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	m.probe(ctx)
	go m.run(ctx)
}

func (m *Monitor) run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if m.probe(ctx) {
				if _, err := m.engine.SyncOnce(ctx); err != nil {
					m.logger.Warn("reconnect sync failed", zap.Error(err))
				}
			}
		}
	}
}

// probe pings the backend and records the transition. Returns true only on
// an offline-to-online edge.
func (m *Monitor) probe(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, m.interval)
	defer cancel()
	online := m.client.Ping(pingCtx) == nil

	m.mu.Lock()
	wasOnline := m.online
	m.online = online
	m.mu.Unlock()

	m.engine.SetOnline(online)

	switch {
	case online && !wasOnline:
		m.logger.Info("back online, draining queue")
		return true
	case !online && wasOnline:
		m.logger.Warn("offline, queueing writes locally")
	}
	return false
}

func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// TriggerSync is the user-initiated escape hatch: re-probe, then run one
// pass and hand back the aggregate report.
func (m *Monitor) TriggerSync(ctx context.Context) (syncer.Report, error) {
	m.probe(ctx)
	if !m.Online() {
		return syncer.Report{Skipped: true}, nil
	}
	return m.engine.SyncOnce(ctx)
}

func (m *Monitor) Status() (Status, error) {
	pending, err := m.store.PendingCount()
	if err != nil {
		return Status{}, err
	}
	return Status{
		Online:       m.Online(),
		Syncing:      m.engine.Syncing(),
		PendingCount: pending,
		LastSynced:   m.engine.LastSynced(),
	}, nil
}
