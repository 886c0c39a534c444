package sweeper

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/morphlyhq/morphly/internal/pkg/cache"
	"github.com/morphlyhq/morphly/internal/pkg/env"
)

const sweepLockKey = "sweeper:lease"

// Manager drives the sweeper on a fixed schedule. A redis lease keeps
// overlapping ticks and multiple replicas down to at most one concurrent
// sweep; a sweep that errors is just retried at the next tick.
type Manager struct {
	sweeper  *Sweeper
	interval time.Duration
	ticker   *time.Ticker
	stopCh   chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
}

// NewManager creates a manager with the interval from SWEEP_INTERVAL_MINUTES
// (default 5, matching the grace window).
func NewManager(sweeper *Sweeper) *Manager {
	interval := 5
	if v, err := strconv.Atoi(env.GetEnv("SWEEP_INTERVAL_MINUTES", "5")); err == nil && v > 0 {
		interval = v
	}
	return &Manager{
		sweeper:  sweeper,
		interval: time.Duration(interval) * time.Minute,
		stopCh:   make(chan struct{}),
	}
}

// Start starts the scheduled sweep worker
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so the manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true

	m.ticker = time.NewTicker(m.interval)
	m.wg.Add(1)
	go m.sweepWorker()

	log.Infof("[Sweeper Manager] Started (interval: %s)", m.interval)
}

// Stop stops the scheduled sweep worker
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	if m.ticker != nil {
		m.ticker.Stop()
	}

	close(m.stopCh)
	m.running = false

	m.wg.Wait()

	log.Info("[Sweeper Manager] Stopped")
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Manager) sweepWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			log.Info("[Sweeper Manager] Sweep worker stopping")
			return
		case <-m.ticker.C:
			if _, err := m.RunSweepOnce(context.Background()); err != nil {
				// Non-fatal: garbage is recomputed fresh on the next tick.
				log.Errorf("[Sweeper Manager] Sweep error: %v", err)
			}
		}
	}
}

// RunSweepOnce performs a single leased sweep. Also the manual trigger used
// by the internal API.
func (m *Manager) RunSweepOnce(ctx context.Context) (*Result, error) {
	acquired, err := cache.AcquireLock(sweepLockKey, m.interval)
	if err != nil {
		log.Warnf("[Sweeper Manager] Could not acquire sweep lease: %v", err)
		// Cache down should not stop reclamation on a single-node setup.
	} else if !acquired {
		log.Debug("[Sweeper Manager] Sweep lease held elsewhere, skipping")
		return &Result{}, nil
	} else {
		defer func() {
			if err := cache.ReleaseLock(sweepLockKey); err != nil {
				log.Warnf("[Sweeper Manager] Could not release sweep lease: %v", err)
			}
		}()
	}

	return m.sweeper.SweepOnce(ctx)
}
