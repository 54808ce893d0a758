// Package connectivity tracks whether the chordbook server is reachable.
package connectivity

import (
	"context"
	"sync"
	"time"

	"chordbook/internal/chordbook"
)

// Prober performs one reachability check. A nil error means reachable.
type Prober interface {
	Probe(ctx context.Context) error
}

// Monitor implements chordbook.Connectivity. It remembers the last known
// state and tells subscribers when it changes.
type Monitor struct {
	prober       Prober
	pollInterval time.Duration
	logger       chordbook.Logger

	mu           sync.Mutex
	known        bool // false until the first observation
	online       bool
	forceOffline bool
	subs         map[int]func(bool)
	nextSub      int
}

var _ chordbook.Connectivity = (*Monitor)(nil)

// NewMonitor creates a Monitor. pollInterval is only used by Run.
func NewMonitor(prober Prober, pollInterval time.Duration, logger chordbook.Logger) *Monitor {
	if logger == nil {
		logger = chordbook.NewNopLogger()
	}
	return &Monitor{
		prober:       prober,
		pollInterval: pollInterval,
		logger:       logger,
		subs:         make(map[int]func(bool)),
	}
}

// CheckNow probes the server once. It returns false while force-offline is
// set, and whenever the probe fails for any reason.
func (m *Monitor) CheckNow(ctx context.Context) bool {
	if m.ForcedOffline() {
		return false
	}
	online := true
	if err := m.prober.Probe(ctx); err != nil {
		m.logger.Debug("server unreachable", "error", err)
		online = false
	}
	m.Report(online)
	return online && !m.ForcedOffline()
}

// Report records an observed state, from a probe or from a platform network
// callback, and publishes it if it differs from the last one.
func (m *Monitor) Report(online bool) {
	m.mu.Lock()
	before := m.effectiveLocked()
	wasKnown := m.known
	m.online = online
	m.known = true
	after := m.effectiveLocked()
	m.mu.Unlock()

	if !wasKnown || before != after {
		m.publish(after)
	}
}

// SetForceOffline pins the monitor offline until cleared. Clearing it does
// not probe; the last observed state becomes effective again.
func (m *Monitor) SetForceOffline(force bool) {
	m.mu.Lock()
	before := m.effectiveLocked()
	m.forceOffline = force
	after := m.effectiveLocked()
	known := m.known || force
	m.mu.Unlock()

	m.logger.Info("force offline changed", "force_offline", force)
	if known && before != after {
		m.publish(after)
	}
}

func (m *Monitor) ForcedOffline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.forceOffline
}

// Online returns the last effective state without probing.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.effectiveLocked()
}

func (m *Monitor) effectiveLocked() bool {
	return m.known && m.online && !m.forceOffline
}

func (m *Monitor) Subscribe(fn func(online bool)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.subs, id)
		})
	}
}

func (m *Monitor) publish(online bool) {
	m.mu.Lock()
	fns := make([]func(bool), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	m.logger.Info("connectivity changed", "online", online)
	for _, fn := range fns {
		fn(online)
	}
}

// Run probes immediately and then every poll interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	m.CheckNow(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CheckNow(ctx)
		}
	}
}
