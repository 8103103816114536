// Package session maps browser sessions to their generation workflows.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/chefdigital/chef/internal/archive"
	"github.com/chefdigital/chef/internal/cache"
	"github.com/chefdigital/chef/internal/logger"
	"github.com/chefdigital/chef/internal/workflow"
)

// DefaultTTL is how long an idle session is kept in memory.
const DefaultTTL = 2 * time.Hour

const persistTimeout = 10 * time.Second

// Factory builds a workflow for a new session.
type Factory func(opts ...workflow.Option) *workflow.Workflow

type Option func(*Manager)

// WithSnapshots mirrors terminal snapshots to store and restores them for
// sessions that are not in memory.
func WithSnapshots(store cache.SnapshotStore) Option {
	return func(m *Manager) { m.snapshots = store }
}

// WithArchiver archives every finished recipe.
func WithArchiver(a archive.Archiver) Option {
	return func(m *Manager) { m.archiver = a }
}

func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

type entry struct {
	wf       *workflow.Workflow
	lastSeen time.Time
}

// Manager owns one workflow per session.
type Manager struct {
	factory   Factory
	snapshots cache.SnapshotStore
	archiver  archive.Archiver
	ttl       time.Duration
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
	pending  sync.WaitGroup
}

func NewManager(factory Factory, opts ...Option) *Manager {
	m := &Manager{
		factory:  factory,
		archiver: archive.Disabled{},
		ttl:      DefaultTTL,
		logger:   slog.Default(),
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Workflow returns the session's workflow, creating it on first use. A new
// workflow starts from the session's mirrored snapshot when one exists.
func (m *Manager) Workflow(ctx context.Context, sessionID string) *workflow.Workflow {
	if wf := m.touch(sessionID); wf != nil {
		return wf
	}

	log := logger.ForSession(m.logger, sessionID)
	opts := []workflow.Option{workflow.WithLogger(log)}
	if m.snapshots != nil {
		saved, err := m.snapshots.Get(ctx, sessionID)
		if err != nil {
			log.WarnContext(ctx, "Failed to restore session snapshot", "error", err)
		} else if saved != nil {
			opts = append(opts, workflow.WithInitialState(*saved))
		}
	}
	wf := m.factory(opts...)

	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.sessions[sessionID]; ok {
		e.lastSeen = m.now()
		return e.wf
	}
	wf.Subscribe(func(s workflow.State) { m.observe(sessionID, s) })
	m.sessions[sessionID] = &entry{wf: wf, lastSeen: m.now()}
	log.Debug("Session started")
	return wf
}

// Lookup returns the session's workflow without creating one.
func (m *Manager) Lookup(sessionID string) (*workflow.Workflow, bool) {
	wf := m.touch(sessionID)
	return wf, wf != nil
}

func (m *Manager) touch(sessionID string) *workflow.Workflow {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[sessionID]
	if !ok {
		return nil
	}
	e.lastSeen = m.now()
	return e.wf
}

// observe persists terminal snapshots off the publishing goroutine.
func (m *Manager) observe(sessionID string, s workflow.State) {
	if !s.Terminal() {
		return
	}
	m.pending.Add(1)
	go func() {
		defer m.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		m.persist(ctx, sessionID, s)
	}()
}

func (m *Manager) persist(ctx context.Context, sessionID string, s workflow.State) {
	log := logger.ForSession(m.logger, sessionID)
	if m.snapshots != nil {
		if err := m.snapshots.Set(ctx, sessionID, s, m.ttl); err != nil {
			log.WarnContext(ctx, "Failed to mirror session snapshot", "error", err)
		}
	}
	if s.HasRecipe() {
		if err := m.archiver.Archive(ctx, sessionID, s); err != nil {
			log.WarnContext(ctx, "Failed to archive recipe", "request", s.Request, "error", err)
		}
	}
}

// Sweep drops sessions idle for longer than the TTL and returns how many went.
// Sessions with a request in flight are kept.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, e := range m.sessions {
		if e.lastSeen.After(cutoff) || e.wf.State().Loading() {
			continue
		}
		delete(m.sessions, id)
		removed++
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Info("Swept idle sessions", "count", n)
			}
		}
	}
}

// Len returns the number of sessions in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Wait blocks until pending snapshot mirroring and archiving have finished.
func (m *Manager) Wait() {
	m.pending.Wait()
}

// Archiver returns the configured archiver.
func (m *Manager) Archiver() archive.Archiver {
	return m.archiver
}
