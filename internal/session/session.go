// Package session keeps one workout store per client screen. Each session
// owns its store for its whole lifetime and tears it down on close or when it
// sits idle past the configured TTL.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/fitplan/internal/store"
	"github.com/google/uuid"
)

var (
	// ErrTooManySessions is returned by Open when the manager is full.
	ErrTooManySessions = errors.New("too many open sessions")
	// ErrClosed is returned by Open after CloseAll.
	ErrClosed = errors.New("session manager closed")
)

// Session is one client's store plus bookkeeping.
type Session struct {
	ID      uuid.UUID
	Owner   string
	Store   *store.Store
	Created time.Time

	mu       sync.Mutex
	lastSeen time.Time
	holds    int
}

// LastSeen returns when the session was last opened, fetched or released.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// idleSince reports whether the session is unheld and was last seen before
// cutoff.
func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.holds == 0 && s.lastSeen.Before(cutoff)
}

// Manager owns the open sessions.
type Manager struct {
	src         store.Source
	maxSessions int
	ttl         time.Duration
	log         *slog.Logger
	now         func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	closed   bool
}

// NewManager creates a manager whose sessions all load from src. A ttl of
// zero disables reaping.
func NewManager(src store.Source, maxSessions int, ttl time.Duration, log *slog.Logger) *Manager {
	return &Manager{
		src:         src,
		maxSessions: maxSessions,
		ttl:         ttl,
		log:         log,
		now:         time.Now,
		sessions:    make(map[uuid.UUID]*Session),
	}
}

// Open creates a session for owner and starts its plan load. The load is
// bound to the session, not to ctx, so it survives the request that opened it.
func (m *Manager) Open(ctx context.Context, owner string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	if len(m.sessions) >= m.maxSessions {
		return nil, ErrTooManySessions
	}

	now := m.now()
	sess := &Session{
		ID:       uuid.New(),
		Owner:    owner,
		Store:    store.New(m.src, m.log),
		Created:  now,
		lastSeen: now,
	}
	m.sessions[sess.ID] = sess
	sess.Store.Start(context.WithoutCancel(ctx))

	m.log.Info("session opened", "session", sess.ID, "owner", owner, "open", len(m.sessions))
	return sess, nil
}

// Get returns the session and marks it as recently used.
func (m *Manager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		sess.touch(m.now())
	}
	return sess, ok
}

// Hold keeps sess from being reaped until the returned func is called, for
// clients attached to it for longer than a single request. Releasing counts
// as a use of the session.
func (m *Manager) Hold(sess *Session) (release func()) {
	sess.mu.Lock()
	sess.holds++
	sess.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			sess.mu.Lock()
			sess.holds--
			sess.lastSeen = m.now()
			sess.mu.Unlock()
		})
	}
}

// Close tears down one session. It reports whether the session existed.
func (m *Manager) Close(id uuid.UUID) bool {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return false
	}
	sess.Store.Close()
	m.log.Info("session closed", "session", id)
	return true
}

// CloseAll tears down every session and rejects further Opens.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[uuid.UUID]*Session)
	m.closed = true
	m.mu.Unlock()

	for _, sess := range sessions {
		sess.Store.Close()
	}
	if len(sessions) > 0 {
		m.log.Info("sessions closed", "count", len(sessions))
	}
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Reap closes sessions idle for longer than the TTL and returns how many it
// closed. Held sessions are never idle.
func (m *Manager) Reap(now time.Time) int {
	if m.ttl <= 0 {
		return 0
	}

	cutoff := now.Add(-m.ttl)
	var idle []*Session
	m.mu.Lock()
	for id, sess := range m.sessions {
		if sess.idleSince(cutoff) {
			idle = append(idle, sess)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, sess := range idle {
		sess.Store.Close()
		m.log.Info("session expired", "session", sess.ID, "idle", now.Sub(sess.LastSeen()).Round(time.Second).String())
	}
	return len(idle)
}

// Run reaps idle sessions until ctx is done, then closes all sessions.
func (m *Manager) Run(ctx context.Context) {
	defer m.CloseAll()
	if m.ttl <= 0 {
		<-ctx.Done()
		return
	}

	interval := m.ttl / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.Reap(now)
		}
	}
}
