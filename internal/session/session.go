// Package session holds the per-browser state of the storefront: one cart,
// at most one signed-in account and the notifications waiting to be shown.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/brownie-shop/internal/domain/cart"
	"github.com/example/brownie-shop/internal/domain/user"
	"github.com/example/brownie-shop/internal/mirror"
	"github.com/example/brownie-shop/internal/notify"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is the state of one browsing session. Handlers hold Lock for the
// whole of an operation so that a session has a single thread of control.
type Session struct {
	ID    string
	Cart  *cart.Store
	Notes *notify.Queue

	mu      sync.Mutex
	stateMu sync.RWMutex
	account *user.Account
	mirror  mirror.Store
}

func newSession(id string, items []cart.LineItem, account *user.Account, m mirror.Store) *Session {
	notes := notify.NewQueue()
	return &Session{
		ID:      id,
		Cart:    cart.NewStore(items, m, mirror.CartKey(id), notes),
		Notes:   notes,
		account: account,
		mirror:  m,
	}
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// Account returns a copy of the signed-in account, or nil.
func (s *Session) Account() *user.Account {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	if s.account == nil {
		return nil
	}
	return s.account.Clone()
}

func (s *Session) IsAuthenticated() bool {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.account != nil
}

// SignIn records a as the signed-in account. Credentials are never kept in
// the session or its mirror.
func (s *Session) SignIn(ctx context.Context, a *user.Account) {
	pub := a.Public()
	pub.Normalize()

	s.stateMu.Lock()
	s.account = pub
	s.stateMu.Unlock()

	if err := s.mirror.Save(ctx, mirror.UserKey(s.ID), pub); err != nil {
		log.Printf("[Session] Failed to mirror user for %s: %v", s.ID, err)
	}
}

// SignOut forgets the signed-in account.
func (s *Session) SignOut(ctx context.Context) {
	s.stateMu.Lock()
	s.account = nil
	s.stateMu.Unlock()

	if err := s.mirror.Delete(ctx, mirror.UserKey(s.ID)); err != nil {
		log.Printf("[Session] Failed to clear mirrored user for %s: %v", s.ID, err)
	}
}

// Manager creates sessions and caches them in memory. A session missing
// from the cache is rebuilt from the mirror once.
type Manager struct {
	mirror   mirror.Store
	mu       sync.Mutex
	sessions map[string]*Session
	lastSeen map[string]time.Time
	now      func() time.Time
}

func NewManager(m mirror.Store) *Manager {
	return &Manager{
		mirror:   m,
		sessions: make(map[string]*Session),
		lastSeen: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Create starts an empty session.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	id := uuid.New().String()
	s := newSession(id, nil, nil, m.mirror)
	if err := m.mirror.Save(ctx, mirror.CartKey(id), []cart.LineItem{}); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.lastSeen[id] = m.now()
	m.mu.Unlock()

	log.Printf("[Session] Created session %s", id)
	return s, nil
}

// Get returns the session with the given id. The signed-in account is
// restored from the mirror as it was saved; it is not re-read from the
// gateway. The mirror is read without holding the manager lock; if two
// requests restore the same id at once the first one cached wins.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	if s, ok := m.cached(id); ok {
		return s, nil
	}

	restored, err := m.restore(ctx, id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		m.lastSeen[id] = m.now()
		return s, nil
	}
	m.sessions[id] = restored
	m.lastSeen[id] = m.now()
	return restored, nil
}

func (m *Manager) cached(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if ok {
		m.lastSeen[id] = m.now()
	}
	return s, ok
}

func (m *Manager) restore(ctx context.Context, id string) (*Session, error) {
	var items []cart.LineItem
	hasCart, err := m.mirror.Load(ctx, mirror.CartKey(id), &items)
	if err != nil {
		return nil, fmt.Errorf("failed to load session cart: %w", err)
	}
	var account user.Account
	hasUser, err := m.mirror.Load(ctx, mirror.UserKey(id), &account)
	if err != nil {
		return nil, fmt.Errorf("failed to load session user: %w", err)
	}
	if !hasCart && !hasUser {
		return nil, ErrSessionNotFound
	}

	var signedIn *user.Account
	if hasUser {
		account.Normalize()
		signedIn = &account
	}
	return newSession(id, items, signedIn, m.mirror), nil
}

// Destroy drops the session from the cache and the mirror.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	delete(m.lastSeen, id)
	m.mu.Unlock()

	if err := m.mirror.Delete(ctx, mirror.CartKey(id), mirror.UserKey(id)); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}

// Evict drops sessions idle since before cutoff from the in-memory cache.
// A session a request still holds locked is kept. Mirrored state is kept so
// evicted sessions can be rebuilt on the next request.
func (m *Manager) Evict(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, seen := range m.lastSeen {
		if !seen.Before(cutoff) {
			continue
		}
		s := m.sessions[id]
		if s != nil && !s.mu.TryLock() {
			continue
		}
		delete(m.sessions, id)
		delete(m.lastSeen, id)
		if s != nil {
			s.mu.Unlock()
		}
		n++
	}
	return n
}

// Len returns the number of cached sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
