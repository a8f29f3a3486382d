// Package session keeps one form component per visitor.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-formdemo/pkg/form"
)

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session: not found")

// MinSweepInterval bounds how often Run sweeps.
const MinSweepInterval = time.Millisecond

// Factory builds the component for a new session.
type Factory func() *form.Component

// Session is one visitor's form. Use Do to access the component.
type Session struct {
	ID        string
	CSRFToken string

	mu        sync.Mutex
	component *form.Component
	lastSeen  time.Time
}

// Do runs fn with exclusive access to the component.
func (s *Session) Do(fn func(*form.Component) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.component)
}

// Option configures a Store.
type Option func(*Store)

// WithIdleTimeout sets how long an untouched session survives.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.idle = d
		}
	}
}

// WithMaxSessions bounds the store; the least recently used session is
// evicted when a new one would exceed it.
func WithMaxSessions(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.max = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store is a mutex guarded map of sessions with idle expiry.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	factory  Factory
	idle     time.Duration
	max      int
	now      func() time.Time
}

// NewStore returns an empty store creating components with factory.
func NewStore(factory Factory, options ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*Session),
		factory:  factory,
		idle:     30 * time.Minute,
		now:      time.Now,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if s.factory == nil {
		s.factory = func() *form.Component { return form.New() }
	}
	return s
}

// Get returns a live session and refreshes its idle timer.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	now := s.now()
	if s.expired(sess, now) {
		delete(s.sessions, id)
		return nil, ErrNotFound
	}
	sess.lastSeen = now
	return sess, nil
}

// Create starts a session with a fresh component.
func (s *Store) Create() (*Session, error) {
	id, err := randomToken()
	if err != nil {
		return nil, err
	}
	token, err := randomToken()
	if err != nil {
		return nil, err
	}
	sess := &Session{ID: id, CSRFToken: token, component: s.factory()}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess.lastSeen = s.now()
	if s.max > 0 && len(s.sessions) >= s.max {
		s.evictOldest()
	}
	s.sessions[id] = sess
	return sess, nil
}

// GetOrCreate returns the session for id, creating one when id is unknown or
// expired. created reports which happened.
func (s *Store) GetOrCreate(id string) (sess *Session, created bool, err error) {
	if id != "" {
		if sess, err := s.Get(id); err == nil {
			return sess, false, nil
		}
	}
	sess, err = s.Create()
	if err != nil {
		return nil, false, err
	}
	return sess, true, nil
}

// Delete drops a session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len reports how many sessions are held, expired ones included until the
// next sweep.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes expired sessions and returns how many were dropped.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	dropped := 0
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
			dropped++
		}
	}
	return dropped
}

// Run sweeps every interval until ctx is done. A non-positive interval uses
// half the idle timeout, never less than MinSweepInterval.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = s.idle / 2
	}
	interval = max(interval, MinSweepInterval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *Store) expired(sess *Session, now time.Time) bool {
	return now.Sub(sess.lastSeen) > s.idle
}

// evictOldest assumes s.mu is held.
func (s *Store) evictOldest() {
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return s.sessions[ids[i]].lastSeen.Before(s.sessions[ids[j]].lastSeen)
	})
	if len(ids) > 0 {
		delete(s.sessions, ids[0])
	}
}

func randomToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("session: generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
