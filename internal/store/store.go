// Package store keeps each upload's derived table in memory for the
// lifetime of a session. Nothing is persisted: dropping the process drops
// every table, which is the intended lifecycle for a CSV-upload dashboard.
package store

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"landfolio/server/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is one processed upload: the derived table plus the
// column-presence set that gated its derivations.
type Session struct {
	ID         uuid.UUID
	SourceName string
	CreatedAt  time.Time
	LastAccess time.Time
	Properties []models.DerivedProperty
	Columns    map[string]bool
}

// Store is a TTL-bounded in-memory session table, safe for concurrent
// handlers.
type Store struct {
	mu            sync.RWMutex
	sessions      map[uuid.UUID]*Session
	ttl           time.Duration
	sweepInterval time.Duration
	done          chan struct{}
	closeOnce     sync.Once
	logger        *logrus.Logger
	now           func() time.Time
}

// NewStore creates a session store. Sessions idle longer than ttl are
// dropped by the sweep loop started with Start.
func NewStore(ttl, sweepInterval time.Duration, logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.New()
	}
	return &Store{
		sessions:      make(map[uuid.UUID]*Session),
		ttl:           ttl,
		sweepInterval: sweepInterval,
		done:          make(chan struct{}),
		logger:        logger,
		now:           time.Now,
	}
}

// Start begins the background expiry sweep.
func (s *Store) Start() {
	go s.sweepLoop()
}

// Close stops the sweep loop. Safe to call more than once.
func (s *Store) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Store) sweepLoop() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep drops every session idle longer than the TTL and returns how many
// were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for id, session := range s.sessions {
		if session.LastAccess.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.WithField("sessions", removed).Info("Swept expired sessions")
	}
	return removed
}

// Put stores a freshly derived table under a new session ID.
func (s *Store) Put(sourceName string, properties []models.DerivedProperty, columns map[string]bool) *Session {
	session := &Session{
		ID:         uuid.New(),
		SourceName: sourceName,
		CreatedAt:  s.now(),
		LastAccess: s.now(),
		Properties: properties,
		Columns:    columns,
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"session_id": session.ID,
		"rows":       len(properties),
		"source":     sourceName,
	}).Info("Stored session table")

	return session
}

// Get returns a copy of the session's derived table. Handlers get their own
// slice so view-time sorting and filtering never mutate the stored table.
func (s *Store) Get(id uuid.UUID) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	session.LastAccess = s.now()

	copied := *session
	copied.Properties = make([]models.DerivedProperty, len(session.Properties))
	copy(copied.Properties, session.Properties)
	return &copied, nil
}

// Update runs fn against the live session under the write lock. Used by the
// lead enrichment pass, the one writer after derivation.
func (s *Store) Update(id uuid.UUID, fn func(*Session)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	fn(session)
	session.LastAccess = s.now()
	return nil
}

// Delete drops a session.
func (s *Store) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
