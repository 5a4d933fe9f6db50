package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"unifeed/internal/backend"
	"unifeed/internal/cache"
	"unifeed/internal/changefeed"
	"unifeed/internal/models"
	"unifeed/internal/notify"
	"unifeed/internal/providers"
	"unifeed/internal/structures"
	"unifeed/internal/timeline"
)

var ErrNoViewer = errors.New("viewer id required")

// SessionRegistry indexes open sessions by viewer ID. It is separate from the
// manager so the metrics provider can count sessions without depending on it.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*Session)}
}

func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

type SessionManagerInterface interface {
	Open(ctx context.Context, viewer models.Viewer) (*Session, error)
	Get(viewerID string) (*Session, bool)
	Close(viewerID string) bool
	CloseAll()
	Len() int
	Each(fn func(s *Session))
}

// SessionManager owns one Session per viewer.
type SessionManager struct {
	conf     *structures.Config
	registry *SessionRegistry
	deps     SessionDeps
	logger   providers.Logger

	// open serializes session creation so a viewer never gets two sessions.
	open sync.Mutex
}

func NewSessionManager(conf *structures.Config, registry *SessionRegistry, aggregator timeline.AggregatorInterface, writer backend.Writer, store cache.KVStore, notifier notify.Notifier, subscriber changefeed.Subscriber, metrics providers.MetricsProviderInterface, logger providers.Logger) *SessionManager {
	return &SessionManager{
		conf:     conf,
		registry: registry,
		deps: SessionDeps{
			Aggregator: aggregator,
			Writer:     writer,
			Store:      store,
			Notifier:   notifier,
			Subscriber: subscriber,
			Clock:      changefeed.RealClock(),
			Metrics:    metrics,
			Logger:     logger,
		},
		logger: logger,
	}
}

// Open returns the viewer's session, creating and starting it on first use. A
// new session paints its cached snapshot and schedules its first refresh.
func (m *SessionManager) Open(ctx context.Context, viewer models.Viewer) (*Session, error) {
	if viewer.ID == "" {
		return nil, ErrNoViewer
	}
	if s, ok := m.Get(viewer.ID); ok {
		return s, nil
	}

	m.open.Lock()
	defer m.open.Unlock()
	if s, ok := m.Get(viewer.ID); ok {
		return s, nil
	}

	s := NewSession(m.conf, viewer, m.deps)
	if err := s.Start(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("start session for %s: %w", viewer.ID, err)
	}

	m.registry.mu.Lock()
	m.registry.sessions[viewer.ID] = s
	m.registry.mu.Unlock()

	m.logger.Infof(providers.TypeApp, "Opened session for %s", viewer.ID)
	s.RefreshAsync()
	return s, nil
}

func (m *SessionManager) Get(viewerID string) (*Session, bool) {
	m.registry.mu.RLock()
	defer m.registry.mu.RUnlock()
	s, ok := m.registry.sessions[viewerID]
	return s, ok
}

// Close disposes the viewer's session and reports whether one was open.
func (m *SessionManager) Close(viewerID string) bool {
	m.registry.mu.Lock()
	s, ok := m.registry.sessions[viewerID]
	delete(m.registry.sessions, viewerID)
	m.registry.mu.Unlock()
	if !ok {
		return false
	}

	s.Close()
	m.logger.Infof(providers.TypeApp, "Closed session for %s", viewerID)
	return true
}

func (m *SessionManager) CloseAll() {
	m.registry.mu.Lock()
	sessions := m.registry.sessions
	m.registry.sessions = make(map[string]*Session)
	m.registry.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	if len(sessions) > 0 {
		m.logger.Infof(providers.TypeApp, "Closed %d sessions", len(sessions))
	}
}

func (m *SessionManager) Len() int {
	return m.registry.Len()
}

// Each calls fn for every open session. fn runs outside the registry lock.
func (m *SessionManager) Each(fn func(s *Session)) {
	m.registry.mu.RLock()
	sessions := make([]*Session, 0, len(m.registry.sessions))
	for _, s := range m.registry.sessions {
		sessions = append(sessions, s)
	}
	m.registry.mu.RUnlock()

	for _, s := range sessions {
		fn(s)
	}
}
