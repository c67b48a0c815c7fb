package editor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/clipforge/clipforge-server/internal/project"
)

// Manager owns the editing sessions, one per open project. Sessions are
// created lazily on first access and rehydrated from the store.
type Manager struct {
	repo   project.Repository
	window time.Duration
	clock  Clock
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(repo project.Repository, window time.Duration, clock Clock, logger *slog.Logger) *Manager {
	return &Manager{
		repo:     repo,
		window:   window,
		clock:    clock,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Open returns the session for the project, creating and rehydrating it if
// this is the first access.
func (m *Manager) Open(ctx context.Context, projectID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[projectID]; ok {
		return s, nil
	}

	s := NewSession(projectID, m.repo, m.window, m.clock, m.logger)
	if err := s.Rehydrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to open session for project %s: %w", projectID, err)
	}
	m.sessions[projectID] = s
	return s, nil
}

// Close flushes and discards the session for the project, if one is open.
func (m *Manager) Close(ctx context.Context, projectID string) error {
	m.mu.Lock()
	s, ok := m.sessions[projectID]
	delete(m.sessions, projectID)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	return s.Close(ctx)
}

// CloseAll flushes and discards every open session. Called on shutdown.
func (m *Manager) CloseAll(ctx context.Context) {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for id, s := range sessions {
		if err := s.Close(ctx); err != nil {
			m.logger.Error("failed to flush session on shutdown", "project_id", id, "error", err)
		}
	}
}
