package editor

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Shaftdog/Appraisermod-sub001/internal/config"
	"github.com/Shaftdog/Appraisermod-sub001/internal/detect"
)

// Manager tracks open editing sessions by id.
type Manager struct {
	cfg      *config.Config
	photos   PhotoService
	detector detect.Detector

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager. detector may be nil when no face
// detection service is configured.
func NewManager(cfg *config.Config, photos PhotoService, detector detect.Detector) *Manager {
	return &Manager{
		cfg:      cfg,
		photos:   photos,
		detector: detector,
		sessions: make(map[string]*Session),
	}
}

// Open loads the photo and its display variant and starts a new session.
func (m *Manager) Open(ctx context.Context, orderID, photoID string) (*Session, error) {
	s, err := newSession(ctx, uuid.NewString(), orderID, photoID, m.photos, m.detector, m.cfg)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s, nil
}

// Get returns an open session by id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Close ends a session and releases its preview resources.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return false
	}
	s.Close()
	return true
}

// CloseAll ends every open session, used on server shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}
