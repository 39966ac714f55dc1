package session

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"sync"

	"github.com/wricardo/mcp-training/tictactoe/game/service"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrInvalidSession     = errors.New("invalid session")
	ErrCodeSpaceExhausted = errors.New("could not allocate a unique room code")
)

const (
	// CodeLength is the number of characters in a generated room code.
	CodeLength = 6

	codeAlphabet    = "0123456789abcdefghijklmnopqrstuvwxyz"
	maxCodeAttempts = 32
)

// Manager handles game session lifecycle
type Manager struct {
	sessions map[string]*service.Session
	generate func() string
	mu       sync.RWMutex
}

// NewManager creates a new session manager
func NewManager() *Manager {
	return NewManagerWithGenerator(generateRoomCode)
}

// NewManagerWithGenerator creates a session manager that draws room codes
// from gen instead of the random generator.
func NewManagerWithGenerator(gen func() string) *Manager {
	return &Manager{
		sessions: make(map[string]*service.Session),
		generate: gen,
	}
}

// Create stores sess under a freshly allocated room code, sets sess.Code and
// returns the code. Codes never collide with a live session.
func (m *Manager) Create(sess *service.Session) (string, error) {
	if sess == nil {
		return "", ErrInvalidSession
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := strings.ToLower(m.generate())
		if code == "" {
			continue
		}
		if _, exists := m.sessions[code]; exists {
			continue
		}
		sess.Code = code
		m.sessions[code] = sess
		return code, nil
	}
	return "", ErrCodeSpaceExhausted
}

// Get retrieves a session by room code (case-insensitive)
func (m *Manager) Get(code string) (*service.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, exists := m.sessions[normalize(code)]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Delete removes a session
func (m *Manager) Delete(code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := normalize(code)
	if _, exists := m.sessions[key]; !exists {
		return ErrSessionNotFound
	}
	delete(m.sessions, key)
	return nil
}

// FindByConnection returns the session in which connID holds a seat. It
// walks every live session.
func (m *Manager) FindByConnection(connID string) (*service.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sess := range m.sessions {
		if sess.HasMember(connID) {
			return sess, true
		}
	}
	return nil, false
}

// List returns all active sessions
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		result = append(result, sess)
	}
	return result
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// generateRoomCode returns CodeLength random base-36 characters.
func generateRoomCode() string {
	max := big.NewInt(int64(len(codeAlphabet)))
	b := make([]byte, CodeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return ""
		}
		b[i] = codeAlphabet[n.Int64()]
	}
	return string(b)
}
