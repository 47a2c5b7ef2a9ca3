package security

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Session identifies an authenticated user for the lifetime of a token.
type Session struct {
	UserID   uint
	PublicID string
	Role     string
	Created  time.Time
}

// SessionManager issues and resolves bearer tokens. Sessions live in memory
// with a TTL; restarting the server logs everyone out, which is acceptable
// for this deployment.
type SessionManager struct {
	store *cache.Cache
	ttl   time.Duration
}

// NewSessionManager creates a manager whose sessions expire after ttl.
func NewSessionManager(ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionManager{
		store: cache.New(ttl, 10*time.Minute),
		ttl:   ttl,
	}
}

// Create issues a new token for the user.
func (m *SessionManager) Create(userID uint, publicID, role string) string {
	token := uuid.NewString()
	m.store.Set(token, Session{
		UserID:   userID,
		PublicID: publicID,
		Role:     role,
		Created:  time.Now(),
	}, m.ttl)
	return token
}

// Resolve returns the session for a token, or false when the token is
// unknown or expired.
func (m *SessionManager) Resolve(token string) (Session, bool) {
	v, ok := m.store.Get(token)
	if !ok {
		return Session{}, false
	}
	session, ok := v.(Session)
	return session, ok
}

// Destroy invalidates a token. Destroying an unknown token is a no-op.
func (m *SessionManager) Destroy(token string) {
	m.store.Delete(token)
}
