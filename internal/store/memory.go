package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/datahub-labs/auth-service/internal/model"
)

// Memory is an in-memory implementation of UserStore, TokenStore and
// AuthCodeStore guarded by a single mutex. It mirrors the semantics of
// the MySQL repositories, including the conditional MarkAuthCodeUsed
// update, and is used by tests and local development.
type Memory struct {
	mu     sync.Mutex
	users  map[string]model.User         // keyed by user id
	names  map[string]string             // username -> user id
	tokens map[string]model.SessionToken // keyed by user id
	codes  map[string]model.AuthCode     // keyed by code
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:  make(map[string]model.User),
		names:  make(map[string]string),
		tokens: make(map[string]model.SessionToken),
		codes:  make(map[string]model.AuthCode),
	}
}

func (m *Memory) CreateUser(_ context.Context, username, passwordHash string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.names[username]; ok {
		return model.User{}, ErrUsernameExists
	}
	u := model.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	m.users[u.ID] = u
	m.names[username] = u.ID
	return u, nil
}

func (m *Memory) GetUserByUsername(_ context.Context, username string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.names[username]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return m.users[id], nil
}

func (m *Memory) GetUserByID(_ context.Context, id string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

func (m *Memory) UpsertToken(_ context.Context, userID, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[userID] = model.SessionToken{UserID: userID, Token: token, ExpiresAt: expiresAt}
	return nil
}

func (m *Memory) FindToken(_ context.Context, token string) (model.SessionToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.Token == token {
			return t, nil
		}
	}
	return model.SessionToken{}, ErrNotFound
}

func (m *Memory) DeleteTokenByUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, userID)
	return nil
}

func (m *Memory) CreateAuthCode(_ context.Context, code model.AuthCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[code.Code] = code
	return nil
}

func (m *Memory) GetAuthCode(_ context.Context, code string) (model.AuthCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[code]
	if !ok {
		return model.AuthCode{}, ErrNotFound
	}
	return c, nil
}

// MarkAuthCodeUsed performs the used flag transition under the store
// lock so that concurrent redemptions of the same code cannot both win.
func (m *Memory) MarkAuthCodeUsed(_ context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[code]
	if !ok {
		return false, ErrNotFound
	}
	if c.Used {
		return false, nil
	}
	c.Used = true
	m.codes[code] = c
	return true, nil
}
