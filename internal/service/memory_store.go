package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"user-service/internal/model"
)

// MemoryStore is an in-memory implementation of UserStore, RoleStore, and
// TokenStore backing the test suites. It mirrors the database semantics the
// repositories rely on: uniqueness, cascaded default-role assignment, and
// exactly-once refresh rotation.
type MemoryStore struct {
	mu          sync.Mutex
	users       map[string]model.User
	roles       map[string]model.Role
	assignments map[string]map[string]time.Time
	tokens      map[string]model.RefreshToken
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       map[string]model.User{},
		roles:       map[string]model.Role{},
		assignments: map[string]map[string]time.Time{},
		tokens:      map[string]model.RefreshToken{},
	}
}

// ---- UserStore ----

func (m *MemoryStore) Create(_ context.Context, u model.User, defaultRole string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Email == u.Email {
			return model.ErrEmailTaken
		}
		if existing.Username == u.Username {
			return model.ErrUsernameTaken
		}
	}

	m.users[u.ID] = u
	for _, role := range m.roles {
		if role.Name == defaultRole {
			m.assignLocked(u.ID, role.ID, time.Now().UTC())
			break
		}
	}
	return nil
}

func (m *MemoryStore) FindByID(_ context.Context, id string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (m *MemoryStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (m *MemoryStore) FindByEmailOrUsername(_ context.Context, email, username string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (m *MemoryStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return model.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now().UTC()
	m.users[id] = u
	return nil
}

func (m *MemoryStore) RolesForUser(_ context.Context, id string) ([]model.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	roles := []model.Role{}
	for roleID := range m.assignments[id] {
		if role, ok := m.roles[roleID]; ok {
			roles = append(roles, role)
		}
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
	return roles, nil
}

// SetActive toggles the active flag directly, for tests exercising
// deactivated accounts.
func (m *MemoryStore) SetActive(id string, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u, ok := m.users[id]; ok {
		u.IsActive = active
		m.users[id] = u
	}
}

// ---- RoleStore ----

func (m *MemoryStore) CreateRole(_ context.Context, r model.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.roles {
		if existing.Name == r.Name {
			return model.ErrRoleExists
		}
	}
	m.roles[r.ID] = r
	return nil
}

func (m *MemoryStore) RoleByID(_ context.Context, id string) (model.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.roles[id]
	if !ok {
		return model.Role{}, model.ErrRoleNotFound
	}
	return r, nil
}

func (m *MemoryStore) RoleByName(_ context.Context, name string) (model.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.roles {
		if r.Name == name {
			return r, nil
		}
	}
	return model.Role{}, model.ErrRoleNotFound
}

func (m *MemoryStore) ListRoles(_ context.Context) ([]model.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	roles := make([]model.Role, 0, len(m.roles))
	for _, r := range m.roles {
		roles = append(roles, r)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
	return roles, nil
}

func (m *MemoryStore) Assign(_ context.Context, userID, roleID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[userID]; !ok {
		return model.ErrUserNotFound
	}
	if _, ok := m.roles[roleID]; !ok {
		return model.ErrRoleNotFound
	}
	if _, ok := m.assignments[userID][roleID]; ok {
		return model.ErrRoleAssigned
	}
	m.assignLocked(userID, roleID, at)
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, userID, roleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.assignments[userID][roleID]; !ok {
		return model.ErrRoleNotAssigned
	}
	delete(m.assignments[userID], roleID)
	return nil
}

func (m *MemoryStore) assignLocked(userID, roleID string, at time.Time) {
	if m.assignments[userID] == nil {
		m.assignments[userID] = map[string]time.Time{}
	}
	m.assignments[userID][roleID] = at
}

// ---- TokenStore ----

func (m *MemoryStore) Store(_ context.Context, t model.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tokens[t.TokenHash] = t
	return nil
}

func (m *MemoryStore) Revoke(_ context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.tokens[tokenHash]; ok {
		t.IsRevoked = true
		m.tokens[tokenHash] = t
	}
	return nil
}

func (m *MemoryStore) Rotate(_ context.Context, userID, oldHash string, next model.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.tokens[oldHash]
	if !ok || old.UserID != userID || !old.Valid(time.Now().UTC()) {
		return model.ErrTokenInvalid
	}
	old.IsRevoked = true
	m.tokens[oldHash] = old
	m.tokens[next.TokenHash] = next
	return nil
}

// Token returns the stored row for a hash, for expiry and revocation tests.
func (m *MemoryStore) Token(tokenHash string) (model.RefreshToken, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tokens[tokenHash]
	return t, ok
}

// SetTokenExpiry rewrites a stored token's expiry, for boundary tests.
func (m *MemoryStore) SetTokenExpiry(tokenHash string, expiresAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.tokens[tokenHash]; ok {
		t.ExpiresAt = expiresAt
		m.tokens[tokenHash] = t
	}
}

var (
	_ UserStore  = (*MemoryStore)(nil)
	_ RoleStore  = (*MemoryStore)(nil)
	_ TokenStore = (*MemoryStore)(nil)
)
