package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vibecord/storefront-auth/internal/models"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	CreateFunc                  func(ctx context.Context, user *models.User) (*models.User, error)
	GetByIDFunc                 func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc              func(ctx context.Context, email string) (*models.User, error)
	GetByUsernameFunc           func(ctx context.Context, username string) (*models.User, error)
	ListFunc                    func(ctx context.Context, limit, offset int) ([]*models.User, error)
	UpdatePasswordFunc          func(ctx context.Context, id, passwordHash string) error
	IncrementFailedAttemptsFunc func(ctx context.Context, id string, lockedUntil *time.Time) error
	ResetLoginStateFunc         func(ctx context.Context, id string) error
	SetTwoFactorFunc            func(ctx context.Context, id string, enabled bool, secret, nonce []byte) error
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.User{}, nil
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, passwordHash)
	}
	return nil
}

func (m *MockUserRepository) IncrementFailedAttempts(ctx context.Context, id string, lockedUntil *time.Time) error {
	if m.IncrementFailedAttemptsFunc != nil {
		return m.IncrementFailedAttemptsFunc(ctx, id, lockedUntil)
	}
	return nil
}

func (m *MockUserRepository) ResetLoginState(ctx context.Context, id string) error {
	if m.ResetLoginStateFunc != nil {
		return m.ResetLoginStateFunc(ctx, id)
	}
	return nil
}

func (m *MockUserRepository) SetTwoFactor(ctx context.Context, id string, enabled bool, secret, nonce []byte) error {
	if m.SetTwoFactorFunc != nil {
		return m.SetTwoFactorFunc(ctx, id, enabled, secret, nonce)
	}
	return nil
}

// MockBlacklistRepository implements TokenBlacklistRepository for testing
type MockBlacklistRepository struct {
	BlacklistFunc     func(ctx context.Context, jti string, expiresAt time.Time) error
	IsBlacklistedFunc func(ctx context.Context, jti string) (bool, error)
}

func (m *MockBlacklistRepository) Blacklist(ctx context.Context, jti string, expiresAt time.Time) error {
	if m.BlacklistFunc != nil {
		return m.BlacklistFunc(ctx, jti, expiresAt)
	}
	return nil
}

func (m *MockBlacklistRepository) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	if m.IsBlacklistedFunc != nil {
		return m.IsBlacklistedFunc(ctx, jti)
	}
	return false, nil
}

// MockEventRecorder implements SecurityEventRecorder for testing
type MockEventRecorder struct {
	mu     sync.Mutex
	Events []*models.SecurityEvent
}

func (m *MockEventRecorder) Record(ctx context.Context, event *models.SecurityEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockEventRecorder) Recorded(eventType string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Events {
		if e.EventType == eventType {
			return true
		}
	}
	return false
}

// fakeAttemptStore is a stateful in-memory AttemptRepository. Unlike
// the Func-style mocks it models real store behavior (window counting,
// deletion) so tracker tests can exercise sequences of operations.
type fakeAttemptStore struct {
	mu       sync.Mutex
	attempts []*models.LoginAttempt
	err      error
	now      func() time.Time
}

func newFakeAttemptStore() *fakeAttemptStore {
	return &fakeAttemptStore{now: time.Now}
}

func (f *fakeAttemptStore) Record(ctx context.Context, attempt *models.LoginAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	a := *attempt
	a.OccurredAt = f.now()
	f.attempts = append(f.attempts, &a)
	return nil
}

func (f *fakeAttemptStore) CountSince(ctx context.Context, identifier string, cutoff time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	count := 0
	for _, a := range f.attempts {
		if a.Identifier == identifier && a.OccurredAt.After(cutoff) {
			count++
		}
	}
	return count, nil
}

func (f *fakeAttemptStore) DeleteForIdentifier(ctx context.Context, identifier string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	kept := f.attempts[:0]
	for _, a := range f.attempts {
		if a.Identifier != identifier {
			kept = append(kept, a)
		}
	}
	f.attempts = kept
	return nil
}

// fakeSessionStore is a stateful in-memory SessionRepository
type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	seq      int64
	order    map[string]int64
	err      error
	listErr  error
	now      func() time.Time
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{
		sessions: make(map[string]*models.Session),
		order:    make(map[string]int64),
		now:      time.Now,
	}
}

func (f *fakeSessionStore) Create(ctx context.Context, session *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	s := *session
	s.CreatedAt = f.now()
	f.seq++
	f.sessions[s.ID] = &s
	f.order[s.ID] = f.seq
	session.CreatedAt = s.CreatedAt
	return nil
}

func (f *fakeSessionStore) GetByID(ctx context.Context, id string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.sessions[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSessionStore) Deactivate(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if s, ok := f.sessions[id]; ok {
		s.IsActive = false
	}
	return nil
}

// ListActiveByUser returns active sessions newest first, insertion
// order breaking created-at ties, matching the SQL ordering.
func (f *fakeSessionStore) ListActiveByUser(ctx context.Context, userID string) ([]*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.Session
	for _, s := range f.sessions {
		if s.UserID == userID && s.IsActive {
			copied := *s
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return f.order[out[i].ID] > f.order[out[j].ID]
	})
	return out, nil
}

func (f *fakeSessionStore) DeactivateMany(ctx context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, id := range ids {
		if s, ok := f.sessions[id]; ok {
			s.IsActive = false
		}
	}
	return nil
}

func (f *fakeSessionStore) activeCount(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, s := range f.sessions {
		if s.UserID == userID && s.IsActive {
			count++
		}
	}
	return count
}
