package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/hitoshi/todolist/internal/model"
	"github.com/hitoshi/todolist/internal/repository"
	"github.com/hitoshi/todolist/internal/session"
)

// memoryUserRepo は一意制約を再現するインメモリのユーザーストア。
type memoryUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User

	findErr error
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[string]*model.User)}
}

func (m *memoryUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *memoryUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, u := range m.users {
		if u.Email != nil && *u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memoryUserRepo) FindByFederatedID(_ context.Context, federatedID string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, u := range m.users {
		if u.FederatedID != nil && *u.FederatedID == federatedID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memoryUserRepo) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if user.Email != nil && u.Email != nil && *u.Email == *user.Email {
			return fmt.Errorf("failed to insert user: %w", model.ErrDuplicateIdentity)
		}
		if user.FederatedID != nil && u.FederatedID != nil && *u.FederatedID == *user.FederatedID {
			return fmt.Errorf("failed to insert user: %w", model.ErrDuplicateIdentity)
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memoryUserRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

var _ repository.UserRepository = (*memoryUserRepo)(nil)

// mockOAuthProvider はOAuthProviderのモック。
type mockOAuthProvider struct {
	getLoginURLFn  func(state string) string
	exchangeCodeFn func(ctx context.Context, code string) (*OAuthUserInfo, error)
}

func (m *mockOAuthProvider) GetLoginURL(state string) string {
	if m.getLoginURLFn != nil {
		return m.getLoginURLFn(state)
	}
	return ""
}

func (m *mockOAuthProvider) ExchangeCode(ctx context.Context, code string) (*OAuthUserInfo, error) {
	if m.exchangeCodeFn != nil {
		return m.exchangeCodeFn(ctx, code)
	}
	return nil, nil
}

var _ OAuthProvider = (*mockOAuthProvider)(nil)

// fakeSessions はトークンをそのままユーザーIDに対応付けるSessionAuthority。
type fakeSessions struct {
	mu      sync.Mutex
	next    int
	tokens  map[string]string
	started int

	startErr   error
	resolveErr error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{tokens: make(map[string]string)}
}

func (f *fakeSessions) Start(_ context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return "", f.startErr
	}
	f.next++
	f.started++
	token := fmt.Sprintf("token-%d", f.next)
	f.tokens[token] = userID
	return token, nil
}

func (f *fakeSessions) Resolve(_ context.Context, token string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resolveErr != nil {
		return "", f.resolveErr
	}
	userID, ok := f.tokens[token]
	if !ok {
		return "", session.ErrInvalidSession
	}
	return userID, nil
}

func (f *fakeSessions) End(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, token)
	return nil
}

var _ SessionAuthority = (*fakeSessions)(nil)
var _ SessionAuthority = (*session.Authority)(nil)

// recordingMetrics は認証試行の記録を保持する。
type recordingMetrics struct {
	mu       sync.Mutex
	attempts []string
}

func (r *recordingMetrics) RecordAuthAttempt(strategy, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, strategy+":"+outcome)
}
