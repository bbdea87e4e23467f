package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/todolist/internal/model"
	"github.com/hitoshi/todolist/internal/repository"
)

const defaultFederatedName = "Usuario de Google"

// FederatedStrategy は外部IdPの認可コードで認証し、初回ログイン時にユーザーを作成する。
type FederatedStrategy struct {
	provider OAuthProvider
	users    repository.UserRepository
	now      func() time.Time
}

// NewFederatedStrategy はFederatedStrategyを生成する。
func NewFederatedStrategy(provider OAuthProvider, users repository.UserRepository) *FederatedStrategy {
	return &FederatedStrategy{provider: provider, users: users, now: time.Now}
}

// Name は戦略名を返す。
func (s *FederatedStrategy) Name() string { return StrategyGoogle }

// Attempt は認可コードを交換し、外部IDに対応するユーザーを返す。
func (s *FederatedStrategy) Attempt(ctx context.Context, creds Credentials) (Result, error) {
	fc, ok := creds.(FederatedCredentials)
	if !ok {
		return Result{}, ErrUnsupportedCredentials
	}
	if fc.Code == "" {
		return rejected(ReasonFederatedFailed), nil
	}

	info, err := s.provider.ExchangeCode(ctx, fc.Code)
	if err != nil {
		slog.Warn("federated code exchange failed", slog.String("error", err.Error()))
		return rejected(ReasonFederatedFailed), nil
	}

	user, err := s.findOrCreate(ctx, info)
	if err != nil {
		return Result{}, err
	}
	return authenticated(user), nil
}

func (s *FederatedStrategy) findOrCreate(ctx context.Context, info *OAuthUserInfo) (*model.User, error) {
	user, err := s.users.FindByFederatedID(ctx, info.ProviderUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find federated user: %w", err)
	}
	if user != nil {
		return user, nil
	}

	name := strings.TrimSpace(info.Name)
	if name == "" {
		name = defaultFederatedName
	}
	federatedID := info.ProviderUserID
	now := s.now()
	user = &model.User{
		ID:          uuid.New().String(),
		Name:        name,
		FederatedID: &federatedID,
		Verified:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.users.Create(ctx, user)
	if errors.Is(err, model.ErrDuplicateIdentity) {
		// 同じ外部IDの初回ログインが並行し、先に作成された
		existing, findErr := s.users.FindByFederatedID(ctx, info.ProviderUserID)
		if findErr != nil {
			return nil, fmt.Errorf("failed to find federated user after conflict: %w", findErr)
		}
		if existing == nil {
			return nil, fmt.Errorf("federated user missing after conflict: %w", err)
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create federated user: %w", err)
	}

	slog.Info("federated user created",
		slog.String("user_id", user.ID),
		slog.String("provider", info.Provider),
	)
	return user, nil
}

// compile-time interface check
var _ Strategy = (*FederatedStrategy)(nil)
