package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/todolist/internal/model"
	"github.com/hitoshi/todolist/internal/repository"
)

// DefaultBcryptCost はパスワードハッシュのコスト。
const DefaultBcryptCost = 10

// maxNameLength は表示名の最大文字数。
const maxNameLength = 100

// SignupCommand はパスワードアカウントの新規登録入力。
type SignupCommand struct {
	Name     string
	Email    string
	Password string
}

// Validate は入力を正規化して検証する。違反は*model.APIErrorで返す。
func (c *SignupCommand) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = normalizeEmail(c.Email)

	switch {
	case c.Name == "":
		return model.NewInvalidSignupError("El nombre es obligatorio")
	case utf8.RuneCountInString(c.Name) > maxNameLength:
		return model.NewInvalidSignupError("El nombre es demasiado largo")
	case c.Email == "":
		return model.NewInvalidSignupError("El email es obligatorio")
	case !strings.Contains(c.Email, "@"):
		return model.NewInvalidSignupError("El email no es válido")
	case c.Password == "":
		return model.NewInvalidSignupError("La contraseña es obligatoria")
	case len(c.Password) > 72:
		// bcryptは72バイトを超える入力を扱えない
		return model.NewInvalidSignupError("La contraseña es demasiado larga")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PasswordStrategy はメールアドレスとパスワードで認証する。
type PasswordStrategy struct {
	users repository.UserRepository
	cost  int
	now   func() time.Time
}

// NewPasswordStrategy はPasswordStrategyを生成する。costが0以下の場合はDefaultBcryptCostを使う。
func NewPasswordStrategy(users repository.UserRepository, cost int) *PasswordStrategy {
	if cost <= 0 {
		cost = DefaultBcryptCost
	}
	return &PasswordStrategy{users: users, cost: cost, now: time.Now}
}

// Name は戦略名を返す。
func (s *PasswordStrategy) Name() string { return StrategyPassword }

// Attempt はパスワード認証を試みる。
func (s *PasswordStrategy) Attempt(ctx context.Context, creds Credentials) (Result, error) {
	pc, ok := creds.(PasswordCredentials)
	if !ok {
		return Result{}, ErrUnsupportedCredentials
	}

	user, err := s.users.FindByEmail(ctx, normalizeEmail(pc.Email))
	if err != nil {
		return Result{}, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return rejected(ReasonUserNotFound), nil
	}
	if !user.HasPassword() {
		return rejected(ReasonInvalidCredential), nil
	}

	err = bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(pc.Password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return rejected(ReasonInvalidCredential), nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("failed to compare password hash: %w", err)
	}

	return authenticated(user), nil
}

// Signup はパスワードアカウントを作成する。
// メールアドレスが登録済みの場合はmodel.ErrDuplicateIdentityを返す。
func (s *PasswordStrategy) Signup(ctx context.Context, cmd SignupCommand) (*model.User, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.users.FindByEmail(ctx, cmd.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if existing != nil {
		return nil, model.ErrDuplicateIdentity
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hashStr := string(hash)
	email := cmd.Email

	now := s.now()
	user := &model.User{
		ID:           uuid.New().String(),
		Name:         cmd.Name,
		Email:        &email,
		PasswordHash: &hashStr,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// 同時登録は一意制約で検出され、ErrDuplicateIdentityとして返る
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user signed up", slog.String("user_id", user.ID))
	return user, nil
}

// compile-time interface check
var _ Strategy = (*PasswordStrategy)(nil)
