// Package auth はパスワード認証・Google OAuth認証とセッション発行を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hitoshi/todolist/internal/metrics"
	"github.com/hitoshi/todolist/internal/model"
	"github.com/hitoshi/todolist/internal/repository"
	"github.com/hitoshi/todolist/internal/session"
)

// ErrUnauthenticated はリクエストに有効なセッションがないことを表す。
// セッションの不正・期限切れ・ユーザー消失を区別しない。
var ErrUnauthenticated = errors.New("unauthenticated")

// SessionAuthority はセッションの発行・解決・破棄を行う。
type SessionAuthority interface {
	Start(ctx context.Context, userID string) (string, error)
	Resolve(ctx context.Context, token string) (string, error)
	End(ctx context.Context, token string) error
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	BcryptCost int
}

// SignInResult は認証結果と、成功時に発行したセッショントークン。
type SignInResult struct {
	Result
	Token string
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	password  *PasswordStrategy
	federated *FederatedStrategy
	oauth     OAuthProvider
	sessions  SessionAuthority
	users     repository.UserRepository
	metrics   metrics.AuthRecorder
	tracer    trace.Tracer
}

// NewService はServiceを生成する。recorderがnilの場合は計測しない。
func NewService(
	oauth OAuthProvider,
	users repository.UserRepository,
	sessions SessionAuthority,
	config ServiceConfig,
	recorder metrics.AuthRecorder,
) *Service {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Service{
		password:  NewPasswordStrategy(users, config.BcryptCost),
		federated: NewFederatedStrategy(oauth, users),
		oauth:     oauth,
		sessions:  sessions,
		users:     users,
		metrics:   recorder,
		tracer:    otel.Tracer("github.com/hitoshi/todolist/internal/auth"),
	}
}

// GetLoginURL はOAuth認証URLを生成する。
func (s *Service) GetLoginURL(state string) string {
	return s.oauth.GetLoginURL(state)
}

// Login はメールアドレスとパスワードで認証し、成功時にセッションを発行する。
func (s *Service) Login(ctx context.Context, creds PasswordCredentials) (SignInResult, error) {
	return s.signIn(ctx, s.password, creds)
}

// HandleCallback はOAuthコールバックの認可コードで認証し、成功時にセッションを発行する。
// 未登録の外部IDの場合はユーザーを自動作成する。
func (s *Service) HandleCallback(ctx context.Context, code string) (SignInResult, error) {
	return s.signIn(ctx, s.federated, FederatedCredentials{Code: code})
}

// Signup はパスワードアカウントを作成し、そのままセッションを発行する。
// 入力不正は*model.APIError、メールアドレス重複はmodel.ErrDuplicateIdentityを返す。
func (s *Service) Signup(ctx context.Context, cmd SignupCommand) (SignInResult, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Signup")
	defer span.End()

	user, err := s.password.Signup(ctx, cmd)
	if err != nil {
		var apiErr *model.APIError
		switch {
		case errors.As(err, &apiErr):
			s.metrics.RecordAuthAttempt("signup", metrics.OutcomeInvalid)
		case errors.Is(err, model.ErrDuplicateIdentity):
			s.metrics.RecordAuthAttempt("signup", metrics.OutcomeRejected)
		default:
			s.metrics.RecordAuthAttempt("signup", metrics.OutcomeError)
			span.RecordError(err)
			span.SetStatus(codes.Error, "signup failed")
		}
		return SignInResult{}, err
	}

	token, err := s.sessions.Start(ctx, user.ID)
	if err != nil {
		s.metrics.RecordAuthAttempt("signup", metrics.OutcomeError)
		span.RecordError(err)
		span.SetStatus(codes.Error, "session start failed")
		return SignInResult{}, fmt.Errorf("failed to start session: %w", err)
	}

	s.metrics.RecordAuthAttempt("signup", metrics.OutcomeSuccess)
	return SignInResult{Result: authenticated(user), Token: token}, nil
}

func (s *Service) signIn(ctx context.Context, strategy Strategy, creds Credentials) (SignInResult, error) {
	ctx, span := s.tracer.Start(ctx, "auth.SignIn",
		trace.WithAttributes(attribute.String("auth.strategy", strategy.Name())),
	)
	defer span.End()

	res, err := strategy.Attempt(ctx, creds)
	if err != nil {
		s.metrics.RecordAuthAttempt(strategy.Name(), metrics.OutcomeError)
		span.RecordError(err)
		span.SetStatus(codes.Error, "attempt failed")
		return SignInResult{}, err
	}
	if !res.Authenticated() {
		s.metrics.RecordAuthAttempt(strategy.Name(), metrics.OutcomeRejected)
		span.SetAttributes(attribute.String("auth.reject_reason", string(res.Reason)))
		return SignInResult{Result: res}, nil
	}

	token, err := s.sessions.Start(ctx, res.User.ID)
	if err != nil {
		s.metrics.RecordAuthAttempt(strategy.Name(), metrics.OutcomeError)
		span.RecordError(err)
		span.SetStatus(codes.Error, "session start failed")
		return SignInResult{}, fmt.Errorf("failed to start session: %w", err)
	}

	s.metrics.RecordAuthAttempt(strategy.Name(), metrics.OutcomeSuccess)
	slog.Info("user logged in",
		slog.String("user_id", res.User.ID),
		slog.String("strategy", strategy.Name()),
	)
	return SignInResult{Result: res, Token: token}, nil
}

// Logout はセッションを破棄する。不正・破棄済みのトークンでもエラーにしない。
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.sessions.End(ctx, token); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}

// CurrentUser はセッショントークンから現在のユーザーを取得する。
// セッションが無効、またはユーザーが存在しない場合はErrUnauthenticatedを返す。
func (s *Service) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	userID, err := s.sessions.Resolve(ctx, token)
	if errors.Is(err, session.ErrInvalidSession) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, ErrUnauthenticated
	}
	return user, nil
}
