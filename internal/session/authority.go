// Package session は署名付きトークンとスライディング有効期限によるセッション管理を提供する。
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/todolist/internal/model"
	"github.com/hitoshi/todolist/internal/repository"
)

// ErrInvalidSession はトークンが不正・期限切れ・未知のいずれかであることを表す。
// 呼び出し側が区別できないよう、理由は統合される。
var ErrInvalidSession = errors.New("invalid session")

// DefaultIdleTimeout は最終アクセスからセッションが失効するまでの時間。
const DefaultIdleTimeout = 30 * time.Minute

// Authority はセッションの発行・解決・破棄を行う。
type Authority struct {
	repo        repository.SessionRepository
	codec       *Codec
	idleTimeout time.Duration
	now         func() time.Time
}

// NewAuthority はAuthorityを生成する。idleTimeoutが0以下の場合はDefaultIdleTimeoutを使う。
func NewAuthority(repo repository.SessionRepository, codec *Codec, idleTimeout time.Duration, now func() time.Time) *Authority {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	if now == nil {
		now = time.Now
	}
	return &Authority{
		repo:        repo,
		codec:       codec,
		idleTimeout: idleTimeout,
		now:         now,
	}
}

// IdleTimeout はセッションの無操作タイムアウトを返す。
func (a *Authority) IdleTimeout() time.Duration {
	return a.idleTimeout
}

// Start はユーザーに紐付く新しいセッションを発行し、Cookieに設定するトークンを返す。
func (a *Authority) Start(ctx context.Context, userID string) (string, error) {
	id, err := generateSessionID()
	if err != nil {
		return "", fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := a.now()
	s := &model.Session{
		ID:             id,
		UserID:         userID,
		LastAccessedAt: now,
		ExpiresAt:      now.Add(a.idleTimeout),
		CreatedAt:      now,
	}
	if err := a.repo.Create(ctx, s); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}

	token, err := a.codec.Encode(id)
	if err != nil {
		return "", err
	}
	return token, nil
}

// Resolve はトークンからユーザーIDを解決し、有効期限を延長する。
// 不正・期限切れ・未知のトークンはErrInvalidSessionを返す。
func (a *Authority) Resolve(ctx context.Context, token string) (string, error) {
	id, err := a.codec.Decode(token)
	if err != nil {
		return "", ErrInvalidSession
	}

	now := a.now()
	s, err := a.repo.Touch(ctx, id, now, now.Add(a.idleTimeout))
	if err != nil {
		return "", fmt.Errorf("failed to resolve session: %w", err)
	}
	if s == nil {
		return "", ErrInvalidSession
	}
	return s.UserID, nil
}

// End はセッションを破棄する。不正・破棄済みのトークンでもエラーにしない。
func (a *Authority) End(ctx context.Context, token string) error {
	id, err := a.codec.Decode(token)
	if err != nil {
		return nil
	}
	if err := a.repo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// PurgeExpired は期限切れセッションを削除し、削除件数を返す。
func (a *Authority) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := a.repo.DeleteExpired(ctx, a.now())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired sessions: %w", err)
	}
	return n, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
