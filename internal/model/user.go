// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// PasswordHashとFederatedIDのうち少なくとも一方が設定されている。
type User struct {
	ID           string
	Name         string
	Email        *string // パスワード認証アカウントでは必須
	PasswordHash *string // bcryptハッシュ。平文は保持しない
	FederatedID  *string // 外部IdPの安定ID（Googleのsub）
	Verified     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword はパスワード認証アカウントかどうかを返す。
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// IsFederated は外部IdP経由で作成されたアカウントかどうかを返す。
func (u *User) IsFederated() bool {
	return u.FederatedID != nil && *u.FederatedID != ""
}

// EmailOrEmpty はメールアドレスを返す。未設定の場合は空文字を返す。
func (u *User) EmailOrEmpty() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}

// Session はユーザーのログインセッションを表す。
// ExpiresAtは最終アクセスから一定時間後に設定され、アクセスのたびに延長される。
type Session struct {
	ID             string
	UserID         string
	LastAccessedAt time.Time
	ExpiresAt      time.Time
	CreatedAt      time.Time
}
