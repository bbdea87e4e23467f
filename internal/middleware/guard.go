// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/todolist/internal/auth"
	"github.com/hitoshi/todolist/internal/model"
)

// SessionCookieName はセッショントークンを保持するCookieの名前。
const SessionCookieName = "session_id"

// LoginPath は未認証リクエストのリダイレクト先。
const LoginPath = "/login"

type contextKey string

var userContextKey = contextKey("user")

// UserResolver はセッショントークンから現在のユーザーを解決する。
// 無効なセッションやユーザー不在はauth.ErrUnauthenticatedを返す。
type UserResolver interface {
	CurrentUser(ctx context.Context, token string) (*model.User, error)
}

// CookieConfig はセッションCookieの属性。
type CookieConfig struct {
	Secure bool
	Domain string
}

// NewAuthGuard は認証済みリクエストのみを通過させるミドルウェアを返す。
// 通過したリクエストのコンテキストにはユーザーが注入される。
// 未認証の場合はセッションCookieを削除して/loginへ303でリダイレクトする。
func NewAuthGuard(resolver UserResolver, cookie CookieConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(SessionCookieName)
			if err != nil || c.Value == "" {
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}

			user, err := resolver.CurrentUser(r.Context(), c.Value)
			if errors.Is(err, auth.ErrUnauthenticated) {
				ClearSessionCookie(w, cookie)
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}
			if err != nil {
				slog.Error("failed to resolve current user",
					slog.String("error", err.Error()),
					slog.String("path", r.URL.Path),
				)
				WriteInternalServerError(w)
				return
			}

			setRequestUserID(r.Context(), user.ID)
			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// SetSessionCookie はセッショントークンをHttpOnly Cookieに設定する。
// 有効期限はサーバー側で管理するため、ブラウザセッションCookieとする。
func SetSessionCookie(w http.ResponseWriter, token string, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   cfg.Domain,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie はセッションCookieを削除する。
func ClearSessionCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// UserFromContext はリクエストコンテキストからユーザーを取得する。
// 認証ガードを通過したリクエストでのみ有効。
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	return user, ok && user != nil
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
func UserIDFromContext(ctx context.Context) (string, bool) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return "", false
	}
	return user.ID, true
}

// ContextWithUser はコンテキストにユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
