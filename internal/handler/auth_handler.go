// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/todolist/internal/auth"
	"github.com/hitoshi/todolist/internal/middleware"
	"github.com/hitoshi/todolist/internal/model"
)

const oauthStateCookie = "oauth_state"

const (
	msgLoginFailed   = "Error al intentar iniciar sesión"
	msgSignupFailed  = "Error al registrar el usuario"
	msgDuplicateUser = "Este email ya fue registrado"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	GetLoginURL(state string) string
	Login(ctx context.Context, creds auth.PasswordCredentials) (auth.SignInResult, error)
	Signup(ctx context.Context, cmd auth.SignupCommand) (auth.SignInResult, error)
	HandleCallback(ctx context.Context, code string) (auth.SignInResult, error)
	Logout(ctx context.Context, token string) error
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain string
	CookieSecure bool
}

func (c AuthHandlerConfig) cookie() middleware.CookieConfig {
	return middleware.CookieConfig{Secure: c.CookieSecure, Domain: c.CookieDomain}
}

// AuthHandler はログイン・新規登録・Google認証・ログアウトのHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// LoginForm はログインフォームを表示する。
// GET /login
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, "login.html", pageView{Title: "Iniciar sesión"})
}

// Login はメールアドレスとパスワードで認証する。
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	view := pageView{Title: "Iniciar sesión", Form: formValues{Email: email}}

	res, err := h.service.Login(r.Context(), auth.PasswordCredentials{
		Email:    email,
		Password: r.PostFormValue("password"),
	})
	if err != nil {
		slog.Error("password login failed", slog.String("error", err.Error()))
		view.Message = msgLoginFailed
		render(w, r, http.StatusInternalServerError, "login.html", view)
		return
	}
	if !res.Authenticated() {
		view.Message = res.Reason.Message()
		render(w, r, http.StatusOK, "login.html", view)
		return
	}

	middleware.SetSessionCookie(w, res.Token, h.config.cookie())
	http.Redirect(w, r, "/tustareas", http.StatusSeeOther)
}

// SignupForm は新規登録フォームを表示する。
// GET /signup
func (h *AuthHandler) SignupForm(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, "signup.html", pageView{Title: "Crear cuenta"})
}

// Signup はパスワードアカウントを作成し、そのままログインさせる。
// POST /signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	cmd := auth.SignupCommand{
		Name:     r.PostFormValue("name"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	view := pageView{
		Title: "Crear cuenta",
		Form:  formValues{Name: cmd.Name, Email: cmd.Email},
	}

	res, err := h.service.Signup(r.Context(), cmd)
	if err != nil {
		var apiErr *model.APIError
		switch {
		case errors.As(err, &apiErr):
			view.Message = apiErr.Message
			render(w, r, http.StatusBadRequest, "signup.html", view)
		case errors.Is(err, model.ErrDuplicateIdentity):
			view.Message = msgDuplicateUser
			render(w, r, http.StatusOK, "signup.html", view)
		default:
			slog.Error("signup failed", slog.String("error", err.Error()))
			view.Message = msgSignupFailed
			render(w, r, http.StatusInternalServerError, "signup.html", view)
		}
		return
	}

	middleware.SetSessionCookie(w, res.Token, h.config.cookie())
	http.Redirect(w, r, "/tustareas", http.StatusSeeOther)
}

// GoogleLogin はGoogle OAuthフローを開始する。
// GET /auth/google
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := generateState()
	if err != nil {
		slog.Error("failed to generate oauth state", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	// stateをCookieに保存（CSRF対策）
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10分
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.service.GetLoginURL(state), http.StatusTemporaryRedirect)
}

// GoogleCallback はOAuthコールバックを処理する。
// GET /auth/google/callback?code=xxx&state=yyy
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	view := pageView{Title: "Iniciar sesión"}

	// 1. stateの検証（CSRF対策）
	state := r.URL.Query().Get("state")
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || state == "" || stateCookie.Value != state {
		slog.Warn("oauth state mismatch")
		view.Message = auth.ReasonFederatedFailed.Message()
		render(w, r, http.StatusBadRequest, "login.html", view)
		return
	}

	// stateクッキーを削除
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	// 2. 認可コードの取得（ユーザーが同意を拒否した場合は空）
	code := r.URL.Query().Get("code")
	if code == "" {
		view.Message = auth.ReasonFederatedFailed.Message()
		render(w, r, http.StatusBadRequest, "login.html", view)
		return
	}

	// 3. 認証処理
	res, err := h.service.HandleCallback(r.Context(), code)
	if err != nil {
		slog.Error("oauth callback failed", slog.String("error", err.Error()))
		view.Message = msgLoginFailed
		render(w, r, http.StatusInternalServerError, "login.html", view)
		return
	}
	if !res.Authenticated() {
		view.Message = res.Reason.Message()
		render(w, r, http.StatusOK, "login.html", view)
		return
	}

	// 4. セッションCookieを設定してトップへ
	middleware.SetSessionCookie(w, res.Token, h.config.cookie())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout はセッションを破棄してログイン画面へ戻す。
// 既に無効なセッションでも成功として扱う。
// GET /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			slog.Error("failed to logout", slog.String("error", logoutErr.Error()))
			// ログアウト失敗してもCookieはクリアする
		}
	}

	middleware.ClearSessionCookie(w, h.config.cookie())
	http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
}

// generateState はCSRF対策用のランダムなstate値を生成する。
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
