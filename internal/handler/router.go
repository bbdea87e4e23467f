package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/todolist/internal/metrics"
	"github.com/hitoshi/todolist/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger       *slog.Logger
	HTTPMetrics  metrics.HTTPRecorder
	Gatherer     prometheus.Gatherer
	UserResolver middleware.UserResolver

	// ヘルスチェック
	HealthChecker HealthChecker

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// タスク
	TaskService TaskServiceInterface
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → Metrics → SecurityHeaders → MethodOverride → CSRF → (AuthGuard)
//
// 認証ガードはタスクと画面のルートグループにのみ適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	httpMetrics := deps.HTTPMetrics
	if httpMetrics == nil {
		httpMetrics = metrics.Nop{}
	}

	// PATCH/DELETEのルートに一致させるため、ルーティング前にメソッドを上書きする。
	// アクセスログとメトリクスが同じメソッドを記録するよう、チェーンの先頭に置く
	r.Use(middleware.NewMethodOverrideMiddleware())
	// panicからの500もアクセスログとメトリクスに残るよう、リカバリーはその内側に置く
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewMetricsMiddleware(httpMetrics))
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCSRFMiddleware(middleware.CSRFConfig{
		CookieSecure: deps.AuthConfig.CookieSecure,
		CookieDomain: deps.AuthConfig.CookieDomain,
	}))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	taskHandler := NewTaskHandler(deps.TaskService)
	pageHandler := NewPageHandler(deps.HealthChecker)

	// --- 認証不要のルート ---
	r.Get("/health", pageHandler.Health)
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Get("/login", authHandler.LoginForm)
	r.Post("/login", authHandler.Login)
	r.Get("/signup", authHandler.SignupForm)
	r.Post("/signup", authHandler.Signup)
	r.Get("/auth/google", authHandler.GoogleLogin)
	r.Get("/auth/google/callback", authHandler.GoogleCallback)
	r.Get("/logout", authHandler.Logout)

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthGuard(deps.UserResolver, middleware.CookieConfig{
			Secure: deps.AuthConfig.CookieSecure,
			Domain: deps.AuthConfig.CookieDomain,
		}))

		r.Get("/", pageHandler.Root)
		r.Get("/preferencias", pageHandler.Preferences)
		r.Get("/tustareas", taskHandler.Panel)

		// {userId}と{taskId}は同じ階層のため、Routeでマウントせずフラットに登録する
		r.Post("/tareas", taskHandler.Create)
		r.Get("/tareas/{userId}", taskHandler.ListByUser)
		r.Patch("/tareas/{taskId}/done", taskHandler.MarkDone)
		r.Get("/tareas/{taskId}/edit", taskHandler.EditForm)
		r.Patch("/tareas/{taskId}/edit", taskHandler.Edit)
		r.Delete("/tareas/{taskId}/delete", taskHandler.Delete)
	})

	return r
}
