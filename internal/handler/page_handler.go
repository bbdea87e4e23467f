package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/todolist/internal/middleware"
)

// HealthChecker はDB接続の疎通確認を行う。*sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// PageHandler はタスク以外の画面とヘルスチェックのハンドラー。
type PageHandler struct {
	health HealthChecker
}

// NewPageHandler はPageHandlerを生成する。
func NewPageHandler(health HealthChecker) *PageHandler {
	return &PageHandler{health: health}
}

// Root はタスクパネルへリダイレクトする。未認証の場合はガードが/loginへ送る。
// GET /
func (h *PageHandler) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, tasksPanelPath, http.StatusSeeOther)
}

// Preferences は要求者のアカウント情報を表示する。
// GET /preferencias
func (h *PageHandler) Preferences(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		middleware.WriteInternalServerError(w)
		return
	}
	render(w, r, http.StatusOK, "preferences.html", pageView{
		Title: "Preferencias",
		User:  user,
	})
}

// Health はDBに到達できるかを返す。
// GET /health
func (h *PageHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.health.PingContext(ctx); err != nil {
		slog.Error("health check failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
