package handler

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/hitoshi/todolist/internal/middleware"
	"github.com/hitoshi/todolist/internal/model"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// formValues はバリデーションエラー時にフォームへ戻す入力値。
// パスワードは保持しない。
type formValues struct {
	Name        string
	Email       string
	Title       string
	Description string
}

// pageView は全ページ共通のテンプレートデータ。
type pageView struct {
	Title     string
	CSRFToken string
	Message   string
	User      *model.User
	Tasks     []*model.Task
	Task      *model.Task
	Form      formValues
}

// render はテンプレートをバッファに描画してから書き込む。
// 描画に失敗した場合は途中までのHTMLを返さず500を返す。
func render(w http.ResponseWriter, r *http.Request, status int, name string, view pageView) {
	view.CSRFToken = middleware.CSRFToken(r.Context())

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, view); err != nil {
		slog.Error("failed to render template",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
