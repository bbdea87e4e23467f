package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/todolist/internal/middleware"
	"github.com/hitoshi/todolist/internal/model"
	"github.com/hitoshi/todolist/internal/task"
)

const tasksPanelPath = "/tustareas"

// TaskServiceInterface はタスクハンドラーが必要とするサービスインターフェース。
type TaskServiceInterface interface {
	ListPending(ctx context.Context, ownerID string) ([]*model.Task, error)
	ListAll(ctx context.Context, ownerID string) ([]*model.Task, error)
	Get(ctx context.Context, ownerID, taskID string) (*model.Task, error)
	Create(ctx context.Context, ownerID string, cmd task.CreateCommand) (*model.Task, error)
	MarkDone(ctx context.Context, ownerID, taskID string) (*model.Task, error)
	Edit(ctx context.Context, ownerID, taskID string, cmd task.EditCommand) (*model.Task, error)
	Delete(ctx context.Context, ownerID, taskID string) error
}

// TaskHandler はタスク関連のHTTPハンドラー。
// 全てのルートは認証ガードの内側に配置され、操作対象は要求者自身のタスクに限られる。
type TaskHandler struct {
	service TaskServiceInterface
}

// NewTaskHandler はTaskHandlerを生成する。
func NewTaskHandler(service TaskServiceInterface) *TaskHandler {
	return &TaskHandler{service: service}
}

// taskResponse はタスクのJSONレスポンス。
type taskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"titulo"`
	Description string     `json:"descripcion"`
	Completed   bool       `json:"completado"`
	CreatedAt   time.Time  `json:"fechaCreacion"`
	CompletedAt *time.Time `json:"fechaCompletado,omitempty"`
	OwnerID     string     `json:"usuario"`
}

// taskListResponse はタスク一覧のJSONレスポンス。
type taskListResponse struct {
	Tasks []taskResponse `json:"tareas"`
}

// Panel は未完了タスクの一覧と作成フォームを表示する。
// GET /tustareas
func (h *TaskHandler) Panel(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		middleware.WriteInternalServerError(w)
		return
	}
	h.renderPanel(w, r, user, http.StatusOK, "", formValues{})
}

func (h *TaskHandler) renderPanel(w http.ResponseWriter, r *http.Request, user *model.User, status int, message string, form formValues) {
	tasks, err := h.service.ListPending(r.Context(), user.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	render(w, r, status, "tasks.html", pageView{
		Title:   "Tus tareas",
		Message: message,
		User:    user,
		Tasks:   tasks,
		Form:    form,
	})
}

// ListByUser は指定ユーザーの全タスクをJSONで返す。
// 要求者自身のID以外は存在しないユーザーとして扱う。
// GET /tareas/{userId}
func (h *TaskHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		middleware.WriteInternalServerError(w)
		return
	}

	if chi.URLParam(r, "userId") != requesterID {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewUserNotFoundError())
		return
	}

	tasks, err := h.service.ListAll(r.Context(), requesterID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := taskListResponse{Tasks: make([]taskResponse, 0, len(tasks))}
	for _, t := range tasks {
		resp.Tasks = append(resp.Tasks, toTaskResponse(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create はタスクを作成する。入力不正の場合はパネルを再表示する。
// POST /tareas
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		middleware.WriteInternalServerError(w)
		return
	}

	cmd := task.CreateCommand{
		Title:       r.PostFormValue("titulo"),
		Description: r.PostFormValue("descripcion"),
	}
	if _, err := h.service.Create(r.Context(), user.ID, cmd); err != nil {
		if apiErr, ok := asValidationError(err); ok {
			h.renderPanel(w, r, user, http.StatusBadRequest, apiErr.Message,
				formValues{Title: cmd.Title, Description: cmd.Description})
			return
		}
		handleServiceError(w, err)
		return
	}

	http.Redirect(w, r, tasksPanelPath, http.StatusSeeOther)
}

// MarkDone はタスクを完了にする。完了済みのタスクに対しても成功する。
// PATCH /tareas/{taskId}/done
func (h *TaskHandler) MarkDone(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		middleware.WriteInternalServerError(w)
		return
	}

	if _, err := h.service.MarkDone(r.Context(), userID, chi.URLParam(r, "taskId")); err != nil {
		handleServiceError(w, err)
		return
	}

	http.Redirect(w, r, tasksPanelPath, http.StatusSeeOther)
}

// EditForm はタスクの編集フォームを表示する。
// GET /tareas/{taskId}/edit
func (h *TaskHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		middleware.WriteInternalServerError(w)
		return
	}

	t, err := h.service.Get(r.Context(), user.ID, chi.URLParam(r, "taskId"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	render(w, r, http.StatusOK, "edit.html", pageView{
		Title: "Editar tarea",
		User:  user,
		Task:  t,
		Form:  formValues{Title: t.Title, Description: t.Description},
	})
}

// Edit はタスクのタイトルと説明を更新する。
// PATCH /tareas/{taskId}/edit
func (h *TaskHandler) Edit(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		middleware.WriteInternalServerError(w)
		return
	}

	taskID := chi.URLParam(r, "taskId")
	cmd := task.EditCommand{
		Title:       r.PostFormValue("titulo"),
		Description: r.PostFormValue("descripcion"),
	}
	if _, err := h.service.Edit(r.Context(), user.ID, taskID, cmd); err != nil {
		if apiErr, ok := asValidationError(err); ok {
			render(w, r, http.StatusBadRequest, "edit.html", pageView{
				Title:   "Editar tarea",
				Message: apiErr.Message,
				User:    user,
				Task:    &model.Task{ID: taskID},
				Form:    formValues{Title: cmd.Title, Description: cmd.Description},
			})
			return
		}
		handleServiceError(w, err)
		return
	}

	http.Redirect(w, r, tasksPanelPath, http.StatusSeeOther)
}

// Delete はタスクを削除する。
// DELETE /tareas/{taskId}/delete
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		middleware.WriteInternalServerError(w)
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "taskId")); err != nil {
		handleServiceError(w, err)
		return
	}

	http.Redirect(w, r, tasksPanelPath, http.StatusSeeOther)
}

func toTaskResponse(t *model.Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		CompletedAt: t.CompletedAt,
		OwnerID:     t.OwnerID,
	}
}

func asValidationError(err error) (*model.APIError, bool) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeInvalidTask {
		return apiErr, true
	}
	return nil, false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// handleServiceError はサービス層のエラーを{"message"}形式のJSONレスポンスに変換する。
// APIError以外のエラーは詳細をログにのみ記録し、500を返す。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeTaskNotFound, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidTask, model.ErrCodeInvalidSignup:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorized, model.ErrCodeInvalidCredential:
		return http.StatusUnauthorized
	case model.ErrCodeDuplicateIdentity:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
