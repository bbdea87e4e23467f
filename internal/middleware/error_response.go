package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/todolist/internal/model"
)

// ErrorResponseBody はJSONエラーレスポンスの形式。
type ErrorResponseBody struct {
	Message string `json:"message"`
}

// WriteErrorResponse はAPIErrorのメッセージをJSONで書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{Message: apiErr.Message})
}

// WriteInternalServerError は内部サーバーエラーのレスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
}
