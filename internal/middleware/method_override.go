package middleware

import (
	"net/http"
	"strings"
)

const methodOverrideField = "_method"

// NewMethodOverrideMiddleware はHTMLフォームからPATCH/DELETEを送るため、
// POSTのフォーム項目_methodでHTTPメソッドを上書きするミドルウェアを返す。
// ルーティングより前に適用する必要がある。
func NewMethodOverrideMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				switch m := strings.ToUpper(r.PostFormValue(methodOverrideField)); m {
				case http.MethodPatch, http.MethodPut, http.MethodDelete:
					r.Method = m
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
