package model

import (
	"errors"
	"fmt"
)

// ErrDuplicateIdentity はメールアドレスまたは外部IDが既に登録済みであることを表す。
// リポジトリ層が一意制約違反をこのエラーに変換する。
var ErrDuplicateIdentity = errors.New("duplicate identity")

// APIError は統一エラーフォーマットを表す。
// Messageはユーザーにそのまま表示できる文言のみを含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, task, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeDuplicateIdentity = "DUPLICATE_IDENTITY"
	ErrCodeInvalidCredential = "INVALID_CREDENTIAL"
	ErrCodeTaskNotFound      = "TASK_NOT_FOUND"
	ErrCodeUserNotFound      = "USER_NOT_FOUND"
	ErrCodeInvalidTask       = "INVALID_TASK"
	ErrCodeInvalidSignup     = "INVALID_SIGNUP"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// NewDuplicateIdentityError はメールアドレス重複エラーを生成する。
func NewDuplicateIdentityError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateIdentity,
		Message:  "Este email ya fue registrado",
		Category: "auth",
		Action:   "Inicia sesión o usa otro email.",
	}
}

// NewTaskNotFoundError はタスク未検出エラーを生成する。
// 他ユーザーのタスクも存在しないものとして扱うため、IDはメッセージに含めない。
func NewTaskNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeTaskNotFound,
		Message:  "Tarea no encontrada",
		Category: "task",
		Action:   "Vuelve a cargar tu lista de tareas.",
	}
}

// NewUserNotFoundError はユーザー未検出エラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "Usuario no encontrado",
		Category: "auth",
		Action:   "Inicia sesión nuevamente.",
	}
}

// NewInvalidTaskError はタスク入力の検証エラーを生成する。
func NewInvalidTaskError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidTask,
		Message:  reason,
		Category: "validation",
		Action:   "Completa el título y la descripción.",
	}
}

// NewInvalidSignupError は新規登録入力の検証エラーを生成する。
func NewInvalidSignupError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSignup,
		Message:  reason,
		Category: "validation",
		Action:   "Completa nombre, email y contraseña.",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Necesitas iniciar sesión",
		Category: "auth",
		Action:   "Inicia sesión.",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログにのみ記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "Error del servidor",
		Category: "system",
		Action:   "Inténtalo de nuevo más tarde.",
	}
}
