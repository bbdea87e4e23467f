package auth

import (
	"context"
	"errors"

	"github.com/hitoshi/todolist/internal/model"
)

// 認証方式の識別子。メトリクスのラベルにも使う。
const (
	StrategyPassword = "password"
	StrategyGoogle   = "google"
)

// ErrUnsupportedCredentials は戦略が扱えない種類の資格情報を渡されたことを表す。
var ErrUnsupportedCredentials = errors.New("unsupported credentials")

// Credentials は認証戦略に渡す資格情報。
type Credentials interface {
	strategy() string
}

// PasswordCredentials はメールアドレスとパスワードによる資格情報。
type PasswordCredentials struct {
	Email    string
	Password string
}

func (PasswordCredentials) strategy() string { return StrategyPassword }

// FederatedCredentials は外部IdPから受け取った認可コード。
type FederatedCredentials struct {
	Code string
}

func (FederatedCredentials) strategy() string { return StrategyGoogle }

// RejectReason は認証拒否の理由。
type RejectReason string

const (
	ReasonUserNotFound      RejectReason = "user_not_found"
	ReasonInvalidCredential RejectReason = "invalid_credential"
	ReasonFederatedFailed   RejectReason = "federated_failed"
)

// Message は画面に表示する文言を返す。
func (r RejectReason) Message() string {
	switch r {
	case ReasonUserNotFound:
		return "Usuario no encontrado"
	case ReasonInvalidCredential:
		return "Credencial inválida"
	case ReasonFederatedFailed:
		return "No se pudo iniciar sesión con Google"
	default:
		return "No se pudo iniciar sesión"
	}
}

// Result は認証試行の結果。Userが設定されていれば認証成功、そうでなければReasonで拒否される。
type Result struct {
	User   *model.User
	Reason RejectReason
}

// Authenticated は認証に成功したかどうかを返す。
func (r Result) Authenticated() bool {
	return r.User != nil
}

func authenticated(u *model.User) Result { return Result{User: u} }

func rejected(reason RejectReason) Result { return Result{Reason: reason} }

// Strategy は資格情報を検証してユーザーを特定する認証戦略。
// 拒否は Result で、ストア障害などの内部エラーは error で返す。
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, creds Credentials) (Result, error)
}
