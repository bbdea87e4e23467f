// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/todolist/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByFederatedID は外部IdPの安定IDでユーザーを検索する。見つからない場合はnilを返す。
	FindByFederatedID(ctx context.Context, federatedID string) (*model.User, error)

	// Create はユーザーを作成する。
	// emailまたはfederated_idが登録済みの場合はmodel.ErrDuplicateIdentityを返す。
	Create(ctx context.Context, user *model.User) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// Touch は有効なセッションの最終アクセス日時と有効期限を更新し、更新後のセッションを返す。
	// 存在しないか now 時点で期限切れの場合はnilを返す。
	Touch(ctx context.Context, id string, now, expiresAt time.Time) (*model.Session, error)

	// DeleteByID は指定IDのセッションを削除する。存在しない場合もエラーにしない。
	DeleteByID(ctx context.Context, id string) error

	// DeleteExpired は now 時点で期限切れのセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// TaskRepository はタスクデータの永続化インターフェース。
// 全ての参照・更新は所有者IDで絞り込む。
type TaskRepository interface {
	// Create はタスクを作成する。
	Create(ctx context.Context, task *model.Task) error

	// FindByIDAndOwner は所有者のタスクを取得する。見つからない場合はnilを返す。
	FindByIDAndOwner(ctx context.Context, id, ownerID string) (*model.Task, error)

	// ListByOwner は所有者のタスクを作成日時の昇順で返す。
	// pendingOnlyがtrueの場合は未完了のタスクのみを返す。
	ListByOwner(ctx context.Context, ownerID string, pendingOnly bool) ([]*model.Task, error)

	// UpdateContent はタイトルと説明を更新する。対象が存在しない場合はnilを返す。
	UpdateContent(ctx context.Context, id, ownerID, title, description string, now time.Time) (*model.Task, error)

	// MarkDone はタスクを完了にする。完了済みの場合はcompleted_atを変更しない。
	// 対象が存在しない場合はnilを返す。
	MarkDone(ctx context.Context, id, ownerID string, now time.Time) (*model.Task, error)

	// Delete はタスクを削除し、削除されたかどうかを返す。
	Delete(ctx context.Context, id, ownerID string) (bool, error)
}
