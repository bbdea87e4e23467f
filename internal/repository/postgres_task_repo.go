package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/todolist/internal/model"
)

const taskColumns = `id, owner_id, title, description, completed, created_at, completed_at, updated_at`

// PostgresTaskRepo はPostgreSQLを使用したタスクリポジトリ。
type PostgresTaskRepo struct {
	db *sql.DB
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db}
}

// Create はタスクを作成する。
func (r *PostgresTaskRepo) Create(ctx context.Context, task *model.Task) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		task.ID, task.OwnerID, task.Title, task.Description,
		task.Completed, task.CreatedAt, task.CompletedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// FindByIDAndOwner は所有者のタスクを取得する。見つからない場合はnilを返す。
func (r *PostgresTaskRepo) FindByIDAndOwner(ctx context.Context, id, ownerID string) (*model.Task, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// ListByOwner は所有者のタスクを作成日時の昇順で返す。
func (r *PostgresTaskRepo) ListByOwner(ctx context.Context, ownerID string, pendingOnly bool) ([]*model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1`
	if pendingOnly {
		query += ` AND completed = FALSE`
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*model.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return tasks, nil
}

// UpdateContent はタイトルと説明のみを更新する。完了状態と作成日時は変更しない。
func (r *PostgresTaskRepo) UpdateContent(ctx context.Context, id, ownerID, title, description string, now time.Time) (*model.Task, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE tasks SET title = $3, description = $4, updated_at = $5
		 WHERE id = $1 AND owner_id = $2
		 RETURNING `+taskColumns,
		id, ownerID, title, description, now,
	)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return task, nil
}

// MarkDone はタスクを完了にする。完了済みの場合はcompleted_atを維持する。
func (r *PostgresTaskRepo) MarkDone(ctx context.Context, id, ownerID string, now time.Time) (*model.Task, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE tasks
		 SET completed = TRUE, completed_at = COALESCE(completed_at, $3), updated_at = $3
		 WHERE id = $1 AND owner_id = $2
		 RETURNING `+taskColumns,
		id, ownerID, now,
	)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark task done: %w", err)
	}
	return task, nil
}

// Delete はタスクを削除し、削除されたかどうかを返す。
func (r *PostgresTaskRepo) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(s rowScanner) (*model.Task, error) {
	task := &model.Task{}
	var completedAt sql.NullTime
	err := s.Scan(
		&task.ID, &task.OwnerID, &task.Title, &task.Description,
		&task.Completed, &task.CreatedAt, &completedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		task.CompletedAt = &t
	}
	return task, nil
}

// compile-time interface check
var _ TaskRepository = (*PostgresTaskRepo)(nil)
