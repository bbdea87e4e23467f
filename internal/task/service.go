// Package task はユーザーごとのタスク管理のドメインロジックを提供する。
package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hitoshi/todolist/internal/metrics"
	"github.com/hitoshi/todolist/internal/model"
	"github.com/hitoshi/todolist/internal/repository"
	"github.com/hitoshi/todolist/internal/security"
)

// Service はタスク管理のサービス層。
// 全ての操作は所有者IDで絞り込み、他ユーザーのタスクは存在しないものとして扱う。
type Service struct {
	repo      repository.TaskRepository
	markup    security.MarkupDetector
	metrics   metrics.TaskRecorder
	tracer    trace.Tracer
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。recorderがnilの場合は計測しない。
func NewService(repo repository.TaskRepository, markup security.MarkupDetector, recorder metrics.TaskRecorder) *Service {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Service{
		repo:      repo,
		markup:    markup,
		metrics:   recorder,
		tracer:    otel.Tracer("github.com/hitoshi/todolist/internal/task"),
		now:       time.Now,
	}
}

// ListPending は未完了のタスクを作成日時の昇順で返す。
func (s *Service) ListPending(ctx context.Context, ownerID string) ([]*model.Task, error) {
	ctx, span := s.start(ctx, "task.ListPending", ownerID)
	defer span.End()

	tasks, err := s.repo.ListByOwner(ctx, ownerID, true)
	if err != nil {
		return nil, s.fail(span, "list_pending", fmt.Errorf("タスク一覧の取得に失敗しました: %w", err))
	}
	return tasks, nil
}

// ListAll は全てのタスクを作成日時の昇順で返す。
func (s *Service) ListAll(ctx context.Context, ownerID string) ([]*model.Task, error) {
	ctx, span := s.start(ctx, "task.ListAll", ownerID)
	defer span.End()

	tasks, err := s.repo.ListByOwner(ctx, ownerID, false)
	if err != nil {
		return nil, s.fail(span, "list_all", fmt.Errorf("タスク一覧の取得に失敗しました: %w", err))
	}
	return tasks, nil
}

// Get は所有者のタスクを1件返す。
func (s *Service) Get(ctx context.Context, ownerID, taskID string) (*model.Task, error) {
	ctx, span := s.start(ctx, "task.Get", ownerID)
	defer span.End()

	if !validTaskID(taskID) {
		return nil, model.NewTaskNotFoundError()
	}
	t, err := s.repo.FindByIDAndOwner(ctx, taskID, ownerID)
	if err != nil {
		return nil, s.fail(span, "get", fmt.Errorf("タスクの取得に失敗しました: %w", err))
	}
	if t == nil {
		return nil, model.NewTaskNotFoundError()
	}
	return t, nil
}

// Create はタスクを作成する。
func (s *Service) Create(ctx context.Context, ownerID string, cmd CreateCommand) (*model.Task, error) {
	ctx, span := s.start(ctx, "task.Create", ownerID)
	defer span.End()

	if err := cmd.Validate(s.markup); err != nil {
		s.metrics.RecordTaskOperation("create", metrics.OutcomeInvalid)
		return nil, err
	}

	now := s.now()
	t := &model.Task{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Title:       cmd.Title,
		Description: cmd.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, s.fail(span, "create", fmt.Errorf("タスクの作成に失敗しました: %w", err))
	}

	s.metrics.RecordTaskOperation("create", metrics.OutcomeSuccess)
	return t, nil
}

// MarkDone はタスクを完了にする。完了済みのタスクはそのまま返す。
func (s *Service) MarkDone(ctx context.Context, ownerID, taskID string) (*model.Task, error) {
	ctx, span := s.start(ctx, "task.MarkDone", ownerID)
	defer span.End()

	if !validTaskID(taskID) {
		s.metrics.RecordTaskOperation("done", metrics.OutcomeNotFound)
		return nil, model.NewTaskNotFoundError()
	}
	t, err := s.repo.MarkDone(ctx, taskID, ownerID, s.now())
	if err != nil {
		return nil, s.fail(span, "done", fmt.Errorf("タスクの完了に失敗しました: %w", err))
	}
	if t == nil {
		s.metrics.RecordTaskOperation("done", metrics.OutcomeNotFound)
		return nil, model.NewTaskNotFoundError()
	}

	s.metrics.RecordTaskOperation("done", metrics.OutcomeSuccess)
	slog.Info("task completed", slog.String("task_id", t.ID), slog.String("user_id", ownerID))
	return t, nil
}

// Edit はタイトルと説明を更新する。完了状態・所有者・作成日時は変更しない。
func (s *Service) Edit(ctx context.Context, ownerID, taskID string, cmd EditCommand) (*model.Task, error) {
	ctx, span := s.start(ctx, "task.Edit", ownerID)
	defer span.End()

	if !validTaskID(taskID) {
		s.metrics.RecordTaskOperation("edit", metrics.OutcomeNotFound)
		return nil, model.NewTaskNotFoundError()
	}
	if err := cmd.Validate(s.markup); err != nil {
		s.metrics.RecordTaskOperation("edit", metrics.OutcomeInvalid)
		return nil, err
	}

	t, err := s.repo.UpdateContent(ctx, taskID, ownerID, cmd.Title, cmd.Description, s.now())
	if err != nil {
		return nil, s.fail(span, "edit", fmt.Errorf("タスクの更新に失敗しました: %w", err))
	}
	if t == nil {
		s.metrics.RecordTaskOperation("edit", metrics.OutcomeNotFound)
		return nil, model.NewTaskNotFoundError()
	}

	s.metrics.RecordTaskOperation("edit", metrics.OutcomeSuccess)
	return t, nil
}

// Delete はタスクを削除する。存在しない場合はTASK_NOT_FOUNDを返す。
func (s *Service) Delete(ctx context.Context, ownerID, taskID string) error {
	ctx, span := s.start(ctx, "task.Delete", ownerID)
	defer span.End()

	if !validTaskID(taskID) {
		s.metrics.RecordTaskOperation("delete", metrics.OutcomeNotFound)
		return model.NewTaskNotFoundError()
	}
	deleted, err := s.repo.Delete(ctx, taskID, ownerID)
	if err != nil {
		return s.fail(span, "delete", fmt.Errorf("タスクの削除に失敗しました: %w", err))
	}
	if !deleted {
		s.metrics.RecordTaskOperation("delete", metrics.OutcomeNotFound)
		return model.NewTaskNotFoundError()
	}

	s.metrics.RecordTaskOperation("delete", metrics.OutcomeSuccess)
	return nil
}

func (s *Service) start(ctx context.Context, name, ownerID string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("user.id", ownerID)))
}

// fail は内部エラーをスパンとメトリクスに記録してそのまま返す。
func (s *Service) fail(span trace.Span, operation string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, operation+" failed")
	s.metrics.RecordTaskOperation(operation, metrics.OutcomeError)
	return err
}

// validTaskID はUUID形式でないIDをストアに渡さないために使う。
func validTaskID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
