package service

import (
	"context"
	"errors"
	"fmt"
	"kanban/internal/logger"
	"kanban/internal/models/task"
	rep "kanban/internal/repository"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// здесь происходит проверка ошибок бизнес-логики

type TaskService struct {
	repo     Repository
	RepoType RepoType
	now      func() time.Time
}

func NewTaskService(repo Repository, repoType RepoType) *TaskService {
	return &TaskService{
		repo:     repo,
		RepoType: repoType,
		now:      time.Now,
	}
}

// WithClock подменяет источник времени (для тестов)
func (s *TaskService) WithClock(now func() time.Time) *TaskService {
	s.now = now
	return s
}

var _ Store = (*TaskService)(nil)

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка здоровья сервиса (%s): %w", s.RepoType, err)
	}
	return nil
}

func (s *TaskService) ListTasks(ctx context.Context) ([]*task.Task, error) {
	tasks, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) GetTask(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	return s.getTask(ctx, id)
}

func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*task.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, NewValidationError("title", "пустое значение")
	}

	status := input.Status
	if status == "" {
		status = task.StatusTodo
	}
	if !status.Valid() {
		return nil, NewValidationError("status", fmt.Sprintf("неизвестный статус %q", status))
	}
	if input.Priority != "" && !input.Priority.Valid() {
		return nil, NewValidationError("priority", fmt.Sprintf("неизвестный приоритет %q", input.Priority))
	}

	now := s.now()
	newTask := &task.Task{
		UUID:        uuid.New(),
		Title:       title,
		Description: input.Description,
		Status:      status,
		Priority:    input.Priority,
		Assignee:    input.Assignee,
		Tags:        append([]string{}, input.Tags...),
		CreatedAt:   now,
		UpdatedAt:   now,
		Comments:    []*task.Comment{},
	}
	if input.DueDate != nil {
		due := *input.DueDate
		newTask.DueDate = &due
	}

	if err := s.repo.Create(ctx, newTask); err != nil {
		return nil, fmt.Errorf("создание задачи: %w", err)
	}

	logger.Info("Service: Задача создана",
		zap.String("task_id", newTask.UUID.String()),
		zap.String("status", string(newTask.Status)))
	return newTask, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, id uuid.UUID, patch task.Patch) (*task.Task, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	existing, err := s.getTask(ctx, id)
	if err != nil {
		return nil, err
	}

	for _, opt := range patch.Options() {
		if opt != nil {
			opt(existing)
		}
	}
	existing.Title = strings.TrimSpace(existing.Title)
	existing.Touch(s.now())

	if err := s.save(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// MoveTask меняет только статус. Перенос в ту же колонку ничего не меняет.
func (s *TaskService) MoveTask(ctx context.Context, id uuid.UUID, status task.Status) (*task.Task, error) {
	if !status.Valid() {
		return nil, NewValidationError("status", fmt.Sprintf("неизвестный статус %q", status))
	}

	existing, err := s.getTask(ctx, id)
	if err != nil {
		return nil, err
	}

	if existing.Status == status {
		logger.Info("Service: Статус не изменился",
			zap.String("task_id", id.String()),
			zap.String("status", string(status)))
		return existing, nil
	}

	from := existing.Status
	existing.Status = status
	existing.Touch(s.now())

	if err := s.save(ctx, existing); err != nil {
		return nil, err
	}

	logger.Info("Service: Задача перемещена",
		zap.String("task_id", id.String()),
		zap.String("from", string(from)),
		zap.String("to", string(status)))
	return existing, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", id.String()))
			return NewNotFound("task", id.String())
		}
		return fmt.Errorf("удаление задачи: %w", err)
	}
	return nil
}

func (s *TaskService) ListComments(ctx context.Context, taskID uuid.UUID) ([]*task.Comment, error) {
	comments, err := s.repo.GetCommentsByTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound("task", taskID.String())
		}
		return nil, fmt.Errorf("получение комментариев: %w", err)
	}
	return comments, nil
}

func (s *TaskService) CreateComment(ctx context.Context, taskID uuid.UUID, content, author string) (*task.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, NewValidationError("content", "пустое значение")
	}

	now := s.now()
	comment := &task.Comment{
		UUID:      uuid.New(),
		TaskID:    taskID,
		Content:   content,
		Author:    strings.TrimSpace(author),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateComment(ctx, comment); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", taskID.String()))
			return nil, NewNotFound("task", taskID.String())
		}
		return nil, fmt.Errorf("создание комментария: %w", err)
	}

	if err := s.touch(ctx, taskID, now); err != nil {
		return nil, err
	}

	return comment, nil
}

func (s *TaskService) DeleteComment(ctx context.Context, commentID uuid.UUID) error {
	comment, err := s.repo.GetCommentByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Комментарий не найден", zap.String("target_id", commentID.String()))
			return NewNotFound("comment", commentID.String())
		}
		return fmt.Errorf("получение комментария: %w", err)
	}

	if err := s.repo.DeleteComment(ctx, commentID); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return NewNotFound("comment", commentID.String())
		}
		return fmt.Errorf("удаление комментария: %w", err)
	}

	err = s.touch(ctx, comment.TaskID, s.now())
	// задачу могли удалить параллельно, комментарий уже удалён каскадом
	if IsNotFound(err) {
		return nil
	}
	return err
}

func (s *TaskService) getTask(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", id.String()))
			return nil, NewNotFound("task", id.String())
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return existing, nil
}

func (s *TaskService) save(ctx context.Context, t *task.Task) error {
	if err := s.repo.Update(ctx, t); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return NewNotFound("task", t.UUID.String())
		}
		return fmt.Errorf("обновление задачи: %w", err)
	}
	return nil
}

// touch сдвигает только updatedAt задачи, остальные поля не перезаписываются
func (s *TaskService) touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	if err := s.repo.Touch(ctx, id, at); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return NewNotFound("task", id.String())
		}
		return fmt.Errorf("обновление задачи: %w", err)
	}
	return nil
}

func validatePatch(patch task.Patch) error {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return NewValidationError("title", "пустое значение")
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return NewValidationError("status", fmt.Sprintf("неизвестный статус %q", *patch.Status))
	}
	if patch.Priority != nil && *patch.Priority != "" && !patch.Priority.Valid() {
		return NewValidationError("priority", fmt.Sprintf("неизвестный приоритет %q", *patch.Priority))
	}
	return nil
}
