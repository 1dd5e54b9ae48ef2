package service

import (
	"context"
	"kanban/internal/models/task"
	"time"

	"github.com/google/uuid"
)

type RepoType string

const InMemoryType RepoType = "inmemory"
const DBType RepoType = "postgres"

type TaskRepository interface {
	HealthCheck(context.Context) error
	Create(context.Context, *task.Task) error
	Update(context.Context, *task.Task) error
	// Touch сдвигает только updated_at, не раньше текущего значения
	Touch(context.Context, uuid.UUID, time.Time) error
	GetByID(context.Context, uuid.UUID) (*task.Task, error)
	GetAll(context.Context) ([]*task.Task, error)
	Delete(context.Context, uuid.UUID) error
}

type CommentRepository interface {
	CreateComment(context.Context, *task.Comment) error
	GetCommentsByTask(context.Context, uuid.UUID) ([]*task.Comment, error)
	GetCommentByID(context.Context, uuid.UUID) (*task.Comment, error)
	DeleteComment(context.Context, uuid.UUID) error
}

type Repository interface {
	TaskRepository
	CommentRepository
}

type CreateTaskInput struct {
	Title       string
	Description string
	Status      task.Status
	Priority    task.Priority
	Assignee    string
	DueDate     *time.Time
	Tags        []string
}

// Store - операции доски. Реализуется локальным сервисом и удалённым хранилищем (remote).
type Store interface {
	ListTasks(ctx context.Context) ([]*task.Task, error)
	GetTask(ctx context.Context, id uuid.UUID) (*task.Task, error)
	CreateTask(ctx context.Context, input CreateTaskInput) (*task.Task, error)
	UpdateTask(ctx context.Context, id uuid.UUID, patch task.Patch) (*task.Task, error)
	MoveTask(ctx context.Context, id uuid.UUID, status task.Status) (*task.Task, error)
	DeleteTask(ctx context.Context, id uuid.UUID) error

	ListComments(ctx context.Context, taskID uuid.UUID) ([]*task.Comment, error)
	CreateComment(ctx context.Context, taskID uuid.UUID, content, author string) (*task.Comment, error)
	DeleteComment(ctx context.Context, commentID uuid.UUID) error
}
