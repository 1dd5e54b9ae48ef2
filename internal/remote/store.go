package remote

import (
	"context"
	"errors"
	"fmt"
	"kanban/internal/board"
	"kanban/internal/client"
	"kanban/internal/handlers/dto"
	"kanban/internal/logger"
	"kanban/internal/models/task"
	"kanban/internal/service"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Backend - транспорт до API, реализуется client.Client
type Backend interface {
	Health(ctx context.Context) error
	ListTasks(ctx context.Context) ([]*task.Task, error)
	GetTask(ctx context.Context, id uuid.UUID) (*task.Task, error)
	CreateTask(ctx context.Context, request dto.CreateTaskRequest) (*task.Task, error)
	UpdateTask(ctx context.Context, id uuid.UUID, request dto.UpdateTaskRequest) (*task.Task, error)
	MoveTask(ctx context.Context, id uuid.UUID, status task.Status) (*task.Task, error)
	DeleteTask(ctx context.Context, id uuid.UUID) error
	ListComments(ctx context.Context, taskID uuid.UUID) ([]*task.Comment, error)
	CreateComment(ctx context.Context, request dto.CreateCommentRequest) (*task.Comment, error)
	DeleteComment(ctx context.Context, id uuid.UUID) error
	Board(ctx context.Context, search, priority string) (*dto.BoardResponse, error)
}

// Store - хранилище доски поверх HTTP API.
// Результат подтверждённой записи возвращается как есть, списки в кэше сбрасываются.
type Store struct {
	backend Backend
	cache   Cache
}

var _ service.Store = (*Store)(nil)

func NewStore(backend Backend, cache Cache) *Store {
	if cache == nil {
		cache = NopCache{}
	}
	return &Store{backend: backend, cache: cache}
}

func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.backend.Health(ctx); err != nil {
		return fmt.Errorf("проверка API: %w", err)
	}
	return nil
}

func (s *Store) ListTasks(ctx context.Context) ([]*task.Task, error) {
	var cached []*task.Task
	if s.cache.Load(ctx, tasksKey, &cached) {
		return cached, nil
	}
	return s.Refresh(ctx)
}

// Refresh перечитывает список задач из API мимо кэша
func (s *Store) Refresh(ctx context.Context) ([]*task.Task, error) {
	tasks, err := s.backend.ListTasks(ctx)
	if err != nil {
		return nil, translate(err)
	}
	s.cache.Store(ctx, tasksKey, tasks)
	return tasks, nil
}

func (s *Store) GetTask(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	tasks, err := s.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	if found := findTask(tasks, id); found != nil {
		return found, nil
	}

	// в кэше могла быть устаревшая версия списка, спрашиваем задачу напрямую
	found, err := s.backend.GetTask(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	s.cache.Evict(ctx, tasksKey)
	return found, nil
}

func (s *Store) CreateTask(ctx context.Context, input service.CreateTaskInput) (*task.Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, service.NewValidationError("title", "пустое значение")
	}
	if input.Status != "" && !input.Status.Valid() {
		return nil, service.NewValidationError("status", fmt.Sprintf("неизвестный статус %q", input.Status))
	}

	created, err := s.backend.CreateTask(ctx, dto.CreateTaskRequest{
		Title:       input.Title,
		Description: input.Description,
		Status:      string(input.Status),
		Priority:    string(input.Priority),
		Assignee:    input.Assignee,
		DueDate:     input.DueDate,
		Tags:        input.Tags,
	})
	if err != nil {
		return nil, translate(err)
	}

	s.cache.Evict(ctx, tasksKey)
	return created, nil
}

func (s *Store) UpdateTask(ctx context.Context, id uuid.UUID, patch task.Patch) (*task.Task, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, service.NewValidationError("title", "пустое значение")
	}

	request, err := dto.FromPatch(patch)
	if err != nil {
		return nil, service.NewValidationError("dueDate", err.Error())
	}

	updated, err := s.backend.UpdateTask(ctx, id, request)
	if err != nil {
		return nil, translate(err)
	}

	s.cache.Evict(ctx, tasksKey)
	return updated, nil
}

func (s *Store) MoveTask(ctx context.Context, id uuid.UUID, status task.Status) (*task.Task, error) {
	if !status.Valid() {
		return nil, service.NewValidationError("status", fmt.Sprintf("неизвестный статус %q", status))
	}

	moved, err := s.backend.MoveTask(ctx, id, status)
	if err != nil {
		return nil, translate(err)
	}

	s.cache.Evict(ctx, tasksKey)
	return moved, nil
}

func (s *Store) DeleteTask(ctx context.Context, id uuid.UUID) error {
	if err := s.backend.DeleteTask(ctx, id); err != nil {
		return translate(err)
	}

	s.cache.Evict(ctx, tasksKey, commentsKey(id.String()))
	return nil
}

func (s *Store) ListComments(ctx context.Context, taskID uuid.UUID) ([]*task.Comment, error) {
	key := commentsKey(taskID.String())

	var cached []*task.Comment
	if s.cache.Load(ctx, key, &cached) {
		return cached, nil
	}

	comments, err := s.backend.ListComments(ctx, taskID)
	if err != nil {
		return nil, translate(err)
	}
	s.cache.Store(ctx, key, comments)
	return comments, nil
}

func (s *Store) CreateComment(ctx context.Context, taskID uuid.UUID, content, author string) (*task.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, service.NewValidationError("content", "пустое значение")
	}

	created, err := s.backend.CreateComment(ctx, dto.CreateCommentRequest{
		TaskID:  taskID.String(),
		Content: content,
		Author:  author,
	})
	if err != nil {
		return nil, translate(err)
	}

	s.cache.Evict(ctx, tasksKey, commentsKey(taskID.String()))
	return created, nil
}

func (s *Store) DeleteComment(ctx context.Context, commentID uuid.UUID) error {
	owner := s.commentOwner(ctx, commentID)

	if err := s.backend.DeleteComment(ctx, commentID); err != nil {
		return translate(err)
	}

	keys := []string{tasksKey}
	if owner != uuid.Nil {
		keys = append(keys, commentsKey(owner.String()))
	}
	s.cache.Evict(ctx, keys...)
	return nil
}

// Board запрашивает проекцию доски, собранную сервером. Кэш не используется.
func (s *Store) Board(ctx context.Context, search, priority string) (board.Board, error) {
	response, err := s.backend.Board(ctx, search, priority)
	if err != nil {
		return board.Board{}, translate(err)
	}
	return response.ToBoard(), nil
}

// commentOwner ищет задачу комментария по списку задач, при промахе один раз перечитывает список.
// uuid.Nil, если не нашли.
func (s *Store) commentOwner(ctx context.Context, commentID uuid.UUID) uuid.UUID {
	tasks, err := s.ListTasks(ctx)
	if err == nil {
		if owner := findCommentOwner(tasks, commentID); owner != uuid.Nil {
			return owner
		}
		// в кэше мог лежать список без этого комментария
		tasks, err = s.Refresh(ctx)
	}
	if err != nil {
		logger.Warn("Remote: Не удалось определить задачу комментария",
			zap.String("comment_id", commentID.String()),
			zap.Error(err))
		return uuid.Nil
	}
	return findCommentOwner(tasks, commentID)
}

func findCommentOwner(tasks []*task.Task, commentID uuid.UUID) uuid.UUID {
	for _, t := range tasks {
		for _, c := range t.Comments {
			if c.UUID == commentID {
				return t.UUID
			}
		}
	}
	return uuid.Nil
}

func findTask(tasks []*task.Task, id uuid.UUID) *task.Task {
	for _, t := range tasks {
		if t.UUID == id {
			return t
		}
	}
	return nil
}

// translate переводит ошибки API в бизнес-ошибки сервиса, транспортные оставляет как есть
func translate(err error) error {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	code := apiErr.Code
	switch {
	case errors.Is(err, client.ErrNotFound):
		code = service.CodeNotFound
	case code == "" && apiErr.StatusCode < 500:
		code = service.CodeValidation
	case code == "":
		return err
	}

	details := make([]service.Detail, 0, len(apiErr.Details))
	for k, v := range apiErr.Details {
		details = append(details, service.ToDetail(k, v))
	}
	busErr := service.NewBusinessError(code, apiErr.Message, details...)
	busErr.Err = apiErr
	return busErr
}
