package postgres

import (
	"context"
	"errors"
	"fmt"
	"kanban/internal/logger"
	"kanban/internal/models/task"
	repo "kanban/internal/repository"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const foreignKeyViolation = "23503"

// PoolOptions - параметры пула соединений
type PoolOptions struct {
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
	SlowQuery       time.Duration
}

func DefaultPoolOptions() PoolOptions {
	return PoolOptions{
		MaxConns:        10,
		MinConns:        2,
		MaxConnIdleTime: time.Minute * 5,
		SlowQuery:       time.Millisecond * 100,
	}
}

type Storage struct {
	pool      *pgxpool.Pool
	slowQuery time.Duration
}

func New(ctx context.Context, connString string, opts PoolOptions) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	if opts.MaxConns > 0 {
		config.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		config.MinConns = opts.MinConns
	}
	if opts.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = opts.MaxConnIdleTime
	}
	if opts.SlowQuery <= 0 {
		opts.SlowQuery = DefaultPoolOptions().SlowQuery
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{pool: pool, slowQuery: opts.SlowQuery}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) observe(start time.Time, operation string) {
	if elapsed := time.Since(start); elapsed > s.slowQuery {
		logger.Warn("Repository: Медленный запрос",
			zap.String("operation", operation),
			zap.Duration("ms", elapsed))
	}
}

const taskColumns = `uuid, title, description, status, priority, assignee, due_date, tags, created_at, updated_at`

func scanTask(row pgx.Row) (*task.Task, error) {
	t := &task.Task{}
	err := row.Scan(
		&t.UUID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.Priority,
		&t.Assignee,
		&t.DueDate,
		&t.Tags,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	t.Comments = []*task.Comment{}
	return t, nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()
	defer s.observe(start, "create_task")

	query := `INSERT INTO tasks (` + taskColumns + `)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.pool.Exec(ctx, query,
		taskToCreate.UUID,
		taskToCreate.Title,
		taskToCreate.Description,
		taskToCreate.Status,
		taskToCreate.Priority,
		taskToCreate.Assignee,
		taskToCreate.DueDate,
		nonNilTags(taskToCreate.Tags),
		taskToCreate.CreatedAt,
		taskToCreate.UpdatedAt,
	)
	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}
	return nil
}

func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()
	defer s.observe(start, "update_task")

	query := `UPDATE tasks
			SET title = $1,
				description = $2,
				status = $3,
				priority = $4,
				assignee = $5,
				due_date = $6,
				tags = $7,
				updated_at = $8
			WHERE uuid = $9`

	tag, err := s.pool.Exec(ctx, query,
		taskToUpdate.Title,
		taskToUpdate.Description,
		taskToUpdate.Status,
		taskToUpdate.Priority,
		taskToUpdate.Assignee,
		taskToUpdate.DueDate,
		nonNilTags(taskToUpdate.Tags),
		taskToUpdate.UpdatedAt,
		taskToUpdate.UUID,
	)
	if err != nil {
		logger.Error("Repository: Не удалось обновить задачу", err)
		return fmt.Errorf("обновление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// Touch сдвигает только updated_at, параллельные правки полей задачи не затираются
func (s *Storage) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	start := time.Now()
	defer s.observe(start, "touch_task")

	query := `UPDATE tasks SET updated_at = GREATEST(updated_at, $1) WHERE uuid = $2`

	tag, err := s.pool.Exec(ctx, query, at, id)
	if err != nil {
		logger.Error("Repository: Не удалось обновить время задачи", err)
		return fmt.Errorf("обновление времени задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	start := time.Now()
	defer s.observe(start, "get_task")

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE uuid = $1`

	found, err := scanTask(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	comments, err := s.queryComments(ctx, `WHERE task_uuid = $1`, id)
	if err != nil {
		return nil, err
	}
	found.Comments = comments
	return found, nil
}

// GetAll возвращает задачи в порядке вставки вместе с комментариями
func (s *Storage) GetAll(ctx context.Context) ([]*task.Task, error) {
	start := time.Now()
	defer s.observe(start, "list_tasks")

	rows, err := s.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY seq`)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	index := make(map[uuid.UUID]*task.Task)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			logger.Error("Repository: Ошибка сканирования задачи", err)
			return nil, fmt.Errorf("сканирование задачи: %w", err)
		}
		tasks = append(tasks, t)
		index[t.UUID] = t
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	comments, err := s.queryComments(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, c := range comments {
		if owner, ok := index[c.TaskID]; ok {
			owner.Comments = append(owner.Comments, c)
		}
	}

	return tasks, nil
}

// Delete удаляет задачу, комментарии уходят каскадом (ON DELETE CASCADE)
func (s *Storage) Delete(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	defer s.observe(start, "delete_task")

	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE uuid = $1`, id)
	if err != nil {
		logger.Error("Repository: Не удалось удалить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) CreateComment(ctx context.Context, comment *task.Comment) error {
	start := time.Now()
	defer s.observe(start, "create_comment")

	query := `INSERT INTO comments (uuid, task_uuid, content, author, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.pool.Exec(ctx, query,
		comment.UUID,
		comment.TaskID,
		comment.Content,
		comment.Author,
		comment.CreatedAt,
		comment.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось добавить комментарий", err)
		return fmt.Errorf("добавление комментария: %w", err)
	}
	return nil
}

func (s *Storage) GetCommentsByTask(ctx context.Context, taskID uuid.UUID) ([]*task.Comment, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE uuid = $1)`, taskID).Scan(&exists); err != nil {
		logger.Error("Repository: Не удалось проверить задачу", err)
		return nil, fmt.Errorf("проверка задачи: %w", err)
	}
	if !exists {
		return nil, repo.ErrNotFound
	}
	return s.queryComments(ctx, `WHERE task_uuid = $1`, taskID)
}

func (s *Storage) GetCommentByID(ctx context.Context, id uuid.UUID) (*task.Comment, error) {
	comments, err := s.queryComments(ctx, `WHERE uuid = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return nil, repo.ErrNotFound
	}
	return comments[0], nil
}

func (s *Storage) DeleteComment(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM comments WHERE uuid = $1`, id)
	if err != nil {
		logger.Error("Repository: Не удалось удалить комментарий", err)
		return fmt.Errorf("удаление комментария: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) queryComments(ctx context.Context, where string, args ...any) ([]*task.Comment, error) {
	query := `SELECT uuid, task_uuid, content, author, created_at, updated_at
				FROM comments ` + where + ` ORDER BY seq`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить комментарии", err)
		return nil, fmt.Errorf("получение комментариев: %w", err)
	}
	defer rows.Close()

	comments := []*task.Comment{}
	for rows.Next() {
		c := &task.Comment{}
		if err := rows.Scan(&c.UUID, &c.TaskID, &c.Content, &c.Author, &c.CreatedAt, &c.UpdatedAt); err != nil {
			logger.Error("Repository: Ошибка сканирования комментария", err)
			return nil, fmt.Errorf("сканирование комментария: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return comments, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
