package inmemory_test

import (
	"context"
	"fmt"
	"kanban/internal/models/task"
	"kanban/internal/repository"
	"kanban/internal/repository/task/inmemory"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTask(title string, status task.Status) *task.Task {
	now := time.Now()
	return &task.Task{
		UUID:      uuid.New(),
		Title:     title,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newComment(taskID uuid.UUID, content string) *task.Comment {
	now := time.Now()
	return &task.Comment{
		UUID:      uuid.New(),
		TaskID:    taskID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TestTaskStorage_HealthCheck тестирует проверку здоровья
func TestTaskStorage_HealthCheck(t *testing.T) {
	storage := inmemory.NewTaskStorage()
	assert.NoError(t, storage.HealthCheck(context.Background()))
}

// TestTaskStorage_Create тестирует создание задачи
func TestTaskStorage_Create(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	taskToCreate := newTask("Test Task", task.StatusTodo)
	taskToCreate.Tags = []string{"backend"}

	err := storage.Create(ctx, taskToCreate)
	require.NoError(t, err)

	retrievedTask, err := storage.GetByID(ctx, taskToCreate.UUID)
	require.NoError(t, err)
	assert.Equal(t, "Test Task", retrievedTask.Title)
	assert.Equal(t, []string{"backend"}, retrievedTask.Tags)
	assert.Empty(t, retrievedTask.Comments)

	// хранилище не должно делить указатель с вызывающим
	taskToCreate.Title = "Changed outside"
	retrievedTask, err = storage.GetByID(ctx, taskToCreate.UUID)
	require.NoError(t, err)
	assert.Equal(t, "Test Task", retrievedTask.Title)
}

// TestTaskStorage_GetByID тестирует получение задачи по ID
func TestTaskStorage_GetByID(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	taskToCreate := newTask("Test Get Task", task.StatusInProgress)
	require.NoError(t, storage.Create(ctx, taskToCreate))

	retrievedTask, err := storage.GetByID(ctx, taskToCreate.UUID)
	require.NoError(t, err)
	assert.Equal(t, taskToCreate.UUID, retrievedTask.UUID)

	_, err = storage.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// TestTaskStorage_Update тестирует обновление задачи
func TestTaskStorage_Update(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	taskToCreate := newTask("Original Title", task.StatusTodo)
	require.NoError(t, storage.Create(ctx, taskToCreate))
	require.NoError(t, storage.CreateComment(ctx, newComment(taskToCreate.UUID, "keep me")))

	taskToCreate.Title = "Updated Title"
	taskToCreate.Status = task.StatusReview
	taskToCreate.Comments = nil

	require.NoError(t, storage.Update(ctx, taskToCreate))

	retrievedTask, err := storage.GetByID(ctx, taskToCreate.UUID)
	require.NoError(t, err)
	assert.Equal(t, "Updated Title", retrievedTask.Title)
	assert.Equal(t, task.StatusReview, retrievedTask.Status)
	// комментарии обновлением задачи не затираются
	assert.Len(t, retrievedTask.Comments, 1)
}

func TestTaskStorage_Update_NonExistent(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	err := storage.Update(ctx, newTask("Ghost", task.StatusTodo))
	assert.ErrorIs(t, err, repository.ErrNotFound)

	all, err := storage.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

// TestTaskStorage_Touch тестирует сдвиг updatedAt без перезаписи остальных полей
func TestTaskStorage_Touch(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	created := newTask("Old", task.StatusTodo)
	require.NoError(t, storage.Create(ctx, created))

	changed := created.Clone()
	changed.Title = "New"
	changed.Status = task.StatusDone
	require.NoError(t, storage.Update(ctx, changed))

	later := created.UpdatedAt.Add(time.Minute)
	require.NoError(t, storage.Touch(ctx, created.UUID, later))

	got, err := storage.GetByID(ctx, created.UUID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, task.StatusDone, got.Status)
	assert.Equal(t, later, got.UpdatedAt)

	// время назад не идёт
	require.NoError(t, storage.Touch(ctx, created.UUID, created.UpdatedAt))
	got, err = storage.GetByID(ctx, created.UUID)
	require.NoError(t, err)
	assert.Equal(t, later, got.UpdatedAt)

	assert.ErrorIs(t, storage.Touch(ctx, uuid.New(), later), repository.ErrNotFound)
}

// TestTaskStorage_Delete тестирует каскадное удаление
func TestTaskStorage_Delete(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	taskToDelete := newTask("Task to delete", task.StatusTodo)
	require.NoError(t, storage.Create(ctx, taskToDelete))
	comment := newComment(taskToDelete.UUID, "bye")
	require.NoError(t, storage.CreateComment(ctx, comment))

	require.NoError(t, storage.Delete(ctx, taskToDelete.UUID))

	_, err := storage.GetByID(ctx, taskToDelete.UUID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = storage.GetCommentByID(ctx, comment.UUID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = storage.GetCommentsByTask(ctx, taskToDelete.UUID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.ErrorIs(t, storage.Delete(ctx, taskToDelete.UUID), repository.ErrNotFound)
}

// TestTaskStorage_GetAll_Order проверяет сохранение порядка вставки
func TestTaskStorage_GetAll_Order(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	tasks := make([]*task.Task, 5)
	for i := range tasks {
		tasks[i] = newTask(fmt.Sprintf("Task %d", i), task.StatusTodo)
		require.NoError(t, storage.Create(ctx, tasks[i]))
	}

	require.NoError(t, storage.Delete(ctx, tasks[2].UUID))

	all, err := storage.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "Task 0", all[0].Title)
	assert.Equal(t, "Task 1", all[1].Title)
	assert.Equal(t, "Task 3", all[2].Title)
	assert.Equal(t, "Task 4", all[3].Title)
}

// TestTaskStorage_Comments тестирует комментарии
func TestTaskStorage_Comments(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	owner := newTask("Owner", task.StatusTodo)
	other := newTask("Other", task.StatusTodo)
	require.NoError(t, storage.Create(ctx, owner))
	require.NoError(t, storage.Create(ctx, other))

	first := newComment(owner.UUID, "first")
	second := newComment(owner.UUID, "second")
	foreign := newComment(other.UUID, "foreign")
	require.NoError(t, storage.CreateComment(ctx, first))
	require.NoError(t, storage.CreateComment(ctx, second))
	require.NoError(t, storage.CreateComment(ctx, foreign))

	comments, err := storage.GetCommentsByTask(ctx, owner.UUID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content)
	assert.Equal(t, "second", comments[1].Content)

	require.NoError(t, storage.DeleteComment(ctx, first.UUID))
	comments, err = storage.GetCommentsByTask(ctx, owner.UUID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "second", comments[0].Content)

	assert.ErrorIs(t, storage.DeleteComment(ctx, first.UUID), repository.ErrNotFound)

	err = storage.CreateComment(ctx, newComment(uuid.New(), "orphan"))
	assert.ErrorIs(t, err, repository.ErrNotFound)

	withComments, err := storage.GetByID(ctx, other.UUID)
	require.NoError(t, err)
	require.Len(t, withComments.Comments, 1)
	assert.Equal(t, "foreign", withComments.Comments[0].Content)
}

// TestTaskStorage_ConcurrentAccess тестирует конкурентный доступ
func TestTaskStorage_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	taskCount := 100
	goroutines := 10

	var wg sync.WaitGroup
	errs := make(chan error, taskCount)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for j := 0; j < taskCount/goroutines; j++ {
				taskToCreate := newTask(fmt.Sprintf("Task %d-%d", workerID, j), task.StatusTodo)
				if err := storage.Create(ctx, taskToCreate); err != nil {
					errs <- err
					continue
				}
				if err := storage.CreateComment(ctx, newComment(taskToCreate.UUID, "c")); err != nil {
					errs <- err
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	tasks, err := storage.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, taskCount)
}
