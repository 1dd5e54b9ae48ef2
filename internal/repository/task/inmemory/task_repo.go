package inmemory

import (
	"context"
	"kanban/internal/logger"
	"kanban/internal/models/task"
	repo "kanban/internal/repository"
	"sync"
	"time"

	"github.com/google/uuid"
)

type TaskStorage struct {
	storage  map[uuid.UUID]*task.Task
	comments map[uuid.UUID][]*task.Comment // по задаче, в порядке создания
	owners   map[uuid.UUID]uuid.UUID       // комментарий -> задача
	mtx      *sync.RWMutex
	ids      []uuid.UUID
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage:  make(map[uuid.UUID]*task.Task),
		comments: make(map[uuid.UUID][]*task.Comment),
		owners:   make(map[uuid.UUID]uuid.UUID),
		mtx:      &sync.RWMutex{},
		ids:      []uuid.UUID{},
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	logger.Info("Repository: Соединение стабильно")
	return nil
}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	stored := taskToCreate.Clone()
	stored.Comments = nil

	s.storage[stored.UUID] = stored
	s.ids = append(s.ids, stored.UUID)
	return nil
}

func (s *TaskStorage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[taskToUpdate.UUID]; !ok {
		return repo.ErrNotFound
	}

	stored := taskToUpdate.Clone()
	stored.Comments = nil
	s.storage[stored.UUID] = stored

	return nil
}

// Touch сдвигает updatedAt вперёд, остальные поля не трогает
func (s *TaskStorage) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	stored, ok := s.storage[id]
	if !ok {
		return repo.ErrNotFound
	}
	if at.After(stored.UpdatedAt) {
		stored.UpdatedAt = at
	}
	return nil
}

func (s *TaskStorage) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	taskToGet, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return s.withComments(taskToGet), nil
}

// все задачи в порядке добавления
func (s *TaskStorage) GetAll(ctx context.Context) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := make([]*task.Task, 0, len(s.ids))
	for _, id := range s.ids {
		res = append(res, s.withComments(s.storage[id]))
	}
	return res, nil
}

// удаление задачи вместе с комментариями
func (s *TaskStorage) Delete(ctx context.Context, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[id]; !ok {
		return repo.ErrNotFound
	}

	for _, c := range s.comments[id] {
		delete(s.owners, c.UUID)
	}
	delete(s.comments, id)
	delete(s.storage, id)

	for ind, val := range s.ids {
		if val == id {
			s.ids = append(s.ids[:ind], s.ids[ind+1:]...)
			break
		}
	}
	return nil
}

func (s *TaskStorage) CreateComment(ctx context.Context, comment *task.Comment) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[comment.TaskID]; !ok {
		return repo.ErrNotFound
	}

	stored := *comment
	s.comments[comment.TaskID] = append(s.comments[comment.TaskID], &stored)
	s.owners[comment.UUID] = comment.TaskID
	return nil
}

func (s *TaskStorage) GetCommentsByTask(ctx context.Context, taskID uuid.UUID) ([]*task.Comment, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if _, ok := s.storage[taskID]; !ok {
		return nil, repo.ErrNotFound
	}
	return copyComments(s.comments[taskID]), nil
}

func (s *TaskStorage) GetCommentByID(ctx context.Context, id uuid.UUID) (*task.Comment, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	taskID, ok := s.owners[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	for _, c := range s.comments[taskID] {
		if c.UUID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s *TaskStorage) DeleteComment(ctx context.Context, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	taskID, ok := s.owners[id]
	if !ok {
		return repo.ErrNotFound
	}

	list := s.comments[taskID]
	for ind, c := range list {
		if c.UUID == id {
			s.comments[taskID] = append(list[:ind], list[ind+1:]...)
			break
		}
	}
	delete(s.owners, id)
	return nil
}

// вызывать под блокировкой
func (s *TaskStorage) withComments(t *task.Task) *task.Task {
	cp := t.Clone()
	cp.Comments = copyComments(s.comments[t.UUID])
	return cp
}

func copyComments(list []*task.Comment) []*task.Comment {
	res := make([]*task.Comment, 0, len(list))
	for _, c := range list {
		cp := *c
		res = append(res, &cp)
	}
	return res
}
