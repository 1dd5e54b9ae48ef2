package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"kanban/internal/board"
	"kanban/internal/handlers/dto"
	"kanban/internal/logger"
	"kanban/internal/models/task"
	"kanban/internal/service"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Service interface {
	service.Store
	HealthCheck(ctx context.Context) error
}

type TaskHandler struct {
	TaskService Service
}

func NewTaskHandler(taskService Service) *TaskHandler {
	return &TaskHandler{
		TaskService: taskService,
	}
}

// Routes регистрирует все маршруты API
func (s *TaskHandler) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/board", s.GetBoard)

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", s.GetTasks)
		r.Post("/", s.PostTask)
		r.Get("/{id}", s.GetTaskByID)
		r.Patch("/{id}", s.UpdateTaskByID)
		r.Patch("/{id}/status", s.MoveTaskByID)
		r.Delete("/{id}", s.DeleteTaskByID)
	})

	r.Route("/comments", func(r chi.Router) {
		r.Get("/task/{taskId}", s.GetCommentsByTask)
		r.Post("/", s.PostComment)
		r.Delete("/{id}", s.DeleteCommentByID)
	})
}

func (s *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	if err := s.TaskService.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: Сервис недоступен", err)
		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("status", "unavailable"),
			toPayload("service", "kanban"),
			toPayload("error", err.Error()))
		return
	}

	responseWithJSON(w, http.StatusOK,
		toPayload("status", "ok"),
		toPayload("service", "kanban"))
}

func (s *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	tasks, err := s.TaskService.ListTasks(r.Context())
	if err != nil {
		handleError(w, r, err, "list_tasks")
		return
	}

	logger.Info("HTTP_OUT: Задачи получены",
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, dto.FromTaskList(tasks))
}

func (s *TaskHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	query := r.URL.Query()
	filter, err := board.ParseFilter(query.Get("search"), query.Get("priority"))
	if err != nil {
		handleError(w, r, err, "get_board")
		return
	}

	tasks, err := s.TaskService.ListTasks(r.Context())
	if err != nil {
		handleError(w, r, err, "get_board")
		return
	}

	projected := board.Project(tasks, task.Statuses, filter)

	logger.Info("HTTP_OUT: Доска построена",
		zap.Int("shown", projected.Count()),
		zap.Int("unplaced", len(projected.Unplaced)),
		zap.Duration("ms", time.Since(start)))

	writeJSON(w, http.StatusOK, dto.FromBoard(projected))
}

func (s *TaskHandler) PostTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !requireJSON(w, r) {
		return
	}

	var request dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	input := service.CreateTaskInput{
		Title:       request.Title,
		Description: request.Description,
		Assignee:    request.Assignee,
		DueDate:     request.DueDate,
		Tags:        request.Tags,
	}

	if request.Status != "" {
		status, ok := task.ParseStatus(request.Status)
		if !ok {
			handleBusinessError(w, service.NewValidationError("status", fmt.Sprintf("неизвестный статус %q", request.Status)))
			return
		}
		input.Status = status
	}

	priority, ok := task.ParsePriority(request.Priority)
	if !ok {
		handleBusinessError(w, service.NewValidationError("priority", fmt.Sprintf("неизвестный приоритет %q", request.Priority)))
		return
	}
	input.Priority = priority

	created, err := s.TaskService.CreateTask(r.Context(), input)
	if err != nil {
		handleError(w, r, err, "create_task")
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.String("task_id", created.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	writeJSON(w, http.StatusCreated, dto.FromTask(created))
}

func (s *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	found, err := s.TaskService.GetTask(r.Context(), id)
	if err != nil {
		handleError(w, r, err, "get_task")
		return
	}

	logger.Info("HTTP_OUT: Задача получена",
		zap.String("task_id", found.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, dto.FromTask(found))
}

func (s *TaskHandler) UpdateTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if !requireJSON(w, r) {
		return
	}

	var request dto.UpdateTaskRequest
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверно переданы параметры обновления: "+err.Error())
		return
	}

	patch, err := request.Patch()
	if err != nil {
		handleBusinessError(w, service.NewValidationError("dueDate", err.Error()))
		return
	}

	updated, err := s.TaskService.UpdateTask(r.Context(), id, patch)
	if err != nil {
		handleError(w, r, err, "update_task")
		return
	}

	logger.Info("HTTP_OUT: Задача обновлена",
		zap.String("task_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, dto.FromTask(updated))
}

func (s *TaskHandler) MoveTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if !requireJSON(w, r) {
		return
	}

	var request dto.MoveTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	status, known := task.ParseStatus(request.Status)
	if !known {
		logger.Warn("HTTP: Неизвестный статус",
			zap.String("status", request.Status),
			zap.String("task_id", id.String()))
		handleBusinessError(w, service.NewValidationError("status", fmt.Sprintf("неизвестный статус %q", request.Status)))
		return
	}

	moved, err := s.TaskService.MoveTask(r.Context(), id, status)
	if err != nil {
		handleError(w, r, err, "move_task")
		return
	}

	logger.Info("HTTP_OUT: Статус обновлён",
		zap.String("task_id", id.String()),
		zap.String("status", string(moved.Status)),
		zap.Duration("ms", time.Since(start)))

	writeJSON(w, http.StatusOK, dto.FromTask(moved))
}

func (s *TaskHandler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := s.TaskService.DeleteTask(r.Context(), id); err != nil {
		handleError(w, r, err, "delete_task")
		return
	}

	logger.Info("HTTP_OUT: Задача удалена",
		zap.String("task_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusNoContent))

	w.WriteHeader(http.StatusNoContent)
}
