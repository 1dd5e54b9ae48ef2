package handlers

import (
	"encoding/json"
	"kanban/internal/handlers/dto"
	"kanban/internal/logger"
	"kanban/internal/service"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *TaskHandler) GetCommentsByTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	taskID, ok := pathID(w, r, "taskId")
	if !ok {
		return
	}

	comments, err := s.TaskService.ListComments(r.Context(), taskID)
	if err != nil {
		handleError(w, r, err, "list_comments")
		return
	}

	logger.Info("HTTP_OUT: Комментарии получены",
		zap.String("task_id", taskID.String()),
		zap.Int("count", len(comments)),
		zap.Duration("ms", time.Since(start)))

	writeJSON(w, http.StatusOK, dto.FromCommentList(comments))
}

func (s *TaskHandler) PostComment(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !requireJSON(w, r) {
		return
	}

	var request dto.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	taskID, err := uuid.Parse(request.TaskID)
	if err != nil || taskID == uuid.Nil {
		handleBusinessError(w, service.NewValidationError("taskId", "ожидается UUID задачи"))
		return
	}

	created, err := s.TaskService.CreateComment(r.Context(), taskID, request.Content, request.Author)
	if err != nil {
		handleError(w, r, err, "create_comment")
		return
	}

	logger.Info("HTTP_OUT: Комментарий создан",
		zap.String("task_id", taskID.String()),
		zap.String("comment_id", created.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	writeJSON(w, http.StatusCreated, dto.FromComment(created))
}

func (s *TaskHandler) DeleteCommentByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := s.TaskService.DeleteComment(r.Context(), id); err != nil {
		handleError(w, r, err, "delete_comment")
		return
	}

	logger.Info("HTTP_OUT: Комментарий удалён",
		zap.String("comment_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusNoContent))

	w.WriteHeader(http.StatusNoContent)
}
