package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"kanban/internal/models/task"
	"time"

	"github.com/google/uuid"
)

type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	Assignee    string     `json:"assignee,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
}

// UpdateTaskRequest: отсутствующее поле не меняется, "dueDate": null снимает срок
type UpdateTaskRequest struct {
	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	Status      *string         `json:"status,omitempty"`
	Priority    *string         `json:"priority,omitempty"`
	Assignee    *string         `json:"assignee,omitempty"`
	DueDate     json.RawMessage `json:"dueDate,omitempty"`
	Tags        *[]string       `json:"tags,omitempty"`
}

type MoveTaskRequest struct {
	Status string `json:"status"`
}

type CreateCommentRequest struct {
	TaskID  string `json:"taskId"`
	Content string `json:"content"`
	Author  string `json:"author,omitempty"`
}

type CommentResponse struct {
	UUID      uuid.UUID `json:"id"`
	TaskID    uuid.UUID `json:"taskId"`
	Content   string    `json:"content"`
	Author    string    `json:"author,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type TaskResponse struct {
	UUID        uuid.UUID         `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      string            `json:"status"`
	Priority    string            `json:"priority,omitempty"`
	Assignee    string            `json:"assignee,omitempty"`
	DueDate     *time.Time        `json:"dueDate,omitempty"`
	Tags        []string          `json:"tags"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	Comments    []CommentResponse `json:"comments"`
}

type ColumnResponse struct {
	Status string         `json:"status"`
	Title  string         `json:"title"`
	Tasks  []TaskResponse `json:"tasks"`
}

type BoardResponse struct {
	Columns  []ColumnResponse `json:"columns"`
	Unplaced []uuid.UUID      `json:"unplaced"`
}

// Patch переводит запрос в частичное обновление. Статус и приоритет проверяет вызывающий.
func (r UpdateTaskRequest) Patch() (task.Patch, error) {
	patch := task.Patch{
		Title:       r.Title,
		Description: r.Description,
		Assignee:    r.Assignee,
		Tags:        r.Tags,
	}

	if r.Status != nil {
		status, ok := task.ParseStatus(*r.Status)
		if !ok {
			status = task.Status(*r.Status)
		}
		patch.Status = &status
	}

	if r.Priority != nil {
		priority, ok := task.ParsePriority(*r.Priority)
		if !ok {
			priority = task.Priority(*r.Priority)
		}
		patch.Priority = &priority
	}

	raw := bytes.TrimSpace(r.DueDate)
	switch {
	case len(raw) == 0:
	case bytes.Equal(raw, []byte("null")):
		patch.ClearDue = true
	default:
		var due time.Time
		if err := json.Unmarshal(raw, &due); err != nil {
			return task.Patch{}, fmt.Errorf("dueDate: %w", err)
		}
		patch.DueDate = &due
	}

	return patch, nil
}

func FromComment(c *task.Comment) CommentResponse {
	return CommentResponse{
		UUID:      c.UUID,
		TaskID:    c.TaskID,
		Content:   c.Content,
		Author:    c.Author,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func FromCommentList(comments []*task.Comment) []CommentResponse {
	result := make([]CommentResponse, len(comments))
	for i, c := range comments {
		result[i] = FromComment(c)
	}
	return result
}

func FromTask(t *task.Task) TaskResponse {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return TaskResponse{
		UUID:        t.UUID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		Assignee:    t.Assignee,
		DueDate:     t.DueDate,
		Tags:        tags,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		Comments:    FromCommentList(t.Comments),
	}
}

func FromTaskList(tasks []*task.Task) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t)
	}
	return result
}

// ToTask - обратное преобразование, используется клиентом
func (r TaskResponse) ToTask() *task.Task {
	comments := make([]*task.Comment, 0, len(r.Comments))
	for _, c := range r.Comments {
		comments = append(comments, c.ToComment())
	}
	status, ok := task.ParseStatus(r.Status)
	if !ok {
		status = task.Status(r.Status)
	}
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return &task.Task{
		UUID:        r.UUID,
		Title:       r.Title,
		Description: r.Description,
		Status:      status,
		Priority:    task.Priority(r.Priority),
		Assignee:    r.Assignee,
		DueDate:     r.DueDate,
		Tags:        tags,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Comments:    comments,
	}
}

func (r CommentResponse) ToComment() *task.Comment {
	return &task.Comment{
		UUID:      r.UUID,
		TaskID:    r.TaskID,
		Content:   r.Content,
		Author:    r.Author,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// FromPatch - обратная сторона Patch(), собирает тело PATCH /tasks/{id}
func FromPatch(p task.Patch) (UpdateTaskRequest, error) {
	request := UpdateTaskRequest{
		Title:       p.Title,
		Description: p.Description,
		Assignee:    p.Assignee,
		Tags:        p.Tags,
	}
	if p.Status != nil {
		status := string(*p.Status)
		request.Status = &status
	}
	if p.Priority != nil {
		priority := string(*p.Priority)
		request.Priority = &priority
	}

	switch {
	case p.ClearDue:
		request.DueDate = json.RawMessage("null")
	case p.DueDate != nil:
		raw, err := json.Marshal(p.DueDate)
		if err != nil {
			return UpdateTaskRequest{}, fmt.Errorf("dueDate: %w", err)
		}
		request.DueDate = raw
	}
	return request, nil
}
