package client

import (
	"context"
	"kanban/internal/handlers/dto"
	"kanban/internal/models/task"
	"net/http"
	"net/url"

	"github.com/google/uuid"
)

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) ListTasks(ctx context.Context) ([]*task.Task, error) {
	var response []dto.TaskResponse
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &response); err != nil {
		return nil, err
	}
	tasks := make([]*task.Task, 0, len(response))
	for _, r := range response {
		tasks = append(tasks, r.ToTask())
	}
	return tasks, nil
}

func (c *Client) GetTask(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	var response dto.TaskResponse
	if err := c.do(ctx, http.MethodGet, "/tasks/"+id.String(), nil, &response); err != nil {
		return nil, err
	}
	return response.ToTask(), nil
}

func (c *Client) CreateTask(ctx context.Context, request dto.CreateTaskRequest) (*task.Task, error) {
	var response dto.TaskResponse
	if err := c.do(ctx, http.MethodPost, "/tasks", request, &response); err != nil {
		return nil, err
	}
	return response.ToTask(), nil
}

func (c *Client) UpdateTask(ctx context.Context, id uuid.UUID, request dto.UpdateTaskRequest) (*task.Task, error) {
	var response dto.TaskResponse
	if err := c.do(ctx, http.MethodPatch, "/tasks/"+id.String(), request, &response); err != nil {
		return nil, err
	}
	return response.ToTask(), nil
}

func (c *Client) MoveTask(ctx context.Context, id uuid.UUID, status task.Status) (*task.Task, error) {
	var response dto.TaskResponse
	request := dto.MoveTaskRequest{Status: string(status)}
	if err := c.do(ctx, http.MethodPatch, "/tasks/"+id.String()+"/status", request, &response); err != nil {
		return nil, err
	}
	return response.ToTask(), nil
}

func (c *Client) DeleteTask(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+id.String(), nil, nil)
}

func (c *Client) ListComments(ctx context.Context, taskID uuid.UUID) ([]*task.Comment, error) {
	var response []dto.CommentResponse
	if err := c.do(ctx, http.MethodGet, "/comments/task/"+taskID.String(), nil, &response); err != nil {
		return nil, err
	}
	comments := make([]*task.Comment, 0, len(response))
	for _, r := range response {
		comments = append(comments, r.ToComment())
	}
	return comments, nil
}

func (c *Client) CreateComment(ctx context.Context, request dto.CreateCommentRequest) (*task.Comment, error) {
	var response dto.CommentResponse
	if err := c.do(ctx, http.MethodPost, "/comments", request, &response); err != nil {
		return nil, err
	}
	return response.ToComment(), nil
}

func (c *Client) DeleteComment(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/comments/"+id.String(), nil, nil)
}

// Board - серверная проекция доски
func (c *Client) Board(ctx context.Context, search, priority string) (*dto.BoardResponse, error) {
	query := url.Values{}
	if search != "" {
		query.Set("search", search)
	}
	if priority != "" {
		query.Set("priority", priority)
	}
	path := "/board"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var response dto.BoardResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}
