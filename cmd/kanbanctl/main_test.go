package main

import (
	"bytes"
	"encoding/json"
	"kanban/internal/handlers"
	"kanban/internal/handlers/dto"
	"kanban/internal/repository/task/inmemory"
	"kanban/internal/service"
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	router := chi.NewRouter()
	svc := service.NewTaskService(inmemory.NewTaskStorage(), service.InMemoryType)
	handlers.NewTaskHandler(svc).Routes(router)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

// run выполняет kanbanctl с аргументами против server и возвращает вывод
func run(t *testing.T, server *httptest.Server, args ...string) (string, error) {
	t.Helper()
	cmd, c := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--base-url", server.URL}, args...))
	err := execute(cmd, c)
	return out.String(), err
}

func mustRun(t *testing.T, server *httptest.Server, args ...string) string {
	t.Helper()
	out, err := run(t, server, args...)
	require.NoError(t, err, out)
	return out
}

func createTask(t *testing.T, server *httptest.Server, args ...string) dto.TaskResponse {
	t.Helper()
	out := mustRun(t, server, append([]string{"-o", "json", "tasks", "create"}, args...)...)
	var created dto.TaskResponse
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	return created
}

// TestCLI_TaskLifecycle тестирует создание, изменение, перенос и удаление задачи
func TestCLI_TaskLifecycle(t *testing.T) {
	server := newAPI(t)

	created := createTask(t, server, "Fix bug", "-p", "high", "-t", "api", "-t", "auth", "--due", "2026-11-01")
	assert.Equal(t, "todo", created.Status)
	assert.Equal(t, "high", created.Priority)
	assert.Equal(t, []string{"api", "auth"}, created.Tags)
	require.NotNil(t, created.DueDate)

	id := created.UUID.String()

	out := mustRun(t, server, "tasks", "list")
	assert.Contains(t, out, "Fix bug")
	assert.Contains(t, out, "api,auth")

	out = mustRun(t, server, "-o", "json", "tasks", "update", id, "--title", "Fix login bug", "--clear-due")
	var updated dto.TaskResponse
	require.NoError(t, json.Unmarshal([]byte(out), &updated))
	assert.Equal(t, "Fix login bug", updated.Title)
	assert.Nil(t, updated.DueDate)
	assert.Equal(t, "high", updated.Priority)

	out = mustRun(t, server, "tasks", "move", id, "TESTING")
	assert.Contains(t, out, "review")

	out = mustRun(t, server, "tasks", "list", "--status", "review")
	assert.Contains(t, out, "Fix login bug")
	out = mustRun(t, server, "tasks", "list", "--status", "done")
	assert.NotContains(t, out, "Fix login bug")

	mustRun(t, server, "tasks", "delete", id)

	_, err := run(t, server, "tasks", "get", id)
	require.Error(t, err)
	assert.True(t, service.IsNotFound(err))
}

func TestCLI_Validation(t *testing.T) {
	server := newAPI(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "bad status", args: []string{"tasks", "create", "x", "-s", "archived"}},
		{name: "bad priority", args: []string{"tasks", "create", "x", "-p", "urgent"}},
		{name: "bad due", args: []string{"tasks", "create", "x", "--due", "завтра"}},
		{name: "blank title", args: []string{"tasks", "create", "   "}},
		{name: "bad id", args: []string{"tasks", "get", "42"}},
		{name: "bad output", args: []string{"-o", "xml", "tasks", "list"}},
		{name: "bad board priority", args: []string{"board", "-p", "urgent"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, server, tt.args...)
			assert.Error(t, err)
		})
	}
}

// TestCLI_Comments тестирует добавление, вывод и удаление комментариев
func TestCLI_Comments(t *testing.T) {
	server := newAPI(t)
	created := createTask(t, server, "Write docs")
	id := created.UUID.String()

	out := mustRun(t, server, "-o", "json", "comments", "add", id, "looks", "good", "-a", "ann")
	var comment dto.CommentResponse
	require.NoError(t, json.Unmarshal([]byte(out), &comment))
	assert.Equal(t, "looks good", comment.Content)
	assert.Equal(t, "ann", comment.Author)

	out = mustRun(t, server, "comments", "list", id)
	assert.Contains(t, out, "looks good")
	assert.Contains(t, out, "ann")

	mustRun(t, server, "comments", "delete", comment.UUID.String())

	out = mustRun(t, server, "-o", "json", "comments", "list", id)
	assert.Equal(t, "[]", strings.TrimSpace(out))
}

// TestCLI_Board тестирует вывод доски, фильтры и перенос карточки
func TestCLI_Board(t *testing.T) {
	server := newAPI(t)
	login := createTask(t, server, "Fix login", "-p", "high")
	createTask(t, server, "Write docs", "-p", "low", "-s", "in_progress")

	out := mustRun(t, server, "board")
	assert.Contains(t, out, "== To Do (1) ==")
	assert.Contains(t, out, "== In Progress (1) ==")
	assert.Contains(t, out, "== Done (0) ==")

	out = mustRun(t, server, "board", "--priority", "high")
	assert.Contains(t, out, "Fix login")
	assert.NotContains(t, out, "Write docs")

	out = mustRun(t, server, "-o", "yaml", "board", "--search", "DOCS")
	var parsed struct {
		Columns []struct {
			Status string `yaml:"status"`
			Tasks  []struct {
				Title string `yaml:"title"`
			} `yaml:"tasks"`
		} `yaml:"columns"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &parsed))
	require.Len(t, parsed.Columns, 4)
	require.Len(t, parsed.Columns[1].Tasks, 1)
	assert.Equal(t, "Write docs", parsed.Columns[1].Tasks[0].Title)

	out = mustRun(t, server, "-o", "json", "board", "--server", "--priority", "high")
	var fromServer dto.BoardResponse
	require.NoError(t, json.Unmarshal([]byte(out), &fromServer))
	require.Len(t, fromServer.Columns, 4)
	require.Len(t, fromServer.Columns[0].Tasks, 1)
	assert.Equal(t, login.UUID, fromServer.Columns[0].Tasks[0].UUID)
	assert.Empty(t, fromServer.Columns[1].Tasks)

	out = mustRun(t, server, "board", "--server")
	assert.Contains(t, out, "== To Do (1) ==")
	assert.Contains(t, out, "== In Progress (1) ==")

	_, err := run(t, server, "board", "--server", "--watch")
	assert.Error(t, err)

	out = mustRun(t, server, "board", "drop", login.UUID.String(), "done")
	assert.Contains(t, out, "done")

	out = mustRun(t, server, "board", "drop", login.UUID.String(), "done")
	assert.Contains(t, out, "ничего не изменилось")

	out = mustRun(t, server, "board", "drop", login.UUID.String(), "archived")
	assert.Contains(t, out, "ничего не изменилось")
}

// TestCLI_RedisCache тестирует кэширование списка задач в Redis
func TestCLI_RedisCache(t *testing.T) {
	server := newAPI(t)
	mr := miniredis.RunT(t)
	t.Setenv("KANBAN_CACHE_REDIS_ADDR", mr.Addr())

	createTask(t, server, "Cached")
	assert.False(t, mr.Exists("kanban:tasks"))

	mustRun(t, server, "tasks", "list")
	assert.True(t, mr.Exists("kanban:tasks"))

	createTask(t, server, "Evicts")
	assert.False(t, mr.Exists("kanban:tasks"))
}

// TestCLI_ClosesOnError проверяет, что ресурсы закрываются и при ошибке команды
func TestCLI_ClosesOnError(t *testing.T) {
	server := newAPI(t)
	mr := miniredis.RunT(t)
	t.Setenv("KANBAN_CACHE_REDIS_ADDR", mr.Addr())

	tests := []struct {
		name string
		args []string
	}{
		{name: "command fails", args: []string{"tasks", "get", uuid.NewString()}},
		{name: "setup fails", args: []string{"-o", "xml", "tasks", "list"}},
		{name: "success", args: []string{"tasks", "list"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, c := newRootCmd()
			closed := 0
			c.closers = append(c.closers, func() { closed++ })
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs(append([]string{"--base-url", server.URL}, tt.args...))

			_ = execute(cmd, c)

			assert.Equal(t, 1, closed)
			assert.Empty(t, c.closers)
		})
	}
}
