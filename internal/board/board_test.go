package board_test

import (
	"context"
	"errors"
	"kanban/internal/board"
	"kanban/internal/models/task"
	"kanban/internal/repository/task/inmemory"
	"kanban/internal/service"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMover struct {
	mock.Mock
}

func (m *MockMover) MoveTask(ctx context.Context, id uuid.UUID, status task.Status) (*task.Task, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func card(title string, status task.Status) *task.Task {
	return &task.Task{UUID: uuid.New(), Title: title, Status: status, Tags: []string{}}
}

func columnIDs(b board.Board, status task.Status) []uuid.UUID {
	for _, c := range b.Columns {
		if c.Status == status {
			ids := make([]uuid.UUID, 0, len(c.Tasks))
			for _, t := range c.Tasks {
				ids = append(ids, t.UUID)
			}
			return ids
		}
	}
	return nil
}

// TestProject_UnknownStatus проверяет, что задача с неизвестным статусом не попадает ни в одну колонку
func TestProject_UnknownStatus(t *testing.T) {
	a := card("A", task.StatusDone)
	b := card("B", task.StatusTodo)
	c := card("C", task.Status("unknown"))

	result := board.Project([]*task.Task{a, b, c}, task.Statuses, board.Filter{})

	require.Len(t, result.Columns, 4)
	assert.Equal(t, []uuid.UUID{a.UUID}, columnIDs(result, task.StatusDone))
	assert.Equal(t, []uuid.UUID{b.UUID}, columnIDs(result, task.StatusTodo))
	assert.Empty(t, columnIDs(result, task.StatusInProgress))
	assert.Equal(t, []uuid.UUID{c.UUID}, result.Unplaced)
	assert.Equal(t, 2, result.Count())
}

// TestProject_ColumnsAndOrder проверяет заголовки колонок и стабильный порядок
func TestProject_ColumnsAndOrder(t *testing.T) {
	first := card("first", task.StatusReview)
	second := card("second", task.StatusTodo)
	third := card("third", task.StatusReview)

	result := board.Project([]*task.Task{first, second, third}, task.Statuses, board.Filter{})

	titles := make([]string, 0, len(result.Columns))
	for _, c := range result.Columns {
		titles = append(titles, c.Title)
	}
	assert.Equal(t, []string{"To Do", "In Progress", "Review", "Done"}, titles)
	assert.Equal(t, []uuid.UUID{first.UUID, third.UUID}, columnIDs(result, task.StatusReview))
	assert.NotNil(t, result.Columns[3].Tasks)
}

// TestFilter_Search проверяет свойство фильтра по подстроке
func TestFilter_Search(t *testing.T) {
	tasks := []*task.Task{
		{UUID: uuid.New(), Title: "Fix LOGIN bug", Status: task.StatusTodo},
		{UUID: uuid.New(), Title: "Docs", Description: "describe login flow", Status: task.StatusTodo},
		{UUID: uuid.New(), Title: "Infra", Assignee: "Loginov", Status: task.StatusDone},
		{UUID: uuid.New(), Title: "Tagged", Tags: []string{"auth", "LogIn"}, Status: task.StatusReview},
		{UUID: uuid.New(), Title: "Unrelated", Description: "nothing", Assignee: "ann", Tags: []string{"ui"}, Status: task.StatusTodo},
	}

	term := "login"
	filter, err := board.ParseFilter(term, "")
	require.NoError(t, err)

	result := board.Project(tasks, task.Statuses, filter)

	shown := map[uuid.UUID]bool{}
	for _, c := range result.Columns {
		for _, tk := range c.Tasks {
			shown[tk.UUID] = true
		}
	}

	matches := func(tk *task.Task) bool {
		needle := strings.ToLower(term)
		fields := append([]string{tk.Title, tk.Description, tk.Assignee}, tk.Tags...)
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), needle) {
				return true
			}
		}
		return false
	}

	for _, tk := range tasks {
		assert.Equal(t, matches(tk), shown[tk.UUID], tk.Title)
	}
	assert.Len(t, shown, 4)
}

// TestFilter_SearchKeepsSpaces проверяет, что термин сравнивается как есть, без обрезки пробелов
func TestFilter_SearchKeepsSpaces(t *testing.T) {
	tests := []struct {
		name   string
		search string
		title  string
		want   bool
	}{
		{name: "inner space matches", search: "fix login", title: "Fix LOGIN bug", want: true},
		{name: "leading space matches word break", search: " login", title: "Fix login bug", want: true},
		{name: "leading space does not match prefix", search: " login", title: "login page", want: false},
		{name: "trailing space not trimmed", search: "bug ", title: "Fix login bug", want: false},
		{name: "blank term is literal", search: "   ", title: "Fix login", want: false},
		{name: "empty term matches all", search: "", title: "anything", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := board.ParseFilter(tt.search, "")
			require.NoError(t, err)
			assert.Equal(t, tt.search, filter.Search)
			assert.Equal(t, tt.want, filter.Match(&task.Task{Title: tt.title}))
		})
	}
}

// TestParseFilter тестирует разбор фильтра приоритета
func TestParseFilter(t *testing.T) {
	tests := []struct {
		name     string
		priority string
		want     task.Priority
		wantErr  bool
	}{
		{name: "empty", priority: "", want: ""},
		{name: "all", priority: "ALL", want: ""},
		{name: "high", priority: "High", want: task.PriorityHigh},
		{name: "unknown", priority: "urgent", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := board.ParseFilter("", tt.priority)
			if tt.wantErr {
				assert.True(t, service.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, filter.Priority)
		})
	}
}

// TestFilter_Priority комбинирует поиск и приоритет
func TestFilter_Priority(t *testing.T) {
	high := &task.Task{UUID: uuid.New(), Title: "api", Priority: task.PriorityHigh, Status: task.StatusTodo}
	low := &task.Task{UUID: uuid.New(), Title: "api docs", Priority: task.PriorityLow, Status: task.StatusTodo}
	other := &task.Task{UUID: uuid.New(), Title: "ui", Priority: task.PriorityHigh, Status: task.StatusTodo}

	filter, err := board.ParseFilter("api", "high")
	require.NoError(t, err)

	result := board.Project([]*task.Task{high, low, other}, task.Statuses, filter)
	assert.Equal(t, []uuid.UUID{high.UUID}, columnIDs(result, task.StatusTodo))
}

// TestDrop тестирует перенос карточки
func TestDrop(t *testing.T) {
	ctx := context.Background()
	todo := card("todo", task.StatusTodo)
	tasks := []*task.Task{todo}

	t.Run("moves to another column", func(t *testing.T) {
		mover := new(MockMover)
		movedTask := card("todo", task.StatusDone)
		movedTask.UUID = todo.UUID
		mover.On("MoveTask", mock.Anything, todo.UUID, task.StatusDone).Return(movedTask, nil)

		moved, ok, err := board.Drop(ctx, mover, tasks, todo.UUID, task.StatusDone)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, task.StatusDone, moved.Status)
		mover.AssertExpectations(t)
	})

	t.Run("ignored drops", func(t *testing.T) {
		mover := new(MockMover)

		_, ok, err := board.Drop(ctx, mover, tasks, todo.UUID, task.Status("blocked"))
		assert.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = board.Drop(ctx, mover, tasks, uuid.New(), task.StatusDone)
		assert.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = board.Drop(ctx, mover, tasks, todo.UUID, task.StatusTodo)
		assert.NoError(t, err)
		assert.False(t, ok)

		mover.AssertNotCalled(t, "MoveTask", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("task vanished on the server", func(t *testing.T) {
		mover := new(MockMover)
		mover.On("MoveTask", mock.Anything, todo.UUID, task.StatusReview).
			Return(nil, service.NewNotFound("task", todo.UUID.String()))

		_, ok, err := board.Drop(ctx, mover, tasks, todo.UUID, task.StatusReview)
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("transport error surfaces", func(t *testing.T) {
		mover := new(MockMover)
		mover.On("MoveTask", mock.Anything, todo.UUID, task.StatusReview).Return(nil, errors.New("connection refused"))

		_, ok, err := board.Drop(ctx, mover, tasks, todo.UUID, task.StatusReview)
		assert.Error(t, err)
		assert.False(t, ok)
	})
}

// TestBoard_Scenario: создание, перенос в done, удаление
func TestBoard_Scenario(t *testing.T) {
	ctx := context.Background()
	svc := service.NewTaskService(inmemory.NewTaskStorage(), service.InMemoryType)

	created, err := svc.CreateTask(ctx, service.CreateTaskInput{Title: "Fix bug"})
	require.NoError(t, err)

	tasks, err := svc.ListTasks(ctx)
	require.NoError(t, err)
	view := board.Project(tasks, task.Statuses, board.Filter{})
	assert.Equal(t, []uuid.UUID{created.UUID}, columnIDs(view, task.StatusTodo))

	_, ok, err := board.Drop(ctx, svc, tasks, created.UUID, task.StatusDone)
	require.NoError(t, err)
	require.True(t, ok)

	tasks, err = svc.ListTasks(ctx)
	require.NoError(t, err)
	view = board.Project(tasks, task.Statuses, board.Filter{})
	assert.Empty(t, columnIDs(view, task.StatusTodo))
	assert.Equal(t, []uuid.UUID{created.UUID}, columnIDs(view, task.StatusDone))

	require.NoError(t, svc.DeleteTask(ctx, created.UUID))

	tasks, err = svc.ListTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
	view = board.Project(tasks, task.Statuses, board.Filter{})
	assert.Equal(t, 0, view.Count())
}
