package task_test

import (
	"kanban/internal/models/task"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw      string
		expected task.Status
		ok       bool
	}{
		{raw: "todo", expected: task.StatusTodo, ok: true},
		{raw: " In-Progress ", expected: task.StatusInProgress, ok: true},
		{raw: "review", expected: task.StatusReview, ok: true},
		{raw: "DONE", expected: task.StatusDone, ok: true},
		{raw: "PENDING", expected: task.StatusTodo, ok: true},
		{raw: "IN_PROGRESS", expected: task.StatusInProgress, ok: true},
		{raw: "TESTING", expected: task.StatusReview, ok: true},
		{raw: "archived", ok: false},
		{raw: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			status, ok := task.ParseStatus(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, status)
		})
	}
}

func TestParsePriority(t *testing.T) {
	p, ok := task.ParsePriority("")
	assert.True(t, ok)
	assert.Equal(t, task.Priority(""), p)

	p, ok = task.ParsePriority("HIGH")
	assert.True(t, ok)
	assert.Equal(t, task.PriorityHigh, p)

	_, ok = task.ParsePriority("urgent")
	assert.False(t, ok)
}

// TestTask_Touch проверяет, что UpdatedAt не уходит назад
func TestTask_Touch(t *testing.T) {
	created := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tsk := &task.Task{CreatedAt: created, UpdatedAt: created}

	tsk.Touch(created.Add(-time.Hour))
	assert.Equal(t, created, tsk.UpdatedAt)

	later := created.Add(time.Minute)
	tsk.Touch(later)
	assert.Equal(t, later, tsk.UpdatedAt)

	tsk.Touch(created)
	assert.Equal(t, later, tsk.UpdatedAt)
}

func TestTask_Clone(t *testing.T) {
	due := time.Now()
	original := &task.Task{
		UUID:     uuid.New(),
		Title:    "Original",
		DueDate:  &due,
		Tags:     []string{"backend"},
		Comments: []*task.Comment{{UUID: uuid.New(), Content: "first"}},
	}

	cp := original.Clone()
	require.NotNil(t, cp)

	cp.Tags[0] = "frontend"
	cp.Comments[0].Content = "changed"
	*cp.DueDate = due.Add(time.Hour)

	assert.Equal(t, "backend", original.Tags[0])
	assert.Equal(t, "first", original.Comments[0].Content)
	assert.Equal(t, due, *original.DueDate)
}

func TestPatch_Options(t *testing.T) {
	title := "New"
	status := task.StatusDone
	tags := []string{"a", "b"}

	tsk := &task.Task{Title: "Old", Status: task.StatusTodo, Description: "keep"}
	due := time.Now()
	tsk.DueDate = &due

	patch := task.Patch{Title: &title, Status: &status, Tags: &tags, ClearDue: true}
	for _, opt := range patch.Options() {
		opt(tsk)
	}

	assert.Equal(t, "New", tsk.Title)
	assert.Equal(t, task.StatusDone, tsk.Status)
	assert.Equal(t, "keep", tsk.Description)
	assert.Equal(t, []string{"a", "b"}, tsk.Tags)
	assert.Nil(t, tsk.DueDate)
}
