package task

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Task struct {
	UUID        uuid.UUID  `json:"id" db:"uuid"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Status      Status     `json:"status" db:"status"`
	Priority    Priority   `json:"priority,omitempty" db:"priority"`
	Assignee    string     `json:"assignee,omitempty" db:"assignee"`
	DueDate     *time.Time `json:"dueDate,omitempty" db:"due_date"`
	Tags        []string   `json:"tags" db:"tags"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
	Comments    []*Comment `json:"comments"`
}

type Comment struct {
	UUID      uuid.UUID `json:"id" db:"uuid"`
	TaskID    uuid.UUID `json:"taskId" db:"task_uuid"`
	Content   string    `json:"content" db:"content"`
	Author    string    `json:"author,omitempty" db:"author"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

type Status string
type Priority string

const StatusTodo Status = "todo"
const StatusInProgress Status = "in-progress"
const StatusReview Status = "review"
const StatusDone Status = "done"

const PriorityLow Priority = "low"
const PriorityMedium Priority = "medium"
const PriorityHigh Priority = "high"

// Statuses - порядок колонок на доске
var Statuses = []Status{StatusTodo, StatusInProgress, StatusReview, StatusDone}

// метки второго варианта фронта, приводим к каноническим
var legacyStatuses = map[string]Status{
	"pending":     StatusTodo,
	"in_progress": StatusInProgress,
	"testing":     StatusReview,
}

func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseStatus принимает как канонические значения, так и PENDING/IN_PROGRESS/TESTING/DONE.
func ParseStatus(raw string) (Status, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if s := Status(normalized); s.Valid() {
		return s, true
	}
	if s, ok := legacyStatuses[normalized]; ok {
		return s, true
	}
	return "", false
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ParsePriority: пустая строка означает "не задан"
func ParsePriority(raw string) (Priority, bool) {
	normalized := Priority(strings.ToLower(strings.TrimSpace(raw)))
	if normalized == "" || normalized.Valid() {
		return normalized, true
	}
	return "", false
}

// Clone возвращает глубокую копию, чтобы хранилища не отдавали наружу свои указатели.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	cp := *t
	if t.DueDate != nil {
		due := *t.DueDate
		cp.DueDate = &due
	}
	cp.Tags = append([]string{}, t.Tags...)
	cp.Comments = make([]*Comment, 0, len(t.Comments))
	for _, c := range t.Comments {
		cc := *c
		cp.Comments = append(cp.Comments, &cc)
	}
	return &cp
}

// Touch обновляет UpdatedAt, не допуская UpdatedAt < CreatedAt.
func (t *Task) Touch(now time.Time) {
	if now.Before(t.CreatedAt) {
		now = t.CreatedAt
	}
	if now.Before(t.UpdatedAt) {
		now = t.UpdatedAt
	}
	t.UpdatedAt = now
}
