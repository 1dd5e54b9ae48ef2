package board

import (
	"context"
	"fmt"
	"kanban/internal/models/task"
	"kanban/internal/service"
	"strings"

	"github.com/google/uuid"
)

// PriorityAll - значение фильтра, пропускающее любой приоритет
const PriorityAll = "all"

var titles = map[task.Status]string{
	task.StatusTodo:       "To Do",
	task.StatusInProgress: "In Progress",
	task.StatusReview:     "Review",
	task.StatusDone:       "Done",
}

type Filter struct {
	Search   string
	Priority task.Priority
}

type Column struct {
	Status task.Status  `json:"status"`
	Title  string       `json:"title"`
	Tasks  []*task.Task `json:"tasks"`
}

type Board struct {
	Columns  []Column    `json:"columns"`
	Unplaced []uuid.UUID `json:"unplaced,omitempty"`
}

// Mover - всё, что нужно доске от хранилища для переноса карточки
type Mover interface {
	MoveTask(ctx context.Context, id uuid.UUID, status task.Status) (*task.Task, error)
}

// ParseFilter разбирает параметры запроса. "" и "all" означают любой приоритет.
func ParseFilter(search, priority string) (Filter, error) {
	raw := strings.ToLower(strings.TrimSpace(priority))
	if raw == PriorityAll {
		raw = ""
	}
	parsed, ok := task.ParsePriority(raw)
	if !ok {
		return Filter{}, service.NewValidationError("priority", fmt.Sprintf("неизвестный приоритет %q", priority))
	}
	return Filter{
		Search:   search,
		Priority: parsed,
	}, nil
}

// Match: поиск без учёта регистра по названию, описанию, исполнителю и тегам
func (f Filter) Match(t *task.Task) bool {
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}

	// пробелы в термине значимы, пустой термин пропускает всё
	term := strings.ToLower(f.Search)
	if term == "" {
		return true
	}

	if strings.Contains(strings.ToLower(t.Title), term) ||
		strings.Contains(strings.ToLower(t.Description), term) ||
		strings.Contains(strings.ToLower(t.Assignee), term) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

func Title(status task.Status) string {
	if title, ok := titles[status]; ok {
		return title
	}
	return string(status)
}

// Project раскладывает задачи по колонкам. Порядок внутри колонки совпадает с входным.
func Project(tasks []*task.Task, statuses []task.Status, filter Filter) Board {
	result := Board{Columns: make([]Column, 0, len(statuses))}
	index := make(map[task.Status]int, len(statuses))

	for _, status := range statuses {
		if _, dup := index[status]; dup {
			continue
		}
		index[status] = len(result.Columns)
		result.Columns = append(result.Columns, Column{
			Status: status,
			Title:  Title(status),
			Tasks:  []*task.Task{},
		})
	}

	for _, t := range tasks {
		if t == nil || !filter.Match(t) {
			continue
		}
		i, ok := index[t.Status]
		if !ok {
			result.Unplaced = append(result.Unplaced, t.UUID)
			continue
		}
		result.Columns[i].Tasks = append(result.Columns[i].Tasks, t)
	}

	return result
}

// Drop - перенос карточки в колонку target.
// Неизвестная колонка, отсутствующая задача и перенос в свою же колонку игнорируются.
func Drop(ctx context.Context, mover Mover, tasks []*task.Task, taskID uuid.UUID, target task.Status) (*task.Task, bool, error) {
	if !target.Valid() {
		return nil, false, nil
	}

	var current *task.Task
	for _, t := range tasks {
		if t != nil && t.UUID == taskID {
			current = t
			break
		}
	}
	if current == nil || current.Status == target {
		return current, false, nil
	}

	moved, err := mover.MoveTask(ctx, taskID, target)
	if err != nil {
		if service.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("перенос задачи: %w", err)
	}
	return moved, true, nil
}

// Count - число задач на доске
func (b Board) Count() int {
	total := 0
	for _, c := range b.Columns {
		total += len(c.Tasks)
	}
	return total
}
