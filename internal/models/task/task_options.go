package task

import (
	"time"
)

// TaskOption - частичное обновление задачи. nil-опции пропускаются сервисом.
type TaskOption func(*Task)

func WithTitle(title string) TaskOption {
	return func(task *Task) {
		task.Title = title
	}
}

func WithDescription(description string) TaskOption {
	return func(task *Task) {
		task.Description = description
	}
}

func WithStatus(status Status) TaskOption {
	if status == "" {
		return nil
	}
	return func(task *Task) {
		task.Status = status
	}
}

func WithPriority(priority Priority) TaskOption {
	return func(task *Task) {
		task.Priority = priority
	}
}

func WithAssignee(assignee string) TaskOption {
	return func(task *Task) {
		task.Assignee = assignee
	}
}

// WithDueDate(nil) снимает срок
func WithDueDate(dueDate *time.Time) TaskOption {
	return func(task *Task) {
		if dueDate == nil {
			task.DueDate = nil
			return
		}
		due := *dueDate
		task.DueDate = &due
	}
}

func WithTags(tags []string) TaskOption {
	return func(task *Task) {
		task.Tags = append([]string{}, tags...)
	}
}

// Patch - набор полей частичного обновления. nil означает "не менять".
type Patch struct {
	Title       *string
	Description *string
	Status      *Status
	Priority    *Priority
	Assignee    *string
	DueDate     *time.Time
	ClearDue    bool
	Tags        *[]string
}

func (p Patch) Options() []TaskOption {
	var opts []TaskOption
	if p.Title != nil {
		opts = append(opts, WithTitle(*p.Title))
	}
	if p.Description != nil {
		opts = append(opts, WithDescription(*p.Description))
	}
	if p.Status != nil {
		opts = append(opts, WithStatus(*p.Status))
	}
	if p.Priority != nil {
		opts = append(opts, WithPriority(*p.Priority))
	}
	if p.Assignee != nil {
		opts = append(opts, WithAssignee(*p.Assignee))
	}
	if p.ClearDue {
		opts = append(opts, WithDueDate(nil))
	} else if p.DueDate != nil {
		opts = append(opts, WithDueDate(p.DueDate))
	}
	if p.Tags != nil {
		opts = append(opts, WithTags(*p.Tags))
	}
	return opts
}
